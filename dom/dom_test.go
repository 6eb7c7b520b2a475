package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Sample</title></head>
<body>
	<main>
		<div class="msg user" id="m1"><p>first question text</p></div>
		<div class="msg bot"><p>an answer</p></div>
		<div class="msg user" data-role="user"><p>second   question
			text</p></div>
	</main>
	<nav>
		<a href="/c/abc" class="item"><span class="title">Chat A</span></a>
	</nav>
</body>
</html>`

func mustPage(t *testing.T, s string) *Page {
	t.Helper()
	p, err := ParseString(s, "https://example.test/c/abc")
	require.NoError(t, err)
	return p
}

func TestScanUnionsFamiliesInDocumentOrder(t *testing.T) {
	p := mustPage(t, samplePage)
	// The second family matches the third div only; the first matches both
	// user divs. Each node must appear once, in document order.
	ms, err := Compile(`[data-role="user"]`, `div.user`)
	require.NoError(t, err)

	got := p.Scan(ms)
	require.Len(t, got, 2)
	assert.Equal(t, "first question text", Text(got[0]))
	assert.Equal(t, "second question text", Text(got[1]))
}

func TestCompileSkipsInvalidSelectors(t *testing.T) {
	ms, err := Compile("div.user", "div[[[", "  ")
	assert.Error(t, err)
	assert.Len(t, ms, 1)
}

func TestScanSkipsOverlay(t *testing.T) {
	p := mustPage(t, samplePage)
	overlay := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		Attr: []html.Attribute{{Key: "id", Val: OverlayID}}}
	row := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		Attr: []html.Attribute{{Key: "class", Val: "msg user"}}}
	overlay.AppendChild(row)
	p.Mount(overlay)

	ms, _ := Compile("div.user")
	assert.Len(t, p.Scan(ms), 2)
}

func TestWithinAndFirst(t *testing.T) {
	p := mustPage(t, samplePage)
	links, _ := Compile("nav a")
	titles, _ := Compile(".missing", "span.title")

	link := p.First(links)
	require.NotNil(t, link)
	assert.Equal(t, "/c/abc", Href(link))

	title := Within(link, titles)
	require.NotNil(t, title)
	assert.Equal(t, "Chat A", Text(title))

	none, _ := Compile(".missing")
	assert.Nil(t, Within(link, none))
	assert.Nil(t, p.First(none))
}

func TestHrefFromAncestor(t *testing.T) {
	p := mustPage(t, samplePage)
	ms, _ := Compile("span.title")
	span := p.First(ms)
	require.NotNil(t, span)
	assert.Equal(t, "/c/abc", Href(span))
}

func TestStampAndResolve(t *testing.T) {
	p := mustPage(t, samplePage)
	ms, _ := Compile("div.user")
	got := p.Scan(ms)
	require.Len(t, got, 2)

	// Existing id is kept, the marker is added.
	p.Stamp(got[0], "m1", true)
	// No id yet: both attributes are written.
	p.Stamp(got[1], "site-user-2", true)

	assert.Equal(t, "m1", Attr(got[0], "id"))
	assert.Equal(t, "site-user-2", Attr(got[1], "id"))
	assert.Equal(t, "site-user-2", Attr(got[1], MarkerAttr))

	stamps := p.DrainStamps()
	require.Len(t, stamps, 2)
	assert.False(t, stamps[0].SetID)
	assert.True(t, stamps[1].SetID)
	assert.Equal(t, "div", stamps[1].Tag)
	assert.Same(t, got[1].Nodes[0], p.Node(stamps[1].Path))

	// Re-stamping the same id changes nothing and records nothing.
	p.Stamp(got[1], "site-user-2", true)
	assert.Empty(t, p.DrainStamps())

	r := p.Resolve("site-user-2")
	require.NotNil(t, r)
	assert.Same(t, got[1].Nodes[0], r.Nodes[0])
	assert.Nil(t, p.Resolve("nope"))
	assert.Nil(t, p.Resolve(""))
}

func TestResolveFallsBackToMarker(t *testing.T) {
	p := mustPage(t, `<html><body><a id="native" data-chatnav-id="x-chat-1" href="/c/1">A</a></body></html>`)
	r := p.Resolve("x-chat-1")
	require.NotNil(t, r)
	assert.Equal(t, "native", Attr(r, "id"))
}

func TestMountIsIdempotent(t *testing.T) {
	p := mustPage(t, samplePage)
	for i := 0; i < 3; i++ {
		overlay := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
			Attr: []html.Attribute{{Key: "id", Val: OverlayID}}}
		p.Mount(overlay)
	}
	out, err := p.HTML()
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, `id="`+OverlayID+`"`))
	assert.NotNil(t, p.Overlay())

	p.Unmount()
	assert.Nil(t, p.Overlay())
}

func TestPathOf(t *testing.T) {
	p := mustPage(t, samplePage)
	ms, _ := Compile("main")
	main := p.First(ms)
	require.NotNil(t, main)
	// html > body(1) > main(0)
	assert.Equal(t, Path{1, 0}, PathOf(main.Nodes[0]))
	assert.Same(t, main.Nodes[0], p.Node(Path{1, 0}))
	assert.Nil(t, p.Node(Path{1, 9}))
}

func TestInHead(t *testing.T) {
	p := mustPage(t, samplePage)
	ms, _ := Compile("title")
	title := p.First(ms)
	require.NotNil(t, title)
	assert.True(t, InHead(title.Nodes[0]))
}

func TestStampCarriesFingerprint(t *testing.T) {
	p := mustPage(t, samplePage)
	ms, _ := Compile("div.user")
	got := p.Scan(ms)
	p.Stamp(got[1], "q-2", true)

	stamps := p.DrainStamps()
	require.Len(t, stamps, 1)
	assert.Equal(t, "msg user", stamps[0].Class)
	assert.Equal(t, "second question text", stamps[0].Text)
	assert.True(t, stamps[0].Matches(got[1].Nodes[0]))
	assert.False(t, stamps[0].Matches(got[0].Nodes[0]))
}

func TestLocate(t *testing.T) {
	src := mustPage(t, samplePage)
	ms, _ := Compile("div.user")
	users := src.Scan(ms)
	src.Stamp(users[0], "q-1", false)
	src.Stamp(users[1], "q-2", false)
	stamps := src.DrainStamps()
	require.Len(t, stamps, 2)

	t.Run("path still matches", func(t *testing.T) {
		live := mustPage(t, samplePage)
		n := live.Locate(stamps[1])
		require.NotNil(t, n)
		assert.Equal(t, "second question text", Text(live.Document().FindNodes(n)))
	})

	t.Run("element moved", func(t *testing.T) {
		// A new message above shifts every path; the fingerprint still finds
		// the right element.
		live := mustPage(t, strings.Replace(samplePage, "<main>",
			`<main><div class="msg user"><p>an older question</p></div>`, 1))
		for _, s := range stamps {
			n := live.Locate(s)
			require.NotNil(t, n)
			assert.Equal(t, s.Text, Text(live.Document().FindNodes(n)))
		}
	})

	t.Run("same shape different text", func(t *testing.T) {
		live := mustPage(t, strings.Replace(samplePage, "second", "third", 1))
		assert.Nil(t, live.Locate(stamps[1]))
	})

	t.Run("claimed by another id", func(t *testing.T) {
		live := mustPage(t, strings.Replace(samplePage, `<main>`, `<main><div class="msg user" data-chatnav-id="other"><p>first question text</p></div>`, 1))
		// The element at the path carries another id; the untouched one
		// further down is used.
		n := live.Locate(stamps[0])
		require.NotNil(t, n)
		assert.Equal(t, "m1", getAttr(n, "id"))
	})

	t.Run("no text is path only", func(t *testing.T) {
		live := mustPage(t, samplePage)
		assert.Nil(t, live.Locate(Stamp{Path: Path{1, 0, 9}, Tag: "div", ID: "x"}))
	})
}
