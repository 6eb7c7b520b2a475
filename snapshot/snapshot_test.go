package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chatnav/dom"
	"chatnav/navigator"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const fixture = `<!DOCTYPE html><html><head><title>t</title></head><body>
<main><div class="user"><p>first question here</p></div><div class="user"><p>second question here</p></div></main>
</body></html>`

func newHost(t *testing.T) *Host {
	t.Helper()
	p, err := dom.ParseString(fixture, "https://test.example/")
	require.NoError(t, err)
	return New(p)
}

func overlay() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		Attr: []html.Attribute{{Key: "id", Val: dom.OverlayID}}}
}

func TestSnapshotIsIndependent(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://test.example/", snap.URL())

	snap.Document().Find("main").Remove()
	h.Read(func(p *dom.Page) {
		assert.Equal(t, 1, p.Document().Find("main").Length())
	})
}

func TestCommitReplaysStamps(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	users := snap.Document().Find("div.user")
	snap.Stamp(users.Eq(0), "q-0", true)
	snap.Stamp(users.Eq(1), "q-1", false)

	require.NoError(t, h.Commit(ctx, snap.DrainStamps()))

	h.Read(func(p *dom.Page) {
		first := p.Resolve("q-0")
		require.NotNil(t, first)
		assert.Equal(t, "q-0", dom.Attr(first, "id"))
		assert.Equal(t, "first question here", dom.Text(first))

		second := p.Resolve("q-1")
		require.NotNil(t, second)
		assert.Empty(t, dom.Attr(second, "id"))
		assert.Equal(t, "q-1", dom.Attr(second, dom.MarkerAttr))
	})
}

func TestCommitSkipsStaleStamps(t *testing.T) {
	h := newHost(t)
	stamps := []dom.Stamp{
		{Path: dom.Path{1, 0, 7}, Tag: "div", ID: "gone"},
		{Path: dom.Path{1, 0, 0}, Tag: "span", ID: "wrong-tag"},
		{Path: dom.Path{1, 0, 0}, Tag: "div", Class: "user", Text: "a question that was edited", ID: "wrong-text"},
	}
	require.NoError(t, h.Commit(context.Background(), stamps))

	h.Read(func(p *dom.Page) {
		assert.Nil(t, p.Resolve("gone"))
		assert.Nil(t, p.Resolve("wrong-tag"))
		assert.Nil(t, p.Resolve("wrong-text"))
	})
}

func TestCommitLocatesElementsThatDoNotRoundTrip(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()

	// A script can put a div inside a p; serializing and reparsing moves it
	// out, so paths computed on a snapshot do not lead back to it.
	h.Mutate(func(p *dom.Page) {
		para := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
			Attr: []html.Attribute{{Key: "class", Val: "user"}}}
		div.AppendChild(&html.Node{Type: html.TextNode, Data: "zeroth question inside a paragraph"})
		para.AppendChild(div)
		main := p.Document().Find("main").Nodes[0]
		main.InsertBefore(para, main.FirstChild)
	})

	snap, err := h.Snapshot(ctx)
	require.NoError(t, err)
	users := snap.Document().Find("div.user")
	require.Equal(t, 3, users.Length())
	want := map[string]string{}
	users.Each(func(i int, s *goquery.Selection) {
		id := fmt.Sprintf("q-%d", i)
		snap.Stamp(s, id, true)
		want[id] = dom.Text(s)
	})

	require.NoError(t, h.Commit(ctx, snap.DrainStamps()))

	h.Read(func(p *dom.Page) {
		for id, text := range want {
			got := p.Resolve(id)
			require.NotNil(t, got, id)
			assert.Equal(t, text, dom.Text(got), id)
		}
	})
}

func TestMountIsIdempotentAndSilent(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()

	require.NoError(t, h.Mount(ctx, overlay()))
	require.NoError(t, h.Mount(ctx, overlay()))

	h.Read(func(p *dom.Page) {
		assert.Equal(t, 1, p.Document().Find("#"+dom.OverlayID).Length())
	})
	assert.Len(t, h.Changes(), 0, "mounting the overlay is not a page change")
}

func TestScrollAndHighlight(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()
	h.Mutate(func(p *dom.Page) {
		p.Stamp(p.Document().Find("div.user").First(), "q-0", true)
	})

	found, err := h.ScrollTo(ctx, "q-0")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = h.ScrollTo(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, []string{"q-0"}, h.Scrolls())

	require.NoError(t, h.Highlight(ctx, "q-0", true))
	h.Read(func(p *dom.Page) {
		assert.Equal(t, "true", dom.Attr(p.Resolve("q-0"), dom.HighlightAttr))
	})
	require.NoError(t, h.Highlight(ctx, "q-0", false))
	h.Read(func(p *dom.Page) {
		_, ok := p.Resolve("q-0").Attr(dom.HighlightAttr)
		assert.False(t, ok)
	})
	require.NoError(t, h.Highlight(ctx, "missing", true))

	assert.Equal(t, []HighlightCall{{"q-0", true}, {"q-0", false}}, h.Highlights())
}

func TestCancelledContext(t *testing.T) {
	h := newHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = h.ScrollTo(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, h.Mount(ctx, overlay()), context.Canceled)
}

func TestMutateNotifiesAndCloseStops(t *testing.T) {
	h := newHost(t)
	h.Mutate(func(p *dom.Page) {})
	select {
	case <-h.Changes():
	default:
		t.Fatal("expected a change notification")
	}

	assert.True(t, h.Send(navigator.Event{Kind: navigator.EventOutside}))
	ev := <-h.Events()
	assert.Equal(t, navigator.EventOutside, ev.Kind)

	h.Close()
	h.Close()
	assert.False(t, h.Send(navigator.Event{Kind: navigator.EventOutside}))
	h.Mutate(func(p *dom.Page) {})
	_, ok := <-h.Changes()
	assert.False(t, ok)
}

func TestWatchReloadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0644))

	h, err := Open(path, "https://test.example/")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx, path, "https://test.example/"))

	// Unrelated files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.html"), []byte("x"), 0644))

	updated := `<html><body><main><div class="user"><p>rewritten question</p></div></main></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	select {
	case <-h.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change after rewriting the snapshot")
	}

	require.Eventually(t, func() bool {
		var text string
		h.Read(func(p *dom.Page) { text = p.Document().Find("div.user").First().Text() })
		return text == "rewritten question"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.html"), "")
	assert.Error(t, err)
}
