// Package dom wraps a parsed page tree with the operations the navigator
// needs: selector-union scanning in document order, trimmed text reads, id
// stamping and resolution, and mounting the overlay.
package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"chatnav/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

const (
	// OverlayID is the id of the overlay root element.
	OverlayID = "chatnav-overlay"

	// MarkerAttr carries the navigator id stamped onto source elements. It is
	// the secondary lookup when an element's own id attribute is not ours.
	MarkerAttr = "data-chatnav-id"

	// HighlightAttr is set on an element while it is emphasized.
	HighlightAttr = "data-chatnav-highlight"
)

// Page is a page structure tree. It is not safe for concurrent use.
type Page struct {
	doc    *goquery.Document
	url    string
	stamps []Stamp
}

// FingerprintRunes is how much of an element's collapsed text a stamp keeps
// to recognize the element on the live tree.
const FingerprintRunes = 64

// Stamp records an id written onto an element so a host holding the live
// tree can replay it. Path is only a hint: the live tree may not have the
// shape of the parsed copy, so hosts check Tag, Class and Text before
// writing (see Locate).
type Stamp struct {
	Path  Path   `json:"path"`
	Tag   string `json:"tag"`
	ID    string `json:"id"`
	SetID bool   `json:"setId"` // write the id attribute as well as the marker
	Class string `json:"class,omitempty"`
	Text  string `json:"text,omitempty"` // leading runes of the collapsed text
}

// Matches reports whether n looks like the element the stamp was made on.
func (s Stamp) Matches(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode &&
		n.Data == s.Tag &&
		getAttr(n, "class") == s.Class &&
		fingerprint(n) == s.Text
}

// Path addresses an element by element-child indices from the document
// element (<html>). The document element itself has an empty path.
type Path []int

// Parse reads HTML into a Page.
func Parse(r io.Reader, url string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return &Page{doc: doc, url: url}, nil
}

// ParseString parses HTML from a string.
func ParseString(s, url string) (*Page, error) {
	return Parse(strings.NewReader(s), url)
}

// URL returns the page location.
func (p *Page) URL() string {
	return p.url
}

// Document exposes the underlying goquery document.
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Matchers is an ordered list of compiled selector families.
type Matchers []cascadia.Selector

// Compile compiles each selector on its own. Invalid selectors are left out
// and reported together in the returned error; the valid ones are still
// usable, so a broken family never disables its siblings.
func Compile(selectors ...string) (Matchers, error) {
	var ms Matchers
	var errs []error
	for _, s := range selectors {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		m, err := cascadia.Compile(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("selector %q: %w", s, err))
			continue
		}
		ms = append(ms, m)
	}
	return ms, errors.Join(errs...)
}

// Scan returns every element matched by any of the families, each element
// once, in document order. The overlay subtree is never scanned.
func (p *Page) Scan(ms Matchers) []*goquery.Selection {
	if len(ms) == 0 {
		return nil
	}
	var out []*goquery.Selection
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if getAttr(n, "id") == OverlayID {
				return
			}
			for _, m := range ms {
				if m.Match(n) {
					out = append(out, p.doc.FindNodes(n))
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range p.doc.Nodes {
		walk(root)
	}
	return out
}

// First returns the first element matched by any family, trying the
// families in order. Returns nil when nothing matches.
func (p *Page) First(ms Matchers) *goquery.Selection {
	for _, m := range ms {
		for _, n := range m.MatchAll(p.doc.Nodes[0]) {
			if !InOverlay(n) {
				return p.doc.FindNodes(n)
			}
		}
	}
	return nil
}

// Within returns the first descendant of s matched by the first family that
// matches anything inside s. Returns nil when no family matches.
func Within(s *goquery.Selection, ms Matchers) *goquery.Selection {
	for _, m := range ms {
		if found := s.FindMatcher(m); found.Length() > 0 {
			return found.First()
		}
	}
	return nil
}

// Text returns the trimmed, whitespace-collapsed text content of s.
func Text(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	return textutil.Collapse(s.Text())
}

// Attr returns the attribute value on the first node of s.
func Attr(s *goquery.Selection, name string) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	v, _ := s.Attr(name)
	return v
}

// Href resolves the navigation target of s: its own href, else the first
// descendant anchor, else the closest ancestor anchor.
func Href(s *goquery.Selection) string {
	if s == nil || s.Length() == 0 {
		return ""
	}
	if href, ok := s.Attr("href"); ok && href != "" {
		return href
	}
	if link := s.Find("a[href]").First(); link.Length() > 0 {
		return Attr(link, "href")
	}
	if link := s.ParentsFiltered("a[href]").First(); link.Length() > 0 {
		return Attr(link, "href")
	}
	return ""
}

// Stamp writes id onto the element as the marker attribute and, when setID
// is true and the element has no id yet, as its id attribute. Only writes
// that change the tree are recorded for replay.
func (p *Page) Stamp(s *goquery.Selection, id string, setID bool) {
	if s == nil || s.Length() == 0 || id == "" {
		return
	}
	n := s.Nodes[0]
	writeID := setID && getAttr(n, "id") == ""
	if !writeID && getAttr(n, MarkerAttr) == id {
		return
	}
	if writeID {
		setAttr(n, "id", id)
	}
	setAttr(n, MarkerAttr, id)
	p.stamps = append(p.stamps, Stamp{
		Path:  PathOf(n),
		Tag:   n.Data,
		ID:    id,
		SetID: writeID,
		Class: getAttr(n, "class"),
		Text:  fingerprint(n),
	})
}

// Locate finds the element a stamp was made on: the element at its path when
// that still matches, else the first matching element in document order.
// Elements already carrying a different id are never chosen. A stamp without
// text is only placed by path, and nil means it cannot be placed safely.
func (p *Page) Locate(s Stamp) *html.Node {
	free := func(n *html.Node) bool {
		m := getAttr(n, MarkerAttr)
		return m == "" || m == s.ID
	}
	if n := p.Node(s.Path); s.Matches(n) && free(n) {
		return n
	}
	if s.Text == "" {
		return nil
	}
	return p.findNode(func(n *html.Node) bool {
		return n.Data == s.Tag && !InOverlay(n) && free(n) && s.Matches(n)
	})
}

// DrainStamps returns the stamps recorded since the last call and clears them.
func (p *Page) DrainStamps() []Stamp {
	out := p.stamps
	p.stamps = nil
	return out
}

// Resolve finds the element addressed by a navigator id: first by id
// attribute, then by marker attribute. Returns nil when neither exists.
func (p *Page) Resolve(id string) *goquery.Selection {
	if id == "" {
		return nil
	}
	if n := p.findNode(func(n *html.Node) bool { return getAttr(n, "id") == id }); n != nil {
		return p.doc.FindNodes(n)
	}
	if n := p.findNode(func(n *html.Node) bool { return getAttr(n, MarkerAttr) == id }); n != nil {
		return p.doc.FindNodes(n)
	}
	return nil
}

// SetAttr sets an attribute on the first node of s.
func SetAttr(s *goquery.Selection, key, val string) {
	if s == nil || s.Length() == 0 {
		return
	}
	setAttr(s.Nodes[0], key, val)
}

// RemoveAttr removes an attribute from the first node of s.
func RemoveAttr(s *goquery.Selection, key string) {
	if s == nil || s.Length() == 0 {
		return
	}
	s.First().RemoveAttr(key)
}

// Mount installs overlay as the last child of <body>, removing any existing
// overlay first so repeated mounts never leave two.
func (p *Page) Mount(overlay *html.Node) {
	p.Unmount()
	body := p.doc.Find("body").First()
	if body.Length() == 0 {
		return
	}
	if overlay.Parent != nil {
		overlay.Parent.RemoveChild(overlay)
	}
	body.Nodes[0].AppendChild(overlay)
}

// Unmount removes every overlay root from the page.
func (p *Page) Unmount() {
	var found []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && getAttr(n, "id") == OverlayID {
			found = append(found, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range p.doc.Nodes {
		walk(root)
	}
	for _, n := range found {
		n.Parent.RemoveChild(n)
	}
}

// Overlay returns the mounted overlay root, or nil.
func (p *Page) Overlay() *goquery.Selection {
	n := p.findNode(func(n *html.Node) bool { return getAttr(n, "id") == OverlayID })
	if n == nil {
		return nil
	}
	return p.doc.FindNodes(n)
}

// HTML serializes the whole page.
func (p *Page) HTML() (string, error) {
	var sb strings.Builder
	for _, n := range p.doc.Nodes {
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

// InOverlay reports whether n is the overlay root or inside it.
func InOverlay(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && getAttr(n, "id") == OverlayID {
			return true
		}
	}
	return false
}

// InHead reports whether n lives under <head>.
func InHead(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && n.Data == "head" {
			return true
		}
	}
	return false
}

// PathOf computes the element path of n from the document element.
func PathOf(n *html.Node) Path {
	var rev []int
	for n != nil && n.Parent != nil && n.Parent.Type != html.DocumentNode {
		idx := 0
		for c := n.Parent.FirstChild; c != nil && c != n; c = c.NextSibling {
			if c.Type == html.ElementNode {
				idx++
			}
		}
		rev = append(rev, idx)
		n = n.Parent
	}
	path := make(Path, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}
	return path
}

// Node resolves a path back to an element, or nil if the tree no longer
// has that shape.
func (p *Page) Node(path Path) *html.Node {
	n := documentElement(p.doc.Nodes[0])
	for _, idx := range path {
		if n == nil {
			return nil
		}
		n = elementChild(n, idx)
	}
	return n
}

func (p *Page) findNode(match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, root := range p.doc.Nodes {
		walk(root)
	}
	return found
}

func documentElement(n *html.Node) *html.Node {
	if n.Type != html.DocumentNode {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}

func elementChild(n *html.Node, idx int) *html.Node {
	i := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if i == idx {
			return c
		}
		i++
	}
	return nil
}

// fingerprint is the first FingerprintRunes runes of the collapsed text
// content of n.
func fingerprint(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	text := []rune(textutil.Collapse(sb.String()))
	if len(text) > FingerprintRunes {
		text = text[:FingerprintRunes]
	}
	return string(text)
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
