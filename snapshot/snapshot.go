// Package snapshot is an in-process navigator host. The live page is a tree
// parsed from HTML; it changes when a caller mutates or replaces it, or when
// the snapshot file it came from is rewritten.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"chatnav/dom"
	"chatnav/navigator"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// HighlightCall records one Highlight request that resolved.
type HighlightCall struct {
	ID string
	On bool
}

// Host implements navigator.Host over a parsed page.
type Host struct {
	mu         sync.Mutex
	page       *dom.Page
	scrolls    []string
	highlights []HighlightCall
	closed     bool

	changes chan navigator.Change
	events  chan navigator.Event
	log     logrus.FieldLogger
}

// New wraps page as the live tree.
func New(page *dom.Page) *Host {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Host{
		page:    page,
		changes: make(chan navigator.Change, 64),
		events:  make(chan navigator.Event, 64),
		log:     l,
	}
}

// Open parses the HTML file at path as the live tree.
func Open(path, url string) (*Host, error) {
	p, err := readPage(path, url)
	if err != nil {
		return nil, err
	}
	return New(p), nil
}

// SetLogger replaces the host's logger.
func (h *Host) SetLogger(l logrus.FieldLogger) {
	h.log = l.WithField("component", "snapshot")
}

// Snapshot returns an independent copy of the live page.
func (h *Host) Snapshot(ctx context.Context) (*dom.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	src, err := h.page.HTML()
	url := h.page.URL()
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("serializing page: %w", err)
	}
	return dom.ParseString(src, url)
}

// Commit replays stamps onto the live page. A stamp that no longer matches
// any element is skipped; the next refresh stamps it again.
func (h *Host) Commit(ctx context.Context, stamps []dom.Stamp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	skipped := 0
	for _, s := range stamps {
		n := h.page.Locate(s)
		if n == nil {
			skipped++
			continue
		}
		sel := h.page.Document().FindNodes(n)
		if s.SetID && dom.Attr(sel, "id") == "" {
			dom.SetAttr(sel, "id", s.ID)
		}
		dom.SetAttr(sel, dom.MarkerAttr, s.ID)
	}
	if skipped > 0 {
		h.log.WithField("skipped", skipped).Debug("stamps no longer match the page")
	}
	return nil
}

// Mount installs overlay, replacing any previous one. It does not count as a
// page change.
func (h *Host) Mount(ctx context.Context, overlay *html.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.page.Mount(overlay)
	return nil
}

// ScrollTo records a scroll to the element carrying id.
func (h *Host) ScrollTo(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.page.Resolve(id) == nil {
		return false, nil
	}
	h.scrolls = append(h.scrolls, id)
	return true, nil
}

// Highlight sets or clears the highlight attribute on the element carrying id.
func (h *Host) Highlight(ctx context.Context, id string, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	sel := h.page.Resolve(id)
	if sel == nil {
		return nil
	}
	if on {
		dom.SetAttr(sel, dom.HighlightAttr, "true")
	} else {
		dom.RemoveAttr(sel, dom.HighlightAttr)
	}
	h.highlights = append(h.highlights, HighlightCall{ID: id, On: on})
	return nil
}

// Changes implements navigator.Host.
func (h *Host) Changes() <-chan navigator.Change { return h.changes }

// Events implements navigator.Host.
func (h *Host) Events() <-chan navigator.Event { return h.events }

// Mutate runs fn against the live page and reports a change.
func (h *Host) Mutate(fn func(p *dom.Page)) {
	h.mu.Lock()
	fn(h.page)
	h.mu.Unlock()
	h.notify()
}

// Replace swaps the live page for p and reports a change.
func (h *Host) Replace(p *dom.Page) {
	h.mu.Lock()
	h.page = p
	h.mu.Unlock()
	h.notify()
}

// Read runs fn against the live page without reporting a change.
func (h *Host) Read(fn func(p *dom.Page)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h.page)
}

// Send delivers a user event. It reports false when the event was dropped
// because the buffer is full or the host is closed.
func (h *Host) Send(ev navigator.Event) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	select {
	case h.events <- ev:
		return true
	default:
		return false
	}
}

// Scrolls returns the ids scrolled to so far.
func (h *Host) Scrolls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.scrolls...)
}

// Highlights returns the highlight requests so far.
func (h *Host) Highlights() []HighlightCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]HighlightCall(nil), h.highlights...)
}

// Close closes both notification channels. Further changes and events are
// dropped.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.changes)
	close(h.events)
}

// notify never blocks: a full buffer already guarantees a refresh.
func (h *Host) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.changes <- navigator.Change{At: time.Now()}:
	default:
	}
}

func readPage(path, url string) (*dom.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	return dom.Parse(f, url)
}
