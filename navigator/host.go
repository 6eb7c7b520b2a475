package navigator

import (
	"context"
	"time"

	"chatnav/dom"

	"golang.org/x/net/html"
)

// Change is one batch of structural changes reported by the host.
type Change struct {
	At time.Time
}

// EventKind classifies user interaction with the overlay or page.
type EventKind int

const (
	EventToggle  EventKind = iota // a panel toggle button was clicked
	EventSelect                   // a row was clicked
	EventOutside                  // a click landed outside the overlay
	EventKey                      // a key was pressed
)

func (k EventKind) String() string {
	switch k {
	case EventToggle:
		return "toggle"
	case EventSelect:
		return "select"
	case EventOutside:
		return "outside"
	case EventKey:
		return "key"
	default:
		return "unknown"
	}
}

// ParseEventKind maps an event type name back to its kind.
func ParseEventKind(s string) (EventKind, bool) {
	switch s {
	case "toggle":
		return EventToggle, true
	case "select":
		return EventSelect, true
	case "outside":
		return EventOutside, true
	case "key":
		return EventKey, true
	}
	return 0, false
}

// Event is one user interaction. Instance is the overlay instance the
// interaction came from; empty means the host could not tell.
type Event struct {
	Kind     EventKind
	Panel    Panel  // EventToggle
	ID       string // EventSelect
	Key      string // EventKey
	Instance string
}

// Host is the environment the navigator runs in: it owns the live page, shows
// the overlay, and reports changes and user interaction.
type Host interface {
	// Snapshot returns a copy of the current page for extraction.
	Snapshot(ctx context.Context) (*dom.Page, error)
	// Commit replays id stamps made on a snapshot onto the live page.
	Commit(ctx context.Context, stamps []dom.Stamp) error
	// Mount replaces any overlay on the live page with overlay.
	Mount(ctx context.Context, overlay *html.Node) error
	// ScrollTo scrolls the element carrying id into view, smoothly and
	// centered. It reports false when no element resolves.
	ScrollTo(ctx context.Context, id string) (bool, error)
	// Highlight turns the emphasis on the element carrying id on or off.
	Highlight(ctx context.Context, id string, on bool) error
	// Changes delivers structural change notifications for the page body.
	Changes() <-chan Change
	// Events delivers user interaction.
	Events() <-chan Event
}
