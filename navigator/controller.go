// Package navigator is the overlay controller shared by every platform. It
// holds the last extracted questions and chats, renders them into two
// togglable panels, and re-extracts after the page settles from a burst of
// changes.
package navigator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"chatnav/debounce"
	"chatnav/sites"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Defaults for Options fields left zero.
const (
	DefaultDebounce   = 500 * time.Millisecond
	DefaultHighlight  = 2 * time.Second
	DefaultDismissKey = "Escape"
)

// Options tunes a Controller.
type Options struct {
	Debounce   time.Duration
	Highlight  time.Duration
	DismissKey string
	Logger     logrus.FieldLogger

	// OnRender is called with every view mounted on the host.
	OnRender func(View)
}

func (o *Options) setDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Highlight <= 0 {
		o.Highlight = DefaultHighlight
	}
	if o.DismissKey == "" {
		o.DismissKey = DefaultDismissKey
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.Logger = l
	}
}

type revert struct {
	id  string
	gen int
}

// Controller drives one overlay for one extractor. Its methods are not safe
// for concurrent use; Run owns it once started.
type Controller struct {
	ex   sites.Extractor
	host Host
	opts Options
	log  logrus.FieldLogger

	instance  string
	state     PanelState
	questions []sites.Question
	chats     []sites.Chat

	debounce   *debounce.Timer
	highlights map[string]int // id -> generation of the latest emphasis

	// Reverts fall due on timer goroutines; due is the only state they touch.
	mu   sync.Mutex
	due  []revert
	wake chan struct{}
}

// New binds a controller to an extractor and a host. Nothing is rendered
// until Init.
func New(ex sites.Extractor, host Host, opts Options) *Controller {
	opts.setDefaults()
	return &Controller{
		ex:         ex,
		host:       host,
		opts:       opts,
		log:        opts.Logger.WithFields(logrus.Fields{"component": "navigator", "platform": ex.Platform()}),
		debounce:   debounce.New(opts.Debounce),
		highlights: make(map[string]int),
		wake:       make(chan struct{}, 1),
	}
}

// Init starts a new overlay instance and performs the first extraction and
// render. Calling it again replaces the overlay; events from the old
// instance are ignored from then on.
func (c *Controller) Init(ctx context.Context) error {
	c.instance = uuid.NewString()
	c.state = PanelState{}
	c.log = c.log.WithField("instance", c.instance)
	return c.Refresh(ctx)
}

// Refresh re-runs both extractions, commits new id stamps and re-renders.
// On failure the previous lists are kept.
func (c *Controller) Refresh(ctx context.Context) error {
	c.applyDue(ctx)

	page, err := c.host.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	questions := c.ex.ExtractQuestions(page)
	chats := c.ex.ExtractChats(page)

	if stamps := page.DrainStamps(); len(stamps) > 0 {
		if err := c.host.Commit(ctx, stamps); err != nil {
			return fmt.Errorf("committing %d ids: %w", len(stamps), err)
		}
	}

	c.questions = questions
	c.chats = chats
	c.log.WithFields(logrus.Fields{"questions": len(questions), "chats": len(chats)}).Debug("refreshed")
	return c.render(ctx)
}

// Toggle opens kind, or closes it when it is already open.
func (c *Controller) Toggle(ctx context.Context, kind Panel) error {
	c.state.Toggle(kind)
	return c.render(ctx)
}

// CloseAll closes both panels.
func (c *Controller) CloseAll(ctx context.Context) error {
	if !c.state.CloseAll() {
		return nil
	}
	return c.render(ctx)
}

// Select scrolls to the element behind a row, emphasizes it for the
// highlight duration, and closes both panels. An id that no longer resolves
// only closes the panels.
func (c *Controller) Select(ctx context.Context, id string) error {
	found, err := c.host.ScrollTo(ctx, id)
	switch {
	case err != nil:
		c.log.WithError(err).WithField("id", id).Warn("scroll failed")
	case !found:
		c.log.WithField("id", id).Debug("selection target is gone")
	default:
		c.highlight(ctx, id)
	}

	c.state.CloseAll()
	return c.render(ctx)
}

func (c *Controller) highlight(ctx context.Context, id string) {
	if err := c.host.Highlight(ctx, id, true); err != nil {
		c.log.WithError(err).WithField("id", id).Warn("highlight failed")
		return
	}
	c.highlights[id]++
	r := revert{id: id, gen: c.highlights[id]}
	time.AfterFunc(c.opts.Highlight, func() {
		c.mu.Lock()
		c.due = append(c.due, r)
		c.mu.Unlock()
		select {
		case c.wake <- struct{}{}:
		default: // a wake-up is already pending and will see r
		}
	})
}

// applyDue ends every emphasis whose time is up. Run calls it when woken;
// Handle and Refresh call it too, so a controller driven without Run still
// reverts on its next use.
func (c *Controller) applyDue(ctx context.Context) {
	c.mu.Lock()
	due := c.due
	c.due = nil
	c.mu.Unlock()
	for _, r := range due {
		c.revert(ctx, r)
	}
}

// revert ends an emphasis unless the same id was selected again since.
func (c *Controller) revert(ctx context.Context, r revert) {
	if c.highlights[r.id] != r.gen {
		return
	}
	delete(c.highlights, r.id)
	if err := c.host.Highlight(ctx, r.id, false); err != nil {
		c.log.WithError(err).WithField("id", r.id).Warn("clearing highlight failed")
	}
}

// Handle applies one user event.
func (c *Controller) Handle(ctx context.Context, ev Event) error {
	c.applyDue(ctx)

	if ev.Instance != "" && ev.Instance != c.instance {
		c.log.WithField("event", ev.Kind).Debug("ignoring event from a stale overlay")
		return nil
	}

	switch ev.Kind {
	case EventToggle:
		return c.Toggle(ctx, ev.Panel)
	case EventSelect:
		return c.Select(ctx, ev.ID)
	case EventOutside:
		return c.CloseAll(ctx)
	case EventKey:
		if ev.Key == c.opts.DismissKey {
			return c.CloseAll(ctx)
		}
	}
	return nil
}

// Run processes change notifications, user events and highlight reverts
// until ctx is cancelled or the host closes both of its channels. Init must
// have been called.
func (c *Controller) Run(ctx context.Context) error {
	defer c.debounce.Stop()

	changes := c.host.Changes()
	events := c.host.Events()

	for changes != nil || events != nil {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			c.debounce.Notify()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := c.Handle(ctx, ev); err != nil {
				c.log.WithError(err).WithField("event", ev.Kind).Warn("handling event failed")
			}

		case <-c.debounce.C():
			c.debounce.Fired()
			if err := c.Refresh(ctx); err != nil {
				c.log.WithError(err).Warn("refresh failed")
			}

		case <-c.wake:
			c.applyDue(ctx)
		}
	}
	return nil
}

// Instance returns the token of the current overlay.
func (c *Controller) Instance() string { return c.instance }

// State returns the panel state.
func (c *Controller) State() PanelState { return c.state }

// Questions returns the questions from the last successful refresh.
func (c *Controller) Questions() []sites.Question { return c.questions }

// Chats returns the chats from the last successful refresh.
func (c *Controller) Chats() []sites.Chat { return c.chats }

// View returns what the overlay currently shows.
func (c *Controller) View() View {
	return View{Instance: c.instance, State: c.state, Questions: c.questions, Chats: c.chats}
}

func (c *Controller) render(ctx context.Context) error {
	v := c.View()
	if err := c.host.Mount(ctx, Render(v)); err != nil {
		return fmt.Errorf("mounting overlay: %w", err)
	}
	if c.opts.OnRender != nil {
		c.opts.OnRender(v)
	}
	return nil
}
