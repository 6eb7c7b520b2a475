// Package chrome is the navigator host for a live page in Chrome, driven over
// the DevTools protocol. User interaction and page changes reach Go through a
// runtime binding the injected script calls.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"chatnav/dom"
	"chatnav/navigator"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Options configures the browser.
type Options struct {
	ChromePath string // empty = auto-detect
	UserAgent  string
	Timeout    time.Duration // per DevTools round trip
	Headless   bool
	RemoteURL  string // DevTools websocket URL of a running Chrome; skips launching
	DismissKey string
	Logger     logrus.FieldLogger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Timeout:    30 * time.Second,
		DismissKey: navigator.DefaultDismissKey,
	}
}

// userDataDir returns a persistent directory for Chrome user data, so chat
// platform logins survive between runs.
func userDataDir() string {
	dir, _ := os.UserCacheDir()
	return filepath.Join(dir, "chatnav-chrome-profile")
}

// Host implements navigator.Host over one Chrome tab.
type Host struct {
	ctx    context.Context // chromedp tab context
	cancel context.CancelFunc
	opts   Options
	log    logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	changes chan navigator.Change
	events  chan navigator.Event
}

// Launch starts Chrome (or connects to RemoteURL) and opens a tab. The
// browser lives until Close.
func Launch(opts Options) (*Host, error) {
	def := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.DismissKey == "" {
		opts.DismissKey = def.DismissKey
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		allocOpts := []chromedp.ExecAllocatorOption{
			chromedp.NoDefaultBrowserCheck,
			chromedp.NoFirstRun,
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("exclude-switches", "enable-automation"),
			chromedp.Flag("disable-infobars", true),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-default-apps", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("password-store", "basic"),
			chromedp.Flag("use-mock-keychain", true),
			chromedp.UserAgent(opts.UserAgent),
			chromedp.WindowSize(1440, 1000),
			chromedp.UserDataDir(userDataDir()),
		}
		if opts.Headless {
			allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
		} else {
			allocOpts = append(allocOpts, chromedp.Flag("headless", false))
		}
		if opts.ChromePath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocOpts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	h := newHost(tabCtx, func() {
		tabCancel()
		allocCancel()
	}, opts)

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if called, ok := ev.(*runtime.EventBindingCalled); ok && called.Name == bindingName {
			h.dispatch(called.Payload)
		}
	})

	// An empty run starts the browser and attaches the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		h.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}
	return h, nil
}

// newHost wraps a tab context. When the tab goes away, because Close was
// called or the browser exited, both channels are closed so a controller
// running on the host returns.
func newHost(tabCtx context.Context, cancel context.CancelFunc, opts Options) *Host {
	h := &Host{
		ctx:     tabCtx,
		cancel:  cancel,
		opts:    opts,
		log:     opts.Logger.WithField("component", "chrome"),
		changes: make(chan navigator.Change, 64),
		events:  make(chan navigator.Event, 64),
	}
	go func() {
		<-tabCtx.Done()
		if h.shutdown() {
			h.log.Info("browser tab closed")
		}
	}()
	return h
}

// Navigate loads url and waits for the body.
func (h *Host) Navigate(ctx context.Context, url string) error {
	err := h.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Location returns the tab's current URL.
func (h *Host) Location(ctx context.Context) (string, error) {
	var url string
	if err := h.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return url, nil
}

// Install registers the binding and injects the observer and listeners, both
// into the current document and into every document the tab loads later.
// Installing again replaces the previous observer.
func (h *Host) Install(ctx context.Context) error {
	script := buildInstall(h.opts.DismissKey)
	var installed bool
	err := h.run(ctx,
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Evaluate(script, &installed),
	)
	if err != nil {
		return fmt.Errorf("installing page hooks: %w", err)
	}
	h.log.WithField("immediate", installed).Debug("page hooks installed")
	return nil
}

// Snapshot implements navigator.Host.
func (h *Host) Snapshot(ctx context.Context) (*dom.Page, error) {
	var src, url string
	if err := h.run(ctx,
		chromedp.OuterHTML("html", &src, chromedp.ByQuery),
		chromedp.Location(&url),
	); err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return dom.ParseString(src, url)
}

// Commit implements navigator.Host.
func (h *Host) Commit(ctx context.Context, stamps []dom.Stamp) error {
	script, err := buildCommit(stamps)
	if err != nil {
		return err
	}
	var applied int
	if err := h.run(ctx, chromedp.Evaluate(script, &applied)); err != nil {
		return fmt.Errorf("stamping ids: %w", err)
	}
	if applied < len(stamps) {
		h.log.WithFields(logrus.Fields{"applied": applied, "stamps": len(stamps)}).Debug("page moved under some stamps")
	}
	return nil
}

// Mount implements navigator.Host.
func (h *Host) Mount(ctx context.Context, overlay *html.Node) error {
	script, err := buildMount(overlay)
	if err != nil {
		return err
	}
	var ok bool
	if err := h.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("mounting overlay: %w", err)
	}
	if !ok {
		return fmt.Errorf("mounting overlay: page has no body")
	}
	return nil
}

// ScrollTo implements navigator.Host.
func (h *Host) ScrollTo(ctx context.Context, id string) (bool, error) {
	var found bool
	if err := h.run(ctx, chromedp.Evaluate(buildScroll(id), &found)); err != nil {
		return false, fmt.Errorf("scrolling to %s: %w", id, err)
	}
	return found, nil
}

// Highlight implements navigator.Host.
func (h *Host) Highlight(ctx context.Context, id string, on bool) error {
	var found bool
	if err := h.run(ctx, chromedp.Evaluate(buildHighlight(id, on), &found)); err != nil {
		return fmt.Errorf("highlighting %s: %w", id, err)
	}
	return nil
}

// Changes implements navigator.Host.
func (h *Host) Changes() <-chan navigator.Change { return h.changes }

// Events implements navigator.Host.
func (h *Host) Events() <-chan navigator.Event { return h.events }

// Close shuts the tab and, when it was launched here, the browser.
func (h *Host) Close() error {
	h.shutdown()
	h.cancel()
	return nil
}

// shutdown closes both channels once. It reports whether this call did it.
func (h *Host) shutdown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	close(h.changes)
	close(h.events)
	return true
}

// run executes actions on the tab, bounded by ctx and the per-call timeout.
func (h *Host) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(h.ctx, h.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// dispatch runs on the DevTools event goroutine and must not block.
func (h *Host) dispatch(raw string) {
	change, ev, err := decodePayload(raw)
	if err != nil {
		h.log.WithError(err).Debug("bad binding payload")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if change {
		select {
		case h.changes <- navigator.Change{At: time.Now()}:
		default:
		}
		return
	}
	select {
	case h.events <- ev:
	default:
		h.log.WithField("event", ev.Kind).Warn("event dropped, controller is behind")
	}
}

// payload is what the injected script passes to the binding.
type payload struct {
	Type     string `json:"type"`
	Panel    string `json:"panel,omitempty"`
	ID       string `json:"id,omitempty"`
	Key      string `json:"key,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// decodePayload reports either a page change or a user event.
func decodePayload(raw string) (change bool, ev navigator.Event, err error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return false, ev, fmt.Errorf("decoding payload: %w", err)
	}
	if p.Type == "change" {
		return true, ev, nil
	}

	kind, ok := navigator.ParseEventKind(p.Type)
	if !ok {
		return false, ev, fmt.Errorf("unknown payload type %q", p.Type)
	}
	ev = navigator.Event{Kind: kind, ID: p.ID, Key: p.Key, Instance: p.Instance}
	if kind == navigator.EventToggle {
		panel, ok := navigator.ParsePanel(p.Panel)
		if !ok {
			return false, ev, fmt.Errorf("unknown panel %q", p.Panel)
		}
		ev.Panel = panel
	}
	return false, ev, nil
}
