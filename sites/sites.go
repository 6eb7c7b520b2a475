// Package sites provides the per-platform extractors that turn a chat page
// into ordered Question and Chat lists. Every platform is a rules.Profile
// registered here; the host picks one by URL at startup.
package sites

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"chatnav/dom"
	"chatnav/rules"
)

// Platform tags an extractor variant.
type Platform string

const (
	ChatGPT    Platform = "chatgpt"
	Claude     Platform = "claude"
	Gemini     Platform = "gemini"
	DeepSeek   Platform = "deepseek"
	Grok       Platform = "grok"
	Perplexity Platform = "perplexity"
	Copilot    Platform = "copilot"
)

// Question is one user-authored message.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"` // truncated preview
}

// Chat is one history entry, or the synthesized current conversation.
type Chat struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"` // empty for the synthesized entry
}

// Extractor reads questions and chats from a page. Both operations are
// synchronous, never fail, and only write to the page to stamp ids.
type Extractor interface {
	Platform() Platform
	ExtractQuestions(p *dom.Page) []Question
	ExtractChats(p *dom.Page) []Chat
}

// ErrUnknownPlatform is returned when no profile matches a URL or name.
var ErrUnknownPlatform = errors.New("unknown platform")

var (
	profiles []rules.Profile
	mu       sync.RWMutex
)

// Register adds a platform profile to the registry.
// Profiles are checked in registration order.
func Register(p rules.Profile) {
	mu.Lock()
	defer mu.Unlock()
	profiles = append(profiles, p)
}

// Lookup returns the registered profile for a platform.
func Lookup(platform Platform) (rules.Profile, bool) {
	mu.RLock()
	defer mu.RUnlock()

	for _, p := range profiles {
		if p.Platform == string(platform) {
			return p, true
		}
	}
	return rules.Profile{}, false
}

// Match returns the profile whose hosts match rawURL.
func Match(rawURL string) (rules.Profile, bool) {
	mu.RLock()
	defer mu.RUnlock()

	for _, p := range profiles {
		if p.Matches(rawURL) {
			return p, true
		}
	}
	return rules.Profile{}, false
}

// Platforms returns the registered platform names, sorted.
func Platforms() []Platform {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]Platform, len(profiles))
	for i, p := range profiles {
		names[i] = Platform(p.Platform)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// ForURL builds the extractor for the platform serving rawURL, with any user
// override from cache merged in. cache may be nil.
func ForURL(rawURL string, cache *rules.Cache) (*ProfileExtractor, error) {
	p, ok := Match(rawURL)
	if !ok {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrUnknownPlatform)
	}
	return build(p, cache)
}

// New builds the extractor for a named platform. cache may be nil.
func New(platform Platform, cache *rules.Cache) (*ProfileExtractor, error) {
	p, ok := Lookup(platform)
	if !ok {
		return nil, fmt.Errorf("%s: %w", platform, ErrUnknownPlatform)
	}
	return build(p, cache)
}

func build(p rules.Profile, cache *rules.Cache) (*ProfileExtractor, error) {
	merged, err := cache.Apply(p)
	if err != nil {
		return nil, fmt.Errorf("loading %s override: %w", p.Platform, err)
	}
	return FromProfile(merged)
}

// StartupDelay returns how long the host should wait before constructing the
// navigator for this extractor's platform.
func (e *ProfileExtractor) StartupDelay() time.Duration {
	return e.c.StartupDelay()
}
