// Package rules holds the declarative extraction profiles for chat platforms.
// A profile lists, per platform, the selector families that identify user
// messages and history entries plus the patterns used to reject chrome.
// Profiles are plain data so a user can patch them from a JSON file when a
// platform changes its markup.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"chatnav/dom"
)

// Defaults applied when a profile leaves a limit at zero.
const (
	DefaultMinQuestionLength = 10
	DefaultQuestionPreview   = 100
	DefaultChatTitleLength   = 50
)

// Profile describes how to find questions and chats on one platform.
type Profile struct {
	// Metadata
	Platform       string   `json:"platform"`
	Brand          string   `json:"brand,omitempty"`
	Hosts          []string `json:"hosts,omitempty"` // "host" or "host/path-prefix"
	StartupDelayMs int      `json:"startup_delay_ms,omitempty"`

	// User messages
	Questions         []string `json:"questions,omitempty"`
	QuestionText      []string `json:"question_text,omitempty"`
	AssistantPattern  string   `json:"assistant_pattern,omitempty"`
	MinQuestionLength int      `json:"min_question_length,omitempty"`
	QuestionPreview   int      `json:"question_preview,omitempty"`

	// History entries
	Chats           []string `json:"chats,omitempty"`
	ChatTitle       []string `json:"chat_title,omitempty"`
	ChatIDPattern   string   `json:"chat_id_pattern,omitempty"`
	ChromeLabels    string   `json:"chrome_labels,omitempty"`
	ChatTitleLength int      `json:"chat_title_length,omitempty"`

	// Current-conversation fallback
	Heading []string `json:"heading,omitempty"`
}

// StartupDelay is how long the host should wait for the platform's app shell.
func (p *Profile) StartupDelay() time.Duration {
	return time.Duration(p.StartupDelayMs) * time.Millisecond
}

// Compiled is a profile with its selectors and patterns ready to use.
type Compiled struct {
	Profile

	QuestionMatchers dom.Matchers
	TextMatchers     dom.Matchers
	ChatMatchers     dom.Matchers
	TitleMatchers    dom.Matchers
	HeadingMatchers  dom.Matchers

	Assistant   *regexp.Regexp // nil = no assistant filter
	ChatID      *regexp.Regexp // nil = positional ids only
	Chrome      *regexp.Regexp // nil = no chrome-label filter
	BrandSuffix *regexp.Regexp // matches a trailing " - Brand" suffix

	// Warnings lists selectors that failed to compile and were skipped.
	Warnings error
}

// Compile validates the profile. Bad regular expressions are errors; bad
// selectors only drop the offending family and are reported in Warnings.
func (p Profile) Compile() (*Compiled, error) {
	if p.Platform == "" {
		return nil, fmt.Errorf("profile has no platform")
	}
	if p.MinQuestionLength == 0 {
		p.MinQuestionLength = DefaultMinQuestionLength
	}
	if p.QuestionPreview == 0 {
		p.QuestionPreview = DefaultQuestionPreview
	}
	if p.ChatTitleLength == 0 {
		p.ChatTitleLength = DefaultChatTitleLength
	}

	c := &Compiled{Profile: p}
	var warnings []error
	compile := func(selectors []string) dom.Matchers {
		ms, err := dom.Compile(selectors...)
		if err != nil {
			warnings = append(warnings, err)
		}
		return ms
	}
	c.QuestionMatchers = compile(p.Questions)
	c.TextMatchers = compile(p.QuestionText)
	c.ChatMatchers = compile(p.Chats)
	c.TitleMatchers = compile(p.ChatTitle)
	c.HeadingMatchers = compile(p.Heading)
	if len(warnings) > 0 {
		c.Warnings = fmt.Errorf("%s: %v", p.Platform, warnings)
	}

	var err error
	if c.Assistant, err = compileOptional(p.AssistantPattern); err != nil {
		return nil, fmt.Errorf("%s assistant_pattern: %w", p.Platform, err)
	}
	if c.ChatID, err = compileOptional(p.ChatIDPattern); err != nil {
		return nil, fmt.Errorf("%s chat_id_pattern: %w", p.Platform, err)
	}
	if c.ChatID != nil && c.ChatID.NumSubexp() < 1 {
		return nil, fmt.Errorf("%s chat_id_pattern: needs a capture group", p.Platform)
	}
	if c.Chrome, err = compileOptional(p.ChromeLabels); err != nil {
		return nil, fmt.Errorf("%s chrome_labels: %w", p.Platform, err)
	}
	if p.Brand != "" {
		c.BrandSuffix = regexp.MustCompile(`(?i)\s*[-|–—·:]\s*` + regexp.QuoteMeta(p.Brand) + `\s*$`)
	}
	return c, nil
}

// Merge layers an override on top of a base profile. Override selector
// families are tried before the base ones; non-empty patterns and non-zero
// limits replace the base values.
func Merge(base, override Profile) Profile {
	out := base
	out.Hosts = appendUnique(append([]string(nil), base.Hosts...), override.Hosts...)
	out.Questions = prependUnique(base.Questions, override.Questions)
	out.QuestionText = prependUnique(base.QuestionText, override.QuestionText)
	out.Chats = prependUnique(base.Chats, override.Chats)
	out.ChatTitle = prependUnique(base.ChatTitle, override.ChatTitle)
	out.Heading = prependUnique(base.Heading, override.Heading)

	if override.Brand != "" {
		out.Brand = override.Brand
	}
	if override.AssistantPattern != "" {
		out.AssistantPattern = override.AssistantPattern
	}
	if override.ChatIDPattern != "" {
		out.ChatIDPattern = override.ChatIDPattern
	}
	if override.ChromeLabels != "" {
		out.ChromeLabels = override.ChromeLabels
	}
	if override.StartupDelayMs != 0 {
		out.StartupDelayMs = override.StartupDelayMs
	}
	if override.MinQuestionLength != 0 {
		out.MinQuestionLength = override.MinQuestionLength
	}
	if override.QuestionPreview != 0 {
		out.QuestionPreview = override.QuestionPreview
	}
	if override.ChatTitleLength != 0 {
		out.ChatTitleLength = override.ChatTitleLength
	}
	return out
}

func compileOptional(pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func prependUnique(base, front []string) []string {
	out := make([]string, 0, len(base)+len(front))
	out = appendUnique(out, front...)
	return appendUnique(out, base...)
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		dup := false
		for _, d := range dst {
			if d == item {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, item)
		}
	}
	return dst
}
