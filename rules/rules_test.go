package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCompileDefaults(t *testing.T) {
	c, err := Profile{Platform: "x", Questions: []string{"div.user"}}.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if c.MinQuestionLength != DefaultMinQuestionLength {
		t.Errorf("expected min length %d, got %d", DefaultMinQuestionLength, c.MinQuestionLength)
	}
	if c.QuestionPreview != DefaultQuestionPreview {
		t.Errorf("expected preview %d, got %d", DefaultQuestionPreview, c.QuestionPreview)
	}
	if c.ChatTitleLength != DefaultChatTitleLength {
		t.Errorf("expected title length %d, got %d", DefaultChatTitleLength, c.ChatTitleLength)
	}
	if len(c.QuestionMatchers) != 1 {
		t.Errorf("expected 1 question matcher, got %d", len(c.QuestionMatchers))
	}
	if c.Assistant != nil || c.ChatID != nil || c.Chrome != nil || c.BrandSuffix != nil {
		t.Error("empty patterns should compile to nil")
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
	}{
		{"no platform", Profile{}},
		{"bad assistant", Profile{Platform: "x", AssistantPattern: "("}},
		{"bad chat id", Profile{Platform: "x", ChatIDPattern: "["}},
		{"chat id without group", Profile{Platform: "x", ChatIDPattern: "/c/[a-z]+"}},
		{"bad chrome", Profile{Platform: "x", ChromeLabels: "*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.profile.Compile(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCompileSelectorWarnings(t *testing.T) {
	c, err := Profile{Platform: "x", Questions: []string{"div[[", "p.ok"}}.Compile()
	if err != nil {
		t.Fatalf("bad selectors must not fail compilation: %v", err)
	}
	if c.Warnings == nil {
		t.Error("expected a warning for the invalid selector")
	}
	if len(c.QuestionMatchers) != 1 {
		t.Errorf("expected the valid family to survive, got %d", len(c.QuestionMatchers))
	}
}

func TestBrandSuffix(t *testing.T) {
	c, err := Profile{Platform: "claude", Brand: "Claude"}.Compile()
	if err != nil {
		t.Fatal(err)
	}
	got := c.BrandSuffix.ReplaceAllString("Project Plan - Claude", "")
	if got != "Project Plan" {
		t.Errorf("expected suffix removed, got %q", got)
	}
	if c.BrandSuffix.MatchString("Claude") {
		t.Error("a bare brand is not a suffix")
	}
}

func TestMatches(t *testing.T) {
	p := Profile{Platform: "grok", Hosts: []string{"grok.com", "x.com/i/grok"}}
	tests := []struct {
		url  string
		want bool
	}{
		{"https://grok.com/chat/1", true},
		{"https://www.grok.com/", true},
		{"https://eu.grok.com/", true},
		{"https://notgrok.com/", false},
		{"https://x.com/i/grok?conversation=1", true},
		{"https://x.com/home", false},
		{"not a url", false},
	}
	for _, tt := range tests {
		if got := p.Matches(tt.url); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestMerge(t *testing.T) {
	base := Profile{
		Platform:         "x",
		Hosts:            []string{"x.test"},
		Questions:        []string{"div.user", "p.user"},
		AssistantPattern: "^Bot",
		StartupDelayMs:   1000,
	}
	override := Profile{
		Hosts:          []string{"beta.x.test"},
		Questions:      []string{"section.user", "p.user"},
		ChromeLabels:   "^Home$",
		StartupDelayMs: 3000,
	}
	got := Merge(base, override)

	wantQuestions := []string{"section.user", "p.user", "div.user"}
	if len(got.Questions) != len(wantQuestions) {
		t.Fatalf("expected %v, got %v", wantQuestions, got.Questions)
	}
	for i := range wantQuestions {
		if got.Questions[i] != wantQuestions[i] {
			t.Errorf("question family %d: expected %q, got %q", i, wantQuestions[i], got.Questions[i])
		}
	}
	if len(got.Hosts) != 2 {
		t.Errorf("expected hosts appended, got %v", got.Hosts)
	}
	if got.AssistantPattern != "^Bot" {
		t.Errorf("empty override must keep base pattern, got %q", got.AssistantPattern)
	}
	if got.ChromeLabels != "^Home$" {
		t.Errorf("expected override chrome labels, got %q", got.ChromeLabels)
	}
	if got.StartupDelay().Milliseconds() != 3000 {
		t.Errorf("expected 3000ms startup delay, got %v", got.StartupDelay())
	}
	if len(base.Questions) != 2 {
		t.Error("Merge must not modify the base profile")
	}
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache failed: %v", err)
	}

	if _, err := cache.Get("claude"); !errors.Is(err, ErrNoOverride) {
		t.Errorf("expected ErrNoOverride, got %v", err)
	}

	data := `{"questions": ["div.new-user-bubble"], "startup_delay_ms": 2500}`
	if err := os.WriteFile(filepath.Join(dir, "claude.json"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := cache.Get("Claude")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Platform != "claude" {
		t.Errorf("platform should default to the file name, got %q", p.Platform)
	}

	merged, err := cache.Apply(Profile{Platform: "claude", Questions: []string{"div.user"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if merged.Questions[0] != "div.new-user-bubble" {
		t.Errorf("override family should come first, got %v", merged.Questions)
	}

	unchanged, err := cache.Apply(Profile{Platform: "gemini", Questions: []string{"user-query"}})
	if err != nil || len(unchanged.Questions) != 1 {
		t.Errorf("platform without override should pass through, got %v, %v", unchanged.Questions, err)
	}

	if err := cache.Put(&Profile{Platform: "grok", ChromeLabels: "^Home$"}, true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	list, err := cache.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 overrides, got %v", list)
	}

	if err := cache.Delete("grok"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "grok.json")); !os.IsNotExist(err) {
		t.Error("override file should be removed")
	}
}

func TestCacheBadJSON(t *testing.T) {
	dir := t.TempDir()
	cache, _ := NewCache(dir)
	os.WriteFile(filepath.Join(dir, "claude.json"), []byte("{"), 0644)
	if _, err := cache.Apply(Profile{Platform: "claude"}); err == nil {
		t.Error("expected parse error")
	}
}

func TestNilCacheApply(t *testing.T) {
	var cache *Cache
	p, err := cache.Apply(Profile{Platform: "x"})
	if err != nil || p.Platform != "x" {
		t.Errorf("nil cache should pass through, got %v, %v", p, err)
	}
}
