package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatnav/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatgptPage = `<html><head><title>ChatGPT</title></head><body>
<nav>
  <a href="/c/0a1b2c"><div class="truncate">Trip planning</div></a>
  <a href="/c/ffee99"><div class="truncate">Go generics</div></a>
</nav>
<main>
  <div data-message-author-role="user"><div class="whitespace-pre-wrap">How long is the drive to Lisbon?</div></div>
  <div data-message-author-role="assistant">About six hours.</div>
  <div data-message-author-role="user"><div class="whitespace-pre-wrap">And by train from Porto?</div></div>
</main>
</body></html>`

// execute runs the CLI with an isolated config and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

// executeIn runs the CLI with its config and rules directory under dir, so
// several calls can share state.
func executeIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "config.toml")
	rulesDir := filepath.Join(dir, "rules")
	require.NoError(t, os.WriteFile(cfg, []byte("[rules]\ndir = \""+filepath.ToSlash(rulesDir)+"\"\n"), 0644))

	platform, pageURL, extractJSON, remoteURL, logLevel = "", "", false, "", ""
	rulesMerged, rulesAdd = false, rules.Profile{}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePage(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestExtractJSON(t *testing.T) {
	path := writePage(t, chatgptPage)

	out, err := execute(t, "extract", path, "--url", "https://chatgpt.com/c/0a1b2c", "--json")
	require.NoError(t, err)

	var res extractResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "chatgpt", string(res.Platform))

	require.Len(t, res.Questions, 2)
	assert.Equal(t, "How long is the drive to Lisbon?", res.Questions[0].Text)
	assert.Equal(t, "And by train from Porto?", res.Questions[1].Text)

	require.Len(t, res.Chats, 2)
	assert.Equal(t, "chatgpt-chat-0a1b2c", res.Chats[0].ID)
	assert.Equal(t, "Go generics", res.Chats[1].Title)
}

func TestExtractEmptyListsAreArrays(t *testing.T) {
	path := writePage(t, `<html><head><title>ChatGPT</title></head><body><main></main></body></html>`)

	out, err := execute(t, "extract", path, "--url", "https://chatgpt.com/", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"questions": []`)
	assert.Contains(t, out, `"chats": []`)
}

func TestExtractPanels(t *testing.T) {
	path := writePage(t, chatgptPage)

	out, err := execute(t, "extract", path, "--url", "https://chatgpt.com/c/0a1b2c")
	require.NoError(t, err)
	assert.Contains(t, out, "Questions (2)")
	assert.Contains(t, out, "Chats (2)")
	assert.Contains(t, out, "Trip planning")
}

func TestExtractPlatformFlag(t *testing.T) {
	path := writePage(t, chatgptPage)

	out, err := execute(t, "extract", path, "--url", "file:///tmp/page.html", "--platform", "chatgpt", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"platform": "chatgpt"`)
}

func TestExtractUnknownPlatform(t *testing.T) {
	path := writePage(t, chatgptPage)

	_, err := execute(t, "extract", path, "--url", "https://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")
}

func TestExtractRequiresURL(t *testing.T) {
	path := writePage(t, chatgptPage)

	_, err := execute(t, "extract", path)
	require.Error(t, err)
}

func TestPlatforms(t *testing.T) {
	out, err := execute(t, "platforms")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "chatgpt"))
	assert.Contains(t, lines[0], "chatgpt.com")
}

func TestInitConfig(t *testing.T) {
	out, err := execute(t, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, "[navigator]")
	assert.Contains(t, out, "debounceMs = 500")
}

func TestRulesLifecycle(t *testing.T) {
	dir := t.TempDir()

	out, err := executeIn(t, dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")

	_, err = executeIn(t, dir, "rules", "show", "claude")
	require.ErrorIs(t, err, rules.ErrNoOverride)

	_, err = executeIn(t, dir, "rules", "add", "claude", "--question", "section.custom-user")
	require.NoError(t, err)
	_, err = executeIn(t, dir, "rules", "add", "claude", "--question", "div.newer-user")
	require.NoError(t, err)

	out, err = executeIn(t, dir, "rules", "show", "claude")
	require.NoError(t, err)
	var override rules.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &override))
	assert.Equal(t, []string{"div.newer-user", "section.custom-user"}, override.Questions)

	out, err = executeIn(t, dir, "rules", "show", "claude", "--merged")
	require.NoError(t, err)
	var merged rules.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &merged))
	require.Greater(t, len(merged.Questions), 2)
	assert.Equal(t, "div.newer-user", merged.Questions[0])
	assert.Contains(t, merged.Hosts, "claude.ai")

	out, err = executeIn(t, dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  claude\n")

	_, err = executeIn(t, dir, "rules", "delete", "claude")
	require.NoError(t, err)
	_, err = executeIn(t, dir, "rules", "delete", "claude")
	require.ErrorIs(t, err, rules.ErrNoOverride)
}

func TestRulesAddRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	_, err := executeIn(t, dir, "rules", "add", "nosuch", "--question", "div")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")

	_, err = executeIn(t, dir, "rules", "add", "claude", "--question", "div[[")
	require.Error(t, err)

	out, err := executeIn(t, dir, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(none)")
}

func TestRulesOverrideReachesExtract(t *testing.T) {
	dir := t.TempDir()
	_, err := executeIn(t, dir, "rules", "add", "chatgpt", "--question", "section.custom-user")
	require.NoError(t, err)

	path := writePage(t, `<html><head><title>ChatGPT</title></head><body><main>
<section class="custom-user">a question in new markup</section>
</main></body></html>`)
	out, err := executeIn(t, dir, "extract", path, "--url", "https://chatgpt.com/", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "a question in new markup")
}
