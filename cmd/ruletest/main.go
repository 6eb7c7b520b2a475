// Command ruletest checks the platform profiles against saved chat pages.
//
// Each file in the snapshot directory is named after its platform
// ("claude.html", "gemini-long-thread.html"). A profile passes a page when it
// finds at least the minimum number of questions and chats and every
// question id is unique.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"chatnav/dom"
	"chatnav/rules"
	"chatnav/sites"
)

var (
	dir          = flag.String("dir", "testdata", "Directory of saved pages")
	rulesDir     = flag.String("rules", "", "Override directory (empty = built-in profiles only)")
	only         = flag.String("platform", "", "Test pages for one platform only")
	minQuestions = flag.Int("min-questions", 1, "Questions a page must yield")
	minChats     = flag.Int("min-chats", 1, "Chats a page must yield")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	var cache *rules.Cache
	if *rulesDir != "" {
		c, err := rules.NewCache(*rulesDir)
		if err != nil {
			fmt.Printf("Rules: %v\n", err)
			os.Exit(1)
		}
		cache = c
	}

	pages, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil || len(pages) == 0 {
		fmt.Printf("No saved pages in %s\n", *dir)
		os.Exit(1)
	}
	sort.Strings(pages)

	failed := 0
	for _, path := range pages {
		platform := platformOf(path)
		if *only != "" && platform != *only {
			continue
		}
		fmt.Printf("=== %s (%s) ===\n", filepath.Base(path), platform)
		if !runPageTest(cache, platform, path) {
			failed++
		}
		fmt.Println()
	}

	if failed > 0 {
		fmt.Printf("%d page(s) failed\n", failed)
		os.Exit(1)
	}
}

// platformOf reads the platform from a file name: everything before the
// first '-' or '.'.
func platformOf(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexAny(name, "-."); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

func runPageTest(cache *rules.Cache, platform, path string) bool {
	ex, err := sites.New(sites.Platform(platform), cache)
	if err != nil {
		fmt.Printf("  ✗ %v\n", err)
		return false
	}
	if w := ex.Warnings(); w != nil {
		fmt.Printf("  ⚠ %v\n", w)
	}

	p, _ := sites.Lookup(sites.Platform(platform))
	url := "https://" + strings.SplitN(p.Hosts[0], "/", 2)[0] + "/"

	f, err := os.Open(path)
	if err != nil {
		fmt.Printf("  ✗ %v\n", err)
		return false
	}
	defer f.Close()

	page, err := dom.Parse(f, url)
	if err != nil {
		fmt.Printf("  ✗ Parse error: %v\n", err)
		return false
	}

	questions := ex.ExtractQuestions(page)
	chats := ex.ExtractChats(page)
	ok := true

	if len(questions) < *minQuestions {
		fmt.Printf("  ✗ Too few questions: %d (expected >= %d)\n", len(questions), *minQuestions)
		ok = false
	} else {
		fmt.Printf("  ✓ Questions: %d\n", len(questions))
	}

	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			fmt.Printf("  ✗ Duplicate question id %s\n", q.ID)
			ok = false
		}
		seen[q.ID] = true
	}

	if len(chats) < *minChats {
		fmt.Printf("  ✗ Too few chats: %d (expected >= %d)\n", len(chats), *minChats)
		ok = false
	} else {
		fmt.Printf("  ✓ Chats: %d\n", len(chats))
	}

	// A second pass over the stamped page must not move any id.
	again := ex.ExtractQuestions(page)
	for i := range again {
		if i < len(questions) && again[i].ID != questions[i].ID {
			fmt.Printf("  ✗ Unstable id: %s became %s\n", questions[i].ID, again[i].ID)
			ok = false
			break
		}
	}

	if *verbose {
		fmt.Println("  Sample questions:")
		for i, q := range questions {
			if i >= 5 {
				break
			}
			fmt.Printf("    %d. [%s] %s\n", i+1, q.ID, q.Text)
		}
		fmt.Println("  Sample chats:")
		for i, c := range chats {
			if i >= 5 {
				break
			}
			link := "✓"
			if c.URL == "" {
				link = "✗"
			}
			fmt.Printf("    %d. [%s] %s\n", i+1, link, c.Title)
		}
	}
	return ok
}
