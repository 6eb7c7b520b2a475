// Debug tool to see which selectors of a platform profile hit a saved page,
// and what the first hit looks like. Useful when writing an override.
package main

import (
	"fmt"
	"os"
	"strings"

	"chatnav/dom"
	"chatnav/sites"

	"golang.org/x/net/html"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: debug PLATFORM FILE")
		os.Exit(1)
	}
	platform, path := os.Args[1], os.Args[2]

	p, ok := sites.Lookup(sites.Platform(platform))
	if !ok {
		fmt.Println("Unknown platform:", platform)
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer f.Close()

	page, err := dom.Parse(f, "https://"+p.Hosts[0]+"/")
	if err != nil {
		fmt.Println("Parse error:", err)
		os.Exit(1)
	}

	families := []struct {
		name      string
		selectors []string
	}{
		{"questions", p.Questions},
		{"question_text", p.QuestionText},
		{"chats", p.Chats},
		{"chat_title", p.ChatTitle},
		{"heading", p.Heading},
	}
	for _, fam := range families {
		fmt.Printf("[%s]\n", fam.name)
		for _, sel := range fam.selectors {
			ms, err := dom.Compile(sel)
			if err != nil {
				fmt.Printf("  %-50s invalid: %v\n", sel, err)
				continue
			}
			hits := page.Scan(ms)
			fmt.Printf("  %-50s %d\n", sel, len(hits))
			if len(hits) > 0 {
				analyzeNode(hits[0].Nodes[0], 2, 4)
			}
		}
	}
}

func analyzeNode(n *html.Node, depth, maxDepth int) {
	if depth > maxDepth {
		return
	}
	indent := strings.Repeat("  ", depth)

	switch n.Type {
	case html.ElementNode:
		attrs := ""
		for _, a := range n.Attr {
			if a.Key == "id" || a.Key == "class" || a.Key == "href" || strings.HasPrefix(a.Key, "data-") {
				attrs += fmt.Sprintf(" %s=%q", a.Key, a.Val)
			}
		}
		fmt.Printf("%s<%s%s>\n", indent, n.Data, attrs)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			analyzeNode(c, depth+1, maxDepth)
		}
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		if r := []rune(text); len(r) > 50 {
			text = string(r[:50]) + "..."
		}
		fmt.Printf("%s%q\n", indent, text)
	}
}
