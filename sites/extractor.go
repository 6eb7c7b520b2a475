package sites

import (
	"fmt"
	"strings"

	"chatnav/dom"
	"chatnav/rules"
	"chatnav/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ProfileExtractor is the Extractor for one platform, driven entirely by its
// compiled profile.
type ProfileExtractor struct {
	c *rules.Compiled
}

// FromProfile compiles p into an extractor.
func FromProfile(p rules.Profile) (*ProfileExtractor, error) {
	c, err := p.Compile()
	if err != nil {
		return nil, err
	}
	return &ProfileExtractor{c: c}, nil
}

// Platform returns the platform tag.
func (e *ProfileExtractor) Platform() Platform {
	return Platform(e.c.Platform)
}

// Warnings reports selectors from the profile that were skipped because
// they failed to compile.
func (e *ProfileExtractor) Warnings() error {
	return e.c.Warnings
}

// ExtractQuestions returns the user messages on the page in document order.
func (e *ProfileExtractor) ExtractQuestions(p *dom.Page) []Question {
	var accepted []candidate
	for i, cand := range outermost(p.Scan(e.c.QuestionMatchers)) {
		textNode := dom.Within(cand, e.c.TextMatchers)
		if textNode == nil {
			textNode = cand
		}
		text := dom.Text(textNode)
		if text == "" || textutil.RuneLen(text) < e.c.MinQuestionLength {
			continue
		}
		if e.c.Assistant != nil && e.c.Assistant.MatchString(text) {
			continue
		}
		accepted = append(accepted, candidate{sel: cand, index: i, text: text, id: stampedID(cand)})
	}

	ids := assignIDs(accepted, e.c.Platform, "user")
	out := make([]Question, 0, len(accepted))
	for k, c := range accepted {
		p.Stamp(c.sel, ids[k], true)
		out = append(out, Question{ID: ids[k], Text: textutil.Truncate(c.text, e.c.QuestionPreview)})
	}
	return out
}

// ExtractChats returns the history entries on the page in document order,
// or a single entry for the current conversation when there is no history.
func (e *ProfileExtractor) ExtractChats(p *dom.Page) []Chat {
	var accepted []candidate
	for i, cand := range outermost(p.Scan(e.c.ChatMatchers)) {
		titleNode := dom.Within(cand, e.c.TitleMatchers)
		if titleNode == nil {
			titleNode = cand
		}
		title := dom.Text(titleNode)
		if title == "" {
			continue
		}
		if e.c.Chrome != nil && e.c.Chrome.MatchString(title) {
			continue
		}

		c := candidate{sel: cand, index: i, text: title, href: dom.Href(cand)}
		if e.c.ChatID != nil && c.href != "" {
			if m := e.c.ChatID.FindStringSubmatch(c.href); len(m) > 1 && m[1] != "" {
				c.id = textutil.SlugID(e.c.Platform, "chat", m[1])
			}
		}
		accepted = append(accepted, c)
	}

	if len(accepted) == 0 {
		if current, ok := e.currentChat(p); ok {
			return []Chat{current}
		}
		return nil
	}

	ids := assignIDs(accepted, e.c.Platform, "chat")
	out := make([]Chat, 0, len(accepted))
	for k, c := range accepted {
		p.Stamp(c.sel, ids[k], false)
		out = append(out, Chat{
			ID:    ids[k],
			Title: textutil.Truncate(c.text, e.c.ChatTitleLength),
			URL:   c.href,
		})
	}
	return out
}

// candidate is an accepted scan result waiting for its final id.
type candidate struct {
	sel   *goquery.Selection
	index int    // position among scanned candidates, rejected ones included
	text  string // full text or title
	href  string
	id    string // preferred id, "" when none
}

// assignIDs resolves one unique id per candidate. Preferred ids are claimed
// first in document order, so an element that already carries an id keeps
// it even when a new element is inserted above it; a repeated preferred id
// and a missing one fall back to the positional id.
func assignIDs(cands []candidate, platform, kind string) []string {
	ids := make([]string, len(cands))
	claimed := make(map[string]bool, len(cands))
	for k, c := range cands {
		if c.id != "" && !claimed[c.id] {
			ids[k] = c.id
			claimed[c.id] = true
		}
	}
	for k, c := range cands {
		if ids[k] != "" {
			continue
		}
		id := textutil.PositionalID(platform, kind, c.index)
		for n := 2; claimed[id]; n++ {
			id = fmt.Sprintf("%s-%d", textutil.PositionalID(platform, kind, c.index), n)
		}
		ids[k] = id
		claimed[id] = true
	}
	return ids
}

// currentChat synthesizes the entry for the open conversation from the first
// heading that carries more than the platform's brand name and is not part
// of a question.
func (e *ProfileExtractor) currentChat(p *dom.Page) (Chat, bool) {
	for _, m := range e.c.HeadingMatchers {
		for _, s := range p.Scan(dom.Matchers{m}) {
			if e.inQuestion(s.Nodes[0]) {
				continue
			}
			title := dom.Text(s)
			if e.c.BrandSuffix != nil {
				title = strings.TrimSpace(e.c.BrandSuffix.ReplaceAllString(title, ""))
			}
			if title == "" || strings.EqualFold(title, e.c.Brand) {
				continue
			}

			id := e.c.Platform + "-current"
			if !dom.InHead(s.Nodes[0]) {
				p.Stamp(s, id, false)
			}
			return Chat{ID: id, Title: textutil.Truncate(title, e.c.ChatTitleLength)}, true
		}
	}
	return Chat{}, false
}

// inQuestion reports whether n is or sits inside a question candidate.
func (e *ProfileExtractor) inQuestion(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		for _, m := range e.c.QuestionMatchers {
			if m.Match(n) {
				return true
			}
		}
	}
	return false
}

// stampedID returns the id already carried by an element: our marker first,
// then its own id attribute.
func stampedID(s *goquery.Selection) string {
	if id := dom.Attr(s, dom.MarkerAttr); id != "" {
		return id
	}
	return dom.Attr(s, "id")
}

// outermost drops candidates nested inside an earlier candidate, so a
// family matching a message container and another matching its inner
// bubble yield one entry. Input must be in document order.
func outermost(cands []*goquery.Selection) []*goquery.Selection {
	if len(cands) < 2 {
		return cands
	}
	seen := make(map[*html.Node]bool, len(cands))
	out := cands[:0:0]
	for _, c := range cands {
		n := c.Nodes[0]
		nested := false
		for a := n.Parent; a != nil; a = a.Parent {
			if seen[a] {
				nested = true
				break
			}
		}
		seen[n] = true
		if !nested {
			out = append(out, c)
		}
	}
	return out
}
