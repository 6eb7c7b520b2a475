package navigator

import (
	"strconv"
	"strings"

	"chatnav/dom"
	"chatnav/sites"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attributes the overlay carries so hosts can route user interaction back.
const (
	InstanceAttr = "data-chatnav-instance"
	ToggleAttr   = "data-chatnav-toggle"
	PanelAttr    = "data-chatnav-panel"
	RowAttr      = "data-chatnav-row"
	EmptyClass   = "chatnav-empty"
)

const overlayCSS = `#chatnav-overlay{position:fixed;top:72px;right:16px;z-index:2147483647;font:13px/1.4 system-ui,sans-serif}
#chatnav-overlay .chatnav-buttons{display:flex;gap:6px;justify-content:flex-end}
#chatnav-overlay button{cursor:pointer;border:1px solid #8884;border-radius:6px;padding:4px 10px;background:#fff;color:#222}
#chatnav-overlay .chatnav-panel{margin-top:6px;width:320px;max-height:60vh;overflow:auto;background:#fff;color:#222;border:1px solid #8884;border-radius:8px;box-shadow:0 4px 16px #0003}
#chatnav-overlay .chatnav-panel[hidden]{display:none}
#chatnav-overlay ul{list-style:none;margin:0;padding:4px}
#chatnav-overlay li{padding:6px 8px;border-radius:4px}
#chatnav-overlay li[data-chatnav-row]{cursor:pointer}
#chatnav-overlay li[data-chatnav-row]:hover{background:#8882}
#chatnav-overlay .chatnav-empty{color:#888;font-style:italic}`

// View is everything the overlay is derived from.
type View struct {
	Instance  string
	State     PanelState
	Questions []sites.Question
	Chats     []sites.Chat
}

// Render builds the overlay tree for v. Every string from the page goes into
// a text node, so serializing the tree escapes it.
func Render(v View) *html.Node {
	root := element(atom.Div, "id", dom.OverlayID, InstanceAttr, v.Instance)

	style := element(atom.Style)
	style.AppendChild(textNode(overlayCSS))
	root.AppendChild(style)

	buttons := element(atom.Div, "class", "chatnav-buttons")
	buttons.AppendChild(toggleButton(Questions, "Questions", len(v.Questions), v.State))
	buttons.AppendChild(toggleButton(Chats, "Chats", len(v.Chats), v.State))
	root.AppendChild(buttons)

	qrows := make([]*html.Node, 0, len(v.Questions))
	for _, q := range v.Questions {
		qrows = append(qrows, row(q.ID, q.Text, ""))
	}
	root.AppendChild(panel(Questions, "Questions", "No questions found on this page", qrows, v.State))

	crows := make([]*html.Node, 0, len(v.Chats))
	for _, c := range v.Chats {
		crows = append(crows, row(c.ID, c.Title, c.URL))
	}
	root.AppendChild(panel(Chats, "Chats", "No chats found on this page", crows, v.State))

	return root
}

// RenderString serializes the overlay for v.
func RenderString(v View) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, Render(v)); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func toggleButton(kind Panel, label string, count int, state PanelState) *html.Node {
	b := element(atom.Button,
		"type", "button",
		ToggleAttr, kind.String(),
		"aria-expanded", strconv.FormatBool(state.IsOpen(kind)),
	)
	b.AppendChild(textNode(label + " (" + strconv.Itoa(count) + ")"))
	return b
}

func panel(kind Panel, title, placeholder string, rows []*html.Node, state PanelState) *html.Node {
	attrs := []string{"class", "chatnav-panel", PanelAttr, kind.String()}
	if !state.IsOpen(kind) {
		attrs = append(attrs, "hidden", "")
	}
	p := element(atom.Div, attrs...)

	header := element(atom.Div, "class", "chatnav-header")
	header.AppendChild(textNode(title))
	p.AppendChild(header)

	list := element(atom.Ul, "class", "chatnav-list")
	if len(rows) == 0 {
		empty := element(atom.Li, "class", EmptyClass)
		empty.AppendChild(textNode(placeholder))
		list.AppendChild(empty)
	}
	for _, r := range rows {
		list.AppendChild(r)
	}
	p.AppendChild(list)
	return p
}

func row(id, label, href string) *html.Node {
	attrs := []string{"class", "chatnav-row", RowAttr, id, "title", label}
	if href != "" {
		attrs = append(attrs, "data-chatnav-href", href)
	}
	li := element(atom.Li, attrs...)
	li.AppendChild(textNode(label))
	return li
}

// element builds an element from key/value attribute pairs.
func element(a atom.Atom, kv ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(kv); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return n
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
