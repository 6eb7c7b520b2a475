// Package render draws the navigator's two panels for a terminal, the
// offline counterpart of the in-page overlay.
package render

import (
	"fmt"
	"strings"

	"chatnav/navigator"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	openBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("214"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)
)

// sideBySide is the narrowest terminal that fits both panels on one row.
const sideBySide = 100

// Panels renders both panels of v for a terminal width columns wide.
// Panels are laid out side by side on wide terminals, stacked otherwise.
func Panels(v navigator.View, platform, url string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	boxWidth := width - 2
	if width >= sideBySide {
		boxWidth = width/2 - 2
	}

	qrows := make([]row, len(v.Questions))
	for i, q := range v.Questions {
		qrows[i] = row{label: q.Text, id: q.ID}
	}
	crows := make([]row, len(v.Chats))
	for i, c := range v.Chats {
		crows[i] = row{label: c.Title, id: c.ID, url: c.URL}
	}

	questions := panel("Questions", "No questions found on this page", qrows, v.State.IsOpen(navigator.Questions), boxWidth)
	chats := panel("Chats", "No chats found on this page", crows, v.State.IsOpen(navigator.Chats), boxWidth)

	var body string
	if width >= sideBySide {
		body = lipgloss.JoinHorizontal(lipgloss.Top, questions, chats)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, questions, chats)
	}

	title := titleStyle.Render("chatnav") + dimStyle.Render(platform+"  "+url)
	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

type row struct {
	label, id, url string
}

func panel(title, placeholder string, rows []row, open bool, width int) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", title, len(rows))))
	sb.WriteString("\n")

	if len(rows) == 0 {
		sb.WriteString(emptyStyle.Render(placeholder))
	}
	for i, r := range rows {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%2d  %s\n", i+1, r.label)
		meta := r.id
		if r.url != "" {
			meta += "  " + r.url
		}
		sb.WriteString("    " + dimStyle.Render(meta))
	}

	style := boxStyle
	if open {
		style = openBoxStyle
	}
	// Width includes padding but not the border.
	return style.Width(width - 2).Render(sb.String())
}
