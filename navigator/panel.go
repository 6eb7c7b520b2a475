package navigator

import "strings"

// Panel identifies one of the two overlay panels.
type Panel int

const (
	NoPanel Panel = iota
	Questions
	Chats
)

func (p Panel) String() string {
	switch p {
	case Questions:
		return "questions"
	case Chats:
		return "chats"
	default:
		return "none"
	}
}

// ParsePanel maps a panel name back to its Panel.
func ParsePanel(s string) (Panel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "questions":
		return Questions, true
	case "chats":
		return Chats, true
	}
	return NoPanel, false
}

// PanelState tracks which panel is open. Holding a single open panel makes
// "at most one open" hold by construction.
type PanelState struct {
	open Panel
}

// Toggle closes kind if it is open, otherwise opens it and closes the other.
func (s *PanelState) Toggle(kind Panel) {
	if kind != Questions && kind != Chats {
		return
	}
	if s.open == kind {
		s.open = NoPanel
		return
	}
	s.open = kind
}

// CloseAll closes both panels. It reports whether anything was open.
func (s *PanelState) CloseAll() bool {
	was := s.open != NoPanel
	s.open = NoPanel
	return was
}

// Open returns the open panel, or NoPanel.
func (s PanelState) Open() Panel {
	return s.open
}

// IsOpen reports whether kind is the open panel.
func (s PanelState) IsOpen(kind Panel) bool {
	return kind != NoPanel && s.open == kind
}
