package render

import (
	"os"

	"golang.org/x/sys/unix"
)

// DefaultWidth is used when the output is not a terminal.
const DefaultWidth = 100

const (
	ClearScreen = "\033[2J"
	CursorHome  = "\033[H"
)

// Width returns the column count of the terminal behind f.
func Width(f *os.File) int {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return DefaultWidth
	}
	return int(ws.Col)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	_, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	return err == nil
}

// Redraw clears the screen and writes frame from the top-left corner.
func Redraw(f *os.File, frame string) {
	f.WriteString(ClearScreen + CursorHome + frame + "\n")
}
