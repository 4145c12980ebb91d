package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
)

// enterModifiers reports whether k is an Enter press and which modifiers were
// held. Most terminals cannot report shift+enter, so alt+enter and ctrl+j
// count as modified Enter too.
func enterModifiers(k tea.KeyMsg) (dashboard.Modifiers, bool) {
	switch k.String() {
	case "enter":
		return dashboard.Modifiers{}, true
	case "alt+enter":
		return dashboard.Modifiers{Alt: true}, true
	case "shift+enter":
		return dashboard.Modifiers{Shift: true}, true
	case "ctrl+j":
		return dashboard.Modifiers{Ctrl: true}, true
	}
	return dashboard.Modifiers{}, false
}

// cannedIndex maps alt+1..alt+9 to a question index.
func cannedIndex(k tea.KeyMsg) (int, bool) {
	s := k.String()
	if len(s) == 5 && s[:4] == "alt+" && s[4] >= '1' && s[4] <= '9' {
		return int(s[4] - '1'), true
	}
	return 0, false
}

const helpLine = "enter send • alt+enter newline • ctrl+n new • ctrl+d delete • ctrl+↑/↓ switch • ctrl+l language • ctrl+x logout • esc clear toast • ctrl+c quit"

const modalHelp = "a ask for strategies • r remind me later • d dismiss"
