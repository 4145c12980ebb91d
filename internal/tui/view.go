package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

var styles = struct {
	title, muted, active, typing, modal, help lipgloss.Style
	sidebar, online, offline                  lipgloss.Style
	toast                                     map[dashboard.Level]lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
	muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
	typing:  lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
	help:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	online:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	offline: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	sidebar: lipgloss.NewStyle().Width(sidebarWidth).Border(lipgloss.RoundedBorder(), false, true, false, false).PaddingRight(1),
	modal:   lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("214")).Padding(1, 2).Width(64),
	toast: map[dashboard.Level]lipgloss.Style{
		dashboard.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		dashboard.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		dashboard.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dashboard.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	},
}

func (m *Model) View() string {
	switch m.screen {
	case screenLoading:
		return m.spin.View() + " Connecting to the sales assistant..."
	case screenLogin:
		return m.loginView()
	}
	if !m.ready {
		return ""
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), " ", m.chatView())
	if m.d.Notifier.IsOpen() {
		body = lipgloss.Place(m.width, lipgloss.Height(body), lipgloss.Center, lipgloss.Center, m.modalView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.toastView(), styles.help.Render(helpLine))
}

func (m *Model) loginView() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Retail Sales Assistant") + "\n\n")
	if m.fatal != nil {
		b.WriteString(styles.toast[dashboard.LevelError].Render(m.fatal.Error()) + "\n\n")
	}
	b.WriteString("You are signed out.\n\n")
	b.WriteString(styles.help.Render("enter sign in • q quit"))
	return b.String()
}

func (m *Model) headerView() string {
	status := styles.online.Render("● online")
	if !m.d.Monitor.Connected() {
		status = styles.offline.Render("● offline (read only)")
	}
	parts := []string{styles.title.Render("Retail Sales Assistant"), status}
	if m.d.Features().Multilingual {
		parts = append(parts, styles.muted.Render("lang: "+m.d.Composer.Language()))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) sidebarView() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Chats") + "\n")
	active := m.d.Store.ActiveID()
	chats := m.d.Store.Chats()
	if len(chats) == 0 {
		b.WriteString(styles.muted.Render("(none)") + "\n")
	}
	for _, c := range chats {
		line := truncate(c.Title, sidebarWidth-3)
		if c.ID == active {
			b.WriteString(styles.active.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	if qs := m.d.CannedQuestions(); len(qs) > 0 {
		b.WriteString("\n" + styles.title.Render("Quick questions") + "\n")
		for i, q := range qs {
			if i >= 9 {
				break
			}
			b.WriteString(styles.muted.Render(fmt.Sprintf("alt+%d ", i+1)) + truncate(q, sidebarWidth-7) + "\n")
		}
	}
	return styles.sidebar.Height(m.history.Height + 5).Render(b.String())
}

func (m *Model) chatView() string {
	typing := ""
	if m.d.Store.Typing() {
		typing = m.spin.View() + styles.typing.Render(" Assistant is typing...")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.history.View(), typing, m.input.View())
}

func (m *Model) modalView() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Upcoming festivals") + "\n\n")
	for _, f := range m.d.Notifier.Festivals() {
		b.WriteString(festivalLine(f) + "\n")
		for _, tip := range firstOf(f.Recommendations.StockUpdates, f.Recommendations.DiscountSuggestions, f.Recommendations.MarketingTips) {
			b.WriteString(styles.muted.Render("   • "+tip) + "\n")
		}
	}
	b.WriteString("\n" + styles.help.Render(modalHelp))
	return styles.modal.Render(b.String())
}

func festivalLine(f domain.Festival) string {
	when := fmt.Sprintf("in %d days", f.DaysUntil)
	switch {
	case f.IsToday:
		when = "today"
	case f.DaysUntil == 1:
		when = "tomorrow"
	}
	return fmt.Sprintf("%s  %s  %s", styles.active.Render(f.Name), styles.muted.Render(f.Category), when)
}

// firstOf picks the first suggestion of each recommendation group.
func firstOf(groups ...[]string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g[0])
		}
	}
	return out
}

func (m *Model) toastView() string {
	snap := m.d.Toasts.Snapshot()
	if len(snap) > 3 {
		snap = snap[len(snap)-3:]
	}
	lines := make([]string, 0, len(snap))
	for _, t := range snap {
		lines = append(lines, styles.toast[t.Level].Render("["+t.Level.String()+"] "+t.Text))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
