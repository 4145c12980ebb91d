// Package tui renders the dashboard in a terminal with bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenMain
)

const (
	sidebarWidth = 30
	refreshEvery = 250 * time.Millisecond
)

type (
	mountedMsg struct{ err error }
	actionMsg  struct{ err error }
	sendMsg    struct{ err error }
	logoutMsg  struct{ err error }
	tickMsg    time.Time
	expireMsg  time.Time

	toastMsg    dashboard.Toast
	festivalMsg []domain.Festival
)

// eventBuffer bounds hook notifications waiting for the UI loop. Overflow
// is dropped; the refresh tick catches up.
const eventBuffer = 16

// Model is the bubbletea model over a Dashboard.
type Model struct {
	ctx context.Context
	d   *dashboard.Dashboard

	input    textarea.Model
	history  viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	screen   screen
	width    int
	height   int
	ready    bool
	rendered string
	fatal    error

	events chan tea.Msg
}

// New returns a Model. ctx bounds every gateway call the UI makes.
func New(ctx context.Context, d *dashboard.Dashboard) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about sales, stock or festivals..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.typing

	m := &Model{
		ctx:     ctx,
		d:       d,
		input:   ta,
		history: viewport.New(80, 20),
		spin:    sp,
		events:  make(chan tea.Msg, eventBuffer),
	}
	d.Toasts.OnPush(func(t dashboard.Toast) { m.notify(toastMsg(t)) })
	d.Notifier.OnOpen(func(list []domain.Festival) { m.notify(festivalMsg(list)) })
	return m
}

// notify hands msg to the UI loop without blocking the caller.
func (m *Model) notify(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// listen delivers the next hook notification.
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.mount(), m.spin.Tick, tick(), m.listen())
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) mount() tea.Cmd {
	return func() tea.Msg { return mountedMsg{err: m.d.Mount(m.ctx)} }
}

func (m *Model) run(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg { return actionMsg{err: fn(m.ctx)} }
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case mountedMsg:
		switch {
		case errors.Is(msg.err, dashboard.ErrUnauthenticated):
			m.screen = screenLogin
		case msg.err != nil:
			m.fatal = msg.err
			m.screen = screenLogin
		default:
			m.screen = screenMain
		}
		m.refresh()
		return m, nil

	case logoutMsg:
		if msg.err != nil {
			log.Error().Err(msg.err).Msg("logout failed")
		}
		m.input.Reset()
		m.screen = screenLogin
		return m, nil

	case sendMsg:
		// The composer holds the draft or the restored text.
		m.input.SetValue(m.d.Composer.Input())
		m.refresh()
		return m, nil

	case actionMsg:
		m.refresh()
		return m, nil

	case toastMsg:
		var expire tea.Cmd
		if ttl := m.d.Toasts.TTL; ttl > 0 {
			expire = tea.Tick(ttl, func(t time.Time) tea.Msg { return expireMsg(t) })
		}
		return m, tea.Batch(m.listen(), expire)

	case expireMsg:
		m.d.Toasts.Expire()
		return m, nil

	case festivalMsg:
		log.Debug().Int("festivals", len(msg)).Msg("festival modal shown")
		m.history.GotoBottom()
		return m, m.listen()

	case tickMsg:
		m.d.Toasts.Expire()
		m.refresh()
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.screen {
	case screenLoading:
		return m, nil
	case screenLogin:
		switch k.String() {
		case "enter":
			m.fatal = nil
			m.screen = screenLoading
			return m, func() tea.Msg { return mountedMsg{err: m.d.Login(m.ctx)} }
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}

	if m.d.Notifier.IsOpen() {
		return m, m.handleModalKey(k)
	}

	if mods, ok := enterModifiers(k); ok {
		return m, m.enter(mods)
	}
	if i, ok := cannedIndex(k); ok && m.d.Features().CannedQuestions {
		return m, m.shortcut(func(ctx context.Context) error { return m.d.Ask(ctx, i) })
	}

	switch k.String() {
	case "ctrl+n":
		return m, m.run(func(ctx context.Context) error {
			_, err := m.d.Store.Create(ctx)
			return err
		})
	case "ctrl+d":
		id := m.d.Store.ActiveID()
		if id == "" {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) error { return m.d.Store.Delete(ctx, id) })
	case "ctrl+up", "ctrl+down":
		m.cycleChat(k.String() == "ctrl+down")
		m.refresh()
		return m, nil
	case "ctrl+l":
		m.cycleLanguage()
		return m, nil
	case "ctrl+x":
		return m, func() tea.Msg { return logoutMsg{err: m.d.Logout(m.ctx)} }
	case "esc":
		if snap := m.d.Toasts.Snapshot(); len(snap) > 0 {
			m.d.Toasts.Dismiss(snap[len(snap)-1].ID)
		}
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(k)
		return m, cmd
	}

	if m.d.Composer.Disabled() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(k)
	return m, cmd
}

// enter routes Enter through the composer so modified presses only ever
// insert a newline.
func (m *Model) enter(mods dashboard.Modifiers) tea.Cmd {
	if m.d.Composer.Disabled() {
		return nil
	}
	m.d.Composer.SetInput(m.input.Value())
	if mods != (dashboard.Modifiers{}) {
		_, _ = m.d.Composer.HandleEnter(m.ctx, mods)
		m.input.SetValue(m.d.Composer.Input())
		return nil
	}
	if strings.TrimSpace(m.input.Value()) == "" {
		return nil
	}
	m.input.Reset()
	return func() tea.Msg {
		_, err := m.d.Composer.HandleEnter(m.ctx, mods)
		return sendMsg{err: err}
	}
}

// shortcut runs a send that does not come from the textarea. The draft is
// handed to the composer first so the sendMsg sync keeps it, and a failed
// shortcut only lands in the input when there was no draft.
func (m *Model) shortcut(fn func(context.Context) error) tea.Cmd {
	m.d.Composer.SetInput(m.input.Value())
	return func() tea.Msg { return sendMsg{err: fn(m.ctx)} }
}

func (m *Model) handleModalKey(k tea.KeyMsg) tea.Cmd {
	switch k.String() {
	case "a", "enter":
		return m.shortcut(m.d.Notifier.Accept)
	case "r":
		_ = m.d.Notifier.RemindLater()
	case "d", "esc":
		_ = m.d.Notifier.Dismiss()
	}
	return nil
}

func (m *Model) cycleChat(forward bool) {
	chats := m.d.Store.Chats()
	if len(chats) == 0 {
		return
	}
	cur := -1
	for i, c := range chats {
		if c.ID == m.d.Store.ActiveID() {
			cur = i
		}
	}
	next := 0
	switch {
	case cur < 0 && !forward:
		next = len(chats) - 1
	case cur >= 0 && forward:
		next = (cur + 1) % len(chats)
	case cur >= 0:
		next = (cur - 1 + len(chats)) % len(chats)
	}
	_ = m.d.Store.Select(chats[next].ID)
}

func (m *Model) cycleLanguage() {
	if !m.d.Features().Multilingual {
		return
	}
	cur := m.d.Composer.Language()
	for i, l := range dashboard.Languages {
		if l.String() == cur {
			_ = m.d.Composer.SetLanguage(dashboard.Languages[(i+1)%len(dashboard.Languages)].String())
			return
		}
	}
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	chatWidth := w - sidebarWidth - 4
	if chatWidth < 20 {
		chatWidth = 20
	}
	histHeight := h - 12
	if histHeight < 3 {
		histHeight = 3
	}
	m.history.Width = chatWidth
	m.history.Height = histHeight
	m.input.SetWidth(chatWidth)

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(chatWidth-2),
	)
	if err != nil {
		log.Warn().Err(err).Msg("markdown renderer unavailable")
		r = nil
	}
	m.renderer = r
	m.ready = true
	m.rendered = ""
	m.refresh()
}

// refresh re-renders the active conversation when it changed.
func (m *Model) refresh() {
	chat, ok := m.d.Store.Active()
	key := ""
	if ok {
		key = fmt.Sprintf("%s/%d/%d", chat.ID, len(chat.Messages), m.history.Width)
	}
	if key == m.rendered {
		return
	}
	m.rendered = key
	if !ok {
		m.history.SetContent(styles.muted.Render("No chat selected. Press ctrl+n to start one."))
		return
	}
	m.history.SetContent(m.renderMessages(chat.Messages))
	m.history.GotoBottom()
}

func (m *Model) renderMessages(msgs []domain.Message) string {
	if len(msgs) == 0 {
		return styles.muted.Render("Say hello to your sales assistant.")
	}
	var b strings.Builder
	for _, msg := range msgs {
		who := "Assistant"
		if msg.Role == domain.RoleUser {
			who = "You"
		}
		fmt.Fprintf(&b, "**%s** _%s_\n\n%s\n\n---\n\n", who, msg.CreatedAt.Local().Format("15:04"), msg.Content)
	}
	md := b.String()
	if m.renderer == nil {
		return md
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
