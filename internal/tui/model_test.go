package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

type fakeAPI struct {
	mu        sync.Mutex
	chats     []domain.Chat
	festivals []domain.Festival
	sends     []string
	sendErr   error
}

func (f *fakeAPI) Health(context.Context) bool { return true }

func (f *fakeAPI) ListChats(context.Context) ([]domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Chat(nil), f.chats...), nil
}

func (f *fakeAPI) CreateChat(context.Context) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := domain.Chat{ID: "c" + string(rune('0'+len(f.chats))), Title: "New chat"}
	f.chats = append([]domain.Chat{c}, f.chats...)
	return &c, nil
}

func (f *fakeAPI) DeleteChat(context.Context, string) error { return nil }

func (f *fakeAPI) SendMessage(_ context.Context, id, text, _ string) (*domain.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, text)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &domain.Chat{ID: id, Title: text, Messages: []domain.Message{
		{ID: "u", Role: domain.RoleUser, Content: text},
		{ID: "a", Role: domain.RoleAssistant, Content: "**Stock up** on diyas."},
	}}, nil
}

func (f *fakeAPI) ListFestivals(context.Context) ([]domain.Festival, error) { return f.festivals, nil }

func (f *fakeAPI) TriggerMail(context.Context, gateway.MailRequest) (*gateway.MailResult, error) {
	return &gateway.MailResult{Status: "compose"}, nil
}

func (f *fakeAPI) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func newModel(t *testing.T, api *fakeAPI) (*Model, *dashboard.Dashboard) {
	t.Helper()
	d, err := dashboard.New(api, session.NewManager(session.NewMemoryStore()), dashboard.Options{
		Features: dashboard.Features{Multilingual: true, CannedQuestions: true},
	})
	if err != nil {
		t.Fatalf("dashboard.New: %v", err)
	}
	m := New(context.Background(), d)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, d
}

// press feeds k to the model and runs the resulting command once.
func press(m *Model, k tea.KeyMsg) {
	_, cmd := m.Update(k)
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func loggedIn(t *testing.T, api *fakeAPI) (*Model, *dashboard.Dashboard) {
	t.Helper()
	m, d := newModel(t, api)
	m.Update(m.mount()())
	if m.screen != screenLogin {
		t.Fatalf("screen = %v; want login", m.screen)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenMain {
		t.Fatalf("screen = %v; want main", m.screen)
	}
	return m, d
}

func TestModel_LoginFlow(t *testing.T) {
	m, _ := newModel(t, &fakeAPI{})
	m.Update(m.mount()())
	if !strings.Contains(m.View(), "signed out") {
		t.Fatalf("login view = %q", m.View())
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.screen != screenMain || !strings.Contains(m.View(), "online") {
		t.Fatalf("main view not shown")
	}
}

func TestModel_ModifiedEnterInsertsNewline(t *testing.T) {
	api := &fakeAPI{chats: []domain.Chat{{ID: "A", Title: "Q3 review"}}}
	m, d := loggedIn(t, api)
	_ = d.Store.Select("A")

	for _, r := range "stock" {
		press(m, runes(string(r)))
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	press(m, tea.KeyMsg{Type: tea.KeyCtrlJ})
	if m.input.Value() != "stock\n\n" {
		t.Fatalf("input = %q", m.input.Value())
	}
	if len(api.sent()) != 0 {
		t.Fatalf("modified enter sent %v", api.sent())
	}

	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := api.sent(); len(got) != 1 || got[0] != "stock" {
		t.Fatalf("sent = %v", got)
	}
	active, _ := d.Store.Active()
	if m.input.Value() != "" || len(active.Messages) != 2 || m.rendered == "" {
		t.Fatalf("after send: input %q active %+v", m.input.Value(), active)
	}
}

func TestModel_FailedSendRestoresInput(t *testing.T) {
	api := &fakeAPI{chats: []domain.Chat{{ID: "A"}}, sendErr: errors.New("boom")}
	m, d := loggedIn(t, api)
	_ = d.Store.Select("A")

	m.input.SetValue("best sellers?")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.input.Value() != "best sellers?" {
		t.Fatalf("input = %q", m.input.Value())
	}
	if !strings.Contains(m.View(), "Failed to send message") {
		t.Fatalf("error toast not rendered")
	}
}

func TestModel_FestivalModalKeys(t *testing.T) {
	api := &fakeAPI{festivals: []domain.Festival{{Name: "Diwali", Category: "Festival", DaysUntil: 3,
		Recommendations: domain.Recommendations{StockUpdates: []string{"Stock diyas"}}}}}
	m, d := loggedIn(t, api)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !d.WaitNotifier(ctx) {
		t.Fatalf("modal did not open")
	}
	view := m.View()
	if !strings.Contains(view, "Diwali") || !strings.Contains(view, "Stock diyas") {
		t.Fatalf("modal view = %q", view)
	}

	press(m, runes("a"))
	if d.Notifier.IsOpen() {
		t.Fatalf("accept must close the modal")
	}
	if got := api.sent(); len(got) != 1 || got[0] != "Give me business strategies for Diwali" {
		t.Fatalf("sent = %v", got)
	}
}

func openModal(t *testing.T, api *fakeAPI) (*Model, *dashboard.Dashboard) {
	t.Helper()
	api.festivals = []domain.Festival{{Name: "Diwali", Category: "Festival", DaysUntil: 3}}
	m, d := loggedIn(t, api)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !d.WaitNotifier(ctx) {
		t.Fatalf("modal did not open")
	}
	// Typed before the modal took the keyboard.
	m.input.SetValue("my unsent draft")
	return m, d
}

func TestModel_AcceptKeepsDraft(t *testing.T) {
	cases := []struct {
		name    string
		sendErr error
		draft   bool
		want    string
	}{
		{"success keeps draft", nil, true, "my unsent draft"},
		{"failure keeps draft", errors.New("boom"), true, "my unsent draft"},
		{"failure without draft restores prompt", errors.New("boom"), false, "Give me business strategies for Diwali"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{sendErr: tc.sendErr}
			m, _ := openModal(t, api)
			if !tc.draft {
				m.input.Reset()
			}

			press(m, runes("a"))
			if got := api.sent(); len(got) != 1 || got[0] != "Give me business strategies for Diwali" {
				t.Fatalf("sent = %v", got)
			}
			if m.input.Value() != tc.want {
				t.Fatalf("input = %q; want %q", m.input.Value(), tc.want)
			}
		})
	}
}

func TestModel_CannedQuestionKeepsDraft(t *testing.T) {
	api := &fakeAPI{}
	m, _ := loggedIn(t, api)
	m.input.SetValue("half typed")

	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2"), Alt: true})
	if got := api.sent(); len(got) != 1 || got[0] != dashboard.CannedQuestions[1] {
		t.Fatalf("sent = %v", got)
	}
	if m.input.Value() != "half typed" {
		t.Fatalf("input = %q", m.input.Value())
	}
}

// nextEvent returns the first queued hook notification of type T.
func nextEvent[T any](t *testing.T, m *Model) T {
	t.Helper()
	for {
		select {
		case msg := <-m.events:
			if v, ok := msg.(T); ok {
				return v
			}
		default:
			var zero T
			t.Fatalf("no %T queued", zero)
			return zero
		}
	}
}

func TestModel_HooksFeedUpdateLoop(t *testing.T) {
	api := &fakeAPI{chats: []domain.Chat{{ID: "A"}}, sendErr: errors.New("boom")}
	m, d := openModal(t, api)

	opened := nextEvent[festivalMsg](t, m)
	if len(opened) != 1 || opened[0].Name != "Diwali" {
		t.Fatalf("festival event = %+v", opened)
	}
	if _, cmd := m.Update(opened); cmd == nil {
		t.Fatalf("festival event must re-arm the listener")
	}

	_ = d.Notifier.Dismiss()
	_ = d.Store.Select("A")
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	toast := nextEvent[toastMsg](t, m)
	if toast.Level != dashboard.LevelError {
		t.Fatalf("toast event = %+v", toast)
	}
	if _, cmd := m.Update(toast); cmd == nil {
		t.Fatalf("toast event must re-arm the listener")
	}
}

func TestModel_ShortcutsAndLogout(t *testing.T) {
	api := &fakeAPI{}
	m, d := loggedIn(t, api)

	press(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	if d.Store.ActiveID() == "" {
		t.Fatalf("ctrl+n did not create a chat")
	}
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1"), Alt: true})
	if got := api.sent(); len(got) != 1 || got[0] != dashboard.CannedQuestions[0] {
		t.Fatalf("sent = %v", got)
	}

	press(m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if d.Composer.Language() != "ta" {
		t.Fatalf("language = %q", d.Composer.Language())
	}

	press(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.screen != screenLogin || d.Session() != nil {
		t.Fatalf("logout did not return to login")
	}
}

func TestKeyHelpers(t *testing.T) {
	if mods, ok := enterModifiers(tea.KeyMsg{Type: tea.KeyEnter}); !ok || mods != (dashboard.Modifiers{}) {
		t.Fatalf("bare enter")
	}
	if mods, ok := enterModifiers(tea.KeyMsg{Type: tea.KeyEnter, Alt: true}); !ok || !mods.Alt {
		t.Fatalf("alt+enter")
	}
	if _, ok := enterModifiers(runes("x")); ok {
		t.Fatalf("x is not enter")
	}
	if i, ok := cannedIndex(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3"), Alt: true}); !ok || i != 2 {
		t.Fatalf("alt+3 = %d %v", i, ok)
	}
	if _, ok := cannedIndex(runes("3")); ok {
		t.Fatalf("bare 3 is not a shortcut")
	}
	if truncate("Diwali campaign", 8) != "Diwali …" || truncate("ok", 8) != "ok" {
		t.Fatalf("truncate")
	}
}
