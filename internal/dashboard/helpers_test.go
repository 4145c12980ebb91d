package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

// fakeBackend keeps chats in memory. Any *Fn field overrides the default.
type fakeBackend struct {
	mu        sync.Mutex
	healthy   bool
	chats     []domain.Chat
	seq       int
	festivals []domain.Festival
	calls     map[string]int
	sent      []sentMsg

	listFn   func() ([]domain.Chat, error)
	createFn func() (*domain.Chat, error)
	deleteFn func(id string) error
	sendFn   func(id, text, lang string) (*domain.Chat, error)
	festFn   func() ([]domain.Festival, error)
	mailFn   func(req gateway.MailRequest) (*gateway.MailResult, error)
}

type sentMsg struct{ ChatID, Text, Lang string }

func newFakeBackend(chatIDs ...string) *fakeBackend {
	f := &fakeBackend{healthy: true, calls: map[string]int{}}
	for _, id := range chatIDs {
		f.chats = append(f.chats, domain.Chat{ID: id, Title: "Chat " + id})
	}
	return f
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeBackend) Health(context.Context) bool {
	f.hit("health")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeBackend) ListChats(context.Context) ([]domain.Chat, error) {
	f.hit("list")
	if f.listFn != nil {
		return f.listFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Chat(nil), f.chats...), nil
}

func (f *fakeBackend) CreateChat(context.Context) (*domain.Chat, error) {
	f.hit("create")
	if f.createFn != nil {
		return f.createFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c := domain.Chat{ID: fmt.Sprintf("new-%d", f.seq), Title: "New chat", Messages: []domain.Message{}}
	f.chats = append([]domain.Chat{c}, f.chats...)
	return &c, nil
}

func (f *fakeBackend) DeleteChat(_ context.Context, id string) error {
	f.hit("delete")
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.chats {
		if f.chats[i].ID == id {
			f.chats = append(f.chats[:i], f.chats[i+1:]...)
			return nil
		}
	}
	return &gateway.APIError{Status: 404, Code: "not_found", Message: "chat not found"}
}

func (f *fakeBackend) SendMessage(_ context.Context, id, text, lang string) (*domain.Chat, error) {
	f.hit("send")
	f.mu.Lock()
	f.sent = append(f.sent, sentMsg{id, text, lang})
	f.mu.Unlock()
	if f.sendFn != nil {
		return f.sendFn(id, text, lang)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.chats {
		if f.chats[i].ID == id {
			c := f.chats[i]
			c.Messages = append(append([]domain.Message(nil), c.Messages...),
				domain.Message{ID: fmt.Sprintf("u%d", len(c.Messages)), Role: domain.RoleUser, Content: text},
				domain.Message{ID: fmt.Sprintf("a%d", len(c.Messages)), Role: domain.RoleAssistant, Content: "reply to " + text},
			)
			f.chats[i] = c
			return &c, nil
		}
	}
	return nil, &gateway.APIError{Status: 404, Code: "not_found", Message: "chat not found"}
}

func (f *fakeBackend) ListFestivals(context.Context) ([]domain.Festival, error) {
	f.hit("festivals")
	if f.festFn != nil {
		return f.festFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.festivals, nil
}

func (f *fakeBackend) TriggerMail(_ context.Context, req gateway.MailRequest) (*gateway.MailResult, error) {
	f.hit("mail")
	if f.mailFn != nil {
		return f.mailFn(req)
	}
	return &gateway.MailResult{Status: "compose", ComposeURL: "https://mail.example/compose?to=" + req.To}, nil
}

func (f *fakeBackend) lastSent() sentMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMsg{}
	}
	return f.sent[len(f.sent)-1]
}

type staticConn bool

func (c staticConn) Connected() bool { return bool(c) }

func festival(name string, days int) domain.Festival {
	return domain.Festival{Name: name, Date: "2026-11-08", Category: domain.CategoryFestival, DaysUntil: days}
}

// newTestDashboard returns a logged-in, mounted dashboard with no festival delay.
func newTestDashboard(t *testing.T, api *fakeBackend, feat Features) (*Dashboard, *session.Manager) {
	t.Helper()
	mgr := session.NewManager(session.NewMemoryStore())
	d, err := New(api, mgr, Options{Features: feat})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	return d, mgr
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func lastToast(t *testing.T, ts *Toasts) Toast {
	t.Helper()
	snap := ts.Snapshot()
	if len(snap) == 0 {
		t.Fatalf("expected a toast")
	}
	return snap[len(snap)-1]
}

func chatIDs(chats []domain.Chat) []string {
	out := make([]string, len(chats))
	for i, c := range chats {
		out[i] = c.ID
	}
	return out
}
