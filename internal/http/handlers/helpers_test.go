package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/http/middleware"
	"github.com/tbourn/retail-chat-dashboard/internal/repo"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// testChatRepo implements services.ChatRepo with the repo package.
type testChatRepo struct{}

func (testChatRepo) CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error) {
	return repo.CreateChat(ctx, db, userID, title)
}
func (testChatRepo) GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error) {
	return repo.GetChat(ctx, db, id, userID)
}
func (testChatRepo) UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateChatTitle(ctx, db, id, userID, title)
}
func (testChatRepo) DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteChat(ctx, db, id, userID)
}
func (testChatRepo) CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountChats(ctx, db, userID)
}
func (testChatRepo) ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error) {
	return repo.ListChatsPage(ctx, db, userID, offset, limit)
}
func (testChatRepo) LeastRecentChatIDs(ctx context.Context, db *gorm.DB, userID string, n int) ([]string, error) {
	return repo.LeastRecentChatIDs(ctx, db, userID, n)
}

// echoResponder answers "echo: <prompt>" and counts calls.
type echoResponder struct{ calls int }

func (e *echoResponder) Reply(_ context.Context, prompt, _ string, _ []domain.Message) (services.Reply, error) {
	e.calls++
	return services.Reply{Content: "echo: " + prompt, Source: services.SourcePlaybook}, nil
}

type fakeFestivals struct {
	fn func(ctx context.Context, daysAhead int) ([]domain.Festival, error)
}

func (f fakeFestivals) Upcoming(ctx context.Context, daysAhead int) ([]domain.Festival, error) {
	return f.fn(ctx, daysAhead)
}

type fakeMail struct {
	fn func(ctx context.Context, req services.MailRequest) (*services.MailResult, error)
}

func (f fakeMail) Trigger(ctx context.Context, req services.MailRequest) (*services.MailResult, error) {
	return f.fn(ctx, req)
}

type testEnv struct {
	db        *gorm.DB
	r         *gin.Engine
	responder *echoResponder
	festFn    func(ctx context.Context, daysAhead int) ([]domain.Festival, error)
	mailFn    func(ctx context.Context, req services.MailRequest) (*services.MailResult, error)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newHandlerDB(t)
	env := &testEnv{
		db:        db,
		responder: &echoResponder{},
		festFn: func(context.Context, int) ([]domain.Festival, error) {
			return []domain.Festival{}, nil
		},
		mailFn: func(context.Context, services.MailRequest) (*services.MailResult, error) {
			return &services.MailResult{Status: services.MailCompose}, nil
		},
	}
	h := New(Deps{
		Chats:    services.NewChatService(db, testChatRepo{}),
		Messages: &services.MessageService{DB: db, Responder: env.responder, MaxPromptRunes: 100},
		Festivals: fakeFestivals{fn: func(ctx context.Context, d int) ([]domain.Festival, error) {
			return env.festFn(ctx, d)
		}},
		Mail: fakeMail{fn: func(ctx context.Context, r services.MailRequest) (*services.MailResult, error) {
			return env.mailFn(ctx, r)
		}},
		DB:             db,
		IdempotencyTTL: time.Hour,
		MaxPromptRunes: 100,
	})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	r.POST("/chats", h.CreateChat)
	r.GET("/chats", h.ListChats)
	r.DELETE("/chats/:id", h.DeleteChat)
	r.PUT("/chats/:id/title", h.UpdateChatTitle)
	r.GET("/chats/:id/messages", h.ListMessages)
	r.POST("/chats/:id/messages", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.PostMessage)
	r.GET("/festivals", h.ListFestivals)
	r.POST("/mail", h.TriggerMail)
	env.r = r
	return env
}

func (e *testEnv) do(method, target string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (%s)", v, err, w.Body.String())
	}
	return v
}

func (e *testEnv) createChat(t *testing.T, user string) domain.Chat {
	t.Helper()
	w := e.do(http.MethodPost, "/chats", nil, map[string]string{middleware.HeaderUserID: user})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	return decode[domain.Chat](t, w)
}
