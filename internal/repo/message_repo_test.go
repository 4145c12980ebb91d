package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

func TestCreateMessage_StoresScoreAndLanguage(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	ctx := context.Background()
	c, _ := CreateChat(ctx, db, "u1", "t")

	s := 0.75
	m, err := CreateMessage(ctx, db, c.ID, domain.RoleAssistant, "answer", "ta", &s)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	got, err := GetMessage(ctx, db, m.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.Score == nil || *got.Score != 0.75 || got.Language != "ta" || got.Content != "answer" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if _, err := GetMessage(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing message: err=%v", err)
	}
}

func TestCountMessages_ErrorWithoutTable(t *testing.T) {
	db := newTestDB(t)
	if _, err := CountMessages(context.Background(), db, "c1"); err == nil {
		t.Fatalf("expected error without messages table")
	}
}

func TestListMessagesPage_OrderAndPagination(t *testing.T) {
	db := newTestDB(t, &domain.Chat{}, &domain.Message{})
	ctx := context.Background()
	now := time.Now().UTC()
	_ = db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t", CreatedAt: now, UpdatedAt: now}).Error
	for i, id := range []string{"m1", "m2", "m3"} {
		at := now.Add(time.Duration(i) * time.Second)
		_ = db.Create(&domain.Message{ID: id, ChatID: "c1", Role: domain.RoleUser, Content: id, CreatedAt: at, UpdatedAt: at}).Error
	}

	n, err := CountMessages(ctx, db, "c1")
	if err != nil || n != 3 {
		t.Fatalf("CountMessages = %d, %v", n, err)
	}
	page, err := ListMessagesPage(ctx, db, "c1", 1, 5)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "m2" || page[1].ID != "m3" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
