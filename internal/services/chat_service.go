// Package services – ChatService
//
// ChatService manages the chat lifecycle: create (enforcing the per-user
// history cap), list with pagination, fetch, rename and delete. Automatic
// titling happens in MessageService on the first prompt.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/observability"
)

// DefaultMaxChats is the per-user history cap when none is configured.
const DefaultMaxChats = 10

const (
	defaultTitleNew      = "New chat"
	defaultTitleUntitled = "Untitled"
)

// ChatRepo is the persistence contract ChatService needs.
type ChatRepo interface {
	CreateChat(ctx context.Context, db *gorm.DB, userID, title string) (*domain.Chat, error)
	GetChat(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Chat, error)
	UpdateChatTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error
	DeleteChat(ctx context.Context, db *gorm.DB, id, userID string) error
	CountChats(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListChatsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Chat, error)
	LeastRecentChatIDs(ctx context.Context, db *gorm.DB, userID string, n int) ([]string, error)
}

// ChatService provides chat-level operations.
type ChatService struct {
	DB   *gorm.DB
	Repo ChatRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// MaxChats is the per-user history cap; creating past it evicts the
	// least recently updated chats. Zero or less disables the cap.
	MaxChats int
}

// NewChatService constructs a ChatService with default title length and cap.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{DB: db, Repo: r, TitleMaxLen: 60, MaxChats: DefaultMaxChats}
}

func (s *ChatService) tracer() trace.Tracer { return otel.Tracer("services/ChatService") }

// Create inserts an empty chat for userID. If the user is at the history cap
// the least recently updated chats are removed first, in the same
// transaction.
func (s *ChatService) Create(ctx context.Context, userID, title string) (*domain.Chat, error) {
	ctx, span := s.tracer().Start(ctx, "Create", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleNew
	}

	var out *domain.Chat
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.MaxChats > 0 {
			n, err := s.Repo.CountChats(ctx, tx, userID)
			if err != nil {
				return err
			}
			if over := int(n) - s.MaxChats + 1; over > 0 {
				ids, err := s.Repo.LeastRecentChatIDs(ctx, tx, userID, over)
				if err != nil {
					return err
				}
				for _, id := range ids {
					if err := s.Repo.DeleteChat(ctx, tx, id, userID); err != nil {
						return err
					}
				}
				span.SetAttributes(attribute.Int("chats.evicted", len(ids)))
				observability.ChatsEvicted.Add(float64(len(ids)))
			}
		}
		c, err := s.Repo.CreateChat(ctx, tx, userID, s.clip(title))
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPage returns a page of chats (with messages) and the total count.
// Invalid page/pageSize fall back to 1/20.
func (s *ChatService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int("page", page),
		attribute.Int("page_size", pageSize),
	))
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := s.Repo.CountChats(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Chat{}, 0, nil
	}
	items, err := s.Repo.ListChatsPage(ctx, s.DB, userID, (page-1)*pageSize, pageSize)
	return items, total, err
}

// Get returns one chat with its messages.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	c, err := s.Repo.GetChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	return c, err
}

// UpdateTitle renames a chat owned by userID; a blank title becomes "Untitled".
func (s *ChatService) UpdateTitle(ctx context.Context, userID, chatID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = defaultTitleUntitled
	}
	err := s.Repo.UpdateChatTitle(ctx, s.DB, chatID, userID, s.clip(title))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	return err
}

// Delete removes a chat owned by userID.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	ctx, span := s.tracer().Start(ctx, "Delete", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("chat.id", chatID),
	))
	defer span.End()

	err := s.Repo.DeleteChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrChatNotFound
	}
	return err
}

func (s *ChatService) clip(title string) string {
	return clipRunes(title, s.TitleMaxLen)
}

func clipRunes(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// normalizeTitle trims and collapses internal whitespace.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

var whitespaceRE = regexp.MustCompile(`\s+`)
