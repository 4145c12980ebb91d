// Package services – MessageService
//
// MessageService owns the send-message round trip: validate the prompt and
// language hint, check chat ownership, ask the Responder, persist the user
// and assistant messages atomically, auto-title a placeholder chat, and
// return the whole updated chat. The dashboard replaces its local copy with
// that chat.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/observability"
	"github.com/tbourn/retail-chat-dashboard/internal/repo"
)

// MessageService coordinates message persistence and replies.
type MessageService struct {
	DB        *gorm.DB
	Responder Responder

	MaxPromptRunes int
	MaxReplyRunes  int

	TitleLocale language.Tag
	TitleMaxLen int
	// TitleMaxWords caps generated titles by word count (default 6).
	TitleMaxWords int
}

// SendResult is the outcome of Send.
type SendResult struct {
	Chat      *domain.Chat
	Assistant *domain.Message
}

func (s *MessageService) tracer() trace.Tracer { return otel.Tracer("services/MessageService") }

// Send appends prompt and its reply to chatID and returns the updated chat.
func (s *MessageService) Send(ctx context.Context, userID, chatID, prompt, lang string) (*SendResult, error) {
	ctx, span := s.tracer().Start(ctx, "Send", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.String("user.id", userID),
	))
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("reply.language", lang))

	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}

	reply, err := s.Responder.Reply(ctx, prompt, lang, chat.Messages)
	if err != nil {
		return nil, err
	}
	observability.RepliesTotal.WithLabelValues(reply.Source).Inc()
	content := clipRunes(reply.Content, s.MaxReplyRunes)

	var assistant *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.CreateMessage(ctx, tx, chatID, domain.RoleUser, prompt, lang, nil); err != nil {
			return err
		}
		m, err := repo.CreateMessage(ctx, tx, chatID, domain.RoleAssistant, content, lang, reply.Score)
		if err != nil {
			return err
		}
		assistant = m

		if shouldAutoTitle(chat.Title) {
			if gen := s.titleFromPrompt(prompt); gen != "" {
				if err := repo.UpdateChatTitle(ctx, tx, chatID, userID, gen); err != nil {
					return err
				}
			}
		}
		return repo.TouchChat(ctx, tx, chatID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	updated, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		return nil, err
	}
	return &SendResult{Chat: updated, Assistant: assistant}, nil
}

// ListPage returns paginated messages for a chat owned by userID.
func (s *MessageService) ListPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	ctx, span := s.tracer().Start(ctx, "ListPage", trace.WithAttributes(
		attribute.String("chat.id", chatID),
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

	var owned int64
	if err := s.DB.WithContext(ctx).Model(&domain.Chat{}).
		Where("id = ? AND user_id = ?", chatID, userID).Count(&owned).Error; err != nil {
		return nil, 0, err
	}
	if owned == 0 {
		return nil, 0, ErrChatNotFound
	}

	total, err := repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, chatID, (page-1)*pageSize, pageSize)
	return items, total, err
}

func shouldAutoTitle(current string) bool {
	t := strings.ToLower(strings.TrimSpace(current))
	return t == "" || t == strings.ToLower(defaultTitleNew) || t == strings.ToLower(defaultTitleUntitled)
}

// titleFromPrompt title-cases the first few non-stop-words of the prompt.
func (s *MessageService) titleFromPrompt(prompt string) string {
	words := titleWordRE.FindAllString(strings.ToLower(prompt), -1)
	max := s.TitleMaxWords
	if max <= 0 {
		max = 6
	}
	loc := s.TitleLocale
	if loc == language.Und {
		loc = language.English
	}
	caser := cases.Title(loc)

	out := make([]string, 0, max)
	for _, w := range words {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= max {
			break
		}
	}
	limit := s.TitleMaxLen
	if limit <= 0 {
		limit = 60
	}
	return clipRunes(strings.Join(out, " "), limit)
}

var titleWordRE = regexp.MustCompile(`[\p{L}\p{M}]+[\p{N}]*|\p{N}+`)

var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "me": {},
	"give": {}, "what": {}, "how": {}, "which": {}, "should": {}, "i": {}, "my": {},
	"please": {}, "can": {}, "you": {},
}
