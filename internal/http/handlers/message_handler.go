package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/http/middleware"
	"github.com/tbourn/retail-chat-dashboard/internal/repo"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
)

// PostMessageRequest is the body of POST /chats/{id}/messages.
type PostMessageRequest struct {
	Content string `json:"content" binding:"required" example:"Give me business strategies for Diwali"`
	// Language is a BCP-47 hint for the reply: en (default), ta or hi.
	Language string `json:"language,omitempty" example:"ta"`
}

// PostMessageResponse carries the whole updated chat; the client replaces
// its copy with it.
type PostMessageResponse struct {
	Chat    *domain.Chat    `json:"chat"`
	Message *domain.Message `json:"message,omitempty"`
}

// ListMessagesResponse is a page of one chat's messages.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes line endings, collapses runs of blank lines to
// one and trims the prompt.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message
// @Description Appends the prompt and an assistant reply, auto-titles a new chat and returns the whole updated chat.
// @Description A repeated Idempotency-Key returns the current chat without appending again.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string                       false  "User ID"
// @Param       Idempotency-Key  header  string                       false  "Key for safe retries"
// @Param       id               path    string                       true   "Chat ID"  format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true   "Prompt"
// @Success     200  {object}  handlers.PostMessageResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message content is required.")
		return
	}
	content := sanitizeContent(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message content is required.")
		return
	}
	if h.MaxPromptRunes > 0 && utf8.RuneCountInString(content) > h.MaxPromptRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("Message too long: max %d characters.", h.MaxPromptRunes))
		return
	}
	uid := middleware.UserID(c)

	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.DB != nil {
		if rec, err := repo.FindReplay(ctx, h.DB, uid, chatID, key, time.Now().UTC()); err == nil {
			if chat, err := h.Chats.Get(ctx, uid, chatID); err == nil {
				resp := PostMessageResponse{Chat: chat}
				if m, err := repo.GetMessage(ctx, h.DB, rec.MessageID); err == nil {
					resp.Message = m
				}
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, http.StatusOK, resp)
				return
			}
		}
	}

	res, err := h.Messages.Send(ctx, uid, chatID, content, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Chat not found.")
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message content is required.")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Message too long.")
		case errors.Is(err, services.ErrUnsupportedLanguage):
			fail(c, http.StatusBadRequest, ErrCodeUnsupportedLanguage, "Language must be one of en, ta, hi.")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnswerFailed, "Failed to send message. Please try again.")
		}
		return
	}

	if hasKey && h.DB != nil && res.Assistant != nil {
		_, err := repo.RecordReplay(ctx, h.DB, uid, chatID, key, res.Assistant.ID, http.StatusOK, h.IdempotencyTTL)
		if err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency key")
		}
	}
	ok(c, http.StatusOK, PostMessageResponse{Chat: res.Chat, Message: res.Assistant})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a chat
// @Description Returns messages in insertion order. Supports If-None-Match.
// @Tags        Messages
// @Produce     json
// @Param       X-User-ID  header  string  false  "User ID"
// @Param       id         path    string  true   "Chat ID"         format(uuid)
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	items, total, err := h.Messages.ListPage(ctx, uid, chatID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "Chat not found.")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Could not load messages.")
		return
	}
	if h.DB != nil {
		if count, latest, err := repo.MessagesStats(ctx, h.DB, chatID); err == nil {
			if notModified(c, weakETag("messages", fmt.Sprintf("%s:%d:%d", chatID, page, pageSize), count, latest)) {
				return
			}
		}
	}
	ok(c, http.StatusOK, ListMessagesResponse{Messages: items, Pagination: newPagination(page, pageSize, total)})
}
