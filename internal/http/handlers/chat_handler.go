// Package handlers implements the gateway's REST endpoints. Handlers are
// transport-thin: they bind and validate input, call a service, and map the
// result or sentinel error to a status code and the error envelope.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
	"github.com/tbourn/retail-chat-dashboard/internal/http/middleware"
	"github.com/tbourn/retail-chat-dashboard/internal/repo"
	"github.com/tbourn/retail-chat-dashboard/internal/services"
	"github.com/tbourn/retail-chat-dashboard/internal/utils"
)

// ChatService is the chat lifecycle used by the handlers.
type ChatService interface {
	Create(ctx context.Context, userID, title string) (*domain.Chat, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Chat, int64, error)
	Get(ctx context.Context, userID, chatID string) (*domain.Chat, error)
	UpdateTitle(ctx context.Context, userID, chatID, title string) error
	Delete(ctx context.Context, userID, chatID string) error
}

// MessageService sends prompts and lists chat history.
type MessageService interface {
	Send(ctx context.Context, userID, chatID, prompt, lang string) (*services.SendResult, error)
	ListPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error)
}

// FestivalService lists upcoming festivals.
type FestivalService interface {
	Upcoming(ctx context.Context, daysAhead int) ([]domain.Festival, error)
}

// MailService starts a mail for the user.
type MailService interface {
	Trigger(ctx context.Context, req services.MailRequest) (*services.MailResult, error)
}

// Deps wires the handlers. DB backs weak ETags and idempotency records and
// may be nil, which disables both.
type Deps struct {
	Chats     ChatService
	Messages  MessageService
	Festivals FestivalService
	Mail      MailService

	DB             *gorm.DB
	IdempotencyTTL time.Duration
	// MaxPromptRunes rejects oversized prompts before they reach a service.
	MaxPromptRunes int
}

// Handlers groups the endpoints.
type Handlers struct {
	Deps
}

// New returns Handlers for d, defaulting the idempotency TTL to 24h.
func New(d Deps) *Handlers {
	if d.IdempotencyTTL <= 0 {
		d.IdempotencyTTL = 24 * time.Hour
	}
	return &Handlers{Deps: d}
}

// CreateChatRequest is the optional body of POST /chats.
type CreateChatRequest struct {
	// Title defaults to "New chat" and is replaced by the first prompt.
	Title string `json:"title" example:"Diwali planning"`
}

// UpdateChatTitleRequest is the body of PUT /chats/{id}/title.
type UpdateChatTitleRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255" example:"Clearance ideas"`
}

// Pagination describes one page of a list.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages, HasNext: page < pages}
}

// ListChatsResponse is a page of chats with their messages.
type ListChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination Pagination    `json:"pagination"`
}

// clampPagination reads page and page_size (default 20, max 100).
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), 20, 100)
}

// chatIDParam validates the ":id" route parameter as a UUID.
func chatIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return "", false
	}
	return id, true
}

func weakETag(kind, scope string, count int64, latest *time.Time) string {
	var ts int64
	if latest != nil {
		ts = latest.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, scope, count, ts)
}

// CreateChat godoc
// @ID          createChat
// @Summary     Create a chat
// @Description Creates an empty chat. When the user already has the maximum number of chats the least recently updated one is deleted first.
// @Tags        Chats
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string                      false  "User ID"
// @Param       body       body    handlers.CreateChatRequest  false  "Optional title"
// @Success     201  {object}  domain.Chat
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats [post]
func (h *Handlers) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
	}
	ch, err := h.Chats.Create(c.Request.Context(), middleware.UserID(c), strings.TrimSpace(req.Title))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "Could not create a new chat.")
		return
	}
	ok(c, http.StatusCreated, ch)
}

// ListChats godoc
// @ID          listChats
// @Summary     List chats
// @Description Returns a page of the user's chats, newest first, each with its full message history. Supports If-None-Match.
// @Tags        Chats
// @Produce     json
// @Param       X-User-ID      header  string  false  "User ID"
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListChatsResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats [get]
func (h *Handlers) ListChats(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	page, pageSize := clampPagination(c)

	if h.DB != nil {
		if count, latest, err := repo.ChatsStats(ctx, h.DB, uid); err == nil {
			tag := weakETag("chats", fmt.Sprintf("%s:%d:%d", uid, page, pageSize), count, latest)
			if notModified(c, tag) {
				return
			}
		}
	}

	items, total, err := h.Chats.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Could not load chats.")
		return
	}
	ok(c, http.StatusOK, ListChatsResponse{Chats: items, Pagination: newPagination(page, pageSize, total)})
}

// DeleteChat godoc
// @ID          deleteChat
// @Summary     Delete a chat
// @Tags        Chats
// @Param       X-User-ID  header  string  false  "User ID"
// @Param       id         path    string  true   "Chat ID"  format(uuid)
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /chats/{id} [delete]
func (h *Handlers) DeleteChat(c *gin.Context) {
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	err := h.Chats.Delete(c.Request.Context(), middleware.UserID(c), chatID)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Chat not found.")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, "Could not delete the chat.")
	}
}

// UpdateChatTitle godoc
// @ID          updateChatTitle
// @Summary     Rename a chat
// @Tags        Chats
// @Accept      json
// @Param       X-User-ID  header  string                           false  "User ID"
// @Param       id         path    string                           true   "Chat ID"  format(uuid)
// @Param       body       body    handlers.UpdateChatTitleRequest  true   "New title"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /chats/{id}/title [put]
func (h *Handlers) UpdateChatTitle(c *gin.Context) {
	chatID, valid := chatIDParam(c)
	if !valid {
		return
	}
	var req UpdateChatTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}
	err := h.Chats.UpdateTitle(c.Request.Context(), middleware.UserID(c), chatID, req.Title)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Chat not found.")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Could not rename the chat.")
	}
}
