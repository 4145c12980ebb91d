// Package gateway is the dashboard's HTTP client for the Backend Gateway:
// health, chat CRUD, the send-message round trip, festivals and mail.
//
// Every request carries the configured user id and the caller's trace
// context. Non-2xx responses are returned as *APIError.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/retail-chat-dashboard/internal/domain"
)

// Headers understood by the gateway.
const (
	HeaderUserID         = "X-User-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

const listPageSize = 100

// MailRequest asks the gateway to start a mail.
type MailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailResult reports whether the gateway relayed the mail and where the user
// can compose it.
type MailResult struct {
	Status     string `json:"status"`
	ComposeURL string `json:"compose_url"`
}

type pagination struct {
	Page    int  `json:"page"`
	HasNext bool `json:"has_next"`
}

type listChatsResponse struct {
	Chats      []domain.Chat `json:"chats"`
	Pagination pagination    `json:"pagination"`
}

type postMessageRequest struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
}

type postMessageResponse struct {
	Chat *domain.Chat `json:"chat"`
}

type festivalsResponse struct {
	Festivals []domain.Festival `json:"festivals"`
}

// Client talks to one gateway base URL (for example
// http://localhost:8080/api/v1).
type Client struct {
	baseURL       string
	http          *http.Client
	userID        string
	healthTimeout time.Duration
	newKey        func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithUserID sets the X-User-ID sent with every request.
func WithUserID(id string) Option { return func(c *Client) { c.userID = id } }

// WithHealthTimeout bounds Health independently of the request timeout.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.healthTimeout = d
		}
	}
}

// WithIdempotencyKeys overrides the key generator used by SendMessage.
func WithIdempotencyKeys(fn func() string) Option { return func(c *Client) { c.newKey = fn } }

// New returns a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          &http.Client{Timeout: 60 * time.Second},
		healthTimeout: 5 * time.Second,
		newKey:        uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) tracer() trace.Tracer { return otel.Tracer("gateway/Client") }

// Health reports whether GET /health answers 2xx within the health timeout.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil) == nil
}

// ListChats returns every chat of the user, walking all pages.
func (c *Client) ListChats(ctx context.Context) ([]domain.Chat, error) {
	out := []domain.Chat{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("page_size", strconv.Itoa(listPageSize))

		var resp listChatsResponse
		if err := c.do(ctx, http.MethodGet, "/chats?"+q.Encode(), nil, nil, &resp); err != nil {
			return nil, err
		}
		out = append(out, resp.Chats...)
		if !resp.Pagination.HasNext || len(resp.Chats) == 0 {
			return out, nil
		}
	}
}

// CreateChat creates an empty chat.
func (c *Client) CreateChat(ctx context.Context) (*domain.Chat, error) {
	var chat domain.Chat
	if err := c.do(ctx, http.MethodPost, "/chats", nil, nil, &chat); err != nil {
		return nil, err
	}
	if chat.ID == "" {
		return nil, fmt.Errorf("%w: chat without id", ErrUnexpectedResponse)
	}
	if chat.Messages == nil {
		chat.Messages = []domain.Message{}
	}
	return &chat, nil
}

// DeleteChat deletes chat id.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/chats/"+url.PathEscape(id), nil, nil, nil)
}

// SendMessage posts text to chat id and returns the whole updated chat. Each
// call carries a fresh Idempotency-Key.
func (c *Client) SendMessage(ctx context.Context, id, text, lang string) (*domain.Chat, error) {
	hdr := http.Header{}
	hdr.Set(HeaderIdempotencyKey, c.newKey())

	var resp postMessageResponse
	err := c.do(ctx, http.MethodPost, "/chats/"+url.PathEscape(id)+"/messages",
		postMessageRequest{Content: text, Language: lang}, hdr, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Chat == nil || resp.Chat.ID == "" {
		return nil, fmt.Errorf("%w: send returned no chat", ErrUnexpectedResponse)
	}
	return resp.Chat, nil
}

// ListFestivals returns upcoming festivals in the gateway's default window.
func (c *Client) ListFestivals(ctx context.Context) ([]domain.Festival, error) {
	var resp festivalsResponse
	if err := c.do(ctx, http.MethodGet, "/festivals", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Festivals == nil {
		resp.Festivals = []domain.Festival{}
	}
	return resp.Festivals, nil
}

// TriggerMail asks the gateway to relay a mail and returns the compose link.
func (c *Client) TriggerMail(ctx context.Context, req MailRequest) (*MailResult, error) {
	var res MailResult
	if err := c.do(ctx, http.MethodPost, "/mail", req, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// do sends one request. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, in any, hdr http.Header, out any) error {
	ctx, span := c.tracer().Start(ctx, method+" "+routeOf(path), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("gateway: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(HeaderUserID, c.userID)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return fmt.Errorf("gateway: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
		}
		span.SetStatus(codes.Error, apiErr.Code)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

// routeOf drops ids and the query from path for span names.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if _, err := uuid.Parse(p); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
