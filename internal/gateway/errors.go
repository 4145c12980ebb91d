package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnexpectedResponse is returned when a 2xx body cannot be decoded.
	ErrUnexpectedResponse = errors.New("gateway: unexpected response")
	// ErrNotFound matches an APIError with status 404.
	ErrNotFound = errors.New("gateway: not found")
)

// APIError is a non-2xx response decoded from the gateway's error envelope.
// Message is safe to show to users.
type APIError struct {
	Status    int    `json:"-"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway: %d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// UserMessage returns the server message carried by err, or fallback when
// err is not an APIError or has no message.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
