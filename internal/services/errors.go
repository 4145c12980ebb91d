// Package services holds the gateway's business rules: chat lifecycle with a
// per-user history cap, answering prompts, festival lookups and mail
// triggers. This file centralizes service-level error values so handlers can
// map them to HTTP results consistently.
package services

import "errors"

var (
	// ErrChatNotFound indicates that the chat does not exist or is not owned
	// by the caller.
	ErrChatNotFound = errors.New("chat not found")

	// ErrEmptyPrompt is returned for a blank message.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a prompt exceeds the configured rune limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrUnsupportedLanguage is returned for a language hint outside en/ta/hi.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrInvalidWindow is returned for a festival look-ahead outside 0..366.
	ErrInvalidWindow = errors.New("days_ahead must be between 0 and 366")

	// ErrInvalidRecipient is returned for an unparsable mail recipient.
	ErrInvalidRecipient = errors.New("invalid recipient address")

	// ErrMailDelivery wraps a webhook failure.
	ErrMailDelivery = errors.New("mail delivery failed")
)
