package dashboard

import (
	"errors"

	"github.com/tbourn/retail-chat-dashboard/internal/session"
)

var (
	// ErrUnauthenticated means the guard found no persisted login.
	ErrUnauthenticated = session.ErrUnauthenticated
	// ErrDisconnected is returned by mutating actions after a failed health probe.
	ErrDisconnected = errors.New("dashboard: gateway unreachable")
	// ErrEmptyMessage is returned for blank sends; no request is made.
	ErrEmptyMessage = errors.New("dashboard: message is empty")
	// ErrNoActiveChat is returned when a send names no chat and none is active.
	ErrNoActiveChat = errors.New("dashboard: no active chat")
	// ErrUnknownChat is returned for ids missing from the local collection.
	ErrUnknownChat = errors.New("dashboard: unknown chat")
	// ErrBusy is returned when the composer already has a send in flight.
	ErrBusy = errors.New("dashboard: send in progress")
	// ErrModalClosed is returned by festival actions when no modal is open.
	ErrModalClosed = errors.New("dashboard: festival modal is not open")
	// ErrFeatureDisabled is returned by actions of a disabled feature.
	ErrFeatureDisabled = errors.New("dashboard: feature disabled")
	// ErrUnsupportedLanguage is returned by Composer.SetLanguage.
	ErrUnsupportedLanguage = errors.New("dashboard: unsupported language")
)

// User-facing fallbacks when the gateway gives no message.
const (
	msgDisconnected   = "Cannot reach the sales assistant. Actions are disabled until you reload."
	msgCreateFailed   = "Failed to create a new chat."
	msgDeleteFailed   = "Failed to delete the chat."
	msgSendFailed     = "Failed to send message. Please try again."
	msgMailFailed     = "Failed to open the mail composer."
	msgRemindLater    = "We'll remind you about upcoming festivals next time."
	msgMailComposeURL = "Mail composer ready: "
	msgMailSent       = "Mail sent."
)
