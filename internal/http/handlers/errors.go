package handlers

// Stable error codes carried in ErrorResponse.Code. Clients branch on the
// code; the message is what the dashboard shows in its error toast.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeUnsupportedLanguage = "unsupported_language"
	ErrCodeAnswerFailed        = "answer_failed"
	ErrCodeCreateFailed        = "create_failed"
	ErrCodeDeleteFailed        = "delete_failed"
	ErrCodeListFailed          = "list_failed"
	ErrCodeMailFailed          = "mail_failed"
)
