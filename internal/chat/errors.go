package chat

import (
	"errors"
	"fmt"

	"github.com/iksnae/guidechat/internal/api"
)

// User-facing texts written into the conversation
const (
	msgSendFailed    = "An error occurred while sending the message."
	msgTaskFailed    = "Error: failed to generate a response."
	msgHistoryFailed = "Failed to load the previous conversation. Please start a new one."
	errorPrefix      = "Error: "
)

var (
	// ErrSkipped marks a send that was ignored without touching the log
	ErrSkipped = errors.New("message skipped")
	// ErrEmptyMessage is returned for empty or whitespace-only input
	ErrEmptyMessage = fmt.Errorf("%w: empty message", ErrSkipped)
	// ErrSendInFlight is returned while an earlier send is unresolved
	ErrSendInFlight = fmt.Errorf("%w: a message is already being processed", ErrSkipped)

	// ErrSessionNotFound means the server could not return the session history
	ErrSessionNotFound = errors.New("session not found")
	// ErrPollerClosed is returned by sends after the poller was closed
	ErrPollerClosed = errors.New("poller closed")
	// ErrTaskFailed means the server reported the task as failed
	ErrTaskFailed = errors.New("task failed")
)

// SessionError reports a session that could not be hydrated and was discarded
type SessionError struct {
	SessionID string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v: %v", e.SessionID, ErrSessionNotFound, e.Err)
}

func (e *SessionError) Unwrap() []error {
	return []error{ErrSessionNotFound, e.Err}
}

// ErrorText turns a send or poll failure into display text: the server's
// detail when present, else the error message, else a generic text.
func ErrorText(err error) string {
	if err == nil {
		return msgSendFailed
	}
	if detail := api.DetailOf(err); detail != "" {
		return detail
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgSendFailed
}
