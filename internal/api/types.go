package api

// Token is the login response
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Submission is returned when a chat message has been queued
type Submission struct {
	TaskID    string `json:"task_id"`
	SessionID string `json:"session_id,omitempty"`
}

// TaskStatus is the server-side state of a queued chat task
type TaskStatus string

const (
	StatusPending TaskStatus = "PENDING"
	StatusSuccess TaskStatus = "SUCCESS"
	StatusFailure TaskStatus = "FAILURE"
)

// Terminal reports whether polling can stop at this status. Anything other
// than SUCCESS or FAILURE (PENDING, STARTED, RETRY, ...) is still running.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// TaskResult is one poll response
type TaskResult struct {
	TaskID    string     `json:"task_id,omitempty"`
	Status    TaskStatus `json:"status"`
	AIMessage string     `json:"ai_message,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// HistoryTurn is one human/assistant exchange stored by the server
type HistoryTurn struct {
	HumanMessage string `json:"human_message"`
	AIMessage    string `json:"ai_message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}
