package chat

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the conversation log. A pending assistant message
// is a placeholder whose content arrives later.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Pending   bool      `json:"pending,omitempty" yaml:"pending,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// State is the session lifecycle state
type State int

const (
	StateNoSession State = iota
	StateHydrating
	StateReady
	StateSendInFlight
)

func (s State) String() string {
	switch s {
	case StateHydrating:
		return "hydrating"
	case StateReady:
		return "ready"
	case StateSendInFlight:
		return "send-in-flight"
	default:
		return "no-session"
	}
}

// Session is a point-in-time copy of the conversation
type Session struct {
	ID       string    `json:"id" yaml:"id"`
	State    State     `json:"-" yaml:"-"`
	Loading  bool      `json:"-" yaml:"-"`
	Error    string    `json:"error,omitempty" yaml:"error,omitempty"`
	Messages []Message `json:"messages" yaml:"messages"`
}
