// Package chat keeps the conversation log for the active session and drives
// the submit, poll, resolve cycle of each outgoing message.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/api"
	"github.com/iksnae/guidechat/internal/store"
)

// HistorySource returns the stored turns of a session. *api.Client satisfies it.
type HistorySource interface {
	History(ctx context.Context, sessionID string) ([]api.HistoryTurn, error)
}

// Manager owns the active session id and its message log. Poll goroutines
// resolve placeholders concurrently, so all state sits behind mu.
type Manager struct {
	kv      store.KV
	history HistorySource
	newID   func() string
	now     func() time.Time

	mu        sync.Mutex
	sessionID string
	messages  []Message
	loading   bool
	hydrating bool
	inflight  string // placeholder id of the unresolved send
	errMsg    string
}

// NewManager creates a manager resuming the session id persisted in kv
func NewManager(kv store.KV, history HistorySource) *Manager {
	m := &Manager{
		kv:      kv,
		history: history,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	id, ok, err := kv.Get(store.KeySessionID)
	if err != nil {
		internal.LogError("Failed to read stored session id: %v", err)
	} else if ok {
		m.sessionID = id
	}
	return m
}

// SessionID returns the active session id, "" when there is none
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// State returns the lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() State {
	switch {
	case m.hydrating:
		return StateHydrating
	case m.sessionID == "":
		return StateNoSession
	case m.loading:
		return StateSendInFlight
	default:
		return StateReady
	}
}

// Loading reports whether a hydration or send is outstanding
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Error returns the last session-level error message
func (m *Manager) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

// Messages returns a copy of the log
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Snapshot returns a copy of the whole session
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Session{
		ID:       m.sessionID,
		State:    m.stateLocked(),
		Loading:  m.loading,
		Error:    m.errMsg,
		Messages: append([]Message(nil), m.messages...),
	}
}

// Init hydrates the persisted session, if any
func (m *Manager) Init(ctx context.Context) error {
	if m.SessionID() == "" {
		return nil
	}
	return m.LoadHistory(ctx)
}

// LoadHistory replaces the log with the server's history of the active
// session. On failure the session is discarded so the conversation restarts
// blank, and a *SessionError is returned.
func (m *Manager) LoadHistory(ctx context.Context) error {
	m.mu.Lock()
	sid := m.sessionID
	if sid == "" {
		m.mu.Unlock()
		return nil
	}
	m.hydrating = true
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	turns, err := m.history.History(ctx, sid)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID != sid {
		// a new session was started meanwhile; the result is stale
		return nil
	}
	m.hydrating = false
	m.loading = false

	if err != nil {
		internal.LogError("Failed to load history for session %s: %v", sid, err)
		m.sessionID = ""
		m.messages = nil
		m.inflight = ""
		m.errMsg = msgHistoryFailed
		if delErr := m.kv.Delete(store.KeySessionID); delErr != nil {
			internal.LogError("Failed to clear stored session id: %v", delErr)
		}
		return &SessionError{SessionID: sid, Err: err}
	}

	now := m.now()
	messages := make([]Message, 0, len(turns)*2)
	for _, turn := range turns {
		messages = append(messages,
			Message{ID: m.newID(), Role: RoleUser, Content: turn.HumanMessage, CreatedAt: now},
			Message{ID: m.newID(), Role: RoleAssistant, Content: turn.AIMessage, CreatedAt: now},
		)
	}
	m.messages = messages
	internal.LogDebug("Loaded %d turns for session %s", len(turns), sid)
	return nil
}

// StartNew begins a blank conversation under a fresh id. The id applies even
// when persisting it fails; the error is returned for reporting.
func (m *Manager) StartNew() (string, error) {
	id := m.newID()

	m.mu.Lock()
	m.resetLocked(id)
	m.mu.Unlock()

	return id, m.persistSessionID(id)
}

// Reset forgets the session in memory only. The durable id is cleared by
// logout itself.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.resetLocked("")
	m.mu.Unlock()
}

func (m *Manager) resetLocked(id string) {
	m.sessionID = id
	m.messages = nil
	m.loading = false
	m.hydrating = false
	m.inflight = ""
	m.errMsg = ""
}

func (m *Manager) persistSessionID(id string) error {
	if err := m.kv.Set(store.KeySessionID, id); err != nil {
		internal.LogError("Failed to persist session id: %v", err)
		return err
	}
	return nil
}

// sendTicket identifies one accepted send
type sendTicket struct {
	sessionID     string
	placeholderID string
}

// beginSend appends the user message and its placeholder, creating a session
// when none exists.
func (m *Manager) beginSend(text string) (sendTicket, error) {
	if strings.TrimSpace(text) == "" {
		return sendTicket{}, ErrEmptyMessage
	}

	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return sendTicket{}, ErrSendInFlight
	}

	created := ""
	if m.sessionID == "" {
		created = m.newID()
		m.resetLocked(created)
	}

	now := m.now()
	user := Message{ID: m.newID(), Role: RoleUser, Content: text, CreatedAt: now}
	placeholder := Message{ID: m.newID(), Role: RoleAssistant, Pending: true, CreatedAt: now}
	m.messages = append(m.messages, user, placeholder)
	m.loading = true
	m.inflight = placeholder.ID
	m.errMsg = ""
	ticket := sendTicket{sessionID: m.sessionID, placeholderID: placeholder.ID}
	m.mu.Unlock()

	if created != "" {
		_ = m.persistSessionID(created)
	}
	return ticket, nil
}

// submitFailed records a rejected submission. The placeholder stays pending.
func (m *Manager) submitFailed(t sendTicket, errText string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == t.sessionID {
		m.messages = append(m.messages, Message{
			ID:        m.newID(),
			Role:      RoleSystem,
			Content:   msgSendFailed,
			CreatedAt: m.now(),
		})
		m.errMsg = errText
	}
	m.endSendLocked(t.placeholderID)
}

// resolve fills a pending placeholder. It reports false when the placeholder
// is gone or already resolved, in which case nothing changes.
func (m *Manager) resolve(placeholderID, content, errText string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endSendLocked(placeholderID)

	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ID != placeholderID {
			continue
		}
		if !msg.Pending {
			return false
		}
		msg.Content = content
		msg.Pending = false
		if errText != "" {
			m.errMsg = errText
		}
		return true
	}
	return false
}

// abandon ends a send without resolving its placeholder
func (m *Manager) abandon(placeholderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endSendLocked(placeholderID)
}

func (m *Manager) endSendLocked(placeholderID string) {
	if m.inflight == placeholderID {
		m.inflight = ""
		m.loading = false
	}
}
