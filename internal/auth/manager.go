// Package auth owns the bearer credential: acquiring it, persisting it,
// detecting expiry and forcing logout.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/api"
	"github.com/iksnae/guidechat/internal/store"
)

// User-facing messages
const (
	msgLoginFailed       = "An unexpected error occurred while logging in. Please try again."
	msgLoginRejected     = "Incorrect username or password."
	msgRegisterFailed    = "Registration failed. The username may already be in use."
	msgRegisterSucceeded = "Registration complete. Please log in."
)

// Gateway performs the credential exchanges. *api.Client satisfies it.
type Gateway interface {
	Login(ctx context.Context, username, password string) (api.Token, error)
	Register(ctx context.Context, username, password string) error
}

// Listener is the routing collaborator: it decides which surface to show.
type Listener interface {
	AuthChanged(authenticated bool)
	UnauthenticatedAccess()
}

// ListenerFuncs adapts plain functions to Listener; nil fields are skipped.
type ListenerFuncs struct {
	OnAuthChanged           func(authenticated bool)
	OnUnauthenticatedAccess func()
}

func (l ListenerFuncs) AuthChanged(authenticated bool) {
	if l.OnAuthChanged != nil {
		l.OnAuthChanged(authenticated)
	}
}

func (l ListenerFuncs) UnauthenticatedAccess() {
	if l.OnUnauthenticatedAccess != nil {
		l.OnUnauthenticatedAccess()
	}
}

// Manager holds the credential. The in-memory value is loaded lazily from the
// store and written through on every change.
type Manager struct {
	kv  store.KV
	gw  Gateway
	now func() time.Time

	mu        sync.Mutex
	loaded    bool
	token     string
	busy      bool
	lastErr   string
	notice    string
	listeners []Listener
}

// NewManager creates a manager persisting to kv and exchanging through gw
func NewManager(kv store.KV, gw Gateway) *Manager {
	return &Manager{kv: kv, gw: gw, now: time.Now}
}

// Subscribe registers l for auth events
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Manager) snapshotListeners() []Listener {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Listener(nil), m.listeners...)
}

func (m *Manager) loadLocked() {
	if m.loaded {
		return
	}
	m.loaded = true
	token, ok, err := m.kv.Get(store.KeyAccessToken)
	if err != nil {
		internal.LogError("Failed to read stored credential: %v", err)
		return
	}
	if ok {
		m.token = token
	}
}

// Credential returns the current token, or "" when logged out
func (m *Manager) Credential() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadLocked()
	return m.token
}

// SetCredential replaces the token in memory and in the store. When the store
// write fails the in-memory value still applies for this process.
func (m *Manager) SetCredential(token string) error {
	m.mu.Lock()
	m.loaded = true
	m.token = token
	m.mu.Unlock()

	if err := m.kv.Set(store.KeyAccessToken, token); err != nil {
		internal.LogError("Failed to persist credential: %v", err)
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a credential is held. Expiry is not checked.
func (m *Manager) IsAuthenticated() bool {
	return m.Credential() != ""
}

// Claims decodes the held credential
func (m *Manager) Claims() (Claims, error) {
	token := m.Credential()
	if token == "" {
		return Claims{}, ErrUnauthenticated
	}
	claims, err := decodeClaims(token)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrCredentialMalformed, err)
	}
	return claims, nil
}

// CheckExpiry logs out when the held credential cannot be decoded or has
// expired. The returned error says why; nil means the credential is usable
// or absent.
func (m *Manager) CheckExpiry() error {
	if !m.IsAuthenticated() {
		return nil
	}

	claims, err := m.Claims()
	if err != nil {
		internal.LogWarn("Stored credential could not be decoded, logging out: %v", err)
		m.Logout()
		return err
	}
	if !claims.Expiry.After(m.now()) {
		internal.LogInfo("Credential expired at %s, logging out", claims.Expiry.Format(time.RFC3339))
		m.Logout()
		return ErrCredentialExpired
	}
	return nil
}

// Logout clears the credential and the active session id. Calling it while
// logged out only re-clears the store and emits no event.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.loadLocked()
	wasAuthenticated := m.token != ""
	m.token = ""
	m.mu.Unlock()

	if err := m.kv.Delete(store.KeyAccessToken, store.KeySessionID); err != nil {
		internal.LogError("Failed to clear stored credential: %v", err)
	}

	if !wasAuthenticated {
		return
	}
	internal.LogDebug("Logged out")
	for _, l := range m.snapshotListeners() {
		l.AuthChanged(false)
	}
}

// RequireAuth guards operations that need a credential
func (m *Manager) RequireAuth() error {
	if m.IsAuthenticated() {
		return nil
	}
	for _, l := range m.snapshotListeners() {
		l.UnauthenticatedAccess()
	}
	return ErrUnauthenticated
}

func (m *Manager) begin() {
	m.mu.Lock()
	m.busy = true
	m.lastErr = ""
	m.notice = ""
	m.mu.Unlock()
}

func (m *Manager) finish(errMsg, notice string) {
	m.mu.Lock()
	m.busy = false
	m.lastErr = errMsg
	m.notice = notice
	m.mu.Unlock()
}

// Login exchanges username and password for a credential. Failures are
// returned as *Failure with a message safe to display.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	m.begin()

	tok, err := m.gw.Login(ctx, username, password)
	if err != nil {
		internal.LogError("Login failed: %v", err)
		msg := msgLoginFailed
		if api.IsUnauthorized(err) {
			msg = msgLoginRejected
		}
		m.finish(msg, "")
		return &Failure{Kind: FailureLogin, Message: msg}
	}

	if err := m.SetCredential(tok.AccessToken); err != nil {
		internal.LogWarn("Logged in for this run only: %v", err)
	}
	m.finish("", "")

	for _, l := range m.snapshotListeners() {
		l.AuthChanged(true)
	}
	return nil
}

// Register creates an account. The server's detail message is surfaced when
// it sends one.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	m.begin()

	if err := m.gw.Register(ctx, username, password); err != nil {
		internal.LogError("Registration failed: %v", err)
		msg := api.DetailOf(err)
		if msg == "" {
			msg = msgRegisterFailed
		}
		m.finish(msg, "")
		return &Failure{Kind: FailureRegistration, Message: msg}
	}

	m.finish("", msgRegisterSucceeded)
	return nil
}

// Busy reports whether a login or registration is in progress
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// LastError returns the message of the last failed exchange
func (m *Manager) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Notice returns the message of the last successful registration
func (m *Manager) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}
