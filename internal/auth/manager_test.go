package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/guidechat/internal/api"
	"github.com/iksnae/guidechat/internal/store"
	"github.com/iksnae/guidechat/testutil"
)

type fakeGateway struct {
	token       string
	loginErr    error
	registerErr error
	logins      int
}

func (g *fakeGateway) Login(ctx context.Context, username, password string) (api.Token, error) {
	g.logins++
	if g.loginErr != nil {
		return api.Token{}, g.loginErr
	}
	return api.Token{AccessToken: g.token, TokenType: "bearer"}, nil
}

func (g *fakeGateway) Register(ctx context.Context, username, password string) error {
	return g.registerErr
}

// failingKV rejects writes but serves reads from a map
type failingKV struct {
	values map[string]string
}

func (f *failingKV) Get(key string) (string, bool, error) {
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *failingKV) Set(key, value string) error {
	return errors.New("disk full")
}

func (f *failingKV) Delete(keys ...string) error {
	return errors.New("disk full")
}

type recordingListener struct {
	changes      []bool
	unauthAccess int
}

func (r *recordingListener) AuthChanged(authenticated bool) {
	r.changes = append(r.changes, authenticated)
}

func (r *recordingListener) UnauthenticatedAccess() {
	r.unauthAccess++
}

func newTestManager(t *testing.T, gw Gateway) (*Manager, *store.SQLite, *recordingListener) {
	t.Helper()
	kv, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	m := NewManager(kv, gw)
	l := &recordingListener{}
	m.Subscribe(l)
	return m, kv, l
}

func TestManager_LazyLoadFromStore(t *testing.T) {
	m, kv, _ := newTestManager(t, &fakeGateway{})
	require.NoError(t, kv.Set(store.KeyAccessToken, "persisted"))

	assert.Equal(t, "persisted", m.Credential())
	assert.True(t, m.IsAuthenticated())
}

func TestManager_SetCredentialWritesThrough(t *testing.T) {
	m, kv, _ := newTestManager(t, &fakeGateway{})

	require.NoError(t, m.SetCredential("abc"))

	got, ok, err := kv.Get(store.KeyAccessToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", got)
	assert.Equal(t, "abc", m.Credential())
}

func TestManager_SetCredentialStoreFailureKeepsMemory(t *testing.T) {
	m := NewManager(&failingKV{values: map[string]string{}}, &fakeGateway{})

	err := m.SetCredential("abc")
	require.Error(t, err)
	assert.Equal(t, "abc", m.Credential())
	assert.True(t, m.IsAuthenticated())
}

func TestManager_LogoutIsIdempotent(t *testing.T) {
	m, kv, l := newTestManager(t, &fakeGateway{})
	require.NoError(t, m.SetCredential("abc"))
	require.NoError(t, kv.Set(store.KeySessionID, "s1"))

	for i := 0; i < 2; i++ {
		m.Logout()

		assert.False(t, m.IsAuthenticated())
		for _, key := range []string{store.KeyAccessToken, store.KeySessionID} {
			_, ok, err := kv.Get(key)
			require.NoError(t, err)
			assert.False(t, ok, "%s still stored after logout %d", key, i+1)
		}
	}
	assert.Equal(t, []bool{false}, l.changes, "only the first logout is a transition")
}

func TestManager_CheckExpiry(t *testing.T) {
	tests := []struct {
		name       string
		token      func(t *testing.T) string
		wantErr    error
		wantLogout bool
	}{
		{
			name:       "valid",
			token:      testutil.ValidToken,
			wantErr:    nil,
			wantLogout: false,
		},
		{
			name:       "expired",
			token:      testutil.ExpiredToken,
			wantErr:    ErrCredentialExpired,
			wantLogout: true,
		},
		{
			name:       "expires exactly now",
			token:      func(t *testing.T) string { return testutil.MintToken(t, "alice", time.Unix(1_700_000_000, 0)) },
			wantErr:    ErrCredentialExpired,
			wantLogout: true,
		},
		{
			name:       "malformed",
			token:      func(t *testing.T) string { return "not-a-jwt" },
			wantErr:    ErrCredentialMalformed,
			wantLogout: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, l := newTestManager(t, &fakeGateway{})
			m.now = func() time.Time {
				if tt.name == "expires exactly now" {
					return time.Unix(1_700_000_000, 0)
				}
				return time.Now()
			}
			require.NoError(t, m.SetCredential(tt.token(t)))

			err := m.CheckExpiry()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, !tt.wantLogout, m.IsAuthenticated())
			if tt.wantLogout {
				assert.Equal(t, []bool{false}, l.changes)
			}
		})
	}
}

func TestManager_CheckExpiryWithoutCredential(t *testing.T) {
	m, _, l := newTestManager(t, &fakeGateway{})

	assert.NoError(t, m.CheckExpiry())
	assert.Empty(t, l.changes)
}

func TestManager_Claims(t *testing.T) {
	m, _, _ := newTestManager(t, &fakeGateway{})

	_, err := m.Claims()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, m.SetCredential(testutil.MintToken(t, "bob", exp)))
	claims, err := m.Claims()
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.True(t, claims.Expiry.Equal(exp))
}

func TestManager_LoginSuccess(t *testing.T) {
	token := testutil.ValidToken(t)
	m, kv, l := newTestManager(t, &fakeGateway{token: token})

	require.NoError(t, m.Login(context.Background(), "alice", "pw"))

	assert.Equal(t, token, m.Credential())
	stored, _, _ := kv.Get(store.KeyAccessToken)
	assert.Equal(t, token, stored)
	assert.Equal(t, []bool{true}, l.changes)
	assert.False(t, m.Busy())
	assert.Empty(t, m.LastError())
}

func TestManager_LoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "network failure is not leaked",
			err:     &api.Error{Method: "POST", Path: "/auth/login", Err: errors.New("dial tcp 10.0.0.1:8000: connection refused")},
			wantMsg: msgLoginFailed,
		},
		{
			name:    "bad credentials",
			err:     &api.Error{Method: "POST", Path: "/auth/login", Status: http.StatusUnauthorized, Detail: "Incorrect"},
			wantMsg: msgLoginRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, l := newTestManager(t, &fakeGateway{loginErr: tt.err})

			err := m.Login(context.Background(), "alice", "pw")
			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, FailureLogin, failure.Kind)
			assert.Equal(t, tt.wantMsg, failure.Message)
			assert.NotContains(t, err.Error(), "connection refused")
			assert.False(t, errors.Is(err, tt.err), "cause must not be exposed")

			assert.Equal(t, tt.wantMsg, m.LastError())
			assert.False(t, m.IsAuthenticated())
			assert.Empty(t, l.changes)
		})
	}
}

func TestManager_Register(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantErr    bool
		wantMsg    string
		wantNotice string
	}{
		{
			name:       "success",
			wantNotice: msgRegisterSucceeded,
		},
		{
			name:    "server detail",
			err:     &api.Error{Status: http.StatusBadRequest, Detail: "This username is already taken."},
			wantErr: true,
			wantMsg: "This username is already taken.",
		},
		{
			name:    "generic",
			err:     &api.Error{Err: errors.New("timeout")},
			wantErr: true,
			wantMsg: msgRegisterFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t, &fakeGateway{registerErr: tt.err})

			err := m.Register(context.Background(), "alice", "pw")
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.wantNotice, m.Notice())
				assert.False(t, m.IsAuthenticated(), "registration does not log in")
				return
			}
			var failure *Failure
			require.True(t, errors.As(err, &failure))
			assert.Equal(t, FailureRegistration, failure.Kind)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.wantMsg, m.LastError())
		})
	}
}

func TestManager_RequireAuth(t *testing.T) {
	m, _, l := newTestManager(t, &fakeGateway{})

	assert.ErrorIs(t, m.RequireAuth(), ErrUnauthenticated)
	assert.Equal(t, 1, l.unauthAccess)

	require.NoError(t, m.SetCredential("abc"))
	assert.NoError(t, m.RequireAuth())
	assert.Equal(t, 1, l.unauthAccess)
}

func TestManager_TransportRejectionLogsOut(t *testing.T) {
	srv := testutil.NewFakeAPI(t)
	srv.Reply(http.MethodGet, "/chat/history/s1", testutil.Response{Status: http.StatusUnauthorized})

	client := api.NewClient(srv.URL, 0)
	m, _, l := newTestManager(t, client)
	client.SetCredentials(m)

	// unauthenticated: no logout transition
	_, err := client.History(context.Background(), "s1")
	require.True(t, api.IsUnauthorized(err))
	assert.Empty(t, l.changes)

	require.NoError(t, m.SetCredential(testutil.ValidToken(t)))
	_, err = client.History(context.Background(), "s1")
	require.True(t, api.IsUnauthorized(err))
	assert.Equal(t, []bool{false}, l.changes, "exactly one logout")
	assert.False(t, m.IsAuthenticated())
}
