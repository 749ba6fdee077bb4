package cmd

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/guidechat/internal/auth"
	"github.com/iksnae/guidechat/internal/store"
	"github.com/iksnae/guidechat/testutil"
)

func TestHistoryCommand(t *testing.T) {
	c := newCLI(t)
	c.loggedIn()
	c.seed(store.KeySessionID, "S")
	c.srv.Reply(http.MethodGet, "/chat/history/S", testutil.Response{
		Body: []map[string]string{
			{"human_message": "first question", "ai_message": "first answer"},
			{"human_message": "second question", "ai_message": "second answer"},
		},
	})

	res := c.run("", "history")

	require.NoError(t, res.err)
	for _, want := range []string{"S", "Messages: 4", "first question", "first answer", "second question", "second answer", "[4/4]"} {
		assert.Contains(t, res.out, want)
	}

	res = c.run("", "history", "-n", "1")
	require.NoError(t, res.err)
	assert.NotContains(t, res.out, "first question")
	assert.Contains(t, res.out, "second answer")
}

func TestHistoryCommand_LoadFailureDiscardsSession(t *testing.T) {
	c := newCLI(t)
	c.loggedIn()
	c.seed(store.KeySessionID, "gone")

	res := c.run("", "history")

	require.NoError(t, res.err)
	assert.Contains(t, res.errs, "Failed to load the previous conversation")
	assert.Contains(t, res.notice, "No active conversation")
	_, ok := c.stored(store.KeySessionID)
	assert.False(t, ok)
	_, ok = c.stored(store.KeyAccessToken)
	assert.True(t, ok, "a missing session does not log out")
}

func TestHistoryCommand_NoSession(t *testing.T) {
	c := newCLI(t)
	c.loggedIn()

	res := c.run("", "history")

	require.NoError(t, res.err)
	assert.Contains(t, res.notice, "No active conversation")
	assert.Empty(t, c.srv.Requests())
}

func TestNewCommand(t *testing.T) {
	c := newCLI(t)
	c.loggedIn()
	c.seed(store.KeySessionID, "old")

	res := c.run("", "new")

	require.NoError(t, res.err)
	assert.Contains(t, res.notice, "Started a new conversation.")
	sid, ok := c.stored(store.KeySessionID)
	require.True(t, ok)
	assert.NotEqual(t, "old", sid)
	_, err := uuid.Parse(sid)
	assert.NoError(t, err)
	assert.Empty(t, c.srv.Requests(), "new does not contact the service")
}

func TestNewCommand_RequiresLogin(t *testing.T) {
	c := newCLI(t)
	res := c.run("", "new")
	assert.ErrorIs(t, res.err, auth.ErrUnauthenticated)
}
