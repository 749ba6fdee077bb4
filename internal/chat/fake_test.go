package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iksnae/guidechat/internal/api"
	"github.com/iksnae/guidechat/internal/store"
)

// fakeBackend answers history, submission and poll calls from memory.
// results replays in order and repeats its last entry.
type fakeBackend struct {
	mu         sync.Mutex
	history    []api.HistoryTurn
	historyErr error
	taskID     string
	submitErr  error
	results    []api.TaskResult
	resultErr  error

	submitted []string
	sessions  []string
	polls     int
}

func (f *fakeBackend) History(ctx context.Context, sessionID string) ([]api.HistoryTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeBackend) SubmitMessage(ctx context.Context, message, sessionID string) (api.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, message)
	f.sessions = append(f.sessions, sessionID)
	if f.submitErr != nil {
		return api.Submission{}, f.submitErr
	}
	id := f.taskID
	if id == "" {
		id = "t1"
	}
	return api.Submission{TaskID: id, SessionID: sessionID}, nil
}

func (f *fakeBackend) TaskResult(ctx context.Context, taskID string) (api.TaskResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.resultErr != nil {
		return api.TaskResult{}, f.resultErr
	}
	if len(f.results) == 0 {
		return api.TaskResult{TaskID: taskID, Status: api.StatusPending}, nil
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res, nil
}

func (f *fakeBackend) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

func newKV(t *testing.T) *store.SQLite {
	t.Helper()
	kv, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func storedSessionID(t *testing.T, kv store.KV) (string, bool) {
	t.Helper()
	id, ok, err := kv.Get(store.KeySessionID)
	require.NoError(t, err)
	return id, ok
}
