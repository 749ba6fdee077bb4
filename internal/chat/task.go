package chat

import (
	"context"
	"sync"
	"time"
)

// Strategy decides how long to wait before each poll
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Interval polls at a fixed period
type Interval time.Duration

// DefaultInterval is the period between result queries
const DefaultInterval = Interval(2 * time.Second)

func (i Interval) Delay(int) time.Duration {
	return time.Duration(i)
}

// Outcome is how a task ended
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeErrored
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeErrored:
		return "errored"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Task is the poll loop of one submitted message. It settles exactly once.
type Task struct {
	ID            string
	SessionID     string
	PlaceholderID string

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
	answer  string
	err     error
}

func newTask(id string, t sendTicket, cancel context.CancelFunc) *Task {
	return &Task{
		ID:            id,
		SessionID:     t.sessionID,
		PlaceholderID: t.placeholderID,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

// Cancel stops polling. The placeholder is left pending. It never blocks.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task has settled
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the outcome, the answer text written into the placeholder
// and the error, if any. Before Done it reports OutcomePending.
func (t *Task) Result() (Outcome, string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome, t.answer, t.err
}

// Wait blocks until the task settles or ctx ends. The error is ctx's only;
// how the task itself went wrong is reported by Result.
func (t *Task) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		outcome, _, _ := t.Result()
		return outcome, nil
	case <-ctx.Done():
		return OutcomePending, ctx.Err()
	}
}

func (t *Task) settle(outcome Outcome, answer string, err error) {
	t.mu.Lock()
	t.outcome = outcome
	t.answer = answer
	t.err = err
	t.mu.Unlock()
	close(t.done)
}
