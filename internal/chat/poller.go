package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iksnae/guidechat/internal"
	"github.com/iksnae/guidechat/internal/api"
)

// TaskBackend submits messages and reports task state. *api.Client satisfies it.
type TaskBackend interface {
	SubmitMessage(ctx context.Context, message, sessionID string) (api.Submission, error)
	TaskResult(ctx context.Context, taskID string) (api.TaskResult, error)
}

// Poller sends messages and resolves their placeholders in the background.
// Every task it starts can be cancelled individually or all at once.
type Poller struct {
	sessions *Manager
	backend  TaskBackend
	strategy Strategy

	base   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	active map[*Task]struct{}
}

// NewPoller creates a poller. A nil strategy polls at DefaultInterval.
func NewPoller(sessions *Manager, backend TaskBackend, strategy Strategy) *Poller {
	if strategy == nil {
		strategy = DefaultInterval
	}
	base, stop := context.WithCancel(context.Background())
	return &Poller{
		sessions: sessions,
		backend:  backend,
		strategy: strategy,
		base:     base,
		stop:     stop,
		active:   make(map[*Task]struct{}),
	}
}

// Send appends text and its placeholder to the active session, submits it,
// and starts polling for the answer. It returns once the submission is
// accepted; the returned Task resolves the placeholder later.
//
// Empty input and sends while another is unresolved return an error wrapping
// ErrSkipped and leave the log untouched.
func (p *Poller) Send(ctx context.Context, text string) (*Task, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPollerClosed
	}

	ticket, err := p.sessions.beginSend(text)
	if err != nil {
		return nil, err
	}

	sub, err := p.backend.SubmitMessage(ctx, text, ticket.sessionID)
	if err != nil {
		internal.LogError("Error sending message: %v", err)
		p.sessions.submitFailed(ticket, ErrorText(err))
		return nil, fmt.Errorf("send message: %w", err)
	}
	internal.LogDebug("Submitted message for session %s as task %s", ticket.sessionID, sub.TaskID)

	ctx, cancel := context.WithCancel(p.base)
	task := newTask(sub.TaskID, ticket, cancel)

	p.mu.Lock()
	if p.closed {
		// closed while the submission was in flight
		p.mu.Unlock()
		cancel()
		p.cancelled(ctx, task)
		return task, nil
	}
	p.active[task] = struct{}{}
	p.wg.Add(1)
	p.mu.Unlock()

	go p.run(ctx, task)
	return task, nil
}

// Active returns the number of unsettled tasks
func (p *Poller) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// CancelAll cancels every unsettled task without waiting for them
func (p *Poller) CancelAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for task := range p.active {
		task.Cancel()
	}
}

// Close cancels every task and waits for their goroutines to exit. Sends
// after Close fail with ErrPollerClosed.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.stop()
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, task *Task) {
	defer func() {
		p.mu.Lock()
		delete(p.active, task)
		p.mu.Unlock()
		p.wg.Done()
	}()

	for attempt := 0; ; attempt++ {
		timer := time.NewTimer(p.strategy.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			p.cancelled(ctx, task)
			return
		case <-timer.C:
		}

		res, err := p.backend.TaskResult(ctx, task.ID)
		if err != nil {
			if ctx.Err() != nil {
				p.cancelled(ctx, task)
				return
			}
			internal.LogError("Polling task %s failed: %v", task.ID, err)
			text := ErrorText(err)
			answer := errorPrefix + text
			p.sessions.resolve(task.PlaceholderID, answer, text)
			task.settle(OutcomeErrored, answer, err)
			return
		}

		switch res.Status {
		case api.StatusSuccess:
			p.sessions.resolve(task.PlaceholderID, res.AIMessage, "")
			task.settle(OutcomeSucceeded, res.AIMessage, nil)
			return
		case api.StatusFailure:
			internal.LogWarn("Task %s failed: %s", task.ID, res.Detail)
			p.sessions.resolve(task.PlaceholderID, msgTaskFailed, "")
			var err error = ErrTaskFailed
			if res.Detail != "" {
				err = fmt.Errorf("%w: %s", ErrTaskFailed, res.Detail)
			}
			task.settle(OutcomeFailed, msgTaskFailed, err)
			return
		default:
			internal.LogDebug("Task %s is %s", task.ID, res.Status)
		}
	}
}

func (p *Poller) cancelled(ctx context.Context, task *Task) {
	internal.LogDebug("Stopped polling task %s", task.ID)
	p.sessions.abandon(task.PlaceholderID)
	task.settle(OutcomeCancelled, "", ctx.Err())
}
