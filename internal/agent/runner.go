package agent

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/motivehq/browserd/internal/engine"
	"github.com/motivehq/browserd/internal/protocol"
)

const (
	// startGrace is how long task start waits before reporting "running",
	// so quick tasks and immediate questions answer synchronously.
	startGrace = 2 * time.Second
	// continueGrace is the same wait after delivering a user answer.
	continueGrace = 5 * time.Second
)

// Runner owns the single in-flight task and its state machine. All state is
// guarded by mu; the task itself runs on its own goroutine and rendezvouses
// with user answers through answerCh.
type Runner struct {
	eng         engine.Engine
	logger      *log.Logger
	newProvider func(model string) (Provider, error)

	mu       sync.Mutex
	taskID   string
	task     string
	state    string
	pending  *Question
	answerCh chan string
	outcome  *Outcome
	errText  string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewRunner builds a Runner over the given engine.
func NewRunner(eng engine.Engine, logger *log.Logger) *Runner {
	return &Runner{
		eng:         eng,
		logger:      logger,
		newProvider: NewProvider,
		state:       protocol.StatusIdle,
	}
}

// Busy reports whether a task is in flight, including while suspended on a
// question.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inFlight()
}

// inFlight must be called with mu held.
func (r *Runner) inFlight() bool {
	if r.done == nil {
		return false
	}
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Start launches a task. If one is already in flight its current status is
// returned instead of an error. Start waits a short grace period so tasks
// that finish or ask a question immediately answer in one round trip.
func (r *Runner) Start(task string, maxSteps int, model string) protocol.Response {
	r.mu.Lock()
	if r.inFlight() {
		resp := r.statusLocked()
		r.mu.Unlock()
		return resp
	}

	provider, err := r.newProvider(model)
	if err != nil {
		r.mu.Unlock()
		return protocol.Response{"status": protocol.StatusError, "error": err.Error()}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.taskID = uuid.NewString()
	r.task = task
	r.state = protocol.StatusRunning
	r.pending = nil
	r.answerCh = make(chan string, 1)
	r.outcome = nil
	r.errText = ""
	r.cancel = cancel
	r.done = done

	taskID := r.taskID
	l := &loop{
		eng:      r.eng,
		provider: provider,
		logger:   r.logger,
		ask:      r.awaitAnswer,
		task:     task,
		maxSteps: maxSteps,
	}
	r.mu.Unlock()

	r.logger.Printf("task %s started with %s: %s", taskID, provider.Name(), task)
	go r.runTask(ctx, l, done)

	return r.waitAndReport(done, startGrace, "Agent task started, check status with agent_status")
}

func (r *Runner) runTask(ctx context.Context, l *loop, done chan struct{}) {
	outcome, err := l.run(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	defer close(done)

	r.pending = nil
	switch {
	// A cancelled context wins over however the interrupted call dressed up
	// its error. Providers and the engine wrap ctx errors opaquely.
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		r.state = protocol.StatusCancelled
		r.logger.Printf("task %s cancelled", r.taskID)
	case err == nil:
		r.state = protocol.StatusCompleted
		r.outcome = outcome
		r.logger.Printf("task %s completed: success=%v steps=%d", r.taskID, outcome.Success, outcome.Steps)
	default:
		r.state = protocol.StatusError
		r.errText = err.Error()
		r.logger.Printf("task %s failed: %v", r.taskID, err)
	}
}

// awaitAnswer suspends the task loop on a question until Continue delivers
// an answer or the task is cancelled.
func (r *Runner) awaitAnswer(ctx context.Context, q Question) (string, error) {
	r.mu.Lock()
	r.pending = &q
	r.state = protocol.StatusNeedInput
	ch := r.answerCh
	r.mu.Unlock()

	select {
	case answer := <-ch:
		r.mu.Lock()
		r.pending = nil
		r.state = protocol.StatusRunning
		r.mu.Unlock()
		return answer, nil
	case <-ctx.Done():
		r.mu.Lock()
		r.pending = nil
		r.mu.Unlock()
		return "", ctx.Err()
	}
}

// Continue delivers the user's choice to a task suspended on a question.
// Choices outside the offered options are accepted as free-form answers.
func (r *Runner) Continue(choice string) protocol.Response {
	r.mu.Lock()
	if !r.inFlight() {
		r.mu.Unlock()
		return protocol.Errorf("No agent task is waiting for input")
	}
	if r.pending == nil {
		r.mu.Unlock()
		return protocol.Errorf("Agent is not waiting for user input")
	}
	if choice == "" {
		r.mu.Unlock()
		return protocol.Errorf("Choice is required")
	}

	if !contains(r.pending.Options, choice) {
		r.logger.Printf("task %s: user provided custom choice: %s", r.taskID, choice)
	}

	// Clear the question now so the grace wait below cannot re-report it
	// before the task consumes the answer.
	r.pending = nil
	r.state = protocol.StatusRunning
	ch := r.answerCh
	done := r.done
	r.mu.Unlock()

	ch <- choice
	return r.waitAndReport(done, continueGrace, "Agent continuing...")
}

// waitAndReport waits for the task to settle within the grace period and
// returns whatever state it landed in.
func (r *Runner) waitAndReport(done chan struct{}, grace time.Duration, runningMsg string) protocol.Response {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return r.Status()
		case <-timer.C:
			return r.statusWithMessage(runningMsg)
		case <-ticker.C:
			r.mu.Lock()
			suspended := r.pending != nil
			r.mu.Unlock()
			if suspended {
				return r.Status()
			}
		}
	}
}

func (r *Runner) statusWithMessage(msg string) protocol.Response {
	resp := r.Status()
	if resp["status"] == protocol.StatusRunning {
		resp["message"] = msg
	}
	return resp
}

// Status reports the current task state.
func (r *Runner) Status() protocol.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// statusLocked must be called with mu held.
func (r *Runner) statusLocked() protocol.Response {
	switch r.state {
	case protocol.StatusIdle:
		return protocol.Response{"status": protocol.StatusIdle, "message": "No agent task"}
	case protocol.StatusNeedInput:
		q := r.pending
		if q == nil {
			return protocol.Response{"status": protocol.StatusRunning, "message": "Agent task in progress"}
		}
		return protocol.Response{
			"status":   protocol.StatusNeedInput,
			"question": q.Question,
			"options":  q.Options,
			"context":  q.Context,
		}
	case protocol.StatusCompleted:
		urls := r.outcome.URLs
		if urls == nil {
			urls = []string{}
		}
		return protocol.Response{
			"status":  protocol.StatusCompleted,
			"success": r.outcome.Success,
			"result":  r.outcome.Result,
			"steps":   r.outcome.Steps,
			"urls":    urls,
		}
	case protocol.StatusCancelled:
		return protocol.Response{"status": protocol.StatusCancelled, "message": "Agent task was cancelled"}
	case protocol.StatusError:
		return protocol.Response{"status": protocol.StatusError, "error": r.errText}
	default:
		return protocol.Response{"status": protocol.StatusRunning, "message": "Agent task in progress"}
	}
}

// Cancel aborts the in-flight task and returns only after the task goroutine
// has exited, so no orphaned task survives the cancel response. Cancelling
// when nothing runs succeeds.
func (r *Runner) Cancel() protocol.Response {
	r.mu.Lock()
	if !r.inFlight() {
		r.mu.Unlock()
		return protocol.OK(map[string]any{"message": "No active agent task to cancel"})
	}
	cancel := r.cancel
	done := r.done
	r.mu.Unlock()

	cancel()
	<-done

	return protocol.OK(map[string]any{"message": "Agent task cancelled"})
}

func contains(options []string, choice string) bool {
	for _, opt := range options {
		if opt == choice {
			return true
		}
	}
	return false
}
