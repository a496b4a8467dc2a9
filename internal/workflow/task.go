// Package workflow runs the upload -> extract sequence for one source file and
// reports its outcome as a single Result.
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State of a generation task.
type State string

const (
	StateIdle      State = "idle"      // Not started
	StateBusy      State = "busy"      // Uploading or extracting
	StateSucceeded State = "succeeded" // Archive extracted, Result.Path set
	StateFailed    State = "failed"    // Result.Message set
)

// IsTerminal reports whether s is Succeeded or Failed.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// FailurePrefix starts every failure message.
const FailurePrefix = "Upload error: "

// Result is the outcome of one run.
type Result struct {
	State   State
	Path    string // Extraction Root, Succeeded only
	Message string // "Upload error: <cause>", Failed only
	Err     error  // underlying error, Failed only
}

// Handle tracks a submitted task. All methods are safe for concurrent use.
type Handle struct {
	id     string
	source string

	mu          sync.RWMutex
	state       State
	result      Result
	createdAt   time.Time
	startedAt   time.Time
	completedAt time.Time

	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func newHandle(source string) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		id:        uuid.NewString(),
		source:    source,
		state:     StateIdle,
		createdAt: time.Now(),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ID returns the task's unique identifier.
func (h *Handle) ID() string { return h.id }

// Source returns the submitted file path.
func (h *Handle) Source() string { return h.source }

// Done is closed once the task reaches a terminal state.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the task finishes and returns its result.
func (h *Handle) Wait() Result {
	<-h.done
	return h.Result()
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Result returns the result so far. It is the zero Result until the task
// finishes.
func (h *Handle) Result() Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.result
}

// Duration returns how long the task ran, or has been running.
func (h *Handle) Duration() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.startedAt.IsZero() {
		return 0
	}
	if h.completedAt.IsZero() {
		return time.Since(h.startedAt)
	}
	return h.completedAt.Sub(h.startedAt)
}

// Cancel aborts the upload if it is still in flight. Extraction, once
// started, runs to completion.
func (h *Handle) Cancel() {
	h.cancel()
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = s
	if s == StateBusy && h.startedAt.IsZero() {
		h.startedAt = time.Now()
	}
}

// complete records the outcome. Waiters are released separately by release so
// the terminal event can be published first.
func (h *Handle) complete(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = r.State
	h.result = r
	h.completedAt = time.Now()
}

func (h *Handle) release() {
	h.cancel()
	close(h.done)
}
