package state

import (
	"errors"
	"strings"
	"sync"

	"github.com/projgen/projgen/internal/events"
)

// EmptyPathMessage is shown when Send is pressed with no path entered.
const EmptyPathMessage = "Please enter a file path."

// SuccessPrefix starts the result line after a successful generation.
const SuccessPrefix = "Project saved to: "

// ErrEmptyPath is returned by Validate for a blank path.
var ErrEmptyPath = errors.New(EmptyPathMessage)

// Snapshot is a copy of the form state at one point in time.
type Snapshot struct {
	Path       string
	Busy       bool // at least one task in flight
	InFlight   int
	ResultPath string // set by the most recent success
	ErrorText  string // set by the most recent failure or validation error
}

// StatusText is the single status line for the snapshot: the error, the
// result, or nothing.
func (s Snapshot) StatusText() string {
	switch {
	case s.ErrorText != "":
		return s.ErrorText
	case s.ResultPath != "":
		return SuccessPrefix + s.ResultPath
	default:
		return ""
	}
}

// FormState holds what the generator screen shows.
// Thread-safe for concurrent access.
//
// A second submission while one is running is allowed: the latest completion
// owns the status line and Busy stays set until every task has finished.
type FormState struct {
	eventBus *events.EventBus

	path       string
	inFlight   int
	resultPath string
	errorText  string

	mu sync.RWMutex
}

// NewFormState creates an empty FormState. eventBus may be nil.
func NewFormState(eventBus *events.EventBus) *FormState {
	return &FormState{eventBus: eventBus}
}

// Validate trims path and rejects it when blank.
func Validate(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", ErrEmptyPath
	}
	return trimmed, nil
}

// SetPath records the text currently in the path field.
func (s *FormState) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path == path {
		return
	}
	s.path = path
	s.publishLocked()
}

// Begin validates the current path and, when it is usable, marks a task as
// in flight and clears the previous outcome. It returns the path to submit.
// A blank path sets ErrorText to EmptyPathMessage and leaves Busy unchanged.
func (s *FormState) Begin() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := Validate(s.path)
	if err != nil {
		s.errorText = EmptyPathMessage
	} else {
		s.inFlight++
		s.errorText = ""
	}
	s.resultPath = ""
	s.publishLocked()
	return path, err
}

// Succeed records a finished task that extracted into resultPath.
func (s *FormState) Succeed(resultPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
	s.resultPath = resultPath
	s.errorText = ""
	s.publishLocked()
}

// Fail records a finished task that failed with message.
func (s *FormState) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
	s.resultPath = ""
	s.errorText = message
	s.publishLocked()
}

// Snapshot returns a copy of the current state.
func (s *FormState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsBusy reports whether any task is in flight.
func (s *FormState) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

func (s *FormState) finishLocked() {
	if s.inFlight > 0 {
		s.inFlight--
	}
}

func (s *FormState) snapshotLocked() Snapshot {
	return Snapshot{
		Path:       s.path,
		Busy:       s.inFlight > 0,
		InFlight:   s.inFlight,
		ResultPath: s.resultPath,
		ErrorText:  s.errorText,
	}
}

// publishLocked publishes the current snapshot. It runs under s.mu so
// subscribers see changes in the order they were made; Publish never blocks.
func (s *FormState) publishLocked() {
	if s.eventBus != nil {
		s.eventBus.Publish(NewFormChangedEvent(s.snapshotLocked()))
	}
}
