package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/projgen/projgen/internal/config"
	"github.com/projgen/projgen/internal/events"
	"github.com/projgen/projgen/internal/extract"
	"github.com/projgen/projgen/internal/failure"
	"github.com/projgen/projgen/internal/logging"
	"github.com/projgen/projgen/internal/notify"
	"github.com/projgen/projgen/internal/upload"
)

// Uploader sends a source file and returns the path of the saved response archive.
type Uploader interface {
	Upload(ctx context.Context, sourcePath string) (string, error)
}

// Extractor unpacks an archive and returns the destination directory.
type Extractor interface {
	Extract(archivePath string) (string, error)
}

// Notifier is told about finished tasks.
type Notifier interface {
	GenerationComplete(source, root string)
	GenerationFailed(source, errorMsg string)
}

// Runner composes an Uploader and an Extractor. It keeps no lock around the
// Extraction Root and does not serialise submissions: every Submit starts an
// independent task.
type Runner struct {
	uploader  Uploader
	extractor Extractor
	eventBus  *events.EventBus
	notifier  Notifier
	logger    *logging.Logger

	mu     sync.RWMutex
	tasks  []*Handle
	wg     sync.WaitGroup
	maxLog int
}

// Option configures a Runner.
type Option func(*Runner)

// WithEventBus publishes state changes on bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(r *Runner) { r.eventBus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithNotifier sends desktop notifications for finished tasks.
func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithHistory caps how many finished tasks are remembered (default 50).
func WithHistory(n int) Option {
	return func(r *Runner) { r.maxLog = n }
}

// NewRunner creates a Runner.
func NewRunner(uploader Uploader, extractor Extractor, opts ...Option) *Runner {
	r := &Runner{
		uploader:  uploader,
		extractor: extractor,
		maxLog:    50,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	return r
}

// FromConfig wires the HTTP upload client and the archive extractor described
// by cfg. Extra options are applied after the defaults.
func FromConfig(cfg *config.Config, logger *logging.Logger, opts ...Option) (*Runner, error) {
	ex, err := extract.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithLogger(logger),
		WithNotifier(notify.NewNotifier(cfg.NotificationsEnabled, logger)),
	}
	return NewRunner(upload.NewClient(cfg, logger), ex, append(base, opts...)...), nil
}

// Run performs the whole workflow synchronously and returns its outcome.
func (r *Runner) Run(ctx context.Context, sourcePath string) Result {
	h := newHandle(sourcePath)
	r.track(h)
	stop := context.AfterFunc(ctx, h.cancel)
	defer stop()
	r.execute(h)
	return h.Result()
}

// Submit starts the workflow in the background and returns immediately.
func (r *Runner) Submit(sourcePath string) *Handle {
	h := newHandle(sourcePath)
	r.track(h)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.execute(h)
	}()
	return h
}

// Wait blocks until every submitted task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) execute(h *Handle) {
	log := r.logger.Child(r.logger.With().Str("task", h.id).Str("source", h.source))

	r.transition(h, StateIdle, StateBusy, "", "")
	log.Info().Msg("Generation started")

	archive, err := r.uploader.Upload(h.ctx, h.source)
	if err != nil {
		r.fail(h, log, err)
		return
	}
	log.Debug().Str("archive", archive).Msg("Upload finished")

	root, err := r.extractor.Extract(archive)
	if err != nil {
		// The archive is kept for inspection.
		log.Warn().Str("archive", archive).Msg("Extraction failed, archive left in place")
		r.fail(h, log, err)
		return
	}

	h.complete(Result{State: StateSucceeded, Path: root})
	r.transition(h, StateBusy, StateSucceeded, root, "")
	log.Info().Str("root", root).Dur("elapsed", h.Duration()).Msg("Generation succeeded")
	h.release()

	if r.notifier != nil {
		r.notifier.GenerationComplete(h.source, root)
	}
	r.prune()
}

func (r *Runner) fail(h *Handle, log *logging.Logger, err error) {
	msg := FailureMessage(err)

	h.complete(Result{State: StateFailed, Message: msg, Err: err})
	r.transition(h, StateBusy, StateFailed, "", msg)
	log.Error().Err(err).Str("kind", failure.KindOf(err).String()).Msg("Generation failed")
	h.release()

	if r.notifier != nil {
		r.notifier.GenerationFailed(h.source, msg)
	}
	r.prune()
}

func (r *Runner) transition(h *Handle, from, to State, path, msg string) {
	if to == StateBusy {
		h.setState(to)
	}
	if r.eventBus != nil {
		r.eventBus.PublishStateChange(h.id, h.source, string(from), string(to), path, msg)
	}
}

// FailureMessage renders err as the text shown to the user.
func FailureMessage(err error) string {
	return fmt.Sprintf("%s%s", FailurePrefix, failure.Message(err))
}

func (r *Runner) track(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, h)
}

// prune forgets the oldest finished tasks beyond the history limit.
func (r *Runner) prune() {
	r.mu.Lock()
	defer r.mu.Unlock()

	finished := 0
	for _, h := range r.tasks {
		if h.State().IsTerminal() {
			finished++
		}
	}
	if finished <= r.maxLog {
		return
	}

	excess := finished - r.maxLog
	kept := r.tasks[:0]
	for _, h := range r.tasks {
		if excess > 0 && h.State().IsTerminal() {
			excess--
			continue
		}
		kept = append(kept, h)
	}
	r.tasks = kept
}

// Stats counts tracked tasks by state.
type Stats struct {
	Busy      int
	Succeeded int
	Failed    int
}

// Stats returns counts over the tracked tasks. Finished tasks beyond the
// history limit are no longer counted.
func (r *Runner) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var s Stats
	for _, h := range r.tasks {
		switch h.State() {
		case StateIdle, StateBusy:
			s.Busy++
		case StateSucceeded:
			s.Succeeded++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}
