// Package pea is the lifecycle shared by every pea: an init hook, a loop body
// that runs until the pea is done, a one-shot ready signal and a close hook
// that runs exactly once.
package pea

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
)

var (
	ErrAlreadyStarted    = errors.New("pea already started")
	ErrExitedBeforeReady = errors.New("pea exited before it became ready")
)

var logger = logging.Logger("pea")

// Hooks are the parts of a pea that differ between implementations.
type Hooks interface {
	PostInit() error
	// LoopBody runs until the pea is done or ctx is cancelled.
	LoopBody(ctx context.Context) error
	Close() error
}

type Runtime struct {
	name         string
	timeoutReady time.Duration
	hooks        Hooks

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	err      error
	closeErr error
}

// NewRuntime wraps hooks. A zero timeoutReady makes WaitReady wait as long
// as its context allows.
func NewRuntime(name string, timeoutReady time.Duration, hooks Hooks) *Runtime {
	return &Runtime{
		name:         name,
		timeoutReady: timeoutReady,
		hooks:        hooks,
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (r *Runtime) Name() string { return r.name }

// Start runs PostInit and LoopBody in their own goroutine. The pea is closed
// as soon as LoopBody returns.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	go r.run(ctx)
	return nil
}

func (r *Runtime) run(ctx context.Context) {
	defer close(r.done)
	defer func() { _ = r.Close() }()

	if err := r.hooks.PostInit(); err != nil {
		r.setErr(err)
		return
	}
	logger.Debug().Str("pea", r.name).Msg("loop started")
	r.setErr(r.hooks.LoopBody(ctx))
	logger.Debug().Str("pea", r.name).Msg("loop finished")
}

func (r *Runtime) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// SetReady marks the pea ready. Calls after the first are no-ops.
func (r *Runtime) SetReady() {
	r.readyOnce.Do(func() {
		logger.Info().Str("pea", r.name).Msg("ready")
		close(r.ready)
	})
}

func (r *Runtime) Ready() <-chan struct{} { return r.ready }

func (r *Runtime) IsReady() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the pea is ready, exits, or ctx or the ready
// timeout expires.
func (r *Runtime) WaitReady(ctx context.Context) error {
	if r.timeoutReady > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeoutReady)
		defer cancel()
	}
	select {
	case <-r.ready:
		return nil
	case <-r.done:
		if r.IsReady() {
			return nil
		}
		if err := r.Err(); err != nil {
			return errors.Join(ErrExitedBeforeReady, err)
		}
		return ErrExitedBeforeReady
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) Done() <-chan struct{} { return r.done }

// Err is the error LoopBody or PostInit returned, once Done is closed.
func (r *Runtime) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the loop has finished and returns its error.
func (r *Runtime) Wait() error {
	<-r.done
	return r.Err()
}

// Close runs the close hook once and stops the loop. It may be called from
// any goroutine, before or after Start.
func (r *Runtime) Close() error {
	r.closeOnce.Do(func() {
		err := r.hooks.Close()
		r.mu.Lock()
		r.closeErr = err
		cancel := r.cancel
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	})
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeErr
}
