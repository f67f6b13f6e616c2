// Package remote runs peas and pods on another machine through its spawn
// agent. The wrappers behave like local peas: they become ready once the agent
// answers and their Close terminates everything they started.
package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// ErrConfig is returned when a wrapper is built for a local host.
var ErrConfig = errors.New("invalid remote configuration")

var logger = logging.Logger("remote")

func checkHost(a *args.ProcessArgs) error {
	if a.IsLocal() {
		return fmt.Errorf("%w: host must be set and not %q", ErrConfig, args.DefaultHost)
	}
	return nil
}

// unit is the pea hooks every wrapper shares. The variant supplies how the
// helper is built and what the first response means.
type unit struct {
	name      string
	newHelper func() (*spawn.Helper, error)
	onReady   func(h *spawn.Helper, resp *v1.SpawnResponse)

	mu     sync.Mutex
	helper *spawn.Helper
	closed bool
}

func (u *unit) PostInit() error { return nil }

func (u *unit) LoopBody(ctx context.Context) error {
	h, err := u.newHelper()
	if err != nil {
		return err
	}

	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return h.Close()
	}
	u.helper = h
	u.mu.Unlock()

	out, err := h.Call(ctx, func(resp *v1.SpawnResponse) { u.onReady(h, resp) })
	if err != nil {
		return err
	}
	logger.Info().Str("pea", u.name).Str("reason", string(out.Reason)).Int("responses", out.Responses).Msg("remote stream finished")
	return nil
}

func (u *unit) Close() error {
	u.mu.Lock()
	u.closed = true
	h := u.helper
	u.mu.Unlock()
	if h == nil {
		return nil
	}
	if err := h.Close(); err != nil {
		logger.Warn().Err(err).Str("pea", u.name).Msg("closing spawn channel")
		return err
	}
	return nil
}

func (u *unit) ctrlAddresses() []args.ControlAddress {
	u.mu.Lock()
	h := u.helper
	u.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.CtrlAddresses()
}

func (u *unit) terminateResults() []spawn.TerminateResult {
	u.mu.Lock()
	h := u.helper
	u.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.TerminateResults()
}
