// Package spawn asks a remote agent to start peas and pods, relays their logs
// and terminates them through their control endpoints.
package spawn

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrAlreadyCalled is returned by a second Call on the same helper.
	ErrAlreadyCalled = errors.New("spawn helper already called")
	// ErrClosed is returned by Call after Close.
	ErrClosed = errors.New("spawn helper closed")
)

var logger = logging.Logger("spawn")

// ReadyFunc receives the first response of a spawn stream.
type ReadyFunc func(resp *v1.SpawnResponse)

// Reason records why a spawn stream stopped.
type Reason string

const (
	ReasonEOF         Reason = "eof"
	ReasonStreamError Reason = "stream-error"
	ReasonCancelled   Reason = "cancelled"
)

// Outcome is how a Call ended. Stream failures end up here instead of in an
// error; the spawner treats every one of them as completion.
type Outcome struct {
	Reason    Reason
	Responses int
	Err       error
}

// TerminateResult is the delivery result of one TERMINATE sent by Close.
type TerminateResult struct {
	Addr args.ControlAddress
	Err  error
}

const (
	readyPending int32 = iota
	readyFired
)

type options struct {
	dialer  Dialer
	sender  control.Sender
	timeout time.Duration
	remote  zerolog.Logger
}

type Option func(*options)

func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

func WithSender(s control.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithShutdownTimeout bounds the wait for each control endpoint in Close.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRemoteLogger sets the sink for relayed log records.
func WithRemoteLogger(l zerolog.Logger) Option {
	return func(o *options) { o.remote = l }
}

// Helper owns one spawn stream for a single unit: a pea, a pod, or a pod the
// caller already expanded.
type Helper struct {
	kind   v1.Kind
	target string
	build  func() (*v1.SpawnRequest, error)
	opts   options

	conn   *grpc.ClientConn
	client v1.SpawnServiceClient

	called atomic.Bool
	closed atomic.Bool
	ready  atomic.Int32

	mu         sync.Mutex
	addrs      []args.ControlAddress
	cancel     context.CancelFunc
	outcome    Outcome
	terminated []TerminateResult
}

func newHelper(kind v1.Kind, seed *args.ProcessArgs, build func() (*v1.SpawnRequest, error), opts []Option) (*Helper, error) {
	o := options{
		dialer:  DialFromEnv,
		timeout: control.DefaultTimeout,
		remote:  logging.Logger("remote"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sender == nil {
		o.sender = control.NewGRPCSender()
	}

	target := net.JoinHostPort(seed.Host, strconv.Itoa(seed.PortGRPC))
	conn, err := o.dialer(target)
	if err != nil {
		return nil, err
	}
	o.remote = o.remote.With().Str("remote", seed.DisplayName()).Logger()

	return &Helper{
		kind:   kind,
		target: target,
		build:  build,
		opts:   o,
		conn:   conn,
		client: v1.NewSpawnServiceClient(conn),
	}, nil
}

func (h *Helper) Kind() v1.Kind { return h.kind }

// Target is the agent address the helper streams from.
func (h *Helper) Target() string { return h.target }

// AddCtrlAddresses registers addresses that Close terminates.
func (h *Helper) AddCtrlAddresses(addrs ...args.ControlAddress) {
	h.mu.Lock()
	h.addrs = append(h.addrs, addrs...)
	h.mu.Unlock()
}

func (h *Helper) CtrlAddresses() []args.ControlAddress {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]args.ControlAddress(nil), h.addrs...)
}

// Outcome is valid once Call has returned.
func (h *Helper) Outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outcome
}

// TerminateResults lists what Close sent, in registration order.
func (h *Helper) TerminateResults() []TerminateResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]TerminateResult(nil), h.terminated...)
}

// Call opens the spawn stream and relays it until it ends. ready, when
// non-nil, runs inline on the first response only. Stream failures are
// reported in the Outcome; the error is only set for misuse of the helper.
//
// Call may be used once per helper.
func (h *Helper) Call(ctx context.Context, ready ReadyFunc) (Outcome, error) {
	if !h.called.CompareAndSwap(false, true) {
		return Outcome{}, ErrAlreadyCalled
	}
	if h.closed.Load() {
		return Outcome{}, ErrClosed
	}

	req, err := h.build()
	if err != nil {
		return Outcome{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
	if h.closed.Load() {
		cancel()
	}

	logger.Debug().Str("target", h.target).Stringer("kind", h.kind).Msg("opening spawn stream")
	stream, err := h.client.Spawn(ctx, req)
	if err != nil {
		return h.finish(ctx, 0, err), nil
	}
	return h.relay(ctx, stream, ready), nil
}

func (h *Helper) relay(ctx context.Context, stream grpc.ServerStreamingClient[v1.SpawnResponse], ready ReadyFunc) Outcome {
	n := 0
	for {
		resp, err := stream.Recv()
		if err != nil {
			return h.finish(ctx, n, err)
		}
		n++
		if ready != nil && h.ready.CompareAndSwap(readyPending, readyFired) {
			ready(resp)
		}
		h.opts.remote.Info().Msg(resp.GetLogRecord())
	}
}

func (h *Helper) finish(ctx context.Context, n int, err error) Outcome {
	out := Outcome{Responses: n}
	switch {
	case errors.Is(err, io.EOF):
		out.Reason = ReasonEOF
	case ctx.Err() != nil || status.Code(err) == codes.Canceled:
		out.Reason = ReasonCancelled
	default:
		out.Reason = ReasonStreamError
		out.Err = err
	}
	logger.Debug().Str("target", h.target).Str("reason", string(out.Reason)).Int("responses", n).Err(out.Err).Msg("spawn stream ended")

	h.mu.Lock()
	h.outcome = out
	h.mu.Unlock()
	return out
}

// Close terminates every registered address, then releases the channel.
// Undelivered TERMINATEs are logged and recorded, never returned. Only the
// first call does anything.
func (h *Helper) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}

	for _, addr := range h.CtrlAddresses() {
		err := control.Terminate(context.Background(), h.opts.sender, addr, h.opts.timeout)
		if err != nil {
			logger.Warn().Err(err).Stringer("addr", addr).Msg("terminate not delivered")
		}
		h.mu.Lock()
		h.terminated = append(h.terminated, TerminateResult{Addr: addr, Err: err})
		h.mu.Unlock()
	}

	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return h.conn.Close()
}
