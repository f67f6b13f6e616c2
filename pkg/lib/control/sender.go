// Package control carries out-of-band commands (TERMINATE, STATUS) to the
// control endpoint every spawned pea hosts.
package control

import (
	"context"
	"fmt"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// DefaultTimeout bounds how long a sender waits for one control endpoint.
const DefaultTimeout = 10 * time.Second

var logger = logging.Logger("control")

// Sender delivers a control command to a single address.
type Sender interface {
	Send(ctx context.Context, addr args.ControlAddress, cmd v1.ControlCommand) (*v1.ControlResponse, error)
}

// GRPCSender dials the address for every command; control traffic is rare
// and addresses are short-lived.
type GRPCSender struct {
	dialOptions []grpc.DialOption
}

// NewGRPCSender uses plaintext transport unless opts say otherwise.
func NewGRPCSender(opts ...grpc.DialOption) *GRPCSender {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCSender{dialOptions: opts}
}

func (s *GRPCSender) Send(ctx context.Context, addr args.ControlAddress, cmd v1.ControlCommand) (*v1.ControlResponse, error) {
	conn, err := grpc.NewClient(addr.Target(), s.dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	resp, err := v1.NewControlServiceClient(conn).Send(ctx, &v1.ControlRequest{Command: cmd})
	if err != nil {
		return nil, fmt.Errorf("send %s to %s: %w", cmd, addr, err)
	}
	if !resp.GetAccepted() {
		return resp, fmt.Errorf("%s rejected by %s: %s", cmd, addr, resp.GetMessage())
	}
	return resp, nil
}

// Terminate sends TERMINATE and waits at most timeout for the endpoint.
func Terminate(ctx context.Context, s Sender, addr args.ControlAddress, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Debug().Stringer("addr", addr).Msg("sending terminate")
	_, err := s.Send(ctx, addr, v1.ControlCommand_CONTROL_COMMAND_TERMINATE)
	return err
}
