// Package spawntest provides an in-memory spawn agent and a recording
// control sender for tests.
package spawntest

import (
	"context"
	"net"
	"sync"
	"testing"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// Agent answers every Spawn with Responses, optionally blocks until the
// client goes away, and then returns Err.
type Agent struct {
	v1.UnimplementedSpawnServiceServer

	Responses []*v1.SpawnResponse
	// Respond, when set, replaces Responses and sees the request.
	Respond func(req *v1.SpawnRequest) []*v1.SpawnResponse
	Block   bool
	Err     error

	Requests chan *v1.SpawnRequest
}

func NewAgent(responses ...*v1.SpawnResponse) *Agent {
	return &Agent{Responses: responses, Requests: make(chan *v1.SpawnRequest, 16)}
}

func (a *Agent) Spawn(req *v1.SpawnRequest, stream grpc.ServerStreamingServer[v1.SpawnResponse]) error {
	select {
	case a.Requests <- req:
	default:
	}
	responses := a.Responses
	if a.Respond != nil {
		responses = a.Respond(req)
	}
	for _, resp := range responses {
		if err := stream.Send(resp); err != nil {
			return err
		}
	}
	if a.Block {
		<-stream.Context().Done()
		return nil
	}
	return a.Err
}

// Serve starts srv on an in-memory listener and returns a dialer for it that
// ignores the target address.
func Serve(t *testing.T, srv v1.SpawnServiceServer) func(target string) (*grpc.ClientConn, error) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	v1.RegisterSpawnServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	return func(target string) (*grpc.ClientConn, error) {
		return grpc.NewClient("passthrough:///"+target,
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}
}

// Sender records every control command instead of sending it. Addresses in
// Fail are reported as undeliverable.
type Sender struct {
	mu   sync.Mutex
	sent []args.ControlAddress
	Fail map[args.ControlAddress]error
}

func (s *Sender) Send(ctx context.Context, addr args.ControlAddress, cmd v1.ControlCommand) (*v1.ControlResponse, error) {
	s.mu.Lock()
	s.sent = append(s.sent, addr)
	err := s.Fail[addr]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &v1.ControlResponse{Accepted: true}, nil
}

func (s *Sender) Sent() []args.ControlAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]args.ControlAddress(nil), s.sent...)
}
