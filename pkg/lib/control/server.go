package control

import (
	"context"
	"errors"
	"net"
	"os"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"google.golang.org/grpc"
)

// Handler reacts to one control command. A non-nil error rejects it and its
// text is returned to the sender.
type Handler func(ctx context.Context, cmd v1.ControlCommand) (string, error)

// Service answers ControlService calls with a Handler. It can be registered
// on any gRPC server; Server wraps it in a dedicated listener.
type Service struct {
	v1.UnimplementedControlServiceServer
	handler Handler
}

func NewService(handler Handler) *Service {
	return &Service{handler: handler}
}

func (s *Service) Send(ctx context.Context, req *v1.ControlRequest) (*v1.ControlResponse, error) {
	cmd := req.GetCommand()
	logger.Debug().Stringer("command", cmd).Msg("control command received")
	msg, err := s.handler(ctx, cmd)
	if err != nil {
		return &v1.ControlResponse{Accepted: false, Message: err.Error()}, nil
	}
	return &v1.ControlResponse{Accepted: true, Message: msg}, nil
}

// Server is the control endpoint of a single pea.
type Server struct {
	*Service
	addr args.ControlAddress
	lis  net.Listener
	s    *grpc.Server
}

// Listen binds addr. A stale unix socket left by a crashed pea is removed.
func Listen(addr args.ControlAddress, handler Handler) (*Server, error) {
	if handler == nil {
		return nil, errors.New("control handler is required")
	}
	if addr.IPC {
		if err := os.Remove(addr.Addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	lis, err := net.Listen(addr.Network(), addr.ListenAddr())
	if err != nil {
		return nil, err
	}

	srv := &Server{Service: NewService(handler), addr: addr, lis: lis, s: grpc.NewServer()}
	v1.RegisterControlServiceServer(srv.s, srv)
	return srv, nil
}

// Serve blocks until Stop is called.
func (s *Server) Serve() error {
	logger.Info().Stringer("addr", s.addr).Msg("control endpoint listening")
	err := s.s.Serve(s.lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// Stop must not be called from inside the handler; it waits for in-flight
// commands.
func (s *Server) Stop() {
	s.s.GracefulStop()
	if s.addr.IPC {
		_ = os.Remove(s.addr.Addr)
	}
}
