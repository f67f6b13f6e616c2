package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// GRPCServer is the agent's listener with SpawnService and ControlService
// registered on it.
type GRPCServer struct {
	lis net.Listener
	s   *grpc.Server
}

// NewGRPCServer requires client certificates when the TLS environment is
// set and serves plaintext when none of it is.
func NewGRPCServer(addr string, svc *SpawnServiceServer) (*GRPCServer, error) {
	opts, err := serverOptionsFromEnv()
	if err != nil {
		return nil, err
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer(opts...)
	v1.RegisterSpawnServiceServer(s, svc)
	v1.RegisterControlServiceServer(s, control.NewService(svc.control))
	return &GRPCServer{lis: lis, s: s}, nil
}

func serverOptionsFromEnv() ([]grpc.ServerOption, error) {
	keyPEM := os.Getenv(spawn.EnvTLSKey)
	certPEM := os.Getenv(spawn.EnvTLSCert)
	caPEM := os.Getenv(spawn.EnvCATLSCert)

	if strings.TrimSpace(keyPEM+certPEM+caPEM) == "" {
		logger.Warn().Msg("TLS environment not set, serving plaintext without client authentication")
		return nil, nil
	}
	if keyPEM == "" || certPEM == "" || caPEM == "" {
		return nil, fmt.Errorf("incomplete TLS environment; require %s, %s, %s", spawn.EnvTLSKey, spawn.EnvTLSCert, spawn.EnvCATLSCert)
	}

	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to load server key pair: %w", err)
	}
	caPool := x509.NewCertPool()
	if ok := caPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	creds := credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    caPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS13,
	})
	return []grpc.ServerOption{
		grpc.Creds(creds),
		grpc.UnaryInterceptor(injectSpiffeIdUnary),
		grpc.StreamInterceptor(injectSpiffeIdStream),
	}, nil
}

func (g *GRPCServer) Serve() error {
	return g.s.Serve(g.lis)
}

func (g *GRPCServer) Addr() net.Addr { return g.lis.Addr() }

// Stop closes every open stream; spawners see it as the end of their pods.
func (g *GRPCServer) Stop() { g.s.Stop() }
