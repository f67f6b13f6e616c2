package main

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type spiffeIdContextKey struct{}

func extractSpiffeIdFromContext(ctx context.Context) *string {
	if v, ok := ctx.Value(spiffeIdContextKey{}).(string); ok {
		return &v
	}
	return nil
}

// extractSpiffeIdFromTls returns the trust domain of the first spiffe:// URI
// SAN of the client certificate, e.g. "client1" for spiffe://client1.
func extractSpiffeIdFromTls(ctx context.Context) *string {
	if v := extractSpiffeIdFromContext(ctx); v != nil {
		return v
	}
	p, ok := peer.FromContext(ctx)
	if !ok || p == nil {
		return nil
	}
	ti, ok := p.AuthInfo.(credentials.TLSInfo)
	if !ok || len(ti.State.PeerCertificates) == 0 || ti.State.PeerCertificates[0] == nil {
		return nil
	}
	for _, uri := range ti.State.PeerCertificates[0].URIs {
		if uri != nil && uri.Scheme == "spiffe" {
			return &uri.Host
		}
	}
	return nil
}

func injectSpiffeId(ctx context.Context, spiffeId string) context.Context {
	return context.WithValue(ctx, spiffeIdContextKey{}, spiffeId)
}

func injectSpiffeIdUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	spiffeId := extractSpiffeIdFromTls(ctx)
	if spiffeId == nil {
		return nil, status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
	}
	return handler(injectSpiffeId(ctx, *spiffeId), req)
}

type streamWithCtx struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *streamWithCtx) Context() context.Context { return s.ctx }

func injectSpiffeIdStream(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	spiffeId := extractSpiffeIdFromTls(ss.Context())
	if spiffeId == nil {
		return status.Error(codes.Unauthenticated, "client must have SPIFFE ID")
	}
	return handler(srv, &streamWithCtx{ServerStream: ss, ctx: injectSpiffeId(ss.Context(), *spiffeId)})
}
