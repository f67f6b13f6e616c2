package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/url"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func TestContext_HasSpiffeId(t *testing.T) {
	expected := "TEST"
	actual := extractSpiffeIdFromTls(injectSpiffeId(context.Background(), expected))
	if actual == nil {
		t.Fatalf("expected %s, got nil", expected)
	}
	if expected != *actual {
		t.Fatalf("expected %s, got %s", expected, *actual)
	}
}

func tlsPeerContext(uris ...string) context.Context {
	leaf := &x509.Certificate{}
	for _, u := range uris {
		parsed, _ := url.Parse(u)
		leaf.URIs = append(leaf.URIs, parsed)
	}
	info := credentials.TLSInfo{State: tls.ConnectionState{PeerCertificates: []*x509.Certificate{leaf}}}
	return peer.NewContext(context.Background(), &peer.Peer{AuthInfo: info})
}

func TestSpiffeId_FromCertificate(t *testing.T) {
	got := extractSpiffeIdFromTls(tlsPeerContext("https://example.com", "spiffe://client1/workload"))
	if got == nil || *got != "client1" {
		t.Fatalf("expected client1, got %v", got)
	}
	if got := extractSpiffeIdFromTls(tlsPeerContext("https://example.com")); got != nil {
		t.Fatalf("expected no id, got %s", *got)
	}
}

func TestInjectSpiffeIdUnary(t *testing.T) {
	handler := func(ctx context.Context, req any) (any, error) {
		return *extractSpiffeIdFromContext(ctx), nil
	}

	got, err := injectSpiffeIdUnary(tlsPeerContext("spiffe://client2"), nil, &grpc.UnaryServerInfo{}, handler)
	if err != nil || got != "client2" {
		t.Fatalf("expected client2, got %v, %v", got, err)
	}

	_, err = injectSpiffeIdUnary(context.Background(), nil, &grpc.UnaryServerInfo{}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}
