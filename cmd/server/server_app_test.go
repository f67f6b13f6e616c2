package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/url"
	"testing"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

type testPKI struct {
	caPEM   []byte
	certPEM []byte
	keyPEM  []byte
}

// newTestPKI issues a CA and one leaf usable by both sides: 127.0.0.1 for
// the server, spiffe://<spiffeID> for the client.
func newTestPKI(t *testing.T, spiffeID string) testPKI {
	t.Helper()
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate CA key: %v", err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "prn test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create CA: %v", err)
	}
	ca, _ := x509.ParseCertificate(caDER)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: spiffeID},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		URIs:         []*url.URL{{Scheme: "spiffe", Host: spiffeID}},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, ca, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("create leaf: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return testPKI{
		caPEM:   pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: caDER}),
		certPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER}),
		keyPEM:  pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}
}

func (p testPKI) setEnv(t *testing.T) {
	t.Setenv(spawn.EnvTLSKey, string(p.keyPEM))
	t.Setenv(spawn.EnvTLSCert, string(p.certPEM))
	t.Setenv(spawn.EnvCATLSCert, string(p.caPEM))
}

func startTLSServer(t *testing.T) string {
	t.Helper()
	srv, err := NewGRPCServer("127.0.0.1:0", newTestServer(t, ConfigFromEnv()))
	if err != nil {
		t.Fatalf("NewGRPCServer failed: %v", err)
	}
	go func() { _ = srv.Serve() }()
	t.Cleanup(srv.Stop)
	return srv.Addr().String()
}

func agentStatus(addr string, creds credentials.TransportCredentials) (*v1.ControlResponse, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return v1.NewControlServiceClient(conn).Send(ctx, &v1.ControlRequest{Command: v1.ControlCommand_CONTROL_COMMAND_STATUS})
}

func TestServerApp_CorrectConfigSucceeds(t *testing.T) {
	newTestPKI(t, "client1").setEnv(t)
	addr := startTLSServer(t)

	creds, err := spawn.TransportCredentialsFromEnv()
	if err != nil {
		t.Fatalf("client credentials: %v", err)
	}
	resp, err := agentStatus(addr, creds)
	if err != nil {
		t.Fatalf("STATUS over mTLS failed: %v", err)
	}
	if !resp.GetAccepted() || resp.GetMessage() != "0 peas running" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestServerApp_ServerExpectsTls(t *testing.T) {
	newTestPKI(t, "client1").setEnv(t)
	addr := startTLSServer(t)

	if _, err := agentStatus(addr, insecure.NewCredentials()); err == nil {
		t.Fatalf("expected plaintext call to fail")
	}
}

func TestServerApp_ServerExpectsClientCert(t *testing.T) {
	pki := newTestPKI(t, "client1")
	pki.setEnv(t)
	addr := startTLSServer(t)

	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(pki.caPEM)
	noClient := credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13})
	if _, err := agentStatus(addr, noClient); err == nil {
		t.Fatalf("expected call without client certificate to fail")
	}
}

func TestServerApp_ServerExpectsCorrectClientCa(t *testing.T) {
	server := newTestPKI(t, "client1")
	server.setEnv(t)
	addr := startTLSServer(t)

	// A client whose certificate comes from a CA the server does not trust.
	other := newTestPKI(t, "intruder")
	cert, err := tls.X509KeyPair(other.certPEM, other.keyPEM)
	if err != nil {
		t.Fatalf("key pair: %v", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(server.caPEM)
	creds := credentials.NewTLS(&tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS13})
	if _, err := agentStatus(addr, creds); err == nil {
		t.Fatalf("expected client certificate from unknown CA to be rejected")
	}
}

func TestServerApp_IncompleteTLSEnv(t *testing.T) {
	t.Setenv(spawn.EnvTLSKey, "key")
	t.Setenv(spawn.EnvTLSCert, "")
	t.Setenv(spawn.EnvCATLSCert, "")
	if _, err := NewGRPCServer("127.0.0.1:0", newTestServer(t, ConfigFromEnv())); err == nil {
		t.Fatalf("expected incomplete TLS environment to fail")
	}
}
