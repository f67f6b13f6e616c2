package spawn

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	EnvTLSKey    = "PRN_TLS_KEY"
	EnvTLSCert   = "PRN_TLS_CERT"
	EnvCATLSCert = "PRN_CA_TLS_CERT"
)

// Dialer opens the channel to the agent at target.
type Dialer func(target string) (*grpc.ClientConn, error)

// DialFromEnv uses mTLS when PRN_TLS_KEY, PRN_TLS_CERT and PRN_CA_TLS_CERT
// are all set and plaintext when none is.
func DialFromEnv(target string) (*grpc.ClientConn, error) {
	creds, err := TransportCredentialsFromEnv()
	if err != nil {
		return nil, err
	}
	return grpc.NewClient(target, grpc.WithTransportCredentials(creds))
}

func TransportCredentialsFromEnv() (credentials.TransportCredentials, error) {
	keyPEM := os.Getenv(EnvTLSKey)
	certPEM := os.Getenv(EnvTLSCert)
	caPEM := os.Getenv(EnvCATLSCert)

	set := 0
	for _, v := range []string{keyPEM, certPEM, caPEM} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	switch set {
	case 0:
		return insecure.NewCredentials(), nil
	case 3:
	default:
		return nil, fmt.Errorf("incomplete TLS environment; require all of %s, %s, %s", EnvTLSKey, EnvTLSCert, EnvCATLSCert)
	}

	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse TLS cert/key from env: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(caPEM)) {
		return nil, fmt.Errorf("failed to parse CA cert from env")
	}

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS13,
	}), nil
}
