package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/danmuck/cocaine/wire"
)

// dial opens one net.Conn to ep, upgrading to TLS when cfg.TLS.Enabled.
// It does not retry; BasicSession.ConnectAll is the retry-across-endpoints
// loop.
func dial(ctx context.Context, ep wire.Endpoint, cfg Config) (net.Conn, error) {
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, ep.Network, ep.Address)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		return raw, nil
	}

	tlsCfg, err := clientTLSConfig(ep, cfg.TLS)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	conn := tls.Client(raw, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return conn, nil
}

func clientTLSConfig(ep wire.Endpoint, tc TLSConfig) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: tc.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(tc.ServerName)
	if serverName == "" && ep.Network == "tcp" {
		host, _, err := net.SplitHostPort(ep.Address)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(tc.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("session: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if tc.Mutual {
		cert, err := tls.LoadX509KeyPair(tc.CertFile, tc.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
