// Package session implements the transport-facing half of a cocaine RPC
// session: dialing, TLS, the single per-session I/O goroutine, and the
// span-keyed channel table. The typed facade in the root package builds on
// top of BasicSession.
package session

import "time"

// SecurityMode selects how strict BasicSession.Connect is about transport
// security before it will dial.
type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig configures optional TLS/mTLS for a session's transport.
type TLSConfig struct {
	Enabled            bool
	Mutual             bool
	CertFile           string
	KeyFile            string
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

// Config carries dial timeouts and transport security settings for a
// BasicSession. Zero value is not ready to use; call WithDefaults.
type Config struct {
	SecurityMode     SecurityMode
	TLS              TLSConfig
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	WriteQueueDepth  int
}

// DefaultConfig returns development-mode defaults with TLS disabled.
func DefaultConfig() Config {
	return Config{
		SecurityMode:     SecurityModeDevelopment,
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteQueueDepth:  64,
	}
}

// WithDefaults fills zero-valued fields with DefaultConfig's values,
// leaving explicit overrides untouched.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.SecurityMode == "" {
		c.SecurityMode = d.SecurityMode
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteQueueDepth <= 0 {
		c.WriteQueueDepth = d.WriteQueueDepth
	}
	return c
}
