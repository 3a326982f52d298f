package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig is the on-disk shape of a session dial config, following the
// key naming miragectl/ghostctl use for the same fields.
type fileConfig struct {
	ConnectTimeoutSeconds   int    `toml:"connect_timeout_seconds"`
	HandshakeTimeoutSeconds int    `toml:"handshake_timeout_seconds"`
	WriteQueueDepth         int    `toml:"write_queue_depth"`
	SecurityMode            string `toml:"security_mode"`
	TLSEnabled              bool   `toml:"tls_enabled"`
	TLSMutual               bool   `toml:"tls_mutual"`
	TLSCertFile             string `toml:"tls_cert_file"`
	TLSKeyFile              string `toml:"tls_key_file"`
	TLSCAFile               string `toml:"tls_ca_file"`
	TLSServerName           string `toml:"tls_server_name"`
	TLSInsecureSkipVerify   bool   `toml:"tls_insecure_skip_verify"`
}

// LoadDialConfig reads a dial Config from a TOML file at path, overlaying
// only the keys present in the file onto DefaultConfig. Unset keys keep
// their default, matching miragectl's/ghostctl's IsDefined-gated overlay.
func LoadDialConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("session: load dial config: %w", err)
	}

	if meta.IsDefined("connect_timeout_seconds") {
		cfg.ConnectTimeout = secondsToDuration(raw.ConnectTimeoutSeconds)
	}
	if meta.IsDefined("handshake_timeout_seconds") {
		cfg.HandshakeTimeout = secondsToDuration(raw.HandshakeTimeoutSeconds)
	}
	if meta.IsDefined("write_queue_depth") {
		cfg.WriteQueueDepth = raw.WriteQueueDepth
	}
	if meta.IsDefined("security_mode") {
		cfg.SecurityMode = NormalizeSecurityMode(SecurityMode(strings.TrimSpace(raw.SecurityMode)))
	}
	if meta.IsDefined("tls_enabled") {
		cfg.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_mutual") {
		cfg.TLS.Mutual = raw.TLSMutual
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("tls_ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("tls_server_name") {
		cfg.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}
	if meta.IsDefined("tls_insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.TLSInsecureSkipVerify
	}

	if err := cfg.ValidateClientTransport(); err != nil {
		return Config{}, fmt.Errorf("session: load dial config: %w", err)
	}
	return cfg, nil
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
