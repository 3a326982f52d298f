package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/cocaine/internal/testutil/testlog"
)

func TestLoadDialConfigOverlaysOnlyDefinedKeys(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "dial.toml")
	body := `
write_queue_depth = 128
security_mode = "development"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadDialConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WriteQueueDepth != 128 {
		t.Fatalf("expected overlaid write_queue_depth, got %d", cfg.WriteQueueDepth)
	}
	if cfg.ConnectTimeout != DefaultConfig().ConnectTimeout {
		t.Fatalf("expected default connect timeout to survive untouched, got %v", cfg.ConnectTimeout)
	}
}

func TestLoadDialConfigRejectsProductionWithoutTLS(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "dial.toml")
	body := `security_mode = "production"`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadDialConfig(path); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
}
