package testlog

import (
	"testing"

	"github.com/danmuck/cocaine/internal/logging"
)

// Start configures process-wide test logging once and announces the
// running test at debug level.
func Start(t *testing.T) {
	t.Helper()
	logger := logging.ConfigureTests()
	logger.Debug().Str("test", t.Name()).Msg("starting")
}
