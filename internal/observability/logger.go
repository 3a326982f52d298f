// Package observability builds the process-wide zerolog.Logger used by
// cocaine binaries, tagging every line with the binary's name on top of
// the level/timestamp profile resolved by internal/logging.
package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cocaine/internal/logging"
)

// InitLogger configures runtime logging, tags it with app, installs it as
// zerolog's global logger, and returns it for direct use.
func InitLogger(app string) zerolog.Logger {
	base := logging.ConfigureRuntime()
	tagged := base.With().Str("app", app).Logger()
	log.Logger = tagged
	return tagged
}
