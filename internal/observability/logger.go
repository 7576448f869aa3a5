package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs the process logger tagged with the binary name. JSON
// output replaces the console writer when the operator asks for it.
func InitLogger(app string, json bool) zerolog.Logger {
	var logger zerolog.Logger
	if json {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger = logger.With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
