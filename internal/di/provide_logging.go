package di

import (
	"os"

	"github.com/rs/zerolog"
)

// LogFormatEnv selects JSON output when set to "json"
const LogFormatEnv = "ABBEY_LOG_FORMAT"

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// With ABBEY_LOG_FORMAT=json it writes JSON, otherwise console format with
// pretty printing. Logs go to stderr so stdout carries only relayed status lines.
func ProvideLogger() zerolog.Logger {
	if os.Getenv(LogFormatEnv) == "json" {
		return zerolog.New(os.Stderr).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
