package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is usable before Init for early startup paths and tests; Init
// replaces it with the configured instance.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the global logger. Level and format come from config;
// everything in the process logs through this instance.
func Init(level, format, output string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer
	switch strings.ToLower(output) {
	case "stderr":
		out = os.Stderr
	default:
		out = os.Stdout
	}

	if strings.ToLower(format) == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	Logger = zerolog.New(out).With().
		Timestamp().
		Logger()
	log.Logger = Logger

	Logger.Info().
		Str("level", level).
		Str("format", format).
		Msg("logger initialized")

	return nil
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Error() *zerolog.Event {
	return Logger.Error()
}
