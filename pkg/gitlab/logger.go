package gitlab

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog logger.
func NewZerologLogger(logger zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{logger: logger}
}

// NewConsoleLogger returns a human readable logger writing to w, or to
// stderr when w is nil.
func NewConsoleLogger(w io.Writer, level zerolog.Level) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}

	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}

	return &ZerologLogger{
		logger: zerolog.New(output).Level(level).With().Timestamp().Str("component", "gitlab").Logger(),
	}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
