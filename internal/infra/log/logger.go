package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog.
func NewLogger(appEnv string) zerolog.Logger {
	return NewLoggerTo(os.Stdout, appEnv)
}

// NewLoggerTo пишет в произвольный writer; cmd/topicctl направляет логи в stderr.
func NewLoggerTo(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(w).With().Timestamp().Logger().Level(level)
}

// Component возвращает дочерний логгер компонента.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
