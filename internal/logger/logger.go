// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	writer := zerolog.MultiLevelWriter(
		levelWriter{
			Writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339},
			levels: []zerolog.Level{zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel},
		},
		levelWriter{
			Writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339},
			levels: []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel},
		},
	)
	log = zerolog.New(writer).With().Timestamp().Logger()
}

func Info(msg string) {
	log.Info().Msg(msg)
}

func Infof(format string, args ...any) {
	log.Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	log.Warn().Msgf(format, args...)
}

func Error(msg string) {
	log.Error().Msg(msg)
}

func Errorf(format string, args ...any) {
	log.Error().Msgf(format, args...)
}

func Debugf(format string, args ...any) {
	log.Debug().Msgf(format, args...)
}

// levelWriter forwards writes only for its configured levels.
// Info-level output goes to stdout, errors to stderr.
type levelWriter struct {
	io.Writer
	levels []zerolog.Level
}

func (w levelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
