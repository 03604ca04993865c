package logger

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New creates the application logger writing text records to out (stderr when nil).
// Unknown levels fall back to info.
func New(level string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stderr
	}
	logs := log.New()
	logs.Out = out
	logs.Formatter = &log.TextFormatter{FullTimestamp: true}

	switch strings.ToLower(level) {
	case "debug":
		logs.Level = log.DebugLevel
	case "warn", "warning":
		logs.Level = log.WarnLevel
	case "error":
		logs.Level = log.ErrorLevel
	default:
		logs.Level = log.InfoLevel
	}
	return logs
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	logs := log.New()
	logs.Out = io.Discard
	return logs
}
