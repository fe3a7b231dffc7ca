// Package gnsslog wires a single structured logger through the receiver
// pipeline, replacing the teacher's bare Trace()/log.Printf call sites
// with leveled logrus entries.
package gnsslog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the receiver's logger. level is one of logrus's level
// strings ("debug", "info", "warn", "error"); an unrecognized level
// falls back to Info.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Discard returns a logger that drops everything, for tests and library
// callers that don't want pipeline chatter on stderr.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(nil)
	logger.Out = discardWriter{}
	return logger
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
