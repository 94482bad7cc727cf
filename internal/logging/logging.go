// Package logging owns the process-wide structured logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mathlib-go/mathlib/internal/config"
	"github.com/sirupsen/logrus"
)

var (
	// stdLogger is the global logger
	stdLogger *logrus.Logger
	// once ensures that the logger is initialized only once
	once sync.Once
)

// StdLogger returns the single logger instance. Until Init is called it logs
// warnings and above as text to stderr.
func StdLogger() *logrus.Logger {
	once.Do(func() {
		stdLogger = logrus.New()
		stdLogger.SetOutput(os.Stderr)
		stdLogger.SetLevel(logrus.WarnLevel)
		stdLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	})
	return stdLogger
}

// Init applies c to the global logger.
func Init(c *config.Logger) error {
	return Configure(StdLogger(), c)
}

// Configure applies c to l.
func Configure(l *logrus.Logger, c *config.Logger) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	l.SetLevel(level)

	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{})
	}

	var out io.Writer = os.Stderr
	if c.Output == "stdout" {
		out = os.Stdout
	}
	l.SetOutput(out)
	return nil
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return StdLogger().WithField("component", name)
}
