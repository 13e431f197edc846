// Package logging configures the shared logrus logger. Local runs get a
// colored text formatter; everything else logs JSON for collection.
package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds a logger at the given level ("debug", "info", "warn", "error").
// An empty or unrecognized level means info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if env := os.Getenv("ENVIRONMENT"); env == "" || env == "local" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// ForComponent returns an entry tagged with the component name, the shape
// every package in the pipeline logs through.
func ForComponent(log *logrus.Logger, component string) *logrus.Entry {
	return log.WithField("component", component)
}
