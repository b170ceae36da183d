// Package logging provides the structured logger shared across the
// reconciliation engine's components.
//
// Usage:
//
//	log := logging.NewLogger("epgreconciler", runID, cfg.LoggingLevel, nil)
//	log.WithField("channel_id", id).Info("merge complete")
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new logrus logger pre-configured for a named
// service and a run-correlation ID. Output is JSON, written to w (or
// stdout if w is nil). The logging level is controlled by the levelName
// argument (DEBUG/INFO/ERROR, per LOGGING_LEVEL); an unrecognized level
// falls back to info.
func NewLogger(service, runID string, levelName string, w io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	if w != nil {
		log.SetOutput(w)
	} else {
		log.SetOutput(os.Stdout)
	}

	log.SetLevel(parseLevel(levelName))

	return log.WithFields(logrus.Fields{
		"service": service,
		"run_id":  runID,
	})
}

// parseLevel maps the engine's DEBUG/ERROR/INFO vocabulary onto logrus
// levels, defaulting to info for anything unrecognized.
func parseLevel(levelName string) logrus.Level {
	switch levelName {
	case "DEBUG":
		return logrus.DebugLevel
	case "ERROR":
		return logrus.ErrorLevel
	case "INFO":
		return logrus.InfoLevel
	default:
		level, err := logrus.ParseLevel(levelName)
		if err != nil {
			return logrus.InfoLevel
		}
		return level
	}
}

// OpenLogFile opens (creating if necessary) the log file at path for
// append, returning an io.WriteCloser suitable for NewLogger. Log
// rotation policy is an external collaborator's concern, not this
// engine's (see DESIGN.md); the caller is expected to rotate path
// externally (e.g. logrotate) between runs.
func OpenLogFile(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
