// Package telemetry wraps Sentry error tracking for the reconciliation
// engine.
//
// Usage in main.go:
//
//	telemetry.InitSentry(cfg.SentryDSN, "epgreconciler", version)
//	defer telemetry.Flush()
//
// Usage from the orchestrator's error accumulator:
//
//	telemetry.CaptureError(err, map[string]string{
//	    "run_id":     runID,
//	    "channel_id": channelID,
//	    "operation":  "merge",
//	})
package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry initializes the Sentry SDK for a named run. Call once at
// process startup. dsn may be empty — Sentry will be disabled. release
// should be the git SHA or version tag.
func InitSentry(dsn, serviceName, release string) error {
	env := os.Getenv("EPG_ENV")
	if env == "" {
		env = "production"
	}

	if dsn == "" {
		fmt.Fprintf(os.Stderr, "[telemetry] SENTRY_DSN not set — Sentry disabled for %s\n", serviceName)
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,

		AttachStacktrace: true,

		Tags: map[string]string{
			"service": serviceName,
		},

		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}

	return nil
}

// CaptureError sends an error to Sentry with optional context tags.
// tags may include: run_id, channel_id, operation, ladder_stage.
// Safe to call when Sentry is disabled (dsn was empty).
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CaptureMessage sends a non-error message to Sentry (e.g. for a run
// summary with an unusually high failed-match count).
func CaptureMessage(message string, level sentry.Level, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureMessage(message)
	})
}

// Flush waits for buffered Sentry events to be sent. Call with defer in
// main() before the process exits.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// scrubPII removes identifying information from Sentry events before
// they are transmitted. The engine has no subscriber identities or HTTP
// requests to scrub, so this only strips the default user/IP fields
// Sentry attaches automatically.
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	event.User.Email = ""
	event.User.IPAddress = ""

	return event
}
