// Command epgreconciler reconciles a live sports XMLTV feed against a
// base electronic program guide and emits merged XMLTV output files, in
// both relax and force modes, for a configurable set of day horizons.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yourflock/epgreconciler/internal/config"
	"github.com/yourflock/epgreconciler/internal/logging"
	"github.com/yourflock/epgreconciler/internal/orchestrator"
	"github.com/yourflock/epgreconciler/internal/telemetry"
)

// version is set at release time; left as the original generator's
// starting point for builds that do not pass -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	backup := flag.Bool("b", false, "backup prior XMLTV outputs before overwriting")
	configPath := flag.String("c", "", "configuration file path")
	dbPath := flag.String("d", "", "match store file path")
	logPath := flag.String("l", "", "log file path")
	outputPath := flag.String("o", "", "output directory path")
	days := flag.String("n", "", "comma-separated output horizon days, overriding EPG_OUTPUT_NUMBER_OF_DAYS")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "epgreconciler: loading configuration: %v\n", err)
		return 1
	}

	cfg.Backup = *backup
	if *configPath != "" {
		cfg.ConfigurationFilePath = *configPath
	}
	if *dbPath != "" {
		cfg.DatabaseFilePath = *dbPath
	}
	if *logPath != "" {
		cfg.LogFilePath = *logPath
	}
	if *outputPath != "" {
		cfg.OutputDirectoryPath = *outputPath
	}
	if *days != "" {
		parsed, err := parseDays(*days)
		if err != nil {
			fmt.Fprintf(os.Stderr, "epgreconciler: parsing -n: %v\n", err)
			return 1
		}
		cfg.OutputXMLTVNumberOfDays = parsed
	}

	runID := uuid.NewString()

	logFile, err := logging.OpenLogFile(cfg.LogFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "epgreconciler: opening log file: %v\n", err)
		return 1
	}
	defer logFile.Close()

	log := logging.NewLogger("epgreconciler", runID, cfg.LoggingLevel, logFile)
	log.WithField("sentry_dsn", logging.RedactToken(cfg.SentryDSN)).Debug("starting reconciliation run")

	if err := telemetry.InitSentry(cfg.SentryDSN, "epgreconciler", version); err != nil {
		log.WithError(err).Warn("sentry initialization failed; continuing without error tracking")
	}
	defer telemetry.Flush()

	orch, err := orchestrator.New(cfg, log, runID)
	if err != nil {
		log.WithError(err).Error("fatal: could not start reconciliation engine")
		telemetry.CaptureError(err, map[string]string{"run_id": runID, "operation": "startup"})
		return 1
	}
	defer orch.Close()

	if err := orch.Run(); err != nil {
		log.WithError(err).Error("fatal: reconciliation run aborted")
		telemetry.CaptureError(err, map[string]string{"run_id": runID, "operation": "run"})
		return 1
	}

	for _, e := range orch.Errors().Entries() {
		log.WithFields(map[string]interface{}{
			"stage":      e.Stage,
			"channel_id": e.ChannelID,
		}).WithError(e.Err).Error("non-fatal error recorded during run")
		telemetry.CaptureError(e.Err, map[string]string{
			"run_id":    runID,
			"operation": e.Stage,
		})
	}

	return 0
}

func parseDays(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid day value %q: %w", part, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid day values in %q", raw)
	}
	return out, nil
}
