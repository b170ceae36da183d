// Package config loads the environment-driven configuration for the EPG
// reconciliation engine. Configuration is intentionally opaque to the
// reconciliation core (C1-C7): only the orchestrator reads it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultConfigurationFilePath = "/etc/epgreconciler/config.json"
	defaultDBFilePath            = "/var/lib/epgreconciler/match_store.db"
	defaultLogFilePath           = "/var/log/epgreconciler/epgreconciler.log"
	defaultOutputDirectoryPath   = "/var/lib/epgreconciler/xmltv"
	defaultSchemaFilePath        = "/etc/epgreconciler/create_schema.sql"
	defaultChannelMapFilePath    = "/etc/epgreconciler/channel_map.csv"
	defaultInputXMLTVDirectory   = "/var/lib/epgreconciler/input"

	// DefaultSportsFeedURL is the live sports XMLTV feed the orchestrator
	// downloads once per run.
	DefaultSportsFeedURL = "https://fast-guide.smoothstreams.tv/feed.xml"
)

// ValidLoggingLevels are the logging levels accepted by LOGGING_LEVEL.
var ValidLoggingLevels = []string{"DEBUG", "ERROR", "INFO"}

// Listing identifies one base-EPG listings subscription by provider.
type Listing struct {
	Country    string
	PostalCode string
	Lineup     string // Schedules Direct only; empty for Rovi.
}

// Config holds all engine configuration. It is loaded once at startup by
// the orchestrator and passed down as an opaque value; C1-C7 never read
// environment variables directly.
type Config struct {
	// Rovi listings provider.
	RoviAPIKey       string
	RoviSharedSecret string
	RoviListings     []Listing

	// Schedules Direct listings provider.
	SchedulesDirectUsername string
	SchedulesDirectPassword string
	SchedulesDirectListings []Listing

	// Gmail notification transport (external collaborator; engine only
	// accumulates errors, see internal/notify).
	GmailEnabled  bool
	GmailUsername string
	GmailPassword string

	// Paths, matching the -b/-c/-d/-l/-o CLI flags.
	ConfigurationFilePath string
	DatabaseFilePath      string
	LogFilePath           string
	OutputDirectoryPath   string

	// SchemaFilePath is the opaque create_schema.sql the match store
	// executes verbatim on open (see internal/matchstore).
	SchemaFilePath string

	// ChannelMapFilePath is the static upstream-id -> service-channel-
	// number mapping file (C13).
	ChannelMapFilePath string

	// InputXMLTVDirectoryPath holds one base-EPG listings XMLTV file per
	// lineup, produced by the external guide-fetcher binary ahead of this
	// run; the orchestrator reads every file in the directory.
	InputXMLTVDirectoryPath string

	// SportsFeedURL is the live sports XMLTV feed downloaded once per run.
	SportsFeedURL string

	// Logging.
	LoggingLevel string

	// Error tracking.
	SentryDSN string

	// Output horizons, in days, overridable via -n.
	OutputXMLTVNumberOfDays []int

	// DST zone override for the sports feed fix-up; empty means the
	// process's local timezone decides whether DST is in effect.
	DSTZoneName string

	// MetricsTextfilePath, when non-empty, is where C12 writes the
	// Prometheus textfile-collector exposition at the end of a run.
	MetricsTextfilePath string

	// Backup gates the -b flag: snapshot existing XMLTV outputs into a
	// timestamped directory before overwriting them. Set by main.go after
	// flag parsing; Load never reads it from the environment.
	Backup bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	c := &Config{
		RoviAPIKey:       os.Getenv("ROVI_API_KEY"),
		RoviSharedSecret: os.Getenv("ROVI_SHARED_SECRET"),

		SchedulesDirectUsername: os.Getenv("SCHEDULES_DIRECT_USERNAME"),
		SchedulesDirectPassword: os.Getenv("SCHEDULES_DIRECT_PASSWORD"),

		GmailUsername: os.Getenv("GMAIL_USERNAME"),
		GmailPassword: os.Getenv("GMAIL_PASSWORD"),

		ConfigurationFilePath: getenv("EPG_CONFIGURATION_FILE_PATH", defaultConfigurationFilePath),
		DatabaseFilePath:      getenv("EPG_DATABASE_FILE_PATH", defaultDBFilePath),
		LogFilePath:           getenv("EPG_LOG_FILE_PATH", defaultLogFilePath),
		OutputDirectoryPath:   getenv("EPG_OUTPUT_DIRECTORY_PATH", defaultOutputDirectoryPath),

		SchemaFilePath:          getenv("EPG_SCHEMA_FILE_PATH", defaultSchemaFilePath),
		ChannelMapFilePath:      getenv("EPG_CHANNEL_MAP_FILE_PATH", defaultChannelMapFilePath),
		InputXMLTVDirectoryPath: getenv("EPG_INPUT_XMLTV_DIRECTORY_PATH", defaultInputXMLTVDirectory),
		SportsFeedURL:           getenv("EPG_SPORTS_FEED_URL", DefaultSportsFeedURL),

		LoggingLevel: strings.ToUpper(getenv("LOGGING_LEVEL", "INFO")),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		DSTZoneName: os.Getenv("EPG_DST_ZONE_NAME"),

		MetricsTextfilePath: os.Getenv("EPG_METRICS_TEXTFILE_PATH"),
	}

	var err error
	c.RoviListings, err = parseListings(os.Getenv("ROVI_LISTINGS"), false)
	if err != nil {
		return nil, fmt.Errorf("parsing ROVI_LISTINGS: %w", err)
	}

	c.SchedulesDirectListings, err = parseListings(os.Getenv("SCHEDULES_DIRECT_LISTINGS"), true)
	if err != nil {
		return nil, fmt.Errorf("parsing SCHEDULES_DIRECT_LISTINGS: %w", err)
	}

	c.GmailEnabled, err = parseBool(getenv("GMAIL_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("parsing GMAIL_ENABLED: %w", err)
	}

	c.OutputXMLTVNumberOfDays, err = parseDays(os.Getenv("EPG_OUTPUT_NUMBER_OF_DAYS"))
	if err != nil {
		return nil, fmt.Errorf("parsing EPG_OUTPUT_NUMBER_OF_DAYS: %w", err)
	}

	if !isValidLoggingLevel(c.LoggingLevel) {
		return nil, fmt.Errorf("LOGGING_LEVEL must be one of %v, got %q", ValidLoggingLevels, c.LoggingLevel)
	}

	if c.GmailEnabled && (c.GmailUsername == "" || c.GmailPassword == "") {
		return nil, fmt.Errorf("GMAIL_USERNAME and GMAIL_PASSWORD are required when GMAIL_ENABLED=true")
	}

	return c, nil
}

// parseListings parses a comma-separated list of "country:postal_code"
// (Rovi) or "country:postal_code:lineup" (Schedules Direct) entries.
func parseListings(raw string, requireLineup bool) ([]Listing, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var listings []Listing
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if requireLineup && len(parts) != 3 {
			return nil, fmt.Errorf("entry %q: expected country:postal_code:lineup", entry)
		}
		if !requireLineup && len(parts) != 2 {
			return nil, fmt.Errorf("entry %q: expected country:postal_code", entry)
		}

		l := Listing{Country: parts[0], PostalCode: parts[1]}
		if requireLineup {
			l.Lineup = parts[2]
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func parseDays(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{1, 3, 7}, nil
	}

	var days []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid day value %q: %w", part, err)
		}
		days = append(days, n)
	}
	if len(days) == 0 {
		return []int{1, 3, 7}, nil
	}
	return days, nil
}

func parseBool(raw string) (bool, error) {
	return strconv.ParseBool(raw)
}

func isValidLoggingLevel(level string) bool {
	for _, v := range ValidLoggingLevels {
		if v == level {
			return true
		}
	}
	return false
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
