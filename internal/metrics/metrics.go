// Package metrics provides Prometheus instrumentation for the EPG
// reconciliation engine.
//
// Unlike a long-running service, this engine is a one-shot batch job: it
// has no HTTP server to scrape, so metrics are written via the
// Prometheus text exposition format to a textfile-collector path at the
// end of each run (the node-exporter textfile collector convention)
// instead of served over GET /metrics.
//
// Metrics registered here:
//
//	epgreconciler_programs_parsed_total    — counter: programs parsed, by source
//	epgreconciler_matches_total            — counter: matches resolved, by ladder stage
//	epgreconciler_match_failures_total     — counter: failed match attempts
//	epgreconciler_merge_cases_total        — counter: timeline-merge cases, by case and mode
//	epgreconciler_files_emitted_total      — counter: XMLTV files written
//	epgreconciler_run_duration_seconds     — histogram: end-to-end run duration
//
// The orchestrator records programs_parsed, files_emitted and
// run_duration. Nothing in the engine increments matches,
// match_failures or merge_cases, so those export as zero.
package metrics

import (
	"bufio"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// ── Counters ──────────────────────────────────────────────────────────

// ProgramsParsed counts programs parsed, by source ("base" or "sports").
var ProgramsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epgreconciler_programs_parsed_total",
	Help: "Total programs parsed from an XMLTV source.",
}, []string{"source"})

// Matches counts matches resolved, by ladder stage ("pre_validated",
// "forced", "pattern", "fuzzy_same_channel_aligned",
// "fuzzy_same_channel_duration", "fuzzy_cross_channel_aligned",
// "fuzzy_cross_channel_duration").
var Matches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epgreconciler_matches_total",
	Help: "Matches resolved, by ladder stage.",
}, []string{"stage"})

// MatchFailures counts sports programs for which no match was found.
var MatchFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "epgreconciler_match_failures_total",
	Help: "Sports programs for which no matching base program was found.",
})

// MergeCases counts timeline-merge overlap cases, by case number and mode.
var MergeCases = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epgreconciler_merge_cases_total",
	Help: "Timeline merge overlap cases encountered, by case and mode.",
}, []string{"case", "mode"})

// FilesEmitted counts XMLTV files written, by variant ("f" for full or
// "s" for short, the xmltv.Variant values).
var FilesEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "epgreconciler_files_emitted_total",
	Help: "XMLTV files emitted, by variant.",
}, []string{"variant"})

// ── Histograms ────────────────────────────────────────────────────────

// RunDuration tracks end-to-end run duration.
var RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "epgreconciler_run_duration_seconds",
	Help:    "End-to-end reconciliation run duration in seconds.",
	Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
})

// WriteTextfile renders the default registry in Prometheus text
// exposition format to path, following the node-exporter
// textfile-collector convention. It writes to a temp file and renames
// atomically so a concurrent collector scrape never observes a partial
// file.
func WriteTextfile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating textfile %s: %w", tmp, err)
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("gathering metrics: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flushing textfile %s: %w", tmp, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing textfile %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming textfile to %s: %w", path, err)
	}

	return nil
}
