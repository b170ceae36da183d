package resolver

import (
	"database/sql"
	"testing"

	"github.com/yourflock/epgreconciler/internal/progindex"
)

// Scenario 6: ignored_smooth_streams_program_pattern contains
// "^Special:"; a sports program whose title matches is reported as
// unmatched (Found == false) before any ladder stage runs, and no
// failed_program_match row is written for it. merge.Relax merges every
// unmatched sports program verbatim, so the pattern does not by itself
// keep the program out of the relax-mode timeline.
func TestResolveSkipsIgnoredPattern(t *testing.T) {
	store, dbPath := newTestStore(t)
	idx := progindex.New()

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`INSERT INTO ignored_smooth_streams_program_pattern (pattern) VALUES (?)`, `^Special:`); err != nil {
		t.Fatalf("inserting ignore pattern: %v", err)
	}

	runStart := mustTime("2026-09-14T00:00:00Z")
	latestBaseStop := mustTime("2026-09-21T00:00:00Z")
	r, err := New(store, idx, runStart, latestBaseStop, []int{7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sports := newTestProgram("ch1", "Special: Gala", "", "2026-09-14T20:00:00Z", "2026-09-14T21:00:00Z")

	res, err := r.Resolve(sports)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Found {
		t.Fatal("expected pattern-ignored sports program to remain unmatched")
	}
}

// A sports program matching a concrete row in
// ignored_smooth_streams_program_match (not just a pattern) is likewise
// never resolved.
func TestResolveSkipsIgnoredSportsProgram(t *testing.T) {
	store, dbPath := newTestStore(t)
	idx := progindex.New()

	sports := newTestProgram("ch1", "Blacked Out Event", "", "2026-09-14T20:00:00Z", "2026-09-14T21:00:00Z")

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	_, err = db.Exec(`
		INSERT INTO ignored_smooth_streams_program_match (
			smooth_streams_program_title, smooth_streams_program_sub_title,
			smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop
		) VALUES (?,?,?,?,?)`,
		sports.Title(), sports.SubTitle(), sports.Channel, "", "")
	if err != nil {
		t.Fatalf("inserting ignored sports program: %v", err)
	}

	runStart := mustTime("2026-09-14T00:00:00Z")
	latestBaseStop := mustTime("2026-09-21T00:00:00Z")
	r, err := New(store, idx, runStart, latestBaseStop, []int{7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := r.Resolve(sports)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Found {
		t.Fatal("expected wildcard-time ignored sports program to remain unmatched")
	}
}
