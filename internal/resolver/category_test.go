package resolver

import (
	"database/sql"
	"testing"
)

func insertCategoryMapRow(t *testing.T, dbPath, sportsCategory, epgCategory string, isValid, reviewed bool) {
	t.Helper()
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`
		INSERT INTO category_map (smooth_streams_category, epg_category, is_valid, is_reviewed)
		VALUES (?, ?, ?, ?)`,
		sportsCategory, epgCategory, isValid, reviewed)
	if err != nil {
		t.Fatalf("inserting category_map row: %v", err)
	}
}

// Spec scenario 4: a confirmed category_map row rewrites the compared
// strings to the event names on both sides, rather than comparing the
// category-prefixed titles directly.
func TestBuildMatchTuplesConfirmedCategoryRewritesToEventNames(t *testing.T) {
	store, dbPath := newTestStore(t)
	insertCategoryMapRow(t, dbPath, "NBA", "Basketball", true, false)
	r := &Resolver{store: store}

	sports := newTestProgram("ch1", "NBA: Lakers at Celtics", "", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")
	epg := newTestProgram("ch1", "League: Basketball", "Lakers at Celtics", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")

	tuples, err := r.buildMatchTuples(sports, epg)
	if err != nil {
		t.Fatalf("buildMatchTuples: %v", err)
	}
	if len(tuples) == 0 {
		t.Fatal("expected at least one tuple")
	}
	if tuples[0].A != "Lakers at Celtics" || tuples[0].B != "Lakers at Celtics" {
		t.Errorf("expected event-name tuple first, got %+v", tuples[0])
	}
}

// When no category_map row covers the sports category, the tuples fall
// back to the sports event name against the EPG sub-title.
func TestBuildMatchTuplesNoCategoryCoverageFallsBackToSubTitle(t *testing.T) {
	store, _ := newTestStore(t)
	r := &Resolver{store: store}

	sports := newTestProgram("ch1", "NBA: Lakers at Celtics", "", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")
	epg := newTestProgram("ch1", "NBA Basketball", "Lakers at Celtics", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")

	tuples, err := r.buildMatchTuples(sports, epg)
	if err != nil {
		t.Fatalf("buildMatchTuples: %v", err)
	}
	if len(tuples) == 0 || tuples[0].A != "Lakers at Celtics" || tuples[0].B != "Lakers at Celtics" {
		t.Fatalf("expected the sub-title fallback tuple first, got %+v", tuples)
	}
}

// A reviewed-and-invalid category_map row is an explicit negative: it
// aborts the candidate build immediately, producing no tuples at all —
// not even the usual catch-all concatenation.
func TestBuildMatchTuplesReviewedInvalidCategoryVetoesAllTuples(t *testing.T) {
	store, dbPath := newTestStore(t)
	insertCategoryMapRow(t, dbPath, "NBA", "Basketball", false, true)
	r := &Resolver{store: store}

	sports := newTestProgram("ch1", "NBA: Lakers at Celtics", "", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")
	epg := newTestProgram("ch1", "Hockey: NBA", "Lakers at Celtics", "2026-09-14T20:00:00Z", "2026-09-14T22:00:00Z")

	tuples, err := r.buildMatchTuples(sports, epg)
	if err != nil {
		t.Fatalf("buildMatchTuples: %v", err)
	}
	if len(tuples) != 0 {
		t.Errorf("expected a reviewed-invalid row to veto every tuple, got %+v", tuples)
	}
}
