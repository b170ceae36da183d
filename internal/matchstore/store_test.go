package matchstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/yourflock/epgreconciler/internal/fuzzy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "match.db")
	store, err := Open(path, "schema.sql")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testKey(title string, at time.Time) ProgramKey {
	return ProgramKey{Title: title, SubTitle: "", Channel: "10", Start: at, Stop: at.Add(time.Hour)}
}

func TestRecordMatchThenLookupValidatedRequiresExplicitValidation(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	sportsKey := testKey("NFL Football", now)
	epgKey := testKey("NFL Football", now)

	if err := store.RecordMatch(sportsKey, epgKey, "a", "b", fuzzy.Scores{TokenSortRatio: 100, JaroWinkler: 100}, fuzzy.MatchSafe, now); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}

	// is_valid is NULL until an operator reviews the row, so a freshly
	// recorded match is not yet a validated memoised match.
	ok, err := store.LookupValidated(sportsKey, epgKey)
	if err != nil {
		t.Fatalf("LookupValidated: %v", err)
	}
	if ok {
		t.Error("expected a freshly recorded match not to be validated yet")
	}
}

func TestRecordMatchIncrementsOccurrencesOnConflict(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	sportsKey := testKey("NFL Football", now)
	epgKey := testKey("NFL Football", now)
	scores := fuzzy.Scores{TokenSortRatio: 100, JaroWinkler: 100}

	if err := store.RecordMatch(sportsKey, epgKey, "a", "b", scores, fuzzy.MatchSafe, now); err != nil {
		t.Fatalf("first RecordMatch: %v", err)
	}
	if err := store.RecordMatch(sportsKey, epgKey, "a", "b", scores, fuzzy.MatchSafe, now.Add(time.Minute)); err != nil {
		t.Fatalf("second RecordMatch: %v", err)
	}

	var occurrences int
	row := store.db.QueryRow(`SELECT number_of_occurrences FROM program_match
		WHERE smooth_streams_program_title = ? AND epg_program_title = ?`, sportsKey.Title, epgKey.Title)
	if err := row.Scan(&occurrences); err != nil {
		t.Fatalf("scanning number_of_occurrences: %v", err)
	}
	if occurrences != 2 {
		t.Errorf("number_of_occurrences = %d, want 2", occurrences)
	}
}

func TestRecordFailureIncrementsOccurrences(t *testing.T) {
	store := openTestStore(t)
	now := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	key := testKey("Unmatched Show", now)

	if err := store.RecordFailure(key, now); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := store.RecordFailure(key, now.Add(time.Minute)); err != nil {
		t.Fatalf("RecordFailure (second): %v", err)
	}

	var occurrences int
	row := store.db.QueryRow(`SELECT number_of_occurrences FROM failed_program_match
		WHERE smooth_streams_program_title = ?`, key.Title)
	if err := row.Scan(&occurrences); err != nil {
		t.Fatalf("scanning number_of_occurrences: %v", err)
	}
	if occurrences != 2 {
		t.Errorf("number_of_occurrences = %d, want 2", occurrences)
	}
}

func TestUpsertCategoryHypothesisThenLookup(t *testing.T) {
	store := openTestStore(t)

	if err := store.UpsertCategoryHypothesis("Sports", "Basketball"); err != nil {
		t.Fatalf("UpsertCategoryHypothesis: %v", err)
	}

	cm, ok, err := store.LookupCategory("Sports", "Basketball")
	if err != nil {
		t.Fatalf("LookupCategory: %v", err)
	}
	if !ok {
		t.Fatal("expected the upserted category hypothesis to be found")
	}
	if cm.IsValid || cm.Reviewed {
		t.Error("expected a freshly upserted hypothesis to be unvalidated and unreviewed")
	}

	// A second upsert of the same pair must not clobber a later
	// operator validation.
	if _, err := store.db.Exec(`UPDATE category_map SET is_valid = 1, is_reviewed = 1
		WHERE smooth_streams_category = ? AND epg_category = ?`, "Sports", "Basketball"); err != nil {
		t.Fatalf("validating category_map row: %v", err)
	}
	if err := store.UpsertCategoryHypothesis("Sports", "Basketball"); err != nil {
		t.Fatalf("second UpsertCategoryHypothesis: %v", err)
	}
	cm, ok, err = store.LookupCategory("Sports", "Basketball")
	if err != nil {
		t.Fatalf("LookupCategory (after second upsert): %v", err)
	}
	if !ok || !cm.IsValid || !cm.Reviewed {
		t.Error("expected the operator validation to survive a second upsert")
	}
}

func TestIsIgnoredSportsProgramWildcardRow(t *testing.T) {
	store := openTestStore(t)

	now := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	key := testKey("Blacked Out Event", now)

	ignored, err := store.IsIgnoredSportsProgram(key)
	if err != nil {
		t.Fatalf("IsIgnoredSportsProgram: %v", err)
	}
	if ignored {
		t.Error("expected no match against an empty ignore table")
	}

	// A row with empty sub-title, channel, start and stop ignores the
	// title at every airing.
	if _, err := store.db.Exec(`INSERT INTO ignored_smooth_streams_program_match (
		smooth_streams_program_title, smooth_streams_program_sub_title,
		smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop
	) VALUES (?,?,?,?,?)`, key.Title, "", "", "", ""); err != nil {
		t.Fatalf("inserting wildcard ignore row: %v", err)
	}
	ignored, err = store.IsIgnoredSportsProgram(key)
	if err != nil {
		t.Fatalf("IsIgnoredSportsProgram (wildcard row): %v", err)
	}
	if !ignored {
		t.Error("expected the wildcard row to ignore the program")
	}
}

func TestPurgeExpiredRemovesOldFailures(t *testing.T) {
	store := openTestStore(t)
	runStart := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	oldKey := testKey("Stale Failure", runStart.Add(-48*time.Hour))

	if err := store.RecordFailure(oldKey, runStart.Add(-48*time.Hour)); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if err := store.PurgeExpired(runStart); err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}

	var count int
	row := store.db.QueryRow(`SELECT COUNT(*) FROM failed_program_match`)
	if err := row.Scan(&count); err != nil {
		t.Fatalf("counting failed_program_match: %v", err)
	}
	if count != 0 {
		t.Errorf("expected purge to remove the stale failure row, %d remain", count)
	}
}
