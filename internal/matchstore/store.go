// Package matchstore implements the persistent learning store (C3): the
// eight logical tables recording confirmed matches, failures, forced
// matches, pattern rules, category mappings, and ignore lists.
//
// The store is backed by a local SQLite file opened by path (matching
// the "-d <path>" store-file flag); its schema is an opaque DDL script
// the store executes verbatim on open, never parsed or owned by this
// package.
package matchstore

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yourflock/epgreconciler/internal/fuzzy"
	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// Store wraps the match-store database connection. It is process-global
// and owned by the orchestrator; every component that needs it is
// handed this value explicitly.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite file at dbPath and
// executes the DDL script at schemaPath verbatim against it.
func Open(dbPath, schemaPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		return nil, fmt.Errorf("matchstore: opening %s: %w", dbPath, err)
	}

	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("matchstore: reading schema %s: %w", schemaPath, err)
	}

	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("matchstore: executing schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ── program_match ───────────────────────────────────────────────────

// ProgramMatch is one row of program_match.
type ProgramMatch struct {
	SportsKey, EPGKey ProgramKey
	Compared1, Compared2 string
	TokenSortRatio, JaroWinkler int
	MatchType fuzzy.MatchType
	IsValid   sql.NullBool
	Reviewed  bool
}

// LookupValidated returns the program_match row for (sportsKey, epgKey)
// if it exists and IsValid is true (an operator-confirmed memoised
// match); ok is false otherwise.
func (s *Store) LookupValidated(sportsKey, epgKey ProgramKey) (ok bool, err error) {
	row := s.db.QueryRow(`
		SELECT is_valid FROM program_match
		WHERE smooth_streams_program_title = ? AND smooth_streams_program_sub_title = ?
		  AND smooth_streams_program_channel = ? AND smooth_streams_program_start = ?
		  AND smooth_streams_program_stop = ? AND epg_program_title = ?
		  AND epg_program_sub_title = ? AND epg_program_channel = ?
		  AND epg_program_start = ? AND epg_program_stop = ?`,
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
		epgKey.Title, epgKey.SubTitle, epgKey.Channel, epgKey.startString(), epgKey.stopString(),
	)

	var isValid sql.NullBool
	if err := row.Scan(&isValid); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("matchstore: lookup program_match: %w", err)
	}
	return isValid.Valid && isValid.Bool, nil
}

// LookupValidatedForSports returns the EPG program key an
// operator-confirmed (is_valid=1) program_match row maps sportsKey to,
// if one exists. Uniqueness of a validated row per sports tuple is an
// operator-maintained invariant, not enforced by the schema.
func (s *Store) LookupValidatedForSports(sportsKey ProgramKey) (epgKey ProgramKey, ok bool, err error) {
	row := s.db.QueryRow(`
		SELECT epg_program_title, epg_program_sub_title, epg_program_channel,
		       epg_program_start, epg_program_stop
		FROM program_match
		WHERE smooth_streams_program_title = ? AND smooth_streams_program_sub_title = ?
		  AND smooth_streams_program_channel = ? AND smooth_streams_program_start = ?
		  AND smooth_streams_program_stop = ? AND is_valid = 1`,
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
	)

	var title, subTitle, channel, start, stop string
	if err := row.Scan(&title, &subTitle, &channel, &start, &stop); err != nil {
		if err == sql.ErrNoRows {
			return ProgramKey{}, false, nil
		}
		return ProgramKey{}, false, fmt.Errorf("matchstore: lookup validated program_match: %w", err)
	}

	startTime, _ := xmltv.ParseDate(start)
	stopTime, _ := xmltv.ParseDate(stop)
	return ProgramKey{Title: title, SubTitle: subTitle, Channel: channel, Start: startTime, Stop: stopTime}, true, nil
}

// RefreshValidated bumps date_time_of_last_match and
// number_of_occurrences on an existing validated row, without altering
// its is_valid/is_reviewed state.
func (s *Store) RefreshValidated(sportsKey, epgKey ProgramKey, now time.Time) error {
	_, err := s.db.Exec(`
		UPDATE program_match SET
			date_time_of_last_match = ?,
			number_of_occurrences = number_of_occurrences + 1
		WHERE smooth_streams_program_title = ? AND smooth_streams_program_sub_title = ?
		  AND smooth_streams_program_channel = ? AND smooth_streams_program_start = ?
		  AND smooth_streams_program_stop = ? AND epg_program_title = ?
		  AND epg_program_sub_title = ? AND epg_program_channel = ?
		  AND epg_program_start = ? AND epg_program_stop = ?`,
		xmltv.FormatDate(now),
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
		epgKey.Title, epgKey.SubTitle, epgKey.Channel, epgKey.startString(), epgKey.stopString(),
	)
	if err != nil {
		return fmt.Errorf("matchstore: refresh validated program_match: %w", err)
	}
	return nil
}

// RecordMatch inserts or (on conflict) updates a program_match row:
// increments number_of_occurrences and refreshes
// date_time_of_last_match/scores for an existing row, or inserts a new
// one with occurrences=1.
func (s *Store) RecordMatch(sportsKey, epgKey ProgramKey, compared1, compared2 string, scores fuzzy.Scores, matchType fuzzy.MatchType, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO program_match (
			smooth_streams_program_title, smooth_streams_program_sub_title,
			smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop,
			epg_program_title, epg_program_sub_title, epg_program_channel,
			epg_program_start, epg_program_stop,
			compared_string_1, compared_string_2, token_sort_ratio_score, jaro_winkler_score,
			match_type, date_time_of_last_match, number_of_occurrences, is_valid, is_reviewed
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,1,NULL,0)
		ON CONFLICT (smooth_streams_program_title, smooth_streams_program_sub_title,
			smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop,
			epg_program_title, epg_program_sub_title, epg_program_channel,
			epg_program_start, epg_program_stop)
		DO UPDATE SET
			compared_string_1 = excluded.compared_string_1,
			compared_string_2 = excluded.compared_string_2,
			token_sort_ratio_score = excluded.token_sort_ratio_score,
			jaro_winkler_score = excluded.jaro_winkler_score,
			match_type = excluded.match_type,
			date_time_of_last_match = excluded.date_time_of_last_match,
			number_of_occurrences = program_match.number_of_occurrences + 1`,
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
		epgKey.Title, epgKey.SubTitle, epgKey.Channel, epgKey.startString(), epgKey.stopString(),
		compared1, compared2, scores.TokenSortRatio, scores.JaroWinkler, string(matchType),
		xmltv.FormatDate(now),
	)
	if err != nil {
		return fmt.Errorf("matchstore: record program_match: %w", err)
	}
	return nil
}

// ── failed_program_match ────────────────────────────────────────────

// RecordFailure inserts or increments a failed_program_match row.
func (s *Store) RecordFailure(sportsKey ProgramKey, now time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO failed_program_match (
			smooth_streams_program_title, smooth_streams_program_sub_title,
			smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop,
			date_time_of_last_failure, number_of_occurrences
		) VALUES (?,?,?,?,?,?,1)
		ON CONFLICT (smooth_streams_program_title, smooth_streams_program_sub_title,
			smooth_streams_program_channel, smooth_streams_program_start, smooth_streams_program_stop)
		DO UPDATE SET
			date_time_of_last_failure = excluded.date_time_of_last_failure,
			number_of_occurrences = failed_program_match.number_of_occurrences + 1`,
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
		xmltv.FormatDate(now),
	)
	if err != nil {
		return fmt.Errorf("matchstore: record failed_program_match: %w", err)
	}
	return nil
}

// ── forced_program_match ────────────────────────────────────────────

// LookupForced returns the EPG program key a sports program is forced
// to, if any.
func (s *Store) LookupForced(sportsKey ProgramKey) (epgKey ProgramKey, ok bool, err error) {
	row := s.db.QueryRow(`
		SELECT epg_program_title, epg_program_sub_title, epg_program_channel,
		       epg_program_start, epg_program_stop
		FROM forced_program_match
		WHERE smooth_streams_program_title = ? AND smooth_streams_program_sub_title = ?
		  AND smooth_streams_program_channel = ? AND smooth_streams_program_start = ?
		  AND smooth_streams_program_stop = ?`,
		sportsKey.Title, sportsKey.SubTitle, sportsKey.Channel, sportsKey.startString(), sportsKey.stopString(),
	)

	var title, subTitle, channel, start, stop string
	if err := row.Scan(&title, &subTitle, &channel, &start, &stop); err != nil {
		if err == sql.ErrNoRows {
			return ProgramKey{}, false, nil
		}
		return ProgramKey{}, false, fmt.Errorf("matchstore: lookup forced_program_match: %w", err)
	}

	startTime, _ := xmltv.ParseDate(start)
	stopTime, _ := xmltv.ParseDate(stop)
	return ProgramKey{Title: title, SubTitle: subTitle, Channel: channel, Start: startTime, Stop: stopTime}, true, nil
}

// ── ignore lists ─────────────────────────────────────────────────────

// IsIgnoredEPGProgram reports whether epgKey matches a row in
// ignored_epg_program_match, including wildcard (empty-string sentinel)
// rows.
func (s *Store) IsIgnoredEPGProgram(epgKey ProgramKey) (bool, error) {
	return s.matchesIgnoreTable("ignored_epg_program_match", "epg_program", epgKey)
}

// IsIgnoredSportsProgram reports whether sportsKey matches a row in
// ignored_smooth_streams_program_match, including wildcard rows.
func (s *Store) IsIgnoredSportsProgram(sportsKey ProgramKey) (bool, error) {
	return s.matchesIgnoreTable("ignored_smooth_streams_program_match", "smooth_streams_program", sportsKey)
}

func (s *Store) matchesIgnoreTable(table, col string, key ProgramKey) (bool, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE (%s_title = ? OR %s_title = '')
		  AND (%s_sub_title = ? OR %s_sub_title = '')
		  AND (%s_channel = ? OR %s_channel = '')
		  AND (%s_start = ? OR %s_start = '')
		  AND (%s_stop = ? OR %s_stop = '')`,
		table, col, col, col, col, col, col, col, col, col, col)

	row := s.db.QueryRow(query,
		key.Title, key.SubTitle, key.Channel, key.startString(), key.stopString(),
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("matchstore: checking %s: %w", table, err)
	}
	return count > 0, nil
}

// IgnoredPatterns returns every regex source stored in
// ignored_smooth_streams_program_pattern. Patterns are compiled by the
// caller (see internal/resolver), which owns the regex engine choice;
// this method only enumerates the stored patterns.
func (s *Store) IgnoredPatterns() ([]string, error) {
	rows, err := s.db.Query(`SELECT pattern FROM ignored_smooth_streams_program_pattern`)
	if err != nil {
		return nil, fmt.Errorf("matchstore: listing ignored patterns: %w", err)
	}
	defer rows.Close()

	var patterns []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("matchstore: scanning ignored pattern: %w", err)
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// PatternProgramMatch is one row mapping a sports title to a regex
// searched against the base EPG title/sub-title index.
type PatternProgramMatch struct {
	SportsTitle string
	Pattern     string
}

// PatternMatches returns every pattern_program_match row.
func (s *Store) PatternMatches() ([]PatternProgramMatch, error) {
	rows, err := s.db.Query(`SELECT smooth_streams_program_title, pattern FROM pattern_program_match`)
	if err != nil {
		return nil, fmt.Errorf("matchstore: listing pattern_program_match: %w", err)
	}
	defer rows.Close()

	var out []PatternProgramMatch
	for rows.Next() {
		var pm PatternProgramMatch
		if err := rows.Scan(&pm.SportsTitle, &pm.Pattern); err != nil {
			return nil, fmt.Errorf("matchstore: scanning pattern_program_match: %w", err)
		}
		out = append(out, pm)
	}
	return out, rows.Err()
}

// ── category_map ─────────────────────────────────────────────────────

// CategoryMap is one row of category_map.
type CategoryMap struct {
	SportsCategory, EPGCategory string
	IsValid, Reviewed           bool
}

// LookupCategory returns the category_map row for (sportsCategory,
// epgCategory), if any.
func (s *Store) LookupCategory(sportsCategory, epgCategory string) (CategoryMap, bool, error) {
	row := s.db.QueryRow(`
		SELECT is_valid, is_reviewed FROM category_map
		WHERE smooth_streams_category = ? AND epg_category = ?`,
		sportsCategory, epgCategory,
	)

	var isValid, reviewed bool
	if err := row.Scan(&isValid, &reviewed); err != nil {
		if err == sql.ErrNoRows {
			return CategoryMap{}, false, nil
		}
		return CategoryMap{}, false, fmt.Errorf("matchstore: lookup category_map: %w", err)
	}
	return CategoryMap{SportsCategory: sportsCategory, EPGCategory: epgCategory, IsValid: isValid, Reviewed: reviewed}, true, nil
}

// CategoriesForSportsCategory returns every category_map row for a
// given sports category, used by the resolver's candidate-tuple
// construction.
func (s *Store) CategoriesForSportsCategory(sportsCategory string) ([]CategoryMap, error) {
	rows, err := s.db.Query(`
		SELECT epg_category, is_valid, is_reviewed FROM category_map
		WHERE smooth_streams_category = ?`, sportsCategory)
	if err != nil {
		return nil, fmt.Errorf("matchstore: listing category_map: %w", err)
	}
	defer rows.Close()

	var out []CategoryMap
	for rows.Next() {
		var cm CategoryMap
		cm.SportsCategory = sportsCategory
		if err := rows.Scan(&cm.EPGCategory, &cm.IsValid, &cm.Reviewed); err != nil {
			return nil, fmt.Errorf("matchstore: scanning category_map: %w", err)
		}
		out = append(out, cm)
	}
	return out, rows.Err()
}

// UpsertCategoryHypothesis inserts a category_map row (is_valid=0,
// is_reviewed=0) for a (sportsCategory, epgCategory) pair witnessed
// during this run, if it does not already exist. An operator later
// reviews and validates it; this call never overwrites an existing
// row's validation state.
func (s *Store) UpsertCategoryHypothesis(sportsCategory, epgCategory string) error {
	_, err := s.db.Exec(`
		INSERT INTO category_map (smooth_streams_category, epg_category, is_valid, is_reviewed)
		VALUES (?, ?, 0, 0)
		ON CONFLICT (smooth_streams_category, epg_category) DO NOTHING`,
		sportsCategory, epgCategory,
	)
	if err != nil {
		return fmt.Errorf("matchstore: upsert category_map hypothesis: %w", err)
	}
	return nil
}

// ── retention ────────────────────────────────────────────────────────

// PurgeExpired deletes rows past their retention window, per spec §3:
//   - program_match: date_time_of_last_match older than runStart.
//   - failed_program_match: date_time_of_last_failure older than runStart.
//   - forced_program_match: smooth_streams_program_stop older than runStart-1day.
//   - ignored_*_program_match: concrete (non-sentinel) rows whose stop is
//     older than runStart-1day; sentinel wildcard rows are kept.
func (s *Store) PurgeExpired(runStart time.Time) error {
	runStartStr := xmltv.FormatDate(runStart)
	dayAgoStr := xmltv.FormatDate(runStart.Add(-24 * time.Hour))

	stmts := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM program_match WHERE date_time_of_last_match < ?`, []any{runStartStr}},
		{`DELETE FROM failed_program_match WHERE date_time_of_last_failure < ?`, []any{runStartStr}},
		{`DELETE FROM forced_program_match WHERE smooth_streams_program_stop <> '' AND smooth_streams_program_stop < ?`, []any{dayAgoStr}},
		{`DELETE FROM ignored_epg_program_match WHERE epg_program_stop <> '' AND epg_program_stop < ?`, []any{dayAgoStr}},
		{`DELETE FROM ignored_smooth_streams_program_match WHERE smooth_streams_program_stop <> '' AND smooth_streams_program_stop < ?`, []any{dayAgoStr}},
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt.query, stmt.args...); err != nil {
			return fmt.Errorf("matchstore: purge: %w", err)
		}
	}
	return nil
}
