package orchestrator

import (
	"testing"
	"time"
)

func mustParseTestTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("time.Parse(%q): %v", s, err)
	}
	return ts
}

func TestSportsFeedDSTActive(t *testing.T) {
	loc, err := resolveDSTZone("America/New_York")
	if err != nil {
		t.Fatalf("resolveDSTZone: %v", err)
	}

	summer := mustParseTestTime(t, "2026-07-30T12:00:00Z")
	if !sportsFeedDSTActive(loc, summer) {
		t.Error("expected DST active in late July in America/New_York")
	}

	winter := mustParseTestTime(t, "2026-01-15T12:00:00Z")
	if sportsFeedDSTActive(loc, winter) {
		t.Error("expected DST inactive in mid-January in America/New_York")
	}
}

func TestResolveDSTZoneFallsBackToLocal(t *testing.T) {
	loc, err := resolveDSTZone("")
	if err != nil {
		t.Fatalf("resolveDSTZone: %v", err)
	}
	if loc != time.Local {
		t.Error("expected empty zone name to resolve to time.Local")
	}
}

func TestResolveDSTZoneRejectsUnknownName(t *testing.T) {
	if _, err := resolveDSTZone("Not/AZone"); err == nil {
		t.Error("expected an error for an unrecognized zone name")
	}
}
