package progindex

import (
	"testing"
	"time"

	"github.com/yourflock/epgreconciler/internal/xmltv"
)

func newProgram(channel, title, subTitle string, start, stop time.Time) *xmltv.Program {
	p := &xmltv.Program{Channel: channel, Start: start, Stop: stop}
	p.Titles = []xmltv.Text{{Value: title}}
	if subTitle != "" {
		p.SubTitles = []xmltv.Text{{Value: subTitle}}
	}
	return p
}

func TestAddIndexesByTitleAndSubTitle(t *testing.T) {
	idx := New()
	start := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	p := newProgram("10", "NBA Basketball", "Lakers at Celtics", start, stop)
	idx.Add(p)

	if got := idx.ProgramsForTitle("NBA Basketball"); len(got) != 1 || got[0] != p {
		t.Errorf("ProgramsForTitle = %v, want [p]", got)
	}
	if got := idx.ProgramsForSubTitle("Lakers at Celtics"); len(got) != 1 || got[0] != p {
		t.Errorf("ProgramsForSubTitle = %v, want [p]", got)
	}
}

func TestAddSkipsEmptySubTitle(t *testing.T) {
	idx := New()
	start := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	idx.Add(newProgram("10", "Evening News", "", start, start.Add(time.Hour)))

	if len(idx.SubTitleKeys()) != 0 {
		t.Errorf("expected no sub-title keys, got %v", idx.SubTitleKeys())
	}
	if len(idx.TitleKeys()) != 1 {
		t.Errorf("expected one title key, got %v", idx.TitleKeys())
	}
}

func TestLookupMatchesExactIdentity(t *testing.T) {
	idx := New()
	start := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	p := newProgram("10", "NBA Basketball", "", start, stop)
	idx.Add(p)

	got, ok := idx.Lookup("NBA Basketball", "10", start, stop)
	if !ok || got != p {
		t.Fatalf("Lookup = %v, %v; want p, true", got, ok)
	}

	if _, ok := idx.Lookup("NBA Basketball", "20", start, stop); ok {
		t.Error("expected no match for a different channel")
	}
}

func TestAllKeysUnionsTitleAndSubTitleSpaces(t *testing.T) {
	idx := New()
	start := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	idx.Add(newProgram("10", "NBA Basketball", "Lakers at Celtics", start, stop))

	all := idx.AllKeys()
	if _, ok := all["NBA Basketball"]; !ok {
		t.Error("expected title key present in AllKeys")
	}
	if _, ok := all["Lakers at Celtics"]; !ok {
		t.Error("expected sub-title key present in AllKeys")
	}
}

func TestAddChannelIndexesEveryProgram(t *testing.T) {
	idx := New()
	start := time.Date(2026, 9, 14, 20, 0, 0, 0, time.UTC)
	ch := &xmltv.Channel{
		ID: "10",
		Programs: []*xmltv.Program{
			newProgram("10", "Show A", "", start, start.Add(time.Hour)),
			newProgram("10", "Show B", "", start.Add(time.Hour), start.Add(2*time.Hour)),
		},
	}
	idx.AddChannel(ch)

	if len(idx.TitleKeys()) != 2 {
		t.Errorf("expected 2 title keys after AddChannel, got %v", idx.TitleKeys())
	}
}
