package xmltv

import (
	"strings"
	"testing"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="I1.1">
    <display-name>Ten</display-name>
  </channel>
  <programme start="20260914200000 +0000" stop="20260914223000 +0000" channel="I1.1">
    <title>Evening News</title>
    <sub-title>Local Edition</sub-title>
  </programme>
</tv>`

func TestParseReaderBasic(t *testing.T) {
	result, err := ParseReader(strings.NewReader(sampleDoc), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	ch, ok := result.Channels["I1.1"]
	if !ok {
		t.Fatal("expected channel I1.1 to be present")
	}
	if len(ch.Programs) != 1 {
		t.Fatalf("expected 1 programme, got %d", len(ch.Programs))
	}
	if got := ch.Programs[0].Title(); got != "Evening News" {
		t.Errorf("Title() = %q, want %q", got, "Evening News")
	}
	if !result.ChannelsWithPrograms["I1.1"] {
		t.Error("expected I1.1 to be marked as having programmes")
	}
	wantStop, err := ParseDate("20260914223000 +0000")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !result.LatestProgramStop.Equal(wantStop) {
		t.Errorf("LatestProgramStop = %v, want %v", result.LatestProgramStop, wantStop)
	}
}

// Scenario 5: the sports feed's upstream timestamps run an hour ahead
// during DST; DSTActive shifts every parsed start/stop back by one hour
// so a declared start of 14:00 UTC is stored as 13:00 UTC.
func TestParseReaderDSTActiveShiftsTimestampsBackOneHour(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <programme start="20250601140000 +0000" stop="20250601150000 +0000" channel="10">
    <title>Football</title>
  </programme>
</tv>`

	result, err := ParseReader(strings.NewReader(doc), ParseOptions{DSTActive: true})
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	ch, ok := result.Channels["10"]
	if !ok || len(ch.Programs) != 1 {
		t.Fatalf("expected one programme on channel 10, got %+v", result.Channels)
	}

	wantStart, _ := ParseDate("20250601130000 +0000")
	wantStop, _ := ParseDate("20250601140000 +0000")
	p := ch.Programs[0]
	if !p.Start.Equal(wantStart) {
		t.Errorf("Start = %v, want %v", p.Start, wantStart)
	}
	if !p.Stop.Equal(wantStop) {
		t.Errorf("Stop = %v, want %v", p.Stop, wantStop)
	}
}

func TestParseReaderResolveChannelIDSkipsUnmapped(t *testing.T) {
	resolve := func(upstreamID string) (string, bool) {
		if upstreamID == "I1.1" {
			return "10", true
		}
		return "", false
	}

	doc := `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="I1.1"><display-name>Ten</display-name></channel>
  <channel id="I9.9"><display-name>Unmapped</display-name></channel>
  <programme start="20260914200000 +0000" stop="20260914223000 +0000" channel="I1.1">
    <title>Kept</title>
  </programme>
  <programme start="20260914200000 +0000" stop="20260914223000 +0000" channel="I9.9">
    <title>Dropped</title>
  </programme>
</tv>`

	result, err := ParseReader(strings.NewReader(doc), ParseOptions{ResolveChannelID: resolve})
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if _, ok := result.Channels["I9.9"]; ok {
		t.Error("expected unmapped upstream channel to be dropped")
	}
	ch, ok := result.Channels["10"]
	if !ok {
		t.Fatal("expected canonical channel 10 to be present")
	}
	if len(ch.Programs) != 1 || ch.Programs[0].Title() != "Kept" {
		t.Errorf("expected only the mapped programme to survive, got %+v", ch.Programs)
	}
}

func TestParseDateAcceptsBareTimestampAsUTC(t *testing.T) {
	got, err := ParseDate("20260914200000")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	want, err := ParseDate("20260914200000 +0000")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("bare timestamp parsed as %v, want %v", got, want)
	}
}

func TestParseDateRejectsEmpty(t *testing.T) {
	if _, err := ParseDate(""); err == nil {
		t.Error("expected an error for an empty date string")
	}
}

func TestFormatDateRoundTrips(t *testing.T) {
	ts, err := ParseDate("20260914200000 +0000")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got, want := FormatDate(ts), "20260914200000 +0000"; got != want {
		t.Errorf("FormatDate = %q, want %q", got, want)
	}
}
