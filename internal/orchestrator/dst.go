package orchestrator

import "time"

// sportsFeedDSTActive reports whether loc is observing daylight-saving
// time at t, the condition the original generator checks (via
// tzlocal/pytz) before back-shifting every sports-feed timestamp by one
// hour — see SPEC_FULL.md §4.1 / spec.md scenario 5. DST is detected by
// comparing t's UTC offset in loc against loc's offset on January 1st
// of the same year, which is standard time in every zone the engine
// targets.
func sportsFeedDSTActive(loc *time.Location, t time.Time) bool {
	_, tOffset := t.In(loc).Zone()
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	_, stdOffset := jan1.Zone()
	return tOffset != stdOffset
}

// resolveDSTZone loads the named zone, falling back to Local when name
// is empty.
func resolveDSTZone(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
