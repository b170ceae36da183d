// Package merge implements the timeline merger (C6): combining a
// channel's base-EPG program timeline with its live sports overlay
// under the non-overlapping, start-ordered invariant, in both relax and
// force modes.
package merge

import "github.com/yourflock/epgreconciler/internal/xmltv"

// overlapCase names one of the eleven ways a candidate program P can
// relate to an existing base-timeline program B, per the merger's
// overlap classification table.
type overlapCase int

const (
	caseBeforeB overlapCase = iota // P.stop <= B.start
	caseNoOverlap                  // P.start >= B.stop (B entirely before P)
	case2                          // P.start < B.start < P.stop < B.stop
	case3                          // P.start < B.start, P.stop == B.stop
	case4                          // P.start < B.start, P.stop > B.stop
	case5                          // P.start == B.start, P.stop < B.stop
	case6                          // P.start == B.start, P.stop == B.stop
	case7                          // P.start == B.start, P.stop > B.stop
	case9                          // B.start < P.start < P.stop < B.stop
	case10                         // B.start < P.start, P.stop == B.stop
	case11                         // B.start < P.start, P.stop > B.stop
)

// classify determines which overlap case applies when placing P against
// the existing base program B.
func classify(p, b *xmltv.Program) overlapCase {
	if !p.Stop.After(b.Start) {
		return caseBeforeB
	}
	if !p.Start.Before(b.Stop) {
		return caseNoOverlap
	}

	switch {
	case p.Start.Before(b.Start) && p.Stop.Before(b.Stop):
		return case2
	case p.Start.Before(b.Start) && p.Stop.Equal(b.Stop):
		return case3
	case p.Start.Before(b.Start) && p.Stop.After(b.Stop):
		return case4
	case p.Start.Equal(b.Start) && p.Stop.Before(b.Stop):
		return case5
	case p.Start.Equal(b.Start) && p.Stop.Equal(b.Stop):
		return case6
	case p.Start.Equal(b.Start) && p.Stop.After(b.Stop):
		return case7
	case p.Start.After(b.Start) && p.Stop.Before(b.Stop):
		return case9
	case p.Start.After(b.Start) && p.Stop.Equal(b.Stop):
		return case10
	default: // p.Start.After(b.Start) && p.Stop.After(b.Stop)
		return case11
	}
}
