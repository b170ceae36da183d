package merge

import "github.com/yourflock/epgreconciler/internal/xmltv"

// Resolve is the subset of the match resolver's interface the merger
// depends on — a sports program in, a Resolution out. Force mode passes
// a nil Resolve and never calls it: sports always wins outright.
type Resolve func(sports *xmltv.Program) (found bool, substituted bool, program *xmltv.Program, err error)

// CleanupSportsOverlaps removes intra-feed overlaps from a single
// channel's sports programs, assumed sorted in start order: when a
// program's start precedes the previously kept program's stop on the
// same channel, the later-starting program wins and replaces it.
func CleanupSportsOverlaps(programs []*xmltv.Program) []*xmltv.Program {
	kept := make([]*xmltv.Program, 0, len(programs))
	for _, p := range programs {
		if len(kept) > 0 && p.Start.Before(kept[len(kept)-1].Stop) {
			kept[len(kept)-1] = p
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Force merges every sports program into base unconditionally: sports
// always wins, no resolver is consulted. base and sports must already
// be sorted in start order; base is expected to be a fresh snapshot of
// the pristine base timeline (the engine re-snapshots before the force
// pass — see SPEC_FULL §9).
func Force(base, sports []*xmltv.Program) []*xmltv.Program {
	for _, p := range sports {
		base = mergeInto(base, p)
	}
	return base
}

// Relax merges only the sports programs that do not already correspond
// to an existing base program on the same channel. Each sports program
// consults resolve at most once; if the resolution substitutes a
// different (cloned) program for it, the substituted program is merged
// in its place via the same overlap case table — its position may now
// differ from where the original sports program or the matched base
// program sat. A resolution that is found but not substituted means the
// base already represents the event exactly; nothing is merged for it.
func Relax(base []*xmltv.Program, sports []*xmltv.Program, resolve Resolve) ([]*xmltv.Program, error) {
	for _, s := range sports {
		p := s

		if resolve != nil {
			found, substituted, resolved, err := resolve(p)
			if err != nil {
				return nil, err
			}
			if found && !substituted {
				continue
			}
			if found && substituted {
				p = resolved
			}
		}

		base = mergeInto(base, p)
	}
	return base, nil
}
