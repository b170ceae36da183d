package merge

import "github.com/yourflock/epgreconciler/internal/xmltv"

// insertAt inserts p into programs at index i, shifting later elements
// right.
func insertAt(programs []*xmltv.Program, i int, p *xmltv.Program) []*xmltv.Program {
	programs = append(programs, nil)
	copy(programs[i+1:], programs[i:])
	programs[i] = p
	return programs
}

// removeAt deletes the program at index i, shifting later elements
// left.
func removeAt(programs []*xmltv.Program, i int) []*xmltv.Program {
	copy(programs[i:], programs[i+1:])
	return programs[:len(programs)-1]
}

// mergeInto places p into the non-overlapping, start-ordered programs
// list, applying the overlap case table: trimming or splitting any base
// programs p overlaps, and removing any it fully swallows. p may
// eliminate more than one existing program (cases 4, 7, 11 continue
// scanning after acting).
func mergeInto(programs []*xmltv.Program, p *xmltv.Program) []*xmltv.Program {
	inserted := false
	i := 0

	for i < len(programs) {
		b := programs[i]

		switch classify(p, b) {
		case caseBeforeB:
			if !inserted {
				programs = insertAt(programs, i, p)
			}
			return programs

		case caseNoOverlap:
			i++

		case case2:
			b.Start = p.Stop
			if !inserted {
				programs = insertAt(programs, i, p)
			}
			return programs

		case case3:
			programs = removeAt(programs, i)
			if !inserted {
				programs = insertAt(programs, i, p)
			}
			return programs

		case case4:
			programs = removeAt(programs, i)
			if !inserted {
				programs = insertAt(programs, i, p)
				inserted = true
				i++
			}

		case case5:
			b.Start = p.Stop
			if !inserted {
				programs = insertAt(programs, i, p)
			}
			return programs

		case case6:
			programs = removeAt(programs, i)
			if !inserted {
				programs = insertAt(programs, i, p)
			}
			return programs

		case case7:
			programs = removeAt(programs, i)
			if !inserted {
				programs = insertAt(programs, i, p)
				inserted = true
				i++
			}

		case case9:
			originalStop := b.Stop
			b.Stop = p.Start
			bPrime := b.WithTimes(p.Stop, originalStop)
			programs = insertAt(programs, i+1, bPrime)
			if !inserted {
				programs = insertAt(programs, i+1, p)
			}
			return programs

		case case10:
			b.Stop = p.Start
			if !inserted {
				programs = insertAt(programs, i+1, p)
			}
			return programs

		case case11:
			b.Stop = p.Start
			if !inserted {
				programs = insertAt(programs, i+1, p)
				inserted = true
				i++
			}
		}
	}

	if !inserted {
		programs = append(programs, p)
	}
	return programs
}
