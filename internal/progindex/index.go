// Package progindex implements the in-memory secondary index (C2) over
// base-EPG programs, keyed independently by title and by sub-title.
// Fuzzy matching (C4/C5) never scans every program; candidates come
// only from keys this index returns.
package progindex

import (
	"time"

	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// Index maps title strings and sub-title strings to the ordered list of
// Programs carrying that value.
type Index struct {
	byTitle    map[string][]*xmltv.Program
	bySubTitle map[string][]*xmltv.Program
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byTitle:    make(map[string][]*xmltv.Program),
		bySubTitle: make(map[string][]*xmltv.Program),
	}
}

// Add indexes p under its title and (if present) its sub-title.
func (idx *Index) Add(p *xmltv.Program) {
	if title := p.Title(); title != "" {
		idx.byTitle[title] = append(idx.byTitle[title], p)
	}
	if sub := p.SubTitle(); sub != "" {
		idx.bySubTitle[sub] = append(idx.bySubTitle[sub], p)
	}
}

// AddChannel indexes every program on ch.
func (idx *Index) AddChannel(ch *xmltv.Channel) {
	for _, p := range ch.Programs {
		idx.Add(p)
	}
}

// TitleKeys returns every distinct title key in the index.
func (idx *Index) TitleKeys() []string {
	keys := make([]string, 0, len(idx.byTitle))
	for k := range idx.byTitle {
		keys = append(keys, k)
	}
	return keys
}

// SubTitleKeys returns every distinct sub-title key in the index.
func (idx *Index) SubTitleKeys() []string {
	keys := make([]string, 0, len(idx.bySubTitle))
	for k := range idx.bySubTitle {
		keys = append(keys, k)
	}
	return keys
}

// ProgramsForTitle returns the programs indexed under the given title.
func (idx *Index) ProgramsForTitle(title string) []*xmltv.Program {
	return idx.byTitle[title]
}

// ProgramsForSubTitle returns the programs indexed under the given
// sub-title.
func (idx *Index) ProgramsForSubTitle(subTitle string) []*xmltv.Program {
	return idx.bySubTitle[subTitle]
}

// Lookup returns the program with the given title/channel/start/stop
// identity, if indexed. Used to resolve a forced or pre-validated
// match-store row back into an actual Program.
func (idx *Index) Lookup(title, channel string, start, stop time.Time) (*xmltv.Program, bool) {
	for _, p := range idx.byTitle[title] {
		if p.Channel == channel && p.Start.Equal(start) && p.Stop.Equal(stop) {
			return p, true
		}
	}
	return nil, false
}

// AllKeys returns the union of title and sub-title keys, each paired
// with the programs it resolves to. Used by C4's broad fuzzy search,
// which must search over both key spaces.
func (idx *Index) AllKeys() map[string][]*xmltv.Program {
	all := make(map[string][]*xmltv.Program, len(idx.byTitle)+len(idx.bySubTitle))
	for k, v := range idx.byTitle {
		all[k] = append(all[k], v...)
	}
	for k, v := range idx.bySubTitle {
		all[k] = append(all[k], v...)
	}
	return all
}
