package matchstore

import (
	"time"

	"github.com/yourflock/epgreconciler/internal/xmltv"
)

// ProgramKey is the full five-field (title, sub-title, channel, start,
// stop) tuple used to key every match-store row.
type ProgramKey struct {
	Title    string
	SubTitle string
	Channel  string
	Start    time.Time
	Stop     time.Time
}

// KeyOf builds a ProgramKey from a Program.
func KeyOf(p *xmltv.Program) ProgramKey {
	return ProgramKey{
		Title:    p.Title(),
		SubTitle: p.SubTitle(),
		Channel:  p.Channel,
		Start:    p.Start,
		Stop:     p.Stop,
	}
}

func (k ProgramKey) startString() string {
	if k.Start.IsZero() {
		return ""
	}
	return xmltv.FormatDate(k.Start)
}

func (k ProgramKey) stopString() string {
	if k.Stop.IsZero() {
		return ""
	}
	return xmltv.FormatDate(k.Stop)
}
