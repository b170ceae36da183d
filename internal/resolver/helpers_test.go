package resolver

import "github.com/yourflock/epgreconciler/internal/xmltv"

func newTestProgram(channel, title, subTitle, start, stop string) *xmltv.Program {
	p := &xmltv.Program{
		Channel: channel,
		Start:   mustTime(start),
		Stop:    mustTime(stop),
		Titles:  []xmltv.Text{{Value: title}},
	}
	if subTitle != "" {
		p.SubTitles = []xmltv.Text{{Value: subTitle}}
	}
	return p
}
