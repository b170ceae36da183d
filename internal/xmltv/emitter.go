package xmltv

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Mode names a merge pass, used for output file naming.
type Mode string

const (
	ModeForce Mode = "f"
	ModeRelax Mode = "r"
)

// Variant names an element-set reduction, used for output file naming.
type Variant string

const (
	VariantFull  Variant = "f"
	VariantShort Variant = "s"
)

// FileName returns the xmltv_<mode><variant><days>.xml output file name
// for one horizon.
func FileName(mode Mode, variant Variant, days int) string {
	return fmt.Sprintf("xmltv_%s%s%d.xml", mode, variant, days)
}

// Cutoff returns midnight(runStart) + (days+1) days, the exclusive upper
// bound on program.Start for a given horizon.
func Cutoff(runStart time.Time, days int) time.Time {
	midnight := time.Date(runStart.Year(), runStart.Month(), runStart.Day(), 0, 0, 0, 0, runStart.Location())
	return midnight.AddDate(0, 0, days+1)
}

// Write serializes channels to w for one horizon/variant, emitting a
// program iff runStart < program.Stop and program.Start < cutoff.
func Write(w io.Writer, channels map[string]*Channel, order []string, runStart, cutoff time.Time, variant Variant) error {
	bw := newTagWriter(w)

	bw.writeRaw(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	bw.writeRaw("<tv>\n")

	for _, id := range order {
		ch, ok := channels[id]
		if !ok {
			continue
		}
		writeChannel(bw, ch)
	}

	for _, id := range order {
		ch, ok := channels[id]
		if !ok {
			continue
		}
		for _, p := range ch.Programs {
			if !runStart.Before(p.Stop) {
				continue
			}
			if !p.Start.Before(cutoff) {
				continue
			}
			if variant == VariantShort {
				writeProgrammeShort(bw, p)
			} else {
				writeProgrammeFull(bw, p)
			}
		}
	}

	bw.writeRaw("</tv>\n")
	return bw.err
}

func writeChannel(w *tagWriter, ch *Channel) {
	w.writeRaw(fmt.Sprintf("  <channel id=%s>\n", attrEscape(ch.ID)))
	for _, dn := range ch.DisplayNames {
		w.writeTextElement("display-name", dn, "    ")
	}
	for _, ic := range ch.Icons {
		w.writeIcon(ic, "    ")
	}
	for _, u := range ch.URLs {
		w.writeSimpleElement("url", u, "    ")
	}
	w.writeRaw("  </channel>\n")
}

func writeProgrammeFull(w *tagWriter, p *Program) {
	w.writeRaw(fmt.Sprintf("  <programme start=%s stop=%s channel=%s>\n",
		attrEscape(FormatDate(p.Start)), attrEscape(FormatDate(p.Stop)), attrEscape(p.Channel)))

	for _, t := range p.Titles {
		w.writeTextElement("title", t, "    ")
	}
	for _, t := range p.SubTitles {
		w.writeTextElement("sub-title", t, "    ")
	}
	for _, t := range p.Descriptions {
		w.writeTextElement("desc", t, "    ")
	}
	writeCredits(w, p)
	if p.Date != "" {
		w.writeSimpleElement("date", p.Date, "    ")
	}
	for _, c := range p.Categories {
		w.writeSimpleElement("category", c, "    ")
	}
	for _, k := range p.Keywords {
		w.writeSimpleElement("keyword", k, "    ")
	}
	if p.Language != "" {
		w.writeSimpleElement("language", p.Language, "    ")
	}
	if p.OrigLanguage != "" {
		w.writeSimpleElement("orig-language", p.OrigLanguage, "    ")
	}
	if p.Length != nil {
		w.writeRaw(fmt.Sprintf("    <length units=%s>%s</length>\n", attrEscape(p.Length.Units), textEscape(p.Length.Value)))
	}
	for _, ic := range p.Icons {
		w.writeIcon(ic, "    ")
	}
	for _, u := range p.URLs {
		w.writeSimpleElement("url", u, "    ")
	}
	for _, c := range p.Countries {
		w.writeSimpleElement("country", c, "    ")
	}
	for _, e := range p.EpisodeNums {
		w.writeSimpleElement("episode-num", e, "    ")
	}
	if p.Video != nil {
		w.writeVideo(p.Video, "    ")
	}
	if p.Audio != nil {
		w.writeAudio(p.Audio, "    ")
	}
	if p.PreviouslyShown != nil {
		w.writePreviouslyShown(p.PreviouslyShown, "    ")
	}
	if p.Premiere != "" {
		w.writeSimpleElement("premiere", p.Premiere, "    ")
	}
	if p.LastChance != "" {
		w.writeSimpleElement("last-chance", p.LastChance, "    ")
	}
	if p.New {
		w.writeRaw("    <new/>\n")
	}
	for _, s := range p.Subtitles {
		w.writeRaw(fmt.Sprintf("    <subtitles type=%s><language>%s</language></subtitles>\n",
			attrEscape(s.Type), textEscape(s.Language)))
	}
	for _, r := range p.Ratings {
		w.writeRating("rating", r.System, r.Value, r.Icons, "    ")
	}
	for _, r := range p.StarRatings {
		w.writeRating("star-rating", "", r.Value, r.Icons, "    ")
	}
	for _, rv := range p.Reviews {
		w.writeSimpleElement("review", rv, "    ")
	}

	w.writeRaw("  </programme>\n")
}

// writeProgrammeShort emits the reduced "short" element set: a single
// concatenated "<title>: <subtitle>" title with the "Live: " prefix
// unconditionally stripped, the programme's categories, and the
// start/stop/channel attributes — sub-title, credits, and all other
// sub-elements are omitted.
func writeProgrammeShort(w *tagWriter, p *Program) {
	w.writeRaw(fmt.Sprintf("  <programme start=%s stop=%s channel=%s>\n",
		attrEscape(FormatDate(p.Start)), attrEscape(FormatDate(p.Stop)), attrEscape(p.Channel)))

	title := ShortTitle(p)
	if title != "" {
		w.writeRaw(fmt.Sprintf("    <title>%s</title>\n", textEscape(title)))
	}
	for _, c := range p.Categories {
		w.writeSimpleElement("category", c, "    ")
	}

	w.writeRaw("  </programme>\n")
}

// ShortTitle builds the short/concatenated title used by the short
// variant: "<title>: <subtitle>" when a sub-title exists, title alone
// otherwise, with any "Live: " prefix stripped unconditionally.
func ShortTitle(p *Program) string {
	title := p.Title()
	if sub := p.SubTitle(); sub != "" {
		title = title + ": " + sub
	}
	return strings.TrimPrefix(title, "Live: ")
}

func writeCredits(w *tagWriter, p *Program) {
	hasCredits := len(p.Actors) > 0 || len(p.Directors) > 0 || len(p.Writers) > 0 ||
		len(p.Producers) > 0 || len(p.Composers) > 0 || len(p.Editors) > 0 ||
		len(p.Adapters) > 0 || len(p.Presenters) > 0 || len(p.Commentators) > 0 || len(p.Guests) > 0
	if !hasCredits {
		return
	}

	w.writeRaw("    <credits>\n")
	writeCreditRole(w, "director", p.Directors)
	writeCreditRole(w, "actor", p.Actors)
	writeCreditRole(w, "writer", p.Writers)
	writeCreditRole(w, "adapter", p.Adapters)
	writeCreditRole(w, "producer", p.Producers)
	writeCreditRole(w, "composer", p.Composers)
	writeCreditRole(w, "editor", p.Editors)
	writeCreditRole(w, "presenter", p.Presenters)
	writeCreditRole(w, "commentator", p.Commentators)
	writeCreditRole(w, "guest", p.Guests)
	w.writeRaw("    </credits>\n")
}

func writeCreditRole(w *tagWriter, elementName string, credits []Credit) {
	for _, c := range credits {
		if c.Role != "" {
			w.writeRaw(fmt.Sprintf("      <%s role=%s>%s</%s>\n", elementName, attrEscape(c.Role), textEscape(c.Name), elementName))
		} else {
			w.writeRaw(fmt.Sprintf("      <%s>%s</%s>\n", elementName, textEscape(c.Name), elementName))
		}
	}
}

// tagWriter is a small buffered XML writer. The engine writes XMLTV by
// hand rather than through xml.Marshal, mirroring the teacher's own
// preference for explicit, streamed element writes over struct-tag
// marshaling when emitting large documents.
type tagWriter struct {
	w   io.Writer
	err error
}

func newTagWriter(w io.Writer) *tagWriter {
	return &tagWriter{w: w}
}

func (t *tagWriter) writeRaw(s string) {
	if t.err != nil {
		return
	}
	_, t.err = io.WriteString(t.w, s)
}

func (t *tagWriter) writeSimpleElement(name, value, indent string) {
	t.writeRaw(fmt.Sprintf("%s<%s>%s</%s>\n", indent, name, textEscape(value), name))
}

func (t *tagWriter) writeTextElement(name string, text Text, indent string) {
	if text.Lang != "" {
		t.writeRaw(fmt.Sprintf("%s<%s lang=%s>%s</%s>\n", indent, name, attrEscape(text.Lang), textEscape(text.Value), name))
	} else {
		t.writeRaw(fmt.Sprintf("%s<%s>%s</%s>\n", indent, name, textEscape(text.Value), name))
	}
}

func (t *tagWriter) writeIcon(ic Icon, indent string) {
	attrs := "src=" + attrEscape(ic.Src)
	if ic.Width > 0 {
		attrs += " width=" + attrEscape(strconv.Itoa(ic.Width))
	}
	if ic.Height > 0 {
		attrs += " height=" + attrEscape(strconv.Itoa(ic.Height))
	}
	t.writeRaw(fmt.Sprintf("%s<icon %s/>\n", indent, attrs))
}

func (t *tagWriter) writeVideo(v *Video, indent string) {
	t.writeRaw(indent + "<video>\n")
	if v.Present {
		t.writeSimpleElement("present", "yes", indent+"  ")
	}
	if v.Colour != "" {
		t.writeSimpleElement("colour", v.Colour, indent+"  ")
	}
	if v.Aspect != "" {
		t.writeSimpleElement("aspect", v.Aspect, indent+"  ")
	}
	if v.Quality != "" {
		t.writeSimpleElement("quality", v.Quality, indent+"  ")
	}
	t.writeRaw(indent + "</video>\n")
}

func (t *tagWriter) writeAudio(a *Audio, indent string) {
	t.writeRaw(indent + "<audio>\n")
	if a.Present {
		t.writeSimpleElement("present", "yes", indent+"  ")
	}
	if a.Stereo != "" {
		t.writeSimpleElement("stereo", a.Stereo, indent+"  ")
	}
	t.writeRaw(indent + "</audio>\n")
}

func (t *tagWriter) writePreviouslyShown(ps *PreviouslyShown, indent string) {
	attrs := ""
	if ps.Start != "" {
		attrs += " start=" + attrEscape(ps.Start)
	}
	if ps.Channel != "" {
		attrs += " channel=" + attrEscape(ps.Channel)
	}
	t.writeRaw(fmt.Sprintf("%s<previously-shown%s/>\n", indent, attrs))
}

func (t *tagWriter) writeRating(elementName, system, value string, icons []Icon, indent string) {
	if system != "" {
		t.writeRaw(fmt.Sprintf("%s<%s system=%s>\n", indent, elementName, attrEscape(system)))
	} else {
		t.writeRaw(fmt.Sprintf("%s<%s>\n", indent, elementName))
	}
	t.writeSimpleElement("value", value, indent+"  ")
	for _, ic := range icons {
		t.writeIcon(ic, indent+"  ")
	}
	t.writeRaw(fmt.Sprintf("%s</%s>\n", indent, elementName))
}

func textEscape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}

func attrEscape(s string) string {
	return `"` + textEscape(s) + `"`
}
