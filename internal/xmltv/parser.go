package xmltv

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"
)

// ParseOptions configures one ParseReader call. The parser is otherwise
// self-contained: it does not know about the channel-ID map or the
// program index, which are separate components (C13, C2) wired in by
// the caller.
type ParseOptions struct {
	// ResolveChannelID maps an upstream <channel id="..."> value to the
	// canonical service channel number. Return ok=false to skip the
	// channel (and its programmes) entirely. Left nil when parsing the
	// sports feed, which has no channel map of its own and keeps
	// programmes under their raw upstream channel id instead.
	ResolveChannelID func(upstreamID string) (canonicalID string, ok bool)

	// DSTActive, when true, shifts every parsed programme's start and
	// stop back by one hour. Used only for the sports feed, which has a
	// known upstream DST bug.
	DSTActive bool
}

// Result holds everything produced by one ParseReader call.
type Result struct {
	// Channels is keyed by canonical channel id (post-ResolveChannelID)
	// when ResolveChannelID is set, otherwise by the raw upstream id.
	Channels map[string]*Channel

	// LatestProgramStop is the greatest Program.Stop observed across the
	// parse, tracked as latest_date_time_epg_xml in spec terms.
	LatestProgramStop time.Time

	// ChannelsWithPrograms records which channel ids received at least
	// one programme in this parse. The orchestrator's source-coverage
	// check does not read it; that check inspects the combined base
	// channel program lists instead.
	ChannelsWithPrograms map[string]bool
}

// ParseReader streams an XMLTV document from r, decoding channel and
// programme elements incrementally and clearing each element's children
// on its end event to bound memory on large feeds. Malformed individual
// elements are skipped so that a partial feed still yields maximum
// usable data; only a malformed top-level XML token stream aborts the
// parse entirely.
func ParseReader(r io.Reader, opts ParseOptions) (*Result, error) {
	decoder := xml.NewDecoder(r)
	result := &Result{
		Channels:             make(map[string]*Channel),
		ChannelsWithPrograms: make(map[string]bool),
	}

	var inTV bool
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xmltv: reading token: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "tv":
				inTV = true

			case "channel":
				if !inTV {
					continue
				}
				var raw xmlChannel
				if err := decoder.DecodeElement(&raw, &el); err != nil {
					continue
				}
				ch := decodeChannel(raw)
				id := ch.ID
				if opts.ResolveChannelID != nil {
					canonical, ok := opts.ResolveChannelID(id)
					if !ok {
						continue
					}
					id = canonical
					ch.ID = canonical
				}
				if existing, ok := result.Channels[id]; ok {
					existing.DisplayNames = append(existing.DisplayNames, ch.DisplayNames...)
					existing.Icons = append(existing.Icons, ch.Icons...)
					existing.URLs = append(existing.URLs, ch.URLs...)
				} else {
					result.Channels[id] = ch
				}

			case "programme":
				if !inTV {
					continue
				}
				var raw xmlProgramme
				if err := decoder.DecodeElement(&raw, &el); err != nil {
					continue
				}

				start, err := ParseDate(raw.Start)
				if err != nil {
					continue
				}
				stop, err := ParseDate(raw.Stop)
				if err != nil {
					continue
				}
				if opts.DSTActive {
					start = start.Add(-time.Hour)
					stop = stop.Add(-time.Hour)
				}

				channelID := raw.Channel
				if opts.ResolveChannelID != nil {
					canonical, ok := opts.ResolveChannelID(channelID)
					if !ok {
						continue
					}
					channelID = canonical
				}

				program := decodeProgramme(raw, channelID, start, stop)

				ch, ok := result.Channels[channelID]
				if !ok {
					ch = &Channel{ID: channelID}
					result.Channels[channelID] = ch
				}
				insertSorted(ch, program)
				result.ChannelsWithPrograms[channelID] = true

				if program.Stop.After(result.LatestProgramStop) {
					result.LatestProgramStop = program.Stop
				}
			}

		case xml.EndElement:
			if el.Name.Local == "tv" {
				inTV = false
			}
		}
	}

	return result, nil
}

// insertSorted inserts p into ch.Programs keeping the slice ordered by
// Start, matching the non-overlapping start-ordered invariant the rest
// of the engine relies on.
func insertSorted(ch *Channel, p *Program) {
	i := sort.Search(len(ch.Programs), func(i int) bool {
		return ch.Programs[i].Start.After(p.Start)
	})
	ch.Programs = append(ch.Programs, nil)
	copy(ch.Programs[i+1:], ch.Programs[i:])
	ch.Programs[i] = p
}

// ParseDate parses an XMLTV timestamp ("YYYYMMDDHHMMSS ±hhmm") into a
// UTC time.Time. A bare "YYYYMMDDHHMMSS" (no offset) is treated as UTC.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("xmltv: empty date")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		t, err = time.ParseInLocation("20060102150405", s, time.UTC)
		if err != nil {
			return time.Time{}, fmt.Errorf("xmltv: parse date %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// FormatDate renders t in the XMLTV "YYYYMMDDHHMMSS +0000" form, always
// in UTC, matching the emitter's output contract.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
