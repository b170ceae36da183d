package xmltv

import (
	"strconv"
	"time"
)

// The xml* structs below are the raw decode targets for one <channel> or
// <programme> element, covering the full XMLTV element set named in the
// data model. decodeChannel/decodeProgramme translate them into the
// engine's own Channel/Program types.

type xmlText struct {
	Lang  string `xml:"lang,attr"`
	Value string `xml:",chardata"`
}

type xmlIcon struct {
	Src    string `xml:"src,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

type xmlChannel struct {
	ID          string    `xml:"id,attr"`
	DisplayName []xmlText `xml:"display-name"`
	Icon        []xmlIcon `xml:"icon"`
	URL         []string  `xml:"url"`
}

type xmlCredit struct {
	Value string `xml:",chardata"`
	Role  string `xml:"role,attr"`
}

type xmlLength struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

type xmlVideo struct {
	Present string `xml:"present"`
	Colour  string `xml:"colour"`
	Aspect  string `xml:"aspect"`
	Quality string `xml:"quality"`
}

type xmlAudio struct {
	Present string `xml:"present"`
	Stereo  string `xml:"stereo"`
}

type xmlPreviouslyShown struct {
	Start   string `xml:"start,attr"`
	Channel string `xml:"channel,attr"`
}

type xmlRating struct {
	System string    `xml:"system,attr"`
	Value  string    `xml:"value"`
	Icon   []xmlIcon `xml:"icon"`
}

type xmlStarRating struct {
	Value string    `xml:"value"`
	Icon  []xmlIcon `xml:"icon"`
}

type xmlSubtitles struct {
	Type     string `xml:"type,attr"`
	Language string `xml:"language"`
}

type xmlCredits struct {
	Actor       []xmlCredit `xml:"actor"`
	Director    []xmlCredit `xml:"director"`
	Writer      []xmlCredit `xml:"writer"`
	Producer    []xmlCredit `xml:"producer"`
	Composer    []xmlCredit `xml:"composer"`
	Editor      []xmlCredit `xml:"editor"`
	Adapter     []xmlCredit `xml:"adapter"`
	Presenter   []xmlCredit `xml:"presenter"`
	Commentator []xmlCredit `xml:"commentator"`
	Guest       []xmlCredit `xml:"guest"`
}

type xmlProgramme struct {
	Start   string `xml:"start,attr"`
	Stop    string `xml:"stop,attr"`
	Channel string `xml:"channel,attr"`

	Title       []xmlText `xml:"title"`
	SubTitle    []xmlText `xml:"sub-title"`
	Desc        []xmlText `xml:"desc"`
	Credits     xmlCredits `xml:"credits"`
	Date        string    `xml:"date"`
	Category    []string  `xml:"category"`
	Keyword     []string  `xml:"keyword"`
	Language    string    `xml:"language"`
	OrigLang    string    `xml:"orig-language"`
	Length      *xmlLength `xml:"length"`
	Icon        []xmlIcon  `xml:"icon"`
	URL         []string   `xml:"url"`
	Country     []string   `xml:"country"`
	EpisodeNum  []string   `xml:"episode-num"`
	Video       *xmlVideo  `xml:"video"`
	Audio       *xmlAudio  `xml:"audio"`
	PreviouslyShown *xmlPreviouslyShown `xml:"previously-shown"`
	Premiere    *string    `xml:"premiere"`
	LastChance  *string    `xml:"last-chance"`
	New         *string    `xml:"new"`
	Subtitles   []xmlSubtitles `xml:"subtitles"`
	Rating      []xmlRating    `xml:"rating"`
	StarRating  []xmlStarRating `xml:"star-rating"`
	Review      []string   `xml:"review"`
	ShowView    string     `xml:"showview"`
	VideoPlus   string     `xml:"videoplus"`
	PDCStart    string     `xml:"pdc-start,attr"`
	VPSStart    string     `xml:"vps-start,attr"`
	ClumpIdx    string     `xml:"clumpidx,attr"`
}

func decodeChannel(raw xmlChannel) *Channel {
	ch := &Channel{ID: raw.ID}
	for _, dn := range raw.DisplayName {
		ch.DisplayNames = append(ch.DisplayNames, Text{Value: dn.Value, Lang: dn.Lang})
	}
	for _, ic := range raw.Icon {
		ch.Icons = append(ch.Icons, decodeIcon(ic))
	}
	ch.URLs = append(ch.URLs, raw.URL...)
	return ch
}

func decodeIcon(ic xmlIcon) Icon {
	w, _ := strconv.Atoi(ic.Width)
	h, _ := strconv.Atoi(ic.Height)
	return Icon{Src: ic.Src, Width: w, Height: h}
}

func decodeTexts(raw []xmlText) []Text {
	texts := make([]Text, 0, len(raw))
	for _, t := range raw {
		texts = append(texts, Text{Value: t.Value, Lang: t.Lang})
	}
	return texts
}

func decodeCredits(raw []xmlCredit) []Credit {
	credits := make([]Credit, 0, len(raw))
	for _, c := range raw {
		credits = append(credits, Credit{Name: c.Value, Role: c.Role})
	}
	return credits
}

func decodeRatings(raw []xmlRating) []Rating {
	ratings := make([]Rating, 0, len(raw))
	for _, r := range raw {
		icons := make([]Icon, 0, len(r.Icon))
		for _, ic := range r.Icon {
			icons = append(icons, decodeIcon(ic))
		}
		ratings = append(ratings, Rating{System: r.System, Value: r.Value, Icons: icons})
	}
	return ratings
}

func decodeStarRatings(raw []xmlStarRating) []StarRating {
	ratings := make([]StarRating, 0, len(raw))
	for _, r := range raw {
		icons := make([]Icon, 0, len(r.Icon))
		for _, ic := range r.Icon {
			icons = append(icons, decodeIcon(ic))
		}
		ratings = append(ratings, StarRating{Value: r.Value, Icons: icons})
	}
	return ratings
}

func decodeSubtitles(raw []xmlSubtitles) []Subtitle {
	subs := make([]Subtitle, 0, len(raw))
	for _, s := range raw {
		subs = append(subs, Subtitle{Type: s.Type, Language: s.Language})
	}
	return subs
}

func decodeProgramme(raw xmlProgramme, channelID string, start, stop time.Time) *Program {
	p := &Program{
		Channel:      channelID,
		Start:        start,
		Stop:         stop,
		Titles:       decodeTexts(raw.Title),
		SubTitles:    decodeTexts(raw.SubTitle),
		Descriptions: decodeTexts(raw.Desc),
		Categories:   raw.Category,
		Keywords:     raw.Keyword,
		EpisodeNums:  raw.EpisodeNum,
		Countries:    raw.Country,
		URLs:         raw.URL,
		Date:         raw.Date,
		Language:     raw.Language,
		OrigLanguage: raw.OrigLang,
		New:          raw.New != nil,
		ShowView:     raw.ShowView,
		VideoPlus:    raw.VideoPlus,
		PDCStart:     raw.PDCStart,
		VPSStart:     raw.VPSStart,
		ClumpIdx:     raw.ClumpIdx,

		Actors:       decodeCredits(raw.Credits.Actor),
		Directors:    decodeCredits(raw.Credits.Director),
		Writers:      decodeCredits(raw.Credits.Writer),
		Producers:    decodeCredits(raw.Credits.Producer),
		Composers:    decodeCredits(raw.Credits.Composer),
		Editors:      decodeCredits(raw.Credits.Editor),
		Adapters:     decodeCredits(raw.Credits.Adapter),
		Presenters:   decodeCredits(raw.Credits.Presenter),
		Commentators: decodeCredits(raw.Credits.Commentator),
		Guests:       decodeCredits(raw.Credits.Guest),

		Ratings:     decodeRatings(raw.Rating),
		StarRatings: decodeStarRatings(raw.StarRating),
		Reviews:     raw.Review,
		Subtitles:   decodeSubtitles(raw.Subtitles),
	}

	for _, ic := range raw.Icon {
		p.Icons = append(p.Icons, decodeIcon(ic))
	}

	if raw.Length != nil {
		p.Length = &Length{Units: raw.Length.Units, Value: raw.Length.Value}
	}
	if raw.Video != nil {
		p.Video = &Video{
			Present: raw.Video.Present != "",
			Colour:  raw.Video.Colour,
			Aspect:  raw.Video.Aspect,
			Quality: raw.Video.Quality,
		}
	}
	if raw.Audio != nil {
		p.Audio = &Audio{
			Present: raw.Audio.Present != "",
			Stereo:  raw.Audio.Stereo,
		}
	}
	if raw.PreviouslyShown != nil {
		p.PreviouslyShown = &PreviouslyShown{
			Start:   raw.PreviouslyShown.Start,
			Channel: raw.PreviouslyShown.Channel,
		}
	}
	if raw.Premiere != nil {
		p.Premiere = *raw.Premiere
	}
	if raw.LastChance != nil {
		p.LastChance = *raw.LastChance
	}

	return p
}
