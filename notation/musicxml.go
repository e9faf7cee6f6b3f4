package notation

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/util"
)

const musicXMLDoctype = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` + "\n"

// MusicXML writes a single-part score-partwise document. Every note is
// coloured like its tube and carries the tube's name as a lyric.
type MusicXML struct{}

func (MusicXML) Name() string { return "musicxml" }
func (MusicXML) Ext() string  { return ".musicxml" }

type xScore struct {
	XMLName        xml.Name         `xml:"score-partwise"`
	Version        string           `xml:"version,attr"`
	Work           *xWork           `xml:"work,omitempty"`
	Identification *xIdentification `xml:"identification,omitempty"`
	PartList       struct {
		ScorePart struct {
			ID   string `xml:"id,attr"`
			Name string `xml:"part-name"`
		} `xml:"score-part"`
	} `xml:"part-list"`
	Part struct {
		ID       string     `xml:"id,attr"`
		Measures []xMeasure `xml:"measure"`
	} `xml:"part"`
}

type xWork struct {
	Title string `xml:"work-title"`
}

type xIdentification struct {
	Creator struct {
		Type string `xml:"type,attr"`
		Name string `xml:",chardata"`
	} `xml:"creator"`
}

type xMeasure struct {
	Number int `xml:"number,attr"`
	// attributes, directions, notes and backups in document order
	Items []any
}

type xAttributes struct {
	XMLName   xml.Name `xml:"attributes"`
	Divisions int      `xml:"divisions"`
	Key       struct {
		Fifths int `xml:"fifths"`
	} `xml:"key"`
	Time struct {
		Beats    int `xml:"beats"`
		BeatType int `xml:"beat-type"`
	} `xml:"time"`
	Clef struct {
		Sign string `xml:"sign"`
		Line int    `xml:"line"`
	} `xml:"clef"`
}

type xDirection struct {
	XMLName   xml.Name `xml:"direction"`
	Placement string   `xml:"placement,attr"`
	Metronome struct {
		BeatUnit  string `xml:"beat-unit"`
		PerMinute string `xml:"per-minute"`
	} `xml:"direction-type>metronome"`
	Offset model.Ticks `xml:"offset,omitempty"`
	Sound  struct {
		Tempo string `xml:"tempo,attr"`
	} `xml:"sound"`
}

type xBackup struct {
	XMLName  xml.Name    `xml:"backup"`
	Duration model.Ticks `xml:"duration"`
}

type xNote struct {
	XMLName   xml.Name    `xml:"note"`
	Color     string      `xml:"color,attr,omitempty"`
	Chord     *struct{}   `xml:"chord"`
	Pitch     *xPitch     `xml:"pitch"`
	Rest      *xRest      `xml:"rest"`
	Duration  model.Ticks `xml:"duration"`
	Ties      []xTie      `xml:"tie"`
	Voice     int         `xml:"voice"`
	Type      string      `xml:"type,omitempty"`
	Dot       *struct{}   `xml:"dot"`
	Notehead  string      `xml:"notehead,omitempty"`
	Notations *struct {
		Tied []xTie `xml:"tied"`
	} `xml:"notations"`
	Lyric *xLyric `xml:"lyric"`
}

type xPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

type xRest struct {
	Measure string `xml:"measure,attr,omitempty"`
}

type xTie struct {
	Type string `xml:"type,attr"`
}

type xLyric struct {
	Number   string `xml:"number,attr"`
	Syllabic string `xml:"syllabic"`
	Text     string `xml:"text"`
}

// chordGroup is one attack: notes of the same voice sharing onset and
// duration.
type chordGroup struct {
	onset model.Ticks
	dur   model.Ticks
	notes []model.PartNote
}

func (g chordGroup) end() model.Ticks { return g.onset + g.dur }

// lane is a run of non-overlapping chord groups written as one MusicXML voice.
type lane []chordGroup

type noteValue struct {
	ticks  model.Ticks
	typ    string
	dotted bool
}

var noteTypes = []string{"whole", "half", "quarter", "eighth", "16th", "32nd", "64th"}

func (MusicXML) Write(w io.Writer, part model.Part, hdr Header) error {
	measureLen, err := hdr.measureTicks()
	if err != nil {
		return err
	}
	values := noteValues(hdr.Division)

	end := hdr.End
	for _, pn := range part.Notes {
		end = util.Max(end, pn.Note.Offset())
	}
	numMeasures := int((end + measureLen - 1) / measureLen)
	if numMeasures == 0 {
		numMeasures = 1
	}

	var doc xScore
	doc.Version = "3.1"
	if hdr.Title != "" {
		doc.Work = &xWork{Title: hdr.Title}
	}
	if hdr.Composer != "" {
		doc.Identification = &xIdentification{}
		doc.Identification.Creator.Type = "composer"
		doc.Identification.Creator.Name = hdr.Composer
	}
	doc.PartList.ScorePart.ID = "P1"
	doc.PartList.ScorePart.Name = part.Label
	doc.Part.ID = "P1"

	lanes := buildLanes(part.Notes)
	flats := hdr.KeyFifths < 0

	for m := 0; m < numMeasures; m++ {
		ms := model.Ticks(m) * measureLen
		me := ms + measureLen
		xm := xMeasure{Number: m + 1}
		if m == 0 {
			attrs := xAttributes{Divisions: hdr.Division}
			attrs.Key.Fifths = hdr.KeyFifths
			attrs.Time.Beats, attrs.Time.BeatType = hdr.Beats, hdr.BeatType
			if attrs.Time.Beats <= 0 || attrs.Time.BeatType <= 0 {
				attrs.Time.Beats, attrs.Time.BeatType = 4, 4
			}
			attrs.Clef.Sign, attrs.Clef.Line = "G", 2
			xm.Items = append(xm.Items, attrs)
		}
		for _, t := range hdr.Tempos {
			if t.At < ms || t.At >= me {
				continue
			}
			d := xDirection{Placement: "above", Offset: t.At - ms}
			d.Metronome.BeatUnit = "quarter"
			d.Metronome.PerMinute = strconv.FormatFloat(t.BPM, 'f', -1, 64)
			d.Sound.Tempo = d.Metronome.PerMinute
			xm.Items = append(xm.Items, d)
		}

		wrote := false
		for li, l := range lanes {
			items, err := l.measure(li+1, ms, me, values, flats)
			if err != nil {
				return errors.Wrapf(err, "measure %d", m+1)
			}
			if items == nil {
				continue
			}
			if wrote {
				xm.Items = append(xm.Items, xBackup{Duration: measureLen})
			}
			xm.Items = append(xm.Items, items...)
			wrote = true
		}
		if !wrote {
			xm.Items = append(xm.Items, xNote{Rest: &xRest{Measure: "yes"}, Duration: measureLen, Voice: 1})
		}
		doc.Part.Measures = append(doc.Part.Measures, xm)
	}

	if _, err := io.WriteString(w, xml.Header+musicXMLDoctype); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "error encoding MusicXML")
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// buildLanes groups notes by source voice, folds equal attacks into chords
// and spreads overlapping chords over as many lanes as the voice needs.
func buildLanes(notes []model.PartNote) []lane {
	byVoice := make(map[int][]model.PartNote)
	for _, pn := range notes {
		byVoice[pn.Note.Voice] = append(byVoice[pn.Note.Voice], pn)
	}

	var res []lane
	for _, v := range util.SortedKeys(byVoice) {
		vn := byVoice[v]
		sort.SliceStable(vn, func(i, j int) bool {
			a, b := vn[i].Note, vn[j].Note
			if a.Onset != b.Onset {
				return a.Onset < b.Onset
			}
			if a.Duration != b.Duration {
				return a.Duration < b.Duration
			}
			return a.Pitch.Semitones() < b.Pitch.Semitones()
		})

		var groups []chordGroup
		for _, pn := range vn {
			if k := len(groups) - 1; k >= 0 && groups[k].onset == pn.Note.Onset && groups[k].dur == pn.Note.Duration {
				groups[k].notes = append(groups[k].notes, pn)
				continue
			}
			groups = append(groups, chordGroup{onset: pn.Note.Onset, dur: pn.Note.Duration, notes: []model.PartNote{pn}})
		}

		var voiceLanes []lane
		for _, g := range groups {
			placed := false
			for i := range voiceLanes {
				if voiceLanes[i][len(voiceLanes[i])-1].end() <= g.onset {
					voiceLanes[i] = append(voiceLanes[i], g)
					placed = true
					break
				}
			}
			if !placed {
				voiceLanes = append(voiceLanes, lane{g})
			}
		}
		res = append(res, voiceLanes...)
	}
	return res
}

// measure renders the lane's share of [ms, me). It returns nil when the lane
// has nothing sounding in the measure; otherwise the items fill it exactly.
func (l lane) measure(voice int, ms, me model.Ticks, values []noteValue, flats bool) ([]any, error) {
	var items []any
	cursor := ms
	rest := func(to model.Ticks) error {
		pieces, err := split(to-cursor, values)
		if err != nil {
			return err
		}
		for _, v := range pieces {
			n := xNote{Rest: &xRest{}, Duration: v.ticks, Voice: voice, Type: v.typ}
			if v.dotted {
				n.Dot = &struct{}{}
			}
			items = append(items, n)
		}
		cursor = to
		return nil
	}

	for _, g := range l {
		if g.end() <= ms || g.onset >= me {
			continue
		}
		start, stop := util.Max(g.onset, ms), util.Min(g.end(), me)
		if start > cursor {
			if err := rest(start); err != nil {
				return nil, err
			}
		}
		pieces, err := split(stop-start, values)
		if err != nil {
			return nil, err
		}
		for pi, v := range pieces {
			tieStop := pi > 0 || g.onset < start
			tieStart := pi < len(pieces)-1 || g.end() > stop
			for ni, pn := range g.notes {
				n := xNote{
					Color:    pn.Tube.Hex(),
					Pitch:    spell(pn.Note.Pitch, flats),
					Duration: v.ticks,
					Voice:    voice,
					Type:     v.typ,
				}
				if ni > 0 {
					n.Chord = &struct{}{}
				}
				if v.dotted {
					n.Dot = &struct{}{}
				}
				if pn.Overbooked {
					n.Notehead = "diamond"
				}
				if tieStop || tieStart {
					n.Notations = &struct {
						Tied []xTie `xml:"tied"`
					}{}
					if tieStop {
						n.Ties = append(n.Ties, xTie{Type: "stop"})
						n.Notations.Tied = append(n.Notations.Tied, xTie{Type: "stop"})
					}
					if tieStart {
						n.Ties = append(n.Ties, xTie{Type: "start"})
						n.Notations.Tied = append(n.Notations.Tied, xTie{Type: "start"})
					}
				}
				if !tieStop {
					n.Lyric = &xLyric{Number: strconv.Itoa(ni + 1), Syllabic: "single", Text: pn.Tube.Name()}
				}
				items = append(items, n)
			}
		}
		cursor = stop
	}
	if items == nil {
		return nil, nil
	}
	if cursor < me {
		if err := rest(me); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// noteValues lists the plain and dotted values expressible at the given
// division, longest first.
func noteValues(division int) []noteValue {
	whole := model.Ticks(4 * division)
	var res []noteValue
	for k, typ := range noteTypes {
		if whole%(1<<k) != 0 {
			break
		}
		v := whole >> k
		if k+1 < len(noteTypes) && whole%(1<<(k+1)) == 0 {
			res = append(res, noteValue{ticks: v + v/2, typ: typ, dotted: true})
		}
		res = append(res, noteValue{ticks: v, typ: typ})
	}
	return res
}

func split(d model.Ticks, values []noteValue) ([]noteValue, error) {
	var res []noteValue
	for d > 0 {
		found := false
		for _, v := range values {
			if v.ticks <= d {
				res = append(res, v)
				d -= v.ticks
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %d ticks left over", ErrUnsupportedDuration, d)
		}
	}
	return res, nil
}

func spell(p model.Pitch, flats bool) *xPitch {
	name := p.Class.String()
	if flats {
		name = p.Class.FlatName()
	}
	res := &xPitch{Step: name[:1], Octave: p.Octave}
	if len(name) > 1 {
		if name[1] == '#' {
			res.Alter = 1
		} else {
			res.Alter = -1
		}
	}
	return res
}
