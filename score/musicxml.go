package score

import (
	"bytes"
	"encoding/xml"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/util"
)

type xmlDoc struct {
	XMLName       xml.Name `xml:"score-partwise"`
	WorkTitle     string   `xml:"work>work-title"`
	MovementTitle string   `xml:"movement-title"`
	Creators      []struct {
		Type string `xml:"type,attr"`
		Name string `xml:",chardata"`
	} `xml:"identification>creator"`
	ScoreParts []struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"part-name"`
	} `xml:"part-list>score-part"`
	Parts []xmlPart `xml:"part"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number   string    `xml:"number,attr"`
	Elements []xmlElem `xml:",any"`
}

// xmlElem covers every measure child we read; XMLName says which one it is.
type xmlElem struct {
	XMLName xml.Name

	// note, backup, forward
	Chord    *struct{} `xml:"chord"`
	Rest     *struct{} `xml:"rest"`
	Grace    *struct{} `xml:"grace"`
	Cue      *struct{} `xml:"cue"`
	Pitch    *xmlPitch `xml:"pitch"`
	Duration int       `xml:"duration"`
	Voice    string    `xml:"voice"`
	Ties     []struct {
		Type string `xml:"type,attr"`
	} `xml:"tie"`

	// attributes
	Divisions int  `xml:"divisions"`
	Fifths    *int `xml:"key>fifths"`
	Time      *struct {
		Beats    string `xml:"beats"`
		BeatType string `xml:"beat-type"`
	} `xml:"time"`

	// direction, or a bare sound
	Sound *struct {
		Tempo string `xml:"tempo,attr"`
	} `xml:"sound"`
	Tempo  string `xml:"tempo,attr"`
	Offset int    `xml:"offset"`
}

type xmlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

func (e xmlElem) tie(kind string) bool {
	for _, t := range e.Ties {
		if t.Type == kind {
			return true
		}
	}
	return false
}

type voiceKey struct {
	part  int
	voice int
}

type openTie struct {
	note int // index into the voice's notes
}

type voiceBuilder struct {
	name  string
	notes []model.Note
	ties  map[int]openTie // keyed by semitones
}

// ReadMusicXML parses an uncompressed score-partwise document. All parts are
// put on one tick grid whose division is the least common multiple of every
// <divisions> value in the file.
func ReadMusicXML(data []byte) (model.Score, error) {
	var doc xmlDoc
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return model.Score{}, errors.Wrap(err, "file contains invalid MusicXML")
	}
	if len(doc.Parts) == 0 {
		return model.Score{}, errors.New("MusicXML has no parts")
	}

	res := model.Score{Title: doc.WorkTitle}
	if res.Title == "" {
		res.Title = doc.MovementTitle
	}
	for _, c := range doc.Creators {
		if c.Type == "composer" {
			res.Composer = strings.TrimSpace(c.Name)
		}
	}
	partNames := make(map[string]string)
	for _, sp := range doc.ScoreParts {
		partNames[sp.ID] = strings.TrimSpace(sp.Name)
	}

	division := 0
	for _, part := range doc.Parts {
		for _, m := range part.Measures {
			for _, e := range m.Elements {
				if e.XMLName.Local == "attributes" && e.Divisions > 0 {
					if division == 0 {
						division = e.Divisions
					} else {
						division = util.LCM(division, e.Divisions)
					}
				}
			}
		}
	}
	if division == 0 {
		return model.Score{}, errors.New("couldn't load 'divisions' for any part")
	}
	res.Division = division

	voices := make(map[voiceKey]*voiceBuilder)
	tempos := make(map[model.Ticks]float64)
	haveTime, haveKey := false, false

	for pi, part := range doc.Parts {
		var (
			scale        model.Ticks
			measureStart model.Ticks
			lastOnset    model.Ticks
		)
		for mi, m := range part.Measures {
			measureNum, err := strconv.Atoi(m.Number)
			if err != nil {
				measureNum = mi + 1
			}
			cursor := measureStart
			furthest := measureStart

			for _, e := range m.Elements {
				switch e.XMLName.Local {
				case "attributes":
					if e.Divisions > 0 {
						scale = model.Ticks(division / e.Divisions)
					}
					if e.Time != nil && !haveTime {
						beats, errB := strconv.Atoi(strings.TrimSpace(e.Time.Beats))
						beatType, errT := strconv.Atoi(strings.TrimSpace(e.Time.BeatType))
						if errB == nil && errT == nil && beats > 0 && beatType > 0 {
							res.Beats, res.BeatType = beats, beatType
							haveTime = true
						}
					}
					if e.Fifths != nil && !haveKey {
						res.KeyFifths = *e.Fifths
						haveKey = true
					}
				case "direction", "sound":
					tempo := e.Tempo
					if e.Sound != nil {
						tempo = e.Sound.Tempo
					}
					if tempo == "" {
						continue
					}
					bpm, err := strconv.ParseFloat(strings.TrimSpace(tempo), 64)
					if err != nil {
						return model.Score{}, errors.Wrapf(err, "error loading tempo mark in measure %d of part %d", measureNum, pi+1)
					}
					at := cursor + model.Ticks(e.Offset)*scale
					if at < 0 {
						at = 0
					}
					tempos[at] = bpm
				case "backup":
					cursor -= model.Ticks(e.Duration) * scale
					if cursor < measureStart {
						cursor = measureStart
					}
				case "forward":
					cursor += model.Ticks(e.Duration) * scale
				case "note":
					if scale == 0 {
						return model.Score{}, errors.Errorf("couldn't load 'divisions' for part %d", pi+1)
					}
					if e.Grace != nil || e.Cue != nil {
						continue
					}
					dur := model.Ticks(e.Duration) * scale
					onset := cursor
					if e.Chord != nil {
						onset = lastOnset
					} else {
						cursor += dur
						lastOnset = onset
					}
					if e.Pitch == nil {
						if e.Rest == nil {
							return model.Score{}, errors.Errorf("note without pitch or rest in measure %d of part %d", measureNum, pi+1)
						}
						break
					}
					p, err := model.PitchFromStep(e.Pitch.Step, int(e.Pitch.Alter), e.Pitch.Octave)
					if err != nil {
						return model.Score{}, errors.Wrapf(err, "error loading note in measure %d of part %d", measureNum, pi+1)
					}
					voiceNum, err := strconv.Atoi(strings.TrimSpace(e.Voice))
					if err != nil {
						voiceNum = 1
					}
					key := voiceKey{part: pi, voice: voiceNum}
					vb := voices[key]
					if vb == nil {
						vb = &voiceBuilder{name: voiceName(partNames[part.ID], part.ID, voiceNum), ties: make(map[int]openTie)}
						voices[key] = vb
					}
					vb.add(model.Note{Pitch: p, Onset: onset, Duration: dur, Measure: measureNum}, e.tie("start"), e.tie("stop"))
				}
				if cursor > furthest {
					furthest = cursor
				}
			}
			measureStart = furthest
		}
	}

	keys := make([]voiceKey, 0, len(voices))
	for k := range voices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].part != keys[j].part {
			return keys[i].part < keys[j].part
		}
		return keys[i].voice < keys[j].voice
	})
	for i, k := range keys {
		vb := voices[k]
		sort.SliceStable(vb.notes, func(a, b int) bool {
			return vb.notes[a].Onset < vb.notes[b].Onset
		})
		res.Voices = append(res.Voices, model.Voice{ID: i + 1, Name: vb.name, Notes: vb.notes})
	}
	for _, at := range util.SortedKeys(tempos) {
		res.Tempos = append(res.Tempos, model.Tempo{At: at, BPM: tempos[at]})
	}
	res.Normalize()
	return res, nil
}

// add appends a note, folding a tie continuation into the note it continues.
func (vb *voiceBuilder) add(n model.Note, tieStart, tieStop bool) {
	semis := n.Pitch.Semitones()
	if tieStop {
		if open, ok := vb.ties[semis]; ok && vb.notes[open.note].Offset() == n.Onset {
			vb.notes[open.note].Duration += n.Duration
			if !tieStart {
				delete(vb.ties, semis)
			}
			return
		}
	}
	vb.notes = append(vb.notes, n)
	if tieStart {
		vb.ties[semis] = openTie{note: len(vb.notes) - 1}
	}
}

func voiceName(partName, partID string, voice int) string {
	name := partName
	if name == "" {
		name = partID
	}
	return name + " voice " + strconv.Itoa(voice)
}
