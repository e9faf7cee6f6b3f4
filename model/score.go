package model

import "fmt"

// Ticks measure score time. Score.Division ticks make one quarter note.
type Ticks int64

const DefaultDivision = 480

type Note struct {
	Voice    int   `json:"voice"`
	Index    int   `json:"index"`             // position within the voice
	Measure  int   `json:"measure,omitempty"` // 1-based, 0 when unknown
	Pitch    Pitch `json:"pitch"`
	Onset    Ticks `json:"onset"`
	Duration Ticks `json:"duration"`
}

func (n Note) Offset() Ticks {
	return n.Onset + n.Duration
}

// Location describes where the note came from for diagnostics.
func (n Note) Location() string {
	if n.Measure > 0 {
		return fmt.Sprintf("voice %d, note %d (measure %d)", n.Voice, n.Index+1, n.Measure)
	}
	return fmt.Sprintf("voice %d, note %d", n.Voice, n.Index+1)
}

// NoteLess orders notes by voice, then onset, then position in the voice.
func NoteLess(a, b Note) bool {
	if a.Voice != b.Voice {
		return a.Voice < b.Voice
	}
	if a.Onset != b.Onset {
		return a.Onset < b.Onset
	}
	return a.Index < b.Index
}

type Voice struct {
	ID    int    `json:"id"`
	Name  string `json:"name,omitempty"`
	Notes []Note `json:"notes"`
}

type Tempo struct {
	At  Ticks   `json:"at"`
	BPM float64 `json:"bpm"`
}

// Score is the parsed input: notes per voice on a shared tick grid.
type Score struct {
	Title     string  `json:"title,omitempty"`
	Composer  string  `json:"composer,omitempty"`
	Division  int     `json:"division"`
	Beats     int     `json:"beats,omitempty"`
	BeatType  int     `json:"beat_type,omitempty"`
	KeyFifths int     `json:"key_fifths,omitempty"`
	Tempos    []Tempo `json:"tempos,omitempty"`
	Voices    []Voice `json:"voices"`
}

// CheckVoices reports voice ids that would make two notes share a (voice,
// index) key: negative ids and ids used by more than one voice. Zero means
// unnamed and is numbered by Normalize.
func (s Score) CheckVoices() error {
	seen := make(map[int]bool, len(s.Voices))
	for vi, v := range s.Voices {
		if v.ID < 0 {
			return fmt.Errorf("voice %d: negative id %d", vi+1, v.ID)
		}
		if v.ID == 0 {
			continue
		}
		if seen[v.ID] {
			return fmt.Errorf("voice id %d is used more than once", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}

// Normalize fills zero values with 4/4 at DefaultDivision, numbers unnamed
// voices after the highest explicit id and stamps each note with its voice
// id and index.
func (s *Score) Normalize() {
	if s.Division <= 0 {
		s.Division = DefaultDivision
	}
	if s.Beats <= 0 || s.BeatType <= 0 {
		s.Beats, s.BeatType = 4, 4
	}
	var next int
	for _, v := range s.Voices {
		if v.ID > next {
			next = v.ID
		}
	}
	for vi := range s.Voices {
		v := &s.Voices[vi]
		if v.ID == 0 {
			next++
			v.ID = next
		}
		for ni := range v.Notes {
			v.Notes[ni].Voice = v.ID
			v.Notes[ni].Index = ni
		}
	}
}

// MeasureTicks is the length of one measure under the score's meter.
func (s Score) MeasureTicks() Ticks {
	return Ticks(s.Division * 4 * s.Beats / s.BeatType)
}

func (s Score) NoteCount() int {
	var n int
	for _, v := range s.Voices {
		n += len(v.Notes)
	}
	return n
}

// AllNotes flattens the score in voice order.
func (s Score) AllNotes() []Note {
	res := make([]Note, 0, s.NoteCount())
	for _, v := range s.Voices {
		res = append(res, v.Notes...)
	}
	return res
}

// Clone copies the voice and tempo slices so the copy can be normalized
// without touching the original.
func (s Score) Clone() Score {
	c := s
	c.Tempos = append([]Tempo(nil), s.Tempos...)
	c.Voices = make([]Voice, len(s.Voices))
	for i, v := range s.Voices {
		c.Voices[i] = v
		c.Voices[i].Notes = append([]Note(nil), v.Notes...)
	}
	return c
}
