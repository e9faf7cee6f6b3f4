package model

import (
	"fmt"
	"strings"
)

// PitchClass is a semitone offset from C, 0 through 11.
type PitchClass uint8

const NumPitchClasses = 12

const (
	MinOctave = -1
	MaxOctave = 9

	// highest pitch a MIDI key can hold, G9
	MaxSemitones = 127 - NumPitchClasses
)

var noteNamesSharps = [NumPitchClasses]string{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

var noteNamesFlats = [NumPitchClasses]string{
	"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B",
}

var stepSemitones = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

func (c PitchClass) Valid() bool {
	return c < NumPitchClasses
}

func (c PitchClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("PitchClass(%d)", uint8(c))
	}
	return noteNamesSharps[c]
}

func (c PitchClass) FlatName() string {
	if !c.Valid() {
		return c.String()
	}
	return noteNamesFlats[c]
}

// ParsePitchClass accepts sharp or flat spellings ("C#", "Db", "Bb").
func ParsePitchClass(s string) (PitchClass, error) {
	s = strings.TrimSpace(s)
	for i := range noteNamesSharps {
		if strings.EqualFold(noteNamesSharps[i], s) || strings.EqualFold(noteNamesFlats[i], s) {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pitch class %q", s)
}

// Pitch is a pitch class in a given octave. Octave 4 holds middle C.
type Pitch struct {
	Class  PitchClass `json:"class"`
	Octave int        `json:"octave"`
}

func (p Pitch) Valid() bool {
	return p.Class.Valid() && p.Octave >= MinOctave && p.Octave <= MaxOctave &&
		p.Semitones() <= MaxSemitones
}

// Semitones counts semitones above C0.
func (p Pitch) Semitones() int {
	return p.Octave*NumPitchClasses + int(p.Class)
}

func (p Pitch) MIDIKey() uint8 {
	return uint8(p.Semitones() + NumPitchClasses)
}

func (p Pitch) Name() string {
	return fmt.Sprintf("%v%d", p.Class, p.Octave)
}

func (p Pitch) FlatName() string {
	return fmt.Sprintf("%v%d", p.Class.FlatName(), p.Octave)
}

func (p Pitch) String() string {
	return p.Name()
}

func PitchFromSemitones(semis int) Pitch {
	octave := floorDiv(semis, NumPitchClasses)
	return Pitch{Class: PitchClass(semis - octave*NumPitchClasses), Octave: octave}
}

func PitchFromMIDIKey(key uint8) Pitch {
	return PitchFromSemitones(int(key) - NumPitchClasses)
}

// PitchFromStep builds a pitch from a MusicXML style step/alter/octave triple.
// Alterations may carry the pitch across an octave boundary (B#3 is C4).
func PitchFromStep(step string, alter int, octave int) (Pitch, error) {
	semis, ok := stepSemitones[strings.ToUpper(strings.TrimSpace(step))]
	if !ok {
		return Pitch{}, fmt.Errorf("unknown step %q", step)
	}
	return PitchFromSemitones(octave*NumPitchClasses + semis + alter), nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
