package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TubeIdentity is a kind of tube, not a physical instance of one. Band 0 is
// the standard octave; positive bands are the shorter high tubes and negative
// bands the long (or capped) low ones.
type TubeIdentity struct {
	Class PitchClass `json:"class"`
	Band  int        `json:"band"`
}

type tubeColor struct {
	name string
	hex  string
}

// Matches the usual boomwhacker colour coding.
var tubeColors = [NumPitchClasses]tubeColor{
	{"red", "#E4202A"},
	{"red-orange", "#F05A28"},
	{"orange", "#F7931E"},
	{"amber", "#FBB040"},
	{"yellow", "#F9E31C"},
	{"lime", "#8DC63F"},
	{"teal", "#00A99D"},
	{"green", "#009444"},
	{"turquoise", "#27AAE1"},
	{"purple", "#662D91"},
	{"violet", "#92278F"},
	{"magenta", "#D4145A"},
}

func (t TubeIdentity) Color() string {
	if !t.Class.Valid() {
		return "unknown"
	}
	return tubeColors[t.Class].name
}

func (t TubeIdentity) Hex() string {
	if !t.Class.Valid() {
		return "#000000"
	}
	return tubeColors[t.Class].hex
}

// Name is the short inventory name: "C", "F#", "C+1", "A-1".
func (t TubeIdentity) Name() string {
	if t.Band == 0 {
		return t.Class.String()
	}
	return fmt.Sprintf("%v%+d", t.Class, t.Band)
}

func (t TubeIdentity) String() string {
	var prefix string
	switch {
	case t.Band > 1:
		prefix = fmt.Sprintf("high(%d) ", t.Band)
	case t.Band == 1:
		prefix = "high "
	case t.Band == -1:
		prefix = "low "
	case t.Band < -1:
		prefix = fmt.Sprintf("low(%d) ", -t.Band)
	}
	return fmt.Sprintf("%s%s %v", prefix, t.Color(), t.Class)
}

// Pitch returns the sounding pitch of the tube given the octave of band 0.
func (t TubeIdentity) Pitch(baseOctave int) Pitch {
	return Pitch{Class: t.Class, Octave: baseOctave + t.Band}
}

func (t TubeIdentity) Less(o TubeIdentity) bool {
	if t.Band != o.Band {
		return t.Band < o.Band
	}
	return t.Class < o.Class
}

// ParseTubeIdentity reverses Name.
func ParseTubeIdentity(s string) (TubeIdentity, error) {
	s = strings.TrimSpace(s)
	cut := strings.IndexAny(s, "+-")
	if cut <= 0 {
		class, err := ParsePitchClass(s)
		if err != nil {
			return TubeIdentity{}, err
		}
		return TubeIdentity{Class: class}, nil
	}
	class, err := ParsePitchClass(s[:cut])
	if err != nil {
		return TubeIdentity{}, err
	}
	band, err := strconv.Atoi(s[cut:])
	if err != nil {
		return TubeIdentity{}, fmt.Errorf("tube %q: bad band: %w", s, err)
	}
	return TubeIdentity{Class: class, Band: band}, nil
}

// SortTubes orders tubes low band first, then by pitch class.
func SortTubes(tubes []TubeIdentity) {
	sort.Slice(tubes, func(i, j int) bool {
		return tubes[i].Less(tubes[j])
	})
}
