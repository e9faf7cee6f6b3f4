package timeline

import (
	"fmt"
	"sort"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/util"
)

// Mapper is the part of tube.Inventory the builder needs.
type Mapper interface {
	Map(p model.Pitch) (model.TubeIdentity, bool)
}

// Timeline holds the scheduling input: every accepted note as an interval on
// its tube, sorted for the sweep.
type Timeline struct {
	Tubes       map[model.TubeIdentity][]model.Interval
	Diagnostics model.Diagnostics
	Accepted    int
}

// TubeOrder lists the timeline's tubes in inventory order.
func (tl Timeline) TubeOrder() []model.TubeIdentity {
	return util.SortedKeysFunc(tl.Tubes, func(a, b model.TubeIdentity) bool {
		return a.Less(b)
	})
}

func (tl Timeline) Intervals() int {
	var n int
	for _, ivs := range tl.Tubes {
		n += len(ivs)
	}
	return n
}

// CheckNote reports why a note cannot be scheduled, or nil.
func CheckNote(n model.Note) error {
	if n.Duration <= 0 {
		return fmt.Errorf("non-positive duration %d", n.Duration)
	}
	if n.Onset < 0 {
		return fmt.Errorf("negative onset %d", n.Onset)
	}
	if !n.Pitch.Class.Valid() {
		return fmt.Errorf("pitch class %d out of range", n.Pitch.Class)
	}
	if n.Pitch.Octave < model.MinOctave || n.Pitch.Octave > model.MaxOctave {
		return fmt.Errorf("octave %d out of range", n.Pitch.Octave)
	}
	if !n.Pitch.Valid() {
		return fmt.Errorf("%s is above the midi range", n.Pitch.Name())
	}
	return nil
}

// Build turns the score's notes into per-tube intervals. A malformed note
// rejects its whole voice; unsupported pitches are skipped individually.
func Build(score model.Score, mapper Mapper) Timeline {
	tl := Timeline{Tubes: make(map[model.TubeIdentity][]model.Interval)}

	for _, voice := range score.Voices {
		var malformed model.Diagnostics
		for _, n := range voice.Notes {
			if err := CheckNote(n); err != nil {
				malformed = append(malformed, model.Diagnostic{
					Kind:   model.MalformedNote,
					Detail: err.Error(),
					Notes:  []model.Note{n},
				})
			}
		}
		if len(malformed) > 0 {
			tl.Diagnostics = append(tl.Diagnostics, malformed...)
			continue
		}

		for _, n := range voice.Notes {
			t, ok := mapper.Map(n.Pitch)
			if !ok {
				tl.Diagnostics = append(tl.Diagnostics, model.Diagnostic{
					Kind:   model.UnsupportedPitch,
					Detail: "no tube in the inventory plays this pitch",
					Notes:  []model.Note{n},
				})
				continue
			}
			tl.Tubes[t] = append(tl.Tubes[t], model.Interval{
				Tube:   t,
				Onset:  n.Onset,
				Offset: n.Offset(),
				Note:   n,
			})
			tl.Accepted++
		}
	}

	for _, ivs := range tl.Tubes {
		sort.SliceStable(ivs, func(i, j int) bool {
			return model.IntervalLess(ivs[i], ivs[j])
		})
	}
	return tl
}
