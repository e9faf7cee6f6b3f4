package perform

import (
	"testing"

	"github.com/jsphweid/boomparts/model"
	"github.com/stretchr/testify/assert"
)

func slot(class model.PitchClass, number int, spans ...[2]model.Ticks) model.Slot {
	t := model.TubeIdentity{Class: class}
	s := model.Slot{Tube: t, Number: number}
	for i, sp := range spans {
		s.Intervals = append(s.Intervals, model.Interval{
			Tube:   t,
			Onset:  sp[0],
			Offset: sp[1],
			Note: model.Note{
				Voice:    1,
				Index:    int(class)*100 + number*10 + i,
				Pitch:    model.Pitch{Class: class, Octave: 4},
				Onset:    sp[0],
				Duration: sp[1] - sp[0],
			},
		})
	}
	return s
}

func TestDisjointTubesShareOnePerformer(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 2}),
		slot(2, 1, [2]model.Ticks{2, 4}),
		slot(4, 1, [2]model.Ticks{4, 6}),
	}
	a := Assign(slots, Options{})

	assert := assert.New(t)
	assert.Len(a.Performers, 1)
	assert.Len(a.Performers[0].Bindings, 3)
	assert.Equal(2, a.NextID)
	assert.NoError(Check(a, slots))

	parts := BuildParts(a, slots, "Performer %d")
	assert.Len(parts, 1)
	assert.Equal("Performer 1", parts[0].Label)
	assert.Len(parts[0].Notes, 3)
	assert.Equal(model.TubeIdentity{Class: 0}, parts[0].Notes[0].Tube)
	assert.Equal(model.TubeIdentity{Class: 4}, parts[0].Notes[2].Tube)
}

func TestSpanPackingKeepsInterleavedSlotsApart(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 1}, [2]model.Ticks{4, 5}),
		slot(2, 1, [2]model.Ticks{2, 3}),
	}

	span := Assign(slots, Options{Packing: PackSpan})
	assert.Len(t, span.Performers, 2)

	note := Assign(slots, Options{Packing: PackNote})
	assert.Len(t, note.Performers, 1)
	assert.NoError(t, Check(note, slots))

	parts := BuildParts(note, slots, "P%d")
	var onsets []model.Ticks
	for _, n := range parts[0].Notes {
		onsets = append(onsets, n.Note.Onset)
	}
	assert.Equal(t, []model.Ticks{0, 2, 4}, onsets)
}

func TestNotePackingRejectsOverlap(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 3}),
		slot(2, 1, [2]model.Ticks{2, 4}),
	}
	a := Assign(slots, Options{Packing: PackNote})
	assert.Len(t, a.Performers, 2)
	assert.NoError(t, Check(a, slots))
}

func TestSwitchGap(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 2}),
		slot(2, 1, [2]model.Ticks{3, 4}),
	}
	assert.Len(t, Assign(slots, Options{SwitchGap: 1}).Performers, 1)
	assert.Len(t, Assign(slots, Options{SwitchGap: 2}).Performers, 2)
	assert.Len(t, Assign(slots, Options{Packing: PackNote, SwitchGap: 2}).Performers, 2)
}

func TestMaxTubesPerPerformer(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 1}),
		slot(2, 1, [2]model.Ticks{1, 2}),
		slot(4, 1, [2]model.Ticks{2, 3}),
	}
	a := Assign(slots, Options{MaxTubes: 2})
	assert.Len(t, a.Performers, 2)
	assert.Len(t, a.Performers[0].Bindings, 2)
	assert.Len(t, a.Performers[1].Bindings, 1)
}

func TestIDsThreadFromFirstID(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 2}),
		slot(0, 2, [2]model.Ticks{1, 3}),
	}
	a := Assign(slots, Options{FirstID: 10})
	assert.Equal(t, 10, a.Performers[0].ID)
	assert.Equal(t, 11, a.Performers[1].ID)
	assert.Equal(t, 12, a.NextID)

	b := Assign(slots, Options{FirstID: a.NextID})
	assert.Equal(t, 12, b.Performers[0].ID)
}

func TestSlotOrderTieBreak(t *testing.T) {
	// both start at 0: lower tube is bound first
	slots := []model.Slot{
		slot(7, 1, [2]model.Ticks{0, 2}),
		slot(0, 1, [2]model.Ticks{0, 2}),
	}
	a := Assign(slots, Options{})
	assert.Equal(t, model.PitchClass(0), a.Performers[0].Bindings[0].Slot.Tube.Class)
	assert.Equal(t, model.PitchClass(7), a.Performers[1].Bindings[0].Slot.Tube.Class)
}

func TestCheckCatchesDoubleBooking(t *testing.T) {
	slots := []model.Slot{
		slot(0, 1, [2]model.Ticks{0, 3}),
		slot(2, 1, [2]model.Ticks{2, 4}),
	}
	bad := Assignment{Performers: []model.Performer{{ID: 1, Bindings: []model.Binding{
		{Slot: slots[0].Ref()}, {Slot: slots[1].Ref()},
	}}}}
	assert.Error(t, Check(bad, slots))
}

func TestParsePacking(t *testing.T) {
	p, err := ParsePacking("note")
	assert.NoError(t, err)
	assert.Equal(t, PackNote, p)
	p, err = ParsePacking("")
	assert.NoError(t, err)
	assert.Equal(t, PackSpan, p)
	_, err = ParsePacking("tight")
	assert.Error(t, err)
}
