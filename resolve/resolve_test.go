package resolve

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/timeline"
	"github.com/jsphweid/boomparts/tube"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var red = model.TubeIdentity{Class: 0}

func interval(voice, index int, onset, offset model.Ticks) model.Interval {
	return model.Interval{
		Tube:   red,
		Onset:  onset,
		Offset: offset,
		Note: model.Note{
			Voice:    voice,
			Index:    index,
			Pitch:    model.Pitch{Class: 0, Octave: 4},
			Onset:    onset,
			Duration: offset - onset,
		},
	}
}

func sorted(ivs []model.Interval) []model.Interval {
	sort.SliceStable(ivs, func(i, j int) bool {
		return model.IntervalLess(ivs[i], ivs[j])
	})
	return ivs
}

// bruteDepth checks every onset: the largest clique of an interval graph
// always contains the interval starting last.
func bruteDepth(ivs []model.Interval) int {
	best := 0
	for _, probe := range ivs {
		n := 0
		for _, iv := range ivs {
			if iv.Onset <= probe.Onset && probe.Onset < iv.Offset {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return best
}

func randomIntervals(rng *rand.Rand, n int) []model.Interval {
	ivs := make([]model.Interval, n)
	for i := range ivs {
		onset := model.Ticks(rng.Intn(64))
		ivs[i] = interval(rng.Intn(4)+1, i, onset, onset+model.Ticks(rng.Intn(12)+1))
	}
	return sorted(ivs)
}

func TestOverlappingNotesConflictWithOneCopy(t *testing.T) {
	ivs := sorted([]model.Interval{interval(1, 0, 0, 2), interval(2, 0, 1, 3)})
	res := ResolveTube(red, ivs, 1)

	assert := assert.New(t)
	assert.False(res.Resolved())
	assert.Len(res.Slots, 2)
	assert.True(errors.Is(*res.Conflict, model.ErrIrresolvableTubeConflict))
	assert.Equal(2, res.Conflict.Required)
	assert.Equal(1, res.Conflict.Available)
	assert.Equal(red, *res.Conflict.Tube)
	assert.Len(res.Conflict.Notes, 2)
	assert.False(res.Slots[0].Overbooked)
	assert.True(res.Slots[1].Overbooked)
}

func TestOverlappingNotesResolveWithTwoCopies(t *testing.T) {
	ivs := sorted([]model.Interval{interval(1, 0, 0, 2), interval(2, 0, 1, 3)})
	res := ResolveTube(red, ivs, 2)

	assert := assert.New(t)
	assert.True(res.Resolved())
	assert.Len(res.Slots, 2)
	assert.Equal(1, res.Slots[0].Number)
	assert.Equal(2, res.Slots[1].Number)
	assert.Equal(1, res.Slots[0].Intervals[0].Note.Voice)
	assert.Equal(2, res.Slots[1].Intervals[0].Note.Voice)
}

func TestTouchingNotesShareOneSlot(t *testing.T) {
	ivs := sorted([]model.Interval{interval(1, 0, 0, 2), interval(1, 1, 2, 4), interval(2, 0, 4, 5)})
	res := ResolveTube(red, ivs, 1)

	assert.True(t, res.Resolved())
	assert.Len(t, res.Slots, 1)
	assert.Len(t, res.Slots[0].Intervals, 3)
}

func TestFirstFitReusesLowestSlot(t *testing.T) {
	ivs := sorted([]model.Interval{
		interval(1, 0, 0, 4),
		interval(2, 0, 1, 2),
		interval(3, 0, 1, 6),
		interval(2, 1, 4, 5),
	})
	res := ResolveTube(red, ivs, 3)

	// slot 1 frees at 4 and slot 2 at 2; the note at 4 goes to slot 1
	assert.Len(t, res.Slots, 3)
	assert.Equal(t, model.Ticks(4), res.Slots[0].Intervals[1].Onset)
	assert.Len(t, res.Slots[1].Intervals, 1)
}

func TestSlotCountMatchesOverlapDepth(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		ivs := randomIntervals(rng, rng.Intn(40)+1)
		res := ResolveTube(red, ivs, 1)

		want := bruteDepth(ivs)
		if len(res.Slots) != want {
			t.Fatalf("trial %d: got %d slots, max overlap is %d", trial, len(res.Slots), want)
		}
		if MaxDepth(ivs) != want {
			t.Fatalf("trial %d: MaxDepth %d, brute force %d", trial, MaxDepth(ivs), want)
		}
		if err := CheckSlots(res.Slots); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
	}
}

func TestEveryIntervalPlacedOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ivs := randomIntervals(rng, 60)
	res := ResolveTube(red, ivs, 1)

	seen := make(map[int]int)
	for _, s := range res.Slots {
		for _, iv := range s.Intervals {
			seen[iv.Note.Index]++
		}
	}
	assert.Len(t, seen, len(ivs))
	for idx, n := range seen {
		assert.Equal(t, 1, n, fmt.Sprintf("interval %d", idx))
	}
}

func TestCheckSlotsCatchesOverlap(t *testing.T) {
	bad := model.Slot{Tube: red, Number: 1, Intervals: []model.Interval{interval(1, 0, 0, 3), interval(1, 1, 2, 4)}}
	assert.Error(t, CheckSlots([]model.Slot{bad}))
}

func TestResolveIsDeterministicAcrossWorkers(t *testing.T) {
	inv, _ := tube.Standard(tube.SetChromatic, 4, true)
	rng := rand.New(rand.NewSource(3))
	s := model.Score{}
	for v := 1; v <= 4; v++ {
		voice := model.Voice{ID: v}
		for i := 0; i < 50; i++ {
			voice.Notes = append(voice.Notes, model.Note{
				Pitch:    model.PitchFromSemitones(48 + rng.Intn(12)),
				Onset:    model.Ticks(rng.Intn(200)),
				Duration: model.Ticks(rng.Intn(8) + 1),
			})
		}
		s.Voices = append(s.Voices, voice)
	}
	s.Normalize()
	tl := timeline.Build(s, inv)

	serial := Resolve(tl, Options{Workers: 1})
	parallel := Resolve(tl, Options{Workers: 8})
	assert.Equal(t, serial, parallel)
}

func TestResolveLogsConflicts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := model.Score{Voices: []model.Voice{
		{ID: 1, Notes: []model.Note{{Pitch: model.Pitch{Class: 0, Octave: 4}, Onset: 0, Duration: 2}}},
		{ID: 2, Notes: []model.Note{{Pitch: model.Pitch{Class: 0, Octave: 4}, Onset: 1, Duration: 2}}},
	}}
	s.Normalize()
	tl := timeline.Build(s, tube.Default())

	results := Resolve(tl, Options{Logger: zap.New(core)})
	assert.Len(t, Conflicts(results), 1)
	assert.Empty(t, Slots(results, false))
	assert.Len(t, Slots(results, true), 2)
	assert.Equal(t, 1, logs.FilterMessage("tube conflict").Len())
	assert.Zero(t, logs.FilterMessage("tube resolution failed").Len())
}

func TestCopiesOverridePerTube(t *testing.T) {
	s := model.Score{Voices: []model.Voice{
		{ID: 1, Notes: []model.Note{
			{Pitch: model.Pitch{Class: 0, Octave: 4}, Onset: 0, Duration: 2},
			{Pitch: model.Pitch{Class: 2, Octave: 4}, Onset: 0, Duration: 2},
		}},
		{ID: 2, Notes: []model.Note{
			{Pitch: model.Pitch{Class: 0, Octave: 4}, Onset: 0, Duration: 2},
			{Pitch: model.Pitch{Class: 2, Octave: 4}, Onset: 0, Duration: 2},
		}},
	}}
	s.Normalize()
	tl := timeline.Build(s, tube.Default())

	results := Resolve(tl, Options{Copies: func(t model.TubeIdentity) int {
		if t == red {
			return 2
		}
		return 1
	}})
	assert.True(t, results[0].Resolved())
	assert.False(t, results[1].Resolved())
}
