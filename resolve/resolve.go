package resolve

import (
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/timeline"
)

// Resolution is the outcome for one tube: its slots, and a conflict when more
// copies are needed than are owned.
type Resolution struct {
	Tube     model.TubeIdentity
	Slots    []model.Slot
	Depth    int
	Copies   int
	Conflict *model.Diagnostic
}

func (r Resolution) Resolved() bool {
	return r.Conflict == nil
}

type Options struct {
	// Copies returns how many physical copies of a tube are owned.
	// Nil means one of each.
	Copies  func(model.TubeIdentity) int
	Workers int
	Logger  *zap.Logger
}

func (o Options) copies(t model.TubeIdentity) int {
	if o.Copies == nil {
		return 1
	}
	return o.Copies(t)
}

// ResolveTube places each interval on the lowest-numbered slot that is free
// at its onset, opening a new slot when none is. Intervals must already be in
// scheduling order (see model.IntervalLess).
func ResolveTube(t model.TubeIdentity, intervals []model.Interval, copies int) Resolution {
	res := Resolution{Tube: t, Copies: copies}
	var lastOffset []model.Ticks

	for _, iv := range intervals {
		placed := false
		for i := range res.Slots {
			if lastOffset[i] <= iv.Onset {
				res.Slots[i].Intervals = append(res.Slots[i].Intervals, iv)
				lastOffset[i] = iv.Offset
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		res.Slots = append(res.Slots, model.Slot{
			Tube:       t,
			Number:     len(res.Slots) + 1,
			Intervals:  []model.Interval{iv},
			Overbooked: len(res.Slots)+1 > copies,
		})
		lastOffset = append(lastOffset, iv.Offset)
	}

	res.Depth = len(res.Slots)
	if res.Depth > copies {
		witness, at := DeepestOverlap(intervals)
		notes := make([]model.Note, len(witness))
		for i, iv := range witness {
			notes[i] = iv.Note
		}
		tb := t
		res.Conflict = &model.Diagnostic{
			Kind:      model.IrresolvableTubeConflict,
			Detail:    fmt.Sprintf("%d notes sound together at tick %d", len(witness), at),
			Notes:     notes,
			Tube:      &tb,
			Required:  res.Depth,
			Available: copies,
		}
	}
	return res
}

// Resolve runs ResolveTube for every tube of the timeline in parallel.
// Results come back in tube order regardless of scheduling.
func Resolve(tl timeline.Timeline, opts Options) []Resolution {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	order := tl.TubeOrder()
	results := make([]Resolution, len(order))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range order {
		i, t := i, t
		g.Go(func() error {
			results[i] = ResolveTube(t, tl.Tubes[t], opts.copies(t))
			return nil
		})
	}
	// workers only fill their own result; an error here means one was added
	// without being handled
	if err := g.Wait(); err != nil {
		logger.Error("tube resolution failed", zap.Error(err))
	}

	for _, r := range results {
		if r.Conflict != nil {
			logger.Warn("tube conflict",
				zap.String("tube", r.Tube.String()),
				zap.Int("required", r.Depth),
				zap.Int("available", r.Copies))
			continue
		}
		logger.Debug("tube resolved",
			zap.String("tube", r.Tube.String()),
			zap.Int("slots", len(r.Slots)))
	}
	return results
}

// Slots flattens resolutions into one slot list. With includeConflicts off,
// tubes that could not be resolved are left out.
func Slots(results []Resolution, includeConflicts bool) []model.Slot {
	var res []model.Slot
	for _, r := range results {
		if r.Conflict != nil && !includeConflicts {
			continue
		}
		res = append(res, r.Slots...)
	}
	return res
}

func Conflicts(results []Resolution) model.Diagnostics {
	var res model.Diagnostics
	for _, r := range results {
		if r.Conflict != nil {
			res = append(res, *r.Conflict)
		}
	}
	return res
}

// DeepestOverlap returns the intervals active at the first instant where the
// most intervals overlap, and that instant.
func DeepestOverlap(intervals []model.Interval) ([]model.Interval, model.Ticks) {
	type edge struct {
		at    model.Ticks
		delta int
	}
	edges := make([]edge, 0, 2*len(intervals))
	for _, iv := range intervals {
		edges = append(edges, edge{iv.Onset, 1}, edge{iv.Offset, -1})
	}
	// ends sort before starts at the same tick: touching is not overlapping
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at != edges[j].at {
			return edges[i].at < edges[j].at
		}
		return edges[i].delta < edges[j].delta
	})
	var depth, best int
	var at model.Ticks
	for _, e := range edges {
		depth += e.delta
		if depth > best {
			best, at = depth, e.at
		}
	}

	var active []model.Interval
	for _, iv := range intervals {
		if iv.Onset <= at && at < iv.Offset {
			active = append(active, iv)
		}
	}
	return active, at
}

// MaxDepth is the overlap depth of a set of intervals.
func MaxDepth(intervals []model.Interval) int {
	active, _ := DeepestOverlap(intervals)
	return len(active)
}

// CheckSlots verifies no slot holds two overlapping intervals.
func CheckSlots(slots []model.Slot) error {
	for _, s := range slots {
		for i := 1; i < len(s.Intervals); i++ {
			if s.Intervals[i-1].Offset > s.Intervals[i].Onset {
				return fmt.Errorf("%s: interval at tick %d overlaps the one at tick %d",
					s.Label(), s.Intervals[i].Onset, s.Intervals[i-1].Onset)
			}
		}
	}
	return nil
}
