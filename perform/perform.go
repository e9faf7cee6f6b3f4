// Package perform hands tube slots to performers and builds each performer's
// part.
package perform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/boomparts/model"
)

type Packing int

const (
	// PackSpan lets performers share only when whole slot spans are disjoint.
	PackSpan Packing = iota
	// PackNote lets a performer interleave slots note by note.
	PackNote
)

func (p Packing) String() string {
	if p == PackNote {
		return "note"
	}
	return "span"
}

func ParsePacking(s string) (Packing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "span":
		return PackSpan, nil
	case "note":
		return PackNote, nil
	}
	return PackSpan, fmt.Errorf("unknown performer packing %q", s)
}

type Options struct {
	Packing Packing
	// SwitchGap is the minimum time between a performer's last note on one
	// slot and first note on the next.
	SwitchGap model.Ticks
	// MaxTubes caps slots per performer; 0 means no cap.
	MaxTubes int
	// FirstID is the id given to the first performer; 0 means 1.
	FirstID int
}

type Assignment struct {
	Performers []model.Performer
	// NextID is the first id not handed out.
	NextID int
}

type held struct {
	performer model.Performer
	lastEnd   model.Ticks
	intervals []model.Interval // sorted by onset, PackNote only
}

// Assign packs slots onto performers first-fit, in order of slot start.
func Assign(slots []model.Slot, opts Options) Assignment {
	nextID := opts.FirstID
	if nextID <= 0 {
		nextID = 1
	}

	ordered := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		if len(s.Intervals) > 0 {
			ordered = append(ordered, s)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		si, _ := ordered[i].Span()
		sj, _ := ordered[j].Span()
		if si != sj {
			return si < sj
		}
		return ordered[i].Ref().Less(ordered[j].Ref())
	})

	var performers []*held
	for _, s := range ordered {
		start, end := s.Span()
		var target *held
		for _, p := range performers {
			if fits(p, s, opts) {
				target = p
				break
			}
		}
		if target == nil {
			target = &held{performer: model.Performer{ID: nextID}}
			nextID++
			performers = append(performers, target)
		}
		target.performer.Bindings = append(target.performer.Bindings, model.Binding{
			Slot:  s.Ref(),
			Start: start,
			End:   end,
		})
		if end > target.lastEnd {
			target.lastEnd = end
		}
		if opts.Packing == PackNote {
			target.intervals = mergeIntervals(target.intervals, s.Intervals)
		}
	}

	res := Assignment{NextID: nextID}
	for _, p := range performers {
		res.Performers = append(res.Performers, p.performer)
	}
	return res
}

func fits(p *held, s model.Slot, opts Options) bool {
	if opts.MaxTubes > 0 && len(p.performer.Bindings) >= opts.MaxTubes {
		return false
	}
	if len(p.performer.Bindings) == 0 {
		return true
	}
	if opts.Packing == PackSpan {
		start, _ := s.Span()
		return p.lastEnd+opts.SwitchGap <= start
	}
	return !collides(p.intervals, s.Intervals, opts.SwitchGap)
}

// collides reports whether any interval of b comes within gap of one in a.
// Both lists are sorted by onset and internally non-overlapping.
func collides(a, b []model.Interval, gap model.Ticks) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Onset < b[j].Offset+gap && b[j].Onset < a[i].Offset+gap {
			return true
		}
		if a[i].Offset < b[j].Offset {
			i++
		} else {
			j++
		}
	}
	return false
}

func mergeIntervals(a, b []model.Interval) []model.Interval {
	res := make([]model.Interval, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Onset <= b[j].Onset {
			res = append(res, a[i])
			i++
		} else {
			res = append(res, b[j])
			j++
		}
	}
	res = append(res, a[i:]...)
	return append(res, b[j:]...)
}

// Check verifies that no performer is bound to two slots that sound at the
// same time.
func Check(a Assignment, slots []model.Slot) error {
	byRef := make(map[model.SlotRef]model.Slot, len(slots))
	for _, s := range slots {
		byRef[s.Ref()] = s
	}
	for _, p := range a.Performers {
		var all []model.Interval
		for _, b := range p.Bindings {
			s, ok := byRef[b.Slot]
			if !ok {
				return fmt.Errorf("performer %d: unknown slot %v #%d", p.ID, b.Slot.Tube, b.Slot.Number)
			}
			all = mergeIntervals(all, s.Intervals)
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].Offset > all[i].Onset {
				return fmt.Errorf("performer %d: %v at tick %d overlaps %v at tick %d",
					p.ID, all[i].Tube, all[i].Onset, all[i-1].Tube, all[i-1].Onset)
			}
		}
	}
	return nil
}
