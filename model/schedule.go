package model

import "fmt"

// Interval is one note's occupancy of a tube, [Onset, Offset).
type Interval struct {
	Tube   TubeIdentity
	Onset  Ticks
	Offset Ticks
	Note   Note
}

func (iv Interval) Overlaps(o Interval) bool {
	return iv.Onset < o.Offset && o.Onset < iv.Offset
}

// IntervalLess is the scheduling order: onset, then voice, then position.
func IntervalLess(a, b Interval) bool {
	if a.Onset != b.Onset {
		return a.Onset < b.Onset
	}
	if a.Note.Voice != b.Note.Voice {
		return a.Note.Voice < b.Note.Voice
	}
	return a.Note.Index < b.Note.Index
}

// Slot is one physical copy of a tube. Its intervals never overlap and are
// kept in onset order.
type Slot struct {
	Tube       TubeIdentity `json:"tube"`
	Number     int          `json:"number"` // 1-based copy number
	Intervals  []Interval   `json:"-"`
	Overbooked bool         `json:"overbooked,omitempty"` // beyond the owned copy count
}

func (s Slot) Label() string {
	return fmt.Sprintf("%v #%d", s.Tube, s.Number)
}

// Span covers the slot's first onset to its last offset.
func (s Slot) Span() (Ticks, Ticks) {
	if len(s.Intervals) == 0 {
		return 0, 0
	}
	return s.Intervals[0].Onset, s.Intervals[len(s.Intervals)-1].Offset
}

// SlotRef identifies a slot without its intervals.
type SlotRef struct {
	Tube   TubeIdentity `json:"tube"`
	Number int          `json:"number"`
}

func (s Slot) Ref() SlotRef {
	return SlotRef{Tube: s.Tube, Number: s.Number}
}

func (r SlotRef) Less(o SlotRef) bool {
	if r.Tube != o.Tube {
		return r.Tube.Less(o.Tube)
	}
	return r.Number < o.Number
}

type Binding struct {
	Slot  SlotRef `json:"slot"`
	Start Ticks   `json:"start"`
	End   Ticks   `json:"end"`
}

type Performer struct {
	ID       int       `json:"id"`
	Bindings []Binding `json:"bindings"`
}

// Tubes lists the distinct tubes a performer holds, in binding order.
func (p Performer) Tubes() []TubeIdentity {
	var res []TubeIdentity
	seen := make(map[TubeIdentity]bool)
	for _, b := range p.Bindings {
		if !seen[b.Slot.Tube] {
			seen[b.Slot.Tube] = true
			res = append(res, b.Slot.Tube)
		}
	}
	return res
}

type PartNote struct {
	Note       Note         `json:"note"`
	Tube       TubeIdentity `json:"tube"`
	Slot       int          `json:"slot"`
	Overbooked bool         `json:"overbooked,omitempty"`
}

// Part is everything one performer plays, in time order.
type Part struct {
	Performer int        `json:"performer"`
	Label     string     `json:"label"`
	Notes     []PartNote `json:"notes"`
}

// Tubes lists the distinct tubes used in the part, sorted.
func (p Part) Tubes() []TubeIdentity {
	seen := make(map[TubeIdentity]bool)
	var res []TubeIdentity
	for _, n := range p.Notes {
		if !seen[n.Tube] {
			seen[n.Tube] = true
			res = append(res, n.Tube)
		}
	}
	SortTubes(res)
	return res
}
