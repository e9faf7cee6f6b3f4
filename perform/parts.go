package perform

import (
	"fmt"
	"sort"

	"github.com/jsphweid/boomparts/model"
)

// BuildParts emits one part per performer. labelFormat takes the performer
// id, e.g. "Performer %d".
func BuildParts(a Assignment, slots []model.Slot, labelFormat string) []model.Part {
	byRef := make(map[model.SlotRef]model.Slot, len(slots))
	for _, s := range slots {
		byRef[s.Ref()] = s
	}

	parts := make([]model.Part, 0, len(a.Performers))
	for _, p := range a.Performers {
		part := model.Part{Performer: p.ID, Label: fmt.Sprintf(labelFormat, p.ID)}
		for _, b := range p.Bindings {
			s := byRef[b.Slot]
			for _, iv := range s.Intervals {
				part.Notes = append(part.Notes, model.PartNote{
					Note:       iv.Note,
					Tube:       s.Tube,
					Slot:       s.Number,
					Overbooked: s.Overbooked,
				})
			}
		}
		SortPartNotes(part.Notes)
		parts = append(parts, part)
	}
	return parts
}

// SortPartNotes orders notes by onset, then tube, then source position.
func SortPartNotes(notes []model.PartNote) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Note.Onset != b.Note.Onset {
			return a.Note.Onset < b.Note.Onset
		}
		if a.Tube != b.Tube {
			return a.Tube.Less(b.Tube)
		}
		return model.NoteLess(a.Note, b.Note)
	})
}
