package tube

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/boomparts/constants"
	"github.com/jsphweid/boomparts/model"
)

const (
	SetDiatonic  = "diatonic"
	SetChromatic = "chromatic"
	SetExtended  = "extended"
)

var diatonicClasses = []model.PitchClass{0, 2, 4, 5, 7, 9, 11}

// Inventory is the set of tube identities a group owns. It maps pitches to
// tubes and nothing else.
type Inventory struct {
	BaseOctave int
	Collapse   bool

	// bands available per pitch class, ascending
	bands map[model.PitchClass][]int
}

func New(tubes []model.TubeIdentity, baseOctave int, collapse bool) *Inventory {
	inv := &Inventory{
		BaseOctave: baseOctave,
		Collapse:   collapse,
		bands:      make(map[model.PitchClass][]int),
	}
	for _, t := range tubes {
		inv.add(t)
	}
	return inv
}

func (inv *Inventory) add(t model.TubeIdentity) {
	for _, b := range inv.bands[t.Class] {
		if b == t.Band {
			return
		}
	}
	bands := append(inv.bands[t.Class], t.Band)
	sort.Ints(bands)
	inv.bands[t.Class] = bands
}

// Standard builds one of the named sets. The diatonic set is the usual
// eight tubes: C major plus the high C.
func Standard(name string, baseOctave int, collapse bool) (*Inventory, error) {
	var tubes []model.TubeIdentity
	switch strings.ToLower(strings.TrimSpace(name)) {
	case SetDiatonic, "":
		for _, c := range diatonicClasses {
			tubes = append(tubes, model.TubeIdentity{Class: c})
		}
	case SetChromatic:
		for c := model.PitchClass(0); c < model.NumPitchClasses; c++ {
			tubes = append(tubes, model.TubeIdentity{Class: c})
		}
	case SetExtended:
		for c := model.PitchClass(0); c < model.NumPitchClasses; c++ {
			tubes = append(tubes, model.TubeIdentity{Class: c, Band: -1}, model.TubeIdentity{Class: c})
		}
	default:
		return nil, fmt.Errorf("unknown tube set %q", name)
	}
	tubes = append(tubes, model.TubeIdentity{Class: 0, Band: 1})
	return New(tubes, baseOctave, collapse), nil
}

// FromNames parses a custom inventory such as ["C", "D", "E", "C+1"].
func FromNames(names []string, baseOctave int, collapse bool) (*Inventory, error) {
	var tubes []model.TubeIdentity
	for _, name := range names {
		t, err := model.ParseTubeIdentity(name)
		if err != nil {
			return nil, err
		}
		tubes = append(tubes, t)
	}
	if len(tubes) == 0 {
		return nil, fmt.Errorf("inventory has no tubes")
	}
	return New(tubes, baseOctave, collapse), nil
}

func Default() *Inventory {
	inv, _ := Standard(SetDiatonic, constants.DefaultBaseOctave, true)
	return inv
}

// Map returns the tube that sounds p, or false when the inventory has no
// tube for its pitch class (or for its octave, with collapsing off).
func (inv *Inventory) Map(p model.Pitch) (model.TubeIdentity, bool) {
	bands := inv.bands[p.Class]
	if len(bands) == 0 {
		return model.TubeIdentity{}, false
	}
	want := p.Octave - inv.BaseOctave
	best := bands[0]
	for _, b := range bands {
		if b == want {
			return model.TubeIdentity{Class: p.Class, Band: b}, true
		}
		// bands ascend, so a tie keeps the lower one
		if abs(b-want) < abs(best-want) {
			best = b
		}
	}
	if !inv.Collapse {
		return model.TubeIdentity{}, false
	}
	return model.TubeIdentity{Class: p.Class, Band: best}, true
}

func (inv *Inventory) Has(t model.TubeIdentity) bool {
	for _, b := range inv.bands[t.Class] {
		if b == t.Band {
			return true
		}
	}
	return false
}

// Tubes enumerates the inventory low band first.
func (inv *Inventory) Tubes() []model.TubeIdentity {
	var res []model.TubeIdentity
	for c, bands := range inv.bands {
		for _, b := range bands {
			res = append(res, model.TubeIdentity{Class: c, Band: b})
		}
	}
	model.SortTubes(res)
	return res
}

func (inv *Inventory) Len() int {
	var n int
	for _, bands := range inv.bands {
		n += len(bands)
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
