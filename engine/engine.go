// Package engine runs the scheduling stages in order: timeline, per-tube
// resolution, performer assignment and part building. It does no I/O.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/constants"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/perform"
	"github.com/jsphweid/boomparts/resolve"
	"github.com/jsphweid/boomparts/timeline"
	"github.com/jsphweid/boomparts/tube"
)

type Policy int

const (
	// PolicyFail fails the run when any tube needs more copies than owned.
	PolicyFail Policy = iota
	// PolicyBestEffort assigns the extra copies anyway and flags them.
	PolicyBestEffort
)

func (p Policy) String() string {
	if p == PolicyBestEffort {
		return "best-effort"
	}
	return "fail"
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail", "hard-fail":
		return PolicyFail, nil
	case "best-effort", "besteffort", "flag":
		return PolicyBestEffort, nil
	}
	return PolicyFail, fmt.Errorf("unknown conflict policy %q", s)
}

var ErrRunFailed = errors.New("assignment failed")

type Options struct {
	Inventory *tube.Inventory
	// Copies is the number of physical copies owned of each tube.
	Copies        int
	CopyOverrides map[model.TubeIdentity]int
	Policy        Policy
	Packing       perform.Packing
	// SwitchGapBeats is converted to ticks with the score's division.
	SwitchGapBeats float64
	MaxTubes       int
	Workers        int
	PartLabel      string
	Logger         *zap.Logger
}

func (o Options) copiesFor(t model.TubeIdentity) int {
	if n, ok := o.CopyOverrides[t]; ok && n > 0 {
		return n
	}
	if o.Copies <= 0 {
		return 1
	}
	return o.Copies
}

// Result carries either parts or the reason they cannot be used. Parts are
// built for every tube that resolved even when the run failed, so callers can
// still show what was possible.
type Result struct {
	Timeline    timeline.Timeline
	Resolutions []resolve.Resolution
	Slots       []model.Slot
	Assignment  perform.Assignment
	Parts       []model.Part
	Diagnostics model.Diagnostics
	Failed      bool
}

// Err is non-nil when the run failed; it wraps ErrRunFailed and every
// diagnostic that caused the failure.
func (r Result) Err() error {
	if !r.Failed {
		return nil
	}
	var fatal model.Diagnostics
	for _, d := range r.Diagnostics {
		if d.Kind == model.MalformedNote || d.Kind == model.IrresolvableTubeConflict {
			fatal = append(fatal, d)
		}
	}
	return fmt.Errorf("%w: %w", ErrRunFailed, fatal.Err())
}

// Run schedules every note of the score.
func Run(score model.Score, opts Options) Result {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inv := opts.Inventory
	if inv == nil {
		inv = tube.Default()
	}
	label := opts.PartLabel
	if label == "" {
		label = constants.DefaultPartLabel
	}
	var res Result
	if err := score.CheckVoices(); err != nil {
		res.Diagnostics = model.Diagnostics{{Kind: model.MalformedNote, Detail: err.Error()}}
		res.Failed = true
		logger.Warn("score rejected", zap.Error(err))
		return res
	}
	score = score.Clone()
	score.Normalize()

	res.Timeline = timeline.Build(score, inv)
	res.Diagnostics = append(res.Diagnostics, res.Timeline.Diagnostics...)
	logger.Debug("timeline built",
		zap.Int("notes", score.NoteCount()),
		zap.Int("accepted", res.Timeline.Accepted),
		zap.Int("tubes", len(res.Timeline.Tubes)))

	res.Resolutions = resolve.Resolve(res.Timeline, resolve.Options{
		Copies:  opts.copiesFor,
		Workers: opts.Workers,
		Logger:  logger,
	})
	conflicts := resolve.Conflicts(res.Resolutions)
	res.Diagnostics = append(res.Diagnostics, conflicts...)

	res.Slots = resolve.Slots(res.Resolutions, opts.Policy == PolicyBestEffort)
	res.Assignment = perform.Assign(res.Slots, perform.Options{
		Packing:   opts.Packing,
		SwitchGap: model.Ticks(math.Round(opts.SwitchGapBeats * float64(score.Division))),
		MaxTubes:  opts.MaxTubes,
	})
	res.Parts = perform.BuildParts(res.Assignment, res.Slots, label)

	res.Failed = res.Diagnostics.Has(model.MalformedNote) ||
		(len(conflicts) > 0 && opts.Policy == PolicyFail)

	logger.Info("assignment complete",
		zap.Int("slots", len(res.Slots)),
		zap.Int("performers", len(res.Assignment.Performers)),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("unsupported", res.Diagnostics.Count(model.UnsupportedPitch)),
		zap.Int("malformed", res.Diagnostics.Count(model.MalformedNote)),
		zap.Bool("failed", res.Failed))
	return res
}
