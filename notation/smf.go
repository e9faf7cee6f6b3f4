package notation

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/boomparts/model"
)

const velocity = 100

// SMF writes a part as a single-track Standard MIDI File.
type SMF struct{}

func (SMF) Name() string { return "midi" }
func (SMF) Ext() string  { return ".mid" }

type smfEvent struct {
	at  model.Ticks
	off bool
	msg []byte
}

func (SMF) Write(w io.Writer, part model.Part, hdr Header) error {
	if hdr.Division <= 0 || hdr.Division > math.MaxInt16 {
		return fmt.Errorf("division %d can't be stored in a midi file", hdr.Division)
	}
	beats, beatType := hdr.Beats, hdr.BeatType
	if beats <= 0 || beatType <= 0 {
		beats, beatType = 4, 4
	}

	var events []smfEvent
	for _, t := range hdr.Tempos {
		events = append(events, smfEvent{at: t.At, msg: smf.MetaTempo(t.BPM)})
	}
	for _, pn := range part.Notes {
		if !pn.Note.Pitch.Valid() {
			return errors.Errorf("pitch %s at %s is outside the midi range", pn.Note.Pitch, pn.Note.Location())
		}
		key := pn.Note.Pitch.MIDIKey()
		events = append(events,
			smfEvent{at: pn.Note.Onset, msg: midi.NoteOn(0, key, velocity)},
			smfEvent{at: pn.Note.Offset(), off: true, msg: midi.NoteOff(0, key)})
	}
	// offs first so repeated keys retrigger cleanly
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].at != events[j].at {
			return events[i].at < events[j].at
		}
		return events[i].off && !events[j].off
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName(part.Label))
	tr.Add(0, smf.MetaMeter(uint8(beats), uint8(beatType)))
	var last model.Ticks
	for _, e := range events {
		tr.Add(uint32(e.at-last), e.msg)
		last = e.at
	}
	var tail uint32
	if hdr.End > last {
		tail = uint32(hdr.End - last)
	}
	tr.Close(tail)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(hdr.Division)
	if err := s.Add(tr); err != nil {
		return errors.Wrap(err, "error adding midi track")
	}
	if _, err := s.WriteTo(w); err != nil {
		return errors.Wrap(err, "error writing midi file")
	}
	return nil
}
