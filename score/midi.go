package score

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/boomparts/model"
)

// general MIDI drums, unpitched
const percussionChannel = 9

type midiVoiceKey struct {
	track   int
	channel uint8
}

type midiVoice struct {
	name    string
	notes   []model.Note
	pending map[uint8][]model.Ticks // note-on times per key, oldest first
}

// ReadMIDI reads a Standard MIDI File. Each (track, channel) pair becomes a
// voice; note-offs close the oldest open note of the same key.
func ReadMIDI(data []byte) (s model.Score, e error) {
	// smf can panic on truncated input
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			e = fmt.Errorf("error parsing midi file: %v", r)
		}
	}()

	parsed, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return model.Score{}, errors.Wrap(err, "error parsing midi file")
	}
	mt, ok := parsed.TimeFormat.(smf.MetricTicks)
	if !ok {
		return model.Score{}, errors.New("SMPTE timed midi files are not supported")
	}

	res := model.Score{Division: int(mt.Resolution())}
	voices := make(map[midiVoiceKey]*midiVoice)
	tempos := make(map[model.Ticks]float64)

	for ti, track := range parsed.Tracks {
		var absTicks model.Ticks
		var trackName string
		for _, event := range track {
			absTicks += model.Ticks(event.Delta)
			var channel, key, velocity uint8
			var bpm float64
			var num, denom uint8
			var text string
			switch {
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				if channel == percussionChannel {
					continue
				}
				v := voiceFor(voices, ti, channel, trackName)
				if velocity == 0 {
					v.close(key, absTicks)
				} else {
					v.pending[key] = append(v.pending[key], absTicks)
				}
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				if channel == percussionChannel {
					continue
				}
				voiceFor(voices, ti, channel, trackName).close(key, absTicks)
			case event.Message.GetMetaTempo(&bpm):
				tempos[absTicks] = bpm
			case event.Message.GetMetaMeter(&num, &denom):
				if res.Beats == 0 {
					res.Beats, res.BeatType = int(num), int(denom)
				}
			case event.Message.GetMetaTrackName(&text):
				trackName = text
			}
		}
		// notes still sounding at the end of the track stop there
		for k, v := range voices {
			if k.track != ti {
				continue
			}
			for key := range v.pending {
				for len(v.pending[key]) > 0 {
					v.close(key, absTicks)
				}
			}
		}
	}

	keys := make([]midiVoiceKey, 0, len(voices))
	for k := range voices {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].track != keys[j].track {
			return keys[i].track < keys[j].track
		}
		return keys[i].channel < keys[j].channel
	})
	for i, k := range keys {
		v := voices[k]
		if len(v.notes) == 0 {
			continue
		}
		sort.SliceStable(v.notes, func(a, b int) bool {
			if v.notes[a].Onset != v.notes[b].Onset {
				return v.notes[a].Onset < v.notes[b].Onset
			}
			return v.notes[a].Pitch.Semitones() < v.notes[b].Pitch.Semitones()
		})
		res.Voices = append(res.Voices, model.Voice{ID: i + 1, Name: v.name, Notes: v.notes})
	}
	times := make([]model.Ticks, 0, len(tempos))
	for at := range tempos {
		times = append(times, at)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	for _, at := range times {
		res.Tempos = append(res.Tempos, model.Tempo{At: at, BPM: tempos[at]})
	}
	res.Normalize()
	return res, nil
}

func voiceFor(voices map[midiVoiceKey]*midiVoice, track int, channel uint8, trackName string) *midiVoice {
	k := midiVoiceKey{track: track, channel: channel}
	v := voices[k]
	if v == nil {
		name := trackName
		if name == "" {
			name = fmt.Sprintf("track %d", track+1)
		}
		v = &midiVoice{
			name:    fmt.Sprintf("%s channel %d", name, channel+1),
			pending: make(map[uint8][]model.Ticks),
		}
		voices[k] = v
	}
	return v
}

func (v *midiVoice) close(key uint8, at model.Ticks) {
	open := v.pending[key]
	if len(open) == 0 {
		return
	}
	onset := open[0]
	v.pending[key] = open[1:]
	// zero-length notes are kept so scheduling reports them as malformed
	v.notes = append(v.notes, model.Note{
		Pitch:    model.PitchFromMIDIKey(key),
		Onset:    onset,
		Duration: at - onset,
	})
}
