package notation_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/notation"
	"github.com/jsphweid/boomparts/score"
)

const q = 480

func pn(voice int, semis int, onset, dur model.Ticks) model.PartNote {
	p := model.PitchFromSemitones(semis)
	return model.PartNote{
		Note: model.Note{Voice: voice, Pitch: p, Onset: onset, Duration: dur},
		Tube: model.TubeIdentity{Class: p.Class},
		Slot: 1,
	}
}

func header() notation.Header {
	return notation.Header{
		Title:    "Ode To Joy",
		Division: q,
		Beats:    4,
		BeatType: 4,
		Tempos:   []model.Tempo{{At: 0, BPM: 96}},
	}
}

func writeXML(t *testing.T, part model.Part, hdr notation.Header) string {
	var buf bytes.Buffer
	err := notation.MusicXML{}.Write(&buf, part, hdr)
	assert.NoError(t, err)
	return buf.String()
}

type plain struct {
	semis      int
	onset, dur model.Ticks
}

func notesOf(s model.Score) []plain {
	var res []plain
	for _, n := range s.AllNotes() {
		res = append(res, plain{n.Pitch.Semitones(), n.Onset, n.Duration})
	}
	return res
}

func TestMusicXMLRoundTrip(t *testing.T) {
	part := model.Part{Performer: 1, Label: "Performer 1", Notes: []model.PartNote{
		pn(1, 48, 0, q), pn(1, 50, q, q/2), pn(1, 52, 2*q, 3*q/2), pn(1, 55, 4*q, 4*q),
	}}
	out := writeXML(t, part, header())

	s, err := score.ReadMusicXML([]byte(out))
	assert.NoError(t, err)
	assert.Equal(t, "Ode To Joy", s.Title)
	assert.Equal(t, q, s.Division)
	assert.Equal(t, []model.Tempo{{At: 0, BPM: 96}}, s.Tempos)
	assert.Equal(t, []plain{{48, 0, q}, {50, q, q / 2}, {52, 2 * q, 3 * q / 2}, {55, 4 * q, 4 * q}}, notesOf(s))
	assert.Contains(t, out, `<dot></dot>`)
	assert.Contains(t, out, `color="#E4202A"`)
	assert.Contains(t, out, `<text>C</text>`)
}

func TestMusicXMLTiesAcrossBarline(t *testing.T) {
	part := model.Part{Performer: 1, Notes: []model.PartNote{pn(1, 48, 3*q, 2*q)}}
	out := writeXML(t, part, header())

	assert.Equal(t, 2, strings.Count(out, "<measure "))
	assert.Contains(t, out, `<tie type="start"></tie>`)
	assert.Contains(t, out, `<tie type="stop"></tie>`)
	// only the attack is labelled
	assert.Equal(t, 1, strings.Count(out, "<lyric "))

	s, err := score.ReadMusicXML([]byte(out))
	assert.NoError(t, err)
	assert.Equal(t, []plain{{48, 3 * q, 2 * q}}, notesOf(s))
}

func TestMusicXMLChordsAndLanes(t *testing.T) {
	part := model.Part{Performer: 1, Notes: []model.PartNote{
		pn(1, 48, 0, q), pn(1, 52, 0, q),
		pn(2, 55, 0, 2*q), pn(2, 57, q, q),
	}}
	out := writeXML(t, part, header())

	assert.Equal(t, 1, strings.Count(out, "<chord>"))
	assert.Equal(t, 2, strings.Count(out, "<backup>"))

	s, err := score.ReadMusicXML([]byte(out))
	assert.NoError(t, err)
	assert.Len(t, s.Voices, 3)
	assert.Equal(t, 4, s.NoteCount())
}

func TestMusicXMLPadsToScoreEnd(t *testing.T) {
	hdr := header()
	hdr.End = 12 * q
	out := writeXML(t, model.Part{Performer: 2, Notes: []model.PartNote{pn(1, 48, 0, q)}}, hdr)
	assert.Equal(t, 3, strings.Count(out, "<measure "))
	assert.Equal(t, 2, strings.Count(out, `<rest measure="yes">`))
}

func TestMusicXMLEmptyPart(t *testing.T) {
	out := writeXML(t, model.Part{Performer: 3}, header())
	assert.Equal(t, 1, strings.Count(out, "<measure "))

	s, err := score.ReadMusicXML([]byte(out))
	assert.NoError(t, err)
	assert.Equal(t, 0, s.NoteCount())
}

func TestMusicXMLUnsupportedDuration(t *testing.T) {
	hdr := header()
	hdr.Division = 3
	hdr.Tempos = nil
	part := model.Part{Performer: 1, Notes: []model.PartNote{pn(1, 48, 0, 1)}}

	err := notation.MusicXML{}.Write(&bytes.Buffer{}, part, hdr)
	assert.True(t, errors.Is(err, notation.ErrUnsupportedDuration))
}

func TestMusicXMLFlatsInFlatKeys(t *testing.T) {
	hdr := header()
	hdr.KeyFifths = -1
	out := writeXML(t, model.Part{Performer: 1, Notes: []model.PartNote{pn(1, 58, 0, q)}}, hdr)
	assert.Contains(t, out, "<step>B</step>")
	assert.Contains(t, out, "<alter>-1</alter>")
}

func TestSMFRoundTrip(t *testing.T) {
	part := model.Part{Performer: 1, Label: "Performer 1", Notes: []model.PartNote{
		pn(1, 48, 0, q), pn(1, 52, 0, q), pn(1, 48, q, q), pn(1, 55, 3*q, 2*q),
	}}
	var buf bytes.Buffer
	assert.NoError(t, notation.SMF{}.Write(&buf, part, header()))

	s, err := score.ReadMIDI(buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, q, s.Division)
	assert.Equal(t, 4, s.Beats)
	assert.Len(t, s.Tempos, 1)
	assert.InDelta(t, 96, s.Tempos[0].BPM, 0.01)
	assert.Equal(t, []plain{{48, 0, q}, {52, 0, q}, {48, q, q}, {55, 3 * q, 2 * q}}, notesOf(s))
}

func TestForFormat(t *testing.T) {
	w, err := notation.ForFormat("midi")
	assert.NoError(t, err)
	assert.Equal(t, ".mid", w.Ext())
	w, err = notation.ForFormat("")
	assert.NoError(t, err)
	assert.Equal(t, "musicxml", w.Name())
	_, err = notation.ForFormat("pdf")
	assert.Error(t, err)
}

func TestHeaderFor(t *testing.T) {
	s := model.Score{Title: "x", Voices: []model.Voice{{Notes: []model.Note{{Pitch: model.PitchFromSemitones(48), Onset: 10, Duration: 5}}}}}
	hdr := notation.HeaderFor(s)
	assert.Equal(t, model.DefaultDivision, hdr.Division)
	assert.Equal(t, 4, hdr.Beats)
	assert.Equal(t, model.Ticks(15), hdr.End)
}
