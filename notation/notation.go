// Package notation serializes performer parts into documents an external
// renderer can turn into printed parts.
package notation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jsphweid/boomparts/model"
)

var ErrUnsupportedDuration = errors.New("duration can't be written as plain or dotted note values")

// Header is the score-wide context every part is written with.
type Header struct {
	Title     string
	Composer  string
	Division  int
	Beats     int
	BeatType  int
	KeyFifths int
	Tempos    []model.Tempo
	// End pads every part to the length of the whole score.
	End model.Ticks
}

func HeaderFor(s model.Score) Header {
	s = s.Clone()
	s.Normalize()
	var end model.Ticks
	for _, n := range s.AllNotes() {
		if n.Offset() > end {
			end = n.Offset()
		}
	}
	return Header{
		Title:     s.Title,
		Composer:  s.Composer,
		Division:  s.Division,
		Beats:     s.Beats,
		BeatType:  s.BeatType,
		KeyFifths: s.KeyFifths,
		Tempos:    s.Tempos,
		End:       end,
	}
}

func (h Header) measureTicks() (model.Ticks, error) {
	beats, beatType := h.Beats, h.BeatType
	if beats <= 0 || beatType <= 0 {
		beats, beatType = 4, 4
	}
	whole := 4 * h.Division * beats
	if h.Division <= 0 || whole%beatType != 0 {
		return 0, fmt.Errorf("%d/%d measures aren't a whole number of ticks at division %d", beats, beatType, h.Division)
	}
	return model.Ticks(whole / beatType), nil
}

// Writer renders one part. Implementations must not keep the writer.
type Writer interface {
	Name() string
	Ext() string
	Write(w io.Writer, part model.Part, hdr Header) error
}

func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "musicxml", "xml":
		return MusicXML{}, nil
	case "midi", "mid", "smf":
		return SMF{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}
