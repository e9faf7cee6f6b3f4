// Package score loads input scores into the in-memory note model the engine
// schedules from.
package score

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jsphweid/boomparts/file"
	"github.com/jsphweid/boomparts/model"
)

// Load reads a score, picking the format from the file extension. Scores
// without a title take one from the file name.
func Load(filename string) (model.Score, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return model.Score{}, errors.Wrapf(err, "error loading %s", filename)
	}
	s, err := FromBytes(data, filepath.Ext(filename))
	if err != nil {
		return model.Score{}, errors.Wrapf(err, "error reading %s", filename)
	}
	if s.Title == "" {
		s.Title = file.TitleFromPath(filename)
	}
	return s, nil
}

func FromBytes(data []byte, ext string) (model.Score, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "xml", "musicxml":
		return ReadMusicXML(data)
	case "mxl":
		return ReadMXL(data)
	case "mid", "midi":
		return ReadMIDI(data)
	case "json":
		return ReadJSON(data)
	case "":
		return model.Score{}, errors.New("can't read a file with no extension")
	}
	return model.Score{}, errors.Errorf("unknown file extension %q", ext)
}

type container struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// ReadMXL unpacks compressed MusicXML. The score named by
// META-INF/container.xml is used, falling back to the first XML file in the
// archive root.
func ReadMXL(data []byte) (model.Score, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return model.Score{}, errors.Wrap(err, "error extracting the zip archive")
	}

	var target string
	if f, err := archive.Open("META-INF/container.xml"); err == nil {
		var c container
		err = xml.NewDecoder(f).Decode(&c)
		f.Close()
		if err == nil && len(c.Rootfiles) > 0 {
			target = c.Rootfiles[0].FullPath
		}
	}
	if target == "" {
		for _, f := range archive.File {
			if strings.Contains(f.Name, "/") {
				continue
			}
			ext := strings.ToLower(path.Ext(f.Name))
			if ext == ".xml" || ext == ".musicxml" {
				target = f.Name
				break
			}
		}
	}
	if target == "" {
		return model.Score{}, errors.New("MusicXML archive should have at least one score file")
	}

	f, err := archive.Open(target)
	if err != nil {
		return model.Score{}, errors.Wrapf(err, "MusicXML file %s not found in the archive", target)
	}
	defer f.Close()
	xmlBytes, err := io.ReadAll(f)
	if err != nil {
		return model.Score{}, errors.Wrapf(err, "error decompressing %s", target)
	}
	return ReadMusicXML(xmlBytes)
}

// ReadJSON reads the engine's own score model, as accepted by the server.
func ReadJSON(data []byte) (model.Score, error) {
	var s model.Score
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Score{}, errors.Wrap(err, "invalid score JSON")
	}
	if err := s.CheckVoices(); err != nil {
		return model.Score{}, errors.Wrap(err, "invalid score JSON")
	}
	s.Normalize()
	return s, nil
}
