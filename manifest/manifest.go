// Package manifest writes part files and the job manifest an external
// renderer consumes to turn them into printed parts.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/constants"
	"github.com/jsphweid/boomparts/file"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/notation"
	"github.com/jsphweid/boomparts/util"
)

const (
	FormatTOML = "toml"
	// FormatJSON is a MuseScore batch conversion job.
	FormatJSON = "json"
)

type jobEntry struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

type renderSidecar struct {
	BatchID string               `toml:"batch_id"`
	Render  model.RenderSettings `toml:"render"`
}

func sidecarPath(dir string) string {
	return filepath.Join(dir, constants.RenderSidecarName)
}

// Emitter renders parts with Writer into Dir and records them in a manifest.
type Emitter struct {
	Writer notation.Writer
	Dir    string
	Render model.RenderSettings
	Format string
	Logger *zap.Logger
}

func Path(dir, format string) string {
	if strings.EqualFold(format, FormatJSON) {
		return filepath.Join(dir, constants.ManifestJSONName)
	}
	return filepath.Join(dir, constants.ManifestTOMLName)
}

// Emit writes every part it can serialize. A part that fails to serialize is
// reported as a diagnostic and left out of the manifest; the others are still
// written. The returned error is for I/O failures only.
func (e Emitter) Emit(parts []model.Part, hdr notation.Header) (model.Manifest, model.Diagnostics, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if e.Writer == nil {
		return model.Manifest{}, nil, errors.New("no notation writer configured")
	}
	format := strings.ToLower(strings.TrimSpace(e.Format))
	if format == "" {
		format = FormatTOML
	}
	if format != FormatTOML && format != FormatJSON {
		return model.Manifest{}, nil, errors.Errorf("unknown manifest format %q", e.Format)
	}
	dir := e.Dir
	if dir == "" {
		dir = constants.GetOutDir()
	}
	if err := util.EnsureDir(dir); err != nil {
		return model.Manifest{}, nil, errors.Wrapf(err, "error creating %s", dir)
	}

	lock := flock.New(filepath.Join(dir, constants.LockName))
	ok, err := lock.TryLock()
	if err != nil {
		return model.Manifest{}, nil, errors.Wrap(err, "acquire output lock")
	}
	if !ok {
		return model.Manifest{}, nil, errors.Errorf("another run is writing to %s", dir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release output lock", zap.Error(err))
		}
	}()

	render := e.render(hdr)
	m := model.Manifest{BatchID: uuid.NewString(), Render: render}
	var diags model.Diagnostics

	paths := file.CreatePartPathMap(dir, parts, e.Writer.Ext(), render.Format)
	for _, part := range parts {
		var buf bytes.Buffer
		if err := e.Writer.Write(&buf, part, hdr); err != nil {
			diags = append(diags, model.Diagnostic{
				Kind:      model.PartSerializationFailure,
				Performer: part.Performer,
				Detail:    e.Writer.Name(),
				Cause:     err,
			})
			logger.Warn("part serialization failed",
				zap.Int("performer", part.Performer),
				zap.String("writer", e.Writer.Name()),
				zap.Error(err))
			continue
		}
		p := paths[part.Performer]
		if err := os.WriteFile(p.Source, buf.Bytes(), 0o644); err != nil {
			return model.Manifest{}, diags, errors.Wrapf(err, "error writing %s", p.Source)
		}
		m.Entries = append(m.Entries, model.ManifestEntry{
			Performer: part.Performer,
			Label:     part.Label,
			Source:    p.Source,
			Output:    p.Output,
		})
		logger.Debug("part written", zap.Int("performer", part.Performer), zap.String("path", p.Source))
	}

	data, err := encode(m, format)
	if err != nil {
		return model.Manifest{}, diags, err
	}
	path := Path(dir, format)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return model.Manifest{}, diags, errors.Wrapf(err, "error writing %s", path)
	}
	if format == FormatJSON {
		sc, err := toml.Marshal(renderSidecar{BatchID: m.BatchID, Render: m.Render})
		if err != nil {
			return model.Manifest{}, diags, errors.Wrap(err, "error encoding render settings")
		}
		if err := os.WriteFile(sidecarPath(dir), sc, 0o644); err != nil {
			return model.Manifest{}, diags, errors.Wrapf(err, "error writing %s", sidecarPath(dir))
		}
	}
	logger.Info("manifest written",
		zap.String("path", path),
		zap.String("batch_id", m.BatchID),
		zap.Int("parts", len(m.Entries)),
		zap.Int("failed", len(diags)))
	return m, diags, nil
}

func (e Emitter) render(hdr notation.Header) model.RenderSettings {
	r := e.Render
	if r.PageSize == "" {
		r.PageSize = constants.DefaultPageSize
	}
	if r.PartLabel == "" {
		r.PartLabel = constants.DefaultPartLabel
	}
	if r.Format == "" {
		r.Format = constants.DefaultRenderFormat
	}
	if r.Title == "" {
		r.Title = hdr.Title
	}
	return r
}

func encode(m model.Manifest, format string) ([]byte, error) {
	if format == FormatJSON {
		job := make([]jobEntry, 0, len(m.Entries))
		for _, en := range m.Entries {
			job = append(job, jobEntry{In: en.Source, Out: en.Output})
		}
		data, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "error encoding batch job")
		}
		return append(data, '\n'), nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "error encoding manifest")
	}
	return data, nil
}

// Read loads a manifest written by Emit. A batch job only carries file pairs;
// its batch id and render settings come from the render.toml beside it when
// one exists.
func Read(path string) (model.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Manifest{}, errors.Wrapf(err, "error reading %s", path)
	}
	var m model.Manifest
	if strings.EqualFold(filepath.Ext(path), ".json") {
		var job []jobEntry
		if err := json.Unmarshal(data, &job); err != nil {
			return model.Manifest{}, errors.Wrapf(err, "invalid batch job %s", path)
		}
		for i, j := range job {
			m.Entries = append(m.Entries, model.ManifestEntry{Performer: i + 1, Source: j.In, Output: j.Out})
		}
		sc, err := os.ReadFile(sidecarPath(filepath.Dir(path)))
		if errors.Is(err, os.ErrNotExist) {
			return m, nil
		}
		if err != nil {
			return model.Manifest{}, errors.Wrapf(err, "error reading render settings for %s", path)
		}
		var rs renderSidecar
		if err := toml.Unmarshal(sc, &rs); err != nil {
			return model.Manifest{}, errors.Wrapf(err, "invalid render settings for %s", path)
		}
		m.BatchID, m.Render = rs.BatchID, rs.Render
		return m, nil
	}
	if err := toml.Unmarshal(data, &m); err != nil {
		return model.Manifest{}, errors.Wrapf(err, "invalid manifest %s", path)
	}
	return m, nil
}

// Describe is a one-line summary for logs and the CLI.
func Describe(m model.Manifest) string {
	return fmt.Sprintf("batch %s: %d parts, %s pages", m.BatchID, len(m.Entries), m.Render.PageSize)
}
