//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/jsphweid/boomparts/cmd"
	"github.com/jsphweid/boomparts/config"
	"github.com/jsphweid/boomparts/engine"
	"github.com/jsphweid/boomparts/manifest"
	"github.com/jsphweid/boomparts/model"
	"github.com/jsphweid/boomparts/notation"
	"github.com/jsphweid/boomparts/score"
)

// Two parts that both hit C4 on beat one, then a scale in the top part.
const duet = `<?xml version="1.0" encoding="UTF-8"?>
<score-partwise version="3.1">
  <work><work-title>Duet</work-title></work>
  <part-list>
    <score-part id="P1"><part-name>Top</part-name></score-part>
    <score-part id="P2"><part-name>Bottom</part-name></score-part>
  </part-list>
  <part id="P1">
    <measure number="1">
      <attributes><divisions>1</divisions><time><beats>4</beats><beat-type>4</beat-type></time></attributes>
      <direction><sound tempo="96"/></direction>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>1</duration></note>
      <note><pitch><step>D</step><octave>4</octave></pitch><duration>1</duration></note>
      <note><pitch><step>E</step><octave>4</octave></pitch><duration>1</duration></note>
      <note><pitch><step>F</step><octave>4</octave></pitch><duration>1</duration></note>
    </measure>
  </part>
  <part id="P2">
    <measure number="1">
      <attributes><divisions>1</divisions></attributes>
      <note><pitch><step>C</step><octave>4</octave></pitch><duration>4</duration></note>
    </measure>
  </part>
</score-partwise>
`

var server *httptest.Server

func TestMain(m *testing.M) {
	cfg := config.Default()
	cfg.Inventory.Copies = 2
	cmd.LoadServeConfig(&cfg, zap.NewNop())
	server = httptest.NewServer(cmd.NewRouter())

	exitVal := m.Run()

	server.Close()
	os.Exit(exitVal)
}

func loadDuet(t *testing.T) model.Score {
	p := filepath.Join(t.TempDir(), "duet.xml")
	assert.NoError(t, os.WriteFile(p, []byte(duet), 0o644))
	s, err := score.Load(p)
	assert.NoError(t, err)
	return s
}

func TestDuetNeedsTwoCopiesOfC(t *testing.T) {
	s := loadDuet(t)
	cfg := config.Default()
	opts, err := cfg.EngineOptions(zap.NewNop())
	assert.NoError(t, err)

	res := engine.Run(s, opts)
	assert.True(t, res.Failed)
	conflicts := res.Diagnostics.Filter(model.IrresolvableTubeConflict)
	if assert.Len(t, conflicts, 1) {
		assert.Equal(t, model.TubeIdentity{Class: 0}, *conflicts[0].Tube)
		assert.Equal(t, 2, conflicts[0].Required)
		assert.Equal(t, 1, conflicts[0].Available)
	}
}

func TestDuetRoundTripsThroughMusicXMLParts(t *testing.T) {
	s := loadDuet(t)
	cfg := config.Default()
	cfg.Inventory.Copies = 2
	opts, err := cfg.EngineOptions(zap.NewNop())
	assert.NoError(t, err)

	res := engine.Run(s, opts)
	assert.NoError(t, res.Err())

	dir := t.TempDir()
	e := manifest.Emitter{Writer: notation.MusicXML{}, Dir: dir, Render: cfg.RenderSettings()}
	m, failed, err := e.Emit(res.Parts, notation.HeaderFor(s))
	assert.NoError(t, err)
	assert.Empty(t, failed)

	// every note of the score comes back exactly once across the parts
	var total int
	for _, entry := range m.Entries {
		part, err := score.Load(entry.Source)
		assert.NoError(t, err)
		assert.Equal(t, "Duet", part.Title)
		assert.Equal(t, []model.Tempo{{At: 0, BPM: 96}}, part.Tempos)
		total += part.NoteCount()
	}
	assert.Equal(t, s.NoteCount(), total)
}

func postScore(t *testing.T, query string, s model.Score) (int, model.AssignResponse) {
	data, err := json.Marshal(s)
	assert.NoError(t, err)
	resp, err := http.Post(server.URL+"/assign"+query, "application/json", bytes.NewReader(data))
	assert.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var ar model.AssignResponse
	assert.NoError(t, json.Unmarshal(body, &ar))
	return resp.StatusCode, ar
}

func TestServeAssign(t *testing.T) {
	s := loadDuet(t)

	status, ar := postScore(t, "", s)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, ar.Failed)
	var notes int
	for _, p := range ar.Parts {
		notes += len(p.Notes)
	}
	assert.Equal(t, 5, notes)

	status, ar = postScore(t, "?copies=1", s)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.True(t, ar.Failed)
}

func TestServeInventory(t *testing.T) {
	resp, err := http.Get(server.URL + "/inventory")
	assert.NoError(t, err)
	defer resp.Body.Close()

	var entries []model.InventoryEntry
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, 8)
	for _, e := range entries {
		assert.Equal(t, 2, e.Copies)
	}
}
