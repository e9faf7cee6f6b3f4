package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsphweid/boomparts/model"
)

const c4 = 48

func note(semis int, onset, dur model.Ticks) model.Note {
	return model.Note{Pitch: model.PitchFromSemitones(semis), Onset: onset, Duration: dur}
}

// two voices hitting C at once for one beat
func overlappingScore() model.Score {
	return model.Score{Division: 1, Voices: []model.Voice{
		{ID: 1, Notes: []model.Note{note(c4, 0, 2)}},
		{ID: 2, Notes: []model.Note{note(c4, 1, 2)}},
	}}
}

func createAssignReqBody(s model.Score) io.Reader {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err.Error())
	}
	return bytes.NewReader(data)
}

func doAssign(t *testing.T, target string, s model.Score) (int, model.AssignResponse) {
	req := httptest.NewRequest(http.MethodPost, target, createAssignReqBody(s))
	w := httptest.NewRecorder()
	HandleAssign(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	var ar model.AssignResponse
	assert.NoError(t, json.Unmarshal(body, &ar))
	return resp.StatusCode, ar
}

func TestHandleAssignConflictFails(t *testing.T) {
	status, ar := doAssign(t, "/assign", overlappingScore())

	assert := assert.New(t)
	assert.Equal(http.StatusUnprocessableEntity, status)
	assert.True(ar.Failed)
	assert.Len(ar.Diagnostics, 1)
	assert.Equal(model.IrresolvableTubeConflict, ar.Diagnostics[0].Kind)
	assert.Equal(2, ar.Diagnostics[0].Required)
	assert.Empty(ar.Parts)
}

func TestHandleAssignWithMoreCopies(t *testing.T) {
	status, ar := doAssign(t, "/assign?copies=2", overlappingScore())

	assert := assert.New(t)
	assert.Equal(http.StatusOK, status)
	assert.False(ar.Failed)
	assert.Empty(ar.Diagnostics)
	assert.Len(ar.Parts, 2)
	assert.Len(ar.Performers, 2)
}

func TestHandleAssignBestEffort(t *testing.T) {
	status, ar := doAssign(t, "/assign?policy=best-effort&packing=note", overlappingScore())

	assert.Equal(t, http.StatusOK, status)
	assert.False(t, ar.Failed)
	assert.Len(t, ar.Diagnostics, 1)
	assert.Len(t, ar.Parts, 2)
}

func TestHandleAssignBadRequests(t *testing.T) {
	for _, target := range []string{"/assign?copies=lots", "/assign?policy=maybe", "/assign?copies=0"} {
		req := httptest.NewRequest(http.MethodPost, target, createAssignReqBody(overlappingScore()))
		w := httptest.NewRecorder()
		HandleAssign(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	req := httptest.NewRequest(http.MethodPost, "/assign", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	HandleAssign(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var er model.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Contains(t, er.Error, "Could not read score")
}

func TestHandleAssignRejectsDuplicateVoiceIDs(t *testing.T) {
	s := overlappingScore()
	s.Voices[1].ID = 1

	req := httptest.NewRequest(http.MethodPost, "/assign", createAssignReqBody(s))
	w := httptest.NewRecorder()
	HandleAssign(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var er model.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Contains(t, er.Error, "voice id 1")
}

func TestHandleInventory(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
	w := httptest.NewRecorder()
	HandleInventory(w, req)

	var entries []model.InventoryEntry
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 8)
	assert.Equal(t, model.InventoryEntry{Name: "C", Color: "red", Pitch: "C4", Copies: 1}, entries[0])
	assert.Equal(t, "C+1", entries[7].Name)
}

func TestRouterAppliesCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	NewRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
