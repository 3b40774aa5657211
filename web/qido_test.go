package web_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdicomweb/config"
	"rdicomweb/dataset"
	"rdicomweb/element"
	"rdicomweb/index"
	"rdicomweb/serializer"
	"rdicomweb/tag"
	"rdicomweb/value"
	"rdicomweb/vr"
	"rdicomweb/web"
)

func testConfig() *config.Config {
	cfg := &config.Config{TableName: "instances"}
	cfg.Indexing.Fields.Studies = []string{"StudyInstanceUID", "PatientName"}
	cfg.Indexing.Fields.Series = []string{"SeriesInstanceUID"}
	cfg.Indexing.Fields.Instances = []string{"SOPInstanceUID"}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, nil))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleQIDO_NotFound(t *testing.T) {
	store := &fakeStore{}
	srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleQIDO_FiltersByStudyUID(t *testing.T) {
	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "PatientName": "Doe^Jane", "filepath": "a.dcm"},
		{"StudyInstanceUID": "9.9.9", "PatientName": "Roe^Jo", "filepath": "b.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies/1.2.3", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Doe")
	assert.NotContains(t, w.Body.String(), "Roe")
}

func TestHandleQIDO_UnsupportedAccept(t *testing.T) {
	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "filepath": "a.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies", nil)
	req.Header.Set("Accept", "text/plain")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestHandleQIDO_LimitAndOffset(t *testing.T) {
	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "A", "filepath": "a.dcm"},
		{"StudyInstanceUID": "B", "filepath": "b.dcm"},
		{"StudyInstanceUID": "C", "filepath": "c.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies?limit=2&offset=0", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/dicom+json; charset=utf-8", w.Header().Get("Content-Type"))

	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)
}

// TestHandleQIDO_IncludeFieldReadsBackingFile exercises the non-indexed
// includefield fallback: Modality is not an index column, so the handler
// must open each row's backing file and read (0008,0060) from it.
func TestHandleQIDO_IncludeFieldReadsBackingFile(t *testing.T) {
	root := t.TempDir()

	ds := dataset.New()
	add := func(group, elem uint16, v vr.VR, val value.Value) {
		e, err := element.NewElement(tag.New(group, elem), v, val)
		require.NoError(t, err)
		require.NoError(t, ds.Add(e))
	}
	add(0x0008, 0x0016, vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{"1.2.840.10008.5.1.4.1.1.7"}))
	add(0x0008, 0x0018, vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{"1.2.3.4"}))
	add(0x0008, 0x0060, vr.CodeString, value.NewStringValue(vr.CodeString, []string{"OT"}))
	require.NoError(t, serializer.WriteFile(filepath.Join(root, "1.2.3.4.dcm"), ds, false))

	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "filepath": "1.2.3.4.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies?includefield=Modality", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	var modality struct {
		VR    string   `json:"vr"`
		Value []string `json:"Value"`
	}
	require.NoError(t, json.Unmarshal(entries[0]["00080060"], &modality))
	assert.Equal(t, "CS", modality.VR)
	assert.Equal(t, []string{"OT"}, modality.Value)
}
