package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdicomweb/index"
	"rdicomweb/web"
)

func TestHandleQIDO_RendersAttributesByTagAndDropsUngroundedColumns(t *testing.T) {
	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "PatientName": "Doe^Jane", "filepath": "a.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/studies", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entries []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)

	entry := entries[0]
	_, hasStudyUID := entry["0020000D"]
	assert.True(t, hasStudyUID)
	_, hasFilepath := entry["filepath"]
	assert.False(t, hasFilepath, "filepath has no tag dictionary entry and must not appear in the DICOMweb envelope")

	var patientName struct {
		VR    string   `json:"vr"`
		Value []string `json:"Value"`
	}
	require.NoError(t, json.Unmarshal(entry["00100010"], &patientName))
	assert.Equal(t, "PN", patientName.VR)
	assert.Equal(t, []string{"Doe^Jane"}, patientName.Value)
}
