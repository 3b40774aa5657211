package web_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdicomweb/index"
	"rdicomweb/web"
)

func TestHandlePurge_RemovesMatchingRowAndFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.dcm"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.dcm"), []byte("x"), 0o644))

	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "filepath": "a.dcm"},
		{"StudyInstanceUID": "9.9.9", "filepath": "b.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	req := httptest.NewRequest(http.MethodDelete, "/studies/1.2.3", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, "9.9.9", store.rows[0].Get("StudyInstanceUID"))

	_, err := os.Stat(filepath.Join(root, "a.dcm"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "b.dcm"))
	assert.NoError(t, err)
}

func TestHandlePurge_AllWhenNoStudyUID(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{rows: []index.Row{
		{"StudyInstanceUID": "1.2.3", "filepath": "a.dcm"},
		{"StudyInstanceUID": "9.9.9", "filepath": "b.dcm"},
	}}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	req := httptest.NewRequest(http.MethodDelete, "/studies", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.rows)
}
