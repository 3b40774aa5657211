package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdicomweb/web"
)

func TestHandleCapabilities_JSON(t *testing.T) {
	srv := web.NewServer(testConfig(), &fakeStore{}, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "json")
	assert.NotContains(t, w.Body.String(), `"@`)
	assert.Contains(t, w.Body.String(), "studies")
}

func TestHandleCapabilities_XML(t *testing.T) {
	srv := web.NewServer(testConfig(), &fakeStore{}, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/dicom+xml")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "xml")
	assert.Contains(t, w.Body.String(), "<application")
}

func TestHandleCapabilities_UnsupportedAccept(t *testing.T) {
	srv := web.NewServer(testConfig(), &fakeStore{}, t.TempDir(), discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/plain")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}
