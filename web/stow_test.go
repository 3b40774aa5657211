package web_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rdicomweb/web"
)

const stowBody = `{
  "00080016": {"vr": "UI", "Value": ["1.2.840.10008.5.1.4.1.1.7"]},
  "00080018": {"vr": "UI", "Value": ["1.2.3.4.5.6.7"]},
  "00100010": {"vr": "PN", "Value": [{"Alphabetic": "Doe^Jane"}]}
}`

func TestHandleSTOW_WritesFileAndIndexRow(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/studies", bytes.NewBufferString(stowBody))
	req.Header.Set("Content-Type", "application/dicom+json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.rows, 1)
	assert.Equal(t, "1.2.3.4.5.6.7.dcm", store.rows[0].Get("filepath"))

	data, err := os.ReadFile(filepath.Join(root, "1.2.3.4.5.6.7.dcm"))
	require.NoError(t, err)
	assert.Equal(t, "DICM", string(data[128:132]))
}

func TestHandleSTOW_MissingSOPInstanceUID(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	body := `{"00080016": {"vr": "UI", "Value": ["1.2.840.10008.5.1.4.1.1.7"]}}`
	req := httptest.NewRequest(http.MethodPost, "/studies", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.rows)
}

func TestHandleSTOW_MalformedJSON(t *testing.T) {
	root := t.TempDir()
	store := &fakeStore{}
	srv := web.NewServer(testConfig(), store, root, discardLogger())

	req := httptest.NewRequest(http.MethodPost, "/studies", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestHandleSTOW_OverwritePolicy is the store_overwrite scenario: a second
// POST of the same instance fails with 500 when overwrite is off, and
// replaces the file plus updates (not duplicates) the index row when it is
// on.
func TestHandleSTOW_OverwritePolicy(t *testing.T) {
	post := func(srv *web.Server) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/studies", bytes.NewBufferString(stowBody))
		req.Header.Set("Content-Type", "application/dicom+json")
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		return w
	}

	t.Run("second store refused without overwrite", func(t *testing.T) {
		store := &fakeStore{}
		srv := web.NewServer(testConfig(), store, t.TempDir(), discardLogger())

		require.Equal(t, http.StatusOK, post(srv).Code)
		assert.Equal(t, http.StatusInternalServerError, post(srv).Code)
		assert.Len(t, store.rows, 1)
	})

	t.Run("second store replaces with overwrite", func(t *testing.T) {
		cfg := testConfig()
		cfg.StoreOverwrite = true
		store := &fakeStore{}
		srv := web.NewServer(cfg, store, t.TempDir(), discardLogger())

		require.Equal(t, http.StatusOK, post(srv).Code)
		require.Equal(t, http.StatusOK, post(srv).Code)
		assert.Len(t, store.rows, 1)
	})
}
