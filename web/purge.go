package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

// handlePurge implements the administrative DELETE /studies and
// DELETE /studies/{u} extension: it removes index rows matching the
// request's UID filter and best-effort removes their backing files. A
// file that fails to remove is logged, not fatal - the index row is the
// authoritative "is this known" state, so it is still deleted.
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request) {
	filters := map[string]string{}
	if v := chi.URLParam(r, "studyUID"); v != "" {
		filters["StudyInstanceUID"] = v
	}

	deleted, err := s.store.Delete(filters)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return
	}

	for _, row := range deleted {
		fp := row.Get("filepath")
		if fp == "" {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, fp)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("purge: could not remove backing file", "filepath", fp, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}
