package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"rdicomweb/dataset"
	"rdicomweb/index"
	"rdicomweb/repr"
	"rdicomweb/serializer"
	"rdicomweb/tag"
)

const maxSTOWBody = 64 << 20 // 64MiB: a generous single-instance JSON body cap

// handleSTOW implements POST /studies: decodes a DICOMweb JSON dataset
// body, streams it to a new file named after its SOPInstanceUID, and
// upserts its indexable fields. The file is written before the index is
// updated, so a reader observing the index row is guaranteed to find the
// file on disk.
func (s *Server) handleSTOW(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSTOWBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: reading request body: %v", ErrBadRequest, err))
		return
	}
	if len(body) > maxSTOWBody {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: request body exceeds %d bytes", ErrBadRequest, maxSTOWBody))
		return
	}

	ds, err := repr.FromJSON(body)
	if err != nil {
		line, col := jsonErrorPosition(body, err)
		writeBadRequest(w, line, col, err)
		return
	}

	sopInstance, ok := ds.Get(tag.New(0x0008, 0x0018))
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: SOPInstanceUID (0008,0018)", serializer.ErrMissingRequiredTag))
		return
	}
	filename := sopInstance.Value().String() + ".dcm"
	path := filepath.Join(s.root, filename)

	if err := serializer.WriteFile(path, ds, s.cfg.StoreOverwrite); err != nil {
		s.logger.Warn("stow: could not write instance", "filepath", filename, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return
	}

	row := rowFromDataset(ds, s.cfg.AllColumns(), filename)
	if err := s.store.Write(row); err != nil {
		s.logger.Warn("stow: could not update index", "filepath", filename, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrStorageFailure, err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

// rowFromDataset projects ds onto an index.Row restricted to columns,
// stringifying each element with the serializer-facing backslash-preserving
// rendering (the QIDO JSON projection's comma substitution is a read-path
// quirk that does not apply here).
func rowFromDataset(ds *dataset.DataSet, columns []string, filename string) index.Row {
	row := make(index.Row, len(columns))
	for _, col := range columns {
		if col == "filepath" {
			continue
		}
		info, err := tag.FindByKeyword(col)
		if err != nil {
			continue
		}
		elem, ok := ds.Get(info.Tag)
		if !ok {
			continue
		}
		row[col] = elem.Value().String()
	}
	row["filepath"] = filename
	return row
}

// jsonErrorPosition recovers a 1-indexed line/column for a json.Unmarshal
// failure wrapped by repr.FromJSON, for the BadRequest error contract's
// "line/column of the malformed body" requirement. Returns (0, 0) when err
// carries no byte offset (e.g. a semantic error raised after a successful
// parse).
func jsonErrorPosition(body []byte, err error) (line, column int) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var offset int64
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return 0, 0
	}

	line = 1
	lastNewline := -1
	for i := int64(0); i < offset && i < int64(len(body)); i++ {
		if body[i] == '\n' {
			line++
			lastNewline = int(i)
		}
	}
	column = int(offset) - lastNewline
	return line, column
}
