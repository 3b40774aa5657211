package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"rdicomweb/index"
	"rdicomweb/instance"
	"rdicomweb/tag"
	"rdicomweb/vr"
)

// isBulkDataVR reports whether v's payload is projected as a BulkDataURI
// reference rather than inlined in the QIDO JSON response.
func isBulkDataVR(v vr.VR) bool {
	switch v {
	case vr.OtherByte, vr.OtherWord, vr.OtherDouble, vr.OtherFloat, vr.OtherLong, vr.OtherVeryLong, vr.Unknown:
		return true
	default:
		return false
	}
}

// handleQIDO returns the handler for a QIDO search route grouping results
// by groupBy ("StudyInstanceUID", "SeriesInstanceUID", or "filepath" for
// the instance level, where filepath stands in for a natural per-instance
// key).
func (s *Server) handleQIDO(groupBy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := map[string]string{}
		if v := chi.URLParam(r, "studyUID"); v != "" {
			filters["StudyInstanceUID"] = v
		}
		if v := chi.URLParam(r, "seriesUID"); v != "" {
			filters["SeriesInstanceUID"] = v
		}
		if v := chi.URLParam(r, "instanceUID"); v != "" {
			filters["SOPInstanceUID"] = v
		}

		q := r.URL.Query()
		for k, v := range parseQueryFilters(q) {
			filters[k] = v
		}

		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		fuzzy := q.Get("fuzzymatching") == "true"
		includeFields := parseIncludeField(q)

		columns := s.cfg.AllColumns()
		rows, err := s.store.Search(index.Query{
			Columns: columns,
			Filters: filters,
			Fuzzy:   fuzzy,
			GroupBy: groupBy,
			Limit:   limit,
			Offset:  offset,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %v", ErrStorageFailure, err))
			return
		}
		if len(rows) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		s.enrichIncludeFields(rows, columns, includeFields)

		if _, ok := firstAccepted(acceptFormats(r.Header.Get("Accept")), qidoJSONMediaTypes...); !ok {
			writeError(w, http.StatusUnsupportedMediaType, ErrUnsupportedMediaType)
			return
		}

		body, err := marshalQIDORows(rows)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, "application/dicom+json; charset=utf-8", body)
	}
}

// parseQueryFilters extracts equality filter candidates from query
// parameters other than the reserved QIDO control parameters - anything
// else on the query string is treated as an attribute filter by keyword.
func parseQueryFilters(q map[string][]string) map[string]string {
	reserved := map[string]bool{
		"limit": true, "offset": true, "fuzzymatching": true, "includefield": true,
	}
	filters := map[string]string{}
	for k, vals := range q {
		if reserved[k] || len(vals) == 0 {
			continue
		}
		filters[k] = vals[0]
	}
	return filters
}

// parseIncludeField flattens repeated and comma-joined includefield query
// values into one list of requested field keywords.
func parseIncludeField(q map[string][]string) []string {
	var out []string
	for _, v := range q["includefield"] {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// enrichIncludeFields fills any requested field not present in columns by
// opening each row's backing file and reading the value directly - the
// "open the row's filepath, construct an Instance, fill by GetValue"
// fallback QIDO performs for non-indexed fields.
func (s *Server) enrichIncludeFields(rows []index.Row, columns []string, includeFields []string) {
	indexed := make(map[string]bool, len(columns))
	for _, c := range columns {
		indexed[c] = true
	}

	var missing []string
	for _, f := range includeFields {
		if f != "" && !indexed[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return
	}

	missingTags := make(map[string]tag.Tag, len(missing))
	for _, f := range missing {
		if info, err := tag.FindByKeyword(f); err == nil {
			missingTags[f] = info.Tag
		}
	}

	for _, row := range rows {
		fp := row.Get("filepath")
		if fp == "" || fp == index.UndefinedValue {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.root, fp))
		if err != nil {
			s.logger.Warn("qido: could not open instance for includefield", "filepath", fp, "error", err)
			continue
		}
		inst, err := instance.New(data)
		if err != nil {
			s.logger.Warn("qido: could not parse instance for includefield", "filepath", fp, "error", err)
			continue
		}
		for field, t := range missingTags {
			v, err := inst.GetValue(t)
			if err != nil {
				continue
			}
			row[field] = v.String()
		}
	}
}
