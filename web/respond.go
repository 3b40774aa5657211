package web

import (
	"encoding/json"
	"net/http"
)

func writeJSON(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck // response already committed via WriteHeader
}

// mustMarshalJSON marshals v, returning an empty JSON object on failure -
// used only for values (the capabilities document) whose shape is fixed at
// compile time and therefore never actually fails to marshal.
func mustMarshalJSON(v interface{}) []byte {
	body, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return body
}

func writeError(w http.ResponseWriter, status int, err error) {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	writeJSON(w, status, "application/json; charset=utf-8", body)
}

// writeBadRequest reports a malformed JSON STOW body with its decode
// position, per the line/column contract of a BadRequest error kind.
func writeBadRequest(w http.ResponseWriter, line, column int, err error) {
	body, _ := json.Marshal(map[string]interface{}{
		"error":  err.Error(),
		"line":   line,
		"column": column,
	})
	writeJSON(w, http.StatusBadRequest, "application/json; charset=utf-8", body)
}
