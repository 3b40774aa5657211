package web

import (
	"encoding/json"
	"fmt"
	"strings"

	"rdicomweb/index"
	"rdicomweb/tag"
)

// qidoEntry is one object in a QIDO-RS JSON envelope: a DICOMweb attribute
// map keyed by 8-hex-digit uppercase tag. Columns that carry no tag
// dictionary entry (the administrative "filepath" column) are left out.
type qidoEntry map[string]interface{}

// dicomWebAttr mirrors the DICOMweb JSON attribute shape this package also
// writes in repr.ToJSON, duplicated here because the QIDO projection
// applies its own (documented-quirky) string rendering: backslashes become
// commas instead of surfacing as a single backslash-joined string.
type dicomWebAttr struct {
	VR          string        `json:"vr"`
	Value       []interface{} `json:"Value,omitempty"`
	BulkDataURI string        `json:"BulkDataURI,omitempty"`
}

// marshalQIDORows renders rows as the DICOMweb JSON envelope: a top-level
// array of objects, one per row, each attribute keyed by its 8-hex-digit
// uppercase tag. Columns that resolve to a dictionary keyword render as
// {"vr":..., "Value":[...]} (or a BulkDataURI for large binary VRs);
// columns with no dictionary entry (e.g. "filepath") are dropped from the
// DICOMweb-shaped output, matching the standard's attribute-only model.
func marshalQIDORows(rows []index.Row) ([]byte, error) {
	entries := make([]qidoEntry, len(rows))
	for i, row := range rows {
		entries[i] = marshalQIDORow(row)
	}
	return json.Marshal(entries)
}

func marshalQIDORow(row index.Row) qidoEntry {
	entry := make(qidoEntry, len(row))
	for col, val := range row {
		info, err := tag.FindByKeyword(col)
		if err != nil {
			continue
		}
		key := fmt.Sprintf("%04X%04X", info.Tag.Group, info.Tag.Element)

		v := info.VRs[0]
		if isBulkDataVR(v) {
			entry[key] = dicomWebAttr{VR: v.String(), BulkDataURI: "/bulkdata/" + val}
			continue
		}

		// DICOMweb multi-value strings are backslash-separated; the QIDO
		// projection substitutes commas instead, a known inconsistency
		// with the serializer used by STOW (which respects backslashes).
		entry[key] = dicomWebAttr{VR: v.String(), Value: []interface{}{strings.ReplaceAll(val, "\\", ",")}}
	}
	return entry
}
