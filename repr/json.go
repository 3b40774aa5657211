package repr

import (
	"encoding/json"
	"fmt"
)

// jsonNode mirrors the DICOMweb "Native DICOM Model" JSON shape for one
// attribute: {"vr": "...", "Value": [...]}, "Value" omitted entirely when
// the attribute carries no payload.
type jsonNode struct {
	VR          string          `json:"vr"`
	Value       []interface{}   `json:"Value,omitempty"`
	BulkDataURI string          `json:"BulkDataURI,omitempty"`
}

type jsonPersonName struct {
	Alphabetic string `json:"Alphabetic,omitempty"`
}

// ToJSON renders nodes as a DICOMweb JSON object keyed by 8-hex-digit
// lowercase tag (the QIDO projection in the web package uppercases its
// keys instead, per the DICOMweb search envelope convention).
// Key order is whatever encoding/json's map marshaling produces
// (alphabetical); the JSON model treats attributes as an unordered map, so
// this matches the format's own semantics.
func ToJSON(nodes []*Node) ([]byte, error) {
	obj, err := nodesToJSONMap(nodes)
	if err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

func nodesToJSONMap(nodes []*Node) (map[string]jsonNode, error) {
	obj := make(map[string]jsonNode, len(nodes))
	for _, n := range nodes {
		jn, err := nodeToJSON(n)
		if err != nil {
			return nil, err
		}
		obj[fmt.Sprintf("%04x%04x", n.Tag.Group, n.Tag.Element)] = jn
	}
	return obj, nil
}

func nodeToJSON(n *Node) (jsonNode, error) {
	jn := jsonNode{VR: n.VR.String()}

	if n.BulkDataURI != "" {
		jn.BulkDataURI = n.BulkDataURI
		return jn, nil
	}

	switch n.Kind {
	case KindEmpty:
		return jn, nil
	case KindString:
		jn.Value = []interface{}{n.Strings[0]}
	case KindNumeral:
		jn.Value = make([]interface{}, len(n.Numerals))
		for i, v := range n.Numerals {
			jn.Value[i] = v
		}
	case KindPersonName:
		jn.Value = make([]interface{}, len(n.PersonNames))
		for i, v := range n.PersonNames {
			jn.Value[i] = jsonPersonName{Alphabetic: v}
		}
	case KindSequence:
		jn.Value = make([]interface{}, len(n.Items))
		for i, item := range n.Items {
			itemMap, err := nodesToJSONMap(item)
			if err != nil {
				return jsonNode{}, err
			}
			jn.Value[i] = itemMap
		}
	}
	return jn, nil
}
