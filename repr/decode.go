package repr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"rdicomweb/dataset"
	"rdicomweb/element"
	"rdicomweb/tag"
	"rdicomweb/value"
	"rdicomweb/vr"
)

// rawNode is the wire shape of one DICOMweb JSON attribute, kept as raw
// messages so the VR can be consulted before the Value entries are
// interpreted.
type rawNode struct {
	VR          string            `json:"vr"`
	Value       []json.RawMessage `json:"Value,omitempty"`
	BulkDataURI string            `json:"BulkDataURI,omitempty"`
}

type rawPersonName struct {
	Alphabetic string `json:"Alphabetic"`
}

// FromJSON decodes a DICOMweb JSON attribute object (as posted to STOW-RS)
// into a DataSet of fully-typed elements, ready for the binary serializer.
func FromJSON(data []byte) (*dataset.DataSet, error) {
	var obj map[string]rawNode
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("repr: invalid JSON dataset: %w", err)
	}
	elems, err := decodeAttrs(obj)
	if err != nil {
		return nil, err
	}
	ds := dataset.New()
	for _, e := range elems {
		if err := ds.Add(e); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func decodeAttrs(obj map[string]rawNode) ([]*element.Element, error) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	elems := make([]*element.Element, 0, len(keys))
	for _, key := range keys {
		t, err := parseHexTag(key)
		if err != nil {
			return nil, err
		}
		elem, err := decodeElement(t, obj[key])
		if err != nil {
			return nil, fmt.Errorf("repr: decoding %s: %w", t.String(), err)
		}
		elems = append(elems, elem)
	}
	return elems, nil
}

func parseHexTag(key string) (tag.Tag, error) {
	if len(key) != 8 {
		return tag.Tag{}, fmt.Errorf("repr: invalid attribute key %q, want 8 hex digits", key)
	}
	g, err := strconv.ParseUint(key[0:4], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("repr: invalid group in key %q: %w", key, err)
	}
	e, err := strconv.ParseUint(key[4:8], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("repr: invalid element in key %q: %w", key, err)
	}
	return tag.New(uint16(g), uint16(e)), nil
}

func decodeElement(t tag.Tag, rn rawNode) (*element.Element, error) {
	v, err := vr.Parse(rn.VR)
	if err != nil {
		return nil, err
	}

	switch v {
	case vr.SequenceOfItems:
		items := make([][]*element.Element, len(rn.Value))
		for i, raw := range rn.Value {
			var itemObj map[string]rawNode
			if err := json.Unmarshal(raw, &itemObj); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			children, err := decodeAttrs(itemObj)
			if err != nil {
				return nil, err
			}
			items[i] = children
		}
		return element.NewElement(t, v, element.NewSequence(items))

	case vr.OtherByte, vr.OtherWord, vr.Unknown:
		if len(rn.Value) == 0 {
			return element.NewElement(t, v, value.NewBytesValue(v, nil))
		}
		var b64 string
		if err := json.Unmarshal(rn.Value[0], &b64); err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 payload: %w", err)
		}
		if v == vr.OtherWord {
			wv, err := value.DecodeOW(raw)
			if err != nil {
				return nil, err
			}
			return element.NewElement(t, v, wv)
		}
		return element.NewElement(t, v, value.NewBytesValue(v, raw))

	case vr.IntegerString:
		if len(rn.Value) == 0 {
			return element.NewElement(t, v, value.NewStringValue(v, nil))
		}
		var num float64
		if err := json.Unmarshal(rn.Value[0], &num); err != nil {
			return nil, err
		}
		s := strconv.FormatInt(int64(math.Round(num)), 10)
		return element.NewElement(t, v, value.NewStringValue(v, []string{s}))

	case vr.SignedLong, vr.SignedShort, vr.UnsignedLong, vr.UnsignedShort:
		ints := make([]int64, len(rn.Value))
		for i, raw := range rn.Value {
			var num float64
			if err := json.Unmarshal(raw, &num); err != nil {
				return nil, err
			}
			ints[i] = int64(math.Round(num))
		}
		return element.NewElement(t, v, value.NewIntValue(v, ints))

	case vr.FloatingPointDouble, vr.FloatingPointSingle:
		if len(rn.Value) == 0 {
			return element.NewElement(t, v, value.NewFloatValue(v, nil))
		}
		var s string
		if err := json.Unmarshal(rn.Value[0], &s); err != nil {
			return nil, err
		}
		parts := strings.Split(s, "\\")
		floats := make([]float64, len(parts))
		for i, p := range parts {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return nil, err
			}
			floats[i] = f
		}
		return element.NewElement(t, v, value.NewFloatValue(v, floats))

	case vr.AttributeTag:
		if len(rn.Value) == 0 {
			return nil, fmt.Errorf("AT attribute requires a value")
		}
		var s string
		if err := json.Unmarshal(rn.Value[0], &s); err != nil {
			return nil, err
		}
		refTag, err := tag.Parse(s)
		if err != nil {
			return nil, err
		}
		return element.NewElement(t, v, value.NewTagValue(refTag))

	case vr.PersonName:
		names := make([]string, len(rn.Value))
		for i, raw := range rn.Value {
			var pn rawPersonName
			if err := json.Unmarshal(raw, &pn); err != nil {
				return nil, err
			}
			names[i] = pn.Alphabetic
		}
		return element.NewElement(t, v, value.NewStringValue(v, names))

	default:
		// String-array VRs, plus the opaque fallback VRs (OD, OF, OL, OV)
		// this core never gives a dedicated JSON payload shape: both
		// reconstruct from the single backslash-joined string produced by
		// the matching encode path.
		if len(rn.Value) == 0 {
			return element.NewElement(t, v, value.NewStringValue(v, nil))
		}
		var s string
		if err := json.Unmarshal(rn.Value[0], &s); err != nil {
			return nil, err
		}
		return element.NewElement(t, v, value.NewStringValue(v, strings.Split(s, "\\")))
	}
}
