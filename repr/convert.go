package repr

import (
	"encoding/base64"
	"strconv"

	"rdicomweb/instance"
	"rdicomweb/tag"
	"rdicomweb/value"
	"rdicomweb/vr"
)

// Convert walks a list of top-level (or Item-nested) attributes and builds
// one Node per attribute, applying the payload selection rules shared by the
// JSON and XML encoders. Sequence Delimitation pseudo-attributes never
// appear in attrs (instance.Instance already strips them), so every
// attribute here yields exactly one Node.
func Convert(attrs []instance.Attribute) ([]*Node, error) {
	nodes := make([]*Node, 0, len(attrs))
	for _, a := range attrs {
		n, err := convertAttribute(a)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func convertAttribute(a instance.Attribute) (*Node, error) {
	n := &Node{Tag: a.Tag, VR: a.VR}
	if info, err := tag.Find(a.Tag); err == nil {
		n.Keyword = info.Keyword
	}

	switch a.VR {
	case vr.SequenceOfItems:
		n.Kind = KindSequence
		for _, item := range a.Items {
			children, err := Convert(item.Items)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, children)
		}
		return n, nil

	case vr.OtherByte, vr.OtherWord, vr.Unknown:
		// Encapsulated PixelData (undefined length, fragment Items) has no
		// single contiguous payload to inline; it is reported empty rather
		// than guessed at, since reassembling compressed frames is out of
		// scope here.
		if a.HasUndefinedLength() {
			n.Kind = KindEmpty
			return n, nil
		}
		n.Kind = KindString
		n.Strings = []string{base64.StdEncoding.EncodeToString(a.RawBytes())}
		return n, nil

	case vr.IntegerString:
		val, err := a.Decode()
		if err != nil {
			return nil, err
		}
		strs := val.(*value.StringValue).Strings()
		if len(strs) == 0 || strs[0] == "" {
			n.Kind = KindEmpty
			return n, nil
		}
		iv, perr := strconv.ParseInt(strs[0], 10, 64)
		if perr != nil {
			n.Kind = KindEmpty
			return n, nil
		}
		n.Kind = KindNumeral
		n.Numerals = []float64{float64(iv)}
		return n, nil

	case vr.SignedLong, vr.SignedShort, vr.UnsignedLong, vr.UnsignedShort:
		val, err := a.Decode()
		if err != nil {
			return nil, err
		}
		n.Kind = KindNumeral
		for _, x := range val.(*value.IntValue).Ints() {
			n.Numerals = append(n.Numerals, float64(x))
		}
		return n, nil

	case vr.PersonName:
		val, err := a.Decode()
		if err != nil {
			return nil, err
		}
		n.Kind = KindPersonName
		n.PersonNames = []string{val.String()}
		return n, nil

	default:
		val, err := a.Decode()
		if err != nil {
			return nil, err
		}
		n.Kind = KindString
		n.Strings = []string{val.String()}
		return n, nil
	}
}

// WithBulkDataURI returns a shallow copy of n carrying a bulkdata reference,
// which ToJSON renders in place of the inlined payload.
func WithBulkDataURI(n *Node, uri string) *Node {
	cp := *n
	cp.BulkDataURI = uri
	return &cp
}
