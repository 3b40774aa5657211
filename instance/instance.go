package instance

import (
	"encoding/binary"
	"fmt"

	"rdicomweb/tag"
	"rdicomweb/uid"
	"rdicomweb/value"
	"rdicomweb/vr"
)

const (
	preambleLength = 128
	dicmMagic      = "DICM"
	undefinedLen32 = 0xFFFFFFFF
)

// Attribute is one parsed DICOM data element. Leaf attributes carry a
// reference into the instance's buffer; sequence and item attributes carry
// nested child attributes instead.
type Attribute struct {
	Tag tag.Tag
	VR  vr.VR

	// valueOffset/valueLength locate the raw value payload for leaf
	// attributes within the owning Instance's buffer. valueLength is -1
	// for attributes whose wire length was the undefined-length sentinel
	// (sequences and encapsulated pixel data).
	valueOffset int
	valueLength int

	// Items holds, for a Sequence of Items (SQ), one Attribute per Item
	// (each itself carrying the item's decoded child attributes); for an
	// Item, the item's own child attributes; for encapsulated PixelData,
	// one Attribute per opaque fragment (including the Basic Offset Table
	// as the first fragment).
	Items []Attribute

	buf []byte
}

// HasUndefinedLength reports whether this attribute's wire length was the
// undefined-length sentinel (0xFFFFFFFF).
func (a Attribute) HasUndefinedLength() bool { return a.valueLength < 0 }

// RawBytes returns the raw, undecoded value payload of a leaf attribute.
func (a Attribute) RawBytes() []byte {
	if a.valueLength <= 0 {
		return nil
	}
	return a.buf[a.valueOffset : a.valueOffset+a.valueLength]
}

// Decode decodes this attribute's raw payload into a typed Value according
// to its VR.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
func (a Attribute) Decode() (value.Value, error) {
	switch a.Tag {
	case tag.New(0xFFFE, 0xE00D):
		return value.SeqItemEnd, nil
	case tag.New(0xFFFE, 0xE0DD):
		return value.SeqEnd, nil
	}

	if a.VR == vr.SequenceOfItems {
		items := make([]value.Value, len(a.Items))
		for i, item := range a.Items {
			children, err := item.decodeChildren()
			if err != nil {
				return nil, err
			}
			items[i] = value.NewSeqItem(children)
		}
		return value.NewSequence(items), nil
	}

	if a.Tag.Equals(tag.New(0xFFFE, 0xE000)) {
		children, err := a.decodeChildren()
		if err != nil {
			return nil, err
		}
		return value.NewSeqItem(children), nil
	}

	data := a.RawBytes()
	switch a.VR {
	case vr.ApplicationEntity, vr.AgeString, vr.CodeString, vr.Date, vr.DecimalString,
		vr.DateTime, vr.IntegerString, vr.LongString, vr.LongText, vr.PersonName,
		vr.ShortString, vr.ShortText, vr.Time, vr.UnlimitedCharacters,
		vr.UniqueIdentifier, vr.UniversalResourceIdentifier, vr.UnlimitedText:
		return value.DecodeStringArray(a.VR, data)
	case vr.SignedShort, vr.UnsignedShort, vr.SignedLong, vr.UnsignedLong:
		return value.DecodeScalar(a.VR, data)
	case vr.FloatingPointDouble:
		return value.DecodeFD(data)
	case vr.FloatingPointSingle:
		return value.DecodeFL(data)
	case vr.AttributeTag:
		return value.DecodeAT(data)
	case vr.OtherWord:
		return value.DecodeOW(data)
	default:
		// OB, OD, OF, OL, OV, UN and any other unrecognized VR decode as
		// an opaque byte buffer.
		return value.DecodeBytes(a.VR, data)
	}
}

func (a Attribute) decodeChildren() ([]value.Value, error) {
	children := make([]value.Value, 0, len(a.Items))
	for _, child := range a.Items {
		v, err := child.Decode()
		if err != nil {
			return nil, err
		}
		children = append(children, v)
	}
	return children, nil
}

// Instance is a parsed DICOM Part 10 file: its File Meta Information and
// the top-level attributes of its dataset.
type Instance struct {
	buf            []byte
	implicit       bool
	transferSyntax uid.UID

	metaAttrs []Attribute
	attrs     []Attribute
}

// walkState carries the mutable bits of context a dataset walk needs beyond
// the raw buffer: whether values are implicit VR, and the last-seen
// PixelRepresentation, used to resolve the implicit-VR US/SS override for
// SmallestImagePixelValue and LargestImagePixelValue.
type walkState struct {
	implicit            bool
	pixelRepresentation int64
	havePixelRepr       bool
}

// New parses a DICOM Part 10 file from data: its 128-byte preamble, "DICM"
// magic, File Meta Information group, and dataset body.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func New(data []byte) (*Instance, error) {
	if len(data) < preambleLength+4 || string(data[preambleLength:preambleLength+4]) != dicmMagic {
		return nil, ErrNotDicom
	}

	inst := &Instance{buf: data}

	metaStart := preambleLength + 4
	metaState := &walkState{implicit: false}
	groupLenAttr, metaEnd, err := readAttribute(data, metaStart, metaState)
	if err != nil {
		return nil, fmt.Errorf("instance: reading FileMetaInformationGroupLength: %w", err)
	}
	if !groupLenAttr.Tag.Equals(tag.New(0x0002, 0x0000)) {
		return nil, fmt.Errorf("instance: missing FileMetaInformationGroupLength")
	}
	groupLenVal, err := groupLenAttr.Decode()
	if err != nil {
		return nil, fmt.Errorf("instance: decoding FileMetaInformationGroupLength: %w", err)
	}
	groupLenInt, ok := groupLenVal.(*value.IntValue)
	if !ok {
		return nil, fmt.Errorf("instance: FileMetaInformationGroupLength has unexpected type")
	}
	metaBodyEnd := metaEnd + int(groupLenInt.First())

	if metaBodyEnd > len(data) {
		return nil, ErrTruncated
	}
	rest, _, err := readDataset(data, metaEnd, metaBodyEnd, metaState)
	if err != nil {
		return nil, fmt.Errorf("instance: reading file meta information: %w", err)
	}
	inst.metaAttrs = append([]Attribute{groupLenAttr}, rest...)

	tsAttr, ok := findAttribute(inst.metaAttrs, tag.New(0x0002, 0x0010))
	if !ok {
		return nil, ErrMissingTransferSyntax
	}
	tsVal, err := tsAttr.Decode()
	if err != nil {
		return nil, fmt.Errorf("instance: decoding TransferSyntaxUID: %w", err)
	}
	tsStr, ok := tsVal.(*value.StringValue)
	if !ok || len(tsStr.Strings()) == 0 {
		return nil, ErrMissingTransferSyntax
	}
	ts, err := uid.Parse(tsStr.Strings()[0])
	if err != nil {
		return nil, fmt.Errorf("instance: invalid TransferSyntaxUID: %w", err)
	}
	if uid.IsRejected(ts) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransferSyntax, ts.String())
	}
	inst.transferSyntax = ts
	inst.implicit = uid.IsImplicit(ts)

	dsState := &walkState{implicit: inst.implicit}
	attrs, _, err := readDataset(data, metaBodyEnd, len(data), dsState)
	if err != nil {
		return nil, fmt.Errorf("instance: reading dataset: %w", err)
	}
	inst.attrs = attrs

	return inst, nil
}

func findAttribute(attrs []Attribute, t tag.Tag) (Attribute, bool) {
	for _, a := range attrs {
		if a.Tag.Equals(t) {
			return a, true
		}
	}
	return Attribute{}, false
}

// Iterate returns the top-level attributes of the dataset body, in wire
// order. It does not descend into sequences; use Attribute.Items for that.
func (inst *Instance) Iterate() []Attribute {
	return inst.attrs
}

// MetaAttributes returns the parsed File Meta Information attributes
// (group 0x0002), in wire order.
func (inst *Instance) MetaAttributes() []Attribute {
	return inst.metaAttrs
}

// TransferSyntax returns the transfer syntax UID this instance was decoded
// with.
func (inst *Instance) TransferSyntax() uid.UID {
	return inst.transferSyntax
}

// GetValue looks up a tag by walking the top-level attributes; when a
// top-level attribute is a Sequence of Items, its Items and their children
// are searched recursively before moving to the next top-level attribute.
// Returns ErrTagNotFound once the whole tree has been exhausted without a
// match, or the first error encountered while decoding a candidate
// attribute. Private and otherwise-unrecognized tags are never rejected.
func (inst *Instance) GetValue(t tag.Tag) (value.Value, error) {
	if v, found, err := searchAttributes(inst.attrs, t); err != nil || found {
		return v, err
	}
	if t.IsMetaElement() {
		if v, found, err := searchAttributes(inst.metaAttrs, t); err != nil || found {
			return v, err
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTagNotFound, t.String())
}

// searchAttributes looks for t among attrs, descending into the Items of
// any Sequence of Items attribute whose own tag does not match. It reports
// (value, true, nil) on the first match, (nil, false, nil) if t is absent
// from this subtree, or (nil, false, err) if decoding a candidate match
// failed.
func searchAttributes(attrs []Attribute, t tag.Tag) (value.Value, bool, error) {
	for _, a := range attrs {
		if a.Tag.Equals(t) {
			v, err := a.Decode()
			return v, true, err
		}
		if a.VR == vr.SequenceOfItems {
			for _, item := range a.Items {
				if v, found, err := searchAttributes(item.Items, t); err != nil || found {
					return v, found, err
				}
			}
		}
	}
	return nil, false, nil
}

// readDataset reads consecutive attributes starting at offset until it
// reaches end (a concrete byte offset) or, if end < 0, until it consumes an
// Item Delimitation or Sequence Delimitation Item. It returns the decoded attributes and the
// offset immediately past the last one read.
func readDataset(buf []byte, offset, end int, state *walkState) ([]Attribute, int, error) {
	var attrs []Attribute
	for {
		if end >= 0 && offset >= end {
			return attrs, offset, nil
		}
		if offset >= len(buf) {
			if end < 0 {
				return nil, offset, ErrTruncated
			}
			return attrs, offset, nil
		}

		a, next, err := readAttribute(buf, offset, state)
		if err != nil {
			return nil, offset, err
		}
		offset = next

		if a.Tag.Group == 0xFFFE && a.Tag.Element == 0xE0DD {
			// Sequence Delimitation Item: present only terminating an
			// undefined-length container; do not surface it as a
			// dataset member.
			return attrs, offset, nil
		}

		if end < 0 && a.Tag.Group == 0xFFFE && a.Tag.Element == 0xE00D {
			// Item Delimitation Item: closes an undefined-length Item.
			return attrs, offset, nil
		}

		if a.Tag.Equals(tag.New(0x0028, 0x0103)) {
			if iv, ok := mustInt(a); ok {
				state.pixelRepresentation = iv
				state.havePixelRepr = true
			}
		}

		attrs = append(attrs, a)
	}
}

func mustInt(a Attribute) (int64, bool) {
	v, err := a.Decode()
	if err != nil {
		return 0, false
	}
	iv, ok := v.(*value.IntValue)
	if !ok {
		return 0, false
	}
	return iv.First(), true
}

// readAttribute reads a single tag, VR and length header, followed by its
// value (or, for sequences, items, and encapsulated pixel data, its nested
// content). It never panics; malformed input produces an error.
func readAttribute(buf []byte, offset int, state *walkState) (Attribute, int, error) {
	if offset+4 > len(buf) {
		return Attribute{}, offset, ErrTruncated
	}
	group := binary.LittleEndian.Uint16(buf[offset:])
	element := binary.LittleEndian.Uint16(buf[offset+2:])
	offset += 4
	t := tag.New(group, element)

	if group == 0xFFFE {
		return readItemPseudoAttribute(buf, offset, t, state)
	}

	var v vr.VR
	var explicitLength32 bool
	if state.implicit {
		v, explicitLength32 = resolveImplicitVR(t, state)
	} else {
		if offset+2 > len(buf) {
			return Attribute{}, offset, ErrTruncated
		}
		code := string(buf[offset : offset+2])
		offset += 2
		parsed, err := vr.Parse(code)
		if err != nil {
			// Malformed VR code: fall back to Unknown rather than
			// failing the whole parse.
			parsed = vr.Unknown
		}
		v = parsed
		explicitLength32 = v.UsesExplicitLength32()
	}

	var length int
	if state.implicit {
		// Implicit VR Little Endian always uses a 4-byte length field,
		// regardless of VR.
		if offset+4 > len(buf) {
			return Attribute{}, offset, ErrTruncated
		}
		raw := binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
		if raw == undefinedLen32 {
			length = -1
		} else {
			length = int(raw)
		}
	} else if explicitLength32 {
		offset += 2 // reserved bytes
		if offset+4 > len(buf) {
			return Attribute{}, offset, ErrTruncated
		}
		raw := binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
		if raw == undefinedLen32 {
			length = -1
		} else {
			length = int(raw)
		}
	} else {
		if offset+2 > len(buf) {
			return Attribute{}, offset, ErrTruncated
		}
		length = int(binary.LittleEndian.Uint16(buf[offset:]))
		offset += 2
	}

	a := Attribute{Tag: t, VR: v, buf: buf}

	if v == vr.SequenceOfItems {
		items, next, err := readSequenceItems(buf, offset, length, state)
		if err != nil {
			return Attribute{}, offset, err
		}
		a.Items = items
		a.valueLength = -1
		if length >= 0 {
			a.valueLength = length
		}
		return a, next, nil
	}

	if length < 0 {
		if t.Equals(tag.New(0x7FE0, 0x0010)) {
			fragments, next, err := readPixelFragments(buf, offset)
			if err != nil {
				return Attribute{}, offset, err
			}
			a.Items = fragments
			a.valueLength = -1
			return a, next, nil
		}
		return Attribute{}, offset, fmt.Errorf("instance: undefined length on non-sequence attribute %s", t.String())
	}

	if offset+length > len(buf) {
		return Attribute{}, offset, ErrTruncated
	}
	a.valueOffset = offset
	a.valueLength = length
	offset += length

	return a, offset, nil
}

// readItemPseudoAttribute reads the (FFFE,E000)/(FFFE,E00D)/(FFFE,E0DD)
// pseudo-attributes: Item, Item Delimitation and Sequence Delimitation.
func readItemPseudoAttribute(buf []byte, offset int, t tag.Tag, state *walkState) (Attribute, int, error) {
	if offset+4 > len(buf) {
		return Attribute{}, offset, ErrTruncated
	}
	raw := binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	switch t.Element {
	case 0xE00D, 0xE0DD:
		return Attribute{Tag: t, buf: buf}, offset, nil
	case 0xE000:
		if raw == undefinedLen32 {
			children, next, err := readDataset(buf, offset, -1, state)
			if err != nil {
				return Attribute{}, offset, err
			}
			return Attribute{Tag: t, buf: buf, Items: children, valueLength: -1}, next, nil
		}
		end := offset + int(raw)
		if end > len(buf) {
			return Attribute{}, offset, ErrTruncated
		}
		children, _, err := readDataset(buf, offset, end, state)
		if err != nil {
			return Attribute{}, offset, err
		}
		return Attribute{Tag: t, buf: buf, Items: children, valueOffset: offset, valueLength: int(raw)}, end, nil
	default:
		return Attribute{}, offset, fmt.Errorf("instance: unexpected element %04X in group FFFE", t.Element)
	}
}

// readSequenceItems reads the Item entries of a Sequence of Items value,
// bounded either by an explicit length or, for an undefined-length
// sequence, by a trailing Sequence Delimitation Item.
func readSequenceItems(buf []byte, offset, length int, state *walkState) ([]Attribute, int, error) {
	var items []Attribute
	if length >= 0 {
		end := offset + length
		if end > len(buf) {
			return nil, offset, ErrTruncated
		}
		for offset < end {
			a, next, err := readItemOnly(buf, offset, state)
			if err != nil {
				return nil, offset, err
			}
			items = append(items, a)
			offset = next
		}
		return items, offset, nil
	}
	for {
		if offset+4 > len(buf) {
			return nil, offset, ErrTruncated
		}
		group := binary.LittleEndian.Uint16(buf[offset:])
		element := binary.LittleEndian.Uint16(buf[offset+2:])
		if group == 0xFFFE && element == 0xE0DD {
			return items, offset + 8, nil
		}
		a, next, err := readItemOnly(buf, offset, state)
		if err != nil {
			return nil, offset, err
		}
		items = append(items, a)
		offset = next
	}
}

func readItemOnly(buf []byte, offset int, state *walkState) (Attribute, int, error) {
	if offset+4 > len(buf) {
		return Attribute{}, offset, ErrTruncated
	}
	group := binary.LittleEndian.Uint16(buf[offset:])
	element := binary.LittleEndian.Uint16(buf[offset+2:])
	if group != 0xFFFE || element != 0xE000 {
		return Attribute{}, offset, fmt.Errorf("instance: expected Item (FFFE,E000), got %s", tag.New(group, element).String())
	}
	return readItemPseudoAttribute(buf, offset+4, tag.New(group, element), state)
}

// readPixelFragments reads the fragment Items of an encapsulated PixelData
// value (Basic Offset Table followed by opaque OB fragments), terminated
// by a Sequence Delimitation Item.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
func readPixelFragments(buf []byte, offset int) ([]Attribute, int, error) {
	var fragments []Attribute
	for {
		if offset+4 > len(buf) {
			return nil, offset, ErrTruncated
		}
		group := binary.LittleEndian.Uint16(buf[offset:])
		element := binary.LittleEndian.Uint16(buf[offset+2:])
		if group == 0xFFFE && element == 0xE0DD {
			return fragments, offset + 8, nil
		}
		if group != 0xFFFE || element != 0xE000 {
			return nil, offset, fmt.Errorf("instance: expected pixel data fragment Item, got %s", tag.New(group, element).String())
		}
		if offset+8 > len(buf) {
			return nil, offset, ErrTruncated
		}
		length := int(binary.LittleEndian.Uint32(buf[offset+4:]))
		dataOffset := offset + 8
		if dataOffset+length > len(buf) {
			return nil, offset, ErrTruncated
		}
		fragments = append(fragments, Attribute{
			Tag:         tag.New(group, element),
			VR:          vr.OtherByte,
			buf:         buf,
			valueOffset: dataOffset,
			valueLength: length,
		})
		offset = dataOffset + length
	}
}

// resolveImplicitVR determines the VR of a tag encoded in Implicit VR
// Little Endian, applying the standard overrides: PixelData is always OW,
// SmallestImagePixelValue/LargestImagePixelValue follow the most recently
// seen PixelRepresentation, and any (g,0000) is UL. Private and otherwise
// unrecognized tags decode as Unknown.
func resolveImplicitVR(t tag.Tag, state *walkState) (v vr.VR, explicitLength32 bool) {
	switch {
	case t.Equals(tag.New(0x7FE0, 0x0010)):
		return vr.OtherWord, true
	case t.Equals(tag.New(0x0028, 0x0106)), t.Equals(tag.New(0x0028, 0x0107)):
		if state.havePixelRepr && state.pixelRepresentation == 1 {
			return vr.SignedShort, false
		}
		return vr.UnsignedShort, false
	case t.Element == 0x0000:
		return vr.UnsignedLong, false
	}

	info, err := tag.Find(t)
	if err != nil || len(info.VRs) == 0 {
		return vr.Unknown, true
	}
	resolved := info.VRs[0]
	return resolved, resolved.UsesExplicitLength32()
}
