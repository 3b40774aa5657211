package serializer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"rdicomweb/dataset"
	"rdicomweb/element"
	"rdicomweb/tag"
	"rdicomweb/uid"
	"rdicomweb/value"
	"rdicomweb/vr"
)

const transferSyntaxUID = "1.2.840.10008.1.2.1"

// Write streams ds to w as a complete Part 10 file: 128-byte zero preamble,
// "DICM" magic, a two-pass file-meta block, then the dataset body in
// Explicit VR Little Endian, tag-ascending.
func Write(ds *dataset.DataSet, w io.Writer) error {
	if _, err := w.Write(make([]byte, 128)); err != nil {
		return fmt.Errorf("serializer: writing preamble: %w", err)
	}
	if _, err := io.WriteString(w, "DICM"); err != nil {
		return fmt.Errorf("serializer: writing magic: %w", err)
	}

	meta, err := buildFileMeta(ds)
	if err != nil {
		return err
	}
	var metaBuf bytes.Buffer
	for _, m := range meta {
		if err := writeElement(&metaBuf, m.t, m.vr, m.val); err != nil {
			return fmt.Errorf("serializer: writing file meta %s: %w", m.t.String(), err)
		}
	}

	groupLen := value.NewIntValue(vr.UnsignedLong, []int64{int64(metaBuf.Len())})
	if err := writeElement(w, tag.New(0x0002, 0x0000), vr.UnsignedLong, groupLen); err != nil {
		return fmt.Errorf("serializer: writing FileMetaInformationGroupLength: %w", err)
	}
	if _, err := w.Write(metaBuf.Bytes()); err != nil {
		return fmt.Errorf("serializer: writing file meta block: %w", err)
	}

	for _, elem := range ds.Elements() {
		if elem.Tag().Group == 0x0002 {
			continue
		}
		if err := writeElement(w, elem.Tag(), elem.VR(), elem.Value()); err != nil {
			return fmt.Errorf("serializer: writing %s: %w", elem.Tag().String(), err)
		}
	}

	return nil
}

// WriteFile serializes ds to a new file at path. Unless overwrite is true,
// an existing file at path is left untouched and an error is returned -
// this is the "first writer wins" guard STOW relies on to avoid corrupting
// a file under a racing second store of the same SOPInstanceUID.
func WriteFile(path string, ds *dataset.DataSet, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("serializer: opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // best-effort close after explicit Sync/Write errors are already reported

	if err := Write(ds, f); err != nil {
		return err
	}
	return f.Sync()
}

type metaAttr struct {
	t   tag.Tag
	vr  vr.VR
	val value.Value
}

// buildFileMeta assembles the mandatory File Meta Information attributes:
// the two Media Storage UIDs copied from the dataset, a fixed Transfer
// Syntax UID (this serializer only ever emits Explicit VR Little Endian),
// and a fixed Implementation Class UID.
func buildFileMeta(ds *dataset.DataSet) ([]metaAttr, error) {
	sopClass, ok := ds.Get(tag.New(0x0008, 0x0016))
	if !ok {
		return nil, fmt.Errorf("%w: SOPClassUID (0008,0016)", ErrMissingRequiredTag)
	}
	sopInstance, ok := ds.Get(tag.New(0x0008, 0x0018))
	if !ok {
		return nil, fmt.Errorf("%w: SOPInstanceUID (0008,0018)", ErrMissingRequiredTag)
	}

	return []metaAttr{
		{tag.New(0x0002, 0x0002), vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{sopClass.Value().String()})},
		{tag.New(0x0002, 0x0003), vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{sopInstance.Value().String()})},
		{tag.New(0x0002, 0x0010), vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{transferSyntaxUID})},
		{tag.New(0x0002, 0x0012), vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{uid.ImplementationClassUID})},
	}, nil
}

// isLongLengthVR reports whether v uses the 2-reserved-bytes-plus-4-byte
// length form. This set is deliberately narrower than the real DICOM
// standard's (OD, OL, OV, UC and UR use the 2-byte form here).
func isLongLengthVR(v vr.VR) bool {
	switch v {
	case vr.OtherByte, vr.OtherWord, vr.Unknown, vr.SequenceOfItems, vr.UnlimitedText, vr.OtherFloat:
		return true
	default:
		return false
	}
}

func writeElement(w io.Writer, t tag.Tag, v vr.VR, val value.Value) error {
	if v == vr.SequenceOfItems {
		return writeSequence(w, t, val)
	}

	payload, err := encodePayload(v, val)
	if err != nil {
		return err
	}
	return writeHeader(w, t, v, payload)
}

func writeHeader(w io.Writer, t tag.Tag, v vr.VR, payload []byte) error {
	var hdr bytes.Buffer
	binary.Write(&hdr, binary.LittleEndian, t.Group)   //nolint:errcheck // bytes.Buffer never errors
	binary.Write(&hdr, binary.LittleEndian, t.Element)  //nolint:errcheck
	hdr.WriteString(v.String())

	if isLongLengthVR(v) {
		hdr.Write([]byte{0, 0})
		binary.Write(&hdr, binary.LittleEndian, uint32(len(payload))) //nolint:errcheck
	} else {
		if len(payload) > 0xFFFF {
			return fmt.Errorf("serializer: %s payload of %d bytes exceeds the 2-byte length limit for VR %s", t.String(), len(payload), v.String())
		}
		binary.Write(&hdr, binary.LittleEndian, uint16(len(payload))) //nolint:errcheck
	}

	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func writeSequence(w io.Writer, t tag.Tag, val value.Value) error {
	seq, ok := val.(*element.Sequence)
	if !ok {
		return fmt.Errorf("serializer: %s has VR SQ but value is %T, want *element.Sequence", t.String(), val)
	}

	var itemsBuf bytes.Buffer
	for _, item := range seq.Items() {
		var attrBuf bytes.Buffer
		for _, child := range item {
			if err := writeElement(&attrBuf, child.Tag(), child.VR(), child.Value()); err != nil {
				return err
			}
		}
		var itemHdr [8]byte
		binary.LittleEndian.PutUint16(itemHdr[0:], 0xFFFE)
		binary.LittleEndian.PutUint16(itemHdr[2:], 0xE000)
		binary.LittleEndian.PutUint32(itemHdr[4:], uint32(attrBuf.Len()))
		itemsBuf.Write(itemHdr[:])
		itemsBuf.Write(attrBuf.Bytes())
	}

	return writeHeader(w, t, vr.SequenceOfItems, itemsBuf.Bytes())
}

// encodePayload renders val's wire bytes, padded to an even length. IS is
// truncated to the portion before its first '.' before padding, per this
// serializer's simplified handling of fixed-point decimal integer strings.
func encodePayload(v vr.VR, val value.Value) ([]byte, error) {
	switch vv := val.(type) {
	case *value.StringValue:
		s := vv.String()
		if v == vr.IntegerString {
			if idx := strings.IndexByte(s, '.'); idx >= 0 {
				s = s[:idx]
			}
		}
		b := []byte(s)
		if len(b)%2 == 1 {
			b = append(b, v.PaddingByte())
		}
		return b, nil

	case *value.IntValue:
		return vv.Bytes(), nil

	case *value.FloatValue:
		return vv.Bytes(), nil

	case *value.WordArrayValue:
		return vv.Bytes(), nil

	case *value.TagValue:
		return vv.Bytes(), nil

	case *value.BytesValue:
		b := vv.Bytes()
		if len(b)%2 == 1 {
			padded := make([]byte, len(b)+1)
			copy(padded, b)
			padded[len(b)] = v.PaddingByte()
			return padded, nil
		}
		return b, nil

	default:
		return nil, fmt.Errorf("serializer: cannot encode value of type %T for VR %s", val, v.String())
	}
}
