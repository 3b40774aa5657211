// Package repr implements the representation model shared by the DICOM↔JSON
// and DICOM↔XML ("Native DICOM Model") translators: an intermediate,
// format-agnostic tree built from a parsed instance.Instance (or, in the
// other direction, decoded from a DICOMweb JSON body for STOW ingest) and
// rendered by two independent encoders.
package repr

import (
	"rdicomweb/tag"
	"rdicomweb/vr"
)

// Kind discriminates the payload carried by a Node, mirroring the payload
// selection rules of the DICOM→text conversion (see convertAttribute for
// the VR-by-VR mapping).
type Kind int

const (
	// KindEmpty carries no payload at all - the representation of an empty
	// IS element, which must render as "no value" rather than a zero.
	KindEmpty Kind = iota
	// KindString carries a single already-stringified value: the
	// backslash-joined rendering used for every VR except the ones with
	// their own dedicated Kind below.
	KindString
	// KindNumeral carries one or more f64 values, used for IS (when
	// parseable) and the scalar integer VRs SL/SS/UL/US.
	KindNumeral
	// KindPersonName carries a single alphabetic name string: the element's
	// backslash-joined PN value (DICOM's Alphabetic{Name} simplification - this core does not
	// model the Ideographic/Phonetic variants or the five-field struct).
	KindPersonName
	// KindSequence carries one child-Node slice per Item, recursively
	// converted.
	KindSequence
)

// Node is one converted DICOM attribute, ready for either the JSON or the
// XML encoder to render.
type Node struct {
	Tag     tag.Tag
	VR      vr.VR
	Keyword string

	Kind Kind

	Strings     []string  // KindString: always exactly one entry
	Numerals    []float64 // KindNumeral
	PersonNames []string  // KindPersonName

	Items [][]*Node // KindSequence: one entry per Item

	// BulkDataURI, when non-empty, overrides Kind for JSON rendering only:
	// a bulkdata link is rendered instead of the inlined base64 payload.
	// The core converter never sets this; see WithBulkDataURI.
	BulkDataURI string
}
