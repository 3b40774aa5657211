// Package dataset provides the in-memory collection of DICOM data elements
// shared by the representation-model converters and the binary serializer.
//
// This follows the same tag-indexed design as the parser's own instance
// package, but holds fully-decoded, mutable *element.Element values rather
// than offsets into a read-only buffer - it is the type STOW decodes a JSON
// body into before serializing it to disk, and the type the JSON/XML
// encoders build from a parsed Instance.
package dataset

import (
	"fmt"
	"sort"
	"strings"

	"rdicomweb/element"
	"rdicomweb/tag"
)

// DataSet stores DataElements indexed by their tags, providing
// dictionary-like access to DICOM attributes.
type DataSet struct {
	elements map[tag.Tag]*element.Element
}

// New creates a new empty dataset.
func New() *DataSet {
	return &DataSet{elements: make(map[tag.Tag]*element.Element)}
}

// Add inserts or replaces an element in the dataset, keyed by its tag.
func (ds *DataSet) Add(elem *element.Element) error {
	if elem == nil {
		return fmt.Errorf("dataset: cannot add nil element")
	}
	ds.elements[elem.Tag()] = elem
	return nil
}

// Get retrieves an element by its tag.
func (ds *DataSet) Get(t tag.Tag) (*element.Element, bool) {
	elem, ok := ds.elements[t]
	return elem, ok
}

// Contains reports whether an element with the given tag is present.
func (ds *DataSet) Contains(t tag.Tag) bool {
	_, ok := ds.elements[t]
	return ok
}

// Len returns the number of elements in the dataset.
func (ds *DataSet) Len() int {
	return len(ds.elements)
}

// Tags returns all tags in the dataset, sorted group-major ascending - the
// iteration order the binary serializer and the XML converter rely on.
func (ds *DataSet) Tags() []tag.Tag {
	tags := make([]tag.Tag, 0, len(ds.elements))
	for t := range ds.elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Compare(tags[j]) < 0 })
	return tags
}

// Elements returns all elements sorted group-major ascending by tag.
func (ds *DataSet) Elements() []*element.Element {
	tags := ds.Tags()
	elems := make([]*element.Element, len(tags))
	for i, t := range tags {
		elems[i] = ds.elements[t]
	}
	return elems
}

// String returns a one-line-per-element human-readable rendering, sorted by
// tag.
func (ds *DataSet) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "DataSet with %d elements:\n", ds.Len())
	for _, elem := range ds.Elements() {
		sb.WriteString("  ")
		sb.WriteString(elem.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
