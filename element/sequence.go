package element

import (
	"fmt"

	"rdicomweb/value"
	"rdicomweb/vr"
)

// Sequence is the write-side counterpart of value.SequenceValue: where that
// type discards tag information on its children (it exists purely to
// stringify a value decoded from a buffer that already remembers tags via
// instance.Attribute.Items), a Sequence built from a STOW request body has
// no such buffer to fall back on, so each item keeps its children as full
// Elements. The binary serializer walks this tree directly when writing
// (0xFFFE, 0xE000) items.
type Sequence struct {
	items [][]*Element
}

// NewSequence constructs a Sequence value from its items, each item being
// an ordered list of the attributes it contains.
func NewSequence(items [][]*Element) *Sequence {
	return &Sequence{items: items}
}

// VR always returns SequenceOfItems.
func (s *Sequence) VR() vr.VR { return vr.SequenceOfItems }

// Items returns the sequence's items, each an ordered list of attributes.
func (s *Sequence) Items() [][]*Element { return s.items }

// String renders a compact placeholder; sequences are structural.
func (s *Sequence) String() string {
	return fmt.Sprintf("[sequence: %d items]", len(s.items))
}

// Equals compares items recursively.
func (s *Sequence) Equals(other value.Value) bool {
	o, ok := other.(*Sequence)
	if !ok || len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if len(s.items[i]) != len(o.items[i]) {
			return false
		}
		for j := range s.items[i] {
			if !s.items[i][j].Equals(o.items[i][j]) {
				return false
			}
		}
	}
	return true
}

var _ value.Value = (*Sequence)(nil)
