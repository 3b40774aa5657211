// Package serializer writes a DataSet back out as a Part 10 byte stream:
// 128-byte preamble, "DICM" magic, a two-pass file-meta block, then the
// dataset body in Explicit VR Little Endian. It is the STOW ingest path's
// counterpart to the instance package's reader.
package serializer

import "errors"

// ErrMissingRequiredTag indicates the dataset lacks SOPClassUID (0008,0016)
// or SOPInstanceUID (0008,0018), both required to populate File Meta
// Information.
var ErrMissingRequiredTag = errors.New("serializer: missing required tag")
