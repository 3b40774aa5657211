// Package instance parses DICOM Part 10 files into an attribute tree, walked
// in full when the file is opened, and decodes individual values on demand.
package instance

import "errors"

// ErrNotDicom indicates the file does not start with a 128-byte preamble
// followed by the "DICM" magic bytes at offset 128.
//
// DICOM Standard Reference:
// https://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
var ErrNotDicom = errors.New("instance: not a DICOM file (missing preamble or DICM magic)")

// ErrMissingTransferSyntax indicates File Meta Information did not contain
// a Transfer Syntax UID (0002,0010).
var ErrMissingTransferSyntax = errors.New("instance: missing Transfer Syntax UID in File Meta Information")

// ErrUnsupportedTransferSyntax indicates the named transfer syntax cannot be
// parsed by this core (Deflated Explicit VR Little Endian, Explicit VR Big
// Endian).
var ErrUnsupportedTransferSyntax = errors.New("instance: unsupported transfer syntax")

// ErrTruncated indicates the attribute walk ran past the end of the buffer
// while reading a tag, VR, length or value payload.
var ErrTruncated = errors.New("instance: truncated DICOM stream")

// ErrTagNotFound indicates GetValue could not locate the requested tag.
var ErrTagNotFound = errors.New("instance: tag not found")
