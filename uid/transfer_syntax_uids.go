package uid

// Transfer Syntax UIDs relevant to instance construction.
//
// The core only recognizes two transfer syntaxes for VR-encoding purposes:
// Explicit VR Little Endian and Implicit VR Little Endian. Deflated Explicit
// VR Little Endian and Explicit VR Big Endian are recognized by name solely
// so that instance construction can reject them. Every other transfer syntax
// UID (JPEG family, RLE, etc.) is accepted and treated like Explicit VR
// Little Endian with its pixel data passed through as opaque bytes - this
// core never decodes compressed pixel data.
var (
	// ImplicitVRLittleEndian is the only implicit-VR transfer syntax this
	// core understands.
	ImplicitVRLittleEndian = MustParse("1.2.840.10008.1.2")

	// ExplicitVRLittleEndian is the canonical transfer syntax: the dataset
	// body uses explicit VR, written little-endian. It is also the only
	// transfer syntax the binary serializer ever emits.
	ExplicitVRLittleEndian = MustParse("1.2.840.10008.1.2.1")

	// DeflatedExplicitVRLittleEndian is rejected at instance construction.
	DeflatedExplicitVRLittleEndian = MustParse("1.2.840.10008.1.2.1.99")

	// ExplicitVRBigEndian is rejected at instance construction.
	ExplicitVRBigEndian = MustParse("1.2.840.10008.1.2.2")

	// JPEGBaselineProcess1 is a representative encapsulated transfer syntax:
	// its pixel data is opaque to this core, but the UID is still a valid,
	// accepted little-endian syntax for everything else in the file.
	JPEGBaselineProcess1 = MustParse("1.2.840.10008.1.2.4.50")

	// JPEG2000ImageCompression is another representative encapsulated
	// transfer syntax accepted (but not decoded) by this core.
	JPEG2000ImageCompression = MustParse("1.2.840.10008.1.2.4.91")

	// RLELossless is another representative encapsulated transfer syntax
	// accepted (but not decoded) by this core.
	RLELossless = MustParse("1.2.840.10008.1.2.5")
)

// IsRejected reports whether an instance must refuse to parse a dataset
// encoded with the given transfer syntax UID. Only the deflated and
// big-endian explicit syntaxes are rejected; every other syntax, including
// ones this core has never heard of, is accepted as little-endian explicit
// VR with opaque pixel data.
func IsRejected(u UID) bool {
	return u.Equals(DeflatedExplicitVRLittleEndian) || u.Equals(ExplicitVRBigEndian)
}

// IsImplicit reports whether the dataset body encoded with the given
// transfer syntax UID uses implicit VR.
func IsImplicit(u UID) bool {
	return u.Equals(ImplicitVRLittleEndian)
}
