package tag

import "rdicomweb/vr"

// TagDict is a static lookup table from a Tag to its dictionary Info.
//
// This is a curated subset of the DICOM Part 6 data dictionary - it covers
// file meta information, patient/study/series/instance identification, and
// the image-pixel attributes exercised by the parser's implicit-VR override
// rules. It is not exhaustive: for private and otherwise-unlisted tags Find
// returns an error, except that any (gggg,0000) tag resolves to a synthesized
// GenericGroupLength entry.
var TagDict = map[Tag]Info{
	// File Meta Information (group 0x0002), always Explicit VR.
	New(0x0002, 0x0000): {Tag: New(0x0002, 0x0000), VRs: []vr.VR{vr.UnsignedLong}, Name: "File Meta Information Group Length", Keyword: "FileMetaInformationGroupLength", VM: "1"},
	New(0x0002, 0x0001): {Tag: New(0x0002, 0x0001), VRs: []vr.VR{vr.OtherByte}, Name: "File Meta Information Version", Keyword: "FileMetaInformationVersion", VM: "1"},
	New(0x0002, 0x0002): {Tag: New(0x0002, 0x0002), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Class UID", Keyword: "MediaStorageSOPClassUID", VM: "1"},
	New(0x0002, 0x0003): {Tag: New(0x0002, 0x0003), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Media Storage SOP Instance UID", Keyword: "MediaStorageSOPInstanceUID", VM: "1"},
	New(0x0002, 0x0010): {Tag: New(0x0002, 0x0010), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Transfer Syntax UID", Keyword: "TransferSyntaxUID", VM: "1"},
	New(0x0002, 0x0012): {Tag: New(0x0002, 0x0012), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Implementation Class UID", Keyword: "ImplementationClassUID", VM: "1"},
	New(0x0002, 0x0013): {Tag: New(0x0002, 0x0013), VRs: []vr.VR{vr.ShortString}, Name: "Implementation Version Name", Keyword: "ImplementationVersionName", VM: "1"},

	// Identification (group 0x0008).
	New(0x0008, 0x0005): {Tag: New(0x0008, 0x0005), VRs: []vr.VR{vr.CodeString}, Name: "Specific Character Set", Keyword: "SpecificCharacterSet", VM: "1-n"},
	New(0x0008, 0x0016): {Tag: New(0x0008, 0x0016), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Class UID", Keyword: "SOPClassUID", VM: "1"},
	New(0x0008, 0x0018): {Tag: New(0x0008, 0x0018), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "SOP Instance UID", Keyword: "SOPInstanceUID", VM: "1"},
	New(0x0008, 0x0020): {Tag: New(0x0008, 0x0020), VRs: []vr.VR{vr.Date}, Name: "Study Date", Keyword: "StudyDate", VM: "1"},
	New(0x0008, 0x0021): {Tag: New(0x0008, 0x0021), VRs: []vr.VR{vr.Date}, Name: "Series Date", Keyword: "SeriesDate", VM: "1"},
	New(0x0008, 0x0030): {Tag: New(0x0008, 0x0030), VRs: []vr.VR{vr.Time}, Name: "Study Time", Keyword: "StudyTime", VM: "1"},
	New(0x0008, 0x0050): {Tag: New(0x0008, 0x0050), VRs: []vr.VR{vr.ShortString}, Name: "Accession Number", Keyword: "AccessionNumber", VM: "1"},
	New(0x0008, 0x0060): {Tag: New(0x0008, 0x0060), VRs: []vr.VR{vr.CodeString}, Name: "Modality", Keyword: "Modality", VM: "1"},
	New(0x0008, 0x0090): {Tag: New(0x0008, 0x0090), VRs: []vr.VR{vr.PersonName}, Name: "Referring Physician's Name", Keyword: "ReferringPhysicianName", VM: "1"},
	New(0x0008, 0x1030): {Tag: New(0x0008, 0x1030), VRs: []vr.VR{vr.LongString}, Name: "Study Description", Keyword: "StudyDescription", VM: "1"},
	New(0x0008, 0x103E): {Tag: New(0x0008, 0x103E), VRs: []vr.VR{vr.LongString}, Name: "Series Description", Keyword: "SeriesDescription", VM: "1"},
	New(0x0008, 0x1110): {Tag: New(0x0008, 0x1110), VRs: []vr.VR{vr.SequenceOfItems}, Name: "Referenced Study Sequence", Keyword: "ReferencedStudySequence", VM: "1"},
	New(0x0008, 0x1150): {Tag: New(0x0008, 0x1150), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Referenced SOP Class UID", Keyword: "ReferencedSOPClassUID", VM: "1"},
	New(0x0008, 0x1155): {Tag: New(0x0008, 0x1155), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Referenced SOP Instance UID", Keyword: "ReferencedSOPInstanceUID", VM: "1"},

	// Patient (group 0x0010).
	New(0x0010, 0x0010): {Tag: New(0x0010, 0x0010), VRs: []vr.VR{vr.PersonName}, Name: "Patient's Name", Keyword: "PatientName", VM: "1"},
	New(0x0010, 0x0020): {Tag: New(0x0010, 0x0020), VRs: []vr.VR{vr.LongString}, Name: "Patient ID", Keyword: "PatientID", VM: "1"},
	New(0x0010, 0x0030): {Tag: New(0x0010, 0x0030), VRs: []vr.VR{vr.Date}, Name: "Patient's Birth Date", Keyword: "PatientBirthDate", VM: "1"},
	New(0x0010, 0x0040): {Tag: New(0x0010, 0x0040), VRs: []vr.VR{vr.CodeString}, Name: "Patient's Sex", Keyword: "PatientSex", VM: "1"},
	New(0x0010, 0x1010): {Tag: New(0x0010, 0x1010), VRs: []vr.VR{vr.AgeString}, Name: "Patient's Age", Keyword: "PatientAge", VM: "1"},

	// Study/Series/Equipment (group 0x0020).
	New(0x0020, 0x000D): {Tag: New(0x0020, 0x000D), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Study Instance UID", Keyword: "StudyInstanceUID", VM: "1"},
	New(0x0020, 0x000E): {Tag: New(0x0020, 0x000E), VRs: []vr.VR{vr.UniqueIdentifier}, Name: "Series Instance UID", Keyword: "SeriesInstanceUID", VM: "1"},
	New(0x0020, 0x0010): {Tag: New(0x0020, 0x0010), VRs: []vr.VR{vr.ShortString}, Name: "Study ID", Keyword: "StudyID", VM: "1"},
	New(0x0020, 0x0011): {Tag: New(0x0020, 0x0011), VRs: []vr.VR{vr.IntegerString}, Name: "Series Number", Keyword: "SeriesNumber", VM: "1"},
	New(0x0020, 0x0013): {Tag: New(0x0020, 0x0013), VRs: []vr.VR{vr.IntegerString}, Name: "Instance Number", Keyword: "InstanceNumber", VM: "1"},

	// Image Pixel module (group 0x0028), including the implicit-VR override
	// targets PixelRepresentation, SmallestImagePixelValue and
	// LargestImagePixelValue.
	New(0x0028, 0x0002): {Tag: New(0x0028, 0x0002), VRs: []vr.VR{vr.UnsignedShort}, Name: "Samples per Pixel", Keyword: "SamplesPerPixel", VM: "1"},
	New(0x0028, 0x0004): {Tag: New(0x0028, 0x0004), VRs: []vr.VR{vr.CodeString}, Name: "Photometric Interpretation", Keyword: "PhotometricInterpretation", VM: "1"},
	New(0x0028, 0x0010): {Tag: New(0x0028, 0x0010), VRs: []vr.VR{vr.UnsignedShort}, Name: "Rows", Keyword: "Rows", VM: "1"},
	New(0x0028, 0x0011): {Tag: New(0x0028, 0x0011), VRs: []vr.VR{vr.UnsignedShort}, Name: "Columns", Keyword: "Columns", VM: "1"},
	New(0x0028, 0x0100): {Tag: New(0x0028, 0x0100), VRs: []vr.VR{vr.UnsignedShort}, Name: "Bits Allocated", Keyword: "BitsAllocated", VM: "1"},
	New(0x0028, 0x0101): {Tag: New(0x0028, 0x0101), VRs: []vr.VR{vr.UnsignedShort}, Name: "Bits Stored", Keyword: "BitsStored", VM: "1"},
	New(0x0028, 0x0102): {Tag: New(0x0028, 0x0102), VRs: []vr.VR{vr.UnsignedShort}, Name: "High Bit", Keyword: "HighBit", VM: "1"},
	New(0x0028, 0x0103): {Tag: New(0x0028, 0x0103), VRs: []vr.VR{vr.UnsignedShort}, Name: "Pixel Representation", Keyword: "PixelRepresentation", VM: "1"},
	New(0x0028, 0x0106): {Tag: New(0x0028, 0x0106), VRs: []vr.VR{vr.UnsignedShort, vr.SignedShort}, Name: "Smallest Image Pixel Value", Keyword: "SmallestImagePixelValue", VM: "1"},
	New(0x0028, 0x0107): {Tag: New(0x0028, 0x0107), VRs: []vr.VR{vr.UnsignedShort, vr.SignedShort}, Name: "Largest Image Pixel Value", Keyword: "LargestImagePixelValue", VM: "1"},

	// Pixel Data.
	New(0x7FE0, 0x0010): {Tag: New(0x7FE0, 0x0010), VRs: []vr.VR{vr.OtherWord, vr.OtherByte}, Name: "Pixel Data", Keyword: "PixelData", VM: "1"},
}
