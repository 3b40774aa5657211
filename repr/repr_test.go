package repr_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/instance"
	"rdicomweb/repr"
)

// explicitElement appends one Explicit VR Little Endian element (short-form
// length) to buf.
func explicitElement(buf []byte, group, element uint16, vrCode string, value []byte) []byte {
	var hdr [8]byte
	binary.LittleEndian.PutUint16(hdr[0:], group)
	binary.LittleEndian.PutUint16(hdr[2:], element)
	copy(hdr[4:6], vrCode)
	binary.LittleEndian.PutUint16(hdr[6:], uint16(len(value)))
	buf = append(buf, hdr[:]...)
	return append(buf, value...)
}

func buildSampleFile(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, 128)
	buf = append(buf, "DICM"...)

	var meta []byte
	meta = explicitElement(meta, 0x0002, 0x0002, "UI", []byte("1.2.840.10008.5.1.4.1.1.7\x00"))
	meta = explicitElement(meta, 0x0002, 0x0003, "UI", []byte("1.2.3.4\x00"))
	meta = explicitElement(meta, 0x0002, 0x0010, "UI", []byte("1.2.840.10008.1.2.1\x00"))
	meta = explicitElement(meta, 0x0002, 0x0012, "UI", []byte("1.2.3.4.5\x00"))

	groupLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLen, uint32(len(meta)))
	buf = explicitElement(buf, 0x0002, 0x0000, "UL", groupLen)
	buf = append(buf, meta...)

	buf = explicitElement(buf, 0x0008, 0x0060, "CS", []byte("OT"))
	buf = explicitElement(buf, 0x0010, 0x0010, "PN", []byte("Doe^Jane"))
	buf = explicitElement(buf, 0x0020, 0x0013, "IS", []byte("7 "))

	return buf
}

func TestConvertAndEncodeRoundTrip(t *testing.T) {
	inst, err := instance.New(buildSampleFile(t))
	require.NoError(t, err)

	nodes, err := repr.Convert(inst.Iterate())
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	jsonBytes, err := repr.ToJSON(nodes)
	require.NoError(t, err)
	require.Contains(t, string(jsonBytes), `"00100010"`)
	require.Contains(t, string(jsonBytes), "Doe^Jane")

	xmlBytes, err := repr.ToXML(nodes)
	require.NoError(t, err)
	require.Contains(t, string(xmlBytes), `tag="00100010"`) // lowercase == uppercase for this all-digit tag
	require.Contains(t, string(xmlBytes), "Doe^Jane")

	ds, err := repr.FromJSON(jsonBytes)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
}

func TestConvertEmptyIS(t *testing.T) {
	var meta []byte
	meta = explicitElement(meta, 0x0002, 0x0002, "UI", []byte("1.2.840.10008.5.1.4.1.1.7\x00"))
	meta = explicitElement(meta, 0x0002, 0x0003, "UI", []byte("1.2.3.4\x00"))
	meta = explicitElement(meta, 0x0002, 0x0010, "UI", []byte("1.2.840.10008.1.2.1\x00"))
	meta = explicitElement(meta, 0x0002, 0x0012, "UI", []byte("1.2.3.4.5\x00"))

	buf := make([]byte, 128)
	buf = append(buf, "DICM"...)
	groupLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLen, uint32(len(meta)))
	buf = explicitElement(buf, 0x0002, 0x0000, "UL", groupLen)
	buf = append(buf, meta...)
	buf = explicitElement(buf, 0x0020, 0x0013, "IS", nil)

	inst, err := instance.New(buf)
	require.NoError(t, err)

	nodes, err := repr.Convert(inst.Iterate())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, repr.KindEmpty, nodes[0].Kind)

	jsonBytes, err := repr.ToJSON(nodes)
	require.NoError(t, err)
	require.NotContains(t, string(jsonBytes), "Value")
}
