package serializer_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"rdicomweb/dataset"
	"rdicomweb/element"
	"rdicomweb/instance"
	"rdicomweb/serializer"
	"rdicomweb/tag"
	"rdicomweb/value"
	"rdicomweb/vr"
)

func TestWriteRoundTrip(t *testing.T) {
	ds := dataset.New()

	add := func(group, elem uint16, v vr.VR, val value.Value) {
		e, err := element.NewElement(tag.New(group, elem), v, val)
		require.NoError(t, err)
		require.NoError(t, ds.Add(e))
	}

	add(0x0008, 0x0016, vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{"1.2.840.10008.5.1.4.1.1.7"}))
	add(0x0008, 0x0018, vr.UniqueIdentifier, value.NewStringValue(vr.UniqueIdentifier, []string{"1.2.3.4"}))
	add(0x0008, 0x0060, vr.CodeString, value.NewStringValue(vr.CodeString, []string{"OT"}))
	add(0x0010, 0x0010, vr.PersonName, value.NewStringValue(vr.PersonName, []string{"Doe^Jane"}))
	add(0x0020, 0x0013, vr.IntegerString, value.NewStringValue(vr.IntegerString, []string{"7.0"}))
	add(0x0028, 0x0010, vr.UnsignedShort, value.NewIntValue(vr.UnsignedShort, []int64{512}))

	seqChild, err := element.NewElement(tag.New(0x0008, 0x0100), vr.ShortString, value.NewStringValue(vr.ShortString, []string{"1.2.3"}))
	require.NoError(t, err)
	seq := element.NewSequence([][]*element.Element{{seqChild}})
	add(0x0008, 0x1110, vr.SequenceOfItems, seq)

	var buf bytes.Buffer
	require.NoError(t, serializer.Write(ds, &buf))

	inst, err := instance.New(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, "1.2.840.10008.1.2.1", inst.TransferSyntax().String())

	v, err := inst.GetValue(tag.New(0x0010, 0x0010))
	require.NoError(t, err)
	require.Equal(t, "Doe^Jane", v.String())

	v, err = inst.GetValue(tag.New(0x0020, 0x0013))
	require.NoError(t, err)
	require.Equal(t, "7", v.String()) // truncated before the '.'

	v, err = inst.GetValue(tag.New(0x0008, 0x0100))
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v.String())
}

func TestWriteRejectsMissingRequiredTags(t *testing.T) {
	ds := dataset.New()
	var buf bytes.Buffer
	err := serializer.Write(ds, &buf)
	require.ErrorIs(t, err, serializer.ErrMissingRequiredTag)
}
