package smf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// tempoFile is a format 1 file with one track holding a tempo event and
// an end of track, both at delta 0.
var tempoFile = []byte{
	// MThd, length 6, format 1, 1 track, division 96
	0x4D, 0x54, 0x68, 0x64, 0x00, 0x00, 0x00, 0x06,
	0x00, 0x01, 0x00, 0x01, 0x00, 0x60,
	// MTrk, length 11
	0x4D, 0x54, 0x72, 0x6B, 0x00, 0x00, 0x00, 0x0B,
	// delta 0, tempo 500000 us/quarter
	0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20,
	// delta 0, end of track
	0x00, 0xFF, 0x2F, 0x00,
}

func TestDecodeTempoFile(t *testing.T) {
	f, err := Decode(bytes.NewReader(tempoFile))
	require.NoError(t, err)

	require.Equal(t, FormatMultiTrack, f.Format)
	require.False(t, f.Division.IsSMPTE())
	require.Equal(t, uint16(96), f.Division.TicksPerQuarterNote())
	require.Len(t, f.Tracks, 1)
	require.Len(t, f.Tracks[0].Events, 2)

	ev := f.Tracks[0].Events[0]
	require.Equal(t, uint32(0), ev.Delta)
	tempo, ok := ev.Body.(MetaEvent)
	require.True(t, ok)
	us, ok := tempo.Tempo()
	require.True(t, ok)
	require.Equal(t, uint32(500000), us)

	ev = f.Tracks[0].Events[1]
	require.Equal(t, uint32(0), ev.Delta)
	eot, ok := ev.Body.(MetaEvent)
	require.True(t, ok)
	require.Equal(t, MetaEndOfTrack, eot.Command())
}

func TestEncodeIsLeftInverseOfDecode(t *testing.T) {
	// holds for inputs that use no running-status compression
	f, err := Decode(bytes.NewReader(tempoFile))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))
	require.Equal(t, tempoFile, buf.Bytes())
}

// specSampleFile is the four-track example file given in the SMF
// specification; it exercises running status, format 1 and multiple
// channels.
var specSampleFile = []byte{
	0x4D, 0x54, 0x68, 0x64, 0, 0, 0, 6,
	0, 1, 0, 4, 0, 0x60,
	// tempo/time signature track
	0x4D, 0x54, 0x72, 0x6B, 0, 0, 0, 0x14,
	0, 0xFF, 0x58, 4, 4, 2, 0x18, 8,
	0, 0xFF, 0x51, 3, 7, 0xA1, 0x20,
	0x83, 0, 0xFF, 0x2F, 0,
	// first music track
	0x4D, 0x54, 0x72, 0x6B, 0, 0, 0, 0x10,
	0, 0xC0, 5,
	0x81, 0x40, 0x90, 0x4C, 0x20,
	0x81, 0x40, 0x4C, 0,
	0, 0xFF, 0x2F, 0,
	// second music track
	0x4D, 0x54, 0x72, 0x6B, 0, 0, 0, 0x0F,
	0, 0xC1, 0x2E,
	0x60, 0x91, 0x43, 0x40,
	0x82, 0x20, 0x43, 0,
	0, 0xFF, 0x2F, 0,
	// third music track
	0x4D, 0x54, 0x72, 0x6B, 0, 0, 0, 0x15,
	0, 0xC2, 0x46,
	0, 0x92, 0x30, 0x60,
	0, 0x3C, 0x60,
	0x83, 0, 0x30, 0,
	0, 0x3C, 0,
	0, 0xFF, 0x2F, 0,
}

func TestDecodeSpecSampleFile(t *testing.T) {
	f, err := Decode(bytes.NewReader(specSampleFile))
	require.NoError(t, err)
	require.Equal(t, FormatMultiTrack, f.Format)
	require.Len(t, f.Tracks, 4)

	// the third music track uses running status for four of its notes
	events := f.Tracks[3].Events
	require.Len(t, events, 6)
	want := [][]byte{
		{0xC2, 0x46},
		{0x92, 0x30, 0x60},
		{0x92, 0x3C, 0x60},
		{0x92, 0x30, 0x00},
		{0x92, 0x3C, 0x00},
	}
	for i, data := range want {
		require.Equal(t, data, events[i].Body.(Message).Bytes(), "event %d", i)
	}
	require.Equal(t, uint32(0x180), events[3].Delta)
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	var in bytes.Buffer
	in.Write(tempoFile[:14])
	// an alien chunk before the declared track
	in.Write([]byte{'X', 'F', 'I', 'H', 0, 0, 0, 3, 1, 2, 3})
	in.Write(tempoFile[14:])

	f, err := Decode(&in)
	require.NoError(t, err)
	require.Len(t, f.Tracks, 1)
	require.Len(t, f.Tracks[0].Events, 2)
}

func TestDecodeRIFFWrapper(t *testing.T) {
	var in bytes.Buffer
	in.Write([]byte{'R', 'I', 'F', 'F', 0, 0, 0, 0})
	in.Write([]byte{'R', 'M', 'I', 'D', 'd', 'a', 't', 'a', 0, 0, 0, 0})
	in.Write(tempoFile)

	f, err := Decode(&in)
	require.NoError(t, err)
	require.Len(t, f.Tracks, 1)
}

func TestDecodeHeaderErrors(t *testing.T) {
	// bad magic
	bad := append([]byte{}, tempoFile...)
	bad[0] = 'X'
	_, err := Decode(bytes.NewReader(bad))
	require.Error(t, err)

	// format 3 is not defined
	bad = append([]byte{}, tempoFile...)
	bad[9] = 3
	_, err = Decode(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	// MThd length must be 6
	bad = append([]byte{}, tempoFile...)
	bad[7] = 7
	_, err = Decode(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrLengthMismatch)

	// short header
	_, err = Decode(bytes.NewReader(tempoFile[:10]))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeTrackCountMismatch(t *testing.T) {
	// header declares two tracks but the stream holds one
	bad := append([]byte{}, tempoFile...)
	bad[11] = 2
	_, err := Decode(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrTruncated)
}

func TestEncodeRejectsBadFormat(t *testing.T) {
	f := &File{Format: Format(7), Division: 96}
	err := f.Encode(&bytes.Buffer{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDivisionSMPTE(t *testing.T) {
	// -25 frames per second, 40 ticks per frame
	d := Division(uint16(0xE7)<<8 | 40)
	require.True(t, d.IsSMPTE())
	fps, tpf := d.SMPTE()
	require.Equal(t, uint8(25), fps)
	require.Equal(t, uint8(40), tpf)
	require.Equal(t, uint16(0), d.TicksPerQuarterNote())

	d = Division(96)
	require.False(t, d.IsSMPTE())
	require.Equal(t, uint16(96), d.TicksPerQuarterNote())
}
