// Package smf is a binary codec for MIDI messages and Standard MIDI
// Files. It decodes and encodes the SMF container (MThd header, MTrk
// chunks, variable-length delta times) and the channel, system and meta
// events inside it, keeping the exact wire bytes of every event so a
// decode followed by an encode reproduces the input.
package smf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	headerMagic = [4]byte{'M', 'T', 'h', 'd'}
	riffMagic   = [4]byte{'R', 'I', 'F', 'F'}
)

// Format is the MThd format field.
type Format uint16

const (
	// FormatSingle files hold one track.
	FormatSingle Format = 0
	// FormatMultiTrack files hold vertically synchronous tracks of one song.
	FormatMultiTrack Format = 1
	// FormatMultiSong files hold independent single-track patterns.
	FormatMultiSong Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatSingle:
		return "single track"
	case FormatMultiTrack:
		return "multiple track"
	case FormatMultiSong:
		return "multiple song"
	}
	return fmt.Sprintf("Format(%d)", uint16(f))
}

// Division is the raw MThd division field. The sign bit picks between
// ticks per quarter note (clear) and SMPTE frames plus ticks per frame
// (set).
type Division uint16

// IsSMPTE reports whether the division is in SMPTE frame time.
func (d Division) IsSMPTE() bool {
	return d&0x8000 != 0
}

// TicksPerQuarterNote returns the metrical resolution, or 0 for SMPTE
// divisions.
func (d Division) TicksPerQuarterNote() uint16 {
	if d.IsSMPTE() {
		return 0
	}
	return uint16(d)
}

// SMPTE returns the frames per second and ticks per frame, or 0, 0 for
// metrical divisions. The frame rate is stored negated in two's
// complement in the high byte.
func (d Division) SMPTE() (fps, ticksPerFrame uint8) {
	if !d.IsSMPTE() {
		return 0, 0
	}
	return uint8(-int8(d >> 8)), uint8(d)
}

func (d Division) String() string {
	if d.IsSMPTE() {
		fps, tpf := d.SMPTE()
		return fmt.Sprintf("%d frames per second, %d ticks per frame", fps, tpf)
	}
	return fmt.Sprintf("%d ticks per quarter note", d.TicksPerQuarterNote())
}

type fileHeader struct {
	ChunkType  [4]byte
	ChunkSize  uint32
	Format     uint16
	TrackCount uint16
	Division   uint16
}

// File is one Standard MIDI File: the header chunk fields and the tracks
// in order.
type File struct {
	Format   Format
	Division Division
	Tracks   []*Track
}

// Decode parses a complete SMF byte stream. A leading RIFF (RMID)
// wrapper is skipped. Exactly as many MTrk chunks as the header declares
// are read; chunks of any other type seen before then are skipped using
// their declared length.
func Decode(r io.Reader) (*File, error) {
	var raw [14]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, errors.Wrapf(ErrTruncated, "reading SMF header (%s)", err)
	}
	if [4]byte(raw[0:4]) == riffMagic {
		// RMID wrapper: RIFF size RMID data size, then a plain SMF
		var skip [6]byte
		if _, err := io.ReadFull(r, skip[:]); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "reading RIFF wrapper (%s)", err)
		}
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "reading SMF header (%s)", err)
		}
	}
	var hdr fileHeader
	if err := binary.Read(bytes.NewReader(raw[:]), binary.BigEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.ChunkType != headerMagic {
		return nil, errors.Errorf("invalid SMF header magic %q", hdr.ChunkType[:])
	}
	if hdr.ChunkSize != 6 {
		return nil, errors.Wrapf(ErrLengthMismatch, "MThd declares %d bytes, must be 6", hdr.ChunkSize)
	}
	if hdr.Format > uint16(FormatMultiSong) {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %d", hdr.Format)
	}
	f := &File{
		Format:   Format(hdr.Format),
		Division: Division(hdr.Division),
		Tracks:   make([]*Track, 0, hdr.TrackCount),
	}
	for len(f.Tracks) < int(hdr.TrackCount) {
		var ch chunkHeader
		if err := binary.Read(r, binary.BigEndian, &ch); err != nil {
			return nil, errors.Wrapf(ErrTruncated, "header declares %d tracks, found %d (%s)",
				hdr.TrackCount, len(f.Tracks), err)
		}
		if ch.ChunkType != trackMagic {
			logrus.Debugf("smf: skipping unknown chunk type %q (%d bytes)", ch.ChunkType[:], ch.ChunkSize)
			if _, err := io.CopyN(io.Discard, r, int64(ch.ChunkSize)); err != nil {
				return nil, errors.Wrapf(ErrTruncated, "skipping chunk %q (%s)", ch.ChunkType[:], err)
			}
			continue
		}
		t := &Track{}
		if err := t.decodeBody(r, ch.ChunkSize); err != nil {
			return nil, errors.Wrapf(err, "track %d", len(f.Tracks))
		}
		f.Tracks = append(f.Tracks, t)
	}
	return f, nil
}

// Encode writes the file as an MThd chunk followed by each track's MTrk
// chunk.
func (f *File) Encode(w io.Writer) error {
	if f.Format > FormatMultiSong {
		return errors.Wrapf(ErrUnsupportedFormat, "format %d", uint16(f.Format))
	}
	if len(f.Tracks) > 0xFFFF {
		return errors.Errorf("too many tracks (%d), limit is 65535", len(f.Tracks))
	}
	hdr := fileHeader{
		ChunkType:  headerMagic,
		ChunkSize:  6,
		Format:     uint16(f.Format),
		TrackCount: uint16(len(f.Tracks)),
		Division:   uint16(f.Division),
	}
	if err := binary.Write(w, binary.BigEndian, &hdr); err != nil {
		return err
	}
	for i, t := range f.Tracks {
		if err := t.Encode(w); err != nil {
			return errors.Wrapf(err, "track %d", i)
		}
	}
	return nil
}
