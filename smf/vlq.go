package smf

import (
	"io"

	"github.com/pkg/errors"
)

// MaxVLQ is the largest value a 4-byte variable-length quantity can hold.
const MaxVLQ = 0x0FFFFFFF

// ReadVLQ decodes a variable-length quantity from r. Each byte contributes
// its low 7 bits, most significant group first; the high bit marks
// continuation. Returns the value and the number of bytes consumed.
//
// Fails with ErrTruncated if r ends before a terminating byte and with
// ErrOverflow if no terminator appears within the 4 bytes the format
// allows.
func ReadVLQ(r io.ByteReader) (uint32, int, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, i, errors.Wrap(ErrTruncated, "reading variable-length quantity")
		}
		v = v<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 4, errors.Wrap(ErrOverflow, "no terminating byte within 4 bytes")
}

// EncodeVLQ returns the minimal encoding of v: 7-bit groups, most
// significant first, continuation bit set on all but the last.
// Values above MaxVLQ cannot be represented; the caller must reject them
// first (WriteVLQ does).
func EncodeVLQ(v uint32) []byte {
	buf := [4]byte{}
	i := 3
	buf[i] = byte(v & 0x7F)
	v >>= 7
	for v > 0 {
		i--
		buf[i] = byte(v&0x7F) | 0x80
		v >>= 7
	}
	return buf[i:]
}

// WriteVLQ encodes v into w and returns the number of bytes written.
// Fails with ErrOverflow for values above MaxVLQ.
func WriteVLQ(w io.Writer, v uint32) (int, error) {
	if v > MaxVLQ {
		return 0, errors.Wrapf(ErrOverflow, "value %#x exceeds %#x", v, uint32(MaxVLQ))
	}
	return w.Write(EncodeVLQ(v))
}
