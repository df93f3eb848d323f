package smf

import "errors"

// Decode and encode failures are reported as one of these sentinels,
// usually wrapped with the location (track index, byte offset) where the
// failure happened. Match with errors.Is.
var (
	// ErrTruncated means the input ended before a structurally required
	// field completed.
	ErrTruncated = errors.New("truncated input")

	// ErrInvalidStatus means a status byte, or a resolved running status,
	// does not encode a recognized message.
	ErrInvalidStatus = errors.New("invalid status byte")

	// ErrLengthMismatch means a message or meta event carries a byte count
	// that disagrees with the arity its type mandates.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrTrackLength means parsing a track's events did not consume the
	// declared MTrk chunk length exactly.
	ErrTrackLength = errors.New("track length mismatch")

	// ErrUnsupportedFormat means the MThd format field is outside {0,1,2}.
	ErrUnsupportedFormat = errors.New("unsupported SMF format")

	// ErrOverflow means a variable-length quantity exceeds the 28-bit
	// range representable in the 4 bytes the format allows.
	ErrOverflow = errors.New("variable-length quantity overflow")
)
