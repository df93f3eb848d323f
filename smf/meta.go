package smf

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// MetaCommand classifies the meta event types an SMF file can carry.
// The wire-level type byte lives in a namespace of its own (0x00-0x7F,
// always behind the 0xFF meta prefix) and is unrelated to message status
// bytes.
type MetaCommand byte

const (
	MetaSequenceNumber MetaCommand = 0x00
	MetaText           MetaCommand = 0x01
	MetaCopyright      MetaCommand = 0x02
	MetaTrackName      MetaCommand = 0x03
	MetaInstrumentName MetaCommand = 0x04
	MetaLyric          MetaCommand = 0x05
	MetaMarker         MetaCommand = 0x06
	MetaCuePoint       MetaCommand = 0x07
	MetaChannelPrefix  MetaCommand = 0x20
	MetaPortPrefix     MetaCommand = 0x21
	MetaEndOfTrack     MetaCommand = 0x2F
	MetaTempo          MetaCommand = 0x51
	MetaSMPTEOffset    MetaCommand = 0x54
	MetaTimeSignature  MetaCommand = 0x58
	MetaKeySignature   MetaCommand = 0x59
	MetaSequencerEvent MetaCommand = 0x7F

	// MetaUnknown stands for any type byte outside the known set. The
	// event keeps its raw type byte and payload, so unknown events
	// survive a decode/encode round trip untouched.
	MetaUnknown MetaCommand = 0xFF
)

var metaNames = map[MetaCommand]string{
	MetaSequenceNumber: "Sequence Number",
	MetaText:           "Text Event",
	MetaCopyright:      "Copyright Notice",
	MetaTrackName:      "Sequence/Track Name",
	MetaInstrumentName: "Instrument Name",
	MetaLyric:          "Lyric",
	MetaMarker:         "Marker",
	MetaCuePoint:       "Cue Point",
	MetaChannelPrefix:  "MIDI Channel Prefix",
	MetaPortPrefix:     "MIDI Port Prefix",
	MetaEndOfTrack:     "End Of Track",
	MetaTempo:          "Set Tempo",
	MetaSMPTEOffset:    "SMPTE Offset",
	MetaTimeSignature:  "Time Signature",
	MetaKeySignature:   "Key Signature",
	MetaSequencerEvent: "Sequencer Specific",
	MetaUnknown:        "Unknown",
}

func (c MetaCommand) String() string {
	if name, ok := metaNames[c]; ok {
		return name
	}
	return fmt.Sprintf("MetaCommand(%#02x)", byte(c))
}

// metaLengths holds the payload sizes mandated for fixed-shape meta types.
// Types absent from the table (the text family, sequencer specific,
// unknown) accept any length.
var metaLengths = map[MetaCommand]int{
	MetaSequenceNumber: 2,
	MetaChannelPrefix:  1,
	MetaPortPrefix:     1,
	MetaEndOfTrack:     0,
	MetaTempo:          3,
	MetaSMPTEOffset:    5,
	MetaTimeSignature:  4,
	MetaKeySignature:   2,
}

// MetaEvent is one SMF meta event: a raw type byte plus its payload. On
// the wire it appears as 0xFF, the type byte, a VLQ payload length, then
// the payload.
type MetaEvent struct {
	typ  byte
	data []byte
}

// NewMetaEvent wraps a meta type byte and payload, enforcing the payload
// length where the type mandates one. Text-carrying types accept any
// payload; no character encoding is validated at this layer.
func NewMetaEvent(typ byte, data []byte) (MetaEvent, error) {
	e := MetaEvent{typ: typ, data: data}
	if want, ok := metaLengths[e.Command()]; ok && len(data) != want {
		return MetaEvent{}, errors.Wrapf(ErrLengthMismatch, "%s payload must be %d bytes, got %d",
			e.Command(), want, len(data))
	}
	return e, nil
}

// Command maps the raw type byte onto the known meta commands, or
// MetaUnknown for anything else.
func (e MetaEvent) Command() MetaCommand {
	c := MetaCommand(e.typ)
	if _, ok := metaNames[c]; ok && c != MetaUnknown {
		return c
	}
	return MetaUnknown
}

// Type returns the raw meta type byte, preserved even for unknown types.
func (e MetaEvent) Type() byte {
	return e.typ
}

// Data returns the raw payload bytes. The slice must not be modified.
func (e MetaEvent) Data() []byte {
	return e.data
}

// Len returns the payload size in bytes.
func (e MetaEvent) Len() int {
	return len(e.data)
}

// Text decodes the payload as Latin-1 text. SMF predates any encoding
// mandate; Latin-1 maps every byte so decoding cannot fail.
func (e MetaEvent) Text() string {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(e.data)
	if err != nil {
		return string(e.data)
	}
	return string(s)
}

// SequenceNumber returns the sequence number payload. The second return
// is false if this event is not a sequence number event.
func (e MetaEvent) SequenceNumber() (uint16, bool) {
	if e.Command() != MetaSequenceNumber {
		return 0, false
	}
	return uint16(e.data[0])<<8 | uint16(e.data[1]), true
}

// Tempo returns the tempo in microseconds per quarter note. The second
// return is false if this event is not a tempo event.
func (e MetaEvent) Tempo() (uint32, bool) {
	if e.Command() != MetaTempo {
		return 0, false
	}
	return uint32(e.data[0])<<16 | uint32(e.data[1])<<8 | uint32(e.data[2]), true
}

// TimeSignature returns numerator, denominator power of two, MIDI clocks
// per metronome tick, and 32nd notes per 24 MIDI clocks. The last return
// is false if this event is not a time signature event.
func (e MetaEvent) TimeSignature() (numerator, denominator, clocksPerTick, thirtySeconds uint8, ok bool) {
	if e.Command() != MetaTimeSignature {
		return 0, 0, 0, 0, false
	}
	return e.data[0], e.data[1], e.data[2], e.data[3], true
}

// KeySignature returns the number of sharps (positive) or flats
// (negative) and whether the key is minor. The last return is false if
// this event is not a key signature event.
func (e MetaEvent) KeySignature() (sharpsFlats int8, minor bool, ok bool) {
	if e.Command() != MetaKeySignature {
		return 0, false, false
	}
	return int8(e.data[0]), e.data[1] == 1, true
}

// SMPTEOffset returns the hours, minutes, seconds, frames and fractional
// frames at which the track starts. The last return is false if this
// event is not an SMPTE offset event.
func (e MetaEvent) SMPTEOffset() (hours, minutes, seconds, frames, fractional uint8, ok bool) {
	if e.Command() != MetaSMPTEOffset {
		return 0, 0, 0, 0, 0, false
	}
	return e.data[0], e.data[1], e.data[2], e.data[3], e.data[4], true
}

func (e MetaEvent) String() string {
	switch e.Command() {
	case MetaSequenceNumber:
		n, _ := e.SequenceNumber()
		return fmt.Sprintf("Meta Event: Sequence Number: %d", n)
	case MetaText, MetaCopyright, MetaTrackName, MetaInstrumentName,
		MetaLyric, MetaMarker, MetaCuePoint:
		return fmt.Sprintf("Meta Event: %s: %s", e.Command(), e.Text())
	case MetaChannelPrefix:
		return fmt.Sprintf("Meta Event: MIDI Channel Prefix: %d", e.data[0])
	case MetaPortPrefix:
		return fmt.Sprintf("Meta Event: MIDI Port Prefix: %d", e.data[0])
	case MetaEndOfTrack:
		return "Meta Event: End Of Track"
	case MetaTempo:
		t, _ := e.Tempo()
		return fmt.Sprintf("Meta Event: Set Tempo, microseconds/quarter note: %d", t)
	case MetaSMPTEOffset:
		h, m, s, f, ff, _ := e.SMPTEOffset()
		return fmt.Sprintf("Meta Event: SMPTE Offset %02d:%02d:%02d %d.%d", h, m, s, f, ff)
	case MetaTimeSignature:
		n, d, c, t, _ := e.TimeSignature()
		return fmt.Sprintf("Meta Event: Time Signature: %d/%d, %d clocks/tick, %d 32nd notes/quarter",
			n, 1<<d, c, t)
	case MetaKeySignature:
		sf, minor, _ := e.KeySignature()
		mode := "Major"
		if minor {
			mode = "Minor"
		}
		return fmt.Sprintf("Meta Event: Key Signature, %d sharps/flats, %s", sf, mode)
	case MetaSequencerEvent:
		return fmt.Sprintf("Meta Event: Sequencer Specific, %d bytes", len(e.data))
	}
	return fmt.Sprintf("Meta Event: Unknown (%#02x), %d bytes", e.typ, len(e.data))
}

// Constructors for the known meta commands.

// NewSequenceNumberEvent creates a sequence number meta event.
func NewSequenceNumberEvent(n uint16) MetaEvent {
	return MetaEvent{typ: byte(MetaSequenceNumber), data: []byte{byte(n >> 8), byte(n)}}
}

// NewTextEvent creates a text meta event.
func NewTextEvent(text string) MetaEvent {
	return MetaEvent{typ: byte(MetaText), data: []byte(text)}
}

// NewCopyrightEvent creates a copyright notice meta event.
func NewCopyrightEvent(text string) MetaEvent {
	return MetaEvent{typ: byte(MetaCopyright), data: []byte(text)}
}

// NewTrackNameEvent creates a sequence/track name meta event.
func NewTrackNameEvent(name string) MetaEvent {
	return MetaEvent{typ: byte(MetaTrackName), data: []byte(name)}
}

// NewInstrumentNameEvent creates an instrument name meta event.
func NewInstrumentNameEvent(name string) MetaEvent {
	return MetaEvent{typ: byte(MetaInstrumentName), data: []byte(name)}
}

// NewLyricEvent creates a lyric meta event.
func NewLyricEvent(text string) MetaEvent {
	return MetaEvent{typ: byte(MetaLyric), data: []byte(text)}
}

// NewMarkerEvent creates a marker meta event.
func NewMarkerEvent(text string) MetaEvent {
	return MetaEvent{typ: byte(MetaMarker), data: []byte(text)}
}

// NewCuePointEvent creates a cue point meta event.
func NewCuePointEvent(text string) MetaEvent {
	return MetaEvent{typ: byte(MetaCuePoint), data: []byte(text)}
}

// NewChannelPrefixEvent associates subsequent meta and sysex events with
// a channel.
func NewChannelPrefixEvent(channel uint8) MetaEvent {
	return MetaEvent{typ: byte(MetaChannelPrefix), data: []byte{channel}}
}

// NewPortPrefixEvent creates a MIDI port prefix meta event.
func NewPortPrefixEvent(port uint8) MetaEvent {
	return MetaEvent{typ: byte(MetaPortPrefix), data: []byte{port}}
}

// NewEndOfTrackEvent creates an end of track meta event.
func NewEndOfTrackEvent() MetaEvent {
	return MetaEvent{typ: byte(MetaEndOfTrack), data: []byte{}}
}

// NewTempoEvent creates a tempo meta event. The tempo is stored as a
// 24-bit count of microseconds per quarter note; larger values are
// rejected.
func NewTempoEvent(microsPerQuarter uint32) (MetaEvent, error) {
	if microsPerQuarter > 0xFFFFFF {
		return MetaEvent{}, errors.Wrapf(ErrOverflow, "tempo %d exceeds 24 bits", microsPerQuarter)
	}
	return MetaEvent{typ: byte(MetaTempo), data: []byte{
		byte(microsPerQuarter >> 16), byte(microsPerQuarter >> 8), byte(microsPerQuarter),
	}}, nil
}

// NewSMPTEOffsetEvent creates an SMPTE offset meta event.
func NewSMPTEOffsetEvent(hours, minutes, seconds, frames, fractional uint8) MetaEvent {
	return MetaEvent{typ: byte(MetaSMPTEOffset), data: []byte{hours, minutes, seconds, frames, fractional}}
}

// NewTimeSignatureEvent creates a time signature meta event for
// numerator/2^denominator; 6/8 is numerator=6, denominator=3.
// clocksPerTick is MIDI clocks per metronome tick (24 per quarter note is
// standard); thirtySeconds is 32nd notes per 24 MIDI clocks (8 is
// standard).
func NewTimeSignatureEvent(numerator, denominator, clocksPerTick, thirtySeconds uint8) MetaEvent {
	return MetaEvent{typ: byte(MetaTimeSignature), data: []byte{numerator, denominator, clocksPerTick, thirtySeconds}}
}

// NewKeySignatureEvent creates a key signature meta event. sharpsFlats of
// 0 is C; positive counts sharps, negative flats.
func NewKeySignatureEvent(sharpsFlats int8, minor bool) MetaEvent {
	mode := byte(0)
	if minor {
		mode = 1
	}
	return MetaEvent{typ: byte(MetaKeySignature), data: []byte{byte(sharpsFlats), mode}}
}

// NewSequencerEvent creates a sequencer-specific meta event, the SMF
// equivalent of a system exclusive message.
func NewSequencerEvent(data []byte) MetaEvent {
	return MetaEvent{typ: byte(MetaSequencerEvent), data: data}
}
