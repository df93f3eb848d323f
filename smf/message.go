package smf

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status identifies what MIDI command a message represents. Channel voice
// statuses carry the channel in their low nibble on the wire; the Status
// constants hold the channel-0 form.
type Status byte

const (
	// channel voice
	NoteOff              Status = 0x80
	NoteOn               Status = 0x90
	PolyphonicAftertouch Status = 0xA0
	ControlChange        Status = 0xB0
	ProgramChange        Status = 0xC0
	ChannelAftertouch    Status = 0xD0
	PitchBend            Status = 0xE0

	// system common / realtime
	SysExStart          Status = 0xF0
	MTCQuarterFrame     Status = 0xF1
	SongPositionPointer Status = 0xF2
	SongSelect          Status = 0xF3
	TuneRequest         Status = 0xF6 // F4 and F5 are reserved and unused
	SysExEnd            Status = 0xF7
	TimingClock         Status = 0xF8
	Start               Status = 0xFA
	Continue            Status = 0xFB
	Stop                Status = 0xFC
	ActiveSensing       Status = 0xFE // FD also reserved/unused
	SystemReset         Status = 0xFF
)

const (
	statusMask  = 0xF0
	channelMask = 0x0F
)

var statusNames = map[Status]string{
	NoteOff:              "Note Off",
	NoteOn:               "Note On",
	PolyphonicAftertouch: "Polyphonic Aftertouch",
	ControlChange:        "Control Change",
	ProgramChange:        "Program Change",
	ChannelAftertouch:    "Channel Aftertouch",
	PitchBend:            "Pitch Bend",
	SysExStart:           "SysEx Start",
	MTCQuarterFrame:      "MIDI Time Code Qtr Frame",
	SongPositionPointer:  "Song Position Pointer",
	SongSelect:           "Song Select",
	TuneRequest:          "Tune Request",
	SysExEnd:             "SysEx End",
	TimingClock:          "Timing Clock",
	Start:                "Start",
	Continue:             "Continue",
	Stop:                 "Stop",
	ActiveSensing:        "Active Sensing",
	SystemReset:          "System Reset",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%#02x)", byte(s))
}

// dataBytes returns the data-byte arity for a status byte: n >= 0 for a
// fixed-size message, -1 for system exclusive (variable size, terminated
// by 0xF7). Fails with ErrInvalidStatus for data bytes and for the
// unassigned statuses 0xF4, 0xF5, 0xF9 and 0xFD.
func dataBytes(status byte) (int, error) {
	if status&0x80 == 0 {
		return 0, errors.Wrapf(ErrInvalidStatus, "%#02x is not a status byte", status)
	}
	if status < byte(SysExStart) {
		switch Status(status & statusMask) {
		case ProgramChange, ChannelAftertouch:
			return 1, nil
		default: // note on/off, aftertouch, control change, pitch bend
			return 2, nil
		}
	}
	switch Status(status) {
	case SysExStart:
		return -1, nil
	case MTCQuarterFrame, SongSelect:
		return 1, nil
	case SongPositionPointer:
		return 2, nil
	case TuneRequest, SysExEnd, TimingClock, Start, Continue, Stop, ActiveSensing, SystemReset:
		return 0, nil
	}
	return 0, errors.Wrapf(ErrInvalidStatus, "unassigned status %#02x", status)
}

// Message is one channel or system MIDI message. It owns the exact wire
// bytes (status byte plus data bytes, or the full 0xF0..0xF7 sequence for
// system exclusive); the structured accessors read from those bytes so
// re-serialization is byte-identical.
type Message struct {
	data []byte
}

// NewMessage wraps raw message bytes, validating that byte 0 is a
// recognized status and that the byte count matches the status's arity.
// System exclusive messages are variable-sized and must end with 0xF7.
func NewMessage(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, errors.Wrap(ErrTruncated, "empty message")
	}
	n, err := dataBytes(data[0])
	if err != nil {
		return Message{}, err
	}
	if n < 0 {
		if len(data) < 2 || data[len(data)-1] != byte(SysExEnd) {
			return Message{}, errors.Wrap(ErrLengthMismatch, "system exclusive message not terminated by 0xF7")
		}
	} else if len(data) != n+1 {
		return Message{}, errors.Wrapf(ErrLengthMismatch, "status %#02x takes %d data bytes, got %d",
			data[0], n, len(data)-1)
	}
	return Message{data: data}, nil
}

// Status returns the command this message represents. System statuses
// (0xF0 and up) classify on the full byte; channel voice statuses on the
// high nibble.
func (m Message) Status() Status {
	if m.data[0] >= byte(SysExStart) {
		return Status(m.data[0])
	}
	return Status(m.data[0] & statusMask)
}

// IsChannel reports whether this is a channel voice message.
func (m Message) IsChannel() bool {
	return m.data[0] >= 0x80 && m.data[0] < byte(SysExStart)
}

// IsSystem reports whether this is a system common, realtime or exclusive
// message.
func (m Message) IsSystem() bool {
	return m.data[0] >= byte(SysExStart)
}

// Channel returns the channel this message is on. The second return is
// false for system messages, which carry no channel.
func (m Message) Channel() (uint8, bool) {
	if !m.IsChannel() {
		return 0, false
	}
	return m.data[0] & channelMask, true
}

// Data returns the byte at index i. The status byte is at index 0.
func (m Message) Data(i int) (byte, bool) {
	if i < 0 || i >= len(m.data) {
		return 0, false
	}
	return m.data[i], true
}

// Len returns the total byte count of the message, status included.
func (m Message) Len() int {
	return len(m.data)
}

// Bytes returns the underlying wire bytes. The slice must not be
// modified.
func (m Message) Bytes() []byte {
	return m.data
}

func (m Message) String() string {
	ch := ""
	if c, ok := m.Channel(); ok {
		ch = fmt.Sprintf("\tchannel: %d", c)
	}
	switch len(m.data) {
	case 1:
		return fmt.Sprintf("%s: [no data]%s", m.Status(), ch)
	case 2:
		return fmt.Sprintf("%s: [%d]%s", m.Status(), m.data[1], ch)
	case 3:
		return fmt.Sprintf("%s: [%d,%d]%s", m.Status(), m.data[1], m.data[2], ch)
	}
	return fmt.Sprintf("%s: % x%s", m.Status(), m.data[1:], ch)
}

func makeStatus(status Status, channel uint8) byte {
	return byte(status) | channel&channelMask
}

// NewNoteOn creates a note on message.
func NewNoteOn(channel, note, velocity uint8) Message {
	return Message{data: []byte{makeStatus(NoteOn, channel), note, velocity}}
}

// NewNoteOff creates a note off message.
func NewNoteOff(channel, note, velocity uint8) Message {
	return Message{data: []byte{makeStatus(NoteOff, channel), note, velocity}}
}

// NewPolyphonicAftertouch creates a polyphonic aftertouch message, most
// often sent by pressing down on a key after it "bottoms out".
func NewPolyphonicAftertouch(channel, note, pressure uint8) Message {
	return Message{data: []byte{makeStatus(PolyphonicAftertouch, channel), note, pressure}}
}

// NewControlChange creates a control change message. Controller numbers
// 120-127 are reserved as channel mode messages.
func NewControlChange(channel, controller, value uint8) Message {
	return Message{data: []byte{makeStatus(ControlChange, channel), controller, value}}
}

// NewProgramChange creates a program change message announcing a new patch
// number.
func NewProgramChange(channel, program uint8) Message {
	return Message{data: []byte{makeStatus(ProgramChange, channel), program}}
}

// NewChannelAftertouch creates a channel aftertouch message carrying the
// single greatest pressure value of all currently depressed keys.
func NewChannelAftertouch(channel, pressure uint8) Message {
	return Message{data: []byte{makeStatus(ChannelAftertouch, channel), pressure}}
}

// NewPitchBend creates a pitch bend message. The bender position is a
// 14-bit value split into lsb and msb; 0x2000 means no bend.
func NewPitchBend(channel, lsb, msb uint8) Message {
	return Message{data: []byte{makeStatus(PitchBend, channel), lsb, msb}}
}

// NewSysEx creates a system exclusive message from payload bytes. The
// leading 0xF0 and trailing 0xF7 must not be included in data.
func NewSysEx(data []byte) Message {
	buf := make([]byte, 0, len(data)+2)
	buf = append(buf, byte(SysExStart))
	buf = append(buf, data...)
	buf = append(buf, byte(SysExEnd))
	return Message{data: buf}
}
