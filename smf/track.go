package smf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const metaPrefix = 0xFF

var trackMagic = [4]byte{'M', 'T', 'r', 'k'}

type chunkHeader struct {
	ChunkType [4]byte
	ChunkSize uint32
}

// TrackEvent pairs a delta time, in division units since the previous
// event, with exactly one payload. Body holds a Message (channel, system
// and system exclusive) or a MetaEvent.
type TrackEvent struct {
	Delta uint32
	Body  any
}

func (e TrackEvent) String() string {
	return fmt.Sprintf("time: %d\t%v", e.Delta, e.Body)
}

// Track is an ordered sequence of events parsed from, or serialized to,
// one MTrk chunk. Name and Copyright are filled from the corresponding
// meta events seen during a parse, the last occurrence winning. A final
// end-of-track event is conventional but not enforced here.
type Track struct {
	Name      string
	Copyright string
	Events    []TrackEvent
}

// readMessage reads the remainder of a message whose fresh status byte
// has just been consumed.
func readMessage(r *bytes.Reader, status byte) (Message, error) {
	n, err := dataBytes(status)
	if err != nil {
		return Message{}, err
	}
	if n < 0 {
		// system exclusive, variable length up to and including 0xF7
		data := []byte{status}
		for {
			b, err := r.ReadByte()
			if err != nil {
				return Message{}, errors.Wrap(ErrTruncated, "system exclusive message not terminated")
			}
			data = append(data, b)
			if b == byte(SysExEnd) {
				return Message{data: data}, nil
			}
		}
	}
	data := make([]byte, n+1)
	data[0] = status
	if _, err := io.ReadFull(r, data[1:]); err != nil {
		return Message{}, errors.Wrapf(ErrTruncated, "status %#02x needs %d data bytes", status, n)
	}
	return Message{data: data}, nil
}

// readRunningMessage reads a message whose status byte was omitted under
// running status. first is the byte found in status position; it is the
// first data byte. status is zero or a channel voice status, so its arity
// is at least one.
func readRunningMessage(r *bytes.Reader, status, first byte) (Message, error) {
	if status == 0 {
		return Message{}, errors.Wrap(ErrInvalidStatus, "running status with no usable prior status byte")
	}
	n, err := dataBytes(status)
	if err != nil {
		return Message{}, err
	}
	data := make([]byte, n+1)
	data[0] = status
	data[1] = first
	if _, err := io.ReadFull(r, data[2:]); err != nil {
		return Message{}, errors.Wrapf(ErrTruncated, "status %#02x needs %d data bytes", status, n)
	}
	return Message{data: data}, nil
}

// readEvent decodes one delta-time-prefixed event. lastStatus threads the
// running status through the track parse: channel voice messages set it,
// system and system exclusive messages cancel it, meta events leave it
// untouched.
func readEvent(r *bytes.Reader, lastStatus *byte) (TrackEvent, error) {
	delta, _, err := ReadVLQ(r)
	if err != nil {
		return TrackEvent{}, err
	}
	b, err := r.ReadByte()
	if err != nil {
		return TrackEvent{}, errors.Wrap(ErrTruncated, "reading status byte")
	}
	if b == metaPrefix {
		typ, err := r.ReadByte()
		if err != nil {
			return TrackEvent{}, errors.Wrap(ErrTruncated, "reading meta type byte")
		}
		length, _, err := ReadVLQ(r)
		if err != nil {
			return TrackEvent{}, err
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return TrackEvent{}, errors.Wrapf(ErrTruncated, "meta event %#02x declares %d payload bytes", typ, length)
		}
		me, err := NewMetaEvent(typ, payload)
		if err != nil {
			return TrackEvent{}, err
		}
		return TrackEvent{Delta: delta, Body: me}, nil
	}
	var msg Message
	if b&0x80 == 0 {
		msg, err = readRunningMessage(r, *lastStatus, b)
	} else {
		msg, err = readMessage(r, b)
	}
	if err != nil {
		return TrackEvent{}, err
	}
	if msg.IsChannel() {
		*lastStatus = msg.data[0]
	} else {
		*lastStatus = 0
	}
	return TrackEvent{Delta: delta, Body: msg}, nil
}

// parseEvents parses a complete MTrk chunk body. The declared length must
// be consumed exactly: an event cut off by the end of the body fails with
// ErrTrackLength.
func parseEvents(body []byte) ([]TrackEvent, error) {
	r := bytes.NewReader(body)
	var events []TrackEvent
	var lastStatus byte
	for r.Len() > 0 {
		offset := len(body) - r.Len()
		ev, err := readEvent(r, &lastStatus)
		if err != nil {
			if errors.Is(err, ErrTruncated) {
				return nil, errors.Wrapf(ErrTrackLength, "event %d at offset %d overruns the declared chunk length (%s)",
					len(events), offset, err)
			}
			return nil, errors.Wrapf(err, "event %d at offset %d", len(events), offset)
		}
		events = append(events, ev)
	}
	return events, nil
}

// decodeBody reads size bytes of event stream from r and parses them.
func (t *Track) decodeBody(r io.Reader, size uint32) error {
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return errors.Wrapf(ErrTruncated, "track declares %d bytes (%s)", size, err)
	}
	events, err := parseEvents(body)
	if err != nil {
		return err
	}
	t.Events = events
	for _, ev := range events {
		me, ok := ev.Body.(MetaEvent)
		if !ok {
			continue
		}
		switch me.Command() {
		case MetaTrackName:
			t.Name = me.Text()
		case MetaCopyright:
			t.Copyright = me.Text()
		}
	}
	return nil
}

// Encode writes the track as an MTrk chunk with a computed length prefix.
// Events are written exactly as present: no end-of-track is injected and
// running-status compression is not applied.
func (t *Track) Encode(w io.Writer) error {
	var body bytes.Buffer
	for i, ev := range t.Events {
		if _, err := WriteVLQ(&body, ev.Delta); err != nil {
			return errors.Wrapf(err, "event %d delta", i)
		}
		switch b := ev.Body.(type) {
		case Message:
			body.Write(b.Bytes())
		case MetaEvent:
			body.WriteByte(metaPrefix)
			body.WriteByte(b.Type())
			if _, err := WriteVLQ(&body, uint32(b.Len())); err != nil {
				return errors.Wrapf(err, "event %d meta length", i)
			}
			body.Write(b.Data())
		default:
			return errors.Errorf("event %d has unsupported body type %T", i, ev.Body)
		}
	}
	hdr := chunkHeader{ChunkType: trackMagic, ChunkSize: uint32(body.Len())}
	if err := binary.Write(w, binary.BigEndian, &hdr); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

func (t *Track) String() string {
	name, copyright := t.Name, t.Copyright
	if name == "" {
		name = "[none]"
	}
	if copyright == "" {
		copyright = "[none]"
	}
	return fmt.Sprintf("Track, copyright: %s, name: %s", copyright, name)
}
