package smf

import (
	"math"
	"sort"
)

// buildEvent stores an event at an absolute time while a track is being
// assembled; deltas are computed once the ordering is final.
type buildEvent struct {
	time uint64
	body any
}

type trackBuilder struct {
	name      string
	copyright string
	maxTime   uint64
	events    []buildEvent
}

func (tb *trackBuilder) add(time uint64, body any) {
	if time > tb.maxTime {
		tb.maxTime = time
	}
	tb.events = append(tb.events, buildEvent{time: time, body: body})
}

func (tb *trackBuilder) result() *Track {
	// stable sort by time; on ties meta events sort before messages
	rank := func(body any) int {
		if _, ok := body.(MetaEvent); ok {
			return 0
		}
		return 1
	}
	sort.SliceStable(tb.events, func(i, j int) bool {
		a, b := tb.events[i], tb.events[j]
		if a.time != b.time {
			return a.time < b.time
		}
		return rank(a.body) < rank(b.body)
	})
	t := &Track{
		Name:      tb.name,
		Copyright: tb.copyright,
		Events:    make([]TrackEvent, 0, len(tb.events)+1),
	}
	var cur uint64
	for _, be := range tb.events {
		gap := be.time - cur
		if gap > math.MaxUint32 {
			// keep the delta above MaxVLQ so Encode reports the overflow
			gap = math.MaxUint32
		}
		t.Events = append(t.Events, TrackEvent{Delta: uint32(gap), Body: be.body})
		cur = be.time
	}
	if n := len(t.Events); n == 0 || !isEndOfTrack(t.Events[n-1]) {
		t.Events = append(t.Events, TrackEvent{Delta: 0, Body: NewEndOfTrackEvent()})
	}
	return t
}

func isEndOfTrack(ev TrackEvent) bool {
	me, ok := ev.Body.(MetaEvent)
	return ok && me.Command() == MetaEndOfTrack
}

// Builder assembles an SMF file from events given at absolute or
// relative times. Events may be added in any order; each built track is
// sorted by time and closed with an end-of-track event.
type Builder struct {
	tracks []*trackBuilder
}

// NewBuilder creates a builder with no tracks.
func NewBuilder() *Builder {
	return &Builder{}
}

// NumTracks returns the number of tracks currently in the builder.
func (b *Builder) NumTracks() int {
	return len(b.tracks)
}

// AddTrack appends a new empty track and returns its index.
func (b *Builder) AddTrack() int {
	b.tracks = append(b.tracks, &trackBuilder{})
	return len(b.tracks) - 1
}

// SetName names the track at index track, inserting a track name meta
// event at time 0. Call at most once per track.
func (b *Builder) SetName(track int, name string) {
	b.tracks[track].add(0, NewTrackNameEvent(name))
	b.tracks[track].name = name
}

// SetCopyright sets the copyright for the track at index track,
// inserting a copyright meta event at time 0. Call at most once per
// track.
func (b *Builder) SetCopyright(track int, copyright string) {
	b.tracks[track].add(0, NewCopyrightEvent(copyright))
	b.tracks[track].copyright = copyright
}

// AddMessageAbs adds a message to the given track at an absolute time in
// division units.
func (b *Builder) AddMessageAbs(track int, time uint64, msg Message) {
	b.tracks[track].add(time, msg)
}

// AddMessageRel adds a message to the given track delta ticks after the
// latest event currently in the track.
func (b *Builder) AddMessageRel(track int, delta uint64, msg Message) {
	tb := b.tracks[track]
	tb.add(tb.maxTime+delta, msg)
}

// AddMetaAbs adds a meta event to the given track at an absolute time in
// division units.
func (b *Builder) AddMetaAbs(track int, time uint64, event MetaEvent) {
	b.tracks[track].add(time, event)
}

// AddMetaRel adds a meta event to the given track delta ticks after the
// latest event currently in the track.
func (b *Builder) AddMetaRel(track int, delta uint64, event MetaEvent) {
	tb := b.tracks[track]
	tb.add(tb.maxTime+delta, event)
}

// AddEvent adds a track event whose delta is taken relative to the
// latest event currently in the track.
func (b *Builder) AddEvent(track int, ev TrackEvent) {
	tb := b.tracks[track]
	tb.add(tb.maxTime+uint64(ev.Delta), ev.Body)
}

// Result builds the file from the added tracks.
func (b *Builder) Result(format Format, division Division) *File {
	f := &File{
		Format:   format,
		Division: division,
		Tracks:   make([]*Track, 0, len(b.tracks)),
	}
	for _, tb := range b.tracks {
		f.Tracks = append(f.Tracks, tb.result())
	}
	return f
}
