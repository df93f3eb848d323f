package smf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderOrdersAndClosesTracks(t *testing.T) {
	b := NewBuilder()
	track := b.AddTrack()
	require.Equal(t, 1, b.NumTracks())

	// added out of order on purpose
	b.AddMessageAbs(track, 96, NewNoteOff(0, 60, 0))
	b.AddMessageAbs(track, 0, NewNoteOn(0, 60, 100))
	b.SetName(track, "melody")

	f := b.Result(FormatSingle, 96)
	require.Equal(t, FormatSingle, f.Format)
	require.Equal(t, Division(96), f.Division)
	require.Len(t, f.Tracks, 1)

	events := f.Tracks[0].Events
	require.Len(t, events, 4)

	// at time 0 the name meta event sorts before the note on
	name, ok := events[0].Body.(MetaEvent)
	require.True(t, ok)
	require.Equal(t, MetaTrackName, name.Command())
	require.Equal(t, uint32(0), events[0].Delta)

	require.Equal(t, NewNoteOn(0, 60, 100), events[1].Body)
	require.Equal(t, uint32(0), events[1].Delta)

	require.Equal(t, NewNoteOff(0, 60, 0), events[2].Body)
	require.Equal(t, uint32(96), events[2].Delta)

	// end of track is appended automatically
	require.True(t, isEndOfTrack(events[3]))
}

func TestBuilderRelativeTimes(t *testing.T) {
	b := NewBuilder()
	track := b.AddTrack()

	b.AddMessageRel(track, 10, NewNoteOn(1, 64, 80))
	b.AddMessageRel(track, 20, NewNoteOff(1, 64, 0))
	tempo, err := NewTempoEvent(500000)
	require.NoError(t, err)
	b.AddMetaAbs(track, 0, tempo)
	b.AddEvent(track, TrackEvent{Delta: 5, Body: NewNoteOn(1, 65, 80)})

	events := b.Result(FormatSingle, 96).Tracks[0].Events
	require.Len(t, events, 5)
	require.Equal(t, tempo, events[0].Body)
	require.Equal(t, uint32(10), events[1].Delta) // abs 10
	require.Equal(t, uint32(20), events[2].Delta) // abs 30
	require.Equal(t, uint32(5), events[3].Delta)  // abs 35
}

func TestBuilderRejectsUnencodableGap(t *testing.T) {
	b := NewBuilder()
	track := b.AddTrack()
	b.AddMessageAbs(track, 0, NewNoteOn(0, 60, 100))
	b.AddMessageAbs(track, 1<<32, NewNoteOff(0, 60, 0))

	var buf bytes.Buffer
	err := b.Result(FormatSingle, 96).Encode(&buf)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestBuilderResultRoundTrips(t *testing.T) {
	b := NewBuilder()
	track := b.AddTrack()
	b.SetCopyright(track, "2026")
	b.AddMessageAbs(track, 0, NewProgramChange(0, 12))
	b.AddMessageAbs(track, 0, NewNoteOn(0, 60, 90))
	b.AddMessageAbs(track, 480, NewNoteOff(0, 60, 0))

	var buf bytes.Buffer
	require.NoError(t, b.Result(FormatSingle, 480).Encode(&buf))

	f, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, f.Tracks, 1)
	require.Equal(t, "2026", f.Tracks[0].Copyright)
	require.Len(t, f.Tracks[0].Events, 5)
	require.True(t, isEndOfTrack(f.Tracks[0].Events[4]))
}
