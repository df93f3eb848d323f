package smf

import "fmt"

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts a MIDI note number to a name, e.g. 60 -> "C4".
func NoteName(num uint8) string {
	return fmt.Sprintf("%s%d", noteNames[num%12], int(num)/12-1)
}
