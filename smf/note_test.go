package smf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoteName(t *testing.T) {
	require.Equal(t, "C3", NoteName(48))
	require.Equal(t, "C#3", NoteName(49))
	require.Equal(t, "F4", NoteName(65))
	require.Equal(t, "G#7", NoteName(104))
	require.Equal(t, "C-1", NoteName(0))
}
