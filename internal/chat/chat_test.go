package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectRoom(t *testing.T) {
	require.Equal(t, "dm:3:7", DirectRoom(7, 3))
	require.Equal(t, DirectRoom(3, 7), DirectRoom(7, 3))

	a, b, ok := Participants("dm:3:7")
	require.True(t, ok)
	require.Equal(t, 3, a)
	require.Equal(t, 7, b)

	_, _, ok = Participants("general")
	require.False(t, ok)
	_, _, ok = Participants("dm:x:7")
	require.False(t, ok)
	_, _, ok = Participants("dm:7:3")
	require.False(t, ok)
}

func TestCanAccess(t *testing.T) {
	require.True(t, CanAccess("general", 9))
	require.True(t, CanAccess("dm:3:7", 7))
	require.False(t, CanAccess("dm:3:7", 9))
	require.False(t, CanAccess("dm:broken", 3))
	require.False(t, CanAccess("dm:7:3", 7))
	require.False(t, CanAccess("dm:03:7", 7))
	require.False(t, CanAccess("dm:+3:7", 3))
}
