package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRing_HashAddrIsStable(t *testing.T) {
	ring := NewRing(32)
	a := ring.HashAddr("node-a:9000")
	b := ring.HashAddr("node-a:9000")
	require.Equal(t, a, b)
}

func TestRing_HashAddrMasksToWidth(t *testing.T) {
	ring := NewRing(8)
	id := ring.HashAddr("node-a:9000")
	require.LessOrEqual(t, uint64(id), uint64(255))
}

func TestBetween_NoWraparound(t *testing.T) {
	require.True(t, Between(10, 15, 20))
	require.False(t, Between(10, 25, 20))
	require.False(t, Between(10, 10, 20))
	require.False(t, Between(10, 20, 20))
}

func TestBetween_Wraparound(t *testing.T) {
	require.True(t, Between(250, 5, 10))
	require.False(t, Between(250, 20, 10))
}

func TestBetween_DegenerateSingleNodeRing(t *testing.T) {
	require.True(t, Between(7, 3, 7))
	require.False(t, Between(7, 7, 7))
}
