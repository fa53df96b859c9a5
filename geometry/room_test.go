package geometry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDemoRoom(t *testing.T) {
	snap, err := LoadRoom("")
	require.NoError(t, err)

	assert.Positive(t, snap.Bounds.Width)
	assert.Positive(t, snap.Bounds.Height)
	assert.NotEmpty(t, snap.Walls)
	assert.NotEmpty(t, snap.Doors)
	assert.NotEmpty(t, snap.Windows)
	assert.NotEmpty(t, snap.Furniture)
}

func TestLoadRoomTagsKinds(t *testing.T) {
	snap, err := LoadRoom("")
	require.NoError(t, err)

	for _, s := range snap.Walls {
		assert.Equal(t, KindWall, s.Kind)
	}
	for _, s := range snap.Doors {
		assert.Equal(t, KindDoor, s.Kind)
	}
	for _, s := range snap.Windows {
		assert.Equal(t, KindWindow, s.Kind)
	}
}

func TestLoadRoomFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "room.yaml")
	room := `
bounds:
  width: 8
  height: 6
walls:
  - {x1: 0, y1: 0, x2: 8, y2: 0}
doors:
  - {x1: 0, y1: 2, x2: 0, y2: 3}
furniture:
  - {x: 3, y: 2, width: 1, height: 1, resistance: 0.5, sharp_corners: true}
`
	require.NoError(t, os.WriteFile(path, []byte(room), 0644))

	snap, err := LoadRoom(path)
	require.NoError(t, err)

	assert.Equal(t, float32(8), snap.Bounds.Width)
	require.Len(t, snap.Walls, 1)
	require.Len(t, snap.Doors, 1)
	assert.Equal(t, KindDoor, snap.Doors[0].Kind)
	require.Len(t, snap.Furniture, 1)
	assert.Equal(t, float32(0.5), snap.Furniture[0].Resistance)
	assert.True(t, snap.Furniture[0].SharpCorners)
}

func TestLoadRoomMissingFile(t *testing.T) {
	_, err := LoadRoom("/nonexistent/room.yaml")
	assert.Error(t, err)
}

func TestLoadRoomRejectsBadBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bounds: {width: 0, height: 5}\n"), 0644))

	_, err := LoadRoom(path)
	assert.ErrorContains(t, err, "positive size")
}

func TestSnapshotClone(t *testing.T) {
	orig, err := LoadRoom("")
	require.NoError(t, err)

	clone := orig.Clone()
	require.Equal(t, orig, clone)

	// Mutating the clone must not reach back into the original.
	clone.Walls[0].X1 += 99
	clone.Furniture[0].Resistance = 0.123
	assert.NotEqual(t, orig.Walls[0], clone.Walls[0])
	assert.NotEqual(t, orig.Furniture[0].Resistance, clone.Furniture[0].Resistance)
}

func TestSegmentKindString(t *testing.T) {
	assert.Equal(t, "wall", KindWall.String())
	assert.Equal(t, "door", KindDoor.String())
	assert.Equal(t, "window", KindWindow.String())
}
