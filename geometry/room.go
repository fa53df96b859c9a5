package geometry

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed demo_room.yaml
var demoRoomYAML []byte

// LoadRoom reads a room snapshot from a YAML file. An empty path loads
// the embedded demo room so the binary runs standalone.
func LoadRoom(path string) (Snapshot, error) {
	data := demoRoomYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Snapshot{}, fmt.Errorf("reading room file: %w", err)
		}
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("parsing room file: %w", err)
	}
	snap.tagKinds()

	if snap.Bounds.Width <= 0 || snap.Bounds.Height <= 0 {
		return Snapshot{}, fmt.Errorf("room bounds must have positive size, got %gx%g",
			snap.Bounds.Width, snap.Bounds.Height)
	}
	return snap, nil
}

// MustLoadRoom is like LoadRoom but panics on error. Used for the
// embedded demo room, which is validated by tests.
func MustLoadRoom(path string) Snapshot {
	snap, err := LoadRoom(path)
	if err != nil {
		panic(fmt.Sprintf("geometry: %v", err))
	}
	return snap
}
