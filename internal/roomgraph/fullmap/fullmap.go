// Package fullmap defines the fully-resolved, submittable multi-layer map
// produced by DFSLayerSolver: N=R·L rooms, a total transition function, and
// a symmetric door pairing.
package fullmap

import "github.com/mapsmith/roommapper/internal/roomgraph"

// FullMap is the N=R·L room map ready for SubmissionBuilder. Connections is
// a total, symmetric involution: Connections[Connections[x]] == x whenever
// both sides are defined.
type FullMap struct {
	NumRooms    int
	BaseRooms   int // R: the base-map room count this was lifted from
	Start       int
	Connections map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor
}

// Label returns the canonical label of room i: (i mod BaseRooms) mod 4.
func (m FullMap) Label(room int) roomgraph.Label {
	return roomgraph.LabelOf(room % m.BaseRooms)
}

// IsInvolution reports whether Connections is a valid symmetric pairing:
// every entry's image maps back to its key.
func (m FullMap) IsInvolution() bool {
	for rd, target := range m.Connections {
		back, ok := m.Connections[target]
		if !ok || back != rd {
			return false
		}
	}
	return true
}

// IsTotal reports whether every (room, door) pair for room in [0,NumRooms)
// has a defined connection.
func (m FullMap) IsTotal() bool {
	for r := 0; r < m.NumRooms; r++ {
		for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
			if _, ok := m.Connections[roomgraph.RoomAndDoor{Room: r, Door: d}]; !ok {
				return false
			}
		}
	}
	return true
}
