// Package submission converts a resolved fullmap.FullMap into the
// room-label vector, starting room, and deduplicated connection list the
// oracle's /guess endpoint expects.
package submission

import (
	"sort"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
)

// Connection is one undirected door-to-door pairing in the submission.
type Connection struct {
	From roomgraph.RoomAndDoor
	To   roomgraph.RoomAndDoor
}

// Map is the wire-ready candidate map: a label per room, the starting
// room, and every door pairing listed exactly once.
type Map struct {
	Rooms       []roomgraph.Label
	StartRoom   int
	Connections []Connection
}

// Build derives a Map from a resolved FullMap. m.Connections must already
// be a total involution (dfs.Solver.Solve and basemap.Map.PairDoors both
// produce one); Build panics if it is not, since a partial or
// non-reciprocal map indicates an upstream solver bug rather than bad
// input data.
func Build(m fullmap.FullMap) Map {
	if !m.IsTotal() {
		panic("submission: FullMap is not total")
	}
	if !m.IsInvolution() {
		panic("submission: FullMap is not a symmetric involution")
	}

	rooms := make([]roomgraph.Label, m.NumRooms)
	for r := 0; r < m.NumRooms; r++ {
		rooms[r] = m.Label(r)
	}

	seen := make(map[roomgraph.RoomAndDoor]bool, len(m.Connections))
	connections := make([]Connection, 0, len(m.Connections)/2)
	keys := make([]roomgraph.RoomAndDoor, 0, len(m.Connections))
	for rd := range m.Connections {
		keys = append(keys, rd)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Room != keys[j].Room {
			return keys[i].Room < keys[j].Room
		}
		return keys[i].Door < keys[j].Door
	})

	for _, rd := range keys {
		if seen[rd] {
			continue
		}
		to := m.Connections[rd]
		seen[rd] = true
		seen[to] = true
		connections = append(connections, Connection{From: rd, To: to})
	}

	return Map{
		Rooms:       rooms,
		StartRoom:   m.Start,
		Connections: connections,
	}
}
