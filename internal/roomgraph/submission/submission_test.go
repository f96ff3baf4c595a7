package submission

import (
	"testing"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
)

func twoRoomSelfLoopAndRing() fullmap.FullMap {
	conn := make(map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor)
	rd := func(r int, d roomgraph.Door) roomgraph.RoomAndDoor { return roomgraph.RoomAndDoor{Room: r, Door: d} }

	// Room 0 door 0 <-> room 1 door 0; every other door self-loops.
	conn[rd(0, 0)] = rd(1, 0)
	conn[rd(1, 0)] = rd(0, 0)
	for _, r := range []int{0, 1} {
		for d := roomgraph.Door(1); d < roomgraph.NumDoors; d++ {
			conn[rd(r, d)] = rd(r, d)
		}
	}
	return fullmap.FullMap{NumRooms: 2, BaseRooms: 2, Start: 0, Connections: conn}
}

func TestBuildProducesOneConnectionPerDoorPair(t *testing.T) {
	m := Build(twoRoomSelfLoopAndRing())

	// One cross pair (0,0)<->(1,0) plus one entry per self-looping door
	// (doors 1..5 of each room): every pairing listed exactly once.
	wantConnections := 1 + 2*(roomgraph.NumDoors-1)
	if len(m.Connections) != wantConnections {
		t.Fatalf("len(Connections) = %d, want %d", len(m.Connections), wantConnections)
	}

	seen := make(map[roomgraph.RoomAndDoor]bool)
	for _, c := range m.Connections {
		if seen[c.From] || seen[c.To] {
			t.Fatalf("door %v or %v listed more than once", c.From, c.To)
		}
		seen[c.From] = true
		seen[c.To] = true
	}
}

func TestBuildRoomLabels(t *testing.T) {
	m := Build(twoRoomSelfLoopAndRing())
	want := []roomgraph.Label{0, 1}
	for i, w := range want {
		if m.Rooms[i] != w {
			t.Errorf("Rooms[%d] = %d, want %d", i, m.Rooms[i], w)
		}
	}
	if m.StartRoom != 0 {
		t.Errorf("StartRoom = %d, want 0", m.StartRoom)
	}
}

func TestBuildPanicsOnPartialMap(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Build did not panic on a partial FullMap")
		}
	}()
	Build(fullmap.FullMap{NumRooms: 2, BaseRooms: 2, Connections: map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor{}})
}
