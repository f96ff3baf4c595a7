// Package basemap materializes the recovered (room,door) -> room partial
// function from the SA solver, completes any missing doors via reciprocity
// balancing and self-loops, and pairs doors bidirectionally.
package basemap

import (
	"fmt"
	"math/rand"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/errs"
)

// Map is the R-room quotient recovered by SA, ignoring layer structure.
// Connections may be PARTIAL (during SA) or TOTAL (once Complete has run).
// Invariant: for each (room,door) in Connections there is at most one
// target — Set enforces this by construction.
type Map struct {
	NumRooms int
	Start    int
	// Connections holds (room,door) -> room. At most one target per key.
	Connections map[roomgraph.RoomAndDoor]int
}

// New returns an empty Map over numRooms rooms starting at room 0.
func New(numRooms int) Map {
	return Map{
		NumRooms:    numRooms,
		Start:       0,
		Connections: make(map[roomgraph.RoomAndDoor]int),
	}
}

// Set records (room,door) -> to. It is the caller's responsibility (SA's
// assignment validation) to ensure this does not conflict with an existing
// entry; Set overwrites silently, matching the teacher's "last write wins"
// map semantics used throughout pkg/minikanren's substitution tables.
func (m Map) Set(room int, door roomgraph.Door, to int) {
	m.Connections[roomgraph.RoomAndDoor{Room: room, Door: door}] = to
}

// Get returns the room (room,door) maps to, if known.
func (m Map) Get(room int, door roomgraph.Door) (int, bool) {
	to, ok := m.Connections[roomgraph.RoomAndDoor{Room: room, Door: door}]
	return to, ok
}

// Complete fills a partial base map to a total one: while any ordered pair
// (r1,r2) has more r1->r2 edges than r2->r1, it picks the lowest free door
// at r2 and maps it to r1 (decrementing the debt), then symmetrically for
// r2->r1. Any door still unmapped afterward becomes a self-loop.
//
// Complete returns a new Map; the receiver is left untouched.
func (m Map) Complete(rng *rand.Rand) (Map, error) {
	full := New(m.NumRooms)
	for k, v := range m.Connections {
		full.Connections[k] = v
	}

	kasikari := make([][]int, m.NumRooms)
	for i := range kasikari {
		kasikari[i] = make([]int, m.NumRooms)
	}
	for rd, to := range full.Connections {
		kasikari[rd.Room][to]++
		kasikari[to][rd.Room]--
	}

	for r1 := 0; r1 < m.NumRooms; r1++ {
		for r2 := r1 + 1; r2 < m.NumRooms; r2++ {
			for kasikari[r1][r2] > 0 {
				door, ok := lowestFreeDoor(full, r2)
				if !ok {
					return Map{}, fmt.Errorf("basemap: Complete: balancing %d->%d: %w", r2, r1, errs.ErrReciprocityInfeasible)
				}
				full.Set(r2, door, r1)
				kasikari[r1][r2]--
				kasikari[r2][r1]++
			}
			for kasikari[r2][r1] > 0 {
				door, ok := lowestFreeDoor(full, r1)
				if !ok {
					return Map{}, fmt.Errorf("basemap: Complete: balancing %d->%d: %w", r1, r2, errs.ErrReciprocityInfeasible)
				}
				full.Set(r1, door, r2)
				kasikari[r2][r1]--
				kasikari[r1][r2]++
			}
		}
	}

	for room := 0; room < m.NumRooms; room++ {
		for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
			if _, ok := full.Get(room, d); !ok {
				full.Set(room, d, room)
			}
		}
	}
	_ = rng // reserved: tie-breaking among free doors is deterministic (lowest first), matching spec §4.4
	return full, nil
}

func lowestFreeDoor(m Map, room int) (roomgraph.Door, bool) {
	for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
		if _, ok := m.Get(room, d); !ok {
			return d, true
		}
	}
	return 0, false
}

// PairDoors builds the symmetric (room,door) <-> (room,door) bijection from
// a TOTAL map. It iterates doors in order, and for each unpaired (room,door)
// with target to, picks a random unpaired door at `to` that maps back to
// `room`. Returns an error wrapping ErrReciprocityInfeasible if none exists
// (an unbalanced map that should have been caught by Complete) or if some
// (room,door) has no connection at all.
func (m Map) PairDoors(rng *rand.Rand) (map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor, error) {
	pairing := make(map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor, len(m.Connections)*2)
	used := make(map[roomgraph.RoomAndDoor]bool, len(m.Connections))

	for fromRoom := 0; fromRoom < m.NumRooms; fromRoom++ {
		for fromDoor := roomgraph.Door(0); fromDoor < roomgraph.NumDoors; fromDoor++ {
			fromRD := roomgraph.RoomAndDoor{Room: fromRoom, Door: fromDoor}
			if used[fromRD] {
				continue
			}
			toRoom, ok := m.Get(fromRoom, fromDoor)
			if !ok {
				return nil, fmt.Errorf("basemap: PairDoors: %v has no connection: %w", fromRD, errs.ErrReciprocityInfeasible)
			}

			var candidates []roomgraph.Door
			for toDoor := roomgraph.Door(0); toDoor < roomgraph.NumDoors; toDoor++ {
				toRD := roomgraph.RoomAndDoor{Room: toRoom, Door: toDoor}
				if used[toRD] {
					continue
				}
				back, ok := m.Get(toRoom, toDoor)
				if ok && back == fromRoom {
					candidates = append(candidates, toDoor)
				}
			}
			if len(candidates) == 0 {
				return nil, fmt.Errorf("basemap: PairDoors: no returning door from %d to %d: %w", toRoom, fromRoom, errs.ErrReciprocityInfeasible)
			}
			toDoor := candidates[rng.Intn(len(candidates))]
			toRD := roomgraph.RoomAndDoor{Room: toRoom, Door: toDoor}

			pairing[fromRD] = toRD
			pairing[toRD] = fromRD
			used[fromRD] = true
			used[toRD] = true
		}
	}
	return pairing, nil
}
