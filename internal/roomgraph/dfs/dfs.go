// Package dfs implements the layer-completion solver: given a base map
// recovered by simulated annealing and a labelled plan, it backtracks over
// layer assignments (twin-room permutations) to build a total, reciprocal
// N=R*L room map consistent with every observed label in the plan.
package dfs

import (
	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/basemap"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
)

// unassigned marks an observation index the search has not yet committed.
const unassigned = -1

// twinEdge is one (from_room, to_room) edge within a twin-room permutation
// pattern, both expressed as full room ids (base room + layer*numBaseRooms).
type twinEdge struct {
	from, to int
}

// twinsPatterns enumerates every way the layerNum twin copies of fromRoom
// can connect, via some door, to the layerNum twin copies of toBaseRoom's
// layer-0 representative. Layer 1 has exactly one (trivial) pattern; layer
// 2 has the identity and the single swap; layer 3 has all six permutations
// of 3 elements, listed in the fixed order the original solver enumerates
// them.
func twinsPatterns(layers, fromRoom, toBaseRoom, numBaseRoom int) [][]twinEdge {
	total := numBaseRoom * layers
	fromPoints := make([]int, layers)
	toPoints := make([]int, layers)
	for i := 0; i < layers; i++ {
		fromPoints[i] = (fromRoom + numBaseRoom*i) % total
		toPoints[i] = (toBaseRoom + numBaseRoom*i) % total
	}

	switch layers {
	case 1:
		return [][]twinEdge{{{fromRoom, toBaseRoom}}}
	case 2:
		return [][]twinEdge{
			{{fromPoints[0], toPoints[0]}, {fromPoints[1], toPoints[1]}},
			{{fromPoints[0], toPoints[1]}, {fromPoints[1], toPoints[0]}},
		}
	case 3:
		perms := [][3]int{
			{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
		}
		patterns := make([][]twinEdge, 0, len(perms))
		for _, perm := range perms {
			patterns = append(patterns, []twinEdge{
				{fromPoints[0], toPoints[perm[0]]},
				{fromPoints[1], toPoints[perm[1]]},
				{fromPoints[2], toPoints[perm[2]]},
			})
		}
		return patterns
	default:
		panic("dfs: unsupported layer count")
	}
}

// doorSet is a fixed 6-bit set of doors, replacing the teacher problem's
// fixedbitset dependency with a single machine word — MaxDoors is small
// enough that no allocation or external bitset library earns its keep.
type doorSet uint8

func (s doorSet) has(d roomgraph.Door) bool { return s&(1<<uint(d)) != 0 }
func (s *doorSet) set(d roomgraph.Door)     { *s |= 1 << uint(d) }
func (s *doorSet) clear(d roomgraph.Door)   { *s &^= 1 << uint(d) }

func (s doorSet) lowest() (roomgraph.Door, bool) {
	for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
		if s.has(d) {
			return d, true
		}
	}
	return 0, false
}

// Solver backtracks over door/layer assignments to complete a base map
// into a total, labelled, reciprocal full map.
type Solver struct {
	numBaseRooms   int
	layerNum       int
	baseMap        basemap.Map
	fullPlan       []roomgraph.PlanStep
	observedLabels []int

	// remainingBaseDoors[toBase][fromBase] = doors at toBase not yet
	// claimed for a twin connection back to fromBase.
	remainingBaseDoors [][]doorSet

	connections    map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor
	fullAssignment []int
	currentLabels  []int
}

// New builds a Solver. baseMap may be partial, as anneal.Solver.BuildBaseMap
// produces it, but must map every (room,door) the labelled plan's walk
// presses; doors it leaves unmapped are what newDoorAtToRoom falls back on.
// fullPlan/observedLabels are the labelled plan and its full observation
// vector (length len(fullPlan)+1); layerNum is L in {1,2,3}.
func New(baseMap basemap.Map, fullPlan []roomgraph.PlanStep, observedLabels []int, layerNum int) *Solver {
	numBaseRooms := baseMap.NumRooms
	currentLabels := make([]int, numBaseRooms*layerNum)
	for i := range currentLabels {
		currentLabels[i] = (i % numBaseRooms) % roomgraph.NumLabels
	}

	fullAssignment := make([]int, len(observedLabels))
	for i := range fullAssignment {
		fullAssignment[i] = unassigned
	}

	remaining := make([][]doorSet, numBaseRooms)
	for i := range remaining {
		remaining[i] = make([]doorSet, numBaseRooms)
	}
	for rd, to := range baseMap.Connections {
		remaining[rd.Room][to].set(rd.Door)
	}

	return &Solver{
		numBaseRooms:       numBaseRooms,
		layerNum:           layerNum,
		baseMap:            baseMap,
		fullPlan:           fullPlan,
		observedLabels:     observedLabels,
		remainingBaseDoors: remaining,
		connections:        make(map[roomgraph.RoomAndDoor]roomgraph.RoomAndDoor),
		fullAssignment:     fullAssignment,
		currentLabels:      currentLabels,
	}
}

// Solve runs the backtracking search from the base starting room. On
// success it fills every still-unconnected (room,door) with a self-loop
// and returns the resulting FullMap.
func (s *Solver) Solve() (fullmap.FullMap, bool) {
	if len(s.observedLabels) == 0 {
		return fullmap.FullMap{}, false
	}
	startObsLabel := s.observedLabels[0]
	const baseStartingRoom = 0
	if s.currentLabels[baseStartingRoom] != startObsLabel {
		return fullmap.FullMap{}, false
	}
	if !s.dfs(0, 0, baseStartingRoom) {
		return fullmap.FullMap{}, false
	}

	s.fillMissingConnectionsWithSelfLoop()
	return fullmap.FullMap{
		NumRooms:    s.numBaseRooms * s.layerNum,
		BaseRooms:   s.numBaseRooms,
		Start:       0,
		Connections: s.connections,
	}, true
}

func (s *Solver) fillMissingConnectionsWithSelfLoop() {
	total := s.numBaseRooms * s.layerNum
	for room := 0; room < total; room++ {
		for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
			rd := roomgraph.RoomAndDoor{Room: room, Door: d}
			if _, ok := s.connections[rd]; !ok {
				s.connections[rd] = rd
			}
		}
	}
}

// dfs assigns currentFullRoom to obs_idx and, if the plan is not yet
// exhausted, dispatches on the next plan step. Every mutation it performs
// (label overwrite, new twin connections) is reverted before returning
// false, so a failed branch leaves state exactly as found.
func (s *Solver) dfs(planIdx, obsIdx, currentFullRoom int) bool {
	s.fullAssignment[obsIdx] = currentFullRoom

	if planIdx >= len(s.fullPlan) {
		return true
	}

	var result bool
	step := s.fullPlan[planIdx]
	switch step.Kind {
	case roomgraph.StepChangeLabel:
		oldLabel := s.currentLabels[currentFullRoom]
		s.currentLabels[currentFullRoom] = int(step.Label)
		result = s.dfs(planIdx+1, obsIdx+1, currentFullRoom)
		s.currentLabels[currentFullRoom] = oldLabel
	case roomgraph.StepMove:
		result = s.handleMove(planIdx, obsIdx, currentFullRoom)
	}

	if !result {
		s.fullAssignment[obsIdx] = unassigned
	}
	return result
}

func (s *Solver) handleMove(planIdx, obsIdx, fromRoom int) bool {
	fromDoor := s.fullPlan[planIdx].Door
	nextObsIdx := obsIdx + 1
	expectedLabel := s.observedLabels[nextObsIdx]

	fromRD := roomgraph.RoomAndDoor{Room: fromRoom, Door: fromDoor}
	if existing, ok := s.connections[fromRD]; ok {
		if s.currentLabels[existing.Room] != expectedLabel {
			return false
		}
		return s.dfs(planIdx+1, nextObsIdx, existing.Room)
	}

	fromBase := fromRoom % s.numBaseRooms
	toBase, ok := s.baseMap.Get(fromBase, fromDoor)
	if !ok {
		panic("dfs: base map missing a connection the SA solver claimed to have recovered")
	}

	toDoor, ok := s.newDoorAtToRoom(fromBase, toBase)
	if !ok {
		return false
	}

	for _, pattern := range twinsPatterns(s.layerNum, fromRoom, toBase, s.numBaseRooms) {
		toRoom := pattern[0].to
		if s.currentLabels[toRoom] != expectedLabel {
			continue
		}
		if !s.connectTwins(pattern, fromDoor, toDoor) {
			continue
		}
		if s.dfs(planIdx+1, nextObsIdx, toRoom) {
			return true
		}
		s.disconnectTwins(pattern, fromDoor, toDoor)
	}
	return false
}

// newDoorAtToRoom picks a door at toBase that still owes a connection back
// to fromBase, per the base map's reciprocity accounting; failing that, it
// falls back to any door at toBase unused by both the base map and the
// in-progress full connections.
func (s *Solver) newDoorAtToRoom(fromBase, toBase int) (roomgraph.Door, bool) {
	if d, ok := s.remainingBaseDoors[toBase][fromBase].lowest(); ok {
		return d, true
	}
	for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
		if _, used := s.baseMap.Get(toBase, d); used {
			continue
		}
		if _, used := s.connections[roomgraph.RoomAndDoor{Room: toBase, Door: d}]; used {
			continue
		}
		return d, true
	}
	return 0, false
}

// connectTwins commits every edge in pattern, each via the same
// (fromDoor, toDoor) door pair, provided none of the rooms involved are
// already connected on that door. It returns false (no mutation) if any
// conflict is found.
func (s *Solver) connectTwins(pattern []twinEdge, fromDoor, toDoor roomgraph.Door) bool {
	for _, edge := range pattern {
		fromRD := roomgraph.RoomAndDoor{Room: edge.from, Door: fromDoor}
		toRD := roomgraph.RoomAndDoor{Room: edge.to, Door: toDoor}
		if _, ok := s.connections[fromRD]; ok {
			return false
		}
		if _, ok := s.connections[toRD]; ok {
			return false
		}
	}

	for _, edge := range pattern {
		fromRD := roomgraph.RoomAndDoor{Room: edge.from, Door: fromDoor}
		toRD := roomgraph.RoomAndDoor{Room: edge.to, Door: toDoor}
		s.connections[fromRD] = toRD
		s.connections[toRD] = fromRD
	}

	fromBase := pattern[0].from % s.numBaseRooms
	toBase := pattern[0].to % s.numBaseRooms
	s.remainingBaseDoors[fromBase][toBase].clear(fromDoor)
	s.remainingBaseDoors[toBase][fromBase].clear(toDoor)
	return true
}

// disconnectTwins exactly reverses connectTwins.
func (s *Solver) disconnectTwins(pattern []twinEdge, fromDoor, toDoor roomgraph.Door) {
	for _, edge := range pattern {
		delete(s.connections, roomgraph.RoomAndDoor{Room: edge.from, Door: fromDoor})
		delete(s.connections, roomgraph.RoomAndDoor{Room: edge.to, Door: toDoor})
	}
	fromBase := pattern[0].from % s.numBaseRooms
	toBase := pattern[0].to % s.numBaseRooms
	// Only base-map doors were ever in remainingBaseDoors; a fallback door
	// picked by newDoorAtToRoom had no bit to clear, so none is restored.
	if to, ok := s.baseMap.Get(fromBase, fromDoor); ok && to == toBase {
		s.remainingBaseDoors[fromBase][toBase].set(fromDoor)
	}
	if to, ok := s.baseMap.Get(toBase, toDoor); ok && to == fromBase {
		s.remainingBaseDoors[toBase][fromBase].set(toDoor)
	}
}
