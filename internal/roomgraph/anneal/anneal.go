// Package anneal implements the simulated-annealing base-structure solver:
// it assigns each observation index in a doors-only trace to a room id in
// [0,R), minimising a structural cost whose zero indicates a feasible
// deterministic transition function with label-consistent assignments and
// reciprocity-feasible door budgets.
package anneal

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/basemap"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
	"github.com/mapsmith/roommapper/internal/roomgraph/signature"
	"github.com/mapsmith/roommapper/internal/roomgraph/trace"
)

// Annealing schedule constants (spec.md §4.3).
const (
	InitialTemperature = 100.0
	CoolingRate        = 0.99999
	TemperatureFloor   = 0.01
	MaxIterations      = 10_000_000
	KickCheckInterval  = 100_000
	InvalidKickProb    = 0.6
	PeriodicKickProb   = 0.05
)

// Verify hands a candidate base map to the DFS layer solver. It returns the
// resolved full map and true on success, or a zero value and false if the
// base map cannot be lifted to a consistent layered solution — in which
// case Run discards the cost-0 assignment as spurious and kicks onward.
type Verify func(basemap.Map) (fullmap.FullMap, bool)

// Fixed compile-time upper bounds for the cost tensors. The problem space
// fixes these well below what any attempt needs (MaxRooms comfortably
// covers R·L for L<=3 and any R the oracle will pose), so sizing the
// tensors once avoids reallocation on every kick or restart.
const (
	MaxRooms = 30
	MaxDoors = int(roomgraph.NumDoors)
)

// Cost term weights (spec.md §4.3). DupWeight is 0 in the shipping
// configuration; it is kept as a named constant that recalculateCost
// already sums, but updatePoint's incremental delta does not track the
// duplicate-destination term, so with a non-zero DupWeight the incremental
// cost would drift from a full recalculation.
const (
	HenpouWeight = 1
	IneqWeight   = 1
	DupWeight    = 0
)

type transitionEdge struct {
	fromIdx int
	door    roomgraph.Door
}

// Solver holds one independent SA attempt's state: the problem definition
// (observed labels, doors-only transitions, room count) plus the mutable
// search state (current assignment, cost, and the auxiliary tensors used
// to compute cost deltas in O(1) per proposed move).
type Solver struct {
	observedLabels []int
	transitions    []transitionEdge
	numRooms       int

	assignment []int
	cost       int

	// graph[room][door][room] = count of observed transitions.
	graph [MaxRooms][MaxDoors][MaxRooms]int
	// filledInFuture[room] = doors room must eventually use, including
	// unresolved reciprocity debt.
	filledInFuture [MaxRooms]int
	// kasikari[a][b] = directed edge count a->b minus b->a.
	kasikari [MaxRooms][MaxRooms]int

	ineqs *signature.Set

	labelCandidates [roomgraph.NumLabels][]int
}

// New builds a Solver over a doors-only plan and its observation vector
// (length len(plan)+1) against numRooms candidate rooms. The initial
// assignment pins assignment[0]=0 and samples every other index uniformly
// from the rooms whose label matches the observation.
func New(plan trace.DoorsOnlyPlan, observedLabels []int, numRooms int, rng *rand.Rand) *Solver {
	s := &Solver{
		observedLabels: observedLabels,
		numRooms:       numRooms,
	}
	s.transitions = make([]transitionEdge, len(plan))
	for i, d := range plan {
		s.transitions[i] = transitionEdge{fromIdx: i, door: d}
	}
	s.ineqs = signature.Find(plan, observedLabels)

	for room := 0; room < numRooms; room++ {
		l := roomgraph.LabelOf(room)
		s.labelCandidates[l] = append(s.labelCandidates[l], room)
	}

	s.assignment = make([]int, len(observedLabels))
	s.Reseed(rng)
	return s
}

// Reseed draws a fresh random assignment respecting label constraints
// (assignment[0]=0, assignment[i] uniform among rooms whose label matches
// observedLabels[i] for i>0) and recomputes cost from scratch.
func (s *Solver) Reseed(rng *rand.Rand) {
	s.assignment[0] = 0
	for i := 1; i < len(s.assignment); i++ {
		s.assignment[i] = s.pickLabelCandidate(rng, s.observedLabels[i])
	}
	s.recalculateCost()
}

func (s *Solver) pickLabelCandidate(rng *rand.Rand, label int) int {
	cands := s.labelCandidates[label]
	return cands[rng.Intn(len(cands))]
}

// Cost returns the current total cost. Zero means the assignment is
// deterministic, reciprocity-feasible, and respects every known
// inequality.
func (s *Solver) Cost() int { return s.cost }

// Assignment returns the current obs_idx -> room_id vector. Callers must
// not mutate the returned slice.
func (s *Solver) Assignment() []int { return s.assignment }

// NumRooms returns the room count this solver was constructed with.
func (s *Solver) NumRooms() int { return s.numRooms }

// recalculateCost recomputes cost, graph, filledInFuture, and kasikari from
// scratch against the current assignment. Used at construction, after a
// Reseed/Kick, and to cross-check the incrementally maintained cost.
func (s *Solver) recalculateCost() {
	for i := 0; i < MaxRooms; i++ {
		for j := 0; j < MaxDoors; j++ {
			for k := 0; k < MaxRooms; k++ {
				s.graph[i][j][k] = 0
			}
		}
		s.filledInFuture[i] = 0
		for k := 0; k < MaxRooms; k++ {
			s.kasikari[i][k] = 0
		}
	}

	total := 0
	for _, tr := range s.transitions {
		fromRoom := s.assignment[tr.fromIdx]
		toRoom := s.assignment[tr.fromIdx+1]
		s.graph[fromRoom][tr.door][toRoom]++
	}

	for fromRoom := 0; fromRoom < s.numRooms; fromRoom++ {
		for door := 0; door < MaxDoors; door++ {
			sum, max := 0, 0
			for _, c := range s.graph[fromRoom][door] {
				sum += c
				if c > max {
					max = c
				}
			}
			total += (sum - max) * DupWeight
		}
	}

	for fromRoom := 0; fromRoom < s.numRooms; fromRoom++ {
		for door := 0; door < MaxDoors; door++ {
			for toRoom := 0; toRoom < s.numRooms; toRoom++ {
				if s.graph[fromRoom][door][toRoom] > 0 {
					s.filledInFuture[fromRoom]++
					s.kasikari[fromRoom][toRoom]++
					s.kasikari[toRoom][fromRoom]--
				}
			}
		}
	}

	for fromRoom := 0; fromRoom < s.numRooms; fromRoom++ {
		for toRoom := 0; toRoom < s.numRooms; toRoom++ {
			s.filledInFuture[fromRoom] -= min0(s.kasikari[fromRoom][toRoom])
		}
		if s.filledInFuture[fromRoom] > 6 {
			total += (s.filledInFuture[fromRoom] - 6) * HenpouWeight
		}
	}

	for _, p := range s.ineqs.Pairs {
		if s.assignment[p.Lo] == s.assignment[p.Hi] {
			total += IneqWeight
		}
	}
	s.cost = total
}

func min0(x int) int {
	if x < 0 {
		return x
	}
	return 0
}

func (s *Solver) calculatePenalty(room int) int {
	if s.filledInFuture[room] > 6 {
		return (s.filledInFuture[room] - 6) * HenpouWeight
	}
	return 0
}

// updatePoint reassigns observation obsIdx to newRoom, updating cost,
// graph, filledInFuture, and kasikari incrementally. Calling updatePoint
// again with the original room exactly reverses the move: cost and every
// auxiliary table return byte-equal to their pre-move values (spec.md §8).
func (s *Solver) updatePoint(obsIdx, newRoom int) {
	oldRoom := s.assignment[obsIdx]
	if oldRoom == newRoom {
		return
	}

	var fromRoom, toRoom int
	haveFrom, haveTo := false, false
	if obsIdx > 0 {
		fromRoom, haveFrom = s.assignment[obsIdx-1], true
	}
	if obsIdx < len(s.assignment)-1 {
		toRoom, haveTo = s.assignment[obsIdx+1], true
	}

	affected := map[int]struct{}{oldRoom: {}, newRoom: {}}
	if haveFrom {
		affected[fromRoom] = struct{}{}
	}
	if haveTo {
		affected[toRoom] = struct{}{}
	}
	for room := range affected {
		s.cost -= s.calculatePenalty(room)
	}

	if haveFrom {
		door := s.transitions[obsIdx-1].door
		s.removeEdge(fromRoom, door, oldRoom)
		s.addEdge(fromRoom, door, newRoom)
	}
	if haveTo {
		door := s.transitions[obsIdx].door
		s.removeEdge(oldRoom, door, toRoom)
		s.addEdge(newRoom, door, toRoom)
	}

	for _, neighbor := range s.ineqs.ByIndex(obsIdx) {
		if s.assignment[neighbor] == oldRoom {
			s.cost -= IneqWeight
		}
		if s.assignment[neighbor] == newRoom {
			s.cost += IneqWeight
		}
	}
	s.assignment[obsIdx] = newRoom

	for room := range affected {
		s.cost += s.calculatePenalty(room)
	}
}

func (s *Solver) removeEdge(from int, door roomgraph.Door, to int) {
	s.graph[from][door][to]--
	if s.graph[from][door][to] != 0 {
		return
	}
	s.filledInFuture[from]--
	oldFromTo := s.kasikari[from][to]
	oldToFrom := s.kasikari[to][from]
	s.kasikari[from][to]--
	s.kasikari[to][from]++
	s.filledInFuture[from] -= min0(s.kasikari[from][to]) - min0(oldFromTo)
	s.filledInFuture[to] -= min0(s.kasikari[to][from]) - min0(oldToFrom)
}

func (s *Solver) addEdge(from int, door roomgraph.Door, to int) {
	s.graph[from][door][to]++
	if s.graph[from][door][to] != 1 {
		return
	}
	s.filledInFuture[from]++
	oldFromTo := s.kasikari[from][to]
	oldToFrom := s.kasikari[to][from]
	s.kasikari[from][to]++
	s.kasikari[to][from]--
	s.filledInFuture[from] -= min0(s.kasikari[from][to]) - min0(oldFromTo)
	s.filledInFuture[to] -= min0(s.kasikari[to][from]) - min0(oldToFrom)
}

// Kick re-randomises each assignment[i], i>0, independently with
// probability prob, then recomputes cost from scratch.
func (s *Solver) Kick(rng *rand.Rand, prob float64) {
	for i := 1; i < len(s.assignment); i++ {
		if rng.Float64() < prob {
			s.assignment[i] = s.pickLabelCandidate(rng, s.observedLabels[i])
		}
	}
	s.recalculateCost()
}

// Step proposes one neighbourhood move (reassign a random obs_idx>0 to
// another room with the correct label) and accepts or rejects it against
// temperature; Cost reports the result. Rejected moves are reverted
// by calling updatePoint a second time with the original room, which is
// asserted (in tests) to restore cost exactly.
func (s *Solver) Step(rng *rand.Rand, temperature float64) {
	if len(s.assignment) <= 1 {
		return
	}
	obsIdx := 1 + rng.Intn(len(s.assignment)-1)
	oldRoom := s.assignment[obsIdx]
	newRoom := s.pickLabelCandidate(rng, s.observedLabels[obsIdx])
	if newRoom == oldRoom {
		return
	}

	originalCost := s.cost
	s.updatePoint(obsIdx, newRoom)
	delta := s.cost - originalCost

	accept := delta < 0
	if !accept && temperature > 0 {
		accept = rng.Float64() < math.Exp(-float64(delta)/temperature)
	}
	if !accept {
		s.updatePoint(obsIdx, oldRoom)
	}
}

// Run drives the full annealing schedule starting from the solver's current
// assignment: it proposes moves, cools the temperature, periodically kicks
// a fraction of the assignment to escape local minima, and — whenever the
// cost reaches zero — hands the base map to verify. A verify failure
// (structurally invalid assignment, or the DFS layer solver rejecting the
// base map) is treated as a spurious cost-0 point and kicked away from
// rather than returned. stop, if non-nil, is polled every
// KickCheckInterval iterations so a sibling worker's success can end this
// attempt early.
func (s *Solver) Run(rng *rand.Rand, stop *atomic.Bool, verify Verify) (fullmap.FullMap, bool) {
	temperature := InitialTemperature

	for i := 0; i < MaxIterations; i++ {
		if i%KickCheckInterval == 0 && stop != nil && stop.Load() {
			return fullmap.FullMap{}, false
		}
		if temperature < TemperatureFloor {
			temperature = TemperatureFloor
		}

		if s.cost == 0 {
			s.recalculateCost()
			valid := s.IsValidAssignment()
			var resolved fullmap.FullMap
			ok := false
			if valid {
				resolved, ok = verify(s.BuildBaseMap())
			}
			if ok {
				return resolved, true
			}
			s.Kick(rng, InvalidKickProb)
			continue
		}

		originalCost := s.cost
		if i%KickCheckInterval == 0 && i > 0 {
			s.Kick(rng, PeriodicKickProb)
		} else {
			obsIdx := 1 + rng.Intn(len(s.assignment)-1)
			oldRoom := s.assignment[obsIdx]
			newRoom := s.pickLabelCandidate(rng, s.observedLabels[obsIdx])
			if newRoom == oldRoom {
				temperature *= CoolingRate
				continue
			}

			s.updatePoint(obsIdx, newRoom)
			delta := s.cost - originalCost
			accept := delta < 0
			if !accept && temperature > 0 {
				accept = rng.Float64() < math.Exp(-float64(delta)/temperature)
			}
			if !accept {
				s.updatePoint(obsIdx, oldRoom)
			}
		}

		temperature *= CoolingRate
	}
	return fullmap.FullMap{}, false
}

// IsValidAssignment checks the structural invariants spec.md §8 requires
// at cost 0: assignment[0]==0, every observation's room matches its
// observed label, the plan's room-to-room walk is internally consistent,
// and no (room,door) has more than one distinct observed destination.
func (s *Solver) IsValidAssignment() bool {
	if s.assignment[0] != 0 {
		return false
	}
	for room := 0; room < s.numRooms; room++ {
		for door := 0; door < MaxDoors; door++ {
			distinct := 0
			for _, c := range s.graph[room][door] {
				if c > 0 {
					distinct++
				}
			}
			if distinct > 1 {
				return false
			}
		}
	}
	cur := 0
	for _, tr := range s.transitions {
		toIdx := tr.fromIdx + 1
		fromRoom := s.assignment[tr.fromIdx]
		toRoom := s.assignment[toIdx]
		if fromRoom != cur {
			return false
		}
		if int(roomgraph.LabelOf(fromRoom)) != s.observedLabels[tr.fromIdx] {
			return false
		}
		if int(roomgraph.LabelOf(toRoom)) != s.observedLabels[toIdx] {
			return false
		}
		cur = toRoom
	}
	return true
}

// BuildBaseMap materializes the (room,door) -> room partial function the
// current assignment induces.
func (s *Solver) BuildBaseMap() basemap.Map {
	bm := basemap.New(s.numRooms)
	for _, tr := range s.transitions {
		fromRoom := s.assignment[tr.fromIdx]
		toRoom := s.assignment[tr.fromIdx+1]
		bm.Set(fromRoom, tr.door, toRoom)
	}
	return bm
}
