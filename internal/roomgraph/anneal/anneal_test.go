package anneal

import (
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mapsmith/roommapper/internal/roomgraph/basemap"
	"github.com/mapsmith/roommapper/internal/roomgraph/fullmap"
	"github.com/mapsmith/roommapper/internal/roomgraph/trace"
)

func ringPlanAndObservations() (trace.DoorsOnlyPlan, []int) {
	plan, _ := trace.ParseDoorsOnly("012012012012")
	observations := []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0}
	return plan, observations
}

// acceptAnyBaseMap is a stand-in DFS verify callback for tests that only
// care about SA converging to cost 0 with a structurally valid assignment.
func acceptAnyBaseMap(bm basemap.Map) (fullmap.FullMap, bool) {
	return fullmap.FullMap{NumRooms: bm.NumRooms, BaseRooms: bm.NumRooms, Start: bm.Start}, true
}

func TestRunConvergesOnThreeRoomRing(t *testing.T) {
	plan, observations := ringPlanAndObservations()
	rng := rand.New(rand.NewSource(7))
	s := New(plan, observations, 3, rng)

	resolved, ok := s.Run(rng, nil, acceptAnyBaseMap)
	if !ok {
		t.Fatalf("Run did not converge on the 3-room ring")
	}
	if resolved.NumRooms != 3 {
		t.Fatalf("resolved.NumRooms = %d, want 3", resolved.NumRooms)
	}
	if s.Cost() != 0 {
		t.Fatalf("final cost = %d, want 0", s.Cost())
	}
	want := []int{0, 1, 2, 0, 1, 2, 0, 1, 2, 0, 1, 2, 0}
	got := s.Assignment()
	if len(got) != len(want) {
		t.Fatalf("assignment length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assignment = %v, want %v", got, want)
		}
	}
}

func TestRunStopsEarlyWhenSignalled(t *testing.T) {
	plan, observations := ringPlanAndObservations()
	rng := rand.New(rand.NewSource(1))
	s := New(plan, observations, 3, rng)

	var stop atomic.Bool
	stop.Store(true)

	_, ok := s.Run(rng, &stop, acceptAnyBaseMap)
	if ok {
		t.Fatalf("Run reported success despite a pre-set stop signal")
	}
}

func TestRunRejectsSpuriousCostZeroAndKeepsSearching(t *testing.T) {
	// A verify callback that rejects the first hit but accepts afterward
	// exercises the Kick-and-continue branch of Run without running the
	// full 1e7-iteration budget to exhaustion.
	rejectedOnce := false
	verify := func(bm basemap.Map) (fullmap.FullMap, bool) {
		if !rejectedOnce {
			rejectedOnce = true
			return fullmap.FullMap{}, false
		}
		return fullmap.FullMap{NumRooms: bm.NumRooms, BaseRooms: bm.NumRooms, Start: bm.Start}, true
	}

	plan, observations := ringPlanAndObservations()
	rng := rand.New(rand.NewSource(3))
	s := New(plan, observations, 3, rng)

	_, ok := s.Run(rng, nil, verify)
	if !ok {
		t.Fatalf("Run did not recover after a rejected cost-0 assignment")
	}
	if !rejectedOnce {
		t.Fatalf("test setup invariant broken: verify was never called")
	}
}

func TestUpdatePointIsExactlyReversible(t *testing.T) {
	plan, observations := ringPlanAndObservations()
	rng := rand.New(rand.NewSource(42))
	s := New(plan, observations, 3, rng)

	for trial := 0; trial < 500; trial++ {
		obsIdx := 1 + rng.Intn(len(s.assignment)-1)
		oldRoom := s.assignment[obsIdx]
		newRoom := s.pickLabelCandidate(rng, s.observedLabels[obsIdx])
		if newRoom == oldRoom {
			continue
		}

		costBefore := s.cost
		graphBefore := s.graph
		filledBefore := s.filledInFuture
		kasikariBefore := s.kasikari

		s.updatePoint(obsIdx, newRoom)
		s.updatePoint(obsIdx, oldRoom)

		require.Equalf(t, costBefore, s.cost, "trial %d: cost not reversible", trial)
		require.Equalf(t, graphBefore, s.graph, "trial %d: graph tensor not reversible", trial)
		require.Equalf(t, filledBefore, s.filledInFuture, "trial %d: filledInFuture not reversible", trial)
		require.Equalf(t, kasikariBefore, s.kasikari, "trial %d: kasikari not reversible", trial)
	}
}

func TestRecalculateCostMatchesIncrementalUpdates(t *testing.T) {
	plan, observations := ringPlanAndObservations()
	rng := rand.New(rand.NewSource(9))
	s := New(plan, observations, 3, rng)

	for trial := 0; trial < 200; trial++ {
		obsIdx := 1 + rng.Intn(len(s.assignment)-1)
		newRoom := s.pickLabelCandidate(rng, s.observedLabels[obsIdx])
		s.updatePoint(obsIdx, newRoom)

		incremental := s.cost
		s.recalculateCost()
		if s.cost != incremental {
			t.Fatalf("trial %d: incremental cost %d diverged from recalculated cost %d", trial, incremental, s.cost)
		}
	}
}
