package signature

import (
	"testing"

	"github.com/mapsmith/roommapper/internal/roomgraph/trace"
)

func TestFindDistinguishesRepeatedSignature(t *testing.T) {
	plan, err := trace.ParseDoorsOnly("0110")
	if err != nil {
		t.Fatalf("ParseDoorsOnly: %v", err)
	}
	// Positions 0 and 3 both observe label 0 and press door 0, but the next
	// observations differ (1 vs 0), so their rooms must differ.
	result := []int{0, 1, 2, 0, 0}

	set := Find(plan, result)

	found := false
	for _, p := range set.Pairs {
		if p == (Pair{Lo: 0, Hi: 3}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("Find(%v, %v) = %v, want pair (0,3) present", plan, result, set.Pairs)
	}
}

func TestFindEmptyOnNoRepeats(t *testing.T) {
	plan, _ := trace.ParseDoorsOnly("012")
	result := []int{0, 1, 2, 3}
	set := Find(plan, result)
	if len(set.Pairs) != 0 {
		t.Fatalf("Find with no repeated signatures = %v, want empty", set.Pairs)
	}
}

func TestByIndexIsSymmetric(t *testing.T) {
	plan, _ := trace.ParseDoorsOnly("0110")
	result := []int{0, 1, 2, 1, 0}
	set := Find(plan, result)
	for _, p := range set.Pairs {
		hiNeighbors := set.ByIndex(p.Lo)
		loNeighbors := set.ByIndex(p.Hi)
		if !contains(hiNeighbors, p.Hi) {
			t.Errorf("ByIndex(%d) = %v, want to contain %d", p.Lo, hiNeighbors, p.Hi)
		}
		if !contains(loNeighbors, p.Lo) {
			t.Errorf("ByIndex(%d) = %v, want to contain %d", p.Hi, loNeighbors, p.Lo)
		}
	}
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
