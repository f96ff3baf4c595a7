package basemap

import (
	"math/rand"
	"testing"

	"github.com/mapsmith/roommapper/internal/roomgraph"
)

func ringMap(n int) Map {
	m := New(n)
	for r := 0; r < n; r++ {
		m.Set(r, 0, (r+1)%n)
		m.Set(r, 1, (r-1+n)%n)
	}
	return m
}

func TestCompleteFillsSelfLoops(t *testing.T) {
	m := ringMap(3)
	rng := rand.New(rand.NewSource(1))
	full, err := m.Complete(rng)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	for r := 0; r < 3; r++ {
		for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
			if _, ok := full.Get(r, d); !ok {
				t.Fatalf("Complete left (%d,%d) unset", r, d)
			}
		}
	}
	// Doors 2..5 had no SA-recovered edges; Complete must self-loop them.
	for d := roomgraph.Door(2); d < roomgraph.NumDoors; d++ {
		to, _ := full.Get(0, d)
		if to != 0 {
			t.Errorf("expected self-loop at (0,%d), got -> %d", d, to)
		}
	}
}

func TestCompleteBalancesReciprocity(t *testing.T) {
	// One-directional star: room 0 -> rooms 1,2 via doors 0,1. No return
	// edges recorded yet; Complete must add them.
	m := New(3)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	rng := rand.New(rand.NewSource(1))
	full, err := m.Complete(rng)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	foundReturn1, foundReturn2 := false, false
	for d := roomgraph.Door(0); d < roomgraph.NumDoors; d++ {
		if to, ok := full.Get(1, d); ok && to == 0 {
			foundReturn1 = true
		}
		if to, ok := full.Get(2, d); ok && to == 0 {
			foundReturn2 = true
		}
	}
	if !foundReturn1 || !foundReturn2 {
		t.Fatalf("Complete did not balance reciprocity: room1 back=%v room2 back=%v", foundReturn1, foundReturn2)
	}
}

func TestPairDoorsIsInvolution(t *testing.T) {
	m := ringMap(3)
	rng := rand.New(rand.NewSource(2))
	full, err := m.Complete(rng)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	pairing, err := full.PairDoors(rng)
	if err != nil {
		t.Fatalf("PairDoors: %v", err)
	}
	for rd, target := range pairing {
		back, ok := pairing[target]
		if !ok || back != rd {
			t.Fatalf("PairDoors not an involution at %v -> %v -> %v", rd, target, back)
		}
	}
}
