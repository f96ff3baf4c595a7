// Package signature derives pairwise inequality constraints between
// observation indices from repeated door-substrings in a doors-only plan,
// so the SA solver cannot collapse two observations that a deterministic
// graph proves must be distinct rooms.
package signature

import "github.com/mapsmith/roommapper/internal/roomgraph/trace"

// Pair is an unordered pair of observation indices, stored with Lo < Hi.
type Pair struct {
	Lo, Hi int
}

// Set is the deduplicated output of Find: the pair list plus an adjacency
// index for O(1) lookup by observation index, as SA's delta update needs.
type Set struct {
	Pairs   []Pair
	byIndex map[int][]int
}

// ByIndex returns the observation indices known to differ from obs, for
// O(1) lookup during SA's incremental cost update.
func (s *Set) ByIndex(obs int) []int {
	return s.byIndex[obs]
}

// Find derives inequality pairs from a doors-only plan and its observation
// vector (length len(plan)+1).
//
// A signature of length L at position p is the door substring
// plan[p:p+L] together with the starting observation result[p]. For any
// two positions p < q sharing the same signature and starting observation,
// if every subsequent observation matches except the L-th (the one
// immediately after the signature), rooms assigned to p and q must differ:
// a deterministic graph would otherwise have produced identical futures
// all the way through.
func Find(plan trace.DoorsOnlyPlan, result []int) *Set {
	seen := make(map[Pair]struct{})
	var pairs []Pair
	add := func(p, q int) {
		if p > q {
			p, q = q, p
		}
		pr := Pair{Lo: p, Hi: q}
		if _, ok := seen[pr]; ok {
			return
		}
		seen[pr] = struct{}{}
		pairs = append(pairs, pr)
	}

	n := len(plan)
	for sigLen := 1; sigLen < n; sigLen++ {
		for start := 0; start+sigLen <= n; start++ {
			for other := start + 1; other+sigLen <= n; other++ {
				if result[start] != result[other] {
					continue
				}
				if !sameSubstring(plan, start, other, sigLen) {
					continue
				}
				if diverges(result, start, other, sigLen) {
					add(start, other)
				}
			}
		}
	}

	s := &Set{Pairs: pairs, byIndex: make(map[int][]int, len(pairs)*2)}
	for _, p := range pairs {
		s.byIndex[p.Lo] = append(s.byIndex[p.Lo], p.Hi)
		s.byIndex[p.Hi] = append(s.byIndex[p.Hi], p.Lo)
	}
	return s
}

func sameSubstring(plan trace.DoorsOnlyPlan, a, b, length int) bool {
	for i := 0; i < length; i++ {
		if plan[a+i] != plan[b+i] {
			return false
		}
	}
	return true
}

// diverges reports whether, for k in [0,length), result[1+a+k] ==
// result[1+b+k] for every k < length-1, and result[1+a+k] != result[1+b+k]
// at k == length-1 (the final position in the signature window).
func diverges(result []int, a, b, length int) bool {
	for k := 0; k < length; k++ {
		match := result[1+a+k] == result[1+b+k]
		if k < length-1 {
			if !match {
				return false
			}
		} else {
			if match {
				return false
			}
		}
	}
	return true
}
