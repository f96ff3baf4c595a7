// Package errs collects the sentinel errors shared by the room-graph
// reconstruction pipeline (trace parsing through submission).
//
// Callers branch on kind with errors.Is; sentinels are never wrapped with
// formatted strings at the definition site, only at the call site via %w.
package errs

import "errors"

var (
	// ErrMalformedPlan is returned when a labelled plan string contains a
	// character other than a door digit or a well-formed "[k]" label write,
	// or a truncated bracket.
	ErrMalformedPlan = errors.New("roomgraph: malformed plan")

	// ErrObservationLengthMismatch is returned when an observation vector's
	// length does not equal the number of step-tokens plus one.
	ErrObservationLengthMismatch = errors.New("roomgraph: observation length mismatch")

	// ErrSANotConverged is returned when no SA worker reached cost 0 within
	// the iteration budget.
	ErrSANotConverged = errors.New("roomgraph: simulated annealing did not converge")

	// ErrBaseMapInconsistent names the case where SA reports cost 0 but the
	// resulting assignment fails structural validation (duplicate
	// destinations for some (room,door), or a label mismatch). No function
	// in this module returns it: anneal.Solver.Run kicks and keeps searching.
	ErrBaseMapInconsistent = errors.New("roomgraph: base map assignment is structurally inconsistent")

	// ErrDFSNoSolution names the case where the DFS layer solver exhausts
	// every branch without completing the labelled plan. No function in
	// this module returns it: dfs.Solver.Solve reports the case as false,
	// and anneal.Solver.Run kicks and keeps searching.
	ErrDFSNoSolution = errors.New("roomgraph: dfs layer solver found no solution")

	// ErrGuessIncorrect is returned by the driver when the oracle rejects a
	// submitted map.
	ErrGuessIncorrect = errors.New("roomgraph: oracle rejected the submitted map")

	// ErrReciprocityInfeasible is returned when BaseMap completion cannot
	// find a door to balance a directed imbalance between two rooms.
	ErrReciprocityInfeasible = errors.New("roomgraph: no door available to balance reciprocity")
)
