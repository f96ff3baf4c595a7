// Package trace parses the two plan strings the driver sends to the oracle
// (a doors-only plan and a labelled plan with interleaved "[k]" label
// writes) into index-aligned structures the rest of the solver pipeline
// consumes.
package trace

import (
	"fmt"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/errs"
)

// DoorsOnlyPlan is the finite ordered sequence of doors pressed by a
// doors-only plan. Element i names the door pressed at observation index i
// to reach observation i+1.
type DoorsOnlyPlan []roomgraph.Door

// ParseDoorsOnly parses a string of digit characters '0'..'5' into a
// DoorsOnlyPlan. Any other character is ErrMalformedPlan.
func ParseDoorsOnly(s string) (DoorsOnlyPlan, error) {
	plan := make(DoorsOnlyPlan, 0, len(s))
	for i, c := range s {
		if c < '0' || c > '5' {
			return nil, fmt.Errorf("trace: ParseDoorsOnly: byte %d (%q): %w", i, c, errs.ErrMalformedPlan)
		}
		plan = append(plan, roomgraph.Door(c-'0'))
	}
	return plan, nil
}

// LabelledPlan is the finite ordered sequence of steps (door presses and
// label overwrites) that, together with DoorsOnly, forms one index-aligned
// pair consumed by SA and DFS respectively.
type LabelledPlan struct {
	// Steps is the full step sequence, one PlanStep per observation.
	Steps []roomgraph.PlanStep
	// DoorsOnly is the projection of Steps onto just the Move steps, in
	// order — the doors-only plan SA operates over.
	DoorsOnly DoorsOnlyPlan
}

// Parse parses a labelled plan string. Tokens are "[k]" (write label
// k in {0..3}) and single digits "0".."5" (press that door). Any other
// character, an unterminated "[", a missing digit after "[", or a missing
// closing "]" is ErrMalformedPlan.
func Parse(s string) (LabelledPlan, error) {
	var lp LabelledPlan
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case c == '[':
			if i+2 >= len(runes) || runes[i+2] != ']' {
				return LabelledPlan{}, fmt.Errorf("trace: Parse: unterminated label write at %d: %w", i, errs.ErrMalformedPlan)
			}
			k := runes[i+1]
			if k < '0' || k > '3' {
				return LabelledPlan{}, fmt.Errorf("trace: Parse: bad label digit %q at %d: %w", k, i+1, errs.ErrMalformedPlan)
			}
			lp.Steps = append(lp.Steps, roomgraph.ChangeLabel(roomgraph.Label(k-'0')))
			i += 3
		case c >= '0' && c <= '5':
			d := roomgraph.Door(c - '0')
			lp.Steps = append(lp.Steps, roomgraph.Move(d))
			lp.DoorsOnly = append(lp.DoorsOnly, d)
			i++
		default:
			return LabelledPlan{}, fmt.Errorf("trace: Parse: unexpected byte %q at %d: %w", c, i, errs.ErrMalformedPlan)
		}
	}
	return lp, nil
}

// CheckObservations validates that an observation vector's length equals
// the number of steps plus one (the initial observation plus one per
// step).
func CheckObservations(numSteps int, observations []int) error {
	if len(observations) != numSteps+1 {
		return fmt.Errorf("trace: CheckObservations: got %d observations for %d steps: %w",
			len(observations), numSteps, errs.ErrObservationLengthMismatch)
	}
	return nil
}
