package trace

import (
	"errors"
	"testing"

	"github.com/mapsmith/roommapper/internal/roomgraph"
	"github.com/mapsmith/roommapper/internal/roomgraph/errs"
)

func TestParseDoorsOnly(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    DoorsOnlyPlan
		wantErr bool
	}{
		{name: "empty", in: "", want: DoorsOnlyPlan{}},
		{name: "ring", in: "012", want: DoorsOnlyPlan{0, 1, 2}},
		{name: "bad digit", in: "06", wantErr: true},
		{name: "non digit", in: "0a1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDoorsOnly(tt.in)
			if tt.wantErr {
				if err == nil || !errors.Is(err, errs.ErrMalformedPlan) {
					t.Fatalf("ParseDoorsOnly(%q) error = %v, want ErrMalformedPlan", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDoorsOnly(%q) unexpected error: %v", tt.in, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseDoorsOnly(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ParseDoorsOnly(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseLabelledPlan(t *testing.T) {
	lp, err := Parse("[2]0[3]0[1]")
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	want := []roomgraph.PlanStep{
		roomgraph.ChangeLabel(2),
		roomgraph.Move(0),
		roomgraph.ChangeLabel(3),
		roomgraph.Move(0),
		roomgraph.ChangeLabel(1),
	}
	if len(lp.Steps) != len(want) {
		t.Fatalf("Parse: got %d steps, want %d", len(lp.Steps), len(want))
	}
	for i := range want {
		if lp.Steps[i] != want[i] {
			t.Fatalf("Parse: step %d = %+v, want %+v", i, lp.Steps[i], want[i])
		}
	}
	wantDoors := DoorsOnlyPlan{0, 0}
	if len(lp.DoorsOnly) != len(wantDoors) {
		t.Fatalf("Parse: doors-only projection = %v, want %v", lp.DoorsOnly, wantDoors)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []string{"[2", "[a]0", "0x1", "[4]0"}
	for _, in := range tests {
		if _, err := Parse(in); !errors.Is(err, errs.ErrMalformedPlan) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedPlan", in, err)
		}
	}
}

func TestCheckObservations(t *testing.T) {
	if err := CheckObservations(3, []int{0, 1, 2, 3}); err != nil {
		t.Errorf("CheckObservations: unexpected error: %v", err)
	}
	if err := CheckObservations(3, []int{0, 1, 2}); !errors.Is(err, errs.ErrObservationLengthMismatch) {
		t.Errorf("CheckObservations: error = %v, want ErrObservationLengthMismatch", err)
	}
}
