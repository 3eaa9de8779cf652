package fitacf3

import (
	"math"
	"testing"
)

func TestPhaseCorrectionShiftsByWholeCyclesOnly(t *testing.T) {
	t1 := []float64{0, 1, 2}
	phases := []float64{0, 1 + 2*pi, 2 - 2*pi} // lag 1 wrapped up a cycle, lag 2 wrapped down
	corrected, jumps := phaseCorrection(1.0, phases, t1)

	if jumps != 1 {
		t.Fatalf("expected exactly one 2*pi jump to be the largest correction, got %d", jumps)
	}
	for i, c := range corrected {
		if math.Abs(c-float64(i)) > 1e-6 {
			t.Fatalf("index %d: expected corrected phase near %d, got %v", i, i, c)
		}
	}
}

func TestPhaseCorrectionReturnsZeroJumpsWhenAlreadyUnwrapped(t *testing.T) {
	t1 := []float64{0, 1, 2, 3}
	phases := []float64{0, 1, 2, 3}
	_, jumps := phaseCorrection(1.0, phases, t1)
	if jumps != 0 {
		t.Fatalf("expected no jumps for already-linear phases, got %d", jumps)
	}
}

func TestUnwrapACFPhaseAcceptsCorrectionThatReducesResidual(t *testing.T) {
	rn := &RangeNode{
		Phases: PhaseNode{
			Phases: []float64{0, 1 + 2*pi, 2, 3},
			T:      []float64{0, 1, 2, 3},
			StdDev: []float64{1, 1, 1, 1},
		},
	}
	unwrapACFPhase([]*RangeNode{rn})

	// The corrected sequence should be closer to a straight line (slope 1)
	// than the original wrapped one.
	for i, p := range rn.Phases.Phases {
		if math.Abs(p-float64(i)) > 1e-6 {
			t.Fatalf("expected unwrap to pull phase %d back near %d, got %v", i, i, p)
		}
	}
}

func TestUnwrapACFPhaseLeavesShortSequencesUntouched(t *testing.T) {
	rn := &RangeNode{
		Phases: PhaseNode{
			Phases: []float64{0.5},
			T:      []float64{1},
			StdDev: []float64{1},
		},
	}
	original := append([]float64(nil), rn.Phases.Phases...)
	unwrapACFPhase([]*RangeNode{rn})
	if len(rn.Phases.Phases) != 1 || rn.Phases.Phases[0] != original[0] {
		t.Fatalf("expected a single-lag range to be left untouched, got %v", rn.Phases.Phases)
	}
}

func TestDerivePhaseAndElevSigmasSkipsElevWhenLengthsDiffer(t *testing.T) {
	rn := &RangeNode{
		Phases: PhaseNode{
			Phases: []float64{0, 0.1},
			T:      []float64{0, 1},
			StdDev: []float64{0, 0},
		},
		PhaseAlpha2: []float64{1, 1},
		LinPwrFit:   &FittedData{Slope: -0.1},
		// Elev left empty: no XCF data for this range.
	}
	if err := derivePhaseAndElevSigmas([]*RangeNode{rn}, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rn.Elev.len() != 0 {
		t.Fatalf("expected Elev to remain untouched when its length differs from Phases, got len %d", rn.Elev.len())
	}
	if len(rn.Phases.StdDev) != 2 {
		t.Fatalf("expected phase sigmas to be populated, got %v", rn.Phases.StdDev)
	}
}
