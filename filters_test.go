package fitacf3

import (
	"math"
	"testing"
)

func rangeNodeWithLags(n int) *RangeNode {
	rn := &RangeNode{RangeNum: 0}
	for i := 0; i < n; i++ {
		rn.Powers.LnPower = append(rn.Powers.LnPower, float64(i))
		rn.Powers.T = append(rn.Powers.T, float64(i))
		rn.Powers.StdDev = append(rn.Powers.StdDev, 1.0)
		rn.Phases.Phases = append(rn.Phases.Phases, float64(i))
		rn.Phases.T = append(rn.Phases.T, float64(i))
		rn.Phases.StdDev = append(rn.Phases.StdDev, 1.0)
		rn.PowerAlpha2 = append(rn.PowerAlpha2, 1.0)
		rn.PhaseAlpha2 = append(rn.PhaseAlpha2, 1.0)
	}
	return rn
}

func TestFilterInfiniteLagsDropsNonFiniteLagsOnly(t *testing.T) {
	rn := rangeNodeWithLags(4)
	rn.Powers.LnPower[2] = math.Inf(1)
	ranges := []*RangeNode{rn}

	filterInfiniteLags(ranges)

	if rn.Powers.len() != 3 {
		t.Fatalf("expected 3 surviving lags, got %d", rn.Powers.len())
	}
	for _, p := range rn.Powers.LnPower {
		if !isFinite(p) {
			t.Fatalf("non-finite power survived filtering: %v", rn.Powers.LnPower)
		}
	}
	if rn.Phases.len() != rn.Powers.len() {
		t.Fatalf("parallel arrays diverged: phases=%d powers=%d", rn.Phases.len(), rn.Powers.len())
	}
}

func TestRemoveLockstepSkipsElevWhenAbsent(t *testing.T) {
	rn := rangeNodeWithLags(3)
	// Elev left empty: no XCF data for this range.
	removeLockstep(rn, []int{1})

	if rn.Powers.len() != 2 || rn.Phases.len() != 2 {
		t.Fatalf("expected 2 surviving lags, got powers=%d phases=%d", rn.Powers.len(), rn.Phases.len())
	}
	if rn.Elev.len() != 0 {
		t.Fatalf("expected Elev to remain empty, got len %d", rn.Elev.len())
	}
}

func TestFilterBadFitsDropsExactZeroSlope(t *testing.T) {
	good := rangeNodeWithLags(4)
	good.PhaseFit = &FittedData{Slope: 1.0}
	good.LinPwrFit = &FittedData{Slope: -1.0}
	good.QuadPwrFit = &FittedData{Slope: -0.5}

	flat := rangeNodeWithLags(4)
	flat.PhaseFit = &FittedData{Slope: 0.0}
	flat.LinPwrFit = &FittedData{Slope: -1.0}
	flat.QuadPwrFit = &FittedData{Slope: -0.5}

	unfitted := rangeNodeWithLags(4) // PhaseFit etc. left nil

	survivors := filterBadFits([]*RangeNode{good, flat, unfitted})
	if len(survivors) != 1 || survivors[0] != good {
		t.Fatalf("expected only the well-fit range to survive, got %d survivors", len(survivors))
	}
}

func TestFilterBadACFsDropsBelowNoiseFloorAndFlatRanges(t *testing.T) {
	rec := validRecord()
	rec.Pwr0 = []float32{100, 1, 100}

	belowNoise := rangeNodeWithLags(minLags)
	belowNoise.RangeNum = 1

	flatPower := rangeNodeWithLags(minLags)
	flatPower.RangeNum = 0
	for i := range flatPower.Powers.LnPower {
		flatPower.Powers.LnPower[i] = 5.0
	}

	healthy := rangeNodeWithLags(minLags)
	healthy.RangeNum = 2

	survivors := filterBadACFs(rec, []*RangeNode{belowNoise, flatPower, healthy}, 1.0)
	if len(survivors) != 1 || survivors[0] != healthy {
		t.Fatalf("expected only the healthy range to survive, got %d survivors", len(survivors))
	}
}
