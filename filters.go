package fitacf3

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// markBadSamples returns the sample indices (in the record's sample-index
// space) that fall within any transmitted pulse's blanking window
// (spec.md 4.4.1): [pulse - txpl/2, pulse + 3*txpl/2 + 100], expressed in
// sample units via smsep stepping from lagfr.
func markBadSamples(rec *RawRecord) []int32 {
	ptab := rec.Ptab1()
	pulsesUs := make([]int32, 0, len(ptab)*2)
	for _, p := range ptab {
		pulsesUs = append(pulsesUs, int32(p)*int32(rec.Mpinc))
	}

	if rec.Offset != 0 {
		switch rec.Channel {
		case 1:
			for _, p := range pulsesUs[:len(ptab)] {
				pulsesUs = append(pulsesUs, p-int32(rec.Offset))
			}
		case 2:
			for _, p := range pulsesUs[:len(ptab)] {
				pulsesUs = append(pulsesUs, p+int32(rec.Offset))
			}
		}
	}
	sort.Slice(pulsesUs, func(i, j int) bool { return pulsesUs[i] < pulsesUs[j] })

	var badSamples []int32
	ts := int32(rec.Lagfr)
	sample := int32(0)
	for _, pulseUs := range pulsesUs {
		t1 := pulseUs - int32(rec.Txpl)/2
		t2 := pulseUs + 3*int32(rec.Txpl)/2 + 100

		for ts < t1 {
			sample++
			ts += int32(rec.Smsep)
		}
		for ts >= t1 && ts <= t2 {
			badSamples = append(badSamples, sample)
			sample++
			ts += int32(rec.Smsep)
		}
	}
	return badSamples
}

// filterTxOverlappedLags drops every lag of every range node whose sample
// falls within a transmitted pulse window (spec.md 4.4.1).
func filterTxOverlappedLags(rec *RawRecord, lags []LagNode, ranges []*RangeNode) {
	badSamples := markBadSamples(rec)
	isBad := func(s int32) bool {
		return lo.Contains(badSamples, s)
	}

	for _, rn := range ranges {
		var badIdx []int
		for i, lag := range lags {
			s1 := lag.SampleBase1 + int32(rn.RangeNum)
			s2 := lag.SampleBase2 + int32(rn.RangeNum)
			if isBad(s1) || isBad(s2) {
				badIdx = append(badIdx, i)
			}
		}
		removeLockstep(rn, badIdx)
	}
}

// removeLockstep removes the given ascending lag indices from every
// parallel array a range node carries (powers, phases, elev, alpha^2),
// keeping them in lock-step per spec.md's invariants.
func removeLockstep(rn *RangeNode, idx []int) {
	if len(idx) == 0 {
		return
	}
	for i := len(idx) - 1; i >= 0; i-- {
		j := idx[i]
		rn.Powers.remove(j)
		rn.Phases.remove(j)
		if rn.Elev.len() > j {
			rn.Elev.remove(j)
		}
		rn.PowerAlpha2 = removeAt(rn.PowerAlpha2, j)
		rn.PhaseAlpha2 = removeAt(rn.PhaseAlpha2, j)
	}
}

// filterInfiniteLags drops lags whose ln_power is not finite (spec.md
// 4.4.2). See DESIGN.md for the documented Open Question about the
// original's non-removing implementation: this package treats removal as
// the intended behavior.
func filterInfiniteLags(ranges []*RangeNode) {
	for _, rn := range ranges {
		var badIdx []int
		for i, p := range rn.Powers.LnPower {
			if !isFinite(p) {
				badIdx = append(badIdx, i)
			}
		}
		removeLockstep(rn, badIdx)
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// filterLowPowerLags applies the lag-0-relative fluctuation cutoff
// (spec.md 4.4.3): scanning lags in ascending order, the first lag whose
// alpha^2-derived sigma (1/sqrt(alpha^2)) is at most ALPHA_CUTOFF and whose ln_power has fallen
// to the fluctuation floor sets a cutoff; that lag and everything after it
// is dropped.
func filterLowPowerLags(rec *RawRecord, ranges []*RangeNode) {
	if rec.Nave <= 0 {
		return
	}
	for _, rn := range ranges {
		if rn.Powers.len() == 0 {
			continue
		}
		logSigmaFluc := math.Log(fluctuationCutoffCoefficient * float64(rec.Pwr0[rn.RangeNum]) / math.Sqrt(2*float64(rec.Nave)))

		cutoff := -1
		for i := 0; i < rn.Powers.len(); i++ {
			alpha2 := rn.PowerAlpha2[i]
			invSqrtAlpha := 1.0 / math.Sqrt(alpha2)
			if invSqrtAlpha <= alphaCutoff && rn.Powers.LnPower[i] <= logSigmaFluc {
				cutoff = i
				break
			}
		}
		if cutoff >= 0 {
			idx := make([]int, 0, rn.Powers.len()-cutoff)
			for i := cutoff; i < rn.Powers.len(); i++ {
				idx = append(idx, i)
			}
			removeLockstep(rn, idx)
		}
	}
}

// filterBadACFs drops a whole range when its lag-0 power doesn't clear the
// noise floor, too few lags survived, or every remaining sample has the
// same power (spec.md 4.4.4).
func filterBadACFs(rec *RawRecord, ranges []*RangeNode, noisePower float64) []*RangeNode {
	cutoffPower := noisePower * 2.0
	return lo.Filter(ranges, func(rn *RangeNode, _ int) bool {
		power := float64(rec.Pwr0[rn.RangeNum])
		if power <= cutoffPower || rn.Powers.len() < minLags {
			return false
		}
		first := rn.Powers.LnPower[0]
		allEqual := true
		for _, p := range rn.Powers.LnPower {
			if p != first {
				allEqual = false
				break
			}
		}
		return !allEqual
	})
}

// filterBadFits drops ranges whose phase/linear-power/quadratic-power fit
// slope is exactly zero (spec.md 4.4.5). Ranges with an absent fit (e.g.
// all lags pruned before fitting ran) are also dropped rather than being
// treated as zero-slope.
func filterBadFits(ranges []*RangeNode) []*RangeNode {
	return lo.Filter(ranges, func(rn *RangeNode, _ int) bool {
		if rn.PhaseFit == nil || rn.LinPwrFit == nil || rn.QuadPwrFit == nil {
			return false
		}
		return rn.PhaseFit.Slope != 0.0 && rn.LinPwrFit.Slope != 0.0 && rn.QuadPwrFit.Slope != 0.0
	})
}
