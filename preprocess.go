package fitacf3

import (
	"math"
	"sort"
)

// buildRangeNodes constructs one RangeNode per range gate with pwr0 > 0
// (spec.md 4.2, 9 "A range with pwr0 = 0 is excluded from slist"). For each
// surviving range it computes the cross-range interference, derives alpha^2
// per lag, and builds the initial power/phase/elevation sample arrays.
//
// Grounded on original_source/src/fitting/common/fitstruct.rs
// (RangeNode::new, PowerNode::new, PhaseNode::new).
func buildRangeNodes(rec *RawRecord, lags []LagNode) ([]*RangeNode, error) {
	var ranges []*RangeNode

	for _, rn := range rec.Slist {
		rangeNum := int(rn)
		if rangeNum < 0 || rangeNum >= int(rec.Nrang) {
			return nil, newError(InvalidRawacf, "slist entry out of range")
		}
		if rec.Pwr0[rangeNum] <= 0 {
			continue
		}

		interference := crossRangeInterference(rangeNum, rec)
		alpha2 := alphaSquared(rangeNum, interference, rec, lags)

		phases, err := buildPhaseNode(rec.Acfd, rangeNum, lags, rec.Mpinc)
		if err != nil {
			return nil, err
		}
		var elev PhaseNode
		if rec.Xcfd != nil {
			elev, err = buildPhaseNode(rec.Xcfd, rangeNum, lags, rec.Mpinc)
			if err != nil {
				return nil, err
			}
		}
		powers := buildPowerNode(rec, rangeNum, lags, alpha2)

		ranges = append(ranges, &RangeNode{
			RangeNum:    rangeNum,
			PowerAlpha2: alpha2,
			PhaseAlpha2: append([]float64(nil), alpha2...),
			Powers:      powers,
			Phases:      phases,
			Elev:        elev,
		})
	}
	return ranges, nil
}

// crossRangeInterference computes, for each pulse, the total lag-zero power
// leaking in from every other pulse's contributing range gate (spec.md
// 4.2). tau falls back to mpinc/txpl when smsep is zero.
func crossRangeInterference(rangeNum int, rec *RawRecord) []float64 {
	var tau int16
	if rec.Smsep != 0 {
		tau = rec.Mpinc / rec.Smsep
	} else {
		tau = rec.Mpinc / rec.Txpl
	}

	ptab := rec.Ptab1()
	interference := make([]float64, len(ptab))
	for p1 := range ptab {
		var total float64
		for p2 := range ptab {
			if p2 == p1 {
				continue
			}
			diff := ptab[p1] - ptab[p2]
			rangeToCheck := int(diff)*int(tau) + rangeNum
			if rangeToCheck >= 0 && rangeToCheck < int(rec.Nrang) {
				total += float64(rec.Pwr0[rangeToCheck])
			}
		}
		interference[p1] = total
	}
	return interference
}

// alphaSquared computes the interference-weighting coefficient for every
// lag of one range gate (spec.md 4.2).
func alphaSquared(rangeNum int, interference []float64, rec *RawRecord, lags []LagNode) []float64 {
	pwr0 := float64(rec.Pwr0[rangeNum])
	alpha2 := make([]float64, len(lags))
	for i, lag := range lags {
		i1 := interference[lag.Pulses[0]]
		i2 := interference[lag.Pulses[1]]
		alpha2[i] = (pwr0 * pwr0) / ((pwr0 + i1) * (pwr0 + i2))
	}
	return alpha2
}

func buildPhaseNode(acfOrXcf [][][2]float32, rangeNum int, lags []LagNode, mpinc int16) (PhaseNode, error) {
	if rangeNum >= len(acfOrXcf) {
		return PhaseNode{}, newError(InvalidRawacf, "range index out of bounds for acf/xcf array")
	}
	row := acfOrXcf[rangeNum]
	if len(row) != len(lags) {
		return PhaseNode{}, newError(BadFit, "acf/xcf lag dimension does not match lag table")
	}
	phases := make([]float64, len(lags))
	t := make([]float64, len(lags))
	for i, lag := range lags {
		re, im := float64(row[i][0]), float64(row[i][1])
		phases[i] = math.Atan2(im, re)
		t[i] = float64(lag.LagNum) * float64(mpinc) * usToS
	}
	return PhaseNode{Phases: phases, T: t, StdDev: make([]float64, len(lags))}, nil
}

func buildPowerNode(rec *RawRecord, rangeNum int, lags []LagNode, alpha2 []float64) PowerNode {
	row := rec.Acfd[rangeNum]
	pwr0 := float64(rec.Pwr0[rangeNum])

	lnPower := make([]float64, len(lags))
	stdDev := make([]float64, len(lags))
	t := make([]float64, len(lags))
	for i, lag := range lags {
		re, im := float64(row[i][0]), float64(row[i][1])
		power := math.Sqrt(re*re + im*im)
		normalized := (power * power) / (pwr0 * pwr0)
		stdDev[i] = pwr0 * math.Sqrt((normalized+1.0/alpha2[i])/(2.0*float64(rec.Nave)))
		lnPower[i] = math.Log(power)
		t[i] = float64(lag.LagNum) * float64(rec.Mpinc) * usToS
	}
	return PowerNode{LnPower: lnPower, T: t, StdDev: stdDev}
}

// acfCutoffPower estimates the noise floor (spec.md 4.3). Returns 1.0
// without inspecting pwr0 when nave <= 0 (no averaging means no statistics
// to estimate from).
func acfCutoffPower(rec *RawRecord) float64 {
	if rec.Nave <= 0 {
		return 1.0
	}

	sorted := append([]float32(nil), rec.Pwr0...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var positives float64
	var minPower float64
	limit := len(sorted) / 3
	i := 0
	for positives < 10.0 && i < limit {
		if sorted[i] > 0 {
			positives++
		}
		minPower += float64(sorted[i])
		i++
	}
	if positives <= 0 {
		positives = 1.0
	}
	minPower *= cutoffPowerCorrection(rec) / positives

	if minPower < acfSNRCutoff && rec.NoiseSearch != 0 {
		minPower = float64(rec.NoiseSearch)
	}
	return minPower
}

// cutoffPowerCorrection corrects for the downward bias introduced by
// selecting the least-powerful ranges: it integrates a normalized Gaussian
// PDF (mean 1.0, sigma = 1/sqrt(nave)) upward from a normalized power of 0,
// in steps of 1/1000, until the cumulative probability reaches 10/nrang,
// then returns probability / (probability * normalized power) (spec.md
// 4.3). When 10/nrang is 1 or more that target cannot be reached, so the
// integration also stops once the normalized power passes 1 + 10*sigma.
func cutoffPowerCorrection(rec *RawRecord) float64 {
	stdDev := 1.0 / math.Sqrt(float64(rec.Nave))

	var i, cumulativePDF, cumulativePDFxNormPower float64
	target := 10.0 / float64(rec.Nrang)
	for cumulativePDF < target && i/1000.0 <= 1.0+10.0*stdDev {
		normalizedPower := i / 1000.0
		x := -(normalizedPower - 1.0) * (normalizedPower - 1.0) / (2.0 * stdDev * stdDev)
		pdf := math.Exp(x) / stdDev / math.Sqrt(2.0*pi) / 1000.0
		cumulativePDF += pdf
		cumulativePDFxNormPower += pdf * normalizedPower
		i++
	}
	return cumulativePDF / cumulativePDFxNormPower
}
