package fitacf3

import "math"

// fitPower fits the ACF power model for every surviving range: linear and
// quadratic decay against t, plus the error-field variants fit against a
// sigma vector rescaled by the fitted power itself (spec.md 4.6 step 4).
func fitPower(ranges []*RangeNode) error {
	lsq := newLeastSquares(1, 1)
	for _, rn := range ranges {
		n := rn.Powers.len()
		if len(rn.Powers.T) != n || len(rn.Powers.StdDev) != n {
			return newError(BadFit, "power fit: parallel array dimension mismatch")
		}

		rn.LinPwrFit = lsq.twoParameterLineFit(rn.Powers.T, rn.Powers.LnPower, rn.Powers.StdDev, linearFit)
		rn.QuadPwrFit = lsq.twoParameterLineFit(rn.Powers.T, rn.Powers.LnPower, rn.Powers.StdDev, quadraticFit)

		corrected := make([]float64, n)
		for i := range corrected {
			corrected[i] = rn.Powers.StdDev[i] / math.Exp(rn.Powers.LnPower[i])
		}
		rn.LinPwrFitErr = lsq.twoParameterLineFit(rn.Powers.T, rn.Powers.LnPower, corrected, linearFit)
		rn.QuadPwrFitErr = lsq.twoParameterLineFit(rn.Powers.T, rn.Powers.LnPower, corrected, quadraticFit)
	}
	return nil
}

// derivePhaseAndElevSigmas models per-lag coherence as rho = exp(-|k|*t)
// using the fitted linear power slope k, then sets phase sigma from the
// alpha^2/rho relationship (spec.md 4.6 step 4). Elevation sigma at lag 0
// is set equal to the phase sigma at lag 1, since the lag-0 XCF phase
// carries the elevation fit's intercept.
func derivePhaseAndElevSigmas(ranges []*RangeNode, nave int16) error {
	for _, rn := range ranges {
		if rn.LinPwrFit == nil {
			return newError(BadFit, "phase sigma derivation requires a linear power fit")
		}
		k := math.Abs(rn.LinPwrFit.Slope)
		n := rn.Phases.len()
		sigmas := make([]float64, n)
		for i := 0; i < n; i++ {
			rho := math.Exp(-k * rn.Phases.T[i])
			numerator := (1.0/rn.PhaseAlpha2[i])*(1.0/(rho*rho)) - 1.0
			sigmas[i] = math.Sqrt(numerator / (2.0 * float64(nave)))
			if !isFinite(sigmas[i]) {
				return newError(BadFit, "phase sigma is not finite")
			}
		}
		rn.Phases.StdDev = sigmas

		if rn.Elev.len() == n {
			elevSigmas := append([]float64(nil), sigmas...)
			if len(elevSigmas) > 1 {
				elevSigmas[0] = elevSigmas[1]
			}
			rn.Elev.StdDev = elevSigmas
		}
	}
	return nil
}

// fitACFPhase runs the one-parameter (intercept pinned at 0) linear fit of
// ACF phase vs. t (spec.md 4.6 step 5).
func fitACFPhase(ranges []*RangeNode) error {
	lsq := newLeastSquares(1, 1)
	for _, rn := range ranges {
		n := rn.Phases.len()
		if len(rn.Phases.T) != n || len(rn.Phases.StdDev) != n {
			return newError(BadFit, "acf phase fit: parallel array dimension mismatch")
		}
		rn.PhaseFit = lsq.oneParameterLineFit(rn.Phases.T, rn.Phases.Phases, rn.Phases.StdDev)
	}
	return nil
}

// fitXCFPhase runs the two-parameter linear fit of XCF phase vs. t
// (spec.md 4.6 step 7), used for the elevation determination.
func fitXCFPhase(ranges []*RangeNode) error {
	lsq := newLeastSquares(1, 1)
	for _, rn := range ranges {
		n := rn.Elev.len()
		if n == 0 {
			continue
		}
		if len(rn.Elev.T) != n || len(rn.Elev.StdDev) != n {
			return newError(BadFit, "xcf phase fit: parallel array dimension mismatch")
		}
		rn.ElevFit = lsq.twoParameterLineFit(rn.Elev.T, rn.Elev.Phases, rn.Elev.StdDev, linearFit)
	}
	return nil
}

// unwrapACFPhase applies spec.md 4.6 step 6: estimate a piecewise slope
// from consecutive in-range phase differences, build a 2pi-corrected
// candidate sequence, and keep it only if its weighted residual is smaller
// than the original's.
func unwrapACFPhase(ranges []*RangeNode) {
	for _, rn := range ranges {
		phases, t, sigma := rn.Phases.Phases, rn.Phases.T, rn.Phases.StdDev
		if len(phases) < 2 {
			continue
		}

		var slopeNum, slopeDen float64
		for i := 1; i < len(phases); i++ {
			diff := phases[i] - phases[i-1]
			if math.Abs(diff) >= pi {
				continue
			}
			sigmaBar := (sigma[i] + sigma[i-1]) / 2.0
			tDiff := t[i] - t[i-1]
			slopeNum += diff / (sigmaBar * sigmaBar * tDiff)
			slopeDen += 1.0 / (sigmaBar * sigmaBar)
		}
		piecewiseSlope := slopeNum / slopeDen

		corrected, jumps := phaseCorrection(piecewiseSlope, phases, t)
		if jumps == 0 {
			continue
		}

		corrSlope := weightedSlope(corrected, t, sigma)
		corrError := weightedSquaredResidual(corrSlope, corrected, t, sigma)
		origSlope := weightedSlope(phases, t, sigma)
		origError := weightedSquaredResidual(origSlope, phases, t, sigma)

		if origError > corrError {
			rn.Phases.Phases = corrected
		}
	}
}

// unwrapXCFPhase applies spec.md 4.6 step 7's unwrap pass, seeded by the
// ACF phase fit's slope: one correction pass, a slope re-estimate, then a
// second pass.
func unwrapXCFPhase(ranges []*RangeNode) error {
	for _, rn := range ranges {
		if rn.PhaseFit == nil {
			return newError(BadFit, "phase fit must be defined to unwrap xcf phase")
		}
		phases, t, sigma := rn.Elev.Phases, rn.Elev.T, rn.Elev.StdDev
		if len(phases) == 0 {
			continue
		}

		corrected, _ := phaseCorrection(rn.PhaseFit.Slope, phases, t)
		slopeEstimate := weightedSlope(corrected, t, sigma)
		corrected, _ = phaseCorrection(slopeEstimate, corrected, t)
		rn.Elev.Phases = corrected
	}
	return nil
}

// phaseCorrection rounds (predicted-observed)/(2*pi) to the nearest
// integer per lag and shifts that many full cycles into the phase, per
// spec.md 4.6 step 6's "candidate sequence" construction.
func phaseCorrection(slopeEstimate float64, phases, t []float64) ([]float64, int) {
	corrected := make([]float64, len(phases))
	maxJumps := 0
	for i := range phases {
		predicted := t[i] * slopeEstimate
		corr := math.Round(math.Round(((predicted-phases[i])/(2.0*pi))*100000.0) / 100000.0)
		corrected[i] = phases[i] + corr*2.0*pi
		if n := int(math.Abs(corr)); n > maxJumps {
			maxJumps = n
		}
	}
	return corrected, maxJumps
}

func weightedSlope(phases, t, sigma []float64) float64 {
	var sumXX, sumXY float64
	for i, s := range sigma {
		if s <= 0 {
			continue
		}
		sumXY += phases[i] * t[i] / (s * s)
		sumXX += t[i] * t[i] / (s * s)
	}
	return sumXY / sumXX
}

func weightedSquaredResidual(slope float64, phases, t, sigma []float64) float64 {
	var total float64
	for i, s := range sigma {
		if s <= 0 {
			continue
		}
		residual := slope*t[i] - phases[i]
		total += residual * residual / (s * s)
	}
	return total
}
