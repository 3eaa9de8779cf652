package fitacf3

import (
	"math"

	"github.com/sdarn/fitacf3/hdw"
)

// RangeResult holds the per-range determinations produced from a fitted
// RangeNode (spec.md 4.7).
type RangeResult struct {
	RangeNum int

	Velocity      float64
	VelocityError float64

	PowerLinDB       float64
	PowerLinDBError  float64
	PowerQuadDB      float64
	PowerQuadDBError float64

	WidthLinear      float64
	WidthLinearError float64
	WidthQuadratic   float64
	WidthQuadError   float64

	Lag0PowerDB float64

	Phi0        float64
	Phi0Error   float64
	StdDevLin   float64
	StdDevQuad  float64
	StdDevPhi   float64

	Elevation     float64
	ElevationLow  float64
	ElevationHigh float64

	NumLags int
	Quality int16
	Ground  bool

	ChiSquaredLin  float64
	ChiSquaredQuad float64
}

// determine converts one surviving range's fit coefficients into physical
// quantities (spec.md 4.7). tfreqHz is the radar's transmit frequency
// already converted to Hz.
func determine(rn *RangeNode, rec *RawRecord, entry hdw.Entry, noisePower, tfreqHz float64) (*RangeResult, error) {
	if rn.PhaseFit == nil || rn.LinPwrFit == nil || rn.QuadPwrFit == nil ||
		rn.LinPwrFitErr == nil || rn.QuadPwrFitErr == nil {
		return nil, newError(BadFit, "determinations require phase, power, and power-error fits")
	}
	if rn.Elev.len() > 0 && rn.ElevFit == nil {
		return nil, newError(BadFit, "determinations require an elevation fit when xcf phase data is present")
	}

	vSign := float64(entry.VelocitySign)
	velConv := (lightSpeed * vSign) / (4.0 * pi * tfreqHz)

	velocity := rn.PhaseFit.Slope * velConv
	velocityError := math.Sqrt(rn.PhaseFit.VarianceSlope) * math.Abs(velConv)

	powerLinDB := 10.0*rn.LinPwrFit.Intercept/math.Log(10) - 10.0*math.Log10(noisePower)
	powerLinDBError := 10.0 * math.Sqrt(rn.LinPwrFitErr.VarianceIntercept) / math.Log(10)
	powerQuadDB := 10.0*rn.QuadPwrFit.Intercept/math.Log(10) - 10.0*math.Log10(noisePower)
	powerQuadDBError := 10.0 * math.Sqrt(rn.QuadPwrFitErr.VarianceIntercept) / math.Log(10)

	widthLinear := math.Abs(rn.LinPwrFit.Slope) * (2.0 * lightSpeed) / (4.0 * pi * tfreqHz)
	widthLinearError := math.Sqrt(rn.LinPwrFitErr.VarianceSlope) * (2.0 * lightSpeed) / (4.0 * pi * tfreqHz)

	widthQuadratic := 0.0
	widthQuadError := 0.0
	if rn.QuadPwrFit.Slope < 0 {
		quadCoeff := (lightSpeed * 2.0 * math.Sqrt(math.Log(2))) / (pi * tfreqHz)
		widthQuadratic = math.Sqrt(-rn.QuadPwrFit.Slope) * quadCoeff
		widthQuadError = 0.5 / math.Sqrt(-rn.QuadPwrFit.Slope) * math.Sqrt(rn.QuadPwrFitErr.VarianceSlope) * quadCoeff
	}

	lag0Power := float64(rec.Pwr0[rn.RangeNum])
	lag0PowerDB := -50.0
	if lag0Power-noisePower > 0 {
		lag0PowerDB = 10.0 * math.Log10((lag0Power-noisePower)/noisePower)
	}

	var phi0, phi0Error float64
	elevation, elevLow, elevHigh := 0.0, 0.0, 0.0
	if rn.ElevFit != nil {
		if raw, ok := xcfLagZeroPhase(rn); ok {
			phi0 = raw * float64(entry.PhaseSign)
		}
		phi0Error = math.Sqrt(rn.ElevFit.VarianceIntercept)
		elevation, elevLow, elevHigh = calculateElevation(rn, entry, rec.Bmnum, tfreqHz)
	}

	ground := math.Abs(velocity)-(vMax-widthLinear*(vMax/wMax)) < 1.0

	return &RangeResult{
		RangeNum:         rn.RangeNum,
		Velocity:         velocity,
		VelocityError:    velocityError,
		PowerLinDB:       powerLinDB,
		PowerLinDBError:  powerLinDBError,
		PowerQuadDB:      powerQuadDB,
		PowerQuadDBError: powerQuadDBError,
		WidthLinear:      widthLinear,
		WidthLinearError: widthLinearError,
		WidthQuadratic:   widthQuadratic,
		WidthQuadError:   widthQuadError,
		Lag0PowerDB:      lag0PowerDB,
		Phi0:             phi0,
		Phi0Error:        phi0Error,
		StdDevLin:        rn.LinPwrFit.ChiSquared,
		StdDevQuad:       rn.QuadPwrFit.ChiSquared,
		StdDevPhi:        rn.PhaseFit.ChiSquared,
		Elevation:        elevation,
		ElevationLow:     elevLow,
		ElevationHigh:    elevHigh,
		NumLags:          rn.Powers.len(),
		Quality:          1,
		Ground:           ground,
		ChiSquaredLin:    rn.LinPwrFit.ChiSquared,
		ChiSquaredQuad:   rn.QuadPwrFit.ChiSquared,
	}, nil
}

// xcfLagZeroPhase returns the directly observed XCF phase at lag 0 (the raw
// atan2 value built by buildPhaseNode, before any geometry or phase-sign
// correction), and whether a lag-0 sample survived filtering.
func xcfLagZeroPhase(rn *RangeNode) (float64, bool) {
	for i, t := range rn.Elev.T {
		if t == 0 {
			return rn.Elev.Phases[i], true
		}
	}
	return 0, false
}

// calculateElevation derives the elevation angle from the interferometer
// geometry in entry (spec.md 4.7). The "normal" elevation (elv) wraps the
// XCF's directly observed lag-0 phase; elevLow/elevHigh wrap the fitted
// intercept instead and bracket it with the intercept's first-order error.
// This direct-phase-vs-fitted-intercept split is intentional — see the
// documented "normal" vs "high/low" inconsistency in DESIGN.md.
func calculateElevation(rn *RangeNode, entry hdw.Entry, bmnum int16, tfreqHz float64) (elevation, elevLow, elevHigh float64) {
	x, y, z := float64(entry.IntfOffsetX), float64(entry.IntfOffsetY), float64(entry.IntfOffsetZ)
	d := math.Sqrt(x*x + y*y + z*z)
	k := 2.0 * pi * tfreqHz / lightSpeed

	bmsep := float64(entry.BeamSeparation)
	maxBeam := float64(entry.MaxNumBeams)
	phi0 := math.Cos(bmsep * (float64(bmnum) - (maxBeam/2.0 - 0.5)) * pi / 180.0)

	cableOffset := -2.0 * pi * tfreqHz * float64(entry.TdiffA) * 1e-6

	sign := 1.0
	if y < 0 {
		sign = -1.0
	}
	psiMax := sign*k*d*phi0 + cableOffset

	wrap := func(psiHat float64) float64 {
		psi := psiHat + 2.0*pi*math.Floor((psiMax-psiHat)/(2.0*pi)) - cableOffset
		if y < 0 {
			psi += 2.0 * pi
		}
		return psi
	}

	toElevation := func(psi float64) float64 {
		theta := phi0*phi0 - (psi/(k*d))*(psi/(k*d))
		if theta >= 0 && theta <= 1 {
			return math.Asin(math.Sqrt(theta))
		}
		return -math.Asin(z / d)
	}

	observedPhase := rn.ElevFit.Intercept
	if raw, ok := xcfLagZeroPhase(rn); ok {
		observedPhase = raw * float64(entry.PhaseSign)
	}
	elevation = toElevation(wrap(observedPhase))

	fitPsi := wrap(rn.ElevFit.Intercept)
	fitTheta := phi0*phi0 - (fitPsi/(k*d))*(fitPsi/(k*d))
	fitElevation := toElevation(fitPsi)

	dThetaDPsi := -2.0 * fitPsi / (k * k * d * d)
	dElevDTheta := 0.0
	if fitTheta > 0 && fitTheta < 1 {
		dElevDTheta = 1.0 / (2.0 * math.Sqrt(fitTheta) * math.Sqrt(1-fitTheta))
	}
	sigmaElev := math.Abs(dElevDTheta*dThetaDPsi) * math.Sqrt(rn.ElevFit.VarianceIntercept)

	elevLow = fitElevation - sigmaElev
	elevHigh = fitElevation + sigmaElev
	return elevation, elevLow, elevHigh
}
