package fitacf3

import "math"

// powerFitKind selects which basis function a two-parameter fit is solved
// against: x for linear decay, x^2 for quadratic (Gaussian) decay.
type powerFitKind int

const (
	linearFit powerFitKind = iota
	quadraticFit
)

type sums struct {
	sum, sumX, sumY, sumXX, sumXY float64
}

// leastSquares bundles the confidence-interval row used by both fit
// entry points. confidence and dof are 1-indexed to match spec.md's
// "indexed by (confidence-1, dof-1)" table description.
type leastSquares struct {
	confidence int
	dof        int
}

func newLeastSquares(confidence, dof int) leastSquares {
	return leastSquares{confidence: confidence - 1, dof: dof - 1}
}

// twoParameterLineFit solves y ~= a + b*f(x) by weighted least squares,
// with weights 1/sigma^2, f(x) = x for linearFit or x^2 for quadraticFit.
// Points with sigma == 0 are excluded (spec.md 4.5).
func (l leastSquares) twoParameterLineFit(x, y, sigma []float64, kind powerFitKind) *FittedData {
	s := findSums(x, y, sigma, kind)

	fitted := &FittedData{}
	fitted.Delta = s.sum*s.sumXX - s.sumX*s.sumX
	fitted.Intercept = (s.sumXX*s.sumY - s.sumX*s.sumXY) / fitted.Delta
	fitted.Slope = (s.sum*s.sumXY - s.sumX*s.sumY) / fitted.Delta
	fitted.VarianceIntercept = s.sumXX / fitted.Delta
	fitted.VarianceSlope = s.sum / fitted.Delta
	fitted.CovarianceInterceptSlope = -s.sumX / fitted.Delta
	fitted.ResidualInterceptSlope = -s.sumX / math.Sqrt(s.sum*s.sumXX)

	dchi := deltaChiSquared[l.confidence][l.dof]
	fitted.DeltaIntercept = math.Sqrt(dchi) * math.Sqrt(fitted.VarianceIntercept)
	fitted.DeltaSlope = math.Sqrt(dchi) * math.Sqrt(fitted.VarianceSlope)
	fitted.ChiSquared = chiSquared(fitted, x, y, sigma, kind)
	return fitted
}

// oneParameterLineFit forces the intercept to zero: y ~= b*x.
func (l leastSquares) oneParameterLineFit(x, y, sigma []float64) *FittedData {
	s := findSums(x, y, sigma, linearFit)

	fitted := &FittedData{}
	fitted.Slope = s.sumXY / s.sumXX
	fitted.VarianceSlope = 1.0 / s.sumXX

	dchi := deltaChiSquared[l.confidence][l.dof]
	fitted.DeltaSlope = math.Sqrt(dchi) * math.Sqrt(fitted.VarianceSlope)
	fitted.DeltaIntercept = math.Sqrt(dchi) * math.Sqrt(fitted.VarianceIntercept)
	fitted.ChiSquared = chiSquared(fitted, x, y, sigma, linearFit)
	return fitted
}

func findSums(x, y, sigma []float64, kind powerFitKind) sums {
	var s sums
	for i, sg := range sigma {
		if sg == 0 {
			continue
		}
		sigma2 := sg * sg
		s.sum += 1.0 / sigma2
		switch kind {
		case linearFit:
			s.sumX += x[i] / sigma2
			s.sumY += y[i] / sigma2
			s.sumXX += x[i] * x[i] / sigma2
			s.sumXY += x[i] * y[i] / sigma2
		case quadraticFit:
			s.sumX += x[i] * x[i] / sigma2
			s.sumY += y[i] / sigma2
			s.sumXX += x[i] * x[i] * x[i] * x[i] / sigma2
			s.sumXY += x[i] * x[i] * y[i] / sigma2
		}
	}
	return s
}

func chiSquared(fitted *FittedData, x, y, sigma []float64, kind powerFitKind) float64 {
	var chi float64
	for i, sg := range sigma {
		if sg == 0 {
			continue
		}
		var residual float64
		switch kind {
		case linearFit:
			residual = (y[i] - fitted.Intercept - fitted.Slope*x[i]) / sg
		case quadraticFit:
			residual = (y[i] - fitted.Intercept - fitted.Slope*x[i]*x[i]) / sg
		}
		chi += residual * residual
	}
	return chi
}
