package fitacf3

import "math"

// Physical and algorithm constants used throughout the fitting pipeline.
// Naming and values follow original_source/src/utils/constants.rs and the
// fitacf3 driver/filtering modules.
const (
	lightSpeed = 299_792_458.0 // m/s
	khzToHz    = 1000.0
	usToS      = 1.0e-6

	// fluctuationCutoffCoefficient (FLUCT in spec.md 4.4.3).
	fluctuationCutoffCoefficient = 2.5
	// alphaCutoff (ALPHA_CUTOFF in spec.md 4.4.3).
	alphaCutoff = 2.5
	// minLags is the minimum number of surviving lags a range may keep.
	minLags = 3

	// acfSNRCutoff is the floor below which the corrected noise estimate
	// is replaced by rec.NoiseSearch (spec.md 4.3).
	acfSNRCutoff = 1.0

	// vMax/wMax parameterize the ground-scatter decision boundary.
	vMax = 30.0
	wMax = 90.0

	fitacfRevisionMajor = 3
	fitacfRevisionMinor = 0
	originCode          = 1
)

var pi = math.Pi

// deltaChiSquared is indexed [confidence-1][dof-1]; row 0 col 0 gives the
// default 1-sigma bound (Δχ² = 1.00). Values from
// original_source/src/fitting/fitacf3/least_squares.rs.
var deltaChiSquared = [6][2]float64{
	{1.00, 2.30},
	{2.71, 4.61},
	{4.00, 6.17},
	{6.63, 9.21},
	{9.00, 11.8},
	{15.1, 18.4},
}
