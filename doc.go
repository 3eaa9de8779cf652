// Package fitacf3 implements the signal-fitting core of a SuperDARN HF-radar
// data-reduction pipeline (FITACF v3).
//
// It turns one raw autocorrelation/cross-correlation record (ACF/XCF) into a
// fitted record: line-of-sight Doppler velocity, backscatter power, spectral
// width, elevation angle, their statistical errors, and a ground-scatter
// flag. The on-disk binary container, CLI front ends, and downstream
// gridding stages are not part of this package; see the dmap and hdw
// packages, and cmd/fitacf3, for the collaborators that wrap it.
package fitacf3
