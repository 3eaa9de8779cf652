package fitacf3

// LagNode describes one entry of the lag table: the integer lag count, the
// two pulse-table indices forming it, and the two sample-base offsets (in
// sample units) used to locate pulse-overlapped samples. Built once per
// record by buildLagList (spec.md 4.1).
type LagNode struct {
	LagNum      int32
	Pulses      [2]int
	SampleBase1 int32
	SampleBase2 int32
}

// PowerNode carries the per-lag log-power samples for one range gate's
// power fit: natural-log power, time offset (seconds), and fit sigma.
// The three slices always share length (spec.md invariants).
type PowerNode struct {
	LnPower []float64
	T       []float64
	StdDev  []float64
}

func (p *PowerNode) len() int { return len(p.LnPower) }

// remove drops index idx from all three parallel slices in lock-step: the
// by-index, every-slice-at-once removal DESIGN.md describes.
func (p *PowerNode) remove(idx int) {
	p.LnPower = removeAt(p.LnPower, idx)
	p.T = removeAt(p.T, idx)
	p.StdDev = removeAt(p.StdDev, idx)
}

// PhaseNode carries per-lag phase samples, used for both the ACF phase fit
// and the XCF ("elev") fit.
type PhaseNode struct {
	Phases []float64
	T      []float64
	StdDev []float64
}

func (p *PhaseNode) len() int { return len(p.Phases) }

func (p *PhaseNode) remove(idx int) {
	p.Phases = removeAt(p.Phases, idx)
	p.T = removeAt(p.T, idx)
	p.StdDev = removeAt(p.StdDev, idx)
}

func removeAt[T any](s []T, idx int) []T {
	return append(s[:idx:idx], s[idx+1:]...)
}

// FittedData is the output of one weighted least-squares line fit (spec.md
// 3, "FittedData"). Presence is tracked by the caller holding a *FittedData
// (nil means "not yet fitted") rather than a zero-value sentinel, so a
// downstream stage that depends on an absent predecessor fails explicitly
// (spec.md 9, "Optional fit results").
type FittedData struct {
	Delta                    float64
	Intercept                float64
	Slope                    float64
	VarianceIntercept        float64
	VarianceSlope            float64
	DeltaIntercept           float64
	DeltaSlope               float64
	CovarianceInterceptSlope float64
	ResidualInterceptSlope   float64
	ChiSquared               float64
}

// RangeNode is the per-range-gate working state built by the preprocessor
// (spec.md 4.2) and consumed, filtered, and fitted by the remaining driver
// stages. Range nodes never back-reference the record: they carry copies of
// the per-lag data they need, indexed by RangeNum directly (acfd/xcfd are
// nrang-shaped, not slist-compacted — see DESIGN.md's indexing-scheme
// resolution), keeping the fit input read-only and safe to share across
// dispatcher workers (spec.md 9).
type RangeNode struct {
	RangeNum int // range gate number (index into pwr0/acfd/xcfd)

	PowerAlpha2 []float64 // alpha^2 per lag, used to weight the power fit
	PhaseAlpha2 []float64 // alpha^2 per lag, used to weight the phase fit

	Powers PowerNode
	Phases PhaseNode
	Elev   PhaseNode // XCF phase samples, for elevation

	LinPwrFit     *FittedData
	QuadPwrFit    *FittedData
	LinPwrFitErr  *FittedData
	QuadPwrFitErr *FittedData
	PhaseFit      *FittedData
	ElevFit       *FittedData
}
