package fitacf3

import "fmt"

// buildLagList constructs the lag table (spec.md 4.1): for every lag
// entry, locate the two pulse-table indices that form it and compute the
// two sample-base offsets used later to find pulse-overlapped samples.
//
// Fails when smsep is zero (the sample-base step is mpinc/smsep), or when a
// pulse index referenced by the lag table cannot be found in the pulse
// table, which indicates a malformed record.
func buildLagList(rec *RawRecord) ([]LagNode, error) {
	if rec.Smsep == 0 {
		return nil, newError(InvalidRawacf, "smsep must be non-zero to build lag table")
	}
	tau := rec.Mpinc / rec.Smsep

	ptab := rec.Ptab1()
	lags := make([]LagNode, int(rec.Mplgs))
	for i, lt := range rec.Ltab {
		lagNum := int32(lt[1] - lt[0])

		p1, ok1 := indexOf(ptab, lt[0])
		p2, ok2 := indexOf(ptab, lt[1])
		if !ok1 || !ok2 {
			return nil, newError(InvalidRawacf,
				fmt.Sprintf("lag %d references a pulse index not present in ptab", i))
		}

		lags[i] = LagNode{
			LagNum:      lagNum,
			Pulses:      [2]int{p1, p2},
			SampleBase1: int32(lt[0]) * int32(tau),
			SampleBase2: int32(lt[1]) * int32(tau),
		}
	}
	return lags, nil
}

func indexOf(haystack []int16, v int16) (int, bool) {
	for i, x := range haystack {
		if x == v {
			return i, true
		}
	}
	return 0, false
}
