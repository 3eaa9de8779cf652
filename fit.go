package fitacf3

import (
	"time"

	"github.com/sdarn/fitacf3/hdw"
)

// FittedRecord is the output of fitting one raw record (spec.md 4.7, 6):
// passthrough metadata plus the range-keyed determinations for every range
// that survived filtering.
type FittedRecord struct {
	StationID int16
	Timestamp time.Time

	RevisionMajor int16
	RevisionMinor int16

	NoiseSky   float64
	NoiseLag0  float64
	NoiseVel   float64
	OriginCode int16

	Ranges []*RangeResult
}

// Fit runs the full per-record pipeline (spec.md 4.6): lag table, range
// nodes, noise estimate, filters, power/phase fits with unwrap, and
// determinations. A record that fails filtering down to zero ranges is not
// an error — it returns a FittedRecord with an empty Ranges slice (spec.md
// 7).
func Fit(rec *RawRecord, entry hdw.Entry) (*FittedRecord, error) {
	if err := rec.validate(); err != nil {
		return nil, err
	}

	lags, err := buildLagList(rec)
	if err != nil {
		return nil, err
	}

	ranges, err := buildRangeNodes(rec, lags)
	if err != nil {
		return nil, err
	}

	filterTxOverlappedLags(rec, lags, ranges)

	noisePower := acfCutoffPower(rec)

	filterInfiniteLags(ranges)
	filterLowPowerLags(rec, ranges)
	ranges = filterBadACFs(rec, ranges, noisePower)

	if len(ranges) > 0 {
		if err := fitPower(ranges); err != nil {
			return nil, err
		}
		if err := derivePhaseAndElevSigmas(ranges, rec.Nave); err != nil {
			return nil, err
		}
		if err := fitACFPhase(ranges); err != nil {
			return nil, err
		}
		unwrapACFPhase(ranges)
		if err := fitACFPhase(ranges); err != nil {
			return nil, err
		}
		if err := fitXCFPhase(ranges); err != nil {
			return nil, err
		}
		if err := unwrapXCFPhase(ranges); err != nil {
			return nil, err
		}
		if err := fitXCFPhase(ranges); err != nil {
			return nil, err
		}
	}
	ranges = filterBadFits(ranges)

	tfreqHz := float64(rec.Tfreq) * khzToHz
	results := make([]*RangeResult, 0, len(ranges))
	for _, rn := range ranges {
		result, err := determine(rn, rec, entry, noisePower, tfreqHz)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	timestamp, err := rec.Timestamp()
	if err != nil {
		return nil, err
	}

	return &FittedRecord{
		StationID:     rec.StationID,
		Timestamp:     timestamp,
		RevisionMajor: fitacfRevisionMajor,
		RevisionMinor: fitacfRevisionMinor,
		NoiseSky:      noisePower,
		NoiseLag0:     0,
		NoiseVel:      0,
		OriginCode:    originCode,
		Ranges:        results,
	}, nil
}
