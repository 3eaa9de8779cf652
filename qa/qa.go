// Package qa runs cross-record consistency checks over a dispatched batch
// of raw records — the kind of file-level sanity check a caller runs
// before or after fitting, not part of the per-record fitting contract
// itself.
//
// Adapted from github.com/sixy6e/go-gsf's QInfo/QualityInfo (same
// min/max-domain and duplicate-timestamp checks via samber/lo), retargeted
// at rawacf records: beam/range-gate domain and duplicate integration
// timestamps instead of ping beam counts.
package qa

import (
	"time"

	"github.com/samber/lo"

	"github.com/sdarn/fitacf3"
)

// Report summarizes consistency across a batch of raw records from the
// same file.
type Report struct {
	MinMaxRanges      [2]int16
	ConsistentRanges  bool
	MinMaxBeams       [2]int16
	ConsistentBeams   bool
	DuplicateTimes    []time.Time
	HasDuplicateTimes bool
	ConsistentStation bool
}

// Check inspects records for the same structural inconsistencies the
// upstream file format is known to occasionally carry: a varying number of
// range gates or beams across records believed to be one acquisition, and
// duplicate integration-period timestamps (spec.md 3 notes raw records are
// read-only; this never mutates them).
func Check(records []*fitacf3.RawRecord) (Report, error) {
	var report Report
	if len(records) == 0 {
		return report, nil
	}

	nrang := make([]int16, len(records))
	bmnum := make([]int16, len(records))
	timestamps := make([]time.Time, len(records))
	stations := make([]int16, len(records))

	for i, rec := range records {
		nrang[i] = rec.Nrang
		bmnum[i] = rec.Bmnum
		stations[i] = rec.StationID
		ts, err := rec.Timestamp()
		if err != nil {
			return report, err
		}
		timestamps[i] = ts
	}

	report.MinMaxRanges = [2]int16{lo.Min(nrang), lo.Max(nrang)}
	report.ConsistentRanges = report.MinMaxRanges[0] == report.MinMaxRanges[1]

	report.MinMaxBeams = [2]int16{lo.Min(bmnum), lo.Max(bmnum)}
	report.ConsistentBeams = report.MinMaxBeams[0] == report.MinMaxBeams[1]

	report.DuplicateTimes = lo.FindDuplicates(timestamps)
	report.HasDuplicateTimes = len(report.DuplicateTimes) > 0

	report.ConsistentStation = len(lo.Uniq(stations)) == 1

	return report, nil
}
