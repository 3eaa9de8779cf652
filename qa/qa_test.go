package qa

import (
	"testing"

	"github.com/sdarn/fitacf3"
)

func rec(stationID, nrang, bmnum int16, hour int16) *fitacf3.RawRecord {
	return &fitacf3.RawRecord{
		StationID: stationID,
		Year:      2026, Month: 2, Day: 1, Hour: hour, Minute: 0, Second: 0,
		Nrang: nrang,
		Bmnum: bmnum,
	}
}

func TestCheckEmptyBatchReturnsZeroValueReport(t *testing.T) {
	report, err := Check(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ConsistentRanges || report.ConsistentBeams || report.HasDuplicateTimes {
		t.Fatalf("expected a zero-value report for an empty batch, got %+v", report)
	}
}

func TestCheckFlagsInconsistentRangesAndBeams(t *testing.T) {
	records := []*fitacf3.RawRecord{
		rec(33, 75, 0, 0),
		rec(33, 100, 1, 1),
	}
	report, err := Check(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ConsistentRanges {
		t.Fatalf("expected inconsistent range counts to be flagged")
	}
	if report.ConsistentBeams {
		t.Fatalf("expected inconsistent beam numbers to be flagged")
	}
	if report.MinMaxRanges != [2]int16{75, 100} {
		t.Fatalf("unexpected min/max ranges: %v", report.MinMaxRanges)
	}
}

func TestCheckFlagsDuplicateTimestamps(t *testing.T) {
	records := []*fitacf3.RawRecord{
		rec(33, 75, 0, 3),
		rec(33, 75, 0, 3),
	}
	report, err := Check(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.HasDuplicateTimes {
		t.Fatalf("expected duplicate timestamps to be flagged")
	}
	if !report.ConsistentStation {
		t.Fatalf("expected a single station id to be consistent")
	}
}

func TestCheckFlagsInconsistentStation(t *testing.T) {
	records := []*fitacf3.RawRecord{
		rec(33, 75, 0, 0),
		rec(40, 75, 0, 1),
	}
	report, err := Check(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ConsistentStation {
		t.Fatalf("expected differing station ids to be flagged")
	}
}
