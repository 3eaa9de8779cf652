package fitacf3

import (
	"testing"

	"github.com/sdarn/fitacf3/hdw"
)

func invalidShapeRecord(stationID int16, rangeCount int) *RawRecord {
	r := validRecord()
	r.StationID = stationID
	r.Year = 2007 // after bks's 2006-11-14 validity start
	// mismatched pwr0/nrang length forces validate() to fail fast, so
	// these tests exercise dispatch ordering without needing a full,
	// physically realistic ACF to fit successfully.
	r.Pwr0 = make([]float32, rangeCount)
	return r
}

func TestFitSequentialPreservesOrderAndReturnsFirstError(t *testing.T) {
	repo, err := hdw.NewRepository()
	if err != nil {
		t.Fatalf("loading hdw repository: %v", err)
	}

	records := []*RawRecord{
		invalidShapeRecord(33, 1),
		invalidShapeRecord(33, 2), // matches Nrang=2, so this one validates fine up to the lag stage
		invalidShapeRecord(33, 3),
	}

	results, firstErr := FitSequential(records, repo)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if firstErr == nil {
		t.Fatalf("expected a first error from the mismatched records")
	}
	if results[0].Err == nil {
		t.Fatalf("expected index 0 to carry an error (pwr0/nrang mismatch)")
	}
	if firstErr != results[0].Err {
		t.Fatalf("expected the returned error to be index 0's, got %v", firstErr)
	}
}

func TestFitParallelSurfacesFirstErrorInInputOrder(t *testing.T) {
	repo, err := hdw.NewRepository()
	if err != nil {
		t.Fatalf("loading hdw repository: %v", err)
	}

	records := []*RawRecord{
		invalidShapeRecord(33, 1),
		invalidShapeRecord(33, 1),
		invalidShapeRecord(33, 1),
	}

	results, firstErr := FitParallel(records, repo, 2)
	if len(results) != len(records) {
		t.Fatalf("expected %d results, got %d", len(records), len(results))
	}
	if firstErr == nil {
		t.Fatalf("expected an error: every record has a pwr0/nrang mismatch")
	}
	for i, r := range results {
		if r.Err == nil {
			t.Fatalf("expected result %d to carry an error", i)
		}
	}
	if firstErr != results[0].Err {
		t.Fatalf("expected the returned error to be index 0's, got %v", firstErr)
	}
}

func TestDispatchEmptyInputReturnsNoResults(t *testing.T) {
	repo, err := hdw.NewRepository()
	if err != nil {
		t.Fatalf("loading hdw repository: %v", err)
	}
	results, err := FitSequential(nil, repo)
	if results != nil || err != nil {
		t.Fatalf("expected (nil, nil) for empty input, got (%v, %v)", results, err)
	}
}
