package fitacf3

import (
	"sync"

	"github.com/alitto/pond"

	"github.com/sdarn/fitacf3/hdw"
)

// DispatchResult pairs one input record's FittedRecord with any error that
// occurred fitting it, preserving the record's position in the input slice
// (spec.md 4.8, 5).
type DispatchResult struct {
	Record *FittedRecord
	Err    error
}

// FitSequential fits every record in order on the calling goroutine. It is
// the reference implementation FitParallel must agree with (spec.md 8,
// property 7).
func FitSequential(records []*RawRecord, repo *hdw.Repository) ([]DispatchResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	entry, err := lookupHDW(records[0], repo)
	if err != nil {
		return nil, err
	}

	results := make([]DispatchResult, len(records))
	var firstErr error
	for i, rec := range records {
		fitted, err := Fit(rec, entry)
		results[i] = DispatchResult{Record: fitted, Err: err}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// FitParallel fans out independent per-record fits across a fixed worker
// pool (spec.md 4.8). The HDW entry is fetched once, from the first
// record, and shared read-only across workers. Results preserve input
// order; the first error encountered in input order (not completion order)
// is returned once every worker has finished.
func FitParallel(records []*RawRecord, repo *hdw.Repository, workers int) ([]DispatchResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	entry, err := lookupHDW(records[0], repo)
	if err != nil {
		return nil, err
	}

	results := make([]DispatchResult, len(records))
	pool := pond.New(workers, len(records))
	var wg sync.WaitGroup
	wg.Add(len(records))

	for i, rec := range records {
		i, rec := i, rec
		pool.Submit(func() {
			defer wg.Done()
			fitted, err := Fit(rec, entry)
			results[i] = DispatchResult{Record: fitted, Err: err}
		})
	}
	wg.Wait()
	pool.StopAndWait()

	for _, r := range results {
		if r.Err != nil {
			return results, r.Err
		}
	}
	return results, nil
}

// lookupHDW resolves the hardware entry for the batch's first record,
// rewrapping any hdw package failure into the unified error taxonomy
// (spec.md 7) so a caller's errors.As(&Error{}) catches dispatcher failures
// regardless of which collaborator raised them.
func lookupHDW(first *RawRecord, repo *hdw.Repository) (hdw.Entry, error) {
	ts, err := first.Timestamp()
	if err != nil {
		return hdw.Entry{}, err
	}
	entry, err := repo.Lookup(first.StationID, ts)
	if err != nil {
		return hdw.Entry{}, NewError(Hdw, err.Error())
	}
	return entry, nil
}
