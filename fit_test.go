package fitacf3

import (
	"testing"

	"github.com/sdarn/fitacf3/hdw"
)

func TestFitRejectsInvalidRecordBeforeAnyFittingWork(t *testing.T) {
	rec := validRecord()
	rec.Pwr0 = []float32{1} // violates len(pwr0) == nrang

	if _, err := Fit(rec, hdw.Entry{}); err == nil {
		t.Fatalf("expected validate() to reject the malformed record")
	}
}

func TestFitReturnsEmptyRangesWhenEveryGateHasZeroPower(t *testing.T) {
	rec := validRecord()
	rec.Mpinc = 1500
	rec.Smsep = 300
	rec.Nave = 10
	rec.Slist = []int16{0, 1}
	rec.Pwr0 = []float32{0, 0} // every range gate excluded (spec.md 9)

	fitted, err := Fit(rec, hdw.Entry{VelocitySign: 1, PhaseSign: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fitted.Ranges) != 0 {
		t.Fatalf("expected no surviving ranges when every pwr0 is zero, got %d", len(fitted.Ranges))
	}
}
