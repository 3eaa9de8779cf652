package fitacf3

import "testing"

func TestBuildLagListComputesLagNumAndSampleBases(t *testing.T) {
	rec := validRecord()
	rec.Mpinc = 1500
	rec.Smsep = 300

	lags, err := buildLagList(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lags) != int(rec.Mplgs) {
		t.Fatalf("expected %d lags, got %d", rec.Mplgs, len(lags))
	}

	// ltab[2] = {9, 12} -> lagNum 3, pulses at ptab indices 1 and 2.
	got := lags[2]
	if got.LagNum != 3 {
		t.Fatalf("expected lagNum 3, got %d", got.LagNum)
	}
	if got.Pulses != [2]int{1, 2} {
		t.Fatalf("expected pulses (1,2), got %v", got.Pulses)
	}
	tau := int32(rec.Mpinc / rec.Smsep)
	if got.SampleBase1 != 9*tau || got.SampleBase2 != 12*tau {
		t.Fatalf("unexpected sample bases: %+v", got)
	}
}

func TestBuildLagListRejectsZeroSmsep(t *testing.T) {
	rec := validRecord()
	rec.Smsep = 0
	if _, err := buildLagList(rec); err == nil {
		t.Fatalf("expected error for zero smsep")
	}
}

func TestBuildLagListRejectsUnknownPulseIndex(t *testing.T) {
	rec := validRecord()
	rec.Mpinc = 1500
	rec.Smsep = 300
	rec.Ltab = [][2]int16{{0, 0}, {0, 9}, {9, 12}, {12, 99}}
	if _, err := buildLagList(rec); err == nil {
		t.Fatalf("expected error for lag referencing unknown pulse index")
	}
}
