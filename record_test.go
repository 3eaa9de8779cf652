package fitacf3

import "testing"

func validRecord() *RawRecord {
	return &RawRecord{
		StationID: 33,
		Year:      2026, Month: 2, Day: 28, Hour: 12, Minute: 0, Second: 0,
		Ptab:   [][]int16{{0}, {9}, {12}, {20}},
		Ltab:   [][2]int16{{0, 0}, {0, 9}, {9, 12}, {12, 20}},
		Mppul:  4,
		Mplgs:  4,
		Nrang:  2,
		Pwr0:   []float32{1, 2},
		Acfd:   [][][2]float32{{{1, 0}, {1, 0}, {1, 0}, {1, 0}}, {{1, 0}, {1, 0}, {1, 0}, {1, 0}}},
	}
}

func TestTimestampRejectsOutOfRangeMonth(t *testing.T) {
	r := validRecord()
	r.Month = 13
	if _, err := r.Timestamp(); err == nil {
		t.Fatalf("expected error for month 13")
	}
}

func TestTimestampRejectsFeb29OnNonLeapYear(t *testing.T) {
	r := validRecord()
	r.Year, r.Month, r.Day = 2026, 2, 29
	if _, err := r.Timestamp(); err == nil {
		t.Fatalf("expected error for 2026-02-29 (not a leap year)")
	}
}

func TestTimestampAcceptsFeb29OnLeapYear(t *testing.T) {
	r := validRecord()
	r.Year, r.Month, r.Day = 2024, 2, 29
	if _, err := r.Timestamp(); err != nil {
		t.Fatalf("unexpected error for 2024-02-29: %v", err)
	}
}

func TestValidateDetectsShapeMismatch(t *testing.T) {
	r := validRecord()
	r.Pwr0 = []float32{1}
	if err := r.validate(); err == nil {
		t.Fatalf("expected error for pwr0/nrang mismatch")
	}
}

func TestValidateAllowsNilXcfd(t *testing.T) {
	r := validRecord()
	r.Xcfd = nil
	if err := r.validate(); err != nil {
		t.Fatalf("nil xcfd should be valid: %v", err)
	}
}

func TestValidateDetectsXcfdShapeMismatch(t *testing.T) {
	r := validRecord()
	r.Xcfd = [][][2]float32{{{1, 0}}}
	if err := r.validate(); err == nil {
		t.Fatalf("expected error for xcfd shape mismatch")
	}
}

func TestPtab1Flattens(t *testing.T) {
	r := validRecord()
	got := r.Ptab1()
	want := []int16{0, 9, 12, 20}
	if len(got) != len(want) {
		t.Fatalf("len mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d want %d", i, got[i], want[i])
		}
	}
}
