package fitacf3

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// RawRecord is the typed, read-only projection of one raw ACF/XCF
// integration period. It is the fit-input contract the DMAP collaborator
// (package dmap) is expected to fill in; FITACF never mutates it.
//
// Field names follow spec.md section 3 and
// original_source/src/utils/rawacf.rs.
type RawRecord struct {
	StationID int16

	Year, Month, Day, Hour, Minute, Second int16
	Microsecond                            int32

	Ptab [][]int16  // pulse table, len == Mppul, each a single index really but kept 2D-safe
	Ltab [][2]int16 // lag table, shape (Mplgs, 2)

	Mpinc   int16 // pulse increment, microseconds
	Smsep   int16 // sample separation, microseconds
	Txpl    int16 // transmit pulse length, microseconds
	Lagfr   int16 // lag to first range, microseconds
	Nrang   int16 // number of range gates
	Mplgs   int16 // number of lags
	Mppul   int16 // number of pulses
	Nave    int16 // number of averages
	Tfreq   int16 // transmit frequency, kHz
	Bmnum   int16
	Channel int16
	Offset  int16 // stereo offset

	NoiseSearch float32
	NoiseMean   float32

	Pwr0 []float32      // lag-zero power, len == Nrang
	Acfd [][][2]float32 // [Nrang][Mplgs][re,im]
	Xcfd [][][2]float32 // optional; nil if not present

	Slist []int16 // range indices present in the record

	// Passthrough metadata carried into the output record untouched.
	Cp, Bmazm, Scan, Rxrise, Atten, Txpow, Ercod, StatAgc, StatLopwr int32
	Frang, Rsep, Xcf                                                 int32
	IntSc, IntUs                                                     int32
	Mxpwr, Lvmax                                                     int32
	OriginCommand, Combf                                             string

	Mplgexs *int16 // optional
	Ifmode  *int16 // optional
}

// Ptab1 returns the pulse table as a flat slice of pulse indices. Raw
// records always carry a 1D pulse table; the 2D Ptab field exists so the
// same shape-checking style is used as Ltab/Acfd.
func (r *RawRecord) Ptab1() []int16 {
	out := make([]int16, len(r.Ptab))
	for i, p := range r.Ptab {
		out[i] = p[0]
	}
	return out
}

// Timestamp builds the record's UTC timestamp from its (yr, mo, dy, hr, mt,
// sc, us) scalar fields, validating the calendar date the way the teacher's
// decode/params.go does with meeus/julian (leap-year aware day counting)
// rather than trusting the raw ints blindly.
func (r *RawRecord) Timestamp() (time.Time, error) {
	if r.Month < 1 || r.Month > 12 {
		return time.Time{}, newError(InvalidRawacf, "month out of range")
	}
	leap := julian.LeapYearGregorian(int(r.Year))
	daysInMonth := []int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if leap {
		daysInMonth[1] = 29
	}
	if r.Day < 1 || int(r.Day) > daysInMonth[r.Month-1] {
		return time.Time{}, newError(InvalidRawacf, "day out of range for month")
	}
	return time.Date(
		int(r.Year), time.Month(r.Month), int(r.Day),
		int(r.Hour), int(r.Minute), int(r.Second),
		int(r.Microsecond)*1000,
		time.UTC,
	), nil
}

// validate checks the structural invariants spec.md section 3 requires
// before any fitting stage runs.
func (r *RawRecord) validate() error {
	if len(r.Ptab) != int(r.Mppul) {
		return newError(InvalidRawacf, "len(ptab) != mppul")
	}
	if len(r.Ltab) != int(r.Mplgs) {
		return newError(InvalidRawacf, "len(ltab) != mplgs")
	}
	if len(r.Pwr0) != int(r.Nrang) {
		return newError(InvalidRawacf, "len(pwr0) != nrang")
	}
	if len(r.Acfd) != int(r.Nrang) {
		return newError(InvalidRawacf, "acfd.shape[0] != nrang")
	}
	for _, row := range r.Acfd {
		if len(row) != int(r.Mplgs) {
			return newError(InvalidRawacf, "acfd.shape[1] != mplgs")
		}
	}
	if r.Xcfd != nil {
		if len(r.Xcfd) != int(r.Nrang) {
			return newError(InvalidRawacf, "xcfd.shape[0] != nrang")
		}
		for _, row := range r.Xcfd {
			if len(row) != int(r.Mplgs) {
				return newError(InvalidRawacf, "xcfd.shape[1] != mplgs")
			}
		}
	}
	return nil
}
