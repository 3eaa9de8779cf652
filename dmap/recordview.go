package dmap

import (
	"fmt"

	"github.com/sdarn/fitacf3"
)

// ToRawRecord projects one decoded DMAP record into the typed fit-input
// contract (spec.md 3, 6). Field names follow the rawacf wire vocabulary.
func ToRawRecord(rec *Record) (*fitacf3.RawRecord, error) {
	get := func(name string) (any, error) {
		v, ok := rec.Scalars[name]
		if !ok {
			return nil, fmt.Errorf("dmap: missing scalar %q", name)
		}
		return v, nil
	}
	i16 := func(name string) (int16, error) {
		v, err := get(name)
		if err != nil {
			return 0, err
		}
		x, ok := v.(int16)
		if !ok {
			return 0, fmt.Errorf("dmap: scalar %q is not a short", name)
		}
		return x, nil
	}
	i32 := func(name string) (int32, error) {
		v, err := get(name)
		if err != nil {
			return 0, err
		}
		x, ok := v.(int32)
		if !ok {
			return 0, fmt.Errorf("dmap: scalar %q is not an int", name)
		}
		return x, nil
	}
	f32 := func(name string, def float32) float32 {
		v, ok := rec.Scalars[name]
		if !ok {
			return def
		}
		x, _ := v.(float32)
		return x
	}

	out := &fitacf3.RawRecord{}
	var err error
	for _, f := range []struct {
		name string
		dst  *int16
	}{
		{"radar.revision.stid", &out.StationID},
		{"time.yr", &out.Year}, {"time.mo", &out.Month}, {"time.dy", &out.Day},
		{"time.hr", &out.Hour}, {"time.mt", &out.Minute}, {"time.sc", &out.Second},
		{"mpinc", &out.Mpinc}, {"smsep", &out.Smsep}, {"txpl", &out.Txpl},
		{"lagfr", &out.Lagfr}, {"nrang", &out.Nrang}, {"mplgs", &out.Mplgs},
		{"mppul", &out.Mppul}, {"nave", &out.Nave}, {"tfreq", &out.Tfreq},
		{"bmnum", &out.Bmnum}, {"channel", &out.Channel}, {"offset", &out.Offset},
	} {
		*f.dst, err = i16(f.name)
		if err != nil {
			return nil, fitacf3.NewError(fitacf3.InvalidRawacf, err.Error())
		}
	}

	out.Microsecond, err = i32("time.us")
	if err != nil {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, err.Error())
	}
	out.NoiseSearch = f32("noise.search", 0)
	out.NoiseMean = f32("noise.mean", 0)

	ptabRaw, ok := rec.Arrays["ptab"]
	if !ok {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "missing array ptab")
	}
	ptab, ok := ptabRaw.Data.([]int16)
	if !ok {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "ptab has unexpected element type")
	}
	out.Ptab = make([][]int16, len(ptab))
	for i, p := range ptab {
		out.Ptab[i] = []int16{p}
	}

	ltabRaw, ok := rec.Arrays["ltab"]
	if !ok {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "missing array ltab")
	}
	ltabFlat, ok := ltabRaw.Data.([]int16)
	if !ok || len(ltabRaw.Dims) != 2 || ltabRaw.Dims[1] != 2 {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "ltab has unexpected shape")
	}
	out.Ltab = make([][2]int16, ltabRaw.Dims[0])
	for i := range out.Ltab {
		out.Ltab[i] = [2]int16{ltabFlat[i*2], ltabFlat[i*2+1]}
	}

	pwr0Raw, ok := rec.Arrays["pwr0"]
	if !ok {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "missing array pwr0")
	}
	out.Pwr0, ok = pwr0Raw.Data.([]float32)
	if !ok {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, "pwr0 has unexpected element type")
	}

	out.Acfd, err = toComplexGrid(rec, "acfd", int(out.Nrang), int(out.Mplgs))
	if err != nil {
		return nil, fitacf3.NewError(fitacf3.InvalidRawacf, err.Error())
	}
	if _, ok := rec.Arrays["xcfd"]; ok {
		out.Xcfd, err = toComplexGrid(rec, "xcfd", int(out.Nrang), int(out.Mplgs))
		if err != nil {
			return nil, fitacf3.NewError(fitacf3.InvalidRawacf, err.Error())
		}
	}

	slistRaw, ok := rec.Arrays["slist"]
	if ok {
		out.Slist, _ = slistRaw.Data.([]int16)
	}

	return out, nil
}

func toComplexGrid(rec *Record, name string, nrang, mplgs int) ([][][2]float32, error) {
	arr, ok := rec.Arrays[name]
	if !ok {
		return nil, fmt.Errorf("missing array %q", name)
	}
	flat, ok := arr.Data.([]float32)
	if !ok {
		return nil, fmt.Errorf("%q has unexpected element type", name)
	}
	if len(flat) != nrang*mplgs*2 {
		return nil, fmt.Errorf("%q has unexpected length %d (want %d)", name, len(flat), nrang*mplgs*2)
	}
	grid := make([][][2]float32, nrang)
	for r := 0; r < nrang; r++ {
		grid[r] = make([][2]float32, mplgs)
		for l := 0; l < mplgs; l++ {
			base := (r*mplgs + l) * 2
			grid[r][l] = [2]float32{flat[base], flat[base+1]}
		}
	}
	return grid, nil
}

// FromFittedRecord builds the output DMAP record for one fitted record
// (spec.md 6): the station id, the fitted scalars (revision, noise, origin)
// and range-keyed arrays over the surviving ranges. rec is not read; no
// other input metadata scalar is copied into the output.
func FromFittedRecord(fitted *fitacf3.FittedRecord, rec *fitacf3.RawRecord) *Record {
	out := &Record{
		Scalars: map[string]any{
			"radar.revision.stid":   fitted.StationID,
			"fitacf.revision.major": int32(fitted.RevisionMajor),
			"fitacf.revision.minor": int32(fitted.RevisionMinor),
			"noise.sky":             float32(fitted.NoiseSky),
			"noise.lag0":            float32(fitted.NoiseLag0),
			"noise.vel":             float32(fitted.NoiseVel),
			"origin.code":           int32(fitted.OriginCode),
			"origin.time":           fitted.Timestamp.Format("2006-01-02 15:04:05"),
		},
		Arrays: map[string]Array{},
	}

	n := len(fitted.Ranges)
	slist := make([]int16, n)
	nlag := make([]int16, n)
	qflg := make([]int16, n)
	gflg := make([]int16, n)
	pl, ple := make([]float32, n), make([]float32, n)
	ps, pse := make([]float32, n), make([]float32, n)
	v, ve := make([]float32, n), make([]float32, n)
	wl, wle := make([]float32, n), make([]float32, n)
	ws, wse := make([]float32, n), make([]float32, n)
	sdl, sds, sdphi := make([]float32, n), make([]float32, n), make([]float32, n)
	phi0, phi0e := make([]float32, n), make([]float32, n)
	elv, elvLow, elvHigh := make([]float32, n), make([]float32, n), make([]float32, n)

	for i, r := range fitted.Ranges {
		slist[i] = int16(r.RangeNum)
		nlag[i] = int16(r.NumLags)
		qflg[i] = r.Quality
		if r.Ground {
			gflg[i] = 1
		}
		pl[i], ple[i] = float32(r.PowerLinDB), float32(r.PowerLinDBError)
		ps[i], pse[i] = float32(r.PowerQuadDB), float32(r.PowerQuadDBError)
		v[i], ve[i] = float32(r.Velocity), float32(r.VelocityError)
		wl[i], wle[i] = float32(r.WidthLinear), float32(r.WidthLinearError)
		ws[i], wse[i] = float32(r.WidthQuadratic), float32(r.WidthQuadError)
		sdl[i], sds[i] = float32(r.StdDevLin), float32(r.StdDevQuad)
		sdphi[i] = float32(r.StdDevPhi)
		phi0[i], phi0e[i] = float32(r.Phi0), float32(r.Phi0Error)
		elv[i] = float32(r.Elevation)
		elvLow[i] = float32(r.ElevationLow)
		elvHigh[i] = float32(r.ElevationHigh)
	}

	arr := func(name string, data any) {
		out.Arrays[name] = Array{Name: name, Dims: []int32{int32(n)}, Data: data}
	}
	arr("slist", slist)
	arr("nlag", nlag)
	arr("qflg", qflg)
	arr("gflg", gflg)
	arr("p_l", pl)
	arr("p_l_e", ple)
	arr("p_s", ps)
	arr("p_s_e", pse)
	arr("v", v)
	arr("v_e", ve)
	arr("w_l", wl)
	arr("w_l_e", wle)
	arr("w_s", ws)
	arr("w_s_e", wse)
	arr("sd_l", sdl)
	arr("sd_s", sds)
	arr("sd_phi", sdphi)
	arr("phi0", phi0)
	arr("phi0_e", phi0e)
	arr("elv", elv)
	arr("elv_low", elvLow)
	arr("elv_high", elvHigh)

	return out
}
