// Package tiledbstore archives fitted records into a sparse TileDB array,
// keyed on integration-start time and range gate. It is an optional sink —
// nothing in the fitacf3 core or the cmd/fitacf3 CLI requires it; a caller
// wires it in when it wants queryable long-term storage for fit output
// instead of (or in addition to) DMAP files.
//
// Adapted from github.com/sixy6e/go-gsf's schema.go/tiledb.go: the same
// stagparser-tag-driven attribute construction and filter-pipeline
// plumbing, trimmed to the three datatypes and one compression filter this
// package's RangeRow actually needs, and retargeted from dense ping/beam
// arrays to a sparse (time, range) keyed array of fit results.
package tiledbstore

import (
	"errors"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"

	"github.com/sdarn/fitacf3"
)

var (
	ErrCreateAttr   = errors.New("tiledbstore: error creating attribute")
	ErrCreateSchema = errors.New("tiledbstore: error creating schema")
	ErrUnknownDtype = errors.New("tiledbstore: unsupported dtype tag")
	ErrUnknownFilt  = errors.New("tiledbstore: unsupported filter tag")
)

// RangeRow is one archived (time, range) observation. Field tags drive
// CreateAttr the same way the teacher's ping/beam structs do: `tiledb`
// names the TileDB datatype, `filters` names the compression pipeline.
type RangeRow struct {
	Velocity       float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	VelocityError  float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	PowerLinDB     float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	PowerQuadDB    float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	WidthLinear    float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	WidthQuadratic float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	Elevation      float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	ElevationLow   float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	ElevationHigh  float32 `tiledb:"dtype=float32" filters:"zstd(level=16)"`
	Quality        int16   `tiledb:"dtype=int16" filters:"zstd(level=16)"`
	Ground         int16   `tiledb:"dtype=int16" filters:"zstd(level=16)"`
	NumLags        int32   `tiledb:"dtype=int32" filters:"zstd(level=16)"`
}

// dtype maps a field's `tiledb:"dtype=..."` tag to a TileDB datatype. Only
// the three types RangeRow actually uses are supported; anything else is a
// programmer error in the struct definition, not a runtime data problem.
func dtype(name string) (tiledb.Datatype, error) {
	switch name {
	case "int16":
		return tiledb.TILEDB_INT16, nil
	case "int32":
		return tiledb.TILEDB_INT32, nil
	case "float32":
		return tiledb.TILEDB_FLOAT32, nil
	default:
		return 0, ErrUnknownDtype
	}
}

// buildFilterList turns a field's `filters:"..."` tag into a TileDB filter
// pipeline. Only the zstd filter is wired — the rest of the teacher's
// catalogue (gzip, lz4, rle, bitshuffle, ...) has no RangeRow field asking
// for it.
func buildFilterList(ctx *tiledb.Context, defs []stgpsr.Definition) (*tiledb.FilterList, error) {
	fl, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		switch d.Name() {
		case "zstd":
			levelAttr, ok := d.Attribute("level")
			level := int32(16)
			if ok {
				level = int32(levelAttr.(int64))
			}
			filt, err := tiledb.NewFilter(ctx, tiledb.TILEDB_FILTER_ZSTD)
			if err != nil {
				return nil, err
			}
			if err := filt.SetOption(tiledb.TILEDB_COMPRESSION_LEVEL, level); err != nil {
				filt.Free()
				return nil, err
			}
			if err := fl.AddFilter(filt); err != nil {
				filt.Free()
				return nil, err
			}
			filt.Free()
		default:
			return nil, ErrUnknownFilt
		}
	}
	return fl, nil
}

// schemaAttrs reflects over RangeRow and adds one TileDB attribute per
// exported field, tag-driven the same way the teacher's schemaAttrs does.
func schemaAttrs(schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	row := RangeRow{}
	filterDefs, err := stgpsr.ParseStruct(&row, "filters")
	if err != nil {
		return errors.Join(ErrCreateAttr, err)
	}
	tiledbDefs, err := stgpsr.ParseStruct(&row, "tiledb")
	if err != nil {
		return errors.Join(ErrCreateAttr, err)
	}

	t := reflect.TypeOf(row)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fieldTdbDefs := make(map[string]stgpsr.Definition)
		for _, d := range tiledbDefs[field.Name] {
			fieldTdbDefs[d.Name()] = d
		}
		def, ok := fieldTdbDefs["dtype"]
		if !ok {
			return errors.Join(ErrCreateAttr, errors.New("dtype tag not found on "+field.Name))
		}
		dtypeAttr, _ := def.Attribute("dtype")
		tdbType, err := dtype(dtypeAttr.(string))
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}

		fl, err := buildFilterList(ctx, filterDefs[field.Name])
		if err != nil {
			return errors.Join(ErrCreateAttr, err)
		}

		attr, err := tiledb.NewAttribute(ctx, field.Name, tdbType)
		if err != nil {
			fl.Free()
			return errors.Join(ErrCreateAttr, err)
		}
		if err := attr.SetFilterList(fl); err != nil {
			fl.Free()
			attr.Free()
			return errors.Join(ErrCreateAttr, err)
		}
		fl.Free()

		if err := schema.AddAttributes(attr); err != nil {
			attr.Free()
			return errors.Join(ErrCreateAttr, err)
		}
		attr.Free()
	}
	return nil
}

// CreateSchema builds the sparse (time, range) array schema archived fit
// records are written into: one cell per surviving range per record,
// dimensioned by integration-start time (nanosecond epoch, int64) and
// range gate (int32).
func CreateSchema(ctx *tiledb.Context) (*tiledb.ArraySchema, error) {
	domain, err := tiledb.NewDomain(ctx)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer domain.Free()

	timeDim, err := tiledb.NewDimension(ctx, "time_ns", tiledb.TILEDB_INT64,
		[]int64{0, 1 << 62}, int64(1_000_000_000))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer timeDim.Free()

	rangeDim, err := tiledb.NewDimension(ctx, "range_num", tiledb.TILEDB_INT32,
		[]int32{0, 1 << 20}, int32(100))
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	defer rangeDim.Free()

	if err := domain.AddDimensions(timeDim, rangeDim); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	schema, err := tiledb.NewArraySchema(ctx, tiledb.TILEDB_SPARSE)
	if err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetDomain(domain); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetCapacity(100_000); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetCellOrder(tiledb.TILEDB_HILBERT); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetTileOrder(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}
	if err := schema.SetAllowsDups(false); err != nil {
		return nil, errors.Join(ErrCreateSchema, err)
	}

	if err := schemaAttrs(schema, ctx); err != nil {
		return nil, err
	}

	return schema, nil
}

// CreateArray builds the on-disk (or VFS-backed) array at uri if it does
// not already exist.
func CreateArray(ctx *tiledb.Context, uri string) error {
	schema, err := CreateSchema(ctx)
	if err != nil {
		return err
	}
	defer schema.Free()
	return tiledb.CreateArray(ctx, uri, schema)
}

// Write appends one fitted record's surviving ranges as a sparse write:
// two coordinate buffers (time_ns, range_num) plus one data buffer per
// RangeRow attribute.
func Write(ctx *tiledb.Context, uri string, fitted *fitacf3.FittedRecord) error {
	arr, err := tiledb.NewArray(ctx, uri)
	if err != nil {
		return err
	}
	defer arr.Free()
	if err := arr.Open(tiledb.TILEDB_WRITE); err != nil {
		return err
	}
	defer arr.Close()

	n := len(fitted.Ranges)
	if n == 0 {
		return nil
	}

	timeNs := make([]int64, n)
	rangeNum := make([]int32, n)
	velocity := make([]float32, n)
	velocityErr := make([]float32, n)
	powerLin := make([]float32, n)
	powerQuad := make([]float32, n)
	widthLin := make([]float32, n)
	widthQuad := make([]float32, n)
	elevation := make([]float32, n)
	elevationLow := make([]float32, n)
	elevationHigh := make([]float32, n)
	quality := make([]int16, n)
	ground := make([]int16, n)
	numLags := make([]int32, n)

	stamp := fitted.Timestamp.UnixNano()
	for i, r := range fitted.Ranges {
		timeNs[i] = stamp
		rangeNum[i] = int32(r.RangeNum)
		velocity[i] = float32(r.Velocity)
		velocityErr[i] = float32(r.VelocityError)
		powerLin[i] = float32(r.PowerLinDB)
		powerQuad[i] = float32(r.PowerQuadDB)
		widthLin[i] = float32(r.WidthLinear)
		widthQuad[i] = float32(r.WidthQuadratic)
		elevation[i] = float32(r.Elevation)
		elevationLow[i] = float32(r.ElevationLow)
		elevationHigh[i] = float32(r.ElevationHigh)
		quality[i] = r.Quality
		if r.Ground {
			ground[i] = 1
		}
		numLags[i] = int32(r.NumLags)
	}

	query, err := tiledb.NewQuery(ctx, arr)
	if err != nil {
		return err
	}
	defer query.Free()
	if err := query.SetLayout(tiledb.TILEDB_UNORDERED); err != nil {
		return err
	}

	buffers := []struct {
		name string
		data any
	}{
		{"time_ns", timeNs}, {"range_num", rangeNum},
		{"Velocity", velocity}, {"VelocityError", velocityErr},
		{"PowerLinDB", powerLin}, {"PowerQuadDB", powerQuad},
		{"WidthLinear", widthLin}, {"WidthQuadratic", widthQuad},
		{"Elevation", elevation}, {"ElevationLow", elevationLow}, {"ElevationHigh", elevationHigh},
		{"Quality", quality}, {"Ground", ground}, {"NumLags", numLags},
	}
	for _, b := range buffers {
		if _, err := query.SetDataBuffer(b.name, b.data); err != nil {
			return errors.Join(errors.New("tiledbstore: setting buffer "+b.name), err)
		}
	}

	if err := query.Submit(); err != nil {
		return err
	}
	return query.Finalize()
}

// fieldIndex returns the position of the named field in RangeRow, or -1 if
// there is none. The tests use it to check RangeRow's field names.
func fieldIndex(name string) int {
	t := reflect.TypeOf(RangeRow{})
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Name == name {
			return i
		}
	}
	return -1
}
