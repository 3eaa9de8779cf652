// Package dmap implements the DMAP binary container: a sequence of
// field-tagged records, each holding named scalars and named
// row-major arrays. It is the ambient wire codec the fitacf3 core
// treats as an opaque collaborator (spec.md 1, 6) — this package
// knows the byte layout; fitacf3 only ever sees *fitacf3.RawRecord.
//
// Grounded on original_source/src/dmap.rs (RawDmapRead/RawDmapScalar/
// RawDmapArray) and original_source/src/utils/dmap.rs.
package dmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// typeKey mirrors the original's numeric DmapType tag byte.
type typeKey int8

const (
	typeDMAP   typeKey = 0
	typeChar   typeKey = 1
	typeShort  typeKey = 2
	typeInt    typeKey = 3
	typeFloat  typeKey = 4
	typeDouble typeKey = 8
	typeString typeKey = 9
	typeLong   typeKey = 10
	typeUChar  typeKey = 16
	typeUShort typeKey = 17
	typeUInt   typeKey = 18
	typeULong  typeKey = 19
)

func validKey(k typeKey) bool {
	switch k {
	case typeDMAP, typeChar, typeShort, typeInt, typeFloat, typeDouble,
		typeString, typeLong, typeUChar, typeUShort, typeUInt, typeULong:
		return true
	}
	return false
}

// Array is one named, row-major, multi-dimensional array field.
type Array struct {
	Name string
	Dims []int32
	Data any // one of []int8 []int16 []int32 []int64 []uint8 []uint16 []uint32 []uint64 []float32 []float64 []string
}

// Record is one decoded DMAP record: a flat set of named scalars plus a
// flat set of named arrays (spec.md 6).
type Record struct {
	Scalars map[string]any
	Arrays  map[string]Array
}

// Decoder reads successive DMAP records from an underlying stream.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads one record, or returns io.EOF once the stream is exhausted.
func (d *Decoder) Next() (*Record, error) {
	code, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	size, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("dmap: record size %d is non-positive, stream likely corrupt (code %d)", size, code)
	}

	numScalars, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	numArrays, err := d.readInt32()
	if err != nil {
		return nil, err
	}
	if numScalars < 0 || numArrays < 0 {
		return nil, fmt.Errorf("dmap: negative scalar/array count")
	}

	rec := &Record{
		Scalars: make(map[string]any, numScalars),
		Arrays:  make(map[string]Array, numArrays),
	}

	for i := int32(0); i < numScalars; i++ {
		name, value, err := d.readScalar()
		if err != nil {
			return nil, fmt.Errorf("dmap: scalar %d: %w", i, err)
		}
		rec.Scalars[name] = value
	}
	for i := int32(0); i < numArrays; i++ {
		arr, err := d.readArray()
		if err != nil {
			return nil, fmt.Errorf("dmap: array %d: %w", i, err)
		}
		rec.Arrays[arr.Name] = arr
	}
	return rec, nil
}

func (d *Decoder) readScalar() (string, any, error) {
	name, err := d.readString()
	if err != nil {
		return "", nil, err
	}
	keyByte, err := d.r.ReadByte()
	if err != nil {
		return "", nil, err
	}
	key := typeKey(int8(keyByte))
	if !validKey(key) {
		return "", nil, fmt.Errorf("bad scalar type key %d", key)
	}
	value, err := d.readValue(key)
	return name, value, err
}

func (d *Decoder) readArray() (Array, error) {
	name, err := d.readString()
	if err != nil {
		return Array{}, err
	}
	keyByte, err := d.r.ReadByte()
	if err != nil {
		return Array{}, err
	}
	key := typeKey(int8(keyByte))
	if !validKey(key) {
		return Array{}, fmt.Errorf("bad array type key %d", key)
	}
	ndims, err := d.readInt32()
	if err != nil {
		return Array{}, err
	}
	dims := make([]int32, ndims)
	total := int64(1)
	for i := range dims {
		v, err := d.readInt32()
		if err != nil {
			return Array{}, err
		}
		dims[i] = v
		total *= int64(v)
	}

	data, err := d.readValues(key, total)
	if err != nil {
		return Array{}, err
	}
	return Array{Name: name, Dims: dims, Data: data}, nil
}

func (d *Decoder) readValue(key typeKey) (any, error) {
	switch key {
	case typeChar:
		v, err := d.r.ReadByte()
		return int8(v), err
	case typeUChar:
		return d.r.ReadByte()
	case typeShort:
		var v int16
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeUShort:
		var v uint16
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeInt:
		var v int32
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeUInt:
		var v uint32
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeLong:
		var v int64
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeULong:
		var v uint64
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeFloat:
		var v float32
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeDouble:
		var v float64
		err := binary.Read(d.r, binary.LittleEndian, &v)
		return v, err
	case typeString:
		return d.readString()
	default:
		return nil, fmt.Errorf("unsupported scalar type key %d", key)
	}
}

// readValues reads n homogeneous values of the given type into a typed
// slice, for array payloads.
func (d *Decoder) readValues(key typeKey, n int64) (any, error) {
	switch key {
	case typeChar:
		out := make([]int8, n)
		for i := range out {
			v, err := d.r.ReadByte()
			if err != nil {
				return nil, err
			}
			out[i] = int8(v)
		}
		return out, nil
	case typeUChar:
		out := make([]uint8, n)
		_, err := io.ReadFull(d.r, out)
		return out, err
	case typeShort:
		out := make([]int16, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeUShort:
		out := make([]uint16, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeInt:
		out := make([]int32, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeUInt:
		out := make([]uint32, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeLong:
		out := make([]int64, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeULong:
		out := make([]uint64, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeFloat:
		out := make([]float32, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeDouble:
		out := make([]float64, n)
		err := binary.Read(d.r, binary.LittleEndian, &out)
		return out, err
	case typeString:
		out := make([]string, n)
		for i := range out {
			s, err := d.readString()
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported array type key %d", key)
	}
}

func (d *Decoder) readString() (string, error) {
	s, err := d.r.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func (d *Decoder) readInt32() (int32, error) {
	var v int32
	err := binary.Read(d.r, binary.LittleEndian, &v)
	return v, err
}

// Encoder writes Records back out in the same code/size/scalars/arrays
// framing Decoder reads (spec.md 6).
type Encoder struct {
	w *bufio.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Write serializes one record and flushes it. code is the DMAP record-type
// tag written into the record header; Decoder does not keep the code it
// reads, so the caller chooses it (cmd/fitacf3 writes 1).
func (e *Encoder) Write(rec *Record, code int32) error {
	buf := &countingBuffer{}
	body := bufio.NewWriter(buf)

	for name, v := range rec.Scalars {
		if err := writeScalar(body, name, v); err != nil {
			return err
		}
	}
	for name, arr := range rec.Arrays {
		if err := writeArray(body, name, arr); err != nil {
			return err
		}
	}
	if err := body.Flush(); err != nil {
		return err
	}

	size := int32(len(buf.data)) + 16
	if err := binary.Write(e.w, binary.LittleEndian, code); err != nil {
		return err
	}
	if err := binary.Write(e.w, binary.LittleEndian, size); err != nil {
		return err
	}
	if err := binary.Write(e.w, binary.LittleEndian, int32(len(rec.Scalars))); err != nil {
		return err
	}
	if err := binary.Write(e.w, binary.LittleEndian, int32(len(rec.Arrays))); err != nil {
		return err
	}
	if _, err := e.w.Write(buf.data); err != nil {
		return err
	}
	return e.w.Flush()
}

type countingBuffer struct{ data []byte }

func (b *countingBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func writeString(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.WriteByte(0)
}

func scalarKey(v any) (typeKey, error) {
	switch v.(type) {
	case int8:
		return typeChar, nil
	case uint8:
		return typeUChar, nil
	case int16:
		return typeShort, nil
	case uint16:
		return typeUShort, nil
	case int32:
		return typeInt, nil
	case uint32:
		return typeUInt, nil
	case int64:
		return typeLong, nil
	case uint64:
		return typeULong, nil
	case float32:
		return typeFloat, nil
	case float64:
		return typeDouble, nil
	case string:
		return typeString, nil
	default:
		return 0, fmt.Errorf("unsupported scalar go type %T", v)
	}
}

func writeScalar(w *bufio.Writer, name string, v any) error {
	if err := writeString(w, name); err != nil {
		return err
	}
	key, err := scalarKey(v)
	if err != nil {
		return err
	}
	if err := w.WriteByte(byte(int8(key))); err != nil {
		return err
	}
	return writeScalarValue(w, key, v)
}

func writeScalarValue(w *bufio.Writer, key typeKey, v any) error {
	if key == typeString {
		return writeString(w, v.(string))
	}
	return binary.Write(w, binary.LittleEndian, v)
}

func arrayKeyAndLen(data any) (typeKey, int, error) {
	switch v := data.(type) {
	case []int8:
		return typeChar, len(v), nil
	case []uint8:
		return typeUChar, len(v), nil
	case []int16:
		return typeShort, len(v), nil
	case []uint16:
		return typeUShort, len(v), nil
	case []int32:
		return typeInt, len(v), nil
	case []uint32:
		return typeUInt, len(v), nil
	case []int64:
		return typeLong, len(v), nil
	case []uint64:
		return typeULong, len(v), nil
	case []float32:
		return typeFloat, len(v), nil
	case []float64:
		return typeDouble, len(v), nil
	case []string:
		return typeString, len(v), nil
	default:
		return 0, 0, fmt.Errorf("unsupported array go type %T", data)
	}
}

func writeArray(w *bufio.Writer, name string, arr Array) error {
	if err := writeString(w, name); err != nil {
		return err
	}
	key, _, err := arrayKeyAndLen(arr.Data)
	if err != nil {
		return err
	}
	if err := w.WriteByte(byte(int8(key))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(arr.Dims))); err != nil {
		return err
	}
	for _, d := range arr.Dims {
		if err := binary.Write(w, binary.LittleEndian, d); err != nil {
			return err
		}
	}
	if key == typeString {
		for _, s := range arr.Data.([]string) {
			if err := writeString(w, s); err != nil {
				return err
			}
		}
		return nil
	}
	return binary.Write(w, binary.LittleEndian, arr.Data)
}
