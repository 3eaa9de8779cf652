package dmap

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := &Record{
		Scalars: map[string]any{
			"radar.revision.stid": int16(33),
			"tfreq":               int16(10500),
			"noise.search":        float32(1.5),
			"combf":               "self test",
		},
		Arrays: map[string]Array{
			"pwr0": {Name: "pwr0", Dims: []int32{3}, Data: []float32{1.0, 2.0, 3.0}},
			"ltab": {Name: "ltab", Dims: []int32{2, 2}, Data: []int16{0, 0, 0, 9}},
		},
	}

	var buf bytes.Buffer
	if err := NewEncoder(&buf).Write(rec, 1); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	dec := NewDecoder(&buf)
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.Scalars["radar.revision.stid"] != int16(33) {
		t.Fatalf("stid round-trip mismatch: %v", got.Scalars["radar.revision.stid"])
	}
	if got.Scalars["combf"] != "self test" {
		t.Fatalf("string scalar round-trip mismatch: %v", got.Scalars["combf"])
	}

	pwr0, ok := got.Arrays["pwr0"].Data.([]float32)
	if !ok || len(pwr0) != 3 || pwr0[1] != 2.0 {
		t.Fatalf("pwr0 array round-trip mismatch: %v", got.Arrays["pwr0"])
	}
	ltab, ok := got.Arrays["ltab"].Data.([]int16)
	if !ok || len(ltab) != 4 || ltab[3] != 9 {
		t.Fatalf("ltab array round-trip mismatch: %v", got.Arrays["ltab"])
	}
}

func TestDecoderNextReturnsEOFOnEmptyStream(t *testing.T) {
	dec := NewDecoder(bytes.NewReader(nil))
	if _, err := dec.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF on an empty stream, got %v", err)
	}
}

func TestDecoderRejectsNonPositiveRecordSize(t *testing.T) {
	var buf bytes.Buffer
	// code, size=0, numScalars=0, numArrays=0
	buf.Write([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	dec := NewDecoder(&buf)
	if _, err := dec.Next(); err == nil {
		t.Fatalf("expected an error for a non-positive record size")
	}
}
