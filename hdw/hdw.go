// Package hdw provides the time-indexed hardware-parameters lookup
// (spec.md 4.9): per-station geometric and electrical configuration,
// embedded at build time and selected by validity window.
//
// Grounded on original_source/src/hdw/hdw.rs and original_source/src/utils/hdw.rs
// (station-id/site-name table and the hdw.dat column layout), reworked into a
// complete, idiomatic implementation — the original file is an unfinished stub.
package hdw

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed hdwdata
var dataFS embed.FS

// Entry is one time-validated hardware configuration for a station.
type Entry struct {
	StationID      int16
	ValidityStart  time.Time
	Latitude       float32
	Longitude      float32
	Altitude       float32
	Boresight      float32
	BoresightShift float32
	BeamSeparation float32
	VelocitySign   float32
	PhaseSign      float32
	TdiffA         float32
	TdiffB         float32
	IntfOffsetX    float32
	IntfOffsetY    float32
	IntfOffsetZ    float32
	RxRiseTime     float32
	RxAttenStep    float32
	AttenStages    float32
	MaxNumRanges   int16
	MaxNumBeams    int16
}

// Kind describes the failure modes a lookup can report.
type Kind int

const (
	StationNotFound Kind = iota
	NoValidityWindow
	ParseFailure
)

// Error is the hdw component's failure type (spec.md 7, Hdw(detail)).
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("hdw: %s", e.Detail)
}

// Repository holds every embedded station's entries, sorted by validity
// start ascending, loaded once at construction (spec.md 9, "global mutable
// state = none").
type Repository struct {
	entries map[int16][]Entry
}

// NewRepository parses every hdw.dat.<site> file embedded under hdwdata/.
func NewRepository() (*Repository, error) {
	repo := &Repository{entries: make(map[int16][]Entry)}

	err := fs.WalkDir(dataFS, "hdwdata", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := dataFS.ReadFile(path)
		if err != nil {
			return err
		}
		parsed, err := parseFile(path, data)
		if err != nil {
			return err
		}
		for _, e := range parsed {
			repo.entries[e.StationID] = append(repo.entries[e.StationID], e)
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Kind: ParseFailure, Detail: err.Error()}
	}

	for id, es := range repo.entries {
		sort.Slice(es, func(i, j int) bool { return es[i].ValidityStart.Before(es[j].ValidityStart) })
		repo.entries[id] = es
	}
	return repo, nil
}

// Lookup returns the entry for stationID whose validity start is the
// latest one at or before queryTime (spec.md 4.9).
func (r *Repository) Lookup(stationID int16, queryTime time.Time) (Entry, error) {
	entries, ok := r.entries[stationID]
	if !ok {
		return Entry{}, &Error{Kind: StationNotFound, Detail: fmt.Sprintf("no hdw data for station %d", stationID)}
	}

	var best *Entry
	for i := range entries {
		e := &entries[i]
		if e.ValidityStart.After(queryTime) {
			break
		}
		best = e
	}
	if best == nil {
		return Entry{}, &Error{Kind: NoValidityWindow, Detail: fmt.Sprintf("no validity window for station %d covers %s", stationID, queryTime)}
	}
	return *best, nil
}

// parseFile reads whitespace-separated rows per spec.md 6: station id; two
// throwaway tokens; validity date YYYYMMDD; validity time HH:MM:SS; lat;
// lon; alt; boresight; boresight shift; beam separation; velocity sign;
// phase sign; tdiff_a; tdiff_b; intf offsets x/y/z; rx rise; rx attenuation
// step; attenuation stages; max ranges; max beams.
func parseFile(path string, data []byte) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 23 {
			return nil, fmt.Errorf("%s:%d: expected 23 fields, got %d", path, lineNo, len(fields))
		}

		entry, err := parseRow(fields)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseRow(f []string) (Entry, error) {
	stationID, err := parseInt16(f[0])
	if err != nil {
		return Entry{}, err
	}
	validity, err := time.ParseInLocation("20060102 15:04:05", f[3]+" "+f[4], time.UTC)
	if err != nil {
		return Entry{}, err
	}

	floats := make([]float32, 0, 16)
	for _, tok := range f[5:21] {
		v, err := parseFloat32(tok)
		if err != nil {
			return Entry{}, err
		}
		floats = append(floats, v)
	}
	maxRanges, err := parseInt16(f[21])
	if err != nil {
		return Entry{}, err
	}
	maxBeams, err := parseInt16(f[22])
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		StationID:      stationID,
		ValidityStart:  validity,
		Latitude:       floats[0],
		Longitude:      floats[1],
		Altitude:       floats[2],
		Boresight:      floats[3],
		BoresightShift: floats[4],
		BeamSeparation: floats[5],
		VelocitySign:   floats[6],
		PhaseSign:      floats[7],
		TdiffA:         floats[8],
		TdiffB:         floats[9],
		IntfOffsetX:    floats[10],
		IntfOffsetY:    floats[11],
		IntfOffsetZ:    floats[12],
		RxRiseTime:     floats[13],
		RxAttenStep:    floats[14],
		AttenStages:    floats[15],
		MaxNumRanges:   maxRanges,
		MaxNumBeams:    maxBeams,
	}, nil
}

func parseInt16(s string) (int16, error) {
	v, err := strconv.ParseInt(s, 10, 16)
	return int16(v), err
}

func parseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}
