package planner

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultMatrixDim is the number of places covered by the bundled assets.
const DefaultMatrixDim = 258

// TravelTimes is the read-only travel-time oracle. Values are minutes and are
// normalized once, when the table is built.
type TravelTimes struct {
	dim     int
	minutes []float64
}

// ZeroTravelTimes returns a dim x dim matrix of zero durations.
func ZeroTravelTimes(dim int) *TravelTimes {
	if dim < 0 {
		dim = 0
	}
	return &TravelTimes{dim: dim, minutes: make([]float64, dim*dim)}
}

// NewTravelTimes builds an oracle from a square matrix already expressed in
// minutes. Negative entries are clamped to zero.
func NewTravelTimes(minutes [][]float64) (*TravelTimes, error) {
	dim := len(minutes)
	t := ZeroTravelTimes(dim)
	for i, row := range minutes {
		if len(row) != dim {
			return nil, fmt.Errorf("travel times: row %d has %d columns, want %d", i, len(row), dim)
		}
		for j, v := range row {
			t.minutes[i*dim+j] = clampMinutes(v)
		}
	}
	return t, nil
}

// LoadTravelTimes reads a JSON square matrix of durations in seconds. The
// seconds are floored to whole minutes here and nowhere else. On any failure a
// zero-filled matrix of size dim is returned together with an *AssetLoadError.
func LoadTravelTimes(path string, dim int) (*TravelTimes, error) {
	if dim <= 0 {
		dim = DefaultMatrixDim
	}

	t, err := readTravelTimes(path, dim)
	if err != nil {
		return ZeroTravelTimes(dim), &AssetLoadError{Asset: "travel_times", Path: path, Err: err}
	}
	return t, nil
}

func readTravelTimes(path string, dim int) (*TravelTimes, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seconds [][]float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	if len(seconds) != dim {
		return nil, fmt.Errorf("matrix has %d rows, want %d", len(seconds), dim)
	}

	t := ZeroTravelTimes(dim)
	for i, row := range seconds {
		if len(row) != dim {
			return nil, fmt.Errorf("matrix row %d has %d columns, want %d", i, len(row), dim)
		}
		for j, sec := range row {
			t.minutes[i*dim+j] = clampMinutes(math.Floor(sec / 60))
		}
	}
	return t, nil
}

// Dim is the number of places the matrix covers; valid ids are [0, Dim).
func (t *TravelTimes) Dim() int {
	return t.dim
}

// Minutes returns the travel duration from one place to another, or 0 when
// either id is outside the matrix.
func (t *TravelTimes) Minutes(from, to int) float64 {
	if from < 0 || to < 0 || from >= t.dim || to >= t.dim {
		return 0
	}
	return t.minutes[from*t.dim+to]
}

// DwellTimes maps a place id to its expected visiting duration in minutes.
type DwellTimes struct {
	minutes []float64
}

// ZeroDwellTimes returns a table where every place takes zero minutes.
func ZeroDwellTimes(dim int) *DwellTimes {
	if dim < 0 {
		dim = 0
	}
	return &DwellTimes{minutes: make([]float64, dim)}
}

// NewDwellTimes builds a table from an id -> minutes mapping. Ids outside
// [0, dim) are ignored.
func NewDwellTimes(dim int, minutes map[int]float64) *DwellTimes {
	d := ZeroDwellTimes(dim)
	for id, v := range minutes {
		if id >= 0 && id < len(d.minutes) {
			d.minutes[id] = clampMinutes(v)
		}
	}
	return d
}

// LoadDwellTimes reads a comma separated file with a header row. Data row k
// describes place k and its last field is the visiting time in minutes. Rows
// whose last field does not parse keep the zero default.
func LoadDwellTimes(path string, dim int) (*DwellTimes, error) {
	if dim <= 0 {
		dim = DefaultMatrixDim
	}

	d, err := readDwellTimes(path, dim)
	if err != nil {
		return ZeroDwellTimes(dim), &AssetLoadError{Asset: "dwell_times", Path: path, Err: err}
	}
	return d, nil
}

func readDwellTimes(path string, dim int) (*DwellTimes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	d := ZeroDwellTimes(dim)
	for id := 0; ; id++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", id, err)
		}
		if id >= dim || len(record) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[len(record)-1]), 64)
		if err != nil {
			continue
		}
		d.minutes[id] = clampMinutes(v)
	}
	return d, nil
}

// Minutes returns the dwell time for id, 0 when unknown.
func (d *DwellTimes) Minutes(id int) float64 {
	if id < 0 || id >= len(d.minutes) {
		return 0
	}
	return d.minutes[id]
}

// Len is the number of ids covered by the table.
func (d *DwellTimes) Len() int {
	return len(d.minutes)
}

func clampMinutes(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
