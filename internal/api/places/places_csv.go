package places

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

// pointPattern matches WKT points such as "POINT (44.003277 56.331576)",
// longitude first.
var pointPattern = regexp.MustCompile(`^POINT\s*\(\s*(-?[\d.]+)\s+(-?[\d.]+)\s*\)$`)

// ParsePoint returns latitude and longitude from a WKT point.
func ParsePoint(s string) (lat, lon float64, err error) {
	m := pointPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid point %q", s)
	}
	if lon, err = strconv.ParseFloat(m[1], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}
	if lat, err = strconv.ParseFloat(m[2], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	return lat, lon, nil
}

// ParseCSV reads semicolon separated rows with the header
// id;title;description;coordinate. Columns are located by header name so
// extra columns are ignored.
func ParseCSV(r io.Reader) ([]types.PlaceInput, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("places csv: empty input")
		}
		return nil, fmt.Errorf("places csv: read header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, required := range []string{"id", "title", "description", "coordinate"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("places csv: missing column %q", required)
		}
	}

	var out []types.PlaceInput
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("places csv: line %d: %w", line, err)
		}

		id, err := strconv.Atoi(strings.TrimSpace(record[cols["id"]]))
		if err != nil {
			return nil, fmt.Errorf("places csv: line %d: invalid id: %w", line, err)
		}
		lat, lon, err := ParsePoint(record[cols["coordinate"]])
		if err != nil {
			return nil, fmt.Errorf("places csv: line %d: %w", line, err)
		}
		out = append(out, types.PlaceInput{
			ID:          id,
			Title:       strings.TrimSpace(record[cols["title"]]),
			Description: strings.TrimSpace(record[cols["description"]]),
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return out, nil
}
