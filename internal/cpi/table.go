// Package cpi supplies the year → consumer price index mapping used to
// express historical damage figures in a single reference year's dollars.
// Index retrieval is owned by an external collaborator; this package only
// parses the operator-supplied table and checks coverage.
package cpi

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMissingYear reports a record year with no index entry. Callers surface
// it; the adjustment factor is never defaulted.
var ErrMissingYear = errors.New("no cpi index for year")

// Table maps a calendar year to its annual average consumer price index.
type Table map[int]float64

// Index returns the index value for year, or ErrMissingYear.
func (t Table) Index(year int) (float64, error) {
	v, ok := t[year]
	if !ok {
		return 0, fmt.Errorf("year %d: %w", year, ErrMissingYear)
	}
	return v, nil
}

// Covers verifies the table has an entry for every year in [first, last]
// inclusive. The returned error names each missing year.
func (t Table) Covers(first, last int) error {
	var missing []string
	for y := first; y <= last; y++ {
		if _, ok := t[y]; !ok {
			missing = append(missing, strconv.Itoa(y))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("cpi table missing years %s: %w", strings.Join(missing, ", "), ErrMissingYear)
	}
	return nil
}

// Years returns the covered years in ascending order.
func (t Table) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// FromCSV parses a two-column year,index table. A first row whose year column
// is not numeric is treated as a header. Blank lines are skipped.
func FromCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	table := make(Table)
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read cpi table: %w", err)
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("cpi table line %d: expected year,index", line)
		}

		year, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("cpi table line %d: parse year %q: %w", line, row[0], err)
		}
		index, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("cpi table line %d: parse index %q: %w", line, row[1], err)
		}
		if index <= 0 {
			return nil, fmt.Errorf("cpi table line %d: index for year %d must be positive, got %g", line, year, index)
		}
		table[year] = index
	}

	if len(table) == 0 {
		return nil, errors.New("cpi table has no entries")
	}
	return table, nil
}

// FromFile reads a CSV table from disk.
func FromFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cpi table: %w", err)
	}
	defer f.Close()
	return FromCSV(f)
}

// File loads a table from disk on demand. It implements pipeline.CPISource.
type File struct {
	Path string
}

func (f File) Table(_ context.Context) (Table, error) {
	return FromFile(f.Path)
}
