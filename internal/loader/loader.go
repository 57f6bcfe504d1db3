// Package loader reads the storm events bulk CSV into raw domain records.
// The bulk file carries 37 columns; lookup is by header name so order and
// surplus columns don't matter, and bzip2-compressed files are decompressed
// transparently.
package loader

import (
	"compress/bzip2"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
)

// beginDateLayout matches the publication's BGN_DATE column, e.g.
// "4/18/1950 0:00:00". The time portion is always midnight; the separate
// BGN_TIME column is not read.
const beginDateLayout = "1/2/2006 15:04:05"

// requiredColumns must all appear in the header. REMARKS is optional since
// trimmed extracts drop it.
var requiredColumns = []string{
	"BGN_DATE", "STATE", "EVTYPE",
	"FATALITIES", "INJURIES",
	"PROPDMG", "PROPDMGEXP", "CROPDMG", "CROPDMGEXP",
}

// cancelCheckEvery bounds how many rows are read between context checks.
const cancelCheckEvery = 1024

// Read parses storm event records from r, preserving file order. A malformed
// begin date or harm count aborts the whole load with an error naming the row.
func Read(ctx context.Context, r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Event narratives occasionally carry stray quote characters.
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("storm events file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for row := 2; ; row++ {
		if (row-2)%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		rec, err := parseRecord(idx, fields, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// headerIndex maps column names to positions and verifies the required set.
func headerIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header missing columns %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRecord(idx map[string]int, fields []string, row int) (domain.RawRecord, error) {
	get := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	beginDate, err := time.Parse(beginDateLayout, get("BGN_DATE"))
	if err != nil {
		return domain.RawRecord{}, fmt.Errorf("row %d: parse BGN_DATE %q: %w", row, get("BGN_DATE"), err)
	}

	fatalities, err := parseCount("FATALITIES", get("FATALITIES"), row)
	if err != nil {
		return domain.RawRecord{}, err
	}
	injuries, err := parseCount("INJURIES", get("INJURIES"), row)
	if err != nil {
		return domain.RawRecord{}, err
	}

	return domain.RawRecord{
		BeginDate:  beginDate,
		State:      get("STATE"),
		EventType:  get("EVTYPE"),
		Fatalities: fatalities,
		Injuries:   injuries,

		PropertyMagnitude: parseMagnitude(get("PROPDMG")),
		PropertyUnit:      get("PROPDMGEXP"),
		CropMagnitude:     parseMagnitude(get("CROPDMG")),
		CropUnit:          get("CROPDMGEXP"),

		Remarks: get("REMARKS"),
	}, nil
}

// parseCount parses a harm column. Empty is zero; anything else unparseable
// is a hard error.
func parseCount(column, value string, row int) (float64, error) {
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: parse %s %q: %w", row, column, value, err)
	}
	return v, nil
}

// parseMagnitude parses a damage magnitude column. Empty and unparseable
// values count as zero, like undocumented exponent codes.
func parseMagnitude(value string) float64 {
	if value == "" {
		return 0
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return v
}

// Open opens a storm events file, transparently decompressing when the path
// ends in .bz2. The caller closes the returned ReadCloser.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open storm events file: %w", err)
	}
	if strings.HasSuffix(path, ".bz2") {
		return &bzip2File{file: f, reader: bzip2.NewReader(f)}, nil
	}
	return f, nil
}

// bzip2File pairs a decompressing reader with the file it drains so Close
// releases the descriptor.
type bzip2File struct {
	file   *os.File
	reader io.Reader
}

func (b *bzip2File) Read(p []byte) (int, error) { return b.reader.Read(p) }
func (b *bzip2File) Close() error               { return b.file.Close() }

// File loads records from a file on disk.
type File struct {
	Path string
}

func (f File) Records(ctx context.Context) ([]domain.RawRecord, error) {
	rc, err := Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := Read(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return records, nil
}
