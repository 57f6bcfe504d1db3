// Command validate performs preflight integrity checks on the analysis
// inputs: the storm events CSV and the annual CPI table. It verifies that the
// CSV parses, surveys the damage exponent codes, confirms CPI coverage for
// the observed year span, and scans for implausible damage encodings.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data data/storm_events.csv.bz2 \
//	  -cpi data/cpi_annual.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
	"github.com/couchcryptid/storm-impact-analysis/internal/loader"
)

// maxPlausibleDamage flags single records whose decoded damage exceeds the
// costliest US disaster on record by a wide margin.
const maxPlausibleDamage = 100e9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataPath := flag.String("data", "", "path to the storm events CSV (plain or .bz2)")
	cpiPath := flag.String("cpi", "", "path to the annual CPI CSV")
	flag.Parse()

	if *dataPath == "" || *cpiPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataPath, *cpiPath); code != 0 {
		os.Exit(code)
	}
}

func run(dataPath, cpiPath string) int {
	// ── Load inputs ──
	fmt.Println("=== Storm Impact Input Validation ===")
	fmt.Println()

	records, err := loader.File{Path: dataPath}.Records(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load storm events: %v\n", err)
		return 1
	}

	table, err := cpi.FromFile(cpiPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load cpi table: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateStormData(records),
		validateDamageEncoding(records),
		validateCPICoverage(records, table),
		validateOutliers(records),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	first, last := domain.YearSpan(records)
	fmt.Println()
	fmt.Printf("Records: %d storm rows (%d-%d), %d CPI years\n", len(records), first, last, len(table))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Storm CSV ──
// Validates that the file holds usable records with a sane year span.

func validateStormData(records []domain.RawRecord) *phase {
	p := &phase{name: "Phase 1: Storm CSV (parse + span)"}

	if len(records) == 0 {
		p.errorf("no records parsed")
		return p
	}

	first, last := domain.YearSpan(records)
	if first < 1950 {
		p.errorf("first year %d predates the NOAA collection start (1950)", first)
	}
	if last > 2100 {
		p.errorf("last year %d is implausible", last)
	}

	var missingType int
	for i := range records {
		if records[i].EventType == "" {
			missingType++
		}
	}
	if missingType > 0 {
		p.errorf("%d record(s) with empty EVTYPE", missingType)
	}

	return p
}

// ── Phase 2: Damage Encoding ──
// Surveys exponent codes and flags rows whose dollars would silently decode
// to zero despite a non-zero magnitude.

func validateDamageEncoding(records []domain.RawRecord) *phase {
	p := &phase{name: "Phase 2: Damage encoding census"}

	propertyCodes := map[string]int{}
	cropCodes := map[string]int{}
	propertyLost := map[string]int{}
	cropLost := map[string]int{}

	for i := range records {
		r := &records[i]
		propertyCodes[r.PropertyUnit]++
		cropCodes[r.CropUnit]++

		if r.PropertyMagnitude > 0 && domain.DamageMultiplier(r.PropertyUnit) == 0 {
			propertyLost[r.PropertyUnit]++
		}
		if r.CropMagnitude > 0 && domain.DamageMultiplier(r.CropUnit) == 0 {
			cropLost[r.CropUnit]++
		}
	}

	fmt.Printf("  Note: property unit codes: %s\n", formatCodeCensus(propertyCodes))
	fmt.Printf("  Note: crop unit codes: %s\n", formatCodeCensus(cropCodes))

	for _, code := range sortedCodeKeys(propertyLost) {
		p.errorf("property: %d row(s) with magnitude but undecodable unit %q (counted as $0)",
			propertyLost[code], code)
	}
	for _, code := range sortedCodeKeys(cropLost) {
		p.errorf("crop: %d row(s) with magnitude but undecodable unit %q (counted as $0)",
			cropLost[code], code)
	}

	return p
}

// ── Phase 3: CPI Coverage ──
// Validates that every observed calendar year has a CPI index.

func validateCPICoverage(records []domain.RawRecord, table cpi.Table) *phase {
	p := &phase{name: "Phase 3: CPI coverage"}

	if len(records) == 0 {
		p.errorf("no records to derive a year span from")
		return p
	}

	first, last := domain.YearSpan(records)
	if err := table.Covers(first, last); err != nil {
		p.errorf("%v", err)
	}
	if _, err := table.Index(last); err == nil {
		fmt.Printf("  Note: reference year for adjustment is %d\n", last)
	}

	return p
}

// ── Phase 4: Known Outliers ──
// Applies the published corrections and flags any record whose damage still
// exceeds the plausibility ceiling.

func validateOutliers(records []domain.RawRecord) *phase {
	p := &phase{name: "Phase 4: Outlier scan"}

	normalized := domain.NormalizeAll(records)
	corrected := domain.CorrectKnownOutliers(normalized)
	if corrected > 0 {
		fmt.Printf("  Note: %d record(s) matched a known encoding error and were corrected\n", corrected)
	}

	for i := range normalized {
		r := &normalized[i]
		if r.PropertyDollars > maxPlausibleDamage {
			p.errorf("%s %d: property damage $%.0f exceeds plausibility ceiling (magnitude=%g unit=%q)",
				r.EventType, r.Year(), r.PropertyDollars, r.PropertyMagnitude, r.PropertyUnit)
		}
		if r.CropDollars > maxPlausibleDamage {
			p.errorf("%s %d: crop damage $%.0f exceeds plausibility ceiling (magnitude=%g unit=%q)",
				r.EventType, r.Year(), r.CropDollars, r.CropMagnitude, r.CropUnit)
		}
	}

	return p
}

// ── Helpers ──

func formatCodeCensus(codes map[string]int) string {
	out := ""
	for i, code := range sortedCodeKeys(codes) {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%q=%d", code, codes[code])
	}
	return out
}

func sortedCodeKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
