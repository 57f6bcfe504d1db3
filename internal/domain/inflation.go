package domain

import (
	"fmt"
	"math"

	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
)

// Adjuster restates damage figures in reference-year dollars using the ratio
// of annual consumer price indexes. A year's factor is CPI[year]/CPI[reference];
// dividing a nominal amount by its factor expresses it in reference-year
// terms, and the reference year's own factor is exactly 1.
type Adjuster struct {
	Table         cpi.Table
	ReferenceYear int
}

// NewAdjuster builds an adjuster pinned to the given reference year. It fails
// when the table has no entry for that year, since every factor divides by it.
func NewAdjuster(table cpi.Table, referenceYear int) (Adjuster, error) {
	if _, err := table.Index(referenceYear); err != nil {
		return Adjuster{}, fmt.Errorf("reference year: %w", err)
	}
	return Adjuster{Table: table, ReferenceYear: referenceYear}, nil
}

// Factor returns CPI[year] / CPI[reference]. A missing year is an error,
// never a silent factor of 1.
func (a Adjuster) Factor(year int) (float64, error) {
	yearIndex, err := a.Table.Index(year)
	if err != nil {
		return 0, err
	}
	refIndex, err := a.Table.Index(a.ReferenceYear)
	if err != nil {
		return 0, fmt.Errorf("reference year: %w", err)
	}
	return yearIndex / refIndex, nil
}

// Adjust restates one record's damage in reference-year dollars. Property and
// crop are adjusted and rounded to cents independently, and the adjusted total
// is the sum of the rounded parts so the report's columns always reconcile.
func (a Adjuster) Adjust(rec NormalizedRecord) (AdjustedRecord, error) {
	factor, err := a.Factor(rec.Year())
	if err != nil {
		return AdjustedRecord{}, fmt.Errorf("adjust %s record from %d: %w", rec.EventType, rec.Year(), err)
	}

	property := round2(rec.PropertyDollars / factor)
	crop := round2(rec.CropDollars / factor)

	return AdjustedRecord{
		NormalizedRecord: rec,
		PropertyAdjusted: property,
		CropAdjusted:     crop,
		TotalAdjusted:    property + crop,
	}, nil
}

// AdjustAll adjusts a batch, preserving input order. The first record whose
// year is missing from the table aborts the whole batch.
func (a Adjuster) AdjustAll(recs []NormalizedRecord) ([]AdjustedRecord, error) {
	out := make([]AdjustedRecord, len(recs))
	for i, rec := range recs {
		adjusted, err := a.Adjust(rec)
		if err != nil {
			return nil, err
		}
		out[i] = adjusted
	}
	return out, nil
}

// round2 rounds to cents, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
