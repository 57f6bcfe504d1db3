package domain

import "strings"

// The January 2006 Napa River flood is encoded in the source file with
// PROPDMG=115 and exponent "B", i.e. $115 billion, which would make a single
// California flood costlier than hurricane Katrina. The event narrative puts
// the damage "at least $70 million", so the exponent is read as millions.
const (
	outlierPropertyMagnitude = 115
	outlierPropertyUnit      = "B"
	outlierMultiplier        = 1e6
)

// Normalize expands a raw record's damage encoding into absolute dollar
// amounts and precomputes the combined harm count.
func Normalize(rec RawRecord) NormalizedRecord {
	property := DamageDollars(rec.PropertyMagnitude, rec.PropertyUnit)
	crop := DamageDollars(rec.CropMagnitude, rec.CropUnit)

	return NormalizedRecord{
		RawRecord:       rec,
		CombinedHarm:    rec.Fatalities + rec.Injuries,
		PropertyDollars: property,
		CropDollars:     crop,
		TotalDollars:    property + crop,
	}
}

// NormalizeAll maps Normalize over a batch, preserving input order.
func NormalizeAll(recs []RawRecord) []NormalizedRecord {
	out := make([]NormalizedRecord, len(recs))
	for i, rec := range recs {
		out[i] = Normalize(rec)
	}
	return out
}

// CorrectKnownOutliers rewrites the expanded property damage of every record
// carrying the Napa flood encoding error. Matching is by value, not record
// identity: any property pair of (115, "B") is corrected, and the record's
// dollar fields are re-derived from the corrected amount. The raw magnitude
// and exponent columns are left as the source published them. Returns the
// number of corrected records.
func CorrectKnownOutliers(recs []NormalizedRecord) int {
	corrected := 0
	for i := range recs {
		if !hasOutlierEncoding(recs[i].RawRecord) {
			continue
		}
		recs[i].PropertyDollars = recs[i].PropertyMagnitude * outlierMultiplier
		recs[i].TotalDollars = recs[i].PropertyDollars + recs[i].CropDollars
		corrected++
	}
	return corrected
}

// hasOutlierEncoding matches the exponent case-insensitively, mirroring how
// DamageMultiplier reads it.
func hasOutlierEncoding(rec RawRecord) bool {
	return rec.PropertyMagnitude == outlierPropertyMagnitude &&
		strings.EqualFold(strings.TrimSpace(rec.PropertyUnit), outlierPropertyUnit)
}

// YearSpan returns the earliest and latest begin-date years in the batch.
// The latest year doubles as the default inflation reference year, so that
// adjusted figures read as end-of-period dollars. Returns (0, 0) for an
// empty batch.
func YearSpan(recs []RawRecord) (first, last int) {
	for _, rec := range recs {
		y := rec.Year()
		if first == 0 || y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	return first, last
}
