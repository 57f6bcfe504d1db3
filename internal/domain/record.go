package domain

import "time"

// RawRecord is one row of the storm events file after column extraction.
// Damage figures are still in the publication's split encoding: a magnitude
// with at most three significant digits plus a multiplier code column.
type RawRecord struct {
	BeginDate  time.Time
	State      string
	EventType  string
	Fatalities float64
	Injuries   float64

	PropertyMagnitude float64
	PropertyUnit      string
	CropMagnitude     float64
	CropUnit          string

	Remarks string
}

// Year returns the calendar year of the event's begin date.
func (r RawRecord) Year() int {
	return r.BeginDate.Year()
}

// NormalizedRecord is a raw record with its damage encoding expanded to
// absolute dollars and the combined harm count precomputed.
type NormalizedRecord struct {
	RawRecord

	CombinedHarm    float64
	PropertyDollars float64
	CropDollars     float64
	TotalDollars    float64
}

// AdjustedRecord is a normalized record with its damage restated in
// reference-year dollars. Nominal dollar fields are retained so reports can
// show both views.
type AdjustedRecord struct {
	NormalizedRecord

	PropertyAdjusted float64
	CropAdjusted     float64
	TotalAdjusted    float64
}
