// Package domain models records from the NOAA National Weather Service
// Storm Data publication and the transformations that make them comparable:
// damage-exponent expansion, known-outlier correction, and CPI inflation
// adjustment.
//
// # Data Source
//
// Records come from the U.S. storm events bulk file (1950 onward), a single
// CSV distributed bzip2-compressed. Each row is one event episode with harm
// counts (FATALITIES, INJURIES) and split damage figures for property and
// crops. Event type labels (EVTYPE) are free text entered by NWS offices and
// are aggregated verbatim; there are hundreds of spelling variants.
//
// # Damage Encoding
//
// Damage is published as a magnitude column holding at most three significant
// digits plus an exponent column holding a multiplier code:
//
//	PROPDMG=25.0, PROPDMGEXP="K"  →  $25,000
//	CROPDMG=1.5,  CROPDMGEXP="M"  →  $1,500,000
//
// Documented codes, accepted in either case:
//
//	K/k  thousands (1e3)
//	M/m  millions  (1e6)
//	B/b  billions  (1e9)
//
// Everything else ("+", "?", "h", bare digits, empty) is undocumented noise
// and expands to $0. See [DamageMultiplier].
//
// # Known Data Errors
//
// The January 2006 Napa River flood carries PROPDMG=115 with exponent "B",
// i.e. $115 billion, which would rank a single county flood above hurricane
// Katrina. Its narrative estimates "at least $70 million", so the exponent is
// corrected to millions. The correction matches by value: every property pair
// of (115, "B") is rewritten, not one blessed row. See [CorrectKnownOutliers].
//
// # Inflation Adjustment
//
// Dollar amounts spanning six decades are not comparable nominally. Each
// record's damage is restated in reference-year dollars by dividing by
// CPI[year]/CPI[reference], where the reference year defaults to the
// dataset's final calendar year. Adjusted amounts are rounded to cents per
// component; a year absent from the CPI table is a hard error, never a
// silent factor of 1. See [Adjuster].
package domain
