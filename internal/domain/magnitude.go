package domain

import "strings"

// DamageMultiplier maps a damage exponent code to its dollar multiplier.
// The Storm Data documentation defines "K" (thousands), "M" (millions), and
// "B" (billions); the files also carry lowercase variants and a grab bag of
// undocumented codes ("+", "?", "h", bare digits, empty), all of which
// yield 0.
func DamageMultiplier(unit string) float64 {
	switch strings.TrimSpace(unit) {
	case "k", "K":
		return 1e3
	case "m", "M":
		return 1e6
	case "b", "B":
		return 1e9
	default:
		return 0
	}
}

// DamageDollars expands a (magnitude, exponent) pair to absolute dollars.
func DamageDollars(magnitude float64, unit string) float64 {
	return magnitude * DamageMultiplier(unit)
}
