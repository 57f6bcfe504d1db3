package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDamageMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected float64
	}{
		{"lowercase k", "k", 1e3},
		{"uppercase K", "K", 1e3},
		{"lowercase m", "m", 1e6},
		{"uppercase M", "M", 1e6},
		{"lowercase b", "b", 1e9},
		{"uppercase B", "B", 1e9},
		{"empty string", "", 0},
		{"plus sign", "+", 0},
		{"question mark", "?", 0},
		{"bare digit", "5", 0},
		{"hundreds code", "h", 0},
		{"whitespace around code", " K ", 1e3},
		{"multi-character garbage", "KM", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DamageMultiplier(tt.unit))
		})
	}
}

func TestDamageDollars(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		unit      string
		expected  float64
	}{
		{"thousands", 25.0, "K", 25_000.0},
		{"millions", 1.5, "M", 1_500_000.0},
		{"billions", 115.0, "B", 115_000_000_000.0},
		{"unknown code zeroes the amount", 99.0, "?", 0.0},
		{"zero magnitude", 0, "B", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DamageDollars(tt.magnitude, tt.unit))
		})
	}
}
