package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
)

func rawOfType(label string) domain.RawRecord {
	return domain.RawRecord{EventType: label}
}

func TestBuildFrequency(t *testing.T) {
	t.Run("counts and shares", func(t *testing.T) {
		records := []domain.RawRecord{
			rawOfType("HAIL"), rawOfType("TORNADO"), rawOfType("HAIL"),
			rawOfType("HAIL"), rawOfType("FLOOD"), rawOfType("TORNADO"),
			rawOfType("HAIL"), rawOfType("HAIL"),
		}

		freq := BuildFrequency(records)

		assert.Equal(t, 8, freq.TotalRecords)
		require.Len(t, freq.Entries, 3)

		assert.Equal(t, "HAIL", freq.Entries[0].EventType)
		assert.Equal(t, 5, freq.Entries[0].Count)
		assert.Equal(t, 62.5, freq.Entries[0].Percent)

		assert.Equal(t, "TORNADO", freq.Entries[1].EventType)
		assert.Equal(t, 2, freq.Entries[1].Count)
		assert.Equal(t, 25.0, freq.Entries[1].Percent)

		assert.Equal(t, "FLOOD", freq.Entries[2].EventType)
		assert.Equal(t, 12.5, freq.Entries[2].Percent)
	})

	t.Run("percent rounds to one decimal", func(t *testing.T) {
		records := []domain.RawRecord{
			rawOfType("A"), rawOfType("A"), rawOfType("B"),
		}

		freq := BuildFrequency(records)

		// 2/3 and 1/3 of the dataset
		assert.Equal(t, 66.7, freq.Entries[0].Percent)
		assert.Equal(t, 33.3, freq.Entries[1].Percent)
	})

	t.Run("shares sum to roughly one hundred", func(t *testing.T) {
		var records []domain.RawRecord
		for _, label := range []string{"A", "B", "C", "D", "E", "F", "G"} {
			records = append(records, rawOfType(label))
		}

		freq := BuildFrequency(records)

		var sum float64
		for _, e := range freq.Entries {
			sum += e.Percent
		}
		assert.InDelta(t, 100.0, sum, 0.5)
	})

	t.Run("count ties keep dataset order", func(t *testing.T) {
		records := []domain.RawRecord{
			rawOfType("LATER"), rawOfType("WINNER"), rawOfType("WINNER"),
			rawOfType("LATER"), rawOfType("ALSO"),
		}

		freq := BuildFrequency(records)

		require.Len(t, freq.Entries, 3)
		assert.Equal(t, "LATER", freq.Entries[0].EventType)
		assert.Equal(t, "WINNER", freq.Entries[1].EventType)
		assert.Equal(t, "ALSO", freq.Entries[2].EventType)
	})

	t.Run("variant labels stay separate", func(t *testing.T) {
		records := []domain.RawRecord{
			rawOfType("TSTM WIND"), rawOfType("THUNDERSTORM WIND"),
		}

		freq := BuildFrequency(records)

		assert.Len(t, freq.Entries, 2)
	})

	t.Run("empty dataset", func(t *testing.T) {
		freq := BuildFrequency(nil)

		assert.Equal(t, 0, freq.TotalRecords)
		assert.Empty(t, freq.Entries)
	})
}
