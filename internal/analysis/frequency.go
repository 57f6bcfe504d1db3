package analysis

import (
	"math"
	"sort"

	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
)

// Frequency is the event-type census of one dataset.
type Frequency struct {
	TotalRecords int              `json:"total_records"`
	Entries      []FrequencyEntry `json:"entries"`
}

// FrequencyEntry is one event-type label's share of the dataset.
type FrequencyEntry struct {
	EventType string  `json:"event_type"`
	Count     int     `json:"count"`
	Percent   float64 `json:"percent"`
}

// BuildFrequency counts records per event-type label and derives each label's
// share of the whole dataset, rounded to one decimal place. Labels are counted
// verbatim, so spelling variants like "TSTM WIND" and "THUNDERSTORM WIND"
// remain separate entries. Entries are ordered by descending count; labels
// tying on count keep dataset first-seen order.
func BuildFrequency(records []domain.RawRecord) *Frequency {
	counts := make(map[string]int)
	var order []string
	for i := range records {
		label := records[i].EventType
		if _, ok := counts[label]; !ok {
			order = append(order, label)
		}
		counts[label]++
	}

	total := len(records)
	entries := make([]FrequencyEntry, 0, len(order))
	for _, label := range order {
		var pct float64
		if total > 0 {
			pct = round1(float64(counts[label]) / float64(total) * 100)
		}
		entries = append(entries, FrequencyEntry{EventType: label, Count: counts[label], Percent: pct})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})

	return &Frequency{TotalRecords: total, Entries: entries}
}

// shares maps event type to percent share for table rows.
func (f *Frequency) shares() map[string]float64 {
	out := make(map[string]float64, len(f.Entries))
	for _, e := range f.Entries {
		out[e.EventType] = e.Percent
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
