package analysis

import (
	"time"

	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
)

// Report is the complete output of one analysis run.
type Report struct {
	GeneratedAt      time.Time `json:"generated_at"`
	ReferenceYear    int       `json:"reference_year"`
	FirstYear        int       `json:"first_year"`
	LastYear         int       `json:"last_year"`
	RecordCount      int       `json:"record_count"`
	EventTypeCount   int       `json:"event_type_count"`
	CorrectedRecords int       `json:"corrected_records"`

	Frequency       *Frequency `json:"frequency"`
	Harm            *Table     `json:"harm"`
	HarmPerRecord   *Table     `json:"harm_per_record"`
	Damage          *Table     `json:"damage"`
	DamagePerRecord *Table     `json:"damage_per_record"`
}

// BuildReport aggregates adjusted records into the full report document,
// stamped through the domain clock. corrected is the number of outlier
// rewrites applied upstream; workers > 1 aggregates in parallel.
func BuildReport(records []domain.AdjustedRecord, freq *Frequency, referenceYear, corrected, workers int) *Report {
	harm, damage := AggregateParallel(records, freq, workers)

	var firstYear, lastYear int
	for i := range records {
		y := records[i].Year()
		if firstYear == 0 || y < firstYear {
			firstYear = y
		}
		if y > lastYear {
			lastYear = y
		}
	}

	return &Report{
		GeneratedAt:      domain.Now(),
		ReferenceYear:    referenceYear,
		FirstYear:        firstYear,
		LastYear:         lastYear,
		RecordCount:      len(records),
		EventTypeCount:   len(freq.Entries),
		CorrectedRecords: corrected,
		Frequency:        freq,
		Harm:             harm,
		HarmPerRecord:    harm.PerRecord(),
		Damage:           damage,
		DamagePerRecord:  damage.PerRecord(),
	}
}
