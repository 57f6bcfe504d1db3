// Package analysis turns adjusted storm records into ranked per-event-type
// summary tables: a harm table (fatalities, injuries, combined) and a damage
// table (property, crop, total in reference-year dollars), plus per-record
// ratio views and the event-type frequency census.
package analysis

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-impact-analysis/internal/domain"
)

// Harm table metrics.
const (
	MetricFatalities   = "fatalities"
	MetricInjuries     = "injuries"
	MetricCombinedHarm = "combined_harm"
)

// Damage table metrics, all in reference-year dollars.
const (
	MetricPropertyDamage = "property_damage"
	MetricCropDamage     = "crop_damage"
	MetricTotalDamage    = "total_damage"
)

// Ratio views drop event types with fewer than minRatioCount records.
const minRatioCount = 5

// Metric is one column of a table row: the accumulated value and the event
// type's rank for it (1 = largest).
type Metric struct {
	Value float64 `json:"value"`
	Rank  int     `json:"rank"`
}

// Row is one event type's totals across a table's metrics. Share is the
// type's percent of all loaded records, from the frequency census.
type Row struct {
	EventType   string            `json:"event_type"`
	RecordCount int               `json:"record_count"`
	Share       float64           `json:"share_percent"`
	Metrics     map[string]Metric `json:"metrics"`
}

// Table is one family of per-event-type totals. Rows keep dataset first-seen
// order; presentation order lives in the per-metric ranks, which form a
// permutation of 1..len(Rows) for every column.
type Table struct {
	Name    string   `json:"name"`
	Primary string   `json:"primary_metric"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Aggregate accumulates the harm and damage tables in a single pass keyed by
// event-type label. Rows appear in the order their label first occurs in the
// dataset, which also serves as the tie-break for every ranking.
func Aggregate(records []domain.AdjustedRecord, freq *Frequency) (harm, damage *Table) {
	acc := newAccumulator()
	for i := range records {
		acc.add(&records[i])
	}
	return acc.tables(freq.shares())
}

// AggregateParallel produces the same tables as Aggregate using the given
// number of workers. Workers partition contiguous chunks into per-type record
// index lists; the merged lists preserve dataset order, and the final
// summation replays each type's records in that order, so the output is
// identical to the sequential path down to the last float bit. workers <= 1
// falls back to Aggregate.
func AggregateParallel(records []domain.AdjustedRecord, freq *Frequency, workers int) (harm, damage *Table) {
	if workers <= 1 || len(records) < workers {
		return Aggregate(records, freq)
	}

	groups := make([]*grouper, workers)
	chunk := (len(records) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		groups[w] = newGrouper()

		wg.Add(1)
		go func(g *grouper, lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				g.add(i, records[i].EventType)
			}
		}(groups[w], lo, hi)
	}
	wg.Wait()

	merged := groups[0]
	for _, g := range groups[1:] {
		merged.merge(g)
	}

	acc := newAccumulator()
	for _, label := range merged.order {
		for _, i := range merged.indexes[label] {
			acc.add(&records[i])
		}
	}
	return acc.tables(freq.shares())
}

// grouper partitions record indexes by event type, preserving first-seen
// label order and per-label index order.
type grouper struct {
	order   []string
	indexes map[string][]int
}

func newGrouper() *grouper {
	return &grouper{indexes: make(map[string][]int)}
}

func (g *grouper) add(i int, label string) {
	if _, ok := g.indexes[label]; !ok {
		g.order = append(g.order, label)
	}
	g.indexes[label] = append(g.indexes[label], i)
}

// merge appends h's groups onto g. Chunks are merged in dataset order, so
// index lists stay sorted and first-seen order stays global.
func (g *grouper) merge(h *grouper) {
	for _, label := range h.order {
		if _, ok := g.indexes[label]; !ok {
			g.order = append(g.order, label)
		}
		g.indexes[label] = append(g.indexes[label], h.indexes[label]...)
	}
}

// accumulator sums the six metrics per event-type label.
type accumulator struct {
	order []string
	cells map[string]*cell
}

type cell struct {
	count      int
	fatalities float64
	injuries   float64
	combined   float64
	property   float64
	crop       float64
	total      float64
}

func newAccumulator() *accumulator {
	return &accumulator{cells: make(map[string]*cell)}
}

func (a *accumulator) add(rec *domain.AdjustedRecord) {
	c, ok := a.cells[rec.EventType]
	if !ok {
		c = &cell{}
		a.cells[rec.EventType] = c
		a.order = append(a.order, rec.EventType)
	}
	c.count++
	c.fatalities += rec.Fatalities
	c.injuries += rec.Injuries
	c.combined += rec.CombinedHarm
	c.property += rec.PropertyAdjusted
	c.crop += rec.CropAdjusted
	c.total += rec.TotalAdjusted
}

func (a *accumulator) tables(shares map[string]float64) (harm, damage *Table) {
	harm = &Table{
		Name:    "harm",
		Primary: MetricCombinedHarm,
		Columns: []string{MetricFatalities, MetricInjuries, MetricCombinedHarm},
	}
	damage = &Table{
		Name:    "damage",
		Primary: MetricTotalDamage,
		Columns: []string{MetricPropertyDamage, MetricCropDamage, MetricTotalDamage},
	}

	for _, label := range a.order {
		c := a.cells[label]
		harm.Rows = append(harm.Rows, Row{
			EventType:   label,
			RecordCount: c.count,
			Share:       shares[label],
			Metrics: map[string]Metric{
				MetricFatalities:   {Value: c.fatalities},
				MetricInjuries:     {Value: c.injuries},
				MetricCombinedHarm: {Value: c.combined},
			},
		})
		damage.Rows = append(damage.Rows, Row{
			EventType:   label,
			RecordCount: c.count,
			Share:       shares[label],
			Metrics: map[string]Metric{
				MetricPropertyDamage: {Value: c.property},
				MetricCropDamage:     {Value: c.crop},
				MetricTotalDamage:    {Value: c.total},
			},
		})
	}

	rankAll(harm)
	rankAll(damage)
	return harm, damage
}

// rankAll assigns every column's ranks: 1..N by descending value, rows tying
// on value ranked in first-seen order.
func rankAll(t *Table) {
	for _, metric := range t.Columns {
		idx := make([]int, len(t.Rows))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(x, y int) bool {
			return t.Rows[idx[x]].Metrics[metric].Value > t.Rows[idx[y]].Metrics[metric].Value
		})
		for rank, i := range idx {
			m := t.Rows[i].Metrics[metric]
			m.Rank = rank + 1
			t.Rows[i].Metrics[metric] = m
		}
	}
}

// HasMetric reports whether the table carries the named column.
func (t *Table) HasMetric(metric string) bool {
	for _, c := range t.Columns {
		if c == metric {
			return true
		}
	}
	return false
}

// SortedBy returns the rows ordered by the named metric, largest first. An
// unknown metric is an error naming the valid columns.
func (t *Table) SortedBy(metric string) ([]Row, error) {
	if !t.HasMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q for %s table (have %s)",
			metric, t.Name, strings.Join(t.Columns, ", "))
	}
	rows := append([]Row(nil), t.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Metrics[metric].Rank < rows[j].Metrics[metric].Rank
	})
	return rows, nil
}

// TopN returns the first n rows by the named metric. n <= 0 or n past the end
// returns every row.
func (t *Table) TopN(metric string, n int) ([]Row, error) {
	rows, err := t.SortedBy(metric)
	if err != nil {
		return nil, err
	}
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	return rows, nil
}

// PerRecord derives the ratio view: event types with at least minRatioCount
// records, each metric divided by the type's record count, rounded to two
// decimals, and re-ranked. Metric names gain a "_per_record" suffix.
func (t *Table) PerRecord() *Table {
	out := &Table{
		Name:    t.Name + "_per_record",
		Primary: perRecordMetric(t.Primary),
	}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, perRecordMetric(c))
	}

	for _, row := range t.Rows {
		if row.RecordCount < minRatioCount {
			continue
		}
		metrics := make(map[string]Metric, len(t.Columns))
		for _, c := range t.Columns {
			metrics[perRecordMetric(c)] = Metric{
				Value: round2(row.Metrics[c].Value / float64(row.RecordCount)),
			}
		}
		out.Rows = append(out.Rows, Row{
			EventType:   row.EventType,
			RecordCount: row.RecordCount,
			Share:       row.Share,
			Metrics:     metrics,
		})
	}

	rankAll(out)
	return out
}

func perRecordMetric(name string) string {
	return name + "_per_record"
}
