// Command report runs the storm impact analysis once and prints the ranked
// summary tables to stdout.
//
// Usage:
//
//	go run ./cmd/report \
//	  -data data/storm_events.csv.bz2 \
//	  -cpi data/cpi_annual.csv \
//	  -top 10
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/storm-impact-analysis/internal/analysis"
	"github.com/couchcryptid/storm-impact-analysis/internal/cpi"
	"github.com/couchcryptid/storm-impact-analysis/internal/loader"
	"github.com/couchcryptid/storm-impact-analysis/internal/observability"
	"github.com/couchcryptid/storm-impact-analysis/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataPath := flag.String("data", "", "path to the storm events CSV (plain or .bz2)")
	cpiPath := flag.String("cpi", "", "path to the annual CPI CSV")
	top := flag.Int("top", 10, "rows to print per table (0 prints all)")
	asJSON := flag.Bool("json", false, "print the full report as JSON instead of tables")
	workers := flag.Int("workers", runtime.NumCPU(), "aggregation worker count")
	flag.Parse()

	if *dataPath == "" || *cpiPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -data, -cpi")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	p := pipeline.New(
		loader.File{Path: *dataPath},
		cpi.File{Path: *cpiPath},
		nil,
		logger,
		observability.NewMetrics(),
		*workers,
	)
	if err := p.Run(context.Background()); err != nil {
		return err
	}
	report := p.Report()

	if *asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		data = append(data, '\n')
		_, err = os.Stdout.Write(data)
		return err
	}

	printReport(report, *top)
	return nil
}

func printReport(report *analysis.Report, top int) {
	// Locale printer for readable thousands separators.
	p := message.NewPrinter(language.English)

	p.Printf("Storm Impact Report (%d-%d, %d dollars)\n", report.FirstYear, report.LastYear, report.ReferenceYear)
	p.Printf("Records: %d   Event types: %d   Corrected records: %d\n",
		report.RecordCount, report.EventTypeCount, report.CorrectedRecords)

	printFrequency(p, report.Frequency, top)
	printTable(p, "Population harm by event type", report.Harm, top, false)
	printTable(p, "Population harm per record", report.HarmPerRecord, top, true)
	printTable(p, "Economic damage by event type", report.Damage, top, true)
	printTable(p, "Economic damage per record", report.DamagePerRecord, top, true)
}

func printFrequency(p *message.Printer, freq *analysis.Frequency, top int) {
	entries := freq.Entries
	if top > 0 && top < len(entries) {
		entries = entries[:top]
	}

	p.Printf("\nMost frequent event types:\n")
	for i, e := range entries {
		p.Printf("%02d. %-20s  %10d  (%.1f%%)\n", i+1, e.EventType, e.Count, e.Percent)
	}
}

func printTable(p *message.Printer, title string, table *analysis.Table, top int, fractions bool) {
	rows, err := table.TopN(table.Primary, top)
	if err != nil {
		// Tables always contain their primary metric.
		log.Panicf("print %s table: %v", table.Name, err)
	}

	p.Printf("\n%s (by %s):\n", title, table.Primary)
	for i, row := range rows {
		p.Printf("%02d. %-20s  records=%d", i+1, row.EventType, row.RecordCount)
		for _, col := range table.Columns {
			if fractions {
				p.Printf("  %s=%.2f", col, row.Metrics[col].Value)
			} else {
				p.Printf("  %s=%.0f", col, row.Metrics[col].Value)
			}
		}
		p.Printf("\n")
	}
}
