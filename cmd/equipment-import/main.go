// Command equipment-import runs the extraction-and-load pipeline: it parses
// an equipment usage report (PDF or plain text), upserts the records into
// PostgreSQL idempotently, and prints a verification table of committed
// totals.
//
// Usage:
//
//	equipment-import [-config tracker.yaml] [-dry-run] [-init-schema] "Equipment Usage Report.pdf"
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/ddoherty145/OPP-Equipment-Tracker/config"
	"github.com/ddoherty145/OPP-Equipment-Tracker/docpipe"
	"github.com/ddoherty145/OPP-Equipment-Tracker/load"
	"github.com/ddoherty145/OPP-Equipment-Tracker/report"
	"github.com/ddoherty145/OPP-Equipment-Tracker/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	godotenv.Load()

	var (
		cfgPath    = flag.String("config", "", "path to YAML config (optional, env overrides apply)")
		dryRun     = flag.Bool("dry-run", false, "parse and report counts without touching storage")
		initSchema = flag.Bool("init-schema", false, "apply the schema DDL before loading (dev convenience)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-config tracker.yaml] [-dry-run] <report file>\n", os.Args[0])
		return 1
	}
	path := flag.Arg(0)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)
	ctx := context.Background()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Error("config", "error", err)
		return 1
	}

	// Extract page-tagged lines. An unreadable or invalid document is fatal.
	pipe := docpipe.New(docpipe.Config{Logger: logger})
	doc, err := pipe.Extract(ctx, path)
	if err != nil {
		logger.Error("extract report", "path", path, "error", err)
		return 1
	}

	ex := report.NewParser(logger).Parse(doc)
	if ex.Empty() {
		fmt.Println("No equipment data found in report")
		printStats(ex)
		return 0
	}

	if *dryRun {
		sum, _ := load.New(nil, logger).Load(ctx, ex, load.Options{DryRun: true})
		printSummary(sum)
		printStats(ex)
		return 0
	}

	st, err := store.OpenPostgres(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		logger.Error("open store", "error", err)
		return 1
	}
	defer st.Close()

	if *initSchema {
		if err := st.EnsureSchema(ctx); err != nil {
			logger.Error("init schema", "error", err)
			return 1
		}
	}

	sum, err := load.New(load.StoreBackend(st), logger).Load(ctx, ex, load.Options{})
	if err != nil {
		logger.Error("load failed, document rolled back", "error", err)
		return 1
	}
	printSummary(sum)
	printStats(ex)

	rep, err := load.Verify(ctx, st)
	if err != nil {
		logger.Error("verify", "error", err)
		return 1
	}
	rep.Render(os.Stdout)

	return 0
}

func printSummary(sum load.Summary) {
	mode := "committed"
	if sum.DryRun {
		mode = "dry run, nothing written"
	}
	fmt.Printf("Import %s (run %s)\n", mode, sum.RunID)
	fmt.Printf("  equipment upserted: %d\n", sum.Equipment)
	fmt.Printf("  logs inserted:      %d\n", sum.LogsInserted)
	fmt.Printf("  logs skipped:       %d (already present)\n", sum.LogsSkipped)
	fmt.Printf("  rows rejected:      %d\n", sum.RowsRejected)
}

func printStats(ex *report.Extraction) {
	s := ex.Stats
	fmt.Printf("  pages: %d (%d skipped)  sections: %d  rows: %d  orphans: %d  bad dates: %d  bad numbers: %d\n",
		s.Pages, s.SkippedPages, s.Sections, s.Rows, s.Orphans, s.BadDates, s.BadNumbers)
}
