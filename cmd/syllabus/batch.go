package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/syllabus-tracker/internal/core"
	"github.com/joseph-ayodele/syllabus-tracker/internal/export"
	"github.com/joseph-ayodele/syllabus-tracker/internal/ingest"
	repo "github.com/joseph-ayodele/syllabus-tracker/internal/repository"
)

type batchFlags struct {
	dir     string
	out     string
	inmem   bool
	fromStr string
	toStr   string
	workers int
}

func newBatchCmd(a *app) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Ingest a directory of syllabi, extract them, and export important dates to XLSX",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, a, f)
		},
	}
	cmd.Flags().StringVar(&f.dir, "dir", "", "directory to process syllabi from (required)")
	cmd.Flags().StringVar(&f.out, "out", "", "output XLSX file path (optional, defaults to parent directory)")
	cmd.Flags().BoolVar(&f.inmem, "inmem", false, "use in-memory SQLite database")
	cmd.Flags().StringVar(&f.fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&f.toStr, "to", "", "to date YYYY-MM-DD")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel extractions (defaults to queue.workers)")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func parseDateFlag(name, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s date format, use YYYY-MM-DD: %w", name, err)
	}
	return &t, nil
}

func runBatch(cmd *cobra.Command, a *app, f *batchFlags) error {
	ctx := cmd.Context()
	logger := a.logger

	if f.out == "" {
		f.out = filepath.Join(filepath.Dir(filepath.Clean(f.dir)), "important_dates.xlsx")
	}
	from, err := parseDateFlag("from", f.fromStr)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("to", f.toStr)
	if err != nil {
		return err
	}
	workers := f.workers
	if workers <= 0 {
		workers = a.cfg.Queue.Workers
	}

	dbResult, err := repo.InitDatabase(ctx, a.cfg.Database, f.inmem, logger)
	if err != nil {
		return err
	}
	defer dbResult.Cleanup()
	db := dbResult.DB

	syllabi := repo.NewSyllabusRepository(db, logger)
	extractions := repo.NewExtractionRepository(db, logger)
	dates := repo.NewImportantDateRepository(db, logger)

	processor := core.NewProcessor(logger, a.extractor(), syllabi, extractions, nil, a.cfg.Queue.ProcessTimeout)
	projector := core.NewProjector(logger, syllabi, extractions, dates, nil)
	ingestor := ingest.NewFSIngestor(syllabi, logger)

	logger.Info("starting ingestion", "dir", f.dir)
	results, stats, err := ingestor.IngestDirectory(ctx, f.dir, true)
	if err != nil {
		return fmt.Errorf("ingest directory: %w", err)
	}

	seen := map[uuid.UUID]struct{}{}
	var ingested []uuid.UUID
	for _, r := range results {
		if r.Err != "" {
			logger.Warn("skipping file", "path", r.SourcePath, "error", r.Err)
			continue
		}
		id, err := uuid.Parse(r.SyllabusID)
		if err != nil {
			logger.Error("failed to parse syllabus ID", "syllabus_id", r.SyllabusID, "error", err)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ingested = append(ingested, id)
	}
	logger.Info("ingestion complete",
		"syllabi", len(ingested),
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	var processed, failures, created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ingested {
		g.Go(func() error {
			if _, err := processor.ProcessSyllabus(gctx, id); err != nil {
				failures.Add(1)
				return nil
			}
			processed.Add(1)
			report, err := projector.Materialize(gctx, id)
			if err != nil {
				logger.Error("failed to materialize dates", "syllabus_id", id, "error", err)
				return nil
			}
			created.Add(int64(report.Created))
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("exporting to XLSX", "output", f.out)
	xlsx, err := export.NewService(dates, logger).ExportDatesXLSX(ctx, nil, from, to)
	if err != nil {
		return fmt.Errorf("export important dates: %w", err)
	}
	if err := os.WriteFile(f.out, xlsx, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	logger.Info("batch processing complete",
		"syllabi", len(ingested),
		"processed", processed.Load(),
		"failures", failures.Load(),
		"dates_created", created.Load(),
		"output_file", f.out)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Batch processing complete!\n")
	fmt.Fprintf(out, "- Syllabi ingested: %d\n", len(ingested))
	fmt.Fprintf(out, "- Syllabi processed: %d\n", processed.Load())
	fmt.Fprintf(out, "- Failures: %d\n", failures.Load())
	fmt.Fprintf(out, "- Dates created: %d\n", created.Load())
	fmt.Fprintf(out, "- Output: %s\n", f.out)
	return nil
}
