package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/report"
	"github.com/spf13/cobra"
)

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [url]...",
		Short: "Decide whether URLs are phishing attempts",
		Long: `Detect checks one or more URLs and reports a phishing verdict for each.

Redirects are followed first. The final URL is then compared with the
denylist, searched for suspicious words and finally classified by a
Naive Bayes model trained on the configured corpus.

The exit status is 0 whenever every URL was checked, whatever the
verdicts are. Use --json and inspect the "phishing" field to script it.

Examples:
  # Check a single URL
  phishscan detect http://example.com/login

  # Check every URL in a file, 20 at a time
  phishscan detect --list urls.txt --batch 20

  # Do not touch the network
  phishscan detect --offline http://badwebsite1.com

  # Resolve through Tor and treat unresolvable URLs as phishing
  phishscan detect --tor --failure-policy closed http://example.onion

  # Save a Markdown report and record the verdicts
  phishscan detect --markdown -o report.md --save http://example.com

  # Save a JSON report and still see the result
  phishscan detect --json -o report.json --tee http://example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runDetectCmd,
	}

	cmd.Flags().StringP("list", "l", "",
		"File with one URL per line (# starts a comment)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent checks")
	cmd.Flags().Bool("tee", false,
		"With --output, also print a plain text report to stdout")

	addEngineFlags(cmd)
	addConfigFlag(cmd)
	addReportFlags(cmd)

	return cmd
}

func runDetectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	cfg.Targets = append(cfg.Targets, args...)
	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return err
	}
	if listPath != "" {
		listed, err := readTargetList(listPath)
		if err != nil {
			return err
		}
		cfg.Targets = append(cfg.Targets, listed...)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runDetect(ctx, cmd, cfg, logger)
}

// runDetect checks every target and writes the report.
func runDetect(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	progress := cmd.ErrOrStderr()

	logger.Info("starting detection",
		"targets", len(cfg.Targets),
		"batch_size", cfg.BatchSize,
		"failure_policy", cfg.FailurePolicy,
		"heuristic_mode", cfg.HeuristicMode,
		"save_to_db", cfg.SaveToDB,
	)

	engine, stopEngine, err := buildEngine(ctx, cfg, logger, progress)
	if err != nil {
		return err
	}
	defer stopEngine()

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "path", db.Path())
	}

	bp := pipeline.NewBatchProcessor(engine,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	total := len(cfg.Targets)
	results := make([]*model.Detection, total)
	start := time.Now()

	var mu sync.Mutex
	done := 0
	batchErr := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(d *model.Detection, index int) {
		results[index] = d

		mu.Lock()
		defer mu.Unlock()
		done++
		if total > 1 {
			fmt.Fprintf(progress, "[%d/%d] %s: %s\n", done, total, d.URL, d.Verdict())
		}
		if err := saveDetection(ctx, db, d); err != nil {
			logger.Error("failed to save detection", "url", d.URL, "error", err)
		}
	})

	detections := make([]*model.Detection, 0, total)
	for _, d := range results {
		if d != nil {
			detections = append(detections, d)
		}
	}
	if total > 1 {
		fmt.Fprintf(progress, "\nChecked %d of %d URLs in %s\n\n",
			len(detections), total, time.Since(start).Round(time.Millisecond))
	}

	if len(detections) > 0 {
		if err := outputDetections(cmd, cfg, detections); err != nil {
			return err
		}
	}

	if batchErr != nil {
		if errors.Is(batchErr, context.Canceled) {
			return fmt.Errorf("detection interrupted after %d of %d URLs: %w", len(detections), total, batchErr)
		}
		return batchErr
	}
	return nil
}

// saveDetection records d in db. It is a no-op when db is nil.
func saveDetection(ctx context.Context, db *database.HistoryDB, d *model.Detection) error {
	if db == nil {
		return nil
	}
	// The check may finish just as the context is cancelled; keep the record.
	return db.SaveDetection(context.WithoutCancel(ctx), d)
}

// outputDetections writes one report for a single URL, or every report
// followed by a summary for several. JSON output is always one document.
func outputDetections(cmd *cobra.Command, cfg *config.Config, detections []*model.Detection) (err error) {
	out, closeOut, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w := newReportWriter(out, cfg)
	tee, err := cmd.Flags().GetBool("tee")
	if err != nil {
		return err
	}
	if tee && cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(cmd.OutOrStdout()))
	}
	if err := writeDetections(w, cfg.JSONReport, detections); err != nil {
		return err
	}
	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", cfg.ReportFile)
	}
	return nil
}

func writeDetections(w report.Writer, jsonReport bool, detections []*model.Detection) error {
	if len(detections) == 1 {
		_, err := w.WriteDetection(detections[0])
		return err
	}
	if !jsonReport {
		for _, d := range detections {
			if _, err := w.WriteDetection(d); err != nil {
				return err
			}
		}
	}
	_, err := w.WriteSummary(detections)
	return err
}
