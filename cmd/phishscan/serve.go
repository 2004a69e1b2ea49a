package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/database"
	phishlog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve phishing detection over HTTP",
		Long: `Serve starts an HTTP API backed by the same detection engine as "detect".

Routes:
  GET  /healthz          liveness and model fingerprint
  POST /v1/detect        {"url": "..."}        -> one detection
  POST /v1/detect/batch  {"urls": ["...", ...]} -> detections in input order

The classifier is trained once at startup. The server stops gracefully on
SIGINT or SIGTERM.

Examples:
  # Listen on the default address
  phishscan serve

  # Offline mode on a custom port, recording every verdict
  phishscan serve --addr 127.0.0.1:9000 --offline --save

  # Write rotated JSON logs
  phishscan serve --log-file /var/log/phishscan/serve.log`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("addr", server.DefaultAddr,
		"Listen address")
	cmd.Flags().Duration("request-timeout", server.DefaultRequestTimeout,
		"Maximum time to handle one request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of URLs checked at once by the batch route")
	cmd.Flags().String("log-file", "",
		"Write JSON logs to a rotated file instead of stderr")

	addEngineFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSettings(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	flags := cmd.Flags()
	addr, err := flags.GetString("addr")
	if err != nil {
		return err
	}
	requestTimeout, err := flags.GetDuration("request-timeout")
	if err != nil {
		return err
	}
	logFile, err := flags.GetString("log-file")
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if logFile != "" {
		fw := phishlog.NewFileWriter(logFile)
		defer fw.Close()
		logger = phishlog.NewSecureJSONLogger(fw, cfg.Verbose)
		slog.SetDefault(logger)
	} else {
		logger = setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, stopEngine, err := buildEngine(ctx, cfg, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer stopEngine()

	opts := []server.Option{
		server.WithAddr(addr),
		server.WithLogger(logger),
		server.WithFingerprint(engine.Fingerprint()),
		server.WithRequestTimeout(requestTimeout),
		server.WithConcurrency(cfg.BatchSize),
	}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		opts = append(opts, server.WithRecorder(db))
	}

	srv := server.New(engine, opts...)
	fmt.Fprintf(cmd.ErrOrStderr(), "phishscan listening on %s (failure policy: %s, heuristic mode: %s)\n",
		srv.Addr(), engine.FailurePolicy(), engine.HeuristicMode())

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
