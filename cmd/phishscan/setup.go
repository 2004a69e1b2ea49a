package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/phishscan/internal/config"
	"github.com/nao1215/phishscan/internal/corpus"
	"github.com/nao1215/phishscan/internal/denylist"
	"github.com/nao1215/phishscan/internal/detector"
	"github.com/nao1215/phishscan/internal/heuristic"
	phishlog "github.com/nao1215/phishscan/internal/log"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/report"
	"github.com/nao1215/phishscan/internal/resolver"
	"github.com/nao1215/phishscan/internal/tor"
	"github.com/spf13/cobra"
)

// addConfigFlag registers --config.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")
}

// addReportFlags registers the report format and destination flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// addCorpusFlag registers --corpus.
func addCorpusFlag(cmd *cobra.Command) {
	cmd.Flags().String("corpus", "",
		"Labeled corpus file used to train the classifier (default: built-in sample)")
}

// addEngineFlags registers every flag that shapes the detection engine.
func addEngineFlags(cmd *cobra.Command) {
	// Resolution
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for resolving a single URL")
	cmd.Flags().Int("max-redirects", config.DefaultMaxRedirects,
		"Maximum number of redirects followed per URL")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent while following redirects")
	cmd.Flags().Float64("rate", 0,
		"Maximum resolution requests per second (0 = unlimited)")
	cmd.Flags().Bool("offline", false,
		"Do not contact the network; every URL is its own final URL")

	// Transport
	cmd.Flags().StringP("proxy", "x", "",
		"Resolve through a SOCKS5 proxy at the given address (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Resolve through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Decision
	cmd.Flags().String("failure-policy", string(model.FailOpen),
		"Verdict for unresolvable URLs: open (not phishing) or closed (phishing)")
	cmd.Flags().String("heuristic-mode", string(model.HeuristicStandalone),
		"How suspicious words count: standalone or corroborate")
	cmd.Flags().StringSlice("denylist-file", nil,
		"Additional denylist file, one domain per line (repeatable)")
	addCorpusFlag(cmd)

	// History
	cmd.Flags().Bool("save", false,
		"Record every detection in the history database")
	addDBDirFlag(cmd)
}

// addDBDirFlag registers --db-dir.
func addDBDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")
}

// flagChanged reports whether the flag exists on cmd and was set by the user.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig layers defaults, .env, PHISHSCAN_* variables, the config
// file and finally the flags the user set. It does not validate.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	if flagChanged(cmd, "config") {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return nil, err
		}
		cfg.ConfigFilePath = path
	}

	if err := config.LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	config.ApplyEnv(cfg)

	// An explicit path that does not exist is an error; a missing default
	// file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// applyFlags copies every flag the user set into cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flagChanged(cmd, "timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "max-redirects") {
		if cfg.MaxRedirects, err = flags.GetInt("max-redirects"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "rate") {
		if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
			return err
		}
	}

	// --tor and --offline take over from a proxy that came from the
	// environment or the config file. An explicit --proxy still conflicts.
	if flagChanged(cmd, "tor") {
		if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "offline") {
		if cfg.Offline, err = flags.GetBool("offline"); err != nil {
			return err
		}
	}
	if cfg.UseTor || cfg.Offline {
		cfg.ProxyAddress = ""
	}
	if flagChanged(cmd, "proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return err
		}
	}

	if flagChanged(cmd, "failure-policy") {
		v, err := flags.GetString("failure-policy")
		if err != nil {
			return err
		}
		if cfg.FailurePolicy, err = model.ParseFailurePolicy(v); err != nil {
			return fmt.Errorf("%w: %s", config.ErrInvalidFailurePolicy, v)
		}
	}
	if flagChanged(cmd, "heuristic-mode") {
		v, err := flags.GetString("heuristic-mode")
		if err != nil {
			return err
		}
		if cfg.HeuristicMode, err = model.ParseHeuristicMode(v); err != nil {
			return fmt.Errorf("%w: %s", config.ErrInvalidHeuristicMode, v)
		}
	}
	if flagChanged(cmd, "denylist-file") {
		files, err := flags.GetStringSlice("denylist-file")
		if err != nil {
			return err
		}
		cfg.DenylistFiles = append(cfg.DenylistFiles, files...)
	}
	if flagChanged(cmd, "corpus") {
		if cfg.CorpusFile, err = flags.GetString("corpus"); err != nil {
			return err
		}
	}

	if flagChanged(cmd, "json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "save") {
		if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
			return err
		}
	}

	if flagChanged(cmd, "db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}

	if flagChanged(cmd, "test-fraction") {
		if cfg.TestFraction, err = flags.GetFloat64("test-fraction"); err != nil {
			return err
		}
	}
	if flagChanged(cmd, "seed") {
		if cfg.Seed, err = flags.GetUint64("seed"); err != nil {
			return err
		}
	}
	return nil
}

// readTargetList reads URLs from path, one per line.
// Blank lines and lines starting with # are skipped.
func readTargetList(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return targets, nil
}

// setupLogger creates the redacting logger used by every command.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := phishlog.NewSecureLogger(w, verbose)
	slog.SetDefault(logger)
	return logger
}

// loadExamples returns the configured corpus or the built-in sample.
func loadExamples(cfg *config.Config) ([]corpus.Example, error) {
	if cfg.CorpusFile == "" {
		return corpus.Sample(), nil
	}
	examples, err := corpus.Load(cfg.CorpusFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}
	return examples, nil
}

// buildResolver picks the resolution transport. The returned stop function
// releases the embedded Tor daemon, if one was started, and is never nil.
func buildResolver(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (resolver.Resolver, func(), error) {
	noop := func() {}

	if cfg.Offline {
		logger.Info("offline mode, redirects are not followed")
		return resolver.Offline{}, noop, nil
	}

	opts := []resolver.Option{
		resolver.WithTimeout(cfg.Timeout),
		resolver.WithMaxRedirects(cfg.MaxRedirects),
		resolver.WithUserAgent(cfg.UserAgent),
		resolver.WithLogger(logger),
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, resolver.WithRateLimit(cfg.RateLimit, 1))
	}

	stop := noop
	switch {
	case cfg.ProxyAddress != "":
		client, err := tor.NewClient(cfg.ProxyAddress)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create proxy client: %w", err)
		}
		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, noop, fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
				status, cfg.ProxyAddress, status.Error())
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		opts = append(opts, resolver.WithDialContext(client.DialContext))

	case cfg.UseTor:
		client, embeddedTor, err := startEmbeddedTor(ctx, cfg, logger, progress)
		if err != nil {
			return nil, noop, err
		}
		stop = func() {
			logger.Info("stopping embedded Tor daemon")
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		opts = append(opts, resolver.WithDialContext(client.DialContext))
	}

	return resolver.NewHTTPResolver(opts...), stop, nil
}

// startEmbeddedTor starts an embedded Tor daemon and returns a client bound
// to its SOCKS port.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*tor.Client, *tor.EmbeddedTor, error) {
	fmt.Fprintln(progress, "Starting embedded Tor daemon...")
	fmt.Fprintf(progress, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embeddedTor.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}
	logger.Info("embedded Tor daemon started",
		"socks_addr", embeddedTor.SocksAddr(),
		"control_addr", embeddedTor.ControlAddr(),
	)

	client, err := embeddedTor.NewClient()
	if err != nil {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}
	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		_ = embeddedTor.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor check failed: %s: %w", status, status.Error())
	}

	fmt.Fprintf(progress, "Embedded Tor daemon started (SOCKS proxy: %s)\n\n", embeddedTor.SocksAddr())
	return client, embeddedTor, nil
}

// buildEngine assembles the detection engine described by cfg.
// The returned stop function is never nil.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, progress io.Writer) (*detector.Engine, func(), error) {
	noop := func() {}

	deny, err := denylist.Load(cfg.Denylist, cfg.DenylistFiles...)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to load denylist: %w", err)
	}
	patterns, err := heuristic.New(cfg.Heuristics...)
	if err != nil {
		return nil, noop, fmt.Errorf("invalid heuristics: %w", err)
	}

	examples, err := loadExamples(cfg)
	if err != nil {
		return nil, noop, err
	}
	m, err := detector.Build(examples)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to train classifier: %w", err)
	}
	logger.Info("classifier trained",
		"examples", m.Examples,
		"vocabulary", m.Vocabulary.Size(),
		"fingerprint", m.Fingerprint,
	)

	res, stop, err := buildResolver(ctx, cfg, logger, progress)
	if err != nil {
		return nil, noop, err
	}

	engine, err := detector.NewFromModel(res, deny, patterns, m,
		detector.WithFailurePolicy(cfg.FailurePolicy),
		detector.WithHeuristicMode(cfg.HeuristicMode),
		detector.WithLogger(logger),
	)
	if err != nil {
		stop()
		return nil, noop, err
	}
	return engine, stop, nil
}

// openOutput returns the report destination: cfg.ReportFile, or stdout
// when no file is set. The returned close function is never nil.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports contain the checked URLs, which may carry credentials in
	// query strings, so the file is owner-only.
	f, err := os.OpenFile(filepath.Clean(cfg.ReportFile), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer for the format selected in cfg.
func newReportWriter(w io.Writer, cfg *config.Config) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}

// commandContext returns the command context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
