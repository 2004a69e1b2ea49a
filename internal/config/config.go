package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/phishscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"

	// DefaultTimeout bounds a single URL resolution including redirects.
	DefaultTimeout = 10 * time.Second

	// DefaultBatchSize is the number of URLs checked concurrently.
	DefaultBatchSize = 10

	// DefaultMaxRedirects is the number of redirects followed before the
	// last response is taken as final.
	DefaultMaxRedirects = 10

	// DefaultUserAgent identifies phishscan in resolution requests.
	DefaultUserAgent = "phishscan/1.0 (+https://github.com/nao1215/phishscan)"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultTestFraction is the share of the corpus held out by "train".
	DefaultTestFraction = 0.2

	// DefaultSeed seeds the evaluation shuffle.
	DefaultSeed uint64 = 42
)

// DefaultDenylist returns the built-in denylisted domains.
func DefaultDenylist() []string {
	return []string{"badwebsite1.com", "evilphisher.org", "malicious-site.biz"}
}

// DefaultHeuristics returns the built-in suspicious URL tokens.
func DefaultHeuristics() []string {
	return []string{"secure", "login", "account", "verify", "update", "signin"}
}

// Config holds all configuration options for phishscan.
// It is populated from the config file and CLI flags and passed through the
// application rather than kept in global state.
type Config struct {
	// Targets is the list of URLs to check.
	Targets []string

	// Timeout bounds each URL resolution.
	Timeout time.Duration

	// BatchSize is the number of concurrent checks when several URLs are given.
	BatchSize int

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// ConfigFilePath is an explicit path to the configuration file.
	// If empty, .phishscan is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// FailurePolicy decides the verdict for URLs that cannot be resolved.
	FailurePolicy model.FailurePolicy

	// HeuristicMode decides whether a lexical hit needs classifier agreement.
	HeuristicMode model.HeuristicMode

	// Denylist holds denylisted domains. Entries are canonicalized on load.
	Denylist []string

	// DenylistFiles are plain or hosts-format files with additional entries.
	DenylistFiles []string

	// Heuristics holds the suspicious URL tokens.
	Heuristics []string

	// CorpusFile is a YAML training corpus. Empty means the built-in sample.
	CorpusFile string

	// ProxyAddress routes resolution through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes resolution through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// Offline skips network resolution and treats every URL as final.
	Offline bool

	// RateLimit caps resolution requests per second. Zero disables pacing.
	RateLimit float64

	// MaxRedirects is the number of redirects followed per URL.
	MaxRedirects int

	// UserAgent is sent with resolution requests.
	UserAgent string

	// DBDir is the directory holding the history database.
	DBDir string

	// SaveToDB stores every detection in the history database.
	SaveToDB bool

	// TestFraction is the share of the corpus held out by "train".
	TestFraction float64

	// Seed seeds the evaluation shuffle.
	Seed uint64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		BatchSize:         DefaultBatchSize,
		FailurePolicy:     model.FailOpen,
		HeuristicMode:     model.HeuristicStandalone,
		Denylist:          DefaultDenylist(),
		Heuristics:        DefaultHeuristics(),
		TorStartupTimeout: DefaultTorStartupTimeout,
		MaxRedirects:      DefaultMaxRedirects,
		UserAgent:         DefaultUserAgent,
		DBDir:             XDGDataDir(),
		TestFraction:      DefaultTestFraction,
		Seed:              DefaultSeed,
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// On Linux: ~/.local/share/phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
// On Linux: ~/.config/phishscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks a configuration used for detection.
// It requires at least one target in addition to ValidateSettings.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.ValidateSettings()
}

// ValidateSettings checks every option except the target list.
// It returns the first problem found.
func (c *Config) ValidateSettings() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if _, err := model.ParseFailurePolicy(string(c.FailurePolicy)); err != nil {
		return ErrInvalidFailurePolicy
	}
	if _, err := model.ParseHeuristicMode(string(c.HeuristicMode)); err != nil {
		return ErrInvalidHeuristicMode
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxRedirects < 0 {
		return ErrInvalidMaxRedirects
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return ErrInvalidTestFraction
	}

	transports := 0
	for _, on := range []bool{c.UseTor, c.ProxyAddress != "", c.Offline} {
		if on {
			transports++
		}
	}
	if transports > 1 {
		return ErrConflictingTransports
	}
	return nil
}
