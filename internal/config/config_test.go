package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// TestNewConfig documents the defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default failure policy is open", func(t *testing.T) {
		t.Parallel()
		if cfg.FailurePolicy != model.FailOpen {
			t.Errorf("expected FailOpen, got %q", cfg.FailurePolicy)
		}
	})

	t.Run("default heuristic mode is standalone", func(t *testing.T) {
		t.Parallel()
		if cfg.HeuristicMode != model.HeuristicStandalone {
			t.Errorf("expected HeuristicStandalone, got %q", cfg.HeuristicMode)
		}
	})

	t.Run("built-in denylist and heuristics", func(t *testing.T) {
		t.Parallel()
		if len(cfg.Denylist) != 3 {
			t.Errorf("expected 3 denylist entries, got %v", cfg.Denylist)
		}
		if len(cfg.Heuristics) != 6 {
			t.Errorf("expected 6 heuristics, got %v", cfg.Heuristics)
		}
	})

	t.Run("default evaluation split", func(t *testing.T) {
		t.Parallel()
		if cfg.TestFraction != 0.2 || cfg.Seed != 42 {
			t.Errorf("expected 0.2/42, got %v/%d", cfg.TestFraction, cfg.Seed)
		}
	})

	t.Run("defaults validate without targets", func(t *testing.T) {
		t.Parallel()
		if err := cfg.ValidateSettings(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

func TestDefaultListsAreCopies(t *testing.T) {
	t.Parallel()

	a := DefaultDenylist()
	a[0] = "changed.example"
	if DefaultDenylist()[0] != "badwebsite1.com" {
		t.Error("DefaultDenylist returned shared storage")
	}
}

// TestConfigValidate tests one validation rule per case.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"http://example.com"}
		return cfg
	}

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "valid config", modify: func(*Config) {}},
		{name: "no targets", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative batch", modify: func(c *Config) { c.BatchSize = -1 }, want: ErrInvalidBatchSize},
		{name: "json and markdown", modify: func(c *Config) {
			c.JSONReport = true
			c.MarkdownReport = true
		}, want: ErrConflictingReportFormats},
		{name: "unknown policy", modify: func(c *Config) { c.FailurePolicy = "maybe" }, want: ErrInvalidFailurePolicy},
		{name: "empty policy means open", modify: func(c *Config) { c.FailurePolicy = "" }},
		{name: "unknown mode", modify: func(c *Config) { c.HeuristicMode = "vote" }, want: ErrInvalidHeuristicMode},
		{name: "negative rate", modify: func(c *Config) { c.RateLimit = -0.5 }, want: ErrInvalidRateLimit},
		{name: "negative redirects", modify: func(c *Config) { c.MaxRedirects = -1 }, want: ErrInvalidMaxRedirects},
		{name: "test fraction zero", modify: func(c *Config) { c.TestFraction = 0 }, want: ErrInvalidTestFraction},
		{name: "test fraction one", modify: func(c *Config) { c.TestFraction = 1 }, want: ErrInvalidTestFraction},
		{name: "tor and proxy", modify: func(c *Config) {
			c.UseTor = true
			c.ProxyAddress = "127.0.0.1:9050"
		}, want: ErrConflictingTransports},
		{name: "proxy and offline", modify: func(c *Config) {
			c.Offline = true
			c.ProxyAddress = "127.0.0.1:9050"
		}, want: ErrConflictingTransports},
		{name: "proxy alone", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFileApply(t *testing.T) {
	t.Parallel()

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		var f *File
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Denylist) != 3 {
			t.Errorf("denylist changed: %v", cfg.Denylist)
		}
	})

	t.Run("merges values", func(t *testing.T) {
		t.Parallel()
		cfg := NewConfig()
		f := &File{
			Denylist:          []string{"phish.example"},
			DenylistFiles:     []string{"/etc/phish.hosts"},
			Heuristics:        []string{"wallet"},
			CorpusFile:        "corpus.yaml",
			ResolutionFailure: "closed",
			HeuristicMode:     "corroborate",
			Proxy:             "127.0.0.1:1080",
			UserAgent:         "custom/1.0",
		}
		if err := f.Apply(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Denylist) != 4 || cfg.Denylist[3] != "phish.example" {
			t.Errorf("expected appended denylist, got %v", cfg.Denylist)
		}
		if len(cfg.Heuristics) != 1 || cfg.Heuristics[0] != "wallet" {
			t.Errorf("expected replaced heuristics, got %v", cfg.Heuristics)
		}
		if cfg.FailurePolicy != model.FailClosed {
			t.Errorf("expected FailClosed, got %q", cfg.FailurePolicy)
		}
		if cfg.HeuristicMode != model.HeuristicCorroborate {
			t.Errorf("expected corroborate, got %q", cfg.HeuristicMode)
		}
		if cfg.CorpusFile != "corpus.yaml" || cfg.ProxyAddress != "127.0.0.1:1080" || cfg.UserAgent != "custom/1.0" {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if len(cfg.DenylistFiles) != 1 {
			t.Errorf("expected one denylist file, got %v", cfg.DenylistFiles)
		}
	})

	t.Run("rejects invalid policy", func(t *testing.T) {
		t.Parallel()
		err := (&File{ResolutionFailure: "sometimes"}).Apply(NewConfig())
		if !errors.Is(err, ErrInvalidFailurePolicy) {
			t.Errorf("expected ErrInvalidFailurePolicy, got %v", err)
		}
	})

	t.Run("rejects invalid mode", func(t *testing.T) {
		t.Parallel()
		err := (&File{HeuristicMode: "weighted"}).Apply(NewConfig())
		if !errors.Is(err, ErrInvalidHeuristicMode) {
			t.Errorf("expected ErrInvalidHeuristicMode, got %v", err)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.phishscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".phishscan")

		content := `denylist:
  - phish.example
heuristics:
  - login
  - wallet
resolution_failure: closed
heuristic_mode: corroborate
proxy: 127.0.0.1:9050
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cf.Denylist) != 1 || cf.Denylist[0] != "phish.example" {
			t.Errorf("unexpected denylist: %v", cf.Denylist)
		}
		if len(cf.Heuristics) != 2 {
			t.Errorf("unexpected heuristics: %v", cf.Heuristics)
		}
		if cf.ResolutionFailure != "closed" || cf.HeuristicMode != "corroborate" {
			t.Errorf("unexpected modes: %q %q", cf.ResolutionFailure, cf.HeuristicMode)
		}
		if cf.Proxy != "127.0.0.1:9050" {
			t.Errorf("unexpected proxy: %q", cf.Proxy)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), ".phishscan")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("denylist: []"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "PHISHSCAN_CONFIG=/tmp/phishscan.yaml\nPHISHSCAN_PROXY=127.0.0.1:9150\n"
	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv(EnvConfig, "")
	t.Setenv(EnvProxy, "")
	os.Unsetenv(EnvConfig)
	os.Unsetenv(EnvProxy)

	if err := LoadEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}

	cfg := NewConfig()
	ApplyEnv(cfg)
	if cfg.ConfigFilePath != "/tmp/phishscan.yaml" {
		t.Errorf("ConfigFilePath = %q", cfg.ConfigFilePath)
	}
	if cfg.ProxyAddress != "127.0.0.1:9150" {
		t.Errorf("ProxyAddress = %q", cfg.ProxyAddress)
	}

	offline := NewConfig()
	offline.Offline = true
	ApplyEnv(offline)
	if offline.ProxyAddress != "" {
		t.Errorf("offline config picked up proxy %q", offline.ProxyAddress)
	}

	explicit := NewConfig()
	explicit.ConfigFilePath = "own.yaml"
	ApplyEnv(explicit)
	if explicit.ConfigFilePath != "own.yaml" {
		t.Errorf("explicit path overridden: %q", explicit.ConfigFilePath)
	}
}

func TestLoadEnvWithoutFiles(t *testing.T) {
	t.Parallel()

	if err := LoadEnv(filepath.Join(t.TempDir(), "none.env")); err != nil {
		t.Errorf("expected missing files to be ignored, got %v", err)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for _, dir := range []string{XDGDataDir(), XDGConfigDir()} {
		if !strings.HasSuffix(dir, AppName) {
			t.Errorf("expected %q to end with %q", dir, AppName)
		}
	}
}
