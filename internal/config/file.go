package config

import (
	"fmt"

	"github.com/nao1215/phishscan/internal/model"
)

// File represents the structure of the .phishscan configuration file.
// Empty fields leave the corresponding Config value untouched.
type File struct {
	// Denylist adds denylisted domains to the built-in list.
	Denylist []string `yaml:"denylist,omitempty"`

	// DenylistFiles are plain or hosts-format denylist files.
	DenylistFiles []string `yaml:"denylist_files,omitempty"`

	// Heuristics replaces the built-in suspicious tokens when non-empty.
	Heuristics []string `yaml:"heuristics,omitempty"`

	// CorpusFile is a YAML training corpus.
	CorpusFile string `yaml:"corpus_file,omitempty"`

	// ResolutionFailure is "open" or "closed".
	ResolutionFailure string `yaml:"resolution_failure,omitempty"`

	// HeuristicMode is "standalone" or "corroborate".
	HeuristicMode string `yaml:"heuristic_mode,omitempty"`

	// Proxy is a SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// UserAgent overrides the resolution User-Agent.
	UserAgent string `yaml:"user_agent,omitempty"`
}

// Apply merges the file into cfg.
// Denylist entries are appended; every other non-empty value replaces the
// current one.
func (f *File) Apply(cfg *Config) error {
	if f == nil {
		return nil
	}

	cfg.Denylist = append(cfg.Denylist, f.Denylist...)
	cfg.DenylistFiles = append(cfg.DenylistFiles, f.DenylistFiles...)
	if len(f.Heuristics) > 0 {
		cfg.Heuristics = append([]string(nil), f.Heuristics...)
	}
	if f.CorpusFile != "" {
		cfg.CorpusFile = f.CorpusFile
	}
	if f.ResolutionFailure != "" {
		p, err := model.ParseFailurePolicy(f.ResolutionFailure)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidFailurePolicy, f.ResolutionFailure)
		}
		cfg.FailurePolicy = p
	}
	if f.HeuristicMode != "" {
		m, err := model.ParseHeuristicMode(f.HeuristicMode)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidHeuristicMode, f.HeuristicMode)
		}
		cfg.HeuristicMode = m
	}
	if f.Proxy != "" {
		cfg.ProxyAddress = f.Proxy
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	return nil
}
