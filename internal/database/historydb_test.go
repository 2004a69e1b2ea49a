package database

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/phishscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newDetection builds a decided detection checked at the given time.
func newDetection(rawURL, domain string, phishing bool, stage model.Stage, at time.Time) *model.Detection {
	d := model.NewDetection(rawURL)
	d.Domain = domain
	d.DateChecked = at
	d.AddStage(model.StageResult{Stage: stage, Outcome: model.OutcomeHit})
	d.Decide(stage, phishing)
	return d
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "phishscan.db")
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != dbPath {
			t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected informative error, got %q", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !errors.Is(statErr, fs.ErrNotExist) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}

		ctx := context.Background()
		d := newDetection("http://evilphisher.org", "evilphisher.org", true, model.StageDenylist, time.Now())
		if err := db1.SaveDetection(ctx, d); err != nil {
			t.Fatalf("failed to save detection: %v", err)
		}
		db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		if _, err := db2.GetDetection(ctx, d.ID); err != nil {
			t.Errorf("expected detection to persist: %v", err)
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestSaveAndGetDetection(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		d := newDetection("http://example.com/login", "example.com", true, model.StageHeuristic, time.Now())
		p := 0.8
		d.PhishingProbability = &p
		d.Hops = []string{"http://short.example/x"}
		d.ModelFingerprint = "abc123"
		if err := db.SaveDetection(ctx, d); err != nil {
			t.Fatalf("SaveDetection() error = %v", err)
		}

		got, err := db.GetDetection(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetDetection() error = %v", err)
		}
		if got.URL != d.URL || got.Domain != d.Domain || !got.Phishing || got.DecidedBy != model.StageHeuristic {
			t.Errorf("unexpected detection: %+v", got)
		}
		if got.PhishingProbability == nil || *got.PhishingProbability != 0.8 {
			t.Errorf("probability not stored: %v", got.PhishingProbability)
		}
		if len(got.Hops) != 1 || len(got.Stages) != 1 {
			t.Errorf("hops/stages not stored: %+v", got)
		}
	})

	t.Run("saving twice replaces", func(t *testing.T) {
		t.Parallel()

		d := newDetection("http://replace.example", "replace.example", false, model.StageClassifier, time.Now())
		if err := db.SaveDetection(ctx, d); err != nil {
			t.Fatalf("SaveDetection() error = %v", err)
		}
		d.Error = "updated"
		if err := db.SaveDetection(ctx, d); err != nil {
			t.Fatalf("second SaveDetection() error = %v", err)
		}

		got, err := db.GetDetection(ctx, d.ID)
		if err != nil {
			t.Fatalf("GetDetection() error = %v", err)
		}
		if got.Error != "updated" {
			t.Errorf("expected replaced copy, got error %q", got.Error)
		}

		list, err := db.ListDetections(ctx, ListFilter{Domain: "replace.example"})
		if err != nil {
			t.Fatalf("ListDetections() error = %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected a single stored row, got %d", len(list))
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		t.Parallel()

		if _, err := db.GetDetection(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("nil detection", func(t *testing.T) {
		t.Parallel()

		if err := db.SaveDetection(ctx, nil); !errors.Is(err, ErrNilDetection) {
			t.Errorf("expected ErrNilDetection, got %v", err)
		}
	})
}

func TestListDetections(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	fixtures := []*model.Detection{
		newDetection("http://evilphisher.org/a", "evilphisher.org", true, model.StageDenylist, base),
		newDetection("http://trustedsite.com/home", "trustedsite.com", false, model.StageClassifier, base.Add(time.Minute)),
		newDetection("http://evilphisher.org/b", "evilphisher.org", true, model.StageDenylist, base.Add(2*time.Minute)),
		newDetection("http://example.com/shop", "example.com", false, model.StageClassifier, base.Add(3*time.Minute)),
	}
	for _, d := range fixtures {
		if err := db.SaveDetection(ctx, d); err != nil {
			t.Fatalf("SaveDetection() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{
			name: "all newest first",
			want: []string{"http://example.com/shop", "http://evilphisher.org/b", "http://trustedsite.com/home", "http://evilphisher.org/a"},
		},
		{
			name:   "by domain",
			filter: ListFilter{Domain: "evilphisher.org"},
			want:   []string{"http://evilphisher.org/b", "http://evilphisher.org/a"},
		},
		{
			name:   "phishing only",
			filter: ListFilter{PhishingOnly: true, Limit: 1},
			want:   []string{"http://evilphisher.org/b"},
		},
		{
			name:   "unknown domain",
			filter: ListFilter{Domain: "nothing.example"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.ListDetections(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListDetections() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d detections, want %d", len(got), len(tt.want))
			}
			for i, d := range got {
				if d.URL != tt.want[i] {
					t.Errorf("detection[%d] = %q, want %q", i, d.URL, tt.want[i])
				}
			}
		})
	}
}

func TestDomains(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, d := range []*model.Detection{
		newDetection("http://evilphisher.org/a", "evilphisher.org", true, model.StageDenylist, base),
		newDetection("http://evilphisher.org/b", "evilphisher.org", true, model.StageDenylist, base.Add(time.Hour)),
		newDetection("http://example.com/shop", "example.com", false, model.StageClassifier, base),
		newDetection("not a url", "", false, model.StageResolve, base),
	} {
		if err := db.SaveDetection(ctx, d); err != nil {
			t.Fatalf("SaveDetection() error = %v", err)
		}
	}

	stats, err := db.Domains(ctx)
	if err != nil {
		t.Fatalf("Domains() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 domains, got %+v", stats)
	}

	if stats[0].Domain != "evilphisher.org" || stats[0].Checks != 2 || stats[0].Phishing != 2 {
		t.Errorf("unexpected stats: %+v", stats[0])
	}
	if !stats[0].LastChecked.Equal(base.Add(time.Hour)) {
		t.Errorf("LastChecked = %v, want %v", stats[0].LastChecked, base.Add(time.Hour))
	}
	if stats[1].Domain != "example.com" || stats[1].Checks != 1 || stats[1].Phishing != 0 {
		t.Errorf("unexpected stats: %+v", stats[1])
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "stored format", input: "2025-03-01T12:00:00.000000000Z", want: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{name: "sqlite default", input: "2025-03-01 12:00:00", want: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{name: "RFC3339", input: "2025-03-01T12:00:00Z", want: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		{name: "garbage", input: "yesterday", want: time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
