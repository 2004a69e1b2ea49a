package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phishscan/internal/model"
)

// defaultConcurrency is the number of URLs checked at once.
const defaultConcurrency = 10

// Inspector checks a single URL. Implementations must be safe for concurrent use.
type Inspector interface {
	Inspect(ctx context.Context, rawURL string) *model.Detection
}

// BatchProcessor checks many URLs concurrently.
type BatchProcessor struct {
	inspector   Inspector
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent checks.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor around inspector.
func NewBatchProcessor(inspector Inspector, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		inspector:   inspector,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch checks every URL and returns the detections in input order.
// If ctx is cancelled, URLs that were not started have a nil entry and the
// context error is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.Detection, error) {
	results := make([]*model.Detection, len(urls))
	err := bp.ProcessBatchWithCallback(ctx, urls, func(d *model.Detection, index int) {
		// Each index is written by exactly one goroutine.
		results[index] = d
	})
	return results, err
}

// ProcessBatchWithCallback checks every URL and calls callback as each
// check completes. callback runs on the checking goroutine and must be safe
// for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(d *model.Detection, index int),
) error {
	bp.logger.Info("starting batch detection",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, u := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			d := bp.inspector.Inspect(ctx, u)
			bp.logger.Debug("url checked",
				"url", u,
				"index", i+1,
				"total", len(urls),
				"phishing", d.Phishing,
				"decided_by", d.DecidedBy,
			)
			callback(d, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch detection complete",
		"total_urls", len(urls),
		"elapsed", time.Since(start),
	)
	return err
}
