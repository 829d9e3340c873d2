package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mfascan/mfascan/internal/model"
)

// BatchProcessor audits many signal bundles concurrently with a bounded
// number of goroutines.
//
// Design decision: Batching lives outside Pipeline so that:
// 1. Pipeline stays a single-audit construct
// 2. The batch layer can grow its own policies (rate limits, retries)
// 3. Callers that audit one bundle never pay for the machinery
type BatchProcessor struct {
	// pipelineFactory builds a fresh pipeline per audit so no state
	// carries over between sites.
	pipelineFactory func() *Pipeline

	// concurrency caps the number of audits running at once.
	concurrency int

	logger *slog.Logger

	// results holds completed reports, guarded by mu.
	results []*model.AuditReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger used for batch-level progress messages.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency caps how many audits run at once. The default is 10.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor. pipelineFactory is invoked
// once per audit; returning a fresh pipeline each time keeps audits
// independent and leaves room for per-site customization.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     10,
		results:         make([]*model.AuditReport, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits the bundles concurrently, honoring the concurrency
// cap and context cancellation.
//
// Design decision: errgroup.SetLimit instead of a hand-built worker pool.
// One goroutine per bundle with at most 'concurrency' running keeps the
// code short and the cancellation semantics correct.
//
// Reports come back in input order, failed audits included; the error
// return only signals batch cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, bundles []*model.PageSignals) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch processing",
		"total_bundles", len(bundles),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Indexed writes below keep reports in input order.
	bp.results = make([]*model.AuditReport, len(bundles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, bundle := range bundles {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing site",
				"site", bundle.Site,
				"index", i+1,
				"total", len(bundles),
			)

			report := model.NewAuditReport(bundle)

			pipeline := bp.pipelineFactory()
			err := pipeline.Execute(ctx, report)

			// Failed audits still produce a report; the error detail
			// lives on the report itself.
			bp.mu.Lock()
			bp.results[i] = report
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("audit failed",
					"site", bundle.Site,
					"error", err,
				)
				// Returning the error would cancel sibling audits,
				// so it stays on the report instead.
				return nil
			}

			bp.logger.Info("audit completed",
				"site", bundle.Site,
			)

			return nil
		})
	}

	err := g.Wait()

	elapsed := time.Since(startTime)
	bp.logger.Info("batch processing complete",
		"total_bundles", len(bundles),
		"elapsed", elapsed,
	)

	return bp.results, err
}

// ProcessBatchWithCallback audits the bundles and invokes callback as
// each audit finishes, so callers can stream results instead of waiting
// for the whole batch.
//
// The callback gets the report and the bundle's index in the input slice.
// It runs on the auditing goroutine, so shared state it touches needs
// its own synchronization.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	bundles []*model.PageSignals,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing with callback",
		"total_bundles", len(bundles),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, bundle := range bundles {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewAuditReport(bundle)
			pipeline := bp.pipelineFactory()
			_ = pipeline.Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)

			return nil
		})
	}

	return g.Wait()
}
