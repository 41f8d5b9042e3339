package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/replaysheet/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of documents processed at once when no
// limit is configured. The sheet service throttles aggressive clients, so
// this is kept low.
const DefaultConcurrency = 4

// BatchProcessor handles concurrent extraction of multiple documents.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline so the Pipeline stays focused on one document
// and batch strategies can change without touching it.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each document URL.
	// We use a factory to ensure each run gets a fresh pipeline instance
	// configured for that document (cookie, tolerance, header filter).
	pipelineFactory func(url string) *Pipeline

	// concurrency is the maximum number of concurrent extractions.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	// results stores completed extractions.
	// Access is synchronized via mutex.
	results []*model.Extraction
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent extractions.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called with each document URL to create a
// fresh pipeline instance, so pipeline state never leaks between documents.
func NewBatchProcessor(pipelineFactory func(url string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
		results:         make([]*model.Extraction, 0),
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch extracts tables from multiple documents concurrently.
// It respects the configured concurrency limit and context cancellation.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because errgroup already bounds the number of running goroutines.
//
// The returned slice has one entry per URL, in input order. Entries for
// documents that failed carry the error; entries for documents that never
// started because of cancellation are nil. The error return is non-nil
// only when the batch was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.Extraction, error) {
	bp.logger.Info("starting batch extraction",
		"total_documents", len(urls),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	// Pre-allocate results slice to maintain order
	bp.results = make([]*model.Extraction, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("extracting document",
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			extraction := model.NewExtraction(url)
			err := bp.pipelineFactory(url).Execute(ctx, extraction)

			bp.mu.Lock()
			bp.results[i] = extraction
			bp.mu.Unlock()

			if err != nil {
				bp.logger.Warn("extraction failed",
					"url", url,
					"error", err,
				)
				// The error is recorded in the extraction; keep going
				// with the other documents.
				return nil
			}

			bp.logger.Info("extraction completed",
				"url", url,
				"rows", extraction.Table.RowCount(),
			)

			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch extraction complete",
		"total_documents", len(urls),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback extracts multiple documents and calls a callback
// for each completed extraction. This is useful for streaming results.
//
// The callback receives the extraction and the index of the URL in the
// original slice. It is called from the goroutine that completed the run,
// so it must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(extraction *model.Extraction, index int),
) error {
	bp.logger.Info("starting batch extraction with callback",
		"total_documents", len(urls),
		"concurrency", bp.concurrency,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			extraction := model.NewExtraction(url)
			_ = bp.pipelineFactory(url).Execute(ctx, extraction) //nolint:errcheck // Error is stored in extraction

			callback(extraction, i)

			return nil
		})
	}

	return g.Wait()
}
