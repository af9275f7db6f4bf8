package fraud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// ReviewBatch reviews items on a fixed pool of workers. Rows share only the
// read-only policy and model, and each row's failure is kept on that row.
// The returned rows are in input order. When ctx is cancelled, rows not
// yet started carry the cancellation error and finished rows are kept.
func (s *service) ReviewBatch(ctx context.Context, items []BatchItem) ([]BatchRow, BatchSummary) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "fraud.review_batch")
	defer span.End()

	rows := make([]BatchRow, len(items))
	for i, item := range items {
		rows[i] = BatchRow{RowID: item.RowID, Raw: item.Raw, Record: item.Record}
	}

	workers := s.workers
	if workers > len(items) {
		workers = len(items)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go s.batchWorker(ctx, w, items, rows, jobs, &wg)
	}

feed:
	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	summary := BatchSummary{
		Total:    len(items),
		Verdicts: make(map[review.Verdict]int),
	}
	for i := range rows {
		if rows[i].Result == nil && rows[i].Err == nil {
			rows[i].Err = fmt.Errorf("row not reviewed: %w", ctx.Err())
		}
		if rows[i].Err != nil {
			summary.Failed++
			continue
		}
		summary.Reviewed++
		summary.Verdicts[rows[i].Result.Verdict]++
	}
	summary.Cancelled = ctx.Err() != nil
	summary.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("batch.total", summary.Total),
		attribute.Int("batch.failed", summary.Failed),
		attribute.Bool("batch.cancelled", summary.Cancelled),
	)
	s.metrics.RecordBatch(summary.Reviewed, summary.Failed, summary.Duration)
	s.logger.Info("batch reviewed",
		zap.Int("total", summary.Total),
		zap.Int("reviewed", summary.Reviewed),
		zap.Int("failed", summary.Failed),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("duration", summary.Duration))

	return rows, summary
}

// batchWorker reviews row indices from jobs. Each index is written by
// exactly one worker.
func (s *service) batchWorker(ctx context.Context, id int, items []BatchItem, rows []BatchRow, jobs <-chan int, wg *sync.WaitGroup) {
	defer wg.Done()

	logger := s.logger.With(zap.Int("worker_id", id))
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			rows[i].Err = fmt.Errorf("row not reviewed: %w", err)
			continue
		}

		rows[i].Result, rows[i].Err = s.reviewRow(ctx, items[i])
		if rows[i].Err != nil {
			logger.Warn("batch row failed",
				zap.Int("row_id", items[i].RowID),
				zap.Error(rows[i].Err))
		}
	}
}

func (s *service) reviewRow(ctx context.Context, item BatchItem) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.NewInternalError(fmt.Sprintf("review panicked: %v", r))
		}
	}()

	if item.Err != nil {
		return nil, item.Err
	}
	if item.Record == nil {
		return nil, errors.NewValidationError("record", "row has no record")
	}
	return s.Review(ctx, item.Record)
}
