package fraud

import (
	"context"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/features"
)

// Service defines the account review service interface
type Service interface {
	// Review runs the full pipeline on one record
	Review(ctx context.Context, rec *account.Record) (*Result, error)
	// ReviewBatch reviews rows concurrently and returns them in input order
	ReviewBatch(ctx context.Context, items []BatchItem) ([]BatchRow, BatchSummary)
	// Features returns the model feature vector for a record, as the
	// trainer sees it
	Features(ctx context.Context, rec *account.Record) (map[string]float64, error)
}

// Enricher supplies external intelligence about destination URLs. It must
// not fail: unavailable lookups are reported through the enrichment.
type Enricher interface {
	Enrich(ctx context.Context, urls []string) features.Enrichment
}
