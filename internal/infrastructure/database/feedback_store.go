package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
)

const uniqueViolation = "23505"

const insertFeedbackSQL = `
	INSERT INTO review_feedback (
		id, review_id, account_digest, account, features,
		predicted_verdict, final_verdict, source, notes, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectFeedbackSQL = `
	SELECT id, review_id, account_digest, account, features,
		predicted_verdict, final_verdict, source, notes, recorded_at
	FROM review_feedback
	ORDER BY seq`

// FeedbackStore keeps the feedback log in Postgres. Rows are only ever
// inserted; the table's trigger rejects updates and deletes.
type FeedbackStore struct {
	pool    *pgxpool.Pool
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

func NewFeedbackStore(pool *pgxpool.Pool, logger *zap.Logger, m *metrics.Registry) *FeedbackStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackStore{pool: pool, logger: logger, metrics: m, now: time.Now}
}

// Append validates and inserts one record.
func (s *FeedbackStore) Append(ctx context.Context, rec feedback.Record) (stored feedback.Record, err error) {
	defer func() { s.metrics.RecordFeedbackAppend(err) }()

	if err := rec.Validate(); err != nil {
		return feedback.Record{}, err
	}
	stored = rec.Normalize(s.now())

	accountJSON, err := nullableJSON(stored.Account)
	if err != nil {
		return feedback.Record{}, err
	}
	var featuresJSON []byte
	if len(stored.Features) > 0 {
		if featuresJSON, err = json.Marshal(stored.Features); err != nil {
			return feedback.Record{}, errors.NewInternalError("failed to encode features").WithCause(err)
		}
	}

	_, err = s.pool.Exec(ctx, insertFeedbackSQL,
		stored.ID,
		nullableText(stored.ReviewID),
		stored.AccountDigest,
		accountJSON,
		featuresJSON,
		nullableText(string(stored.PredictedVerdict)),
		string(stored.FinalVerdict),
		stored.Source,
		nullableText(stored.Notes),
		stored.RecordedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return feedback.Record{}, errors.NewValidationError("id", "feedback id already recorded")
		}
		return feedback.Record{}, errors.NewExternalError("postgres", "failed to insert feedback").WithCause(err)
	}

	s.logger.Info("feedback appended",
		zap.String("id", stored.ID),
		zap.String("account_digest", stored.AccountDigest),
		zap.String("final_verdict", string(stored.FinalVerdict)))
	return stored, nil
}

// Snapshot reads the whole log in insertion order inside one repeatable
// read transaction.
func (s *FeedbackStore) Snapshot(ctx context.Context) ([]feedback.Record, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, errors.NewExternalError("postgres", "failed to begin snapshot").WithCause(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, selectFeedbackSQL)
	if err != nil {
		return nil, errors.NewExternalError("postgres", "failed to read feedback").WithCause(err)
	}
	defer rows.Close()

	out := make([]feedback.Record, 0, 64)
	for rows.Next() {
		rec, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewExternalError("postgres", "failed to read feedback").WithCause(err)
	}
	return out, tx.Commit(ctx)
}

func scanFeedback(rows pgx.Rows) (feedback.Record, error) {
	var (
		rec                        feedback.Record
		reviewID, predicted, notes *string
		accountJSON, featuresJSON  []byte
		finalVerdict               string
	)
	if err := rows.Scan(&rec.ID, &reviewID, &rec.AccountDigest, &accountJSON, &featuresJSON,
		&predicted, &finalVerdict, &rec.Source, &notes, &rec.RecordedAt); err != nil {
		return feedback.Record{}, errors.NewExternalError("postgres", "failed to scan feedback row").WithCause(err)
	}

	rec.ReviewID = deref(reviewID)
	rec.PredictedVerdict = review.Verdict(deref(predicted))
	rec.FinalVerdict = review.Verdict(finalVerdict)
	rec.Notes = deref(notes)
	rec.RecordedAt = rec.RecordedAt.UTC()

	if len(accountJSON) > 0 {
		rec.Account = &account.Record{}
		if err := json.Unmarshal(accountJSON, rec.Account); err != nil {
			return feedback.Record{}, errors.NewInternalError("stored account is malformed").WithCause(err)
		}
	}
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &rec.Features); err != nil {
			return feedback.Record{}, errors.NewInternalError("stored features are malformed").WithCause(err)
		}
	}
	return rec, nil
}

func nullableJSON(acc *account.Record) ([]byte, error) {
	if acc == nil {
		return nil, nil
	}
	data, err := json.Marshal(acc)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode account").WithCause(err)
	}
	return data, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
