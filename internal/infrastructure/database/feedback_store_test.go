package database

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/learning"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/testutil"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/testutil/containers"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/testutil/fixtures"
)

var _ learning.FeedbackSource = (*FeedbackStore)(nil)

func setupFeedbackStore(t *testing.T) (*FeedbackStore, *sql.DB) {
	t.Helper()
	dsn := containers.StartPostgres(t)
	ctx := testutil.Context(t)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations, err := LoadMigrations(Migrations, "migrations")
	require.NoError(t, err)
	applied, err := NewMigrator(db, migrations, zaptest.NewLogger(t)).Up(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, len(migrations), applied)

	pool, err := NewConnectionPool(ctx, &config.DatabaseConfig{URL: dsn, MaxConns: 4}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewFeedbackStore(pool.Pool(), zaptest.NewLogger(t), nil), db
}

func TestFeedbackStore_Integration(t *testing.T) {
	store, db := setupFeedbackStore(t)
	ctx := testutil.Context(t)

	empty, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	acct := fixtures.NewRecordBuilder().Build(t)

	var appended []feedback.Record
	for i := 0; i < 5; i++ {
		rec := feedback.Record{
			AccountDigest: fmt.Sprintf("digest-%d", i),
			Features:      map[string]float64{"rule_score": float64(i * 10)},
			FinalVerdict:  review.VerdictApprove,
			Source:        "reviewer-1",
		}
		if i == 2 {
			rec.AccountDigest = ""
			rec.Features = nil
			rec.Account = acct
			rec.FinalVerdict = review.VerdictReject
			rec.PredictedVerdict = review.VerdictRouteToVIP
			rec.Notes = "bait redirect confirmed"
		}
		stored, err := store.Append(ctx, rec)
		require.NoError(t, err)
		appended = append(appended, stored)
	}

	t.Run("snapshot preserves order and content", func(t *testing.T) {
		records, err := store.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, rec := range records {
			assert.Equal(t, appended[i].ID, rec.ID)
			assert.Equal(t, appended[i].AccountDigest, rec.AccountDigest)
			assert.WithinDuration(t, appended[i].RecordedAt, rec.RecordedAt, time.Millisecond)
		}
		require.NotNil(t, records[2].Account)
		assert.Equal(t, acct.Digest(), records[2].AccountDigest)
		assert.Equal(t, "jane@acmewidgets.com", records[2].Account.Email)
		assert.Equal(t, review.VerdictRouteToVIP, records[2].PredictedVerdict)
		assert.Equal(t, "bait redirect confirmed", records[2].Notes)
		assert.Equal(t, 40.0, records[4].Features["rule_score"])
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		dup := appended[0]
		_, err := store.Append(ctx, dup)
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})

	t.Run("rows cannot be rewritten", func(t *testing.T) {
		_, err := db.ExecContext(ctx, "UPDATE review_feedback SET source = 'x'")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "append-only")

		_, err = db.ExecContext(ctx, "DELETE FROM review_feedback")
		require.Error(t, err)
	})

	t.Run("invalid record not stored", func(t *testing.T) {
		_, err := store.Append(ctx, feedback.Record{AccountDigest: "d", FinalVerdict: "nope", Source: "x"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

		records, err := store.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})
}

func TestMigrator_Integration(t *testing.T) {
	_, db := setupFeedbackStore(t)
	ctx := testutil.Context(t)

	migrations, err := LoadMigrations(Migrations, "migrations")
	require.NoError(t, err)
	m := NewMigrator(db, migrations, nil)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	for _, s := range status {
		assert.True(t, s.Applied, s.ID)
	}

	n, err := m.Up(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = m.Down(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status, err = m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].Applied)
	assert.False(t, status[1].Applied)

	n, err = m.Up(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
