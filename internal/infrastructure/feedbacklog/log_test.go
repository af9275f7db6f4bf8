package feedbacklog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
)

func newRecord(digest string, v review.Verdict) feedback.Record {
	return feedback.Record{
		AccountDigest: digest,
		Features:      map[string]float64{"rule_score": 42},
		FinalVerdict:  v,
		Source:        "reviewer-7",
	}
}

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "fb", "feedback.jsonl"), zaptest.NewLogger(t), nil)
	require.NoError(t, err)
	return l
}

func TestOpen(t *testing.T) {
	_, err := Open("", nil, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	l := openTestLog(t)
	_, statErr := os.Stat(filepath.Dir(l.Path()))
	assert.NoError(t, statErr)
}

func TestAppendAndSnapshot(t *testing.T) {
	ctx := context.Background()
	l := openTestLog(t)
	l.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("x", 3600)) }

	empty, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := l.Append(ctx, newRecord("d1", review.VerdictReject))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), first.RecordedAt)

	_, err = l.Append(ctx, newRecord("d2", review.VerdictApprove))
	require.NoError(t, err)

	records, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, "d2", records[1].AccountDigest)
	assert.Equal(t, 42.0, records[0].Features["rule_score"])

	raw, err := os.ReadFile(l.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(raw), "\n"))
}

func TestAppend_Validation(t *testing.T) {
	m := metrics.NewRegistry()
	l, err := Open(filepath.Join(t.TempDir(), "feedback.jsonl"), nil, m)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *feedback.Record)
		field  string
	}{
		{"unknown verdict", func(r *feedback.Record) { r.FinalVerdict = "Maybe" }, "final_verdict"},
		{"missing source", func(r *feedback.Record) { r.Source = " " }, "source"},
		{"no account or digest", func(r *feedback.Record) { r.AccountDigest = "" }, "account_digest"},
		{"no features", func(r *feedback.Record) { r.Features = nil }, "features"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord("d1", review.VerdictReject)
			tt.mutate(&rec)

			_, err := l.Append(context.Background(), rec)
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, appErr.Field())
		})
	}

	_, statErr := os.Stat(l.Path())
	assert.True(t, os.IsNotExist(statErr), "rejected records must not create the log")
	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(m.FeedbackAppends.WithLabelValues("error")))
}

func TestSnapshot_TornLine(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	l, err := Open(filepath.Join(t.TempDir(), "feedback.jsonl"), zap.New(core), nil)
	require.NoError(t, err)

	_, err = l.Append(ctx, newRecord("d1", review.VerdictReject))
	require.NoError(t, err)

	// Simulate a crash mid-write.
	f, err := os.OpenFile(l.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"half","final_verd`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "d1", records[0].AccountDigest)

	_, err = l.Append(ctx, newRecord("d2", review.VerdictApprove))
	require.NoError(t, err)

	records, err = l.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "d2", records[1].AccountDigest)
	assert.NotZero(t, logs.FilterMessage("feedback log ends with a partial line").Len())
	assert.NotZero(t, logs.FilterMessage("skipping unreadable feedback line").Len())
}

func TestAppend_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "feedback.jsonl")

	// Two handles on one file stand in for two processes.
	a, err := Open(path, nil, nil)
	require.NoError(t, err)
	b, err := Open(path, nil, nil)
	require.NoError(t, err)

	const perWriter = 25
	var wg sync.WaitGroup
	for w, l := range []*Log{a, b} {
		wg.Add(1)
		go func(w int, l *Log) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := l.Append(ctx, newRecord(fmt.Sprintf("w%d-%d", w, i), review.VerdictApprove))
				assert.NoError(t, err)
			}
		}(w, l)
	}
	wg.Wait()

	records, err := a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2*perWriter)
}

func TestSnapshot_Cancelled(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Append(context.Background(), newRecord("d1", review.VerdictReject))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
