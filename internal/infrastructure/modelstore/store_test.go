package modelstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/learning"
)

var _ learning.ArtifactStore = (*Store)(nil)

func artifact(version string, bias float64) (*feedback.Artifact, feedback.ModelMetadata) {
	art := &feedback.Artifact{
		Version:      version,
		FeatureNames: []string{"rule_score", "chaotic_offset"},
		Weights:      []float64{0.5, 1.25},
		Bias:         bias,
	}
	meta := feedback.ModelMetadata{
		Version:             version,
		TrainedAt:           time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ClassCounts:         map[string]int{feedback.ClassReject: 6, feedback.ClassNonReject: 20},
		RecordCount:         26,
		FeedbackRecordCount: 30,
		FeatureNames:        art.FeatureNames,
	}
	return art, meta
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "models"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New(" ", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
}

func TestEmptyStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, _, err := s.LoadActive(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = s.ActiveMetadata(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	art, meta := artifact("20240501T000000Z-aaaa", -0.75)
	require.NoError(t, s.Save(ctx, art, meta))

	loaded, loadedMeta, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, art, loaded)
	assert.Equal(t, 26, loadedMeta.RecordCount)
	assert.Equal(t, 6, loadedMeta.ClassCounts[feedback.ClassReject])

	active, err := s.ActiveMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, art.Version, active.Version)

	for _, name := range []string{"model-20240501T000000Z-aaaa.json", "model-20240501T000000Z-aaaa.meta.json", "LATEST"} {
		_, err := os.Stat(filepath.Join(s.dir, name))
		assert.NoError(t, err, name)
	}
}

func TestSave_Immutable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	art, meta := artifact("v1", 0.1)
	require.NoError(t, s.Save(ctx, art, meta))

	changed, changedMeta := artifact("v1", 9.9)
	err := s.Save(ctx, changed, changedMeta)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	loaded, _, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.1, loaded.Bias)
}

func TestSave_Rejects(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := []struct {
		name   string
		mutate func(a *feedback.Artifact, m *feedback.ModelMetadata)
	}{
		{"weight count mismatch", func(a *feedback.Artifact, _ *feedback.ModelMetadata) { a.Weights = a.Weights[:1] }},
		{"metadata version differs", func(_ *feedback.Artifact, m *feedback.ModelMetadata) { m.Version = "other" }},
		{"path in version", func(a *feedback.Artifact, m *feedback.ModelMetadata) {
			a.Version = "../escape"
			m.Version = "../escape"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art, meta := artifact("v1", 0)
			tt.mutate(art, &meta)
			err := s.Save(ctx, art, meta)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListAndActivate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older, olderMeta := artifact("v1", 0.1)
	newer, newerMeta := artifact("v2", 0.2)
	newerMeta.TrainedAt = olderMeta.TrainedAt.Add(time.Hour)
	require.NoError(t, s.Save(ctx, older, olderMeta))
	require.NoError(t, s.Save(ctx, newer, newerMeta))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v1", list[0].Version)
	assert.False(t, list[0].Active)
	assert.Equal(t, "v2", list[1].Version)
	assert.True(t, list[1].Active)

	// Roll back.
	require.NoError(t, s.Activate(ctx, "v1"))
	loaded, _, err := s.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.1, loaded.Bias)

	err = s.Activate(ctx, "v9")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	active, err := s.ActiveMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", active.Version)
}

func TestLoadActive_Corrupt(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	art, meta := artifact("v1", 0)
	require.NoError(t, s.Save(ctx, art, meta))
	require.NoError(t, os.WriteFile(s.weightsPath("v1"), []byte("{not json"), 0o644))

	_, _, err := s.LoadActive(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))

	// Metadata is still readable on its own.
	_, err = s.ActiveMetadata(ctx)
	assert.NoError(t, err)
}

func TestLoadAdjustor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	assert.False(t, learning.LoadAdjustor(ctx, s, nil).Enabled())

	art, meta := artifact("v1", 0)
	require.NoError(t, s.Save(ctx, art, meta))

	adj := learning.LoadAdjustor(ctx, s, nil)
	assert.True(t, adj.Enabled())
	assert.Equal(t, "v1", adj.ModelVersion())
}
