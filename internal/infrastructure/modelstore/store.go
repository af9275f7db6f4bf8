// Package modelstore keeps trained model artifacts on disk. Every version
// is written once and never modified; a pointer file names the active one.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
)

const (
	activeFile   = "LATEST"
	modelPrefix  = "model-"
	weightsExt   = ".json"
	metadataExt  = ".meta.json"
	tempPattern  = ".tmp-*"
	resourceName = "model artifact"
)

var versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Store is a directory of versioned artifacts:
//
//	model-<version>.json       weights
//	model-<version>.meta.json  metadata, readable without the weights
//	LATEST                     active version
type Store struct {
	dir    string
	logger *zap.Logger

	mu sync.Mutex
}

// New opens dir, creating it if needed.
func New(dir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.NewConfigurationError("MODEL_DIR", "model directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewConfigurationError("MODEL_DIR",
			fmt.Sprintf("cannot create model directory %s", dir)).WithCause(err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Save writes a new version and makes it active. An existing version is
// never overwritten.
func (s *Store) Save(ctx context.Context, art *feedback.Artifact, meta feedback.ModelMetadata) error {
	if art == nil {
		return errors.NewValidationError("artifact", "artifact is required")
	}
	if err := art.Validate(); err != nil {
		return err
	}
	if meta.Version != art.Version {
		return errors.NewValidationError("version",
			fmt.Sprintf("metadata version %q does not match artifact version %q", meta.Version, art.Version))
	}
	if err := checkVersion(art.Version); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.weightsPath(art.Version)); err == nil {
		return errors.NewValidationError("version", fmt.Sprintf("model version %s already exists", art.Version))
	}

	// Metadata first: a version without weights is never listed as usable.
	if err := s.writeJSON(s.metadataPath(art.Version), meta); err != nil {
		return err
	}
	if err := s.writeJSON(s.weightsPath(art.Version), art); err != nil {
		_ = os.Remove(s.metadataPath(art.Version))
		return err
	}
	if err := s.writeFile(filepath.Join(s.dir, activeFile), []byte(art.Version+"\n")); err != nil {
		return err
	}

	s.logger.Info("model artifact saved",
		zap.String("model_version", art.Version),
		zap.Int("records", meta.RecordCount))
	return nil
}

// LoadActive reads the active artifact and its metadata. It returns a
// not-found error when no model has been trained.
func (s *Store) LoadActive(ctx context.Context) (*feedback.Artifact, *feedback.ModelMetadata, error) {
	version, err := s.activeVersion()
	if err != nil {
		return nil, nil, err
	}
	return s.Load(ctx, version)
}

// Load reads one version.
func (s *Store) Load(ctx context.Context, version string) (*feedback.Artifact, *feedback.ModelMetadata, error) {
	if err := checkVersion(version); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var art feedback.Artifact
	if err := readJSON(s.weightsPath(version), &art); err != nil {
		return nil, nil, err
	}
	var meta feedback.ModelMetadata
	if err := readJSON(s.metadataPath(version), &meta); err != nil {
		return nil, nil, err
	}
	if art.Version != version {
		return nil, nil, errors.NewInternalError(
			fmt.Sprintf("artifact %s records version %q", version, art.Version))
	}
	return &art, &meta, nil
}

// ActiveMetadata reads only the metadata of the active version.
func (s *Store) ActiveMetadata(ctx context.Context) (*feedback.ModelMetadata, error) {
	version, err := s.activeVersion()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var meta feedback.ModelMetadata
	if err := readJSON(s.metadataPath(version), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// ModelInfo is one listed version.
type ModelInfo struct {
	feedback.ModelMetadata
	Active bool `json:"active"`
}

// List returns the metadata of every stored version, oldest first. Weights
// are not read.
func (s *Store) List(ctx context.Context) ([]ModelInfo, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, modelPrefix+"*"+metadataExt))
	if err != nil {
		return nil, errors.NewInternalError("failed to list model artifacts").WithCause(err)
	}

	active, err := s.activeVersion()
	if err != nil && !errors.IsType(err, errors.ErrorTypeNotFound) {
		return nil, err
	}

	out := make([]ModelInfo, 0, len(matches))
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var meta feedback.ModelMetadata
		if err := readJSON(path, &meta); err != nil {
			s.logger.Warn("skipping unreadable model metadata", zap.String("path", path), zap.Error(err))
			continue
		}
		out = append(out, ModelInfo{ModelMetadata: meta, Active: meta.Version == active})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].TrainedAt.Equal(out[j].TrainedAt) {
			return out[i].TrainedAt.Before(out[j].TrainedAt)
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

// Activate points LATEST at an existing version, e.g. to roll back.
func (s *Store) Activate(ctx context.Context, version string) error {
	if err := checkVersion(version); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.weightsPath(version), s.metadataPath(version)} {
		if _, err := os.Stat(path); err != nil {
			return errors.NewNotFoundError(resourceName).
				WithDetails(map[string]interface{}{"version": version})
		}
	}
	if err := s.writeFile(filepath.Join(s.dir, activeFile), []byte(version+"\n")); err != nil {
		return err
	}

	s.logger.Info("model activated", zap.String("model_version", version))
	return nil
}

func (s *Store) activeVersion() (string, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, activeFile))
	if os.IsNotExist(err) {
		return "", errors.NewNotFoundError(resourceName)
	}
	if err != nil {
		return "", errors.NewInternalError("failed to read active model pointer").WithCause(err)
	}
	version := strings.TrimSpace(string(raw))
	if version == "" {
		return "", errors.NewNotFoundError(resourceName)
	}
	if err := checkVersion(version); err != nil {
		return "", errors.NewInternalError("active model pointer is corrupt").WithCause(err)
	}
	return version, nil
}

func (s *Store) weightsPath(version string) string {
	return filepath.Join(s.dir, modelPrefix+version+weightsExt)
}

func (s *Store) metadataPath(version string) string {
	return filepath.Join(s.dir, modelPrefix+version+metadataExt)
}

func (s *Store) writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewInternalError("failed to encode model artifact").WithCause(err)
	}
	return s.writeFile(path, append(data, '\n'))
}

// writeFile replaces path atomically with data.
func (s *Store) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, tempPattern)
	if err != nil {
		return errors.NewInternalError("failed to create temp file").WithCause(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.NewInternalError("failed to write model file").WithCause(err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewInternalError("failed to sync model file").WithCause(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewInternalError("failed to close model file").WithCause(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.NewInternalError("failed to install model file").WithCause(err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.NewNotFoundError(resourceName).
			WithDetails(map[string]interface{}{"path": path})
	}
	if err != nil {
		return errors.NewInternalError("failed to read model file").WithCause(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.NewInternalError(fmt.Sprintf("model file %s is malformed", filepath.Base(path))).WithCause(err)
	}
	return nil
}

func checkVersion(version string) error {
	if !versionPattern.MatchString(version) {
		return errors.NewValidationError("version", fmt.Sprintf("invalid model version %q", version))
	}
	return nil
}
