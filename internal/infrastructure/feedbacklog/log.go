// Package feedbacklog stores human-confirmed review outcomes as an
// append-only JSON Lines file.
package feedbacklog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
)

const lockRetryDelay = 25 * time.Millisecond

// Log is a JSONL feedback log. Writers are serialized within the process
// by a mutex and across processes by an advisory lock on a sidecar file.
// Existing lines are never rewritten.
type Log struct {
	path    string
	lock    *flock.Flock
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time

	mu sync.Mutex
}

// Open prepares a log at path, creating its directory if needed. The file
// itself is created on first append.
func Open(path string, logger *zap.Logger, m *metrics.Registry) (*Log, error) {
	if path == "" {
		return nil, errors.NewConfigurationError("FEEDBACK_PATH", "feedback log path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewConfigurationError("FEEDBACK_PATH",
			fmt.Sprintf("cannot create feedback directory for %s", path)).WithCause(err)
	}
	return &Log{
		path:    path,
		lock:    flock.New(path + ".lock"),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append validates rec, fills in its id, digest and timestamp, and writes
// it as one line. The stored record is returned.
func (l *Log) Append(ctx context.Context, rec feedback.Record) (stored feedback.Record, err error) {
	defer func() { l.metrics.RecordFeedbackAppend(err) }()

	if err := rec.Validate(); err != nil {
		return feedback.Record{}, err
	}
	stored = rec.Normalize(l.now())

	line, err := json.Marshal(stored)
	if err != nil {
		return feedback.Record{}, errors.NewInternalError("failed to encode feedback record").WithCause(err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.acquire(ctx, false); err != nil {
		return feedback.Record{}, err
	}
	defer l.release()

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return feedback.Record{}, errors.NewInternalError("failed to open feedback log").WithCause(err)
	}
	defer f.Close()

	torn, err := endsMidLine(l.path)
	if err != nil {
		return feedback.Record{}, errors.NewInternalError("failed to inspect feedback log").WithCause(err)
	}
	if torn {
		// Terminate the partial line so the new record starts cleanly.
		l.logger.Warn("feedback log ends with a partial line", zap.String("path", l.path))
		line = append([]byte{'\n'}, line...)
	}

	if _, err := f.Write(line); err != nil {
		return feedback.Record{}, errors.NewInternalError("failed to append feedback record").WithCause(err)
	}
	if err := f.Sync(); err != nil {
		return feedback.Record{}, errors.NewInternalError("failed to sync feedback log").WithCause(err)
	}

	l.logger.Info("feedback appended",
		zap.String("id", stored.ID),
		zap.String("account_digest", stored.AccountDigest),
		zap.String("final_verdict", string(stored.FinalVerdict)),
		zap.String("source", stored.Source))
	return stored, nil
}

// Snapshot reads every complete record under a shared lock, so it never
// observes a half-written append. Lines that cannot be decoded, such as a
// write torn by a crash, are skipped and logged.
func (l *Log) Snapshot(ctx context.Context) ([]feedback.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.acquire(ctx, true); err != nil {
		return nil, err
	}
	defer l.release()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []feedback.Record{}, nil
	}
	if err != nil {
		return nil, errors.NewInternalError("failed to open feedback log").WithCause(err)
	}
	defer f.Close()

	records := make([]feedback.Record, 0, 64)
	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, errors.NewInternalError("failed to read feedback log").WithCause(readErr)
		}

		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
			var rec feedback.Record
			if err := json.Unmarshal(trimmed, &rec); err != nil {
				l.logger.Warn("skipping unreadable feedback line",
					zap.String("path", l.path),
					zap.Int("line", lineNo),
					zap.Bool("final_line", readErr == io.EOF),
					zap.Error(err))
			} else {
				records = append(records, rec)
			}
		}

		if readErr == io.EOF {
			break
		}
	}
	return records, nil
}

func (l *Log) acquire(ctx context.Context, shared bool) error {
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = l.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.NewInternalError("failed to lock feedback log").WithCause(err)
	}
	if !ok {
		return errors.NewInternalError("feedback log is locked by another writer")
	}
	return nil
}

func (l *Log) release() {
	if err := l.lock.Unlock(); err != nil {
		l.logger.Warn("failed to unlock feedback log", zap.Error(err))
	}
}

// endsMidLine reports whether a non-empty file lacks a trailing newline.
func endsMidLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
