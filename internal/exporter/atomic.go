package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

// Batch stages files next to their destination and publishes them together.
// Nothing is visible at a destination path until Commit renames the staged file over it.
type Batch struct {
	logger *slog.Logger
	staged []stagedFile
	closed bool
}

type stagedFile struct {
	tmp  string
	path string
}

// NewBatch creates an empty batch
func NewBatch(logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{logger: logger}
}

// Stage writes the content for path into a temporary file in the same directory
func (b *Batch) Stage(path string, write func(w io.Writer) error) error {
	return b.StagePath(path, func(tmp string) error {
		file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		if err := write(file); err != nil {
			file.Close()
			return err
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	})
}

// StagePath is Stage for writers that open the file themselves. write receives
// the temporary path and must leave a complete, closed file behind.
func (b *Batch) StagePath(path string, write func(tmp string) error) error {
	if b.closed {
		return apperrors.NewStorageError(fmt.Sprintf("stage %s: batch already closed", path), nil)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("create directory %s", dir), err)
	}

	tmp := tempName(path)
	if err := write(tmp); err != nil {
		os.Remove(tmp)
		return apperrors.NewStorageError(fmt.Sprintf("write %s", path), err).WithContext("file", path)
	}

	b.staged = append(b.staged, stagedFile{tmp: tmp, path: path})
	return nil
}

// Len returns the number of staged files
func (b *Batch) Len() int { return len(b.staged) }

// Commit renames every staged file onto its destination, in staging order.
// On failure the files not yet renamed are removed; files already renamed stay whole.
func (b *Batch) Commit(ctx context.Context) ([]string, error) {
	if b.closed {
		return nil, apperrors.NewStorageError("commit: batch already closed", nil)
	}
	b.closed = true

	written := make([]string, 0, len(b.staged))
	for i, f := range b.staged {
		if err := ctx.Err(); err != nil {
			removeStaged(b.staged[i:])
			return written, fmt.Errorf("commit interrupted: %w", err)
		}
		if err := os.Rename(f.tmp, f.path); err != nil {
			removeStaged(b.staged[i:])
			return written, apperrors.NewStorageError(fmt.Sprintf("publish %s", f.path), err).
				WithContext("file", f.path)
		}
		written = append(written, f.path)
	}

	b.logger.InfoContext(ctx, "published output files", slog.Int("files", len(written)))
	return written, nil
}

// Abort discards every staged file. It is safe to call after Commit.
func (b *Batch) Abort() {
	if b.closed {
		return
	}
	b.closed = true
	removeStaged(b.staged)
	if len(b.staged) > 0 {
		b.logger.Warn("discarded staged output files", slog.Int("files", len(b.staged)))
	}
}

// WriteFile atomically replaces path with the content produced by write
func WriteFile(ctx context.Context, path string, write func(w io.Writer) error) error {
	b := NewBatch(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err := b.Stage(path, write); err != nil {
		return err
	}
	_, err := b.Commit(ctx)
	return err
}

func removeStaged(files []stagedFile) {
	for _, f := range files {
		os.Remove(f.tmp)
	}
}

// tempName keeps the staged file in the destination directory so the final rename
// never crosses a filesystem boundary.
func tempName(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp-"+uuid.NewString())
}
