package exporter

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/lucbra21/audaxIndex/internal/config"
	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a named, fully encoded output table
type Table struct {
	Name    string
	Header  []string
	Records [][]string
}

// Validate checks that the table can be written
func (t Table) Validate() error {
	if t.Name == "" {
		return apperrors.NewAppValidationError("table name is required")
	}
	if len(t.Header) == 0 {
		return apperrors.NewAppValidationError(fmt.Sprintf("table %s has no header", t.Name))
	}
	for i, rec := range t.Records {
		if len(rec) != len(t.Header) {
			return apperrors.NewAppValidationError(
				fmt.Sprintf("table %s record %d has %d fields, header has %d", t.Name, i, len(rec), len(t.Header)))
		}
	}
	return nil
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// CSVWriter writes tables as <DataDir>/<name>.csv
type CSVWriter struct {
	paths   *config.Paths
	options WriteOptions
	logger  *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths, options WriteOptions, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, options: options, logger: logger}
}

// Path returns the destination of a named table
func (w *CSVWriter) Path(name string) string {
	return w.paths.TablePath(name)
}

// Stage adds the table to a batch
func (w *CSVWriter) Stage(ctx context.Context, b *Batch, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	path := w.Path(t.Name)

	w.logger.DebugContext(ctx, "staging CSV table",
		slog.String("table", t.Name),
		slog.String("path", path),
		slog.Int("record_count", len(t.Records)))

	return b.Stage(path, func(out io.Writer) error {
		return w.encode(out, t)
	})
}

// WriteTable atomically writes a single table
func (w *CSVWriter) WriteTable(ctx context.Context, t Table) error {
	b := NewBatch(w.logger)
	if err := w.Stage(ctx, b, t); err != nil {
		return err
	}
	_, err := b.Commit(ctx)
	return err
}

func (w *CSVWriter) encode(out io.Writer, t Table) error {
	buf := bufio.NewWriter(out)
	if w.options.BOMPrefix {
		if _, err := buf.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(buf)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, record := range t.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}

// ReadCSV reads a persisted table. A leading BOM is ignored.
// A missing file is reported as a NOT_FOUND error.
func ReadCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, apperrors.NewAppError(apperrors.ErrTypeNotFound,
				fmt.Sprintf("%s not found", path), err).WithContext("file", path)
		}
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("read csv %s", path), err)
	}
	if len(rows) == 0 {
		return nil, nil, apperrors.NewParsingError(fmt.Sprintf("%s is empty", path), nil)
	}

	header := rows[0]
	header[0] = strings.TrimPrefix(header[0], string(utf8BOM))
	return header, rows[1:], nil
}
