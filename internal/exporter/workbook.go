package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Excel caps sheet names at 31 characters.
const maxSheetName = 31

// WorkbookWriter writes every table into one workbook, one sheet per table
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Stage builds the workbook and adds it to the batch under path
func (w *WorkbookWriter) Stage(ctx context.Context, b *Batch, path string, tables []Table) error {
	f, err := BuildWorkbook(tables)
	if err != nil {
		return err
	}
	defer f.Close()

	w.logger.DebugContext(ctx, "staging workbook",
		slog.String("path", path),
		slog.Int("sheets", len(tables)))

	return b.Stage(path, func(out io.Writer) error {
		return f.Write(out)
	})
}

// BuildWorkbook lays the tables out as sheets named after them. Numeric cells are
// stored as numbers, empty cells are left blank.
func BuildWorkbook(tables []Table) (*excelize.File, error) {
	f := excelize.NewFile()

	for i, t := range tables {
		if err := t.Validate(); err != nil {
			f.Close()
			return nil, err
		}

		sheet := sheetName(t.Name)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", sheet, err)
		}

		if err := writeSheetRow(f, sheet, 1, t.Header, false); err != nil {
			f.Close()
			return nil, err
		}
		for r, rec := range t.Records {
			if err := writeSheetRow(f, sheet, r+2, rec, true); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, cells []string, typed bool) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		if typed {
			values[i] = cellValue(c)
		} else {
			values[i] = c
		}
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue keeps numbers numeric so spreadsheet formulas and sorting work
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return x
	}
	return s
}

func sheetName(table string) string {
	if len(table) > maxSheetName {
		return table[:maxSheetName]
	}
	return table
}
