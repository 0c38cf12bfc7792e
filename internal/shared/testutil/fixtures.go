package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes header and rows to the first sheet of a new .xlsx file in dir
// and returns its path. Cells are written as given; numbers stay numeric.
func WriteWorkbook(t *testing.T, dir, name string, header []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &head))
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

// WriteCSV writes header and rows to a CSV file in dir and returns its path
func WriteCSV(t *testing.T, dir, name string, header []string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return path
}
