package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

// Sheet is a raw table: one header row followed by data rows, all as text.
type Sheet struct {
	Source string
	Header []string
	Rows   [][]string
}

// ReadSheet reads a .xlsx or .csv file into a Sheet. For workbooks, sheetName
// selects the worksheet; empty means the first one.
func ReadSheet(path, sheetName string) (*Sheet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewMissingFileError(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path, sheetName)
	case ".csv":
		return readCSV(path)
	default:
		return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported input format %q", filepath.Ext(path)), nil).
			WithContext("file", path)
	}
}

func readWorkbook(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("open workbook %s", path), err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewMissingFileError(path, errors.New("workbook has no sheets"))
		}
		sheetName = sheets[0]
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %q of %s", sheetName, path), err)
	}
	return newSheet(path, rows)
}

func readCSV(path string) (*Sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewMissingFileError(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("read csv %s", path), err)
		}
		rows = append(rows, record)
	}
	return newSheet(path, rows)
}

func newSheet(path string, rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMissingInput,
			fmt.Sprintf("%s has no header row", path), nil).WithContext("file", path)
	}

	header := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
	}

	return &Sheet{Source: path, Header: header, Rows: data}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
