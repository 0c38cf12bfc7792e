package ingest

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

// Header prefixes stripped before matching column names.
var columnPrefixes = []string{"team_match_", "team_season_"}

// NormalizeColumn strips the provider prefixes from a header cell.
func NormalizeColumn(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range columnPrefixes {
		if strings.HasPrefix(name, prefix) {
			return strings.TrimPrefix(name, prefix)
		}
	}
	return name
}

// field binds one struct field to one column. Tags have the form
// `col:"name"` with the options date (convert Excel serial numbers) and
// optional (an empty integer cell reads as 0 instead of failing).
type field struct {
	column   string
	index    int
	kind     reflect.Kind
	date     bool
	optional bool
}

// schema is the typed column layout of one input table
type schema struct {
	table  string
	fields []field
}

func schemaOf(table string, v interface{}) *schema {
	t := reflect.TypeOf(v)
	s := &schema{table: table}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("col")
		if tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		f := field{column: parts[0], index: i, kind: t.Field(i).Type.Kind()}
		for _, opt := range parts[1:] {
			switch opt {
			case "date":
				f.date = true
			case "optional":
				f.optional = true
			}
		}
		s.fields = append(s.fields, f)
	}
	return s
}

// Columns lists the required column names in declaration order
func (s *schema) Columns() []string {
	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		cols[i] = f.column
	}
	return cols
}

// positions maps every schema column to its header index. All missing
// columns are reported together in a single MissingInput error.
func (s *schema) positions(header []string) ([]int, error) {
	lookup := make(map[string]int, len(header))
	for i, name := range header {
		name = NormalizeColumn(name)
		if _, seen := lookup[name]; !seen {
			lookup[name] = i
		}
	}

	pos := make([]int, len(s.fields))
	var missing []string
	for i, f := range s.fields {
		idx, ok := lookup[f.column]
		if !ok {
			missing = append(missing, f.column)
			continue
		}
		pos[i] = idx
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError(s.table, missing)
	}
	return pos, nil
}

// decode converts every sheet row into a T. T must be a struct whose tagged
// fields are string, int64 or float64.
func decode[T any](s *schema, sheet *Sheet) ([]T, error) {
	pos, err := s.positions(sheet.Header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sheet.Source, err)
	}

	out := make([]T, 0, len(sheet.Rows))
	for r, row := range sheet.Rows {
		var rec T
		v := reflect.ValueOf(&rec).Elem()
		for i, f := range s.fields {
			cell := ""
			if pos[i] < len(row) {
				cell = strings.TrimSpace(row[pos[i]])
			}
			if err := setField(v.Field(f.index), f, cell); err != nil {
				// +2: one for the header, one for 1-based numbering
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("%s row %d column %s", sheet.Source, r+2, f.column), err)
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func setField(dst reflect.Value, f field, cell string) error {
	switch f.kind {
	case reflect.String:
		if f.date {
			cell = excelDate(cell)
		}
		dst.SetString(normalizeID(cell))
	case reflect.Int64, reflect.Int:
		if cell == "" && !f.optional {
			return errors.New("empty identifier cell")
		}
		n, err := parseInt(cell)
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Float64:
		x, err := ParseFloat(cell)
		if err != nil {
			return err
		}
		dst.SetFloat(x)
	default:
		return fmt.Errorf("unsupported field kind %s", f.kind)
	}
	return nil
}

// ParseFloat parses a numeric cell. Empty and NaN cells are undefined and map to NaN.
func ParseFloat(cell string) (float64, error) {
	switch strings.ToLower(cell) {
	case "", "nan", "na", "null", "none":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func parseInt(cell string) (int64, error) {
	if cell == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n, nil
	}
	x, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(x) || x != math.Trunc(x) {
		return 0, fmt.Errorf("%q is not an integer", cell)
	}
	return int64(x), nil
}

// normalizeID renders integral numbers without a fractional part ("123.0" -> "123")
// so identifiers read from xlsx and csv compare equal.
func normalizeID(cell string) string {
	if !strings.Contains(cell, ".") {
		return cell
	}
	x, err := strconv.ParseFloat(cell, 64)
	if err != nil || x != math.Trunc(x) || math.Abs(x) > 1<<53 {
		return cell
	}
	return strconv.FormatInt(int64(x), 10)
}

// excelDate converts an Excel serial date to ISO format; other text is kept.
func excelDate(cell string) string {
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Format("2006-01-02")
}
