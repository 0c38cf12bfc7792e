package ingest

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/shared/testutil"
)

// teamMatchRow builds a row following TeamMatchColumns with every statistic set to stat.
func teamMatchRow(matchID string, teamID int64, team string, stat float64) []interface{} {
	cols := TeamMatchColumns()
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		switch c {
		case "match_id":
			row[i] = matchID
		case "team_id":
			row[i] = teamID
		case "team_name":
			row[i] = team
		case "account_id":
			row[i] = 7336
		case "minutes":
			row[i] = 90.0
		default:
			row[i] = stat
		}
	}
	return row
}

func prefixed(cols []string, prefix string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		if strings.HasPrefix(c, "match_id") || c == "team_id" || c == "team_name" || c == "account_id" {
			out[i] = c
			continue
		}
		out[i] = prefix + c
	}
	return out
}

func TestNormalizeColumn(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"team_match_np_xg", "np_xg"},
		{"team_season_corners_pg", "corners_pg"},
		{"  goals ", "goals"},
		{"match_id", "match_id"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColumn(tt.in))
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		cell    string
		want    float64
		nan     bool
		wantErr bool
	}{
		{cell: "1.25", want: 1.25},
		{cell: "0", want: 0},
		{cell: "", nan: true},
		{cell: "NaN", nan: true},
		{cell: "null", nan: true},
		{cell: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, err := ParseFloat(tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.nan {
				assert.True(t, math.IsNaN(got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIDAndExcelDate(t *testing.T) {
	assert.Equal(t, "3895302", normalizeID("3895302.0"))
	assert.Equal(t, "12.5", normalizeID("12.5"))
	assert.Equal(t, "abc", normalizeID("abc"))

	assert.Equal(t, "2025-01-01", excelDate("45658"))
	assert.Equal(t, "2025-02-14", excelDate("2025-02-14"))
}

func TestReadSheet_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadSheet(filepath.Join(dir, "absent.xlsx"), "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingInput))

	txt := testutil.WriteCSV(t, dir, "stats.txt", []string{"a"}, nil)
	_, err = ReadSheet(txt, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestLoadTeamMatches_Workbook(t *testing.T) {
	dir := t.TempDir()
	stats := testutil.WriteWorkbook(t, dir, "stats.xlsx",
		prefixed(TeamMatchColumns(), "team_match_"),
		[][]interface{}{
			teamMatchRow("100", 1, "Audax", 2),
			teamMatchRow("100", 2, "Colo-Colo", 1),
			teamMatchRow("200", 1, "Audax", 3),
		})
	matches := testutil.WriteWorkbook(t, dir, "matches.xlsx", MatchColumns(),
		[][]interface{}{
			{100, 45658.0, "Chile - Primera División", "2025", 1, "Regular Season", "Audax", "Colo-Colo"},
			{100, 45659.0, "Chile - Primera División", "2025", 9, "Regular Season", "X", "Y"},
		})

	logger, capture := testutil.NewTestLogger(t)
	loader := NewLoader("", logger)

	rows, report, err := loader.LoadTeamMatches(context.Background(), stats, matches)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, "100", first.MatchID)
	assert.Equal(t, int64(1), first.TeamID)
	assert.Equal(t, "Audax", first.TeamName)
	assert.Equal(t, 90.0, first.Minutes)
	assert.Equal(t, 2.0, first.NpXG)
	assert.Equal(t, "2025-01-01", first.Match.MatchDate)
	assert.Equal(t, int64(1), first.Match.MatchWeek)
	assert.Equal(t, "Audax", first.Match.HomeTeam)

	// match 200 has no metadata and only one team row
	assert.Equal(t, Match{}, rows[2].Match)
	assert.Equal(t, []string{"200"}, report.MissingMetadata)
	assert.Equal(t, []string{"100"}, report.DuplicateMetadata)
	assert.Equal(t, []string{"200"}, report.IncompleteMatches)
	assert.False(t, report.Clean())

	testutil.AssertLogged(t, capture, slog.LevelWarn, "match join irregularities")
}

func TestLoadTeamMatches_MissingColumns(t *testing.T) {
	dir := t.TempDir()

	cols := TeamMatchColumns()
	var header []string
	for _, c := range cols {
		if c == "np_xg" || c == "possession" {
			continue
		}
		header = append(header, c)
	}
	stats := testutil.WriteCSV(t, dir, "stats.csv", header, [][]string{make([]string, len(header))})
	matches := testutil.WriteCSV(t, dir, "matches.csv", MatchColumns(), nil)

	_, _, err := NewLoader("", nil).LoadTeamMatches(context.Background(), stats, matches)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingInput))
	assert.Contains(t, err.Error(), "np_xg")
	assert.Contains(t, err.Error(), "possession")
}

func TestLoadTeamMatches_EmptyCellsAreNaN(t *testing.T) {
	dir := t.TempDir()

	cols := TeamMatchColumns()
	row := make([]string, len(cols))
	for i, c := range cols {
		switch c {
		case "match_id":
			row[i] = "100.0"
		case "team_id", "account_id":
			row[i] = "1"
		case "team_name":
			row[i] = "Audax"
		case "np_shots":
			row[i] = ""
		default:
			row[i] = "1"
		}
	}
	stats := testutil.WriteCSV(t, dir, "stats.csv", cols, [][]string{row, make([]string, len(cols))})
	matches := testutil.WriteCSV(t, dir, "matches.csv", MatchColumns(),
		[][]string{{"100", "2025-02-01", "Chile", "2025", "3", "Regular Season", "Audax", "Everton"}})

	rows, report, err := NewLoader("", nil).LoadTeamMatches(context.Background(), stats, matches)
	require.NoError(t, err)
	require.Len(t, rows, 1, "blank rows are skipped")
	assert.Equal(t, "100", rows[0].MatchID)
	assert.True(t, math.IsNaN(rows[0].NpShots))
	assert.Equal(t, "2025-02-01", rows[0].Match.MatchDate)
	assert.Equal(t, []string{"100"}, report.IncompleteMatches)
}

func TestLoadTeamMatches_BadNumber(t *testing.T) {
	dir := t.TempDir()

	cols := TeamMatchColumns()
	row := make([]string, len(cols))
	for i := range row {
		row[i] = "1"
	}
	row[len(row)-1] = "lots"
	stats := testutil.WriteCSV(t, dir, "stats.csv", cols, [][]string{row})
	matches := testutil.WriteCSV(t, dir, "matches.csv", MatchColumns(), nil)

	_, _, err := NewLoader("", nil).LoadTeamMatches(context.Background(), stats, matches)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadTeamMatches_EmptyTeamID(t *testing.T) {
	dir := t.TempDir()

	cols := TeamMatchColumns()
	row := make([]string, len(cols))
	for i, c := range cols {
		row[i] = "1"
		if c == "team_id" {
			row[i] = ""
		}
	}
	stats := testutil.WriteCSV(t, dir, "stats.csv", cols, [][]string{row})
	matches := testutil.WriteCSV(t, dir, "matches.csv", MatchColumns(), nil)

	_, _, err := NewLoader("", nil).LoadTeamMatches(context.Background(), stats, matches)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	assert.Contains(t, err.Error(), "column team_id")
}

func TestSetField_Integers(t *testing.T) {
	tests := []struct {
		name    string
		f       field
		cell    string
		want    int64
		wantErr bool
	}{
		{name: "required id", f: field{column: "team_id", kind: reflect.Int64}, cell: "211", want: 211},
		{name: "float formatted id", f: field{column: "team_id", kind: reflect.Int64}, cell: "211.0", want: 211},
		{name: "empty required id", f: field{column: "team_id", kind: reflect.Int64}, cell: "", wantErr: true},
		{name: "empty optional", f: field{column: "account_id", kind: reflect.Int64, optional: true}, cell: "", want: 0},
		{name: "fractional", f: field{column: "match_week", kind: reflect.Int64}, cell: "1.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n int64
			err := setField(reflect.ValueOf(&n).Elem(), tt.f, tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestLoadSeasonStats(t *testing.T) {
	dir := t.TempDir()

	cols := SeasonStatsColumns()
	header := prefixed(cols, "team_season_")
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		switch c {
		case "team_id":
			row[i] = 42
		case "team_name":
			row[i] = "Audax"
		default:
			row[i] = 0.5
		}
	}
	path := testutil.WriteWorkbook(t, dir, "season.xlsx", header, [][]interface{}{row})

	stats, err := NewLoader("", nil).LoadSeasonStats(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(42), stats[0].TeamID)
	assert.Equal(t, 0.5, stats[0].Corners)
	assert.Equal(t, 0.5, stats[0].SPPG)
}

func TestJoin_Clean(t *testing.T) {
	stats := []TeamMatch{
		{MatchID: "1", TeamName: "A"},
		{MatchID: "1", TeamName: "B"},
	}
	matches := []Match{{MatchID: "1", MatchWeek: 4, HomeTeam: "A", AwayTeam: "B"}}

	joined, report := Join(stats, matches)
	assert.True(t, report.Clean())
	for _, row := range joined {
		assert.Equal(t, int64(4), row.Match.MatchWeek)
	}
	assert.Equal(t, Match{}, stats[0].Match, "input rows are not modified")
}
