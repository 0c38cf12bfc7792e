package kpi

import (
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/ingest"
)

// column encodes one field of T as a table cell and back
type column[T any] struct {
	name   string
	format func(T) string
	parse  func(*T, string) error
}

func floatCol[T any](name string, get func(T) float64, set func(*T, float64)) column[T] {
	return column[T]{
		name:   name,
		format: func(r T) string { return FormatFloat(get(r)) },
		parse: func(r *T, s string) error {
			v, err := ingest.ParseFloat(s)
			if err != nil {
				return err
			}
			set(r, v)
			return nil
		},
	}
}

func intCol[T any](name string, get func(T) int64, set func(*T, int64)) column[T] {
	return column[T]{
		name:   name,
		format: func(r T) string { return strconv.FormatInt(get(r), 10) },
		parse: func(r *T, s string) error {
			if s == "" {
				set(r, 0)
				return nil
			}
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				f, ferr := strconv.ParseFloat(s, 64)
				if ferr != nil || f != math.Trunc(f) {
					return err
				}
				n = int64(f)
			}
			set(r, n)
			return nil
		},
	}
}

func textCol[T any](name string, get func(T) string, set func(*T, string)) column[T] {
	return column[T]{
		name:   name,
		format: get,
		parse: func(r *T, s string) error {
			set(r, s)
			return nil
		},
	}
}

// FormatFloat renders a table number; NaN is written as an empty cell.
func FormatFloat(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func encode[T any](cols []column[T], rows []T) ([]string, [][]string) {
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	records := make([][]string, len(rows))
	for r, row := range rows {
		rec := make([]string, len(cols))
		for i, c := range cols {
			rec[i] = c.format(row)
		}
		records[r] = rec
	}
	return header, records
}

func decode[T any](table string, cols []column[T], header []string, records [][]string) ([]T, error) {
	lookup := make(map[string]int, len(header))
	for i, h := range header {
		lookup[h] = i
	}
	pos := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		idx, ok := lookup[c.name]
		if !ok {
			missing = append(missing, c.name)
			continue
		}
		pos[i] = idx
	}
	if len(missing) > 0 {
		return nil, apperrors.NewMissingColumnsError(table, missing)
	}

	out := make([]T, len(records))
	for r, rec := range records {
		for i, c := range cols {
			cell := ""
			if pos[i] < len(rec) {
				cell = rec[pos[i]]
			}
			if err := c.parse(&out[r], cell); err != nil {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("%s row %d column %s", table, r+2, c.name), err)
			}
		}
	}
	return out, nil
}

var finalColumns = []column[FinalRow]{
	textCol("match_id", func(r FinalRow) string { return r.MatchID }, func(r *FinalRow, v string) { r.MatchID = v }),
	textCol("team_name", func(r FinalRow) string { return r.TeamName }, func(r *FinalRow, v string) { r.TeamName = v }),
	intCol("team_id", func(r FinalRow) int64 { return r.TeamID }, func(r *FinalRow, v int64) { r.TeamID = v }),
	intCol("account_id", func(r FinalRow) int64 { return r.AccountID }, func(r *FinalRow, v int64) { r.AccountID = v }),
	textCol("match_date", func(r FinalRow) string { return r.MatchDate }, func(r *FinalRow, v string) { r.MatchDate = v }),
	textCol("competition", func(r FinalRow) string { return r.Competition }, func(r *FinalRow, v string) { r.Competition = v }),
	textCol("season", func(r FinalRow) string { return r.Season }, func(r *FinalRow, v string) { r.Season = v }),
	intCol("match_week", func(r FinalRow) int64 { return r.MatchWeek }, func(r *FinalRow, v int64) { r.MatchWeek = v }),
	textCol("competition_stage", func(r FinalRow) string { return r.CompetitionStage }, func(r *FinalRow, v string) { r.CompetitionStage = v }),
	textCol("home_team", func(r FinalRow) string { return r.HomeTeam }, func(r *FinalRow, v string) { r.HomeTeam = v }),
	textCol("away_team", func(r FinalRow) string { return r.AwayTeam }, func(r *FinalRow, v string) { r.AwayTeam = v }),
	floatCol("np_xg", func(r FinalRow) float64 { return r.NpXG }, func(r *FinalRow, v float64) { r.NpXG = v }),
	floatCol("np_shots", func(r FinalRow) float64 { return r.NpShots }, func(r *FinalRow, v float64) { r.NpShots = v }),
	floatCol("obv_shot", func(r FinalRow) float64 { return r.OBVShot }, func(r *FinalRow, v float64) { r.OBVShot = v }),
	floatCol("xgchain", func(r FinalRow) float64 { return r.XGChain }, func(r *FinalRow, v float64) { r.XGChain = v }),
	floatCol("goals", func(r FinalRow) float64 { return r.Goals }, func(r *FinalRow, v float64) { r.Goals = v }),
	floatCol(ColGEINorm, func(r FinalRow) float64 { return r.GEI }, func(r *FinalRow, v float64) { r.GEI = v }),
	floatCol(ColGCINorm, func(r FinalRow) float64 { return r.GCI }, func(r *FinalRow, v float64) { r.GCI = v }),
	floatCol(ColPGCNorm, func(r FinalRow) float64 { return r.PGC }, func(r *FinalRow, v float64) { r.PGC = v }),
	floatCol(ColGPI, func(r FinalRow) float64 { return r.GPI }, func(r *FinalRow, v float64) { r.GPI = v }),
	textCol("match_score", func(r FinalRow) string { return r.MatchScore }, func(r *FinalRow, v string) { r.MatchScore = v }),
}

var rankingColumns = []column[RankingRow]{
	intCol(ColRank, func(r RankingRow) int64 { return int64(r.Rank) }, func(r *RankingRow, v int64) { r.Rank = int(v) }),
	textCol("team_name", func(r RankingRow) string { return r.TeamName }, func(r *RankingRow, v string) { r.TeamName = v }),
	intCol("team_id", func(r RankingRow) int64 { return r.TeamID }, func(r *RankingRow, v int64) { r.TeamID = v }),
	intCol("match_week", func(r RankingRow) int64 { return r.MatchWeek }, func(r *RankingRow, v int64) { r.MatchWeek = v }),
	floatCol(ColGPI, func(r RankingRow) float64 { return r.GPI }, func(r *RankingRow, v float64) { r.GPI = v }),
	floatCol(ColGEI, func(r RankingRow) float64 { return r.GEI }, func(r *RankingRow, v float64) { r.GEI = v }),
	floatCol(ColGCI, func(r RankingRow) float64 { return r.GCI }, func(r *RankingRow, v float64) { r.GCI = v }),
	floatCol(ColPGC, func(r RankingRow) float64 { return r.PGC }, func(r *RankingRow, v float64) { r.PGC = v }),
}

var setPieceColumns = []column[SetPieceRow]{
	textCol("team_name", func(r SetPieceRow) string { return r.TeamName }, func(r *SetPieceRow, v string) { r.TeamName = v }),
	intCol("team_id", func(r SetPieceRow) int64 { return r.TeamID }, func(r *SetPieceRow, v int64) { r.TeamID = v }),
	floatCol("corner_subindex", func(r SetPieceRow) float64 { return r.Corner }, func(r *SetPieceRow, v float64) { r.Corner = v }),
	floatCol("free_kick_subindex", func(r SetPieceRow) float64 { return r.FreeKick }, func(r *SetPieceRow, v float64) { r.FreeKick = v }),
	floatCol("directfk_subindex", func(r SetPieceRow) float64 { return r.DirectFreeKick }, func(r *SetPieceRow, v float64) { r.DirectFreeKick = v }),
	floatCol("throw_in_subindex", func(r SetPieceRow) float64 { return r.ThrowIn }, func(r *SetPieceRow, v float64) { r.ThrowIn = v }),
	floatCol(ColSetPieceEfficacy, func(r SetPieceRow) float64 { return r.Efficacy }, func(r *SetPieceRow, v float64) { r.Efficacy = v }),
}

var efficiencyColumns = func() []column[SetPieceEfficiencyRow] {
	cols := make([]column[SetPieceEfficiencyRow], 0, len(setPieceColumns)+1)
	for _, c := range setPieceColumns {
		c := c
		cols = append(cols, column[SetPieceEfficiencyRow]{
			name:   c.name,
			format: func(r SetPieceEfficiencyRow) string { return c.format(r.SetPieceRow) },
			parse:  func(r *SetPieceEfficiencyRow, s string) error { return c.parse(&r.SetPieceRow, s) },
		})
	}
	return append(cols, floatCol(ColGoalSetPiece,
		func(r SetPieceEfficiencyRow) float64 { return r.GoalSetPiece },
		func(r *SetPieceEfficiencyRow, v float64) { r.GoalSetPiece = v }))
}()

func goalKPIColumns(withTeamID bool) []column[GoalKPIRow] {
	cols := []column[GoalKPIRow]{
		intCol(ColRank, func(r GoalKPIRow) int64 { return int64(r.Rank) }, func(r *GoalKPIRow, v int64) { r.Rank = int(v) }),
		textCol("team_name", func(r GoalKPIRow) string { return r.TeamName }, func(r *GoalKPIRow, v string) { r.TeamName = v }),
	}
	if withTeamID {
		cols = append(cols, intCol("team_id", func(r GoalKPIRow) int64 { return r.TeamID }, func(r *GoalKPIRow, v int64) { r.TeamID = v }))
	}
	cols = append(cols, intCol("match_week", func(r GoalKPIRow) int64 { return r.MatchWeek }, func(r *GoalKPIRow, v int64) { r.MatchWeek = v }))
	for _, k := range AllKPIs() {
		k := k
		cols = append(cols, floatCol(k.Column(),
			func(r GoalKPIRow) float64 { return r.Value(k) },
			func(r *GoalKPIRow, v float64) { r.SetValue(k, v) }))
	}
	return cols
}

var (
	goalKPIsColumns  = goalKPIColumns(true)
	topValuesColumns = goalKPIColumns(false)
)

// EncodeFinal renders the final table
func EncodeFinal(rows []FinalRow) ([]string, [][]string) { return encode(finalColumns, rows) }

// DecodeFinal parses a persisted final table
func DecodeFinal(header []string, records [][]string) ([]FinalRow, error) {
	return decode("df_final", finalColumns, header, records)
}

// EncodeRanking renders a per-KPI ranking table
func EncodeRanking(rows []RankingRow) ([]string, [][]string) { return encode(rankingColumns, rows) }

// DecodeRanking parses a persisted ranking table
func DecodeRanking(header []string, records [][]string) ([]RankingRow, error) {
	return decode("ranking", rankingColumns, header, records)
}

// EncodeSetPieces renders the set-piece table
func EncodeSetPieces(rows []SetPieceRow) ([]string, [][]string) {
	return encode(setPieceColumns, rows)
}

// EncodeSetPieceEfficiency renders the set-piece efficiency table
func EncodeSetPieceEfficiency(rows []SetPieceEfficiencyRow) ([]string, [][]string) {
	return encode(efficiencyColumns, rows)
}

// DecodeSetPieceEfficiency parses a persisted set-piece efficiency table
func DecodeSetPieceEfficiency(header []string, records [][]string) ([]SetPieceEfficiencyRow, error) {
	return decode("df_setpiece_efficiency", efficiencyColumns, header, records)
}

// EncodeGoalKPIs renders the GoalKPIs table
func EncodeGoalKPIs(rows []GoalKPIRow) ([]string, [][]string) { return encode(goalKPIsColumns, rows) }

// EncodeGoalKPIsTopValues renders the published GoalKPIs + TopValues table, which has no team_id
func EncodeGoalKPIsTopValues(rows []GoalKPIRow) ([]string, [][]string) {
	return encode(topValuesColumns, rows)
}

// DecodeGoalKPIsTopValues parses a persisted GoalKPIs + TopValues table
func DecodeGoalKPIsTopValues(header []string, records [][]string) ([]GoalKPIRow, error) {
	return decode("df_GoalKPIs_TopValues", topValuesColumns, header, records)
}
