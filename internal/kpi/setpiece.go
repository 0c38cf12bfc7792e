package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/ingest"
)

// SetPieceReport lists the teams left out of the set-piece tables
type SetPieceReport struct {
	// Dropped teams had a zero or missing set-piece denominator
	Dropped []string `json:"dropped,omitempty"`
	// DroppedGoalSetPiece teams had no usable season set-piece ratios
	DroppedGoalSetPiece []string `json:"dropped_goal_set_piece,omitempty"`
	// Degenerate lists sub-index columns with no range to scale
	Degenerate []string `json:"degenerate,omitempty"`
	// Unmatched teams appear in only one side of the team id merge
	Unmatched []string `json:"unmatched,omitempty"`
}

// TeamScore is a single index value for a team
type TeamScore struct {
	TeamName string
	TeamID   int64
	Value    float64
}

// SetPieceResult holds both set-piece tables
type SetPieceResult struct {
	SetPieces  []SetPieceRow
	Efficiency []SetPieceEfficiencyRow
	Report     SetPieceReport
}

// SetPieceCalculator derives the set-piece indices from season statistics
type SetPieceCalculator struct {
	efficacy   EfficacyWeights
	gspWeights GoalSetPieceWeights
	logger     *slog.Logger
}

// NewSetPieceCalculator creates a calculator with the standard weights
func NewSetPieceCalculator(logger *slog.Logger) *SetPieceCalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SetPieceCalculator{
		efficacy:   DefaultEfficacyWeights,
		gspWeights: DefaultGoalSetPieceWeights,
		logger:     logger,
	}
}

// setPieceType describes one kind of set piece in the season statistics
type setPieceType struct {
	name     string
	weights  RatioWeights
	attempts func(ingest.SeasonStats) float64
	goals    func(ingest.SeasonStats) float64
	xg       func(ingest.SeasonStats) float64
	shots    func(ingest.SeasonStats) float64
}

var setPieceTypes = []setPieceType{
	{
		name:     "corner_subindex",
		weights:  CornerWeights,
		attempts: func(s ingest.SeasonStats) float64 { return s.Corners },
		goals:    func(s ingest.SeasonStats) float64 { return s.GoalsFromCorners },
		xg:       func(s ingest.SeasonStats) float64 { return s.CornerXG },
		shots:    func(s ingest.SeasonStats) float64 { return s.ShotsFromCorners },
	},
	{
		name:     "free_kick_subindex",
		weights:  FreeKickWeights,
		attempts: func(s ingest.SeasonStats) float64 { return s.FreeKicks },
		goals:    func(s ingest.SeasonStats) float64 { return s.GoalsFromFreeKicks },
		xg:       func(s ingest.SeasonStats) float64 { return s.FreeKickXG },
		shots:    func(s ingest.SeasonStats) float64 { return s.ShotsFromFreeKicks },
	},
	{
		name:     "directfk_subindex",
		weights:  DirectFreeKickWeights,
		attempts: func(s ingest.SeasonStats) float64 { return s.DirectFreeKicks },
		goals:    func(s ingest.SeasonStats) float64 { return s.DirectFreeKickGoals },
		xg:       func(s ingest.SeasonStats) float64 { return s.DirectFreeKickXG },
		shots:    func(s ingest.SeasonStats) float64 { return s.ShotsFromDirectFreeKicks },
	},
	{
		name:     "throw_in_subindex",
		weights:  ThrowInWeights,
		attempts: func(s ingest.SeasonStats) float64 { return s.ThrowIns },
		goals:    func(s ingest.SeasonStats) float64 { return s.GoalsFromThrowIns },
		xg:       func(s ingest.SeasonStats) float64 { return s.ThrowInXG },
		shots:    func(s ingest.SeasonStats) float64 { return s.ShotsFromThrowIns },
	},
}

// subIndex is the weighted sum of the goal, xG and shot ratios per attempt.
// ok is false when there were no attempts or a ratio is undefined.
func (t setPieceType) subIndex(s ingest.SeasonStats) (float64, bool) {
	attempts := t.attempts(s)
	if !defined(attempts) || attempts <= 0 {
		return 0, false
	}
	v := t.weights.Goal*t.goals(s)/attempts +
		t.weights.XG*t.xg(s)/attempts +
		t.weights.Shot*t.shots(s)/attempts
	return v, defined(v)
}

// Compute builds the set-piece table and the set-piece efficiency table.
func (c *SetPieceCalculator) Compute(ctx context.Context, stats []ingest.SeasonStats) (SetPieceResult, error) {
	var result SetPieceResult
	if len(stats) == 0 {
		return result, apperrors.NewAppError(apperrors.ErrTypeMissingInput,
			ingest.TableSeasonStats+" has no data rows", nil)
	}

	result.SetPieces = c.setPieces(ctx, stats, &result.Report)
	scores := c.goalSetPiece(ctx, stats, &result.Report)
	result.Efficiency, result.Report.Unmatched = MergeSetPieceEfficiency(result.SetPieces, scores)

	if len(result.Report.Unmatched) > 0 {
		c.logger.WarnContext(ctx, "set-piece merge left teams unmatched",
			slog.Any("teams", result.Report.Unmatched))
	}

	c.logger.InfoContext(ctx, "computed set-piece indices",
		slog.Int("teams", len(stats)),
		slog.Int("set_piece_rows", len(result.SetPieces)),
		slog.Int("efficiency_rows", len(result.Efficiency)))

	return result, nil
}

func (c *SetPieceCalculator) setPieces(ctx context.Context, stats []ingest.SeasonStats, report *SetPieceReport) []SetPieceRow {
	var kept []ingest.SeasonStats
	var subs [][4]float64
	for _, s := range stats {
		var v [4]float64
		ok := true
		for i, t := range setPieceTypes {
			if v[i], ok = t.subIndex(s); !ok {
				break
			}
		}
		if !ok {
			report.Dropped = append(report.Dropped, teamLabel(s.TeamName, s.TeamID))
			continue
		}
		kept = append(kept, s)
		subs = append(subs, v)
	}
	if len(report.Dropped) > 0 {
		c.logger.WarnContext(ctx, "teams dropped from set-piece index",
			slog.String("reason", "zero or missing set-piece attempts"),
			slog.Any("teams", report.Dropped))
	}

	var norm [4][]float64
	for i, t := range setPieceTypes {
		column := make([]float64, len(subs))
		for r := range subs {
			column[r] = subs[r][i]
		}
		var degenerate bool
		norm[i], degenerate = normalize(column, NormMin, NormMax)
		if degenerate {
			report.Degenerate = append(report.Degenerate, t.name)
			c.logger.WarnContext(ctx, "set-piece sub-index has no range, using midpoint",
				slog.String("column", t.name))
		}
	}

	rows := make([]SetPieceRow, len(kept))
	for r, s := range kept {
		row := SetPieceRow{
			TeamName:       s.TeamName,
			TeamID:         s.TeamID,
			Corner:         norm[0][r],
			FreeKick:       norm[1][r],
			DirectFreeKick: norm[2][r],
			ThrowIn:        norm[3][r],
		}
		row.Efficacy = c.efficacy.Corner*row.Corner +
			c.efficacy.FreeKick*row.FreeKick +
			c.efficacy.DirectFreeKick*row.DirectFreeKick +
			c.efficacy.ThrowIn*row.ThrowIn
		rows[r] = row
	}
	return rows
}

// goalSetPiece scores each team from its season goal ratio, xG per set piece,
// shot ratio and goals per set piece, each scaled into [0, 1], then mapped
// into [NormMin, NormMax].
func (c *SetPieceCalculator) goalSetPiece(ctx context.Context, stats []ingest.SeasonStats, report *SetPieceReport) []TeamScore {
	var kept []ingest.SeasonStats
	var goalRatio, xgPerSP, shotRatio, volume []float64
	for _, s := range stats {
		if !defined(s.SPPG) || s.SPPG <= 0 {
			report.DroppedGoalSetPiece = append(report.DroppedGoalSetPiece, teamLabel(s.TeamName, s.TeamID))
			continue
		}
		vol := s.SPGoalsPG / s.SPPG
		if !defined(s.SPGoalRatio) || !defined(s.XGPerSP) || !defined(s.SPShotRatio) || !defined(vol) {
			report.DroppedGoalSetPiece = append(report.DroppedGoalSetPiece, teamLabel(s.TeamName, s.TeamID))
			continue
		}
		kept = append(kept, s)
		goalRatio = append(goalRatio, s.SPGoalRatio)
		xgPerSP = append(xgPerSP, s.XGPerSP)
		shotRatio = append(shotRatio, s.SPShotRatio)
		volume = append(volume, vol)
	}
	if len(report.DroppedGoalSetPiece) > 0 {
		c.logger.WarnContext(ctx, "teams dropped from GoalSetPiece index",
			slog.String("reason", "zero or missing set pieces per game"),
			slog.Any("teams", report.DroppedGoalSetPiece))
	}

	ratios := []struct {
		name   string
		values *[]float64
	}{
		{"sp_goal_ratio", &goalRatio},
		{"xg_per_sp", &xgPerSP},
		{"sp_shot_ratio", &shotRatio},
		{"sp_goals_per_sp", &volume},
	}
	for _, r := range ratios {
		var degenerate bool
		*r.values, degenerate = normalize(*r.values, 0, 1)
		if degenerate {
			report.Degenerate = append(report.Degenerate, r.name)
			c.logger.WarnContext(ctx, "season set-piece ratio has no range, using midpoint",
				slog.String("column", r.name))
		}
	}

	w := c.gspWeights
	scores := make([]TeamScore, len(kept))
	for i, s := range kept {
		x := w.GoalRatio*goalRatio[i] + w.XGPerSP*xgPerSP[i] + w.ShotRatio*shotRatio[i] + w.Volume*volume[i]
		scores[i] = TeamScore{
			TeamName: s.TeamName,
			TeamID:   s.TeamID,
			Value:    NormMin + (NormMax-NormMin)*x,
		}
	}
	return scores
}

// MergeSetPieceEfficiency inner-joins set-piece rows with GoalSetPiece scores
// on team id, keeping set-piece order. Teams found on one side only are
// returned as unmatched.
func MergeSetPieceEfficiency(setPieces []SetPieceRow, scores []TeamScore) ([]SetPieceEfficiencyRow, []string) {
	byID := make(map[int64]TeamScore, len(scores))
	for _, s := range scores {
		if _, ok := byID[s.TeamID]; !ok {
			byID[s.TeamID] = s
		}
	}

	matched := make(map[int64]bool)
	var out []SetPieceEfficiencyRow
	var unmatched []string
	for _, sp := range setPieces {
		score, ok := byID[sp.TeamID]
		if !ok {
			unmatched = append(unmatched, teamLabel(sp.TeamName, sp.TeamID))
			continue
		}
		matched[sp.TeamID] = true
		out = append(out, SetPieceEfficiencyRow{SetPieceRow: sp, GoalSetPiece: score.Value})
	}
	for _, s := range scores {
		if !matched[s.TeamID] {
			unmatched = append(unmatched, teamLabel(s.TeamName, s.TeamID))
		}
	}
	sort.Strings(unmatched)
	return out, unmatched
}

func teamLabel(name string, id int64) string {
	return fmt.Sprintf("%s (%d)", name, id)
}
