package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/exporter"
	"github.com/lucbra21/audaxIndex/internal/ingest"
	"github.com/lucbra21/audaxIndex/internal/kpi"
	"github.com/lucbra21/audaxIndex/internal/validation"
)

// Stage IDs
const (
	StageIDLoad      = "load"
	StageIDIndices   = "indices"
	StageIDAggregate = "aggregate"
	StageIDRankings  = "rankings"
	StageIDSetPiece  = "setpiece"
	StageIDGoalKPIs  = "goalkpis"
	StageIDExport    = "export"
)

// DefaultStages returns the stages of a full run in execution order
func DefaultStages() []Stage {
	return []Stage{
		NewLoadStage(),
		NewIndicesStage(),
		NewAggregateStage(),
		NewRankingStage(),
		NewSetPieceStage(),
		NewGoalKPIStage(),
		NewExportStage(),
	}
}

// LoadStage reads the three input spreadsheets
type LoadStage struct {
	BaseStage
}

// NewLoadStage creates a new load stage
func NewLoadStage() *LoadStage {
	return &LoadStage{BaseStage: NewBaseStage(StageIDLoad, "Load inputs")}
}

// Execute loads and joins the team-match statistics and reads the season statistics
func (s *LoadStage) Execute(ctx context.Context, state *State) error {
	inputs := state.Config.Inputs
	err := validation.NewInputValidator(state.Logger).ValidateInputs(
		validation.Input{Label: "team-match statistics", Path: inputs.TeamMatchFile},
		validation.Input{Label: "match metadata", Path: inputs.MatchesFile},
		validation.Input{Label: "season statistics", Path: inputs.SeasonStatsFile},
	)
	if err != nil {
		return err
	}

	loader := ingest.NewLoader(inputs.Sheet, state.Logger)

	rows, report, err := loader.LoadTeamMatches(ctx, inputs.TeamMatchFile, inputs.MatchesFile)
	if err != nil {
		return err
	}
	state.TeamMatches = rows
	state.JoinReport = report

	if len(report.MissingMetadata) > 0 {
		state.Warn(fmt.Errorf("no match metadata for matches %s", strings.Join(report.MissingMetadata, ", ")))
	}
	if len(report.DuplicateMetadata) > 0 {
		state.Warn(fmt.Errorf("duplicate match metadata for matches %s, first row kept", strings.Join(report.DuplicateMetadata, ", ")))
	}
	if len(report.IncompleteMatches) > 0 {
		state.Warn(fmt.Errorf("matches without exactly two team rows: %s", strings.Join(report.IncompleteMatches, ", ")))
	}

	season, err := loader.LoadSeasonStats(ctx, inputs.SeasonStatsFile)
	if err != nil {
		return err
	}
	state.SeasonStats = season
	state.note(fmt.Sprintf("%d team-match rows, %d season rows", len(rows), len(season)))
	return nil
}

// IndicesStage computes GEI, GCI, PGC and GPI per team-match row
type IndicesStage struct {
	BaseStage
}

// NewIndicesStage creates a new indices stage
func NewIndicesStage() *IndicesStage {
	return &IndicesStage{BaseStage: NewBaseStage(StageIDIndices, "Compute match indices")}
}

// Execute runs the index calculator
func (s *IndicesStage) Execute(ctx context.Context, state *State) error {
	rows, report, err := kpi.NewCalculator(state.Logger).Compute(ctx, state.TeamMatches)
	if err != nil {
		return err
	}
	state.MatchRows = rows
	state.IndexReport = report

	indices := make([]string, 0, len(report.Substitutions))
	for index := range report.Substitutions {
		indices = append(indices, index)
	}
	sort.Strings(indices)
	for _, index := range indices {
		n := report.Substitutions[index]
		if n == 0 {
			continue
		}
		state.Warn(apperrors.NewUndefinedValueError(index, n))
		state.Metrics.RecordSubstitutions(ctx, index, n)
	}
	for _, column := range report.Degenerate {
		state.Warn(apperrors.NewDegenerateRangeError(column))
		state.Metrics.RecordDegenerate(ctx, column)
	}

	state.note(fmt.Sprintf("%d rows, %d sentinel substitutions", len(rows), report.TotalSubstitutions()))
	return nil
}

// AggregateStage appends the team and league averages to the match rows
type AggregateStage struct {
	BaseStage
}

// NewAggregateStage creates a new aggregate stage
func NewAggregateStage() *AggregateStage {
	return &AggregateStage{BaseStage: NewBaseStage(StageIDAggregate, "Aggregate teams")}
}

// Execute builds the final table
func (s *AggregateStage) Execute(ctx context.Context, state *State) error {
	ph := state.Config.Placeholders
	state.Final = kpi.FinalTable(state.MatchRows, kpi.Placeholders{
		MatchDate:        ph.MatchDate,
		Season:           ph.Season,
		AccountID:        ph.AccountID,
		Competition:      ph.Competition,
		CompetitionStage: ph.CompetitionStage,
		AllTeamsID:       ph.AllTeamsID,
	})
	state.note(fmt.Sprintf("%d teams", len(kpi.TeamAverages(state.Final))))
	return nil
}

// RankingStage ranks the team aggregates by each match-level KPI
type RankingStage struct {
	BaseStage
}

// NewRankingStage creates a new ranking stage
func NewRankingStage() *RankingStage {
	return &RankingStage{BaseStage: NewBaseStage(StageIDRankings, "Rank teams")}
}

// Execute builds one ranking table per match-level KPI
func (s *RankingStage) Execute(ctx context.Context, state *State) error {
	for _, k := range kpi.MatchKPIs() {
		state.Rankings[k] = kpi.Ranking(state.Final, k)
	}
	state.note(fmt.Sprintf("%d ranking tables", len(state.Rankings)))
	return nil
}

// SetPieceStage computes the set-piece and set-piece efficiency tables
type SetPieceStage struct {
	BaseStage
}

// NewSetPieceStage creates a new set-piece stage
func NewSetPieceStage() *SetPieceStage {
	return &SetPieceStage{BaseStage: NewBaseStage(StageIDSetPiece, "Compute set-piece indices")}
}

// Execute runs the set-piece calculator
func (s *SetPieceStage) Execute(ctx context.Context, state *State) error {
	result, err := kpi.NewSetPieceCalculator(state.Logger).Compute(ctx, state.SeasonStats)
	if err != nil {
		return err
	}
	state.SetPieces = result

	report := result.Report
	if len(report.Dropped) > 0 {
		state.Warn(fmt.Errorf("set-piece table: teams without set-piece attempts dropped: %s", strings.Join(report.Dropped, ", ")))
	}
	if len(report.DroppedGoalSetPiece) > 0 {
		state.Warn(fmt.Errorf("GoalSetPiece index: teams without set-piece ratios dropped: %s", strings.Join(report.DroppedGoalSetPiece, ", ")))
	}
	for _, column := range report.Degenerate {
		state.Warn(apperrors.NewDegenerateRangeError(column))
		state.Metrics.RecordDegenerate(ctx, column)
	}
	if len(report.Unmatched) > 0 {
		state.Warn(apperrors.NewMergeKeyError("set-piece efficiency merge", report.Unmatched))
		state.Metrics.RecordMergeMisses(ctx, StageIDSetPiece, len(report.Unmatched))
	}

	state.note(fmt.Sprintf("%d set-piece rows, %d efficiency rows", len(result.SetPieces), len(result.Efficiency)))
	return nil
}

// GoalKPIStage merges the GPI ranking with set-piece efficiency
type GoalKPIStage struct {
	BaseStage
}

// NewGoalKPIStage creates a new GoalKPIs stage
func NewGoalKPIStage() *GoalKPIStage {
	return &GoalKPIStage{BaseStage: NewBaseStage(StageIDGoalKPIs, "Build GoalKPIs")}
}

// Execute builds the GoalKPIs table and its TopValues variant
func (s *GoalKPIStage) Execute(ctx context.Context, state *State) error {
	rows, unmatched, err := kpi.GoalKPIs(ctx, state.Rankings[kpi.GPI], state.SetPieces.Efficiency, state.Logger)
	state.GoalKPIsUnmatched = unmatched
	state.Metrics.RecordMergeMisses(ctx, StageIDGoalKPIs, len(unmatched))
	if err != nil {
		return err
	}
	if len(unmatched) > 0 {
		state.Warn(apperrors.NewMergeKeyError("GoalKPIs merge", unmatched))
	}

	state.GoalKPIs = rows
	state.GoalKPIsTopValues = kpi.GoalKPIsTopValues(rows)
	state.note(fmt.Sprintf("%d teams", len(rows)))
	return nil
}

// ExportStage persists every derived table
type ExportStage struct {
	BaseStage
}

// NewExportStage creates a new export stage
func NewExportStage() *ExportStage {
	return &ExportStage{BaseStage: NewBaseStage(StageIDExport, "Write tables")}
}

// Execute writes all tables in one atomic batch
func (s *ExportStage) Execute(ctx context.Context, state *State) error {
	paths := state.Config.GetPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return apperrors.NewStorageError("prepare output directories", err)
	}

	out := state.Output()
	files, err := exporter.NewTableExporter(paths, state.Config.Export, state.Logger).Export(ctx, out)
	if err != nil {
		return err
	}
	state.Files = files

	for _, t := range out.Tables() {
		state.Metrics.RecordRowsWritten(ctx, t.Name, len(t.Records))
	}
	state.note(fmt.Sprintf("%d files written to %s", len(files), paths.DataDir))
	return nil
}
