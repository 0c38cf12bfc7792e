package pipeline

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/lucbra21/audaxIndex/internal/config"
	"github.com/lucbra21/audaxIndex/internal/exporter"
	"github.com/lucbra21/audaxIndex/internal/infrastructure"
	"github.com/lucbra21/audaxIndex/internal/ingest"
	"github.com/lucbra21/audaxIndex/internal/kpi"
)

// State carries the inputs, intermediate tables and warnings of one run.
// Stages run one at a time, so State is not synchronised.
type State struct {
	RunID   uuid.UUID
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *infrastructure.PipelineMetrics

	// load
	TeamMatches []ingest.TeamMatch
	JoinReport  ingest.JoinReport
	SeasonStats []ingest.SeasonStats

	// indices
	MatchRows   []kpi.FinalRow
	IndexReport kpi.IndexReport

	// aggregate, rankings
	Final    []kpi.FinalRow
	Rankings map[kpi.KPI][]kpi.RankingRow

	// setpiece
	SetPieces kpi.SetPieceResult

	// goalkpis
	GoalKPIs          []kpi.GoalKPIRow
	GoalKPIsTopValues []kpi.GoalKPIRow
	GoalKPIsUnmatched []string

	// export
	Files []string

	Warnings []string

	// message summarises the stage that just ran
	message string
}

// NewState creates the state for a new run
func NewState(cfg *config.Config, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &State{
		RunID:    id,
		Config:   cfg,
		Logger:   logger.With(slog.String("run_id", id.String())),
		Rankings: make(map[kpi.KPI][]kpi.RankingRow),
	}
}

// Warn records a recoverable problem on the run result
func (s *State) Warn(err error) {
	s.Warnings = append(s.Warnings, err.Error())
}

func (s *State) note(msg string) { s.message = msg }

// Output bundles the derived tables for the exporter
func (s *State) Output() exporter.Output {
	return exporter.Output{
		Final:             s.Final,
		Rankings:          s.Rankings,
		SetPieces:         s.SetPieces.SetPieces,
		Efficiency:        s.SetPieces.Efficiency,
		GoalKPIs:          s.GoalKPIs,
		GoalKPIsTopValues: s.GoalKPIsTopValues,
	}
}
