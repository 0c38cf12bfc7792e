package http

import (
	"context"

	"github.com/lucbra21/audaxIndex/internal/pipeline"
	"github.com/lucbra21/audaxIndex/internal/services"
)

// KPIQueries defines the read operations over the persisted tables
type KPIQueries interface {
	Table(ctx context.Context, name string) (*services.TableView, error)
	Rankings(ctx context.Context, kpi string) (*services.RankingView, error)
	Stats(ctx context.Context, kpi string) (*services.StatsView, error)
	Teams(ctx context.Context) ([]string, error)
	TeamProfile(ctx context.Context, team string) (*services.ProfileView, error)
	TeamMatches(ctx context.Context, team string) (*services.TeamMatchesView, error)
	Comparison(ctx context.Context, matchID string) (*services.ComparisonView, error)
}

// PipelineRunner regenerates the tables
type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.Result, bool)
	LastResult() *pipeline.Result
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}
