package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/lucbra21/audaxIndex/internal/config"
	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/exporter"
	"github.com/lucbra21/audaxIndex/internal/kpi"
)

// KPIService answers queries from the tables of the last successful run
type KPIService struct {
	paths  *config.Paths
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]cachedTable
}

type cachedTable struct {
	modTime time.Time
	size    int64
	header  []string
	records [][]string
}

// NewKPIService creates a query service over the tables under paths.DataDir
func NewKPIService(paths *config.Paths, logger *slog.Logger) *KPIService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIService{
		paths:  paths,
		logger: logger.With(slog.String("service", "kpi")),
		cache:  make(map[string]cachedTable),
	}
}

// TableNames lists every table the pipeline persists
func TableNames() []string {
	names := []string{config.TableFinal}
	for _, k := range kpi.MatchKPIs() {
		names = append(names, config.RankingTable(k.RankingSuffix()))
	}
	return append(names,
		config.TableSetPiece,
		config.TableSetPieceEfficiency,
		config.TableGoalKPIs,
		config.TableGoalKPIsTopValues,
	)
}

func knownTable(name string) bool {
	for _, n := range TableNames() {
		if n == name {
			return true
		}
	}
	return false
}

// Table returns a persisted table as raw text
func (s *KPIService) Table(ctx context.Context, name string) (*TableView, error) {
	if !knownTable(name) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("table %s", name)).
			WithContext("table", name)
	}
	header, records, err := s.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TableView{Name: name, Header: header, Rows: records}, nil
}

// load reads a table, reusing the previous read while the file is unchanged
func (s *KPIService) load(ctx context.Context, name string) ([]string, [][]string, error) {
	path := s.paths.TablePath(name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, &TableMissingError{Table: name, Err: err}
		}
		return nil, nil, apperrors.NewStorageError(fmt.Sprintf("stat %s", path), err)
	}

	s.mu.Lock()
	cached, ok := s.cache[name]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) && cached.size == info.Size() {
		return cached.header, cached.records, nil
	}

	header, records, err := exporter.ReadCSV(path)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
			return nil, nil, &TableMissingError{Table: name, Err: err}
		}
		return nil, nil, err
	}

	s.mu.Lock()
	s.cache[name] = cachedTable{modTime: info.ModTime(), size: info.Size(), header: header, records: records}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "table loaded",
		slog.String("table", name),
		slog.Int("rows", len(records)))
	return header, records, nil
}

func (s *KPIService) final(ctx context.Context) ([]kpi.FinalRow, error) {
	header, records, err := s.load(ctx, config.TableFinal)
	if err != nil {
		return nil, err
	}
	return kpi.DecodeFinal(header, records)
}

func (s *KPIService) goalKPIs(ctx context.Context) ([]kpi.GoalKPIRow, error) {
	header, records, err := s.load(ctx, config.TableGoalKPIsTopValues)
	if err != nil {
		return nil, err
	}
	return kpi.DecodeGoalKPIsTopValues(header, records)
}

func parseKPI(s string) (kpi.KPI, error) {
	k, err := kpi.ParseKPI(s)
	if err != nil {
		return 0, apperrors.NewAppValidationError(err.Error()).WithContext("kpi", s)
	}
	return k, nil
}

// Rankings orders the league by any team KPI, best first
func (s *KPIService) Rankings(ctx context.Context, kpiName string) (*RankingView, error) {
	k, err := parseKPI(kpiName)
	if err != nil {
		return nil, err
	}
	rows, err := s.goalKPIs(ctx)
	if err != nil {
		return nil, err
	}

	view := &RankingView{KPI: k.Key(), Column: k.Column(), Teams: []TeamKPIView{}}
	for _, r := range kpi.RankBy(rows, k) {
		view.Teams = append(view.Teams, newTeamKPIView(r, k))
	}
	return view, nil
}

// Stats describes the distribution of a KPI across teams
func (s *KPIService) Stats(ctx context.Context, kpiName string) (*StatsView, error) {
	k, err := parseKPI(kpiName)
	if err != nil {
		return nil, err
	}
	rows, err := s.goalKPIs(ctx)
	if err != nil {
		return nil, err
	}
	st, err := kpi.Describe(rows, k)
	if err != nil {
		return nil, err
	}
	return &StatsView{
		KPI:   st.KPI,
		Count: st.Count,
		Mean:  Float(st.Mean),
		Std:   Float(st.Std),
		Min:   Float(st.Min),
		Max:   Float(st.Max),
	}, nil
}

// Teams lists the teams of the final table
func (s *KPIService) Teams(ctx context.Context) ([]string, error) {
	rows, err := s.final(ctx)
	if err != nil {
		return nil, err
	}
	return kpi.Teams(rows), nil
}

// TeamProfile compares a team with the TopValues band
func (s *KPIService) TeamProfile(ctx context.Context, team string) (*ProfileView, error) {
	rows, err := s.goalKPIs(ctx)
	if err != nil {
		return nil, err
	}
	p, err := kpi.TeamProfile(rows, team)
	if err != nil {
		return nil, err
	}
	v := newProfileView(p)
	return &v, nil
}

// TeamMatches lists the matches of team by week, each with its radar percentiles
func (s *KPIService) TeamMatches(ctx context.Context, team string) (*TeamMatchesView, error) {
	rows, err := s.final(ctx)
	if err != nil {
		return nil, err
	}
	matches := kpi.TeamMatches(rows, team)
	if len(matches) == 0 {
		return nil, apperrors.NewNotFoundError("matches of team " + team).WithContext("team", team)
	}

	pct := percentileIndex(rows)
	view := &TeamMatchesView{
		Team:    team,
		Options: kpi.TeamMatchOptions(rows, team),
		Matches: make([]MatchRowView, 0, len(matches)),
	}
	if view.Options == nil {
		view.Options = []kpi.MatchOption{}
	}
	for _, m := range matches {
		view.Matches = append(view.Matches, newMatchRowView(m, pct[rowKey(m)]))
	}
	return view, nil
}

// Comparison returns both sides of a match with their radar percentiles
func (s *KPIService) Comparison(ctx context.Context, matchID string) (*ComparisonView, error) {
	rows, err := s.final(ctx)
	if err != nil {
		return nil, err
	}
	h2h, err := kpi.Comparison(rows, matchID)
	if err != nil {
		return nil, err
	}
	pct := percentileIndex(rows)
	return &ComparisonView{
		MatchID:   h2h.MatchID,
		MatchWeek: h2h.MatchWeek,
		Label:     h2h.Label,
		Home:      newMatchRowView(h2h.Home, pct[rowKey(h2h.Home)]),
		Away:      newMatchRowView(h2h.Away, pct[rowKey(h2h.Away)]),
	}, nil
}

func rowKey(r kpi.FinalRow) string {
	return r.MatchID + "\x00" + r.TeamName
}

// percentileIndex keys the radar percentiles of every final row by match and team
func percentileIndex(rows []kpi.FinalRow) map[string][]float64 {
	pct := kpi.Percentiles(rows)
	index := make(map[string][]float64, len(rows))
	for i, r := range rows {
		index[rowKey(r)] = pct[i]
	}
	return index
}
