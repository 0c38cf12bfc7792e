package services

import (
	"math"
	"strconv"

	"github.com/lucbra21/audaxIndex/internal/kpi"
)

// Float is a table value that encodes NaN and ±Inf as JSON null
type Float float64

// MarshalJSON implements json.Marshaler
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'f', -1, 64), nil
}

// TableView is a persisted table as stored on disk
type TableView struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// MatchRowView is one row of the final table
type MatchRowView struct {
	MatchID    string `json:"match_id"`
	TeamName   string `json:"team_name"`
	TeamID     int64  `json:"team_id"`
	MatchWeek  int64  `json:"match_week"`
	MatchDate  string `json:"match_date,omitempty"`
	HomeTeam   string `json:"home_team,omitempty"`
	AwayTeam   string `json:"away_team,omitempty"`
	MatchScore string `json:"match_score"`

	NpXG    Float `json:"np_xg"`
	NpShots Float `json:"np_shots"`
	OBVShot Float `json:"obv_shot"`
	XGChain Float `json:"xgchain"`
	Goals   Float `json:"goals"`
	GEI     Float `json:"gei"`
	GCI     Float `json:"gci"`
	PGC     Float `json:"pgc"`
	GPI     Float `json:"gpi"`

	// Percentiles maps radar labels to the row's percentile among all rows
	Percentiles map[string]Float `json:"percentiles,omitempty"`
}

func newMatchRowView(r kpi.FinalRow, percentiles []float64) MatchRowView {
	v := MatchRowView{
		MatchID:    r.MatchID,
		TeamName:   r.TeamName,
		TeamID:     r.TeamID,
		MatchWeek:  r.MatchWeek,
		MatchDate:  r.MatchDate,
		HomeTeam:   r.HomeTeam,
		AwayTeam:   r.AwayTeam,
		MatchScore: r.MatchScore,
		NpXG:       Float(r.NpXG),
		NpShots:    Float(r.NpShots),
		OBVShot:    Float(r.OBVShot),
		XGChain:    Float(r.XGChain),
		Goals:      Float(r.Goals),
		GEI:        Float(r.GEI),
		GCI:        Float(r.GCI),
		PGC:        Float(r.PGC),
		GPI:        Float(r.GPI),
	}
	if percentiles != nil {
		v.Percentiles = make(map[string]Float, len(kpi.RadarMetrics))
		for i, m := range kpi.RadarMetrics {
			v.Percentiles[m.Label] = Float(percentiles[i])
		}
	}
	return v
}

// TeamKPIView is one team of a GoalKPIs ranking
type TeamKPIView struct {
	Rank      int    `json:"rank"`
	TeamName  string `json:"team_name"`
	MatchWeek int64  `json:"match_week"`
	// Value is the KPI the ranking is ordered by
	Value Float            `json:"value"`
	KPIs  map[string]Float `json:"kpis"`
}

func newTeamKPIView(r kpi.GoalKPIRow, by kpi.KPI) TeamKPIView {
	v := TeamKPIView{
		Rank:      r.Rank,
		TeamName:  r.TeamName,
		MatchWeek: r.MatchWeek,
		Value:     Float(r.Value(by)),
		KPIs:      make(map[string]Float),
	}
	for _, k := range kpi.AllKPIs() {
		v.KPIs[k.Key()] = Float(r.Value(k))
	}
	return v
}

// RankingView is the league ordered by one KPI
type RankingView struct {
	KPI    string        `json:"kpi"`
	Column string        `json:"column"`
	Teams  []TeamKPIView `json:"teams"`
}

// ProfileEntryView is a KPI value against the TopValues band
type ProfileEntryView struct {
	KPI   string `json:"kpi"`
	Min   Float  `json:"top_min"`
	Value Float  `json:"value"`
	Max   Float  `json:"top_max"`
	Below bool   `json:"below_band"`
}

// ProfileView is a team profile safe for JSON
type ProfileView struct {
	Team                    string             `json:"team"`
	Rank                    int                `json:"rank"`
	Entries                 []ProfileEntryView `json:"kpis"`
	GoalPerformance         Float              `json:"goal_performance"`
	GoalSetPiecePerformance Float              `json:"goal_set_piece_performance"`
	BelowBand               int                `json:"below_band"`
	ImprovementPct          Float              `json:"improvement_area_pct"`
	XPerformance            Float              `json:"x_performance_potential"`
}

func newProfileView(p kpi.Profile) ProfileView {
	v := ProfileView{
		Team:                    p.Team,
		Rank:                    p.Rank,
		GoalPerformance:         Float(p.GoalPerformance),
		GoalSetPiecePerformance: Float(p.GoalSetPiecePerformance),
		BelowBand:               p.BelowBand,
		ImprovementPct:          Float(p.ImprovementPct),
		XPerformance:            Float(p.XPerformance),
	}
	for _, e := range p.Entries {
		v.Entries = append(v.Entries, ProfileEntryView{
			KPI: e.KPI, Min: Float(e.Min), Value: Float(e.Value), Max: Float(e.Max), Below: e.Below,
		})
	}
	return v
}

// StatsView describes one KPI across teams
type StatsView struct {
	KPI   string `json:"kpi"`
	Count int    `json:"count"`
	Mean  Float  `json:"mean"`
	Std   Float  `json:"std"`
	Min   Float  `json:"min"`
	Max   Float  `json:"max"`
}

// TeamMatchesView lists a team's matches with their radar percentiles
type TeamMatchesView struct {
	Team    string            `json:"team"`
	Options []kpi.MatchOption `json:"options"`
	Matches []MatchRowView    `json:"matches"`
}

// ComparisonView is a match seen from both sides
type ComparisonView struct {
	MatchID   string       `json:"match_id"`
	MatchWeek int64        `json:"match_week"`
	Label     string       `json:"label"`
	Home      MatchRowView `json:"home"`
	Away      MatchRowView `json:"away"`
}
