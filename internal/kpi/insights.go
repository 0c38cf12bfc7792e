package kpi

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

// Stats describes the distribution of one KPI across teams
type Stats struct {
	KPI   string  `json:"kpi"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Describe summarises k over the team rows of a GoalKPIs table. Std is the
// sample standard deviation and is 0 for a single team.
func Describe(rows []GoalKPIRow, k KPI) (Stats, error) {
	var values []float64
	for _, r := range rows {
		if r.IsTopValues() {
			continue
		}
		if v := r.Value(k); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Stats{}, apperrors.NewNotFoundError("values for " + k.Column())
	}

	s := Stats{KPI: k.Column(), Count: len(values)}
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min, s.Max, _ = MinMax(values)
	return s, nil
}

// ProfileEntry places a team's KPI value against the TopValues band
type ProfileEntry struct {
	KPI   string  `json:"kpi"`
	Min   float64 `json:"top_min"`
	Value float64 `json:"value"`
	Max   float64 `json:"top_max"`
	Below bool    `json:"below_band"`
}

// Profile compares one team with the TopValues band on every KPI
type Profile struct {
	Team    string         `json:"team"`
	Rank    int            `json:"rank"`
	Entries []ProfileEntry `json:"kpis"`

	GoalPerformance         float64 `json:"goal_performance"`
	GoalSetPiecePerformance float64 `json:"goal_set_piece_performance"`
	// BelowBand counts the KPIs under the band minimum
	BelowBand int `json:"below_band"`
	// ImprovementPct is the share of KPIs under the band, in percent
	ImprovementPct float64 `json:"improvement_area_pct"`
	// XPerformance is the mean of value/band-max, mapped into [NormMin, NormMax]
	XPerformance float64 `json:"x_performance_potential"`
}

// TeamProfile builds the profile of team from a GoalKPIs + TopValues table
func TeamProfile(rows []GoalKPIRow, team string) (Profile, error) {
	lo, hi, ok := Band(rows)
	if !ok {
		return Profile{}, apperrors.NewNotFoundError("TopValues rows")
	}

	var row GoalKPIRow
	var found bool
	for _, r := range rows {
		if r.TeamName == team && !r.IsTopValues() {
			row, found = r, true
			break
		}
	}
	if !found {
		return Profile{}, apperrors.NewNotFoundError("team " + team)
	}

	p := Profile{
		Team:                    team,
		Rank:                    row.Rank,
		GoalPerformance:         row.GPI,
		GoalSetPiecePerformance: row.GoalSetPiece,
	}
	var ratioSum float64
	kpis := AllKPIs()
	for _, k := range kpis {
		e := ProfileEntry{KPI: k.Column(), Min: lo.Value(k), Value: row.Value(k), Max: hi.Value(k)}
		e.Below = e.Value < e.Min
		if e.Below {
			p.BelowBand++
		}
		ratioSum += e.Value / e.Max
		p.Entries = append(p.Entries, e)
	}
	p.ImprovementPct = float64(p.BelowBand) / float64(len(kpis)) * 100
	p.XPerformance = ratioSum/float64(len(kpis))*(NormMax-NormMin) + NormMin
	return p, nil
}

// RadarMetric is one per-match statistic shown against the league
type RadarMetric struct {
	Column string
	Label  string
	Get    func(FinalRow) float64
}

// RadarMetrics are the statistics compared in head-to-head views
var RadarMetrics = []RadarMetric{
	{"np_xg", "npXG", func(r FinalRow) float64 { return r.NpXG }},
	{"np_shots", "Shots", func(r FinalRow) float64 { return r.NpShots }},
	{"obv_shot", "OBV Shots", func(r FinalRow) float64 { return r.OBVShot }},
	{"xgchain", "xG Chance", func(r FinalRow) float64 { return r.XGChain }},
	{"goals", "Goals", func(r FinalRow) float64 { return r.Goals }},
	{ColGEINorm, "Goal Envolvement", func(r FinalRow) float64 { return r.GEI }},
	{ColGCINorm, "Goal Conversion", func(r FinalRow) float64 { return r.GCI }},
	{ColPGCNorm, "Poss. GoalChance", func(r FinalRow) float64 { return r.PGC }},
	{ColGPI, "Goal Performance", func(r FinalRow) float64 { return r.GPI }},
}

// Percentiles returns, per row and radar metric, the percentile rank of the
// row's value among all rows of the final table (ties averaged). NaN values
// stay NaN and are not counted.
func Percentiles(rows []FinalRow) [][]float64 {
	out := make([][]float64, len(rows))
	for i := range out {
		out[i] = make([]float64, len(RadarMetrics))
	}
	for m, metric := range RadarMetrics {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = metric.Get(r)
		}
		pct := PercentileRanks(values)
		for i := range rows {
			out[i][m] = pct[i]
		}
	}
	return out
}

// PercentileRanks maps every value to 100 × (average ascending rank) / n,
// where n counts the non-NaN values.
func PercentileRanks(values []float64) []float64 {
	var sorted []float64
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	sort.Float64s(sorted)
	n := float64(len(sorted))

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		first := sort.SearchFloat64s(sorted, v)
		last := first
		for last < len(sorted) && sorted[last] == v {
			last++
		}
		// ranks first+1..last share their average
		avg := float64(first+1+last) / 2
		out[i] = avg / n * 100
	}
	return out
}

// HeadToHead is one match seen from both sides
type HeadToHead struct {
	MatchID   string
	MatchWeek int64
	Label     string
	Home      FinalRow
	Away      FinalRow
}

// Comparison finds the two team rows of a match. The home side is the row
// whose team is the listed home team.
func Comparison(rows []FinalRow, matchID string) (HeadToHead, error) {
	var sides []FinalRow
	for _, r := range rows {
		if r.MatchID == matchID && !r.IsAggregate() {
			sides = append(sides, r)
		}
	}
	switch len(sides) {
	case 2:
	case 0:
		return HeadToHead{}, apperrors.NewNotFoundError("match " + matchID)
	default:
		return HeadToHead{}, apperrors.NewAppValidationError(
			fmt.Sprintf("match %s has %d team rows, expected 2", matchID, len(sides)))
	}

	home, away := sides[0], sides[1]
	if home.TeamName != home.HomeTeam {
		home, away = away, home
	}
	return HeadToHead{
		MatchID:   matchID,
		MatchWeek: home.MatchWeek,
		Label: fmt.Sprintf("J%d - %s %s-%s %s", home.MatchWeek,
			home.TeamName, goalsText(home.Goals), goalsText(away.Goals), away.TeamName),
		Home: home,
		Away: away,
	}, nil
}

// MatchOption is an entry in a team's match picker
type MatchOption struct {
	MatchID   string `json:"match_id"`
	MatchWeek int64  `json:"match_week"`
	Label     string `json:"label"`
}

// TeamMatchOptions lists the complete matches (two team rows) played by team,
// in table order.
func TeamMatchOptions(rows []FinalRow, team string) []MatchOption {
	seen := make(map[string]bool)
	var out []MatchOption
	for _, r := range rows {
		if r.TeamName != team || r.IsAggregate() || seen[r.MatchID] {
			continue
		}
		seen[r.MatchID] = true
		h2h, err := Comparison(rows, r.MatchID)
		if err != nil {
			continue
		}
		out = append(out, MatchOption{MatchID: r.MatchID, MatchWeek: r.MatchWeek, Label: h2h.Label})
	}
	return out
}

// TeamMatches returns the match rows of team ordered by match week
func TeamMatches(rows []FinalRow, team string) []FinalRow {
	var out []FinalRow
	for _, r := range rows {
		if r.TeamName == team && !r.IsAggregate() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchWeek < out[j].MatchWeek })
	return out
}

// Teams lists the distinct team names of the final table, sorted, without ALL_TEAMS_AVG
func Teams(rows []FinalRow) []string {
	set := make(map[string]bool)
	for _, r := range rows {
		if r.TeamName != AllTeamsName {
			set[r.TeamName] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func goalsText(g float64) string {
	if !defined(g) {
		return "?"
	}
	return strconv.FormatInt(int64(g), 10)
}
