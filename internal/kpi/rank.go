package kpi

import (
	"math"
	"sort"
)

// RankValues ranks values from highest to lowest. Ties share the smallest rank
// of their group and the following rank is skipped, so [5, 5, 3] ranks
// [1, 1, 3]. NaN values are unranked and get 0.
func RankValues(values []float64) []int {
	idx := make([]int, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] > values[idx[b]] })

	ranks := make([]int, len(values))
	for pos, i := range idx {
		if pos > 0 && values[i] == values[idx[pos-1]] {
			ranks[i] = ranks[idx[pos-1]]
			continue
		}
		ranks[i] = pos + 1
	}
	return ranks
}

// TopValues returns the smallest and largest of the k highest non-NaN values.
// ok is false when there are no values.
func TopValues(values []float64, k int) (lo, hi float64, ok bool) {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 || k <= 0 {
		return 0, 0, false
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	if k > len(sorted) {
		k = len(sorted)
	}
	return sorted[k-1], sorted[0], true
}

// TeamAverages returns the per-team aggregate rows, excluding ALL_TEAMS_AVG
func TeamAverages(final []FinalRow) []FinalRow {
	var out []FinalRow
	for _, r := range final {
		if r.IsAggregate() && !r.IsLeagueAverage() {
			out = append(out, r)
		}
	}
	return out
}

// Ranking ranks the team aggregates of the final table by k, best first.
// match_week is the latest week played. k must be a match-level KPI.
func Ranking(final []FinalRow, k KPI) []RankingRow {
	teams := TeamAverages(final)
	values := make([]float64, len(teams))
	for i, t := range teams {
		values[i] = t.Value(k)
	}
	ranks := RankValues(values)
	week := MaxMatchWeek(final)

	out := make([]RankingRow, len(teams))
	for i, t := range teams {
		out[i] = RankingRow{
			Rank:      ranks[i],
			TeamName:  t.TeamName,
			TeamID:    t.TeamID,
			MatchWeek: week,
			GPI:       t.GPI,
			GEI:       t.GEI,
			GCI:       t.GCI,
			PGC:       t.PGC,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return rankLess(out[i].Rank, out[j].Rank) })
	return out
}

// RankBy re-ranks GoalKPIs team rows by k, best first. TopValues rows are dropped.
func RankBy(rows []GoalKPIRow, k KPI) []GoalKPIRow {
	var teams []GoalKPIRow
	for _, r := range rows {
		if !r.IsTopValues() {
			teams = append(teams, r)
		}
	}
	values := make([]float64, len(teams))
	for i, t := range teams {
		values[i] = t.Value(k)
	}
	ranks := RankValues(values)
	for i := range teams {
		teams[i].Rank = ranks[i]
	}
	sort.SliceStable(teams, func(i, j int) bool { return rankLess(teams[i].Rank, teams[j].Rank) })
	return teams
}

// rankLess orders ranks ascending with unranked (0) last
func rankLess(a, b int) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return a < b
}
