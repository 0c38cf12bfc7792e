package kpi

import (
	"fmt"
	"math"
)

// AssignMatchScores sets MatchScore on every row to "Home(g) - Away(g)" using
// the goals of the home and away team rows of the same match. Rows whose match
// lacks either side, and aggregate rows, get "AVG".
func AssignMatchScores(rows []FinalRow) {
	type key struct{ match, team string }
	goals := make(map[key]float64, len(rows))
	for _, r := range rows {
		if r.IsAggregate() {
			continue
		}
		k := key{r.MatchID, r.TeamName}
		if _, seen := goals[k]; !seen {
			goals[k] = r.Goals
		}
	}

	for i := range rows {
		r := &rows[i]
		r.MatchScore = AverageMatchID
		if r.IsAggregate() {
			continue
		}
		home, okHome := goals[key{r.MatchID, r.HomeTeam}]
		away, okAway := goals[key{r.MatchID, r.AwayTeam}]
		if !okHome || !okAway || math.IsNaN(home) || math.IsNaN(away) {
			continue
		}
		r.MatchScore = fmt.Sprintf("%s(%d) - %s(%d)", r.HomeTeam, int64(home), r.AwayTeam, int64(away))
	}
}
