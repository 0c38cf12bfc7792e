package kpi

import (
	"math"
	"sort"
)

// Placeholders fill the identity fields of aggregate rows, which have no
// single match to describe.
type Placeholders struct {
	MatchDate        string
	Season           string
	AccountID        int64
	Competition      string
	CompetitionStage string
	// AllTeamsID is the team id given to the ALL_TEAMS_AVG row
	AllTeamsID int64
}

// DefaultPlaceholders returns the values used by the published tables
func DefaultPlaceholders() Placeholders {
	return Placeholders{
		MatchDate:        "2005",
		Season:           "2005",
		AccountID:        7336,
		Competition:      "Chile - Primera División",
		CompetitionStage: "Regular Season",
		AllTeamsID:       1,
	}
}

// MaxMatchWeek is the latest week among the match rows
func MaxMatchWeek(rows []FinalRow) int64 {
	var week int64
	for _, r := range rows {
		if !r.IsAggregate() && r.MatchWeek > week {
			week = r.MatchWeek
		}
	}
	return week
}

// Aggregate averages the match rows per (team name, team id), ordered by name
// then id, and appends the ALL_TEAMS_AVG row. NaN values are skipped in every
// mean, so a team with a single match aggregates to that match's values.
func Aggregate(rows []FinalRow, ph Placeholders) []FinalRow {
	type team struct {
		name string
		id   int64
	}

	groups := make(map[team][]FinalRow)
	var order []team
	for _, r := range rows {
		if r.IsAggregate() {
			continue
		}
		k := team{r.TeamName, r.TeamID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].name != order[j].name {
			return order[i].name < order[j].name
		}
		return order[i].id < order[j].id
	})

	week := MaxMatchWeek(rows)
	template := FinalRow{
		MatchID:          AverageMatchID,
		AccountID:        ph.AccountID,
		MatchDate:        ph.MatchDate,
		Competition:      ph.Competition,
		Season:           ph.Season,
		MatchWeek:        week,
		CompetitionStage: ph.CompetitionStage,
		HomeTeam:         AverageMatchID,
		AwayTeam:         AverageMatchID,
		MatchScore:       AverageMatchID,
	}

	out := make([]FinalRow, 0, len(order)+1)
	for _, k := range order {
		g := groups[k]
		avg := template
		avg.TeamName = k.name
		avg.TeamID = k.id
		avg.NpXG = meanOf(g, func(r FinalRow) float64 { return r.NpXG })
		avg.NpShots = meanOf(g, func(r FinalRow) float64 { return r.NpShots })
		avg.OBVShot = meanOf(g, func(r FinalRow) float64 { return r.OBVShot })
		avg.XGChain = meanOf(g, func(r FinalRow) float64 { return r.XGChain })
		avg.Goals = meanOf(g, func(r FinalRow) float64 { return r.Goals })
		avg.GEI = meanOf(g, func(r FinalRow) float64 { return r.GEI })
		avg.GCI = meanOf(g, func(r FinalRow) float64 { return r.GCI })
		avg.PGC = meanOf(g, func(r FinalRow) float64 { return r.PGC })
		avg.GPI = meanOf(g, func(r FinalRow) float64 { return r.GPI })
		out = append(out, avg)
	}

	league := template
	league.TeamName = AllTeamsName
	league.TeamID = ph.AllTeamsID
	teams := out
	league.NpXG = meanOf(teams, func(r FinalRow) float64 { return r.NpXG })
	league.NpShots = meanOf(teams, func(r FinalRow) float64 { return r.NpShots })
	league.OBVShot = math.NaN()
	league.XGChain = math.NaN()
	league.Goals = meanOf(teams, func(r FinalRow) float64 { return r.Goals })
	league.GEI = meanOf(teams, func(r FinalRow) float64 { return r.GEI })
	league.GCI = meanOf(teams, func(r FinalRow) float64 { return r.GCI })
	league.PGC = meanOf(teams, func(r FinalRow) float64 { return r.PGC })
	league.GPI = meanOf(teams, func(r FinalRow) float64 { return r.GPI })

	return append(out, league)
}

// FinalTable is the match rows followed by their aggregates
func FinalTable(matchRows []FinalRow, ph Placeholders) []FinalRow {
	out := make([]FinalRow, 0, len(matchRows)+16)
	out = append(out, matchRows...)
	return append(out, Aggregate(matchRows, ph)...)
}

func meanOf(rows []FinalRow, get func(FinalRow) float64) float64 {
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = get(r)
	}
	return mean(values)
}
