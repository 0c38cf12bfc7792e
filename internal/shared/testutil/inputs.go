package testutil

import (
	"fmt"
	"strconv"
	"testing"
)

// InputFiles are the paths of a generated input set
type InputFiles struct {
	TeamMatch   string
	Matches     string
	SeasonStats string
}

// Team is a fixture team
type Team struct {
	ID   int64
	Name string
}

// FixtureTeams are the teams of WriteKPIInputs
var FixtureTeams = []Team{
	{ID: 211, Name: "Audax Italiano"},
	{ID: 217, Name: "Colo-Colo"},
	{ID: 218, Name: "Universidad de Chile"},
}

// FixtureMatches pairs FixtureTeams by index: match id, week, home, away
var FixtureMatches = []struct {
	ID         string
	Week       int
	Home, Away int
	HomeGoals  int
	AwayGoals  int
}{
	{ID: "3901", Week: 1, Home: 0, Away: 1, HomeGoals: 2, AwayGoals: 1},
	{ID: "3902", Week: 2, Home: 1, Away: 2, HomeGoals: 0, AwayGoals: 0},
	{ID: "3903", Week: 3, Home: 2, Away: 0, HomeGoals: 1, AwayGoals: 3},
}

var teamMatchStats = []string{
	"np_xg", "np_shots", "np_shots_on_target", "np_xg_per_shot", "shot_touch_ratio",
	"penalties_won", "obv_shot", "xa", "key_passes", "assists", "through_balls",
	"passes_into_box", "passes_inside_box", "crosses_into_box", "box_cross_ratio", "sp_xa",
	"deep_progressions", "touches_inside_box", "xgchain", "xgbuildup",
	"xgchain_per_possession", "xgbuildup_per_possession", "obv_pass", "obv_dribble_carry",
	"forward_passes", "possession",
}

var seasonStats = []string{
	"corners_pg", "shots_from_corners_pg", "goals_from_corners_pg", "corner_xg_pg",
	"free_kicks_pg", "shots_from_free_kicks_pg", "goals_from_free_kicks_pg", "free_kick_xg_pg",
	"direct_free_kicks_pg", "direct_free_kick_goals_pg", "direct_free_kick_xg_pg", "shots_from_direct_free_kicks_pg",
	"throw_ins_pg", "shots_from_throw_ins_pg", "goals_from_throw_ins_pg", "throw_in_xg_pg",
	"sp_goal_ratio", "xg_per_sp", "sp_shot_ratio", "sp_goals_pg", "sp_pg",
}

// WriteKPIInputs writes a complete, consistent input set for three teams and
// three matches: team-match statistics as CSV with provider-prefixed headers,
// match metadata and season statistics as workbooks. Every statistic varies
// between teams so no index is degenerate.
func WriteKPIInputs(t *testing.T, dir string) InputFiles {
	t.Helper()

	header := []string{"match_id", "team_match_team_id", "team_name", "account_id", "team_match_minutes", "team_match_goals"}
	for _, col := range teamMatchStats {
		header = append(header, "team_match_"+col)
	}

	var teamRows [][]string
	for m, match := range FixtureMatches {
		for side, idx := range []int{match.Home, match.Away} {
			goals := match.HomeGoals
			if side == 1 {
				goals = match.AwayGoals
			}
			team := FixtureTeams[idx]
			row := []string{match.ID, strconv.FormatInt(team.ID, 10), team.Name, "7336", "90", strconv.Itoa(goals)}
			for c := range teamMatchStats {
				v := 1 + float64(idx)*0.75 + float64(m)*0.2 + float64(c%5)*0.1
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			}
			teamRows = append(teamRows, row)
		}
	}

	matchHeader := []string{"match_id", "match_date", "competition", "season", "match_week", "competition_stage", "home_team", "away_team"}
	var matchRows [][]interface{}
	for _, match := range FixtureMatches {
		matchRows = append(matchRows, []interface{}{
			match.ID,
			fmt.Sprintf("2025-02-%02d", match.Week),
			"Chile - Primera División",
			"2025",
			match.Week,
			"Regular Season",
			FixtureTeams[match.Home].Name,
			FixtureTeams[match.Away].Name,
		})
	}

	seasonHeader := []string{"team_season_team_id", "team_name"}
	for _, col := range seasonStats {
		seasonHeader = append(seasonHeader, "team_season_"+col)
	}
	var seasonRows [][]interface{}
	for idx, team := range FixtureTeams {
		row := []interface{}{team.ID, team.Name}
		for c := range seasonStats {
			// attempts columns (every fourth) are large so ratios stay below one
			v := 0.1 + float64(idx)*0.15 + float64(c%4)*0.05
			if c%4 == 0 {
				v = 8 + float64(idx)
			}
			row = append(row, v)
		}
		seasonRows = append(seasonRows, row)
	}

	return InputFiles{
		TeamMatch:   WriteCSV(t, dir, "team_match_stats.csv", header, teamRows),
		Matches:     WriteWorkbook(t, dir, "matches.xlsx", matchHeader, matchRows),
		SeasonStats: WriteWorkbook(t, dir, "team_season_stats.xlsx", seasonHeader, seasonRows),
	}
}
