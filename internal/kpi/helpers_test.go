package kpi

import "github.com/lucbra21/audaxIndex/internal/ingest"

// teamMatch returns a row where every statistic is 1, minutes 90, 10 shots
// and half of the possession.
func teamMatch(matchID, team string, id int64, home, away string) ingest.TeamMatch {
	return ingest.TeamMatch{
		MatchID: matchID, TeamID: id, TeamName: team, AccountID: 7336,
		Minutes: 90, Goals: 1, NpXG: 1, NpShots: 10, NpShotsOnTarget: 1, NpXGPerShot: 1,
		ShotTouchRatio: 1, PenaltiesWon: 1, OBVShot: 1,
		XA: 1, KeyPasses: 1, Assists: 1, ThroughBalls: 1, PassesIntoBox: 1, PassesInsideBox: 1,
		CrossesIntoBox: 1, BoxCrossRatio: 1, SPXA: 1,
		DeepProgressions: 1, TouchesInsideBox: 1, XGChain: 1, XGBuildup: 1,
		XGChainPerPossession: 1, XGBuildupPerPossession: 1, OBVPass: 1, OBVDribbleCarry: 1,
		ForwardPasses: 1, Possession: 0.5,
		Match: ingest.Match{
			MatchID: matchID, MatchDate: "2025-02-01", Competition: "Chile - Primera División",
			Season: "2025", MatchWeek: 1, CompetitionStage: "Regular Season",
			HomeTeam: home, AwayTeam: away,
		},
	}
}

func zeroEnvolvement(r *ingest.TeamMatch) {
	r.XA, r.KeyPasses, r.Assists = 0, 0, 0
	r.ThroughBalls, r.PassesIntoBox, r.PassesInsideBox, r.CrossesIntoBox = 0, 0, 0, 0
	r.BoxCrossRatio = 0
	r.SPXA, r.DeepProgressions, r.TouchesInsideBox = 0, 0, 0
	r.XGChain, r.XGBuildup = 0, 0
	r.XGChainPerPossession, r.XGBuildupPerPossession = 0, 0
	r.OBVPass, r.OBVDribbleCarry = 0, 0
	r.ForwardPasses = 0
}

// seasonStats returns a team whose set-piece ratios all equal k/10
func seasonStats(team string, id int64, k float64) ingest.SeasonStats {
	return ingest.SeasonStats{
		TeamID: id, TeamName: team,
		Corners: 10, ShotsFromCorners: k, GoalsFromCorners: k, CornerXG: k,
		FreeKicks: 10, ShotsFromFreeKicks: k, GoalsFromFreeKicks: k, FreeKickXG: k,
		DirectFreeKicks: 10, DirectFreeKickGoals: k, DirectFreeKickXG: k, ShotsFromDirectFreeKicks: k,
		ThrowIns: 10, ShotsFromThrowIns: k, GoalsFromThrowIns: k, ThrowInXG: k,
		SPGoalRatio: k, XGPerSP: k, SPShotRatio: k, SPGoalsPG: k, SPPG: 10,
	}
}

func goalKPIRow(team string, id int64, rank int, v float64) GoalKPIRow {
	r := GoalKPIRow{Rank: rank, TeamName: team, TeamID: id, MatchWeek: 12}
	for _, k := range AllKPIs() {
		r.SetValue(k, v)
	}
	return r
}
