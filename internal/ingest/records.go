package ingest

// TeamMatch is one team's raw statistics in one match, joined with the match metadata.
// Float fields hold NaN when the source cell was empty.
type TeamMatch struct {
	MatchID   string  `col:"match_id"`
	TeamID    int64   `col:"team_id"`
	TeamName  string  `col:"team_name"`
	AccountID int64   `col:"account_id,optional"`
	Minutes   float64 `col:"minutes"`

	// Finishing
	Goals           float64 `col:"goals"`
	NpXG            float64 `col:"np_xg"`
	NpShots         float64 `col:"np_shots"`
	NpShotsOnTarget float64 `col:"np_shots_on_target"`
	NpXGPerShot     float64 `col:"np_xg_per_shot"`
	ShotTouchRatio  float64 `col:"shot_touch_ratio"`
	PenaltiesWon    float64 `col:"penalties_won"`
	OBVShot         float64 `col:"obv_shot"`

	// Chance creation
	XA              float64 `col:"xa"`
	KeyPasses       float64 `col:"key_passes"`
	Assists         float64 `col:"assists"`
	ThroughBalls    float64 `col:"through_balls"`
	PassesIntoBox   float64 `col:"passes_into_box"`
	PassesInsideBox float64 `col:"passes_inside_box"`
	CrossesIntoBox  float64 `col:"crosses_into_box"`
	BoxCrossRatio   float64 `col:"box_cross_ratio"`
	SPXA            float64 `col:"sp_xa"`

	// Possession and progression
	DeepProgressions       float64 `col:"deep_progressions"`
	TouchesInsideBox       float64 `col:"touches_inside_box"`
	XGChain                float64 `col:"xgchain"`
	XGBuildup              float64 `col:"xgbuildup"`
	XGChainPerPossession   float64 `col:"xgchain_per_possession"`
	XGBuildupPerPossession float64 `col:"xgbuildup_per_possession"`
	OBVPass                float64 `col:"obv_pass"`
	OBVDribbleCarry        float64 `col:"obv_dribble_carry"`
	ForwardPasses          float64 `col:"forward_passes"`
	Possession             float64 `col:"possession"`

	// Match is filled by Join; the zero value means no metadata was found.
	Match Match
}

// Match is one row of the match metadata table.
type Match struct {
	MatchID          string `col:"match_id"`
	MatchDate        string `col:"match_date,date"`
	Competition      string `col:"competition"`
	Season           string `col:"season"`
	MatchWeek        int64  `col:"match_week"`
	CompetitionStage string `col:"competition_stage"`
	HomeTeam         string `col:"home_team"`
	AwayTeam         string `col:"away_team"`
}

// SeasonStats is one team's per-game season aggregates used by the set-piece indices.
type SeasonStats struct {
	TeamID   int64  `col:"team_id"`
	TeamName string `col:"team_name"`

	Corners          float64 `col:"corners_pg"`
	ShotsFromCorners float64 `col:"shots_from_corners_pg"`
	GoalsFromCorners float64 `col:"goals_from_corners_pg"`
	CornerXG         float64 `col:"corner_xg_pg"`

	FreeKicks          float64 `col:"free_kicks_pg"`
	ShotsFromFreeKicks float64 `col:"shots_from_free_kicks_pg"`
	GoalsFromFreeKicks float64 `col:"goals_from_free_kicks_pg"`
	FreeKickXG         float64 `col:"free_kick_xg_pg"`

	DirectFreeKicks          float64 `col:"direct_free_kicks_pg"`
	DirectFreeKickGoals      float64 `col:"direct_free_kick_goals_pg"`
	DirectFreeKickXG         float64 `col:"direct_free_kick_xg_pg"`
	ShotsFromDirectFreeKicks float64 `col:"shots_from_direct_free_kicks_pg"`

	ThrowIns          float64 `col:"throw_ins_pg"`
	ShotsFromThrowIns float64 `col:"shots_from_throw_ins_pg"`
	GoalsFromThrowIns float64 `col:"goals_from_throw_ins_pg"`
	ThrowInXG         float64 `col:"throw_in_xg_pg"`

	SPGoalRatio float64 `col:"sp_goal_ratio"`
	XGPerSP     float64 `col:"xg_per_sp"`
	SPShotRatio float64 `col:"sp_shot_ratio"`
	SPGoalsPG   float64 `col:"sp_goals_pg"`
	SPPG        float64 `col:"sp_pg"`
}

// Table names used in error messages
const (
	TableTeamMatch   = "team match stats"
	TableMatches     = "match metadata"
	TableSeasonStats = "team season stats"
)

var (
	teamMatchSchema   = schemaOf(TableTeamMatch, TeamMatch{})
	matchSchema       = schemaOf(TableMatches, Match{})
	seasonStatsSchema = schemaOf(TableSeasonStats, SeasonStats{})
)

// TeamMatchColumns returns the columns the team-match table must provide
func TeamMatchColumns() []string { return teamMatchSchema.Columns() }

// MatchColumns returns the columns the match metadata table must provide
func MatchColumns() []string { return matchSchema.Columns() }

// SeasonStatsColumns returns the columns the season stats table must provide
func SeasonStatsColumns() []string { return seasonStatsSchema.Columns() }
