package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	rows := []FinalRow{
		{MatchID: "1", TeamName: "B", TeamID: 3, MatchWeek: 1, NpXG: 2, OBVShot: 2, GEI: 6, GPI: 8},
		{MatchID: "1", TeamName: "A", TeamID: 2, MatchWeek: 1, NpXG: 1, OBVShot: 1, GEI: 2, GPI: 4},
		{MatchID: "2", TeamName: "A", TeamID: 2, MatchWeek: 3, NpXG: 3, OBVShot: math.NaN(), GEI: 4, GPI: 6},
	}
	ph := DefaultPlaceholders()

	agg := Aggregate(rows, ph)
	require.Len(t, agg, 3)

	a, b, league := agg[0], agg[1], agg[2]
	assert.Equal(t, "A", a.TeamName)
	assert.Equal(t, "B", b.TeamName)
	assert.Equal(t, AllTeamsName, league.TeamName)

	assert.Equal(t, 2.0, a.NpXG)
	assert.Equal(t, 1.0, a.OBVShot, "NaN skipped")
	assert.Equal(t, 3.0, a.GEI)
	assert.Equal(t, 5.0, a.GPI)

	assert.Equal(t, 6.0, b.GEI)
	assert.Equal(t, 8.0, b.GPI)

	assert.Equal(t, 4.5, league.GEI)
	assert.Equal(t, 6.5, league.GPI)
	assert.Equal(t, ph.AllTeamsID, league.TeamID)
	assert.True(t, math.IsNaN(league.OBVShot))
	assert.True(t, math.IsNaN(league.XGChain))
	assert.True(t, league.IsLeagueAverage())

	for _, r := range agg {
		assert.True(t, r.IsAggregate())
		assert.Equal(t, int64(3), r.MatchWeek, "latest week played")
		assert.Equal(t, ph.Season, r.Season)
		assert.Equal(t, ph.AccountID, r.AccountID)
		assert.Equal(t, ph.Competition, r.Competition)
		assert.Equal(t, AverageMatchID, r.HomeTeam)
		assert.Equal(t, AverageMatchID, r.AwayTeam)
		assert.Equal(t, AverageMatchID, r.MatchScore)
	}
}

func TestAggregate_SingleMatchTeam(t *testing.T) {
	row := FinalRow{MatchID: "9", TeamName: "Solo", TeamID: 5, MatchWeek: 2,
		NpXG: 1.3, NpShots: 11, OBVShot: 0.2, XGChain: 0.9, Goals: 2, GEI: 4.4, GCI: 6.1, PGC: 3.3, GPI: 7.7}

	agg := Aggregate([]FinalRow{row}, DefaultPlaceholders())
	require.Len(t, agg, 2)

	team := agg[0]
	assert.Equal(t, row.NpXG, team.NpXG)
	assert.Equal(t, row.NpShots, team.NpShots)
	assert.Equal(t, row.OBVShot, team.OBVShot)
	assert.Equal(t, row.XGChain, team.XGChain)
	assert.Equal(t, row.GEI, team.GEI)
	assert.Equal(t, row.GCI, team.GCI)
	assert.Equal(t, row.PGC, team.PGC)
	assert.Equal(t, row.GPI, team.GPI)
	assert.Equal(t, row.GPI, agg[1].GPI)
}

func TestAggregate_SameNameDifferentID(t *testing.T) {
	rows := []FinalRow{
		{MatchID: "1", TeamName: "Union", TeamID: 8, GPI: 4},
		{MatchID: "2", TeamName: "Union", TeamID: 7, GPI: 6},
	}
	agg := Aggregate(rows, DefaultPlaceholders())
	require.Len(t, agg, 3)
	assert.Equal(t, int64(7), agg[0].TeamID)
	assert.Equal(t, int64(8), agg[1].TeamID)
}

func TestFinalTable(t *testing.T) {
	rows := []FinalRow{{MatchID: "1", TeamName: "A", TeamID: 2}}
	final := FinalTable(rows, DefaultPlaceholders())
	require.Len(t, final, 3)
	assert.False(t, final[0].IsAggregate())
	assert.True(t, final[1].IsAggregate())
	assert.True(t, final[2].IsLeagueAverage())
}
