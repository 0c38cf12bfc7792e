package kpi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

func TestEncodeFinal_Header(t *testing.T) {
	header, records := EncodeFinal(nil)
	assert.Empty(t, records)
	assert.Equal(t, []string{
		"match_id", "team_name", "team_id", "account_id", "match_date", "competition", "season",
		"match_week", "competition_stage", "home_team", "away_team", "np_xg", "np_shots",
		"obv_shot", "xgchain", "goals", ColGEINorm, ColGCINorm, ColPGCNorm, ColGPI, "match_score",
	}, header)
}

func TestFinalRowsSurviveEncoding(t *testing.T) {
	league := FinalRow{
		MatchID: AverageMatchID, TeamName: AllTeamsName, TeamID: 1, AccountID: 7336,
		MatchDate: "2005", Season: "2005", MatchWeek: 14,
		NpXG: 1.25, OBVShot: math.NaN(), XGChain: math.NaN(), GPI: 6.5, MatchScore: AverageMatchID,
	}

	header, records := EncodeFinal([]FinalRow{league})
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0][13], "NaN written as empty cell")
	assert.Equal(t, "1.25", records[0][11])

	rows, err := DecodeFinal(header, records)
	require.NoError(t, err)
	got := rows[0]
	assert.Equal(t, league.TeamName, got.TeamName)
	assert.Equal(t, league.MatchWeek, got.MatchWeek)
	assert.Equal(t, league.GPI, got.GPI)
	assert.True(t, math.IsNaN(got.OBVShot))
	assert.True(t, got.IsLeagueAverage())
}

func TestDecodeFinal_MissingColumns(t *testing.T) {
	_, err := DecodeFinal([]string{"match_id", "team_name"}, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingInput))
	assert.Contains(t, err.Error(), "match_score")
}

func TestEncodeGoalKPIsTables(t *testing.T) {
	header, _ := EncodeGoalKPIs(nil)
	assert.Equal(t, []string{
		ColRank, "team_name", "team_id", "match_week",
		ColGPI, ColGEI, ColGCI, ColPGC,
		ColCornerEfficiency, ColFreeKickEfficiency, ColDirectFKEfficiency, ColThrowInEfficiency,
		ColSetPieceEfficacy, ColGoalSetPiece,
	}, header)

	rows := GoalKPIsTopValues([]GoalKPIRow{goalKPIRow("Audax", 3, 1, 7.5)})
	header, records := EncodeGoalKPIsTopValues(rows)
	assert.NotContains(t, header, "team_id")
	require.Len(t, records, 3)
	assert.Equal(t, TopValuesMinLabel, records[0][1])
	assert.Equal(t, "0", records[0][0])

	decoded, err := DecodeGoalKPIsTopValues(header, records)
	require.NoError(t, err)
	assert.Equal(t, 7.5, decoded[2].SetPiece)
	assert.Equal(t, 1, decoded[2].Rank)
}

func TestEncodeSetPieceTables(t *testing.T) {
	header, _ := EncodeSetPieces(nil)
	assert.Equal(t, []string{"team_name", "team_id", "corner_subindex", "free_kick_subindex",
		"directfk_subindex", "throw_in_subindex", ColSetPieceEfficacy}, header)

	rows := []SetPieceEfficiencyRow{{SetPieceRow: SetPieceRow{TeamName: "Audax", TeamID: 4, Corner: 9.5}, GoalSetPiece: 2}}
	header, records := EncodeSetPieceEfficiency(rows)
	assert.Equal(t, ColGoalSetPiece, header[len(header)-1])

	decoded, err := DecodeSetPieceEfficiency(header, records)
	require.NoError(t, err)
	assert.Equal(t, rows, decoded)
}

func TestRankingEncoding(t *testing.T) {
	rows := []RankingRow{{Rank: 2, TeamName: "Audax", TeamID: 4, MatchWeek: 9, GPI: 7, GEI: 1, GCI: 2, PGC: 3}}
	header, records := EncodeRanking(rows)
	assert.Equal(t, ColRank, header[0])

	decoded, err := DecodeRanking(header, records)
	require.NoError(t, err)
	assert.Equal(t, rows, decoded)
}
