package kpi

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/ingest"
	"github.com/lucbra21/audaxIndex/internal/shared/testutil"
)

func TestSetPieceCalculator(t *testing.T) {
	high := seasonStats("High", 2, 3)
	low := seasonStats("Low", 3, 1)
	noSP := seasonStats("NoSP", 4, 2)
	noSP.SPPG = 0
	noCorners := seasonStats("NoCorners", 5, 2)
	noCorners.Corners = 0

	logger, capture := testutil.NewTestLogger(t)
	result, err := NewSetPieceCalculator(logger).Compute(context.Background(),
		[]ingest.SeasonStats{high, low, noSP, noCorners})
	require.NoError(t, err)

	require.Len(t, result.SetPieces, 3)
	assert.Equal(t, []string{"NoCorners (5)"}, result.Report.Dropped)

	top, bottom, mid := result.SetPieces[0], result.SetPieces[1], result.SetPieces[2]
	for _, v := range []float64{top.Corner, top.FreeKick, top.DirectFreeKick, top.ThrowIn} {
		assert.Equal(t, NormMax, v)
	}
	for _, v := range []float64{bottom.Corner, bottom.FreeKick, bottom.DirectFreeKick, bottom.ThrowIn} {
		assert.Equal(t, NormMin, v)
	}
	assert.InDelta(t, NormMax, top.Efficacy, 1e-12)
	assert.InDelta(t, NormMin, bottom.Efficacy, 1e-12)
	assert.InDelta(t, 5.0, mid.Efficacy, 1e-12)

	assert.Equal(t, []string{"NoSP (4)"}, result.Report.DroppedGoalSetPiece)
	require.Len(t, result.Efficiency, 2)
	assert.Equal(t, "High", result.Efficiency[0].TeamName)
	assert.InDelta(t, NormMax, result.Efficiency[0].GoalSetPiece, 1e-12)
	assert.Equal(t, "Low", result.Efficiency[1].TeamName)
	assert.InDelta(t, NormMin, result.Efficiency[1].GoalSetPiece, 1e-12)

	assert.Equal(t, []string{"NoCorners (5)", "NoSP (4)"}, result.Report.Unmatched)
	assert.True(t, capture.Contains(slog.LevelWarn, "unmatched"))
}

func TestSetPieceCalculator_SingleTeamUsesMidpoint(t *testing.T) {
	result, err := NewSetPieceCalculator(nil).Compute(context.Background(),
		[]ingest.SeasonStats{seasonStats("Solo", 9, 2)})
	require.NoError(t, err)

	require.Len(t, result.Efficiency, 1)
	row := result.Efficiency[0]
	assert.Equal(t, 5.0, row.Corner)
	assert.Equal(t, 5.0, row.ThrowIn)
	assert.InDelta(t, 5.0, row.Efficacy, 1e-12)
	assert.InDelta(t, 5.0, row.GoalSetPiece, 1e-12)
	assert.Len(t, result.Report.Degenerate, 8)
}

func TestSetPieceCalculator_ConstantSeasonRatioIsReported(t *testing.T) {
	high := seasonStats("High", 2, 3)
	low := seasonStats("Low", 3, 1)
	high.XGPerSP, low.XGPerSP = 0.4, 0.4

	logger, capture := testutil.NewTestLogger(t)
	result, err := NewSetPieceCalculator(logger).Compute(context.Background(),
		[]ingest.SeasonStats{high, low})
	require.NoError(t, err)

	assert.Equal(t, []string{"xg_per_sp"}, result.Report.Degenerate)
	assert.True(t, capture.Contains(slog.LevelWarn, "no range"))

	require.Len(t, result.Efficiency, 2)
	w := DefaultGoalSetPieceWeights
	assert.InDelta(t, NormMin+(NormMax-NormMin)*(1-w.XGPerSP*0.5), result.Efficiency[0].GoalSetPiece, 1e-12)
	assert.InDelta(t, NormMin+(NormMax-NormMin)*w.XGPerSP*0.5, result.Efficiency[1].GoalSetPiece, 1e-12)
}

func TestSetPieceCalculator_NoRows(t *testing.T) {
	_, err := NewSetPieceCalculator(nil).Compute(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingInput))
}

func TestMergeSetPieceEfficiency(t *testing.T) {
	setPieces := []SetPieceRow{
		{TeamName: "A", TeamID: 1, Efficacy: 4},
		{TeamName: "B", TeamID: 2, Efficacy: 6},
	}
	scores := []TeamScore{
		{TeamName: "B renamed", TeamID: 2, Value: 7},
		{TeamName: "C", TeamID: 3, Value: 1},
	}

	merged, unmatched := MergeSetPieceEfficiency(setPieces, scores)
	require.Len(t, merged, 1)
	assert.Equal(t, "B", merged[0].TeamName, "joined by id, set-piece name kept")
	assert.Equal(t, 7.0, merged[0].GoalSetPiece)
	assert.Equal(t, []string{"A (1)", "C (3)"}, unmatched)
}
