package kpi

import (
	"context"
	"log/slog"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
)

const (
	topValuesPlaces = 3
	publishedPlaces = 2
)

// GoalKPIs inner-joins the GPI ranking with the set-piece efficiency table on
// team id, keeping ranking order, then rescales GEI, GCI and PGC into
// [NormMin, NormMax] across the merged teams. Teams found on one side only are
// logged and returned; an empty merge is a MergeKey error.
func GoalKPIs(ctx context.Context, ranking []RankingRow, efficiency []SetPieceEfficiencyRow, logger *slog.Logger) ([]GoalKPIRow, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[int64]SetPieceEfficiencyRow, len(efficiency))
	for _, e := range efficiency {
		if _, ok := byID[e.TeamID]; !ok {
			byID[e.TeamID] = e
		}
	}

	matched := make(map[int64]bool)
	var rows []GoalKPIRow
	var unmatched []string
	for _, r := range ranking {
		e, ok := byID[r.TeamID]
		if !ok {
			unmatched = append(unmatched, teamLabel(r.TeamName, r.TeamID))
			continue
		}
		matched[r.TeamID] = true
		rows = append(rows, GoalKPIRow{
			Rank:           r.Rank,
			TeamName:       r.TeamName,
			TeamID:         r.TeamID,
			MatchWeek:      r.MatchWeek,
			GPI:            r.GPI,
			GEI:            r.GEI,
			GCI:            r.GCI,
			PGC:            r.PGC,
			Corner:         e.Corner,
			FreeKick:       e.FreeKick,
			DirectFreeKick: e.DirectFreeKick,
			ThrowIn:        e.ThrowIn,
			SetPiece:       e.Efficacy,
			GoalSetPiece:   e.GoalSetPiece,
		})
	}
	for _, e := range efficiency {
		if !matched[e.TeamID] {
			unmatched = append(unmatched, teamLabel(e.TeamName, e.TeamID))
		}
	}

	if len(rows) == 0 {
		return nil, unmatched, apperrors.NewMergeKeyError("GoalKPIs merge of GPI ranking and set-piece efficiency", unmatched)
	}
	if len(unmatched) > 0 {
		logger.WarnContext(ctx, "GoalKPIs merge left teams unmatched",
			slog.Any("teams", unmatched))
	}

	for _, k := range []KPI{GEI, GCI, PGC} {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.Value(k)
		}
		norm, degenerate := normalize(values, NormMin, NormMax)
		if degenerate {
			logger.WarnContext(ctx, "GoalKPIs column has no range, using midpoint",
				slog.String("column", k.Column()))
		}
		for i := range rows {
			rows[i].SetValue(k, norm[i])
		}
	}

	return rows, unmatched, nil
}

// TopValuesRows builds the "TopValues (min)" and "TopValues (max)" rows: for
// every KPI the smallest and largest of the TopK highest team values, rounded
// to three decimals. Rank is 0 and match_week is copied from the first row.
func TopValuesRows(rows []GoalKPIRow) [2]GoalKPIRow {
	band := [2]GoalKPIRow{
		{TeamName: TopValuesMinLabel},
		{TeamName: TopValuesMaxLabel},
	}
	if len(rows) > 0 {
		band[0].MatchWeek = rows[0].MatchWeek
		band[1].MatchWeek = rows[0].MatchWeek
	}

	for _, k := range AllKPIs() {
		values := make([]float64, 0, len(rows))
		for _, r := range rows {
			if !r.IsTopValues() {
				values = append(values, r.Value(k))
			}
		}
		lo, hi, _ := TopValues(values, TopK)
		band[0].SetValue(k, Round(lo, topValuesPlaces))
		band[1].SetValue(k, Round(hi, topValuesPlaces))
	}
	return band
}

// GoalKPIsTopValues is the published table: the two TopValues rows followed by
// the team rows, every KPI rounded to two decimals.
func GoalKPIsTopValues(rows []GoalKPIRow) []GoalKPIRow {
	band := TopValuesRows(rows)
	out := make([]GoalKPIRow, 0, len(rows)+2)
	out = append(out, band[0], band[1])
	out = append(out, rows...)
	for i := range out {
		for _, k := range AllKPIs() {
			out[i].SetValue(k, Round(out[i].Value(k), publishedPlaces))
		}
	}
	return out
}

// Band returns the TopValues min and max rows of a published table, if present
func Band(rows []GoalKPIRow) (lo, hi GoalKPIRow, ok bool) {
	var foundLo, foundHi bool
	for _, r := range rows {
		switch r.TeamName {
		case TopValuesMinLabel:
			lo, foundLo = r, true
		case TopValuesMaxLabel:
			hi, foundHi = r, true
		}
	}
	return lo, hi, foundLo && foundHi
}
