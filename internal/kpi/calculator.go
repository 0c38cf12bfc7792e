package kpi

import (
	"context"
	"log/slog"

	apperrors "github.com/lucbra21/audaxIndex/internal/errors"
	"github.com/lucbra21/audaxIndex/internal/ingest"
)

// IndexReport summarises the recoveries made while computing indices
type IndexReport struct {
	Rows int `json:"rows"`
	// Substitutions counts sentinel replacements per index
	Substitutions map[string]int `json:"substitutions"`
	// Degenerate lists the index columns that had no range to scale
	Degenerate []string `json:"degenerate,omitempty"`
}

// TotalSubstitutions is the number of sentinel replacements across all indices
func (r IndexReport) TotalSubstitutions() int {
	var n int
	for _, c := range r.Substitutions {
		n += c
	}
	return n
}

// Calculator derives the composite indices for team-match rows
type Calculator struct {
	gei, gci, pgc Formula
	blend         Blend
	logger        *slog.Logger
}

// NewCalculator creates a calculator with the standard formulas
func NewCalculator(logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		gei:    GEIFormula,
		gci:    GCIFormula,
		pgc:    PGCFormula,
		blend:  GPIBlend,
		logger: logger,
	}
}

// Compute returns one final-table row per team-match row with normalized
// GEI/GCI/PGC, the capped GPI and the match score.
func (c *Calculator) Compute(ctx context.Context, rows []ingest.TeamMatch) ([]FinalRow, IndexReport, error) {
	report := IndexReport{Rows: len(rows), Substitutions: map[string]int{}}
	if len(rows) == 0 {
		return nil, report, apperrors.NewAppError(apperrors.ErrTypeMissingInput,
			ingest.TableTeamMatch+" has no data rows", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	formulas := []Formula{c.gei, c.gci, c.pgc}
	normalized := make([][]float64, len(formulas))
	for i, f := range formulas {
		raw := make([]float64, len(rows))
		for r, row := range rows {
			v := f.Raw(row)
			if !defined(v) {
				v = Sentinel
				report.Substitutions[f.Name]++
			}
			raw[r] = v
		}

		if n := report.Substitutions[f.Name]; n > 0 {
			c.logger.DebugContext(ctx, "undefined raw index replaced by sentinel",
				slog.String("index", f.Name),
				slog.Int("rows", n),
				slog.Float64("sentinel", Sentinel))
		}

		norm, degenerate := normalize(raw, NormMin, NormMax)
		if degenerate {
			report.Degenerate = append(report.Degenerate, f.Name)
			c.logger.WarnContext(ctx, "index has no range, using midpoint",
				slog.String("index", f.Name),
				slog.Float64("value", raw[0]),
				slog.Float64("midpoint", (NormMin+NormMax)/2))
		}
		normalized[i] = norm
	}

	out := make([]FinalRow, len(rows))
	for r, row := range rows {
		fr := FinalRow{
			MatchID:          row.MatchID,
			TeamName:         row.TeamName,
			TeamID:           row.TeamID,
			AccountID:        row.AccountID,
			MatchDate:        row.Match.MatchDate,
			Competition:      row.Match.Competition,
			Season:           row.Match.Season,
			MatchWeek:        row.Match.MatchWeek,
			CompetitionStage: row.Match.CompetitionStage,
			HomeTeam:         row.Match.HomeTeam,
			AwayTeam:         row.Match.AwayTeam,
			NpXG:             row.NpXG,
			NpShots:          row.NpShots,
			OBVShot:          row.OBVShot,
			XGChain:          row.XGChain,
			Goals:            row.Goals,
			GEI:              normalized[0][r],
			GCI:              normalized[1][r],
			PGC:              normalized[2][r],
		}
		fr.GPI = c.blend.Apply(fr.GEI, fr.GCI, fr.PGC)
		out[r] = fr
	}
	AssignMatchScores(out)

	c.logger.InfoContext(ctx, "computed match indices",
		slog.Int("rows", len(out)),
		slog.Int("sentinel_substitutions", report.TotalSubstitutions()),
		slog.Int("degenerate_columns", len(report.Degenerate)))

	return out, report, nil
}
