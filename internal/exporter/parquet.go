package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucbra21/audaxIndex/internal/kpi"
)

// finalRecord is the columnar layout of the final table. Undefined values are null.
type finalRecord struct {
	MatchID          string   `parquet:"name=match_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	TeamName         string   `parquet:"name=team_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TeamID           int64    `parquet:"name=team_id, type=INT64"`
	AccountID        int64    `parquet:"name=account_id, type=INT64"`
	MatchDate        string   `parquet:"name=match_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Competition      string   `parquet:"name=competition, type=BYTE_ARRAY, convertedtype=UTF8"`
	Season           string   `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8"`
	MatchWeek        int64    `parquet:"name=match_week, type=INT64"`
	CompetitionStage string   `parquet:"name=competition_stage, type=BYTE_ARRAY, convertedtype=UTF8"`
	HomeTeam         string   `parquet:"name=home_team, type=BYTE_ARRAY, convertedtype=UTF8"`
	AwayTeam         string   `parquet:"name=away_team, type=BYTE_ARRAY, convertedtype=UTF8"`
	NpXG             *float64 `parquet:"name=np_xg, type=DOUBLE, repetitiontype=OPTIONAL"`
	NpShots          *float64 `parquet:"name=np_shots, type=DOUBLE, repetitiontype=OPTIONAL"`
	OBVShot          *float64 `parquet:"name=obv_shot, type=DOUBLE, repetitiontype=OPTIONAL"`
	XGChain          *float64 `parquet:"name=xgchain, type=DOUBLE, repetitiontype=OPTIONAL"`
	Goals            *float64 `parquet:"name=goals, type=DOUBLE, repetitiontype=OPTIONAL"`
	GEI              *float64 `parquet:"name=gei, type=DOUBLE, repetitiontype=OPTIONAL"`
	GCI              *float64 `parquet:"name=gci, type=DOUBLE, repetitiontype=OPTIONAL"`
	PGC              *float64 `parquet:"name=pgc, type=DOUBLE, repetitiontype=OPTIONAL"`
	GPI              *float64 `parquet:"name=gpi, type=DOUBLE, repetitiontype=OPTIONAL"`
	MatchScore       string   `parquet:"name=match_score, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// goalKPIRecord is the columnar layout of the GoalKPIs table
type goalKPIRecord struct {
	Rank           int64    `parquet:"name=rank, type=INT64"`
	TeamName       string   `parquet:"name=team_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	TeamID         int64    `parquet:"name=team_id, type=INT64"`
	MatchWeek      int64    `parquet:"name=match_week, type=INT64"`
	GPI            *float64 `parquet:"name=gpi, type=DOUBLE, repetitiontype=OPTIONAL"`
	GEI            *float64 `parquet:"name=gei, type=DOUBLE, repetitiontype=OPTIONAL"`
	GCI            *float64 `parquet:"name=gci, type=DOUBLE, repetitiontype=OPTIONAL"`
	PGC            *float64 `parquet:"name=pgc, type=DOUBLE, repetitiontype=OPTIONAL"`
	Corner         *float64 `parquet:"name=corner_efficiency, type=DOUBLE, repetitiontype=OPTIONAL"`
	FreeKick       *float64 `parquet:"name=freekick_efficiency, type=DOUBLE, repetitiontype=OPTIONAL"`
	DirectFreeKick *float64 `parquet:"name=directfk_efficiency, type=DOUBLE, repetitiontype=OPTIONAL"`
	ThrowIn        *float64 `parquet:"name=throw_in_efficiency, type=DOUBLE, repetitiontype=OPTIONAL"`
	SetPiece       *float64 `parquet:"name=setpiece_efficacy, type=DOUBLE, repetitiontype=OPTIONAL"`
	GoalSetPiece   *float64 `parquet:"name=goalsetpiece_performance, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ParquetWriter writes columnar snapshots of the final and GoalKPIs tables
type ParquetWriter struct {
	parallel int64
	logger   *slog.Logger
}

// NewParquetWriter creates a parquet writer
func NewParquetWriter(logger *slog.Logger) *ParquetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParquetWriter{parallel: 4, logger: logger}
}

// StageFinal adds the final table snapshot to the batch
func (w *ParquetWriter) StageFinal(ctx context.Context, b *Batch, path string, rows []kpi.FinalRow) error {
	records := make([]finalRecord, len(rows))
	for i, r := range rows {
		records[i] = finalRecord{
			MatchID:          r.MatchID,
			TeamName:         r.TeamName,
			TeamID:           r.TeamID,
			AccountID:        r.AccountID,
			MatchDate:        r.MatchDate,
			Competition:      r.Competition,
			Season:           r.Season,
			MatchWeek:        r.MatchWeek,
			CompetitionStage: r.CompetitionStage,
			HomeTeam:         r.HomeTeam,
			AwayTeam:         r.AwayTeam,
			NpXG:             nullable(r.NpXG),
			NpShots:          nullable(r.NpShots),
			OBVShot:          nullable(r.OBVShot),
			XGChain:          nullable(r.XGChain),
			Goals:            nullable(r.Goals),
			GEI:              nullable(r.GEI),
			GCI:              nullable(r.GCI),
			PGC:              nullable(r.PGC),
			GPI:              nullable(r.GPI),
			MatchScore:       r.MatchScore,
		}
	}
	return stageParquet(ctx, w, b, path, records)
}

// StageGoalKPIs adds the GoalKPIs table snapshot to the batch
func (w *ParquetWriter) StageGoalKPIs(ctx context.Context, b *Batch, path string, rows []kpi.GoalKPIRow) error {
	records := make([]goalKPIRecord, len(rows))
	for i, r := range rows {
		records[i] = goalKPIRecord{
			Rank:           int64(r.Rank),
			TeamName:       r.TeamName,
			TeamID:         r.TeamID,
			MatchWeek:      r.MatchWeek,
			GPI:            nullable(r.GPI),
			GEI:            nullable(r.GEI),
			GCI:            nullable(r.GCI),
			PGC:            nullable(r.PGC),
			Corner:         nullable(r.Corner),
			FreeKick:       nullable(r.FreeKick),
			DirectFreeKick: nullable(r.DirectFreeKick),
			ThrowIn:        nullable(r.ThrowIn),
			SetPiece:       nullable(r.SetPiece),
			GoalSetPiece:   nullable(r.GoalSetPiece),
		}
	}
	return stageParquet(ctx, w, b, path, records)
}

func stageParquet[T any](ctx context.Context, w *ParquetWriter, b *Batch, path string, records []T) error {
	w.logger.DebugContext(ctx, "staging parquet snapshot",
		slog.String("path", path),
		slog.Int("rows", len(records)))

	return b.StagePath(path, func(tmp string) error {
		fw, err := local.NewLocalFileWriter(tmp)
		if err != nil {
			return fmt.Errorf("create parquet file: %w", err)
		}

		pw, err := writer.NewParquetWriter(fw, new(T), w.parallel)
		if err != nil {
			fw.Close()
			return fmt.Errorf("create parquet writer: %w", err)
		}
		pw.CompressionType = parquet.CompressionCodec_SNAPPY

		for i := range records {
			if err := pw.Write(records[i]); err != nil {
				fw.Close()
				return fmt.Errorf("write parquet row %d: %w", i, err)
			}
		}
		if err := pw.WriteStop(); err != nil {
			fw.Close()
			return fmt.Errorf("finish parquet file: %w", err)
		}
		return fw.Close()
	})
}

func nullable(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}
