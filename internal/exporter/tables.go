package exporter

import (
	"context"
	"log/slog"

	"github.com/lucbra21/audaxIndex/internal/config"
	"github.com/lucbra21/audaxIndex/internal/kpi"
)

// rankingOrder is the order in which the per-KPI ranking tables are written
var rankingOrder = []kpi.KPI{kpi.GCI, kpi.GEI, kpi.PGC, kpi.GPI}

// Output holds every derived table of one pipeline run
type Output struct {
	Final             []kpi.FinalRow
	Rankings          map[kpi.KPI][]kpi.RankingRow
	SetPieces         []kpi.SetPieceRow
	Efficiency        []kpi.SetPieceEfficiencyRow
	GoalKPIs          []kpi.GoalKPIRow
	GoalKPIsTopValues []kpi.GoalKPIRow
}

// Tables encodes the output in persisted order
func (o Output) Tables() []Table {
	tables := make([]Table, 0, 5+len(rankingOrder))

	header, records := kpi.EncodeFinal(o.Final)
	tables = append(tables, Table{Name: config.TableFinal, Header: header, Records: records})

	for _, k := range rankingOrder {
		rows, ok := o.Rankings[k]
		if !ok {
			continue
		}
		header, records := kpi.EncodeRanking(rows)
		tables = append(tables, Table{Name: config.RankingTable(k.RankingSuffix()), Header: header, Records: records})
	}

	header, records = kpi.EncodeSetPieces(o.SetPieces)
	tables = append(tables, Table{Name: config.TableSetPiece, Header: header, Records: records})

	header, records = kpi.EncodeSetPieceEfficiency(o.Efficiency)
	tables = append(tables, Table{Name: config.TableSetPieceEfficiency, Header: header, Records: records})

	header, records = kpi.EncodeGoalKPIs(o.GoalKPIs)
	tables = append(tables, Table{Name: config.TableGoalKPIs, Header: header, Records: records})

	header, records = kpi.EncodeGoalKPIsTopValues(o.GoalKPIsTopValues)
	tables = append(tables, Table{Name: config.TableGoalKPIsTopValues, Header: header, Records: records})

	return tables
}

// TableExporter persists a run's output: the CSV tables plus the optional
// workbook and parquet snapshots, all published in one batch.
type TableExporter struct {
	paths    *config.Paths
	export   config.ExportConfig
	csv      *CSVWriter
	workbook *WorkbookWriter
	parquet  *ParquetWriter
	logger   *slog.Logger
}

// NewTableExporter creates a new table exporter
func NewTableExporter(paths *config.Paths, export config.ExportConfig, logger *slog.Logger) *TableExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableExporter{
		paths:    paths,
		export:   export,
		csv:      NewCSVWriter(paths, WriteOptions{}, logger),
		workbook: NewWorkbookWriter(logger),
		parquet:  NewParquetWriter(logger),
		logger:   logger,
	}
}

// Export writes every file of the run. Either all files are staged and published,
// or nothing is touched at the destination.
func (e *TableExporter) Export(ctx context.Context, out Output) ([]string, error) {
	batch := NewBatch(e.logger)
	defer batch.Abort()

	tables := out.Tables()
	for _, t := range tables {
		if err := e.csv.Stage(ctx, batch, t); err != nil {
			return nil, err
		}
	}

	if e.export.Workbook {
		if err := e.workbook.Stage(ctx, batch, e.paths.WorkbookXLSX, tables); err != nil {
			return nil, err
		}
	}

	if e.export.Parquet {
		if err := e.parquet.StageFinal(ctx, batch, e.paths.FinalParquet, out.Final); err != nil {
			return nil, err
		}
		if err := e.parquet.StageGoalKPIs(ctx, batch, e.paths.GoalKPIsParquet, out.GoalKPIs); err != nil {
			return nil, err
		}
	}

	written, err := batch.Commit(ctx)
	if err != nil {
		return written, err
	}

	e.logger.InfoContext(ctx, "exported KPI tables",
		slog.String("data_dir", e.paths.DataDir),
		slog.Int("tables", len(tables)),
		slog.Int("files", len(written)))

	return written, nil
}
