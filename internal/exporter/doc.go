// Package exporter persists the KPI tables.
//
// Every table is written as <data dir>/<name>.csv. When enabled, the same tables
// are also laid out as sheets of one workbook (kpis.xlsx), and the final and
// GoalKPIs tables get parquet snapshots.
//
// Writes go through a Batch: each file is first written to a hidden temporary
// file next to its destination and only renamed into place on Commit, so a
// reader never sees a partially written file and a failed run leaves the
// previous outputs untouched.
//
// Example usage:
//
//	exp := exporter.NewTableExporter(cfg.GetPaths(), cfg.Export, logger)
//	files, err := exp.Export(ctx, exporter.Output{Final: final, GoalKPIs: goalKPIs})
package exporter
