package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Well-known table names. Each is persisted as <DataDir>/<name>.csv.
const (
	TableFinal              = "df_final"
	TableSetPiece           = "df_setpiece"
	TableSetPieceEfficiency = "df_setpiece_efficiency"
	TableGoalKPIs           = "df_GoalKPIs"
	TableGoalKPIsTopValues  = "df_GoalKPIs_TopValues"

	rankingTablePrefix = "df_ranking_avg_display_"
)

// Paths contains all the output paths.
// This is the single source of truth for every file the pipeline writes.
type Paths struct {
	DataDir string
	LogsDir string

	// Secondary exports
	WorkbookXLSX    string
	FinalParquet    string
	GoalKPIsParquet string
}

// NewPaths resolves every output location from the data and logs directories
func NewPaths(dataDir, logsDir string) *Paths {
	return &Paths{
		DataDir:         dataDir,
		LogsDir:         logsDir,
		WorkbookXLSX:    filepath.Join(dataDir, "kpis.xlsx"),
		FinalParquet:    filepath.Join(dataDir, TableFinal+".parquet"),
		GoalKPIsParquet: filepath.Join(dataDir, TableGoalKPIs+".parquet"),
	}
}

// RankingTable returns the table name of the ranking snapshot for a KPI file suffix (GCI, GEI, PGI, GPI)
func RankingTable(suffix string) string {
	return rankingTablePrefix + suffix
}

// TablePath returns the CSV path of a named table
func (p *Paths) TablePath(name string) string {
	return filepath.Join(p.DataDir, name+".csv")
}

// EnsureDirectories creates the data and logs directories if missing
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
