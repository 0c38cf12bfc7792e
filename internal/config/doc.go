// Package config provides centralized configuration management for the KPI
// pipeline and its server. It loads configuration from multiple sources,
// validates it, and resolves every output path from the data directory.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. A YAML file (config.yaml, configs/config.yaml or $KPI_CONFIG_FILE)
//	3. A .env file in the working directory
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern KPI_<SECTION>_<FIELD>:
//
//	KPI_INPUTS_TEAM_MATCH_FILE=AUDAX/sb_team_match_stats_2025.xlsx
//	KPI_PATHS_DATA_DIR=data
//	KPI_LOGGING_LEVEL=debug
//	KPI_SERVER_PORT=8080
//	KPI_SCHEDULE_CRON="0 6 * * *"
//
// # Path Management
//
// Paths resolves the well-known table files:
//
//	paths := cfg.GetPaths()
//	finalCSV := paths.TablePath(config.TableFinal)
//	gpiRanking := paths.TablePath(config.RankingTable("GPI"))
//
// # Validation
//
// Every section carries go-playground/validator tags; Load fails with a
// single error listing every invalid field.
package config
