package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. KPI_PATHS_DATA_DIR.
const EnvPrefix = "KPI"

// Config represents the complete application configuration
type Config struct {
	Inputs       InputsConfig      `yaml:"inputs" envconfig:"INPUTS"`
	Paths        PathsConfig       `yaml:"paths" envconfig:"PATHS"`
	Placeholders PlaceholderConfig `yaml:"placeholders" envconfig:"PLACEHOLDERS"`
	Export       ExportConfig      `yaml:"export" envconfig:"EXPORT"`
	Logging      LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Server       ServerConfig      `yaml:"server" envconfig:"SERVER"`
	RateLimit    RateLimitConfig   `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Telemetry    TelemetryConfig   `yaml:"telemetry" envconfig:"TELEMETRY"`
	Schedule     ScheduleConfig    `yaml:"schedule" envconfig:"SCHEDULE"`
}

// InputsConfig locates the raw spreadsheets. Each file may be .xlsx or .csv.
type InputsConfig struct {
	TeamMatchFile   string `yaml:"team_match_file" envconfig:"TEAM_MATCH_FILE" validate:"required"`
	MatchesFile     string `yaml:"matches_file" envconfig:"MATCHES_FILE" validate:"required"`
	SeasonStatsFile string `yaml:"season_stats_file" envconfig:"SEASON_STATS_FILE" validate:"required"`
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// PlaceholderConfig holds the identity values written on aggregate rows,
// where match metadata does not aggregate meaningfully.
type PlaceholderConfig struct {
	MatchDate        string `yaml:"match_date" envconfig:"MATCH_DATE" validate:"required"`
	Season           string `yaml:"season" envconfig:"SEASON" validate:"required"`
	AccountID        int64  `yaml:"account_id" envconfig:"ACCOUNT_ID"`
	Competition      string `yaml:"competition" envconfig:"COMPETITION" validate:"required"`
	CompetitionStage string `yaml:"competition_stage" envconfig:"COMPETITION_STAGE" validate:"required"`
	AllTeamsID       int64  `yaml:"all_teams_id" envconfig:"ALL_TEAMS_ID"`
}

// ExportConfig toggles the secondary output formats written next to the CSV tables.
type ExportConfig struct {
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
	Parquet  bool `yaml:"parquet" envconfig:"PARQUET"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
	// AllowedOrigins limits CORS and websocket origins; empty allows any
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// RateLimitConfig limits how often the regeneration endpoint may be triggered
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment    string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// ScheduleConfig enables periodic regeneration in the server.
// An empty Cron disables the schedule.
type ScheduleConfig struct {
	Cron       string `yaml:"cron" envconfig:"CRON"`
	// Timezone is an IANA location name for Cron; empty means local time
	Timezone   string `yaml:"timezone" envconfig:"TIMEZONE"`
	// RunOnStart regenerates the tables once when the server starts
	RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

// Load loads configuration from defaults, an optional YAML file, a .env file
// and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// .env only fills variables that are not already exported
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// No default tags on the struct: unset variables leave file/default values alone
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file on cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks every section against its validate tags
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// GetPaths returns the resolved output paths for this configuration
func (c *Config) GetPaths() *Paths {
	return NewPaths(c.Paths.DataDir, c.Paths.LogsDir)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Inputs: InputsConfig{
			TeamMatchFile:   "AUDAX/sb_team_match_stats_2025.xlsx",
			MatchesFile:     "AUDAX/sb_matches_2025.xlsx",
			SeasonStatsFile: "AUDAX/sb_team_season_stats_2025.xlsx",
		},
		Paths: PathsConfig{
			DataDir: "data",
			LogsDir: "logs",
		},
		Placeholders: PlaceholderConfig{
			MatchDate:        "2005",
			Season:           "2005",
			AccountID:        7336,
			Competition:      "Chile - Primera División",
			CompetitionStage: "Regular Season",
			AllTeamsID:       1,
		},
		Export: ExportConfig{
			Workbook: true,
			Parquet:  true,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/kpi.log",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     0.2,
			Burst:   2,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "audax-kpi",
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}
