package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pisaresilience/internal/errors"
	"pisaresilience/internal/pipeline"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig     `yaml:"paths"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PathConfig holds file system paths
type PathConfig struct {
	DataDir      string `yaml:"data_dir"`
	ResultDir    string `yaml:"result_dir"`
	LogsDir      string `yaml:"logs_dir"`
	CodebookFile string `yaml:"codebook_file"`
}

// CodebookPath resolves the codebook file against the data directory unless
// it is already absolute.
func (p PathConfig) CodebookPath() string {
	if filepath.IsAbs(p.CodebookFile) {
		return p.CodebookFile
	}
	return filepath.Join(p.DataDir, p.CodebookFile)
}

// PipelineConfig holds the run options and batch sizing
type PipelineConfig struct {
	Options      pipeline.Options `yaml:",inline"`
	BatchWorkers int              `yaml:"batch_workers"`
}

// DatabaseConfig holds the optional run ledger connection. An empty URL
// disables the ledger.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Paths: PathConfig{
			DataDir:      "data",
			ResultDir:    "result",
			LogsDir:      "logs",
			CodebookFile: "codebook.xlsx",
		},
		Pipeline: PipelineConfig{
			Options:      pipeline.DefaultOptions(),
			BatchWorkers: 1,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if any, then environment variables, and validates the result.
func Load() (*Config, error) {
	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, errors.Wrap(err, "failed to load configuration file")
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, errors.Wrap(err, "failed to read environment")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.Wrapf(errors.WithCode(errors.CodeConfigInvalid, err), "parse %s", path)
	}
	return nil
}

func applyEnv(config *Config) error {
	env := &envReader{}
	config.Paths.DataDir = getEnvOrDefault("DATA_DIR", config.Paths.DataDir)
	config.Paths.ResultDir = getEnvOrDefault("RESULT_DIR", config.Paths.ResultDir)
	config.Paths.LogsDir = getEnvOrDefault("LOGS_DIR", config.Paths.LogsDir)
	config.Paths.CodebookFile = getEnvOrDefault("CODEBOOK_FILE", config.Paths.CodebookFile)

	opts := &config.Pipeline.Options
	opts.PlausibleValueIndex = env.intOrDefault("PV_INDEX", opts.PlausibleValueIndex)
	opts.NARowThreshold = env.intOrDefault("NA_ROW_THRESHOLD", opts.NARowThreshold)
	opts.AcademicScoreThreshold = env.intOrDefault("ACADEMIC_SCORE_THRESHOLD", opts.AcademicScoreThreshold)
	opts.ProduceDiagnostics = env.boolOrDefault("PRODUCE_DIAGNOSTICS", opts.ProduceDiagnostics)
	config.Pipeline.BatchWorkers = env.intOrDefault("BATCH_WORKERS", config.Pipeline.BatchWorkers)

	config.Database.URL = getEnvOrDefault("DATABASE_URL", config.Database.URL)
	config.Logging.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", config.Logging.Level))
	return env.err
}

// Validate checks required fields and option ranges.
func (c *Config) Validate() error {
	if c.Paths.DataDir == "" {
		return errors.ConfigInvalid("data directory is required")
	}
	if c.Paths.ResultDir == "" {
		return errors.ConfigInvalid("result directory is required")
	}
	if c.Paths.CodebookFile == "" {
		return errors.ConfigInvalid("codebook file is required")
	}
	if err := c.Pipeline.Options.Validate(); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if c.Pipeline.BatchWorkers < 1 {
		return errors.Newf(errors.CodeConfigInvalid, "batch workers must be at least 1, got %d", c.Pipeline.BatchWorkers)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Newf(errors.CodeConfigInvalid, "unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and keeps the first malformed one.
type envReader struct {
	err error
}

func (r *envReader) intOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, "an integer", value)
		return defaultValue
	}
	return intValue
}

func (r *envReader) boolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, "a boolean", value)
		return defaultValue
	}
	return boolValue
}

func (r *envReader) fail(key, want, value string) {
	if r.err == nil {
		r.err = errors.Newf(errors.CodeConfigInvalid, "%s must be %s, got %q", key, want, value)
	}
}
