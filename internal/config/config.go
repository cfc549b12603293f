package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Classifier strategies.
const (
	StrategyHeuristic = "heuristic"
	StrategyLLM       = "llm"
)

// Config holds the grantmatch API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Index       IndexConfig       `yaml:"index"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Summaries   SummariesConfig   `yaml:"summaries"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Classifier  ClassifierConfig  `yaml:"classifier"`
	FilterCache FilterCacheConfig `yaml:"filter_cache"`
	Jobs        JobsConfig        `yaml:"jobs"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// IndexConfig holds the chunk search index connection and query settings.
type IndexConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Name             string   `yaml:"name"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Dimensions       int      `yaml:"dimensions"`
	HNSWM            int      `yaml:"hnsw_m"`
	HNSWEFConstruct  int      `yaml:"hnsw_ef_construction"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	RequestTimeout   int      `yaml:"request_timeout_sec"`
	K                int      `yaml:"k"`
	EnsureIndex      bool     `yaml:"ensure_index"`
}

// PostgresConfig holds the structured metadata store settings.
type PostgresConfig struct {
	URL       string `yaml:"url"`
	MaxConns  int32  `yaml:"max_conns"`
	MinConns  int32  `yaml:"min_conns"`
	JobsTable string `yaml:"jobs_table"` // empty = job store unconfigured
	Migrate   bool   `yaml:"migrate"`
}

// SummariesConfig holds the summary document store settings.
type SummariesConfig struct {
	Dir      string `yaml:"dir"`
	InMemory bool   `yaml:"in_memory"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey           string       `yaml:"api_key"`
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	QueryInstruction string       `yaml:"query_instruction"`
	Cache            bool         `yaml:"cache"`
	Budget           BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps embedding token spend. Zero limits mean unlimited.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"`
	Action            string `yaml:"action"` // warn | reject
}

// ClassifierConfig selects and tunes the query classifier.
type ClassifierConfig struct {
	Strategy   string `yaml:"strategy"` // heuristic | llm
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// FilterCacheConfig holds the agency/category cache settings.
type FilterCacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// JobsConfig holds the background search job settings.
type JobsConfig struct {
	PoolSize        int `yaml:"pool_size"`
	StageTimeoutSec int `yaml:"stage_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML config bytes, expanding ${VAR} references first.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Index.Name == "" {
		c.Index.Name = "nofo_chunks"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "grantmatch:chunk:"
	}
	if c.Index.Dimensions <= 0 {
		c.Index.Dimensions = 1024
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.RequestTimeout <= 0 {
		c.Index.RequestTimeout = 15
	}
	if c.Index.K <= 0 {
		c.Index.K = 40
	}
	if c.Postgres.MaxConns <= 0 {
		c.Postgres.MaxConns = 10
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = c.Index.Dimensions
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.Classifier.Strategy == "" {
		c.Classifier.Strategy = StrategyHeuristic
	}
	if c.Classifier.TimeoutSec <= 0 {
		c.Classifier.TimeoutSec = 10
	}
	if c.FilterCache.TTL <= 0 {
		c.FilterCache.TTL = 5 * time.Minute
	}
	if c.Jobs.PoolSize <= 0 {
		c.Jobs.PoolSize = 4
	}
	if c.Jobs.StageTimeoutSec <= 0 {
		c.Jobs.StageTimeoutSec = 120
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Index.Addrs) == 0 {
		return fmt.Errorf("index.addrs is required")
	}
	switch c.Classifier.Strategy {
	case StrategyHeuristic:
	case StrategyLLM:
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("classifier.strategy %q requires embedding.api_key", StrategyLLM)
		}
		if c.Classifier.Model == "" {
			return fmt.Errorf("classifier.model is required for strategy %q", StrategyLLM)
		}
	default:
		return fmt.Errorf(
			"classifier.strategy must be %q or %q, got %q",
			StrategyHeuristic, StrategyLLM, c.Classifier.Strategy,
		)
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf("embedding.budget.action must be \"warn\" or \"reject\", got %q", c.Embedding.Budget.Action)
	}
	if c.Embedding.Budget.DailyTokenLimit < 0 || c.Embedding.Budget.MonthlyTokenLimit < 0 {
		return fmt.Errorf("embedding.budget limits must not be negative")
	}
	if c.Jobs.PoolSize <= 0 {
		return fmt.Errorf("jobs.pool_size must be positive, got %d", c.Jobs.PoolSize)
	}
	if !c.Summaries.InMemory && c.Summaries.Dir == "" {
		return fmt.Errorf("summaries.dir is required unless summaries.in_memory is set")
	}
	return nil
}

// IndexRequestTimeout returns the per-call search index timeout.
func (c *Config) IndexRequestTimeout() time.Duration {
	return time.Duration(c.Index.RequestTimeout) * time.Second
}

// StageTimeout returns the background semantic stage deadline.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Jobs.StageTimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
