package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Index:     IndexConfig{Addrs: []string{"localhost:6379"}},
		Summaries: SummariesConfig{InMemory: true},
		Jobs:      JobsConfig{PoolSize: 4},
		Classifier: ClassifierConfig{
			Strategy: StrategyHeuristic,
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Classifier.Strategy = "coin-flip"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid strategy")
	}

	expected := `classifier.strategy must be "heuristic" or "llm", got "coin-flip"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_LLMStrategyRequirements(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		model   string
		wantErr bool
	}{
		{"missing key", "", "gpt-4o-mini", true},
		{"missing model", "sk-test", "", true},
		{"complete", "sk-test", "gpt-4o-mini", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Classifier.Strategy = StrategyLLM
			cfg.Classifier.Model = tt.model
			cfg.Embedding.APIKey = tt.apiKey

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Budget(t *testing.T) {
	tests := []struct {
		name    string
		budget  BudgetConfig
		wantErr bool
	}{
		{"unset", BudgetConfig{}, false},
		{"reject with limits", BudgetConfig{DailyTokenLimit: 1000, MonthlyTokenLimit: 20000, Action: "reject"}, false},
		{"unknown action", BudgetConfig{Action: "throttle"}, true},
		{"negative limit", BudgetConfig{DailyTokenLimit: -1, Action: "warn"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget = tt.budget
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingIndexAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing index addrs")
	}
}

func TestValidate_SummaryDirRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Summaries = SummariesConfig{}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing summaries dir")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.RequestTimeout != 15 {
		t.Errorf("expected RequestTimeout=15, got %d", cfg.Index.RequestTimeout)
	}
	if cfg.Index.K != 40 {
		t.Errorf("expected K=40, got %d", cfg.Index.K)
	}
	if cfg.Index.Name != "nofo_chunks" {
		t.Errorf("expected index name nofo_chunks, got %q", cfg.Index.Name)
	}
	if cfg.Embedding.Dimensions != cfg.Index.Dimensions {
		t.Errorf("expected embedding dims to follow index dims, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Classifier.Strategy != StrategyHeuristic {
		t.Errorf("expected heuristic strategy, got %q", cfg.Classifier.Strategy)
	}
	if cfg.FilterCache.TTL != 5*time.Minute {
		t.Errorf("expected TTL=5m, got %v", cfg.FilterCache.TTL)
	}
	if cfg.Jobs.PoolSize != 4 {
		t.Errorf("expected PoolSize=4, got %d", cfg.Jobs.PoolSize)
	}
	if cfg.StageTimeout() != 120*time.Second {
		t.Errorf("expected stage timeout 120s, got %v", cfg.StageTimeout())
	}
	if cfg.IndexRequestTimeout() != 15*time.Second {
		t.Errorf("expected index timeout 15s, got %v", cfg.IndexRequestTimeout())
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Index:       IndexConfig{K: 10, RequestTimeout: 20},
		FilterCache: FilterCacheConfig{TTL: time.Minute},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Index.K != 10 {
		t.Errorf("expected K=10, got %d", cfg.Index.K)
	}
	if cfg.Index.RequestTimeout != 20 {
		t.Errorf("expected RequestTimeout=20, got %d", cfg.Index.RequestTimeout)
	}
	if cfg.FilterCache.TTL != time.Minute {
		t.Errorf("expected TTL=1m, got %v", cfg.FilterCache.TTL)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("GM_REDIS_ADDR", "redis:6380")

	yml := strings.Join([]string{
		"http:",
		"  port: ${GM_PORT:-9090}",
		"index:",
		"  addrs: [\"${GM_REDIS_ADDR}\"]",
		"summaries:",
		"  in_memory: true",
		"filter_cache:",
		"  ttl: 2m",
	}, "\n")

	cfg, err := Parse([]byte(yml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if len(cfg.Index.Addrs) != 1 || cfg.Index.Addrs[0] != "redis:6380" {
		t.Errorf("expected expanded addr, got %v", cfg.Index.Addrs)
	}
	if cfg.FilterCache.TTL != 2*time.Minute {
		t.Errorf("expected TTL=2m, got %v", cfg.FilterCache.TTL)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
