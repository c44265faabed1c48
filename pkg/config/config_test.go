package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
environment: test
server:
  port: 8080
provider:
  name: yahoo
  base_url: https://example.com/v8/finance
  symbols: [AAPL, MSFT]
forecast:
  default_horizon: 30
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" {
		t.Fatalf("expected environment test, got %s", cfg.Environment)
	}
	if len(cfg.Provider.Symbols) != 2 {
		t.Fatalf("expected 2 symbols, got %v", cfg.Provider.Symbols)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Forecast.DefaultModel != "ensemble" {
		t.Fatalf("expected default model ensemble, got %s", cfg.Forecast.DefaultModel)
	}
	if cfg.Forecast.TrendLookback != 30 {
		t.Fatalf("expected trend lookback 30, got %d", cfg.Forecast.TrendLookback)
	}
	if len(cfg.Forecast.EnsembleMembers) != 2 {
		t.Fatalf("expected default ensemble members, got %v", cfg.Forecast.EnsembleMembers)
	}
	if cfg.Provider.RateLimit <= 0 {
		t.Fatalf("expected positive rate limit default, got %v", cfg.Provider.RateLimit)
	}
}

func TestLoadRejectsMissingSymbols(t *testing.T) {
	body := `
environment: test
provider:
  base_url: https://example.com
`
	if _, err := Load(writeTempConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for missing symbols")
	}
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	body := `
provider:
  base_url: https://example.com
  symbols: [AAPL]
`
	if _, err := Load(writeTempConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for missing environment")
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("SYMBOLS", "TSLA,NVDA,AMD")
	cfg, err := LoadWithEnv(writeTempConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load with env: %v", err)
	}
	if len(cfg.Provider.Symbols) != 3 || cfg.Provider.Symbols[0] != "TSLA" {
		t.Fatalf("expected env override symbols, got %v", cfg.Provider.Symbols)
	}
}
