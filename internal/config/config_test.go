package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/skater-value/internal/domain/dataset"
	"github.com/riskibarqy/skater-value/internal/platform/cache"
	"github.com/riskibarqy/skater-value/internal/platform/logging"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Season != "20232024" {
		t.Fatalf("unexpected season: %s", cfg.Season)
	}
	if cfg.LogFormat != logging.FormatConsole {
		t.Fatalf("expected console logs in dev, got %s", cfg.LogFormat)
	}
	if cfg.SnapshotBackend != SnapshotBackendFilesystem || cfg.NeedsDatabase() {
		t.Fatalf("expected filesystem snapshots without a database, got %s", cfg.SnapshotBackend)
	}
	if cfg.DiscrepancyMinGP != 5 || cfg.DiscrepancyLimit != 50 {
		t.Fatalf("unexpected discrepancy defaults: gp=%v limit=%d", cfg.DiscrepancyMinGP, cfg.DiscrepancyLimit)
	}
	if cfg.Scheduled() {
		t.Fatalf("expected a single run by default")
	}
	if cfg.SourceMaxRetries != 0 || !cfg.SourceCircuit.Enabled || cfg.SourceCircuit.FailureThreshold != 3 {
		t.Fatalf("unexpected source resilience defaults: retries=%d circuit=%+v", cfg.SourceMaxRetries, cfg.SourceCircuit)
	}

	stats := cfg.Policies[dataset.NameAllStrengths]
	if stats.Kind != cache.PolicyWindow || stats.Window != time.Hour {
		t.Fatalf("unexpected stats policy: %s", stats)
	}
	if cfg.Policies[dataset.NameEvenStrength] != stats {
		t.Fatalf("expected both stats tables to share a policy")
	}
	roster := cfg.Policies[dataset.NameRoster]
	if roster.Kind != cache.PolicyUntilMidnight || roster.Location != time.UTC {
		t.Fatalf("unexpected roster policy: %s", roster)
	}
}

func TestLoad_ProdUsesJSONLogs(t *testing.T) {
	t.Setenv("APP_ENV", EnvProd)
	t.Setenv("APP_LOG_FORMAT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LogFormat != logging.FormatJSON {
		t.Fatalf("expected json logs in prod, got %s", cfg.LogFormat)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad season", env: map[string]string{"SEASON": "20232025"}},
		{name: "bad staleness", env: map[string]string{"STATS_STALENESS": "soon"}},
		{name: "bad log format", env: map[string]string{"APP_LOG_FORMAT": "xml"}},
		{name: "bad snapshot backend", env: map[string]string{"SNAPSHOT_BACKEND": "redis"}},
		{name: "roster without export url", env: map[string]string{"ROSTER_ENABLED": "true", "FANTRAX_EXPORT_URL": ""}},
		{name: "uptrace without dsn", env: map[string]string{"UPTRACE_ENABLED": "true", "UPTRACE_DSN": ""}},
		{name: "no publishers", env: map[string]string{"PUBLISH_EXCEL_PATH": "none", "PUBLISH_JSON_DIR": "", "PUBLISH_POSTGRES_ENABLED": "false"}},
		{name: "negative retries", env: map[string]string{"SOURCE_MAX_RETRIES": "-1"}},
		{name: "zero breaker threshold", env: map[string]string{"SOURCE_CIRCUIT_FAILURE_COUNT": "0"}},
		{name: "zero workers", env: map[string]string{"PUBLISH_WORKERS": "0"}},
		{name: "negative min gp", env: map[string]string{"DISCREPANCY_MIN_GP": "-1"}},
		{name: "unknown timezone", env: map[string]string{"PIPELINE_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", EnvDev)
			for key, value := range tc.env {
				t.Setenv(key, value)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoad_RosterAndSchedule(t *testing.T) {
	t.Setenv("APP_ENV", EnvStage)
	t.Setenv("ROSTER_ENABLED", "true")
	t.Setenv("FANTRAX_EXPORT_URL", "https://www.fantrax.com/fxpa/downloadPlayerStats?endDate={today}")
	t.Setenv("ROSTER_TIMEZONE", "America/Toronto")
	t.Setenv("PIPELINE_SCHEDULE", "0 7 * * *")
	t.Setenv("SNAPSHOT_BACKEND", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.RosterEnabled || cfg.RosterLocation.String() != "America/Toronto" {
		t.Fatalf("unexpected roster config: enabled=%v loc=%s", cfg.RosterEnabled, cfg.RosterLocation)
	}
	if cfg.Policies[dataset.NameRoster].Location.String() != "America/Toronto" {
		t.Fatalf("roster staleness should follow the roster timezone")
	}
	if !cfg.Scheduled() || !cfg.NeedsDatabase() {
		t.Fatalf("expected scheduled run with database: %+v", cfg)
	}
}

func TestLoad_DatasetsFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	body := []byte(`datasets:
  even_strength:
    url: https://example.test/ev
    staleness: 30m
  fantrax_roster:
    url: https://example.test/roster.csv
    staleness: midnight
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write datasets file: %v", err)
	}

	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("DATASETS_FILE", path)
	t.Setenv("ROSTER_ENABLED", "true")
	t.Setenv("FANTRAX_EXPORT_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SourceURLs[dataset.NameEvenStrength] != "https://example.test/ev" {
		t.Fatalf("unexpected even strength url: %q", cfg.SourceURLs[dataset.NameEvenStrength])
	}
	if _, ok := cfg.SourceURLs[dataset.NameAllStrengths]; ok {
		t.Fatalf("all strengths url should keep the season default")
	}
	if cfg.FantraxExportURL != "https://example.test/roster.csv" {
		t.Fatalf("roster url override not applied: %q", cfg.FantraxExportURL)
	}
	if got := cfg.Policies[dataset.NameEvenStrength]; got.Window != 30*time.Minute {
		t.Fatalf("unexpected even strength policy: %s", got)
	}
	if got := cfg.Policies[dataset.NameAllStrengths]; got.Window != time.Hour {
		t.Fatalf("all strengths policy should be untouched: %s", got)
	}
}

func TestParseDatasetsFile_Validation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown dataset": "datasets:\n  goalies:\n    staleness: 1h\n",
		"bad url":         "datasets:\n  all_strengths:\n    url: not a url\n",
		"bad yaml":        "datasets: [\n",
	}
	for name, raw := range cases {
		if _, err := ParseDatasetsFile([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	file, err := ParseDatasetsFile([]byte("datasets:\n  all_strengths:\n    staleness: never\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg := Config{RosterLocation: time.UTC}
	if err := file.Apply(&cfg); err == nil {
		t.Fatalf("expected invalid staleness to fail on apply")
	}
}

func TestParseUptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Parallel()

	got := parseUptraceDSNFromOTLPHeaders(`foo=bar, uptrace-dsn="https://token@api.uptrace.dev?grpc=4317"`)
	if got != "https://token@api.uptrace.dev?grpc=4317" {
		t.Fatalf("unexpected dsn: %q", got)
	}
	if parseUptraceDSNFromOTLPHeaders("foo=bar") != "" {
		t.Fatalf("expected empty dsn")
	}
}
