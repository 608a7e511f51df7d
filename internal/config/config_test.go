package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("clipquery-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8000" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.StatementTimeout != 15*time.Second {
		t.Fatalf("Database.StatementTimeout = %s", cfg.Database.StatementTimeout)
	}
	if cfg.AI.Provider != ProviderGemini {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.Temperature != 0 {
		t.Fatalf("AI.Temperature = %f, want deterministic 0", cfg.AI.Temperature)
	}
	if cfg.AI.MaxConcurrent != 8 {
		t.Fatalf("AI.MaxConcurrent = %d", cfg.AI.MaxConcurrent)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("clipquery-api", mapLookup(map[string]string{"CLIPQUERY_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if !cfg.Ingest.ObjectStore.UseSSL {
		t.Fatal("Ingest.ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	cfg, err := Load("clipquery-api", mapLookup(map[string]string{
		"CLIPQUERY_SERVICE_NAME":                "clipquery-custom",
		"CLIPQUERY_HTTP_ADDR":                   ":9999",
		"CLIPQUERY_HTTP_READ_TIMEOUT":           "2s",
		"CLIPQUERY_DB_DRIVER":                   "DuckDB",
		"CLIPQUERY_DB_DSN":                      "/tmp/videos.duckdb",
		"CLIPQUERY_DB_MAX_OPEN_CONNS":           "42",
		"CLIPQUERY_DB_ACQUIRE_TIMEOUT":          "750ms",
		"CLIPQUERY_DB_STATEMENT_TIMEOUT":        "3s",
		"CLIPQUERY_AI_PROVIDER":                 "openai",
		"CLIPQUERY_AI_BASE_URL":                 "https://api.example.com",
		"CLIPQUERY_AI_API_KEY":                  "secret-key",
		"CLIPQUERY_AI_MODEL":                    "gpt-5.2",
		"CLIPQUERY_AI_TEMPERATURE":              "0.3",
		"CLIPQUERY_AI_TIMEOUT":                  "21s",
		"CLIPQUERY_AI_MAX_CONCURRENT":           "2",
		"CLIPQUERY_INGEST_SOURCE":               "s3://datasets/videos.json",
		"CLIPQUERY_LOG_LEVEL":                   "error",
		"CLIPQUERY_AUTH_REQUIRED":               "true",
		"CLIPQUERY_AUTH_STATIC_KEYS":            "k1:bot:analyst",
		"CLIPQUERY_INGEST_OBJECTSTORE_ENDPOINT": "s3.example.com",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "clipquery-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Database.Driver != DriverDuckDB {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "/tmp/videos.duckdb" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.AcquireTimeout != 750*time.Millisecond {
		t.Fatalf("Database.AcquireTimeout = %s", cfg.Database.AcquireTimeout)
	}
	if cfg.Database.StatementTimeout != 3*time.Second {
		t.Fatalf("Database.StatementTimeout = %s", cfg.Database.StatementTimeout)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Fatalf("AI.Provider = %q", cfg.AI.Provider)
	}
	if cfg.AI.BaseURL != "https://api.example.com" {
		t.Fatalf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "secret-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}
	if cfg.AI.Model != "gpt-5.2" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.AI.MaxConcurrent != 2 {
		t.Fatalf("AI.MaxConcurrent = %d", cfg.AI.MaxConcurrent)
	}
	if cfg.Ingest.Source != "s3://datasets/videos.json" {
		t.Fatalf("Ingest.Source = %q", cfg.Ingest.Source)
	}
	if cfg.Ingest.ObjectStore.Endpoint != "s3.example.com" {
		t.Fatalf("Ingest.ObjectStore.Endpoint = %q", cfg.Ingest.ObjectStore.Endpoint)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:bot:analyst" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
}

func TestLoadHonoursLegacyKeys(t *testing.T) {
	cfg, err := Load("clipquery-api", mapLookup(map[string]string{
		"DATABASE_URL":   "postgres://legacy",
		"GEMINI_API_KEY": "gemini-key",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "postgres://legacy" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.AI.APIKey != "gemini-key" {
		t.Fatalf("AI.APIKey = %q", cfg.AI.APIKey)
	}

	cfg, err = Load("clipquery-api", mapLookup(map[string]string{
		"DATABASE_URL":     "postgres://legacy",
		"CLIPQUERY_DB_DSN": "postgres://prefixed",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.DSN != "postgres://prefixed" {
		t.Fatalf("Database.DSN = %q, want prefixed key to win", cfg.Database.DSN)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"CLIPQUERY_PROFILE": "oops"},
		{"CLIPQUERY_HTTP_READ_TIMEOUT": "NaN"},
		{"CLIPQUERY_DB_MAX_OPEN_CONNS": "oops"},
		{"CLIPQUERY_DB_DRIVER": "mysql"},
		{"CLIPQUERY_AI_PROVIDER": "llama"},
		{"CLIPQUERY_AI_TEMPERATURE": "bad"},
		{"CLIPQUERY_AI_MAX_CONCURRENT": "-1"},
		{"CLIPQUERY_AUTH_REQUIRED": "not-bool"},
		{"CLIPQUERY_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("clipquery-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func TestDefaultAIEndpoints(t *testing.T) {
	if got := DefaultAIBaseURL(ProviderGemini); got != "https://generativelanguage.googleapis.com" {
		t.Fatalf("DefaultAIBaseURL(gemini) = %q", got)
	}
	if got := DefaultAIModel(ProviderGemini); got != "gemini-2.5-flash" {
		t.Fatalf("DefaultAIModel(gemini) = %q", got)
	}
	if got := DefaultAIBaseURL(ProviderOpenAI); got != "https://api.openai.com" {
		t.Fatalf("DefaultAIBaseURL(openai) = %q", got)
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
