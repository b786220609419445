package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
models:
  directory: "/srv/models"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Models.Directory != "/srv/models" {
		t.Errorf("models directory = %s", cfg.Models.Directory)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
models:
  directory: "./data/models"
downloads:
  directory: "./data/downloads"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data", "models")
	if cfg.Models.Directory != want {
		t.Errorf("models directory = %s, want %s", cfg.Models.Directory, want)
	}
	want = filepath.Join(dir, "data", "downloads")
	if cfg.Downloads.Directory != want {
		t.Errorf("downloads directory = %s, want %s", cfg.Downloads.Directory, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [1, 2"},
		{"bad port", "server:\n  port: 70000\n"},
		{"prefix with underscore", "ontologies:\n  - prefix: GO_X\n"},
		{"duplicate prefix", "ontologies:\n  - prefix: GO\n  - prefix: GO\n"},
		{"negative rate", "server:\n  rate_limit:\n    requests_per_second: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 60 {
		t.Errorf("default request timeout: got %d", cfg.Server.RequestTimeout)
	}
	if cfg.Query.DefaultTopN != 10 {
		t.Errorf("default top_n: got %d", cfg.Query.DefaultTopN)
	}
	if cfg.Metrics.Path != "/metrics" || !cfg.Metrics.EnabledOrDefault() {
		t.Errorf("metrics defaults: got %+v", cfg.Metrics)
	}
	if !cfg.Models.SuggestionsOrDefault() {
		t.Error("suggestions should default to true")
	}
	if len(cfg.Ontologies) != 2 || cfg.Ontologies[0].Prefix != "GO" || cfg.Ontologies[1].Prefix != "HP" {
		t.Errorf("default ontologies: got %+v", cfg.Ontologies)
	}
	if cfg.Namespaces()["HP"] != DefaultNamespace {
		t.Errorf("HP namespace: got %q", cfg.Namespaces()["HP"])
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 0 || cfg.Server.RateLimit.Burst != 0 {
		t.Errorf("rate limit should stay disabled: got %+v", cfg.Server.RateLimit)
	}
	if cfg.Artifacts.Enabled() {
		t.Error("artifacts should be disabled without endpoint and bucket")
	}
}

func TestApplyDefaults_RateLimitBurst(t *testing.T) {
	cfg := &Config{Server: ServerConfig{RateLimit: RateLimitConfig{RequestsPerSecond: 5}}}
	ApplyDefaults(cfg)
	if cfg.Server.RateLimit.Burst != 6 {
		t.Errorf("burst: got %d, want 6", cfg.Server.RateLimit.Burst)
	}
}

func TestApplyDefaults_OntologyNamespace(t *testing.T) {
	cfg := &Config{Ontologies: []OntologyConfig{{Prefix: "MONDO"}, {Prefix: "EX", Namespace: "https://example.org/"}}}
	ApplyDefaults(cfg)
	if !cfg.HasOntology("MONDO") || cfg.HasOntology("GO") {
		t.Errorf("explicit ontologies should replace defaults: got %+v", cfg.Ontologies)
	}
	ns := cfg.Namespaces()
	if ns["MONDO"] != DefaultNamespace || ns["EX"] != "https://example.org/" {
		t.Errorf("namespaces: got %v", ns)
	}
}

func TestOrDefault(t *testing.T) {
	f := false
	m := &ModelsConfig{Suggestions: &f}
	if m.SuggestionsOrDefault() {
		t.Error("explicit false should disable suggestions")
	}
	mc := &MetricsConfig{Enabled: &f}
	if mc.EnabledOrDefault() {
		t.Error("explicit false should disable metrics")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090},
		Models: ModelsConfig{Directory: "/tmp/models"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Models.Directory != "/tmp/models" {
		t.Errorf("loaded models directory: got %s", loaded.Models.Directory)
	}
}
