package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 0},
		Database: DatabaseConfig{Driver: "memory"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "sqlite"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_RedisRequiresAddrs(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "redis"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis driver without addrs")
	}

	cfg.Database.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeMaxRecords(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Driver: "memory"},
		Archive:  ArchiveConfig{MaxRecords: -1},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_records")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected driver=memory, got %q", cfg.Database.Driver)
	}
	if cfg.Database.KeyPrefix != "patentrag:" {
		t.Errorf("expected KeyPrefix=patentrag:, got %q", cfg.Database.KeyPrefix)
	}
	if cfg.Archive.ExcludeDoctype != "sequence-cwu" {
		t.Errorf("expected ExcludeDoctype=sequence-cwu, got %q", cfg.Archive.ExcludeDoctype)
	}
	if cfg.Archive.BatchSize != 64 {
		t.Errorf("expected BatchSize=64, got %d", cfg.Archive.BatchSize)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Rerank.TopN != 5 {
		t.Errorf("expected TopN=5, got %d", cfg.Rerank.TopN)
	}
	if cfg.Chat.MaxDocs != 5 {
		t.Errorf("expected MaxDocs=5, got %d", cfg.Chat.MaxDocs)
	}
}

func TestMustLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := "http:\n  port: 9090\ndatabase:\n  driver: memory\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "test.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg := MustLoad("test")
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected Port=9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Archive.BatchSize != 64 {
		t.Errorf("expected defaults applied, got BatchSize=%d", cfg.Archive.BatchSize)
	}
}

func TestMustLoad_PanicsOnMissingConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for missing config file")
		}
	}()
	MustLoad("nonexistent")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PATENTRAG_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("api_key: ${PATENTRAG_TEST_KEY}")))
	if got != "api_key: secret" {
		t.Errorf("expandEnvVars = %q", got)
	}

	os.Unsetenv("PATENTRAG_TEST_UNSET")
	got = string(expandEnvVars([]byte("addr: ${PATENTRAG_TEST_UNSET:-localhost:6379}")))
	if got != "addr: localhost:6379" {
		t.Errorf("expandEnvVars with default = %q", got)
	}
}
