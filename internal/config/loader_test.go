package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("BF_TEST_HOST", "db.internal")

	tests := []struct {
		in   string
		want string
	}{
		{in: "host: ${BF_TEST_HOST}", want: "host: db.internal"},
		{in: "host: ${BF_TEST_HOST:localhost}", want: "host: db.internal"},
		{in: "port: ${BF_TEST_UNSET_PORT:5432}", want: "port: 5432"},
		{in: "pw: ${BF_TEST_UNSET_PW:}", want: "pw: "},
		{in: "keep: ${BF_TEST_UNSET_KEEP}", want: "keep: ${BF_TEST_UNSET_KEEP}"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadFromDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Book.DefaultChapters != 5 {
		t.Fatalf("default chapters = %d", cfg.Book.DefaultChapters)
	}
	if cfg.Book.FinalizeMode != FinalizeInProcess {
		t.Fatalf("finalize mode = %q", cfg.Book.FinalizeMode)
	}
	if cfg.Vector.Milvus.TopK != 5 {
		t.Fatalf("top_k = %d", cfg.Vector.Milvus.TopK)
	}
	if cfg.Server.HTTP.ShutdownTimeout != 30*time.Second {
		t.Fatalf("shutdown timeout = %v", cfg.Server.HTTP.ShutdownTimeout)
	}
}

func TestLoadFromFileAndEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "staging")
	t.Setenv("BF_TEST_LANGUAGE", "german")

	base := []byte(`
book:
  language: ${BF_TEST_LANGUAGE:english}
  default_chapters: 7
database:
  driver: sqlite
  sqlite:
    path: /tmp/books.db
`)
	overlay := []byte(`
book:
  default_chapters: 3
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), base, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.staging.yaml"), overlay, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Book.Language != "german" {
		t.Fatalf("language = %q", cfg.Book.Language)
	}
	if cfg.Book.DefaultChapters != 3 {
		t.Fatalf("default chapters = %d, want overlay value", cfg.Book.DefaultChapters)
	}
	if cfg.Database.SQLite.Path != "/tmp/books.db" {
		t.Fatalf("sqlite path = %q", cfg.Database.SQLite.Path)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	bad := *cfg
	bad.Book.FinalizeMode = FinalizeStream
	bad.Cache.Redis.Enabled = false
	if err := bad.Validate(); err == nil {
		t.Fatal("stream finalize without redis should fail")
	}

	bad = *cfg
	bad.Database.Driver = "mysql"
	if err := bad.Validate(); err == nil {
		t.Fatal("unsupported driver should fail")
	}
}
