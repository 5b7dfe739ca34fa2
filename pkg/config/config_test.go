package config

import (
	"testing"
)

func TestMissingCredentialsAreFatal(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")
	t.Setenv("NOTION_PROJECTS_DB_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without credentials")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "secret")
	t.Setenv("NOTION_DATABASE_ID", "db-tasks")
	t.Setenv("NOTION_PROJECTS_DB_ID", "db-projects")
	t.Setenv("STATE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TasksDatabaseID != "db-tasks" || cfg.ProjectsDatabaseID != "db-projects" {
		t.Errorf("database ids = %q, %q", cfg.TasksDatabaseID, cfg.ProjectsDatabaseID)
	}
	if cfg.ThingsDB == "" {
		t.Error("ThingsDB default missing")
	}
	if cfg.CacheDir() == cfg.GateDir() {
		t.Error("cache and gate state must not share a directory")
	}
}
