// Package config loads settings from the environment and an optional
// .thingsync config file.
package config

import (
	"errors"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Default location of the Things database on macOS.
const defaultThingsDB = "~/Library/Group Containers/JLMPQHK86H.com.culturedcode.ThingsMac/Things Database.thingsdatabase/main.sqlite"

type Config struct {
	// NotionToken authenticates against the Notion API. Required.
	NotionToken string
	// TasksDatabaseID is the Notion database holding synced tasks. Required.
	TasksDatabaseID string
	// ProjectsDatabaseID is the Notion database holding projects. Required.
	ProjectsDatabaseID string
	// ThingsDB is the path to the Things SQLite database.
	ThingsDB string
	// StateDir holds the sync cache and gate state.
	StateDir string
	// Cooldown is the minimum interval between sync runs.
	Cooldown time.Duration
}

// Load reads configuration, environment first. Missing credentials or
// database ids are a startup failure, reported before any task processing.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".thingsync")
	v.AutomaticEnv()
	v.SetDefault("things_db", defaultThingsDB)
	v.SetDefault("state_dir", "~/.config/thingsync")
	v.SetDefault("cooldown", "30s")

	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		NotionToken:        v.GetString("notion_token"),
		TasksDatabaseID:    v.GetString("notion_database_id"),
		ProjectsDatabaseID: v.GetString("notion_projects_db_id"),
		Cooldown:           v.GetDuration("cooldown"),
	}
	if cfg.NotionToken == "" {
		return nil, errors.New("NOTION_TOKEN is not set")
	}
	if cfg.TasksDatabaseID == "" {
		return nil, errors.New("NOTION_DATABASE_ID is not set")
	}
	if cfg.ProjectsDatabaseID == "" {
		return nil, errors.New("NOTION_PROJECTS_DB_ID is not set")
	}

	var err error
	cfg.ThingsDB, err = homedir.Expand(v.GetString("things_db"))
	if err != nil {
		return nil, err
	}
	cfg.StateDir, err = homedir.Expand(v.GetString("state_dir"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// CacheDir is where the change-detection cache lives.
func (c *Config) CacheDir() string {
	return filepath.Join(c.StateDir, "cache")
}

// GateDir is where the gate state lives.
func (c *Config) GateDir() string {
	return filepath.Join(c.StateDir, "gate")
}
