// file: internal/config/config_test.go
// version: 1.1.0
// guid: 9a0b1c2d-3e4f-4a5b-6c7d-8e9f0a1b2c3d

package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	InitConfig()

	if AppConfig.DatabaseType != "pebble" {
		t.Errorf("DatabaseType = %q, want pebble default", AppConfig.DatabaseType)
	}
	if AppConfig.EnableSQLite {
		t.Error("EnableSQLite should default to false")
	}
	if AppConfig.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", AppConfig.ListenAddr)
	}
	if AppConfig.AutoHoldDays != 7 {
		t.Errorf("AutoHoldDays = %d, want 7", AppConfig.AutoHoldDays)
	}
	if AppConfig.DatabasePath != filepath.Join("./data", "library.pebble") {
		t.Errorf("DatabasePath = %q", AppConfig.DatabasePath)
	}
	if AppConfig.BackupDir != filepath.Join("./data", "backups") {
		t.Errorf("BackupDir = %q", AppConfig.BackupDir)
	}
}

func TestInitConfigNormalizesSQLite(t *testing.T) {
	viper.Reset()
	viper.Set("database_type", "sqlite3")
	viper.Set("enable_sqlite3_i_know_the_risks", true)
	InitConfig()

	if AppConfig.DatabaseType != "sqlite" {
		t.Errorf("DatabaseType = %q, want sqlite", AppConfig.DatabaseType)
	}
	if !AppConfig.EnableSQLite {
		t.Error("EnableSQLite should be true")
	}
	if AppConfig.DatabasePath != filepath.Join("./data", "library.db") {
		t.Errorf("DatabasePath = %q", AppConfig.DatabasePath)
	}
}

func TestInitConfigExplicitPaths(t *testing.T) {
	viper.Reset()
	viper.Set("database_path", "/var/lib/shelfkeeper/kv")
	viper.Set("backup_dir", "/srv/backups")
	InitConfig()

	if AppConfig.DatabasePath != "/var/lib/shelfkeeper/kv" {
		t.Errorf("DatabasePath = %q", AppConfig.DatabasePath)
	}
	if AppConfig.BackupDir != "/srv/backups" {
		t.Errorf("BackupDir = %q", AppConfig.BackupDir)
	}
}
