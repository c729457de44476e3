// file: internal/config/config.go
// version: 1.3.0
// guid: 2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a

package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	DataDir      string
	DatabasePath string
	DatabaseType string // "pebble" (default) or "sqlite"
	EnableSQLite bool   // Must be true to use SQLite (safety flag)
	ListenAddr   string
	BackupDir    string
	WatchBackups bool
	AutoHoldDays int
}

var AppConfig Config

// InitConfig initializes the application configuration
func InitConfig() {
	// Set defaults
	viper.SetDefault("database_type", "pebble")
	viper.SetDefault("enable_sqlite3_i_know_the_risks", false)
	viper.SetDefault("data_dir", "./data")
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("auto_hold_days", 7)

	AppConfig = Config{
		DataDir:      viper.GetString("data_dir"),
		DatabasePath: viper.GetString("database_path"),
		DatabaseType: viper.GetString("database_type"),
		EnableSQLite: viper.GetBool("enable_sqlite3_i_know_the_risks"),
		ListenAddr:   viper.GetString("listen_addr"),
		BackupDir:    viper.GetString("backup_dir"),
		WatchBackups: viper.GetBool("watch_backups"),
		AutoHoldDays: viper.GetInt("auto_hold_days"),
	}

	// Normalize database type
	if AppConfig.DatabaseType == "sqlite3" {
		AppConfig.DatabaseType = "sqlite"
	}
	if AppConfig.DatabaseType == "" {
		AppConfig.DatabaseType = "pebble"
	}
	if AppConfig.DatabasePath == "" {
		name := "library.pebble"
		if AppConfig.DatabaseType == "sqlite" {
			name = "library.db"
		}
		AppConfig.DatabasePath = filepath.Join(AppConfig.DataDir, name)
	}
	if AppConfig.BackupDir == "" {
		AppConfig.BackupDir = filepath.Join(AppConfig.DataDir, "backups")
	}
}
