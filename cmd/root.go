// file: cmd/root.go
// version: 1.6.0
// guid: 7b8c9d0e-1f2a-4b3c-5d6e-7f8a9b0c1d2f

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jdfalk/shelfkeeper/internal/backup"
	"github.com/jdfalk/shelfkeeper/internal/config"
	"github.com/jdfalk/shelfkeeper/internal/database"
	"github.com/jdfalk/shelfkeeper/internal/library"
	"github.com/jdfalk/shelfkeeper/internal/models"
	"github.com/jdfalk/shelfkeeper/internal/server"
	"github.com/jdfalk/shelfkeeper/internal/watcher"
)

var cfgFile string
var dataDir string
var databasePath string
var databaseType string
var enableSQLite bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfkeeper",
	Short: "Track web novels across reading sites",
	Long: `Shelfkeeper keeps a personal reading library of web novels. It merges
metadata scraped from reading sites, detects and folds duplicate entries,
parks stale novels on hold automatically, and moves the whole library
between machines through backup files.`,
}

// withService initializes the store, builds the library service, runs fn,
// and closes the store afterwards.
func withService(fn func(svc *library.Service) error) error {
	if err := database.InitializeStore(config.AppConfig.DatabaseType, config.AppConfig.DatabasePath, config.AppConfig.EnableSQLite); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.CloseStore()
	return fn(library.NewService(database.GlobalStore))
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server that the browser extension and maintenance tooling talk to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *library.Service) error {
			fmt.Printf("Using database: %s (%s)\n", config.AppConfig.DatabasePath, config.AppConfig.DatabaseType)

			seed := models.DefaultLibrarySettings()
			if config.AppConfig.AutoHoldDays > 0 {
				seed.AutoHoldDays = config.AppConfig.AutoHoldDays
			}
			seed.AutoImportBackups = config.AppConfig.WatchBackups
			if err := svc.SeedSettings(seed); err != nil {
				fmt.Printf("Warning: could not seed settings: %v\n", err)
			}

			if config.AppConfig.WatchBackups {
				w := watcher.New(func(path string) {
					data, err := os.ReadFile(path)
					if err != nil {
						fmt.Printf("Warning: could not read dropped backup %s: %v\n", path, err)
						return
					}
					sum, err := svc.Import(data, backup.ModeSmartMerge)
					if err != nil {
						fmt.Printf("Warning: auto-import of %s failed: %v\n", path, err)
						return
					}
					fmt.Printf("Auto-imported %s: %d new, %d updated, %d skipped\n",
						path, sum.Imported, sum.Updated, sum.Skipped)
				}, 0)
				if err := w.Start(config.AppConfig.BackupDir); err != nil {
					fmt.Printf("Warning: backup watcher disabled: %v\n", err)
				} else {
					defer w.Stop()
					fmt.Printf("Watching %s for backup drops\n", config.AppConfig.BackupDir)
				}
			}

			addr := config.AppConfig.ListenAddr
			if flagAddr := cmd.Flag("addr").Value.String(); flagAddr != "" {
				addr = flagAddr
			}
			return server.NewServer(svc).Start(addr)
		})
	},
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the library to a backup file",
	Long:  `Export the whole library (novels, shelves, chapters) to a JSON backup file.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *library.Service) error {
			data, err := svc.Export()
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			out := "shelfkeeper-backup.json"
			if len(args) == 1 {
				out = args[0]
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Exported library to %s (%d bytes)\n", out, len(data))
			return nil
		})
	},
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a backup file",
	Long: `Import a backup file into the library.

Modes:
  smart_merge  merge field-by-field, keeping local edits and best progress (default)
  append       only add novels the library does not have yet
  replace      discard the local library and take the backup as-is`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := backup.ParseMode(cmd.Flag("mode").Value.String())
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return withService(func(svc *library.Service) error {
			sum, err := svc.Import(data, mode)
			if err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			fmt.Printf("Import complete: %d new, %d updated, %d skipped, %d errors\n",
				sum.Imported, sum.Updated, sum.Skipped, sum.Errors)
			for _, msg := range sum.Messages {
				fmt.Printf("  - %s\n", msg)
			}
			return nil
		})
	},
}

// dedupeCmd represents the dedupe command
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Find and merge duplicate novels",
	Long:  `Scan the library for duplicate novels and fold each group into its most complete copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		shelf := cmd.Flag("shelf").Value.String()
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		return withService(func(svc *library.Service) error {
			groups, err := svc.FindDuplicates(shelf)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Println("No duplicates found")
				return nil
			}
			fmt.Printf("Found %d duplicate group(s)\n", len(groups))
			if dryRun {
				for _, g := range groups {
					fmt.Printf("  [%s] %s: %v\n", g.Reason, g.Key, g.IDs)
				}
				return nil
			}

			bar := progressbar.Default(int64(len(groups)))
			var merged, removed int
			var failures []string
			for _, g := range groups {
				res, err := svc.MergeDuplicates(g.IDs, "")
				if err != nil {
					failures = append(failures, fmt.Sprintf("%s: %v", g.Key, err))
					bar.Add(1)
					continue
				}
				merged++
				removed += res.Removed
				bar.Add(1)
			}
			fmt.Printf("\nMerged %d group(s), removed %d duplicate record(s)\n", merged, removed)
			for _, f := range failures {
				fmt.Printf("  failed: %s\n", f)
			}
			return nil
		})
	},
}

// staleCmd represents the stale command
var staleCmd = &cobra.Command{
	Use:   "stale",
	Short: "Run the stale-status pass",
	Long:  `Move novels in Reading with no recent activity to On Hold (or back to Plan to Read when barely started).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *library.Service) error {
			res, err := svc.ApplyStaleRules()
			if err != nil {
				return err
			}
			fmt.Printf("Stale pass: %d moved to on_hold, %d moved to plan_to_read\n",
				res.ToOnHold, res.ToPlanToRead)
			for _, id := range res.Changed {
				fmt.Printf("  - %s\n", id)
			}
			return nil
		})
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show library statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(svc *library.Service) error {
			st, err := svc.Stats()
			if err != nil {
				return err
			}
			fmt.Printf("Novels: %d\n", st.TotalNovels)
			fmt.Printf("Chapters read: %d\n", st.ChaptersRead)
			fmt.Printf("Enhanced chapters: %d\n", st.EnhancedChapters)
			fmt.Println("By status:")
			for status, n := range st.ByStatus {
				fmt.Printf("  %-13s %d\n", status, n)
			}
			fmt.Println("By shelf:")
			for shelf, n := range st.ByShelf {
				fmt.Printf("  %-13s %d\n", shelf, n)
			}
			return nil
		})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shelfkeeper.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "directory for database and backups")
	rootCmd.PersistentFlags().StringVar(&databasePath, "db", "", "path to database (default: <data-dir>/library.pebble)")
	rootCmd.PersistentFlags().StringVar(&databaseType, "db-type", "pebble", "database type: pebble (default) or sqlite")
	rootCmd.PersistentFlags().BoolVar(&enableSQLite, "enable-sqlite3-i-know-the-risks", false, "enable SQLite3 database (WARNING: cross-compilation issues, PebbleDB recommended)")

	viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("database_type", rootCmd.PersistentFlags().Lookup("db-type"))
	viper.BindPFlag("enable_sqlite3_i_know_the_risks", rootCmd.PersistentFlags().Lookup("enable-sqlite3-i-know-the-risks"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(staleCmd)
	rootCmd.AddCommand(statsCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides config, e.g. :8080)")
	serveCmd.Flags().Bool("watch-backups", false, "auto-import backup files dropped into the backup directory")
	viper.BindPFlag("watch_backups", serveCmd.Flags().Lookup("watch-backups"))

	importCmd.Flags().String("mode", "smart_merge", "import mode: smart_merge, append, or replace")
	dedupeCmd.Flags().String("shelf", "", "limit the scan to one shelf")
	dedupeCmd.Flags().Bool("dry-run", false, "list duplicate groups without merging")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".shelfkeeper")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}

	config.InitConfig()

	// Ensure the data and backup directories exist.
	for _, dir := range []string{config.AppConfig.DataDir, config.AppConfig.BackupDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Printf("Error creating directory %s: %v\n", dir, err)
		}
	}
	if dbDir := filepath.Dir(config.AppConfig.DatabasePath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			fmt.Printf("Error creating database directory: %v\n", err)
		}
	}
}
