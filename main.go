package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/memorybook/memorybook/config"
	"github.com/memorybook/memorybook/models"
	"github.com/memorybook/memorybook/routes"
	"github.com/memorybook/memorybook/services"
	"github.com/memorybook/memorybook/storage"
	"github.com/memorybook/memorybook/utils"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "memorybook",
	Short:        "Collect memories, messages and photos for a memory book",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the memories and page_views tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := boot()
		if err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		if err := config.Migrate(db, &models.Memory{}, &models.PageView{}); err != nil {
			return err
		}
		fmt.Printf("Migrated %s database\n", cfg.DBDriver)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every memory, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := boot()
		if err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		memories, err := services.NewListingService(storage.NewGormRecordStore(db)).ListAll(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tNAME\tYEAR\tPHOTO\tMESSAGE")
		for _, m := range memories {
			photo := "-"
			if m.HasPhoto() {
				photo = *m.PhotoURL
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				m.CreatedAt.Format(time.RFC3339), m.Name, m.YearMet, photo, truncate(m.Message, 60))
		}
		return w.Flush()
	},
}

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List photos that no memory references",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := boot()
		if err != nil {
			return err
		}
		db, err := config.OpenDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		blobs, err := storage.NewBlobStoreFromConfig(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("opening blob store: %w", err)
		}
		orphans, err := services.NewOrphanReporter(blobs, storage.NewGormRecordStore(db)).Scan(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range orphans {
			fmt.Fprintln(cmd.OutOrStdout(), blobs.PublicURL(name))
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d orphaned photos\n", len(orphans))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, listCmd, orphansCmd)
}

// boot loads configuration and the logger; every command starts here.
func boot() (config.AppConfig, error) {
	cfg := config.Load()
	if err := utils.InitLogger(cfg); err != nil {
		return cfg, fmt.Errorf("initializing logger: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	defer utils.Logger.Sync()

	db := config.InitDatabase(&models.Memory{}, &models.PageView{})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	blobs, err := storage.NewBlobStoreFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening blob store: %w", err)
	}
	gormRecords := storage.NewGormRecordStore(db)
	records := storage.NewCachedRecordStore(gormRecords, utils.GetRedis(), cfg.ListCacheTTL())

	gate := services.NewPasswordGate(cfg.AdminPassword)
	if !gate.Configured() {
		utils.Sugar.Warn("ADMIN_PASSWORD is not set; every admin login will be refused")
	}

	// scans read the table directly so a stale cached listing cannot report false orphans
	reporter := services.NewOrphanReporter(blobs, gormRecords)
	reporter.Start(ctx, time.Duration(cfg.OrphanScanMinute)*time.Minute)

	r := routes.SetupRouter(routes.Deps{
		Config:      cfg,
		DB:          db,
		Submissions: services.NewSubmissionService(blobs, records, cfg.YearMetMin, cfg.YearMetMax),
		Listing:     services.NewListingService(records),
		Gate:        gate,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful), blobs=%s db=%s", cfg.AppPort, cfg.BlobBackend, cfg.DBDriver)
	return utils.GraceServer(":"+cfg.AppPort, r, cancel, func() { closeDB(db) })
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
