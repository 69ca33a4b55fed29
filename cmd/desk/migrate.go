package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zulandar/supportdesk/internal/config"
	"github.com/zulandar/supportdesk/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var (
		flags    configFlags
		createDB bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the desk database tables",
		Long: `Creates or updates the employees, chats, messages and chat_history tables
and inserts the configured seed admin. Safe to run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runMigrate(cmd.OutOrStdout(), cfg, createDB)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&createDB, "create-db", false, "create the mysql database first if missing")
	return cmd
}

func runMigrate(out io.Writer, cfg *config.Config, createDB bool) error {
	if createDB && cfg.Database.Driver == "mysql" {
		adminDB, err := db.ConnectAdmin(cfg.Database)
		if err != nil {
			return err
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	gormDB, err := db.Connect(cfg.Database, cfg.Server.DebugSQL)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))

	created, err := db.SeedAdmin(gormDB, cfg.Server.SeedAdmin)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "Created admin %s\n", cfg.Server.SeedAdmin.Login)
	}
	return nil
}
