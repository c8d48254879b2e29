package main

import (
	"context"
	"database/sql"
	"errors"

	"github.com/spf13/cobra"

	"willtank/internal/config"
	"willtank/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}
	cmd.AddCommand(
		migrateAction("up", "Apply all pending migrations", db.MigrateUp),
		migrateAction("down", "Roll back the most recent migration", db.MigrateDown),
		migrateAction("status", "Print the state of every migration", db.MigrateStatus),
	)
	return cmd
}

func migrateAction(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DBDriver == db.DriverMySQL {
				return errors.New("mysql schemas are managed by AutoMigrate when the server starts")
			}

			conn, err := db.OpenSQL(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			return run(cmd.Context(), conn)
		},
	}
}
