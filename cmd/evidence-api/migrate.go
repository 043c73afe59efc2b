package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/config"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/database"
	"github.com/LaurentK2002/exhibit-flow-guardian-sub000/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(cmd.Context(), db); err != nil {
		return err
	}
	logr.Sugar().Infow("schema up to date", "database", cfg.Database.Name)
	return nil
}
