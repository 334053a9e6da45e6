package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/jobportal/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	database.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
	return nil
}
