package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"procurelink/db"
	"procurelink/db/migrations"
	"procurelink/internal/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.DriverPostgres)
			}
			ctx := context.Background()
			conn, err := db.Connect(ctx, cfg.PostgresConn)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrations.Run(ctx, conn.DB); err != nil {
				return err
			}
			version, err := migrations.Version(ctx, conn.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}
