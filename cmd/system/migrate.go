package system

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medstage_backend/internal/store/pgstore"
	"github.com/Alijeyrad/medstage_backend/pkg/authorize"
	"github.com/Alijeyrad/medstage_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and seed authorization policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg, "migrate"); err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			fmt.Println("Running Migrations For Main DB.")
			drv, err := database.NewDriver(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer drv.Close()

			if err := pgstore.Migrate(ctx, drv); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Println("Running Migrations For Casbin DB.")
			enforcer, cleanup, err := authorize.NewEnforcer(
				authorize.FromCentralConfig(cfg.Authorization),
				database.NewDSN(cfg.CasbinDatabase),
			)
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			slog.Info("Seeding Casbin policies...")
			if err := authorize.SeedDefaultPolicies(ctx, auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
