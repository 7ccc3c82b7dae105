package system

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/medstage_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the main and casbin databases when missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg, "init"); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initializing databases: %s\n", strings.Join(database.TargetDatabases(cfg), ", "))
			created, err := database.InitializeDatabases(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			if len(created) == 0 {
				fmt.Fprintln(out, "All databases already exist.")
				return nil
			}
			fmt.Fprintf(out, "Created: %s\n", strings.Join(created, ", "))
			return nil
		},
	}

	return cmd
}
