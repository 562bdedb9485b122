package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/typedsql/internal/config"
	"github.com/satishbabariya/typedsql/internal/ui"
	"github.com/satishbabariya/typedsql/migrate/history"
)

// NewSetupCommand creates the setup command.
func NewSetupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the migration directory and the bookkeeping table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.AppFs.MkdirAll(a.cfg.MigrationDir, 0o755); err != nil {
				return err
			}
			ui.PrintSuccess("Migration directory %s", a.cfg.MigrationDir)

			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()
			if err := l.Setup(cmd.Context()); err != nil {
				return err
			}
			ui.PrintSuccess("Table %s is ready", history.TableName)
			return nil
		},
	}
}
