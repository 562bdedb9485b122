package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/typedsql/internal/config"
	"github.com/satishbabariya/typedsql/internal/ui"
	"github.com/satishbabariya/typedsql/migrate"
)

// NewMigrationCommand creates the parent migration command.
func NewMigrationCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "migration",
		Aliases: []string{"migrate"},
		Short:   "Generate, apply and revert migrations",
	}
	cmd.AddCommand(
		newMigrationGenerateCommand(a),
		newMigrationRunCommand(a),
		newMigrationRevertCommand(a),
		newMigrationRedoCommand(a),
		newMigrationListCommand(a),
		newMigrationPendingCommand(a),
		newMigrationShowCommand(a),
	)
	return cmd
}

func newMigrationGenerateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate NAME",
		Short: "Create an empty migration with up.sql and down.sql",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			path, err := migrate.Generate(config.AppFs, a.cfg.MigrationDir, name, time.Now().UTC())
			if err != nil {
				return err
			}
			ui.PrintSuccess("Created %s", path)
			return nil
		},
	}
}

func newMigrationRunCommand(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Apply pending migrations in version order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			done, err := l.RunN(cmd.Context(), n)
			for _, v := range done {
				ui.PrintSuccess("Applied %s", v)
			}
			if err != nil {
				return err
			}
			if len(done) == 0 {
				ui.PrintInfo("Database is up to date")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", -1, "apply at most n migrations")
	return cmd
}

func newMigrationRevertCommand(a *app) *cobra.Command {
	var (
		n   int
		all bool
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "revert",
		Short: "Revert the newest applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && n < 1 {
				return fmt.Errorf("--number must be at least 1, got %d; use --all to revert everything", n)
			}
			if all {
				ok, err := ui.Confirm("Revert every applied migration?", yes)
				if err != nil {
					return err
				}
				if !ok {
					ui.PrintWarning("Aborted")
					return nil
				}
			}

			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			var done []string
			if all {
				done, err = l.RevertAll(cmd.Context())
			} else {
				done, err = l.Revert(cmd.Context(), n)
			}
			for _, v := range done {
				ui.PrintSuccess("Reverted %s", v)
			}
			if err != nil {
				return err
			}
			if len(done) == 0 {
				ui.PrintInfo("Nothing to revert")
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 1, "number of migrations to revert")
	cmd.Flags().BoolVar(&all, "all", false, "revert every applied migration")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newMigrationRedoCommand(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Revert and reapply the newest applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("--number must be at least 1, got %d", n)
			}
			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			done, err := l.Redo(cmd.Context(), n)
			for _, v := range done {
				ui.PrintSuccess("Redid %s", v)
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 1, "number of migrations to redo")
	return cmd
}

func newMigrationListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"status"},
		Short:   "Show every migration and whether it is applied",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			entries, err := l.Status(cmd.Context())
			if err != nil {
				return err
			}
			return ui.PrintStatus(entries)
		},
	}
}

func newMigrationPendingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List migrations that run would apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			ms, err := l.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(ms) == 0 {
				ui.PrintInfo("No pending migrations")
				return nil
			}
			items := make([]string, len(ms))
			for i, m := range ms {
				items[i] = m.String()
			}
			ui.PrintSection(fmt.Sprintf("%d pending", len(ms)))
			ui.PrintList(items)
			return nil
		},
	}
}

func newMigrationShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show VERSION",
		Short: "Print the scripts of one migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, c, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			m, err := l.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return ui.PrintMarkdown(ui.MigrationMarkdown(m))
		},
	}
}
