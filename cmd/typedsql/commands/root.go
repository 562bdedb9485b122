// Package commands implements the typedsql CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/typedsql/internal/config"
	"github.com/satishbabariya/typedsql/internal/debug"
	"github.com/satishbabariya/typedsql/migrate"
	"github.com/satishbabariya/typedsql/runtime/client"
)

// app is shared by every command; it is filled in before any RunE.
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCommand creates the typedsql command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "typedsql",
		Short: "Typed SQL schemas, queries and migrations for Go",
		Long: `typedsql manages the schema of a typed SQL application: it applies
and reverts versioned migrations, checks the schema file against a live
database and generates typed Go table handles.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			if cfg.Debug {
				debug.Init(true)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default .typedsql.yaml)")
	flags.String("database-url", "", "database connection URL (default $DATABASE_URL)")
	flags.String("dialect", "", "postgres, mysql or sqlite (default inferred from the URL)")
	flags.String("migration-dir", "migrations", "directory holding migration folders")
	flags.String("schema", "schema.tsql", "schema definition file")
	flags.Bool("debug", false, "log every statement to stderr")

	cmd.AddCommand(
		NewSetupCommand(a),
		NewMigrationCommand(a),
		NewSchemaCommand(a),
		NewVersionCommand(),
	)
	return cmd
}

// connect opens a client for the configured database.
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	d, err := a.cfg.Backend()
	if err != nil {
		return nil, err
	}
	dsn, err := a.cfg.DSN()
	if err != nil {
		return nil, err
	}
	c, err := client.Open(string(d.Name()), dsn, client.WithLogger(debug.Logger()))
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to %s: %w", d.Name(), err)
	}
	return c, nil
}

// ledger connects and returns a ledger over the migration directory. The
// caller closes the client.
func (a *app) ledger(ctx context.Context) (*migrate.Ledger, *client.Client, error) {
	c, err := a.connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	src := migrate.DirSource(config.AppFs, a.cfg.MigrationDir)
	return migrate.New(c, src, migrate.WithLogger(debug.Logger())), c, nil
}
