package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/typedsql/dialect"
	"github.com/satishbabariya/typedsql/internal/config"
	"github.com/satishbabariya/typedsql/internal/debug"
	"github.com/satishbabariya/typedsql/internal/ui"
	"github.com/satishbabariya/typedsql/internal/watch"
	"github.com/satishbabariya/typedsql/query/sqlgen"
	"github.com/satishbabariya/typedsql/schema"
	"github.com/satishbabariya/typedsql/schema/dsl"
	"github.com/satishbabariya/typedsql/schema/gen"
	"github.com/satishbabariya/typedsql/schema/introspect"
)

// errDrift is returned by schema check when the database disagrees with the
// schema file.
var errDrift = errors.New("schema does not match the database")

// NewSchemaCommand creates the parent schema command.
func NewSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Check the schema file and generate code or DDL from it",
	}
	cmd.AddCommand(
		newSchemaCheckCommand(a),
		newSchemaGenerateCommand(a),
		newSchemaSQLCommand(a),
	)
	return cmd
}

func (a *app) loadSchema() (*schema.Registry, error) {
	return dsl.LoadFile(config.AppFs, a.cfg.SchemaFile)
}

// watchOrRun runs fn once, or on every change of the schema file until
// interrupted. While watching, failures are printed and watching continues.
func (a *app) watchOrRun(ctx context.Context, watching bool, fn func(context.Context) error) error {
	if !watching {
		return fn(ctx)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := watch.NewWatcher([]string{a.cfg.SchemaFile}, func() error {
		if err := fn(ctx); err != nil {
			ui.PrintError("%v", err)
		}
		return nil
	}, debug.Logger())
	if err != nil {
		return err
	}
	ui.PrintInfo("Watching %s (Ctrl+C to stop)", a.cfg.SchemaFile)
	return w.Run(ctx)
}

func newSchemaCheckCommand(a *app) *cobra.Command {
	var watching, offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the schema file and compare it with the database",
		Long: `Validate the schema file. When a database is configured, every declared
table and column is compared with the live database: missing columns,
incompatible column types and nullable columns declared non-nullable are
reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.watchOrRun(cmd.Context(), watching, func(ctx context.Context) error {
				return a.checkSchema(ctx, offline)
			})
		},
	}
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "check again whenever the schema file changes")
	cmd.Flags().BoolVar(&offline, "offline", false, "only validate the schema file")
	return cmd
}

func (a *app) checkSchema(ctx context.Context, offline bool) error {
	reg, err := a.loadSchema()
	if err != nil {
		return err
	}
	ui.PrintSuccess("%s declares %d tables", a.cfg.SchemaFile, len(reg.Tables()))
	if offline || a.cfg.DatabaseURL == "" {
		return nil
	}

	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	in, err := introspect.NewIntrospector(c.DB(), c.Dialect())
	if err != nil {
		return err
	}
	live, err := in.Introspect(ctx)
	if err != nil {
		return err
	}
	problems := introspect.Compare(reg, c.Registry(), c.Dialect().Name(), live)
	if len(problems) == 0 {
		ui.PrintSuccess("Database matches the schema")
		return nil
	}
	items := make([]string, len(problems))
	for i, p := range problems {
		items[i] = p.String()
	}
	ui.PrintSection(fmt.Sprintf("%d problems", len(problems)))
	ui.PrintList(items)
	return errDrift
}

func newSchemaGenerateCommand(a *app) *cobra.Command {
	var (
		out      string
		pkg      string
		watching bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate typed Go table handles from the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pkg == "" {
				pkg = filepath.Base(filepath.Dir(out))
				if pkg == "." || pkg == string(filepath.Separator) {
					pkg = "db"
				}
			}
			return a.watchOrRun(cmd.Context(), watching, func(context.Context) error {
				reg, err := a.loadSchema()
				if err != nil {
					return err
				}
				if err := config.AppFs.MkdirAll(filepath.Dir(out), 0o755); err != nil {
					return err
				}
				cfg := gen.Config{Package: pkg, Source: filepath.Base(a.cfg.SchemaFile)}
				if err := gen.Write(config.AppFs, out, reg, cfg); err != nil {
					return err
				}
				ui.PrintSuccess("Wrote %s", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", filepath.Join("db", "schema_gen.go"), "output file")
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package name (default: the output directory name)")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "regenerate whenever the schema file changes")
	return cmd
}

func newSchemaSQLCommand(a *app) *cobra.Command {
	var (
		dialectName string
		ifNotExists bool
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print CREATE TABLE statements for the schema file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.loadSchema()
			if err != nil {
				return err
			}
			var d dialect.Dialect
			if dialectName != "" {
				d, err = dialect.Get(dialectName)
			} else {
				d, err = a.cfg.Backend()
			}
			if err != nil {
				return err
			}
			stmts, err := sqlgen.CreateSchema(d, nil, reg, ifNotExists)
			if err != nil {
				return err
			}
			fmt.Fprintln(ui.Out, strings.Join(stmts, ";\n\n")+";")
			return nil
		},
	}
	cmd.Flags().StringVar(&dialectName, "for", "", "render for this dialect instead of the configured one")
	cmd.Flags().BoolVar(&ifNotExists, "if-not-exists", false, "emit CREATE TABLE IF NOT EXISTS")
	return cmd
}
