package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/typedsql/internal/ui"
	"github.com/satishbabariya/typedsql/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			if full {
				fmt.Fprintln(ui.Out, info.FullString())
				return
			}
			fmt.Fprintln(ui.Out, info.String())
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include build date and commit")
	return cmd
}
