package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `Opens the database, applying the schema and any pending migrations,
and reports the resulting schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			version, err := a.store.SchemaVersion(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read schema version", err)
			}

			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			return out.Success(map[string]any{
				"database":       a.cfg.Database.Path,
				"schema_version": version,
			}, fmt.Sprintf("Schema version %d (%s)", version, a.cfg.Database.Path))
		},
	}
}
