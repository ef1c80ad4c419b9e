package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Database string // overrides SAFELINE_DB_PATH
	Token    string // credential of the acting principal
	EnvFile  string

	// MetricsFile receives the Prometheus text exposition when the command
	// finishes (empty = not written).
	MetricsFile string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the safeline CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "safeline",
		Short: "safeline - personal safety backend",
		Long:  "Operate the safeline store: migrate, seed reference data, run scenarios and act as a principal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default $SAFELINE_DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", "", "credential of the acting principal")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "dotenv file to load before the environment")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewRegisterUserCommand(opts))
	cmd.AddCommand(NewDeleteUserCommand(opts))
	cmd.AddCommand(NewVerifyProfessionalCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))

	return cmd
}

// loadConfig loads configuration and applies flag overrides.
func (o *RootOptions) loadConfig() *config.Config {
	var files []string
	if o.EnvFile != "" {
		files = append(files, o.EnvFile)
	}
	cfg := config.Load(files...)
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg
}

// formatter returns an output formatter writing to the command's streams.
func (o *RootOptions) formatter(out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: out, ErrWriter: errOut, Verbose: o.Verbose}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
