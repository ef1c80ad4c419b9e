package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/safeline/internal/service"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load legal guidance and support resources",
		Long: `Upserts reference data from a YAML file with legal_guidance and
support_resources lists. Rows are keyed by id; rows without an id get a
fresh one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := loadReferenceData(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load seed file", err)
			}

			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			n, err := a.svc.SeedReference(cmd.Context(), data)
			if err != nil {
				return out.Failure("seed", err)
			}
			return out.Success(map[string]any{"rows": n}, fmt.Sprintf("Seeded %d reference rows", n))
		},
	}
}

// loadReferenceData decodes a seed file, rejecting unknown keys.
func loadReferenceData(path string) (service.ReferenceData, error) {
	var data service.ReferenceData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return data, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}
