package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/harness"
	"github.com/roach88/safeline/internal/logging"
)

// scenarioReport is the JSON form of one scenario run.
type scenarioReport struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Trace  string   `json:"trace"`
	Errors []string `json:"errors,omitempty"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file.yaml>...",
		Short: "Run scenario files against a fresh in-memory store",
		Long: `Runs each scenario with a deterministic clock and sequential ids,
prints its trace, and fails if any step expectation or assertion fails.
Scenarios never touch the configured database.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			level := "warn"
			if rootOpts.Verbose {
				level = "debug"
			}
			logger, err := logging.New(logging.Config{Level: level, ServiceName: "safeline"})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to build logger", err)
			}
			defer logger.Sync()

			var reports []scenarioReport
			failed := 0
			for _, path := range args {
				sc, err := harness.LoadScenario(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to load scenario", err)
				}
				result, h, err := harness.Run(cmd.Context(), sc, logger)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("failed to run scenario %s", sc.Name), err)
				}
				if !result.Pass {
					failed++
				}
				reports = append(reports, scenarioReport{
					Name:   sc.Name,
					Pass:   result.Pass,
					Trace:  result.Render(h.Aliases()),
					Errors: result.Errors,
				})
			}

			if rootOpts.Format == "json" {
				if err := out.Success(reports, ""); err != nil {
					return err
				}
			} else {
				for _, r := range reports {
					status := "PASS"
					if !r.Pass {
						status = "FAIL"
					}
					fmt.Fprintf(out.Writer, "%s %s\n%s", status, r.Name, r.Trace)
					for _, e := range r.Errors {
						fmt.Fprintf(out.Writer, "  %s\n", e)
					}
				}
			}

			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(reports)))
			}
			return nil
		},
	}
}
