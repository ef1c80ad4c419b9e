package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/service"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "analyze <text>",
		Short: "Classify content for the --token principal",
		Long: `Sends the text to the configured classifier (CLASSIFIER_URL) and
stores the detection. High and critical threats raise an alert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			principal, err := a.principal(cmd.Context(), rootOpts.Token)
			if err != nil {
				return asFailure(out, "analyze", err)
			}

			d, err := a.svc.AnalyzeContent(cmd.Context(), principal, service.AnalyzeInput{
				Content:        args[0],
				SourcePlatform: platform,
			})
			if err != nil {
				return out.Failure("analyze", err)
			}
			return out.Success(d, fmt.Sprintf("Detection %s: %s %s (confidence %.2f)",
				d.ID, d.ThreatLevel, d.ThreatType, d.ConfidenceScore))
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "source platform of the content")
	return cmd
}
