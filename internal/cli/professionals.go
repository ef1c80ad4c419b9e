package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/model"
)

// NewVerifyProfessionalCommand creates the verify-professional command.
func NewVerifyProfessionalCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-professional <profile-id> <verified|rejected>",
		Short: "Record a verification decision for a professional profile",
		Long: `Verifies or rejects a pending professional profile as the --token
principal, which must be listed in VERIFIER_IDS. Decisions are final.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			principal, err := a.principal(cmd.Context(), rootOpts.Token)
			if err != nil {
				return asFailure(out, "verify-professional", err)
			}

			p, err := a.svc.VerifyProfessional(cmd.Context(), principal, args[0], model.VerificationStatus(args[1]))
			if err != nil {
				return out.Failure("verify-professional", err)
			}
			return out.Success(p, fmt.Sprintf("Profile %s is %s", p.ID, p.VerificationStatus))
		},
	}
}
