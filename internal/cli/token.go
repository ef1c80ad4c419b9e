package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/store"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a credential for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			out := rootOpts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())
			userID := args[0]

			// Only registered users get credentials.
			err = a.store.WithTx(cmd.Context(), func(tx *store.Tx) error {
				_, err := tx.GetUser(cmd.Context(), userID)
				return err
			})
			if errors.Is(err, store.ErrNotFound) {
				return out.Failure("token", apperr.NotFound("user", userID))
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read user", err)
			}

			token, err := a.auth.Issue(userID)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to issue token", err)
			}
			return out.Success(map[string]string{"user_id": userID, "token": token}, token)
		},
	}
}
