package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/safeline/internal/apperr"
	"github.com/roach88/safeline/internal/model"
	"github.com/roach88/safeline/internal/service"
)

// RegisterUserOptions holds flags for the register-user command.
type RegisterUserOptions struct {
	*RootOptions
	Name        string
	Email       string
	Phone       string
	UserType    string
	Gender      string
	DateOfBirth string
}

// NewRegisterUserCommand creates the register-user command.
func NewRegisterUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterUserOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register-user",
		Short: "Register a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd.OutOrStdout(), cmd.ErrOrStderr())

			dob, err := time.Parse(time.DateOnly, opts.DateOfBirth)
			if err != nil {
				return out.Failure("register-user", apperr.Validation("user", "date_of_birth", "must be YYYY-MM-DD"))
			}

			a, err := openApp(opts.RootOptions)
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.svc.RegisterUser(cmd.Context(), service.RegisterUserInput{
				Name:        opts.Name,
				Email:       opts.Email,
				Phone:       opts.Phone,
				UserType:    model.UserType(opts.UserType),
				Gender:      model.Gender(opts.Gender),
				DateOfBirth: dob,
			})
			if err != nil {
				return out.Failure("register-user", err)
			}
			return out.Success(u, fmt.Sprintf("Registered %s (%s)", u.ID, u.Email))
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.UserType, "user-type", string(model.UserTypeStudent), "Student|Professional|Other")
	cmd.Flags().StringVar(&opts.Gender, "gender", string(model.GenderOther), "Male|Female|Other")
	cmd.Flags().StringVar(&opts.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("dob")

	return cmd
}

// NewDeleteUserCommand creates the delete-user command.
func NewDeleteUserCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-user <user-id>",
		Short: "Delete a user and everything it owns",
		Long: `Deletes the user as the --token principal. Only the user itself may
delete its account; owned rows are removed with it.`,
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
				return asFailure(out, "delete-user", err)
			}
			if err := a.svc.DeleteUser(cmd.Context(), principal, args[0]); err != nil {
				return out.Failure("delete-user", err)
			}
			return out.Success(map[string]string{"deleted": args[0]}, fmt.Sprintf("Deleted user %s", args[0]))
		},
	}
}

// asFailure reports authentication errors like domain errors and passes
// command errors through.
func asFailure(out *OutputFormatter, op string, err error) error {
	if _, ok := err.(*ExitError); ok {
		return err
	}
	return out.Failure(op, err)
}
