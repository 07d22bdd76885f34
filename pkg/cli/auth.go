package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"taskdeck/pkg/app"
	"taskdeck/pkg/commands"
	"taskdeck/pkg/session"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Sign in with email and password",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup [email]",
	Short: "Create an account and sign in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSignup,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the saved session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleLogout(ctx, a, cmd.OutOrStdout())
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return commands.HandleWhoAmI(a, cmd.OutOrStdout())
		})
	},
}

func init() {
	loginCmd.Flags().Bool("federated", false, "Sign in with the configured federated provider")
	signupCmd.Flags().String("name", "", "Display name")
}

func runLogin(cmd *cobra.Command, args []string) error {
	federated, _ := cmd.Flags().GetBool("federated")
	email := ""
	if len(args) > 0 {
		email = args[0]
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		if federated {
			return commands.HandleFederatedLogin(ctx, a, cmd.OutOrStdout())
		}
		return commands.HandleLogin(ctx, a, commands.NewPrompter(os.Stdin, cmd.OutOrStdout()), email)
	})
}

func runSignup(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	email := ""
	if len(args) > 0 {
		email = args[0]
	}

	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		return commands.HandleSignUp(ctx, a, commands.NewPrompter(os.Stdin, cmd.OutOrStdout()), email, name)
	})
}

// describeError prefers the user-facing message of identity errors
func describeError(err error) string {
	var ierr *session.IdentityError
	if errors.As(err, &ierr) {
		return ierr.Message()
	}
	return err.Error()
}
