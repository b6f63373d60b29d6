package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/grovetools/areatrip/cli"
	"github.com/grovetools/areatrip/internal/app"
	"github.com/grovetools/areatrip/internal/store"
	"github.com/grovetools/areatrip/logging"
	"github.com/grovetools/areatrip/pkg/models"
	"github.com/spf13/cobra"
)

// NewSessionCmd creates the session command group.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Sign in, sign out and inspect the session",
	}
	cmd.AddCommand(newSessionLoginCmd())
	cmd.AddCommand(newSessionLogoutCmd())
	cmd.AddCommand(newSessionStatusCmd())
	return cmd
}

func newSessionLoginCmd() *cobra.Command {
	var identity models.Identity
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Record the identity returned by your sign-in provider",
		Long: `Write the signed-in identity to the session file. Running planners and
map bridges pick the change up without a restart.
Examples:
areatrip session login --uid u1 --name Ada --email ada@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			identity.UID = strings.TrimSpace(identity.UID)
			if identity.UID == "" {
				return fmt.Errorf("--uid is required")
			}
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Provider.SignIn(ctx, identity); err != nil {
					return err
				}
				pretty := logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr())
				pretty.Success("Signed in as " + identity.NameToDisplay())
				pretty.Path("session", a.Provider.Path())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&identity.UID, "uid", "", "User id")
	cmd.Flags().StringVar(&identity.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email address")
	return cmd
}

func newSessionLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Session.SignOut(ctx); err != nil {
					return err
				}
				logging.NewPrettyLogger().WithWriter(cmd.ErrOrStderr()).Success("Signed out")
				return nil
			})
		},
	}
}

type sessionStatus struct {
	Status      string `json:"status"`
	UID         string `json:"uid,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, func(ctx context.Context, a *app.App) error {
				s := a.Session.Current()
				status := sessionStatus{
					Status:      s.Status.String(),
					UID:         s.User.UID,
					DisplayName: s.User.DisplayName,
					Email:       s.User.Email,
				}
				if cli.GetOptions(cmd).JSONOutput {
					return writeJSON(cmd.OutOrStdout(), status)
				}

				pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
				pretty.Field("status", status.Status)
				if s.Status == store.AuthAuthenticated {
					pretty.Field("user", s.User.NameToDisplay())
					pretty.Field("uid", s.User.UID)
				}
				return nil
			})
		},
	}
}
