package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rxportal/patientkit/internal/app"
	"github.com/rxportal/patientkit/internal/httpapi"
	"github.com/rxportal/patientkit/pkg/session"
	"github.com/rxportal/patientkit/pkg/validator"
)

func newSessionCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or change the persisted session",
	}
	cmd.AddCommand(newSessionShowCmd(g))
	cmd.AddCommand(newSessionLoginCmd(g))
	cmd.AddCommand(newSessionLogoutCmd(g))
	return cmd
}

func newSessionShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHydrated(cmd, g, func(a *app.App) error { return nil })
		},
	}
}

func newSessionLoginCmd(g *globalFlags) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Sign in and persist the identity",
		Example: `  patientd session login --email jane@example.com --name "Jane Doe"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
				return err
			}
			return withHydrated(cmd, g, func(a *app.App) error {
				display := name
				if display == "" {
					display = a.Config.API.DisplayName
				}
				a.Manager.Login(cmd.Context(), session.Identity{ID: email, Name: display})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "identifier of the user")
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to API_DISPLAY_NAME)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSessionLogoutCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and erase the persisted identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHydrated(cmd, g, func(a *app.App) error {
				a.Manager.Logout(cmd.Context())
				return nil
			})
		},
	}
}

// withHydrated opens the app, hydrates the session, runs fn and prints the
// resulting session as JSON.
func withHydrated(cmd *cobra.Command, g *globalFlags, fn func(*app.App) error) error {
	a, err := g.openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	a.Hydrate(cmd.Context())
	if err := fn(a); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(httpapi.ViewOf(a.Manager.State())); err != nil {
		return fmt.Errorf("print session: %w", err)
	}
	return nil
}
