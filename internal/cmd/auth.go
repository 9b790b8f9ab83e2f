package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/hirelink/internal/api"
	"github.com/felixgeelhaar/hirelink/internal/session"
	"github.com/felixgeelhaar/hirelink/internal/tui"
)

var registerRoles = []string{string(session.RoleStudent), string(session.RoleStartup)}

func newAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your hirelink session",
		Long: `Sign in, create an account, sign out and inspect the stored session.

The session is kept in ~/.hirelink/session.json. Set
HIRELINK_SESSION_PASSPHRASE to keep it encrypted at rest.`,
	}

	authCmd.AddCommand(
		newAuthLoginCommand(),
		newAuthRegisterCommand(),
		&cobra.Command{
			Use:   "logout",
			Short: "Remove the stored session",
			Args:  cobra.NoArgs,
			RunE:  runAuthLogout,
		},
		newAuthStatusCommand(),
	)
	return authCmd
}

func newAuthLoginCommand() *cobra.Command {
	var creds tui.Credentials

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Sign in and store the session.

Missing credentials are prompted for when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			creds, err := completeCredentials(creds, false)
			if err != nil {
				return err
			}

			payload, err := check(a, a.client.Auth().Login(cmd.Context(), creds.Email, creds.Password))
			if err != nil {
				return err
			}
			return a.signIn(payload, "Signed in")
		},
	}

	loginCmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	loginCmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	return loginCmd
}

func newAuthRegisterCommand() *cobra.Command {
	var creds tui.Credentials

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create a student or startup account and store the session.

Missing details are prompted for when running in a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			creds, err := completeCredentials(creds, true)
			if err != nil {
				return err
			}
			role := session.Role(strings.ToLower(creds.Role))
			if role != session.RoleStudent && role != session.RoleStartup {
				return usageError("--role must be one of %s", strings.Join(registerRoles, ", "))
			}

			payload, err := check(a, a.client.Auth().Register(cmd.Context(), api.RegisterRequest{
				Name:     creds.Name,
				Email:    creds.Email,
				Password: creds.Password,
				Role:     role,
			}))
			if err != nil {
				return err
			}
			return a.signIn(payload, "Account created")
		},
	}

	registerCmd.Flags().StringVar(&creds.Name, "name", "", "display name")
	registerCmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	registerCmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	registerCmd.Flags().StringVar(&creds.Role, "role", "", "account role: student or startup")
	return registerCmd
}

// completeCredentials prompts for missing fields when a terminal is
// attached and fails otherwise.
func completeCredentials(c tui.Credentials, register bool) (tui.Credentials, error) {
	missing := c.Email == "" || c.Password == ""
	if register {
		missing = missing || c.Name == "" || c.Role == ""
	}
	if !missing {
		return c, nil
	}
	if !tui.ShouldPrompt() {
		if register {
			return c, usageError("--name, --email, --password and --role are required when not running interactively")
		}
		return c, usageError("--email and --password are required when not running interactively")
	}
	return tui.PromptForCredentials(c, register, registerRoles)
}

// signIn persists a login response. A response without a token or user is
// rejected by the store and nothing is written.
func (a *app) signIn(p api.AuthPayload, message string) error {
	if err := a.sessions.Save(p.Token, p.User); err != nil {
		return err
	}
	a.logger.Debug("session stored", "user", p.User.ID, "role", p.User.Role)

	a.notify(fmt.Sprintf("%s as %s (%s)", message, p.User.Name, p.User.Role))
	if a.cfg.Format == "text" {
		return nil
	}
	return a.print(newIdentityView(session.Session{Token: p.Token, User: p.User}))
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	a.notify("Signed out")
	return nil
}

func newAuthStatusCommand() *cobra.Command {
	var remote bool

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in user",
		Long: `Show the stored session. With --remote the backend is asked to confirm
the session is still accepted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			s, err := a.requireSession()
			if err != nil {
				return err
			}

			if remote {
				user, err := check(a, a.client.Auth().Me(cmd.Context()))
				if err != nil {
					return err
				}
				if user.ID != "" {
					s.User = user
				}
			}
			return a.print(newIdentityView(s))
		},
	}

	statusCmd.Flags().BoolVar(&remote, "remote", false, "verify the session with the backend")
	return statusCmd
}

// identityView is the printable part of a session. The token itself is
// never printed.
type identityView struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name" yaml:"name"`
	Email            string     `json:"email" yaml:"email"`
	Role             string     `json:"role" yaml:"role"`
	ProfileCompleted bool       `json:"profileCompleted" yaml:"profileCompleted"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

func newIdentityView(s session.Session) identityView {
	v := identityView{
		ID:               s.User.ID,
		Name:             s.User.Name,
		Email:            s.User.Email,
		Role:             string(s.User.Role),
		ProfileCompleted: s.User.ProfileCompleted,
	}
	if exp, ok := session.TokenExpiry(s.Token); ok {
		v.ExpiresAt = &exp
	}
	return v
}

func (v identityView) RenderText(w io.Writer, noColor bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "User:\t%s <%s>\n", v.Name, v.Email)
	fmt.Fprintf(tw, "ID:\t%s\n", v.ID)
	fmt.Fprintf(tw, "Role:\t%s\n", v.Role)
	fmt.Fprintf(tw, "Profile complete:\t%t\n", v.ProfileCompleted)
	if v.ExpiresAt != nil {
		fmt.Fprintf(tw, "Expires:\t%s\n", v.ExpiresAt.Local().Format(time.RFC1123))
	}
	return tw.Flush()
}
