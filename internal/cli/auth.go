package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"zurura-client/internal/auth"
	"zurura-client/internal/model"
)

type credentialFlags struct {
	email    string
	password string
}

func (f *credentialFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "Account email")
	cmd.Flags().StringVar(&f.password, "password", "", "Account password (read from stdin when omitted)")
}

// readPassword takes the flag value, or the first line of stdin.
func (c *cli) readPassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}

	fmt.Fprint(c.env.Err, "Password: ")
	line, err := bufio.NewReader(c.env.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			password, err := c.readPassword(creds.password)
			if err != nil {
				return err
			}

			result, err := c.app.Hooks.Auth.Login(ctx, creds.email, password)
			if err != nil {
				return err
			}
			return c.renderAuth(result)
		}),
	}
	creds.bind(cmd)
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var (
		creds credentialFlags
		req   model.RegisterRequest
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a commuter account",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			password, err := c.readPassword(creds.password)
			if err != nil {
				return err
			}
			req.Email, req.Password = creds.email, password

			result, err := c.app.Hooks.Auth.Register(ctx, req)
			if err != nil {
				return err
			}
			return c.renderAuth(result)
		}),
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.SchoolName, "school", "", "School name")
	return cmd
}

func (c *cli) registerOperatorCmd() *cobra.Command {
	var (
		creds credentialFlags
		req   model.OperatorRegisterRequest
	)

	cmd := &cobra.Command{
		Use:   "register-operator",
		Short: "Create an operator account",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			password, err := c.readPassword(creds.password)
			if err != nil {
				return err
			}
			req.Email, req.Password = creds.email, password

			result, err := c.app.Hooks.Auth.RegisterOperator(ctx, req)
			if err != nil {
				return err
			}
			return c.renderAuth(result)
		}),
	}
	creds.bind(cmd)
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&req.Company, "company", "", "Company name")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			if err := c.app.Hooks.Auth.Logout(ctx); err != nil {
				// The local session is gone either way.
				c.app.Logger.Warn("logout request failed", "error", err)
			}
			fmt.Fprintln(c.env.Out, "Signed out.")
			return nil
		}),
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, _ []string) error {
			user, ok := c.app.Hooks.Auth.CurrentUser(ctx)
			if !ok {
				return errNotSignedIn
			}
			return c.render(user, func() table {
				t := userTable(user)
				if left, ok := c.app.Hooks.Auth.SessionRemaining(ctx); ok {
					t.footer = "Session expires in " + left.Round(time.Minute).String() + "."
				}
				return t
			})
		}),
	}
}

// renderAuth never prints the token.
func (c *cli) renderAuth(result auth.Result) error {
	return c.render(result.User, func() table {
		t := userTable(result.User)
		t.footer = "Signed in as " + result.User.Email + "."
		return t
	})
}

func userTable(u model.User) table {
	return fields(
		"ID", u.ID,
		"NAME", orDash(u.FullName()),
		"EMAIL", u.Email,
		"ROLE", orDash(string(u.Role)),
		"PHONE", orDash(u.PhoneNumber),
		"SCHOOL", orDash(u.SchoolName),
		"PHOTO", orDash(u.ProfilePhotoURL),
	)
}
