// Package cli is the zurura command line front end over the hooks layer.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zurura-client/internal/app"
	"zurura-client/internal/config"
	"zurura-client/internal/logger"
	"zurura-client/internal/query"
	"zurura-client/pkg/apierror"
)

const Version = "0.1.0"

var (
	errNotSignedIn    = errors.New("not signed in; run `zurura login` first")
	errSessionExpired = errors.New("your session has expired; please log in again")
)

// Env is what the commands run against. Zero fields fall back to the
// process defaults.
type Env struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	LoadConfig func() (*config.Config, error)
	AppOptions []app.Option
}

type cli struct {
	env    Env
	output string
	apiURL string
	debug  bool
	app    *app.App
}

func NewRootCommand(env Env) *cobra.Command {
	if env.In == nil {
		env.In = os.Stdin
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	if env.LoadConfig == nil {
		env.LoadConfig = config.Load
	}

	c := &cli{env: env}

	cmd := &cobra.Command{
		Use:           "zurura",
		Short:         "Book seats on Zurura transit routes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}
	cmd.SetIn(env.In)
	cmd.SetOut(env.Out)
	cmd.SetErr(env.Err)

	cmd.PersistentFlags().StringVarP(&c.output, "output", "o", formatTable, "Output format (table, json, yaml)")
	cmd.PersistentFlags().StringVar(&c.apiURL, "api-url", "", "Backend base URL (overrides ZURURA_API_URL)")
	cmd.PersistentFlags().BoolVar(&c.debug, "debug", false, "Log requests to stderr")

	cmd.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.registerOperatorCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.routesCmd(),
		c.schedulesCmd(),
		c.bookingsCmd(),
	)

	return cmd
}

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context, env Env, args []string) int {
	cmd := NewRootCommand(env)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func (c *cli) open(ctx context.Context) error {
	if !validFormat(c.output) {
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", c.output)
	}

	cfg, err := c.env.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.apiURL != "" {
		cfg.APIURL = strings.TrimSpace(c.apiURL)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if c.debug {
		level = slog.LevelDebug
	}
	log := logger.New(c.env.Err, level, isTerminal(c.env.Err))

	a, err := app.New(ctx, cfg, log, c.env.AppOptions...)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// run wraps a command body so failures read the same everywhere.
func (c *cli) run(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd.Context(), args)
		if err == nil {
			return nil
		}

		// PersistentPostRunE is skipped on failure.
		defer func() { _ = c.close() }()

		switch {
		case c.app != nil && c.app.SessionExpired():
			return errSessionExpired
		case errors.Is(err, query.ErrDisabled):
			return errNotSignedIn
		}

		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && apiErr.Status != 0 {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error(), apiErr.Status)
		}
		return err
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
