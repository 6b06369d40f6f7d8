package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xaenox/notes-bot/internal/app"
	"github.com/xaenox/notes-bot/internal/session"
	"github.com/xaenox/notes-bot/internal/storage"
	"github.com/xaenox/notes-bot/internal/store"
	"github.com/xaenox/notes-bot/pkg/config"
)

// errReported marks a failure whose message was already printed as a
// notification.
var errReported = errors.New("notesctl: reported")

type cli struct {
	configPath string
	profile    string
	output     string
	verbose    bool

	cfg     *config.Config
	logger  *zap.Logger
	storage storage.Storage
	session *session.Session
	stdin   *bufio.Reader

	// open builds the session; tests replace it.
	open func(ctx context.Context) (*session.Session, error)
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	c.open = c.openSession
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "notesctl",
		Short: "Command line client for the Notes backend",
		Long: `notesctl signs in to a Notes backend and manages your notes, favorites,
profile and, for administrators, users. Credentials are kept per --profile in
the configured storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			c.session = s
			c.stdin = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to the configuration file")
	flags.StringVarP(&c.profile, "profile", "p", "default", "credential profile")
	flags.StringVarP(&c.output, "output", "o", "text", "output format: text or yaml")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.registerCmd(),
		c.whoamiCmd(),
		c.oauthCmd(),
		c.passwordResetCmd(),
		c.twoFactorCmd(),
		c.notesCmd(),
		c.favCmd(),
		c.categoriesCmd(),
		c.dashboardCmd(),
		c.activityCmd(),
		c.profileCmd(),
		c.adminCmd(),
	)
	return root
}

func (c *cli) openSession(ctx context.Context) (*session.Session, error) {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.logger, err = app.NewLogger(config.LogConfig{Level: level, Development: true})
	if err != nil {
		return nil, err
	}

	c.storage, err = app.OpenStorage(cfg, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	sessions := app.NewSessions(cfg, c.storage, app.NewClassifier(cfg, c.logger), c.logger)
	return sessions.Open(ctx, "cli:"+c.profile), nil
}

func (c *cli) close() error {
	if c.logger != nil {
		c.logger.Sync()
	}
	if c.storage != nil {
		return c.storage.Close()
	}
	return nil
}

// run wraps an operation: queued notifications go to stderr and an error
// already shown that way is not printed again.
func (c *cli) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		shown := false
		for _, n := range c.session.DrainNotifications() {
			fmt.Fprintln(cmd.ErrOrStderr(), notificationText(n))
			shown = shown || n.Kind == store.NotifyError
		}
		if err != nil && shown {
			return fmt.Errorf("%w: %w", errReported, err)
		}
		return err
	}
}

func notificationText(n store.Notification) string {
	switch n.Kind {
	case store.NotifyError:
		return "error: " + n.Message
	case store.NotifySuccess:
		return "ok: " + n.Message
	}
	return n.Message
}

// prompt reads one line from stdin after printing label to stderr.
func (c *cli) prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := c.stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// render prints v as YAML with -o yaml, and calls text otherwise.
func (c *cli) render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	switch c.output {
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "text", "":
		text(cmd.OutOrStdout())
		return nil
	}
	return fmt.Errorf("unknown output format %q", c.output)
}
