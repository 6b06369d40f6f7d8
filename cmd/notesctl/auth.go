package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/session"
)

func (c *cli) loginCmd() *cobra.Command {
	var password, code string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in with a username or email",
		Long: `Log in with a username or email. The password and, for accounts with
two-factor authentication, the verification code are read from stdin when
not given as flags.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if password == "" {
			var err error
			if password, err = c.prompt(cmd, "Password: "); err != nil {
				return err
			}
		}

		err := c.session.Login(ctx, args[0], password)
		if !errors.Is(err, session.ErrTwoFactorRequired) {
			return err
		}
		if code == "" {
			if code, err = c.prompt(cmd, "Verification code: "); err != nil {
				return err
			}
		}
		return c.session.CompleteTwoFactor(ctx, code)
	})
	cmd.Flags().StringVar(&password, "password", "", "password (read from stdin when empty)")
	cmd.Flags().StringVar(&code, "code", "", "two-factor verification code")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored credentials",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		return c.session.Logout(cmd.Context())
	})
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var reg models.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		if reg.Password == "" {
			var err error
			if reg.Password, err = c.prompt(cmd, "Password: "); err != nil {
				return err
			}
		}
		_, err := c.session.Register(cmd.Context(), reg)
		return err
	})
	cmd.Flags().StringVar(&reg.Username, "username", "", "username, 3-20 letters, digits or underscores")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (read from stdin when empty)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		user, err := c.session.RefreshUser(cmd.Context())
		if err != nil {
			return err
		}
		return c.render(cmd, userViewOf(*user), func(w io.Writer) {
			fmt.Fprintf(w, "%s", user.Username)
			if user.Email != "" {
				fmt.Fprintf(w, " <%s>", user.Email)
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "roles: %v\n", user.Roles)
			fmt.Fprintf(w, "two-factor: %t\n", user.TwoFactorEnabled)
		})
	})
	return cmd
}

func (c *cli) oauthCmd() *cobra.Command {
	var username, code string
	cmd := &cobra.Command{
		Use:   "oauth <redirect-url>",
		Short: "Finish a Google or GitHub login from the redirect URL",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		if code != "" {
			return c.session.VerifyOAuthTwoFactor(cmd.Context(), username, code)
		}
		if len(args) == 0 {
			return errors.New("redirect URL is required")
		}
		return c.session.CompleteOAuth(cmd.Context(), args[0])
	})
	cmd.Flags().StringVar(&username, "username", "", "username for --code")
	cmd.Flags().StringVar(&code, "code", "", "verify an OAuth login that requires two-factor authentication")
	return cmd
}

func (c *cli) passwordResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password-reset",
		Short: "Request or complete a password reset",
	}

	forgot := &cobra.Command{
		Use:   "request <email>",
		Short: "Send a password reset email",
		Args:  cobra.ExactArgs(1),
	}
	forgot.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		_, err := c.session.ForgotPassword(cmd.Context(), args[0])
		return err
	})

	var password string
	reset := &cobra.Command{
		Use:   "complete <token>",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.ExactArgs(1),
	}
	reset.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		if password == "" {
			var err error
			if password, err = c.prompt(cmd, "New password: "); err != nil {
				return err
			}
		}
		_, err := c.session.ResetPassword(cmd.Context(), args[0], password)
		return err
	})
	reset.Flags().StringVar(&password, "password", "", "new password (read from stdin when empty)")

	cmd.AddCommand(forgot, reset)
	return cmd
}

func (c *cli) twoFactorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "2fa",
		Short: "Manage two-factor authentication",
	}

	status := &cobra.Command{Use: "status", Short: "Show whether two-factor authentication is enabled", Args: cobra.NoArgs}
	status.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		enabled, err := c.session.TwoFactorStatus(cmd.Context())
		if err != nil {
			return err
		}
		return c.render(cmd, map[string]bool{"enabled": enabled}, func(w io.Writer) {
			fmt.Fprintf(w, "two-factor: %t\n", enabled)
		})
	})

	enable := &cobra.Command{Use: "enable", Short: "Start enrollment and print the QR code URL", Args: cobra.NoArgs}
	enable.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		qr, err := c.session.Enable2FA(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), qr)
		return nil
	})

	setup := &cobra.Command{Use: "setup", Short: "Start enrollment and print the secret key", Args: cobra.NoArgs}
	setup.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		s, err := c.session.SetupTwoFactor(cmd.Context())
		if err != nil {
			return err
		}
		return c.render(cmd, twoFactorView{Secret: s.SecretKey, QRCodeURL: s.QRCodeURL, ManualEntryKey: s.ManualEntryKey},
			func(w io.Writer) {
				fmt.Fprintf(w, "secret: %s\n", s.SecretKey)
				if s.ManualEntryKey != "" {
					fmt.Fprintf(w, "manual entry key: %s\n", s.ManualEntryKey)
				}
				fmt.Fprintf(w, "qr code: %s\n", s.QRCodeURL)
			})
	})

	verify := &cobra.Command{Use: "verify <code>", Short: "Confirm enrollment with a code", Args: cobra.ExactArgs(1)}
	verify.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		return c.session.Verify2FA(cmd.Context(), args[0])
	})

	var disableCode string
	disable := &cobra.Command{Use: "disable", Short: "Disable two-factor authentication", Args: cobra.NoArgs}
	disable.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		if disableCode != "" {
			return c.session.DisableTwoFactor(cmd.Context(), disableCode)
		}
		return c.session.Disable2FA(cmd.Context())
	})
	disable.Flags().StringVar(&disableCode, "code", "", "verification code, required when enrolled from the profile page")

	cmd.AddCommand(status, enable, setup, verify, disable)
	return cmd
}
