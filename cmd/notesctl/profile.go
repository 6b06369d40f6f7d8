package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xaenox/notes-bot/internal/models"
)

type profileView struct {
	ID             int64  `yaml:"id"`
	Username       string `yaml:"username"`
	Email          string `yaml:"email"`
	Phone          string `yaml:"phone,omitempty"`
	Role           string `yaml:"role,omitempty"`
	TwoFactor      bool   `yaml:"two_factor"`
	SignUpMethod   string `yaml:"sign_up_method,omitempty"`
	ProfilePicture string `yaml:"profile_picture,omitempty"`
	MemberSince    string `yaml:"member_since,omitempty"`
}

func profileViewOf(p models.Profile) profileView {
	v := profileView{
		ID:             p.UserID,
		Username:       p.Username,
		Email:          p.Email,
		Phone:          p.PhoneNumber,
		Role:           p.RoleName,
		TwoFactor:      p.TwoFactorEnabled,
		SignUpMethod:   p.SignUpMethod,
		ProfilePicture: p.ProfilePicture,
	}
	if !p.CreatedDate.IsZero() {
		v.MemberSince = p.CreatedDate.Format("2006-01-02")
	}
	return v
}

func printProfile(w io.Writer, p models.Profile) {
	v := profileViewOf(p)
	tw := newTable(w)
	fmt.Fprintf(tw, "username\t%s\n", v.Username)
	fmt.Fprintf(tw, "email\t%s\n", v.Email)
	if v.Phone != "" {
		fmt.Fprintf(tw, "phone\t%s\n", v.Phone)
	}
	if v.Role != "" {
		fmt.Fprintf(tw, "role\t%s\n", v.Role)
	}
	fmt.Fprintf(tw, "two-factor\t%t\n", v.TwoFactor)
	if v.MemberSince != "" {
		fmt.Fprintf(tw, "member since\t%s\n", v.MemberSince)
	}
	tw.Flush()
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show and edit your profile",
	}

	show := &cobra.Command{Use: "show", Short: "Show your profile", Args: cobra.NoArgs}
	show.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		p, err := c.session.FetchProfile(cmd.Context())
		if err != nil {
			return err
		}
		return c.render(cmd, profileViewOf(*p), func(w io.Writer) { printProfile(w, *p) })
	})

	var upd models.ProfileUpdate
	update := &cobra.Command{Use: "update", Short: "Change username, email or phone number", Args: cobra.NoArgs}
	update.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		p, err := c.session.UpdateProfile(cmd.Context(), upd)
		if err != nil {
			return err
		}
		return c.render(cmd, profileViewOf(*p), func(w io.Writer) { printProfile(w, *p) })
	})
	update.Flags().StringVar(&upd.Username, "username", "", "new username")
	update.Flags().StringVar(&upd.Email, "email", "", "new email")
	update.Flags().StringVar(&upd.PhoneNumber, "phone", "", "new phone number")

	var change models.PasswordChange
	password := &cobra.Command{Use: "password", Short: "Change your password", Args: cobra.NoArgs}
	password.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		var err error
		if change.CurrentPassword == "" {
			if change.CurrentPassword, err = c.prompt(cmd, "Current password: "); err != nil {
				return err
			}
		}
		if change.NewPassword == "" {
			if change.NewPassword, err = c.prompt(cmd, "New password: "); err != nil {
				return err
			}
		}
		return c.session.ChangePassword(cmd.Context(), change)
	})
	password.Flags().StringVar(&change.CurrentPassword, "current", "", "current password (read from stdin when empty)")
	password.Flags().StringVar(&change.NewPassword, "new", "", "new password (read from stdin when empty)")

	cmd.AddCommand(show, update, password, c.pictureCmd())
	return cmd
}

func (c *cli) pictureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picture",
		Short: "Upload or remove your profile picture",
	}

	upload := &cobra.Command{Use: "upload <file>", Short: "Upload a JPG, PNG, GIF, WebP or HEIC image up to 10 MB", Args: cobra.ExactArgs(1)}
	upload.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open picture: %w", err)
		}
		defer f.Close()

		name := filepath.Base(args[0])
		url, err := c.session.UploadPicture(cmd.Context(), name, mime.TypeByExtension(filepath.Ext(name)), f)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	})

	remove := &cobra.Command{Use: "delete", Short: "Remove your profile picture", Args: cobra.NoArgs}
	remove.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		return c.session.DeletePicture(cmd.Context())
	})

	cmd.AddCommand(upload, remove)
	return cmd
}
