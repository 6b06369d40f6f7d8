package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/xaenox/notes-bot/internal/models"
)

type adminUserView struct {
	ID        int64  `yaml:"id"`
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Role      string `yaml:"role,omitempty"`
	Enabled   bool   `yaml:"enabled"`
	Locked    bool   `yaml:"locked"`
	TwoFactor bool   `yaml:"two_factor"`
	Created   string `yaml:"created,omitempty"`
}

func adminUserViewOf(u models.AdminUser) adminUserView {
	v := adminUserView{
		ID:        u.UserID,
		Username:  u.Username,
		Email:     u.Email,
		Enabled:   u.Enabled,
		Locked:    !u.AccountNonLocked,
		TwoFactor: u.TwoFactorEnabled,
	}
	if u.Role != nil {
		v.Role = u.Role.RoleName
	}
	if !u.CreatedDate.IsZero() {
		v.Created = u.CreatedDate.Format("2006-01-02")
	}
	return v
}

func printAdminUsers(w io.Writer, users []models.AdminUser) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tROLE\tENABLED\tLOCKED")
	for _, u := range users {
		v := adminUserViewOf(u)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%t\n", v.ID, v.Username, v.Email, v.Role, v.Enabled, v.Locked)
	}
	tw.Flush()
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administer users (admin role required)",
	}

	var page, size int
	users := &cobra.Command{Use: "users", Short: "List users", Args: cobra.NoArgs}
	users.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		p, err := c.session.AdminUsers(cmd.Context(), page, size)
		if err != nil {
			return err
		}
		views := make([]adminUserView, len(p.Content))
		for i, u := range p.Content {
			views[i] = adminUserViewOf(u)
		}
		return c.render(cmd, views, func(w io.Writer) { printAdminUsers(w, p.Content) })
	})
	users.Flags().IntVar(&page, "page", 0, "page number, starting at 0")
	users.Flags().IntVar(&size, "size", 20, "page size")

	user := &cobra.Command{Use: "user <id>", Short: "Show a user", Args: cobra.ExactArgs(1)}
	user.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		u, err := c.session.AdminUser(cmd.Context(), id)
		if err != nil {
			return err
		}
		return c.render(cmd, adminUserViewOf(*u), func(w io.Writer) { printAdminUsers(w, []models.AdminUser{*u}) })
	})

	role := &cobra.Command{Use: "role <id> <role>", Short: "Change a user's role, e.g. ROLE_ADMIN", Args: cobra.ExactArgs(2)}
	role.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		msg, err := c.session.AdminUpdateRole(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	})

	var locked, expired, credentialsExpired, enabled bool
	status := &cobra.Command{
		Use:   "status <id>",
		Short: "Change account flags; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
	}
	status.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		f := cmd.Flags()
		var st models.UserStatus
		if f.Changed("locked") {
			st.Locked = &locked
		}
		if f.Changed("expired") {
			st.Expired = &expired
		}
		if f.Changed("credentials-expired") {
			st.CredentialsExpired = &credentialsExpired
		}
		if f.Changed("enabled") {
			st.Enabled = &enabled
		}
		msg, err := c.session.AdminUpdateStatus(cmd.Context(), id, st)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	})
	status.Flags().BoolVar(&locked, "locked", false, "lock or unlock the account")
	status.Flags().BoolVar(&expired, "expired", false, "expire the account")
	status.Flags().BoolVar(&credentialsExpired, "credentials-expired", false, "expire the credentials")
	status.Flags().BoolVar(&enabled, "enabled", false, "enable or disable the account")

	roles := &cobra.Command{Use: "roles", Short: "List roles", Args: cobra.NoArgs}
	roles.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		list, err := c.session.AdminRoles(cmd.Context())
		if err != nil {
			return err
		}
		type roleView struct {
			ID   int64  `yaml:"id"`
			Name string `yaml:"name"`
		}
		views := make([]roleView, len(list))
		for i, r := range list {
			views[i] = roleView{ID: r.RoleID, Name: r.RoleName}
		}
		return c.render(cmd, views, func(w io.Writer) {
			for _, r := range list {
				fmt.Fprintf(w, "%d\t%s\n", r.RoleID, r.RoleName)
			}
		})
	})

	var auditPage, auditSize int
	audit := &cobra.Command{Use: "audit", Short: "Show the note audit log", Args: cobra.NoArgs}
	audit.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		p, err := c.session.AdminAuditLogs(cmd.Context(), auditPage, auditSize)
		if err != nil {
			return err
		}
		type auditView struct {
			When   time.Time `yaml:"when"`
			User   string    `yaml:"user"`
			Action string    `yaml:"action"`
			NoteID int64     `yaml:"note_id"`
		}
		views := make([]auditView, len(p.Content))
		for i, l := range p.Content {
			views[i] = auditView{When: l.Timestamp.Time, User: l.Username, Action: l.Action, NoteID: l.NoteID}
		}
		return c.render(cmd, views, func(w io.Writer) {
			tw := newTable(w)
			fmt.Fprintln(tw, "WHEN\tUSER\tACTION\tNOTE")
			for _, l := range p.Content {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", formatDate(l.Timestamp.Time), l.Username, l.Action, l.NoteID)
			}
			tw.Flush()
		})
	})
	audit.Flags().IntVar(&auditPage, "page", 0, "page number, starting at 0")
	audit.Flags().IntVar(&auditSize, "size", 20, "page size")

	cmd.AddCommand(users, user, role, status, roles, audit)
	return cmd
}
