package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

const dateLayout = "2006-01-02 15:04"

type noteView struct {
	ID          int64     `yaml:"id"`
	Title       string    `yaml:"title"`
	Category    string    `yaml:"category,omitempty"`
	Tags        []string  `yaml:"tags,omitempty,flow"`
	Description string    `yaml:"description,omitempty"`
	Favorite    bool      `yaml:"favorite"`
	Public      bool      `yaml:"public"`
	Owner       string    `yaml:"owner,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
	Content     string    `yaml:"content,omitempty"`
}

func noteViewOf(n models.Note, withContent bool) noteView {
	v := noteView{
		ID:          n.ID,
		Title:       n.Title,
		Category:    n.Category,
		Tags:        n.Tags,
		Description: n.Description,
		Favorite:    n.Favorite,
		Public:      n.Public,
		Owner:       n.Owner(),
		CreatedAt:   n.CreatedAt.Time,
		UpdatedAt:   n.UpdatedAt.Time,
	}
	if withContent {
		v.Content = n.Content
	}
	return v
}

func noteViews(notes []models.Note, withContent bool) []noteView {
	out := make([]noteView, len(notes))
	for i, n := range notes {
		out[i] = noteViewOf(n, withContent)
	}
	return out
}

type userView struct {
	ID               int64    `yaml:"id"`
	Username         string   `yaml:"username"`
	Email            string   `yaml:"email,omitempty"`
	Roles            []string `yaml:"roles,omitempty,flow"`
	TwoFactorEnabled bool     `yaml:"two_factor"`
	Provider         string   `yaml:"provider,omitempty"`
}

func userViewOf(u models.UserInfo) userView {
	return userView{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		Roles:            u.Roles,
		TwoFactorEnabled: u.TwoFactorEnabled,
		Provider:         u.Provider,
	}
}

type twoFactorView struct {
	Secret         string `yaml:"secret"`
	QRCodeURL      string `yaml:"qr_code_url"`
	ManualEntryKey string `yaml:"manual_entry_key,omitempty"`
}

type activityView struct {
	Action    string    `yaml:"action"`
	NoteID    int64     `yaml:"note_id"`
	Title     string    `yaml:"title"`
	Detail    string    `yaml:"detail,omitempty"`
	Timestamp time.Time `yaml:"timestamp"`
	Local     bool      `yaml:"local,omitempty"`
}

func activityViews(list []models.Activity) []activityView {
	out := make([]activityView, len(list))
	for i, a := range list {
		out[i] = activityView{
			Action:    string(a.Action),
			NoteID:    a.ResourceID,
			Title:     a.ResourceTitle,
			Detail:    a.Description,
			Timestamp: a.Timestamp.Time,
			Local:     a.LocalID != "",
		}
	}
	return out
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func printNotes(w io.Writer, notes []models.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, "No notes.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFAV\tTITLE\tCATEGORY\tUPDATED")
	for _, n := range notes {
		fav := ""
		if n.Favorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", n.ID, fav, n.Title, n.CategoryOrDefault(), formatDate(n.UpdatedAt.Time))
	}
	tw.Flush()
}

func printNote(w io.Writer, n models.Note) {
	fmt.Fprintf(w, "#%d %s\n", n.ID, n.Title)
	fmt.Fprintf(w, "category: %s\n", n.CategoryOrDefault())
	if len(n.Tags) > 0 {
		fmt.Fprintf(w, "tags: %s\n", strings.Join(n.Tags, ", "))
	}
	fmt.Fprintf(w, "favorite: %t  public: %t\n", n.Favorite, n.Public)
	fmt.Fprintf(w, "updated: %s\n", formatDate(n.UpdatedAt.Time))
	if n.Description != "" {
		fmt.Fprintf(w, "\n%s\n", n.Description)
	}
	fmt.Fprintf(w, "\n%s\n", n.Content)
}

func printCategories(w io.Writer, cats []store.CategorySummary) {
	if len(cats) == 0 {
		fmt.Fprintln(w, "No categories.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tNOTES\tLAST UPDATED")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Name, c.Count, formatDate(c.LastUpdated))
	}
	tw.Flush()
}

func printActivities(w io.Writer, list []models.Activity) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No activity.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "WHEN\tACTION\tNOTE\tTITLE")
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", formatDate(a.Timestamp.Time), a.Action, a.ResourceID, a.ResourceTitle)
	}
	tw.Flush()
}
