package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/xaenox/notes-bot/internal/store"
)

func (c *cli) favCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite notes",
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>...",
		Short: "Add or remove notes from favorites",
		Args:  cobra.MinimumNArgs(1),
	}
	toggle.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids[i] = id
		}

		// the notes are loaded so toggles of unlisted ids still resolve
		if _, err := c.session.FetchNotes(cmd.Context()); err != nil {
			return err
		}
		var firstErr error
		for _, id := range ids {
			note, err := c.session.ToggleFavoriteWait(cmd.Context(), id)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\tfavorite=%t\n", note.ID, note.Favorite)
		}
		return firstErr
	})

	var refresh bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List favorite notes",
		Args:  cobra.NoArgs,
	}
	list.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		fetch := c.session.FetchFavorites
		if refresh {
			fetch = c.session.RefreshFavorites
		}
		if _, err := fetch(cmd.Context()); err != nil {
			return err
		}
		notes := store.FavoriteNotes(c.session.State())
		return c.render(cmd, noteViews(notes, false), func(w io.Writer) { printNotes(w, notes) })
	})
	list.Flags().BoolVar(&refresh, "refresh", false, "bypass caches")

	cmd.AddCommand(toggle, list)
	return cmd
}

func (c *cli) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories [filter]",
		Short: "Show note categories with counts",
		Args:  cobra.MaximumNArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		c.session.Store().Dispatch(store.PageSet{Page: 0, Size: exportPageSize})
		if _, err := c.session.FetchNotes(cmd.Context()); err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		cats := store.Categories(c.session.State(), query)

		type categoryView struct {
			Name        string    `yaml:"name"`
			Count       int       `yaml:"count"`
			LastUpdated time.Time `yaml:"last_updated,omitempty"`
		}
		views := make([]categoryView, len(cats))
		for i, cat := range cats {
			views[i] = categoryView{Name: cat.Name, Count: cat.Count, LastUpdated: cat.LastUpdated}
		}
		return c.render(cmd, views, func(w io.Writer) { printCategories(w, cats) })
	})
	return cmd
}

type dashboardView struct {
	TotalNotes      int            `yaml:"total_notes"`
	CreatedThisWeek int            `yaml:"created_this_week"`
	Favorites       int            `yaml:"favorites"`
	ByCategory      map[string]int `yaml:"by_category,omitempty"`
	RecentNotes     []noteView     `yaml:"recent_notes,omitempty"`
	RecentActivity  []activityView `yaml:"recent_activity,omitempty"`
}

func (c *cli) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show note totals, recent notes and recent activity",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c.session.Store().Dispatch(store.PageSet{Page: 0, Size: exportPageSize})
		if _, err := c.session.FetchNotes(ctx); err != nil {
			return err
		}
		// partial data still renders
		c.session.FetchStats(ctx)
		c.session.FetchFavorites(ctx)
		c.session.FetchRecentActivities(ctx, 0)

		d := store.SelectDashboard(c.session.State(), time.Now())
		view := dashboardView{
			TotalNotes:      d.TotalNotes,
			CreatedThisWeek: d.CreatedThisWeek,
			Favorites:       d.FavoriteCount,
			ByCategory:      d.ByCategory,
			RecentNotes:     noteViews(d.RecentNotes, false),
			RecentActivity:  activityViews(d.RecentActivities),
		}
		return c.render(cmd, view, func(w io.Writer) {
			fmt.Fprintf(w, "notes: %d  this week: %d  favorites: %d\n", d.TotalNotes, d.CreatedThisWeek, d.FavoriteCount)
			if len(d.ByCategory) > 0 {
				names := make([]string, 0, len(d.ByCategory))
				for name := range d.ByCategory {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(w)
				tw := newTable(w)
				for _, name := range names {
					fmt.Fprintf(tw, "%s\t%d\n", name, d.ByCategory[name])
				}
				tw.Flush()
			}
			fmt.Fprintln(w, "\nrecent notes:")
			printNotes(w, d.RecentNotes)
			fmt.Fprintln(w, "\nrecent activity:")
			printActivities(w, d.RecentActivities)
		})
	})
	return cmd
}

func (c *cli) activityCmd() *cobra.Command {
	var days, page, size int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent activity",
		Long: `Show recent activity. By default the activity of the last --days days is
merged with the changes made in this session; --page lists the full history.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("page") {
			p, err := c.session.FetchActivities(cmd.Context(), page, size)
			if err != nil {
				return err
			}
			return c.render(cmd, activityViews(p.Content), func(w io.Writer) {
				printActivities(w, p.Content)
				fmt.Fprintf(w, "\npage %d of %d\n", p.Number+1, max(p.TotalPages, 1))
			})
		}

		if _, err := c.session.FetchRecentActivities(cmd.Context(), days); err != nil {
			return err
		}
		list := store.RecentActivities(c.session.State(), size)
		return c.render(cmd, activityViews(list), func(w io.Writer) { printActivities(w, list) })
	})
	f := cmd.Flags()
	f.IntVar(&days, "days", 0, "days to look back, 0 uses the configured default")
	f.IntVar(&page, "page", 0, "list the full history page by page, starting at 0")
	f.IntVar(&size, "size", 20, "number of entries")
	return cmd
}
