package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

const exportPageSize = 100

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid note id %q", arg)
	}
	return id, nil
}

// readContent resolves "-" to the whole of stdin.
func (c *cli) readContent(content string) (string, error) {
	if content != "-" {
		return content, nil
	}
	data, err := io.ReadAll(c.stdin)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func (c *cli) notesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List, read and edit notes",
	}
	cmd.AddCommand(
		c.notesListCmd(),
		c.notesShowCmd(),
		c.notesCreateCmd(),
		c.notesEditCmd(),
		c.notesDeleteCmd(),
		c.notesSearchCmd(),
		c.notesPublicCmd(),
		c.notesExportCmd(),
	)
	return cmd
}

func (c *cli) notesListCmd() *cobra.Command {
	var (
		filters    store.Filters
		page, size int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		st := c.session.Store()
		st.Dispatch(store.FiltersSet{Filters: filters})
		st.Dispatch(store.PageSet{Page: page, Size: size})

		notes, err := c.session.FetchNotes(cmd.Context())
		if err != nil {
			return err
		}
		p := c.session.State().Notes.Pagination
		return c.render(cmd, noteViews(notes, false), func(w io.Writer) {
			printNotes(w, notes)
			if p.TotalPages > 1 {
				fmt.Fprintf(w, "\npage %d of %d, %d notes\n", p.Page+1, p.TotalPages, p.TotalElements)
			}
		})
	})
	f := cmd.Flags()
	f.StringVar(&filters.Category, "category", "", "only notes of this category")
	f.BoolVar(&filters.FavoritesOnly, "favorites", false, "only favorite notes")
	f.BoolVar(&filters.PublicOnly, "public", false, "only public notes")
	f.StringVar(&filters.SortBy, "sort", store.SortByUpdatedAt, "sort by updatedAt, createdAt or title")
	f.StringVar(&filters.SortOrder, "order", store.SortDesc, "asc or desc")
	f.IntVar(&page, "page", 0, "page number, starting at 0")
	f.IntVar(&size, "size", store.DefaultPageSize, "page size")
	return cmd
}

func (c *cli) notesShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a note",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		note, err := c.session.FetchNote(cmd.Context(), id)
		if err != nil {
			return err
		}
		return c.render(cmd, noteViewOf(*note, true), func(w io.Writer) { printNote(w, *note) })
	})
	return cmd
}

func noteFlags(cmd *cobra.Command, req *models.NoteRequest) {
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "title")
	f.StringVar(&req.Content, "content", "", `content, "-" reads stdin`)
	f.StringVar(&req.Description, "description", "", "short description")
	f.StringVar(&req.Category, "category", "", "category, suggested from the content when empty")
	f.StringSliceVar(&req.Tags, "tags", nil, "comma separated tags")
	f.BoolVar(&req.IsFavorite, "favorite", false, "mark as favorite")
	f.BoolVar(&req.IsPublic, "public", false, "make the note public")
}

func (c *cli) notesCreateCmd() *cobra.Command {
	var req models.NoteRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a note",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		var err error
		if req.Content, err = c.readContent(req.Content); err != nil {
			return err
		}
		note, err := c.session.CreateNote(cmd.Context(), req)
		if err != nil {
			return err
		}
		return c.render(cmd, noteViewOf(*note, false), func(w io.Writer) {
			fmt.Fprintf(w, "%d\t%s\t%s\n", note.ID, note.Title, note.CategoryOrDefault())
		})
	})
	noteFlags(cmd, &req)
	return cmd
}

func (c *cli) notesEditCmd() *cobra.Command {
	var req models.NoteRequest
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a note; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		existing, err := c.session.FetchNote(cmd.Context(), id)
		if err != nil {
			return err
		}

		f := cmd.Flags()
		merged := models.NoteRequest{
			Title:       existing.Title,
			Content:     existing.Content,
			Description: existing.Description,
			Category:    existing.Category,
			Tags:        existing.Tags,
			IsFavorite:  existing.Favorite,
			IsPublic:    existing.Public,
		}
		if f.Changed("title") {
			merged.Title = req.Title
		}
		if f.Changed("content") {
			if merged.Content, err = c.readContent(req.Content); err != nil {
				return err
			}
		}
		if f.Changed("description") {
			merged.Description = req.Description
		}
		if f.Changed("category") {
			merged.Category = req.Category
		}
		if f.Changed("tags") {
			merged.Tags = req.Tags
		}
		if f.Changed("favorite") {
			merged.IsFavorite = req.IsFavorite
		}
		if f.Changed("public") {
			merged.IsPublic = req.IsPublic
		}

		note, err := c.session.UpdateNote(cmd.Context(), id, merged)
		if err != nil {
			return err
		}
		return c.render(cmd, noteViewOf(*note, true), func(w io.Writer) { printNote(w, *note) })
	})
	noteFlags(cmd, &req)
	return cmd
}

func (c *cli) notesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete notes",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			if err := c.session.DeleteNote(cmd.Context(), id); err != nil {
				return err
			}
		}
		return nil
	})
	return cmd
}

func (c *cli) notesSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search notes by title and content",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		notes, err := c.session.SearchNotes(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		return c.render(cmd, noteViews(notes, false), func(w io.Writer) { printNotes(w, notes) })
	})
	return cmd
}

func (c *cli) notesPublicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "public",
		Short: "List public notes",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		notes, err := c.session.FetchPublicNotes(cmd.Context())
		if err != nil {
			return err
		}
		return c.render(cmd, noteViews(notes, false), func(w io.Writer) { printNotes(w, notes) })
	})
	return cmd
}

type notesExport struct {
	ExportedAt time.Time  `yaml:"exported_at"`
	User       string     `yaml:"user"`
	Count      int        `yaml:"count"`
	Notes      []noteView `yaml:"notes"`
}

func (c *cli) notesExportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every note with its content as YAML",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.run(func(cmd *cobra.Command, args []string) error {
		st := c.session.Store()
		st.Dispatch(store.FiltersCleared{})

		var all []models.Note
		for page := 0; ; page++ {
			st.Dispatch(store.PageSet{Page: page, Size: exportPageSize})
			notes, err := c.session.FetchNotes(cmd.Context())
			if err != nil {
				return err
			}
			all = append(all, notes...)
			if p := c.session.State().Notes.Pagination; len(notes) == 0 || page+1 >= p.TotalPages {
				break
			}
		}
		store.SortNotes(all, store.SortByCreatedAt, store.SortAsc)

		out := cmd.OutOrStdout()
		if file != "" {
			f, err := os.Create(file)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			out = f
		}

		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		err := enc.Encode(notesExport{
			ExportedAt: time.Now().UTC(),
			User:       c.session.State().Auth.Username,
			Count:      len(all),
			Notes:      noteViews(all, true),
		})
		if err != nil {
			return fmt.Errorf("encode export: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
		if file != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d notes to %s\n", len(all), file)
		}
		return nil
	})
	cmd.Flags().StringVarP(&file, "file", "f", "", "write to this file instead of stdout")
	return cmd
}
