package bot

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/session"
	"github.com/xaenox/notes-bot/internal/store"
)

const (
	listLimit       = 20
	activityLimit   = 10
	toggleReplyWait = 30 * time.Second
)

const welcome = `Welcome to NotesBot! 📝
I keep your notes in sync with your Notes account.

Log in with /login <username> <password>, then just send me any text to save it as a note.
Use /help to see all available commands.`

const help = `Available commands:
/start - Start the bot
/help - Show this help message
/login <username> <password> - Log in
/code <123456> - Finish a two-factor login
/oauth <redirect url> - Finish a Google or GitHub login
/logout - Log out
/notes [category|all] - List your notes
/note <id> - Show a note
/new <title> then the content on the next lines - Create a note
/edit <id> <title> then the new content - Edit a note
/delete <id> - Delete a note
/fav <id> - Add or remove a favorite
/favorites [refresh] - Show your favorites
/categories [filter] - Show your categories
/search <query> - Search your notes
/stats - Show your dashboard
/activity [days] - Show recent activity
/profile - Show your profile
/public - Show public notes

Any other text is saved as a new note and categorized automatically.`

func (b *Bot) handleCommand(ctx context.Context, c *chat, message *tgbotapi.Message) string {
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.sendMessage(c.id, welcome)
	case "help":
		b.sendMessage(c.id, help)
	case "login":
		return b.handleLogin(ctx, c, message, args)
	case "code":
		return b.handleCode(ctx, c, args)
	case "oauth":
		return b.handleOAuth(ctx, c, args)
	case "logout":
		c.session.Logout(ctx)
	case "notes":
		return b.handleNotes(ctx, c, args)
	case "note":
		return b.handleNote(ctx, c, args)
	case "new":
		return b.handleNew(ctx, c, args)
	case "edit":
		return b.handleEdit(ctx, c, args)
	case "delete":
		return b.handleDelete(ctx, c, args)
	case "fav":
		return b.handleFavorite(ctx, c, args)
	case "favorites":
		return b.handleFavorites(ctx, c, args)
	case "categories":
		return b.handleCategories(ctx, c, args)
	case "search":
		return b.handleSearch(ctx, c, args)
	case "stats":
		return b.handleStats(ctx, c)
	case "activity":
		return b.handleActivity(ctx, c, args)
	case "profile":
		return b.handleProfile(ctx, c)
	case "public":
		return b.handlePublic(ctx, c)
	default:
		b.sendMessage(c.id, "Unknown command. Use /help to see available commands.")
	}
	return ""
}

// handleText saves free text (or a media caption) as a new note.
func (b *Bot) handleText(ctx context.Context, c *chat, message *tgbotapi.Message) string {
	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	if !c.session.State().Auth.Authenticated {
		b.sendMessage(c.id, "Please /login first to save notes.")
		return ""
	}

	title, body := splitNote(content)
	note, err := c.session.CreateNote(ctx, models.NoteRequest{Title: title, Content: body})
	if err != nil {
		return ""
	}
	return formatCreated(*note)
}

func (b *Bot) handleLogin(ctx context.Context, c *chat, message *tgbotapi.Message, args string) string {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.sendMessage(c.id, "Usage: /login <username> <password>")
		return ""
	}
	b.deleteMessage(c.id, message.MessageID)

	err := c.session.Login(ctx, fields[0], fields[1])
	if err != nil {
		return ""
	}
	return "Logged in as *" + escapeMarkdown(c.session.State().Auth.Username) + "*"
}

func (b *Bot) handleCode(ctx context.Context, c *chat, args string) string {
	if args == "" {
		b.sendMessage(c.id, "Usage: /code <123456>")
		return ""
	}
	if err := c.session.CompleteTwoFactor(ctx, args); err != nil {
		return ""
	}
	return "Logged in as *" + escapeMarkdown(c.session.State().Auth.Username) + "*"
}

func (b *Bot) handleOAuth(ctx context.Context, c *chat, args string) string {
	if args == "" {
		b.sendMessage(c.id, "Sign in with Google or GitHub in your browser, then send /oauth followed by the URL you were redirected to.")
		return ""
	}
	c.session.CompleteOAuth(ctx, args)
	return ""
}

func (b *Bot) handleNotes(ctx context.Context, c *chat, args string) string {
	st := c.session.Store()
	switch {
	case strings.EqualFold(args, "all"):
		st.Dispatch(store.FiltersCleared{})
	case args != "":
		f := st.State().Notes.Filters
		f.Category = args
		st.Dispatch(store.FiltersSet{Filters: f})
	}

	notes, err := c.session.FetchNotes(ctx)
	if err != nil {
		return ""
	}
	return formatNoteList("Your notes", notes, listLimit)
}

func (b *Bot) handleNote(ctx context.Context, c *chat, args string) string {
	id, ok := b.noteID(c, args, "/note <id>")
	if !ok {
		return ""
	}
	note, err := c.session.FetchNote(ctx, id)
	if err != nil {
		return ""
	}
	return formatNote(*note)
}

func (b *Bot) handleNew(ctx context.Context, c *chat, args string) string {
	if args == "" {
		b.sendMessage(c.id, "Usage: /new <title>, with the content on the following lines")
		return ""
	}
	title, body := splitNote(args)
	note, err := c.session.CreateNote(ctx, models.NoteRequest{Title: title, Content: body})
	if err != nil {
		return ""
	}
	return formatCreated(*note)
}

func (b *Bot) handleEdit(ctx context.Context, c *chat, args string) string {
	idStr, rest, _ := strings.Cut(args, " ")
	id, ok := b.noteID(c, idStr, "/edit <id> <title>, with the new content on the following lines")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		b.sendMessage(c.id, "Usage: /edit <id> <title>, with the new content on the following lines")
		return ""
	}

	existing, err := c.session.FetchNote(ctx, id)
	if err != nil {
		return ""
	}
	req := models.NoteRequest{
		Description: existing.Description,
		Category:    existing.Category,
		Tags:        existing.Tags,
		IsFavorite:  existing.Favorite,
		IsPublic:    existing.Public,
	}
	req.Title, req.Content = splitNote(rest)

	note, err := c.session.UpdateNote(ctx, id, req)
	if err != nil {
		return ""
	}
	return formatNote(*note)
}

func (b *Bot) handleDelete(ctx context.Context, c *chat, args string) string {
	id, ok := b.noteID(c, args, "/delete <id>")
	if !ok {
		return ""
	}
	c.session.DeleteNote(ctx, id)
	return ""
}

// handleFavorite replies with the optimistic state right away; the outcome
// notification is sent once the backend answered.
func (b *Bot) handleFavorite(ctx context.Context, c *chat, args string) string {
	id, ok := b.noteID(c, args, "/fav <id>")
	if !ok {
		return ""
	}
	reply := "⭐ Adding to favorites…"
	if store.IsFavorite(c.session.State(), id) {
		reply = "☆ Removing from favorites…"
	}
	done, err := c.session.ToggleFavorite(ctx, id)
	if err != nil {
		return ""
	}

	go func() {
		select {
		case <-done:
		case <-time.After(toggleReplyWait):
			b.logger.Warn("Favorite toggle still pending",
				zap.Int64("chat_id", c.id),
				zap.Int64("note_id", id))
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		b.flush(c)
	}()
	return escapeMarkdown(reply)
}

func (b *Bot) handleFavorites(ctx context.Context, c *chat, args string) string {
	var (
		notes []models.Note
		err   error
	)
	if strings.EqualFold(args, "refresh") {
		notes, err = c.session.RefreshFavorites(ctx)
	} else {
		notes, err = c.session.FetchFavorites(ctx)
	}
	if err != nil {
		return ""
	}
	return formatNoteList("Your favorites", notes, listLimit)
}

func (b *Bot) handleCategories(ctx context.Context, c *chat, args string) string {
	if _, err := c.session.FetchNotes(ctx); err != nil {
		return ""
	}
	return formatCategories(store.Categories(c.session.State(), args))
}

func (b *Bot) handleSearch(ctx context.Context, c *chat, args string) string {
	if args == "" {
		c.session.Store().Dispatch(store.SearchCleared{})
		b.sendMessage(c.id, "Usage: /search <query>")
		return ""
	}
	notes, err := c.session.SearchNotes(ctx, args)
	if err != nil {
		return ""
	}
	return formatNoteList("Results for \""+args+"\"", notes, listLimit)
}

func (b *Bot) handleStats(ctx context.Context, c *chat) string {
	if _, err := c.session.FetchNotes(ctx); err != nil {
		return ""
	}
	// the dashboard still renders from local notes when these fail
	c.session.FetchStats(ctx)
	c.session.FetchFavorites(ctx)
	c.session.FetchRecentActivities(ctx, 0)
	return formatDashboard(store.SelectDashboard(c.session.State(), time.Now()))
}

func (b *Bot) handleActivity(ctx context.Context, c *chat, args string) string {
	days := 0
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			b.sendMessage(c.id, "Usage: /activity [days]")
			return ""
		}
		days = n
	}
	if _, err := c.session.FetchRecentActivities(ctx, days); err != nil {
		return ""
	}
	return formatActivities(store.RecentActivities(c.session.State(), activityLimit))
}

func (b *Bot) handleProfile(ctx context.Context, c *chat) string {
	profile, err := c.session.FetchProfile(ctx)
	if err != nil {
		return ""
	}
	return formatProfile(*profile)
}

func (b *Bot) handlePublic(ctx context.Context, c *chat) string {
	notes, err := c.session.FetchPublicNotes(ctx)
	if err != nil {
		return ""
	}
	return formatNoteList("Public notes", notes, listLimit)
}

func (b *Bot) noteID(c *chat, arg, usage string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		b.sendMessage(c.id, "Usage: "+usage)
		return 0, false
	}
	return id, true
}

// splitNote reads the first line as the title and the rest as content. A
// single line is both, with the title shortened to fit.
func splitNote(text string) (title, content string) {
	text = strings.TrimSpace(text)
	first, rest, found := strings.Cut(text, "\n")
	first = strings.TrimSpace(first)
	rest = strings.TrimSpace(rest)
	if !found || rest == "" {
		return truncate(first, session.TitleMaxLength), text
	}
	return truncate(first, session.TitleMaxLength), rest
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
