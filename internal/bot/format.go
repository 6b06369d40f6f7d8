package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

const (
	maxContentRunes = 3000
	previewRunes    = 60
	dateLayout      = "02 Jan 2006 15:04"
)

func hashtag(s string) string {
	return escapeMarkdown("#" + strings.ReplaceAll(s, " ", "_"))
}

func noteLine(n models.Note) string {
	star := "  "
	if n.Favorite {
		star = "⭐"
	}
	return fmt.Sprintf("%s `%d` *%s* %s", star, n.ID, escapeMarkdown(truncate(n.Title, previewRunes)), hashtag(n.CategoryOrDefault()))
}

func formatNoteList(heading string, notes []models.Note, limit int) string {
	if len(notes) == 0 {
		return escapeMarkdown(heading + ": nothing here yet.")
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s* \\(%d\\)\n", escapeMarkdown(heading), len(notes)))
	for i, n := range notes {
		if i == limit {
			sb.WriteString(escapeMarkdown(fmt.Sprintf("… and %d more", len(notes)-limit)) + "\n")
			break
		}
		sb.WriteString(noteLine(n) + "\n")
	}
	return sb.String()
}

func formatNote(n models.Note) string {
	var sb strings.Builder
	title := escapeMarkdown(n.Title)
	if n.Favorite {
		title = "⭐ " + title
	}
	sb.WriteString(fmt.Sprintf("*%s*\n", title))
	sb.WriteString(fmt.Sprintf("*Category:* %s\n", hashtag(n.CategoryOrDefault())))
	if len(n.Tags) > 0 {
		tags := make([]string, len(n.Tags))
		for i, tag := range n.Tags {
			tags[i] = hashtag(tag)
		}
		sb.WriteString(fmt.Sprintf("*Tags:* %s\n", strings.Join(tags, " ")))
	}
	if n.Description != "" {
		sb.WriteString(fmt.Sprintf("_%s_\n", escapeMarkdown(n.Description)))
	}
	sb.WriteString("\n" + escapeMarkdown(truncate(n.Content, maxContentRunes)) + "\n\n")

	meta := fmt.Sprintf("#%d", n.ID)
	if !n.UpdatedAt.IsZero() {
		meta += " · updated " + n.UpdatedAt.Format(dateLayout)
	}
	if n.Public {
		meta += " · public"
	}
	sb.WriteString(escapeMarkdown(meta))
	return sb.String()
}

func formatCreated(n models.Note) string {
	text := fmt.Sprintf("Saved as `%d` *%s*\n*Category:* %s", n.ID, escapeMarkdown(n.Title), hashtag(n.CategoryOrDefault()))
	if len(n.Tags) > 0 {
		tags := make([]string, len(n.Tags))
		for i, tag := range n.Tags {
			tags[i] = hashtag(tag)
		}
		text += "\n*Tags:* " + strings.Join(tags, " ")
	}
	if n.Description != "" {
		text += "\n\n*Summary:* " + escapeMarkdown(n.Description)
	}
	return text
}

func formatCategories(cats []store.CategorySummary) string {
	if len(cats) == 0 {
		return escapeMarkdown("You don't have any categories yet.")
	}
	var sb strings.Builder
	sb.WriteString("*Your categories:*\n")
	for _, c := range cats {
		sb.WriteString(fmt.Sprintf("%s \\(%d\\)\n", hashtag(c.Name), c.Count))
	}
	return sb.String()
}

func formatDashboard(d store.Dashboard) string {
	var sb strings.Builder
	sb.WriteString("*Dashboard*\n")
	sb.WriteString(escapeMarkdown(fmt.Sprintf("Notes: %d · this week: %d · favorites: %d", d.TotalNotes, d.CreatedThisWeek, d.FavoriteCount)) + "\n")

	if len(d.ByCategory) > 0 {
		names := make([]string, 0, len(d.ByCategory))
		for name := range d.ByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = fmt.Sprintf("%s %d", hashtag(name), d.ByCategory[name])
		}
		sb.WriteString("\n*By category:* " + strings.Join(parts, ", ") + "\n")
	}
	if len(d.RecentNotes) > 0 {
		sb.WriteString("\n*Recent notes:*\n")
		for _, n := range d.RecentNotes {
			sb.WriteString(noteLine(n) + "\n")
		}
	}
	if len(d.RecentActivities) > 0 {
		sb.WriteString("\n*Recent activity:*\n")
		for _, a := range d.RecentActivities {
			sb.WriteString(activityLine(a) + "\n")
		}
	}
	return sb.String()
}

func activityLine(a models.Activity) string {
	line := fmt.Sprintf("%s %s", strings.ToLower(string(a.Action)), a.ResourceTitle)
	if !a.Timestamp.IsZero() {
		line = a.Timestamp.Format(dateLayout) + " " + line
	}
	return escapeMarkdown(line)
}

func formatActivities(list []models.Activity) string {
	if len(list) == 0 {
		return escapeMarkdown("No recent activity.")
	}
	var sb strings.Builder
	sb.WriteString("*Recent activity:*\n")
	for _, a := range list {
		sb.WriteString(activityLine(a) + "\n")
	}
	return sb.String()
}

func formatProfile(p models.Profile) string {
	lines := []string{
		"*" + escapeMarkdown(p.Username) + "*",
		escapeMarkdown("Email: " + p.Email),
	}
	if p.RoleName != "" {
		lines = append(lines, escapeMarkdown("Role: "+p.RoleName))
	}
	twoFA := "off"
	if p.TwoFactorEnabled {
		twoFA = "on"
	}
	lines = append(lines, escapeMarkdown("Two-factor: "+twoFA))
	if !p.CreatedDate.IsZero() {
		lines = append(lines, escapeMarkdown("Member since "+p.CreatedDate.Format("02 Jan 2006")))
	}
	return strings.Join(lines, "\n")
}
