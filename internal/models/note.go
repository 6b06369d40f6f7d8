package models

// Known note categories.
var NoteCategories = []string{
	"Personal",
	"Work",
	"Study",
	"Project",
	"Meeting",
	"Idea",
	"Todo",
	"Reference",
	"Draft",
	"Archive",
}

// UncategorizedLabel is used when grouping notes that carry no category.
const UncategorizedLabel = "Uncategorized"

// Note is a note record as returned by the backend.
type Note struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	OwnerUsername string    `json:"ownerUsername,omitempty"`
	AuthorName    string    `json:"authorName,omitempty"`
	Favorite      bool      `json:"favorite"`
	Public        bool      `json:"public"`
	Shared        bool      `json:"shared"`
	ShareCount    int       `json:"shareCount"`
	CreatedAt     Timestamp `json:"createdAt"`
	UpdatedAt     Timestamp `json:"updatedAt"`
}

// Owner returns the owner username, falling back to the author alias.
func (n Note) Owner() string {
	if n.OwnerUsername != "" {
		return n.OwnerUsername
	}
	return n.AuthorName
}

// CategoryOrDefault returns the category, or UncategorizedLabel when empty.
func (n Note) CategoryOrDefault() string {
	if n.Category == "" {
		return UncategorizedLabel
	}
	return n.Category
}

// NoteRequest is the body for creating or updating a note.
type NoteRequest struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsFavorite  bool     `json:"isFavorite"`
	IsPublic    bool     `json:"isPublic"`
}

// NoteStats is the payload of /api/notes/stats. Unknown fields are ignored.
type NoteStats struct {
	Total         int            `json:"total"`
	TotalNotes    int            `json:"totalNotes"`
	ByCategory    map[string]int `json:"byCategory"`
	Recent        int            `json:"recent"`
	NotesThisWeek int            `json:"notesThisWeek"`
	FavoriteNotes int            `json:"favoriteNotes"`
	TotalViews    int            `json:"totalViews"`
	NotesChange   float64        `json:"notesChange"`
	WeeklyChange  float64        `json:"weeklyChange"`
	ViewsChange   float64        `json:"viewsChange"`
}

// NoteQuery carries list/search parameters.
type NoteQuery struct {
	Page      int
	Size      int
	Category  string
	Shared    bool
	SortBy    string
	SortOrder string
}
