package store

import (
	"time"

	"github.com/xaenox/notes-bot/internal/models"
)

// Sort keys and orders accepted by Filters.
const (
	SortByUpdatedAt = "updatedAt"
	SortByCreatedAt = "createdAt"
	SortByTitle     = "title"

	SortAsc  = "asc"
	SortDesc = "desc"
)

const (
	DefaultPageSize = 10

	// MaxLocalActivities bounds the locally recorded activity list.
	MaxLocalActivities = 10
)

// State is the whole client state for one signed-in user.
type State struct {
	Auth       AuthState
	Notes      NotesState
	Favorites  FavoritesState
	Profile    ProfileState
	Activities ActivitiesState
	UI         UIState
}

type AuthState struct {
	Token             string
	Username          string
	Roles             []string
	User              *models.UserInfo
	Authenticated     bool
	Initialized       bool
	TwoFactorRequired bool
	PendingUsername   string
	Loading           bool
	Error             string
}

type Filters struct {
	Category      string
	FavoritesOnly bool
	PublicOnly    bool
	SortBy        string
	SortOrder     string
}

type Pagination struct {
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
}

type NotesState struct {
	Items         []models.Note
	Current       *models.Note
	SearchQuery   string
	SearchResults []models.Note
	PublicNotes   []models.Note
	Stats         *models.NoteStats
	Filters       Filters
	Pagination    Pagination
	Selected      []int64
	Loading       bool
	Error         string
}

// FavoritesState holds the ordered favorite-id set, the materialized
// favorite notes and the toggles still waiting for the backend.
type FavoritesState struct {
	IDs           []int64
	Notes         []models.Note
	Pending       map[int64]Pending
	LastFetched   time.Time
	TotalElements int
	TotalPages    int
	CurrentPage   int
	Loading       bool
	Error         string
}

type ProfileState struct {
	Profile        *models.Profile
	TwoFactorSetup *models.TwoFactorSetup
	Loading        bool
	Error          string
}

type ActivitiesState struct {
	Recent  []models.Activity
	Page    models.Page[models.Activity]
	Local   []models.Activity
	Loading bool
	Error   string
}

type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message for the view layer.
type Notification struct {
	Kind    NotificationKind
	Message string
	At      time.Time
}

type UIState struct {
	Notifications []Notification
	Theme         string
	ViewMode      string
}

// Initial returns the state of a fresh, signed-out session.
func Initial() State {
	return State{
		Notes: NotesState{
			Filters:    defaultFilters(),
			Pagination: Pagination{Size: DefaultPageSize},
		},
		UI: UIState{Theme: "light", ViewMode: "grid"},
	}
}

func defaultFilters() Filters {
	return Filters{SortBy: SortByUpdatedAt, SortOrder: SortDesc}
}
