package store

import (
	"time"

	"github.com/xaenox/notes-bot/internal/models"
)

// Action is an event applied to State by Reduce.
type Action interface {
	action()
}

// failure is implemented by actions that report a failed operation; their
// message is queued as an error notification.
type failure interface {
	Action
	failureMessage() string
}

// auth

type LoginStarted struct{}

type LoginSucceeded struct {
	Token    string
	Username string
	Roles    []string
	User     *models.UserInfo
}

type LoginFailed struct{ Message string }

type TwoFactorRequired struct{ Username string }

type Registered struct{ Message string }

type UserRefreshed struct{ User *models.UserInfo }

type SessionRestored struct {
	Token string
	User  *models.UserInfo
}

type SessionAbsent struct{}

type LoggedOut struct{}

// TwoFactorChanged is dispatched after 2FA was enabled, verified or disabled.
type TwoFactorChanged struct{ Enabled bool }

// notes

type NotesRequested struct{}

type NotesFetched struct{ Page models.Page[models.Note] }

type NotesFailed struct{ Message string }

type NoteFetched struct{ Note models.Note }

type NoteCreated struct{ Note models.Note }

type NoteUpdated struct{ Note models.Note }

type NoteDeleted struct{ ID int64 }

type SearchCompleted struct {
	Query   string
	Results []models.Note
}

type SearchCleared struct{}

type StatsFetched struct{ Stats models.NoteStats }

type PublicNotesFetched struct{ Notes []models.Note }

type FiltersSet struct{ Filters Filters }

type FiltersCleared struct{}

type PageSet struct {
	Page int
	Size int
}

type CurrentNoteSet struct{ Note *models.Note }

type NoteSelectionToggled struct{ ID int64 }

type AllNotesSelected struct{}

type SelectionCleared struct{}

// favorites

type FavoritesRequested struct{}

type FavoritesFetched struct {
	Page models.Page[models.Note]
	At   time.Time
}

type FavoritesFailed struct{ Message string }

type FavoritesCleared struct{}

// FavoriteToggled flips the favorite membership of NoteID in both
// collections. Snapshot, when set, is materialized into the favorites
// collection if the note is not held in the notes collection.
type FavoriteToggled struct {
	NoteID   int64
	Seq      uint64
	Snapshot *models.Note
}

// FavoriteToggleSucceeded carries the note returned by the backend.
type FavoriteToggleSucceeded struct {
	NoteID int64
	Seq    uint64
	Note   models.Note
}

type FavoriteToggleFailed struct {
	NoteID  int64
	Seq     uint64
	Message string
}

// profile

type ProfileRequested struct{}

type ProfileFetched struct{ Profile models.Profile }

type ProfileFailed struct{ Message string }

// ProfileUpdated carries NewToken when the username changed.
type ProfileUpdated struct {
	Profile  models.Profile
	NewToken string
}

type PasswordChanged struct{}

type PictureUploaded struct{ URL string }

type PictureDeleted struct{}

type TwoFactorSetupStarted struct{ Setup models.TwoFactorSetup }

// activities

type ActivitiesRequested struct{}

type RecentActivitiesFetched struct{ Activities []models.Activity }

type ActivitiesFetched struct{ Page models.Page[models.Activity] }

type ActivitiesFailed struct{ Message string }

type ActivityRecorded struct{ Activity models.Activity }

// ui

type Notified struct {
	Kind    NotificationKind
	Message string
}

type NotificationsDrained struct{}

type ThemeSet struct{ Theme string }

type ViewModeSet struct{ Mode string }

func (LoginStarted) action()            {}
func (LoginSucceeded) action()          {}
func (LoginFailed) action()             {}
func (TwoFactorRequired) action()       {}
func (Registered) action()              {}
func (UserRefreshed) action()           {}
func (SessionRestored) action()         {}
func (SessionAbsent) action()           {}
func (LoggedOut) action()               {}
func (TwoFactorChanged) action()        {}
func (NotesRequested) action()          {}
func (NotesFetched) action()            {}
func (NotesFailed) action()             {}
func (NoteFetched) action()             {}
func (NoteCreated) action()             {}
func (NoteUpdated) action()             {}
func (NoteDeleted) action()             {}
func (SearchCompleted) action()         {}
func (SearchCleared) action()           {}
func (StatsFetched) action()            {}
func (PublicNotesFetched) action()      {}
func (FiltersSet) action()              {}
func (FiltersCleared) action()          {}
func (PageSet) action()                 {}
func (CurrentNoteSet) action()          {}
func (NoteSelectionToggled) action()    {}
func (AllNotesSelected) action()        {}
func (SelectionCleared) action()        {}
func (FavoritesRequested) action()      {}
func (FavoritesFetched) action()        {}
func (FavoritesFailed) action()         {}
func (FavoritesCleared) action()        {}
func (FavoriteToggled) action()         {}
func (FavoriteToggleSucceeded) action() {}
func (FavoriteToggleFailed) action()    {}
func (ProfileRequested) action()        {}
func (ProfileFetched) action()          {}
func (ProfileFailed) action()           {}
func (ProfileUpdated) action()          {}
func (PasswordChanged) action()         {}
func (PictureUploaded) action()         {}
func (PictureDeleted) action()          {}
func (TwoFactorSetupStarted) action()   {}
func (ActivitiesRequested) action()     {}
func (RecentActivitiesFetched) action() {}
func (ActivitiesFetched) action()       {}
func (ActivitiesFailed) action()        {}
func (ActivityRecorded) action()        {}
func (Notified) action()                {}
func (NotificationsDrained) action()    {}
func (ThemeSet) action()                {}
func (ViewModeSet) action()             {}

func (a LoginFailed) failureMessage() string      { return a.Message }
func (a NotesFailed) failureMessage() string      { return a.Message }
func (a FavoritesFailed) failureMessage() string  { return a.Message }
func (a ProfileFailed) failureMessage() string    { return a.Message }
func (a ActivitiesFailed) failureMessage() string { return a.Message }
