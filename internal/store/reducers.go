package store

import (
	"slices"

	"github.com/xaenox/notes-bot/internal/models"
)

// Reduce applies a to s and returns the next state. It never modifies s.
func Reduce(s State, a Action) State {
	if _, ok := a.(LoggedOut); ok {
		next := Initial()
		next.Auth.Initialized = true
		next.UI = s.UI
		return next
	}

	if next, ok := reduceFavoriteSync(s, a); ok {
		s = next
	}
	s.Auth = reduceAuth(s.Auth, a)
	s.Notes = reduceNotes(s.Notes, a)
	s.Favorites = reduceFavorites(s.Favorites, a)
	s.Profile = reduceProfile(s.Profile, a)
	s.Activities = reduceActivities(s.Activities, a)
	s.UI = reduceUI(s.UI, a)

	if f, ok := a.(failure); ok && f.failureMessage() != "" {
		s = notify(s, NotifyError, f.failureMessage())
	}
	return s
}

func reduceAuth(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case LoginStarted:
		s.Loading = true
		s.Error = ""
	case LoginSucceeded:
		s = AuthState{
			Token:         a.Token,
			Username:      a.Username,
			Roles:         a.Roles,
			User:          a.User,
			Authenticated: true,
			Initialized:   true,
		}
		if a.User != nil {
			if s.Username == "" {
				s.Username = a.User.Username
			}
			if len(s.Roles) == 0 {
				s.Roles = a.User.Roles
			}
		}
	case LoginFailed:
		s.Loading = false
		s.Error = a.Message
	case TwoFactorRequired:
		s.Loading = false
		s.Error = ""
		s.TwoFactorRequired = true
		s.PendingUsername = a.Username
	case Registered:
		s.Loading = false
		s.Error = ""
	case UserRefreshed:
		if a.User != nil {
			s.User = a.User
			s.Username = a.User.Username
			if len(a.User.Roles) > 0 {
				s.Roles = a.User.Roles
			}
		}
	case SessionRestored:
		s.Token = a.Token
		s.User = a.User
		s.Authenticated = true
		s.Initialized = true
		if a.User != nil {
			s.Username = a.User.Username
			s.Roles = a.User.Roles
		}
	case SessionAbsent:
		s = AuthState{Initialized: true}
	case TwoFactorChanged:
		if s.User != nil {
			user := *s.User
			user.TwoFactorEnabled = a.Enabled
			s.User = &user
		}
	case ProfileUpdated:
		if a.NewToken != "" {
			s.Token = a.NewToken
		}
		if a.Profile.Username != "" {
			s.Username = a.Profile.Username
		}
		if s.User != nil {
			user := *s.User
			user.Username = s.Username
			if a.Profile.Email != "" {
				user.Email = a.Profile.Email
			}
			s.User = &user
		}
	case PictureUploaded:
		if s.User != nil {
			user := *s.User
			user.ProfilePicture = a.URL
			s.User = &user
		}
	}
	return s
}

func reduceNotes(s NotesState, a Action) NotesState {
	switch a := a.(type) {
	case NotesRequested:
		s.Loading = true
		s.Error = ""
	case NotesFailed:
		s.Loading = false
		s.Error = a.Message
	case SearchCompleted:
		s.SearchQuery = a.Query
		s.SearchResults = a.Results
	case SearchCleared:
		s.SearchQuery = ""
		s.SearchResults = nil
	case StatsFetched:
		stats := a.Stats
		s.Stats = &stats
	case PublicNotesFetched:
		s.PublicNotes = a.Notes
	case FiltersSet:
		f := a.Filters
		if f.SortBy == "" {
			f.SortBy = SortByUpdatedAt
		}
		if f.SortOrder != SortAsc {
			f.SortOrder = SortDesc
		}
		s.Filters = f
	case FiltersCleared:
		s.Filters = defaultFilters()
	case PageSet:
		s.Pagination.Page = max(a.Page, 0)
		if a.Size > 0 {
			s.Pagination.Size = a.Size
		}
	case CurrentNoteSet:
		s.Current = a.Note
	case NoteSelectionToggled:
		if slices.Contains(s.Selected, a.ID) {
			s.Selected = removeID(s.Selected, a.ID)
		} else {
			s.Selected = append(slices.Clone(s.Selected), a.ID)
		}
	case AllNotesSelected:
		ids := make([]int64, 0, len(s.Items))
		for _, n := range s.Items {
			ids = append(ids, n.ID)
		}
		s.Selected = nilIfEmpty(ids)
	case SelectionCleared:
		s.Selected = nil
	}
	return s
}

func reduceFavorites(s FavoritesState, a Action) FavoritesState {
	switch a := a.(type) {
	case FavoritesRequested:
		s.Loading = true
		s.Error = ""
	case FavoritesFailed:
		s.Loading = false
		s.Error = a.Message
	}
	return s
}

func reduceProfile(s ProfileState, a Action) ProfileState {
	switch a := a.(type) {
	case ProfileRequested:
		s.Loading = true
		s.Error = ""
	case ProfileFetched:
		p := a.Profile
		s.Profile = &p
		s.Loading = false
	case ProfileFailed:
		s.Loading = false
		s.Error = a.Message
	case ProfileUpdated:
		p := a.Profile
		s.Profile = &p
		s.Loading = false
	case PasswordChanged:
		s.Loading = false
		s.Error = ""
	case PictureUploaded:
		s.Loading = false
		if s.Profile != nil {
			p := *s.Profile
			p.ProfilePicture = a.URL
			s.Profile = &p
		}
	case PictureDeleted:
		s.Loading = false
		if s.Profile != nil {
			p := *s.Profile
			p.ProfilePicture = ""
			s.Profile = &p
		}
	case TwoFactorSetupStarted:
		setup := a.Setup
		s.TwoFactorSetup = &setup
	case TwoFactorChanged:
		s.TwoFactorSetup = nil
		if s.Profile != nil {
			p := *s.Profile
			p.TwoFactorEnabled = a.Enabled
			s.Profile = &p
		}
	}
	return s
}

func reduceActivities(s ActivitiesState, a Action) ActivitiesState {
	switch a := a.(type) {
	case ActivitiesRequested:
		s.Loading = true
		s.Error = ""
	case RecentActivitiesFetched:
		s.Recent = a.Activities
		s.Loading = false
	case ActivitiesFetched:
		s.Page = a.Page
		s.Loading = false
	case ActivitiesFailed:
		s.Loading = false
		s.Error = a.Message
	case ActivityRecorded:
		local := append([]models.Activity{a.Activity}, s.Local...)
		if len(local) > MaxLocalActivities {
			local = local[:MaxLocalActivities]
		}
		s.Local = local
	}
	return s
}

func reduceUI(s UIState, a Action) UIState {
	switch a := a.(type) {
	case Notified:
		s.Notifications = appendNotification(s.Notifications, a.Kind, a.Message)
	case NotificationsDrained:
		s.Notifications = nil
	case ThemeSet:
		s.Theme = a.Theme
	case ViewModeSet:
		s.ViewMode = a.Mode
	}
	return s
}

func notify(s State, kind NotificationKind, msg string) State {
	s.UI.Notifications = appendNotification(s.UI.Notifications, kind, msg)
	return s
}

// appendNotification leaves At zero; the Store stamps it on dispatch.
func appendNotification(list []Notification, kind NotificationKind, msg string) []Notification {
	return append(slices.Clone(list), Notification{Kind: kind, Message: msg})
}
