package store

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/notes-bot/internal/models"
)

func seeded(flags []bool) State {
	notes := make([]models.Note, len(flags))
	for i, fav := range flags {
		notes[i] = models.Note{ID: int64(i + 1), Title: "note", Favorite: fav}
	}
	return Reduce(Initial(), NotesFetched{Page: models.Page[models.Note]{Content: notes}})
}

func noteByID(t *testing.T, s State, id int64) models.Note {
	t.Helper()
	n, ok := findNote(s.Notes.Items, id)
	require.True(t, ok, "note %d not in collection", id)
	return n
}

func sameCollections(a, b State) bool {
	return assert.ObjectsAreEqual(a.Notes.Items, b.Notes.Items) &&
		assert.ObjectsAreEqual(a.Favorites.IDs, b.Favorites.IDs) &&
		assert.ObjectsAreEqual(a.Favorites.Notes, b.Favorites.Notes) &&
		len(a.Favorites.Pending) == len(b.Favorites.Pending)
}

func TestFavoriteToggle_SuccessScenario(t *testing.T) {
	s := seeded([]bool{false})

	s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 1})
	assert.True(t, noteByID(t, s, 1).Favorite)
	assert.True(t, IsFavorite(s, 1))
	assert.IsType(t, Pending{}, FavoriteStatus(s, 1))
	require.NoError(t, CheckFavoriteInvariant(s))

	s = Reduce(s, FavoriteToggleSucceeded{NoteID: 1, Seq: 1, Note: models.Note{ID: 1, Title: "note", Favorite: true}})
	assert.True(t, noteByID(t, s, 1).Favorite)
	assert.Equal(t, []int64{1}, s.Favorites.IDs)
	assert.Equal(t, Settled{Favorite: true}, FavoriteStatus(s, 1))
	require.NoError(t, CheckFavoriteInvariant(s))

	require.Len(t, s.UI.Notifications, 1)
	assert.Equal(t, NotifySuccess, s.UI.Notifications[0].Kind)
	assert.Equal(t, "Added to favorites", s.UI.Notifications[0].Message)
}

func TestFavoriteToggle_FailureScenario(t *testing.T) {
	before := Reduce(Initial(), NotesFetched{Page: models.Page[models.Note]{Content: []models.Note{
		{ID: 2, Title: "two", Favorite: true},
	}}})

	s := Reduce(before, FavoriteToggled{NoteID: 2, Seq: 1})
	assert.False(t, noteByID(t, s, 2).Favorite)
	assert.False(t, IsFavorite(s, 2))
	require.NoError(t, CheckFavoriteInvariant(s))

	s = Reduce(s, FavoriteToggleFailed{NoteID: 2, Seq: 1, Message: "Note not found"})
	assert.True(t, noteByID(t, s, 2).Favorite)
	assert.True(t, sameCollections(before, s))
	assert.Equal(t, Settled{Favorite: true}, FavoriteStatus(s, 2))

	require.Len(t, s.UI.Notifications, 1)
	assert.Equal(t, NotifyError, s.UI.Notifications[0].Kind)
	assert.Equal(t, "Failed to update favorite: Note not found", s.UI.Notifications[0].Message)
}

func TestFavoriteToggle_RevertKeepsPosition(t *testing.T) {
	before := seeded([]bool{true, true, true})
	require.Equal(t, []int64{1, 2, 3}, before.Favorites.IDs)

	s := Reduce(before, FavoriteToggled{NoteID: 2, Seq: 7})
	assert.Equal(t, []int64{1, 3}, s.Favorites.IDs)

	s = Reduce(s, FavoriteToggleFailed{NoteID: 2, Seq: 7})
	assert.Equal(t, before.Favorites.IDs, s.Favorites.IDs)
	assert.Equal(t, before.Favorites.Notes, s.Favorites.Notes)
	assert.Equal(t, before.Notes.Items, s.Notes.Items)
}

func TestFavoriteToggle_SnapshotMaterializesUnknownNote(t *testing.T) {
	s := Initial()
	snap := &models.Note{ID: 42, Title: "shared with me"}

	s = Reduce(s, FavoriteToggled{NoteID: 42, Seq: 1, Snapshot: snap})
	require.Len(t, s.Favorites.Notes, 1)
	assert.True(t, s.Favorites.Notes[0].Favorite)
	assert.Equal(t, "shared with me", s.Favorites.Notes[0].Title)
	assert.False(t, snap.Favorite, "snapshot must not be modified")
	require.NoError(t, CheckFavoriteInvariant(s))
}

func TestFavoriteToggle_ServerNoteReplacesLocalCopy(t *testing.T) {
	s := seeded([]bool{false})
	s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 1})

	server := models.Note{ID: 1, Title: "renamed on server", Favorite: true, ShareCount: 3}
	s = Reduce(s, FavoriteToggleSucceeded{NoteID: 1, Seq: 1, Note: server})

	assert.Equal(t, server, noteByID(t, s, 1))
	require.Len(t, s.Favorites.Notes, 1)
	assert.Equal(t, server, s.Favorites.Notes[0])
}

func TestFavoriteToggle_DeletedWhileInFlight(t *testing.T) {
	for _, succeed := range []bool{true, false} {
		s := seeded([]bool{false, true})
		s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 1})
		s = Reduce(s, NoteDeleted{ID: 1})

		assert.NotContains(t, s.Favorites.IDs, int64(1))
		assert.Empty(t, s.Favorites.Pending)

		if succeed {
			s = Reduce(s, FavoriteToggleSucceeded{NoteID: 1, Seq: 1, Note: models.Note{ID: 1, Favorite: true}})
		} else {
			s = Reduce(s, FavoriteToggleFailed{NoteID: 1, Seq: 1})
		}

		assert.Equal(t, []int64{2}, s.Favorites.IDs)
		_, inFavorites := findNote(s.Favorites.Notes, 1)
		assert.False(t, inFavorites)
		_, inNotes := findNote(s.Notes.Items, 1)
		assert.False(t, inNotes)
		assert.Empty(t, s.UI.Notifications)
		require.NoError(t, CheckFavoriteInvariant(s))
	}
}

func TestFavoriteToggle_ReconcileKeepsOptimisticValue(t *testing.T) {
	s := seeded([]bool{false, false})
	s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 1})

	// a list refresh that raced the toggle still reports the old value
	s = Reduce(s, NotesFetched{Page: models.Page[models.Note]{Content: []models.Note{
		{ID: 1, Title: "fresh", Favorite: false},
		{ID: 2, Title: "fresh", Favorite: true},
	}}})

	assert.True(t, noteByID(t, s, 1).Favorite)
	assert.True(t, noteByID(t, s, 2).Favorite)
	assert.ElementsMatch(t, []int64{1, 2}, s.Favorites.IDs)
	require.NoError(t, CheckFavoriteInvariant(s))

	s = Reduce(s, FavoritesFetched{Page: models.Page[models.Note]{Content: []models.Note{{ID: 2, Favorite: true}}}})
	assert.True(t, IsFavorite(s, 1), "pending toggle survives a favorites refresh")
	require.NoError(t, CheckFavoriteInvariant(s))
}

func TestFavoritesFetched_DemotesStaleNotes(t *testing.T) {
	s := seeded([]bool{true, false, true})
	s = Reduce(s, FavoritesFetched{Page: models.Page[models.Note]{Content: []models.Note{{ID: 2, Title: "note"}}}})

	assert.Equal(t, []int64{2}, s.Favorites.IDs)
	assert.False(t, noteByID(t, s, 1).Favorite)
	assert.True(t, noteByID(t, s, 2).Favorite)
	assert.True(t, s.Favorites.Notes[0].Favorite)
	require.NoError(t, CheckFavoriteInvariant(s))
}

func TestFavoritesFetched_SyncsEveryHeldNote(t *testing.T) {
	held := Initial()
	held.Notes.SearchResults = []models.Note{{ID: 7, Favorite: true}}
	held.Notes.PublicNotes = []models.Note{{ID: 8, Favorite: true}}
	held.Notes.Current = &models.Note{ID: 9, Favorite: true}
	held.Favorites.IDs = []int64{7, 8, 9}

	s := Reduce(held, FavoritesFetched{Page: models.Page[models.Note]{Content: []models.Note{{ID: 8}}}})
	assert.False(t, s.Notes.SearchResults[0].Favorite)
	assert.True(t, s.Notes.PublicNotes[0].Favorite)
	assert.False(t, s.Notes.Current.Favorite)
	assert.True(t, held.Notes.SearchResults[0].Favorite, "input state is left untouched")

	s = Reduce(held, FavoritesCleared{})
	assert.False(t, s.Notes.SearchResults[0].Favorite)
	assert.False(t, s.Notes.PublicNotes[0].Favorite)
	assert.False(t, s.Notes.Current.Favorite)
}

func TestFavoriteToggle_DoubleToggle(t *testing.T) {
	type outcome struct {
		ok     bool
		server bool
	}
	tests := []struct {
		name    string
		first   outcome
		second  outcome
		reverse bool
		want    bool
	}{
		{"both succeed in order", outcome{true, true}, outcome{true, false}, false, false},
		{"both succeed reversed", outcome{true, true}, outcome{true, false}, true, true},
		{"both fail", outcome{false, false}, outcome{false, false}, false, false},
		{"both fail reversed", outcome{false, false}, outcome{false, false}, true, false},
		{"first fails", outcome{false, false}, outcome{true, true}, false, true},
		{"second fails", outcome{true, true}, outcome{false, false}, false, true},
		{"second fails first", outcome{true, true}, outcome{false, false}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded([]bool{false})
			s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 1})
			s = Reduce(s, FavoriteToggled{NoteID: 1, Seq: 2})
			require.NoError(t, CheckFavoriteInvariant(s))

			settle := func(s State, seq uint64, o outcome) State {
				if o.ok {
					return Reduce(s, FavoriteToggleSucceeded{NoteID: 1, Seq: seq, Note: models.Note{ID: 1, Favorite: o.server}})
				}
				return Reduce(s, FavoriteToggleFailed{NoteID: 1, Seq: seq})
			}
			if tt.reverse {
				s = settle(s, 2, tt.second)
				require.NoError(t, CheckFavoriteInvariant(s))
				s = settle(s, 1, tt.first)
			} else {
				s = settle(s, 1, tt.first)
				require.NoError(t, CheckFavoriteInvariant(s))
				s = settle(s, 2, tt.second)
			}

			require.NoError(t, CheckFavoriteInvariant(s))
			assert.Empty(t, s.Favorites.Pending)
			assert.Equal(t, tt.want, noteByID(t, s, 1).Favorite)
			assert.Equal(t, tt.want, IsFavorite(s, 1))
		})
	}
}

func TestReduce_DoesNotModifyInput(t *testing.T) {
	before := seeded([]bool{true, false, true})
	ids := append([]int64(nil), before.Favorites.IDs...)
	items := append([]models.Note(nil), before.Notes.Items...)

	_ = Reduce(before, FavoriteToggled{NoteID: 1, Seq: 1})
	_ = Reduce(before, FavoriteToggled{NoteID: 2, Seq: 2, Snapshot: &models.Note{ID: 2}})
	_ = Reduce(before, NoteDeleted{ID: 3})

	assert.Equal(t, ids, before.Favorites.IDs)
	assert.Equal(t, items, before.Notes.Items)
	assert.Empty(t, before.Favorites.Pending)
}

func favoriteProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

func TestProperty_ToggleSuccessFlipsBothCollections(t *testing.T) {
	properties := favoriteProperties()

	properties.Property("success leaves the flipped value in both collections", prop.ForAll(
		func(flags []bool, pick int) bool {
			s := seeded(flags)
			id := int64(pick%len(flags) + 1)
			was := IsFavorite(s, id)

			s = Reduce(s, FavoriteToggled{NoteID: id, Seq: 1})
			if IsFavorite(s, id) == was || CheckFavoriteInvariant(s) != nil {
				return false
			}
			server, _ := findNote(s.Notes.Items, id)
			server.Favorite = !was
			s = Reduce(s, FavoriteToggleSucceeded{NoteID: id, Seq: 1, Note: server})

			n, _ := findNote(s.Notes.Items, id)
			return n.Favorite == !was &&
				IsFavorite(s, id) == !was &&
				len(s.Favorites.Pending) == 0 &&
				CheckFavoriteInvariant(s) == nil
		},
		gen.SliceOfN(8, gen.Bool()),
		gen.IntRange(0, 7),
	))

	properties.TestingRun(t)
}

func TestProperty_ToggleFailureRestoresState(t *testing.T) {
	properties := favoriteProperties()

	properties.Property("failure restores the pre-toggle collections exactly", prop.ForAll(
		func(flags []bool, pick int) bool {
			before := seeded(flags)
			id := int64(pick%len(flags) + 1)

			s := Reduce(before, FavoriteToggled{NoteID: id, Seq: 1})
			s = Reduce(s, FavoriteToggleFailed{NoteID: id, Seq: 1})
			return sameCollections(before, s) && CheckFavoriteInvariant(s) == nil
		},
		gen.SliceOfN(8, gen.Bool()),
		gen.IntRange(0, 7),
	))

	properties.TestingRun(t)
}

func TestProperty_DoubleToggleNeverMixesMembership(t *testing.T) {
	properties := favoriteProperties()

	properties.Property("two toggles settle into a consistent state", prop.ForAll(
		func(flags []bool, pick int, firstOK, secondOK, reverse bool) bool {
			s := seeded(flags)
			id := int64(pick%len(flags) + 1)
			was := IsFavorite(s, id)

			s = Reduce(s, FavoriteToggled{NoteID: id, Seq: 1})
			s = Reduce(s, FavoriteToggled{NoteID: id, Seq: 2})

			// the server applies the toggles it accepts in request order
			server := was
			results := map[uint64]bool{}
			if firstOK {
				server = !server
				results[1] = server
			}
			if secondOK {
				server = !server
				results[2] = server
			}

			settle := func(s State, seq uint64, ok bool) State {
				if ok {
					n, _ := findNote(s.Notes.Items, id)
					n.Favorite = results[seq]
					return Reduce(s, FavoriteToggleSucceeded{NoteID: id, Seq: seq, Note: n})
				}
				return Reduce(s, FavoriteToggleFailed{NoteID: id, Seq: seq})
			}
			if reverse {
				s = settle(s, 2, secondOK)
				s = settle(s, 1, firstOK)
			} else {
				s = settle(s, 1, firstOK)
				s = settle(s, 2, secondOK)
			}

			n, _ := findNote(s.Notes.Items, id)
			return CheckFavoriteInvariant(s) == nil &&
				len(s.Favorites.Pending) == 0 &&
				n.Favorite == IsFavorite(s, id)
		},
		gen.SliceOfN(6, gen.Bool()),
		gen.IntRange(0, 5),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestProperty_DeleteRemovesFromFavorites(t *testing.T) {
	properties := favoriteProperties()

	properties.Property("a deleted note never returns to favorites", prop.ForAll(
		func(flags []bool, pick int, toggle, succeed bool) bool {
			s := seeded(flags)
			id := int64(pick%len(flags) + 1)

			if toggle {
				s = Reduce(s, FavoriteToggled{NoteID: id, Seq: 1})
			}
			s = Reduce(s, NoteDeleted{ID: id})
			if IsFavorite(s, id) {
				return false
			}
			if succeed {
				s = Reduce(s, FavoriteToggleSucceeded{NoteID: id, Seq: 1, Note: models.Note{ID: id, Favorite: true}})
			} else {
				s = Reduce(s, FavoriteToggleFailed{NoteID: id, Seq: 1})
			}
			_, materialized := findNote(s.Favorites.Notes, id)
			return !IsFavorite(s, id) && !materialized && CheckFavoriteInvariant(s) == nil
		},
		gen.SliceOfN(6, gen.Bool()),
		gen.IntRange(0, 5),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
