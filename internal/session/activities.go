package session

import (
	"context"

	"github.com/xaenox/notes-bot/internal/models"
	"github.com/xaenox/notes-bot/internal/store"
)

func activitiesFailed(msg string) store.Action { return store.ActivitiesFailed{Message: msg} }

// FetchRecentActivities loads the activity of the last days days; zero
// means the configured default.
func (s *Session) FetchRecentActivities(ctx context.Context, days int) ([]models.Activity, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = s.cfg.RecentDays
	}
	s.store.Dispatch(store.ActivitiesRequested{})
	page, err := s.client.Activities.Recent(ctx, days)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load recent activity", activitiesFailed)
	}
	s.store.Dispatch(store.RecentActivitiesFetched{Activities: page.Content})
	return page.Content, nil
}

func (s *Session) FetchActivities(ctx context.Context, page, size int) (*models.Page[models.Activity], error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	s.store.Dispatch(store.ActivitiesRequested{})
	p, err := s.client.Activities.List(ctx, page, size)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load activity", activitiesFailed)
	}
	s.store.Dispatch(store.ActivitiesFetched{Page: *p})
	return p, nil
}
