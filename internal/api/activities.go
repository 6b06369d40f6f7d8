package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/xaenox/notes-bot/internal/models"
)

// ActivitiesService covers /api/activities.
type ActivitiesService struct {
	client *Client
}

func pageQuery(page, size int) url.Values {
	v := url.Values{}
	if size > 0 {
		v.Set("page", strconv.Itoa(page))
		v.Set("size", strconv.Itoa(size))
	}
	return v
}

func (s *ActivitiesService) List(ctx context.Context, page, size int) (*models.Page[models.Activity], error) {
	var out models.Page[models.Activity]
	if err := s.client.get(ctx, "/api/activities", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ActivitiesService) Recent(ctx context.Context, days int) (*models.Page[models.Activity], error) {
	if days <= 0 {
		days = 30
	}
	v := url.Values{"days": {strconv.Itoa(days)}}
	var out models.Page[models.Activity]
	if err := s.client.get(ctx, "/api/activities/recent", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
