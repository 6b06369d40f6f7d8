package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/xaenox/notes-bot/internal/models"
)

// AdminService covers /admin. Calls fail with ErrForbidden for non-admins.
type AdminService struct {
	client *Client
}

func (s *AdminService) Users(ctx context.Context, page, size int) (*models.Page[models.AdminUser], error) {
	var out models.Page[models.AdminUser]
	if err := s.client.get(ctx, "/admin/users", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) User(ctx context.Context, id int64) (*models.AdminUser, error) {
	var out models.AdminUser
	if err := s.client.get(ctx, fmt.Sprintf("/admin/users/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AdminService) UpdateRole(ctx context.Context, id int64, roleName string) (string, error) {
	var msg string
	path := fmt.Sprintf("/admin/users/%d/role", id)
	err := s.client.send(ctx, http.MethodPut, path, url.Values{"roleName": {roleName}}, nil, &msg)
	return msg, err
}

func (s *AdminService) UpdateStatus(ctx context.Context, id int64, status models.UserStatus) (string, error) {
	v := url.Values{}
	set := func(name string, b *bool) {
		if b != nil {
			v.Set(name, strconv.FormatBool(*b))
		}
	}
	set("locked", status.Locked)
	set("expired", status.Expired)
	set("credentialsExpired", status.CredentialsExpired)
	set("enabled", status.Enabled)

	var msg string
	err := s.client.send(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d/status", id), v, nil, &msg)
	return msg, err
}

func (s *AdminService) Roles(ctx context.Context) ([]models.Role, error) {
	var out []models.Role
	if err := s.client.get(ctx, "/admin/users/roles", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AdminService) AuditLogs(ctx context.Context, page, size int) (*models.Page[models.AuditLog], error) {
	var out models.Page[models.AuditLog]
	if err := s.client.get(ctx, "/admin/audit-logs", pageQuery(page, size), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
