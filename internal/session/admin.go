package session

import (
	"context"

	"github.com/xaenox/notes-bot/internal/models"
)

// Admin operations are plain pass-through calls; the backend enforces the
// admin role.

func (s *Session) AdminUsers(ctx context.Context, page, size int) (*models.Page[models.AdminUser], error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	users, err := s.client.Admin.Users(ctx, page, size)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load users", nil)
	}
	return users, nil
}

func (s *Session) AdminUser(ctx context.Context, id int64) (*models.AdminUser, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	user, err := s.client.Admin.User(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load user", nil)
	}
	return user, nil
}

func (s *Session) AdminUpdateRole(ctx context.Context, id int64, role string) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	msg, err := s.client.Admin.UpdateRole(ctx, id, role)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to update role", nil)
	}
	return msg, nil
}

func (s *Session) AdminUpdateStatus(ctx context.Context, id int64, status models.UserStatus) (string, error) {
	if err := s.requireAuth(); err != nil {
		return "", err
	}
	msg, err := s.client.Admin.UpdateStatus(ctx, id, status)
	if err != nil {
		return "", s.fail(ctx, err, "Failed to update user status", nil)
	}
	return msg, nil
}

func (s *Session) AdminRoles(ctx context.Context) ([]models.Role, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	roles, err := s.client.Admin.Roles(ctx)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load roles", nil)
	}
	return roles, nil
}

func (s *Session) AdminAuditLogs(ctx context.Context, page, size int) (*models.Page[models.AuditLog], error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	logs, err := s.client.Admin.AuditLogs(ctx, page, size)
	if err != nil {
		return nil, s.fail(ctx, err, "Failed to load audit logs", nil)
	}
	return logs, nil
}
