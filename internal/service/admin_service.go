package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
)

type AdminService interface {
	// ListUsers returns every profile without its password hash.
	ListUsers(ctx context.Context, actor Actor) ([]domain.Profile, error)
	// BulkDeleteUsers deletes profiles in parallel. The actor's own id is refused.
	BulkDeleteUsers(ctx context.Context, actor Actor, userIDs []string) (*BulkResult, error)
}

type adminService struct {
	gw     repository.Gateway
	logger Logger
}

// NewAdminService creates a new instance of adminService.
func NewAdminService(gw repository.Gateway, logger Logger) AdminService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &adminService{gw: gw, logger: logger}
}

func (s *adminService) ListUsers(ctx context.Context, actor Actor) ([]domain.Profile, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	profiles, err := listEntities[domain.Profile](ctx, s.gw, domain.KindProfiles, nil)
	if err != nil {
		return nil, err
	}
	// Clear password hashes before returning
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	return profiles, nil
}

func (s *adminService) BulkDeleteUsers(ctx context.Context, actor Actor, userIDs []string) (*BulkResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	var targets []string
	var refused []BulkFailure
	for _, id := range dedupe(userIDs) {
		if id == actor.ID {
			refused = append(refused, BulkFailure{ID: id, Error: "cannot delete your own account"})
			continue
		}
		targets = append(targets, id)
	}
	result := BulkDelete(ctx, s.gw, domain.KindProfiles, targets, DefaultBulkConcurrency)
	result.Failed = append(result.Failed, refused...)
	ok, failed := result.Counts()
	s.logger.Info("users bulk delete", "admin_id", actor.ID, "succeeded", ok, "failed", failed)
	return &result, nil
}
