package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"context"
	"errors"
	"testing"
)

func TestAdminListUsersHidesHashes(t *testing.T) {
	gw := memory.NewGateway()
	mustRow(t, gw, domain.KindProfiles, "u1", domain.Profile{Name: "A", Email: "a@example.com", PasswordHash: "secret", Role: domain.RoleCoach})
	svc := NewAdminService(gw, NewNopLogger())

	users, err := svc.ListUsers(context.Background(), admin)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || users[0].PasswordHash != "" {
		t.Errorf("users = %+v", users)
	}
	if _, err := svc.ListUsers(context.Background(), coach); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("coach: err = %v", err)
	}
}

func TestAdminBulkDeleteNeverSelf(t *testing.T) {
	gw := memory.NewGateway()
	for _, id := range []string{admin.ID, "u1", "u2"} {
		mustRow(t, gw, domain.KindProfiles, id, domain.Profile{Email: id + "@example.com"})
	}
	svc := NewAdminService(gw, NewNopLogger())

	res, err := svc.BulkDeleteUsers(context.Background(), admin, []string{"u1", admin.ID, "u2"})
	if err != nil {
		t.Fatalf("BulkDeleteUsers: %v", err)
	}
	if ok, failed := res.Counts(); ok != 2 || failed != 1 {
		t.Errorf("counts = %d/%d", ok, failed)
	}
	if res.Failed[0].ID != admin.ID {
		t.Errorf("failed = %+v", res.Failed)
	}
	if gw.Len(domain.KindProfiles) != 1 {
		t.Errorf("profiles left = %d", gw.Len(domain.KindProfiles))
	}
}
