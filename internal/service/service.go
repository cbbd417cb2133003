package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
)

// --- Error Definitions ---
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrAccessDenied     = errors.New("access denied")
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	ID   string
	Role domain.Role
}

// IsAdmin reports whether the actor bypasses ownership checks.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// CanCoach reports whether the actor may own programs, plans and clients.
func (a Actor) CanCoach() bool { return a.Role == domain.RoleAdmin || a.Role == domain.RoleCoach }

// owns reports whether the actor may modify a row owned by ownerID.
func (a Actor) owns(ownerID string) bool { return a.IsAdmin() || (a.ID != "" && a.ID == ownerID) }

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// getRow fetches one row by id, mapping a missing row to notFound.
func getRow(ctx context.Context, gw repository.Gateway, kind domain.EntityKind, id string, notFound error) (domain.Row, error) {
	if id == "" {
		return nil, notFound
	}
	rows, err := gw.List(ctx, kind, domain.Filter{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound
	}
	return rows[0], nil
}

// getEntity fetches and decodes one row.
func getEntity[T any](ctx context.Context, gw repository.Gateway, kind domain.EntityKind, id string, notFound error) (*T, error) {
	row, err := getRow(ctx, gw, kind, id, notFound)
	if err != nil {
		return nil, err
	}
	var v T
	if err := domain.DecodeRow(row, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// listEntities lists and decodes rows.
func listEntities[T any](ctx context.Context, gw repository.Gateway, kind domain.EntityKind, filter domain.Filter) ([]T, error) {
	rows, err := gw.List(ctx, kind, filter)
	if err != nil {
		return nil, err
	}
	return domain.DecodeRows[T](rows)
}

// upsertEntity writes v and decodes the canonical row back into a new T.
// Each nullable column v leaves out is written as null, so clearing an
// optional field reaches the stored row.
func upsertEntity[T any](ctx context.Context, gw repository.Gateway, kind domain.EntityKind, id *string, v any, nullable ...string) (*T, error) {
	fields, err := domain.ToFields(v)
	if err != nil {
		return nil, err
	}
	for _, col := range nullable {
		if _, ok := fields[col]; !ok {
			fields[col] = nil
		}
	}
	row, err := gw.Upsert(ctx, kind, id, fields)
	if err != nil {
		return nil, err
	}
	var out T
	if err := domain.DecodeRow(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// patchEntity merges fields into the row with id.
func patchEntity[T any](ctx context.Context, gw repository.Gateway, kind domain.EntityKind, id string, fields domain.Fields) (*T, error) {
	row, err := gw.Upsert(ctx, kind, &id, fields)
	if err != nil {
		return nil, err
	}
	var out T
	if err := domain.DecodeRow(row, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, id(it))
	}
	return out
}
