package repository

import (
	"alcyxob/coach-dashboard/internal/domain"
	"context"
	"sort"
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrUpdateFailed  = RepositoryError("update failed")
	ErrDeleteFailed  = RepositoryError("delete failed")
	ErrUnknownEntity = RepositoryError("unknown entity kind")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Gateway is the row-oriented persistence boundary shared by every entity kind.
// Writes are last-write-wins; there is no version check.
type Gateway interface {
	// Upsert creates a row when id is nil (the gateway assigns the id) and
	// otherwise merges fields into the row with that id, creating it if absent.
	Upsert(ctx context.Context, kind domain.EntityKind, id *string, fields domain.Fields) (domain.Row, error)
	// Delete removes one row. Missing rows yield ErrNotFound.
	Delete(ctx context.Context, kind domain.EntityKind, id string) error
	// List returns the rows matching filter in the kind's natural order.
	List(ctx context.Context, kind domain.EntityKind, filter domain.Filter) ([]domain.Row, error)
}

// OrderColumns is the natural list order of each kind.
var OrderColumns = map[domain.EntityKind][]string{
	domain.KindPrograms:   {"name"},
	domain.KindMesocycles: {"week_number"},
	domain.KindDays:       {"day_number"},
	domain.KindBlocks:     {"order_index"},
	domain.KindMealPlans:  {"name"},
	domain.KindMeals:      {"order"},
	domain.KindMealItems:  {"order"},
	domain.KindFoods:      {"name"},
	domain.KindProfiles:   {"email"},
	domain.KindClients:    {"name"},
}

// SortRows orders rows by the kind's natural order, breaking ties by id.
func SortRows(kind domain.EntityKind, rows []domain.Row) {
	cols := OrderColumns[kind]
	sort.SliceStable(rows, func(i, j int) bool {
		for _, col := range cols {
			if c := compareValues(rows[i][col], rows[j][col]); c != 0 {
				return c < 0
			}
		}
		return rows[i].ID() < rows[j].ID()
	})
}

func compareValues(a, b any) int {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := domain.Row{"v": a}.String("v"), domain.Row{"v": b}.String("v")
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// MatchesFilter reports whether row satisfies every filter clause.
func MatchesFilter(row domain.Row, filter domain.Filter) bool {
	for key, want := range filter {
		got := row[key]
		switch w := want.(type) {
		case []string:
			s := row.String(key)
			found := false
			for _, candidate := range w {
				if candidate == s {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			if compareValues(got, w) != 0 {
				return false
			}
		}
	}
	return true
}
