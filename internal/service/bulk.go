package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultBulkConcurrency bounds the parallel deletes of one bulk request.
const DefaultBulkConcurrency = 8

var ErrEmptyID = errors.New("empty id")

// BulkFailure is one id a bulk operation could not process.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult reports the outcome of every id in a bulk operation.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// Counts returns the number of successes and failures.
func (r BulkResult) Counts() (succeeded, failed int) {
	return len(r.Succeeded), len(r.Failed)
}

// BulkDelete issues one independent delete per id in parallel. A failure never
// stops the other deletes. Every distinct id, the empty one included, is
// reported exactly once in input order; an empty id fails without a gateway call.
func BulkDelete(ctx context.Context, gw repository.Gateway, kind domain.EntityKind, ids []string, limit int) BulkResult {
	return bulkApply(ctx, ids, limit, func(ctx context.Context, id string) error {
		return gw.Delete(ctx, kind, id)
	})
}

// flushDeletes is BulkDelete for rows removed in a draft: a row that is
// already gone counts as deleted.
func flushDeletes(ctx context.Context, gw repository.Gateway, kind domain.EntityKind, ids []string) BulkResult {
	return bulkApply(ctx, ids, DefaultBulkConcurrency, func(ctx context.Context, id string) error {
		if err := gw.Delete(ctx, kind, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return nil
	})
}

func bulkApply(ctx context.Context, ids []string, limit int, apply func(context.Context, string) error) BulkResult {
	if limit <= 0 {
		limit = DefaultBulkConcurrency
	}
	ids = dedupe(ids)
	errs := make([]error, len(ids))

	// The group context is not used: one failed delete must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, id := range ids {
		if id == "" {
			errs[i] = ErrEmptyID
			continue
		}
		g.Go(func() error {
			errs[i] = apply(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for i, id := range ids {
		if errs[i] != nil {
			res.Failed = append(res.Failed, BulkFailure{ID: id, Error: errs[i].Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res
}

// PruneDeleted drops the items the result confirms deleted. Failed ids stay.
func PruneDeleted[T any](items []T, id func(T) string, res BulkResult) []T {
	gone := make(map[string]bool, len(res.Succeeded))
	for _, s := range res.Succeeded {
		gone[s] = true
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !gone[id(it)] {
			out = append(out, it)
		}
	}
	return out
}

// dedupe returns ids without repeats, keeping first occurrences.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

