package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"context"
	"errors"
	"testing"
)

func TestBulkDeleteReportsEveryID(t *testing.T) {
	gw := memory.NewGateway()
	for _, id := range []string{"a", "b", "c", "d"} {
		mustRow(t, gw, domain.KindFoods, id, domain.Food{Name: id, ServingSize: 100, Unit: "g"})
	}
	gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "delete" && id == "c" {
			return errors.New("locked")
		}
		return nil
	})

	res := BulkDelete(context.Background(), gw, domain.KindFoods, []string{"d", "c", "missing", "a", "d", ""}, 2)

	wantOK := []string{"d", "a"}
	if len(res.Succeeded) != len(wantOK) {
		t.Fatalf("succeeded = %v, want %v", res.Succeeded, wantOK)
	}
	for i, id := range wantOK {
		if res.Succeeded[i] != id {
			t.Errorf("succeeded[%d] = %q, want %q", i, res.Succeeded[i], id)
		}
	}
	if len(res.Failed) != 3 || res.Failed[0].ID != "c" || res.Failed[1].ID != "missing" || res.Failed[2].ID != "" {
		t.Errorf("failed = %+v", res.Failed)
	}
	if res.Failed[2].Error != ErrEmptyID.Error() {
		t.Errorf("empty id failure = %q", res.Failed[2].Error)
	}
	// five distinct ids, five outcomes
	if ok, failed := res.Counts(); ok+failed != 5 {
		t.Errorf("counts = %d/%d", ok, failed)
	}
	if res.Failed[0].Error != "locked" {
		t.Errorf("failure message = %q", res.Failed[0].Error)
	}
	if gw.Len(domain.KindFoods) != 2 {
		t.Errorf("rows left = %d, want b and c", gw.Len(domain.KindFoods))
	}
}

func TestBulkDeleteEmpty(t *testing.T) {
	res := BulkDelete(context.Background(), memory.NewGateway(), domain.KindFoods, nil, 0)
	if ok, failed := res.Counts(); ok != 0 || failed != 0 {
		t.Errorf("counts = %d/%d", ok, failed)
	}
	if res.Succeeded == nil || res.Failed == nil {
		t.Errorf("empty result should encode as empty lists")
	}
}

func TestPruneDeletedKeepsFailures(t *testing.T) {
	foods := []domain.Food{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	res := BulkResult{Succeeded: []string{"a", "c"}, Failed: []BulkFailure{{ID: "b", Error: "x"}}}

	left := PruneDeleted(foods, func(f domain.Food) string { return f.ID }, res)
	if len(left) != 1 || left[0].ID != "b" {
		t.Errorf("left = %+v", left)
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"x", "", "y", "x", ""})
	if len(got) != 3 || got[0] != "x" || got[1] != "" || got[2] != "y" {
		t.Errorf("dedupe = %v", got)
	}
}
