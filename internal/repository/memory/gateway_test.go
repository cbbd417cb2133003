package memory

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"testing"
)

func TestGatewayUpsertMerge(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()

	row, err := g.Upsert(ctx, domain.KindPrograms, nil, domain.Fields{"name": "Base", "status": "draft"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := row.ID()
	row, err = g.Upsert(ctx, domain.KindPrograms, &id, domain.Fields{"status": "active"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if row.String("name") != "Base" || row.String("status") != "active" {
		t.Errorf("unexpected row after merge: %v", row)
	}
	if g.Len(domain.KindPrograms) != 1 {
		t.Errorf("Len = %d, want 1", g.Len(domain.KindPrograms))
	}
}

func TestGatewayReturnsCopies(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()

	row, _ := g.Upsert(ctx, domain.KindFoods, nil, domain.Fields{"name": "Rice"})
	row["name"] = "mutated"

	rows, err := g.List(ctx, domain.KindFoods, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rows[0].String("name") != "Rice" {
		t.Errorf("stored row was mutated through a returned copy")
	}
}

func TestGatewayListFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	for _, n := range []int{7, 2, 5} {
		g.Upsert(ctx, domain.KindDays, nil, domain.Fields{"mesocycle_id": "m1", "day_number": n})
	}
	g.Upsert(ctx, domain.KindDays, nil, domain.Fields{"mesocycle_id": "m2", "day_number": 1})

	rows, err := g.List(ctx, domain.KindDays, domain.Filter{"mesocycle_id": "m1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int{2, 5, 7}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, n := range want {
		if rows[i].Int("day_number") != n {
			t.Errorf("rows[%d].day_number = %d, want %d", i, rows[i].Int("day_number"), n)
		}
	}

	rows, _ = g.List(ctx, domain.KindDays, domain.Filter{"mesocycle_id": []string{"m1", "m2"}, "day_number": 1})
	if len(rows) != 1 || rows[0].String("mesocycle_id") != "m2" {
		t.Errorf("combined filter returned %v", rows)
	}
}

func TestGatewayDeleteAndFault(t *testing.T) {
	ctx := context.Background()
	g := NewGateway()
	row, _ := g.Upsert(ctx, domain.KindBlocks, nil, domain.Fields{"day_id": "d1"})

	boom := errors.New("boom")
	g.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "delete" {
			return boom
		}
		return nil
	})
	if err := g.Delete(ctx, domain.KindBlocks, row.ID()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want injected fault", err)
	}
	g.SetFault(nil)

	if err := g.Delete(ctx, domain.KindBlocks, row.ID()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := g.Delete(ctx, domain.KindBlocks, row.ID()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
