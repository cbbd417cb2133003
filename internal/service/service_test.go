package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

var (
	admin   = Actor{ID: "admin-1", Role: domain.RoleAdmin}
	coach   = Actor{ID: "coach-1", Role: domain.RoleCoach}
	rival   = Actor{ID: "coach-2", Role: domain.RoleCoach}
	athlete = Actor{ID: "athlete-1", Role: domain.RoleAthlete}
)

// fakeClock is a Clock that only moves when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequentialIDs returns "<prefix>-1", "<prefix>-2", ...
type sequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (g *sequentialIDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

func ptr[T any](v T) *T { return &v }

// mustRow inserts a row with a known id.
func mustRow(t *testing.T, gw *memory.Gateway, kind domain.EntityKind, id string, v any) {
	t.Helper()
	if _, err := upsertEntity[map[string]any](context.Background(), gw, kind, &id, v); err != nil {
		t.Fatalf("seed %s %s: %v", kind, id, err)
	}
}
