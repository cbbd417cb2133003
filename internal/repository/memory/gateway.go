package memory

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FaultFunc lets tests fail selected gateway calls. op is "upsert", "delete" or "list".
type FaultFunc func(op string, kind domain.EntityKind, id string) error

// Gateway is an in-memory implementation of repository.Gateway.
// It is useful for tests and for running the server without a database.
// This implementation is safe for concurrent use.
type Gateway struct {
	rows  map[domain.EntityKind]map[string]domain.Row
	fault FaultFunc
	now   func() time.Time
	mu    sync.RWMutex
}

// NewGateway creates an empty in-memory gateway.
func NewGateway() *Gateway {
	rows := make(map[domain.EntityKind]map[string]domain.Row, len(domain.EntityKinds))
	for _, kind := range domain.EntityKinds {
		rows[kind] = make(map[string]domain.Row)
	}
	return &Gateway{rows: rows, now: time.Now}
}

var _ repository.Gateway = (*Gateway)(nil)

// SetFault installs f; a nil f clears it.
func (g *Gateway) SetFault(f FaultFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fault = f
}

func (g *Gateway) check(op string, kind domain.EntityKind, id string) error {
	if g.fault == nil {
		return nil
	}
	return g.fault(op, kind, id)
}

func (g *Gateway) table(kind domain.EntityKind) (map[string]domain.Row, error) {
	t, ok := g.rows[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownEntity, kind)
	}
	return t, nil
}

// Upsert implements repository.Gateway.
func (g *Gateway) Upsert(ctx context.Context, kind domain.EntityKind, id *string, fields domain.Fields) (domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	t, err := g.table(kind)
	if err != nil {
		return nil, err
	}
	key := ""
	if id != nil {
		key = *id
	}
	if err := g.check("upsert", kind, key); err != nil {
		return nil, err
	}

	clean, err := normalize(fields)
	if err != nil {
		return nil, err
	}
	now := g.now().UTC()

	row, exists := t[key]
	if id == nil || !exists {
		if id == nil {
			key = uuid.NewString()
		}
		row = domain.Row{"created_at": now}
	}
	for k, v := range clean {
		if k == "id" || k == "created_at" || k == "updated_at" {
			continue
		}
		row[k] = v
	}
	row["id"] = key
	row["updated_at"] = now
	t[key] = row
	return copyRow(row), nil
}

// Delete implements repository.Gateway.
func (g *Gateway) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	t, err := g.table(kind)
	if err != nil {
		return err
	}
	if err := g.check("delete", kind, id); err != nil {
		return err
	}
	if _, ok := t[id]; !ok {
		return repository.ErrNotFound
	}
	delete(t, id)
	return nil
}

// List implements repository.Gateway.
func (g *Gateway) List(ctx context.Context, kind domain.EntityKind, filter domain.Filter) ([]domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, err := g.table(kind)
	if err != nil {
		return nil, err
	}
	if err := g.check("list", kind, ""); err != nil {
		return nil, err
	}
	out := make([]domain.Row, 0, len(t))
	for _, row := range t {
		if repository.MatchesFilter(row, filter) {
			out = append(out, copyRow(row))
		}
	}
	repository.SortRows(kind, out)
	return out, nil
}

// Len returns the number of stored rows of kind.
func (g *Gateway) Len(kind domain.EntityKind) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rows[kind])
}

// normalize gives stored values the same shapes a database driver would return.
func normalize(fields domain.Fields) (domain.Fields, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var out domain.Fields
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

func copyRow(row domain.Row) domain.Row {
	out := make(domain.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
