package sqldb

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var columnName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// gormGateway implements repository.Gateway over one table per entity kind.
type gormGateway struct {
	db *gorm.DB
}

// NewGormGateway creates a gateway over a migrated database.
func NewGormGateway(db *gorm.DB) repository.Gateway {
	return &gormGateway{db: db}
}

func newModel(kind domain.EntityKind) (any, error) {
	factory, ok := modelFactories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownEntity, kind)
	}
	return factory(), nil
}

// Upsert creates a row when id is nil. Otherwise the fields are merged onto the
// stored row, which is created with that id when absent.
func (g *gormGateway) Upsert(ctx context.Context, kind domain.EntityKind, id *string, fields domain.Fields) (domain.Row, error) {
	model, err := newModel(kind)
	if err != nil {
		return nil, err
	}
	db := g.db.WithContext(ctx)

	exists := false
	if id != nil {
		err := db.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: *id}).First(model).Error
		switch {
		case err == nil:
			exists = true
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, err
		}
	}

	if err := mergeFields(model, fields); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	if exists {
		if err := db.Save(model).Error; err != nil {
			return nil, err
		}
		return modelToRow(model)
	}

	newID := uuid.NewString()
	if id != nil {
		newID = *id
	}
	if err := setIdentity(model, newID); err != nil {
		return nil, err
	}
	if err := db.Create(model).Error; err != nil {
		return nil, err
	}
	return modelToRow(model)
}

// Delete removes the row with the given id.
func (g *gormGateway) Delete(ctx context.Context, kind domain.EntityKind, id string) error {
	model, err := newModel(kind)
	if err != nil {
		return err
	}
	result := g.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns the rows matching filter in the kind's natural order.
func (g *gormGateway) List(ctx context.Context, kind domain.EntityKind, filter domain.Filter) ([]domain.Row, error) {
	if _, err := newModel(kind); err != nil {
		return nil, err
	}
	query := g.db.WithContext(ctx).Table(string(kind))
	for key, value := range filter {
		if !columnName.MatchString(key) {
			return nil, fmt.Errorf("invalid filter column %q", key)
		}
		col := clause.Column{Name: key}
		if values, ok := value.([]string); ok {
			in := make([]any, len(values))
			for i, v := range values {
				in[i] = v
			}
			query = query.Where(clause.IN{Column: col, Values: in})
			continue
		}
		query = query.Where(clause.Eq{Column: col, Value: value})
	}
	for _, col := range repository.OrderColumns[kind] {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: col}})
	}
	query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	// Scan into typed models so bools, times and JSON columns decode correctly.
	rows := make([]domain.Row, 0)
	models, err := findModels(query, kind)
	if err != nil {
		return nil, err
	}
	for _, m := range models {
		row, err := modelToRow(m)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findModels(query *gorm.DB, kind domain.EntityKind) ([]any, error) {
	var out []any
	collect := func(n int, at func(int) any) {
		for i := 0; i < n; i++ {
			out = append(out, at(i))
		}
	}
	var err error
	switch kind {
	case domain.KindPrograms:
		var ms []ProgramModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindMesocycles:
		var ms []MesocycleModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindDays:
		var ms []DayModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindBlocks:
		var ms []BlockModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindMealPlans:
		var ms []MealPlanModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindMeals:
		var ms []MealModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindMealItems:
		var ms []MealItemModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindFoods:
		var ms []FoodModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindProfiles:
		var ms []ProfileModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	case domain.KindClients:
		var ms []ClientModel
		err = query.Find(&ms).Error
		collect(len(ms), func(i int) any { return &ms[i] })
	default:
		return nil, fmt.Errorf("%w: %q", repository.ErrUnknownEntity, kind)
	}
	return out, err
}

// mergeFields overlays fields on model. A null field resets its column to
// the zero value.
func mergeFields(model any, fields domain.Fields) error {
	current, err := json.Marshal(model)
	if err != nil {
		return err
	}
	merged := map[string]any{}
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	for k, v := range fields {
		if k == "id" || k == "created_at" || k == "updated_at" {
			continue
		}
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	v := reflect.ValueOf(model).Elem()
	v.Set(reflect.Zero(v.Type()))
	return json.Unmarshal(data, model)
}

func setIdentity(model any, id string) error {
	data, err := json.Marshal(map[string]any{"id": id})
	if err != nil {
		return err
	}
	return json.Unmarshal(data, model)
}

func modelToRow(model any) (domain.Row, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return nil, err
	}
	var row domain.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	for _, col := range []string{"created_at", "updated_at"} {
		if s, ok := row[col].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				row[col] = t
			}
		}
	}
	return row, nil
}
