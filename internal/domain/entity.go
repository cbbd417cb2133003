package domain

import (
	"fmt"
	"time"
)

// EntityKind names a row collection in the persistence gateway.
type EntityKind string

const (
	KindPrograms   EntityKind = "programs"
	KindMesocycles EntityKind = "mesocycles"
	KindDays       EntityKind = "days"
	KindBlocks     EntityKind = "blocks"
	KindMealPlans  EntityKind = "meal_plans"
	KindMeals      EntityKind = "meals"
	KindMealItems  EntityKind = "meal_items"
	KindFoods      EntityKind = "foods"
	KindProfiles   EntityKind = "profiles"
	KindClients    EntityKind = "clients"
)

// EntityKinds lists every kind the gateway knows about.
var EntityKinds = []EntityKind{
	KindPrograms,
	KindMesocycles,
	KindDays,
	KindBlocks,
	KindMealPlans,
	KindMeals,
	KindMealItems,
	KindFoods,
	KindProfiles,
	KindClients,
}

// Valid reports whether k is one of EntityKinds.
func (k EntityKind) Valid() bool {
	for _, known := range EntityKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Fields is a partial row handed to the gateway on upsert.
type Fields map[string]any

// Row is a canonical row returned by the gateway.
type Row map[string]any

// Filter selects rows by equality. A []string value matches any of its elements.
type Filter map[string]any

// ID returns the row's id column.
func (r Row) ID() string {
	return r.String("id")
}

// String returns the value at key as a string, or "" when missing.
func (r Row) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the numeric value at key truncated to int.
func (r Row) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	}
	return 0
}

// Bool returns the boolean at key. Integers are treated as sqlite booleans.
func (r Row) Bool(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// Time returns the time at key, or the zero time.
func (r Row) Time(key string) time.Time {
	switch v := r[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}
