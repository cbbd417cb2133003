package domain

import (
	"testing"
	"time"
)

func TestRowAccessors(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	row := Row{
		"id":          "r1",
		"week_number": float64(3),
		"is_rest_day": int64(1),
		"created_at":  ts.Format(time.RFC3339Nano),
		"updated_at":  ts,
	}
	if row.ID() != "r1" {
		t.Errorf("ID = %q", row.ID())
	}
	if row.Int("week_number") != 3 {
		t.Errorf("Int = %d", row.Int("week_number"))
	}
	if !row.Bool("is_rest_day") {
		t.Error("Bool should treat 1 as true")
	}
	if !row.Time("created_at").Equal(ts) || !row.Time("updated_at").Equal(ts) {
		t.Error("Time did not parse both representations")
	}
	if row.String("missing") != "" {
		t.Error("missing key should be empty")
	}
}

func TestToFieldsStripsManagedColumns(t *testing.T) {
	fields, err := ToFields(Day{ID: "d1", MesocycleID: "m1", DayNumber: 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, col := range []string{"id", "created_at", "updated_at"} {
		if _, ok := fields[col]; ok {
			t.Errorf("%s should be stripped", col)
		}
	}
	if fields["mesocycle_id"] != "m1" {
		t.Errorf("mesocycle_id = %v", fields["mesocycle_id"])
	}
}

func TestWeekdayName(t *testing.T) {
	if WeekdayName(1) != "Monday" || WeekdayName(7) != "Sunday" || WeekdayName(8) != "" {
		t.Error("unexpected weekday names")
	}
	name := "Heavy day"
	if (Day{DayNumber: 3, Name: &name}).DisplayName() != "Heavy day" {
		t.Error("custom name ignored")
	}
	if (Day{DayNumber: 3}).DisplayName() != "Wednesday" {
		t.Error("fallback name wrong")
	}
}
