package export

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func ptr[T any](v T) *T { return &v }

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, axis string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, axis)
	if err != nil {
		t.Fatalf("GetCellValue(%s, %s): %v", sheet, axis, err)
	}
	return v
}

func TestProgramWorkbook(t *testing.T) {
	tree := draft.Tree{
		Program: domain.Program{ID: "p", Name: "Base"},
		Mesocycles: []domain.Mesocycle{
			{ID: "w2", WeekNumber: 2},
			{ID: "w1", WeekNumber: 1},
		},
		Days: []domain.Day{
			{ID: "d1", MesocycleID: "w1", DayNumber: 1},
			{ID: "d2", MesocycleID: "w1", DayNumber: 2, IsRestDay: true},
		},
		Blocks: []domain.Block{
			{ID: "b2", DayID: "d1", OrderIndex: 1, Type: domain.BlockMetconStructured, Name: "Finisher",
				Config: &domain.MetconConfig{Format: domain.MetconAMRAP, TimeCap: ptr(600),
					Movements: []domain.Movement{{Name: "Burpee", Reps: "10"}}}},
			{ID: "b1", DayID: "d1", OrderIndex: 0, Type: domain.BlockStrengthLinear, Name: "Squat",
				Config: &domain.StrengthLinearConfig{Exercise: "Back squat",
					SetScheme: domain.SetScheme{Sets: 5, Reps: "5", Percentage: ptr(75.0), Tempo: "30X1"}}},
		},
	}

	data, err := ProgramWorkbook(tree)
	if err != nil {
		t.Fatalf("ProgramWorkbook: %v", err)
	}
	f := openWorkbook(t, data)

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Week 1" || sheets[1] != "Week 2" {
		t.Fatalf("sheets = %v", sheets)
	}
	if idx, _ := f.GetSheetIndex(defaultSheet); idx >= 0 {
		t.Error("default sheet left in the workbook")
	}

	checks := map[string]string{
		"A1": "Day",
		"E2": "Squat",
		"G2": "Back squat",
		"H2": "5",
		"J2": "75",
		"L2": "30X1",
		"E3": "Finisher",
		"G3": "AMRAP 10:00",
		"N3": "10 Burpee",
		"B4": "Tuesday",
		"C4": "yes",
		"E4": "",
	}
	for axis, want := range checks {
		if got := cell(t, f, "Week 1", axis); got != want {
			t.Errorf("Week 1!%s = %q, want %q", axis, got, want)
		}
	}
	if got := cell(t, f, "Week 2", "A2"); got != "" {
		t.Errorf("empty week has data: %q", got)
	}
}

func TestMealPlanWorkbook(t *testing.T) {
	mp := draft.NewMealPlan(
		domain.MealPlan{ID: "mp", Name: "Cut"},
		[]domain.Meal{{ID: "m", Name: "Breakfast"}},
		[]domain.MealItem{{ID: "i", MealID: "m", FoodID: "oats", Quantity: 50}},
		[]domain.Food{{ID: "oats", Name: "Oats", Calories: 380, ServingSize: 100, Unit: "g"}},
	)
	data, err := MealPlanWorkbook(mp.Plan(), mp.Meals())
	if err != nil {
		t.Fatalf("MealPlanWorkbook: %v", err)
	}
	f := openWorkbook(t, data)
	if got := cell(t, f, "Meal plan", "C2"); got != "Oats" {
		t.Errorf("C2 = %q", got)
	}
	if got := cell(t, f, "Meal plan", "F3"); got != "190" {
		t.Errorf("meal total calories = %q", got)
	}
	if got := cell(t, f, "Meal plan", "A4"); got != "Cut total" {
		t.Errorf("A4 = %q", got)
	}
}

func TestBlockCellsForEmptyBlock(t *testing.T) {
	cells := BlockCells(domain.Block{})
	if len(cells) != len(programHeaders)-3 {
		t.Errorf("got %d cells, want %d", len(cells), len(programHeaders)-3)
	}
}
