package domain

import (
	"math"
	"testing"
)

func TestMacrosFor(t *testing.T) {
	oats := Food{Name: "Oats", Calories: 380, Protein: 13, Carbs: 60, Fats: 7, ServingSize: 100, Unit: "g"}
	got := oats.MacrosFor(50)
	if math.Abs(got.Calories-190) > 1e-9 || math.Abs(got.Protein-6.5) > 1e-9 {
		t.Errorf("MacrosFor(50) = %+v", got)
	}

	total := got.Add(oats.MacrosFor(100))
	if math.Abs(total.Carbs-90) > 1e-9 {
		t.Errorf("Add carbs = %v, want 90", total.Carbs)
	}

	if m := (Food{Calories: 100}).MacrosFor(10); m != (Macros{}) {
		t.Errorf("zero serving size should yield zero macros, got %+v", m)
	}
}

func TestFoodValidate(t *testing.T) {
	if err := (Food{Name: "Egg", ServingSize: 50}).Validate(); err != nil {
		t.Errorf("valid food rejected: %v", err)
	}
	if err := (Food{ServingSize: 50}).Validate(); err == nil {
		t.Error("missing name accepted")
	}
	if err := (Food{Name: "Egg", ServingSize: 50, Fats: -1}).Validate(); err == nil {
		t.Error("negative macro accepted")
	}
}
