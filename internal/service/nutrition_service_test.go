package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func newNutritionFixture(t *testing.T) (*memory.Gateway, NutritionService) {
	t.Helper()
	gw := memory.NewGateway()
	svc := NewNutritionService(gw, EditorOptions{SessionTTL: time.Hour}, newFakeClock(), &sequentialIDs{prefix: "meal"}, NewNopLogger())
	return gw, svc
}

func seedFoods(t *testing.T, gw *memory.Gateway) {
	t.Helper()
	mustRow(t, gw, domain.KindFoods, "rice", domain.Food{Name: "White rice", Category: "grains", Calories: 130, Protein: 2.7, Carbs: 28, Fats: 0.3, ServingSize: 100, Unit: "g"})
	mustRow(t, gw, domain.KindFoods, "chicken", domain.Food{Name: "Chicken breast", Brand: "Farm", Category: "meat", Calories: 165, Protein: 31, Fats: 3.6, ServingSize: 100, Unit: "g"})
	mustRow(t, gw, domain.KindFoods, "oats", domain.Food{Name: "Rolled oats", Category: "grains", Calories: 380, Protein: 13, Carbs: 67, Fats: 7, ServingSize: 100, Unit: "g"})
}

func TestListFoodsFilters(t *testing.T) {
	gw, svc := newNutritionFixture(t)
	seedFoods(t, gw)
	ctx := context.Background()

	grains, err := svc.ListFoods(ctx, FoodQuery{Category: "grains"})
	if err != nil {
		t.Fatalf("ListFoods: %v", err)
	}
	if len(grains) != 2 || grains[0].Name != "Rolled oats" {
		t.Errorf("grains = %+v", grains)
	}

	byBrand, _ := svc.ListFoods(ctx, FoodQuery{Search: "FARM"})
	if len(byBrand) != 1 || byBrand[0].ID != "chicken" {
		t.Errorf("search by brand = %+v", byBrand)
	}
}

func TestFoodCRUD(t *testing.T) {
	_, svc := newNutritionFixture(t)
	ctx := context.Background()

	if _, err := svc.CreateFood(ctx, coach, domain.Food{Name: "Egg"}); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("zero serving size: err = %v", err)
	}
	if _, err := svc.CreateFood(ctx, athlete, domain.Food{Name: "Egg", ServingSize: 50}); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("athlete: err = %v", err)
	}

	egg, err := svc.CreateFood(ctx, coach, domain.Food{Name: "Egg", Brand: "Coop", Calories: 72, ServingSize: 50, Unit: "g"})
	if err != nil {
		t.Fatalf("CreateFood: %v", err)
	}
	updated, err := svc.UpdateFood(ctx, coach, egg.ID, domain.Food{Name: "Large egg", Calories: 80, ServingSize: 56, Unit: "g"})
	if err != nil {
		t.Fatalf("UpdateFood: %v", err)
	}
	if updated.Name != "Large egg" || updated.Brand != "" {
		t.Errorf("updated = %+v", updated)
	}
	if _, err := svc.UpdateFood(ctx, coach, "missing", *updated); !errors.Is(err, ErrFoodNotFound) {
		t.Errorf("missing: err = %v", err)
	}
	if err := svc.DeleteFood(ctx, coach, egg.ID); err != nil {
		t.Fatalf("DeleteFood: %v", err)
	}
	if err := svc.DeleteFood(ctx, coach, egg.ID); !errors.Is(err, ErrFoodNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func seedMealPlan(t *testing.T, gw *memory.Gateway) {
	t.Helper()
	seedFoods(t, gw)
	mustRow(t, gw, domain.KindMealPlans, "plan", domain.MealPlan{OwnerID: coach.ID, Name: "Cut"})
	mustRow(t, gw, domain.KindMeals, "breakfast", domain.Meal{MealPlanID: "plan", Name: "Breakfast", Order: 0})
	mustRow(t, gw, domain.KindMealItems, "i1", domain.MealItem{MealID: "breakfast", FoodID: "oats", Quantity: 80, Order: 0})
	mustRow(t, gw, domain.KindMealItems, "i2", domain.MealItem{MealID: "breakfast", FoodID: "chicken", Quantity: 150, Order: 1})
}

func TestLoadMealPlanDerivesTotals(t *testing.T) {
	gw, svc := newNutritionFixture(t)
	seedMealPlan(t, gw)

	plan, err := svc.LoadMealPlan(context.Background(), coach, "plan")
	if err != nil {
		t.Fatalf("LoadMealPlan: %v", err)
	}
	meals := plan.Meals()
	if len(meals) != 1 || len(meals[0].Items) != 2 {
		t.Fatalf("meals = %+v", meals)
	}
	// 80g oats + 150g chicken
	want := 380*0.8 + 165*1.5
	if got := plan.Totals().Calories; math.Abs(got-want) > 1e-9 {
		t.Errorf("calories = %v, want %v", got, want)
	}

	if _, err := svc.LoadMealPlan(context.Background(), rival, "plan"); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("rival: err = %v", err)
	}
}

func TestSaveMealPlan(t *testing.T) {
	gw, svc := newNutritionFixture(t)
	seedMealPlan(t, gw)
	ctx := context.Background()

	sess, err := svc.OpenMealSession(ctx, coach, "plan")
	if err != nil {
		t.Fatalf("OpenMealSession: %v", err)
	}
	plan := sess.Plan
	if _, ok := plan.RemoveItem("breakfast", 1); !ok {
		t.Fatal("RemoveItem failed")
	}
	lunch := plan.AddMeal("Lunch", "12:30")
	if _, ok := plan.AddItem(lunch.Meal.ID, "rice", 200); !ok {
		t.Fatal("AddItem failed")
	}

	report, err := svc.SaveMealPlan(ctx, coach, sess.ID)
	if err != nil {
		t.Fatalf("SaveMealPlan: %v (%+v)", err, report)
	}
	if report.MealsSaved != 2 || report.ItemsDeleted != 1 {
		t.Errorf("report = %+v", report)
	}
	if plan.IsDirty() {
		t.Errorf("plan dirty after save")
	}
	if gw.Len(domain.KindMeals) != 2 || gw.Len(domain.KindMealItems) != 2 {
		t.Errorf("meals = %d, items = %d", gw.Len(domain.KindMeals), gw.Len(domain.KindMealItems))
	}

	// a reload sees the same plan
	reloaded, err := svc.LoadMealPlan(ctx, coach, "plan")
	if err != nil {
		t.Fatalf("LoadMealPlan: %v", err)
	}
	if math.Abs(reloaded.Totals().Calories-plan.Totals().Calories) > 1e-9 {
		t.Errorf("reloaded totals %v != %v", reloaded.Totals(), plan.Totals())
	}
}

func TestSaveMealPlanFailureKeepsMealDirty(t *testing.T) {
	gw, svc := newNutritionFixture(t)
	seedMealPlan(t, gw)
	ctx := context.Background()

	sess, _ := svc.OpenMealSession(ctx, coach, "plan")
	sess.Plan.SetItemQuantity("breakfast", 0, 100)
	gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "upsert" && kind == domain.KindMealItems {
			return errors.New("timeout")
		}
		return nil
	})

	if _, err := svc.SaveMealPlan(ctx, coach, sess.ID); !errors.Is(err, ErrPartialSave) {
		t.Fatalf("err = %v", err)
	}
	if m, _ := sess.Plan.Meal("breakfast"); !m.Dirty {
		t.Errorf("meal should stay dirty")
	}
}

func TestCreateMealPlanChecksClientOwner(t *testing.T) {
	gw, svc := newNutritionFixture(t)
	mustRow(t, gw, domain.KindClients, "c1", domain.Client{CoachID: rival.ID, Name: "Sam", Kind: domain.ClientAthlete})

	if _, err := svc.CreateMealPlan(context.Background(), coach, "Bulk", "c1"); !errors.Is(err, ErrClientAccessDenied) {
		t.Errorf("err = %v", err)
	}
	plan, err := svc.CreateMealPlan(context.Background(), rival, "Bulk", "c1")
	if err != nil {
		t.Fatalf("CreateMealPlan: %v", err)
	}
	plans, _ := svc.ListMealPlans(context.Background(), rival)
	if len(plans) != 1 || plans[0].ID != plan.ID {
		t.Errorf("plans = %+v", plans)
	}
}
