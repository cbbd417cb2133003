package draft

import (
	"alcyxob/coach-dashboard/internal/domain"
	"math"
	"testing"
)

func sampleMealPlan() *MealPlan {
	return NewMealPlan(
		domain.MealPlan{ID: "mp", Name: "Cut"},
		[]domain.Meal{{ID: "lunch", MealPlanID: "mp", Name: "Lunch", Order: 1}, {ID: "bfast", MealPlanID: "mp", Name: "Breakfast", Order: 0}},
		[]domain.MealItem{
			{ID: "i1", MealID: "bfast", FoodID: "oats", Quantity: 50, Order: 0},
			{ID: "i2", MealID: "bfast", FoodID: "milk", Quantity: 200, Order: 1},
		},
		[]domain.Food{
			{ID: "oats", Name: "Oats", Calories: 380, Protein: 13, Carbs: 60, Fats: 7, ServingSize: 100},
			{ID: "milk", Name: "Milk", Calories: 60, Protein: 3.4, Carbs: 5, Fats: 3, ServingSize: 100},
		},
	)
}

func TestMealPlanTotalsAreDerived(t *testing.T) {
	mp := sampleMealPlan()
	meals := mp.Meals()
	if meals[0].Meal.ID != "bfast" {
		t.Fatalf("meals not ordered: %s first", meals[0].Meal.ID)
	}
	// 50g oats = 190 kcal, 200ml milk = 120 kcal
	if math.Abs(meals[0].Totals.Calories-310) > 1e-9 {
		t.Errorf("breakfast calories = %v", meals[0].Totals.Calories)
	}
	mp.SetItemQuantity("bfast", 0, 100)
	if math.Abs(mp.Totals().Calories-500) > 1e-9 {
		t.Errorf("plan calories = %v", mp.Totals().Calories)
	}
}

func TestMealPlanItemEditsMarkMealDirty(t *testing.T) {
	mp := sampleMealPlan()
	if mp.IsDirty() {
		t.Fatal("fresh plan should be clean")
	}
	v, ok := mp.AddItem("lunch", "oats", 30)
	if !ok || !v.Dirty || len(v.Items) != 1 {
		t.Fatalf("AddItem = %+v, %v", v, ok)
	}
	if _, ok := mp.AddItem("dinner", "oats", 30); ok {
		t.Error("item added to an unknown meal")
	}

	v, _ = mp.RemoveItem("bfast", 0)
	if len(v.Items) != 1 || v.Items[0].Item.ID != "i2" || v.Items[0].Item.Order != 0 {
		t.Errorf("after remove = %+v", v.Items)
	}
	if got := mp.PendingItemDeletes(); len(got) != 1 || got[0] != "i1" {
		t.Errorf("pending = %v", got)
	}
	if len(mp.DirtyMeals()) != 2 {
		t.Errorf("dirty meals = %d, want 2", len(mp.DirtyMeals()))
	}
}

func TestMealPlanMarkSaved(t *testing.T) {
	mp := sampleMealPlan()
	added := mp.AddMeal("Snack", "16:00")
	mp.AddItem(added.Meal.ID, "milk", 250)
	view, _ := mp.Meal(added.Meal.ID)

	items := make([]domain.MealItem, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, it.Item)
	}
	if !mp.MarkMealSaved(view.Revision, view.Meal, items) {
		t.Fatal("MarkMealSaved failed")
	}
	if mp.IsDirty() {
		t.Error("plan still dirty after saving its only dirty meal")
	}

	// Removing a saved item now queues it for deletion.
	mp.RemoveItem(added.Meal.ID, 0)
	if len(mp.PendingItemDeletes()) != 1 {
		t.Errorf("pending = %v", mp.PendingItemDeletes())
	}
}

func TestMealPlanMarkSavedQueuesItemRemovedDuringSave(t *testing.T) {
	mp := sampleMealPlan()
	mp.AddItem("bfast", "oats", 30)
	view, _ := mp.Meal("bfast")
	items := make([]domain.MealItem, 0, len(view.Items))
	for _, it := range view.Items {
		items = append(items, it.Item)
	}
	added := items[2].ID

	mp.RemoveItem("bfast", 2)
	if !mp.MarkMealSaved(view.Revision, view.Meal, items) {
		t.Fatal("MarkMealSaved failed")
	}
	if got := mp.PendingItemDeletes(); len(got) != 1 || got[0] != added {
		t.Errorf("pending = %v, want [%s]", got, added)
	}
	if m, _ := mp.Meal("bfast"); !m.Dirty || len(m.Items) != 2 {
		t.Errorf("meal = %+v", m)
	}
}
