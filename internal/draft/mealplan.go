package draft

import (
	"alcyxob/coach-dashboard/internal/domain"
	"sort"
	"sync"
)

// MealItemView is an item with its food and derived macros.
type MealItemView struct {
	Item   domain.MealItem `json:"item"`
	Food   *domain.Food    `json:"food,omitempty"` // nil when the food is unknown
	Macros domain.Macros   `json:"macros"`
}

// MealView is a meal with its items and derived totals.
type MealView struct {
	Meal      domain.Meal    `json:"meal"`
	Items     []MealItemView `json:"items"`
	Totals    domain.Macros  `json:"totals"`
	Persisted bool           `json:"persisted"`
	Dirty     bool           `json:"dirty"`
	Revision  uint64         `json:"-"`
}

// MealPatch holds the meal fields to overwrite.
type MealPatch struct {
	Name  *string `json:"name,omitempty"`
	Time  *string `json:"time,omitempty"`
	Order *int    `json:"order,omitempty"`
}

type mealNode struct {
	meal      domain.Meal
	items     []domain.MealItem
	persisted bool
	dirty     bool
	rev       uint64
}

// MealPlan is the editable state of one meal plan. Macro totals are derived
// on every read and never stored. It is safe for concurrent use.
type MealPlan struct {
	mu      sync.RWMutex
	plan    domain.MealPlan
	meals   []*mealNode
	foods   map[string]domain.Food
	saved   map[string]bool // item ids known to the gateway
	pending []string        // persisted item ids removed locally
	rev     uint64
	newID   func() string
}

// NewMealPlan builds a meal plan draft from its rows and the foods they reference.
func NewMealPlan(plan domain.MealPlan, meals []domain.Meal, items []domain.MealItem, foods []domain.Food) *MealPlan {
	mp := &MealPlan{
		plan:  plan,
		foods: make(map[string]domain.Food, len(foods)),
		saved: make(map[string]bool, len(items)),
		newID: defaultID,
	}
	for _, f := range foods {
		mp.foods[f.ID] = f
	}
	byID := make(map[string]*mealNode, len(meals))
	for _, m := range meals {
		node := &mealNode{meal: m, persisted: true}
		byID[m.ID] = node
		mp.meals = append(mp.meals, node)
	}
	for _, it := range items {
		if node, ok := byID[it.MealID]; ok {
			node.items = append(node.items, it)
			mp.saved[it.ID] = true
		}
	}
	for _, node := range mp.meals {
		sort.SliceStable(node.items, func(i, j int) bool { return node.items[i].Order < node.items[j].Order })
	}
	mp.sortMeals()
	return mp
}

func (mp *MealPlan) sortMeals() {
	sort.SliceStable(mp.meals, func(i, j int) bool { return mp.meals[i].meal.Order < mp.meals[j].meal.Order })
}

// Plan returns the meal plan row.
func (mp *MealPlan) Plan() domain.MealPlan {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.plan
}

// Meals returns every meal in order.
func (mp *MealPlan) Meals() []MealView {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	out := make([]MealView, 0, len(mp.meals))
	for _, m := range mp.meals {
		out = append(out, mp.view(m))
	}
	return out
}

// Meal returns the meal with id.
func (mp *MealPlan) Meal(id string) (MealView, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	m := mp.find(id)
	if m == nil {
		return MealView{}, false
	}
	return mp.view(m), true
}

// Totals sums the macros of every meal.
func (mp *MealPlan) Totals() domain.Macros {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	var total domain.Macros
	for _, m := range mp.meals {
		total = total.Add(mp.view(m).Totals)
	}
	return total
}

// AddFood makes a food available for macro totals.
func (mp *MealPlan) AddFood(f domain.Food) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.foods[f.ID] = f
}

// AddMeal appends an unsaved meal.
func (mp *MealPlan) AddMeal(name, at string) MealView {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	order := 0
	if n := len(mp.meals); n > 0 {
		order = mp.meals[n-1].meal.Order + 1
	}
	m := &mealNode{meal: domain.Meal{
		ID:         mp.newID(),
		MealPlanID: mp.plan.ID,
		Name:       name,
		Order:      order,
		Time:       at,
	}}
	mp.meals = append(mp.meals, m)
	mp.touch(m)
	return mp.view(m)
}

// UpdateMeal merges patch into the meal.
func (mp *MealPlan) UpdateMeal(id string, patch MealPatch) (MealView, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	m := mp.find(id)
	if m == nil {
		return MealView{}, false
	}
	if patch.Name != nil {
		m.meal.Name = *patch.Name
	}
	if patch.Time != nil {
		m.meal.Time = *patch.Time
	}
	if patch.Order != nil {
		m.meal.Order = *patch.Order
		mp.sortMeals()
	}
	mp.touch(m)
	return mp.view(m), true
}

// AddItem appends a portion of foodID to the meal.
func (mp *MealPlan) AddItem(mealID, foodID string, quantity float64) (MealView, bool) {
	return mp.editItems(mealID, func(items []domain.MealItem) ([]domain.MealItem, bool) {
		return appendCopy(items, domain.MealItem{
			ID:       mp.newID(),
			MealID:   mealID,
			FoodID:   foodID,
			Quantity: quantity,
		}), true
	})
}

// SetItemQuantity changes the quantity of the item at index.
func (mp *MealPlan) SetItemQuantity(mealID string, index int, quantity float64) (MealView, bool) {
	return mp.editItems(mealID, func(items []domain.MealItem) ([]domain.MealItem, bool) {
		if index < 0 || index >= len(items) {
			return items, false
		}
		out := append([]domain.MealItem(nil), items...)
		out[index].Quantity = quantity
		return out, true
	})
}

// RemoveItem removes the item at index. A persisted item is queued for deletion.
func (mp *MealPlan) RemoveItem(mealID string, index int) (MealView, bool) {
	return mp.editItems(mealID, func(items []domain.MealItem) ([]domain.MealItem, bool) {
		if index < 0 || index >= len(items) {
			return items, false
		}
		if id := items[index].ID; mp.saved[id] {
			mp.queueDelete(id)
			delete(mp.saved, id)
		}
		return removeAt(items, index)
	})
}

// ReorderItems moves the item at from to position to.
func (mp *MealPlan) ReorderItems(mealID string, from, to int) (MealView, bool) {
	return mp.editItems(mealID, func(items []domain.MealItem) ([]domain.MealItem, bool) {
		return move(items, from, to)
	})
}

func (mp *MealPlan) editItems(mealID string, edit func([]domain.MealItem) ([]domain.MealItem, bool)) (MealView, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	m := mp.find(mealID)
	if m == nil {
		return MealView{}, false
	}
	next, ok := edit(m.items)
	if !ok {
		return MealView{}, false
	}
	for i := range next {
		next[i].MealID = m.meal.ID
		next[i].Order = i
	}
	m.items = next
	mp.touch(m)
	return mp.view(m), true
}

// DirtyMeals returns the unsaved meals in order.
func (mp *MealPlan) DirtyMeals() []MealView {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	var out []MealView
	for _, m := range mp.meals {
		if m.dirty {
			out = append(out, mp.view(m))
		}
	}
	return out
}

// PendingItemDeletes returns the persisted item ids removed since the last save.
func (mp *MealPlan) PendingItemDeletes() []string {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return append([]string(nil), mp.pending...)
}

// MarkItemDeleted drops id from the pending deletes.
func (mp *MealPlan) MarkItemDeleted(id string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.pending = removeFunc(mp.pending, func(p string) bool { return p == id })
}

// IsDirty reports whether anything is waiting to be saved.
func (mp *MealPlan) IsDirty() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	if len(mp.pending) > 0 {
		return true
	}
	for _, m := range mp.meals {
		if m.dirty {
			return true
		}
	}
	return false
}

// MarkMealSaved records that the meal was written at revision together with
// its items. Meal and item ids are kept stable across saves.
func (mp *MealPlan) MarkMealSaved(revision uint64, saved domain.Meal, items []domain.MealItem) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	m := mp.find(saved.ID)
	if m == nil {
		return false
	}
	m.persisted = true
	current := make(map[string]bool, len(m.items))
	for _, it := range m.items {
		current[it.ID] = true
	}
	for _, it := range items {
		if current[it.ID] {
			mp.saved[it.ID] = true
			continue
		}
		// removed while the write was in flight
		mp.queueDelete(it.ID)
	}
	if m.rev != revision {
		m.meal.CreatedAt = saved.CreatedAt
		return true
	}
	m.meal = saved
	m.items = append([]domain.MealItem(nil), items...)
	m.dirty = false
	return true
}

func (mp *MealPlan) queueDelete(id string) {
	for _, p := range mp.pending {
		if p == id {
			return
		}
	}
	mp.pending = append(mp.pending, id)
}

func (mp *MealPlan) find(id string) *mealNode {
	for _, m := range mp.meals {
		if m.meal.ID == id {
			return m
		}
	}
	return nil
}

func (mp *MealPlan) touch(m *mealNode) {
	mp.rev++
	m.dirty = true
	m.rev = mp.rev
}

func (mp *MealPlan) view(m *mealNode) MealView {
	v := MealView{
		Meal:      m.meal,
		Items:     make([]MealItemView, 0, len(m.items)),
		Persisted: m.persisted,
		Dirty:     m.dirty,
		Revision:  m.rev,
	}
	for _, it := range m.items {
		iv := MealItemView{Item: it}
		if f, ok := mp.foods[it.FoodID]; ok {
			food := f
			iv.Food = &food
			iv.Macros = f.MacrosFor(it.Quantity)
		}
		v.Totals = v.Totals.Add(iv.Macros)
		v.Items = append(v.Items, iv)
	}
	return v
}
