package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrFoodNotFound     = errors.New("food not found")
	ErrMealPlanNotFound = errors.New("meal plan not found")
	ErrMealNotFound     = errors.New("meal not found in session")
)

// FoodQuery narrows ListFoods. Search matches name or brand, case-insensitively.
type FoodQuery struct {
	Category string
	Search   string
}

// MealSession is an open draft of one meal plan.
type MealSession struct {
	ID         string
	MealPlanID string
	Plan       *draft.MealPlan
}

// MealSaveReport summarizes one save of a meal session.
type MealSaveReport struct {
	MealsSaved   int           `json:"meals_saved"`
	ItemsDeleted int           `json:"items_deleted"`
	Failures     []SaveFailure `json:"failures,omitempty"`
}

type NutritionService interface {
	ListFoods(ctx context.Context, query FoodQuery) ([]domain.Food, error)
	CreateFood(ctx context.Context, actor Actor, food domain.Food) (*domain.Food, error)
	UpdateFood(ctx context.Context, actor Actor, foodID string, food domain.Food) (*domain.Food, error)
	DeleteFood(ctx context.Context, actor Actor, foodID string) error
	BulkDeleteFoods(ctx context.Context, actor Actor, foodIDs []string) (*BulkResult, error)

	ListMealPlans(ctx context.Context, actor Actor) ([]domain.MealPlan, error)
	CreateMealPlan(ctx context.Context, actor Actor, name, clientID string) (*domain.MealPlan, error)
	LoadMealPlan(ctx context.Context, actor Actor, planID string) (*draft.MealPlan, error)

	OpenMealSession(ctx context.Context, actor Actor, planID string) (*MealSession, error)
	MealSession(actor Actor, sessionID string) (*MealSession, error)
	CloseMealSession(actor Actor, sessionID string) error
	SaveMealPlan(ctx context.Context, actor Actor, sessionID string) (*MealSaveReport, error)
	Sweep() int
}

type nutritionService struct {
	gw       repository.Gateway
	sessions *sessionRegistry[*draft.MealPlan]
	logger   Logger
}

// NewNutritionService creates a new instance of nutritionService.
func NewNutritionService(gw repository.Gateway, opts EditorOptions, clock Clock, ids IDGenerator, logger Logger) NutritionService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &nutritionService{
		gw:       gw,
		sessions: newSessionRegistry[*draft.MealPlan](opts.SessionTTL, opts.MaxSessions, clock, ids),
		logger:   logger,
	}
}

// --- Foods ---

func (s *nutritionService) ListFoods(ctx context.Context, query FoodQuery) ([]domain.Food, error) {
	filter := domain.Filter{}
	if query.Category != "" {
		filter["category"] = query.Category
	}
	foods, err := listEntities[domain.Food](ctx, s.gw, domain.KindFoods, filter)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(query.Search))
	if term == "" {
		return foods, nil
	}
	out := foods[:0]
	for _, f := range foods {
		if strings.Contains(strings.ToLower(f.Name), term) || strings.Contains(strings.ToLower(f.Brand), term) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *nutritionService) CreateFood(ctx context.Context, actor Actor, food domain.Food) (*domain.Food, error) {
	if !actor.CanCoach() {
		return nil, ErrAccessDenied
	}
	food.Name = strings.TrimSpace(food.Name)
	if err := food.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	created, err := upsertEntity[domain.Food](ctx, s.gw, domain.KindFoods, nil, food)
	if err != nil {
		return nil, fmt.Errorf("create food: %w", err)
	}
	return created, nil
}

// UpdateFood replaces every editable field of the food.
func (s *nutritionService) UpdateFood(ctx context.Context, actor Actor, foodID string, food domain.Food) (*domain.Food, error) {
	if !actor.CanCoach() {
		return nil, ErrAccessDenied
	}
	if _, err := getRow(ctx, s.gw, domain.KindFoods, foodID, ErrFoodNotFound); err != nil {
		return nil, err
	}
	food.Name = strings.TrimSpace(food.Name)
	if err := food.Validate(); err != nil {
		return nil, validationError("%v", err)
	}
	return upsertEntity[domain.Food](ctx, s.gw, domain.KindFoods, &foodID, food, "brand", "category")
}

func (s *nutritionService) DeleteFood(ctx context.Context, actor Actor, foodID string) error {
	if !actor.CanCoach() {
		return ErrAccessDenied
	}
	if err := s.gw.Delete(ctx, domain.KindFoods, foodID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFoodNotFound
		}
		return err
	}
	return nil
}

func (s *nutritionService) BulkDeleteFoods(ctx context.Context, actor Actor, foodIDs []string) (*BulkResult, error) {
	if !actor.CanCoach() {
		return nil, ErrAccessDenied
	}
	result := BulkDelete(ctx, s.gw, domain.KindFoods, foodIDs, DefaultBulkConcurrency)
	ok, failed := result.Counts()
	s.logger.Info("foods bulk delete", "succeeded", ok, "failed", failed)
	return &result, nil
}

// --- Meal plans ---

func (s *nutritionService) ListMealPlans(ctx context.Context, actor Actor) ([]domain.MealPlan, error) {
	if !actor.CanCoach() {
		return nil, ErrAccessDenied
	}
	var filter domain.Filter
	if !actor.IsAdmin() {
		filter = domain.Filter{"owner_id": actor.ID}
	}
	return listEntities[domain.MealPlan](ctx, s.gw, domain.KindMealPlans, filter)
}

func (s *nutritionService) CreateMealPlan(ctx context.Context, actor Actor, name, clientID string) (*domain.MealPlan, error) {
	if !actor.CanCoach() {
		return nil, ErrAccessDenied
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("meal plan name is required")
	}
	if clientID != "" {
		client, err := getEntity[domain.Client](ctx, s.gw, domain.KindClients, clientID, ErrClientNotFound)
		if err != nil {
			return nil, err
		}
		if !actor.owns(client.CoachID) {
			return nil, ErrClientAccessDenied
		}
	}
	return upsertEntity[domain.MealPlan](ctx, s.gw, domain.KindMealPlans, nil, domain.MealPlan{
		OwnerID:  actor.ID,
		ClientID: clientID,
		Name:     name,
	})
}

// LoadMealPlan reads a plan with its meals, items and the foods they reference.
func (s *nutritionService) LoadMealPlan(ctx context.Context, actor Actor, planID string) (*draft.MealPlan, error) {
	plan, err := getEntity[domain.MealPlan](ctx, s.gw, domain.KindMealPlans, planID, ErrMealPlanNotFound)
	if err != nil {
		return nil, err
	}
	if !actor.owns(plan.OwnerID) {
		return nil, ErrAccessDenied
	}
	meals, err := listEntities[domain.Meal](ctx, s.gw, domain.KindMeals, domain.Filter{"meal_plan_id": planID})
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	var items []domain.MealItem
	if len(meals) > 0 {
		mealIDs := ids(meals, func(m domain.Meal) string { return m.ID })
		items, err = listEntities[domain.MealItem](ctx, s.gw, domain.KindMealItems, domain.Filter{"meal_id": mealIDs})
		if err != nil {
			return nil, fmt.Errorf("load meal items: %w", err)
		}
	}
	var foods []domain.Food
	if foodIDs := distinctFoodIDs(items); len(foodIDs) > 0 {
		foods, err = listEntities[domain.Food](ctx, s.gw, domain.KindFoods, domain.Filter{"id": foodIDs})
		if err != nil {
			return nil, fmt.Errorf("load foods: %w", err)
		}
	}
	return draft.NewMealPlan(*plan, meals, items, foods), nil
}

func distinctFoodIDs(items []domain.MealItem) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, it := range items {
		if it.FoodID != "" && !seen[it.FoodID] {
			seen[it.FoodID] = true
			out = append(out, it.FoodID)
		}
	}
	sort.Strings(out)
	return out
}

// --- Meal sessions ---

func (s *nutritionService) OpenMealSession(ctx context.Context, actor Actor, planID string) (*MealSession, error) {
	plan, err := s.LoadMealPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	// every food is offered to the editor, not only the ones in use
	foods, err := listEntities[domain.Food](ctx, s.gw, domain.KindFoods, nil)
	if err != nil {
		return nil, err
	}
	for _, f := range foods {
		plan.AddFood(f)
	}
	id, err := s.sessions.open(actor.ID, planID, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info("meal session opened", "session_id", id, "meal_plan_id", planID)
	return &MealSession{ID: id, MealPlanID: planID, Plan: plan}, nil
}

func (s *nutritionService) MealSession(actor Actor, sessionID string) (*MealSession, error) {
	sess, err := s.sessions.get(actor, sessionID)
	if err != nil {
		return nil, err
	}
	return &MealSession{ID: sess.id, MealPlanID: sess.targetID, Plan: sess.draft}, nil
}

func (s *nutritionService) CloseMealSession(actor Actor, sessionID string) error {
	return s.sessions.close(actor, sessionID)
}

func (s *nutritionService) Sweep() int {
	return s.sessions.sweep()
}

// SaveMealPlan writes every dirty meal with its items, then deletes removed
// items. Meal and item ids are stable, so every write names its row. A meal
// stays dirty when it or any of its items fails.
func (s *nutritionService) SaveMealPlan(ctx context.Context, actor Actor, sessionID string) (*MealSaveReport, error) {
	sess, err := s.MealSession(actor, sessionID)
	if err != nil {
		return nil, err
	}
	plan := sess.Plan
	report := &MealSaveReport{}

	for _, view := range plan.DirtyMeals() {
		if err := s.saveMeal(ctx, plan, view); err != nil {
			report.Failures = append(report.Failures, SaveFailure{Kind: domain.KindMeals, ID: view.Meal.ID, Error: err.Error()})
			continue
		}
		report.MealsSaved++
	}

	if pending := plan.PendingItemDeletes(); len(pending) > 0 {
		result := flushDeletes(ctx, s.gw, domain.KindMealItems, pending)
		for _, id := range result.Succeeded {
			plan.MarkItemDeleted(id)
		}
		report.ItemsDeleted = len(result.Succeeded)
		for _, f := range result.Failed {
			report.Failures = append(report.Failures, SaveFailure{Kind: domain.KindMealItems, ID: f.ID, Error: f.Error})
		}
	}

	s.logger.Info("meal plan saved", "session_id", sessionID, "meal_plan_id", sess.MealPlanID,
		"meals", report.MealsSaved, "deleted", report.ItemsDeleted, "failures", len(report.Failures))
	if len(report.Failures) > 0 {
		return report, fmt.Errorf("%w: %d failed", ErrPartialSave, len(report.Failures))
	}
	return report, nil
}

func (s *nutritionService) saveMeal(ctx context.Context, plan *draft.MealPlan, view draft.MealView) error {
	meal := view.Meal
	if strings.TrimSpace(meal.Name) == "" {
		return validationError("meal name is required")
	}
	for _, it := range view.Items {
		if it.Item.Quantity <= 0 {
			return validationError("item %s quantity must be positive", it.Item.ID)
		}
	}
	saved, err := upsertEntity[domain.Meal](ctx, s.gw, domain.KindMeals, &meal.ID, meal, "time")
	if err != nil {
		return fmt.Errorf("save meal: %w", err)
	}
	items := make([]domain.MealItem, 0, len(view.Items))
	for _, it := range view.Items {
		item := it.Item
		savedItem, err := upsertEntity[domain.MealItem](ctx, s.gw, domain.KindMealItems, &item.ID, item)
		if err != nil {
			return fmt.Errorf("save meal item %s: %w", item.ID, err)
		}
		items = append(items, *savedItem)
	}
	plan.MarkMealSaved(view.Revision, *saved, items)
	return nil
}
