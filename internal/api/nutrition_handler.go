package api

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type NutritionHandler struct {
	nutritionService service.NutritionService
	exportService    service.ExportService
}

func NewNutritionHandler(nutritionService service.NutritionService, exportService service.ExportService) *NutritionHandler {
	return &NutritionHandler{
		nutritionService: nutritionService,
		exportService:    exportService,
	}
}

// --- DTOs for Nutrition ---

type FoodRequest struct {
	Name        string  `json:"name" binding:"required"`
	Brand       string  `json:"brand"`
	Category    string  `json:"category"`
	Calories    float64 `json:"calories" binding:"min=0"`
	Protein     float64 `json:"protein" binding:"min=0"`
	Carbs       float64 `json:"carbs" binding:"min=0"`
	Fats        float64 `json:"fats" binding:"min=0"`
	ServingSize float64 `json:"servingSize" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
}

func (r FoodRequest) toDomain() domain.Food {
	unit := r.Unit
	if unit == "" {
		unit = "g"
	}
	return domain.Food{
		Name:        r.Name,
		Brand:       r.Brand,
		Category:    r.Category,
		Calories:    r.Calories,
		Protein:     r.Protein,
		Carbs:       r.Carbs,
		Fats:        r.Fats,
		ServingSize: r.ServingSize,
		Unit:        unit,
	}
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// BulkDeleteResponse carries the outcome of every id and the list as it stands
// after the delete. Items that failed to delete stay in Items.
type BulkDeleteResponse[T any] struct {
	*service.BulkResult
	Items []T `json:"items"`
}

type CreateMealPlanRequest struct {
	Name     string `json:"name" binding:"required"`
	ClientID string `json:"clientId"`
}

type AddMealRequest struct {
	Name string `json:"name" binding:"required"`
	Time string `json:"time"`
}

type AddMealItemRequest struct {
	FoodID   string  `json:"foodId" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

type SetQuantityRequest struct {
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// MealPlanResponse is a meal plan with its meals and derived macro totals.
type MealPlanResponse struct {
	Plan   domain.MealPlan  `json:"plan"`
	Meals  []draft.MealView `json:"meals"`
	Totals domain.Macros    `json:"totals"`
}

type MealSessionResponse struct {
	ID         string `json:"id"`
	MealPlanID string `json:"mealPlanId"`
	Dirty      bool   `json:"dirty"`
	MealPlanResponse
}

func mapMealPlanToResponse(plan *draft.MealPlan) MealPlanResponse {
	return MealPlanResponse{
		Plan:   plan.Plan(),
		Meals:  plan.Meals(),
		Totals: plan.Totals(),
	}
}

func mapMealSessionToResponse(sess *service.MealSession) MealSessionResponse {
	return MealSessionResponse{
		ID:               sess.ID,
		MealPlanID:       sess.MealPlanID,
		Dirty:            sess.Plan.IsDirty(),
		MealPlanResponse: mapMealPlanToResponse(sess.Plan),
	}
}

// --- Food Handlers ---

// ListFoods returns foods, optionally narrowed by ?category= and ?q=.
// GET /foods
func (h *NutritionHandler) ListFoods(c *gin.Context) {
	foods, err := h.nutritionService.ListFoods(c.Request.Context(), service.FoodQuery{
		Category: c.Query("category"),
		Search:   c.Query("q"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if foods == nil {
		foods = []domain.Food{}
	}
	c.JSON(http.StatusOK, foods)
}

// CreateFood adds a food to the reference list.
// POST /foods
func (h *NutritionHandler) CreateFood(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req FoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	food, err := h.nutritionService.CreateFood(c.Request.Context(), actor, req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

// UpdateFood replaces a food's fields.
// PUT /foods/:id
func (h *NutritionHandler) UpdateFood(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req FoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	food, err := h.nutritionService.UpdateFood(c.Request.Context(), actor, c.Param("id"), req.toDomain())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

// DeleteFood removes one food.
// DELETE /foods/:id
func (h *NutritionHandler) DeleteFood(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.nutritionService.DeleteFood(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BulkDeleteFoods removes many foods and reports the outcome of each id.
// POST /foods/bulk-delete
func (h *NutritionHandler) BulkDeleteFoods(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	foods, err := h.nutritionService.ListFoods(c.Request.Context(), service.FoodQuery{})
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.nutritionService.BulkDeleteFoods(c.Request.Context(), actor, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BulkDeleteResponse[domain.Food]{
		BulkResult: result,
		Items:      service.PruneDeleted(foods, func(f domain.Food) string { return f.ID }, *result),
	})
}

// --- Meal Plan Handlers ---

// ListMealPlans returns the caller's meal plans.
// GET /meal-plans
func (h *NutritionHandler) ListMealPlans(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plans, err := h.nutritionService.ListMealPlans(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	if plans == nil {
		plans = []domain.MealPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// CreateMealPlan creates an empty meal plan, optionally for a client.
// POST /meal-plans
func (h *NutritionHandler) CreateMealPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan, err := h.nutritionService.CreateMealPlan(c.Request.Context(), actor, req.Name, req.ClientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetMealPlan returns a persisted meal plan with its totals.
// GET /meal-plans/:id
func (h *NutritionHandler) GetMealPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	plan, err := h.nutritionService.LoadMealPlan(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapMealPlanToResponse(plan))
}

// ExportMealPlan renders the meal plan to a workbook and returns a download link.
// POST /meal-plans/:id/export
func (h *NutritionHandler) ExportMealPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.exportService.ExportMealPlan(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExportToResponse(result))
}

// --- Meal Session Handlers ---

func (h *NutritionHandler) session(c *gin.Context) (*service.MealSession, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return nil, false
	}
	sess, err := h.nutritionService.MealSession(actor, c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

// rejectMealEdit explains why a meal edit was not applied.
func rejectMealEdit(c *gin.Context, plan *draft.MealPlan, mealID string) {
	if _, ok := plan.Meal(mealID); !ok {
		respondError(c, service.ErrMealNotFound)
		return
	}
	abortWithError(c, http.StatusUnprocessableEntity, "The change could not be applied to this meal.")
}

// OpenMealSession loads a meal plan into a new editing session.
// POST /meal-plans/:id/sessions
func (h *NutritionHandler) OpenMealSession(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sess, err := h.nutritionService.OpenMealSession(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapMealSessionToResponse(sess))
}

// GetMealSession returns the draft meal plan.
// GET /meal-sessions/:sid
func (h *NutritionHandler) GetMealSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mapMealSessionToResponse(sess))
}

// CloseMealSession drops the session and any unsaved edits.
// DELETE /meal-sessions/:sid
func (h *NutritionHandler) CloseMealSession(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.nutritionService.CloseMealSession(actor, c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMeal appends an unsaved meal.
// POST /meal-sessions/:sid/meals
func (h *NutritionHandler) AddMeal(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req AddMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	c.JSON(http.StatusCreated, sess.Plan.AddMeal(req.Name, req.Time))
}

// UpdateMeal merges a patch into a meal.
// PATCH /meal-sessions/:sid/meals/:mealId
func (h *NutritionHandler) UpdateMeal(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var patch draft.MealPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	mealID := c.Param("mealId")
	view, ok := sess.Plan.UpdateMeal(mealID, patch)
	if !ok {
		rejectMealEdit(c, sess.Plan, mealID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddMealItem appends a food portion to a meal.
// POST /meal-sessions/:sid/meals/:mealId/items
func (h *NutritionHandler) AddMealItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req AddMealItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	mealID := c.Param("mealId")
	view, ok := sess.Plan.AddItem(mealID, req.FoodID, req.Quantity)
	if !ok {
		rejectMealEdit(c, sess.Plan, mealID)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// SetMealItemQuantity changes the quantity of the item at :index.
// PATCH /meal-sessions/:sid/meals/:mealId/items/:index
func (h *NutritionHandler) SetMealItemQuantity(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	mealID := c.Param("mealId")
	view, ok := sess.Plan.SetItemQuantity(mealID, index, req.Quantity)
	if !ok {
		rejectMealEdit(c, sess.Plan, mealID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveMealItem drops the item at :index.
// DELETE /meal-sessions/:sid/meals/:mealId/items/:index
func (h *NutritionHandler) RemoveMealItem(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	mealID := c.Param("mealId")
	view, ok := sess.Plan.RemoveItem(mealID, index)
	if !ok {
		rejectMealEdit(c, sess.Plan, mealID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ReorderMealItems moves one item of a meal to a new position.
// POST /meal-sessions/:sid/meals/:mealId/items/reorder
func (h *NutritionHandler) ReorderMealItems(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	mealID := c.Param("mealId")
	view, ok := sess.Plan.ReorderItems(mealID, req.From, req.To)
	if !ok {
		rejectMealEdit(c, sess.Plan, mealID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SaveMealPlan writes every dirty meal of the session. When some writes fail
// the report is returned with 207.
// POST /meal-sessions/:sid/save
func (h *NutritionHandler) SaveMealPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.nutritionService.SaveMealPlan(c.Request.Context(), actor, c.Param("sid"))
	if errors.Is(err, service.ErrPartialSave) {
		c.JSON(http.StatusMultiStatus, report)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
