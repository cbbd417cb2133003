package api

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// EditorHandler exposes the draft store of an editing session. Edits change
// only the session; nothing is written until a save route is called.
type EditorHandler struct {
	editorService service.EditorService
}

func NewEditorHandler(editorService service.EditorService) *EditorHandler {
	return &EditorHandler{editorService: editorService}
}

// --- DTOs for Editor Sessions ---

type SessionResponse struct {
	ID           string                `json:"id"`
	ProgramID    string                `json:"programId"`
	Program      domain.Program        `json:"program"`
	SelectedWeek int                   `json:"selectedWeek"`
	Weeks        []draft.MesocycleView `json:"weeks"`
	Days         []draft.DayView       `json:"days"` // of the selected week
	Dirty        bool                  `json:"dirty"`
}

type SelectWeekRequest struct {
	WeekNumber int `json:"weekNumber" binding:"required,min=1"`
}

type UpdateDayRequest struct {
	draft.DayRef
	Patch draft.DayPatch `json:"patch"`
}

type AddBlockRequest struct {
	draft.DayRef
	Block domain.Block `json:"block"`
}

// UpdateBlockRequest carries a block patch. Config, when present, replaces the
// whole config and must match the block's type.
type UpdateBlockRequest struct {
	draft.BlockPatch
	Config json.RawMessage `json:"config"`
}

type ReorderRequest struct {
	From int `json:"from" binding:"min=0"`
	To   int `json:"to" binding:"min=0"`
}

func mapSessionToResponse(sess *service.EditorSession) SessionResponse {
	store := sess.Store
	week := store.SelectedWeek()
	return SessionResponse{
		ID:           sess.ID,
		ProgramID:    sess.ProgramID,
		Program:      store.Program(),
		SelectedWeek: week,
		Weeks:        store.Weeks(),
		Days:         store.Days(week),
		Dirty:        store.IsDirty(),
	}
}

// session resolves the :sid parameter for the calling actor. It aborts the
// request and returns false on failure.
func (h *EditorHandler) session(c *gin.Context) (service.Actor, *service.EditorSession, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		return service.Actor{}, nil, false
	}
	sess, err := h.editorService.Session(actor, c.Param("sid"))
	if err != nil {
		respondError(c, err)
		return service.Actor{}, nil, false
	}
	return actor, sess, true
}

// rejectDayEdit explains why a day edit was not applied.
func rejectDayEdit(c *gin.Context, store *draft.Store, ref draft.DayRef) {
	if _, ok := store.Day(ref); !ok {
		respondError(c, service.ErrDayNotFound)
		return
	}
	abortWithError(c, http.StatusUnprocessableEntity, "The change could not be applied to this day.")
}

// rejectBlockEdit explains why a block edit was not applied.
func rejectBlockEdit(c *gin.Context, store *draft.Store, blockID string) {
	if _, ok := store.Block(blockID); !ok {
		respondError(c, service.ErrBlockNotFound)
		return
	}
	abortWithError(c, http.StatusUnprocessableEntity, "The change could not be applied to this block.")
}

func bindDayRef(c *gin.Context) (draft.DayRef, bool) {
	var ref draft.DayRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return ref, false
	}
	if ref.ID == "" && ref.MesocycleID == "" {
		abortWithError(c, http.StatusBadRequest, "Validation error: day_id or mesocycle_id and day_number are required")
		return ref, false
	}
	return ref, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid index in URL path.")
		return 0, false
	}
	return index, true
}

// --- Session Lifecycle ---

// OpenSession loads a program into a new editing session.
// POST /programs/:id/sessions
func (h *EditorHandler) OpenSession(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sess, err := h.editorService.OpenSession(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapSessionToResponse(sess))
}

// GetSession returns the session's selected week.
// GET /sessions/:sid
func (h *EditorHandler) GetSession(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mapSessionToResponse(sess))
}

// CloseSession drops the session and any unsaved edits.
// DELETE /sessions/:sid
func (h *EditorHandler) CloseSession(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.editorService.CloseSession(actor, c.Param("sid")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SelectWeek switches the week the session is viewing.
// PUT /sessions/:sid/week
func (h *EditorHandler) SelectWeek(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var req SelectWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sess.Store.SelectWeek(req.WeekNumber)
	c.JSON(http.StatusOK, mapSessionToResponse(sess))
}

// AddWeek persists the next week and adds it to the session.
// POST /sessions/:sid/weeks
func (h *EditorHandler) AddWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req AddWeekRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}
	week, err := h.editorService.AddWeek(c.Request.Context(), actor, c.Param("sid"), req.Focus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, week)
}

// ListDays returns the seven day slots of a week, placeholders included.
// GET /sessions/:sid/weeks/:n/days
func (h *EditorHandler) ListDays(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil || n < 1 {
		abortWithError(c, http.StatusBadRequest, "Invalid week number in URL path.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"week": sess.Store.Week(n),
		"days": sess.Store.Days(n),
	})
}

// --- Day Edits ---

// ToggleRestDay flips a day between rest and training. With ?save=true the day
// is written immediately.
// POST /sessions/:sid/days/toggle-rest
func (h *EditorHandler) ToggleRestDay(c *gin.Context) {
	actor, sess, ok := h.session(c)
	if !ok {
		return
	}
	ref, ok := bindDayRef(c)
	if !ok {
		return
	}
	view, ok := sess.Store.ToggleRestDay(ref)
	if !ok {
		rejectDayEdit(c, sess.Store, ref)
		return
	}
	if save, _ := strconv.ParseBool(c.Query("save")); save {
		saved, err := h.editorService.SaveDay(c.Request.Context(), actor, sess.ID, view.Day.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		view = *saved
	}
	c.JSON(http.StatusOK, view)
}

// ClearDay drops every block of a day.
// POST /sessions/:sid/days/clear
func (h *EditorHandler) ClearDay(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	ref, ok := bindDayRef(c)
	if !ok {
		return
	}
	view, ok := sess.Store.ClearDay(ref)
	if !ok {
		rejectDayEdit(c, sess.Store, ref)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateDay merges a patch into a day, promoting a placeholder.
// PATCH /sessions/:sid/days
func (h *EditorHandler) UpdateDay(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var req UpdateDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Patch.Empty() {
		abortWithError(c, http.StatusBadRequest, "Validation error: patch is empty")
		return
	}
	view, ok := sess.Store.UpdateDay(req.DayRef, req.Patch)
	if !ok {
		rejectDayEdit(c, sess.Store, req.DayRef)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddBlock appends a block to a day.
// POST /sessions/:sid/days/blocks
func (h *EditorHandler) AddBlock(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var req AddBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	view, ok := sess.Store.AddBlock(req.DayRef, req.Block)
	if !ok {
		rejectDayEdit(c, sess.Store, req.DayRef)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// SaveDay writes one day.
// POST /sessions/:sid/days/:dayId/save
func (h *EditorHandler) SaveDay(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.editorService.SaveDay(c.Request.Context(), actor, c.Param("sid"), c.Param("dayId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Block Edits ---

// UpdateBlock merges a patch into a block.
// PATCH /sessions/:sid/blocks/:blockId
func (h *EditorHandler) UpdateBlock(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	blockID := c.Param("blockId")
	var req UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	patch := req.BlockPatch
	if len(req.Config) > 0 {
		current, ok := sess.Store.Block(blockID)
		if !ok {
			respondError(c, service.ErrBlockNotFound)
			return
		}
		cfg, err := domain.DecodeBlockConfig(current.Block.Type, req.Config)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
		patch.Config = cfg
	}

	view, ok := sess.Store.UpdateBlock(blockID, patch)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveBlock drops a block; a saved block is deleted on the next save.
// DELETE /sessions/:sid/blocks/:blockId
func (h *EditorHandler) RemoveBlock(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	if !sess.Store.RemoveBlock(c.Param("blockId")) {
		respondError(c, service.ErrBlockNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveBlock writes one block.
// POST /sessions/:sid/blocks/:blockId/save
func (h *EditorHandler) SaveBlock(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	view, err := h.editorService.SaveBlock(c.Request.Context(), actor, c.Param("sid"), c.Param("blockId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddMovement appends a movement to a block's movement list.
// POST /sessions/:sid/blocks/:blockId/movements
func (h *EditorHandler) AddMovement(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var movement domain.Movement
	if err := c.ShouldBindJSON(&movement); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.AddMovement(blockID, movement)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// RemoveMovement drops the movement at :index.
// DELETE /sessions/:sid/blocks/:blockId/movements/:index
func (h *EditorHandler) RemoveMovement(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.RemoveMovement(blockID, index)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ReorderMovements moves one movement to a new position.
// POST /sessions/:sid/blocks/:blockId/movements/reorder
func (h *EditorHandler) ReorderMovements(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.ReorderMovements(blockID, req.From, req.To)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItem appends a food item to a meal block.
// POST /sessions/:sid/blocks/:blockId/items
func (h *EditorHandler) AddItem(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var item domain.ConfigItem
	if err := c.ShouldBindJSON(&item); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.AddMealItem(blockID, item)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// RemoveItem drops the meal block item at :index.
// DELETE /sessions/:sid/blocks/:blockId/items/:index
func (h *EditorHandler) RemoveItem(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := indexParam(c)
	if !ok {
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.RemoveMealItem(blockID, index)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ReorderItems moves one meal block item to a new position.
// POST /sessions/:sid/blocks/:blockId/items/reorder
func (h *EditorHandler) ReorderItems(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	blockID := c.Param("blockId")
	view, ok := sess.Store.ReorderMealItems(blockID, req.From, req.To)
	if !ok {
		rejectBlockEdit(c, sess.Store, blockID)
		return
	}
	c.JSON(http.StatusOK, view)
}

// --- Progressions and Saving ---

// Progression lists the blocks linked by a progression id, ordered by week.
// GET /sessions/:sid/progressions/:pid
func (h *EditorHandler) Progression(c *gin.Context) {
	_, sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Store.Progression(c.Param("pid")))
}

// SaveAll writes every dirty node of the session. When some writes fail the
// report is returned with 207 and the failed nodes stay dirty.
// POST /sessions/:sid/save
func (h *EditorHandler) SaveAll(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	report, err := h.editorService.SaveAll(c.Request.Context(), actor, c.Param("sid"))
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
