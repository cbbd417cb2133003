package api

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ProgramHandler struct {
	programService service.ProgramService
	editorService  service.EditorService
	exportService  service.ExportService
}

func NewProgramHandler(
	programService service.ProgramService,
	editorService service.EditorService,
	exportService service.ExportService,
) *ProgramHandler {
	return &ProgramHandler{
		programService: programService,
		editorService:  editorService,
		exportService:  exportService,
	}
}

// --- DTOs for Program Management ---

type CreateProgramRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	IsTemplate  bool           `json:"isTemplate"`
	Attributes  map[string]any `json:"attributes"`
	Weeks       int            `json:"weeks" binding:"min=0"`
}

type UpdateProgramRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *domain.ProgramStatus `json:"status"`
	IsTemplate  *bool                 `json:"isTemplate"`
	Attributes  map[string]any        `json:"attributes"`
}

type AddWeekRequest struct {
	Focus string `json:"focus"`
}

type DuplicateProgramRequest struct {
	Name string `json:"name"`
}

type ProgramResponse struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"ownerId"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Status      domain.ProgramStatus `json:"status"`
	IsTemplate  bool                 `json:"isTemplate"`
	Attributes  map[string]any       `json:"attributes,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ProgramTreeResponse is a program with every persisted week, day and block.
type ProgramTreeResponse struct {
	ProgramResponse
	Mesocycles []domain.Mesocycle `json:"mesocycles"`
	Days       []domain.Day       `json:"days"`
	Blocks     []domain.Block     `json:"blocks"`
}

type ExportResponse struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func MapProgramToResponse(p *domain.Program) ProgramResponse {
	if p == nil {
		return ProgramResponse{}
	}
	return ProgramResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		IsTemplate:  p.IsTemplate,
		Attributes:  p.Attributes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func MapProgramsToResponse(programs []domain.Program) []ProgramResponse {
	responses := make([]ProgramResponse, len(programs))
	for i := range programs {
		responses[i] = MapProgramToResponse(&programs[i])
	}
	return responses
}

func MapTreeToResponse(tree *draft.Tree) ProgramTreeResponse {
	resp := ProgramTreeResponse{
		ProgramResponse: MapProgramToResponse(&tree.Program),
		Mesocycles:      tree.Mesocycles,
		Days:            tree.Days,
		Blocks:          tree.Blocks,
	}
	// Return empty JSON arrays, not null
	if resp.Mesocycles == nil {
		resp.Mesocycles = []domain.Mesocycle{}
	}
	if resp.Days == nil {
		resp.Days = []domain.Day{}
	}
	if resp.Blocks == nil {
		resp.Blocks = []domain.Block{}
	}
	return resp
}

func MapExportToResponse(r *service.ExportResult) ExportResponse {
	return ExportResponse{ObjectKey: r.ObjectKey, DownloadURL: r.DownloadURL, ExpiresAt: r.ExpiresAt}
}

// --- Handler Methods ---

// ListPrograms returns the caller's programs and the shared templates.
// GET /programs
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programs, err := h.programService.ListPrograms(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramsToResponse(programs))
}

// CreateProgram creates a program with its first weeks.
// POST /programs
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.CreateProgram(c.Request.Context(), actor, service.ProgramInput{
		Name:        req.Name,
		Description: req.Description,
		IsTemplate:  req.IsTemplate,
		Attributes:  req.Attributes,
		Weeks:       req.Weeks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// GetProgram returns the full persisted tree of a program.
// GET /programs/:id
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	tree, err := h.programService.LoadTree(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTreeToResponse(tree))
}

// UpdateProgram overwrites program metadata.
// PATCH /programs/:id
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.UpdateProgram(c.Request.Context(), actor, c.Param("id"), service.ProgramPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		IsTemplate:  req.IsTemplate,
		Attributes:  req.Attributes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// DeleteProgram deletes a program with its whole tree and closes its editor sessions.
// DELETE /programs/:id
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	programID := c.Param("id")
	if err := h.programService.DeleteProgram(c.Request.Context(), actor, programID); err != nil {
		respondError(c, err)
		return
	}
	h.editorService.CloseProgramSessions(programID)
	c.Status(http.StatusNoContent)
}

// AddWeek appends the next week to a program.
// POST /programs/:id/weeks
func (h *ProgramHandler) AddWeek(c *gin.Context) {
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

	week, err := h.programService.AddWeek(c.Request.Context(), actor, c.Param("id"), req.Focus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, week)
}

// DuplicateProgram copies a program or template into a new draft owned by the caller.
// POST /programs/:id/duplicate
func (h *ProgramHandler) DuplicateProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req DuplicateProgramRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}

	program, err := h.programService.DuplicateProgram(c.Request.Context(), actor, c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// ExportProgram renders the persisted program to a workbook and returns a download link.
// POST /programs/:id/export
func (h *ProgramHandler) ExportProgram(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	result, err := h.exportService.ExportProgram(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExportToResponse(result))
}
