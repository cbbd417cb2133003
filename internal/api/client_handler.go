package api

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// --- DTOs for Client Management ---

type CreateClientRequest struct {
	Kind    domain.ClientKind `json:"kind" binding:"required,oneof=athlete gym"`
	Name    string            `json:"name"`
	Email   string            `json:"email" binding:"omitempty,email"`
	Details map[string]any    `json:"details"`
}

// UpdateClientRequest merges details key by key; a null value removes the key.
type UpdateClientRequest struct {
	Name    *string        `json:"name"`
	Email   *string        `json:"email" binding:"omitempty,email"`
	Details map[string]any `json:"details"`
}

type ClientResponse struct {
	ID        string            `json:"id"`
	CoachID   string            `json:"coachId"`
	ProfileID *string           `json:"profileId,omitempty"`
	Kind      domain.ClientKind `json:"kind"`
	Name      string            `json:"name"`
	Email     string            `json:"email,omitempty"`
	Details   map[string]any    `json:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

func MapClientToResponse(cl *domain.Client) ClientResponse {
	if cl == nil {
		return ClientResponse{}
	}
	return ClientResponse{
		ID:        cl.ID,
		CoachID:   cl.CoachID,
		ProfileID: cl.ProfileID,
		Kind:      cl.Kind,
		Name:      cl.Name,
		Email:     cl.Email,
		Details:   cl.Details,
		CreatedAt: cl.CreatedAt,
		UpdatedAt: cl.UpdatedAt,
	}
}

func MapClientsToResponse(clients []domain.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = MapClientToResponse(&clients[i])
	}
	return responses
}

// --- Handler Methods ---

// ListClients returns the caller's clients.
// GET /clients
func (h *ClientHandler) ListClients(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	clients, err := h.clientService.ListClients(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}

// CreateClient adds a client. An email that belongs to an athlete or gym
// account links the client to that profile.
// POST /clients
func (h *ClientHandler) CreateClient(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	client, err := h.clientService.CreateClient(c.Request.Context(), actor, service.ClientInput{
		Kind:    req.Kind,
		Name:    req.Name,
		Email:   req.Email,
		Details: req.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapClientToResponse(client))
}

// GetClient returns one client.
// GET /clients/:id
func (h *ClientHandler) GetClient(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	client, err := h.clientService.GetClient(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// UpdateClient patches a client's profile.
// PATCH /clients/:id
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	client, err := h.clientService.UpdateClient(c.Request.Context(), actor, c.Param("id"), service.ClientPatch{
		Name:    req.Name,
		Email:   req.Email,
		Details: req.Details,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// BulkDeleteClients removes many clients and reports the outcome of each id.
// POST /clients/bulk-delete
func (h *ClientHandler) BulkDeleteClients(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	clients, err := h.clientService.ListClients(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.clientService.BulkDeleteClients(c.Request.Context(), actor, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	remaining := service.PruneDeleted(clients, func(cl domain.Client) string { return cl.ID }, *result)
	c.JSON(http.StatusOK, BulkDeleteResponse[ClientResponse]{
		BulkResult: result,
		Items:      MapClientsToResponse(remaining),
	})
}

// MyCoaching returns the coaching relationships of an athlete or gym account.
// GET /me/coaching
func (h *ClientHandler) MyCoaching(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	clients, err := h.clientService.MyCoaching(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}
