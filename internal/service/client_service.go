package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client not found")
	ErrClientAccessDenied    = errors.New("client belongs to another coach")
	ErrClientAlreadyAssigned = errors.New("profile is already linked to another coach")
	ErrClientNotRole         = errors.New("profile is not an athlete or gym")
)

// ClientInput is the data needed to create a client.
type ClientInput struct {
	Kind    domain.ClientKind
	Name    string
	Email   string
	Details map[string]any
}

// ClientPatch holds the client fields to overwrite. Details is merged key by
// key; a nil value removes the key.
type ClientPatch struct {
	Name    *string
	Email   *string
	Details map[string]any
}

type ClientService interface {
	ListClients(ctx context.Context, actor Actor) ([]domain.Client, error)
	CreateClient(ctx context.Context, actor Actor, input ClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, actor Actor, clientID string) (*domain.Client, error)
	UpdateClient(ctx context.Context, actor Actor, clientID string, patch ClientPatch) (*domain.Client, error)
	BulkDeleteClients(ctx context.Context, actor Actor, clientIDs []string) (*BulkResult, error)
	// MyCoaching returns the client records linked to the actor's own profile.
	MyCoaching(ctx context.Context, actor Actor) ([]domain.Client, error)
}

// clientService implements the ClientService interface.
type clientService struct {
	gw     repository.Gateway
	logger Logger
}

// NewClientService creates a new instance of clientService.
func NewClientService(gw repository.Gateway, logger Logger) ClientService {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &clientService{gw: gw, logger: logger}
}

// ListClients returns the coach's clients; admins see every client.
func (s *clientService) ListClients(ctx context.Context, actor Actor) ([]domain.Client, error) {
	if !actor.CanCoach() {
		return nil, ErrClientAccessDenied
	}
	var filter domain.Filter
	if !actor.IsAdmin() {
		filter = domain.Filter{"coach_id": actor.ID}
	}
	return listEntities[domain.Client](ctx, s.gw, domain.KindClients, filter)
}

// CreateClient adds a client for the coach. When a profile with the client's
// email exists it is linked to the new record.
func (s *clientService) CreateClient(ctx context.Context, actor Actor, input ClientInput) (*domain.Client, error) {
	// 1. Validate Input
	if !actor.CanCoach() {
		return nil, ErrClientAccessDenied
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, validationError("client name is required")
	}
	if input.Kind == "" {
		input.Kind = domain.ClientAthlete
	}
	if input.Kind != domain.ClientAthlete && input.Kind != domain.ClientGym {
		return nil, validationError("unknown client kind %q", input.Kind)
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	client := domain.Client{
		CoachID: actor.ID,
		Kind:    input.Kind,
		Name:    input.Name,
		Email:   email,
		Details: input.Details,
	}

	// 2. Link an existing profile
	if email != "" {
		profileID, err := s.linkableProfile(ctx, actor, email)
		if err != nil {
			return nil, err
		}
		client.ProfileID = profileID
	}

	// 3. Persist
	created, err := upsertEntity[domain.Client](ctx, s.gw, domain.KindClients, nil, client)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info("client created", "client_id", created.ID, "coach_id", actor.ID, "linked", created.ProfileID != nil)
	return created, nil
}

// linkableProfile returns the id of the athlete or gym profile with email, or
// nil when there is none. A profile already coached by someone else is refused.
func (s *clientService) linkableProfile(ctx context.Context, actor Actor, email string) (*string, error) {
	profiles, err := listEntities[domain.Profile](ctx, s.gw, domain.KindProfiles, domain.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	profile := profiles[0]
	if profile.Role != domain.RoleAthlete && profile.Role != domain.RoleGym {
		return nil, ErrClientNotRole
	}
	linked, err := listEntities[domain.Client](ctx, s.gw, domain.KindClients, domain.Filter{"profile_id": profile.ID})
	if err != nil {
		return nil, err
	}
	for _, c := range linked {
		if c.CoachID != actor.ID {
			return nil, ErrClientAlreadyAssigned
		}
	}
	return &profile.ID, nil
}

func (s *clientService) GetClient(ctx context.Context, actor Actor, clientID string) (*domain.Client, error) {
	client, err := getEntity[domain.Client](ctx, s.gw, domain.KindClients, clientID, ErrClientNotFound)
	if err != nil {
		return nil, err
	}
	if !actor.owns(client.CoachID) {
		return nil, ErrClientAccessDenied
	}
	return client, nil
}

func (s *clientService) UpdateClient(ctx context.Context, actor Actor, clientID string, patch ClientPatch) (*domain.Client, error) {
	client, err := s.GetClient(ctx, actor, clientID)
	if err != nil {
		return nil, err
	}
	fields := domain.Fields{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("client name is required")
		}
		fields["name"] = name
	}
	if patch.Email != nil {
		fields["email"] = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Details != nil {
		fields["details"] = mergeDetails(client.Details, patch.Details)
	}
	if len(fields) == 0 {
		return client, nil
	}
	return patchEntity[domain.Client](ctx, s.gw, domain.KindClients, clientID, fields)
}

// mergeDetails overlays patch on details. Nil values delete their key.
func mergeDetails(details, patch map[string]any) map[string]any {
	out := make(map[string]any, len(details)+len(patch))
	for k, v := range details {
		out[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// BulkDeleteClients deletes the clients the actor owns. Ids owned by someone
// else are reported as failures without a gateway call.
func (s *clientService) BulkDeleteClients(ctx context.Context, actor Actor, clientIDs []string) (*BulkResult, error) {
	if !actor.CanCoach() {
		return nil, ErrClientAccessDenied
	}
	var allowed []string
	var denied []BulkFailure
	if actor.IsAdmin() {
		allowed = clientIDs
	} else {
		owned, err := listEntities[domain.Client](ctx, s.gw, domain.KindClients, domain.Filter{"coach_id": actor.ID})
		if err != nil {
			return nil, err
		}
		mine := make(map[string]bool, len(owned))
		for _, c := range owned {
			mine[c.ID] = true
		}
		for _, id := range dedupe(clientIDs) {
			if mine[id] || id == "" {
				allowed = append(allowed, id)
			} else {
				denied = append(denied, BulkFailure{ID: id, Error: ErrClientAccessDenied.Error()})
			}
		}
	}
	result := BulkDelete(ctx, s.gw, domain.KindClients, allowed, DefaultBulkConcurrency)
	result.Failed = append(result.Failed, denied...)
	ok, failed := result.Counts()
	s.logger.Info("clients bulk delete", "coach_id", actor.ID, "succeeded", ok, "failed", failed)
	return &result, nil
}

func (s *clientService) MyCoaching(ctx context.Context, actor Actor) ([]domain.Client, error) {
	if actor.ID == "" {
		return nil, ErrAccessDenied
	}
	return listEntities[domain.Client](ctx, s.gw, domain.KindClients, domain.Filter{"profile_id": actor.ID})
}
