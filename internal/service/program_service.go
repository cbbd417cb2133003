package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
)

// --- Error Definitions ---
var (
	ErrProgramNotFound     = errors.New("program not found")
	ErrProgramAccessDenied = errors.New("access denied to this program")
)

// MaxWeeks caps the length of a program.
const MaxWeeks = 52

// ProgramInput is the data needed to create a program.
type ProgramInput struct {
	Name        string
	Description string
	IsTemplate  bool
	Attributes  map[string]any
	Weeks       int // mesocycles created up front
}

// ProgramPatch holds the metadata fields to overwrite. Nil fields are left alone.
type ProgramPatch struct {
	Name        *string
	Description *string
	Status      *domain.ProgramStatus
	IsTemplate  *bool
	Attributes  map[string]any // replaces the whole bag when non-nil
}

type ProgramService interface {
	ListPrograms(ctx context.Context, actor Actor) ([]domain.Program, error)
	CreateProgram(ctx context.Context, actor Actor, input ProgramInput) (*domain.Program, error)
	GetProgram(ctx context.Context, actor Actor, programID string) (*domain.Program, error)
	UpdateProgram(ctx context.Context, actor Actor, programID string, patch ProgramPatch) (*domain.Program, error)
	DeleteProgram(ctx context.Context, actor Actor, programID string) error
	AddWeek(ctx context.Context, actor Actor, programID, focus string) (*domain.Mesocycle, error)
	LoadTree(ctx context.Context, actor Actor, programID string) (*draft.Tree, error)
	DuplicateProgram(ctx context.Context, actor Actor, programID, name string) (*domain.Program, error)
	// ImportTree writes a whole tree as a new program owned by actor.
	ImportTree(ctx context.Context, actor Actor, tree draft.Tree) (*domain.Program, error)
}

// programService implements the ProgramService interface.
type programService struct {
	gw     repository.Gateway
	ids    IDGenerator
	logger Logger
}

// NewProgramService creates a new instance of programService.
func NewProgramService(gw repository.Gateway, ids IDGenerator, logger Logger) ProgramService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &programService{gw: gw, ids: ids, logger: logger}
}

// ListPrograms returns the actor's programs plus shared templates; admins see everything.
func (s *programService) ListPrograms(ctx context.Context, actor Actor) ([]domain.Program, error) {
	if !actor.CanCoach() {
		return nil, ErrProgramAccessDenied
	}
	if actor.IsAdmin() {
		return listEntities[domain.Program](ctx, s.gw, domain.KindPrograms, nil)
	}
	owned, err := listEntities[domain.Program](ctx, s.gw, domain.KindPrograms, domain.Filter{"owner_id": actor.ID})
	if err != nil {
		return nil, err
	}
	templates, err := listEntities[domain.Program](ctx, s.gw, domain.KindPrograms, domain.Filter{"is_template": true})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(owned))
	for _, p := range owned {
		seen[p.ID] = true
	}
	for _, p := range templates {
		if !seen[p.ID] {
			owned = append(owned, p)
		}
	}
	return owned, nil
}

func (s *programService) CreateProgram(ctx context.Context, actor Actor, input ProgramInput) (*domain.Program, error) {
	if !actor.CanCoach() {
		return nil, ErrProgramAccessDenied
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, validationError("program name is required")
	}
	if input.Weeks < 0 || input.Weeks > MaxWeeks {
		return nil, validationError("weeks must be between 0 and %d", MaxWeeks)
	}

	program, err := upsertEntity[domain.Program](ctx, s.gw, domain.KindPrograms, nil, domain.Program{
		OwnerID:     actor.ID,
		Name:        input.Name,
		Description: input.Description,
		Status:      domain.ProgramDraft,
		IsTemplate:  input.IsTemplate,
		Attributes:  input.Attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	for n := 1; n <= input.Weeks; n++ {
		if _, err := s.createWeek(ctx, program.ID, n, ""); err != nil {
			return nil, err
		}
	}
	s.logger.Info("program created", "program_id", program.ID, "owner_id", actor.ID, "weeks", input.Weeks)
	return program, nil
}

// GetProgram returns a program the actor owns, or any template.
func (s *programService) GetProgram(ctx context.Context, actor Actor, programID string) (*domain.Program, error) {
	program, err := getEntity[domain.Program](ctx, s.gw, domain.KindPrograms, programID, ErrProgramNotFound)
	if err != nil {
		return nil, err
	}
	if !actor.owns(program.OwnerID) && !(program.IsTemplate && actor.CanCoach()) {
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

// editable returns the program when the actor may modify it.
func (s *programService) editable(ctx context.Context, actor Actor, programID string) (*domain.Program, error) {
	program, err := getEntity[domain.Program](ctx, s.gw, domain.KindPrograms, programID, ErrProgramNotFound)
	if err != nil {
		return nil, err
	}
	if !actor.owns(program.OwnerID) {
		return nil, ErrProgramAccessDenied
	}
	return program, nil
}

func (s *programService) UpdateProgram(ctx context.Context, actor Actor, programID string, patch ProgramPatch) (*domain.Program, error) {
	if _, err := s.editable(ctx, actor, programID); err != nil {
		return nil, err
	}
	fields := domain.Fields{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("program name is required")
		}
		fields["name"] = name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, validationError("unknown status %q", *patch.Status)
		}
		fields["status"] = string(*patch.Status)
	}
	if patch.IsTemplate != nil {
		fields["is_template"] = *patch.IsTemplate
	}
	if patch.Attributes != nil {
		fields["attributes"] = patch.Attributes
	}
	return patchEntity[domain.Program](ctx, s.gw, domain.KindPrograms, programID, fields)
}

// DeleteProgram removes the program and every descendant, leaves first.
// There is no transaction: a failure part-way leaves the remaining rows in place
// and the call can be retried.
func (s *programService) DeleteProgram(ctx context.Context, actor Actor, programID string) error {
	if _, err := s.editable(ctx, actor, programID); err != nil {
		return err
	}
	tree, err := s.loadTree(ctx, programID)
	if err != nil {
		return err
	}
	steps := []struct {
		kind domain.EntityKind
		ids  []string
	}{
		{domain.KindBlocks, ids(tree.Blocks, func(b domain.Block) string { return b.ID })},
		{domain.KindDays, ids(tree.Days, func(d domain.Day) string { return d.ID })},
		{domain.KindMesocycles, ids(tree.Mesocycles, func(m domain.Mesocycle) string { return m.ID })},
		{domain.KindPrograms, []string{programID}},
	}
	for _, step := range steps {
		for _, id := range step.ids {
			if err := s.gw.Delete(ctx, step.kind, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("delete %s %s: %w", step.kind, id, err)
			}
		}
	}
	s.logger.Info("program deleted", "program_id", programID, "blocks", len(tree.Blocks), "days", len(tree.Days))
	return nil
}

// AddWeek appends the next week to the program.
func (s *programService) AddWeek(ctx context.Context, actor Actor, programID, focus string) (*domain.Mesocycle, error) {
	if _, err := s.editable(ctx, actor, programID); err != nil {
		return nil, err
	}
	weeks, err := listEntities[domain.Mesocycle](ctx, s.gw, domain.KindMesocycles, domain.Filter{"program_id": programID})
	if err != nil {
		return nil, err
	}
	next := 1
	for _, w := range weeks {
		if w.WeekNumber >= next {
			next = w.WeekNumber + 1
		}
	}
	if next > MaxWeeks {
		return nil, validationError("a program has at most %d weeks", MaxWeeks)
	}
	return s.createWeek(ctx, programID, next, focus)
}

func (s *programService) createWeek(ctx context.Context, programID string, n int, focus string) (*domain.Mesocycle, error) {
	m, err := upsertEntity[domain.Mesocycle](ctx, s.gw, domain.KindMesocycles, nil, domain.Mesocycle{
		ProgramID:  programID,
		WeekNumber: n,
		Focus:      focus,
	})
	if err != nil {
		return nil, fmt.Errorf("create week %d: %w", n, err)
	}
	return m, nil
}

func (s *programService) LoadTree(ctx context.Context, actor Actor, programID string) (*draft.Tree, error) {
	if _, err := s.GetProgram(ctx, actor, programID); err != nil {
		return nil, err
	}
	return s.loadTree(ctx, programID)
}

// loadTree reads a program level by level: weeks, then days, then blocks.
func (s *programService) loadTree(ctx context.Context, programID string) (*draft.Tree, error) {
	program, err := getEntity[domain.Program](ctx, s.gw, domain.KindPrograms, programID, ErrProgramNotFound)
	if err != nil {
		return nil, err
	}
	tree := &draft.Tree{Program: *program}

	tree.Mesocycles, err = listEntities[domain.Mesocycle](ctx, s.gw, domain.KindMesocycles, domain.Filter{"program_id": programID})
	if err != nil {
		return nil, fmt.Errorf("load weeks: %w", err)
	}
	if len(tree.Mesocycles) == 0 {
		return tree, nil
	}
	mesoIDs := ids(tree.Mesocycles, func(m domain.Mesocycle) string { return m.ID })
	tree.Days, err = listEntities[domain.Day](ctx, s.gw, domain.KindDays, domain.Filter{"mesocycle_id": mesoIDs})
	if err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	if len(tree.Days) == 0 {
		return tree, nil
	}
	dayIDs := ids(tree.Days, func(d domain.Day) string { return d.ID })
	tree.Blocks, err = listEntities[domain.Block](ctx, s.gw, domain.KindBlocks, domain.Filter{"day_id": dayIDs})
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	return tree, nil
}

// DuplicateProgram copies a program the actor can read into a new draft owned
// by the actor. Every node gets a fresh id and progression ids are remapped so
// the copy's progression groups match the source's without sharing ids.
func (s *programService) DuplicateProgram(ctx context.Context, actor Actor, programID, name string) (*domain.Program, error) {
	if !actor.CanCoach() {
		return nil, ErrProgramAccessDenied
	}
	tree, err := s.LoadTree(ctx, actor, programID)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = tree.Program.Name + " (copy)"
	}
	tree.Program.Name = name
	tree.Program.IsTemplate = false
	program, err := s.ImportTree(ctx, actor, *tree)
	if err != nil {
		return nil, err
	}
	s.logger.Info("program duplicated", "source_id", programID, "program_id", program.ID)
	return program, nil
}

func (s *programService) ImportTree(ctx context.Context, actor Actor, tree draft.Tree) (*domain.Program, error) {
	if !actor.CanCoach() {
		return nil, ErrProgramAccessDenied
	}
	src := tree.Program
	if strings.TrimSpace(src.Name) == "" {
		return nil, validationError("program name is required")
	}
	for _, b := range tree.Blocks {
		if b.Config != nil && b.Config.BlockType() != b.Type {
			return nil, validationError("block %s config does not match type %s", b.ID, b.Type)
		}
	}

	program, err := upsertEntity[domain.Program](ctx, s.gw, domain.KindPrograms, nil, domain.Program{
		OwnerID:     actor.ID,
		Name:        src.Name,
		Description: src.Description,
		Status:      domain.ProgramDraft,
		IsTemplate:  src.IsTemplate,
		Attributes:  src.Attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	mesoIDs := make(map[string]string, len(tree.Mesocycles))
	for _, m := range tree.Mesocycles {
		created, err := upsertEntity[domain.Mesocycle](ctx, s.gw, domain.KindMesocycles, nil, domain.Mesocycle{
			ProgramID:  program.ID,
			WeekNumber: m.WeekNumber,
			Focus:      m.Focus,
			Attributes: m.Attributes,
		})
		if err != nil {
			return nil, fmt.Errorf("copy week %d: %w", m.WeekNumber, err)
		}
		mesoIDs[m.ID] = created.ID
	}

	dayIDs := make(map[string]string, len(tree.Days))
	for _, d := range tree.Days {
		mesoID, ok := mesoIDs[d.MesocycleID]
		if !ok {
			continue
		}
		copyDay := d.Clone()
		copyDay.ID = ""
		copyDay.MesocycleID = mesoID
		created, err := upsertEntity[domain.Day](ctx, s.gw, domain.KindDays, nil, copyDay)
		if err != nil {
			return nil, fmt.Errorf("copy day: %w", err)
		}
		dayIDs[d.ID] = created.ID
	}

	progressions := make(map[string]string)
	for _, b := range tree.Blocks {
		dayID, ok := dayIDs[b.DayID]
		if !ok {
			continue
		}
		copyBlock := b.Clone()
		copyBlock.ID = ""
		copyBlock.DayID = dayID
		if b.ProgressionID != nil {
			mapped, ok := progressions[*b.ProgressionID]
			if !ok {
				mapped = s.ids.New()
				progressions[*b.ProgressionID] = mapped
			}
			copyBlock.ProgressionID = &mapped
		}
		if _, err := upsertEntity[domain.Block](ctx, s.gw, domain.KindBlocks, nil, copyBlock); err != nil {
			return nil, fmt.Errorf("copy block: %w", err)
		}
	}
	return program, nil
}
