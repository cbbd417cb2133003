package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDayNotFound   = errors.New("day not found in session")
	ErrBlockNotFound = errors.New("block not found in session")
	ErrPartialSave   = errors.New("some changes could not be saved")
)

// EditorSession is an open draft of one program.
type EditorSession struct {
	ID        string
	ProgramID string
	Store     *draft.Store
}

// SaveFailure is one node that could not be written.
type SaveFailure struct {
	Kind  domain.EntityKind `json:"kind"`
	ID    string            `json:"id"`
	Error string            `json:"error"`
}

// SaveReport summarizes one save of a session.
type SaveReport struct {
	DaysSaved     int           `json:"days_saved"`
	BlocksSaved   int           `json:"blocks_saved"`
	BlocksDeleted int           `json:"blocks_deleted"`
	Failures      []SaveFailure `json:"failures,omitempty"`
}

func (r *SaveReport) fail(kind domain.EntityKind, id string, err error) {
	r.Failures = append(r.Failures, SaveFailure{Kind: kind, ID: id, Error: err.Error()})
}

// EditorOptions bounds the number and lifetime of open sessions.
type EditorOptions struct {
	SessionTTL  time.Duration
	MaxSessions int
}

type EditorService interface {
	OpenSession(ctx context.Context, actor Actor, programID string) (*EditorSession, error)
	Session(actor Actor, sessionID string) (*EditorSession, error)
	CloseSession(actor Actor, sessionID string) error
	// CloseProgramSessions drops every session of a program, e.g. after it is deleted.
	CloseProgramSessions(programID string) int
	AddWeek(ctx context.Context, actor Actor, sessionID, focus string) (*domain.Mesocycle, error)
	SaveDay(ctx context.Context, actor Actor, sessionID, dayID string) (*draft.DayView, error)
	SaveBlock(ctx context.Context, actor Actor, sessionID, blockID string) (*draft.BlockView, error)
	SaveAll(ctx context.Context, actor Actor, sessionID string) (*SaveReport, error)
	// Sweep closes idle sessions and returns how many were closed.
	Sweep() int
}

type editorService struct {
	gw       repository.Gateway
	programs ProgramService
	sessions *sessionRegistry[*draft.Store]
	ids      IDGenerator
	logger   Logger
}

// NewEditorService creates a new instance of editorService.
func NewEditorService(gw repository.Gateway, programs ProgramService, opts EditorOptions, clock Clock, ids IDGenerator, logger Logger) EditorService {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &editorService{
		gw:       gw,
		programs: programs,
		sessions: newSessionRegistry[*draft.Store](opts.SessionTTL, opts.MaxSessions, clock, ids),
		ids:      ids,
		logger:   logger,
	}
}

func (s *editorService) OpenSession(ctx context.Context, actor Actor, programID string) (*EditorSession, error) {
	program, err := s.programs.GetProgram(ctx, actor, programID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(program.OwnerID) {
		return nil, ErrProgramAccessDenied
	}
	tree, err := s.programs.LoadTree(ctx, actor, programID)
	if err != nil {
		return nil, err
	}
	store := draft.New(*tree, draft.WithIDGenerator(s.ids.New))
	id, err := s.sessions.open(actor.ID, programID, store)
	if err != nil {
		return nil, err
	}
	s.logger.Info("editor session opened", "session_id", id, "program_id", programID,
		"weeks", len(tree.Mesocycles), "days", len(tree.Days), "blocks", len(tree.Blocks))
	return &EditorSession{ID: id, ProgramID: programID, Store: store}, nil
}

func (s *editorService) Session(actor Actor, sessionID string) (*EditorSession, error) {
	sess, err := s.sessions.get(actor, sessionID)
	if err != nil {
		return nil, err
	}
	return &EditorSession{ID: sess.id, ProgramID: sess.targetID, Store: sess.draft}, nil
}

func (s *editorService) CloseSession(actor Actor, sessionID string) error {
	if err := s.sessions.close(actor, sessionID); err != nil {
		return err
	}
	s.logger.Debug("editor session closed", "session_id", sessionID)
	return nil
}

func (s *editorService) CloseProgramSessions(programID string) int {
	return s.sessions.closeTarget(programID)
}

func (s *editorService) Sweep() int {
	n := s.sessions.sweep()
	if n > 0 {
		s.logger.Info("expired editor sessions closed", "count", n)
	}
	return n
}

// AddWeek persists the next week and adds it to the session.
func (s *editorService) AddWeek(ctx context.Context, actor Actor, sessionID, focus string) (*domain.Mesocycle, error) {
	sess, err := s.Session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	week, err := s.programs.AddWeek(ctx, actor, sess.ProgramID, focus)
	if err != nil {
		return nil, err
	}
	sess.Store.AddMesocycle(*week)
	return week, nil
}

func (s *editorService) SaveDay(ctx context.Context, actor Actor, sessionID, dayID string) (*draft.DayView, error) {
	sess, err := s.Session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	view, ok := sess.Store.Day(draft.ByID(dayID))
	if !ok || view.Placeholder {
		return nil, ErrDayNotFound
	}
	if err := s.saveDay(ctx, sess.Store, view); err != nil {
		return nil, err
	}
	// a new day is re-keyed to the id the gateway assigned
	saved := s.findDay(sess.Store, view.Day.MesocycleID, view.Day.DayNumber)
	return &saved, nil
}

// SaveBlock writes one block, saving its day first when the day has never been written.
func (s *editorService) SaveBlock(ctx context.Context, actor Actor, sessionID, blockID string) (*draft.BlockView, error) {
	sess, err := s.Session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	view, ok := sess.Store.Block(blockID)
	if !ok {
		return nil, ErrBlockNotFound
	}
	day, ok := sess.Store.Day(draft.ByID(view.Block.DayID))
	if !ok {
		return nil, ErrDayNotFound
	}
	if !day.Persisted {
		if err := s.saveDay(ctx, sess.Store, day); err != nil {
			return nil, fmt.Errorf("save day of block: %w", err)
		}
		view, _ = sess.Store.Block(blockID)
	}
	id, err := s.saveBlock(ctx, sess.Store, view)
	if err != nil {
		return nil, err
	}
	saved, ok := sess.Store.Block(id)
	if !ok {
		return nil, ErrBlockNotFound
	}
	return &saved, nil
}

// SaveAll writes every dirty day, then every dirty block, then the queued
// block deletes. Each write is independent: a failure is reported and leaves
// that node dirty while the others go through.
func (s *editorService) SaveAll(ctx context.Context, actor Actor, sessionID string) (*SaveReport, error) {
	sess, err := s.Session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	store := sess.Store
	report := &SaveReport{}

	for _, day := range store.DirtyDays() {
		if err := s.saveDay(ctx, store, day); err != nil {
			report.fail(domain.KindDays, day.Day.ID, err)
			continue
		}
		report.DaysSaved++
	}

	for _, block := range store.DirtyBlocks() {
		day, ok := store.Day(draft.ByID(block.Block.DayID))
		if !ok || !day.Persisted {
			report.fail(domain.KindBlocks, block.Block.ID, errors.New("day is not saved"))
			continue
		}
		if _, err := s.saveBlock(ctx, store, block); err != nil {
			report.fail(domain.KindBlocks, block.Block.ID, err)
			continue
		}
		report.BlocksSaved++
	}

	if pending := store.PendingBlockDeletes(); len(pending) > 0 {
		result := flushDeletes(ctx, s.gw, domain.KindBlocks, pending)
		for _, id := range result.Succeeded {
			store.MarkBlockDeleted(id)
		}
		report.BlocksDeleted = len(result.Succeeded)
		for _, f := range result.Failed {
			report.Failures = append(report.Failures, SaveFailure{Kind: domain.KindBlocks, ID: f.ID, Error: f.Error})
		}
	}

	s.logger.Info("editor session saved", "session_id", sessionID, "program_id", sess.ProgramID,
		"days", report.DaysSaved, "blocks", report.BlocksSaved, "deleted", report.BlocksDeleted,
		"failures", len(report.Failures))
	if len(report.Failures) > 0 {
		return report, fmt.Errorf("%w: %d failed", ErrPartialSave, len(report.Failures))
	}
	return report, nil
}

func (s *editorService) saveDay(ctx context.Context, store *draft.Store, view draft.DayView) error {
	if err := validateDay(view.Day); err != nil {
		return err
	}
	var id *string
	if view.Persisted {
		id = &view.Day.ID
	}
	saved, err := upsertEntity[domain.Day](ctx, s.gw, domain.KindDays, id, view.Day, dayNullable...)
	if err != nil {
		s.logger.Warn("day save failed", "day_id", view.Day.ID, "error", err)
		return fmt.Errorf("save day: %w", err)
	}
	store.MarkDaySaved(view.Day.ID, view.Revision, *saved)
	return nil
}

// saveBlock returns the block's id after the write.
func (s *editorService) saveBlock(ctx context.Context, store *draft.Store, view draft.BlockView) (string, error) {
	if err := validateBlock(view.Block); err != nil {
		return "", err
	}
	var id *string
	if view.Persisted {
		id = &view.Block.ID
	}
	saved, err := upsertEntity[domain.Block](ctx, s.gw, domain.KindBlocks, id, view.Block, blockNullable...)
	if err != nil {
		s.logger.Warn("block save failed", "block_id", view.Block.ID, "error", err)
		return "", fmt.Errorf("save block: %w", err)
	}
	if !store.MarkBlockSaved(view.Block.ID, view.Revision, *saved) {
		s.logger.Info("block removed during save, row queued for deletion", "block_id", saved.ID)
	}
	return saved.ID, nil
}

func (s *editorService) findDay(store *draft.Store, mesocycleID string, dayNumber int) draft.DayView {
	view, _ := store.Day(draft.Slot(mesocycleID, dayNumber))
	return view
}

var (
	dayNullable   = []string{"name", "notes", "stimulus_id"}
	blockNullable = []string{"format", "config", "progression_id"}
)

func validateDay(d domain.Day) error {
	if d.MesocycleID == "" {
		return validationError("day has no week")
	}
	if !domain.ValidDayNumber(d.DayNumber) {
		return validationError("day number %d out of range", d.DayNumber)
	}
	return nil
}

func validateBlock(b domain.Block) error {
	if b.DayID == "" {
		return validationError("block has no day")
	}
	if b.Config == nil {
		if _, err := domain.NewBlockConfig(b.Type); err != nil {
			return validationError("%v", err)
		}
		return nil
	}
	if b.Config.BlockType() != b.Type {
		return validationError("config type %q does not match block type %q", b.Config.BlockType(), b.Type)
	}
	if v, ok := b.Config.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return validationError("%v", err)
		}
	}
	return nil
}
