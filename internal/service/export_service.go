package service

import (
	"alcyxob/coach-dashboard/internal/export"
	"alcyxob/coach-dashboard/internal/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrExportFailed      = errors.New("failed to build export")
	ErrDownloadURLFailed = errors.New("failed to generate download URL")
)

// ExportResult points at an uploaded workbook.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type ExportService interface {
	ExportProgram(ctx context.Context, actor Actor, programID string) (*ExportResult, error)
	ExportMealPlan(ctx context.Context, actor Actor, planID string) (*ExportResult, error)
}

type exportService struct {
	programs  ProgramService
	nutrition NutritionService
	files     storage.FileStorage
	prefix    string
	expiry    time.Duration
	clock     Clock
	ids       IDGenerator
	logger    Logger
}

// ExportOptions places exports in storage.
type ExportOptions struct {
	Prefix    string
	URLExpiry time.Duration
}

// NewExportService creates a new instance of exportService.
func NewExportService(programs ProgramService, nutrition NutritionService, files storage.FileStorage, opts ExportOptions, clock Clock, ids IDGenerator, logger Logger) ExportService {
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = storage.DefaultPresignedURLExpiry
	}
	if clock == nil {
		clock = RealClock{}
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &exportService{
		programs:  programs,
		nutrition: nutrition,
		files:     files,
		prefix:    strings.Trim(opts.Prefix, "/"),
		expiry:    opts.URLExpiry,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// ExportProgram renders the persisted program tree. Unsaved session edits are not included.
func (s *exportService) ExportProgram(ctx context.Context, actor Actor, programID string) (*ExportResult, error) {
	tree, err := s.programs.LoadTree(ctx, actor, programID)
	if err != nil {
		return nil, err
	}
	data, err := export.ProgramWorkbook(*tree)
	if err != nil {
		s.logger.Error("program workbook failed", "program_id", programID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return s.publish(ctx, "programs", programID, data)
}

func (s *exportService) ExportMealPlan(ctx context.Context, actor Actor, planID string) (*ExportResult, error) {
	plan, err := s.nutrition.LoadMealPlan(ctx, actor, planID)
	if err != nil {
		return nil, err
	}
	data, err := export.MealPlanWorkbook(plan.Plan(), plan.Meals())
	if err != nil {
		s.logger.Error("meal plan workbook failed", "meal_plan_id", planID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	return s.publish(ctx, "meal-plans", planID, data)
}

// publish uploads the workbook and presigns a download link for it.
func (s *exportService) publish(ctx context.Context, kind, id string, data []byte) (*ExportResult, error) {
	// Construct a unique object key (e.g., exports/programs/<id>/<uuid>.xlsx)
	key := path.Join(s.prefix, kind, id, s.ids.New()+".xlsx")
	if err := s.files.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), export.ContentType); err != nil {
		s.logger.Error("export upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := s.files.GeneratePresignedDownloadURL(ctx, key, s.expiry)
	if err != nil {
		s.logger.Error("export presign failed", "key", key, "error", err)
		// nobody can fetch the workbook without a link
		if derr := s.files.DeleteObject(ctx, key); derr != nil {
			s.logger.Warn("export cleanup failed", "key", key, "error", derr)
		}
		return nil, ErrDownloadURLFailed
	}
	s.logger.Info("export published", "key", key, "bytes", len(data))
	return &ExportResult{
		ObjectKey:   key,
		DownloadURL: url,
		ExpiresAt:   s.clock.Now().Add(s.expiry),
	}, nil
}
