package service

import (
	"alcyxob/coach-dashboard/internal/export"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"alcyxob/coach-dashboard/internal/storage"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newExportFixture(t *testing.T) (*memory.Gateway, *storage.MemoryStorage, *fakeClock, ExportService) {
	t.Helper()
	gw := memory.NewGateway()
	clock := newFakeClock()
	files := storage.NewMemoryStorage("http://files.test")
	programs := NewProgramService(gw, nil, NewNopLogger())
	nutrition := NewNutritionService(gw, EditorOptions{}, clock, nil, NewNopLogger())
	svc := NewExportService(programs, nutrition, files, ExportOptions{Prefix: "/exports/", URLExpiry: 10 * time.Minute},
		clock, &sequentialIDs{prefix: "x"}, NewNopLogger())
	return gw, files, clock, svc
}

func TestExportProgramUploadsWorkbook(t *testing.T) {
	gw, files, clock, svc := newExportFixture(t)
	seedProgram(t, gw, coach.ID)

	res, err := svc.ExportProgram(context.Background(), coach, "p1")
	if err != nil {
		t.Fatalf("ExportProgram: %v", err)
	}
	if res.ObjectKey != "exports/programs/p1/x-1.xlsx" {
		t.Errorf("key = %q", res.ObjectKey)
	}
	if !strings.HasPrefix(res.DownloadURL, "http://files.test/") {
		t.Errorf("url = %q", res.DownloadURL)
	}
	if !res.ExpiresAt.Equal(clock.Now().Add(10 * time.Minute)) {
		t.Errorf("expires at %v", res.ExpiresAt)
	}
	obj, ok := files.Object(res.ObjectKey)
	if !ok || obj.ContentType != export.ContentType || len(obj.Data) == 0 {
		t.Errorf("stored object = %+v, %v", obj.ContentType, ok)
	}
}

func TestExportProgramDenied(t *testing.T) {
	gw, _, _, svc := newExportFixture(t)
	seedProgram(t, gw, coach.ID)
	if _, err := svc.ExportProgram(context.Background(), rival, "p1"); !errors.Is(err, ErrProgramAccessDenied) {
		t.Errorf("err = %v", err)
	}
}

func TestExportMealPlan(t *testing.T) {
	gw, files, _, svc := newExportFixture(t)
	seedMealPlan(t, gw)

	res, err := svc.ExportMealPlan(context.Background(), coach, "plan")
	if err != nil {
		t.Fatalf("ExportMealPlan: %v", err)
	}
	if _, ok := files.Object(res.ObjectKey); !ok {
		t.Errorf("object %q not stored", res.ObjectKey)
	}
}

type unsignedStorage struct {
	*storage.MemoryStorage
}

func (unsignedStorage) GeneratePresignedDownloadURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("signer unavailable")
}

func TestExportRemovesObjectWhenPresignFails(t *testing.T) {
	gw := memory.NewGateway()
	clock := newFakeClock()
	files := storage.NewMemoryStorage("http://files.test")
	programs := NewProgramService(gw, nil, NewNopLogger())
	nutrition := NewNutritionService(gw, EditorOptions{}, clock, nil, NewNopLogger())
	svc := NewExportService(programs, nutrition, unsignedStorage{files}, ExportOptions{Prefix: "exports"},
		clock, &sequentialIDs{prefix: "x"}, NewNopLogger())
	seedProgram(t, gw, coach.ID)

	if _, err := svc.ExportProgram(context.Background(), coach, "p1"); !errors.Is(err, ErrDownloadURLFailed) {
		t.Fatalf("err = %v", err)
	}
	if _, ok := files.Object("exports/programs/p1/x-1.xlsx"); ok {
		t.Error("workbook left in storage after presign failure")
	}
}
