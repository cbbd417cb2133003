package service

import (
	"alcyxob/coach-dashboard/internal/domain"
	"alcyxob/coach-dashboard/internal/draft"
	"alcyxob/coach-dashboard/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"
)

type editorFixture struct {
	gw     *memory.Gateway
	clock  *fakeClock
	editor EditorService
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	gw := memory.NewGateway()
	clock := newFakeClock()
	programs := NewProgramService(gw, &sequentialIDs{prefix: "prog"}, NewNopLogger())
	editor := NewEditorService(gw, programs, EditorOptions{SessionTTL: 30 * time.Minute, MaxSessions: 2},
		clock, &sequentialIDs{prefix: "tmp"}, NewNopLogger())
	seedProgram(t, gw, coach.ID)
	return &editorFixture{gw: gw, clock: clock, editor: editor}
}

func (f *editorFixture) open(t *testing.T) *EditorSession {
	t.Helper()
	sess, err := f.editor.OpenSession(context.Background(), coach, "p1")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	return sess
}

func TestOpenSessionLoadsTree(t *testing.T) {
	f := newEditorFixture(t)
	sess := f.open(t)

	days := sess.Store.Days(1)
	if len(days) != domain.DaysPerWeek {
		t.Fatalf("days = %d", len(days))
	}
	if days[0].Placeholder || len(days[0].Blocks) != 1 {
		t.Errorf("day 1 = %+v", days[0])
	}
	if !days[1].Placeholder {
		t.Errorf("day 2 should be a placeholder")
	}
	if sess.Store.IsDirty() {
		t.Errorf("fresh session is dirty")
	}
}

func TestSessionAccess(t *testing.T) {
	f := newEditorFixture(t)
	sess := f.open(t)

	if _, err := f.editor.Session(rival, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("rival: err = %v", err)
	}
	if _, err := f.editor.Session(admin, sess.ID); err != nil {
		t.Errorf("admin: %v", err)
	}
	if _, err := f.editor.OpenSession(context.Background(), rival, "p1"); !errors.Is(err, ErrProgramAccessDenied) {
		t.Errorf("rival open: err = %v", err)
	}
}

func TestSessionExpiresWhenIdle(t *testing.T) {
	f := newEditorFixture(t)
	sess := f.open(t)

	f.clock.Advance(20 * time.Minute)
	if _, err := f.editor.Session(coach, sess.ID); err != nil {
		t.Fatalf("session within ttl: %v", err)
	}
	// the lookup above refreshed the idle timer
	f.clock.Advance(20 * time.Minute)
	if _, err := f.editor.Session(coach, sess.ID); err != nil {
		t.Fatalf("refreshed session: %v", err)
	}
	f.clock.Advance(31 * time.Minute)
	if n := f.editor.Sweep(); n != 1 {
		t.Errorf("Sweep = %d, want 1", n)
	}
	if _, err := f.editor.Session(coach, sess.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expired: err = %v", err)
	}
}

func TestSessionLimit(t *testing.T) {
	f := newEditorFixture(t)
	f.open(t)
	f.open(t)
	if _, err := f.editor.OpenSession(context.Background(), coach, "p1"); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("err = %v", err)
	}
	if n := f.editor.CloseProgramSessions("p1"); n != 2 {
		t.Errorf("CloseProgramSessions = %d", n)
	}
	f.open(t)
}

func TestSaveAllPersistsNewDayAndBlock(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)
	store := sess.Store

	view, ok := store.AddBlock(draft.Slot("m1", 3), domain.Block{
		Type: domain.BlockMetconStructured, Name: "Finisher",
		Config: &domain.MetconConfig{Format: domain.MetconAMRAP, TimeCap: ptr(600)},
	})
	if !ok {
		t.Fatal("AddBlock failed")
	}
	tempDay := view.Block.DayID

	report, err := f.editor.SaveAll(ctx, coach, sess.ID)
	if err != nil {
		t.Fatalf("SaveAll: %v (%+v)", err, report)
	}
	if report.DaysSaved != 1 || report.BlocksSaved != 1 {
		t.Errorf("report = %+v", report)
	}
	if store.IsDirty() {
		t.Errorf("store still dirty after save")
	}

	day, _ := store.Day(draft.Slot("m1", 3))
	if !day.Persisted || day.Day.ID == tempDay {
		t.Errorf("day not re-keyed: %+v", day.Day)
	}
	if len(day.Blocks) != 1 || day.Blocks[0].Block.DayID != day.Day.ID || !day.Blocks[0].Persisted {
		t.Errorf("block not attached to saved day: %+v", day.Blocks)
	}

	rows, _ := f.gw.List(ctx, domain.KindBlocks, domain.Filter{"day_id": day.Day.ID})
	if len(rows) != 1 || rows[0].String("name") != "Finisher" {
		t.Errorf("stored blocks = %v", rows)
	}
}

func TestSaveAllKeepsFailedNodesDirty(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)
	store := sess.Store

	store.UpdateBlock("b11", draft.BlockPatch{Name: ptr("Front squat")})
	store.UpdateBlock("b21", draft.BlockPatch{Name: ptr("Pause squat")})
	f.gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "upsert" && id == "b21" {
			return errors.New("connection reset")
		}
		return nil
	})

	report, err := f.editor.SaveAll(ctx, coach, sess.ID)
	if !errors.Is(err, ErrPartialSave) {
		t.Fatalf("err = %v", err)
	}
	if report.BlocksSaved != 1 || len(report.Failures) != 1 || report.Failures[0].ID != "b21" {
		t.Errorf("report = %+v", report)
	}
	if b, _ := store.Block("b11"); b.Dirty {
		t.Errorf("b11 should be clean")
	}
	if b, _ := store.Block("b21"); !b.Dirty || b.Block.Name != "Pause squat" {
		t.Errorf("b21 should keep its edit and stay dirty: %+v", b)
	}

	f.gw.SetFault(nil)
	if _, err := f.editor.SaveAll(ctx, coach, sess.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if store.IsDirty() {
		t.Errorf("dirty after retry")
	}
}

func TestSaveAllFlushesDeletes(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)

	sess.Store.ClearDay(draft.ByID("d11"))
	// already gone on the server
	if err := f.gw.Delete(ctx, domain.KindBlocks, "b11"); err != nil {
		t.Fatal(err)
	}

	report, err := f.editor.SaveAll(ctx, coach, sess.ID)
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if report.BlocksDeleted != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(sess.Store.PendingBlockDeletes()) != 0 {
		t.Errorf("pending deletes left")
	}
}

func TestSaveBlockValidatesBeforeWriting(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)

	view, _ := sess.Store.AddBlock(draft.ByID("d11"), domain.Block{
		Type:   domain.BlockMetconStructured,
		Config: &domain.MetconConfig{Format: domain.MetconAMRAP},
	})
	writes := 0
	f.gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "upsert" {
			writes++
		}
		return nil
	})

	if _, err := f.editor.SaveBlock(ctx, coach, sess.ID, view.Block.ID); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("err = %v", err)
	}
	if writes != 0 {
		t.Errorf("gateway called %d times", writes)
	}
	if b, _ := sess.Store.Block(view.Block.ID); !b.Dirty {
		t.Errorf("invalid block should stay dirty")
	}
}

func TestSaveBlockSavesNewDayFirst(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)

	view, _ := sess.Store.AddBlock(draft.Slot("m2", 5), domain.Block{Type: domain.BlockWarmup, Name: "Prep"})
	saved, err := f.editor.SaveBlock(ctx, coach, sess.ID, view.Block.ID)
	if err != nil {
		t.Fatalf("SaveBlock: %v", err)
	}
	day, _ := sess.Store.Day(draft.Slot("m2", 5))
	if !day.Persisted || saved.Block.DayID != day.Day.ID {
		t.Errorf("block day = %q, day = %+v", saved.Block.DayID, day.Day)
	}
}

func TestSaveDayPersistsClearedName(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)

	sess.Store.UpdateDay(draft.ByID("d11"), draft.DayPatch{Name: ptr("Heavy"), Notes: ptr("belt")})
	if _, err := f.editor.SaveDay(ctx, coach, sess.ID, "d11"); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}
	sess.Store.UpdateDay(draft.ByID("d11"), draft.DayPatch{Name: ptr(""), Notes: ptr("")})
	saved, err := f.editor.SaveDay(ctx, coach, sess.ID, "d11")
	if err != nil {
		t.Fatalf("SaveDay: %v", err)
	}
	if saved.Dirty {
		t.Errorf("day still dirty")
	}

	rows, _ := f.gw.List(ctx, domain.KindDays, domain.Filter{"id": "d11"})
	if len(rows) != 1 || rows[0]["name"] != nil || rows[0].String("notes") != "" {
		t.Errorf("stored day = %v", rows)
	}
}

func TestSaveDayRejectsPlaceholder(t *testing.T) {
	f := newEditorFixture(t)
	sess := f.open(t)
	if _, err := f.editor.SaveDay(context.Background(), coach, sess.ID, "nope"); !errors.Is(err, ErrDayNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestEditorAddWeek(t *testing.T) {
	f := newEditorFixture(t)
	sess := f.open(t)

	week, err := f.editor.AddWeek(context.Background(), coach, sess.ID, "peak")
	if err != nil {
		t.Fatalf("AddWeek: %v", err)
	}
	if week.WeekNumber != 3 {
		t.Errorf("week number = %d", week.WeekNumber)
	}
	if got := sess.Store.Week(3); got.Synthesized || got.ID != week.ID {
		t.Errorf("week 3 = %+v", got)
	}
}

func TestSaveBlockDeletesRowOfBlockRemovedMidWrite(t *testing.T) {
	f := newEditorFixture(t)
	ctx := context.Background()
	sess := f.open(t)
	before := f.gw.Len(domain.KindBlocks)

	view, _ := sess.Store.AddBlock(draft.ByID("d11"), domain.Block{Type: domain.BlockWarmup, Name: "Row"})
	f.gw.SetFault(func(op string, kind domain.EntityKind, id string) error {
		if op == "upsert" && kind == domain.KindBlocks && id == "" {
			sess.Store.RemoveBlock(view.Block.ID)
		}
		return nil
	})

	if _, err := f.editor.SaveBlock(ctx, coach, sess.ID, view.Block.ID); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("SaveBlock err = %v", err)
	}
	f.gw.SetFault(nil)
	if f.gw.Len(domain.KindBlocks) != before+1 || len(sess.Store.PendingBlockDeletes()) != 1 {
		t.Fatalf("created row not queued: rows = %d, pending = %v", f.gw.Len(domain.KindBlocks), sess.Store.PendingBlockDeletes())
	}

	report, err := f.editor.SaveAll(ctx, coach, sess.ID)
	if err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if report.BlocksDeleted != 1 || sess.Store.IsDirty() {
		t.Errorf("report = %+v, dirty = %v", report, sess.Store.IsDirty())
	}
	if got := f.gw.Len(domain.KindBlocks); got != before {
		t.Errorf("blocks = %d, want %d", got, before)
	}

	reopened, err := f.editor.OpenSession(ctx, coach, "p1")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if day, _ := reopened.Store.Day(draft.ByID("d11")); len(day.Blocks) != 1 {
		t.Errorf("reopened day has %d blocks", len(day.Blocks))
	}
}
