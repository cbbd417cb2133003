package draft

import (
	"alcyxob/coach-dashboard/internal/domain"
	"testing"
)

func TestMarkDaySavedRekeysPromotedDay(t *testing.T) {
	s := New(sampleTree(), sequentialIDs())
	s.UpdateDay(Slot("m1", 4), DayPatch{Notes: ptr("intervals")})
	blk, _ := s.AddBlock(Slot("m1", 4), domain.Block{Type: domain.BlockConditioning})

	dirty := s.DirtyDays()
	if len(dirty) != 1 || dirty[0].Day.ID != "tmp-1" {
		t.Fatalf("dirty days = %+v", dirty)
	}
	saved := dirty[0].Day
	saved.ID = "day-4"
	if !s.MarkDaySaved("tmp-1", dirty[0].Revision, saved) {
		t.Fatal("MarkDaySaved failed")
	}

	v, ok := s.Day(ByID("day-4"))
	if !ok || !v.Persisted || v.Dirty {
		t.Errorf("saved day = %+v, %v", v, ok)
	}
	if _, ok := s.Day(ByID("tmp-1")); ok {
		t.Error("temp id still resolves")
	}
	b, _ := s.Block(blk.Block.ID)
	if b.Block.DayID != "day-4" || !b.Dirty {
		t.Errorf("child block = %+v", b)
	}
}

func TestMarkSavedKeepsLaterEditsDirty(t *testing.T) {
	s := New(sampleTree())
	v, _ := s.UpdateDay(ByID("d13"), DayPatch{Notes: ptr("v1")})
	snapshot := v.Day
	s.UpdateDay(ByID("d13"), DayPatch{Notes: ptr("v2")})

	s.MarkDaySaved("d13", v.Revision, snapshot)
	got, _ := s.Day(ByID("d13"))
	if !got.Dirty || got.Day.Notes != "v2" {
		t.Errorf("edit made during the save was lost: %+v", got)
	}
}

func TestMarkBlockSavedClearsDirty(t *testing.T) {
	s := New(sampleTree(), sequentialIDs())
	added, _ := s.AddBlock(ByID("d21"), domain.Block{Type: domain.BlockSkill})
	if !s.IsDirty() {
		t.Fatal("store should be dirty")
	}
	saved := added.Block
	saved.ID = "blk-9"
	s.MarkBlockSaved(added.Block.ID, added.Revision, saved)

	if len(s.DirtyBlocks()) != 0 {
		t.Errorf("dirty blocks = %+v", s.DirtyBlocks())
	}
	if v, ok := s.Block("blk-9"); !ok || !v.Persisted {
		t.Errorf("block after save = %+v, %v", v, ok)
	}
	if s.IsDirty() {
		t.Error("store still dirty")
	}

	s.RemoveBlock("blk-9")
	if !s.IsDirty() {
		t.Error("a pending delete should keep the store dirty")
	}
	s.MarkBlockDeleted("blk-9")
	if s.IsDirty() {
		t.Error("store dirty after the delete was confirmed")
	}
}

func TestSnapshotIncludesUnsavedNodes(t *testing.T) {
	s := New(sampleTree(), sequentialIDs())
	s.ToggleRestDay(Slot("m2", 7))
	tree := s.Snapshot()
	if len(tree.Mesocycles) != 2 || len(tree.Days) != 4 || len(tree.Blocks) != 2 {
		t.Errorf("snapshot sizes: %d weeks %d days %d blocks", len(tree.Mesocycles), len(tree.Days), len(tree.Blocks))
	}
}

func TestMarkBlockSavedQueuesRowOfRemovedBlock(t *testing.T) {
	s := New(sampleTree(), sequentialIDs())
	blk, _ := s.AddBlock(ByID("d11"), domain.Block{Type: domain.BlockWarmup, Name: "Bike"})
	view, _ := s.Block(blk.Block.ID)

	// removed while the create was in flight
	s.RemoveBlock(blk.Block.ID)
	if len(s.PendingBlockDeletes()) != 0 {
		t.Fatalf("unsaved block queued: %v", s.PendingBlockDeletes())
	}

	saved := view.Block
	saved.ID = "b-new"
	if s.MarkBlockSaved(view.Block.ID, view.Revision, saved) {
		t.Error("MarkBlockSaved reported a removed block as saved")
	}
	if got := s.PendingBlockDeletes(); len(got) != 1 || got[0] != "b-new" {
		t.Errorf("pending = %v", got)
	}
	if !s.IsDirty() {
		t.Error("store should stay dirty until the row is deleted")
	}

	// a second report of the same row is not queued twice
	s.MarkBlockSaved(view.Block.ID, view.Revision, saved)
	if got := s.PendingBlockDeletes(); len(got) != 1 {
		t.Errorf("pending = %v", got)
	}
}
