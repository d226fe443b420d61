package status

import (
	"errors"
	"testing"
)

func TestUploadLifecycle(t *testing.T) {
	store := NewStore()

	id := store.Create("company_acme", "deck.md")
	if id == "" {
		t.Fatal("Create returned empty id")
	}

	up, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if up.Stage != StageUploading || up.Progress != 0 {
		t.Fatalf("initial status = %s/%d", up.Stage, up.Progress)
	}
	if up.CardID != "company_acme" || up.Filename != "deck.md" {
		t.Fatalf("upload = %+v", up)
	}
	if up.StartedAt.IsZero() || up.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	store.Update(id, StageExtracting, 30)
	store.Update(id, StageChunking, 50)
	store.SetChunks(id, 8, 8)
	store.Complete(id)

	up, _ = store.Get(id)
	if up.Stage != StageDone || up.Progress != 100 {
		t.Errorf("final status = %s/%d", up.Stage, up.Progress)
	}
	if up.ChunksTotal != 8 || up.ChunksIndexed != 8 {
		t.Errorf("chunks = %d/%d", up.ChunksIndexed, up.ChunksTotal)
	}
}

func TestProgressNeverMovesBackwards(t *testing.T) {
	store := NewStore()
	id := store.Create("card", "f.txt")

	store.Update(id, StageIndexing, 80)
	store.Update(id, StageIndexing, 60)

	up, _ := store.Get(id)
	if up.Progress != 80 {
		t.Errorf("Progress = %d, want 80 after stale update", up.Progress)
	}

	store.Update(id, StageIndexing, 250)
	up, _ = store.Get(id)
	if up.Progress != 100 {
		t.Errorf("Progress = %d, want clamped to 100", up.Progress)
	}
}

func TestFailKeepsProgress(t *testing.T) {
	store := NewStore()
	id := store.Create("card", "f.txt")

	store.Update(id, StageIndexing, 60)
	store.Fail(id, "embedding service unavailable")

	up, _ := store.Get(id)
	if up.Stage != StageFailed {
		t.Errorf("Stage = %q", up.Stage)
	}
	if up.Error != "embedding service unavailable" {
		t.Errorf("Error = %q", up.Error)
	}
	if up.Progress != 60 {
		t.Errorf("Progress = %d, want 60", up.Progress)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := NewStore()

	if _, err := store.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get error = %v, want ErrNotFound", err)
	}
}

func TestUpdatesOnUnknownIDAreNoOps(t *testing.T) {
	store := NewStore()

	store.Update("nope", StageIndexing, 50)
	store.SetChunks("nope", 1, 1)
	store.Complete("nope")
	store.Fail("nope", "x")
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewStore()
	id := store.Create("card", "f.txt")

	up, _ := store.Get(id)
	up.Progress = 99

	fresh, _ := store.Get(id)
	if fresh.Progress != 0 {
		t.Errorf("Progress = %d, mutation leaked into store", fresh.Progress)
	}
}
