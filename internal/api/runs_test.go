package api

import (
	"testing"
	"time"

	"github.com/Sanchay-T/NER/internal/report"
)

func TestRunStorePutGet(t *testing.T) {
	store := NewRunStore(time.Hour)
	run := &Run{ID: "r1", Status: RunQueued, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	store.Put(run)

	if got := store.Get("r1"); got != run {
		t.Fatalf("expected stored run, got %v", got)
	}
	if got := store.Get("missing"); got != nil {
		t.Fatalf("expected nil for unknown id, got %v", got)
	}
}

func TestRunStoreCleanupEvictsSettledRuns(t *testing.T) {
	store := NewRunStore(10 * time.Millisecond)
	old := time.Now().Add(-time.Minute)

	done := &Run{ID: "done", Status: RunCompleted, UpdatedAt: old}
	inflight := &Run{ID: "inflight", Status: RunRunning, UpdatedAt: old}
	fresh := &Run{ID: "fresh", Status: RunCompleted, UpdatedAt: time.Now()}
	store.Put(done)
	store.Put(inflight)
	store.Put(fresh)

	store.Cleanup()

	if store.Get("done") != nil {
		t.Error("expected expired completed run to be evicted")
	}
	if store.Get("inflight") == nil {
		t.Error("running runs must never be evicted")
	}
	if store.Get("fresh") == nil {
		t.Error("fresh runs must survive cleanup")
	}
}

func TestRunLifecycleTransitions(t *testing.T) {
	run := &Run{ID: "r1", Status: RunQueued, UpdatedAt: time.Now().Add(-time.Second)}

	run.SetStatus(RunRunning)
	if snap := run.Snapshot(); snap.Status != RunRunning {
		t.Fatalf("expected running, got %s", snap.Status)
	}

	summary := &report.BatchSummary{Total: 2, Successful: 2}
	run.Complete(summary)
	snap := run.Snapshot()
	if snap.Status != RunCompleted || snap.Summary == nil || snap.Summary.Total != 2 {
		t.Fatalf("unexpected completed snapshot: %+v", snap)
	}

	failed := &Run{ID: "r2", Status: RunRunning}
	failed.Fail("root vanished")
	if snap := failed.Snapshot(); snap.Status != RunFailed || snap.Error != "root vanished" {
		t.Fatalf("unexpected failed snapshot: %+v", snap)
	}
}
