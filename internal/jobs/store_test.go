package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/testsupport"
)

func newStore(t *testing.T) *jobs.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	return jobs.NewStore(db)
}

func TestCreateStartsReceived(t *testing.T) {
	store := newStore(t)

	job, err := store.Create(context.Background(), "train-42", "train delayed", dictionary.AvatarFemale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.State != jobs.StateReceived {
		t.Fatalf("expected received, got %s", job.State)
	}
	if job.ProgressPercent != 0 {
		t.Fatalf("expected 0%% progress, got %d", job.ProgressPercent)
	}
	if job.AvatarModel != dictionary.AvatarFemale {
		t.Fatalf("avatar model lost: %s", job.AvatarModel)
	}
}

func TestCreateSupersedesLiveJobForSubject(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "train-42", "first", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second, err := store.Create(ctx, "train-42", "second", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}

	reloaded, err := store.Load(ctx, first.JobID)
	if err != nil {
		t.Fatalf("Load first: %v", err)
	}
	if reloaded.State != jobs.StateError {
		t.Fatalf("first job should be superseded, got %s", reloaded.State)
	}
	if reloaded.ErrorDetail != jobs.SupersededDetail {
		t.Fatalf("unexpected detail %q", reloaded.ErrorDetail)
	}

	live, err := store.LiveForSubject(ctx, "train-42")
	if err != nil {
		t.Fatalf("LiveForSubject: %v", err)
	}
	if live == nil || live.JobID != second.JobID {
		t.Fatalf("expected the new job to be the only live one, got %+v", live)
	}
}

func TestConcurrentCreatesAllSucceed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, "train-42", fmt.Sprintf("announcement %d", i), dictionary.AvatarMale)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	// Writers queue on the connection busy timeout instead of failing.
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Create failed: %v", err)
		}
	}

	live, err := store.List(ctx, jobs.StateReceived)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(live) != 1 {
		t.Fatalf("expected exactly 1 live job after %d concurrent creates, got %d", writers, len(live))
	}
	superseded, err := store.List(ctx, jobs.StateError)
	if err != nil {
		t.Fatalf("List errored: %v", err)
	}
	if len(superseded) != writers-1 {
		t.Fatalf("expected %d superseded jobs, got %d", writers-1, len(superseded))
	}
}

func TestCancelUnknownJobIsNotFound(t *testing.T) {
	store := newStore(t)

	err := store.Cancel(context.Background(), "no-such-job")
	if !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestCancelFinishedJobIsStale(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Cancel(ctx, job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := store.Cancel(ctx, job.JobID); !errors.Is(err, jobs.ErrStaleTransition) {
		t.Fatalf("expected ErrStaleTransition for finished job, got %v", err)
	}
}

func TestClaimNextTakesOldestReceived(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "a", "first", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, "b", "second", dictionary.AvatarMale); err != nil {
		t.Fatalf("Create: %v", err)
	}

	claimed, err := store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed == nil || claimed.JobID != first.JobID {
		t.Fatalf("expected oldest job claimed, got %+v", claimed)
	}
	if claimed.State != jobs.StateProcessing {
		t.Fatalf("claim must move to processing, got %s", claimed.State)
	}
	if claimed.ProgressPercent < 10 {
		t.Fatalf("claim should raise progress to 10, got %d", claimed.ProgressPercent)
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	store := newStore(t)
	claimed, err := store.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected nil on empty queue, got %+v", claimed)
	}
}

func TestFullLifecycleReachesCompleted(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.Transition(ctx, job.JobID, jobs.StateProcessing, jobs.StateGeneratingVideo, "Generating ISL video", 50); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := store.Complete(ctx, job.JobID, "artifact-9", `{"signs_used":["a"]}`); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	final, err := store.Load(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if final.State != jobs.StateCompleted {
		t.Fatalf("expected completed, got %s", final.State)
	}
	if final.ProgressPercent != 100 {
		t.Fatalf("completed job must be at 100%%, got %d", final.ProgressPercent)
	}
	if final.ResultArtifactID != "artifact-9" {
		t.Fatalf("artifact id lost: %q", final.ResultArtifactID)
	}
}

func TestStaleWorkerCannotWriteAfterCancel(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}
	if err := store.Cancel(ctx, job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	err = store.Transition(ctx, job.JobID, jobs.StateProcessing, jobs.StateGeneratingVideo, "late write", 50)
	if !errors.Is(err, jobs.ErrStaleTransition) {
		t.Fatalf("expected ErrStaleTransition, got %v", err)
	}

	final, err := store.Load(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if final.State != jobs.StateError || final.ErrorDetail != jobs.CancelledDetail {
		t.Fatalf("cancel state clobbered: %+v", final)
	}
}

func TestProgressIsMonotonic(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("ClaimNext: %v", err)
	}

	if err := store.UpdateProgress(ctx, job.JobID, jobs.StateProcessing, 40, "forward"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := store.UpdateProgress(ctx, job.JobID, jobs.StateProcessing, 20, "backward attempt"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	loaded, err := store.Load(ctx, job.JobID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ProgressPercent != 40 {
		t.Fatalf("progress went backwards: %d", loaded.ProgressPercent)
	}
}

func TestIllegalTransitionRejected(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Transition(ctx, job.JobID, jobs.StateReceived, jobs.StateCompleted, "skip ahead", 100); err == nil {
		t.Fatal("received -> completed must be rejected")
	}
}

func TestFailOnTerminalJobIsStale(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, "s", "text", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Cancel(ctx, job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := store.Fail(ctx, job.JobID, "again", "detail"); !errors.Is(err, jobs.ErrStaleTransition) {
		t.Fatalf("expected ErrStaleTransition, got %v", err)
	}
}

func TestListAndStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "a", "one", dictionary.AvatarMale); err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err := store.Create(ctx, "b", "two", dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Cancel(ctx, job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	errored, err := store.List(ctx, jobs.StateError)
	if err != nil {
		t.Fatalf("List errored: %v", err)
	}
	if len(errored) != 1 || errored[0].JobID != job.JobID {
		t.Fatalf("unexpected errored list: %+v", errored)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 || stats.Live != 1 || stats.Errored != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
