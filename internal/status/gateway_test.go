package status_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"signcast/internal/jobs"
	"signcast/internal/status"
	"signcast/internal/testsupport"
)

func newGateway(t *testing.T) (*status.Gateway, *jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StaleJobTimeout = 600
	db := testsupport.MustOpenStore(t, cfg)
	jobStore := jobs.NewStore(db)
	return status.NewGateway(jobStore, cfg), jobStore
}

func TestJobViewMirrorsStorage(t *testing.T) {
	gateway, jobStore := newGateway(t)
	job := testsupport.NewJob(t, jobStore, "train-1", "hello world")

	view, err := gateway.Job(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if view.Status != string(jobs.StateReceived) {
		t.Fatalf("unexpected status %s", view.Status)
	}
	if view.SubjectRef != "train-1" {
		t.Fatalf("unexpected subject %s", view.SubjectRef)
	}
	if view.Stale {
		t.Fatal("fresh job must not be stale")
	}
}

func TestUnknownJob(t *testing.T) {
	gateway, _ := newGateway(t)
	if _, err := gateway.Job(context.Background(), "missing"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaleLiveJobShownAsError(t *testing.T) {
	gateway, jobStore := newGateway(t)
	job := testsupport.NewJob(t, jobStore, "train-1", "hello")

	gateway.WithClock(func() time.Time { return time.Now().Add(11 * time.Minute) })

	view, err := gateway.Job(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if !view.Stale {
		t.Fatal("expected stale view")
	}
	if view.Status != string(jobs.StateError) {
		t.Fatalf("stale job should display as error, got %s", view.Status)
	}
	if view.Message != status.StaleMessage {
		t.Fatalf("unexpected message %q", view.Message)
	}

	// Display only: storage still holds the live state.
	stored, err := jobStore.Load(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stored.State != jobs.StateReceived {
		t.Fatalf("storage mutated by gateway: %s", stored.State)
	}
}

func TestTerminalJobNeverStale(t *testing.T) {
	gateway, jobStore := newGateway(t)
	job := testsupport.NewJob(t, jobStore, "train-1", "hello")
	if err := jobStore.Cancel(context.Background(), job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	gateway.WithClock(func() time.Time { return time.Now().Add(24 * time.Hour) })

	view, err := gateway.Job(context.Background(), job.JobID)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if view.Stale {
		t.Fatal("terminal jobs are never marked stale")
	}
}

func TestForSubjectReturnsNilWithoutLiveJob(t *testing.T) {
	gateway, jobStore := newGateway(t)
	job := testsupport.NewJob(t, jobStore, "train-1", "hello")
	if err := jobStore.Cancel(context.Background(), job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	view, err := gateway.ForSubject(context.Background(), "train-1")
	if err != nil {
		t.Fatalf("ForSubject: %v", err)
	}
	if view != nil {
		t.Fatalf("expected nil view, got %+v", view)
	}
}

func TestListNewestFirst(t *testing.T) {
	gateway, jobStore := newGateway(t)
	testsupport.NewJob(t, jobStore, "a", "one")
	second := testsupport.NewJob(t, jobStore, "b", "two")

	views, err := gateway.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	if views[0].JobID != second.JobID {
		t.Fatalf("expected newest first, got %s", views[0].JobID)
	}
}
