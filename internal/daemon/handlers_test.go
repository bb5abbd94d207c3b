package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"signcast/internal/logging"
	"signcast/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, db, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestCancelUnknownJobReturnsNotFound(t *testing.T) {
	d := newTestDaemon(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/generations/ghost", nil)
	rec := httptest.NewRecorder()
	d.api.handleGeneration(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown job, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelFinishedJobReturnsConflict(t *testing.T) {
	d := newTestDaemon(t)

	job, err := d.Submit(context.Background(), "platform-1", "train arriving", "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.jobs.Cancel(context.Background(), job.JobID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/generations/"+job.JobID, nil)
	rec := httptest.NewRecorder()
	d.api.handleGeneration(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for finished job, got %d: %s", rec.Code, rec.Body.String())
	}
}
