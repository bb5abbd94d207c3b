package testsupport

import (
	"context"
	"testing"

	"signcast/internal/config"
	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/store"
)

// MustOpenStore opens the shared database for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.DB {
	t.Helper()

	db, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// NewJob creates a received job for tests using the provided store.
func NewJob(t testing.TB, jobStore *jobs.Store, subjectRef, text string) *jobs.Job {
	t.Helper()

	job, err := jobStore.Create(context.Background(), subjectRef, text, dictionary.AvatarMale)
	if err != nil {
		t.Fatalf("jobs.Create: %v", err)
	}
	return job
}

// PublishClip registers a sign clip for tests.
func PublishClip(t testing.TB, dictStore *dictionary.Store, model dictionary.AvatarModel, token, path string, duration float64) {
	t.Helper()

	err := dictStore.Publish(context.Background(), dictionary.SignClip{
		AvatarModel:     model,
		Token:           token,
		ClipPath:        path,
		DurationSeconds: duration,
	})
	if err != nil {
		t.Fatalf("dictionary.Publish(%s): %v", token, err)
	}
}
