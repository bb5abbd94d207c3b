package dictionary_test

import (
	"context"
	"path/filepath"
	"testing"

	"signcast/internal/dictionary"
	"signcast/internal/logging"
	"signcast/internal/testsupport"
)

type fixedProber struct {
	duration float64
}

func (p fixedProber) Duration(context.Context, string) (float64, error) {
	return p.duration, nil
}

func TestIngestLibraryScansBothLayouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	dictStore := dictionary.NewStore(db)

	lib := cfg.Paths.ClipLibraryDir
	testsupport.WriteFile(t, filepath.Join(lib, "male", "hello.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(lib, "male", "thank", "thank.avi"), 64)
	testsupport.WriteFile(t, filepath.Join(lib, "female", "hello.mov"), 64)
	// Not a clip extension, must be ignored.
	testsupport.WriteFile(t, filepath.Join(lib, "male", "notes.txt"), 8)

	result, err := dictStore.IngestLibrary(context.Background(), lib, fixedProber{duration: 2.5}, logging.NewNop())
	if err != nil {
		t.Fatalf("IngestLibrary: %v", err)
	}
	if result.Published != 3 {
		t.Fatalf("expected 3 published, got %d (%+v)", result.Published, result)
	}

	snapshot, err := dictStore.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	clip, ok := snapshot.Lookup(dictionary.AvatarMale, "thank")
	if !ok {
		t.Fatal("subdirectory layout clip missing")
	}
	if clip.DurationSeconds != 2.5 {
		t.Fatalf("probed duration lost: %f", clip.DurationSeconds)
	}
	if clip.Checksum == "" {
		t.Fatal("checksum not recorded")
	}
	femaleHello, ok := snapshot.Lookup(dictionary.AvatarFemale, "hello")
	if !ok {
		t.Fatal("female model clip missing")
	}
	maleHello, _ := snapshot.Lookup(dictionary.AvatarMale, "hello")
	if maleHello.Checksum == femaleHello.Checksum {
		t.Fatal("distinct clip files must not share a checksum")
	}
	if _, ok := snapshot.Lookup(dictionary.AvatarFemale, "thank"); ok {
		t.Fatal("clip leaked across avatar models")
	}
}

func TestIngestFirstClipWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	dictStore := dictionary.NewStore(db)

	lib := cfg.Paths.ClipLibraryDir
	testsupport.WriteFile(t, filepath.Join(lib, "male", "hello.mp4"), 64)

	if _, err := dictStore.IngestLibrary(context.Background(), lib, fixedProber{duration: 1}, logging.NewNop()); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	result, err := dictStore.IngestLibrary(context.Background(), lib, fixedProber{duration: 9}, logging.NewNop())
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if result.Published != 0 || len(result.Duplicates) != 1 {
		t.Fatalf("re-ingest should only record duplicates: %+v", result)
	}

	snapshot, err := dictStore.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	clip, _ := snapshot.Lookup(dictionary.AvatarMale, "hello")
	if clip.DurationSeconds != 1 {
		t.Fatalf("first published clip should win, got duration %f", clip.DurationSeconds)
	}
}

func TestIngestMissingLibraryIsEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	dictStore := dictionary.NewStore(db)

	result, err := dictStore.IngestLibrary(context.Background(), filepath.Join(cfg.Paths.ClipLibraryDir, "missing"), nil, logging.NewNop())
	if err != nil {
		t.Fatalf("IngestLibrary: %v", err)
	}
	if result.Published != 0 {
		t.Fatalf("expected nothing published, got %d", result.Published)
	}
}

func TestStatistics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	dictStore := dictionary.NewStore(db)

	testsupport.PublishClip(t, dictStore, dictionary.AvatarMale, "hello", "/clips/hello.mp4", 2.0)
	testsupport.PublishClip(t, dictStore, dictionary.AvatarMale, "bye", "/clips/bye.mp4", 4.0)
	testsupport.PublishClip(t, dictStore, dictionary.AvatarFemale, "hello", "/clips/f/hello.mp4", 3.0)

	stats, err := dictStore.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.TotalClips != 3 {
		t.Fatalf("expected 3 clips, got %d", stats.TotalClips)
	}
	if stats.ClipsPerModel[dictionary.AvatarMale] != 2 {
		t.Fatalf("unexpected male count: %d", stats.ClipsPerModel[dictionary.AvatarMale])
	}
	if stats.AverageDurationSeconds != 3.0 {
		t.Fatalf("unexpected average duration: %f", stats.AverageDurationSeconds)
	}
}
