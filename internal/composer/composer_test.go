package composer

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"signcast/internal/artifacts"
	"signcast/internal/dictionary"
	"signcast/internal/logging"
	"signcast/internal/resolver"
)

type fakeConcat struct {
	paths []string
	err   error
}

func (f *fakeConcat) Concat(_ context.Context, clipPaths []string, outputPath string) error {
	f.paths = append([]string(nil), clipPaths...)
	return f.err
}

type fakeSink struct {
	dir         string
	registered  bool
	registerErr error
}

func (f *fakeSink) NewTempTarget(ext string) artifacts.TempTarget {
	return artifacts.TempTarget{ID: "artifact-1", Path: filepath.Join(f.dir, "artifact-1"+ext)}
}

func (f *fakeSink) Register(context.Context, artifacts.TempTarget) (*artifacts.Artifact, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = true
	return &artifacts.Artifact{ID: "artifact-1", State: artifacts.StateTemporary}, nil
}

func resolvedFixture() []resolver.ResolvedToken {
	clipFor := func(token string, duration float64) *dictionary.SignClip {
		return &dictionary.SignClip{
			AvatarModel:     dictionary.AvatarMale,
			Token:           token,
			ClipPath:        "/clips/" + token + ".mp4",
			DurationSeconds: duration,
		}
	}
	return []resolver.ResolvedToken{
		{NormalizedToken: "please", MatchedClip: clipFor("please", 1.0), Position: 0},
		{NormalizedToken: "maintain", MatchedClip: clipFor("maintain", 2.0), Position: 1},
		{NormalizedToken: "social", MatchedClip: clipFor("social", 0.5), Position: 2},
		{NormalizedToken: "distancing", Position: 3},
	}
}

func TestComposeBuildsManifestPartition(t *testing.T) {
	concat := &fakeConcat{}
	sink := &fakeSink{dir: t.TempDir()}
	comp := New(concat, sink, logging.NewNop())

	resolved := resolvedFixture()
	artifact, manifest, err := comp.Compose(context.Background(), resolved, nil)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if artifact == nil || artifact.ID != "artifact-1" {
		t.Fatalf("unexpected artifact: %+v", artifact)
	}

	if len(manifest.SignsUsed)+len(manifest.SignsSkipped) != len(resolved) {
		t.Fatalf("manifest does not partition the input: used=%v skipped=%v",
			manifest.SignsUsed, manifest.SignsSkipped)
	}
	if !reflect.DeepEqual(manifest.SignsUsed, []string{"please", "maintain", "social"}) {
		t.Fatalf("unexpected used order: %v", manifest.SignsUsed)
	}
	if !reflect.DeepEqual(manifest.SignsSkipped, []string{"distancing"}) {
		t.Fatalf("unexpected skipped: %v", manifest.SignsSkipped)
	}
	if manifest.OutputDurationSeconds != 3.5 {
		t.Fatalf("unexpected duration %f", manifest.OutputDurationSeconds)
	}
	if manifest.ArtifactID != "artifact-1" {
		t.Fatalf("manifest missing artifact id: %q", manifest.ArtifactID)
	}

	want := []string{"/clips/please.mp4", "/clips/maintain.mp4", "/clips/social.mp4"}
	if !reflect.DeepEqual(concat.paths, want) {
		t.Fatalf("clips concatenated out of order: %v", concat.paths)
	}
}

func TestComposeNoSigns(t *testing.T) {
	comp := New(&fakeConcat{}, &fakeSink{dir: t.TempDir()}, logging.NewNop())

	resolved := []resolver.ResolvedToken{
		{NormalizedToken: "unknown", Position: 0},
		{NormalizedToken: "words", Position: 1},
	}
	_, manifest, err := comp.Compose(context.Background(), resolved, nil)
	if !errors.Is(err, ErrNoSigns) {
		t.Fatalf("expected ErrNoSigns, got %v", err)
	}
	if len(manifest.SignsSkipped) != 2 {
		t.Fatalf("misses should still be recorded: %v", manifest.SignsSkipped)
	}
}

func TestComposePropagatesConcatError(t *testing.T) {
	concatErr := errors.New("boom")
	sink := &fakeSink{dir: t.TempDir()}
	comp := New(&fakeConcat{err: concatErr}, sink, logging.NewNop())

	_, _, err := comp.Compose(context.Background(), resolvedFixture(), nil)
	if !errors.Is(err, concatErr) {
		t.Fatalf("expected concat error, got %v", err)
	}
	if sink.registered {
		t.Fatal("artifact must not be registered when concat fails")
	}
}

func TestComposeReportsProgress(t *testing.T) {
	comp := New(&fakeConcat{}, &fakeSink{dir: t.TempDir()}, logging.NewNop())

	var percents []int
	_, _, err := comp.Compose(context.Background(), resolvedFixture(), func(percent int, _ string) {
		percents = append(percents, percent)
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
	if len(percents) == 0 {
		t.Fatal("expected progress callbacks")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	manifest := Manifest{
		SignsUsed:             []string{"a"},
		SignsSkipped:          []string{"b"},
		OutputDurationSeconds: 1.5,
		ArtifactID:            "x",
	}
	parsed, err := ParseManifest(manifest.JSON())
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if !reflect.DeepEqual(manifest, parsed) {
		t.Fatalf("round trip mismatch: %+v vs %+v", manifest, parsed)
	}
}
