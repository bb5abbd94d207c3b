package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if cfg.Media.OutputWidth != 1280 || cfg.Media.OutputHeight != 720 {
		t.Fatalf("unexpected default profile: %dx%d", cfg.Media.OutputWidth, cfg.Media.OutputHeight)
	}
	if cfg.Workflow.WorkerCount != 2 {
		t.Fatalf("unexpected default worker count: %d", cfg.Workflow.WorkerCount)
	}
	if !filepath.IsAbs(cfg.Paths.TempDir) {
		t.Fatalf("paths must be expanded to absolute: %s", cfg.Paths.TempDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signcast.toml")
	content := `
[paths]
clip_library_dir = "` + filepath.Join(dir, "clips") + `"
temp_dir = "` + filepath.Join(dir, "temp") + `"
media_dir = "` + filepath.Join(dir, "media") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
api_bind = "127.0.0.1:9999"

[media]
output_width = 640
output_height = 360

[resolver]
max_phrase_words = 2

[resolver.synonyms]
hi = "hello"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("config file not picked up: exists=%v path=%s", exists, resolved)
	}
	if cfg.Media.OutputWidth != 640 || cfg.Media.OutputHeight != 360 {
		t.Fatalf("overrides not applied: %dx%d", cfg.Media.OutputWidth, cfg.Media.OutputHeight)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9999" {
		t.Fatalf("api bind not applied: %s", cfg.Paths.APIBind)
	}
	if cfg.Resolver.Synonyms["hi"] != "hello" {
		t.Fatalf("synonyms not parsed: %v", cfg.Resolver.Synonyms)
	}
	// Defaults survive for untouched sections.
	if cfg.Artifacts.RetentionHours != 24 {
		t.Fatalf("defaults lost: %d", cfg.Artifacts.RetentionHours)
	}
}

func TestValidateCatchesProblems(t *testing.T) {
	cfg := Default()
	cfg.Paths.MediaDir = cfg.Paths.TempDir
	cfg.Media.OutputWidth = 0
	cfg.Workflow.WorkerCount = 0
	cfg.Translation.Enabled = true

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, fragment := range []string{
		"temp_dir and paths.media_dir must differ",
		"output_width",
		"worker_count",
		"translation.url",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("missing problem %q in %v", fragment, err)
		}
	}
}

func TestEnsureDirectoriesSkipsClipLibrary(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.ClipLibraryDir = filepath.Join(dir, "clips")
	cfg.Paths.TempDir = filepath.Join(dir, "temp")
	cfg.Paths.MediaDir = filepath.Join(dir, "media")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, d := range []string{cfg.Paths.TempDir, cfg.Paths.MediaDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(d); err != nil {
			t.Fatalf("directory %s not created: %v", d, err)
		}
	}
	if _, err := os.Stat(cfg.Paths.ClipLibraryDir); !os.IsNotExist(err) {
		t.Fatalf("clip library must not be auto-created, stat err=%v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config must load cleanly: exists=%v err=%v", exists, err)
	}
}
