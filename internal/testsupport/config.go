package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"signcast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ClipLibraryDir = filepath.Join(base, "clips")
	cfgVal.Paths.TempDir = filepath.Join(base, "temp")
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Workflow.QueuePollInterval = 1
	cfgVal.Workflow.ErrorRetryInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{
		builder.cfg.Paths.ClipLibraryDir,
		builder.cfg.Paths.TempDir,
		builder.cfg.Paths.MediaDir,
		builder.cfg.Paths.LogDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	return builder.cfg
}

// WithRetentionHours overrides temp artifact retention on the test config.
func WithRetentionHours(hours int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Artifacts.RetentionHours = hours
	}
}

// WithSynonyms sets the resolver synonym table on the test config.
func WithSynonyms(synonyms map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Resolver.Synonyms = synonyms
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
// The ffmpeg stub copies its last input to the output path so composition
// tests produce a real file; the ffprobe stub prints a fixed duration.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := "#!/bin/sh\nexit 0\n"
			switch name {
			case "ffmpeg":
				script = "#!/bin/sh\n" +
					"out=\"\"\nfor arg in \"$@\"; do out=\"$arg\"; done\n" +
					"if [ -n \"$out\" ] && [ \"$out\" != \"-version\" ]; then echo stub > \"$out\"; fi\n" +
					"exit 0\n"
			case "ffprobe":
				script = "#!/bin/sh\necho 1.500000\nexit 0\n"
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.TempDir)
}
