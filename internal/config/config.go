package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	ClipLibraryDir string `toml:"clip_library_dir"`
	TempDir        string `toml:"temp_dir"`
	MediaDir       string `toml:"media_dir"`
	LogDir         string `toml:"log_dir"`
	APIBind        string `toml:"api_bind"`
	APIToken       string `toml:"api_token"`
}

// Media contains the canonical output profile and toolkit settings.
type Media struct {
	OutputWidth     int `toml:"output_width"`
	OutputHeight    int `toml:"output_height"`
	OutputFrameRate int `toml:"output_frame_rate"`
	ConcatTimeout   int `toml:"concat_timeout"`
	ProbeTimeout    int `toml:"probe_timeout"`
}

// Translation contains settings for the external translation collaborator.
type Translation struct {
	Enabled         bool     `toml:"enabled"`
	URL             string   `toml:"url"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	TargetLanguages []string `toml:"target_languages"`
}

// Resolver contains tokenization and phrase-matching settings.
type Resolver struct {
	MaxPhraseWords int               `toml:"max_phrase_words"`
	Synonyms       map[string]string `toml:"synonyms"`
}

// Artifacts contains temporary artifact retention settings.
type Artifacts struct {
	RetentionHours int    `toml:"retention_hours"`
	SweepSchedule  string `toml:"sweep_schedule"`
}

// Workflow contains daemon timing and worker pool settings.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	WorkerCount        int `toml:"worker_count"`
	StaleJobTimeout    int `toml:"stale_job_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for signcast.
//
// Configuration sections by subsystem:
//   - Paths: clip library, temp/permanent artifact directories, API bind
//   - Media: canonical output profile and ffmpeg timeouts
//   - Translation: external translation service connection
//   - Resolver: tokenization and synonym settings
//   - Artifacts: temp artifact retention and sweep schedule
//   - Workflow: worker pool sizing and polling intervals
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Media       Media       `toml:"media"`
	Translation Translation `toml:"translation"`
	Resolver    Resolver    `toml:"resolver"`
	Artifacts   Artifacts   `toml:"artifacts"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/signcast/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("signcast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// ClipLibraryDir is not created: an empty clip library is a configuration
// problem that validation should surface, not paper over.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.TempDir, c.Paths.MediaDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for composition.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for clip inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
