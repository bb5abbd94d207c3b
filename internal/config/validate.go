package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.ClipLibraryDir) == "" {
		problems = append(problems, "paths.clip_library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		problems = append(problems, "paths.temp_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		problems = append(problems, "paths.media_dir must be set")
	}
	if c.Paths.TempDir != "" && c.Paths.TempDir == c.Paths.MediaDir {
		problems = append(problems, "paths.temp_dir and paths.media_dir must differ")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		problems = append(problems, "paths.api_bind must be set")
	}

	if c.Media.OutputWidth <= 0 || c.Media.OutputHeight <= 0 {
		problems = append(problems, "media.output_width and media.output_height must be positive")
	}
	if c.Media.OutputFrameRate <= 0 {
		problems = append(problems, "media.output_frame_rate must be positive")
	}
	if c.Media.ConcatTimeout <= 0 {
		problems = append(problems, "media.concat_timeout must be positive")
	}

	if c.Translation.Enabled && strings.TrimSpace(c.Translation.URL) == "" {
		problems = append(problems, "translation.url must be set when translation is enabled")
	}

	if c.Resolver.MaxPhraseWords < 1 {
		problems = append(problems, "resolver.max_phrase_words must be at least 1")
	}

	if c.Artifacts.RetentionHours <= 0 {
		problems = append(problems, "artifacts.retention_hours must be positive")
	}
	if strings.TrimSpace(c.Artifacts.SweepSchedule) == "" {
		problems = append(problems, "artifacts.sweep_schedule must be set")
	}

	if c.Workflow.WorkerCount < 1 {
		problems = append(problems, "workflow.worker_count must be at least 1")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.StaleJobTimeout <= 0 {
		problems = append(problems, "workflow.stale_job_timeout must be positive")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + fmt.Sprint(strings.Join(problems, "; ")))
	}
	return nil
}
