package composer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"signcast/internal/artifacts"
	"signcast/internal/logging"
	"signcast/internal/resolver"
	"signcast/internal/services"
)

// ErrNoSigns reports that no input token matched any clip. It is a
// distinguishable degenerate outcome, not a generic failure: the caller
// decides how to surface "nothing could be signed".
var ErrNoSigns = errors.New("no signs matched")

// Manifest describes a composition outcome. SignsUsed and SignsSkipped are
// in original input order, so the caller can see which words were dropped
// in context; their lengths always sum to the resolved token count.
type Manifest struct {
	SignsUsed             []string `json:"signs_used"`
	SignsSkipped          []string `json:"signs_skipped"`
	OutputDurationSeconds float64  `json:"output_duration_seconds"`
	ArtifactID            string   `json:"artifact_id"`
}

// JSON serializes the manifest for persistence alongside the job.
func (m Manifest) JSON() string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ParseManifest deserializes a persisted manifest.
func ParseManifest(data string) (Manifest, error) {
	var m Manifest
	if data == "" {
		return m, nil
	}
	err := json.Unmarshal([]byte(data), &m)
	return m, err
}

// Concatenator is the media toolkit dependency.
type Concatenator interface {
	Concat(ctx context.Context, clipPaths []string, outputPath string) error
}

// ArtifactSink is the artifact store dependency.
type ArtifactSink interface {
	NewTempTarget(ext string) artifacts.TempTarget
	Register(ctx context.Context, target artifacts.TempTarget) (*artifacts.Artifact, error)
}

// ProgressFunc reports composition progress to the caller.
type ProgressFunc func(percent int, message string)

// Composer concatenates resolved clips into temporary artifacts.
type Composer struct {
	media  Concatenator
	sink   ArtifactSink
	logger *slog.Logger
}

// New builds a composer.
func New(media Concatenator, sink ArtifactSink, logger *slog.Logger) *Composer {
	return &Composer{
		media:  media,
		sink:   sink,
		logger: logging.NewComponentLogger(logger, "composer"),
	}
}

// Compose filters the resolved tokens to matches, concatenates their clips
// in position order, and registers the result as a temporary artifact.
// Returns ErrNoSigns when nothing matched; partial matches are a success
// with the misses recorded in the manifest.
func (c *Composer) Compose(ctx context.Context, resolved []resolver.ResolvedToken, progress ProgressFunc) (*artifacts.Artifact, Manifest, error) {
	if progress == nil {
		progress = func(int, string) {}
	}

	manifest := Manifest{
		SignsUsed:    []string{},
		SignsSkipped: []string{},
	}
	clipPaths := make([]string, 0, len(resolved))
	for _, token := range resolved {
		if token.Matched() {
			manifest.SignsUsed = append(manifest.SignsUsed, token.NormalizedToken)
			manifest.OutputDurationSeconds += token.MatchedClip.DurationSeconds
			clipPaths = append(clipPaths, token.MatchedClip.ClipPath)
		} else {
			manifest.SignsSkipped = append(manifest.SignsSkipped, token.NormalizedToken)
		}
	}

	if len(clipPaths) == 0 {
		return nil, manifest, ErrNoSigns
	}

	target := c.sink.NewTempTarget(".mp4")
	progress(60, "Stitching sign clips")

	if err := c.media.Concat(ctx, clipPaths, target.Path); err != nil {
		return nil, manifest, err
	}
	progress(80, "Writing video artifact")

	artifact, err := c.sink.Register(ctx, target)
	if err != nil {
		return nil, manifest, services.Wrap(services.ErrTransient, "composer", "register artifact", "could not register composed video", err)
	}
	manifest.ArtifactID = artifact.ID

	c.logger.Info("composition finished",
		logging.String(logging.FieldArtifactID, artifact.ID),
		logging.Int("signs_used", len(manifest.SignsUsed)),
		logging.Int("signs_skipped", len(manifest.SignsSkipped)),
		logging.Float64("duration_seconds", manifest.OutputDurationSeconds),
	)
	return artifact, manifest, nil
}
