package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"signcast/internal/config"
	"signcast/internal/services"
)

// Profile is the canonical output profile all clips are normalized to
// before concatenation. Clips were recorded independently and are not
// guaranteed to share resolution or frame rate.
type Profile struct {
	Width     int
	Height    int
	FrameRate int
}

// Toolkit shells out to ffmpeg and ffprobe.
type Toolkit struct {
	ffmpegBin     string
	ffprobeBin    string
	profile       Profile
	concatTimeout time.Duration
	probeTimeout  time.Duration
}

// NewToolkit builds a toolkit from configuration.
func NewToolkit(cfg *config.Config) *Toolkit {
	return &Toolkit{
		ffmpegBin:  cfg.FFmpegBinary(),
		ffprobeBin: cfg.FFprobeBinary(),
		profile: Profile{
			Width:     cfg.Media.OutputWidth,
			Height:    cfg.Media.OutputHeight,
			FrameRate: cfg.Media.OutputFrameRate,
		},
		concatTimeout: time.Duration(cfg.Media.ConcatTimeout) * time.Second,
		probeTimeout:  time.Duration(cfg.Media.ProbeTimeout) * time.Second,
	}
}

// Available reports whether ffmpeg can be invoked.
func (t *Toolkit) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, t.ffmpegBin, "-version")
	return cmd.Run() == nil
}

// Duration returns a clip's playable duration in seconds via ffprobe.
func (t *Toolkit) Duration(ctx context.Context, path string) (float64, error) {
	probeCtx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, t.ffprobeBin, probeDurationArgs(path)...)
	output, err := cmd.Output()
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe", fmt.Sprintf("ffprobe failed for %s", filepath.Base(path)), err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "media", "probe", "unparseable ffprobe duration", err)
	}
	return duration, nil
}

// Concat stitches the clips into one video at outputPath, normalizing every
// clip to the canonical profile. Concatenation is a hard cut; there are no
// cross-fades. A single clip is copied instead of re-encoded.
func (t *Toolkit) Concat(ctx context.Context, clipPaths []string, outputPath string) error {
	if len(clipPaths) == 0 {
		return services.Wrap(services.ErrValidation, "media", "concat", "no clips to concatenate", nil)
	}

	if len(clipPaths) == 1 {
		return copyFile(clipPaths[0], outputPath)
	}

	listPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + "_filelist.txt"
	if err := writeConcatList(listPath, clipPaths); err != nil {
		return services.Wrap(services.ErrTransient, "media", "concat", "could not write concat list", err)
	}
	defer os.Remove(listPath)

	concatCtx, cancel := context.WithTimeout(ctx, t.concatTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(concatCtx, t.ffmpegBin, concatArgs(listPath, outputPath, t.profile)...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if concatCtx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrTimeout, "media", "concat", "video processing timed out", err)
		}
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 400 {
			detail = detail[len(detail)-400:]
		}
		return services.Wrap(services.ErrExternalTool, "media", "concat", "ffmpeg concatenation failed", fmt.Errorf("%w: %s", err, detail))
	}
	return nil
}

func probeDurationArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	}
}

func concatArgs(listPath, outputPath string, profile Profile) []string {
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d",
		profile.Width, profile.Height, profile.Width, profile.Height, profile.FrameRate,
	)
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-vf", scale,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		"-y",
		outputPath,
	}
}

func writeConcatList(listPath string, clipPaths []string) error {
	var builder strings.Builder
	for _, clip := range clipPaths {
		escaped := strings.ReplaceAll(clip, "'", `'\''`)
		builder.WriteString("file '")
		builder.WriteString(escaped)
		builder.WriteString("'\n")
	}
	return os.WriteFile(listPath, []byte(builder.String()), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return services.Wrap(services.ErrNotFound, "media", "copy", "clip unavailable", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return services.Wrap(services.ErrTransient, "media", "copy", "could not create output", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return services.Wrap(services.ErrTransient, "media", "copy", "copy failed", err)
	}
	return out.Sync()
}
