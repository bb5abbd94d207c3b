package dictionary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"signcast/internal/logging"
)

// DurationProber measures a clip's playable duration in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// IngestResult summarizes one library scan.
type IngestResult struct {
	Published  int
	Duplicates []string
	Failures   []string
}

var clipExtensions = []string{".mp4", ".avi", ".mov"}

// IngestLibrary walks the clip library and publishes every clip it finds.
// Layout per avatar model directory: either <token>.<ext> directly or a
// <token>/<token>.<ext> subdirectory. The first clip published for a token
// wins; later duplicates are recorded and skipped.
func (s *Store) IngestLibrary(ctx context.Context, libraryDir string, prober DurationProber, logger *slog.Logger) (IngestResult, error) {
	result := IngestResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	for _, model := range AvatarModels() {
		modelDir := filepath.Join(libraryDir, string(model))
		entries, err := os.ReadDir(modelDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return result, fmt.Errorf("read model directory %q: %w", modelDir, err)
		}

		for _, entry := range entries {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			token, clipPath, ok := clipForEntry(modelDir, entry.Name(), entry.IsDir())
			if !ok {
				continue
			}
			if err := s.ingestClip(ctx, model, token, clipPath, prober, &result, logger); err != nil {
				return result, err
			}
		}
	}

	logger.Info("clip library ingest finished",
		logging.Int("published", result.Published),
		logging.Int("duplicates", len(result.Duplicates)),
		logging.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *Store) ingestClip(ctx context.Context, model AvatarModel, token, clipPath string, prober DurationProber, result *IngestResult, logger *slog.Logger) error {
	duration := 0.0
	if prober != nil {
		probed, err := prober.Duration(ctx, clipPath)
		if err != nil {
			result.Failures = append(result.Failures, clipPath)
			logger.Warn("could not probe clip duration",
				logging.String("clip", clipPath),
				logging.Error(err),
			)
		} else {
			duration = probed
		}
	}

	checksum, err := fileChecksum(clipPath)
	if err != nil {
		result.Failures = append(result.Failures, clipPath)
		logger.Warn("could not checksum clip", logging.String("clip", clipPath), logging.Error(err))
		return nil
	}

	err = s.Publish(ctx, SignClip{
		AvatarModel:     model,
		Token:           token,
		ClipPath:        clipPath,
		DurationSeconds: duration,
		Checksum:        checksum,
	})
	if errors.Is(err, ErrDuplicateClip) {
		result.Duplicates = append(result.Duplicates, fmt.Sprintf("%s/%s", model, token))
		logger.Debug("skipping duplicate clip",
			logging.String("token", token),
			logging.String("clip", clipPath),
		)
		return nil
	}
	if err != nil {
		return err
	}
	result.Published++
	return nil
}

// clipForEntry maps a directory entry to a (token, clip path) pair.
func clipForEntry(modelDir, name string, isDir bool) (string, string, bool) {
	if isDir {
		// <token>/<token>.<ext> layout.
		for _, ext := range clipExtensions {
			candidate := filepath.Join(modelDir, name, name+ext)
			if fileExists(candidate) {
				return normalizeToken(name), candidate, true
			}
		}
		return "", "", false
	}

	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range clipExtensions {
		if ext == known {
			token := strings.TrimSuffix(name, filepath.Ext(name))
			return normalizeToken(token), filepath.Join(modelDir, name), true
		}
	}
	return "", "", false
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
