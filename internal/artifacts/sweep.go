package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"signcast/internal/logging"
)

// SweepExpired removes temporary artifacts whose retention window has
// elapsed without a promotion. Promoted artifacts are never swept. Stray
// files in the temp directory with no metadata row (crash leftovers) are
// also removed once they age past the retention window.
func (s *Store) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	result := SweepResult{}

	rows, err := s.db.Handle().QueryContext(
		ctx,
		`SELECT artifact_id, storage_path FROM video_artifacts
         WHERE state = ? AND expires_at IS NOT NULL AND expires_at < ?`,
		string(StateTemporary),
		now.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return result, err
	}

	type expired struct {
		id   string
		path string
	}
	var victims []expired
	for rows.Next() {
		var v expired
		if err := rows.Scan(&v.id, &v.path); err != nil {
			rows.Close()
			return result, err
		}
		victims = append(victims, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return result, err
	}

	for _, v := range victims {
		if err := os.Remove(v.path); err != nil && !os.IsNotExist(err) {
			result.Failures = append(result.Failures, v.path)
			s.logger.Warn("failed to remove expired artifact",
				logging.String(logging.FieldArtifactID, v.id),
				logging.String("path", v.path),
				logging.Error(err),
			)
			continue
		}
		if _, err := s.db.Handle().ExecContext(ctx, `DELETE FROM video_artifacts WHERE artifact_id = ?`, v.id); err != nil {
			result.Failures = append(result.Failures, v.path)
			continue
		}
		result.Removed++
		s.logger.Info("removed expired artifact",
			logging.String(logging.FieldArtifactID, v.id),
			logging.String(logging.FieldEventType, "artifact_expired"),
		)
	}

	orphans, err := s.sweepOrphans(ctx, now, &result)
	if err != nil {
		return result, err
	}
	result.Orphans = orphans
	return result, nil
}

// sweepOrphans removes temp-dir files that have no metadata row.
func (s *Store) sweepOrphans(ctx context.Context, now time.Time, result *SweepResult) (int, error) {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := now.Add(-s.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(s.tempDir, entry.Name())
		var count int
		if err := s.db.Handle().QueryRowContext(
			ctx,
			`SELECT COUNT(1) FROM video_artifacts WHERE storage_path = ?`,
			path,
		).Scan(&count); err != nil {
			return removed, err
		}
		if count > 0 {
			continue
		}
		if err := os.Remove(path); err != nil {
			result.Failures = append(result.Failures, path)
			continue
		}
		removed++
		s.logger.Info("removed orphaned temp file",
			logging.String("path", path),
			logging.Duration("age", now.Sub(info.ModTime())),
		)
	}
	return removed, nil
}
