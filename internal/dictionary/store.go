package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"signcast/internal/store"
)

// Store persists sign clips in the shared SQLite database.
type Store struct {
	db *store.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *store.DB) *Store {
	return &Store{db: db}
}

// Publish inserts a clip. The first clip published for an (avatar, token)
// pair wins; later duplicates return ErrDuplicateClip so ingestion can log
// and move on.
func (s *Store) Publish(ctx context.Context, clip SignClip) error {
	_, err := s.db.Handle().ExecContext(
		ctx,
		`INSERT INTO sign_clips (avatar_model, token, clip_path, duration_seconds, checksum, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		string(clip.AvatarModel),
		clip.Token,
		clip.ClipPath,
		clip.DurationSeconds,
		clip.Checksum,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateClip, clip.AvatarModel, clip.Token)
		}
		return fmt.Errorf("publish clip: %w", err)
	}
	return nil
}

// ErrDuplicateClip indicates a clip already exists for an (avatar, token) pair.
var ErrDuplicateClip = errors.New("duplicate clip")

// Snapshot loads every published clip into an immutable lookup structure.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := s.db.Handle().QueryContext(
		ctx,
		`SELECT id, avatar_model, token, clip_path, duration_seconds, checksum FROM sign_clips ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("load clips: %w", err)
	}
	defer rows.Close()

	snapshot := &Snapshot{clips: make(map[AvatarModel]map[string]SignClip)}
	for rows.Next() {
		var (
			id       int64
			model    string
			clip     SignClip
			checksum sql.NullString
		)
		if err := rows.Scan(&id, &model, &clip.Token, &clip.ClipPath, &clip.DurationSeconds, &checksum); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clip.AvatarModel = AvatarModel(model)
		clip.Checksum = checksum.String
		if id > snapshot.version {
			snapshot.version = id
		}
		byToken := snapshot.clips[clip.AvatarModel]
		if byToken == nil {
			byToken = make(map[string]SignClip)
			snapshot.clips[clip.AvatarModel] = byToken
		}
		byToken[clip.Token] = clip
	}
	return snapshot, rows.Err()
}

// Statistics aggregates clip counts and mean duration across the dictionary.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	stats := Statistics{ClipsPerModel: make(map[AvatarModel]int)}

	rows, err := s.db.Handle().QueryContext(
		ctx,
		`SELECT avatar_model, COUNT(1), AVG(duration_seconds) FROM sign_clips GROUP BY avatar_model`,
	)
	if err != nil {
		return stats, fmt.Errorf("dictionary statistics: %w", err)
	}
	defer rows.Close()

	var weightedSum float64
	for rows.Next() {
		var (
			model string
			count int
			avg   sql.NullFloat64
		)
		if err := rows.Scan(&model, &count, &avg); err != nil {
			return stats, err
		}
		stats.ClipsPerModel[AvatarModel(model)] = count
		stats.TotalClips += count
		if avg.Valid {
			weightedSum += avg.Float64 * float64(count)
		}
	}
	if stats.TotalClips > 0 {
		stats.AverageDurationSeconds = weightedSum / float64(stats.TotalClips)
	}
	return stats, rows.Err()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	// modernc.org/sqlite surfaces constraint failures in the error text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
