package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"signcast/internal/config"
	"signcast/internal/logging"
	"signcast/internal/services"
	"signcast/internal/store"
)

// ErrNotFound indicates no artifact exists for the requested id.
var ErrNotFound = errors.New("artifact not found")

// Store manages artifact files and their metadata rows.
type Store struct {
	db        *store.DB
	tempDir   string
	mediaDir  string
	retention time.Duration
	logger    *slog.Logger
}

// NewStore builds an artifact store over the shared database.
func NewStore(db *store.DB, cfg *config.Config, logger *slog.Logger) *Store {
	return &Store{
		db:        db,
		tempDir:   cfg.Paths.TempDir,
		mediaDir:  cfg.Paths.MediaDir,
		retention: time.Duration(cfg.Artifacts.RetentionHours) * time.Hour,
		logger:    logging.NewComponentLogger(logger, "artifact-store"),
	}
}

// TempTarget is a reserved temporary artifact location handed to the
// composer before any bytes exist.
type TempTarget struct {
	ID   string
	Path string
}

// NewTempTarget reserves an id and output path for a composition run.
// Ids are store-generated, never caller-supplied, so concurrent creates
// cannot collide.
func (s *Store) NewTempTarget(ext string) TempTarget {
	id := uuid.NewString()
	return TempTarget{ID: id, Path: filepath.Join(s.tempDir, id+ext)}
}

// Register persists metadata for a temp target whose file has been written.
func (s *Store) Register(ctx context.Context, target TempTarget) (*Artifact, error) {
	if _, err := os.Stat(target.Path); err != nil {
		return nil, services.Wrap(services.ErrTransient, "artifacts", "register", "output file missing", err)
	}

	now := time.Now().UTC()
	expires := now.Add(s.retention)
	_, err := s.db.Handle().ExecContext(
		ctx,
		`INSERT INTO video_artifacts (artifact_id, state, storage_path, owner_id, created_at, expires_at)
         VALUES (?, ?, ?, NULL, ?, ?)`,
		target.ID,
		string(StateTemporary),
		target.Path,
		now.Format(time.RFC3339Nano),
		expires.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert artifact: %w", err)
	}
	return s.Load(ctx, target.ID)
}

// CreateTemp stores the stream as a new temporary artifact.
func (s *Store) CreateTemp(ctx context.Context, r io.Reader, ext string) (*Artifact, error) {
	target := s.NewTempTarget(ext)
	out, err := os.OpenFile(target.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "artifacts", "create temp", "could not create temp file", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(target.Path)
		return nil, services.Wrap(services.ErrTransient, "artifacts", "create temp", "write failed", err)
	}
	if err := out.Close(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "artifacts", "create temp", "close failed", err)
	}
	return s.Register(ctx, target)
}

// Load fetches artifact metadata by id.
func (s *Store) Load(ctx context.Context, id string) (*Artifact, error) {
	row := s.db.Handle().QueryRowContext(
		ctx,
		`SELECT artifact_id, state, storage_path, owner_id, created_at, expires_at
         FROM video_artifacts WHERE artifact_id = ?`,
		id,
	)
	return scanArtifact(row)
}

// Open returns a reader over the artifact's content.
func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, *Artifact, error) {
	artifact, err := s.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(artifact.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("open artifact content: %w", err)
	}
	return f, artifact, nil
}

// Promote moves a temporary artifact into permanent storage under the owner's
// directory. Promoting an already-permanent artifact is a no-op returning the
// existing record. The filesystem move is retried once before surfacing an
// error since promotion is expected to be retry-safe.
func (s *Store) Promote(ctx context.Context, id, ownerID string) (*Artifact, error) {
	artifact, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact.State == StatePermanent {
		return artifact, nil
	}

	ownerDir := filepath.Join(s.mediaDir, "owner_"+ownerID)
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrTransient, "artifacts", "promote", "could not create owner directory", err)
	}

	shortID := id
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	finalName := fmt.Sprintf("isl_%s_%s%s", time.Now().UTC().Format("20060102_150405"), shortID, filepath.Ext(artifact.StoragePath))
	finalPath := filepath.Join(ownerDir, finalName)

	if err := moveFile(artifact.StoragePath, finalPath); err != nil {
		s.logger.Warn("promotion move failed, retrying once",
			logging.String(logging.FieldArtifactID, id),
			logging.Error(err),
		)
		if err := moveFile(artifact.StoragePath, finalPath); err != nil {
			return nil, services.Wrap(services.ErrTransient, "artifacts", "promote", "could not move artifact to permanent storage", err)
		}
	}

	_, err = s.db.Handle().ExecContext(
		ctx,
		`UPDATE video_artifacts
         SET state = ?, storage_path = ?, owner_id = ?, expires_at = NULL
         WHERE artifact_id = ?`,
		string(StatePermanent),
		finalPath,
		ownerID,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("persist promotion: %w", err)
	}
	return s.Load(ctx, id)
}

// DeleteTemp removes a temporary artifact and its content. Permanent
// artifacts are refused.
func (s *Store) DeleteTemp(ctx context.Context, id string) error {
	artifact, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if artifact.State != StateTemporary {
		return services.Wrap(services.ErrValidation, "artifacts", "delete", "refusing to delete a permanent artifact", nil)
	}
	if err := os.Remove(artifact.StoragePath); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrTransient, "artifacts", "delete", "could not remove artifact content", err)
	}
	if _, err := s.db.Handle().ExecContext(ctx, `DELETE FROM video_artifacts WHERE artifact_id = ?`, id); err != nil {
		return fmt.Errorf("delete artifact row: %w", err)
	}
	return nil
}

func scanArtifact(scanner interface{ Scan(dest ...any) error }) (*Artifact, error) {
	var (
		id         string
		state      string
		path       string
		owner      sql.NullString
		createdRaw string
		expiresRaw sql.NullString
	)
	if err := scanner.Scan(&id, &state, &path, &owner, &createdRaw, &expiresRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan artifact: %w", err)
	}

	artifact := &Artifact{
		ID:          id,
		State:       State(state),
		StoragePath: path,
		OwnerID:     owner.String,
	}
	if created, err := store.ParseTime(createdRaw); err == nil {
		artifact.CreatedAt = created
	}
	if expiresRaw.Valid {
		if expires, err := store.ParseTime(expiresRaw.String); err == nil {
			artifact.ExpiresAt = &expires
		}
	}
	return artifact, nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to copy+remove.
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
