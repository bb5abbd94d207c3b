package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"signcast/internal/dictionary"
	"signcast/internal/store"
)

// ErrNotFound indicates no job exists for the requested id.
var ErrNotFound = errors.New("job not found")

// ErrStaleTransition indicates the job's persisted state no longer matches
// what the writer expected; the write was refused.
var ErrStaleTransition = errors.New("stale transition refused")

// Store persists generation jobs in the shared SQLite database.
type Store struct {
	db *store.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *store.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new received job for the subject. Any live job for the
// same subject is superseded first (marked terminal with an error detail)
// inside the same transaction, so at most one live job per subject exists
// at any observed instant.
func (s *Store) Create(ctx context.Context, subjectRef, inputText string, model dictionary.AvatarModel) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	jobID := uuid.NewString()

	tx, err := s.db.Handle().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`UPDATE generation_jobs
         SET state = ?, message = ?, error_detail = ?, updated_at = ?
         WHERE subject_ref = ? AND state IN (?, ?, ?)`,
		string(StateError),
		"Superseded by a newer request",
		SupersededDetail,
		timestamp,
		subjectRef,
		string(StateReceived), string(StateProcessing), string(StateGeneratingVideo),
	)
	if err != nil {
		return nil, fmt.Errorf("supersede live jobs: %w", err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO generation_jobs (
            job_id, subject_ref, avatar_model, input_text, state, message,
            progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID,
		subjectRef,
		string(model),
		inputText,
		string(StateReceived),
		"Announcement received and queued for processing",
		0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return s.Load(ctx, jobID)
}

// Load fetches a job by identifier.
func (s *Store) Load(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.Handle().QueryRowContext(ctx, `SELECT `+jobColumns+` FROM generation_jobs WHERE job_id = ?`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}

// LiveForSubject returns the live job for a subject, or nil.
func (s *Store) LiveForSubject(ctx context.Context, subjectRef string) (*Job, error) {
	row := s.db.Handle().QueryRowContext(
		ctx,
		`SELECT `+jobColumns+` FROM generation_jobs
         WHERE subject_ref = ? AND state IN (?, ?, ?) ORDER BY created_at DESC LIMIT 1`,
		subjectRef,
		string(StateReceived), string(StateProcessing), string(StateGeneratingVideo),
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("live job for subject: %w", err)
	}
	return job, nil
}

// ClaimNext atomically claims the oldest received job, transitioning it to
// processing. Claiming assigns a single writer per job; no two workers ever
// mutate the same job concurrently. Returns nil when the queue is empty.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	tx, err := s.db.Handle().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(
		ctx,
		`SELECT job_id FROM generation_jobs WHERE state = ? ORDER BY created_at LIMIT 1`,
		string(StateReceived),
	)
	var jobID string
	if err := row.Scan(&jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select next job: %w", err)
	}

	res, err := tx.ExecContext(
		ctx,
		`UPDATE generation_jobs
         SET state = ?, message = ?, progress_percent = MAX(progress_percent, ?), updated_at = ?
         WHERE job_id = ? AND state = ?`,
		string(StateProcessing),
		"Processing announcement",
		10,
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
		string(StateReceived),
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		// Lost the race to another worker; treat as empty and poll again.
		return nil, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return s.Load(ctx, jobID)
}

// Transition moves a job from an expected state to a new state. The write is
// conditional on the persisted state still matching expected; a mismatch
// (cancel, supersede, crash recovery) yields ErrStaleTransition.
func (s *Store) Transition(ctx context.Context, jobID string, expected, next State, message string, progress int) error {
	if !CanTransition(expected, next) {
		return fmt.Errorf("illegal transition %s -> %s", expected, next)
	}
	return s.guardedUpdate(
		ctx,
		jobID,
		expected,
		`UPDATE generation_jobs
         SET state = ?, message = ?, progress_percent = MAX(progress_percent, ?), updated_at = ?
         WHERE job_id = ? AND state = ?`,
		string(next), message, progress, timestampNow(), jobID, string(expected),
	)
}

// UpdateProgress raises a job's progress within a stage. Progress is
// monotonic: writes can only raise the persisted percentage.
func (s *Store) UpdateProgress(ctx context.Context, jobID string, expected State, progress int, message string) error {
	return s.guardedUpdate(
		ctx,
		jobID,
		expected,
		`UPDATE generation_jobs
         SET progress_percent = MAX(progress_percent, ?), message = ?, updated_at = ?
         WHERE job_id = ? AND state = ?`,
		progress, message, timestampNow(), jobID, string(expected),
	)
}

// StoreTranslations records the per-language translation payload gathered
// during processing.
func (s *Store) StoreTranslations(ctx context.Context, jobID string, translationsJSON string) error {
	return s.guardedUpdate(
		ctx,
		jobID,
		StateProcessing,
		`UPDATE generation_jobs SET translations_json = ?, updated_at = ? WHERE job_id = ? AND state = ?`,
		translationsJSON, timestampNow(), jobID, string(StateProcessing),
	)
}

// Complete finishes a generating job with its artifact and manifest.
// Progress is forced to exactly 100 only here.
func (s *Store) Complete(ctx context.Context, jobID, artifactID, manifestJSON string) error {
	return s.guardedUpdate(
		ctx,
		jobID,
		StateGeneratingVideo,
		`UPDATE generation_jobs
         SET state = ?, message = ?, progress_percent = 100, result_artifact_id = ?, manifest_json = ?, updated_at = ?
         WHERE job_id = ? AND state = ?`,
		string(StateCompleted), "ISL video generated successfully", artifactID, manifestJSON, timestampNow(),
		jobID, string(StateGeneratingVideo),
	)
}

// Fail moves a live job to the error state with a caller-safe detail.
func (s *Store) Fail(ctx context.Context, jobID, message, errorDetail string) error {
	res, err := s.db.Handle().ExecContext(
		ctx,
		`UPDATE generation_jobs
         SET state = ?, message = ?, error_detail = ?, updated_at = ?
         WHERE job_id = ? AND state IN (?, ?, ?)`,
		string(StateError), message, errorDetail, timestampNow(),
		jobID,
		string(StateReceived), string(StateProcessing), string(StateGeneratingVideo),
	)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return staleWhenZero(res)
}

// Cancel explicitly terminates a live job. Subsequent writes from a stale
// worker fail their state guards. Unknown job ids report ErrNotFound;
// ErrStaleTransition is reserved for jobs that exist but already finished.
func (s *Store) Cancel(ctx context.Context, jobID string) error {
	err := s.Fail(ctx, jobID, "Generation cancelled", CancelledDetail)
	if errors.Is(err, ErrStaleTransition) {
		if _, loadErr := s.Load(ctx, jobID); errors.Is(loadErr, ErrNotFound) {
			return ErrNotFound
		}
	}
	return err
}

// List returns jobs filtered by state set (or all jobs when none given),
// newest first.
func (s *Store) List(ctx context.Context, states ...State) ([]*Job, error) {
	baseQuery := `SELECT ` + jobColumns + ` FROM generation_jobs`
	orderClause := ` ORDER BY created_at DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if len(states) == 0 {
		rows, err = s.db.Handle().QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(states)), ",")
		args := make([]any, len(states))
		for i, state := range states {
			args[i] = string(state)
		}
		rows, err = s.db.Handle().QueryContext(ctx, baseQuery+` WHERE state IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var list []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	return list, rows.Err()
}

// Stats returns aggregate job counts.
func (s *Store) Stats(ctx context.Context) (StatsSummary, error) {
	rows, err := s.db.Handle().QueryContext(ctx, `SELECT state, COUNT(1) FROM generation_jobs GROUP BY state`)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	summary := StatsSummary{}
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			return summary, err
		}
		summary.Total += count
		switch State(state) {
		case StateCompleted:
			summary.Completed += count
		case StateError:
			summary.Errored += count
		default:
			summary.Live += count
		}
	}
	return summary, rows.Err()
}

func (s *Store) guardedUpdate(ctx context.Context, jobID string, expected State, query string, args ...any) error {
	res, err := s.db.Handle().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return staleWhenZero(res)
}

func staleWhenZero(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleTransition
	}
	return nil
}

const jobColumns = "job_id, subject_ref, avatar_model, input_text, state, message, progress_percent, result_artifact_id, error_detail, manifest_json, translations_json, created_at, updated_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		jobID        string
		subjectRef   string
		avatarModel  string
		inputText    string
		stateStr     string
		message      sql.NullString
		progress     int
		artifactID   sql.NullString
		errorDetail  sql.NullString
		manifest     sql.NullString
		translations sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&jobID,
		&subjectRef,
		&avatarModel,
		&inputText,
		&stateStr,
		&message,
		&progress,
		&artifactID,
		&errorDetail,
		&manifest,
		&translations,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		JobID:            jobID,
		SubjectRef:       subjectRef,
		AvatarModel:      dictionary.AvatarModel(avatarModel),
		InputText:        inputText,
		State:            State(stateStr),
		Message:          message.String,
		ProgressPercent:  progress,
		ResultArtifactID: artifactID.String,
		ErrorDetail:      errorDetail.String,
		ManifestJSON:     manifest.String,
		TranslationsJSON: translations.String,
	}
	if created, err := store.ParseTime(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := store.ParseTime(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func timestampNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
