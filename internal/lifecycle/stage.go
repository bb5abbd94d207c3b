package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"signcast/internal/composer"
	"signcast/internal/jobs"
	"signcast/internal/logging"
	"signcast/internal/services"
)

const noSignsDetail = "no matching signs in the dictionary"

func (m *Manager) processJob(ctx context.Context, logger *slog.Logger, job *jobs.Job) error {
	ctx = services.WithJobID(ctx, job.JobID)
	logger = logger.With(
		logging.String(logging.FieldJobID, job.JobID),
		logging.String(logging.FieldSubjectRef, job.SubjectRef),
	)
	logger.Info("processing job", logging.String("avatar_model", string(job.AvatarModel)))

	// Translation is best effort: a translation outage never blocks the video.
	m.runTranslation(ctx, logger, job)

	snapshot, err := m.snapshots.Snapshot(ctx)
	if err != nil {
		return m.failJob(ctx, logger, job, "resolve",
			services.Wrap(services.ErrTransient, "resolver", "load dictionary", "sign dictionary unavailable", err))
	}
	resolved := m.resolver.Resolve(snapshot, job.InputText, job.AvatarModel)

	if err := m.jobs.Transition(ctx, job.JobID, jobs.StateProcessing, jobs.StateGeneratingVideo, "Generating ISL video", 50); err != nil {
		return m.abandonIfStale(logger, job, err)
	}

	artifact, manifest, err := m.composer.Compose(ctx, resolved, func(percent int, message string) {
		if progErr := m.jobs.UpdateProgress(ctx, job.JobID, jobs.StateGeneratingVideo, percent, message); progErr != nil && !errors.Is(progErr, jobs.ErrStaleTransition) {
			logger.Warn("progress update failed", logging.Error(progErr))
		}
	})
	if err != nil {
		if errors.Is(err, composer.ErrNoSigns) {
			return m.failWith(ctx, logger, job, "No matching signs found for the provided text", noSignsDetail)
		}
		return m.failJob(ctx, logger, job, "compose", err)
	}

	if err := m.jobs.Complete(ctx, job.JobID, artifact.ID, manifest.JSON()); err != nil {
		return m.abandonIfStale(logger, job, err)
	}

	logger.Info("job completed",
		logging.String(logging.FieldArtifactID, artifact.ID),
		logging.Int("signs_used", len(manifest.SignsUsed)),
		logging.Int("signs_skipped", len(manifest.SignsSkipped)),
		logging.String(logging.FieldEventType, "job_completed"),
	)
	return nil
}

func (m *Manager) runTranslation(ctx context.Context, logger *slog.Logger, job *jobs.Job) {
	if m.translator == nil || !m.translator.Enabled() {
		return
	}
	translations, err := m.translator.Translate(ctx, job.InputText)
	if err != nil {
		logger.Warn("translation skipped",
			logging.Error(err),
			logging.String(logging.FieldEventType, "translation_skipped"),
		)
		return
	}
	if err := m.jobs.StoreTranslations(ctx, job.JobID, translations.JSON()); err != nil && !errors.Is(err, jobs.ErrStaleTransition) {
		logger.Warn("failed to persist translations", logging.Error(err))
	}
}

// failJob records a stage failure with the caller-safe message extracted from
// the error. The raw cause goes to the log only.
func (m *Manager) failJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, stageName string, stageErr error) error {
	details := services.Details(stageErr)
	message := "ISL video generation failed"
	if details.Kind == "timeout" {
		message = "ISL video generation timed out"
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldStage, stageName),
		logging.String("error_kind", details.Kind),
		logging.String("error_detail", details.Message),
		logging.String(logging.FieldEventType, "stage_failure"),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)

	if err := m.jobs.Fail(ctx, job.JobID, message, details.Message); err != nil {
		return m.abandonIfStale(logger, job, err)
	}
	return stageErr
}

func (m *Manager) failWith(ctx context.Context, logger *slog.Logger, job *jobs.Job, message, detail string) error {
	logger.Warn("job failed", logging.String("error_detail", detail))
	if err := m.jobs.Fail(ctx, job.JobID, message, detail); err != nil {
		return m.abandonIfStale(logger, job, err)
	}
	return nil
}

// abandonIfStale drops work on a job whose persisted state moved underneath
// the worker, typically after a cancel or supersede.
func (m *Manager) abandonIfStale(logger *slog.Logger, job *jobs.Job, err error) error {
	if errors.Is(err, jobs.ErrStaleTransition) {
		logger.Info("job state changed externally, abandoning",
			logging.String(logging.FieldEventType, "job_abandoned"),
		)
		return nil
	}
	logger.Error("job state write failed", logging.Error(err))
	return err
}
