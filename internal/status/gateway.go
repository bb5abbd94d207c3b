package status

import (
	"context"
	"time"

	"signcast/internal/composer"
	"signcast/internal/config"
	"signcast/internal/jobs"
	"signcast/internal/translate"
)

// StaleMessage is shown for jobs whose processing stopped without reaching a
// terminal state.
const StaleMessage = "Generation stalled and was marked as failed"

const staleDetail = "job made no progress within the stale timeout"

// JobView is the client-facing projection of a job. Terminal and stale
// display states differ from storage: a stalled live job is shown as an
// error even though its row is untouched.
type JobView struct {
	JobID           string            `json:"job_id"`
	SubjectRef      string            `json:"subject_ref"`
	AvatarModel     string            `json:"avatar_model"`
	Status          string            `json:"status"`
	Message         string            `json:"message"`
	ProgressPercent int               `json:"progress_percent"`
	ArtifactID      string            `json:"artifact_id,omitempty"`
	ErrorDetail     string            `json:"error_detail,omitempty"`
	SignsUsed       []string          `json:"signs_used,omitempty"`
	SignsSkipped    []string          `json:"signs_skipped,omitempty"`
	SourceLanguage  string            `json:"source_language,omitempty"`
	Translations    map[string]string `json:"translations,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Stale           bool              `json:"-"`
}

// Gateway reads job state for clients.
type Gateway struct {
	jobs       *jobs.Store
	staleAfter time.Duration
	now        func() time.Time
}

// NewGateway constructs a gateway using the configured stale timeout.
func NewGateway(jobStore *jobs.Store, cfg *config.Config) *Gateway {
	staleAfter := time.Duration(cfg.Workflow.StaleJobTimeout) * time.Second
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &Gateway{
		jobs:       jobStore,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// WithClock overrides the gateway's time source. Used in tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Job returns the display view for one job. Returns jobs.ErrNotFound when
// the identifier is unknown.
func (g *Gateway) Job(ctx context.Context, jobID string) (*JobView, error) {
	job, err := g.jobs.Load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return g.view(job), nil
}

// ForSubject returns the view of the subject's live job, or nil when the
// subject has none.
func (g *Gateway) ForSubject(ctx context.Context, subjectRef string) (*JobView, error) {
	job, err := g.jobs.LiveForSubject(ctx, subjectRef)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, nil
	}
	return g.view(job), nil
}

// List returns display views for jobs in the given states, newest first.
func (g *Gateway) List(ctx context.Context, states ...jobs.State) ([]*JobView, error) {
	list, err := g.jobs.List(ctx, states...)
	if err != nil {
		return nil, err
	}
	views := make([]*JobView, 0, len(list))
	for _, job := range list {
		views = append(views, g.view(job))
	}
	return views, nil
}

func (g *Gateway) view(job *jobs.Job) *JobView {
	view := &JobView{
		JobID:           job.JobID,
		SubjectRef:      job.SubjectRef,
		AvatarModel:     string(job.AvatarModel),
		Status:          string(job.State),
		Message:         job.Message,
		ProgressPercent: job.ProgressPercent,
		ArtifactID:      job.ResultArtifactID,
		ErrorDetail:     job.ErrorDetail,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}

	if manifest, err := composer.ParseManifest(job.ManifestJSON); err == nil && job.ManifestJSON != "" {
		view.SignsUsed = manifest.SignsUsed
		view.SignsSkipped = manifest.SignsSkipped
	}
	if translations, err := translate.ParseTranslations(job.TranslationsJSON); err == nil && job.TranslationsJSON != "" {
		view.SourceLanguage = translations.SourceLanguage
		view.Translations = translations.Results
	}

	if job.Live() && g.now().Sub(job.UpdatedAt) > g.staleAfter {
		view.Stale = true
		view.Status = string(jobs.StateError)
		view.Message = StaleMessage
		view.ErrorDetail = staleDetail
	}
	return view
}
