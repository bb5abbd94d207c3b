package daemon

import (
	"context"
	"strings"

	"signcast/internal/dictionary"
	"signcast/internal/jobs"
	"signcast/internal/services"
)

// Submit validates a generation request and enqueues a job. Invalid input is
// rejected here so no job row is ever created for it.
func (d *Daemon) Submit(ctx context.Context, subjectRef, text, avatarModel string) (*jobs.Job, error) {
	subjectRef = strings.TrimSpace(subjectRef)
	if subjectRef == "" {
		return nil, services.Wrap(services.ErrValidation, "submit", "validate", "subject_ref is required", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "submit", "validate", "text is required", nil)
	}

	model := dictionary.AvatarMale
	if trimmed := strings.TrimSpace(avatarModel); trimmed != "" {
		parsed, ok := dictionary.ParseAvatarModel(trimmed)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "submit", "validate", "unknown avatar model "+trimmed, nil)
		}
		model = parsed
	}

	return d.jobs.Create(ctx, subjectRef, text, model)
}
