package api

import "signcast/internal/status"

// SubmitRequest asks for a new ISL video generation.
type SubmitRequest struct {
	SubjectRef  string `json:"subject_ref"`
	Text        string `json:"text"`
	AvatarModel string `json:"avatar_model"`
}

// SubmitResponse acknowledges an accepted generation request.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobResponse wraps a single job view.
type JobResponse struct {
	Job *status.JobView `json:"job"`
}

// JobListResponse wraps a job listing.
type JobListResponse struct {
	Jobs []*status.JobView `json:"jobs"`
}

// ModelsResponse lists the supported avatar models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// PromoteRequest asks to make a temporary artifact permanent.
type PromoteRequest struct {
	OwnerID string `json:"owner_id"`
}

// ArtifactResponse describes an artifact after a mutation.
type ArtifactResponse struct {
	ArtifactID  string `json:"artifact_id"`
	State       string `json:"state"`
	StoragePath string `json:"storage_path"`
}

// SweepResponse reports one expiry sweep.
type SweepResponse struct {
	Removed  int `json:"removed"`
	Orphans  int `json:"orphans"`
	Failures int `json:"failures"`
}

// ComponentHealth reports one health check.
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// HealthResponse aggregates component health.
type HealthResponse struct {
	Healthy    bool              `json:"healthy"`
	Components []ComponentHealth `json:"components"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
