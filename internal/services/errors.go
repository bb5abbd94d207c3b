package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

type serviceError struct {
	marker    error
	stage     string
	operation string
	message   string
	cause     error
}

func (e *serviceError) Error() string {
	detail := buildDetail(e.stage, e.operation, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.marker.Error(), detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.marker.Error(), detail)
}

func (e *serviceError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.marker, e.cause}
	}
	return []error{e.marker}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &serviceError{
		marker:    marker,
		stage:     stage,
		operation: operation,
		message:   message,
		cause:     err,
	}
}

// FailureDetail is the caller-safe description extracted from a stage error.
// Message is suitable for persisting as a job's error detail; Cause carries
// the raw collaborator error for logs only.
type FailureDetail struct {
	Kind      string
	Stage     string
	Operation string
	Message   string
	Cause     error
}

// Details extracts the failure detail from an error produced by Wrap. Errors
// from other sources yield a transient detail with the error text as message.
func Details(err error) FailureDetail {
	var svcErr *serviceError
	if errors.As(err, &svcErr) {
		return FailureDetail{
			Kind:      kindFor(svcErr.marker),
			Stage:     svcErr.stage,
			Operation: svcErr.operation,
			Message:   buildDetail(svcErr.stage, svcErr.operation, svcErr.message),
			Cause:     svcErr.cause,
		}
	}
	detail := FailureDetail{Kind: kindFor(ErrTransient)}
	if err != nil {
		detail.Message = err.Error()
	}
	return detail
}

// IsInputError reports whether the error should be rejected synchronously at
// submission rather than recorded on a job.
func IsInputError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

func kindFor(marker error) string {
	switch {
	case errors.Is(marker, ErrValidation):
		return "validation"
	case errors.Is(marker, ErrConfiguration):
		return "configuration"
	case errors.Is(marker, ErrNotFound):
		return "not_found"
	case errors.Is(marker, ErrExternalTool):
		return "external_tool"
	case errors.Is(marker, ErrTimeout):
		return "timeout"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
