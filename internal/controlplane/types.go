// Package controlplane declares the ControlPlane collaborator contract: a
// remote workflow-automation server the core consumes for CRUD, activation,
// and execution inspection; it has no template-deployment method. The HTTP transport itself
// is an external collaborator concern; this package only fixes the
// interface and the error-class taxonomy the Retry policy dispatches on.
package controlplane

import (
	"context"

	"github.com/n8nctl/n8nctl/internal/workflow"
)

// Execution is a minimal summary of one past run of a workflow, as
// returned by GetExecutions.
type Execution struct {
	ID          string `json:"id"`
	WorkflowID  string `json:"workflowId"`
	Status      string `json:"status"`
	Mode        string `json:"mode"`
	StartedAt   string `json:"startedAt"`
	StoppedAt   string `json:"stoppedAt,omitempty"`
	ErrorDetail string `json:"errorDetail,omitempty"`
}

// ListFilter narrows ListWorkflows results.
type ListFilter struct {
	Active *bool
	Tags   []string
	Limit  int
	Cursor string
}

// ListResult is one page of ListWorkflows.
type ListResult struct {
	Workflows  []*workflow.Workflow
	NextCursor string
}

// ControlPlane is the full collaborator surface the core drives.
// Every method's error, when retryable, must satisfy RetryableError so
// internal/lifecycle.Retry can classify it.
type ControlPlane interface {
	GetWorkflow(ctx context.Context, id string) (*workflow.Workflow, error)
	ListWorkflows(ctx context.Context, filter ListFilter) (ListResult, error)
	CreateWorkflow(ctx context.Context, wf *workflow.Workflow) (*workflow.Workflow, error)
	UpdateWorkflow(ctx context.Context, id string, wf *workflow.Workflow) (*workflow.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	GetExecutions(ctx context.Context, workflowID string, limit int) ([]Execution, error)
}

// ErrorClass is the closed set of collaborator error classes the Retry
// policy dispatches on.
type ErrorClass string

const (
	ErrClassConnection       ErrorClass = "connection"
	ErrClassNoResponse       ErrorClass = "no-response"
	ErrClassRateLimit        ErrorClass = "rate-limit"
	ErrClassAuth             ErrorClass = "authentication"
	ErrClassValidation       ErrorClass = "validation"
	ErrClassGenericTransient ErrorClass = "generic-transient"
	ErrClassOther            ErrorClass = "other"
)

// Retryable reports whether errors of this class re-enter the retry
// policy: connection, no-response, rate-limit, and generic-transient
// errors retry; authentication, validation, and other 4xx responses
// (besides 429) never do.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ErrClassConnection, ErrClassNoResponse, ErrClassRateLimit, ErrClassGenericTransient:
		return true
	default:
		return false
	}
}

// Error wraps a collaborator failure with its classification and the
// error-code taxonomy entry (CONNECTION_ERROR, NO_RESPONSE,
// RATE_LIMIT_ERROR, AUTH_ERROR, VALIDATION_REJECTED).
type Error struct {
	Class      ErrorClass
	Code       string
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Retryable implements internal/lifecycle's RetryableError contract.
func (e *Error) Retryable() bool { return e.Class.Retryable() }

// ClassifyStatus maps an HTTP status code to an ErrorClass.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == 401 || status == 403:
		return ErrClassAuth
	case status == 429:
		return ErrClassRateLimit
	case status == 422 || status == 400:
		return ErrClassValidation
	case status >= 500:
		return ErrClassGenericTransient
	case status == 0:
		return ErrClassNoResponse
	default:
		return ErrClassOther
	}
}
