// Package types provides core types shared by the Conductor pipeline engine
package types

import (
	"context"
	"fmt"
)

// StepStatus represents the outcome of a discrete pipeline step
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// Environment represents a deployment environment
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentDevelopment Environment = "development"
)

// Complexity classifies the size of a pull request for review budgeting
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ReviewState represents the conclusion of a previous review pass
type ReviewState string

const (
	ReviewStateNone             ReviewState = "none"
	ReviewStateApproved         ReviewState = "approved"
	ReviewStateChangesRequested ReviewState = "changes_requested"
	ReviewStateCommented        ReviewState = "commented"
)

// StepResult is the uniform pass/fail/skip verdict for a phase-level step.
// Payload carries the raw collaborator output when a downstream step needs it.
type StepResult struct {
	Status  StepStatus `json:"status" yaml:"status"`
	Message string     `json:"message" yaml:"message"`
	Payload string     `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Passed creates a passed StepResult
func Passed(message string) StepResult {
	return StepResult{Status: StepPassed, Message: message}
}

// PassedWithPayload creates a passed StepResult carrying collaborator output
func PassedWithPayload(message, payload string) StepResult {
	return StepResult{Status: StepPassed, Message: message, Payload: payload}
}

// Failed creates a failed StepResult
func Failed(message string) StepResult {
	return StepResult{Status: StepFailed, Message: message}
}

// Skipped creates a skipped StepResult
func Skipped(message string) StepResult {
	return StepResult{Status: StepSkipped, Message: message}
}

// String renders the result as a single report line
func (r StepResult) String() string {
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// NamedResult is the uniform wrapper returned for every concurrently-run
// named operation. Exactly one NamedResult is produced per submitted
// operation; it is never mutated after creation.
type NamedResult[T any] struct {
	Name    string
	Success bool
	Value   T
	Err     error
}

// NamedOperation pairs a display name with an asynchronous operation
type NamedOperation[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// DeployTask describes one application deployment. VersionKey is set only
// for tasks whose success should record an entry in AppVersions.
type DeployTask struct {
	Name       string
	VersionKey string
	Deploy     func(ctx context.Context) (string, error)
}

// AppVersions maps fully-qualified image or package identifiers to the
// release version that was actually deployed. Entries are added only for
// tasks that succeeded, so downstream consumers never see a version for a
// failed deploy.
type AppVersions map[string]string

// Record adds a deployed version. A task without a VersionKey records nothing.
func (v AppVersions) Record(key, version string) {
	if key == "" {
		return
	}
	v[key] = version
}

// AuthError marks a credential or authentication failure. Auth failures are
// fatal: they are surfaced immediately and never retried, whatever the
// message looks like.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed during %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// PrAnalysis captures the review-workflow decision inputs computed for a
// pull request. The review run itself is an external workflow; Conductor
// only produces this shape.
type PrAnalysis struct {
	ShouldSkip          bool        `json:"shouldSkip"`
	MaxTurns            int         `json:"maxTurns"`
	Complexity          Complexity  `json:"complexity"`
	IsRereview          bool        `json:"isRereview"`
	PreviousState       ReviewState `json:"previousState"`
	PreviousWasApproved bool        `json:"previousWasApproved"`
	TotalChanges        int         `json:"totalChanges"`
	ChangedFiles        int         `json:"changedFiles"`
}
