// Package workflows executes platform workflows and waits on their
// runs.
package workflows

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/operation"
	"github.com/siteforge-io/siteforge-go/transport"
)

// DefaultPolicy allows for multi-step workflows that call out to slow
// integrations.
var DefaultPolicy = operation.Policy{
	Interval: 2 * time.Second,
	Timeout:  10 * time.Minute,
}

// Service exposes the workflow-run endpoints.
type Service struct {
	t      *transport.Client
	policy operation.Policy
}

// New builds a Service on the given transport.
func New(t *transport.Client, optFns ...Option) *Service {
	s := &Service{t: t, policy: DefaultPolicy}
	for _, opt := range optFns {
		opt(s)
	}
	return s
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy overrides [DefaultPolicy] for Execute calls.
func WithPolicy(p operation.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// RunRequest carries the input document handed to the workflow's
// first step.
type RunRequest struct {
	Input map[string]any `json:"input,omitempty"`
}

// Status is a workflow run's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further change is expected.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// StepResult is the outcome of one workflow step. Output is left raw;
// step schemas are workflow-specific.
type StepResult struct {
	Name   string          `json:"name"`
	Status Status          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Run is the current snapshot of a workflow execution.
type Run struct {
	ID         string
	WorkflowID string
	Status     Status
	Steps      []StepResult
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

type runPayload struct {
	ID         string       `json:"id"`
	WorkflowID string       `json:"workflow_id"`
	Status     Status       `json:"status"`
	Steps      []StepResult `json:"steps"`
	Error      string       `json:"error"`
	StartedAt  string       `json:"started_at"`
	FinishedAt string       `json:"finished_at"`
}

func hydrateRun(p runPayload) Run {
	return Run{
		ID:         p.ID,
		WorkflowID: p.WorkflowID,
		Status:     p.Status,
		Steps:      p.Steps,
		Error:      p.Error,
		StartedAt:  hydrate.Time(p.StartedAt),
		FinishedAt: hydrate.Time(p.FinishedAt),
	}
}

type createResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Start launches a run of the given workflow and returns its handle
// without waiting.
func (s *Service) Start(ctx context.Context, workflowID string, req RunRequest) (string, error) {
	var resp createResponse
	p := "/v1/workflows/" + url.PathEscape(workflowID) + "/runs"
	if err := s.t.Post(ctx, p, req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get fetches the current snapshot for a run handle.
func (s *Service) Get(ctx context.Context, runID string) (Run, error) {
	var payload runPayload
	if err := s.t.Get(ctx, "/v1/runs/"+url.PathEscape(runID), &payload); err != nil {
		return Run{}, err
	}
	return hydrateRun(payload), nil
}

// Execute launches a run and waits for its terminal snapshot. A run
// that settles in StatusCancelled (cancelled server-side, by another
// actor) surfaces as an operation failure with reason "cancelled".
func (s *Service) Execute(ctx context.Context, workflowID string, req RunRequest) (Run, error) {
	return operation.Wait(ctx, operation.Descriptor[string, Run]{
		Submit: func(ctx context.Context) (string, error) {
			return s.Start(ctx, workflowID, req)
		},
		Fetch:         s.Get,
		IsTerminal:    func(r Run) bool { return r.Status.Terminal() },
		IsSuccess:     func(r Run) bool { return r.Status == StatusSucceeded },
		FailureReason: failureReason,
	}, s.policy)
}

func failureReason(r Run) string {
	if r.Error != "" {
		return r.Error
	}
	return string(r.Status)
}
