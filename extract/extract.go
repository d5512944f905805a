// Package extract pulls structured content out of pages through the
// platform's asynchronous extraction API.
package extract

import (
	"context"
	"net/url"
	"time"

	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/operation"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/validate"
)

// DefaultPolicy suits single-page extractions.
var DefaultPolicy = operation.Policy{
	Interval: time.Second,
	Timeout:  60 * time.Second,
}

// Service exposes the extraction endpoints.
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

// WithPolicy overrides [DefaultPolicy] for Run calls.
func WithPolicy(p operation.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// Request describes an extraction to submit. Selectors, when present,
// restrict extraction to matching elements.
type Request struct {
	URL       string   `json:"url" validate:"required,url"`
	Selectors []string `json:"selectors,omitempty"`
	Links     bool     `json:"links,omitempty"`
}

// Status is an extraction's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further change is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Extraction is the current snapshot of an extraction operation.
type Extraction struct {
	ID         string
	Status     Status
	Title      string
	Text       string
	Links      []string
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

type extractionPayload struct {
	ID         string   `json:"id"`
	Status     Status   `json:"status"`
	Title      string   `json:"title"`
	Text       string   `json:"text"`
	Links      []string `json:"links"`
	Error      string   `json:"error"`
	CreatedAt  string   `json:"created_at"`
	FinishedAt string   `json:"finished_at"`
}

func hydrateExtraction(p extractionPayload) Extraction {
	return Extraction{
		ID:         p.ID,
		Status:     p.Status,
		Title:      p.Title,
		Text:       p.Text,
		Links:      p.Links,
		Error:      p.Error,
		CreatedAt:  hydrate.Time(p.CreatedAt),
		FinishedAt: hydrate.Time(p.FinishedAt),
	}
}

type createResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Create submits an extraction and returns its handle without waiting.
func (s *Service) Create(ctx context.Context, req Request) (string, error) {
	if err := validate.Check(req); err != nil {
		return "", err
	}
	var resp createResponse
	if err := s.t.Post(ctx, "/v1/extractions", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get fetches the current snapshot for a handle.
func (s *Service) Get(ctx context.Context, id string) (Extraction, error) {
	var payload extractionPayload
	if err := s.t.Get(ctx, "/v1/extractions/"+url.PathEscape(id), &payload); err != nil {
		return Extraction{}, err
	}
	return hydrateExtraction(payload), nil
}

// Run submits an extraction and waits for its terminal snapshot.
func (s *Service) Run(ctx context.Context, req Request) (Extraction, error) {
	return operation.Wait(ctx, operation.Descriptor[string, Extraction]{
		Submit: func(ctx context.Context) (string, error) {
			return s.Create(ctx, req)
		},
		Fetch:         s.Get,
		IsTerminal:    func(e Extraction) bool { return e.Status.Terminal() },
		IsSuccess:     func(e Extraction) bool { return e.Status == StatusCompleted },
		FailureReason: func(e Extraction) string { return e.Error },
	}, s.policy)
}
