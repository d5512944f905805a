// Package batch processes many URLs through a single asynchronous
// platform job.
package batch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/siteforge-io/siteforge-go/download"
	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/operation"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/validate"
)

// DefaultPolicy allows for jobs spanning hundreds of URLs.
var DefaultPolicy = operation.Policy{
	Interval: 2 * time.Second,
	Timeout:  5 * time.Minute,
}

// Service exposes the batch-processing endpoints.
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

// WithPolicy overrides [DefaultPolicy] for Process calls.
func WithPolicy(p operation.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// Request describes a batch job. Operation selects what the platform
// does with each URL.
type Request struct {
	URLs      []string `json:"urls" validate:"required,min=1,dive,url"`
	Operation string   `json:"operation" validate:"required,oneof=screenshot extract"`
}

// Status is a batch job's lifecycle state. A batch can be cancelled
// server-side through [Service.Cancel].
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further change is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// URLResult is the outcome for a single URL within a batch.
type URLResult struct {
	URL         string `json:"url"`
	Status      Status `json:"status"`
	ArtifactURL string `json:"artifact_url"`
	Error       string `json:"error"`
}

// Batch is the current snapshot of a batch operation.
type Batch struct {
	ID         string
	Status     Status
	Total      int
	Completed  int
	Failed     int
	Results    []URLResult
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

type batchPayload struct {
	ID         string      `json:"id"`
	Status     Status      `json:"status"`
	Total      int         `json:"total"`
	Completed  int         `json:"completed"`
	Failed     int         `json:"failed"`
	Results    []URLResult `json:"results"`
	Error      string      `json:"error"`
	CreatedAt  string      `json:"created_at"`
	FinishedAt string      `json:"finished_at"`
}

func hydrateBatch(p batchPayload) Batch {
	return Batch{
		ID:         p.ID,
		Status:     p.Status,
		Total:      p.Total,
		Completed:  p.Completed,
		Failed:     p.Failed,
		Results:    p.Results,
		Error:      p.Error,
		CreatedAt:  hydrate.Time(p.CreatedAt),
		FinishedAt: hydrate.Time(p.FinishedAt),
	}
}

type createResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Create submits a batch and returns its handle without waiting.
func (s *Service) Create(ctx context.Context, req Request) (string, error) {
	if err := validate.Check(req); err != nil {
		return "", err
	}
	var resp createResponse
	if err := s.t.Post(ctx, "/v1/batches", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get fetches the current snapshot for a handle.
func (s *Service) Get(ctx context.Context, id string) (Batch, error) {
	var payload batchPayload
	if err := s.t.Get(ctx, "/v1/batches/"+url.PathEscape(id), &payload); err != nil {
		return Batch{}, err
	}
	return hydrateBatch(payload), nil
}

// Cancel asks the platform to stop a running batch. Work already
// completed is kept; the job settles in StatusCancelled.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.t.Post(ctx, "/v1/batches/"+url.PathEscape(id)+"/cancel", nil, nil)
}

// Process submits a batch and waits for its terminal snapshot.
func (s *Service) Process(ctx context.Context, req Request) (Batch, error) {
	return operation.Wait(ctx, operation.Descriptor[string, Batch]{
		Submit: func(ctx context.Context) (string, error) {
			return s.Create(ctx, req)
		},
		Fetch:         s.Get,
		IsTerminal:    func(b Batch) bool { return b.Status.Terminal() },
		IsSuccess:     func(b Batch) bool { return b.Status == StatusCompleted },
		FailureReason: failureReason,
	}, s.policy)
}

func failureReason(b Batch) string {
	if b.Error != "" {
		return b.Error
	}
	return string(b.Status)
}

// SaveArtifacts downloads every completed result's artifact into
// destDir, at most maxConcurrent at a time. File names follow the
// artifact URL's final path element.
func (s *Service) SaveArtifacts(ctx context.Context, b Batch, destDir string, maxConcurrent int, optFns ...download.Option) error {
	queue := download.NewQueue(maxConcurrent)
	for _, res := range b.Results {
		if res.Status != StatusCompleted || res.ArtifactURL == "" {
			continue
		}
		u, err := url.Parse(res.ArtifactURL)
		if err != nil {
			return fmt.Errorf("parsing artifact url %q: %w", res.ArtifactURL, err)
		}
		dest := filepath.Join(destDir, path.Base(u.Path))
		s.t.DownloadAsync(ctx, queue, res.ArtifactURL, dest, optFns...)
	}
	return queue.Wait()
}
