// Package screenshots captures page renders through the platform's
// asynchronous screenshot API.
package screenshots

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/siteforge-io/siteforge-go/download"
	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/operation"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/validate"
)

// DefaultPolicy suits typical page renders, which finish within a few
// seconds.
var DefaultPolicy = operation.Policy{
	Interval: time.Second,
	Timeout:  60 * time.Second,
}

// Service exposes the screenshot endpoints.
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

// WithPolicy overrides [DefaultPolicy] for Capture calls.
func WithPolicy(p operation.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// CaptureRequest describes a render to submit.
type CaptureRequest struct {
	URL      string `json:"url" validate:"required,url"`
	FullPage bool   `json:"full_page,omitempty"`
	Width    int    `json:"width,omitempty" validate:"omitempty,gt=0"`
	Height   int    `json:"height,omitempty" validate:"omitempty,gt=0"`
	Format   string `json:"format,omitempty" validate:"omitempty,oneof=png jpeg webp pdf"`
	DelayMS  int    `json:"delay_ms,omitempty" validate:"omitempty,gte=0"`
}

// Status is a render's lifecycle state.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further change is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Render is the current snapshot of a screenshot operation.
type Render struct {
	ID         string
	Status     Status
	ImageURL   string
	SizeBytes  int64
	Checksum   string
	Error      string
	CreatedAt  time.Time
	FinishedAt time.Time
}

type renderPayload struct {
	ID         string `json:"id"`
	Status     Status `json:"status"`
	ImageURL   string `json:"image_url"`
	SizeBytes  int64  `json:"size_bytes"`
	Checksum   string `json:"checksum"`
	Error      string `json:"error"`
	CreatedAt  string `json:"created_at"`
	FinishedAt string `json:"finished_at"`
}

func hydrateRender(p renderPayload) Render {
	return Render{
		ID:         p.ID,
		Status:     p.Status,
		ImageURL:   p.ImageURL,
		SizeBytes:  p.SizeBytes,
		Checksum:   p.Checksum,
		Error:      p.Error,
		CreatedAt:  hydrate.Time(p.CreatedAt),
		FinishedAt: hydrate.Time(p.FinishedAt),
	}
}

type createResponse struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
}

// Create submits a render and returns its handle without waiting.
func (s *Service) Create(ctx context.Context, req CaptureRequest) (string, error) {
	if err := validate.Check(req); err != nil {
		return "", err
	}
	var resp createResponse
	if err := s.t.Post(ctx, "/v1/screenshots", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Get fetches the current snapshot for a handle.
func (s *Service) Get(ctx context.Context, id string) (Render, error) {
	var payload renderPayload
	if err := s.t.Get(ctx, "/v1/screenshots/"+url.PathEscape(id), &payload); err != nil {
		return Render{}, err
	}
	return hydrateRender(payload), nil
}

// Capture submits a render and waits for its terminal snapshot.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (Render, error) {
	return operation.Wait(ctx, operation.Descriptor[string, Render]{
		Submit: func(ctx context.Context) (string, error) {
			return s.Create(ctx, req)
		},
		Fetch:         s.Get,
		IsTerminal:    func(r Render) bool { return r.Status.Terminal() },
		IsSuccess:     func(r Render) bool { return r.Status == StatusCompleted },
		FailureReason: func(r Render) string { return r.Error },
	}, s.policy)
}

// Save downloads a completed render's image to destPath. When the
// platform reported a checksum it is verified during the transfer.
func (s *Service) Save(ctx context.Context, r Render, destPath string, optFns ...download.Option) error {
	if r.Status != StatusCompleted {
		return fmt.Errorf("render %s is %s, not %s", r.ID, r.Status, StatusCompleted)
	}
	if r.ImageURL == "" {
		return errors.New("render has no image url")
	}
	if r.Checksum != "" {
		optFns = append(optFns, download.WithChecksum(sha256.New(), r.Checksum))
	}
	return s.t.Download(ctx, r.ImageURL, destPath, optFns...)
}
