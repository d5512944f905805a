// Package cdn manages assets served from the platform's edge network.
package cdn

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/validate"
)

// Service exposes the CDN asset endpoints.
type Service struct {
	t *transport.Client
}

// New builds a Service on the given transport.
func New(t *transport.Client) *Service {
	return &Service{t: t}
}

// RegisterRequest points the CDN at an origin object to cache and
// serve.
type RegisterRequest struct {
	Path        string `json:"path" validate:"required"`
	OriginURL   string `json:"origin_url" validate:"required,url"`
	ContentType string `json:"content_type,omitempty"`
	MaxAge      int    `json:"max_age,omitempty" validate:"omitempty,gte=0"`
}

// Asset is a cached object on the edge network.
type Asset struct {
	ID          string
	Path        string
	URL         string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type assetPayload struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func hydrateAsset(p assetPayload) Asset {
	return Asset{
		ID:          p.ID,
		Path:        p.Path,
		URL:         p.URL,
		ContentType: p.ContentType,
		SizeBytes:   p.SizeBytes,
		CreatedAt:   hydrate.Time(p.CreatedAt),
		UpdatedAt:   hydrate.Time(p.UpdatedAt),
	}
}

// Register adds an asset to the CDN.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Asset, error) {
	if err := validate.Check(req); err != nil {
		return Asset{}, err
	}
	var payload assetPayload
	if err := s.t.Post(ctx, "/v1/cdn/assets", req, &payload); err != nil {
		return Asset{}, err
	}
	return hydrateAsset(payload), nil
}

type listResponse struct {
	Assets []assetPayload `json:"assets"`
	Total  int            `json:"total"`
}

// List returns assets under the given path prefix.
func (s *Service) List(ctx context.Context, prefix string, limit int) ([]Asset, error) {
	values := url.Values{}
	if prefix != "" {
		values.Set("prefix", prefix)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var resp listResponse
	if err := s.t.Get(ctx, transport.Path("/v1/cdn/assets", values), &resp); err != nil {
		return nil, err
	}
	return hydrate.List(hydrateAsset, resp.Assets), nil
}

// MetadataPatch updates a subset of an asset's caching metadata.
type MetadataPatch struct {
	ContentType *string `json:"content_type,omitempty"`
	MaxAge      *int    `json:"max_age,omitempty" validate:"omitempty,gte=0"`
}

// UpdateMetadata applies a partial metadata update to an asset.
func (s *Service) UpdateMetadata(ctx context.Context, id string, patch MetadataPatch) (Asset, error) {
	if err := validate.Check(patch); err != nil {
		return Asset{}, err
	}
	var payload assetPayload
	if err := s.t.Patch(ctx, "/v1/cdn/assets/"+url.PathEscape(id), patch, &payload); err != nil {
		return Asset{}, err
	}
	return hydrateAsset(payload), nil
}

// Purge evicts a single asset from the edge caches.
func (s *Service) Purge(ctx context.Context, id string) error {
	return s.t.Delete(ctx, "/v1/cdn/assets/"+url.PathEscape(id), nil)
}

type purgeManyRequest struct {
	Paths []string `json:"paths" validate:"required,min=1"`
}

// PurgeMany evicts every asset matching the given paths. The endpoint
// requires its JSON body on DELETE.
func (s *Service) PurgeMany(ctx context.Context, paths ...string) error {
	req := purgeManyRequest{Paths: paths}
	if err := validate.Check(req); err != nil {
		return err
	}
	return s.t.DeleteWithBody(ctx, "/v1/cdn/assets", req, nil)
}
