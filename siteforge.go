// Package siteforge is the Go client for the Siteforge platform API.
//
// A [Client] bundles one shared transport with a handle per resource
// family. The long-running resources (screenshots, extraction, batch
// processing, workflow runs) expose both raw create/get calls and a
// wait-for-completion convenience built on the operation package.
package siteforge

import (
	"github.com/siteforge-io/siteforge-go/batch"
	"github.com/siteforge-io/siteforge-go/cdn"
	"github.com/siteforge-io/siteforge-go/extract"
	"github.com/siteforge-io/siteforge-go/mail"
	"github.com/siteforge-io/siteforge-go/screenshots"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/workflows"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.siteforge.io"

// Client aggregates every Siteforge service over one transport.
type Client struct {
	Transport   *transport.Client
	Screenshots *screenshots.Service
	Extract     *extract.Service
	Batch       *batch.Service
	Workflows   *workflows.Service
	Mail        *mail.Service
	CDN         *cdn.Service
}

// NewClient builds a Client against [DefaultBaseURL].
func NewClient(apiKey string, opts ...transport.Option) (*Client, error) {
	return NewClientWithBaseURL(DefaultBaseURL, apiKey, opts...)
}

// NewClientWithBaseURL builds a Client against a specific endpoint,
// for self-hosted installs and tests.
func NewClientWithBaseURL(baseURL, apiKey string, opts ...transport.Option) (*Client, error) {
	t, err := transport.Build(baseURL, apiKey, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		Transport:   t,
		Screenshots: screenshots.New(t),
		Extract:     extract.New(t),
		Batch:       batch.New(t),
		Workflows:   workflows.New(t),
		Mail:        mail.New(t),
		CDN:         cdn.New(t),
	}, nil
}
