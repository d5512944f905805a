// Package mail sends transactional messages and manages templates and
// delivery settings.
package mail

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/siteforge-io/siteforge-go/hydrate"
	"github.com/siteforge-io/siteforge-go/transport"
	"github.com/siteforge-io/siteforge-go/validate"
)

// Service exposes the mail endpoints. Unlike the render APIs, mail
// calls complete synchronously; there is nothing to poll.
type Service struct {
	t *transport.Client
}

// New builds a Service on the given transport.
func New(t *transport.Client) *Service {
	return &Service{t: t}
}

// SendRequest describes a message to send.
type SendRequest struct {
	To         string         `json:"to" validate:"required,email"`
	From       string         `json:"from,omitempty" validate:"omitempty,email"`
	Subject    string         `json:"subject" validate:"required"`
	HTML       string         `json:"html,omitempty"`
	Text       string         `json:"text,omitempty"`
	TemplateID string         `json:"template_id,omitempty"`
	Variables  map[string]any `json:"variables,omitempty"`
}

// Message is a sent or scheduled message.
type Message struct {
	ID        string
	To        string
	From      string
	Subject   string
	State     string
	SentAt    time.Time
	CreatedAt time.Time
}

type messagePayload struct {
	ID        string `json:"id"`
	To        string `json:"to"`
	From      string `json:"from"`
	Subject   string `json:"subject"`
	State     string `json:"state"`
	SentAt    string `json:"sent_at"`
	CreatedAt string `json:"created_at"`
}

func hydrateMessage(p messagePayload) Message {
	return Message{
		ID:        p.ID,
		To:        p.To,
		From:      p.From,
		Subject:   p.Subject,
		State:     p.State,
		SentAt:    hydrate.Time(p.SentAt),
		CreatedAt: hydrate.Time(p.CreatedAt),
	}
}

// Send submits a message for delivery.
func (s *Service) Send(ctx context.Context, req SendRequest) (Message, error) {
	if err := validate.Check(req); err != nil {
		return Message{}, err
	}
	var payload messagePayload
	if err := s.t.Post(ctx, "/v1/mail/messages", req, &payload); err != nil {
		return Message{}, err
	}
	return hydrateMessage(payload), nil
}

// Get fetches a single message.
func (s *Service) Get(ctx context.Context, id string) (Message, error) {
	var payload messagePayload
	if err := s.t.Get(ctx, "/v1/mail/messages/"+url.PathEscape(id), &payload); err != nil {
		return Message{}, err
	}
	return hydrateMessage(payload), nil
}

type listResponse struct {
	Messages []messagePayload `json:"messages"`
	Total    int              `json:"total"`
}

// List returns a page of messages, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Message, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		values.Set("offset", strconv.Itoa(offset))
	}
	var resp listResponse
	if err := s.t.Get(ctx, transport.Path("/v1/mail/messages", values), &resp); err != nil {
		return nil, err
	}
	return hydrate.List(hydrateMessage, resp.Messages), nil
}

// Template is a reusable message body.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	HTML    string `json:"html" validate:"required"`
}

// UpdateTemplate replaces a template's content.
func (s *Service) UpdateTemplate(ctx context.Context, id string, tmpl Template) (Template, error) {
	if err := validate.Check(tmpl); err != nil {
		return Template{}, err
	}
	var updated Template
	if err := s.t.Put(ctx, "/v1/mail/templates/"+url.PathEscape(id), tmpl, &updated); err != nil {
		return Template{}, err
	}
	return updated, nil
}

// SettingsPatch updates a subset of delivery settings. Nil fields are
// left unchanged server-side.
type SettingsPatch struct {
	ReplyTo       *string `json:"reply_to,omitempty" validate:"omitempty,email"`
	TrackOpens    *bool   `json:"track_opens,omitempty"`
	TrackClicks   *bool   `json:"track_clicks,omitempty"`
	SendingPaused *bool   `json:"sending_paused,omitempty"`
}

// PatchSettings applies a partial settings update.
func (s *Service) PatchSettings(ctx context.Context, patch SettingsPatch) error {
	if err := validate.Check(patch); err != nil {
		return err
	}
	return s.t.Patch(ctx, "/v1/mail/settings", patch, nil)
}

// Delete removes a single message.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.t.Delete(ctx, "/v1/mail/messages/"+url.PathEscape(id), nil)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// BulkDelete removes several messages in one call. The endpoint
// requires its JSON body on DELETE.
func (s *Service) BulkDelete(ctx context.Context, ids ...string) error {
	req := bulkDeleteRequest{IDs: ids}
	if err := validate.Check(req); err != nil {
		return err
	}
	return s.t.DeleteWithBody(ctx, "/v1/mail/messages", req, nil)
}
