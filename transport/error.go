package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrAPI is the sentinel wrapped by every [APIError] whose status
	// does not map to a more specific kind.
	ErrAPI = errors.New("api error")
	// ErrAuthentication marks 401 and 403 responses.
	ErrAuthentication = errors.New("authentication failed")
	// ErrNotFound marks 404 responses.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks 400 and 422 responses.
	ErrValidation = errors.New("validation failed")
)

// APIError is a classified non-2xx response. Code carries the
// machine-readable error code when the platform supplied one, and Body
// holds the raw response body for caller inspection.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string

	kind error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// NetworkError reports a request that never produced an HTTP response
// (DNS failure, connection refused, aborted transfer). It is distinct
// from every classified [APIError].
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// errorPayload is the platform's error body shape.
type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// classify turns a non-2xx response into an *APIError. The error body
// is parsed as {message, code?}; a missing or malformed body falls
// back to the HTTP status text.
func classify(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		raw = nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(raw),
		kind:       kindForStatus(resp.StatusCode),
	}

	var payload errorPayload
	if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil && strings.TrimSpace(payload.Message) != "" {
		apiErr.Message = payload.Message
		apiErr.Code = payload.Code
	}

	return apiErr
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthentication
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrAPI
	}
}
