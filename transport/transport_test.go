package transport_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/siteforge-io/siteforge-go/transport"
)

type payload struct {
	Body string `json:"body"`
}

func TestBuild_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		baseURL string
		apiKey  string
		wantErr bool
	}{
		{name: "valid", baseURL: "https://api.example.com", apiKey: "sk_test", wantErr: false},
		{name: "empty key", baseURL: "https://api.example.com", apiKey: "", wantErr: true},
		{name: "empty base url", baseURL: "", apiKey: "sk_test", wantErr: true},
		{name: "bad scheme", baseURL: "ftp://api.example.com", apiKey: "sk_test", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := transport.Build(tc.baseURL, tc.apiKey)
			if tc.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got: %v", err)
			}
		})
	}
}

func TestExecute_Headers(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	if err := c.Get(t.Context(), "/v1/ping", nil); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotAuth != "Bearer sk_test" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected an X-Request-ID header")
	}
	if gotAccept != "application/json" {
		t.Errorf("expected Accept application/json, got %q", gotAccept)
	}
}

// The platform rejects a JSON content type on an empty body, so the
// header must track the body's presence exactly.
func TestExecute_ContentTypeCoupledToBody(t *testing.T) {
	contentTypes := map[string]string{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentTypes[r.Method] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	if err := c.Get(t.Context(), "/v1/thing", nil); err != nil {
		t.Fatalf("GET: %v", err)
	}
	if err := c.Post(t.Context(), "/v1/thing", payload{Body: "b"}, nil); err != nil {
		t.Fatalf("POST: %v", err)
	}
	if err := c.Delete(t.Context(), "/v1/thing", nil); err != nil {
		t.Fatalf("DELETE: %v", err)
	}

	if got := contentTypes[http.MethodGet]; got != "" {
		t.Errorf("GET without body must omit Content-Type, got %q", got)
	}
	if got := contentTypes[http.MethodPost]; got != "application/json" {
		t.Errorf("POST with body must carry application/json, got %q", got)
	}
	if got := contentTypes[http.MethodDelete]; got != "" {
		t.Errorf("DELETE without body must omit Content-Type, got %q", got)
	}
}

func TestExecute_DecodesSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(payload{Body: "hello"})
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	var got payload
	if err := c.Post(t.Context(), "/v1/things", payload{Body: "in"}, &got); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if diff := cmp.Diff(payload{Body: "hello"}, got); diff != "" {
		t.Errorf("decoded payload mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_Classification(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantMsg  string
		wantCode string
	}{
		{
			name:     "validation with message",
			status:   http.StatusBadRequest,
			body:     `{"message":"title is required"}`,
			wantKind: transport.ErrValidation,
			wantMsg:  "title is required",
		},
		{
			name:     "unprocessable entity",
			status:   http.StatusUnprocessableEntity,
			body:     `{"message":"url is not reachable","code":"unreachable_url"}`,
			wantKind: transport.ErrValidation,
			wantMsg:  "url is not reachable",
			wantCode: "unreachable_url",
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message":"invalid api key"}`,
			wantKind: transport.ErrAuthentication,
			wantMsg:  "invalid api key",
		},
		{
			name:     "forbidden",
			status:   http.StatusForbidden,
			body:     `{"message":"plan does not include workflows"}`,
			wantKind: transport.ErrAuthentication,
			wantMsg:  "plan does not include workflows",
		},
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"message":"no such screenshot"}`,
			wantKind: transport.ErrNotFound,
			wantMsg:  "no such screenshot",
		},
		{
			name:     "unparsable body falls back to status text",
			status:   http.StatusInternalServerError,
			body:     `<html>boom</html>`,
			wantKind: transport.ErrAPI,
			wantMsg:  http.StatusText(http.StatusInternalServerError),
		},
		{
			name:     "empty body falls back to status text",
			status:   http.StatusBadGateway,
			body:     "",
			wantKind: transport.ErrAPI,
			wantMsg:  http.StatusText(http.StatusBadGateway),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c, err := transport.Build(ts.URL, "sk_test")
			if err != nil {
				t.Fatalf("failed to build transport: %v", err)
			}

			err = c.Get(t.Context(), "/v1/things/x", nil)
			if !errors.Is(err, tc.wantKind) {
				t.Fatalf("expected kind %v, got: %v", tc.wantKind, err)
			}

			var apiErr *transport.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, apiErr.StatusCode)
			}
			if apiErr.Message != tc.wantMsg {
				t.Errorf("expected message %q, got %q", tc.wantMsg, apiErr.Message)
			}
			if apiErr.Code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, apiErr.Code)
			}
			if apiErr.Body != tc.body {
				t.Errorf("expected raw body to be preserved, got %q", apiErr.Body)
			}
		})
	}
}

// The error path must win even when the body would decode cleanly into
// the caller's destination type.
func TestExecute_ErrorBeforeSuccessDecode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"body":"looks like a success shape"}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	var got payload
	err = c.Get(t.Context(), "/v1/things", &got)
	if !errors.Is(err, transport.ErrValidation) {
		t.Fatalf("expected classification, got: %v", err)
	}
	if got.Body != "" {
		t.Errorf("destination must not be populated on an error response, got %q", got.Body)
	}
}

func TestExecute_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse all connections

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	err = c.Get(t.Context(), "/v1/ping", nil)

	var netErr *transport.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got: %v", err)
	}
	if netErr.Err == nil {
		t.Error("expected the underlying cause to be wrapped")
	}

	var apiErr *transport.APIError
	if errors.As(err, &apiErr) {
		t.Error("a network failure must not classify as an API error")
	}
}

func TestDeleteWithBody(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string][]string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test")
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	body := map[string][]string{"ids": {"m1", "m2"}}
	if err := c.DeleteWithBody(t.Context(), "/v1/mail/messages", body, nil); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type on bodied DELETE, got %q", gotContentType)
	}
	if diff := cmp.Diff(body, gotBody); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestWithUserAgent(t *testing.T) {
	const expectedUA = "siteforge-go-test/1.0"

	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test", transport.WithUserAgent(expectedUA))
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	if err := c.Get(t.Context(), "/v1/ping", nil); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if gotUA != expectedUA {
		t.Errorf("expected User-Agent %q, got %q", expectedUA, gotUA)
	}
}

func TestWithThrottleAndTimeoutOptions(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c, err := transport.Build(ts.URL, "sk_test",
		transport.WithThrottle(100, 10),
		transport.WithTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to build transport: %v", err)
	}

	if err := c.Get(t.Context(), "/v1/ping", nil); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if _, err := transport.Build(ts.URL, "sk_test", transport.WithThrottle(0, 10)); err == nil {
		t.Error("expected invalid throttle config to be rejected")
	}
}

func TestPath(t *testing.T) {
	values := url.Values{}
	values.Set("limit", "10")
	values.Set("offset", "20")

	got := transport.Path("/v1/mail/messages", values)
	want := "/v1/mail/messages?limit=10&offset=20"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := transport.Path("/v1/mail/messages", nil); got != "/v1/mail/messages" {
		t.Errorf("expected bare path with no query, got %q", got)
	}
}
