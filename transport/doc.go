// Package transport executes typed JSON requests against the Siteforge
// platform API, built on [net/http].
//
// # Building a Client
//
// Use [Build] with the API base URL and key, plus functional options:
//
//	t, err := transport.Build("https://api.siteforge.io", apiKey,
//		transport.WithTimeout(10*time.Second),
//		transport.WithUserAgent("myapp/1.0"),
//	)
//
// Every request carries a bearer token and a fresh X-Request-ID.
// Requests to hosts other than the API base (artifact downloads from
// CDN hosts, for instance) are sent without credentials.
//
// # Making Requests
//
// The verb helpers encode an optional request body as JSON and decode
// the response into dest:
//
//	var shot renderPayload
//	err = t.Get(ctx, "/v1/screenshots/"+id, &shot)
//	err = t.Post(ctx, "/v1/screenshots", req, &created)
//
// Non-2xx responses become a [*APIError] wrapping one of the sentinel
// errors, so callers can branch with [errors.Is]:
//
//	if errors.Is(err, transport.ErrNotFound) { ... }
//
// Failures before a response arrives (DNS, dial, TLS) become a
// [*NetworkError] instead.
//
// # Downloading Artifacts
//
// [Client.Download] streams a URL to disk with optional checksum
// verification and progress reporting; [Client.DownloadAsync] does the
// same through a [download.Queue] for concurrent fetches. See the
// [github.com/siteforge-io/siteforge-go/download] package.
package transport
