// Package download streams operation artifacts (rendered screenshots,
// extraction archives) to disk with optional checksum validation and
// progress reporting.
//
// # Single Download
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then atomically renames it on success:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, destPath, logger,
//		download.WithChecksum(sha256.New(), expectedHex),
//	)
//
// # Concurrent Downloads
//
// A [Queue] bounds the number of in-flight downloads; each Start
// returns a [Result] that can be awaited or cancelled individually,
// and [Queue.Wait] joins the errors of every enqueued download.
//
// Most callers should use the higher-level transport package, which
// invokes Handle internally and accepts the same options on
// Download and DownloadAsync.
package download
