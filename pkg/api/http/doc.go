// Package http provides the HTTP REST API implementation.
//
// The HTTP server exposes two read-only endpoints:
//   - GET /api/getalldata: every certificate record
//   - GET /api/data-summary: record count and RM/MR rankings
//
// Every response allows any origin. Database failures are reported as
// HTTP 500 with a {success:false, message, error} envelope.
package http
