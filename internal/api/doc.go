// Package api serves the status HTTP API of the sockclient daemon.
//
// Endpoints:
//
//	GET /api/v1/health          connection state; 503 unless connected
//	GET /api/v1/metrics         runtime and client counters
//	GET /api/v1/journal?limit=N recent journalled messages; 404 when the journal is disabled
//
// The API is read-only and unauthenticated; bind it to loopback or put it
// behind a proxy.
package api
