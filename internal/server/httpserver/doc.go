// Package httpserver provides the HTTP server for objhost.
//
// This package implements the external API using stdlib net/http:
//
//   - Health endpoints: /health, /ready, /status, /metrics
//   - Class endpoints: /classes
//   - Object endpoints: /objects, /objects/{id}, /objects/{id}/renew
//   - Admin endpoints: /admin/shutdown, /admin/reclaim, /admin/loglevel
//
// Middleware chain: Recover, RequestID, RateLimit, Audit. Admin routes
// additionally pass NetworkACL and the optional AdminToken check.
package httpserver
