// Package handler provides HTTP request handlers for objhost.
//
// This package implements the HTTP API endpoints for health and status,
// registered classes, live objects and administrative operations.
//
// All JSON responses share the Response envelope. Errors carry a
// domain error code in the body and in the X-Error-Code header.
package handler
