package handler

import (
	"time"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/lifecycle"
	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Lifecycle lifecycle.Status `json:"lifecycle"`
	Objects   int              `json:"objects"`
	Build     buildinfo.Info   `json:"build"`
}

// CreateObjectRequest is the request body for POST /objects.
type CreateObjectRequest struct {
	ClassID string `json:"class_id"`
	Owner   string `json:"owner,omitempty"`
}

// ListObjectsResponse is the response body for GET /objects.
type ListObjectsResponse struct {
	Items []*domain.Object `json:"items"`
	Total int              `json:"total"`
}

// ClassResponse describes one registered class.
type ClassResponse struct {
	ID           string    `json:"id"`
	Description  string    `json:"description,omitempty"`
	PID          int       `json:"pid"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ListClassesResponse is the response body for GET /classes.
type ListClassesResponse struct {
	Items []ClassResponse `json:"items"`
}

// ShutdownResponse is the response body for POST /admin/shutdown.
type ShutdownResponse struct {
	Accepted bool   `json:"accepted"`
	State    string `json:"state"`
}

// ReclaimResponse is the response body for POST /admin/reclaim.
type ReclaimResponse struct {
	Before int    `json:"before"`
	After  int    `json:"after"`
	Error  string `json:"error,omitempty"`
}

// LogLevelRequest is the request body for PUT /admin/loglevel.
type LogLevelRequest struct {
	Level string `json:"level"`
}

// LogLevelResponse reports the active log level.
type LogLevelResponse struct {
	Level string `json:"level"`
}
