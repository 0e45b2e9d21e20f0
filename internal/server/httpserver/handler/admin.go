package handler

import (
	"net/http"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
)

// handleShutdown handles POST /admin/shutdown. It posts a forced stop;
// the lifecycle loop completes teardown asynchronously.
func (h *Handler) handleShutdown(w http.ResponseWriter, r *http.Request) {
	accepted := h.lifecycle.RequestForcedStop()
	st := h.lifecycle.Status()

	logger.L(r.Context()).Warn("forced stop requested over HTTP", "accepted", accepted, "state", st.State.String())
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusConflict
	}
	h.writeJSON(w, r, status, ShutdownResponse{Accepted: accepted, State: st.State.String()})
}

// handleReclaim handles POST /admin/reclaim. It runs one reclaim pass
// outside the scheduler.
func (h *Handler) handleReclaim(w http.ResponseWriter, r *http.Request) {
	resp := ReclaimResponse{Before: h.objects.Count()}
	if err := h.objects.Reclaim(r.Context()); err != nil {
		logger.L(r.Context()).Warn("manual reclaim reported errors", "error", err)
		resp.Error = err.Error()
	}
	resp.After = h.objects.Count()
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleGetLogLevel handles GET /admin/loglevel.
func (h *Handler) handleGetLogLevel(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, LogLevelResponse{Level: h.getLogLevel()})
}

// handleSetLogLevel handles PUT /admin/loglevel.
func (h *Handler) handleSetLogLevel(w http.ResponseWriter, r *http.Request) {
	var req LogLevelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.setLogLevel(req.Level); err != nil {
		h.handleServiceError(w, r, domain.ErrBadRequest.WithDetails(err.Error()))
		return
	}

	logger.L(r.Context()).Info("log level changed", "level", h.getLogLevel())
	h.writeJSON(w, r, http.StatusOK, LogLevelResponse{Level: h.getLogLevel()})
}
