package handler

import (
	"net/http"

	"github.com/yndnr/objhost-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health. It reports liveness only.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /ready. It succeeds only while Running.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	st := h.lifecycle.Status()
	if !h.lifecycle.Ready() {
		h.writeError(w, r, http.StatusServiceUnavailable, "OH-SYS-5030", "not ready", HealthResponse{
			Status: "unavailable",
			State:  st.State.String(),
		})
		return
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ready", State: st.State.String()})
}

// handleStatus handles GET /status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Lifecycle: h.lifecycle.Status(),
		Objects:   h.objects.Count(),
		Build:     buildinfo.Get(),
	})
}
