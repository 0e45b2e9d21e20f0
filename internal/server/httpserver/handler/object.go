package handler

import (
	"net/http"

	"github.com/yndnr/objhost-go/internal/core/domain"
	"github.com/yndnr/objhost-go/internal/core/service"
	"github.com/yndnr/objhost-go/internal/telemetry/logger"
)

// handleListClasses handles GET /classes.
func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	regs, err := h.classes.Classes(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	items := make([]ClassResponse, 0, len(regs))
	for _, reg := range regs {
		items = append(items, ClassResponse{
			ID:           reg.ClassID,
			Description:  reg.Description,
			PID:          reg.PID,
			RegisteredAt: reg.RegisteredAt,
		})
	}
	h.writeJSON(w, r, http.StatusOK, ListClassesResponse{Items: items})
}

// handleCreateObject handles POST /objects.
func (h *Handler) handleCreateObject(w http.ResponseWriter, r *http.Request) {
	var req CreateObjectRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	obj, err := h.objects.Create(r.Context(), &service.CreateObjectRequest{
		ClassID: req.ClassID,
		Owner:   req.Owner,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.L(r.Context()).Info("object created", "object_id", obj.ID, "class_id", obj.ClassID)
	w.Header().Set("Location", "/objects/"+obj.ID)
	h.writeJSON(w, r, http.StatusCreated, obj)
}

// handleListObjects handles GET /objects.
func (h *Handler) handleListObjects(w http.ResponseWriter, r *http.Request) {
	items := h.objects.List(r.Context())
	if items == nil {
		items = []*domain.Object{}
	}
	h.writeJSON(w, r, http.StatusOK, ListObjectsResponse{Items: items, Total: len(items)})
}

// handleGetObject handles GET /objects/{id}.
func (h *Handler) handleGetObject(w http.ResponseWriter, r *http.Request) {
	obj, err := h.objects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, obj)
}

// handleRenewObject handles POST /objects/{id}/renew.
func (h *Handler) handleRenewObject(w http.ResponseWriter, r *http.Request) {
	obj, err := h.objects.Renew(r.Context(), r.PathValue("id"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, obj)
}

// handleReleaseObject handles DELETE /objects/{id}.
func (h *Handler) handleReleaseObject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.objects.Release(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	logger.L(r.Context()).Info("object released", "object_id", id)
	w.WriteHeader(http.StatusNoContent)
}
