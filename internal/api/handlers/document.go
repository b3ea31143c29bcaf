package handlers

import (
	"net/http"

	"github.com/aific/finances-backend/internal/api/dto"
	"github.com/aific/finances-backend/internal/application/service"
)

// DocumentHandler handles whole-document persistence requests.
type DocumentHandler struct {
	*Base
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{Base: NewBase(svc)}
}

// Save handles POST /api/document/save.
func (h *DocumentHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Save(); err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Load handles POST /api/document/load, replacing the in-memory document with
// the persisted one.
func (h *DocumentHandler) Load(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Load(); err != nil {
		h.WriteError(w, http.StatusInternalServerError,
			dto.NewAPIError(dto.ErrCodeInternalError, err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
