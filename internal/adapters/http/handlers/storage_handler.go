package handlers

import (
	"net/http"

	"github.com/mentana/user-service/internal/adapters/http/dto"
	"github.com/mentana/user-service/internal/ports"
)

// StorageHandler handles storage diagnostic HTTP endpoints.
type StorageHandler struct {
	service ports.StorageService
}

// NewStorageHandler creates a new StorageHandler with the given storage service.
func NewStorageHandler(service ports.StorageService) *StorageHandler {
	return &StorageHandler{service: service}
}

// UploadProbe handles POST /api/v1/diagnostics/storage-probe. It writes a
// diagnostic object through the configured file store and reports the result.
func (h *StorageHandler) UploadProbe(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.UploadProbe(r.Context())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToStorageProbeResponse(result))
}
