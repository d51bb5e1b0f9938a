package pricing

import (
	"net/http"

	"github.com/anishk6674/kanchan-chilled/internal/common"
)

// Handler exposes the price sheet endpoints.
type Handler struct {
	Svc *Service
}

// Current handles GET /api/v1/prices.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	sh, err := h.Svc.Current(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sh})
}

// Publish handles POST /api/v1/prices.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	var in SheetInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	sh, err := h.Svc.Publish(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": sh})
}
