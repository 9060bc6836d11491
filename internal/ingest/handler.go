package ingest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/d2sandbox/tracker/pkg/response"
)

// Handler exposes bulk loading over HTTP
type Handler struct {
	loader *Loader
}

// NewHandler creates a new ingest handler with loader dependency injected
func NewHandler(loader *Loader) *Handler {
	return &Handler{loader: loader}
}

// Register adds the admin endpoints to a router mounted at /d2. The caller
// is expected to guard them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/load", h.Load)
}

// Load handles POST /d2/admin/load
// @Summary      Bulk load players and activity stats
// @Description  Register players by Bungie Name or membership id and load their recent activities
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BulkRequest true "Bulk load request"
// @Success      200 {object} response.APIResponse{data=Summary}
// @Failure      400 {object} response.APIResponse
// @Failure      401 {object} response.APIResponse
// @Router       /admin/load [post]
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if len(req.Names) == 0 && len(req.Members) == 0 {
		response.BadRequest(w, "names or members is required")
		return
	}

	summary, err := h.loader.LoadBulk(r.Context(), req)
	if err != nil {
		h.loader.logger.WithError(err).Error("bulk load failed")
		response.InternalError(w, "Bulk load failed")
		return
	}

	response.JSON(w, http.StatusOK, summary)
}
