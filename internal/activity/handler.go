package activity

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/d2sandbox/tracker/internal/destiny"
	"github.com/d2sandbox/tracker/pkg/response"
)

// Handler handles HTTP requests for activity stats
type Handler struct {
	service *Service
}

// NewHandler creates a new activity handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the stats endpoints to a router mounted at /d2
func (h *Handler) Register(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Get("/modes", h.Modes)
}

// Stats handles GET /d2/stats
// @Summary      Query weapon stats
// @Description  Per-weapon stats of a character's recent activities. mode wins over activity_name.
// @Tags         stats
// @Produce      json
// @Param        character_id query string true "Bungie character id"
// @Param        mode query string false "Activity mode, by number or label"
// @Param        activity_name query string false "Activity name, fuzzy matched"
// @Param        count query int false "Number of activities" default(5)
// @Param        refresh query bool false "Load from Bungie before answering"
// @Success      200 {object} response.APIResponse{data=StatsResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Router       /stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	var q StatsQuery
	if raw := params.Get("character_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid character ID")
			return
		}
		q.CharacterID = id
	}

	if raw := params.Get("mode"); raw != "" {
		mode, err := destiny.ParseActivityMode(raw)
		if err != nil {
			response.BadRequest(w, ErrInvalidMode.Error())
			return
		}
		q.Mode = &mode.Value
	}
	q.ActivityName = params.Get("activity_name")

	if raw := params.Get("count"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid count")
			return
		}
		q.Count = count
	}

	if raw := params.Get("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, "Invalid refresh flag")
			return
		}
		q.Refresh = refresh
	}

	stats, err := h.service.Query(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ErrCharacterRequired):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrCharacterNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrRefreshFailed):
			response.BadGateway(w, err.Error())
		default:
			response.InternalError(w, "Failed to load stats")
		}
		return
	}

	response.JSON(w, http.StatusOK, stats)
}

// Modes handles GET /d2/modes
// @Summary      List activity modes
// @Description  Activity modes that can be used as a stats filter
// @Tags         stats
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]destiny.ActivityMode}
// @Router       /modes [get]
func (h *Handler) Modes(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, destiny.ActivityModes())
}
