package player

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/d2sandbox/tracker/pkg/response"
)

// Handler handles HTTP requests for player operations
type Handler struct {
	service *Service
}

// NewHandler creates a new player handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for /d2/user endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Get("/{bng_username}", h.GetByUsername)
	r.Delete("/{bng_username}", h.Delete)

	return r
}

// usernameParam decodes the path segment; '#' arrives as %23
func usernameParam(r *http.Request) string {
	raw := chi.URLParam(r, "bng_username")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// List handles GET /d2/user
// @Summary      List tracked users
// @Description  Get a paginated list of tracked Destiny players
// @Tags         users
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]PlayerResponse}
// @Router       /user [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	players, total, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list users")
		return
	}

	playerResponses := make([]*PlayerResponse, len(players))
	for i, p := range players {
		playerResponses[i] = p.ToResponse()
	}

	response.JSONWithMeta(w, http.StatusOK, playerResponses, response.NewMeta(page, perPage, total))
}

// GetByUsername handles GET /d2/user/{bng_username}
// @Summary      Get user by Bungie Name
// @Description  Get a tracked player by Bungie Name (Name#1234, URL-escaped)
// @Tags         users
// @Produce      json
// @Param        bng_username path string true "Bungie Name"
// @Success      200 {object} response.APIResponse{data=PlayerResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /user/{bng_username} [get]
func (h *Handler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByUsername(r.Context(), usernameParam(r))
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get user")
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}

// Add handles POST /d2/user
// @Summary      Register a user
// @Description  Look the Bungie Name up at Bungie and load the player and its characters
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body AddPlayerRequest true "User registration request"
// @Success      201 {object} response.APIResponse{data=PlayerResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Failure      502 {object} response.APIResponse
// @Router       /user [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	p, err := h.service.Add(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidPlatform):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrNotFoundAtBungie):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrPlayerExists):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrUpstream):
			response.BadGateway(w, err.Error())
		case errors.Is(err, ErrRegistrationOff):
			response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", err.Error())
		default:
			response.InternalError(w, "Failed to add user")
		}
		return
	}

	response.JSON(w, http.StatusCreated, p.ToResponse())
}

// Delete handles DELETE /d2/user/{bng_username}
// @Summary      Delete a user
// @Description  Stop tracking a player; characters and stats are removed with it
// @Tags         users
// @Produce      json
// @Param        bng_username path string true "Bungie Name"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /user/{bng_username} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), usernameParam(r)); err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to delete user")
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// GetByDestinyID handles GET /d2/player/{destiny_id}
// @Summary      Get player by Destiny ID
// @Description  Get a tracked player by Destiny membership id
// @Tags         users
// @Produce      json
// @Param        destiny_id path int true "Destiny membership id"
// @Success      200 {object} response.APIResponse{data=PlayerResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /player/{destiny_id} [get]
func (h *Handler) GetByDestinyID(w http.ResponseWriter, r *http.Request) {
	destinyID, err := strconv.ParseInt(chi.URLParam(r, "destiny_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid destiny ID")
		return
	}

	p, err := h.service.GetByDestinyID(r.Context(), destinyID)
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get player")
		return
	}

	response.JSON(w, http.StatusOK, p.ToResponse())
}
