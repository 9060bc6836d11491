package character

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/d2sandbox/tracker/pkg/response"
)

// Handler handles HTTP requests for character operations
type Handler struct {
	service *Service
}

// NewHandler creates a new character handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the character endpoints to a router mounted at /d2
func (h *Handler) Register(r chi.Router) {
	r.Get("/characters/{player_id}", h.ListByPlayer)
	r.Get("/character/{bng_character_id}", h.GetByBungieID)
}

// ListByPlayer handles GET /d2/characters/{player_id}
// @Summary      List characters of a player
// @Description  Get every character of a tracked player with equipped weapons and armor
// @Tags         characters
// @Produce      json
// @Param        player_id path int true "Player ID"
// @Success      200 {object} response.APIResponse{data=[]CharacterResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /characters/{player_id} [get]
func (h *Handler) ListByPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "player_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid player ID")
		return
	}

	characters, err := h.service.ListByPlayer(r.Context(), playerID)
	if err != nil {
		response.InternalError(w, "Failed to list characters")
		return
	}

	characterResponses := make([]*CharacterResponse, len(characters))
	for i, c := range characters {
		characterResponses[i] = c.ToResponse()
	}

	response.JSON(w, http.StatusOK, characterResponses)
}

// GetByBungieID handles GET /d2/character/{bng_character_id}
// @Summary      Get character
// @Description  Get a character by its Bungie character id
// @Tags         characters
// @Produce      json
// @Param        bng_character_id path string true "Bungie character id"
// @Success      200 {object} response.APIResponse{data=CharacterResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /character/{bng_character_id} [get]
func (h *Handler) GetByBungieID(w http.ResponseWriter, r *http.Request) {
	bungieID, err := strconv.ParseInt(chi.URLParam(r, "bng_character_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid character ID")
		return
	}

	c, err := h.service.GetByBungieID(r.Context(), bungieID)
	if err != nil {
		if errors.Is(err, ErrCharacterNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get character")
		return
	}

	response.JSON(w, http.StatusOK, c.ToResponse())
}
