package gear

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/d2sandbox/tracker/pkg/response"
)

// Handler handles HTTP requests for weapon and armor lookups
type Handler struct {
	service *Service
}

// NewHandler creates a new gear handler with service dependency injected
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the gear lookups to a router mounted at /d2
func (h *Handler) Register(r chi.Router) {
	r.Get("/weapons/{bng_weapon_id}", h.GetWeapon)
	r.Get("/armor/{bng_armor_id}", h.GetArmor)
}

// GetWeapon handles GET /d2/weapons/{bng_weapon_id}
// @Summary      Get weapon
// @Description  Get a stored weapon definition by its manifest hash
// @Tags         gear
// @Produce      json
// @Param        bng_weapon_id path int true "Weapon definition hash"
// @Success      200 {object} response.APIResponse{data=WeaponResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /weapons/{bng_weapon_id} [get]
func (h *Handler) GetWeapon(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bng_weapon_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid weapon ID")
		return
	}

	weapon, err := h.service.GetWeapon(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrWeaponNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get weapon")
		return
	}

	response.JSON(w, http.StatusOK, weapon.ToResponse())
}

// GetArmor handles GET /d2/armor/{bng_armor_id}
// @Summary      Get armor
// @Description  Get a stored armor definition by its manifest hash
// @Tags         gear
// @Produce      json
// @Param        bng_armor_id path int true "Armor definition hash"
// @Success      200 {object} response.APIResponse{data=ArmorResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /armor/{bng_armor_id} [get]
func (h *Handler) GetArmor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bng_armor_id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid armor ID")
		return
	}

	armor, err := h.service.GetArmor(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrArmorNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get armor")
		return
	}

	response.JSON(w, http.StatusOK, armor.ToResponse())
}
