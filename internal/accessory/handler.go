package accessory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalwardrobe/service/internal/middleware"
	"github.com/digitalwardrobe/service/internal/response"
)

// Handler holds HTTP handlers for accessory endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new accessory Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createAccessoryRequest struct {
	Name       string   `json:"name"     example:"Leather belt"`
	Category   string   `json:"category" example:"belts"`
	Color      string   `json:"color"    example:"brown"`
	ImagePaths []string `json:"imagePaths"`
}

// Create godoc
//
//	@Summary		Create accessory
//	@Tags			accessories
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createAccessoryRequest	true	"Accessory details"
//	@Success		201		{object}	response.Envelope{data=Accessory}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/accessories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createAccessoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" || req.Category == "" {
		response.BadRequest(w, "name and category are required")
		return
	}
	if req.ImagePaths == nil {
		req.ImagePaths = []string{}
	}

	a, err := h.repo.Create(r.Context(), &Accessory{
		UserID:     userID,
		Name:       req.Name,
		Category:   req.Category,
		Color:      req.Color,
		ImagePaths: req.ImagePaths,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, a)
}

// List godoc
//
//	@Summary		List accessories
//	@Tags			accessories
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Accessory}
//	@Failure		401	{object}	response.Envelope
//	@Router			/accessories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	accessories, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, accessories)
}

// Get godoc
//
//	@Summary		Get accessory
//	@Tags			accessories
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Accessory ID"
//	@Success		200	{object}	response.Envelope{data=Accessory}
//	@Failure		404	{object}	response.Envelope
//	@Router			/accessories/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	a, err := h.repo.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "accessory not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, a)
}

// Delete godoc
//
//	@Summary		Delete accessory
//	@Tags			accessories
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Accessory ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/accessories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.repo.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "accessory not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"deleted": true})
}
