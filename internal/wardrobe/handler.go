package wardrobe

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/digitalwardrobe/service/internal/middleware"
	"github.com/digitalwardrobe/service/internal/response"
)

// Handler holds HTTP handlers for wardrobe item endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new wardrobe Handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type createItemRequest struct {
	Name             string   `json:"name"             example:"Denim jacket"`
	Category         string   `json:"category"         example:"outerwear"`
	Color            string   `json:"color"            example:"blue"`
	Brand            string   `json:"brand"            example:"Levi's"`
	ImagePaths       []string `json:"imagePaths"`
	PrimaryImagePath string   `json:"primaryImagePath"`
	Favorite         bool     `json:"favorite"`
}

// Create godoc
//
//	@Summary		Create wardrobe item
//	@Tags			wardrobe
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createItemRequest	true	"Item details"
//	@Success		201		{object}	response.Envelope{data=Item}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/wardrobe/items [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createItemRequest
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

	item, err := h.repo.Create(r.Context(), &Item{
		UserID:           userID,
		Name:             req.Name,
		Category:         req.Category,
		Color:            req.Color,
		Brand:            req.Brand,
		ImagePaths:       req.ImagePaths,
		PrimaryImagePath: req.PrimaryImagePath,
		Favorite:         req.Favorite,
	})
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, item)
}

// List godoc
//
//	@Summary		List wardrobe items
//	@Tags			wardrobe
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Item}
//	@Failure		401	{object}	response.Envelope
//	@Router			/wardrobe/items [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, items)
}

// Get godoc
//
//	@Summary		Get wardrobe item
//	@Tags			wardrobe
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	response.Envelope{data=Item}
//	@Failure		404	{object}	response.Envelope
//	@Router			/wardrobe/items/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	item, err := h.repo.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "wardrobe item not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, item)
}

// Delete godoc
//
//	@Summary		Delete wardrobe item
//	@Tags			wardrobe
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Item ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/wardrobe/items/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.repo.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "wardrobe item not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"deleted": true})
}
