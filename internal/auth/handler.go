package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/digitalwardrobe/service/internal/response"
)

// emailRegex is a permissive sanity check; the unique index is the real gate.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type signupRequest struct {
	Name     string `json:"name"     example:"Jane Doe"`
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"s3cretpass"`
	Gender   string `json:"gender"   example:"female"`
}

type loginRequest struct {
	Email    string `json:"email"    example:"jane@example.com"`
	Password string `json:"password" example:"s3cretpass"`
}

// Signup godoc
//
//	@Summary		Sign up
//	@Description	Create a new account and return a JWT token plus the user profile.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		signupRequest	true	"Account details"
//	@Success		201		{object}	response.Envelope{data=Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Name == "" {
		response.BadRequest(w, "name is required")
		return
	}
	if !emailRegex.MatchString(req.Email) {
		response.BadRequest(w, "invalid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		response.BadRequest(w, "password must be at least 8 characters")
		return
	}

	result, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password, req.Gender)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(w, "email already exists")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, result)
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verify credentials and return a JWT token plus the user profile.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "email and password are required")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid credentials")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, result)
}
