package media

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/digitalwardrobe/service/internal/middleware"
	"github.com/digitalwardrobe/service/internal/response"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing;
// larger parts spill to temp files.
const multipartMemoryLimit = 32 << 20

// Handler holds HTTP handlers for media endpoints.
type Handler struct {
	svc      *Service
	backfill *BackfillService
	admin    *AdminBackfillService
}

// NewHandler creates a new media Handler.
func NewHandler(svc *Service, backfill *BackfillService, admin *AdminBackfillService) *Handler {
	return &Handler{svc: svc, backfill: backfill, admin: admin}
}

// Upload godoc
//
//	@Summary		Upload images
//	@Description	Stores one or more images under the caller's namespace and returns signed URLs.
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			files	formData	file	true	"Image files (jpeg, png, webp, avif; max 10MB each)"
//	@Param			scope	formData	string	false	"Logical grouping, e.g. wardrobe"
//	@Success		201		{object}	response.Envelope{data=[]UploadedImage}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/media/images [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		response.BadRequest(w, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files, err := readUploadFiles(r.MultipartForm.File["files"])
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	scope := r.FormValue("scope")
	if strings.TrimSpace(scope) == "" {
		scope = "general"
	}

	uploaded, err := h.svc.UploadImages(r.Context(), files, userID, scope)
	if err != nil {
		writeMediaError(w, err)
		return
	}
	response.Created(w, uploaded)
}

func readUploadFiles(headers []*multipart.FileHeader) ([]UploadFile, error) {
	files := make([]UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, errors.New("could not read uploaded file")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageSizeBytes+1))
		f.Close()
		if err != nil {
			return nil, errors.New("could not read uploaded file")
		}
		files = append(files, UploadFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        int64(len(data)),
			Data:        data,
		})
	}
	return files, nil
}

type resolveURLsRequest struct {
	Paths []string `json:"paths"`
}

// ResolveURLs godoc
//
//	@Summary		Resolve signed URLs
//	@Description	Maps storage paths to time-limited signed URLs for the originals.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		resolveURLsRequest	true	"Storage paths"
//	@Success		200		{object}	response.Envelope{data=map[string]string}
//	@Failure		400		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/media/images/urls [post]
func (h *Handler) ResolveURLs(w http.ResponseWriter, r *http.Request) {
	var req resolveURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	urls, err := h.svc.ResolveSignedURLs(r.Context(), req.Paths)
	if err != nil {
		writeMediaError(w, err)
		return
	}
	response.OK(w, urls)
}

// ResolvePreviewURLs godoc
//
//	@Summary		Resolve preview URLs
//	@Description	Maps storage paths to signed URLs preferring the thumbnail variant when it exists.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		resolveURLsRequest	true	"Storage paths"
//	@Success		200		{object}	response.Envelope{data=map[string]string}
//	@Failure		400		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/media/images/preview-urls [post]
func (h *Handler) ResolvePreviewURLs(w http.ResponseWriter, r *http.Request) {
	var req resolveURLsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	urls, err := h.svc.ResolvePreviewURLs(r.Context(), req.Paths)
	if err != nil {
		writeMediaError(w, err)
		return
	}
	response.OK(w, urls)
}

type backfillRequest struct {
	DryRun bool `json:"dryRun"`
}

type userBackfillResponse struct {
	WardrobeItemsScanned     int `json:"wardrobeItemsScanned"`
	AccessoriesScanned       int `json:"accessoriesScanned"`
	UniqueSourcePaths        int `json:"uniqueSourcePaths"`
	ThumbnailsCreated        int `json:"thumbnailsCreated"`
	ThumbnailsWouldCreate    int `json:"thumbnailsWouldCreate"`
	ThumbnailsAlreadyPresent int `json:"thumbnailsAlreadyPresent"`
	SkippedNotEligible       int `json:"skippedNotEligible"`
	SkippedMissingSource     int `json:"skippedMissingSource"`
	Failed                   int `json:"failed"`
}

// Backfill godoc
//
//	@Summary		Backfill own thumbnails
//	@Description	Derives missing thumbnails for every image the caller owns. Dry-run reports without storing.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		backfillRequest	false	"Backfill options"
//	@Success		200		{object}	response.Envelope{data=userBackfillResponse}
//	@Failure		401		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/media/images/thumbnails/backfill [post]
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	stats, err := h.backfill.BackfillForUser(r.Context(), userID, req.DryRun)
	if err != nil {
		writeMediaError(w, err)
		return
	}

	resp := userBackfillResponse{
		WardrobeItemsScanned:     stats.WardrobeItemsScanned,
		AccessoriesScanned:       stats.AccessoriesScanned,
		UniqueSourcePaths:        stats.Result.TotalPaths,
		ThumbnailsAlreadyPresent: stats.Result.AlreadyPresent,
		SkippedNotEligible:       stats.Result.NotEligible,
		SkippedMissingSource:     stats.Result.MissingSource,
		Failed:                   stats.Result.Failed,
	}
	if req.DryRun {
		resp.ThumbnailsWouldCreate = stats.Result.Created
	} else {
		resp.ThumbnailsCreated = stats.Result.Created
	}
	response.OK(w, resp)
}

// AdminBackfill godoc
//
//	@Summary		Backfill thumbnails across users
//	@Description	Walks users in cursor-paged batches and backfills each one. Admin only.
//	@Tags			media
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		AdminBackfillRequest	false	"Batch options"
//	@Success		200		{object}	response.Envelope{data=AdminBackfillResponse}
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		503		{object}	response.Envelope
//	@Router			/media/images/thumbnails/backfill/admin [post]
func (h *Handler) AdminBackfill(w http.ResponseWriter, r *http.Request) {
	var req AdminBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	resp, err := h.admin.BackfillUsers(r.Context(), req)
	if err != nil {
		writeMediaError(w, err)
		return
	}
	response.OK(w, resp)
}

func writeMediaError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		response.BadRequest(w, vErr.Error())
	case errors.Is(err, ErrStorageUnavailable):
		response.ServiceUnavailable(w, "object storage is unavailable")
	default:
		response.InternalError(w)
	}
}
