package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/digitalwardrobe/service/internal/config"
	"github.com/digitalwardrobe/service/internal/storage"
)

// maxImageSizeBytes caps a single uploaded file at 10 MiB.
const maxImageSizeBytes = 10 << 20

// signedURLFallbackTTL guards against a zero or negative configured TTL.
const signedURLFallbackTTL = time.Minute

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/avif": {},
}

// ErrStorageUnavailable is returned when object storage is disabled or was
// not configured at startup.
var ErrStorageUnavailable = errors.New("object storage is unavailable")

// ValidationError marks a caller-fixable problem with an upload or request.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// UploadFile is one file received by the upload endpoint.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// UploadedImage describes a stored original: its path, a fresh signed URL,
// and best-effort dimensions. Persisting the path is the caller's job.
type UploadedImage struct {
	Path        string    `json:"path"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	Width       *int      `json:"width,omitempty"`
	Height      *int      `json:"height,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// BackfillResult tallies one backfill invocation over a set of paths.
type BackfillResult struct {
	TotalPaths     int `json:"totalPaths"`
	Created        int `json:"created"`
	AlreadyPresent int `json:"alreadyPresent"`
	NotEligible    int `json:"notEligible"`
	MissingSource  int `json:"missingSource"`
	Failed         int `json:"failed"`
}

// Service orchestrates image uploads, signed-URL and preview-path
// resolution, and thumbnail derivation against the object store.
//
// Both caches are owned by the Service, constructed once and bounded;
// there is no global mutable state.
type Service struct {
	store       storage.ObjectStore // nil when storage is disabled
	cfg         config.MediaConfig
	thumbnailer *Thumbnailer

	signedURLs   *boundedCache
	previewPaths *boundedCache
	signing      singleflight.Group

	log zerolog.Logger
	now func() time.Time
}

// NewService creates a media Service. store may be nil when object storage
// is disabled; every operation then fails with ErrStorageUnavailable.
func NewService(store storage.ObjectStore, cfg config.MediaConfig, log zerolog.Logger) *Service {
	return &Service{
		store:        store,
		cfg:          cfg,
		thumbnailer:  NewThumbnailer(cfg.ThumbnailMaxWidth),
		signedURLs:   newBoundedCache(cfg.SignedURLCacheMaxSize),
		previewPaths: newBoundedCache(cfg.SignedURLCacheMaxSize),
		log:          log,
		now:          time.Now,
	}
}

func (s *Service) requireStore() (storage.ObjectStore, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	return s.store, nil
}

// UploadImages validates and stores each file, derives thumbnails where
// possible, and returns descriptors with fresh signed URLs.
func (s *Service) UploadImages(ctx context.Context, files []UploadFile, ownerID, scope string) ([]UploadedImage, error) {
	if len(files) == 0 {
		return nil, validationErrorf("at least one file is required")
	}

	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}

	uploaded := make([]UploadedImage, 0, len(files))
	for _, f := range files {
		img, err := s.uploadSingleImage(ctx, store, f, ownerID, scope)
		if err != nil {
			return nil, err
		}
		uploaded = append(uploaded, *img)
	}
	return uploaded, nil
}

func (s *Service) uploadSingleImage(ctx context.Context, store storage.ObjectStore, f UploadFile, ownerID, scope string) (*UploadedImage, error) {
	if err := validateUpload(f); err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	path := BuildStoragePath(s.cfg.RootPath, ownerID, scope, f.Name, contentType, s.now())

	metadata := map[string]string{
		"owner-id": SanitizePathSegment(ownerID, "unknown"),
		"scope":    SanitizePathSegment(scope, "general"),
	}
	if err := store.Put(ctx, path, f.Data, contentType, immutableCacheControl, metadata); err != nil {
		return nil, fmt.Errorf("store original: %w", err)
	}

	// Thumbnail failures are logged and swallowed; the upload still succeeds.
	s.uploadThumbnail(ctx, store, path, f.Data, contentType, ownerID, scope)

	width, height := readImageDimensions(f.Data)

	url, err := s.resolveSignedURL(ctx, store, path)
	if err != nil {
		return nil, err
	}

	return &UploadedImage{
		Path:        path,
		URL:         url,
		ContentType: contentType,
		SizeBytes:   f.Size,
		Width:       width,
		Height:      height,
		UploadedAt:  s.now(),
	}, nil
}

func validateUpload(f UploadFile) error {
	if len(f.Data) == 0 {
		return validationErrorf("file is empty")
	}
	if f.Size > maxImageSizeBytes {
		return validationErrorf("file exceeds 10MB limit")
	}
	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if _, ok := allowedContentTypes[contentType]; !ok {
		return validationErrorf("unsupported image type")
	}
	return nil
}

// uploadThumbnail derives and stores the thumbnail variant for a freshly
// uploaded original, warming the preview-path cache on success.
func (s *Service) uploadThumbnail(ctx context.Context, store storage.ObjectStore, sourcePath string, data []byte, contentType, ownerID, scope string) {
	if !s.cfg.ThumbnailsEnabled {
		return
	}
	payload := s.thumbnailer.Derive(data, contentType)
	if payload == nil {
		return
	}
	thumbPath := ThumbnailPath(sourcePath)
	if thumbPath == sourcePath {
		return
	}

	metadata := map[string]string{
		"owner-id":    SanitizePathSegment(ownerID, "unknown"),
		"scope":       SanitizePathSegment(scope, "general"),
		"source-path": sourcePath,
		"variant":     "thumbnail",
	}
	if err := store.Put(ctx, thumbPath, payload.Bytes, payload.ContentType, immutableCacheControl, metadata); err != nil {
		s.log.Warn().Err(err).Str("path", sourcePath).Msg("thumbnail upload failed")
		return
	}
	s.warmPreviewPath(sourcePath, thumbPath)
}

// ResolveSignedURLs resolves each distinct non-blank path to a signed URL.
func (s *Service) ResolveSignedURLs(ctx context.Context, paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, validationErrorf("at least one path is required")
	}
	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string)
	for _, p := range paths {
		normalized := strings.TrimSpace(p)
		if normalized == "" {
			continue
		}
		if _, ok := urls[normalized]; ok {
			continue
		}
		url, err := s.resolveSignedURL(ctx, store, normalized)
		if err != nil {
			return nil, err
		}
		urls[normalized] = url
	}
	return urls, nil
}

// ResolvePreviewURLs resolves each distinct non-blank path to a signed URL
// pointing at its preview variant when one exists, or at the original
// otherwise. Keys of the returned map are the submitted source paths.
func (s *Service) ResolvePreviewURLs(ctx context.Context, paths []string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, validationErrorf("at least one path is required")
	}
	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string)
	for _, p := range paths {
		normalized := strings.TrimSpace(p)
		if normalized == "" {
			continue
		}
		if _, ok := urls[normalized]; ok {
			continue
		}
		previewPath := s.resolvePreviewPath(ctx, store, normalized)
		url, err := s.resolveSignedURL(ctx, store, previewPath)
		if err != nil {
			return nil, err
		}
		urls[normalized] = url
	}
	return urls, nil
}

// resolveSignedURL returns a cached signed URL while it is comfortably far
// from expiry, signing afresh otherwise. Concurrent signing of the same
// path is collapsed through a singleflight group; a signing failure is
// propagated and never cached.
func (s *Service) resolveSignedURL(ctx context.Context, store storage.ObjectStore, path string) (string, error) {
	ttl := s.signedURLTTL()
	if !s.cfg.SignedURLCacheEnabled {
		return store.SignedURL(ctx, path, ttl)
	}

	now := s.now()
	if e, ok := s.signedURLs.get(path); ok && s.isUsableSignedURL(e, now) {
		return e.value, nil
	}

	url, err, _ := s.signing.Do(path, func() (interface{}, error) {
		signed, err := store.SignedURL(ctx, path, ttl)
		if err != nil {
			return "", fmt.Errorf("sign %q: %w", path, err)
		}
		issued := s.now()
		s.signedURLs.put(path, signed, issued, issued.Add(ttl))
		return signed, nil
	})
	if err != nil {
		return "", err
	}
	return url.(string), nil
}

func (s *Service) signedURLTTL() time.Duration {
	if s.cfg.SignedURLTTL <= 0 {
		return signedURLFallbackTTL
	}
	return s.cfg.SignedURLTTL
}

// refreshWindow clamps the configured refresh-before-expiry duration to at
// most half the TTL, so an entry can never be refreshed before it was ever
// usable.
func (s *Service) refreshWindow(ttl time.Duration) time.Duration {
	window := s.cfg.SignedURLRefreshBefore
	if window <= 0 {
		return 0
	}
	if upper := ttl / 2; window > upper {
		return upper
	}
	return window
}

func (s *Service) isUsableSignedURL(e cacheEntry, now time.Time) bool {
	threshold := e.expiresAt.Add(-s.refreshWindow(s.signedURLTTL()))
	return now.Before(threshold)
}

// resolvePreviewPath maps a source path to its preview variant path when
// one exists, consulting the preview-path cache under a plain TTL. When
// previews are disabled or the path is ineligible by construction, the
// source path is returned without touching the cache.
func (s *Service) resolvePreviewPath(ctx context.Context, store storage.ObjectStore, sourcePath string) string {
	if !s.cfg.ThumbnailsEnabled {
		return sourcePath
	}
	thumbPath := ThumbnailPath(sourcePath)
	if thumbPath == sourcePath {
		return sourcePath
	}

	now := s.now()
	if e, ok := s.previewPaths.get(sourcePath); ok && now.Before(e.expiresAt) {
		return e.value
	}

	previewPath := sourcePath
	if s.thumbnailExists(ctx, store, thumbPath) {
		previewPath = thumbPath
	}
	s.previewPaths.put(sourcePath, previewPath, now, now.Add(s.cfg.PreviewCacheTTL))
	return previewPath
}

// warmPreviewPath records a known-correct preview path, sparing the next
// read an existence check.
func (s *Service) warmPreviewPath(sourcePath, previewPath string) {
	now := s.now()
	s.previewPaths.put(sourcePath, previewPath, now, now.Add(s.cfg.PreviewCacheTTL))
}

// thumbnailExists treats a failed existence check as absent: the worst
// outcome is a redundant derivation, which is idempotent.
func (s *Service) thumbnailExists(ctx context.Context, store storage.ObjectStore, thumbPath string) bool {
	exists, err := store.Exists(ctx, thumbPath)
	if err != nil {
		s.log.Debug().Err(err).Str("path", thumbPath).Msg("thumbnail existence check failed")
		return false
	}
	return exists
}

// BackfillThumbnails derives missing thumbnails for the given source
// paths. Paths are deduplicated in submission order; blanks and paths
// already inside the reserved segment are dropped first, so TotalPaths
// counts distinct non-preview paths only. Every per-path error is counted
// and logged without aborting the batch. In dry-run mode eligible sources
// are counted as created but nothing is stored.
func (s *Service) BackfillThumbnails(ctx context.Context, paths []string, dryRun bool) (*BackfillResult, error) {
	result := &BackfillResult{}
	if !s.cfg.ThumbnailsEnabled || len(paths) == 0 {
		return result, nil
	}

	store, err := s.requireStore()
	if err != nil {
		return nil, err
	}

	unique := dedupeSourcePaths(paths)
	result.TotalPaths = len(unique)

	for _, sourcePath := range unique {
		outcome, err := s.backfillOne(ctx, store, sourcePath, dryRun)
		if err != nil {
			result.Failed++
			s.log.Warn().Err(err).Str("path", sourcePath).Msg("thumbnail backfill failed")
			continue
		}
		switch outcome {
		case backfillCreated:
			result.Created++
		case backfillAlreadyPresent:
			result.AlreadyPresent++
		case backfillNotEligible:
			result.NotEligible++
		case backfillMissingSource:
			result.MissingSource++
		}
	}
	return result, nil
}

type backfillOutcome int

const (
	backfillCreated backfillOutcome = iota
	backfillAlreadyPresent
	backfillNotEligible
	backfillMissingSource
)

func (s *Service) backfillOne(ctx context.Context, store storage.ObjectStore, sourcePath string, dryRun bool) (backfillOutcome, error) {
	thumbPath := ThumbnailPath(sourcePath)
	if thumbPath == sourcePath {
		return backfillNotEligible, nil
	}

	if s.thumbnailExists(ctx, store, thumbPath) {
		s.warmPreviewPath(sourcePath, thumbPath)
		return backfillAlreadyPresent, nil
	}

	src, err := store.Get(ctx, sourcePath)
	if errors.Is(err, storage.ErrNotFound) {
		return backfillMissingSource, nil
	}
	if err != nil {
		return 0, fmt.Errorf("fetch source: %w", err)
	}

	payload := s.thumbnailer.Derive(src.Data, src.ContentType)
	if payload == nil {
		return backfillNotEligible, nil
	}
	if dryRun {
		return backfillCreated, nil
	}

	metadata := map[string]string{
		"source-path": sourcePath,
		"variant":     "thumbnail",
	}
	if owner := strings.TrimSpace(src.Metadata["owner-id"]); owner != "" {
		metadata["owner-id"] = owner
	}
	if scope := strings.TrimSpace(src.Metadata["scope"]); scope != "" {
		metadata["scope"] = scope
	}
	if err := store.Put(ctx, thumbPath, payload.Bytes, payload.ContentType, immutableCacheControl, metadata); err != nil {
		return 0, fmt.Errorf("store thumbnail: %w", err)
	}
	s.warmPreviewPath(sourcePath, thumbPath)
	return backfillCreated, nil
}

// dedupeSourcePaths keeps the first occurrence of each non-blank path that
// is not already a preview variant, preserving submission order.
func dedupeSourcePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		normalized := strings.TrimSpace(p)
		if normalized == "" {
			continue
		}
		if strings.Contains(normalized, "/"+ThumbnailSegment+"/") {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		unique = append(unique, normalized)
	}
	return unique
}

// readImageDimensions is best-effort: undecodable uploads simply carry no
// dimensions.
func readImageDimensions(data []byte) (*int, *int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}
	w, h := cfg.Width, cfg.Height
	return &w, &h
}
