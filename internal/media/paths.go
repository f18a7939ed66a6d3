// Package media implements image upload, signed-URL resolution, thumbnail
// derivation and thumbnail backfill over the object store.
package media

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ThumbnailSegment is the reserved path segment that marks thumbnail
// variants. It is inserted directly before the file name of the source.
const ThumbnailSegment = "thumbnails"

// immutableCacheControl is set on every stored blob: paths embed a random
// id, so content at a given path never changes.
const immutableCacheControl = "public,max-age=31536000,immutable"

var (
	unsafeSegmentChars = regexp.MustCompile(`[^a-zA-Z0-9-_]`)
	repeatedDashes     = regexp.MustCompile(`-{2,}`)
)

// BuildStoragePath derives the storage path for a freshly uploaded original:
// <root>/<owner>/<scope>/<year>/<month>/<random id>.<ext>.
func BuildStoragePath(rootPath, ownerID, scope, originalFilename, contentType string, now time.Time) string {
	root := sanitizePathPrefix(rootPath, "users")
	owner := SanitizePathSegment(ownerID, "unknown-user")
	safeScope := SanitizePathSegment(scope, "general")
	partition := now.UTC().Format("2006/01")
	ext := resolveFileExtension(contentType, originalFilename)
	fileName := uuid.NewString()
	if ext != "" {
		fileName = fmt.Sprintf("%s.%s", fileName, ext)
	}
	return strings.Join([]string{root, owner, safeScope, partition, fileName}, "/")
}

// ThumbnailPath derives the thumbnail variant path for a source path by
// inserting the reserved segment before the file name. It is idempotent:
// paths already inside the reserved segment come back unchanged, so a
// thumbnail of a thumbnail can never be derived. Paths without a usable
// file name also come back unchanged, which marks them ineligible.
func ThumbnailPath(sourcePath string) string {
	if strings.TrimSpace(sourcePath) == "" {
		return sourcePath
	}
	normalized := strings.TrimSpace(sourcePath)
	if strings.Contains(normalized, "/"+ThumbnailSegment+"/") {
		return normalized
	}

	lastSlash := strings.LastIndex(normalized, "/")
	if lastSlash < 0 || lastSlash >= len(normalized)-1 {
		return normalized
	}
	parent := normalized[:lastSlash]
	fileName := normalized[lastSlash+1:]
	if strings.TrimSpace(fileName) == "" {
		return normalized
	}
	if strings.TrimSpace(parent) == "" {
		return ThumbnailSegment + "/" + fileName
	}
	return parent + "/" + ThumbnailSegment + "/" + fileName
}

// SanitizePathSegment restricts a path segment to letters, digits, hyphen
// and underscore, collapsing runs of replacement dashes. Blank input (or
// input that sanitizes to nothing) falls back to the given default.
func SanitizePathSegment(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	sanitized := unsafeSegmentChars.ReplaceAllString(strings.TrimSpace(value), "-")
	sanitized = repeatedDashes.ReplaceAllString(sanitized, "-")
	if strings.TrimSpace(sanitized) == "" {
		return fallback
	}
	return sanitized
}

// sanitizePathPrefix normalizes a configured root path: backslashes become
// slashes and leading/trailing slashes are stripped.
func sanitizePathPrefix(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	sanitized := strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	sanitized = strings.Trim(sanitized, "/")
	if strings.TrimSpace(sanitized) == "" {
		return fallback
	}
	return sanitized
}

// resolveFileExtension picks the stored file extension from the original
// file name when it carries a known image extension, falling back to the
// content type.
func resolveFileExtension(contentType, originalFilename string) string {
	if name := strings.TrimSpace(originalFilename); name != "" {
		if dot := strings.LastIndex(name, "."); dot > -1 && dot < len(name)-1 {
			ext := strings.ToLower(name[dot+1:])
			switch ext {
			case "jpg", "jpeg", "png", "webp", "avif":
				return ext
			}
		}
	}
	switch contentType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/avif":
		return "avif"
	default:
		return "jpg"
	}
}
