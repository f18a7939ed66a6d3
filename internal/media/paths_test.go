package media

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStoragePath(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	path := BuildStoragePath("users", "user-123", "wardrobe", "photo.jpg", "image/jpeg", now)

	parts := strings.Split(path, "/")
	require.Len(t, parts, 6)
	assert.Equal(t, "users", parts[0])
	assert.Equal(t, "user-123", parts[1])
	assert.Equal(t, "wardrobe", parts[2])
	assert.Equal(t, "2026", parts[3])
	assert.Equal(t, "03", parts[4])
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.jpg$`), parts[5])
}

func TestBuildStoragePathUsesUTCPartition(t *testing.T) {
	// 23:30 on Jan 31 in UTC+5 is already February locally but not in UTC.
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 2, 1, 4, 30, 0, 0, loc)

	path := BuildStoragePath("users", "u", "s", "a.png", "image/png", now)
	assert.Contains(t, path, "/2026/01/")
}

func TestBuildStoragePathSanitizesSegments(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	path := BuildStoragePath("users", "user@!!my.id", "my scope///", "x.png", "image/png", now)
	parts := strings.Split(path, "/")
	require.Len(t, parts, 6)
	assert.Equal(t, "user-my-id", parts[1])
	assert.Equal(t, "my-scope-", parts[2])
}

func TestBuildStoragePathFallbacks(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	path := BuildStoragePath("", "", "", "", "image/jpeg", now)
	parts := strings.Split(path, "/")
	require.Len(t, parts, 6)
	assert.Equal(t, "users", parts[0])
	assert.Equal(t, "unknown-user", parts[1])
	assert.Equal(t, "general", parts[2])
	assert.True(t, strings.HasSuffix(parts[5], ".jpg"))
}

func TestBuildStoragePathExtensionFromFilename(t *testing.T) {
	now := time.Now()

	tests := []struct {
		filename    string
		contentType string
		wantExt     string
	}{
		{"photo.PNG", "image/jpeg", ".png"},
		{"photo.webp", "image/jpeg", ".webp"},
		{"photo.tiff", "image/webp", ".webp"},
		{"photo", "image/avif", ".avif"},
		{"photo", "text/plain", ".jpg"},
	}
	for _, tc := range tests {
		path := BuildStoragePath("users", "u", "s", tc.filename, tc.contentType, now)
		assert.True(t, strings.HasSuffix(path, tc.wantExt), "filename=%q got %q", tc.filename, path)
	}
}

func TestThumbnailPath(t *testing.T) {
	got := ThumbnailPath("users/u1/wardrobe/2026/03/abc.jpg")
	assert.Equal(t, "users/u1/wardrobe/2026/03/thumbnails/abc.jpg", got)
}

func TestThumbnailPathIdempotent(t *testing.T) {
	paths := []string{
		"users/u1/wardrobe/2026/03/abc.jpg",
		"a/b.png",
		"file.jpg",
		"a/b/",
		"",
	}
	for _, p := range paths {
		once := ThumbnailPath(p)
		assert.Equal(t, once, ThumbnailPath(once), "path %q", p)
	}
}

func TestThumbnailPathIneligible(t *testing.T) {
	// No directory, trailing slash, or blank input: path comes back as-is,
	// which marks it ineligible for a thumbnail variant.
	assert.Equal(t, "file.jpg", ThumbnailPath("file.jpg"))
	assert.Equal(t, "a/b/", ThumbnailPath("a/b/"))
	assert.Equal(t, "", ThumbnailPath(""))
	assert.Equal(t, "   ", ThumbnailPath("   "))
}

func TestSanitizePathSegment(t *testing.T) {
	assert.Equal(t, "abc-123_x", SanitizePathSegment("abc-123_x", "f"))
	assert.Equal(t, "a-b-c", SanitizePathSegment("a@@b!!c", "f"))
	assert.Equal(t, "fallback", SanitizePathSegment("   ", "fallback"))
	assert.Equal(t, "a-b", SanitizePathSegment("a...b", "f"))
}
