package media

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitalwardrobe/service/internal/middleware"
)

func newTestHandler(store *memStore) *Handler {
	var svc *Service
	if store != nil {
		svc = newTestService(store, testMediaConfig())
	} else {
		svc = newTestService(nil, testMediaConfig())
	}
	b := NewBackfillService(&fakePathSource{pathsByUser: map[string][][]string{}}, &fakePathSource{pathsByUser: map[string][][]string{}}, svc, svc.log)
	admin := NewAdminBackfillService(&fakeUserLister{}, b, svc.log)
	return NewHandler(svc, b, admin)
}

func authedRequest(method, target string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, "user-1")
	return req.WithContext(ctx)
}

func TestUploadHandlerStoresFiles(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="files"; filename="dress.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(t, err)
	_, err = part.Write(jpegBytes(t, 800, 600))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("scope", "wardrobe"))
	require.NoError(t, mw.Close())

	req := authedRequest(http.MethodPost, "/media/images", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data []UploadedImage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.True(t, strings.HasPrefix(resp.Data[0].Path, "users/user-1/wardrobe/"))
	assert.True(t, store.has(resp.Data[0].Path))
}

func TestUploadHandlerRejectsUnsupportedType(t *testing.T) {
	h := newTestHandler(newMemStore())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="files"; filename="anim.gif"`},
		"Content-Type":        {"image/gif"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("GIF89a"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := authedRequest(http.MethodPost, "/media/images", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadHandlerRequiresAuth(t *testing.T) {
	h := newTestHandler(newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/media/images", &bytes.Buffer{})
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestResolveURLsHandler(t *testing.T) {
	h := newTestHandler(newMemStore())

	body := bytes.NewBufferString(`{"paths":["users/u/s/a.jpg"]}`)
	req := authedRequest(http.MethodPost, "/media/images/urls", body)
	rec := httptest.NewRecorder()

	h.ResolveURLs(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data["users/u/s/a.jpg"], "https://store.test/")
}

func TestResolveURLsHandlerEmptyPaths(t *testing.T) {
	h := newTestHandler(newMemStore())

	req := authedRequest(http.MethodPost, "/media/images/urls", bytes.NewBufferString(`{"paths":[]}`))
	rec := httptest.NewRecorder()

	h.ResolveURLs(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveURLsHandlerStorageUnavailable(t *testing.T) {
	h := newTestHandler(nil)

	req := authedRequest(http.MethodPost, "/media/images/urls", bytes.NewBufferString(`{"paths":["a.jpg"]}`))
	rec := httptest.NewRecorder()

	h.ResolveURLs(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBackfillHandlerToleratesEmptyBody(t *testing.T) {
	h := newTestHandler(newMemStore())

	req := authedRequest(http.MethodPost, "/media/images/thumbnails/backfill", nil)
	rec := httptest.NewRecorder()

	h.Backfill(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminBackfillHandlerToleratesEmptyBody(t *testing.T) {
	h := newTestHandler(newMemStore())

	req := authedRequest(http.MethodPost, "/media/images/thumbnails/backfill/admin", nil)
	rec := httptest.NewRecorder()

	h.AdminBackfill(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
