package media

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePathSource struct {
	pathsByUser map[string][][]string
	err         error
}

func (f *fakePathSource) ListImagePathsByUser(_ context.Context, userID string) ([][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pathsByUser[userID], nil
}

type fakeUserLister struct {
	ids []string
	err error
}

func (f *fakeUserLister) ListIDsAfter(_ context.Context, after string, limit int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	start := 0
	if after != "" {
		for i, id := range f.ids {
			if id > after {
				start = i
				break
			}
			start = i + 1
		}
	}
	end := start + limit
	if end > len(f.ids) {
		end = len(f.ids)
	}
	return f.ids[start:end], nil
}

func newTestBackfill(t *testing.T, store *memStore, pathsByUser map[string][][]string) *BackfillService {
	t.Helper()
	svc := newTestService(store, testMediaConfig())
	wardrobe := &fakePathSource{pathsByUser: pathsByUser}
	accessories := &fakePathSource{pathsByUser: map[string][][]string{}}
	return NewBackfillService(wardrobe, accessories, svc, zerolog.Nop())
}

func TestBackfillForUserCombinesSources(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	wide := "users/u1/wardrobe/2026/03/wide.jpg"
	accWide := "users/u1/accessories/2026/03/belt.jpg"
	require.NoError(t, store.Put(ctx, wide, jpegBytes(t, 1200, 800), "image/jpeg", "", nil))
	require.NoError(t, store.Put(ctx, accWide, jpegBytes(t, 900, 900), "image/jpeg", "", nil))

	svc := newTestService(store, testMediaConfig())
	wardrobe := &fakePathSource{pathsByUser: map[string][][]string{
		"u1": {{wide}, {}},
	}}
	accessories := &fakePathSource{pathsByUser: map[string][][]string{
		"u1": {{accWide}},
	}}
	b := NewBackfillService(wardrobe, accessories, svc, zerolog.Nop())

	stats, err := b.BackfillForUser(ctx, "u1", false)
	require.NoError(t, err)

	assert.Equal(t, "u1", stats.UserID)
	assert.Equal(t, 2, stats.WardrobeItemsScanned)
	assert.Equal(t, 1, stats.AccessoriesScanned)
	assert.Equal(t, 2, stats.Result.TotalPaths)
	assert.Equal(t, 2, stats.Result.Created)
	assert.True(t, store.has(ThumbnailPath(wide)))
	assert.True(t, store.has(ThumbnailPath(accWide)))
}

func TestBackfillForUserDryRunDoesNotStore(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	wide := "users/u1/wardrobe/2026/03/wide.jpg"
	require.NoError(t, store.Put(ctx, wide, jpegBytes(t, 1200, 800), "image/jpeg", "", nil))
	putsBefore := store.puts()

	b := newTestBackfill(t, store, map[string][][]string{"u1": {{wide}}})

	stats, err := b.BackfillForUser(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Result.Created)
	assert.Equal(t, putsBefore, store.puts())
}

func TestBackfillForUserSourceError(t *testing.T) {
	svc := newTestService(newMemStore(), testMediaConfig())
	wardrobe := &fakePathSource{err: errors.New("db down")}
	b := NewBackfillService(wardrobe, &fakePathSource{}, svc, zerolog.Nop())

	_, err := b.BackfillForUser(context.Background(), "u1", false)
	assert.Error(t, err)
}

func TestAdminBackfillPagination(t *testing.T) {
	store := newMemStore()
	users := &fakeUserLister{ids: []string{"u1", "u2", "u3", "u4", "u5"}}
	b := newTestBackfill(t, store, map[string][][]string{})
	admin := NewAdminBackfillService(users, b, zerolog.Nop())

	resp, err := admin.BackfillUsers(context.Background(), AdminBackfillRequest{BatchSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.ProcessedUsers)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "u2", resp.NextCursor)

	resp, err = admin.BackfillUsers(context.Background(), AdminBackfillRequest{BatchSize: 2, Cursor: resp.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedUsers)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "u4", resp.NextCursor)

	resp, err = admin.BackfillUsers(context.Background(), AdminBackfillRequest{BatchSize: 2, Cursor: resp.NextCursor})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedUsers)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.NextCursor)
}

func TestAdminBackfillSumsTallies(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	paths := map[string][][]string{}
	for i := 1; i <= 3; i++ {
		p := fmt.Sprintf("users/u%d/wardrobe/2026/03/a.jpg", i)
		require.NoError(t, store.Put(ctx, p, jpegBytes(t, 1200, 800), "image/jpeg", "", nil))
		paths[fmt.Sprintf("u%d", i)] = [][]string{{p}}
	}

	users := &fakeUserLister{ids: []string{"u1", "u2", "u3"}}
	b := newTestBackfill(t, store, paths)
	admin := NewAdminBackfillService(users, b, zerolog.Nop())

	resp, err := admin.BackfillUsers(ctx, AdminBackfillRequest{})
	require.NoError(t, err)

	assert.False(t, resp.DryRun)
	assert.Equal(t, 3, resp.ProcessedUsers)
	assert.Equal(t, 3, resp.WardrobeItemsScanned)
	assert.Equal(t, 3, resp.UniqueSourcePaths)
	assert.Equal(t, 3, resp.ThumbnailsCreated)
	assert.Equal(t, 0, resp.ThumbnailsWouldCreate)
	assert.False(t, resp.HasMore)
}

func TestAdminBackfillDryRunReportsWouldCreate(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	p := "users/u1/wardrobe/2026/03/a.jpg"
	require.NoError(t, store.Put(ctx, p, jpegBytes(t, 1200, 800), "image/jpeg", "", nil))
	putsBefore := store.puts()

	users := &fakeUserLister{ids: []string{"u1"}}
	b := newTestBackfill(t, store, map[string][][]string{"u1": {{p}}})
	admin := NewAdminBackfillService(users, b, zerolog.Nop())

	resp, err := admin.BackfillUsers(ctx, AdminBackfillRequest{DryRun: true})
	require.NoError(t, err)

	assert.True(t, resp.DryRun)
	assert.Equal(t, 0, resp.ThumbnailsCreated)
	assert.Equal(t, 1, resp.ThumbnailsWouldCreate)
	assert.Equal(t, putsBefore, store.puts())
}

func TestAdminBackfillUserFailureDoesNotAbortBatch(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, testMediaConfig())
	wardrobe := &fakePathSource{err: errors.New("db down")}
	b := NewBackfillService(wardrobe, &fakePathSource{}, svc, zerolog.Nop())
	users := &fakeUserLister{ids: []string{"u1", "u2"}}
	admin := NewAdminBackfillService(users, b, zerolog.Nop())

	resp, err := admin.BackfillUsers(context.Background(), AdminBackfillRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.ProcessedUsers)
	assert.Equal(t, 2, resp.Failed)
}

func TestAdminBackfillListUsersError(t *testing.T) {
	b := newTestBackfill(t, newMemStore(), map[string][][]string{})
	admin := NewAdminBackfillService(&fakeUserLister{err: errors.New("db down")}, b, zerolog.Nop())

	_, err := admin.BackfillUsers(context.Background(), AdminBackfillRequest{})
	assert.Error(t, err)
}

func TestClampBatchSize(t *testing.T) {
	assert.Equal(t, defaultBackfillBatchSize, clampBatchSize(0))
	assert.Equal(t, defaultBackfillBatchSize, clampBatchSize(-1))
	assert.Equal(t, 10, clampBatchSize(10))
	assert.Equal(t, maxBackfillBatchSize, clampBatchSize(5000))
}

func TestAdminBackfillRespectsMaxUsers(t *testing.T) {
	users := &fakeUserLister{ids: []string{"u1", "u2", "u3"}}
	b := newTestBackfill(t, newMemStore(), map[string][][]string{})
	admin := NewAdminBackfillService(users, b, zerolog.Nop())

	resp, err := admin.BackfillUsers(context.Background(), AdminBackfillRequest{BatchSize: 50, MaxUsers: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.ProcessedUsers)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "u1", resp.NextCursor)
}
