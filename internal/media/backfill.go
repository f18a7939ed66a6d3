package media

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// PathSource lists stored image paths per user, one slice per owning record.
type PathSource interface {
	ListImagePathsByUser(ctx context.Context, userID string) ([][]string, error)
}

// UserLister pages user ids in a stable ascending order for cursoring.
type UserLister interface {
	ListIDsAfter(ctx context.Context, after string, limit int) ([]string, error)
}

// BackfillService derives missing thumbnails across a user's wardrobe
// items and accessories.
type BackfillService struct {
	wardrobe    PathSource
	accessories PathSource
	media       *Service
	log         zerolog.Logger
}

func NewBackfillService(wardrobe, accessories PathSource, media *Service, log zerolog.Logger) *BackfillService {
	return &BackfillService{
		wardrobe:    wardrobe,
		accessories: accessories,
		media:       media,
		log:         log,
	}
}

// UserBackfillStats is the outcome of a single user's backfill run.
type UserBackfillStats struct {
	UserID               string          `json:"userId"`
	WardrobeItemsScanned int             `json:"wardrobeItemsScanned"`
	AccessoriesScanned   int             `json:"accessoriesScanned"`
	Result               *BackfillResult `json:"result"`
}

// BackfillForUser collects every image path owned by the user and runs the
// thumbnail backfill over the combined set.
func (b *BackfillService) BackfillForUser(ctx context.Context, userID string, dryRun bool) (*UserBackfillStats, error) {
	stats := &UserBackfillStats{UserID: userID}
	paths := make([]string, 0, 32)

	wardrobePaths, err := b.wardrobe.ListImagePathsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe image paths: %w", err)
	}
	stats.WardrobeItemsScanned = len(wardrobePaths)
	for _, itemPaths := range wardrobePaths {
		paths = append(paths, itemPaths...)
	}

	accessoryPaths, err := b.accessories.ListImagePathsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessory image paths: %w", err)
	}
	stats.AccessoriesScanned = len(accessoryPaths)
	for _, itemPaths := range accessoryPaths {
		paths = append(paths, itemPaths...)
	}

	result, err := b.media.BackfillThumbnails(ctx, paths, dryRun)
	if err != nil {
		return nil, err
	}
	stats.Result = result

	b.log.Info().
		Str("user_id", userID).
		Bool("dry_run", dryRun).
		Int("paths", result.TotalPaths).
		Int("created", result.Created).
		Int("failed", result.Failed).
		Msg("user thumbnail backfill finished")
	return stats, nil
}

const (
	defaultBackfillBatchSize = 25
	maxBackfillBatchSize     = 200
	maxBackfillUsers         = 1000
)

// AdminBackfillService walks the whole user base in cursor-paged batches.
type AdminBackfillService struct {
	users    UserLister
	backfill *BackfillService
	log      zerolog.Logger
}

func NewAdminBackfillService(users UserLister, backfill *BackfillService, log zerolog.Logger) *AdminBackfillService {
	return &AdminBackfillService{users: users, backfill: backfill, log: log}
}

// AdminBackfillRequest carries the paging knobs for one admin run. Zero
// values mean defaults; out-of-range values are clamped, never rejected.
type AdminBackfillRequest struct {
	BatchSize int    `json:"batchSize"`
	MaxUsers  int    `json:"maxUsers"`
	Cursor    string `json:"cursor"`
	DryRun    bool   `json:"dryRun"`
}

// AdminBackfillResponse sums the per-user tallies for one batch. In dry-run
// mode ThumbnailsCreated stays zero and ThumbnailsWouldCreate carries the
// count instead.
type AdminBackfillResponse struct {
	DryRun                   bool   `json:"dryRun"`
	ProcessedUsers           int    `json:"processedUsers"`
	NextCursor               string `json:"nextCursor,omitempty"`
	HasMore                  bool   `json:"hasMore"`
	WardrobeItemsScanned     int    `json:"wardrobeItemsScanned"`
	AccessoriesScanned       int    `json:"accessoriesScanned"`
	UniqueSourcePaths        int    `json:"uniqueSourcePaths"`
	ThumbnailsCreated        int    `json:"thumbnailsCreated"`
	ThumbnailsWouldCreate    int    `json:"thumbnailsWouldCreate"`
	ThumbnailsAlreadyPresent int    `json:"thumbnailsAlreadyPresent"`
	SkippedNotEligible       int    `json:"skippedNotEligible"`
	SkippedMissingSource     int    `json:"skippedMissingSource"`
	Failed                   int    `json:"failed"`
}

// BackfillUsers processes the next batch of users after the cursor. One
// extra id is fetched to learn whether another batch remains; users are
// processed sequentially so a large run cannot stampede the object store.
// A per-user failure counts and logs but does not abort the batch.
func (a *AdminBackfillService) BackfillUsers(ctx context.Context, req AdminBackfillRequest) (*AdminBackfillResponse, error) {
	batchSize := clampBatchSize(req.BatchSize)
	maxUsers := req.MaxUsers
	if maxUsers <= 0 {
		maxUsers = batchSize
	}
	if maxUsers > maxBackfillUsers {
		maxUsers = maxBackfillUsers
	}
	usersToProcess := batchSize
	if maxUsers < usersToProcess {
		usersToProcess = maxUsers
	}

	ids, err := a.users.ListIDsAfter(ctx, req.Cursor, usersToProcess+1)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	resp := &AdminBackfillResponse{DryRun: req.DryRun}
	if len(ids) > usersToProcess {
		resp.HasMore = true
		ids = ids[:usersToProcess]
	}

	created := 0
	for _, userID := range ids {
		stats, err := a.backfill.BackfillForUser(ctx, userID, req.DryRun)
		if err != nil {
			resp.Failed++
			resp.ProcessedUsers++
			resp.NextCursor = userID
			a.log.Warn().Err(err).Str("user_id", userID).Msg("user backfill failed")
			continue
		}
		resp.ProcessedUsers++
		resp.NextCursor = userID
		resp.WardrobeItemsScanned += stats.WardrobeItemsScanned
		resp.AccessoriesScanned += stats.AccessoriesScanned
		resp.UniqueSourcePaths += stats.Result.TotalPaths
		created += stats.Result.Created
		resp.ThumbnailsAlreadyPresent += stats.Result.AlreadyPresent
		resp.SkippedNotEligible += stats.Result.NotEligible
		resp.SkippedMissingSource += stats.Result.MissingSource
		resp.Failed += stats.Result.Failed
	}

	if req.DryRun {
		resp.ThumbnailsWouldCreate = created
	} else {
		resp.ThumbnailsCreated = created
	}
	if !resp.HasMore {
		resp.NextCursor = ""
	}
	return resp, nil
}

func clampBatchSize(batchSize int) int {
	if batchSize <= 0 {
		return defaultBackfillBatchSize
	}
	if batchSize > maxBackfillBatchSize {
		return maxBackfillBatchSize
	}
	return batchSize
}
