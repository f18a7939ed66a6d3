// Package wardrobe manages wardrobe items and their persistence.
package wardrobe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Item represents a single wardrobe item owned by a user.
type Item struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Color            string    `json:"color"`
	Brand            string    `json:"brand"`
	ImagePaths       []string  `json:"imagePaths"`
	PrimaryImagePath string    `json:"primaryImagePath"`
	Favorite         bool      `json:"favorite"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a wardrobe item does not exist.
var ErrNotFound = errors.New("wardrobe item not found")

// Repository handles all wardrobe item database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, user_id, name, category, color, brand, image_paths, primary_image_path, favorite, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	it := &Item{}
	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Category, &it.Color, &it.Brand,
		&it.ImagePaths, &it.PrimaryImagePath, &it.Favorite, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Create inserts a new wardrobe item and returns the created record.
func (r *Repository) Create(ctx context.Context, it *Item) (*Item, error) {
	created, err := scanItem(r.db.QueryRow(ctx,
		`INSERT INTO wardrobe_items (user_id, name, category, color, brand, image_paths, primary_image_path, favorite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+itemColumns,
		it.UserID, it.Name, it.Category, it.Color, it.Brand, it.ImagePaths, it.PrimaryImagePath, it.Favorite,
	))
	if err != nil {
		return nil, fmt.Errorf("create wardrobe item: %w", err)
	}
	return created, nil
}

// ListByUser returns all wardrobe items for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM wardrobe_items
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe items: %w", err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wardrobe item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wardrobe items: %w", err)
	}
	return items, nil
}

// GetByID fetches a wardrobe item owned by the given user.
func (r *Repository) GetByID(ctx context.Context, userID, id string) (*Item, error) {
	it, err := scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM wardrobe_items WHERE id = $1 AND user_id = $2`,
		id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wardrobe item: %w", err)
	}
	return it, nil
}

// Delete removes a wardrobe item owned by the given user.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM wardrobe_items WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete wardrobe item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListImagePathsByUser returns the image path list of every wardrobe item
// owned by the user, newest first. One inner slice per item, so callers
// can count scanned items.
func (r *Repository) ListImagePathsByUser(ctx context.Context, userID string) ([][]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT image_paths FROM wardrobe_items
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe image paths: %w", err)
	}
	defer rows.Close()

	var paths [][]string
	for rows.Next() {
		var p []string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan wardrobe image paths: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wardrobe image paths: %w", err)
	}
	return paths, nil
}
