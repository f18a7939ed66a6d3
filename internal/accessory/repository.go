// Package accessory manages accessories and their persistence.
package accessory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Accessory represents a single accessory owned by a user.
type Accessory struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Color      string    `json:"color"`
	ImagePaths []string  `json:"imagePaths"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when an accessory does not exist.
var ErrNotFound = errors.New("accessory not found")

// Repository handles all accessory database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const accessoryColumns = `id, user_id, name, category, color, image_paths, created_at, updated_at`

func scanAccessory(row pgx.Row) (*Accessory, error) {
	a := &Accessory{}
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Category, &a.Color, &a.ImagePaths, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new accessory and returns the created record.
func (r *Repository) Create(ctx context.Context, a *Accessory) (*Accessory, error) {
	created, err := scanAccessory(r.db.QueryRow(ctx,
		`INSERT INTO accessories (user_id, name, category, color, image_paths)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accessoryColumns,
		a.UserID, a.Name, a.Category, a.Color, a.ImagePaths,
	))
	if err != nil {
		return nil, fmt.Errorf("create accessory: %w", err)
	}
	return created, nil
}

// ListByUser returns all accessories for a user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Accessory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accessoryColumns+` FROM accessories
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessories: %w", err)
	}
	defer rows.Close()

	accessories := []*Accessory{}
	for rows.Next() {
		a, err := scanAccessory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan accessory: %w", err)
		}
		accessories = append(accessories, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accessories: %w", err)
	}
	return accessories, nil
}

// GetByID fetches an accessory owned by the given user.
func (r *Repository) GetByID(ctx context.Context, userID, id string) (*Accessory, error) {
	a, err := scanAccessory(r.db.QueryRow(ctx,
		`SELECT `+accessoryColumns+` FROM accessories WHERE id = $1 AND user_id = $2`,
		id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get accessory: %w", err)
	}
	return a, nil
}

// Delete removes an accessory owned by the given user.
func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM accessories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete accessory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListImagePathsByUser returns the image path list of every accessory owned
// by the user, newest first. One inner slice per accessory.
func (r *Repository) ListImagePathsByUser(ctx context.Context, userID string) ([][]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT image_paths FROM accessories
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accessory image paths: %w", err)
	}
	defer rows.Close()

	var paths [][]string
	for rows.Next() {
		var p []string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan accessory image paths: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accessory image paths: %w", err)
	}
	return paths, nil
}
