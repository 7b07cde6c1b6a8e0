// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Movie model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a movie is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The average-rating column is deliberately excluded from UpdateMovie: it is
// derived state owned by the review service and written only through
// SetAverageRating, so an administrative edit can never clobber it.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// MovieFields carries the mutable movie attributes for create and update.
// AverageRating is absent on purpose; see the package comment.
type MovieFields struct {
	Title       string
	Description string
	ImageURL    *string
	Duration    time.Duration
	ReleaseDate time.Time
}

// CreateMovie inserts a new Movie row with a generated UUID and a nil
// average rating (no reviews yet). On success, it returns the persisted
// Movie. On failure, it returns a DB error.
func CreateMovie(ctx context.Context, db *gorm.DB, f MovieFields) (*domain.Movie, error) {
	m := &domain.Movie{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		Duration:    f.Duration,
		ReleaseDate: f.ReleaseDate,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// GetMovie fetches a single movie by ID, or ErrNotFound if missing.
func GetMovie(ctx context.Context, db *gorm.DB, id string) (*domain.Movie, error) {
	var m domain.Movie
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// CountMovies returns the total number of movies, for pagination metadata.
func CountMovies(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Movie{}).Count(&total).Error
	return total, err
}

// ListMoviesPage returns a paginated slice of movies ordered by release date
// descending (newest releases first). The caller computes offset and limit.
func ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Movie, error) {
	var out []domain.Movie
	err := db.WithContext(ctx).
		Order("release_date desc, id asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateMovie overwrites the mutable attributes of a movie. If no rows are
// affected (movie missing), it returns ErrNotFound.
func UpdateMovie(ctx context.Context, db *gorm.DB, id string, f MovieFields) error {
	res := db.WithContext(ctx).
		Model(&domain.Movie{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":        f.Title,
			"description":  f.Description,
			"image_url":    f.ImageURL,
			"duration":     f.Duration,
			"release_date": f.ReleaseDate,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteMovie removes a movie row. Its reviews go with it via the FK
// cascade. Returns ErrNotFound when the movie does not exist.
func DeleteMovie(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Movie{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAverageRating persists a recomputed average rating for a movie.
// A nil value stores NULL (the movie has no reviews). This is the only
// write path for the column.
func SetAverageRating(ctx context.Context, db *gorm.DB, movieID string, value *float64) error {
	res := db.WithContext(ctx).
		Model(&domain.Movie{}).
		Where("id = ?", movieID).
		Update("average_rating", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
