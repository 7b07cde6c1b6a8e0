// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
)

// MoviesStats returns aggregate metadata for the movie catalogue: the total
// number of rows and the greatest UpdatedAt among them. When the catalogue
// is empty, count is 0 and maxUpdatedAt is nil.
//
// The HTTP layer folds these into a weak ETag so unchanged movie lists can
// be answered with 304.
func MoviesStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Movie{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Latest updated_at via ORDER BY/LIMIT (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MovieReviewsStats returns aggregate metadata for a movie's reviews: the
// row count and the most recent activity timestamp (the max of created_at
// and last_edited_at across the set). When the movie has no reviews, count
// is 0 and lastActivity is nil.
func MovieReviewsStats(ctx context.Context, db *gorm.DB, movieID string) (count int64, lastActivity *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Review{}).Where("movie_id = ?", movieID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt    time.Time
		LastEditedAt *time.Time
	}
	if err = q.Select("created_at, last_edited_at").
		Order("COALESCE(last_edited_at, created_at) DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	ts := row.CreatedAt
	if row.LastEditedAt != nil && row.LastEditedAt.After(ts) {
		ts = *row.LastEditedAt
	}
	return count, &ts, nil
}
