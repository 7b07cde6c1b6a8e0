// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Review
// model, including the AVG aggregate the review service uses to keep
// Movie.AverageRating consistent.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
)

// CreateReview inserts a new review row. CreatedAt is set to UTC now and
// LastEditedAt starts nil. The raw DB error is returned unmapped so the
// service layer can recognize a unique-constraint violation from a
// concurrent first submission.
func CreateReview(ctx context.Context, db *gorm.DB, userID, movieID, title, message string, rating int) (*domain.Review, error) {
	r := &domain.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		MovieID:   movieID,
		Title:     title,
		Message:   message,
		Rating:    rating,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetReview fetches a review by ID, or ErrNotFound if missing.
func GetReview(ctx context.Context, db *gorm.DB, id string) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// FindReviewByUserAndMovie returns the review a user wrote for a movie, or
// ErrNotFound when the user has not reviewed it yet. This is the read side
// of the one-review-per-movie gate.
func FindReviewByUserAndMovie(ctx context.Context, db *gorm.DB, userID, movieID string) (*domain.Review, error) {
	var r domain.Review
	err := db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountReviewsByMovie returns the total number of reviews for a movie.
func CountReviewsByMovie(ctx context.Context, db *gorm.DB, movieID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("movie_id = ?", movieID).
		Count(&total).Error
	return total, err
}

// ListReviewsByMoviePage returns a page of a movie's reviews ordered by
// creation time descending (newest first, CreatedAt DESC, ID ASC for a
// deterministic tiebreak).
func ListReviewsByMoviePage(ctx context.Context, db *gorm.DB, movieID string, offset, limit int) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListReviewsByUser returns all reviews written by a user, newest first.
func ListReviewsByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// UpdateReviewFields applies new content to a review and stamps
// LastEditedAt. If no rows are affected, it returns ErrNotFound.
func UpdateReviewFields(ctx context.Context, db *gorm.DB, id, title, message string, rating int, editedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":          title,
			"message":        message,
			"rating":         rating,
			"last_edited_at": editedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReview removes a review row. Returns ErrNotFound when absent.
func DeleteReview(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteReviewsByUser removes every review a user wrote. Used by the
// account-deletion cascade; callers must recompute the averages of the
// affected movies in the same transaction.
func DeleteReviewsByUser(ctx context.Context, db *gorm.DB, userID string) error {
	return db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.Review{}).Error
}

// MovieIDsReviewedBy returns the distinct movie IDs the user has reviewed.
// The account-deletion cascade collects these before deleting the reviews
// so it knows which averages to recompute.
func MovieIDsReviewedBy(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Distinct("movie_id").
		Where("user_id = ?", userID).
		Pluck("movie_id", &ids).Error
	return ids, err
}

// AverageRating computes AVG(rating) over a movie's current reviews.
// It returns nil when the movie has no reviews: SQL AVG over an empty set
// is NULL, which scans cleanly into a nil *float64.
func AverageRating(ctx context.Context, db *gorm.DB, movieID string) (*float64, error) {
	var avg *float64
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("movie_id = ?", movieID).
		Select("AVG(rating)").
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}
