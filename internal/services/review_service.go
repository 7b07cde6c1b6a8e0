// Package services – ReviewService
//
// This file implements the ReviewService, the component that owns the
// review lifecycle and, with it, the one derived value in the system:
// Movie.AverageRating. Every mutation (create, update, delete) runs inside
// a single transaction that also re-aggregates the movie's average from the
// authoritative review set, so the stored average can never drift from the
// reviews except across a crashed request; even then the next mutation
// repairs it, because the recomputation never trusts the stored value.
//
// The average is deliberately re-queried every time rather than adjusted
// incrementally: incremental updates on edit/delete would need the previous
// rating and open a consistency hazard the plain AVG() does not have.
//
// Service-level errors (ErrMovieNotFound, ErrDuplicateReview, …) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxReviewTitleRunes   = 100
	maxReviewMessageRunes = 25_000
)

// ReviewInput carries the author-editable review content for both creation
// and update. All three fields are mandatory.
type ReviewInput struct {
	Title   string
	Message string
	Rating  int
}

// validate normalizes and checks the input, returning the trimmed fields.
func (in ReviewInput) validate() (title, message string, err error) {
	title = strings.TrimSpace(in.Title)
	message = strings.TrimSpace(in.Message)
	switch {
	case in.Rating < 1 || in.Rating > 5:
		return "", "", ErrInvalidRating
	case title == "":
		return "", "", ErrEmptyTitle
	case utf8.RuneCountInString(title) > maxReviewTitleRunes:
		return "", "", ErrTitleTooLong
	case message == "":
		return "", "", ErrEmptyMessage
	case utf8.RuneCountInString(message) > maxReviewMessageRunes:
		return "", "", ErrMessageTooLong
	}
	return title, message, nil
}

// ReviewService implements the use-cases around reviews and maintains the
// movie average-rating invariant. It is context-aware and opens its own
// transaction per mutating call.
type ReviewService struct {
	// DB is the database handle used for all review operations.
	DB *gorm.DB
}

// Create persists a new review by actor for movieID and recomputes the
// movie's average rating, all in one transaction.
//
// Semantics and validation:
//   - actor must be signed in; otherwise ErrUnauthenticated.
//   - rating must be 1..5, title and message non-blank; otherwise the
//     matching validation sentinel and nothing is written.
//   - movieID must exist; otherwise ErrMovieNotFound.
//   - actor must not already have a review for the movie; otherwise
//     ErrDuplicateReview. Two racing first submissions are decided by the
//     unique index: exactly one insert survives, the loser also gets
//     ErrDuplicateReview and the average reflects only the winner.
func (s *ReviewService) Create(ctx context.Context, actor *domain.User, movieID string, in ReviewInput) (*domain.Review, error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("movie.id", movieID)),
	)
	defer span.End()

	if actor == nil {
		return nil, ErrUnauthenticated
	}
	title, message, err := in.validate()
	if err != nil {
		return nil, err
	}

	var created *domain.Review
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetMovie(ctx, tx, movieID); err != nil {
			if isNotFound(err) {
				return ErrMovieNotFound
			}
			return err
		}

		// First-review gate. The unique index below is the real guard;
		// this check just turns the common case into a clean error
		// before attempting the insert.
		if _, err := repo.FindReviewByUserAndMovie(ctx, tx, actor.ID, movieID); err == nil {
			return ErrDuplicateReview
		} else if !isNotFound(err) {
			return err
		}

		r, err := repo.CreateReview(ctx, tx, actor.ID, movieID, title, message, in.Rating)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
				return ErrDuplicateReview
			}
			return err
		}
		created = r

		return recomputeAverage(ctx, tx, movieID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies new content to a review owned by actor, stamps
// LastEditedAt, and recomputes the movie's average in the same transaction.
// Only the author may update; an admin editing someone else's review is
// denied with ErrNotReviewAuthor. Invalid input leaves the review and the
// average untouched.
func (s *ReviewService) Update(ctx context.Context, actor *domain.User, reviewID string, in ReviewInput) error {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("review.id", reviewID)),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := repo.GetReview(ctx, tx, reviewID)
		if err != nil {
			if isNotFound(err) {
				return ErrReviewNotFound
			}
			return err
		}

		if d := DecideReview(actor, review, ActionUpdateReview); !d.Allowed {
			return d.Reason
		}

		title, message, err := in.validate()
		if err != nil {
			return err
		}

		if err := repo.UpdateReviewFields(ctx, tx, reviewID, title, message, in.Rating, time.Now().UTC()); err != nil {
			return err
		}
		return recomputeAverage(ctx, tx, review.MovieID)
	})
}

// Delete removes a review and recomputes the movie's average in the same
// transaction. Allowed for the author and for admins; everyone else gets
// ErrCannotDeleteReview with no side effects.
func (s *ReviewService) Delete(ctx context.Context, actor *domain.User, reviewID string) error {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("review.id", reviewID)),
	)
	defer span.End()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		review, err := repo.GetReview(ctx, tx, reviewID)
		if err != nil {
			if isNotFound(err) {
				return ErrReviewNotFound
			}
			return err
		}

		if d := DecideReview(actor, review, ActionDeleteReview); !d.Allowed {
			return d.Reason
		}

		if err := repo.DeleteReview(ctx, tx, reviewID); err != nil {
			return err
		}
		return recomputeAverage(ctx, tx, review.MovieID)
	})
}

// Get fetches a single review by ID.
func (s *ReviewService) Get(ctx context.Context, reviewID string) (*domain.Review, error) {
	r, err := repo.GetReview(ctx, s.DB, reviewID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListByMovie returns a page of a movie's reviews (newest first) and the
// total count. It applies defaults for invalid page/pageSize.
func (s *ReviewService) ListByMovie(ctx context.Context, movieID string, page, pageSize int) ([]domain.Review, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := repo.GetMovie(ctx, s.DB, movieID); err != nil {
		if isNotFound(err) {
			return nil, 0, ErrMovieNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountReviewsByMovie(ctx, s.DB, movieID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Review{}, 0, nil
	}

	items, err := repo.ListReviewsByMoviePage(ctx, s.DB, movieID, offset, pageSize)
	return items, total, err
}

// CanReview reports whether actor may start writing a review for movieID.
// This is the gate for even rendering the creation form, not just for the
// submission: a user who already reviewed the movie is turned away with
// ErrDuplicateReview before any input is shown. Create enforces the same
// rule again, since form and submission are reachable independently.
func (s *ReviewService) CanReview(ctx context.Context, actor *domain.User, movieID string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if _, err := repo.GetMovie(ctx, s.DB, movieID); err != nil {
		if isNotFound(err) {
			return ErrMovieNotFound
		}
		return err
	}
	if _, err := repo.FindReviewByUserAndMovie(ctx, s.DB, actor.ID, movieID); err == nil {
		return ErrDuplicateReview
	} else if !isNotFound(err) {
		return err
	}
	return nil
}

// recomputeAverage re-aggregates a movie's average rating from its current
// reviews and persists it: NULL when the set is empty, otherwise the mean
// rounded to one decimal place. Callers invoke it inside the transaction
// that mutated the review set, so the review change and the average update
// land or fail as one logical unit.
func recomputeAverage(ctx context.Context, tx *gorm.DB, movieID string) error {
	avg, err := repo.AverageRating(ctx, tx, movieID)
	if err != nil {
		return err
	}
	if avg != nil {
		rounded := math.Round(*avg*10) / 10
		avg = &rounded
	}
	return repo.SetAverageRating(ctx, tx, movieID, avg)
}

// isNotFound treats repo-level not-found sentinels as "not found" in a
// driver-agnostic way.
func isNotFound(err error) bool {
	if errors.Is(err, repo.ErrNotFound) {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate attempts to detect unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
