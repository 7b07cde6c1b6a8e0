// Package services – MovieService
//
// This file implements the MovieService, which manages the movie catalogue.
// Reads (list, detail) are public; catalogue mutations are administrative
// and gated on the admin flag. The service never touches AverageRating;
// that column belongs to the ReviewService.
//
// Service-level errors (e.g., ErrMovieNotFound, ErrAdminOnly) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"
	"github.com/screenlog/go-review-backend/internal/search"
)

// MovieRepo defines the repository contract required by MovieService.
// Implementations are responsible for persistence of movie aggregates.
type MovieRepo interface {
	// CreateMovie inserts a new movie row.
	CreateMovie(ctx context.Context, db *gorm.DB, f repo.MovieFields) (*domain.Movie, error)

	// GetMovie fetches a movie by ID.
	GetMovie(ctx context.Context, db *gorm.DB, id string) (*domain.Movie, error)

	// CountMovies returns the catalogue size for pagination.
	CountMovies(ctx context.Context, db *gorm.DB) (int64, error)

	// ListMoviesPage returns a page of the catalogue.
	ListMoviesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Movie, error)

	// UpdateMovie overwrites a movie's mutable attributes.
	UpdateMovie(ctx context.Context, db *gorm.DB, id string, f repo.MovieFields) error

	// DeleteMovie removes a movie (reviews cascade at the storage layer).
	DeleteMovie(ctx context.Context, db *gorm.DB, id string) error

	// CountReviewsByMovie supports the has-reviews flag on the detail view.
	CountReviewsByMovie(ctx context.Context, db *gorm.DB, movieID string) (int64, error)
}

// MovieInput carries the admin-editable movie attributes.
type MovieInput struct {
	Title       string
	Description string
	ImageURL    *string
	Duration    time.Duration
	ReleaseDate time.Time
}

// MovieService provides catalogue operations. DefaultPageSize matches the
// site's browse view (8 movies per page).
type MovieService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the movie repository used by this service.
	Repo MovieRepo

	// DefaultPageSize is used when the caller passes a non-positive size.
	DefaultPageSize int
}

// NewMovieService constructs a MovieService with the browse-view default
// page size.
func NewMovieService(db *gorm.DB, r MovieRepo) *MovieService {
	return &MovieService{DB: db, Repo: r, DefaultPageSize: 8}
}

// Create adds a movie to the catalogue. Admin only.
func (s *MovieService) Create(ctx context.Context, actor *domain.User, in MovieInput) (*domain.Movie, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	f, err := in.validate()
	if err != nil {
		return nil, err
	}
	return s.Repo.CreateMovie(ctx, s.DB, f)
}

// Get returns a movie and whether it has any reviews (the detail view links
// to the review list only when there is something to show).
func (s *MovieService) Get(ctx context.Context, id string) (*domain.Movie, bool, error) {
	m, err := s.Repo.GetMovie(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrMovieNotFound
		}
		return nil, false, err
	}
	n, err := s.Repo.CountReviewsByMovie(ctx, s.DB, id)
	if err != nil {
		return nil, false, err
	}
	return m, n > 0, nil
}

// ListPage returns a page of the catalogue and the total count.
// It applies defaults for invalid page/pageSize.
func (s *MovieService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.DefaultPageSize
		if pageSize <= 0 {
			pageSize = 8
		}
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountMovies(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Movie{}, 0, nil
	}

	items, err := s.Repo.ListMoviesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update overwrites a movie's attributes. Admin only. The average rating is
// untouched by design.
func (s *MovieService) Update(ctx context.Context, actor *domain.User, id string, in MovieInput) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	f, err := in.validate()
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateMovie(ctx, s.DB, id, f); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMovieNotFound
		}
		return err
	}
	return nil
}

// Delete removes a movie from the catalogue. Admin only. Reviews cascade at
// the storage layer; no average recomputation is needed because the movie
// row (and its average) is gone.
func (s *MovieService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.Repo.DeleteMovie(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMovieNotFound
		}
		return err
	}
	return nil
}

// Search returns up to limit catalogue entries matching query, best match
// first. Matching is token-based over title and description; an empty or
// unmatchable query yields an empty result, never an error.
//
// The index is rebuilt per call from the current catalogue. The catalogue is
// admin-curated and small, so this stays cheap and always reflects the latest
// edits without cache invalidation.
func (s *MovieService) Search(ctx context.Context, query string, limit int) ([]domain.Movie, error) {
	if limit <= 0 {
		limit = 10
	}

	total, err := s.Repo.CountMovies(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []domain.Movie{}, nil
	}
	all, err := s.Repo.ListMoviesPage(ctx, s.DB, 0, int(total))
	if err != nil {
		return nil, err
	}

	docs := make([]search.Document, 0, len(all))
	byID := make(map[string]domain.Movie, len(all))
	for _, m := range all {
		docs = append(docs, search.Document{ID: m.ID, Text: m.Title + " " + m.Description})
		byID[m.ID] = m
	}

	out := []domain.Movie{}
	for _, r := range search.NewIndex(docs).TopK(query, limit) {
		if m, found := byID[r.ID]; found {
			out = append(out, m)
		}
	}
	return out, nil
}

// requireAdmin gates administrative catalogue operations.
func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return ErrAdminOnly
	}
	return nil
}

// validate normalizes and checks movie attributes.
func (in MovieInput) validate() (repo.MovieFields, error) {
	title := strings.TrimSpace(in.Title)
	desc := strings.TrimSpace(in.Description)
	if title == "" || utf8.RuneCountInString(title) > 100 ||
		desc == "" || in.Duration <= 0 || in.ReleaseDate.IsZero() {
		return repo.MovieFields{}, ErrInvalidMovie
	}
	return repo.MovieFields{
		Title:       title,
		Description: desc,
		ImageURL:    in.ImageURL,
		Duration:    in.Duration,
		ReleaseDate: in.ReleaseDate,
	}, nil
}
