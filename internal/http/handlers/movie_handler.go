// Movie HTTP handlers.
//
// This file exposes REST endpoints for the movie catalogue:
//   - GET    /movies        (list, paginated, ETag support)
//   - POST   /movies        (create, admin only)
//   - GET    /movies/{id}   (detail)
//   - PUT    /movies/{id}   (update, admin only)
//   - DELETE /movies/{id}   (delete, admin only)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
// This file also carries the shared handler wiring (service contracts, the
// Handlers struct, pagination helpers) used by the review and user handlers.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/http/middleware"
	"github.com/screenlog/go-review-backend/internal/repo"
	"github.com/screenlog/go-review-backend/internal/services"
	"github.com/screenlog/go-review-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// MovieCatalogue defines catalogue operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type MovieCatalogue interface {
	// Create adds a movie; only admins may call it.
	Create(ctx context.Context, actor *domain.User, in services.MovieInput) (*domain.Movie, error)
	// Get returns a movie and whether it has any reviews.
	Get(ctx context.Context, id string) (*domain.Movie, bool, error)
	// ListPage returns a page of the catalogue and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error)
	// Search returns up to limit movies matching query, best match first.
	Search(ctx context.Context, query string, limit int) ([]domain.Movie, error)
	// Update overwrites a movie's attributes; only admins may call it.
	Update(ctx context.Context, actor *domain.User, id string, in services.MovieInput) error
	// Delete removes a movie; only admins may call it.
	Delete(ctx context.Context, actor *domain.User, id string) error
}

// ReviewManager defines review lifecycle operations consumed by HTTP handlers.
// Every mutation keeps the movie's average rating in step with its reviews.
type ReviewManager interface {
	// Create adds actor's review for a movie.
	Create(ctx context.Context, actor *domain.User, movieID string, in services.ReviewInput) (*domain.Review, error)
	// Get fetches a single review.
	Get(ctx context.Context, reviewID string) (*domain.Review, error)
	// ListByMovie returns a page of a movie's reviews and the total count.
	ListByMovie(ctx context.Context, movieID string, page, pageSize int) ([]domain.Review, int64, error)
	// Update rewrites a review owned by actor.
	Update(ctx context.Context, actor *domain.User, reviewID string, in services.ReviewInput) error
	// Delete removes a review (author or admin).
	Delete(ctx context.Context, actor *domain.User, reviewID string) error
	// CanReview reports whether actor may start a new review for a movie.
	CanReview(ctx context.Context, actor *domain.User, movieID string) error
}

// AccountManager defines account operations consumed by HTTP handlers.
type AccountManager interface {
	// Register creates a new account.
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	// Authenticate verifies a username/password pair.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// Get fetches a user profile.
	Get(ctx context.Context, id string) (*domain.User, error)
	// ListPage returns a page of users and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	// Update overwrites actor's own profile.
	Update(ctx context.Context, actor *domain.User, userID string, in services.ProfileInput) error
	// Delete removes actor's own account and its reviews.
	Delete(ctx context.Context, actor *domain.User, userID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for movies, reviews, and users.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	movieSvc  MovieCatalogue
	reviewSvc ReviewManager
	userSvc   AccountManager
}

// New constructs and returns a Handlers instance bound to the given services.
func New(movieSvc MovieCatalogue, reviewSvc ReviewManager, userSvc AccountManager) *Handlers {
	return &Handlers{movieSvc: movieSvc, reviewSvc: reviewSvc, userSvc: userSvc}
}

// currentUser returns the authenticated account resolved by the CurrentUser
// middleware, or nil for anonymous requests. Services treat nil as anonymous,
// so handlers pass it through without checking.
func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(middleware.CtxCurrentUser); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

//
// DTOs
//

// MovieRequest is the JSON payload for creating or updating a movie.
type MovieRequest struct {
	// Title is the movie title (1–100 chars).
	Title string `json:"title" binding:"required,max=100" example:"Arrival"`
	// Description is the long-form synopsis.
	Description string `json:"description" binding:"required" example:"A linguist is recruited to communicate with visitors."`
	// ImageURL optionally points at the poster image.
	ImageURL *string `json:"image_url,omitempty" example:"https://img.example.com/arrival.jpg"`
	// DurationMinutes is the runtime in whole minutes.
	DurationMinutes int `json:"duration_minutes" binding:"required,min=1" example:"116"`
	// ReleaseDate is the release date in YYYY-MM-DD form.
	ReleaseDate string `json:"release_date" binding:"required" example:"2016-11-11"`
}

// toInput converts the transport payload into the service input, parsing
// the release date. A date parse failure is returned to the handler, which
// rejects the payload before any service call.
func (r MovieRequest) toInput() (services.MovieInput, error) {
	rd, err := time.Parse("2006-01-02", r.ReleaseDate)
	if err != nil {
		return services.MovieInput{}, err
	}
	return services.MovieInput{
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Duration:    time.Duration(r.DurationMinutes) * time.Minute,
		ReleaseDate: rd,
	}, nil
}

// MovieDetailResponse is a movie plus the has-reviews flag the detail view
// uses to decide whether to link to the review list.
type MovieDetailResponse struct {
	domain.Movie
	HasReviews bool `json:"has_reviews"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMoviesResponse wraps a page of movies and pagination information.
type ListMoviesResponse struct {
	Movies     []domain.Movie `json:"movies"`
	Pagination Pagination     `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize). The default page size
// matches the site's browse views (8 items).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 8
		maxPageSize     = 100
	)
	page = utils.IntOr(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.IntOr(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor derives the response metadata for a page.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

//
// Handlers
//

// ListMovies godoc
// @ID          listMovies
// @Summary     List movies (paginated)
// @Description Returns a page of the movie catalogue, newest releases first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Movies
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(8)
//
// @Success     200  {object} handlers.ListMoviesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies [get]
func (h *Handlers) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.movieSvc.(*services.MovieService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.MoviesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"movies:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.movieSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListMoviesResponse{
		Movies:     items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// SearchMovies godoc
// @ID          searchMovies
// @Summary     Search movies
// @Description Token-based search over titles and synopses, best match first.
// @Tags        Movies
// @Produce     json
//
// @Param       q      query  string  true   "Search query"
// @Param       limit  query  int     false  "Maximum results"  minimum(1) maximum(100) default(10)
//
// @Success     200  {array}  domain.Movie
// @Failure     400  {object} handlers.ErrorResponse "Missing query"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/search [get]
func (h *Handlers) SearchMovies(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}
	limit := utils.IntOr(c.Query("limit"), 10)
	if limit > 100 {
		limit = 100
	}

	items, err := h.movieSvc.Search(c.Request.Context(), q, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// GetMovie godoc
// @ID          getMovie
// @Summary     Get a movie
// @Description Returns a movie's details, including its average rating (null while unreviewed) and whether it has reviews.
// @Tags        Movies
// @Produce     json
//
// @Param       id  path  string  true  "Movie ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.MovieDetailResponse
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id} [get]
func (h *Handlers) GetMovie(c *gin.Context) {
	m, hasReviews, err := h.movieSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, MovieDetailResponse{Movie: *m, HasReviews: hasReviews})
}

// CreateMovie godoc
// @ID          createMovie
// @Summary     Add a movie (admin)
// @Description Adds a movie to the catalogue. Requires an admin account.
// @Tags        Movies
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"  format(uuid)
// @Param       body       body    handlers.MovieRequest  true  "Movie payload"
//
// @Success     201  {object} domain.Movie
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Admin only"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies [post]
func (h *Handlers) CreateMovie(c *gin.Context) {
	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "release_date must be YYYY-MM-DD")
		return
	}

	m, err := h.movieSvc.Create(c.Request.Context(), currentUser(c), in)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, m)
}

// UpdateMovie godoc
// @ID          updateMovie
// @Summary     Update a movie (admin)
// @Description Overwrites a movie's attributes. The average rating is untouched. Requires an admin account.
// @Tags        Movies
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"   format(uuid)
// @Param       id         path    string  true  "Movie ID (UUID)"  format(uuid)
// @Param       body       body    handlers.MovieRequest  true  "Movie payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Admin only"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id} [put]
func (h *Handlers) UpdateMovie(c *gin.Context) {
	movieID := c.Param("id")
	if _, err := uuid.Parse(movieID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "movie id must be a UUID")
		return
	}

	var req MovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "release_date must be YYYY-MM-DD")
		return
	}

	if err := h.movieSvc.Update(c.Request.Context(), currentUser(c), movieID, in); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// DeleteMovie godoc
// @ID          deleteMovie
// @Summary     Remove a movie (admin)
// @Description Removes a movie and all its reviews. Requires an admin account.
// @Tags        Movies
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"   format(uuid)
// @Param       id         path    string  true  "Movie ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Admin only"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id} [delete]
func (h *Handlers) DeleteMovie(c *gin.Context) {
	if err := h.movieSvc.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
