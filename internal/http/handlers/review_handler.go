// Review HTTP handlers.
//
// This file exposes REST endpoints for reviews:
//   - GET    /movies/{id}/reviews      (list, paginated, ETag support)
//   - POST   /movies/{id}/reviews      (create)
//   - GET    /movies/{id}/reviews/new  (pre-flight: may I review this movie?)
//   - GET    /reviews/{id}             (detail)
//   - PUT    /reviews/{id}             (update, author only)
//   - DELETE /reviews/{id}             (delete, author or admin)
//
// Handlers in this file are transport-thin: they validate input, delegate to
// application services, and translate domain/service errors into HTTP results.
// Every mutation goes through the review service, which recomputes the movie's
// average rating in the same transaction.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"
	"github.com/screenlog/go-review-backend/internal/services"
)

// ReviewRequest is the JSON payload for creating or updating a review.
//
// Rating must be a whole number of stars between 1 and 5. The binding tags
// enforce the domain constraints at the transport layer; the service checks
// them again.
type ReviewRequest struct {
	// Title is the review headline (1–100 chars).
	Title string `json:"title" binding:"required,max=100" example:"A quiet stunner"`
	// Message is the review body (1–25000 chars).
	Message string `json:"message" binding:"required,max=25000" example:"Saw it twice in one week."`
	// Rating is the star rating: 1 (worst) to 5 (best).
	Rating int `json:"rating" binding:"required,min=1,max=5" example:"5"`
}

// toInput converts the transport payload into the service input.
func (r ReviewRequest) toInput() services.ReviewInput {
	return services.ReviewInput{Title: r.Title, Message: r.Message, Rating: r.Rating}
}

// ListReviewsResponse wraps a page of reviews and pagination information.
type ListReviewsResponse struct {
	Reviews    []domain.Review `json:"reviews"`
	Pagination Pagination      `json:"pagination"`
}

// ListReviews godoc
// @ID          listReviews
// @Summary     List a movie's reviews (paginated)
// @Description Returns a page of a movie's reviews, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Reviews
// @Produce     json
//
// @Param       id             path    string  true  "Movie ID (UUID)"             format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(8)
//
// @Success     200  {object} handlers.ListReviewsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id}/reviews [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	ctx := c.Request.Context()
	movieID := c.Param("id")
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort). Review edits bump last_edited_at, so the
	// tag changes on edits as well as on create/delete.
	var db *gorm.DB
	if svc, ok := h.reviewSvc.(*services.ReviewService); ok {
		db = svc.DB
	}
	if db != nil {
		count, lastActivity, err := repo.MovieReviewsStats(ctx, db, movieID)
		if err == nil {
			var ts int64
			if lastActivity != nil {
				ts = lastActivity.Unix()
			}
			etag := fmt.Sprintf(`W/"reviews:%s:%d:%d"`, movieID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.reviewSvc.ListByMovie(ctx, movieID, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	ok(c, http.StatusOK, ListReviewsResponse{
		Reviews:    items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// CreateReview godoc
// @ID          createReview
// @Summary     Review a movie
// @Description Creates the current user's review for a movie and updates the movie's average rating. One review per user per movie.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"   format(uuid)
// @Param       id         path    string  true  "Movie ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ReviewRequest  true  "Review payload"
//
// @Success     201  {object} domain.Review
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     409  {object} handlers.ErrorResponse "Review already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id}/reviews [post]
func (h *Handlers) CreateReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title, message and rating (1-5) are required")
		return
	}

	r, err := h.reviewSvc.Create(c.Request.Context(), currentUser(c), c.Param("id"), req.toInput())
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

// NewReview godoc
// @ID          newReview
// @Summary     Check review eligibility
// @Description Reports whether the current user may write a review for this movie. Mirrors the gate on the creation form: users who already reviewed the movie are turned away before composing anything.
// @Tags        Reviews
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"   format(uuid)
// @Param       id         path    string  true  "Movie ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     404  {object} handlers.ErrorResponse "Movie not found"
// @Failure     409  {object} handlers.ErrorResponse "Review already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /movies/{id}/reviews/new [get]
func (h *Handlers) NewReview(c *gin.Context) {
	if err := h.reviewSvc.CanReview(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// GetReview godoc
// @ID          getReview
// @Summary     Get a review
// @Description Returns a single review. last_edited_at is absent until the first edit.
// @Tags        Reviews
// @Produce     json
//
// @Param       id  path  string  true  "Review ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Review
// @Failure     404  {object} handlers.ErrorResponse "Review not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/{id} [get]
func (h *Handlers) GetReview(c *gin.Context) {
	r, err := h.reviewSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// UpdateReview godoc
// @ID          updateReview
// @Summary     Edit a review
// @Description Rewrites the current user's review, stamps last_edited_at, and updates the movie's average rating. Only the author may edit; admins cannot.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"    format(uuid)
// @Param       id         path    string  true  "Review ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ReviewRequest  true  "Review payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Review not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/{id} [put]
func (h *Handlers) UpdateReview(c *gin.Context) {
	reviewID := c.Param("id")
	if _, err := uuid.Parse(reviewID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "review id must be a UUID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title, message and rating (1-5) are required")
		return
	}

	if err := h.reviewSvc.Update(c.Request.Context(), currentUser(c), reviewID, req.toInput()); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// DeleteReview godoc
// @ID          deleteReview
// @Summary     Delete a review
// @Description Removes a review and updates the movie's average rating. Allowed for the review's author and for admins.
// @Tags        Reviews
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"    format(uuid)
// @Param       id         path    string  true  "Review ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not the author or an admin"
// @Failure     404  {object} handlers.ErrorResponse "Review not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /reviews/{id} [delete]
func (h *Handlers) DeleteReview(c *gin.Context) {
	if err := h.reviewSvc.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
