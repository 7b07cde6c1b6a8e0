package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/http/middleware"
	"github.com/screenlog/go-review-backend/internal/services"
)

func init() { gin.SetMode(gin.TestMode) }

//
// Stub services. Each method delegates to an optional function field; a nil
// field panics, which keeps tests honest about which calls they expect.
//

type stubMovies struct {
	createFn func(ctx context.Context, actor *domain.User, in services.MovieInput) (*domain.Movie, error)
	getFn    func(ctx context.Context, id string) (*domain.Movie, bool, error)
	listFn   func(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error)
	searchFn func(ctx context.Context, query string, limit int) ([]domain.Movie, error)
	updateFn func(ctx context.Context, actor *domain.User, id string, in services.MovieInput) error
	deleteFn func(ctx context.Context, actor *domain.User, id string) error
}

func (s *stubMovies) Create(ctx context.Context, actor *domain.User, in services.MovieInput) (*domain.Movie, error) {
	return s.createFn(ctx, actor, in)
}
func (s *stubMovies) Get(ctx context.Context, id string) (*domain.Movie, bool, error) {
	return s.getFn(ctx, id)
}
func (s *stubMovies) ListPage(ctx context.Context, page, pageSize int) ([]domain.Movie, int64, error) {
	return s.listFn(ctx, page, pageSize)
}
func (s *stubMovies) Search(ctx context.Context, query string, limit int) ([]domain.Movie, error) {
	return s.searchFn(ctx, query, limit)
}
func (s *stubMovies) Update(ctx context.Context, actor *domain.User, id string, in services.MovieInput) error {
	return s.updateFn(ctx, actor, id, in)
}
func (s *stubMovies) Delete(ctx context.Context, actor *domain.User, id string) error {
	return s.deleteFn(ctx, actor, id)
}

type stubReviews struct {
	createFn    func(ctx context.Context, actor *domain.User, movieID string, in services.ReviewInput) (*domain.Review, error)
	getFn       func(ctx context.Context, reviewID string) (*domain.Review, error)
	listFn      func(ctx context.Context, movieID string, page, pageSize int) ([]domain.Review, int64, error)
	updateFn    func(ctx context.Context, actor *domain.User, reviewID string, in services.ReviewInput) error
	deleteFn    func(ctx context.Context, actor *domain.User, reviewID string) error
	canReviewFn func(ctx context.Context, actor *domain.User, movieID string) error
}

func (s *stubReviews) Create(ctx context.Context, actor *domain.User, movieID string, in services.ReviewInput) (*domain.Review, error) {
	return s.createFn(ctx, actor, movieID, in)
}
func (s *stubReviews) Get(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.getFn(ctx, reviewID)
}
func (s *stubReviews) ListByMovie(ctx context.Context, movieID string, page, pageSize int) ([]domain.Review, int64, error) {
	return s.listFn(ctx, movieID, page, pageSize)
}
func (s *stubReviews) Update(ctx context.Context, actor *domain.User, reviewID string, in services.ReviewInput) error {
	return s.updateFn(ctx, actor, reviewID, in)
}
func (s *stubReviews) Delete(ctx context.Context, actor *domain.User, reviewID string) error {
	return s.deleteFn(ctx, actor, reviewID)
}
func (s *stubReviews) CanReview(ctx context.Context, actor *domain.User, movieID string) error {
	return s.canReviewFn(ctx, actor, movieID)
}

type stubUsers struct {
	registerFn func(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	authFn     func(ctx context.Context, username, password string) (*domain.User, error)
	getFn      func(ctx context.Context, id string) (*domain.User, error)
	listFn     func(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	updateFn   func(ctx context.Context, actor *domain.User, userID string, in services.ProfileInput) error
	deleteFn   func(ctx context.Context, actor *domain.User, userID string) error
}

func (s *stubUsers) Register(ctx context.Context, in services.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}
func (s *stubUsers) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	return s.authFn(ctx, username, password)
}
func (s *stubUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.getFn(ctx, id)
}
func (s *stubUsers) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	return s.listFn(ctx, page, pageSize)
}
func (s *stubUsers) Update(ctx context.Context, actor *domain.User, userID string, in services.ProfileInput) error {
	return s.updateFn(ctx, actor, userID, in)
}
func (s *stubUsers) Delete(ctx context.Context, actor *domain.User, userID string) error {
	return s.deleteFn(ctx, actor, userID)
}

//
// Router wiring
//

// asUser injects actor into the request context the way the CurrentUser
// middleware would. nil leaves the request anonymous.
func asUser(actor *domain.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.CtxCurrentUser, actor)
		}
		c.Next()
	}
}

func newRouter(h *Handlers, actor *domain.User) *gin.Engine {
	r := gin.New()
	r.Use(asUser(actor))

	r.GET("/movies", h.ListMovies)
	r.POST("/movies", h.CreateMovie)
	r.GET("/movies/search", h.SearchMovies)
	r.GET("/movies/:id", h.GetMovie)
	r.PUT("/movies/:id", h.UpdateMovie)
	r.DELETE("/movies/:id", h.DeleteMovie)

	r.GET("/movies/:id/reviews", h.ListReviews)
	r.POST("/movies/:id/reviews", h.CreateReview)
	r.GET("/movies/:id/reviews/new", h.NewReview)
	r.GET("/reviews/:id", h.GetReview)
	r.PUT("/reviews/:id", h.UpdateReview)
	r.DELETE("/reviews/:id", h.DeleteReview)

	r.POST("/users", h.Register)
	r.POST("/login", h.Login)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.PUT("/users/:id", h.UpdateUser)
	r.DELETE("/users/:id", h.DeleteUser)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error envelope: %v (body %q)", err, w.Body.String())
	}
	return e
}
