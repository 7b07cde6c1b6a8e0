package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:reviewsvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.User{}, &domain.Movie{}, &domain.Review{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, admin bool) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		IsAdmin:      admin,
		PasswordHash: "x",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedMovie(t *testing.T, db *gorm.DB, title string) *domain.Movie {
	t.Helper()
	m := &domain.Movie{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "a film",
		Duration:    90 * time.Minute,
		ReleaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed movie %s: %v", title, err)
	}
	return m
}

func movieAverage(t *testing.T, db *gorm.DB, movieID string) *float64 {
	t.Helper()
	var m domain.Movie
	if err := db.First(&m, "id = ?", movieID).Error; err != nil {
		t.Fatalf("load movie: %v", err)
	}
	return m.AverageRating
}

func validInput(rating int) ReviewInput {
	return ReviewInput{Title: "Great", Message: "Loved every minute.", Rating: rating}
}

// ---- Create ----

func TestReview_Create_Unauthenticated(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	m := seedMovie(t, db, "Heat")

	if _, err := svc.Create(context.Background(), nil, m.ID, validInput(4)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestReview_Create_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "val", false)
	m := seedMovie(t, db, "Alien")

	cases := []struct {
		name string
		in   ReviewInput
		want error
	}{
		{"rating too low", ReviewInput{Title: "t", Message: "m", Rating: 0}, ErrInvalidRating},
		{"rating too high", ReviewInput{Title: "t", Message: "m", Rating: 6}, ErrInvalidRating},
		{"blank title", ReviewInput{Title: "   ", Message: "m", Rating: 3}, ErrEmptyTitle},
		{"blank message", ReviewInput{Title: "t", Message: " \n ", Rating: 3}, ErrEmptyMessage},
		{"title too long", ReviewInput{Title: strings.Repeat("x", 101), Message: "m", Rating: 3}, ErrTitleTooLong},
		{"message too long", ReviewInput{Title: "t", Message: strings.Repeat("y", 25_001), Rating: 3}, ErrMessageTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), u, m.ID, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	// Nothing was written, the movie is still unreviewed.
	if avg := movieAverage(t, db, m.ID); avg != nil {
		t.Fatalf("expected nil average after failed creates, got %v", *avg)
	}
}

func TestReview_Create_MovieNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "ghost", false)

	if _, err := svc.Create(context.Background(), u, uuid.NewString(), validInput(3)); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}
}

func TestReview_Create_Success_SetsAverage(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "alice", false)
	m := seedMovie(t, db, "Ran")

	r, err := svc.Create(context.Background(), u, m.ID, ReviewInput{Title: "  Epic  ", Message: " Stunning. ", Rating: 4})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Title != "Epic" || r.Message != "Stunning." {
		t.Fatalf("fields not trimmed: %+v", r)
	}
	if r.LastEditedAt != nil {
		t.Fatalf("LastEditedAt must be nil on creation")
	}
	if r.CreatedAt.IsZero() || time.Since(r.CreatedAt) > time.Minute {
		t.Fatalf("unexpected CreatedAt: %v", r.CreatedAt)
	}

	avg := movieAverage(t, db, m.ID)
	if avg == nil || *avg != 4.0 {
		t.Fatalf("expected average 4.0, got %v", avg)
	}
}

func TestReview_Create_Duplicate(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "bob", false)
	m := seedMovie(t, db, "Jaws")

	if _, err := svc.Create(context.Background(), u, m.ID, validInput(5)); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := svc.Create(context.Background(), u, m.ID, validInput(1)); !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview, got %v", err)
	}

	// The duplicate attempt did not disturb the average.
	avg := movieAverage(t, db, m.ID)
	if avg == nil || *avg != 5.0 {
		t.Fatalf("expected average 5.0, got %v", avg)
	}
}

// Explicitly exercise the gorm.ErrDuplicatedKey branch via a GORM callback:
// this simulates the loser of two racing first submissions, whose pre-check
// passed but whose insert hit the unique index.
func TestReview_Create_Duplicate_GormErrDuplicatedKey(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "racer", false)
	m := seedMovie(t, db, "Rush")

	if err := db.Callback().Create().Before("gorm:create").Register("force_dup_on_reviews", func(tx *gorm.DB) {
		if tx.Statement != nil && strings.Contains(tx.Statement.Table, "reviews") {
			tx.AddError(gorm.ErrDuplicatedKey)
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &ReviewService{DB: db}
	if _, err := svc.Create(context.Background(), u, m.ID, validInput(3)); !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("expected ErrDuplicateReview via gorm.ErrDuplicatedKey, got %v", err)
	}
}

// Force the average write to fail and verify the review insert rolls back
// with it: the invariant is transactional, never "review yes, average later".
func TestReview_Create_AverageWriteFails_RollsBack(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "txn", false)
	m := seedMovie(t, db, "Brazil")

	if err := db.Callback().Update().Before("gorm:update").Register("force_err_on_movies", func(tx *gorm.DB) {
		if tx.Statement != nil && strings.Contains(tx.Statement.Table, "movies") {
			tx.AddError(errors.New("forced-average-error"))
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &ReviewService{DB: db}
	if _, err := svc.Create(context.Background(), u, m.ID, validInput(2)); err == nil {
		t.Fatalf("expected error from forced update callback")
	}

	var n int64
	if err := db.Model(&domain.Review{}).Where("movie_id = ?", m.ID).Count(&n).Error; err != nil {
		t.Fatalf("count reviews: %v", err)
	}
	if n != 0 {
		t.Fatalf("review insert should have rolled back, found %d rows", n)
	}
}

// ---- The average over a full lifecycle ----

func TestReview_AverageLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	alice := seedUser(t, db, "alice", false)
	bob := seedUser(t, db, "bob", false)
	m := seedMovie(t, db, "Stalker")

	// No reviews yet.
	if avg := movieAverage(t, db, m.ID); avg != nil {
		t.Fatalf("fresh movie should have nil average, got %v", *avg)
	}

	ra, err := svc.Create(context.Background(), alice, m.ID, validInput(4))
	if err != nil {
		t.Fatalf("alice Create: %v", err)
	}
	rb, err := svc.Create(context.Background(), bob, m.ID, validInput(5))
	if err != nil {
		t.Fatalf("bob Create: %v", err)
	}
	if avg := movieAverage(t, db, m.ID); avg == nil || *avg != 4.5 {
		t.Fatalf("expected 4.5, got %v", avg)
	}

	// Alice edits down to 2 -> (2+5)/2 = 3.5
	if err := svc.Update(context.Background(), alice, ra.ID, validInput(2)); err != nil {
		t.Fatalf("alice Update: %v", err)
	}
	if avg := movieAverage(t, db, m.ID); avg == nil || *avg != 3.5 {
		t.Fatalf("expected 3.5 after edit, got %v", avg)
	}

	// Bob deletes -> only alice's 2 remains.
	if err := svc.Delete(context.Background(), bob, rb.ID); err != nil {
		t.Fatalf("bob Delete: %v", err)
	}
	if avg := movieAverage(t, db, m.ID); avg == nil || *avg != 2.0 {
		t.Fatalf("expected 2.0 after delete, got %v", avg)
	}

	// Last review gone -> back to nil, not zero.
	if err := svc.Delete(context.Background(), alice, ra.ID); err != nil {
		t.Fatalf("alice Delete: %v", err)
	}
	if avg := movieAverage(t, db, m.ID); avg != nil {
		t.Fatalf("expected nil average with no reviews, got %v", *avg)
	}
}

func TestReview_AverageRoundsToOneDecimal(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	m := seedMovie(t, db, "Seven")

	for i, rating := range []int{1, 1, 2} {
		u := seedUser(t, db, fmt.Sprintf("rater%d", i), false)
		if _, err := svc.Create(context.Background(), u, m.ID, validInput(rating)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	// 4/3 = 1.333... -> 1.3
	if avg := movieAverage(t, db, m.ID); avg == nil || *avg != 1.3 {
		t.Fatalf("expected 1.3, got %v", avg)
	}
}

// ---- Update ----

func TestReview_Update_Authorization(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	author := seedUser(t, db, "author", false)
	stranger := seedUser(t, db, "stranger", false)
	admin := seedUser(t, db, "admin", true)
	m := seedMovie(t, db, "Rope")

	r, err := svc.Create(context.Background(), author, m.ID, validInput(3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Update(context.Background(), nil, r.ID, validInput(4)); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
	if err := svc.Update(context.Background(), stranger, r.ID, validInput(4)); !errors.Is(err, ErrNotReviewAuthor) {
		t.Fatalf("stranger: expected ErrNotReviewAuthor, got %v", err)
	}
	// Admins may remove reviews, never rewrite them.
	if err := svc.Update(context.Background(), admin, r.ID, validInput(4)); !errors.Is(err, ErrNotReviewAuthor) {
		t.Fatalf("admin: expected ErrNotReviewAuthor, got %v", err)
	}
	if err := svc.Update(context.Background(), author, r.ID, validInput(4)); err != nil {
		t.Fatalf("author: unexpected error %v", err)
	}
}

func TestReview_Update_StampsLastEditedAt(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "editor", false)
	m := seedMovie(t, db, "M")

	r, err := svc.Create(context.Background(), u, m.ID, validInput(3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Invalid input leaves the review (and its nil edit stamp) untouched.
	if err := svc.Update(context.Background(), u, r.ID, ReviewInput{Title: "t", Message: "m", Rating: 9}); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("expected ErrInvalidRating, got %v", err)
	}
	var before domain.Review
	if err := db.First(&before, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if before.LastEditedAt != nil {
		t.Fatalf("failed update must not stamp LastEditedAt")
	}

	if err := svc.Update(context.Background(), u, r.ID, ReviewInput{Title: "New", Message: "Changed my mind.", Rating: 5}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	var after domain.Review
	if err := db.First(&after, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.LastEditedAt == nil {
		t.Fatalf("LastEditedAt not stamped on first edit")
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("CreatedAt changed on edit: %v -> %v", before.CreatedAt, after.CreatedAt)
	}
	if after.Title != "New" || after.Rating != 5 {
		t.Fatalf("content not updated: %+v", after)
	}
}

func TestReview_Update_NotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "nobody", false)

	if err := svc.Update(context.Background(), u, uuid.NewString(), validInput(3)); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}

// ---- Delete ----

func TestReview_Delete_Authorization(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	author := seedUser(t, db, "author", false)
	stranger := seedUser(t, db, "stranger", false)
	admin := seedUser(t, db, "admin", true)
	m := seedMovie(t, db, "Vertigo")

	r, err := svc.Create(context.Background(), author, m.ID, validInput(2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), nil, r.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
	if err := svc.Delete(context.Background(), stranger, r.ID); !errors.Is(err, ErrCannotDeleteReview) {
		t.Fatalf("stranger: expected ErrCannotDeleteReview, got %v", err)
	}

	// Admin removal works and clears the average.
	if err := svc.Delete(context.Background(), admin, r.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	if avg := movieAverage(t, db, m.ID); avg != nil {
		t.Fatalf("expected nil average after admin delete, got %v", *avg)
	}

	if err := svc.Delete(context.Background(), admin, r.ID); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("second delete: expected ErrReviewNotFound, got %v", err)
	}
}

// ---- Reads ----

func TestReview_ListByMovie(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	m := seedMovie(t, db, "Roma")

	if _, _, err := svc.ListByMovie(context.Background(), uuid.NewString(), 1, 10); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("expected ErrMovieNotFound, got %v", err)
	}

	items, total, err := svc.ListByMovie(context.Background(), m.ID, 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty list: items=%d total=%d err=%v", len(items), total, err)
	}

	for i := 0; i < 3; i++ {
		u := seedUser(t, db, fmt.Sprintf("lister%d", i), false)
		if _, err := svc.Create(context.Background(), u, m.ID, validInput(3)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	items, total, err = svc.ListByMovie(context.Background(), m.ID, 1, 2)
	if err != nil {
		t.Fatalf("ListByMovie: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected total=3 page=2, got total=%d page=%d", total, len(items))
	}

	items2, _, err := svc.ListByMovie(context.Background(), m.ID, 2, 2)
	if err != nil || len(items2) != 1 {
		t.Fatalf("second page: items=%d err=%v", len(items2), err)
	}
}

func TestReview_CanReview(t *testing.T) {
	db := newTestDB(t)
	svc := &ReviewService{DB: db}
	u := seedUser(t, db, "gate", false)
	m := seedMovie(t, db, "Gattaca")

	if err := svc.CanReview(context.Background(), nil, m.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("anonymous: expected ErrUnauthenticated, got %v", err)
	}
	if err := svc.CanReview(context.Background(), u, uuid.NewString()); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("missing movie: expected ErrMovieNotFound, got %v", err)
	}
	if err := svc.CanReview(context.Background(), u, m.ID); err != nil {
		t.Fatalf("fresh movie: expected nil, got %v", err)
	}

	if _, err := svc.Create(context.Background(), u, m.ID, validInput(4)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.CanReview(context.Background(), u, m.ID); !errors.Is(err, ErrDuplicateReview) {
		t.Fatalf("already reviewed: expected ErrDuplicateReview, got %v", err)
	}
}

func Test_isNotFound_and_isDuplicate(t *testing.T) {
	if !isNotFound(repo.ErrNotFound) {
		t.Fatalf("isNotFound(repo.ErrNotFound) = false; want true")
	}
	if isNotFound(errors.New("nope")) {
		t.Fatalf("isNotFound(random) = true; want false")
	}

	if !isDuplicate(errors.New("UNIQUE constraint failed: reviews.user_id, reviews.movie_id")) {
		t.Fatalf("isDuplicate(sqlite unique) = false; want true")
	}
	if !isDuplicate(errors.New("duplicate key value violates unique constraint \"ux_reviews_user_movie\"")) {
		t.Fatalf("isDuplicate(pg duplicate) = false; want true")
	}
	if isDuplicate(errors.New("some other error")) {
		t.Fatalf("isDuplicate(other) = true; want false")
	}
}
