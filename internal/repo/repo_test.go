package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/screenlog/go-review-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func mustUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u, err := CreateUser(context.Background(), db, UserFields{
		Username: username,
		Email:    username + "@example.com",
	}, "hash", false)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustMovie(t *testing.T, db *gorm.DB, title string, released time.Time) *domain.Movie {
	t.Helper()
	m, err := CreateMovie(context.Background(), db, MovieFields{
		Title:       title,
		Description: "desc",
		Duration:    100 * time.Minute,
		ReleaseDate: released,
	})
	if err != nil {
		t.Fatalf("create movie %s: %v", title, err)
	}
	return m
}
