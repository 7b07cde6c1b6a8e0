package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/screenlog/go-review-backend/internal/domain"
)

func init() { gin.SetMode(gin.TestMode) }

func newAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// probe records what CurrentUser left in the context.
func probeRouter(db *gorm.DB, gotUser **domain.User, gotUserID *string) *gin.Engine {
	r := gin.New()
	r.Use(CurrentUser(db))
	r.GET("/probe", func(c *gin.Context) {
		if v, ok := c.Get(CtxCurrentUser); ok {
			*gotUser = v.(*domain.User)
		}
		if v, ok := c.Get("userID"); ok {
			*gotUserID = v.(string)
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestCurrentUser_ResolvesHeader(t *testing.T) {
	db := newAuthTestDB(t)
	u := &domain.User{ID: uuid.NewString(), Username: "ada", Email: "ada@example.com", PasswordHash: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	var gotUser *domain.User
	var gotUserID string
	r := probeRouter(db, &gotUser, &gotUserID)

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-User-ID", "  "+u.ID+"  ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotUser == nil || gotUser.Username != "ada" {
		t.Fatalf("user not resolved: %+v", gotUser)
	}
	if gotUserID != u.ID {
		t.Fatalf("userID = %q; want %q", gotUserID, u.ID)
	}
}

func TestCurrentUser_AnonymousPaths(t *testing.T) {
	db := newAuthTestDB(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"blank header", "   "},
		{"unknown account", uuid.NewString()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser *domain.User
			var gotUserID string
			r := probeRouter(db, &gotUser, &gotUserID)

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tc.header != "" {
				req.Header.Set("X-User-ID", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// The request proceeds; it is simply anonymous.
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if gotUser != nil || gotUserID != "" {
				t.Fatalf("expected anonymous, got user=%+v id=%q", gotUser, gotUserID)
			}
		})
	}
}
