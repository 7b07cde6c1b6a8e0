package middleware

// CurrentUser is the identity resolver for the API. Authentication proper
// (sessions, tokens) is handled upstream; by the time a request reaches this
// service the caller's identity arrives as an X-User-ID header carrying
// their account UUID. CurrentUser turns that claim into a loaded account so
// handlers and services work with a *domain.User, never a raw header value.

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/repo"
)

const (
	// CtxCurrentUser is the Gin context key under which the resolved
	// *domain.User is stored. Absent for anonymous requests.
	CtxCurrentUser = "currentUser"

	// headerUserID carries the acting account's UUID.
	headerUserID = "X-User-ID"
)

// CurrentUser returns a middleware that resolves the X-User-ID header into a
// full account record and stores it in the Gin context.
//
// Behavior:
//   - No header, or a header naming an unknown account: the request proceeds
//     anonymously. Endpoints that need a signed-in user reject it themselves,
//     so public reads stay cheap and unauthenticated.
//   - A known account: the *domain.User is stored under CtxCurrentUser and
//     the plain ID under "userID" (consumed by the access logger and the
//     rate limiter's per-user bucketing).
//
// Lookup errors other than not-found are logged and treated as anonymous
// rather than failing the request; the affected endpoint will still refuse
// anything that genuinely needs the account.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(headerUserID))
		if uid == "" {
			c.Next()
			return
		}

		u, err := repo.GetUser(c.Request.Context(), db, uid)
		if err != nil {
			if !isNotFoundErr(err) {
				LoggerFrom(c).Warn().
					Err(err).
					Str("user_id", uid).
					Msg("current user lookup failed")
			}
			c.Next()
			return
		}

		c.Set(CtxCurrentUser, u)
		c.Set("userID", u.ID)
		c.Next()
	}
}

// isNotFoundErr matches the repo's not-found sentinels.
func isNotFoundErr(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
