// User HTTP handlers.
//
// This file exposes REST endpoints for site accounts:
//   - POST   /users       (register)
//   - POST   /login       (verify credentials)
//   - GET    /users       (list, paginated)
//   - GET    /users/{id}  (profile, with the user's reviews)
//   - PUT    /users/{id}  (update own profile)
//   - DELETE /users/{id}  (delete own account)
//
// Profile mutations are strictly self-service; the service enforces that and
// these handlers only translate the resulting errors. Deleting an account also
// deletes the user's reviews and re-aggregates every affected movie's average.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"
	"github.com/screenlog/go-review-backend/internal/services"
)

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	// Username uniquely identifies the account (no whitespace).
	Username string `json:"username" binding:"required,max=150" example:"filmfan42"`
	// Email is the account's contact address.
	Email string `json:"email" binding:"required,email" example:"fan@example.com"`
	// Password must be at least 8 characters.
	Password string `json:"password" binding:"required,min=8" example:"hunter2hunter2"`
	// FirstName is optional and must contain only letters.
	FirstName string `json:"first_name" example:"Ada"`
	// LastName is optional and must contain only letters.
	LastName string `json:"last_name" example:"Lovelace"`
}

// LoginRequest is the JSON payload for verifying credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"filmfan42"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

// UpdateProfileRequest is the JSON payload for rewriting one's own profile.
type UpdateProfileRequest struct {
	Username  string `json:"username" binding:"required,max=150" example:"filmfan42"`
	Email     string `json:"email" binding:"required,email" example:"fan@example.com"`
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
}

// UserProfileResponse is a user plus the reviews they have written.
type UserProfileResponse struct {
	domain.User
	Reviews []domain.Review `json:"reviews"`
}

// ListUsersResponse wraps a page of users and pagination information.
type ListUsersResponse struct {
	Users      []domain.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

// Register godoc
// @ID          registerUser
// @Summary     Register an account
// @Description Creates a new account. Usernames are unique; first and last names, when given, must be purely alphabetic.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     409  {object} handlers.ErrorResponse "Username already taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username, email and a password of 8+ characters are required")
		return
	}

	u, err := h.userSvc.Register(c.Request.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Verify credentials
// @Description Checks a username/password pair and returns the matching account. Unknown usernames and wrong passwords are indistinguishable.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} domain.User
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}

	u, err := h.userSvc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Description Returns a page of site accounts, ordered by username.
// @Tags        Users
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(8)
//
// @Success     200  {object} handlers.ListUsersResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.userSvc.ListPage(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListUsersResponse{
		Users:      items,
		Pagination: paginationFor(page, pageSize, total),
	})
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user profile
// @Description Returns a user's profile together with the reviews they have written.
// @Tags        Users
// @Produce     json
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.UserProfileResponse
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	u, err := h.userSvc.Get(ctx, c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}

	// The profile view shows the user's reviews (best effort).
	reviews := []domain.Review{}
	var db *gorm.DB
	if svc, ok := h.userSvc.(*services.UserService); ok {
		db = svc.DB
	}
	if db != nil {
		if rs, err := repo.ListReviewsByUser(ctx, db, u.ID); err == nil {
			reviews = rs
		}
	}

	ok(c, http.StatusOK, UserProfileResponse{User: *u, Reviews: reviews})
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update own profile
// @Description Rewrites the current user's profile. Accounts are self-service: nobody, admins included, may edit another user's profile.
// @Tags        Users
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"  format(uuid)
// @Param       id         path    string  true  "User ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Profile payload"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not your profile"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     409  {object} handlers.ErrorResponse "Username already taken"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID := c.Param("id")
	if _, err := uuid.Parse(userID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and email are required")
		return
	}

	err := h.userSvc.Update(c.Request.Context(), currentUser(c), userID, services.ProfileInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete own account
// @Description Removes the current user's account and all their reviews, updating every affected movie's average rating. Accounts are self-service: only the owner may delete.
// @Tags        Users
// @Produce     json
//
// @Param       X-User-ID  header  string  false "Acting user ID"  format(uuid)
// @Param       id         path    string  true  "User ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Failure     403  {object} handlers.ErrorResponse "Not your account"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	if err := h.userSvc.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
