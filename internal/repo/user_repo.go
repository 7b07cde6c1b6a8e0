// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
)

// UserFields carries the profile attributes a user may edit. The admin flag
// and password hash travel separately: the former is never settable through
// profile updates, the latter has its own write path.
type UserFields struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// CreateUser inserts a new user row with a generated UUID. The raw DB error
// is returned unmapped so the service can detect username collisions.
func CreateUser(ctx context.Context, db *gorm.DB, f UserFields, passwordHash string, isAdmin bool) (*domain.User, error) {
	u := &domain.User{
		ID:           uuid.NewString(),
		Username:     f.Username,
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		IsAdmin:      isAdmin,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser fetches a user by ID, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername fetches a user by exact username, or ErrNotFound.
func GetUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// CountUsers returns the total number of users, for pagination metadata.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsersPage returns a page of users ordered by username.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("username ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateUserFields overwrites a user's profile attributes. The raw DB error
// is returned unmapped (username collisions surface as unique violations).
// Returns ErrNotFound if no rows were affected.
func UpdateUserFields(ctx context.Context, db *gorm.DB, id string, f UserFields) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"username":   f.Username,
			"email":      f.Email,
			"first_name": f.FirstName,
			"last_name":  f.LastName,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes a user row. The review cascade is handled explicitly
// by the service so affected movie averages can be recomputed in the same
// transaction. Returns ErrNotFound when the user does not exist.
func DeleteUser(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
