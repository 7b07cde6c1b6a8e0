// Package services – UserService
//
/// This file implements the UserService: registration, login, profile
// management, and account deletion. Profiles are strictly self-service;
// the admin flag buys nothing here.
//
// Account deletion is the one place where the rating invariant crosses an
// entity boundary: removing a user removes all their reviews, so every
// movie they reviewed must have its average re-aggregated. That cascade
// runs inside the same transaction as the user delete, never deferred.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/screenlog/go-review-backend/internal/domain"
	"github.com/screenlog/go-review-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const minPasswordLen = 8

// nameCaser title-cases person names for display consistency ("ada" -> "Ada").
var nameCaser = cases.Title(language.Und)

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfileInput carries the self-service profile fields.
type ProfileInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// UserService implements the use-cases around site accounts.
type UserService struct {
	// DB is the database handle used for all user operations.
	DB *gorm.DB

	// BcryptCost overrides bcrypt.DefaultCost when > 0 (lowered in tests).
	BcryptCost int
}

// Register creates a new account. Usernames must be unique
// (ErrUsernameTaken on collision, including races, via the unique index);
// first/last names may be empty but otherwise must be purely alphabetic.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	f, err := validateProfile(ProfileInput{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}

	u, err := repo.CreateUser(ctx, s.DB, f, string(hash), false)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the account.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := repo.GetUserByUsername(ctx, s.DB, strings.TrimSpace(username))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Get fetches a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListPage returns a page of users (ordered by username) and the total count.
func (s *UserService) ListPage(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 8
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}

	items, err := repo.ListUsersPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Update overwrites userID's profile. Only the account owner may do this;
// admins get ErrNotProfileOwner like everyone else.
func (s *UserService) Update(ctx context.Context, actor *domain.User, userID string, in ProfileInput) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.ID != userID {
		return ErrNotProfileOwner
	}
	f, err := validateProfile(in)
	if err != nil {
		return err
	}
	if err := repo.UpdateUserFields(ctx, s.DB, userID, f); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// Delete removes userID's account, all reviews they wrote, and re-aggregates
// the average of every movie those reviews touched, in one transaction, so the
// account either disappears with every affected average fixed up, or nothing
// happens at all. Only the account owner may delete it.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, userID string) error {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.ID != userID {
		return ErrNotProfileOwner
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetUser(ctx, tx, userID); err != nil {
			if isNotFound(err) {
				return ErrUserNotFound
			}
			return err
		}

		// Collect affected movies before the reviews vanish.
		movieIDs, err := repo.MovieIDsReviewedBy(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := repo.DeleteReviewsByUser(ctx, tx, userID); err != nil {
			return err
		}
		if err := repo.DeleteUser(ctx, tx, userID); err != nil {
			return err
		}

		for _, movieID := range movieIDs {
			if err := recomputeAverage(ctx, tx, movieID); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureAdmin creates an administrator account with the given credentials
// if no user with that username exists yet. Used at startup to bootstrap
// the first admin; an existing account is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	if _, err := repo.GetUserByUsername(ctx, s.DB, username); err == nil {
		return nil
	} else if !isNotFound(err) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return err
	}
	_, err = repo.CreateUser(ctx, s.DB, repo.UserFields{
		Username: username,
		Email:    email,
	}, string(hash), true)
	if err != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err)) {
		// Lost a race against another instance bootstrapping the same admin.
		return nil
	}
	return err
}

// cost returns the configured bcrypt cost, defaulting to bcrypt.DefaultCost.
func (s *UserService) cost() int {
	if s.BcryptCost > 0 {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}

// validateProfile normalizes and checks the shared profile fields.
// Names are title-cased; empty names are fine, digits and symbols are not.
func validateProfile(in ProfileInput) (repo.UserFields, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	first := nameCaser.String(strings.TrimSpace(in.FirstName))
	last := nameCaser.String(strings.TrimSpace(in.LastName))

	if username == "" || utf8.RuneCountInString(username) > 150 || strings.ContainsAny(username, " \t\n") {
		return repo.UserFields{}, ErrInvalidUsername
	}
	if email == "" || !strings.Contains(email, "@") {
		return repo.UserFields{}, ErrInvalidEmail
	}
	if !isAlphabetic(first) || !isAlphabetic(last) {
		return repo.UserFields{}, ErrInvalidName
	}

	return repo.UserFields{
		Username:  username,
		Email:     email,
		FirstName: first,
		LastName:  last,
	}, nil
}

// isAlphabetic reports whether s contains only letters. Empty is allowed
// since names are optional; it is digits and symbols that are rejected.
func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
