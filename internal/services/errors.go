// Package services defines the business logic for movies, reviews, and users.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. None of them triggers a retry: every failure is terminal
// for the request that caused it.
package services

import "errors"

// Not-found errors.
var (
	// ErrMovieNotFound indicates that the referenced movie does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrReviewNotFound indicates that the referenced review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Authorization errors.
var (
	// ErrUnauthenticated is returned when an anonymous caller attempts an
	// operation that requires a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrNotReviewAuthor is returned when anyone other than the review's
	// author attempts to edit it. Admins are included: they may remove
	// reviews, never rewrite them.
	ErrNotReviewAuthor = errors.New("only the author may edit this review")

	// ErrCannotDeleteReview is returned when a caller who is neither the
	// review's author nor an admin attempts to delete it.
	ErrCannotDeleteReview = errors.New("only the author or an admin may delete this review")

	// ErrNotProfileOwner is returned when a user attempts to modify or
	// delete an account that is not their own.
	ErrNotProfileOwner = errors.New("cannot modify someone else's profile")

	// ErrAdminOnly is returned when a non-admin attempts an administrative
	// operation (managing the movie catalogue).
	ErrAdminOnly = errors.New("administrator privileges required")
)

// Validation errors. A validation failure never leaves partial writes:
// the review and its movie's average are exactly as they were.
var (
	// ErrInvalidRating is returned when a rating falls outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrEmptyTitle is returned when a review title is empty or blank.
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrEmptyMessage is returned when a review body is empty or blank.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrTitleTooLong is returned when a review title exceeds 100 characters.
	ErrTitleTooLong = errors.New("title too long")

	// ErrMessageTooLong is returned when a review body exceeds 25000 characters.
	ErrMessageTooLong = errors.New("message too long")

	// ErrInvalidMovie is returned when movie attributes fail validation
	// (blank title/description, non-positive duration, zero release date).
	ErrInvalidMovie = errors.New("invalid movie attributes")

	// ErrInvalidUsername is returned when a username is blank or malformed.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidEmail is returned when an email address is blank or malformed.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidName is returned when a first or last name contains
	// anything but letters.
	ErrInvalidName = errors.New("names must contain only letters")

	// ErrWeakPassword is returned when a password is shorter than the minimum.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Conflict errors.
var (
	// ErrDuplicateReview is returned when a user already has a review for
	// the movie, both from the explicit first-review gate and from the
	// storage-level unique constraint when two first submissions race.
	ErrDuplicateReview = errors.New("review already exists for this movie")

	// ErrUsernameTaken is returned when a username is already in use.
	ErrUsernameTaken = errors.New("username already taken")
)

// Authentication errors.
var (
	// ErrInvalidCredentials is returned on login when the username is
	// unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
