// Package services – review authorization
//
// Review permissions are decided by a single pure function, evaluated before
// any mutation and independent of the transport layer. The rules form a
// small state machine over the caller's relationship to the review:
//
//	anonymous                  -> deny (authentication required)
//	authenticated, author      -> allow update and delete
//	authenticated, admin       -> allow delete only, never update
//	authenticated, anyone else -> deny
//
// Keeping this a pure function (no DB handle, no context) makes the whole
// permission matrix testable as a table.
package services

import "github.com/screenlog/go-review-backend/internal/domain"

// ReviewAction enumerates the mutations that require authorization.
// Creation is gated separately (the first-review rule), and reads are public.
type ReviewAction int

const (
	// ActionUpdateReview is editing a review's title, message, or rating.
	ActionUpdateReview ReviewAction = iota
	// ActionDeleteReview is removing a review.
	ActionDeleteReview
)

// Decision is the outcome of an authorization check. When Allowed is false,
// Reason holds the service-level sentinel explaining the denial.
type Decision struct {
	Allowed bool
	Reason  error
}

// allow is the single affirmative decision.
func allow() Decision { return Decision{Allowed: true} }

// deny wraps a sentinel into a negative decision.
func deny(reason error) Decision { return Decision{Reason: reason} }

// DecideReview evaluates whether actor may perform action on review.
// A nil actor represents an anonymous caller.
func DecideReview(actor *domain.User, review *domain.Review, action ReviewAction) Decision {
	if actor == nil {
		return deny(ErrUnauthenticated)
	}
	if actor.ID == review.UserID {
		return allow()
	}
	switch action {
	case ActionDeleteReview:
		if actor.IsAdmin {
			return allow()
		}
		return deny(ErrCannotDeleteReview)
	default:
		// Admins cannot edit someone else's words, only remove them.
		return deny(ErrNotReviewAuthor)
	}
}
