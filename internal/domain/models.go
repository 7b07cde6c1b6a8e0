// Package domain defines the persistence models for movies, reviews, and
// users. These types are mapped with GORM and form the core data layer
// of the review site.
package domain

import (
	"time"
)

// Movie represents a film visitors can browse and review.
//
// AverageRating is derived state: it is the arithmetic mean of the ratings
// of the movie's current reviews, kept to one decimal place, and nil while
// the movie has no reviews. It is written only by the review service as a
// side effect of review mutations; nothing else may touch it.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: movie title (100 chars is enough for any real title).
//   - Description: long-form synopsis.
//   - ImageURL: optional poster URL.
//   - Duration: total runtime, stored as nanoseconds (bigint).
//   - ReleaseDate: release date; the time of day is not meaningful here.
//   - AverageRating: derived mean rating in [1,5], nil when unreviewed.
type Movie struct {
	ID            string        `json:"id"             gorm:"type:char(36);primaryKey"`
	Title         string        `json:"title"          gorm:"type:varchar(100);not null"`
	Description   string        `json:"description"    gorm:"type:text;not null"`
	ImageURL      *string       `json:"image_url,omitempty" gorm:"type:varchar(500)"`
	Duration      time.Duration `json:"duration"       gorm:"not null"`
	ReleaseDate   time.Time     `json:"release_date"   gorm:"type:date;not null"`
	AverageRating *float64      `json:"average_rating" gorm:"type:numeric(2,1)"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// Review is a single user's verdict on a single movie. The composite unique
// index on (user_id, movie_id) is the storage-level guard for the
// one-review-per-movie rule; application code checks first for a friendly
// error, but the index is what makes concurrent first submissions safe.
//
// CreatedAt is set once at creation. LastEditedAt stays nil until the first
// edit. Rows are hard-deleted: a soft-delete marker would keep deleted rows
// in the unique index (blocking a re-review) and would have to be excluded
// from every average computation.
type Review struct {
	ID           string     `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID       string     `json:"user_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_reviews_user_movie"`
	MovieID      string     `json:"movie_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_reviews_user_movie"`
	Title        string     `json:"title"    gorm:"type:varchar(100);not null"`
	Message      string     `json:"message"  gorm:"type:varchar(25000);not null"`
	Rating       int        `json:"rating"   gorm:"not null;check:rating BETWEEN 1 AND 5"`
	CreatedAt    time.Time  `json:"created_at"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`

	// Associations. Reviews are cascade-deleted with their user or movie.
	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Movie Movie `json:"-" gorm:"foreignKey:MovieID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// User is a site account. IsAdmin grants exactly one extra power: deleting
// other people's reviews. It never allows editing them, and it does not
// bypass the self-only rules on user profiles.
type User struct {
	ID           string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username"   gorm:"type:varchar(150);not null;uniqueIndex:ux_users_username"`
	Email        string    `json:"email"      gorm:"type:varchar(254);not null"`
	FirstName    string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName     string    `json:"last_name"  gorm:"type:varchar(150)"`
	IsAdmin      bool      `json:"is_admin"   gorm:"not null;default:false"`
	PasswordHash string    `json:"-"          gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }
