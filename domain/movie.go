package domain

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// Video is a trailer or clip attached to a movie.
type Video struct {
	Site string `bson:"site" json:"site"`
	Key  string `bson:"key" json:"key"`
	Type string `bson:"type" json:"type"`
	Name string `bson:"name" json:"name"`
}

// Movie is the locally cached copy of a TMDB movie. It owns the reviews
// written for it.
type Movie struct {
	TMDBID       int        `bson:"tmdb_id" json:"id"`
	Title        string     `bson:"title" json:"title"`
	Overview     string     `bson:"overview" json:"overview"`
	PosterPath   string     `bson:"poster_path" json:"poster_path"`
	BackdropPath string     `bson:"backdrop_path" json:"backdrop_path"`
	ReleaseDate  string     `bson:"release_date,omitempty" json:"release_date,omitempty"`
	VoteAverage  float64    `bson:"vote_average" json:"vote_average"`
	Popularity   float64    `bson:"popularity" json:"popularity"`
	Genres       []Genre    `bson:"genres" json:"genres"`
	Runtime      int        `bson:"runtime" json:"runtime"`
	Videos       []Video    `bson:"videos" json:"videos"`
	Reviews      []Review   `bson:"reviews" json:"-"`
	LastUpdated  time.Time  `bson:"last_updated" json:"-"`
	IsFavorite   *bool      `bson:"-" json:"isFavorite,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"-"`
	UpdatedAt    *time.Time `bson:"updated_at,omitempty" json:"-"`
}

// NeedsUpdate reports whether the cached details are older than maxAge.
func (m *Movie) NeedsUpdate(now time.Time, maxAge time.Duration) bool {
	return m.LastUpdated.IsZero() || now.Sub(m.LastUpdated) > maxAge
}

// Review is a single user's opinion on a movie. At most one exists per
// (user, movie) pair.
type Review struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Username  string    `bson:"username" json:"username"`
	Content   string    `bson:"content" json:"content"`
	Rating    int       `bson:"rating" json:"rating"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// ReviewInput is the user-editable part of a review.
type ReviewInput struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

// Validate checks content presence and rating bounds.
func (in ReviewInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" || in.Rating == 0 {
		return ErrReviewIncomplete
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// UserReview is a review listed from the author's side, with enough movie
// data to render it.
type UserReview struct {
	Review
	Movie ReviewedMovie `json:"movie"`
}

// ReviewedMovie is the movie summary attached to a UserReview.
type ReviewedMovie struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}
