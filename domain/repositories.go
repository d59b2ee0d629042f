package domain

import (
	"context"
	"time"
)

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts a user. Unique-index violations surface as
	// ErrDuplicateUsername, ErrDuplicateEmail or ErrDuplicateFederatedID.
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	// FindByEmailOrFederatedID returns ErrUserNotFound when neither matches.
	FindByEmailOrFederatedID(ctx context.Context, email, federatedID string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	// LinkFederatedIdentity attaches a provider identity to an account that
	// has none yet and drops its password hash. Linking an already linked
	// account is a no-op.
	LinkFederatedIdentity(ctx context.Context, userID, federatedID string, authType AuthType) (*User, error)
	// ToggleFavorite flips membership of movieID and reports the new state.
	ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error)
}

// MovieRepository stores cached movie details and the reviews they own.
type MovieRepository interface {
	GetMovie(ctx context.Context, tmdbID int) (*Movie, error)
	UpsertMovieDetails(ctx context.Context, movie *Movie, refreshedAt time.Time) error
	AddReview(ctx context.Context, tmdbID int, title string, review *Review) error
	UpdateReview(ctx context.Context, tmdbID int, reviewID, userID string, in ReviewInput) (*Review, error)
	DeleteReview(ctx context.Context, tmdbID int, reviewID, userID string) error
	ListMovieReviews(ctx context.Context, tmdbID int) ([]Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]UserReview, error)
}
