package domain

import (
	"slices"
	"time"
)

// AuthType tells which credential path is legal for an account.
type AuthType string

const (
	AuthTypeLocal  AuthType = "local"
	AuthTypeGoogle AuthType = "google"
)

// User represents a user in the system.
type User struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	Username         string    `bson:"username" json:"username"`
	Email            string    `bson:"email" json:"email"` // always lowercase
	PasswordHash     string    `bson:"password_hash,omitempty" json:"-"`
	FederatedID      string    `bson:"federated_id,omitempty" json:"-"`
	AuthType         AuthType  `bson:"auth_type" json:"authType"`
	FavoriteMovieIDs []int     `bson:"favorite_movies" json:"favoriteMovies"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updatedAt"`
}

// IsLocal reports whether the account may authenticate with a password.
// A linked account (federated id present) never qualifies, even if a stale
// hash survived somewhere.
func (u *User) IsLocal() bool {
	return u.AuthType == AuthTypeLocal && u.FederatedID == ""
}

// HasFavorite reports whether movieID is in the user's favorites.
func (u *User) HasFavorite(movieID int) bool {
	return slices.Contains(u.FavoriteMovieIDs, movieID)
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	AuthType AuthType `json:"authType"`
}

// Public strips everything a client must not see.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		AuthType: u.AuthType,
	}
}

// FederatedProfile is what an external identity provider tells us about a user.
type FederatedProfile struct {
	Provider       AuthType
	ProviderUserID string
	Email          string
	DisplayName    string
}
