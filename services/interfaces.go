package services

import (
	"context"

	"go.pilab.hu/moviecat/tmdb"
)

// PasswordHasher defines an interface for hashing and verifying passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// Locker serializes work on a key across concurrent requests (and, with a
// shared backend, across processes). The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// MovieCatalog is the upstream movie-data provider.
type MovieCatalog interface {
	Popular(ctx context.Context, page int) (*tmdb.Page, error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Movie(ctx context.Context, id int) (*tmdb.MovieDetails, error)
	Videos(ctx context.Context, id int) ([]tmdb.Video, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
}
