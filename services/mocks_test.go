package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/tmdb"
)

// --- MockUserRepository (implements domain.UserRepository) ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmailOrFederatedID(ctx context.Context, email, federatedID string) (*domain.User, error) {
	args := m.Called(ctx, email, federatedID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) LinkFederatedIdentity(ctx context.Context, userID, federatedID string, authType domain.AuthType) (*domain.User, error) {
	args := m.Called(ctx, userID, federatedID, authType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Bool(0), args.Error(1)
}

// --- MockMovieRepository (implements domain.MovieRepository) ---
type MockMovieRepository struct {
	mock.Mock
}

func (m *MockMovieRepository) GetMovie(ctx context.Context, tmdbID int) (*domain.Movie, error) {
	args := m.Called(ctx, tmdbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

func (m *MockMovieRepository) UpsertMovieDetails(ctx context.Context, movie *domain.Movie, refreshedAt time.Time) error {
	args := m.Called(ctx, movie, refreshedAt)
	return args.Error(0)
}

func (m *MockMovieRepository) AddReview(ctx context.Context, tmdbID int, title string, review *domain.Review) error {
	args := m.Called(ctx, tmdbID, title, review)
	return args.Error(0)
}

func (m *MockMovieRepository) UpdateReview(ctx context.Context, tmdbID int, reviewID, userID string, in domain.ReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, tmdbID, reviewID, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockMovieRepository) DeleteReview(ctx context.Context, tmdbID int, reviewID, userID string) error {
	args := m.Called(ctx, tmdbID, reviewID, userID)
	return args.Error(0)
}

func (m *MockMovieRepository) ListMovieReviews(ctx context.Context, tmdbID int) ([]domain.Review, error) {
	args := m.Called(ctx, tmdbID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockMovieRepository) ListUserReviews(ctx context.Context, userID string) ([]domain.UserReview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserReview), args.Error(1)
}

// --- MockPasswordHasher (implements services.PasswordHasher) ---
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

// --- MockCatalog (implements services.MovieCatalog) ---
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Popular(ctx context.Context, page int) (*tmdb.Page, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.Page), args.Error(1)
}

func (m *MockCatalog) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	args := m.Called(ctx, query, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.Page), args.Error(1)
}

func (m *MockCatalog) Movie(ctx context.Context, id int) (*tmdb.MovieDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.MovieDetails), args.Error(1)
}

func (m *MockCatalog) Videos(ctx context.Context, id int) ([]tmdb.Video, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tmdb.Video), args.Error(1)
}

func (m *MockCatalog) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tmdb.Genre), args.Error(1)
}
