package echo_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/tmdb"
)

// --- MockIdentityService ---
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) RegisterLocal(ctx context.Context, username, email, password string) (*domain.User, error) {
	args := m.Called(ctx, username, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIdentityService) AuthenticateLocal(ctx context.Context, email, password string) (*domain.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIdentityService) ResolveFederated(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockIdentityService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- MockMovieService ---
type MockMovieService struct {
	mock.Mock
}

func (m *MockMovieService) Popular(ctx context.Context, page int) (*tmdb.Page, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.Page), args.Error(1)
}

func (m *MockMovieService) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	args := m.Called(ctx, query, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tmdb.Page), args.Error(1)
}

func (m *MockMovieService) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tmdb.Genre), args.Error(1)
}

func (m *MockMovieService) Details(ctx context.Context, movieID int, userID string) (*domain.Movie, error) {
	args := m.Called(ctx, movieID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Movie), args.Error(1)
}

func (m *MockMovieService) Favorites(ctx context.Context, userID string) ([]*domain.Movie, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Movie), args.Error(1)
}

func (m *MockMovieService) ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	args := m.Called(ctx, userID, movieID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMovieService) AddReview(ctx context.Context, userID string, movieID int, in domain.ReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, userID, movieID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockMovieService) UpdateReview(ctx context.Context, userID string, movieID int, reviewID string, in domain.ReviewInput) (*domain.Review, error) {
	args := m.Called(ctx, userID, movieID, reviewID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockMovieService) DeleteReview(ctx context.Context, userID string, movieID int, reviewID string) error {
	args := m.Called(ctx, userID, movieID, reviewID)
	return args.Error(0)
}

func (m *MockMovieService) MovieReviews(ctx context.Context, movieID int) ([]domain.Review, error) {
	args := m.Called(ctx, movieID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *MockMovieService) UserReviews(ctx context.Context, userID string) ([]domain.UserReview, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserReview), args.Error(1)
}
