package services_test

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.pilab.hu/moviecat/domain"
)

// memUserStore is an in-memory domain.UserRepository enforcing the same
// uniqueness rules as the MongoDB indexes.
type memUserStore struct {
	mu      sync.Mutex
	seq     int
	byID    map[string]*domain.User
	inserts int
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	c := *u
	c.FavoriteMovieIDs = slices.Clone(u.FavoriteMovieIDs)
	return &c
}

func (s *memUserStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range s.byID {
		switch {
		case u.Username == user.Username:
			return domain.ErrDuplicateUsername
		case u.Email == email:
			return domain.ErrDuplicateEmail
		case user.FederatedID != "" && u.FederatedID == user.FederatedID:
			return domain.ErrDuplicateFederatedID
		}
	}

	s.seq++
	user.ID = "u" + strconv.Itoa(s.seq)
	user.Email = email
	if user.FavoriteMovieIDs == nil {
		user.FavoriteMovieIDs = []int{}
	}
	s.byID[user.ID] = clone(user)
	s.inserts++
	return nil
}

func (s *memUserStore) find(match func(*domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memUserStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.ID == id })
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)
	return s.find(func(u *domain.User) bool { return u.Email == email })
}

func (s *memUserStore) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return s.find(func(u *domain.User) bool { return u.Username == username })
}

func (s *memUserStore) FindByEmailOrFederatedID(_ context.Context, email, federatedID string) (*domain.User, error) {
	email = strings.ToLower(email)
	return s.find(func(u *domain.User) bool {
		return u.Email == email || (federatedID != "" && u.FederatedID == federatedID)
	})
}

func (s *memUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (s *memUserStore) LinkFederatedIdentity(_ context.Context, userID, federatedID string, authType domain.AuthType) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.FederatedID == "" {
		u.FederatedID = federatedID
		u.AuthType = authType
		u.PasswordHash = ""
	}
	return clone(u), nil
}

func (s *memUserStore) ToggleFavorite(_ context.Context, userID string, movieID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[userID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	if i := slices.Index(u.FavoriteMovieIDs, movieID); i >= 0 {
		u.FavoriteMovieIDs = slices.Delete(u.FavoriteMovieIDs, i, i+1)
		return false, nil
	}
	u.FavoriteMovieIDs = append(u.FavoriteMovieIDs, movieID)
	return true, nil
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

var _ domain.UserRepository = (*memUserStore)(nil)
