package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/internal/auth"
	"go.pilab.hu/moviecat/services"
	"golang.org/x/crypto/bcrypt"
)

func newIdentityService(store domain.UserRepository) *services.IdentityService {
	return services.NewIdentityService(store, auth.NewBcryptPasswordHasher(bcrypt.MinCost), nil)
}

func TestIdentityService_RegisterLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		user, err := svc.RegisterLocal(ctx, "ana", "Ana@x.com", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "ana", user.Username)
		assert.Equal(t, "ana@x.com", user.Email)
		assert.Equal(t, domain.AuthTypeLocal, user.AuthType)
		assert.NotEqual(t, "secret1", user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
	})

	t.Run("EmailDiffersOnlyInCase", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		_, err := svc.RegisterLocal(ctx, "ana", "Ana@x.com", "secret1")
		require.NoError(t, err)

		_, err = svc.RegisterLocal(ctx, "ana2", "ana@x.com", "other")
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
		assert.Equal(t, 1, store.count())
	})

	t.Run("DuplicateUsernameReportedFirst", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		_, err := svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		require.NoError(t, err)

		_, err = svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	})

	t.Run("MissingFields", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		_, err := svc.RegisterLocal(ctx, "ana", " ", "secret1")
		assert.ErrorIs(t, err, domain.ErrMissingFields)
	})

	t.Run("InsertRaceSurfacesAsDuplicate", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		svc := services.NewIdentityService(users, hasher, nil)

		users.On("UsernameExists", mock.Anything, "ana").Return(false, nil)
		users.On("GetUserByEmail", mock.Anything, "ana@x.com").Return(nil, domain.ErrUserNotFound)
		hasher.On("Hash", "secret1").Return("hashed", nil)
		users.On("CreateUser", mock.Anything, mock.AnythingOfType("*domain.User")).Return(domain.ErrDuplicateUsername)

		_, err := svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
		users.AssertExpectations(t)
	})

	t.Run("ConcurrentSameUsername", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = svc.RegisterLocal(ctx, "ana", "ana"+string(rune('a'+i))+"@x.com", "secret1")
			}()
		}
		wg.Wait()

		ok := 0
		for _, err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, store.count())
	})
}

func TestIdentityService_AuthenticateLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		created, err := svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		require.NoError(t, err)

		user, err := svc.AuthenticateLocal(ctx, "ANA@x.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		_, err := svc.AuthenticateLocal(ctx, "nobody@x.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		_, err := svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		require.NoError(t, err)

		_, err = svc.AuthenticateLocal(ctx, "ana@x.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("FederatedAccountNeverComparesHash", func(t *testing.T) {
		users := new(MockUserRepository)
		hasher := new(MockPasswordHasher)
		svc := services.NewIdentityService(users, hasher, nil)

		users.On("GetUserByEmail", mock.Anything, "g@x.com").Return(&domain.User{
			ID:          "u1",
			Email:       "g@x.com",
			FederatedID: "google-1",
			AuthType:    domain.AuthTypeGoogle,
		}, nil)

		_, err := svc.AuthenticateLocal(ctx, "g@x.com", "anything")
		assert.ErrorIs(t, err, domain.ErrAuthTypeMismatch)

		var mismatch *domain.AuthTypeMismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, domain.AuthTypeGoogle, mismatch.AuthType)
		hasher.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("LinkedAccountRejectsPassword", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		local, err := svc.RegisterLocal(ctx, "ana", "ana@x.com", "secret1")
		require.NoError(t, err)
		linked, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "google-1",
			Email:          "ana@x.com",
			DisplayName:    "Ana",
		})
		require.NoError(t, err)
		assert.Equal(t, local.ID, linked.ID)
		assert.Empty(t, linked.PasswordHash)

		_, err = svc.AuthenticateLocal(ctx, "ana@x.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrAuthTypeMismatch)
	})
}

func TestIdentityService_ResolveFederated(t *testing.T) {
	ctx := context.Background()

	t.Run("UsernameFromDisplayName", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		first, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "g-1",
			Email:          "new@x.com",
			DisplayName:    "Ana García",
		})
		require.NoError(t, err)
		assert.Equal(t, "anagarcía", first.Username)
		assert.Equal(t, domain.AuthTypeGoogle, first.AuthType)
		assert.Empty(t, first.PasswordHash)

		second, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "g-2",
			Email:          "other@x.com",
			DisplayName:    "Ana García",
		})
		require.NoError(t, err)
		assert.Equal(t, "anagarcía1", second.Username)

		third, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "g-3",
			Email:          "third@x.com",
			DisplayName:    "ana  garcía",
		})
		require.NoError(t, err)
		assert.Equal(t, "anagarcía2", third.Username)
	})

	t.Run("Idempotent", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)
		profile := domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "g-1",
			Email:          "new@x.com",
			DisplayName:    "Ana",
		}

		first, err := svc.ResolveFederated(ctx, profile)
		require.NoError(t, err)
		second, err := svc.ResolveFederated(ctx, profile)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, 1, store.count())
	})

	t.Run("MatchesByProviderIDAfterEmailChange", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)

		first, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider: domain.AuthTypeGoogle, ProviderUserID: "g-1", Email: "old@x.com", DisplayName: "Ana",
		})
		require.NoError(t, err)
		second, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider: domain.AuthTypeGoogle, ProviderUserID: "g-1", Email: "new@x.com", DisplayName: "Ana",
		})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("EmailLocalPartFallback", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		user, err := svc.ResolveFederated(ctx, domain.FederatedProfile{
			Provider: domain.AuthTypeGoogle, ProviderUserID: "g-1", Email: "Pepe@x.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "pepe", user.Username)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		svc := newIdentityService(newMemUserStore())
		_, err := svc.ResolveFederated(ctx, domain.FederatedProfile{ProviderUserID: "g-1"})
		assert.ErrorIs(t, err, domain.ErrMissingFields)
	})

	t.Run("ConcurrentFirstLogins", func(t *testing.T) {
		store := newMemUserStore()
		svc := newIdentityService(store)
		profile := domain.FederatedProfile{
			Provider:       domain.AuthTypeGoogle,
			ProviderUserID: "g-1",
			Email:          "new@x.com",
			DisplayName:    "Ana García",
		}

		const n = 10
		var wg sync.WaitGroup
		ids := make([]string, n)
		errs := make([]error, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				user, err := svc.ResolveFederated(ctx, profile)
				errs[i] = err
				if err == nil {
					ids[i] = user.ID
				}
			}()
		}
		wg.Wait()

		for i := range n {
			require.NoError(t, errs[i])
			assert.Equal(t, ids[0], ids[i])
		}
		assert.Equal(t, 1, store.count())
	})

	t.Run("EmailConflictOnInsertReresolves", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := services.NewIdentityService(users, new(MockPasswordHasher), nil)
		profile := domain.FederatedProfile{
			Provider: domain.AuthTypeGoogle, ProviderUserID: "g-1", Email: "new@x.com", DisplayName: "Ana",
		}
		winner := &domain.User{ID: "u1", Username: "ana", Email: "new@x.com", FederatedID: "g-1", AuthType: domain.AuthTypeGoogle}

		users.On("FindByEmailOrFederatedID", mock.Anything, "new@x.com", "g-1").Return(nil, domain.ErrUserNotFound).Once()
		users.On("UsernameExists", mock.Anything, "ana").Return(false, nil)
		users.On("CreateUser", mock.Anything, mock.AnythingOfType("*domain.User")).Return(domain.ErrDuplicateEmail)
		users.On("FindByEmailOrFederatedID", mock.Anything, "new@x.com", "g-1").Return(winner, nil).Once()

		user, err := svc.ResolveFederated(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "u1", user.ID)
		users.AssertExpectations(t)
	})

	t.Run("UsernameConflictOnInsertRetriesSuffix", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := services.NewIdentityService(users, new(MockPasswordHasher), nil)
		profile := domain.FederatedProfile{
			Provider: domain.AuthTypeGoogle, ProviderUserID: "g-1", Email: "new@x.com", DisplayName: "Ana",
		}

		users.On("FindByEmailOrFederatedID", mock.Anything, "new@x.com", "g-1").Return(nil, domain.ErrUserNotFound)
		users.On("UsernameExists", mock.Anything, "ana").Return(false, nil)
		users.On("UsernameExists", mock.Anything, "ana1").Return(false, nil)
		users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "ana"
		})).Return(domain.ErrDuplicateUsername)
		users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "ana1"
		})).Return(nil)

		user, err := svc.ResolveFederated(ctx, profile)
		require.NoError(t, err)
		assert.Equal(t, "ana1", user.Username)
	})
}

func TestBaseUsername(t *testing.T) {
	tests := []struct {
		name    string
		profile domain.FederatedProfile
		want    string
	}{
		{"DisplayName", domain.FederatedProfile{DisplayName: "Ana García", Email: "a@x.com"}, "anagarcía"},
		{"Tabs and newlines", domain.FederatedProfile{DisplayName: " Juan\tDe\nDios "}, "juandedios"},
		{"EmailFallback", domain.FederatedProfile{DisplayName: "   ", Email: "pepe.lopez@x.com"}, "pepe.lopez"},
		{"Nothing", domain.FederatedProfile{}, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.BaseUsername(tt.profile))
		})
	}
}
