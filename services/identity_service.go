package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/internal/audit"
	"go.pilab.hu/moviecat/internal/metrics"
)

const (
	auditService = "IdentityService"

	// maxUsernameAttempts bounds the insert-conflict retry when synthesizing
	// a username for a federated account.
	maxUsernameAttempts = 50
)

// IdentityService resolves local credentials and federated profiles to
// canonical user records.
type IdentityService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	locker Locker
}

// NewIdentityService creates a new IdentityService. A nil locker falls back
// to an in-process KeyedMutex.
func NewIdentityService(users domain.UserRepository, hasher PasswordHasher, locker Locker) *IdentityService {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &IdentityService{
		users:  users,
		hasher: hasher,
		locker: locker,
	}
}

// RegisterLocal creates a password account. Username conflicts are reported
// before email conflicts. The pre-check only produces friendlier errors: the
// store's unique indexes decide concurrent races.
func (s *IdentityService) RegisterLocal(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("checking username: %w", err)
	}
	if taken {
		audit.Log(auditService, "Register", email, username, "Username taken", false, domain.ErrDuplicateUsername)
		return nil, domain.ErrDuplicateUsername
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		audit.Log(auditService, "Register", email, username, "Email taken", false, domain.ErrDuplicateEmail)
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		AuthType:     domain.AuthTypeLocal,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		audit.Log(auditService, "Register", email, username, "Insert failed", false, err)
		return nil, err
	}

	metrics.UserRegisteredTotal.Inc()
	audit.Log(auditService, "Register", user.ID, username, "", true, nil)
	return user, nil
}

// AuthenticateLocal checks an email/password pair. Accounts that are not
// local never reach the hash comparison.
func (s *IdentityService) AuthenticateLocal(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Warn().Str("email", email).Msg("Login: user not found")
			audit.Log(auditService, "Login", email, "", "User not found", false, err)
			metrics.LoginFailureTotal.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	if !user.IsLocal() {
		log.Warn().Str("userID", user.ID).Str("authType", string(user.AuthType)).Msg("Login: password attempt on federated account")
		audit.Log(auditService, "Login", user.ID, "", "Wrong auth type", false, domain.ErrAuthTypeMismatch)
		metrics.LoginFailureTotal.WithLabelValues("auth_type").Inc()
		return nil, &domain.AuthTypeMismatchError{AuthType: user.AuthType}
	}

	if user.PasswordHash == "" {
		log.Error().Str("userID", user.ID).Msg("Login: local account without password hash")
		metrics.LoginFailureTotal.WithLabelValues("invalid_password").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.hasher.Verify(user.PasswordHash, password); err != nil {
		log.Warn().Str("userID", user.ID).Msg("Login: invalid password")
		audit.Log(auditService, "Login", user.ID, "", "Invalid password", false, domain.ErrInvalidCredentials)
		metrics.LoginFailureTotal.WithLabelValues("invalid_password").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	metrics.LoginSuccessTotal.WithLabelValues(string(domain.AuthTypeLocal)).Inc()
	audit.Log(auditService, "Login", user.ID, "", "", true, nil)
	return user, nil
}

// ResolveFederated maps a provider profile to a user, linking an existing
// account by email or creating a new one. Calling it twice with the same
// profile returns the same user.
func (s *IdentityService) ResolveFederated(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	if profile.Email == "" || profile.ProviderUserID == "" {
		return nil, domain.ErrMissingFields
	}
	if profile.Provider == "" {
		profile.Provider = domain.AuthTypeGoogle
	}

	user, err := s.findAndLink(ctx, profile)
	if err == nil {
		metrics.LoginSuccessTotal.WithLabelValues(string(profile.Provider)).Inc()
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user, err = s.createFederated(ctx, profile)
	if err != nil {
		audit.Log(auditService, "FederatedLogin", profile.Email, "", "Create failed", false, err)
		return nil, err
	}

	metrics.FederatedUsersCreatedTotal.Inc()
	metrics.LoginSuccessTotal.WithLabelValues(string(profile.Provider)).Inc()
	audit.Log(auditService, "FederatedLogin", user.ID, user.Username, "Account created", true, nil)
	return user, nil
}

func (s *IdentityService) findAndLink(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	user, err := s.users.FindByEmailOrFederatedID(ctx, profile.Email, profile.ProviderUserID)
	if err != nil {
		return nil, err
	}
	if user.FederatedID != "" {
		audit.Log(auditService, "FederatedLogin", user.ID, "", "", true, nil)
		return user, nil
	}

	linked, err := s.users.LinkFederatedIdentity(ctx, user.ID, profile.ProviderUserID, profile.Provider)
	if err != nil {
		return nil, fmt.Errorf("linking federated identity: %w", err)
	}
	log.Info().Str("userID", linked.ID).Str("provider", string(profile.Provider)).Msg("Linked federated identity to existing account")
	audit.Log(auditService, "LinkAccount", linked.ID, string(profile.Provider), "", true, nil)
	return linked, nil
}

// createFederated inserts a new federated account under a free username.
// Holding the per-base lock keeps this process from racing itself; the
// insert-conflict retry covers everything else.
func (s *IdentityService) createFederated(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error) {
	base := BaseUsername(profile)

	unlock, err := s.locker.Lock(ctx, "username:"+base)
	if err != nil {
		return nil, fmt.Errorf("acquiring username lock: %w", err)
	}
	defer unlock()

	suffix, err := s.nextFreeSuffix(ctx, base, 0)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		user := &domain.User{
			Username:    usernameWithSuffix(base, suffix),
			Email:       profile.Email,
			FederatedID: profile.ProviderUserID,
			AuthType:    profile.Provider,
		}

		err := s.users.CreateUser(ctx, user)
		switch {
		case err == nil:
			return user, nil
		case errors.Is(err, domain.ErrDuplicateUsername):
			log.Debug().Str("username", user.Username).Msg("Username claimed concurrently, trying next suffix")
			if suffix, err = s.nextFreeSuffix(ctx, base, suffix+1); err != nil {
				return nil, err
			}
		case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateFederatedID):
			// A concurrent first login for the same profile won the insert.
			return s.findAndLink(ctx, profile)
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("no free username for %q after %d attempts: %w", base, maxUsernameAttempts, domain.ErrDuplicateUsername)
}

func (s *IdentityService) nextFreeSuffix(ctx context.Context, base string, from int) (int, error) {
	for suffix := from; ; suffix++ {
		taken, err := s.users.UsernameExists(ctx, usernameWithSuffix(base, suffix))
		if err != nil {
			return 0, fmt.Errorf("checking username: %w", err)
		}
		if !taken {
			return suffix, nil
		}
	}
}

// GetUser returns the user with the given id.
func (s *IdentityService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// BaseUsername derives the desired username for a federated profile: the
// display name lowercased with all whitespace removed, or the local part of
// the email when there is no display name.
func BaseUsername(profile domain.FederatedProfile) string {
	if name := strings.Join(strings.Fields(strings.ToLower(profile.DisplayName)), ""); name != "" {
		return name
	}
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(profile.Email)), "@")
	if local == "" {
		return "user"
	}
	return local
}

func usernameWithSuffix(base string, suffix int) string {
	if suffix == 0 {
		return base
	}
	return base + strconv.Itoa(suffix)
}
