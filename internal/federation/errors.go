package federation

import "errors"

var (
	ErrInvalidAuthState      = errors.New("invalid auth state parameter")
	ErrExchangeCodeFailed    = errors.New("failed to exchange authorization code for token")
	ErrFetchUserInfoFailed   = errors.New("failed to fetch user info from provider")
	ErrProviderMisconfigured = errors.New("provider is misconfigured")
	ErrIncompleteProfile     = errors.New("provider profile lacks an email or user id")
	ErrEmailNotVerified      = errors.New("provider has not verified the account email")
)
