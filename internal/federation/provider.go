package federation

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"go.pilab.hu/moviecat/domain"
	"golang.org/x/oauth2"
)

// OAuth2Provider defines the interface for an external OAuth2 identity provider.
// Implementations handle the provider-specific details of the
// authorization-code flow.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE OAuth2Provider
type OAuth2Provider interface {
	// Name returns the unique identifier for the provider (e.g., "google").
	Name() domain.AuthType

	// AuthCodeURL generates the consent-screen URL the browser is sent to.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for an OAuth2 token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchProfile uses an access token to retrieve the user's profile.
	FetchProfile(ctx context.Context, token *oauth2.Token) (*domain.FederatedProfile, error)
}

// GenerateState returns a random, URL-safe value for the OAuth2 state parameter.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// StateMatches compares the state echoed by the provider with the expected
// one in constant time.
func StateMatches(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
