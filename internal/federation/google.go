package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/domain"
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

const GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleConfig holds the client credentials registered with Google.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// UserInfoURL overrides GoogleUserInfoEndpoint; empty means the default.
	UserInfoURL string
	// Endpoint overrides Google's OAuth2 endpoint. Zero value means the default.
	Endpoint oauth2.Endpoint
}

// GoogleProvider implements the OAuth2Provider interface for Google.
type GoogleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a new GoogleProvider requesting the profile and
// email scopes.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrProviderMisconfigured
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = googleOAuth2.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = GoogleUserInfoEndpoint
	}

	return &GoogleProvider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}, nil
}

// Name implements OAuth2Provider.
func (g *GoogleProvider) Name() domain.AuthType {
	return domain.AuthTypeGoogle
}

// OAuth2Config exposes the underlying configuration.
func (g *GoogleProvider) OAuth2Config() *oauth2.Config {
	return g.conf
}

// AuthCodeURL always shows the account chooser so a user can switch accounts
// after logging out.
func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange implements OAuth2Provider.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, ErrExchangeCodeFailed
	}
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeCodeFailed, err)
	}
	return token, nil
}

// FetchProfile retrieves the user's profile from Google's userinfo endpoint.
func (g *GoogleProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (*domain.FederatedProfile, error) {
	client := g.conf.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building Google user info request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchUserInfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused; the body is never surfaced.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrFetchUserInfoFailed, resp.StatusCode)
	}

	var raw struct {
		Sub           string `json:"sub"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decoding: %v", ErrFetchUserInfoFailed, err)
	}
	if raw.Sub == "" || raw.Email == "" {
		return nil, ErrIncompleteProfile
	}
	// Accounts are matched by email, so an unverified address must not
	// reach identity resolution.
	if !raw.EmailVerified {
		log.Warn().Str("sub", raw.Sub).Msg("Rejected Google account with unverified email")
		return nil, ErrEmailNotVerified
	}

	name := raw.Name
	if name == "" {
		name = strings.TrimSpace(raw.GivenName + " " + raw.FamilyName)
	}

	return &domain.FederatedProfile{
		Provider:       domain.AuthTypeGoogle,
		ProviderUserID: raw.Sub,
		Email:          raw.Email,
		DisplayName:    name,
	}, nil
}

// Ensure GoogleProvider implements OAuth2Provider.
var _ OAuth2Provider = (*GoogleProvider)(nil)
