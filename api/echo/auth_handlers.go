package echo

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/domain"
	apierrors "go.pilab.hu/moviecat/errors"
	"go.pilab.hu/moviecat/internal/audit"
	"go.pilab.hu/moviecat/internal/federation"
)

const (
	stateCookieName = "oauth_state"
	stateCookiePath = "/api/auth/google"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

// RegisterHandler creates a local account.
func (a *API) RegisterHandler(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.NewBadRequest(apierrors.MsgInvalidBody)
	}

	if _, err := a.identity.RegisterLocal(c.Request().Context(), req.Username, req.Email, req.Password); err != nil {
		if _, known := apierrors.FromError(err); known {
			return err
		}
		log.Error().Err(err).Msg("Registering local user failed")
		return apierrors.New(http.StatusInternalServerError, apierrors.MsgRegisterFailed)
	}
	return c.JSON(http.StatusCreated, messageResponse{Message: "Usuario registrado exitosamente"})
}

// LoginHandler checks local credentials and starts a session.
func (a *API) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.NewBadRequest(apierrors.MsgInvalidBody)
	}

	user, err := a.identity.AuthenticateLocal(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	token, _, err := a.sessions.Issue(user.ID)
	if err != nil {
		return err
	}
	c.SetCookie(a.sessions.Cookie(token))

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Inicio de sesión exitoso",
		Token:   token,
		User:    user.Public(),
	})
}

// LogoutHandler clears the session cookie. Sessions are stateless, so a
// copy of the token stays valid until it expires.
func (a *API) LogoutHandler(c echo.Context) error {
	var userID string
	if cookie, err := c.Cookie(a.sessions.CookieName()); err == nil {
		if claims, err := a.sessions.Verify(cookie.Value); err == nil {
			userID = claims.UserID
		}
	}
	audit.Log("api", "Logout", userID, "", "", true, nil)

	c.SetCookie(a.sessions.ClearCookie())
	return c.JSON(http.StatusOK, messageResponse{Message: "Sesión cerrada exitosamente"})
}

// GoogleLoginHandler redirects the browser to Google's consent screen.
func (a *API) GoogleLoginHandler(c echo.Context) error {
	state, err := federation.GenerateState()
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(a.cfg.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		// Lax: the cookie must survive the top-level redirect back from Google.
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, a.google.AuthCodeURL(state))
}

// GoogleCallbackHandler completes a federated login. Every failure is
// terminal and sends the browser back to the login page.
func (a *API) GoogleCallbackHandler(c echo.Context) error {
	ctx := c.Request().Context()
	failureURL := strings.TrimRight(a.cfg.FrontendURL, "/") + "/login"

	expected := ""
	if cookie, err := c.Cookie(stateCookieName); err == nil {
		expected = cookie.Value
	}
	// The state is single use whatever happens next.
	c.SetCookie(&http.Cookie{
		Name:     stateCookieName,
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if providerErr := c.QueryParam("error"); providerErr != "" {
		log.Info().Str("error", providerErr).Msg("Google login cancelled or refused")
		return c.Redirect(http.StatusFound, failureURL)
	}
	if !federation.StateMatches(expected, c.QueryParam("state")) {
		log.Warn().Err(federation.ErrInvalidAuthState).Msg("Google callback rejected")
		return c.Redirect(http.StatusFound, failureURL)
	}

	token, err := a.google.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		log.Warn().Err(err).Msg("Google code exchange failed")
		return c.Redirect(http.StatusFound, failureURL)
	}

	profile, err := a.google.FetchProfile(ctx, token)
	if err != nil {
		log.Warn().Err(err).Msg("Fetching Google profile failed")
		return c.Redirect(http.StatusFound, failureURL)
	}

	user, err := a.identity.ResolveFederated(ctx, *profile)
	if err != nil {
		log.Error().Err(err).Str("provider", string(profile.Provider)).Msg("Resolving federated identity failed")
		return c.Redirect(http.StatusFound, failureURL)
	}

	session, _, err := a.sessions.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("userID", user.ID).Msg("Issuing session failed")
		return c.Redirect(http.StatusFound, failureURL)
	}
	c.SetCookie(a.sessions.Cookie(session))

	return c.Redirect(http.StatusFound, a.cfg.FrontendURL)
}
