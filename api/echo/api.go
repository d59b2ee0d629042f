//nolint:varnamelen
package echo

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/moviecat/domain"
	apierrors "go.pilab.hu/moviecat/errors"
	"go.pilab.hu/moviecat/internal/federation"
	"go.pilab.hu/moviecat/middleware"
	"go.pilab.hu/moviecat/services"
	"go.pilab.hu/moviecat/tmdb"
)

// IdentityService resolves credentials to users.
type IdentityService interface {
	RegisterLocal(ctx context.Context, username, email, password string) (*domain.User, error)
	AuthenticateLocal(ctx context.Context, email, password string) (*domain.User, error)
	ResolveFederated(ctx context.Context, profile domain.FederatedProfile) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// MovieService serves catalog data, favorites and reviews.
type MovieService interface {
	Popular(ctx context.Context, page int) (*tmdb.Page, error)
	Search(ctx context.Context, query string, page int) (*tmdb.Page, error)
	Genres(ctx context.Context) ([]tmdb.Genre, error)
	Details(ctx context.Context, movieID int, userID string) (*domain.Movie, error)
	Favorites(ctx context.Context, userID string) ([]*domain.Movie, error)
	ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error)
	AddReview(ctx context.Context, userID string, movieID int, in domain.ReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, userID string, movieID int, reviewID string, in domain.ReviewInput) (*domain.Review, error)
	DeleteReview(ctx context.Context, userID string, movieID int, reviewID string) error
	MovieReviews(ctx context.Context, movieID int) ([]domain.Review, error)
	UserReviews(ctx context.Context, userID string) ([]domain.UserReview, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds the settings of the HTTP surface.
type Config struct {
	// FrontendURL receives the browser after a federated login. Failures
	// go to FrontendURL + "/login".
	FrontendURL string
	// SecureCookies marks the short-lived OAuth state cookie Secure.
	SecureCookies bool
	// StateTTL bounds how long a federated login may take.
	StateTTL time.Duration
}

// API struct to hold dependencies.
type API struct {
	identity IdentityService
	sessions *services.SessionService
	movies   MovieService
	google   federation.OAuth2Provider
	health   map[string]HealthCheck
	cfg      Config
}

// NewAPI initializes the HTTP API. google may be nil, which disables the
// federated login routes.
func NewAPI(
	identity IdentityService,
	sessions *services.SessionService,
	movies MovieService,
	google federation.OAuth2Provider,
	cfg Config,
) *API {
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:5173"
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = 10 * time.Minute
	}
	return &API{
		identity: identity,
		sessions: sessions,
		movies:   movies,
		google:   google,
		health:   make(map[string]HealthCheck),
		cfg:      cfg,
	}
}

// AddHealthCheck registers a dependency probed by /healthz.
func (a *API) AddHealthCheck(name string, check HealthCheck) {
	a.health[name] = check
}

// RegisterRoutes registers every API route on e.
func (a *API) RegisterRoutes(e *echo.Echo, authLimiter echo.MiddlewareFunc) {
	e.GET("/healthz", a.HealthHandler)

	authn := middleware.Authn(a.sessions)
	optional := middleware.OptionalAuthn(a.sessions)

	authGroup := e.Group("/api/auth")
	if authLimiter != nil {
		authGroup.Use(authLimiter)
	}
	authGroup.POST("/register", a.RegisterHandler)
	authGroup.POST("/login", a.LoginHandler)
	authGroup.POST("/logout", a.LogoutHandler)
	if a.google != nil {
		authGroup.GET("/google", a.GoogleLoginHandler)
		authGroup.GET("/google/callback", a.GoogleCallbackHandler)
	}

	users := e.Group("/api/users", authn)
	users.GET("/me", a.MeHandler)
	users.GET("/me/reviews", a.MyReviewsHandler)

	movies := e.Group("/api/movies")
	movies.GET("/popular", a.PopularHandler)
	movies.GET("/search", a.SearchHandler)
	movies.GET("/genres", a.GenresHandler)
	movies.GET("/user/favorites", a.FavoritesHandler, authn)
	movies.GET("/:id", a.MovieDetailsHandler, optional)
	movies.GET("/:movieId/reviews", a.MovieReviewsHandler)
	movies.POST("/:movieId/review", a.AddReviewHandler, authn)
	movies.PUT("/:movieId/reviews/:reviewId", a.UpdateReviewHandler, authn)
	movies.DELETE("/:movieId/reviews/:reviewId", a.DeleteReviewHandler, authn)
	movies.POST("/:movieId/favorite", a.ToggleFavoriteHandler, authn)
}

// messageResponse is the body of simple success responses.
type messageResponse struct {
	Message string `json:"message"`
}

func movieIDParam(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apierrors.NewBadRequest(apierrors.MsgInvalidMovieID)
	}
	return id, nil
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
