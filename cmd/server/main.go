package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	api "go.pilab.hu/moviecat/api/echo"
	"go.pilab.hu/moviecat/cache"
	rediscache "go.pilab.hu/moviecat/cache/redis"
	"go.pilab.hu/moviecat/config"
	"go.pilab.hu/moviecat/internal/auth"
	"go.pilab.hu/moviecat/internal/federation"
	"go.pilab.hu/moviecat/internal/metrics"
	"go.pilab.hu/moviecat/internal/server"
	"go.pilab.hu/moviecat/log"
	"go.pilab.hu/moviecat/mongodb"
	"go.pilab.hu/moviecat/services"
	"go.pilab.hu/moviecat/tmdb"
	"go.pilab.hu/moviecat/tracing"
)

const (
	responseCacheCapacity = 5000
	usernameLockTTL       = 10 * time.Second
	shutdownTimeout       = 30 * time.Second
)

func main() {
	// Load configuration first
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger := log.New(os.Stderr, log.ParseLevel(cfg.LogLevel), cfg.LogPretty)
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal(ctx, "Invalid configuration", err)
	}
	appLogger.Info(ctx, "Starting moviecat server...", log.Fields{
		"http_port":     cfg.HTTPPort,
		"app_env":       cfg.AppEnv,
		"mongo_db_name": cfg.MongoDBName,
		"redis":         cfg.RedisAddr != "",
		"google_login":  cfg.GoogleEnabled(),
		"log_level":     cfg.LogLevel,
		"otel_service":  cfg.OtelServiceName,
	})
	if cfg.TMDBAPIKey == "" {
		appLogger.Warn(ctx, "TMDB_API_KEY is not set, movie endpoints will fail upstream")
	}

	tracerProvider, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.AppEnv,
		Exporter:    cfg.TracingExporter,
		SampleRatio: cfg.TraceSampleRate,
	})
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}

	// --- Initialize Dependencies ---
	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", err)
	}
	db := mongodb.GetDB()

	userRepo, err := mongodb.NewUserRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize UserRepository", err)
	}
	movieRepo, err := mongodb.NewMovieRepository(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize MovieRepository", err)
	}

	// Shared cache and username lock when redis is configured, in process otherwise.
	var (
		responses   cache.ResponseCache
		locker      services.Locker
		redisClient *redis.Client
		memCache    *cache.MemoryResponseCache
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", err, log.Fields{"addr": cfg.RedisAddr})
		}
		responses = rediscache.NewResponseCache(redisClient, cfg.RedisPrefix)
		locker = rediscache.NewLocker(redisClient, cfg.RedisPrefix, usernameLockTTL)
		appLogger.Info(ctx, "Using Redis for response cache and username locks", log.Fields{"addr": cfg.RedisAddr})
	} else {
		memCache = cache.NewMemoryResponseCache(cfg.TMDBCacheTTL, responseCacheCapacity)
		responses = memCache
		locker = services.NewKeyedMutex()
	}

	catalog := tmdb.NewClient(tmdb.Config{
		BaseURL:  cfg.TMDBBaseURL,
		APIKey:   cfg.TMDBAPIKey,
		Language: cfg.TMDBLanguage,
		CacheTTL: cfg.TMDBCacheTTL,
	}, responses)

	// Services
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	identitySvc := services.NewIdentityService(userRepo, passwordHasher, locker)
	movieSvc := services.NewMovieService(catalog, movieRepo, userRepo, cfg.MovieRefreshAfter)
	sessionSvc, err := services.NewSessionService(services.SessionConfig{
		Secret:         cfg.JWTSecret,
		Issuer:         cfg.OtelServiceName,
		TTL:            cfg.SessionTTL,
		CookieName:     cfg.CookieName,
		CookieMaxAge:   cfg.CookieMaxAge,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.SameSite(),
	})
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize SessionService", err)
	}

	var googleProvider federation.OAuth2Provider
	if cfg.GoogleEnabled() {
		provider, err := federation.NewGoogleProvider(federation.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.OAuthCallbackURL,
		})
		if err != nil {
			appLogger.Fatal(ctx, "Failed to initialize Google provider", err)
		}
		googleProvider = provider
	} else {
		appLogger.Warn(ctx, "Google sign-in disabled, GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set")
	}

	movieAPI := api.NewAPI(identitySvc, sessionSvc, movieSvc, googleProvider, api.Config{
		FrontendURL:   cfg.FrontendURL,
		SecureCookies: cfg.CookieSecure,
	})
	movieAPI.AddHealthCheck("mongodb", mongodb.Ping)
	if redisClient != nil {
		movieAPI.AddHealthCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.InitCustomMetrics(reg)

	// --- End Dependency Initialization ---

	httpServer := server.NewHTTPServer(cfg, appLogger, movieAPI, reg)
	go func() {
		appLogger.Info(ctx, fmt.Sprintf("HTTP server listening on port %s", cfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "Failed to start HTTP server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit

	appLogger.Info(ctx, fmt.Sprintf("Received signal: %v. Shutting down server...", receivedSignal))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLogger.Error(shutdownCtx, "Redis client close error", err)
		}
	}
	if memCache != nil {
		_ = memCache.Close()
	}

	appLogger.Info(shutdownCtx, "Closing MongoDB connection...")
	mongodb.CloseMongoDB(shutdownCtx)

	appLogger.Info(shutdownCtx, "Server gracefully stopped.")
}
