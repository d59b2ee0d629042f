package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort string `mapstructure:"HTTP_PORT"`
	AppEnv   string `mapstructure:"APP_ENV"`

	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	// RedisAddr enables the shared response cache and username lock. Empty
	// keeps both in process.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	LogLevel        string  `mapstructure:"LOG_LEVEL"`
	LogPretty       bool    `mapstructure:"LOG_PRETTY"`
	OtelServiceName string  `mapstructure:"OTEL_SERVICE_NAME"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"` // "stdout" or "none"
	TraceSampleRate float64 `mapstructure:"OTEL_SAMPLE_RATIO"`

	// Session configuration
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	CookieName     string        `mapstructure:"COOKIE_NAME"`
	CookieMaxAge   time.Duration `mapstructure:"COOKIE_MAX_AGE"`
	CookieDomain   string        `mapstructure:"COOKIE_DOMAIN"`
	CookieSecure   bool          `mapstructure:"COOKIE_SECURE"`
	CookieSameSite string        `mapstructure:"COOKIE_SAMESITE"`
	BcryptCost     int           `mapstructure:"BCRYPT_COST"`

	// Google sign-in
	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	OAuthCallbackURL   string `mapstructure:"OAUTH_CALLBACK_URL"`

	FrontendURL    string   `mapstructure:"FRONTEND_URL"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For is believed.
	// Empty means the client address is the TCP peer.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
	AuthRateLimit  float64  `mapstructure:"AUTH_RATE_LIMIT"` // requests per second per client on /api/auth

	// TMDB
	TMDBAPIKey        string        `mapstructure:"TMDB_API_KEY"`
	TMDBBaseURL       string        `mapstructure:"TMDB_BASE_URL"`
	TMDBLanguage      string        `mapstructure:"TMDB_LANGUAGE"`
	TMDBCacheTTL      time.Duration `mapstructure:"TMDB_CACHE_TTL"`
	MovieRefreshAfter time.Duration `mapstructure:"MOVIE_REFRESH_AFTER"`
}

// IsProduction reports whether strict production settings apply.
func (c *ServerConfig) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c *ServerConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// SameSite converts CookieSameSite to its net/http value.
func (c *ServerConfig) SameSite() http.SameSite {
	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Validate rejects configurations the server must not start with.
func (c *ServerConfig) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.IsProduction() {
		if c.JWTSecret == devJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be changed in production"))
		}
		if !c.CookieSecure {
			errs = append(errs, errors.New("COOKIE_SECURE must be true in production"))
		}
	}
	if c.SameSite() == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE"))
	}
	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together"))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: invalid CIDR %q", cidr))
		}
	}
	if c.GoogleEnabled() && c.OAuthCallbackURL == "" {
		errs = append(errs, errors.New("OAUTH_CALLBACK_URL is required for Google sign-in"))
	}
	return errors.Join(errs...)
}

const devJWTSecret = "dev_secret_change_me"

// LoadConfig reads configuration from file, environment variables, and defaults.
// Cookie defaults depend on APP_ENV: relaxed in development, strict in production.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	// Set configuration file name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Set search paths for the configuration file
	v.AddConfigPath("/etc/moviecat/")
	v.AddConfigPath("$HOME/.moviecat")
	v.AddConfigPath(".")

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// Attempt to read the config file
	if err := v.ReadInConfig(); err != nil {
		// ConfigFileNotFoundError is acceptable, means we use defaults/env vars.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment-dependent defaults are resolved after APP_ENV is known.
	if v.GetString("APP_ENV") == EnvProduction {
		v.SetDefault("COOKIE_SECURE", true)
		v.SetDefault("COOKIE_SAMESITE", "strict")
		v.SetDefault("COOKIE_DOMAIN", "")
		v.SetDefault("LOG_PRETTY", false)
		v.SetDefault("JWT_SECRET", "")
	}

	// Unmarshal the configuration into the ServerConfig struct
	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	// ALLOWED_ORIGINS arrives as one comma separated string from the environment.
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)
	cfg.TrustedProxies = splitList(cfg.TrustedProxies)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "5000")
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "moviecat")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_PREFIX", "moviecat")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "moviecat-api")
	v.SetDefault("TRACING_EXPORTER", "none")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)

	v.SetDefault("JWT_SECRET", devJWTSecret)
	v.SetDefault("SESSION_TTL", time.Hour)
	v.SetDefault("COOKIE_NAME", "token")
	v.SetDefault("COOKIE_MAX_AGE", 24*time.Hour)
	v.SetDefault("COOKIE_DOMAIN", "localhost")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_SAMESITE", "lax")
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("OAUTH_CALLBACK_URL", "http://localhost:5000/api/auth/google/callback")

	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("TRUSTED_PROXIES", []string{})
	v.SetDefault("AUTH_RATE_LIMIT", 5.0)

	v.SetDefault("TMDB_API_KEY", "")
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_LANGUAGE", "es-ES")
	v.SetDefault("TMDB_CACHE_TTL", 10*time.Minute)
	v.SetDefault("MOVIE_REFRESH_AFTER", 24*time.Hour)
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
