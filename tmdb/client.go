package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/cache"
	"go.pilab.hu/moviecat/internal/metrics"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "es-ES"
	DefaultCacheTTL = 10 * time.Minute
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Client talks to the TMDB v3 API. Every method either returns data or a
// non-nil error; an empty result is never used to signal failure.
type Client struct {
	http     *resty.Client
	apiKey   string
	language string
	cache    cache.ResponseCache
	cacheTTL time.Duration
	group    singleflight.Group
}

// NewClient creates a new Client. responses may be nil to disable caching.
func NewClient(cfg Config, responses cache.ResponseCache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		cache:    responses,
		cacheTTL: cfg.CacheTTL,
	}
}

// Popular returns a page of popular movies.
func (c *Client) Popular(ctx context.Context, page int) (*Page, error) {
	var out Page
	if err := c.get(ctx, "popular", "/movie/popular", pageParams(page), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns a page of movies matching query.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	params := pageParams(page)
	params["query"] = query

	var out Page
	if err := c.get(ctx, "search", "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Movie returns the details of one movie.
func (c *Client) Movie(ctx context.Context, id int) (*MovieDetails, error) {
	var out MovieDetails
	if err := c.get(ctx, "movie", "/movie/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Videos returns the trailers and clips of one movie.
func (c *Client) Videos(ctx context.Context, id int) ([]Video, error) {
	var out videosResponse
	if err := c.get(ctx, "videos", "/movie/"+strconv.Itoa(id)+"/videos", nil, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		out.Results = []Video{}
	}
	return out.Results, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var out genresResponse
	if err := c.get(ctx, "genres", "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

func pageParams(page int) map[string]string {
	if page < 1 {
		page = 1
	}
	return map[string]string{"page": strconv.Itoa(page)}
}

// get fetches path and decodes the JSON body into out. Identical concurrent
// requests share one upstream call, and successful bodies are cached.
func (c *Client) get(ctx context.Context, group, path string, params map[string]string, out any) error {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("language", c.language)
	key := path + "?" + query.Encode() // Encode sorts by key

	if c.cache != nil {
		if body, ok := c.cache.Get(ctx, key); ok {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			if err := json.Unmarshal(body, out); err == nil {
				return nil
			}
		} else {
			metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	// The shared call outlives any single caller; the client timeout bounds it.
	sharedCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		resp, err := c.http.R().
			SetContext(sharedCtx).
			SetQueryParamsFromValues(query).
			SetQueryParam("api_key", c.apiKey).
			Get(path)
		if err != nil {
			return nil, &UpstreamError{Endpoint: path, Err: err}
		}
		if resp.IsError() {
			return nil, &UpstreamError{Endpoint: path, Status: resp.StatusCode()}
		}

		body := resp.Body()
		if c.cache != nil {
			c.cache.Set(sharedCtx, key, body, c.cacheTTL)
		}
		return body, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return ctx.Err()
	}
	v, err := res.Val, res.Err
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(group, "error").Inc()
		log.Warn().Err(err).Str("endpoint", path).Msg("TMDB request failed")
		return err
	}

	if err := json.Unmarshal(v.([]byte), out); err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(group, "decode_error").Inc()
		return &UpstreamError{Endpoint: path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(group, "ok").Inc()
	return nil
}
