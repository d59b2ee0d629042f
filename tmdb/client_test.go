package tmdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.pilab.hu/moviecat/cache"
	"go.pilab.hu/moviecat/tmdb"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Popular(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		assert.Equal(t, "es-ES", r.URL.Query().Get("language"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":2,"total_pages":10,"total_results":200,"results":[{"id":550,"title":"El club de la lucha"}]}`))
	})

	client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL, APIKey: "secret"}, nil)
	page, err := client.Popular(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 550, page.Results[0].ID)
	assert.Equal(t, "El club de la lucha", page.Results[0].Title)
}

func TestClient_Search(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	})

	client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	page, err := client.Search(context.Background(), "matrix", 0)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestClient_Errors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
		})
		client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, nil)

		movie, err := client.Movie(context.Background(), 1)
		assert.Nil(t, movie)
		assert.ErrorIs(t, err, tmdb.ErrNotFound)
		assert.ErrorIs(t, err, tmdb.ErrUpstream)
		assert.NotContains(t, err.Error(), "could not be found")
	})

	t.Run("ServerError", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, nil)

		genres, err := client.Genres(context.Background())
		assert.Nil(t, genres)
		assert.ErrorIs(t, err, tmdb.ErrUpstream)
		assert.NotErrorIs(t, err, tmdb.ErrNotFound)

		var upstream *tmdb.UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	})

	t.Run("BadJSON", func(t *testing.T) {
		srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		})
		client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, nil)

		_, err := client.Popular(context.Background(), 1)
		assert.ErrorIs(t, err, tmdb.ErrUpstream)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL, Timeout: time.Second}, nil)

		_, err := client.Popular(context.Background(), 1)
		assert.ErrorIs(t, err, tmdb.ErrUpstream)
	})
}

func TestClient_Videos(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603/videos", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":603}`))
	})
	client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, nil)

	videos, err := client.Videos(context.Background(), 603)
	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)
}

func TestClient_ResponseCache(t *testing.T) {
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres":[{"id":28,"name":"Acción"}]}`))
	})
	responses := cache.NewMemoryResponseCache(time.Minute, 0)
	defer responses.Close()

	client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, responses)
	for range 3 {
		genres, err := client.Genres(context.Background())
		require.NoError(t, err)
		require.Len(t, genres, 1)
		assert.Equal(t, "Acción", genres[0].Name)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))

	t.Run("FailuresAreNotCached", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if fail.Load() {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
		})
		client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL}, responses)

		_, err := client.Popular(context.Background(), 1)
		require.Error(t, err)

		fail.Store(false)
		_, err = client.Popular(context.Background(), 1)
		require.NoError(t, err)
		assert.EqualValues(t, 2, atomic.LoadInt32(calls))
	})
}

func TestClient_SharedFetchSurvivesLeaderCancel(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool
	srv, calls := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-release
		_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"}]}`))
	})
	client := tmdb.NewClient(tmdb.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}, nil)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := client.Genres(leaderCtx)
		leaderErr <- err
	}()
	<-started

	type result struct {
		genres []tmdb.Genre
		err    error
	}
	follower := make(chan result, 1)
	go func() {
		genres, err := client.Genres(context.Background())
		follower <- result{genres, err}
	}()
	// Let the follower join the in-flight call before the leader goes away.
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	res := <-follower
	require.NoError(t, res.err)
	require.Len(t, res.genres, 1)
	assert.Equal(t, "Drama", res.genres[0].Name)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}
