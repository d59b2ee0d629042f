package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/tmdb"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshAfter = 24 * time.Hour

	// favoritesConcurrency bounds parallel detail lookups for a favorites list.
	favoritesConcurrency = 4
)

// reviewPolicy strips every tag from review text. Sanitize escapes what it
// keeps, so the result is unescaped back to plain text.
var reviewPolicy = bluemonday.StrictPolicy()

func cleanReviewContent(content string) string {
	return strings.TrimSpace(html.UnescapeString(reviewPolicy.Sanitize(content)))
}

// MovieService serves catalog data from the upstream provider and manages
// the favorites and reviews users attach to movies.
type MovieService struct {
	catalog      MovieCatalog
	movies       domain.MovieRepository
	users        domain.UserRepository
	refreshAfter time.Duration
	now          func() time.Time
}

// NewMovieService creates a new MovieService. Cached movie details older than
// refreshAfter are fetched again on access.
func NewMovieService(
	catalog MovieCatalog,
	movies domain.MovieRepository,
	users domain.UserRepository,
	refreshAfter time.Duration,
) *MovieService {
	if refreshAfter <= 0 {
		refreshAfter = DefaultRefreshAfter
	}
	return &MovieService{
		catalog:      catalog,
		movies:       movies,
		users:        users,
		refreshAfter: refreshAfter,
		now:          time.Now,
	}
}

// Popular returns a page of popular movies.
func (s *MovieService) Popular(ctx context.Context, page int) (*tmdb.Page, error) {
	return s.catalog.Popular(ctx, page)
}

// Search returns a page of movies matching query.
func (s *MovieService) Search(ctx context.Context, query string, page int) (*tmdb.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrMissingQuery
	}
	return s.catalog.Search(ctx, query, page)
}

// Genres returns the genre list.
func (s *MovieService) Genres(ctx context.Context) ([]tmdb.Genre, error) {
	return s.catalog.Genres(ctx)
}

// Details returns one movie with its videos. When userID is set, the result
// also says whether the movie is among that user's favorites.
func (s *MovieService) Details(ctx context.Context, movieID int, userID string) (*domain.Movie, error) {
	movie, err := s.load(ctx, movieID, true)
	if err != nil {
		return nil, err
	}

	if userID != "" {
		user, err := s.users.GetUserByID(ctx, userID)
		switch {
		case err == nil:
			fav := user.HasFavorite(movieID)
			movie.IsFavorite = &fav
		case errors.Is(err, domain.ErrUserNotFound):
			fav := false
			movie.IsFavorite = &fav
		default:
			return nil, err
		}
	}
	return movie, nil
}

// load returns cached details, refreshing them from upstream when stale. A
// stale copy is still served if the refresh fails.
func (s *MovieService) load(ctx context.Context, movieID int, withVideos bool) (*domain.Movie, error) {
	cached, err := s.movies.GetMovie(ctx, movieID)
	if err != nil && !errors.Is(err, domain.ErrMovieNotFound) {
		log.Warn().Err(err).Int("movieID", movieID).Msg("Reading cached movie failed")
		cached = nil
	}

	now := s.now()
	// A document created only by a review has no upstream data yet.
	if cached != nil && !cached.LastUpdated.IsZero() && !cached.NeedsUpdate(now, s.refreshAfter) {
		return cached, nil
	}

	details, err := s.catalog.Movie(ctx, movieID)
	if err != nil {
		if cached != nil && !cached.LastUpdated.IsZero() && !errors.Is(err, tmdb.ErrNotFound) {
			log.Warn().Err(err).Int("movieID", movieID).Msg("Serving stale movie details")
			return cached, nil
		}
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", domain.ErrMovieNotFound, err)
		}
		return nil, err
	}

	movie := movieFromDetails(details)
	if withVideos {
		videos, err := s.catalog.Videos(ctx, movieID)
		if err != nil {
			log.Warn().Err(err).Int("movieID", movieID).Msg("Fetching videos failed")
		}
		movie.Videos = videosFromCatalog(videos)
	} else if cached != nil {
		movie.Videos = cached.Videos
	}

	if err := s.movies.UpsertMovieDetails(ctx, movie, now); err != nil {
		log.Warn().Err(err).Int("movieID", movieID).Msg("Caching movie details failed")
	}
	movie.LastUpdated = now
	return movie, nil
}

func movieFromDetails(d *tmdb.MovieDetails) *domain.Movie {
	genres := make([]domain.Genre, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return &domain.Movie{
		TMDBID:       d.ID,
		Title:        d.Title,
		Overview:     d.Overview,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		ReleaseDate:  d.ReleaseDate,
		VoteAverage:  d.VoteAverage,
		Popularity:   d.Popularity,
		Genres:       genres,
		Runtime:      d.Runtime,
	}
}

func videosFromCatalog(in []tmdb.Video) []domain.Video {
	out := make([]domain.Video, 0, len(in))
	for _, v := range in {
		out = append(out, domain.Video{Site: v.Site, Key: v.Key, Type: v.Type, Name: v.Name})
	}
	return out
}

// Favorites returns the details of every favorite movie of userID, in the
// order they were added. Movies whose details cannot be loaded are skipped.
func (s *MovieService) Favorites(ctx context.Context, userID string) ([]*domain.Movie, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.Movie, len(user.FavoriteMovieIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(favoritesConcurrency)
	for i, id := range user.FavoriteMovieIDs {
		g.Go(func() error {
			movie, err := s.load(gctx, id, false)
			if err != nil {
				log.Warn().Err(err).Int("movieID", id).Str("userID", userID).Msg("Skipping favorite")
				return nil
			}
			fav := true
			movie.IsFavorite = &fav
			results[i] = movie
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domain.Movie, 0, len(results))
	for _, m := range results {
		if m != nil {
			out = append(out, m)
		}
	}
	return out, nil
}

// ToggleFavorite flips movieID in the user's favorites and reports whether it
// is a favorite afterwards.
func (s *MovieService) ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	return s.users.ToggleFavorite(ctx, userID, movieID)
}

// AddReview records the user's review of movieID. Each user may review a
// movie once.
func (s *MovieService) AddReview(ctx context.Context, userID string, movieID int, in domain.ReviewInput) (*domain.Review, error) {
	in.Content = cleanReviewContent(in.Content)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// The title lets profile pages list reviews without an upstream call.
	title := ""
	if movie, err := s.movies.GetMovie(ctx, movieID); err == nil {
		title = movie.Title
	}

	review := &domain.Review{
		UserID:    user.ID,
		Username:  user.Username,
		Content:   in.Content,
		Rating:    in.Rating,
		CreatedAt: s.now().UTC(),
	}
	if err := s.movies.AddReview(ctx, movieID, title, review); err != nil {
		return nil, err
	}

	log.Info().Str("userID", user.ID).Int("movieID", movieID).Msg("Review added")
	return review, nil
}

// UpdateReview edits a review the user owns.
func (s *MovieService) UpdateReview(
	ctx context.Context,
	userID string,
	movieID int,
	reviewID string,
	in domain.ReviewInput,
) (*domain.Review, error) {
	in.Content = cleanReviewContent(in.Content)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.movies.UpdateReview(ctx, movieID, reviewID, userID, in)
}

// DeleteReview removes a review the user owns.
func (s *MovieService) DeleteReview(ctx context.Context, userID string, movieID int, reviewID string) error {
	return s.movies.DeleteReview(ctx, movieID, reviewID, userID)
}

// MovieReviews lists the reviews of movieID.
func (s *MovieService) MovieReviews(ctx context.Context, movieID int) ([]domain.Review, error) {
	return s.movies.ListMovieReviews(ctx, movieID)
}

// UserReviews lists the reviews written by userID. Movies cached without a
// title get one from upstream when possible.
func (s *MovieService) UserReviews(ctx context.Context, userID string) ([]domain.UserReview, error) {
	reviews, err := s.movies.ListUserReviews(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range reviews {
		summary := &reviews[i].Movie
		if summary.Title != "" {
			continue
		}
		movie, err := s.load(ctx, summary.ID, false)
		if err != nil {
			log.Debug().Err(err).Int("movieID", summary.ID).Msg("No title for reviewed movie")
			continue
		}
		summary.Title = movie.Title
		summary.PosterPath = movie.PosterPath
	}
	return reviews, nil
}
