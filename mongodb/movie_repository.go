package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.pilab.hu/moviecat/domain"
)

// MovieRepository implements domain.MovieRepository. Reviews are embedded in
// the movie document; listing a user's reviews goes through the multikey
// index on reviews.user_id.
type MovieRepository struct {
	movies *mongo.Collection
}

// NewMovieRepository creates a new MovieRepository and ensures its indexes.
func NewMovieRepository(ctx context.Context, db *mongo.Database) (*MovieRepository, error) {
	repo := &MovieRepository{movies: db.Collection(MoviesCollection)}

	_, err := repo.movies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tmdb_id", Value: 1}},
			Options: options.Index().SetName(tmdbIDIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reviews.user_id", Value: 1}},
			Options: options.Index().SetName(reviewUserIndex),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes for movies collection: %w", err)
	}
	log.Info().Msg("Indexes for movies collection ensured.")

	return repo, nil
}

// GetMovie returns the cached movie or domain.ErrMovieNotFound.
func (r *MovieRepository) GetMovie(ctx context.Context, tmdbID int) (*domain.Movie, error) {
	var movie domain.Movie
	err := r.movies.FindOne(ctx, bson.M{"tmdb_id": tmdbID}).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMovieNotFound
		}
		return nil, err
	}
	return &movie, nil
}

// UpsertMovieDetails stores fresh upstream details, leaving reviews untouched.
func (r *MovieRepository) UpsertMovieDetails(ctx context.Context, movie *domain.Movie, refreshedAt time.Time) error {
	genres := movie.Genres
	if genres == nil {
		genres = []domain.Genre{}
	}
	videos := movie.Videos
	if videos == nil {
		videos = []domain.Video{}
	}

	update := bson.M{
		"$set": bson.M{
			"title":         movie.Title,
			"overview":      movie.Overview,
			"poster_path":   movie.PosterPath,
			"backdrop_path": movie.BackdropPath,
			"release_date":  movie.ReleaseDate,
			"vote_average":  movie.VoteAverage,
			"popularity":    movie.Popularity,
			"genres":        genres,
			"runtime":       movie.Runtime,
			"videos":        videos,
			"last_updated":  refreshedAt.UTC(),
			"updated_at":    refreshedAt.UTC(),
		},
		"$setOnInsert": bson.M{
			"reviews":    bson.A{},
			"created_at": refreshedAt.UTC(),
		},
	}

	_, err := r.movies.UpdateOne(ctx, bson.M{"tmdb_id": movie.TMDBID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil && duplicateIndex(err, tmdbIDIndex) != "" {
		// Lost an insert race against a concurrent upsert; the document exists now.
		_, err = r.movies.UpdateOne(ctx, bson.M{"tmdb_id": movie.TMDBID}, bson.M{"$set": update["$set"]})
	}
	return err
}

// AddReview appends a review unless the author already reviewed the movie.
// The check and the write are one conditional update.
func (r *MovieRepository) AddReview(ctx context.Context, tmdbID int, title string, review *domain.Review) error {
	if review.ID == "" {
		review.ID = NewObjectID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	filter := bson.M{
		"tmdb_id":         tmdbID,
		"reviews.user_id": bson.M{"$ne": review.UserID},
	}
	update := bson.M{
		"$push": bson.M{"reviews": review},
		"$setOnInsert": bson.M{
			"title":      title,
			"created_at": review.CreatedAt,
		},
	}

	// An upsert that collides on tmdb_id means either the author already
	// has a review, or another user's upsert created the document first.
	for attempt := 0; attempt < 2; attempt++ {
		_, err := r.movies.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
		if err == nil {
			return nil
		}
		if duplicateIndex(err, tmdbIDIndex) == "" {
			return err
		}

		n, countErr := r.movies.CountDocuments(ctx, bson.M{"tmdb_id": tmdbID, "reviews.user_id": review.UserID})
		if countErr != nil {
			return countErr
		}
		if n > 0 {
			return domain.ErrAlreadyReviewed
		}
	}
	return domain.ErrAlreadyReviewed
}

func ownReviewFilter(tmdbID int, reviewID, userID string) bson.M {
	return bson.M{
		"tmdb_id": tmdbID,
		"reviews": bson.M{"$elemMatch": bson.M{"_id": reviewID, "user_id": userID}},
	}
}

// UpdateReview edits a review owned by userID.
func (r *MovieRepository) UpdateReview(
	ctx context.Context,
	tmdbID int,
	reviewID, userID string,
	in domain.ReviewInput,
) (*domain.Review, error) {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"reviews.$.content":    in.Content,
		"reviews.$.rating":     in.Rating,
		"reviews.$.updated_at": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var movie domain.Movie
	err := r.movies.FindOneAndUpdate(ctx, ownReviewFilter(tmdbID, reviewID, userID), update, opts).Decode(&movie)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, err
	}

	for i := range movie.Reviews {
		if movie.Reviews[i].ID == reviewID {
			return &movie.Reviews[i], nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

// DeleteReview removes a review owned by userID.
func (r *MovieRepository) DeleteReview(ctx context.Context, tmdbID int, reviewID, userID string) error {
	res, err := r.movies.UpdateOne(ctx,
		ownReviewFilter(tmdbID, reviewID, userID),
		bson.M{"$pull": bson.M{"reviews": bson.M{"_id": reviewID}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// ListMovieReviews returns the reviews of a movie, newest first. A movie
// nobody reviewed yet yields an empty list.
func (r *MovieRepository) ListMovieReviews(ctx context.Context, tmdbID int) ([]domain.Review, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tmdb_id": tmdbID}}},
		{{Key: "$unwind", Value: "$reviews"}},
		{{Key: "$sort", Value: bson.D{{Key: "reviews.created_at", Value: -1}}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$reviews"}}},
	}

	cursor, err := r.movies.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// ListUserReviews returns every review written by userID, newest first.
func (r *MovieRepository) ListUserReviews(ctx context.Context, userID string) ([]domain.UserReview, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"reviews.user_id": userID}}},
		{{Key: "$unwind", Value: "$reviews"}},
		{{Key: "$match", Value: bson.M{"reviews.user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "reviews.created_at", Value: -1}}}},
		{{Key: "$project", Value: bson.M{
			"_id":         0,
			"tmdb_id":     1,
			"title":       1,
			"poster_path": 1,
			"review":      "$reviews",
		}}},
	}

	cursor, err := r.movies.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		TMDBID     int           `bson:"tmdb_id"`
		Title      string        `bson:"title"`
		PosterPath string        `bson:"poster_path"`
		Review     domain.Review `bson:"review"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.UserReview, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.UserReview{
			Review: row.Review,
			Movie: domain.ReviewedMovie{
				ID:         row.TMDBID,
				Title:      row.Title,
				PosterPath: row.PosterPath,
			},
		})
	}
	return out, nil
}

// Ensure interface compliance
var _ domain.MovieRepository = (*MovieRepository)(nil)
