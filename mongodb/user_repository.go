package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.pilab.hu/moviecat/domain"
)

// UserRepository implements domain.UserRepository
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new UserRepository and ensures its indexes.
//
// The unique indexes are the real arbiter of username and email ownership:
// concurrent registrations race on the insert, not on a pre-check.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
		// Emails are stored lowercased, so a plain index serves both the
		// uniqueness check and the equality lookups.
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "federated_id", Value: 1}},
			Options: options.Index().SetName(federatedIDIndex).SetUnique(true).SetSparse(true),
		},
	}

	if _, err := r.users.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	log.Info().Msg("Indexes for users collection ensured.")
	return nil
}

// CreateUser creates a new user.
func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = NewObjectID()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.AuthType == "" {
		user.AuthType = domain.AuthTypeLocal
	}
	if user.FavoriteMovieIDs == nil {
		user.FavoriteMovieIDs = []int{}
	}

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		switch duplicateIndex(err, usernameIndex, emailIndex, federatedIDIndex) {
		case "":
		case usernameIndex:
			return domain.ErrDuplicateUsername
		case emailIndex:
			return domain.ErrDuplicateEmail
		case federatedIDIndex:
			return domain.ErrDuplicateFederatedID
		default:
			return fmt.Errorf("duplicate user: %w", err)
		}
		log.Error().Err(err).Str("username", user.Username).Msg("Error creating user in MongoDB")
		return err
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := r.findOne(ctx, bson.M{"_id": id})
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		log.Error().Err(err).Str("id", id).Msg("Error getting user by ID from MongoDB")
	}
	return user, err
}

// GetUserByEmail retrieves a user by their email, ignoring letter case.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		log.Error().Err(err).Str("email", email).Msg("Error getting user by email from MongoDB")
	}
	return user, err
}

// GetUserByUsername retrieves a user by their exact username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByEmailOrFederatedID looks a provider profile up by either key.
func (r *UserRepository) FindByEmailOrFederatedID(ctx context.Context, email, federatedID string) (*domain.User, error) {
	or := bson.A{bson.M{"email": strings.ToLower(strings.TrimSpace(email))}}
	if federatedID != "" {
		or = append(or, bson.M{"federated_id": federatedID})
	}
	return r.findOne(ctx, bson.M{"$or": or})
}

// UsernameExists reports whether username is taken. Usernames are case-sensitive.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"username": username}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LinkFederatedIdentity implements domain.UserRepository.
func (r *UserRepository) LinkFederatedIdentity(
	ctx context.Context,
	userID, federatedID string,
	authType domain.AuthType,
) (*domain.User, error) {
	filter := bson.M{
		"_id":          userID,
		"federated_id": bson.M{"$exists": false},
	}
	update := bson.M{
		"$set": bson.M{
			"federated_id": federatedID,
			"auth_type":    authType,
			"updated_at":   time.Now().UTC(),
		},
		"$unset": bson.M{"password_hash": ""},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	err := r.users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		// Already linked, or gone.
		return r.GetUserByID(ctx, userID)
	case duplicateIndex(err, federatedIDIndex) != "":
		return nil, domain.ErrDuplicateFederatedID
	default:
		log.Error().Err(err).Str("userID", userID).Msg("Error linking federated identity")
		return nil, err
	}
}

// ToggleFavorite implements domain.UserRepository. Both branches are single
// atomic updates, so concurrent toggles never lose a write.
func (r *UserRepository) ToggleFavorite(ctx context.Context, userID string, movieID int) (bool, error) {
	now := time.Now().UTC()

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "favorite_movies": movieID},
		bson.M{
			"$pull": bson.M{"favorite_movies": movieID},
			"$set":  bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount > 0 {
		return false, nil
	}

	res, err = r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"favorite_movies": movieID},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, domain.ErrUserNotFound
	}
	return true, nil
}

// Ensure interface compliance
var _ domain.UserRepository = (*UserRepository)(nil)
