package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUsername    = errors.New("username already taken")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateFederatedID = errors.New("federated identity already linked")
	ErrAuthTypeMismatch     = errors.New("account uses a different authentication method")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrMissingFields        = errors.New("missing required fields")

	ErrMovieNotFound    = errors.New("movie not found")
	ErrReviewIncomplete = errors.New("review content and rating are required")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed  = errors.New("user already reviewed this movie")
	ErrReviewNotFound   = errors.New("review not found")
)

var ErrMissingQuery = errors.New("search query is required")

// AuthTypeMismatchError carries the method the account must use instead.
type AuthTypeMismatchError struct {
	AuthType AuthType
}

func (e *AuthTypeMismatchError) Error() string {
	return "account is registered with " + string(e.AuthType)
}

// Is lets errors.Is(err, ErrAuthTypeMismatch) match.
func (e *AuthTypeMismatchError) Is(target error) bool {
	return target == ErrAuthTypeMismatch
}
