package mongodb

const (
	UsersCollection  = "users"  // Credential store
	MoviesCollection = "movies" // Cached TMDB details and their reviews
)

// Index names. Duplicate-key errors are attributed to a field by these.
const (
	usernameIndex    = "username_unique"
	emailIndex       = "email_unique"
	federatedIDIndex = "federated_id_unique"
	tmdbIDIndex      = "tmdb_id_unique"
	reviewUserIndex  = "reviews_user_id"
)
