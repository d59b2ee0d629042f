package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/moviecat/domain"
	apierrors "go.pilab.hu/moviecat/errors"
	"go.pilab.hu/moviecat/middleware"
	"go.pilab.hu/moviecat/tmdb"
)

type genresResponse struct {
	Genres []tmdb.Genre `json:"genres"`
}

type reviewResponse struct {
	Message string         `json:"message"`
	Review  *domain.Review `json:"review"`
}

type favoriteResponse struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"isFavorite"`
}

// PopularHandler returns a page of popular movies.
func (a *API) PopularHandler(c echo.Context) error {
	page, err := a.movies.Popular(c.Request().Context(), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// SearchHandler searches movies by title.
func (a *API) SearchHandler(c echo.Context) error {
	page, err := a.movies.Search(c.Request().Context(), c.QueryParam("query"), pageParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// GenresHandler returns the genre list.
func (a *API) GenresHandler(c echo.Context) error {
	genres, err := a.movies.Genres(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, genresResponse{Genres: genres})
}

// MovieDetailsHandler returns one movie. Signed-in users also learn whether
// it is among their favorites.
func (a *API) MovieDetailsHandler(c echo.Context) error {
	id, err := movieIDParam(c, "id")
	if err != nil {
		return err
	}
	movie, err := a.movies.Details(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movie)
}

// MovieReviewsHandler lists the reviews of a movie.
func (a *API) MovieReviewsHandler(c echo.Context) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	reviews, err := a.movies.MovieReviews(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// AddReviewHandler publishes the user's review of a movie.
func (a *API) AddReviewHandler(c echo.Context) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	var in domain.ReviewInput
	if err := c.Bind(&in); err != nil {
		return apierrors.NewBadRequest(apierrors.MsgInvalidBody)
	}

	review, err := a.movies.AddReview(c.Request().Context(), middleware.UserID(c), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reviewResponse{Message: "Reseña añadida correctamente", Review: review})
}

// UpdateReviewHandler edits one of the user's reviews.
func (a *API) UpdateReviewHandler(c echo.Context) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	var in domain.ReviewInput
	if err := c.Bind(&in); err != nil {
		return apierrors.NewBadRequest(apierrors.MsgInvalidBody)
	}

	review, err := a.movies.UpdateReview(c.Request().Context(), middleware.UserID(c), id, c.Param("reviewId"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviewResponse{Message: "Reseña actualizada correctamente", Review: review})
}

// DeleteReviewHandler removes one of the user's reviews.
func (a *API) DeleteReviewHandler(c echo.Context) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	if err := a.movies.DeleteReview(c.Request().Context(), middleware.UserID(c), id, c.Param("reviewId")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Reseña eliminada correctamente"})
}

// FavoritesHandler returns the user's favorite movies.
func (a *API) FavoritesHandler(c echo.Context) error {
	movies, err := a.movies.Favorites(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, movies)
}

// ToggleFavoriteHandler adds a movie to the user's favorites, or removes it
// if it was already there.
func (a *API) ToggleFavoriteHandler(c echo.Context) error {
	id, err := movieIDParam(c, "movieId")
	if err != nil {
		return err
	}
	isFavorite, err := a.movies.ToggleFavorite(c.Request().Context(), middleware.UserID(c), id)
	if err != nil {
		return err
	}

	msg := "Película eliminada de favoritos"
	if isFavorite {
		msg = "Película añadida a favoritos"
	}
	return c.JSON(http.StatusOK, favoriteResponse{Message: msg, IsFavorite: isFavorite})
}
