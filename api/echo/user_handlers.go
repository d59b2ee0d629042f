package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.pilab.hu/moviecat/middleware"
)

// MeHandler returns the authenticated user's public profile.
func (a *API) MeHandler(c echo.Context) error {
	user, err := a.identity.GetUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user.Public())
}

// MyReviewsHandler lists the reviews the authenticated user wrote.
func (a *API) MyReviewsHandler(c echo.Context) error {
	reviews, err := a.movies.UserReviews(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}
