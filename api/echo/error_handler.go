package echo

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	apierrors "go.pilab.hu/moviecat/errors"
)

// HTTPErrorHandler renders every error as {"message": ...}. Errors the
// service layer does not classify are logged and reported as a generic 500.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *apierrors.APIError
	if he, ok := err.(*echo.HTTPError); ok {
		apiErr = fromHTTPError(he)
	} else {
		var known bool
		apiErr, known = apierrors.FromError(err)
		if !known {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("Unhandled error")
		} else if apiErr.Status >= http.StatusInternalServerError {
			log.Warn().Err(err).Str("path", c.Request().URL.Path).Msg("Request failed")
		}
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(apiErr.Status)
	} else {
		writeErr = c.JSON(apiErr.Status, apiErr)
	}
	if writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}

func fromHTTPError(he *echo.HTTPError) *apierrors.APIError {
	if he.Internal != nil {
		if apiErr, known := apierrors.FromError(he.Internal); known {
			return apiErr
		}
	}

	switch he.Code {
	case http.StatusNotFound:
		return apierrors.New(he.Code, apierrors.MsgRouteNotFound)
	case http.StatusMethodNotAllowed:
		return apierrors.New(he.Code, apierrors.MsgMethodNotAllowed)
	case http.StatusTooManyRequests:
		return apierrors.New(he.Code, apierrors.MsgTooManyRequests)
	case http.StatusUnauthorized:
		return apierrors.NewUnauthorized()
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		return apierrors.NewBadRequest(apierrors.MsgInvalidBody)
	}
	if he.Code >= http.StatusInternalServerError {
		return apierrors.NewInternal()
	}
	if msg, ok := he.Message.(string); ok {
		return apierrors.New(he.Code, msg)
	}
	return apierrors.New(he.Code, http.StatusText(he.Code))
}
