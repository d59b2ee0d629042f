package errors

import (
	"errors"
	"fmt"
	"net/http"

	"go.pilab.hu/moviecat/domain"
	"go.pilab.hu/moviecat/internal/auth"
	"go.pilab.hu/moviecat/services"
	"go.pilab.hu/moviecat/tmdb"
)

// APIError is the JSON body of every failed API call.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client-facing messages.
const (
	MsgUsernameTaken      = "El nombre de usuario ya está en uso"
	MsgEmailTaken         = "El email ya está registrado"
	MsgUserNotFound       = "Usuario no encontrado"
	MsgWrongPassword      = "Contraseña incorrecta"
	MsgUnauthorized       = "No autorizado"
	MsgSessionExpired     = "Sesión expirada"
	MsgMissingFields      = "Todos los campos son obligatorios"
	MsgPasswordTooLong    = "La contraseña no puede superar 72 caracteres"
	MsgReviewIncomplete   = "Se requiere contenido y valoración"
	MsgInvalidRating      = "La valoración debe estar entre 1 y 5"
	MsgAlreadyReviewed    = "Ya has publicado una reseña para esta película"
	MsgReviewNotFound     = "Reseña no encontrada"
	MsgMovieNotFound      = "Película no encontrada"
	MsgMissingQuery       = "Se requiere un término de búsqueda"
	MsgInvalidMovieID     = "Identificador de película no válido"
	MsgInvalidBody        = "Cuerpo de la solicitud no válido"
	MsgUpstreamFailure    = "Error al obtener datos de películas"
	MsgInternal           = "Error en el servidor"
	MsgRegisterFailed     = "Error al registrar el usuario"
	MsgTooManyRequests    = "Demasiadas solicitudes, inténtelo más tarde"
	MsgRouteNotFound      = "Ruta no encontrada"
	MsgMethodNotAllowed   = "Método no permitido"
	authTypeMismatchFmt   = "Este correo está registrado con %s. Por favor, use ese método para iniciar sesión."
	defaultAuthTypeInText = "otro método"
)

// New creates an APIError.
func New(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func NewBadRequest(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

func NewUnauthorized() *APIError {
	return New(http.StatusUnauthorized, MsgUnauthorized)
}

func NewInternal() *APIError {
	return New(http.StatusInternalServerError, MsgInternal)
}

// FromError translates an error from the service layer into the response a
// client sees. Unknown errors become a generic 500 so internals never leak.
// The second result reports whether err was recognized.
func FromError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var mismatch *domain.AuthTypeMismatchError
	switch {
	case errors.As(err, &mismatch):
		authType := string(mismatch.AuthType)
		if authType == "" {
			authType = defaultAuthTypeInText
		}
		return NewBadRequest(fmt.Sprintf(authTypeMismatchFmt, authType)), true
	case errors.Is(err, domain.ErrAuthTypeMismatch):
		return NewBadRequest(fmt.Sprintf(authTypeMismatchFmt, defaultAuthTypeInText)), true

	case errors.Is(err, domain.ErrDuplicateUsername):
		return New(http.StatusConflict, MsgUsernameTaken), true
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateFederatedID):
		return New(http.StatusConflict, MsgEmailTaken), true
	case errors.Is(err, domain.ErrUserNotFound):
		return New(http.StatusNotFound, MsgUserNotFound), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return New(http.StatusUnauthorized, MsgWrongPassword), true
	case errors.Is(err, domain.ErrMissingFields):
		return NewBadRequest(MsgMissingFields), true
	case errors.Is(err, auth.ErrPasswordTooLong):
		return NewBadRequest(MsgPasswordTooLong), true

	case errors.Is(err, services.ErrSessionExpired):
		return New(http.StatusUnauthorized, MsgSessionExpired), true
	case errors.Is(err, services.ErrInvalidSession):
		return NewUnauthorized(), true

	case errors.Is(err, domain.ErrReviewIncomplete):
		return NewBadRequest(MsgReviewIncomplete), true
	case errors.Is(err, domain.ErrInvalidRating):
		return NewBadRequest(MsgInvalidRating), true
	case errors.Is(err, domain.ErrAlreadyReviewed):
		return NewBadRequest(MsgAlreadyReviewed), true
	case errors.Is(err, domain.ErrReviewNotFound):
		return New(http.StatusNotFound, MsgReviewNotFound), true
	case errors.Is(err, domain.ErrMovieNotFound), errors.Is(err, tmdb.ErrNotFound):
		return New(http.StatusNotFound, MsgMovieNotFound), true
	case errors.Is(err, domain.ErrMissingQuery):
		return NewBadRequest(MsgMissingQuery), true

	case errors.Is(err, tmdb.ErrUpstream):
		return New(http.StatusBadGateway, MsgUpstreamFailure), true
	}

	return NewInternal(), false
}
