package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/ibrahim-qi/sesh-app/internal/domain"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrResponse struct {
	Error APIError `json:"error"`
}

// Map translates a service error into a response. The last return is false
// for errors that carry no client-facing meaning; those become a 500 and
// must be logged by the caller.
func Map(err error) (int, APIError, bool) {
	var (
		nf       *domain.NotFoundError
		invalid  *domain.ValidationError
		noEvents *domain.NoEventsError
	)

	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, APIError{Code: NotFound.Code, Message: nf.Error()}, true
	case errors.As(err, &invalid):
		return http.StatusBadRequest, APIError{Code: BadRequest.Code, Message: invalid.Error()}, true
	case errors.As(err, &noEvents):
		return http.StatusConflict, NoEvents, true

	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, Unauthorized, true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, Forbidden, true
	case errors.Is(err, domain.ErrSetupDisabled):
		return http.StatusForbidden, SetupDisabled, true

	case errors.Is(err, domain.ErrGameNotInProgress):
		return http.StatusConflict, GameNotInProgress, true
	case errors.Is(err, domain.ErrSessionNotLive):
		return http.StatusConflict, SessionNotLive, true
	case errors.Is(err, domain.ErrSessionCompleted):
		return http.StatusConflict, SessionCompleted, true
	case errors.Is(err, domain.ErrNotEnoughTeams):
		return http.StatusConflict, NotEnoughTeams, true
	case errors.Is(err, domain.ErrAmbiguousName):
		return http.StatusConflict, AmbiguousName, true
	default:
		return http.StatusInternalServerError, InternalServerError, false
	}
}

func Handle(c *gin.Context, err error) bool {
	if status, apiErr, ok := Map(err); ok {
		WriteApiErrJSON(c, status, apiErr)
		return true
	}
	return false
}

// Bind reports a request that failed binding or validation.
func Bind(c *gin.Context, err error) {
	apiErr := BadRequest
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		apiErr.Message = "invalid " + ve[0].Field() + ": failed " + ve[0].Tag()
	}
	WriteApiErrJSON(c, http.StatusBadRequest, apiErr)
}

func WriteApiErrJSON(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, ErrResponse{
		Error: apiErr,
	})
}
