package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
)

// statusFor maps a pipeline error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidIdentifier),
		errors.Is(err, domain.ErrInvalidMethod),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidPolicy),
		errors.Is(err, domain.ErrInvalidCodeFormat),
		errors.Is(err, domain.ErrInvalidOrExpiredCode):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIdentityMissing),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrChannelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWith writes the user-facing message for err
func abortWith(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": domain.UserMessage(err)})
}
