package domain

import "errors"

// Token errors
var (
	ErrTokenInvalid          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenPayloadMalformed = errors.New("malformed token payload")
)

// Identity errors
var (
	ErrIdentityMissing   = errors.New("no identity in progress")
	ErrInvalidIdentifier = errors.New("identifier must not be empty")
	ErrInvalidMethod     = errors.New("method must be phone or email")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserMalformed     = errors.New("user record is malformed")
	ErrInvalidName       = errors.New("first and last name are required")
)

// OTP errors
var (
	ErrOTPNotFound          = errors.New("otp not found")
	ErrInvalidCodeFormat    = errors.New("code must be 4 to 8 digits")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrCodeAlreadyUsed      = errors.New("code has already been used")
	ErrTooManyAttempts      = errors.New("too many verification attempts")
	ErrDeliveryFailed       = errors.New("code delivery failed")
	ErrChannelUnavailable   = errors.New("verification channel unavailable")
)

// Session errors
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionUpdateFailed = errors.New("session update failed")
)

// Policy errors
var (
	ErrInvalidPolicy = errors.New("role, resource and action are required")
)

// UserMessage maps a pipeline error to the message shown to the end user.
// Unknown errors collapse to a generic message so internals never leak.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIdentityMissing):
		return "Your sign-in session has expired. Please start again."
	case errors.Is(err, ErrInvalidIdentifier):
		return "Please enter an email address or phone number."
	case errors.Is(err, ErrInvalidMethod):
		return "Please choose email or phone."
	case errors.Is(err, ErrInvalidName):
		return "Please enter your first and last name."
	case errors.Is(err, ErrSessionNotFound):
		return "Please sign in again."
	case errors.Is(err, ErrUserNotFound):
		return "We could not find an account for this identifier."
	case errors.Is(err, ErrInvalidCodeFormat):
		return "The code must be between 4 and 8 digits."
	case errors.Is(err, ErrInvalidOrExpiredCode):
		return "The code is invalid or has expired."
	case errors.Is(err, ErrCodeAlreadyUsed):
		return "This code has already been used. Please request a new one."
	case errors.Is(err, ErrTooManyAttempts):
		return "Too many attempts. Please wait a few minutes and try again."
	case errors.Is(err, ErrDeliveryFailed):
		return "We could not send your code. Please try again."
	case errors.Is(err, ErrChannelUnavailable):
		return "We could not check your code right now. Please try again."
	case errors.Is(err, ErrInvalidPolicy):
		return "Role, resource and action are required."
	default:
		return "Something went wrong. Please try again."
	}
}
