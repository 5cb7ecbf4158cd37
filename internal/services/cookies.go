package services

import (
	"time"

	"github.com/you/lendauth/domain"
)

// Cookie names are part of the client contract
const (
	IdentityCookieName = "lend_temp_identity"
	SessionCookieName  = "lend_session"
)

// CookieOptions carries the deployment-dependent cookie flags
type CookieOptions struct {
	// Secure is set in production so cookies only travel over HTTPS
	Secure bool
}

func (o CookieOptions) build(name, value string, expires time.Time) domain.Cookie {
	return domain.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		HTTPOnly: true,
		Secure:   o.Secure,
		SameSite: domain.SameSiteLax,
	}
}

// removal carries the same attributes as build, with no value or expiry
func (o CookieOptions) removal(name string) domain.Cookie {
	return o.build(name, "", time.Time{})
}
