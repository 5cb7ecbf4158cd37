package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/lendauth/domain"
)

const cookieJarKey = "cookie_jar"

// GinCookieJar adapts a gin request/response pair to domain.CookieJar.
// Writes are visible to later reads within the same request.
type GinCookieJar struct {
	ctx     *gin.Context
	now     func() time.Time
	pending map[string]*string
}

// NewGinCookieJar creates a jar over c
func NewGinCookieJar(c *gin.Context) *GinCookieJar {
	return &GinCookieJar{ctx: c, now: time.Now, pending: make(map[string]*string)}
}

// Jar returns the request's cookie jar, creating it on first use so every
// handler and middleware in the chain shares one view
func Jar(c *gin.Context) *GinCookieJar {
	if v, ok := c.Get(cookieJarKey); ok {
		if jar, ok := v.(*GinCookieJar); ok {
			return jar
		}
	}
	jar := NewGinCookieJar(c)
	c.Set(cookieJarKey, jar)
	return jar
}

func (j *GinCookieJar) Get(name string) (string, bool) {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	v, err := j.ctx.Cookie(name)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (j *GinCookieJar) Set(cookie domain.Cookie) {
	value := cookie.Value
	j.pending[cookie.Name] = &value

	hc := &http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		HttpOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
		SameSite: sameSite(cookie.SameSite),
	}
	if hc.Path == "" {
		hc.Path = "/"
	}
	if !cookie.Expires.IsZero() {
		hc.Expires = cookie.Expires.UTC()
		hc.MaxAge = int(cookie.Expires.Sub(j.now()).Seconds())
		if hc.MaxAge <= 0 {
			hc.MaxAge = -1
		}
	}
	http.SetCookie(j.ctx.Writer, hc)
}

func (j *GinCookieJar) Delete(cookie domain.Cookie) {
	j.pending[cookie.Name] = nil

	path := cookie.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(j.ctx.Writer, &http.Cookie{
		Name:     cookie.Name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
		SameSite: sameSite(cookie.SameSite),
	})
}

func sameSite(s domain.SameSite) http.SameSite {
	switch s {
	case domain.SameSiteLax:
		return http.SameSiteLaxMode
	case domain.SameSiteStrict:
		return http.SameSiteStrictMode
	case domain.SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

var _ domain.CookieJar = (*GinCookieJar)(nil)
