package mocks

import (
	"sync"
	"time"

	"github.com/you/lendauth/domain"
)

// CookieJar is an in-memory domain.CookieJar. It behaves like a browser for
// a single origin: expired cookies are not returned and Delete removes them.
type CookieJar struct {
	mu      sync.Mutex
	cookies map[string]domain.Cookie
	removed map[string]domain.Cookie
	now     func() time.Time
}

// NewCookieJar creates an empty jar
func NewCookieJar() *CookieJar {
	return &CookieJar{
		cookies: make(map[string]domain.Cookie),
		removed: make(map[string]domain.Cookie),
		now:     time.Now,
	}
}

// WithClock makes expiry checks use now
func (j *CookieJar) WithClock(now func() time.Time) *CookieJar {
	j.now = now
	return j
}

func (j *CookieJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	if !ok {
		return "", false
	}
	if !c.Expires.IsZero() && !c.Expires.After(j.now()) {
		return "", false
	}
	return c.Value, true
}

func (j *CookieJar) Set(cookie domain.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[cookie.Name] = cookie
}

func (j *CookieJar) Delete(cookie domain.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, cookie.Name)
	j.removed[cookie.Name] = cookie
}

// Removed returns the attributes of the last deletion of name
func (j *CookieJar) Removed(name string) (domain.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.removed[name]
	return c, ok
}

// Cookie returns the stored cookie with its flags
func (j *CookieJar) Cookie(name string) (domain.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	return c, ok
}

// Has reports whether a cookie with the name is stored, expired or not
func (j *CookieJar) Has(name string) bool {
	_, ok := j.Cookie(name)
	return ok
}

var _ domain.CookieJar = (*CookieJar)(nil)
