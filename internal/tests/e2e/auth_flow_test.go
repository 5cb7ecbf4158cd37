package e2e

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/services"
)

// signIn runs the email flow in b and returns the verify response
func signIn(t *testing.T, ts *TestServer, b *Browser, email string) *Response {
	t.Helper()
	resp := b.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": email, "method": "email"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error())
	resp = b.Do(http.MethodPost, "/auth/otp/send", nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Error())

	sent := ts.Email.Sent()
	require.NotEmpty(t, sent)
	resp = b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": sent[len(sent)-1].Code})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error())
	return resp
}

func TestE2E_EmailSignIn(t *testing.T) {
	ts := NewTestServer(t)
	b := ts.NewBrowser(t)

	resp := b.Do(http.MethodGet, "/auth/status", nil)
	assert.Equal(t, false, resp.Data()["authenticated"])
	resp = b.Do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	resp = b.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": " Ada@Example.com ", "method": "email"})
	require.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, b.Cookie(services.IdentityCookieName))
	assert.Equal(t, true, b.Do(http.MethodGet, "/auth/identity", nil).Data()["in_progress"])

	resp = b.Do(http.MethodPost, "/auth/otp/send", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, string(domain.SendOutcomeSent), resp.Data()["outcome"])

	// a second send while the code is live reuses it
	resp = b.Do(http.MethodPost, "/auth/otp/send", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, string(domain.SendOutcomeAlreadySent), resp.Data()["outcome"])

	sent := ts.Email.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].Destination)

	resp = b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": sent[0].Code})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error())
	user := resp.Data()["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, false, user["minimally_registered"])
	assert.Nil(t, b.Cookie(services.IdentityCookieName), "identity cookie cleared after sign-in")
	require.NotNil(t, b.Cookie(services.SessionCookieName))

	resp = b.Do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, user["id"], resp.Data()["id"])

	resp = b.Do(http.MethodPut, "/auth/me/profile", map[string]string{"first_name": "Ada", "last_name": "Lovelace"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, true, resp.Data()["minimally_registered"])
}

func TestE2E_SessionCookieFlags(t *testing.T) {
	// lifetimes are fixed; a stray environment override has no effect
	t.Setenv("SESSION_TOKEN_TTL", "1m")
	t.Setenv("IDENTITY_TOKEN_TTL", "1m")
	ts := NewTestServer(t)
	b := ts.NewBrowser(t)

	b.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": "ada@example.com", "method": "email"})
	b.Do(http.MethodPost, "/auth/otp/send", nil)
	resp := b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": ts.Email.Sent()[0].Code})
	require.Equal(t, http.StatusOK, resp.Status)

	var session *http.Cookie
	for _, c := range resp.Cookies {
		if c.Name == services.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)
	assert.Equal(t, "/", session.Path)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), float64(session.MaxAge), 60)
	assert.NotContains(t, resp.Body, "token", "tokens never appear in bodies")
}

// A successful verify clears the identity cookie, so replaying the code from
// the same browser fails on the missing identity. The replay that reaches
// the code-reuse check needs a second client holding a copy of the identity
// cookie taken before the first verify.
func TestE2E_CodeIsSingleUse(t *testing.T) {
	ts := NewTestServer(t)
	first := ts.NewBrowser(t)
	second := ts.NewBrowser(t)

	first.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": "ada@example.com", "method": "email"})
	first.Do(http.MethodPost, "/auth/otp/send", nil)
	first.CopyCookies(second)
	code := ts.Email.Sent()[0].Code

	resp := first.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = second.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, domain.UserMessage(domain.ErrCodeAlreadyUsed), resp.Error())
	assert.Equal(t, http.StatusUnauthorized, second.Do(http.MethodGet, "/auth/me", nil).Status)

	resp = first.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, domain.UserMessage(domain.ErrIdentityMissing), resp.Error())
}

func TestE2E_WrongCodeAndAttemptLimit(t *testing.T) {
	ts := NewTestServer(t)
	b := ts.NewBrowser(t)

	b.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": "ada@example.com", "method": "email"})
	b.Do(http.MethodPost, "/auth/otp/send", nil)
	code := ts.Email.Sent()[0].Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	resp := b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": "12"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	limit := ts.Container.Config.OTPMaxAttempts
	for i := 0; i < limit; i++ {
		resp = b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": wrong})
		require.Equal(t, http.StatusBadRequest, resp.Status)
	}

	resp = b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": code})
	assert.Equal(t, http.StatusTooManyRequests, resp.Status, "even the right code is refused once limited")
}

func TestE2E_PhoneSignIn(t *testing.T) {
	ts := NewTestServer(t)
	b := ts.NewBrowser(t)

	resp := b.Do(http.MethodPost, "/auth/identity", map[string]string{"identifier": "+15550100", "method": "phone"})
	require.Equal(t, http.StatusOK, resp.Status)
	resp = b.Do(http.MethodPost, "/auth/otp/send", map[string]string{"locale": "es"})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, ts.Email.Sent())

	resp = b.Do(http.MethodPost, "/auth/otp/verify", map[string]string{"code": "424242"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Error())
	assert.Equal(t, "+15550100", resp.Data()["user"].(map[string]interface{})["phone"])
	assert.Equal(t, http.StatusOK, b.Do(http.MethodGet, "/auth/me", nil).Status)
}

func TestE2E_SignOut(t *testing.T) {
	ts := NewTestServer(t)
	b := ts.NewBrowser(t)
	signIn(t, ts, b, "ada@example.com")

	replay := ts.NewBrowser(t)
	b.CopyCookies(replay)

	resp := b.Do(http.MethodPost, "/auth/signout", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Nil(t, b.Cookie(services.SessionCookieName))
	assert.Equal(t, http.StatusUnauthorized, b.Do(http.MethodGet, "/auth/me", nil).Status)

	// the copied token still verifies but its row is deactivated
	assert.Equal(t, http.StatusUnauthorized, replay.Do(http.MethodGet, "/auth/me", nil).Status)

	resp = b.Do(http.MethodPost, "/auth/signout", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, domain.MessageNoUserToSignOut, resp.Error())
}

func TestE2E_SignOutEverywhere(t *testing.T) {
	ts := NewTestServer(t)
	laptop := ts.NewBrowser(t)
	phone := ts.NewBrowser(t)
	signIn(t, ts, laptop, "ada@example.com")
	signIn(t, ts, phone, "ada@example.com")

	resp := phone.Do(http.MethodGet, "/auth/sessions", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.Body["data"], 2)

	resp = phone.Do(http.MethodPost, "/auth/signout/all", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, http.StatusUnauthorized, laptop.Do(http.MethodGet, "/auth/me", nil).Status)
	assert.Equal(t, http.StatusUnauthorized, phone.Do(http.MethodGet, "/auth/me", nil).Status)
}
