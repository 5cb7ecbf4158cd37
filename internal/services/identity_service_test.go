package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
	"github.com/you/lendauth/internal/mocks"
)

func TestIdentityService_IssueThenRead(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		identifier string
		method     domain.Method
	}{
		{"ada@example.com", domain.MethodEmail},
		{"+15550100", domain.MethodPhone},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			jar := h.jar()
			token, err := h.identity.Issue(ctx, jar, tt.identifier, tt.method)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claim := h.identity.Read(ctx, jar)
			require.NotNil(t, claim)
			assert.Equal(t, tt.identifier, claim.Identifier)
			assert.Equal(t, tt.method, claim.Method)
			assert.True(t, h.identity.Check(ctx, jar))

			cookie, ok := jar.Cookie(IdentityCookieName)
			require.True(t, ok)
			assert.Equal(t, token, cookie.Value)
			assert.True(t, cookie.HTTPOnly)
			assert.Equal(t, domain.SameSiteLax, cookie.SameSite)
			assert.Equal(t, "/", cookie.Path)
			assert.True(t, cookie.Expires.Equal(h.clock.Now().Add(30*time.Minute)), "cookie expires with the token")
		})
	}
}

func TestIdentityService_IssueValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jar := h.jar()

	_, err := h.identity.Issue(ctx, jar, "   ", domain.MethodEmail)
	assert.ErrorIs(t, err, domain.ErrInvalidIdentifier)

	_, err = h.identity.Issue(ctx, jar, "ada@example.com", domain.Method("fax"))
	assert.ErrorIs(t, err, domain.ErrInvalidMethod)

	assert.False(t, jar.Has(IdentityCookieName))
}

func TestIdentityService_ReadExpired(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jar := h.jar()

	_, err := h.identity.Issue(ctx, jar, "ada@example.com", domain.MethodEmail)
	require.NoError(t, err)

	// replay the token after the browser would have dropped it
	stale := h.copyJar(jar, IdentityCookieName)
	cookie, _ := stale.Cookie(IdentityCookieName)
	cookie.Expires = time.Time{}
	stale.Set(cookie)

	h.clock.Advance(30*time.Minute + time.Second)
	assert.Nil(t, h.identity.Read(ctx, stale))
	assert.Equal(t, 1, h.diag.Count(domain.ActionIdentityRead, domain.SeverityWarning))
}

func TestIdentityService_ReadFailuresAreSilent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	jar := h.jar()
	assert.Nil(t, h.identity.Read(ctx, jar), "absent cookie reads as no identity")
	assert.Empty(t, h.diag.Events(), "absence is not an exceptional path")

	jar.Set(domain.Cookie{Name: IdentityCookieName, Value: "not-a-token"})
	assert.Nil(t, h.identity.Read(ctx, jar))
	assert.False(t, h.identity.Check(ctx, jar))
	assert.Equal(t, 2, h.diag.Count(domain.ActionIdentityRead, domain.SeverityWarning))
}

func TestIdentityService_Clear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	jar := h.jar()

	h.identity.Clear(ctx, jar)
	_, err := h.identity.Issue(ctx, jar, "ada@example.com", domain.MethodEmail)
	require.NoError(t, err)

	h.identity.Clear(ctx, jar)
	h.identity.Clear(ctx, jar)
	assert.False(t, jar.Has(IdentityCookieName))
	assert.Nil(t, h.identity.Read(ctx, jar))
}

func TestIdentityService_BeginCreatesUserOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.identity.Begin(ctx, h.jar(), "  Ada@Example.com ", domain.MethodEmail)
	require.NoError(t, err)
	_, err = h.identity.Begin(ctx, h.jar(), "ada@example.com", domain.MethodEmail)
	require.NoError(t, err)

	assert.Equal(t, int64(1), h.countRows(t, "users"))
	user, err := h.users.FindByIdentifier(ctx, domain.MethodEmail, "ada@example.com")
	require.NoError(t, err)
	assert.Nil(t, user.Phone)
	assert.False(t, user.IsMinimallyRegistered())

	_, err = h.identity.Begin(ctx, h.jar(), "+15550100", domain.MethodPhone)
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.countRows(t, "users"))
}

func TestIdentityService_BeginRepositoryFailure(t *testing.T) {
	users := mocks.NewMockUserRepository()
	users.FindByIdentifierFunc = func(context.Context, domain.Method, string) (*domain.User, error) {
		return nil, errors.New("connection refused")
	}
	diag := mocks.NewDiagnosticsRecorder()
	svc := NewIdentityService(&mocks.MockIdentityTokenCodec{}, users, diag, CookieOptions{}, logging.Discard())

	jar := mocks.NewCookieJar()
	_, err := svc.Begin(context.Background(), jar, "ada@example.com", domain.MethodEmail)
	require.Error(t, err)
	assert.False(t, jar.Has(IdentityCookieName))
	assert.Equal(t, 1, diag.Count(domain.ActionIdentityBegin, domain.SeverityWarning))
}

func TestIdentityService_BeginLosesCreateRace(t *testing.T) {
	existing := &domain.User{ID: 9, Email: strPtr("ada@example.com")}
	calls := 0
	users := mocks.NewMockUserRepository()
	users.FindByIdentifierFunc = func(context.Context, domain.Method, string) (*domain.User, error) {
		calls++
		if calls == 1 {
			return nil, domain.ErrUserNotFound
		}
		return existing, nil
	}
	users.CreateFunc = func(context.Context, *domain.User) error { return domain.ErrUserAlreadyExists }

	svc := NewIdentityService(&mocks.MockIdentityTokenCodec{}, users, nil, CookieOptions{Secure: true}, logging.Discard())
	jar := mocks.NewCookieJar()
	_, err := svc.Begin(context.Background(), jar, "ada@example.com", domain.MethodEmail)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	cookie, ok := jar.Cookie(IdentityCookieName)
	require.True(t, ok)
	assert.True(t, cookie.Secure)
}

func strPtr(s string) *string { return &s }
