package mocks

import (
	"context"

	"github.com/you/lendauth/domain"
)

// MockIdentityService implements domain.IdentityService interface for testing
type MockIdentityService struct {
	BeginFunc func(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error)
	IssueFunc func(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error)
	ReadFunc  func(ctx context.Context, jar domain.CookieJar) *domain.IdentityClaim
	CheckFunc func(ctx context.Context, jar domain.CookieJar) bool
	ClearFunc func(ctx context.Context, jar domain.CookieJar)
}

func (m *MockIdentityService) Begin(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, jar, identifier, method)
	}
	return "identity-token", nil
}

func (m *MockIdentityService) Issue(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, jar, identifier, method)
	}
	return "identity-token", nil
}

func (m *MockIdentityService) Read(ctx context.Context, jar domain.CookieJar) *domain.IdentityClaim {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, jar)
	}
	return nil
}

func (m *MockIdentityService) Check(ctx context.Context, jar domain.CookieJar) bool {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, jar)
	}
	return false
}

func (m *MockIdentityService) Clear(ctx context.Context, jar domain.CookieJar) {
	if m.ClearFunc != nil {
		m.ClearFunc(ctx, jar)
	}
}

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	SendFunc   func(ctx context.Context, jar domain.CookieJar, locale string) domain.SendResult
	VerifyFunc func(ctx context.Context, jar domain.CookieJar, code string, meta domain.RequestMetadata) domain.VerifyResult
}

func (m *MockOTPService) Send(ctx context.Context, jar domain.CookieJar, locale string) domain.SendResult {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, jar, locale)
	}
	return domain.SendFailed("", domain.ErrIdentityMissing)
}

func (m *MockOTPService) Verify(ctx context.Context, jar domain.CookieJar, code string, meta domain.RequestMetadata) domain.VerifyResult {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, jar, code, meta)
	}
	return domain.VerifyFailed(domain.ErrIdentityMissing)
}

// MockSessionService implements domain.SessionService interface for testing
type MockSessionService struct {
	CreateFunc               func(ctx context.Context, jar domain.CookieJar, user *domain.User, otpID *uint, meta domain.RequestMetadata) (*domain.Session, error)
	ValidateFunc             func(ctx context.Context, token string) *domain.Session
	DeactivateFunc           func(ctx context.Context, jar domain.CookieJar, token string) error
	DeactivateAllForUserFunc func(ctx context.Context, jar domain.CookieJar, userID uint) error
	ListActiveFunc           func(ctx context.Context, userID uint) ([]*domain.Session, error)
}

func (m *MockSessionService) Create(ctx context.Context, jar domain.CookieJar, user *domain.User, otpID *uint, meta domain.RequestMetadata) (*domain.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, jar, user, otpID, meta)
	}
	return &domain.Session{ID: 1, UserID: user.ID}, nil
}

func (m *MockSessionService) Validate(ctx context.Context, token string) *domain.Session {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return nil
}

func (m *MockSessionService) Deactivate(ctx context.Context, jar domain.CookieJar, token string) error {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, jar, token)
	}
	return nil
}

func (m *MockSessionService) DeactivateAllForUser(ctx context.Context, jar domain.CookieJar, userID uint) error {
	if m.DeactivateAllForUserFunc != nil {
		return m.DeactivateAllForUserFunc(ctx, jar, userID)
	}
	return nil
}

func (m *MockSessionService) ListActive(ctx context.Context, userID uint) ([]*domain.Session, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockSessionService) Token(jar domain.CookieJar) (string, bool) {
	v, ok := jar.Get("lend_session")
	return v, ok && v != ""
}

// MockAuthenticator implements domain.Authenticator interface for testing
type MockAuthenticator struct {
	IsAuthenticatedFunc   func(ctx context.Context, jar domain.CookieJar) bool
	CurrentUserFunc       func(ctx context.Context, jar domain.CookieJar) *domain.User
	SignOutFunc           func(ctx context.Context, jar domain.CookieJar) domain.SignOutResult
	SignOutEverywhereFunc func(ctx context.Context, jar domain.CookieJar) domain.SignOutResult
	CompleteProfileFunc   func(ctx context.Context, jar domain.CookieJar, firstName, lastName string) (*domain.User, error)
}

func (m *MockAuthenticator) IsAuthenticated(ctx context.Context, jar domain.CookieJar) bool {
	if m.IsAuthenticatedFunc != nil {
		return m.IsAuthenticatedFunc(ctx, jar)
	}
	return m.CurrentUser(ctx, jar) != nil
}

func (m *MockAuthenticator) CurrentUser(ctx context.Context, jar domain.CookieJar) *domain.User {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, jar)
	}
	// Default behavior: anonymous
	return nil
}

func (m *MockAuthenticator) SignOut(ctx context.Context, jar domain.CookieJar) domain.SignOutResult {
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, jar)
	}
	return domain.SignOutResult{Message: domain.MessageNoUserToSignOut}
}

func (m *MockAuthenticator) SignOutEverywhere(ctx context.Context, jar domain.CookieJar) domain.SignOutResult {
	if m.SignOutEverywhereFunc != nil {
		return m.SignOutEverywhereFunc(ctx, jar)
	}
	return domain.SignOutResult{Message: domain.MessageNoUserToSignOut}
}

func (m *MockAuthenticator) CompleteProfile(ctx context.Context, jar domain.CookieJar, firstName, lastName string) (*domain.User, error) {
	if m.CompleteProfileFunc != nil {
		return m.CompleteProfileFunc(ctx, jar, firstName, lastName)
	}
	return nil, domain.ErrSessionNotFound
}

// Compile-time interface compliance verification
var (
	_ domain.IdentityService = (*MockIdentityService)(nil)
	_ domain.OTPService      = (*MockOTPService)(nil)
	_ domain.SessionService  = (*MockSessionService)(nil)
	_ domain.Authenticator   = (*MockAuthenticator)(nil)
)
