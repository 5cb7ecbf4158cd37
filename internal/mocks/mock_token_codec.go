package mocks

import (
	"time"

	"github.com/you/lendauth/domain"
)

// MockIdentityTokenCodec implements domain.IdentityTokenCodec interface for testing
type MockIdentityTokenCodec struct {
	IssueFunc  func(claim domain.IdentityClaim) (domain.IssuedToken, error)
	VerifyFunc func(token string) (*domain.IdentityClaim, error)
}

func (m *MockIdentityTokenCodec) Issue(claim domain.IdentityClaim) (domain.IssuedToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(claim)
	}
	// Default behavior: opaque token
	return domain.IssuedToken{Value: "identity-token", ExpiresAt: time.Now().Add(30 * time.Minute)}, nil
}

func (m *MockIdentityTokenCodec) Verify(token string) (*domain.IdentityClaim, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// MockSessionTokenCodec implements domain.SessionTokenCodec interface for testing
type MockSessionTokenCodec struct {
	IssueFunc  func(payload domain.SessionPayload) (domain.IssuedToken, error)
	VerifyFunc func(token string) (*domain.SessionPayload, error)
}

func (m *MockSessionTokenCodec) Issue(payload domain.SessionPayload) (domain.IssuedToken, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(payload)
	}
	// Default behavior: opaque token
	return domain.IssuedToken{Value: "session-token-" + payload.Subject, ExpiresAt: time.Now().Add(7 * 24 * time.Hour)}, nil
}

func (m *MockSessionTokenCodec) Verify(token string) (*domain.SessionPayload, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var (
	_ domain.IdentityTokenCodec = (*MockIdentityTokenCodec)(nil)
	_ domain.SessionTokenCodec  = (*MockSessionTokenCodec)(nil)
)
