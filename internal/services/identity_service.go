package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

// IdentityServiceImpl implements domain.IdentityService. The identity cookie
// only names who is trying to sign in; it never authorizes anything.
type IdentityServiceImpl struct {
	codec   domain.IdentityTokenCodec
	users   domain.UserRepository
	diag    domain.DiagnosticsSink
	cookies CookieOptions
	log     logging.Logger
}

// NewIdentityService creates a new temporary identity service
func NewIdentityService(
	codec domain.IdentityTokenCodec,
	users domain.UserRepository,
	diag domain.DiagnosticsSink,
	cookies CookieOptions,
	log logging.Logger,
) *IdentityServiceImpl {
	return &IdentityServiceImpl{
		codec:   codec,
		users:   users,
		diag:    orNoopSink(diag),
		cookies: cookies,
		log:     log.With("component", "identity"),
	}
}

var _ domain.IdentityService = (*IdentityServiceImpl)(nil)

// NormalizeIdentifier trims the identifier and lower-cases email addresses
func NormalizeIdentifier(identifier string, method domain.Method) string {
	identifier = strings.TrimSpace(identifier)
	if method == domain.MethodEmail {
		identifier = strings.ToLower(identifier)
	}
	return identifier
}

// Begin starts sign-in for identifier: the user is found or created and the
// identity cookie is issued
func (s *IdentityServiceImpl) Begin(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error) {
	identifier = NormalizeIdentifier(identifier, method)
	if err := (domain.IdentityClaim{Identifier: identifier, Method: method}).Validate(); err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionIdentityBegin, err).WithMethod(method))
		return "", err
	}

	user, err := s.findOrCreate(ctx, identifier, method)
	if err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionIdentityBegin, err).WithMethod(method))
		return "", err
	}

	token, err := s.Issue(ctx, jar, identifier, method)
	if err != nil {
		return "", err
	}

	s.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionIdentityBegin, domain.SeverityInfo).
		WithUser(user.ID).
		WithMethod(method))
	return token, nil
}

func (s *IdentityServiceImpl) findOrCreate(ctx context.Context, identifier string, method domain.Method) (*domain.User, error) {
	user, err := s.users.FindByIdentifier(ctx, method, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &domain.User{}
	value := identifier
	if method == domain.MethodEmail {
		user.Email = &value
	} else {
		user.Phone = &value
	}

	if err := s.users.Create(ctx, user); err != nil {
		// a concurrent Begin for the same identifier won the insert
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return s.users.FindByIdentifier(ctx, method, identifier)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info(ctx, "user created", "user_id", user.ID, "method", string(method))
	return user, nil
}

// Issue implements domain.IdentityService
func (s *IdentityServiceImpl) Issue(ctx context.Context, jar domain.CookieJar, identifier string, method domain.Method) (string, error) {
	claim := domain.IdentityClaim{Identifier: identifier, Method: method}
	if err := claim.Validate(); err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionIdentityIssue, err).WithMethod(method))
		return "", err
	}

	issued, err := s.codec.Issue(claim)
	if err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionIdentityIssue, err).WithMethod(method))
		return "", fmt.Errorf("failed to issue identity token: %w", err)
	}

	jar.Set(s.cookies.build(IdentityCookieName, issued.Value, issued.ExpiresAt))
	return issued.Value, nil
}

// Read implements domain.IdentityService. Every failure reads as "no identity".
func (s *IdentityServiceImpl) Read(ctx context.Context, jar domain.CookieJar) *domain.IdentityClaim {
	raw, ok := jar.Get(IdentityCookieName)
	if !ok || raw == "" {
		return nil
	}

	claim, err := s.codec.Verify(raw)
	if err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionIdentityRead, err))
		return nil
	}
	return claim
}

// Check implements domain.IdentityService
func (s *IdentityServiceImpl) Check(ctx context.Context, jar domain.CookieJar) bool {
	return s.Read(ctx, jar) != nil
}

// Clear implements domain.IdentityService
func (s *IdentityServiceImpl) Clear(_ context.Context, jar domain.CookieJar) {
	jar.Delete(s.cookies.removal(IdentityCookieName))
}
