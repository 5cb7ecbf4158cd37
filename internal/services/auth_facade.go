package services

import (
	"context"
	"strings"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

// AuthFacade implements domain.Authenticator. Every failure collapses to
// "not authenticated"; no error from the pipeline reaches the caller except
// through CompleteProfile.
type AuthFacade struct {
	sessions domain.SessionService
	users    domain.UserRepository
	diag     domain.DiagnosticsSink
	metrics  Instrumentation
	log      logging.Logger
}

// NewAuthFacade creates the authentication facade
func NewAuthFacade(
	sessions domain.SessionService,
	users domain.UserRepository,
	diag domain.DiagnosticsSink,
	metrics Instrumentation,
	log logging.Logger,
) *AuthFacade {
	return &AuthFacade{
		sessions: sessions,
		users:    users,
		diag:     orNoopSink(diag),
		metrics:  orNoop(metrics),
		log:      log.With("component", "auth"),
	}
}

var _ domain.Authenticator = (*AuthFacade)(nil)

// IsAuthenticated implements domain.Authenticator
func (a *AuthFacade) IsAuthenticated(ctx context.Context, jar domain.CookieJar) bool {
	ok := a.session(ctx, jar) != nil
	a.metrics.AuthCheck(ok)
	return ok
}

// CurrentUser implements domain.Authenticator
func (a *AuthFacade) CurrentUser(ctx context.Context, jar domain.CookieJar) *domain.User {
	user, _ := a.resolve(ctx, jar)
	a.metrics.AuthCheck(user != nil)
	return user
}

func (a *AuthFacade) session(ctx context.Context, jar domain.CookieJar) *domain.Session {
	token, ok := a.sessions.Token(jar)
	if !ok {
		return nil
	}
	return a.sessions.Validate(ctx, token)
}

// resolve runs the full pipeline: cookie, token, session row, touch, user row
func (a *AuthFacade) resolve(ctx context.Context, jar domain.CookieJar) (*domain.User, *domain.Session) {
	session := a.session(ctx, jar)
	if session == nil {
		return nil, nil
	}

	user, err := a.users.FindByID(ctx, session.UserID)
	if err != nil {
		a.diag.Record(ctx, domain.Warning(domain.ActionCurrentUser, err).WithUser(session.UserID))
		return nil, nil
	}
	if err := user.Validate(); err != nil {
		a.diag.Record(ctx, domain.Warning(domain.ActionCurrentUser, err).WithUser(session.UserID))
		return nil, nil
	}
	return user, session
}

// SignOut implements domain.Authenticator. A failed store write is reported
// by the session manager; the cookie is gone either way.
func (a *AuthFacade) SignOut(ctx context.Context, jar domain.CookieJar) domain.SignOutResult {
	user, session := a.resolve(ctx, jar)
	if user == nil {
		return domain.SignOutResult{Success: false, Message: domain.MessageNoUserToSignOut}
	}

	_ = a.sessions.Deactivate(ctx, jar, session.JWTToken)
	a.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionSignOut, domain.SeverityInfo).WithUser(user.ID))
	return domain.SignOutResult{Success: true, Message: domain.MessageSignedOut}
}

// SignOutEverywhere ends every session of the current user
func (a *AuthFacade) SignOutEverywhere(ctx context.Context, jar domain.CookieJar) domain.SignOutResult {
	user, _ := a.resolve(ctx, jar)
	if user == nil {
		return domain.SignOutResult{Success: false, Message: domain.MessageNoUserToSignOut}
	}

	if err := a.sessions.DeactivateAllForUser(ctx, jar, user.ID); err != nil {
		return domain.SignOutResult{Success: false, Message: domain.UserMessage(err)}
	}
	a.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionSignOut, domain.SeverityInfo).
		WithUser(user.ID).
		WithMetadata("scope", "all"))
	return domain.SignOutResult{Success: true, Message: domain.MessageSignedOut}
}

// CompleteProfile sets the name fields that make a user minimally registered
func (a *AuthFacade) CompleteProfile(ctx context.Context, jar domain.CookieJar, firstName, lastName string) (*domain.User, error) {
	user, _ := a.resolve(ctx, jar)
	if user == nil {
		return nil, domain.ErrSessionNotFound
	}

	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		a.diag.Record(ctx, domain.Warning(domain.ActionCompleteProfile, domain.ErrInvalidName).WithUser(user.ID))
		return nil, domain.ErrInvalidName
	}

	if err := a.users.UpdateNames(ctx, user.ID, firstName, lastName); err != nil {
		a.diag.Record(ctx, domain.Warning(domain.ActionCompleteProfile, err).WithUser(user.ID))
		return nil, err
	}
	user.FirstName, user.LastName = &firstName, &lastName
	return user, nil
}
