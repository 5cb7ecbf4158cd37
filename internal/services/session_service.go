package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

// SessionServiceImpl implements domain.SessionService.
//
// A session is live while its row is not force-deactivated, its expiry is in
// the future and its token still verifies. Rows are never deleted.
type SessionServiceImpl struct {
	codec    domain.SessionTokenCodec
	sessions domain.SessionRepository
	diag     domain.DiagnosticsSink
	metrics  Instrumentation
	cookies  CookieOptions
	log      logging.Logger
	now      func() time.Time
}

// NewSessionService creates a new session lifecycle manager. now may be nil.
func NewSessionService(
	codec domain.SessionTokenCodec,
	sessions domain.SessionRepository,
	diag domain.DiagnosticsSink,
	metrics Instrumentation,
	cookies CookieOptions,
	log logging.Logger,
	now func() time.Time,
) *SessionServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &SessionServiceImpl{
		codec:    codec,
		sessions: sessions,
		diag:     orNoopSink(diag),
		metrics:  orNoop(metrics),
		cookies:  cookies,
		log:      log.With("component", "session"),
		now:      now,
	}
}

var _ domain.SessionService = (*SessionServiceImpl)(nil)

// Create implements domain.SessionService. It is the only way a session
// comes into existence.
func (s *SessionServiceImpl) Create(ctx context.Context, jar domain.CookieJar, user *domain.User, otpID *uint, meta domain.RequestMetadata) (*domain.Session, error) {
	if err := user.Validate(); err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionCreate, err))
		return nil, err
	}

	issued, err := s.codec.Issue(domain.SessionPayload{
		Subject: strconv.FormatUint(uint64(user.ID), 10),
		Name:    user.DisplayName(),
	})
	if err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionCreate, err).WithUser(user.ID))
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	now := s.now().UTC()
	session := &domain.Session{
		UserID:     user.ID,
		JWTToken:   issued.Value,
		OTPID:      otpID,
		ExpiresAt:  issued.ExpiresAt.UTC(),
		LastActive: now,
		UserAgent:  meta.UserAgent,
		IPAddress:  meta.IPAddress,
		DeviceInfo: meta.DeviceInfo,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionCreate, err).WithUser(user.ID))
		if errors.Is(err, domain.ErrCodeAlreadyUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	jar.Set(s.cookies.build(SessionCookieName, issued.Value, issued.ExpiresAt))
	s.metrics.SessionEvent(SessionCreated)
	s.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionSessionCreate, domain.SeverityInfo).
		WithUser(user.ID).
		WithMetadata("session_id", session.ID))
	return session, nil
}

// Validate implements domain.SessionService. It refreshes last_active as a
// side effect; concurrent refreshes are last-writer-wins.
func (s *SessionServiceImpl) Validate(ctx context.Context, token string) *domain.Session {
	session, err := s.validate(ctx, token)
	if err != nil {
		s.metrics.SessionEvent(SessionRejected)
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionValidate, err))
		return nil
	}
	s.metrics.SessionEvent(SessionValidated)
	return session
}

func (s *SessionServiceImpl) validate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	payload, err := s.codec.Verify(token)
	if err != nil {
		return nil, err
	}
	userID, err := payload.UserID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session, err := s.sessions.FindActiveByToken(ctx, token, now)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: subject does not own session", domain.ErrTokenPayloadMalformed)
	}

	if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionValidate, fmt.Errorf("%w: %v", domain.ErrSessionUpdateFailed, err)).
			WithUser(session.UserID).
			WithMetadata("session_id", session.ID))
		return session, nil
	}
	session.LastActive = now
	return session, nil
}

// Deactivate implements domain.SessionService. The cookie is cleared whether
// or not the store write succeeds.
func (s *SessionServiceImpl) Deactivate(ctx context.Context, jar domain.CookieJar, token string) error {
	jar.Delete(s.cookies.removal(SessionCookieName))
	if token == "" {
		return nil
	}

	n, err := s.sessions.DeactivateByToken(ctx, token)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrSessionUpdateFailed, err)
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionDeactivate, err))
		s.log.Error(ctx, "failed to deactivate session", "error", err)
		return err
	}
	if n > 0 {
		s.metrics.SessionEvent(SessionDeactivated)
	}
	return nil
}

// DeactivateAllForUser ends every session of userID and clears this client's cookie
func (s *SessionServiceImpl) DeactivateAllForUser(ctx context.Context, jar domain.CookieJar, userID uint) error {
	jar.Delete(s.cookies.removal(SessionCookieName))

	n, err := s.sessions.DeactivateByUser(ctx, userID)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrSessionUpdateFailed, err)
		s.diag.Record(ctx, domain.Warning(domain.ActionSessionDeactivate, err).WithUser(userID))
		s.log.Error(ctx, "failed to deactivate user sessions", "user_id", userID, "error", err)
		return err
	}

	s.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionSessionDeactivate, domain.SeverityInfo).
		WithUser(userID).
		WithMetadata("sessions", n))
	if n > 0 {
		s.metrics.SessionEvent(SessionDeactivated)
	}
	return nil
}

// ListActive returns the user's live sessions, most recently active first
func (s *SessionServiceImpl) ListActive(ctx context.Context, userID uint) ([]*domain.Session, error) {
	return s.sessions.ListActiveByUser(ctx, userID, s.now().UTC())
}

// Token returns the session cookie value
func (s *SessionServiceImpl) Token(jar domain.CookieJar) (string, bool) {
	v, ok := jar.Get(SessionCookieName)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
