package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

var codeFormat = regexp.MustCompile(`^[0-9]{4,8}$`)

// OTPConfig controls locally minted email codes
type OTPConfig struct {
	Length int
	TTL    time.Duration
	// Clock defaults to time.Now
	Clock func() time.Time
}

// DefaultOTPConfig is six digits valid for two minutes
func DefaultOTPConfig() OTPConfig {
	return OTPConfig{Length: 6, TTL: 2 * time.Minute}
}

// OTPServiceImpl implements domain.OTPService.
//
// Email codes are minted, stored and checked here. Phone codes belong to the
// external verification channel end to end.
type OTPServiceImpl struct {
	identity domain.IdentityService
	sessions domain.SessionService
	users    domain.UserRepository
	codes    domain.OTPRepository
	phone    domain.PhoneVerifier
	email    domain.EmailSender
	limiter  domain.AttemptLimiter
	diag     domain.DiagnosticsSink
	metrics  Instrumentation
	log      logging.Logger
	config   OTPConfig
}

// NewOTPService creates a new OTP service. limiter may be nil.
func NewOTPService(
	identity domain.IdentityService,
	sessions domain.SessionService,
	users domain.UserRepository,
	codes domain.OTPRepository,
	phone domain.PhoneVerifier,
	email domain.EmailSender,
	limiter domain.AttemptLimiter,
	diag domain.DiagnosticsSink,
	metrics Instrumentation,
	log logging.Logger,
	config OTPConfig,
) *OTPServiceImpl {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &OTPServiceImpl{
		identity: identity,
		sessions: sessions,
		users:    users,
		codes:    codes,
		phone:    phone,
		email:    email,
		limiter:  limiter,
		diag:     orNoopSink(diag),
		metrics:  orNoop(metrics),
		log:      log.With("component", "otp"),
		config:   config,
	}
}

var _ domain.OTPService = (*OTPServiceImpl)(nil)

// Send implements domain.OTPService. Email sends are suppressed while an
// unclaimed code is still valid; phone sends always go to the channel, which
// applies its own rate limits.
func (s *OTPServiceImpl) Send(ctx context.Context, jar domain.CookieJar, locale string) domain.SendResult {
	claim := s.identity.Read(ctx, jar)
	if claim == nil {
		return s.sendFailed(ctx, "", 0, domain.ErrIdentityMissing)
	}

	var result domain.SendResult
	switch claim.Method {
	case domain.MethodPhone:
		result = s.sendPhone(ctx, claim, locale)
	default:
		result = s.sendEmail(ctx, claim)
	}
	if result.Success() {
		s.metrics.OTPSend(claim.Method, result.Outcome)
	}
	return result
}

func (s *OTPServiceImpl) sendPhone(ctx context.Context, claim *domain.IdentityClaim, locale string) domain.SendResult {
	if err := s.phone.SendCode(ctx, claim.Identifier, locale); err != nil {
		return s.sendFailed(ctx, claim.Method, 0, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err))
	}
	return domain.SendResult{Outcome: domain.SendOutcomeSent, Method: claim.Method, Message: "code sent"}
}

func (s *OTPServiceImpl) sendEmail(ctx context.Context, claim *domain.IdentityClaim) domain.SendResult {
	user, err := s.users.FindByIdentifier(ctx, claim.Method, claim.Identifier)
	if err != nil {
		return s.sendFailed(ctx, claim.Method, 0, err)
	}

	now := s.config.Clock().UTC()
	_, err = s.codes.FindAvailable(ctx, user.ID, claim.Method, claim.Identifier, now)
	switch {
	case err == nil:
		return domain.SendResult{Outcome: domain.SendOutcomeAlreadySent, Method: claim.Method, Message: "code already sent"}
	case !errors.Is(err, domain.ErrOTPNotFound):
		return s.sendFailed(ctx, claim.Method, user.ID, fmt.Errorf("failed to check pending codes: %w", err))
	}

	code, err := generateCode(s.config.Length)
	if err != nil {
		return s.sendFailed(ctx, claim.Method, user.ID, err)
	}

	otp := &domain.OneTimeCode{
		UserID:     user.ID,
		Method:     claim.Method,
		Identifier: claim.Identifier,
		Code:       code,
		ExpiresAt:  now.Add(s.config.TTL),
		CreatedAt:  now,
	}
	if err := s.codes.Create(ctx, otp); err != nil {
		return s.sendFailed(ctx, claim.Method, user.ID, fmt.Errorf("failed to store code: %w", err))
	}

	if err := s.email.SendCode(ctx, claim.Identifier, code); err != nil {
		// an undelivered code must not suppress the next send
		if expErr := s.codes.Expire(ctx, otp.ID, now); expErr != nil {
			s.log.Error(ctx, "failed to expire undelivered code", "otp_id", otp.ID, "error", expErr)
		}
		return s.sendFailed(ctx, claim.Method, user.ID, fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err))
	}

	s.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionOTPSend, domain.SeverityInfo).
		WithUser(user.ID).
		WithMethod(claim.Method).
		WithMetadata("otp_id", otp.ID))
	return domain.SendResult{Outcome: domain.SendOutcomeSent, Method: claim.Method, Message: "code sent"}
}

func (s *OTPServiceImpl) sendFailed(ctx context.Context, method domain.Method, userID uint, err error) domain.SendResult {
	s.diag.Record(ctx, domain.Warning(domain.ActionOTPSend, err).WithUser(userID).WithMethod(method))
	s.metrics.OTPSend(method, domain.SendOutcomeFailed)
	return domain.SendFailed(method, err)
}

// Verify implements domain.OTPService
func (s *OTPServiceImpl) Verify(ctx context.Context, jar domain.CookieJar, code string, meta domain.RequestMetadata) domain.VerifyResult {
	if !codeFormat.MatchString(code) {
		return s.verifyFailed(ctx, "", 0, domain.ErrInvalidCodeFormat)
	}

	claim := s.identity.Read(ctx, jar)
	if claim == nil {
		return s.verifyFailed(ctx, "", 0, domain.ErrIdentityMissing)
	}

	limitKey := attemptKey(claim, meta.IPAddress)
	if !s.allow(ctx, limitKey, claim.Method) {
		return s.verifyFailed(ctx, claim.Method, 0, domain.ErrTooManyAttempts)
	}

	user, err := s.users.FindByIdentifier(ctx, claim.Method, claim.Identifier)
	if err != nil {
		return s.verifyFailed(ctx, claim.Method, 0, err)
	}

	var otpID *uint
	switch claim.Method {
	case domain.MethodPhone:
		if err := s.checkPhone(ctx, claim.Identifier, code); err != nil {
			return s.verifyFailed(ctx, claim.Method, user.ID, err)
		}
	default:
		otp, err := s.codes.FindLatestMatching(ctx, user.ID, claim.Method, claim.Identifier, code, s.config.Clock().UTC())
		if err != nil {
			if errors.Is(err, domain.ErrOTPNotFound) {
				err = domain.ErrInvalidOrExpiredCode
			}
			return s.verifyFailed(ctx, claim.Method, user.ID, err)
		}
		otpID = &otp.ID
	}

	// the session insert is the atomic claim on the code
	session, err := s.sessions.Create(ctx, jar, user, otpID, meta)
	if err != nil {
		return s.verifyFailed(ctx, claim.Method, user.ID, err)
	}

	s.identity.Clear(ctx, jar)
	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, limitKey); err != nil {
			s.diag.Record(ctx, domain.Warning(domain.ActionOTPVerify, err).WithUser(user.ID))
		}
	}

	s.metrics.OTPVerify(claim.Method, true)
	s.diag.Record(ctx, domain.NewDiagnosticEvent(domain.ActionOTPVerify, domain.SeverityInfo).
		WithUser(user.ID).
		WithMethod(claim.Method))

	summary := session.Summary()
	info := user.Info()
	return domain.VerifyResult{Session: &summary, User: &info, Message: "verified"}
}

func (s *OTPServiceImpl) checkPhone(ctx context.Context, destination, code string) error {
	check, err := s.phone.CheckCode(ctx, destination, code)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrChannelUnavailable, err)
	}
	if check == nil || !check.Success {
		return domain.ErrInvalidOrExpiredCode
	}
	return nil
}

// attemptKey scopes wrong-code attempts to the identifier and the client
// address, so guesses from one client cannot lock the owner out elsewhere
func attemptKey(claim *domain.IdentityClaim, ip string) string {
	key := string(claim.Method) + ":" + claim.Identifier
	if ip != "" {
		key += "@" + ip
	}
	return key
}

// allow fails open when the limiter itself is unavailable
func (s *OTPServiceImpl) allow(ctx context.Context, key string, method domain.Method) bool {
	if s.limiter == nil {
		return true
	}
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.diag.Record(ctx, domain.Warning(domain.ActionOTPVerify, err).WithMethod(method).WithMetadata("limiter", "unavailable"))
		return true
	}
	return ok
}

func (s *OTPServiceImpl) verifyFailed(ctx context.Context, method domain.Method, userID uint, err error) domain.VerifyResult {
	s.diag.Record(ctx, domain.Warning(domain.ActionOTPVerify, err).WithUser(userID).WithMethod(method))
	s.metrics.OTPVerify(method, false)
	return domain.VerifyFailed(err)
}

// generateCode returns length decimal digits drawn from crypto/rand
func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}
