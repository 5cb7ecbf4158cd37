package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByIdentifier(ctx context.Context, method Method, identifier string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	UpdateNames(ctx context.Context, id uint, firstName, lastName string) error
}

// OTPRepository defines one-time code data access operations
type OTPRepository interface {
	Create(ctx context.Context, otp *OneTimeCode) error
	// FindAvailable returns an unexpired code for the triple that no session references
	FindAvailable(ctx context.Context, userID uint, method Method, identifier string, now time.Time) (*OneTimeCode, error)
	// FindLatestMatching returns the newest unexpired code equal to code, used or not
	FindLatestMatching(ctx context.Context, userID uint, method Method, identifier, code string, now time.Time) (*OneTimeCode, error)
	// Expire moves the code's expiry to at, used when delivery fails
	Expire(ctx context.Context, id uint, at time.Time) error
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	// Create persists the session. When OTPID is set the claim on the code is
	// atomic and a second claim fails with ErrCodeAlreadyUsed.
	Create(ctx context.Context, session *Session) error
	FindActiveByToken(ctx context.Context, token string, now time.Time) (*Session, error)
	FindByOTPID(ctx context.Context, otpID uint) (*Session, error)
	Touch(ctx context.Context, sessionID uint, at time.Time) error
	DeactivateByToken(ctx context.Context, token string) (int64, error)
	DeactivateByUser(ctx context.Context, userID uint) (int64, error)
	ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*Session, error)
}

// IssuedToken is a signed token together with its expiry
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// IdentityTokenCodec signs and verifies temporary identity tokens
type IdentityTokenCodec interface {
	Issue(claim IdentityClaim) (IssuedToken, error)
	Verify(token string) (*IdentityClaim, error)
}

// SessionTokenCodec signs and verifies session tokens
type SessionTokenCodec interface {
	Issue(payload SessionPayload) (IssuedToken, error)
	Verify(token string) (*SessionPayload, error)
}

// VerificationCheck is the verdict of the external phone channel
type VerificationCheck struct {
	Success bool
	Message string
}

// PhoneVerifier is the external channel that owns phone codes end to end
type PhoneVerifier interface {
	SendCode(ctx context.Context, destination, locale string) error
	CheckCode(ctx context.Context, destination, code string) (*VerificationCheck, error)
}

// EmailSender delivers email codes
type EmailSender interface {
	SendCode(ctx context.Context, destination, code string) error
}

// AttemptLimiter bounds repeated operations per key
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Cookie is a named cookie with its flags
type Cookie struct {
	Name     string
	Value    string
	Expires  time.Time
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite SameSite
}

// SameSite mirrors the cookie SameSite attribute
type SameSite int

const (
	SameSiteDefault SameSite = iota
	SameSiteLax
	SameSiteStrict
	SameSiteNone
)

// CookieJar is the request-scoped cookie capability handed to the pipeline.
// Delete expires the named cookie using the given attributes so the removal
// matches the cookie that was set.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(cookie Cookie)
	Delete(cookie Cookie)
}

// IdentityService manages the temporary identity cookie
type IdentityService interface {
	Begin(ctx context.Context, jar CookieJar, identifier string, method Method) (string, error)
	Issue(ctx context.Context, jar CookieJar, identifier string, method Method) (string, error)
	Read(ctx context.Context, jar CookieJar) *IdentityClaim
	Check(ctx context.Context, jar CookieJar) bool
	Clear(ctx context.Context, jar CookieJar)
}

// OTPService defines OTP operations
type OTPService interface {
	Send(ctx context.Context, jar CookieJar, locale string) SendResult
	Verify(ctx context.Context, jar CookieJar, code string, meta RequestMetadata) VerifyResult
}

// SessionService manages the session lifecycle
type SessionService interface {
	Create(ctx context.Context, jar CookieJar, user *User, otpID *uint, meta RequestMetadata) (*Session, error)
	Validate(ctx context.Context, token string) *Session
	Deactivate(ctx context.Context, jar CookieJar, token string) error
	DeactivateAllForUser(ctx context.Context, jar CookieJar, userID uint) error
	ListActive(ctx context.Context, userID uint) ([]*Session, error)
	Token(jar CookieJar) (string, bool)
}

// Authenticator is the facade every protected surface calls
type Authenticator interface {
	IsAuthenticated(ctx context.Context, jar CookieJar) bool
	CurrentUser(ctx context.Context, jar CookieJar) *User
	SignOut(ctx context.Context, jar CookieJar) SignOutResult
	SignOutEverywhere(ctx context.Context, jar CookieJar) SignOutResult
	CompleteProfile(ctx context.Context, jar CookieJar, firstName, lastName string) (*User, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
