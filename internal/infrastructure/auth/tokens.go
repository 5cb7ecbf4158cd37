package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/you/lendauth/domain"
)

const (
	IdentityTokenTTL = 30 * time.Minute
	SessionTokenTTL  = 7 * 24 * time.Hour
)

type identityClaims struct {
	Identifier string `json:"identifier"`
	Method     string `json:"method"`
	jwt.RegisteredClaims
}

func (c *identityClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

func (c *identityClaims) Validate() error {
	claim := domain.IdentityClaim{Identifier: c.Identifier, Method: domain.Method(c.Method)}
	if err := claim.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTokenPayloadMalformed, err)
	}
	return nil
}

type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (c *sessionClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }

func (c *sessionClaims) Validate() error {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Subject), 10, 0)
	if err != nil || id == 0 {
		return fmt.Errorf("%w: subject %q is not a user id", domain.ErrTokenPayloadMalformed, c.Subject)
	}
	return nil
}

// IdentityTokens implements domain.IdentityTokenCodec
type IdentityTokens struct {
	env *Envelope[*identityClaims]
}

// NewIdentityTokens creates the codec for pre-registration identity tokens
func NewIdentityTokens(secret string, ttl time.Duration, opts ...Option) *IdentityTokens {
	return &IdentityTokens{
		env: newEnvelope("identity", secret, ttl, func() *identityClaims { return &identityClaims{} }, opts...),
	}
}

func (t *IdentityTokens) Issue(claim domain.IdentityClaim) (domain.IssuedToken, error) {
	if err := claim.Validate(); err != nil {
		return domain.IssuedToken{}, err
	}
	return t.env.Seal(&identityClaims{Identifier: claim.Identifier, Method: string(claim.Method)})
}

func (t *IdentityTokens) Verify(token string) (*domain.IdentityClaim, error) {
	c, err := t.env.Open(token)
	if err != nil {
		return nil, err
	}
	return &domain.IdentityClaim{Identifier: c.Identifier, Method: domain.Method(c.Method)}, nil
}

// SessionTokens implements domain.SessionTokenCodec
type SessionTokens struct {
	env *Envelope[*sessionClaims]
}

// NewSessionTokens creates the codec for session tokens
func NewSessionTokens(secret string, ttl time.Duration, opts ...Option) *SessionTokens {
	return &SessionTokens{
		env: newEnvelope("session", secret, ttl, func() *sessionClaims { return &sessionClaims{} }, opts...),
	}
}

// Issue signs payload. A missing TokenID gets a random one so every token is
// unique and traceable.
func (t *SessionTokens) Issue(payload domain.SessionPayload) (domain.IssuedToken, error) {
	if _, err := payload.UserID(); err != nil {
		return domain.IssuedToken{}, err
	}
	jti := payload.TokenID
	if jti == "" {
		jti = uuid.NewString()
	}
	return t.env.Seal(&sessionClaims{
		Name: payload.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: payload.Subject,
			ID:      jti,
		},
	})
}

func (t *SessionTokens) Verify(token string) (*domain.SessionPayload, error) {
	c, err := t.env.Open(token)
	if err != nil {
		return nil, err
	}
	return &domain.SessionPayload{Subject: c.Subject, Name: c.Name, TokenID: c.ID}, nil
}

var (
	_ domain.IdentityTokenCodec = (*IdentityTokens)(nil)
	_ domain.SessionTokenCodec  = (*SessionTokens)(nil)
)
