package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/you/lendauth/domain"
)

// envelopeClaims is implemented by the claim sets an Envelope can carry.
// Validate is invoked by the jwt parser after the signature checks out.
type envelopeClaims interface {
	jwt.Claims
	Validate() error
	registered() *jwt.RegisteredClaims
}

// Option customises an Envelope
type Option func(*envelopeOptions)

type envelopeOptions struct {
	issuer string
	now    func() time.Time
}

// WithIssuer sets the iss claim written and required on verification
func WithIssuer(issuer string) Option {
	return func(o *envelopeOptions) { o.issuer = issuer }
}

// WithClock overrides the clock used for iat/exp and expiry checks
func WithClock(now func() time.Time) Option {
	return func(o *envelopeOptions) { o.now = now }
}

// Envelope is an HMAC-signed, time-bound token carrying claims of type C.
// Each token kind gets its own Envelope with its own secret.
type Envelope[C envelopeClaims] struct {
	kind   string
	secret []byte
	ttl    time.Duration
	blank  func() C
	opts   envelopeOptions
}

func newEnvelope[C envelopeClaims](kind, secret string, ttl time.Duration, blank func() C, opts ...Option) *Envelope[C] {
	o := envelopeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Envelope[C]{
		kind:   kind,
		secret: []byte(secret),
		ttl:    ttl,
		blank:  blank,
		opts:   o,
	}
}

// Seal stamps iat/exp/iss on claims and signs them
func (e *Envelope[C]) Seal(claims C) (domain.IssuedToken, error) {
	now := e.opts.now()
	rc := claims.registered()
	rc.Issuer = e.opts.issuer
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(now.Add(e.ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("failed to sign %s token: %w", e.kind, err)
	}
	return domain.IssuedToken{Value: signed, ExpiresAt: rc.ExpiresAt.Time}, nil
}

// Open verifies signature, expiry and payload schema
func (e *Envelope[C]) Open(token string) (C, error) {
	var zero C
	if token == "" {
		return zero, domain.ErrTokenInvalid
	}

	claims := e.blank()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(e.opts.now),
	}
	if e.opts.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(e.opts.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenInvalid
		}
		return e.secret, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return zero, domain.ErrTokenExpired
		case errors.Is(err, domain.ErrTokenPayloadMalformed):
			return zero, domain.ErrTokenPayloadMalformed
		default:
			return zero, domain.ErrTokenInvalid
		}
	}
	if !parsed.Valid {
		return zero, domain.ErrTokenInvalid
	}
	return claims, nil
}
