package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/infrastructure/auth"
	"github.com/you/lendauth/internal/infrastructure/ratelimit"
	"github.com/you/lendauth/internal/infrastructure/repositories"
	"github.com/you/lendauth/internal/logging"
	"github.com/you/lendauth/internal/mocks"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// harness wires the real pipeline over SQLite, miniredis and mock channels
type harness struct {
	db          *gorm.DB
	clock       *testClock
	users       domain.UserRepository
	codes       domain.OTPRepository
	sessionRepo domain.SessionRepository
	phone       *mocks.MockPhoneVerifier
	email       *mocks.MockEmailSender
	diag        *mocks.DiagnosticsRecorder
	redis       *miniredis.Miniredis

	identity *IdentityServiceImpl
	sessions *SessionServiceImpl
	otp      *OTPServiceImpl
	auth     *AuthFacade
}

const testMaxAttempts = 10

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(repositories.Models()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := &harness{
		db:          db,
		clock:       &testClock{t: time.Now().UTC().Truncate(time.Second)},
		users:       repositories.NewUserRepository(db),
		codes:       repositories.NewOTPRepository(db),
		sessionRepo: repositories.NewSessionRepository(db),
		phone:       mocks.NewMockPhoneVerifier(),
		email:       mocks.NewMockEmailSender(),
		diag:        mocks.NewDiagnosticsRecorder(),
		redis:       mr,
	}

	log := logging.Discard()
	identityCodec := auth.NewIdentityTokens("identity-secret", auth.IdentityTokenTTL, auth.WithClock(h.clock.Now))
	sessionCodec := auth.NewSessionTokens("session-secret", auth.SessionTokenTTL, auth.WithClock(h.clock.Now))
	limiter := ratelimit.NewFixedWindow(rdb, "otpv", testMaxAttempts, 10*time.Minute)

	h.identity = NewIdentityService(identityCodec, h.users, h.diag, CookieOptions{}, log)
	h.sessions = NewSessionService(sessionCodec, h.sessionRepo, h.diag, nil, CookieOptions{}, log, h.clock.Now)
	h.otp = NewOTPService(h.identity, h.sessions, h.users, h.codes, h.phone, h.email, limiter, h.diag, nil, log,
		OTPConfig{Length: 6, TTL: 2 * time.Minute, Clock: h.clock.Now})
	h.auth = NewAuthFacade(h.sessions, h.users, h.diag, nil, log)
	return h
}

func (h *harness) jar() *mocks.CookieJar {
	return mocks.NewCookieJar().WithClock(h.clock.Now)
}

// copyJar clones the cookies of src, like a second tab or a replayed request
func (h *harness) copyJar(src *mocks.CookieJar, names ...string) *mocks.CookieJar {
	dst := h.jar()
	for _, n := range names {
		if c, ok := src.Cookie(n); ok {
			dst.Set(c)
		}
	}
	return dst
}

// lastEmailCode returns the most recently delivered email code
func (h *harness) lastEmailCode(t *testing.T) string {
	t.Helper()
	sent := h.email.Sent()
	require.NotEmpty(t, sent, "no email was sent")
	return sent[len(sent)-1].Code
}

func (h *harness) countRows(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Table(table).Count(&n).Error)
	return n
}

// signIn runs the full email flow and returns the jar holding the session cookie
func (h *harness) signIn(t *testing.T, email string) (*mocks.CookieJar, domain.VerifyResult) {
	t.Helper()
	jar := h.jar()
	_, err := h.identity.Begin(context.Background(), jar, email, domain.MethodEmail)
	require.NoError(t, err)
	send := h.otp.Send(context.Background(), jar, "")
	require.True(t, send.Success(), "send failed: %v", send.Err)
	res := h.otp.Verify(context.Background(), jar, h.lastEmailCode(t), domain.RequestMetadata{UserAgent: "test"})
	require.True(t, res.Success(), "verify failed: %v", res.Err)
	return jar, res
}
