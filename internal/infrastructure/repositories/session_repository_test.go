package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/you/lendauth/domain"
)

func TestSessionRepositoryImpl_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := seedUser(t, users, &domain.User{Phone: strPtr("+15550100")})
	s := &domain.Session{
		UserID:     user.ID,
		JWTToken:   "token-a",
		ExpiresAt:  now.Add(time.Hour),
		UserAgent:  "test-agent",
		IPAddress:  "10.0.0.1",
		DeviceInfo: map[string]string{"platform": "ios"},
	}
	if err := sessions.Create(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == 0 || s.LastActive.IsZero() {
		t.Fatalf("expected id and last_active to be set, got %+v", s)
	}

	found, err := sessions.FindActiveByToken(ctx, "token-a", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found.ID != s.ID || found.UserAgent != "test-agent" || found.DeviceInfo["platform"] != "ios" {
		t.Errorf("unexpected session: %+v", found)
	}
	if found.OTPID != nil {
		t.Error("phone sessions carry no code reference")
	}

	if _, err := sessions.FindActiveByToken(ctx, "token-a", now.Add(2*time.Hour)); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected expired session to be hidden, got %v", err)
	}
	if _, err := sessions.FindActiveByToken(ctx, "missing", now); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepositoryImpl_CodeClaimedOnce(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	codes := NewOTPRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := seedUser(t, users, &domain.User{Email: strPtr("ada@example.com")})
	otp := seedCode(t, codes, user.ID, "ada@example.com", "123456", now, now.Add(2*time.Minute))

	first := &domain.Session{UserID: user.ID, JWTToken: "token-1", OTPID: &otp.ID, ExpiresAt: now.Add(time.Hour)}
	if err := sessions.Create(ctx, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &domain.Session{UserID: user.ID, JWTToken: "token-2", OTPID: &otp.ID, ExpiresAt: now.Add(time.Hour)}
	if err := sessions.Create(ctx, second); !errors.Is(err, domain.ErrCodeAlreadyUsed) {
		t.Fatalf("expected ErrCodeAlreadyUsed, got %v", err)
	}

	claimed, err := sessions.FindByOTPID(ctx, otp.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimed.ID != first.ID {
		t.Errorf("expected first session to hold the claim, got %d", claimed.ID)
	}
}

func TestSessionRepositoryImpl_ConcurrentClaims(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	codes := NewOTPRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := seedUser(t, users, &domain.User{Email: strPtr("ada@example.com")})
	otp := seedCode(t, codes, user.ID, "ada@example.com", "123456", now, now.Add(2*time.Minute))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := sessions.Create(ctx, &domain.Session{
				UserID:    user.ID,
				JWTToken:  "token-" + string(rune('a'+i)),
				OTPID:     &otp.ID,
				ExpiresAt: now.Add(time.Hour),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrCodeAlreadyUsed):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Errorf("expected exactly one claim, got %d succeeded and %d rejected", succeeded, rejected)
	}
}

func TestSessionRepositoryImpl_TouchAndDeactivate(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	sessions := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	user := seedUser(t, users, &domain.User{Phone: strPtr("+15550100")})
	other := seedUser(t, users, &domain.User{Phone: strPtr("+15550101")})

	a := &domain.Session{UserID: user.ID, JWTToken: "token-a", ExpiresAt: now.Add(time.Hour), LastActive: now.Add(-time.Hour)}
	b := &domain.Session{UserID: user.ID, JWTToken: "token-b", ExpiresAt: now.Add(time.Hour), LastActive: now.Add(-time.Minute)}
	c := &domain.Session{UserID: other.ID, JWTToken: "token-c", ExpiresAt: now.Add(time.Hour)}
	for _, s := range []*domain.Session{a, b, c} {
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatalf("failed to seed session: %v", err)
		}
	}

	touched := now.Add(time.Second)
	if err := sessions.Touch(ctx, a.ID, touched); err != nil {
		t.Fatalf("unexpected touch error: %v", err)
	}
	if err := sessions.Touch(ctx, 9999, touched); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	active, err := sessions.ListActiveByUser(ctx, user.ID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(active) != 2 || active[0].ID != a.ID {
		t.Fatalf("expected touched session first, got %+v", active)
	}

	n, err := sessions.DeactivateByToken(ctx, "token-b")
	if err != nil || n != 1 {
		t.Fatalf("expected one deactivated row, got %d, %v", n, err)
	}
	n, err = sessions.DeactivateByToken(ctx, "token-b")
	if err != nil || n != 0 {
		t.Errorf("expected repeat deactivation to be a no-op, got %d, %v", n, err)
	}
	if _, err := sessions.FindActiveByToken(ctx, "token-b", now); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected deactivated session to be hidden, got %v", err)
	}

	n, err = sessions.DeactivateByUser(ctx, user.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected one remaining session deactivated, got %d, %v", n, err)
	}
	if _, err := sessions.FindActiveByToken(ctx, "token-c", now); err != nil {
		t.Errorf("other users' sessions must survive, got %v", err)
	}
}
