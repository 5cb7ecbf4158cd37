package mocks

import (
	"context"
	"time"

	"github.com/you/lendauth/domain"
)

// MockSessionRepository implements domain.SessionRepository interface for testing
type MockSessionRepository struct {
	CreateFunc            func(ctx context.Context, session *domain.Session) error
	FindActiveByTokenFunc func(ctx context.Context, token string, now time.Time) (*domain.Session, error)
	FindByOTPIDFunc       func(ctx context.Context, otpID uint) (*domain.Session, error)
	TouchFunc             func(ctx context.Context, sessionID uint, at time.Time) error
	DeactivateByTokenFunc func(ctx context.Context, token string) (int64, error)
	DeactivateByUserFunc  func(ctx context.Context, userID uint) (int64, error)
	ListActiveByUserFunc  func(ctx context.Context, userID uint, now time.Time) ([]*domain.Session, error)
}

// NewMockSessionRepository creates a new MockSessionRepository with default behaviors
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{}
}

// Create persists a session
func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	// Default behavior: success
	return nil
}

// FindActiveByToken finds a live session by its literal token
func (m *MockSessionRepository) FindActiveByToken(ctx context.Context, token string, now time.Time) (*domain.Session, error) {
	if m.FindActiveByTokenFunc != nil {
		return m.FindActiveByTokenFunc(ctx, token, now)
	}
	// Default behavior: not found
	return nil, domain.ErrSessionNotFound
}

// FindByOTPID finds the session that claimed a code
func (m *MockSessionRepository) FindByOTPID(ctx context.Context, otpID uint) (*domain.Session, error) {
	if m.FindByOTPIDFunc != nil {
		return m.FindByOTPIDFunc(ctx, otpID)
	}
	// Default behavior: not found
	return nil, domain.ErrSessionNotFound
}

// Touch refreshes last_active
func (m *MockSessionRepository) Touch(ctx context.Context, sessionID uint, at time.Time) error {
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, sessionID, at)
	}
	// Default behavior: success
	return nil
}

// DeactivateByToken soft-deletes sessions with the given token
func (m *MockSessionRepository) DeactivateByToken(ctx context.Context, token string) (int64, error) {
	if m.DeactivateByTokenFunc != nil {
		return m.DeactivateByTokenFunc(ctx, token)
	}
	// Default behavior: one row
	return 1, nil
}

// DeactivateByUser soft-deletes every session of the user
func (m *MockSessionRepository) DeactivateByUser(ctx context.Context, userID uint) (int64, error) {
	if m.DeactivateByUserFunc != nil {
		return m.DeactivateByUserFunc(ctx, userID)
	}
	// Default behavior: one row
	return 1, nil
}

// ListActiveByUser lists live sessions of the user
func (m *MockSessionRepository) ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]*domain.Session, error) {
	if m.ListActiveByUserFunc != nil {
		return m.ListActiveByUserFunc(ctx, userID, now)
	}
	// Default behavior: none
	return nil, nil
}

// Compile-time interface compliance verification
var _ domain.SessionRepository = (*MockSessionRepository)(nil)
