package mocks

import (
	"context"
	"time"

	"github.com/you/lendauth/domain"
)

// MockOTPRepository implements domain.OTPRepository interface for testing
type MockOTPRepository struct {
	CreateFunc             func(ctx context.Context, otp *domain.OneTimeCode) error
	FindAvailableFunc      func(ctx context.Context, userID uint, method domain.Method, identifier string, now time.Time) (*domain.OneTimeCode, error)
	FindLatestMatchingFunc func(ctx context.Context, userID uint, method domain.Method, identifier, code string, now time.Time) (*domain.OneTimeCode, error)
	ExpireFunc             func(ctx context.Context, id uint, at time.Time) error
}

// NewMockOTPRepository creates a new MockOTPRepository with default behaviors
func NewMockOTPRepository() *MockOTPRepository {
	return &MockOTPRepository{}
}

// Create persists a code
func (m *MockOTPRepository) Create(ctx context.Context, otp *domain.OneTimeCode) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, otp)
	}
	// Default behavior: success
	return nil
}

// FindAvailable returns an unclaimed, unexpired code
func (m *MockOTPRepository) FindAvailable(ctx context.Context, userID uint, method domain.Method, identifier string, now time.Time) (*domain.OneTimeCode, error) {
	if m.FindAvailableFunc != nil {
		return m.FindAvailableFunc(ctx, userID, method, identifier, now)
	}
	// Default behavior: nothing pending
	return nil, domain.ErrOTPNotFound
}

// FindLatestMatching returns the newest unexpired code with the given value
func (m *MockOTPRepository) FindLatestMatching(ctx context.Context, userID uint, method domain.Method, identifier, code string, now time.Time) (*domain.OneTimeCode, error) {
	if m.FindLatestMatchingFunc != nil {
		return m.FindLatestMatchingFunc(ctx, userID, method, identifier, code, now)
	}
	// Default behavior: not found
	return nil, domain.ErrOTPNotFound
}

// Expire ends a code's validity early
func (m *MockOTPRepository) Expire(ctx context.Context, id uint, at time.Time) error {
	if m.ExpireFunc != nil {
		return m.ExpireFunc(ctx, id, at)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.OTPRepository = (*MockOTPRepository)(nil)
