package mocks

import (
	"context"
	"sync"

	"github.com/you/lendauth/domain"
)

// MockPhoneVerifier implements domain.PhoneVerifier interface for testing
type MockPhoneVerifier struct {
	SendCodeFunc  func(ctx context.Context, destination, locale string) error
	CheckCodeFunc func(ctx context.Context, destination, code string) (*domain.VerificationCheck, error)
}

// NewMockPhoneVerifier creates a new MockPhoneVerifier with default behaviors
func NewMockPhoneVerifier() *MockPhoneVerifier {
	return &MockPhoneVerifier{}
}

// SendCode starts a phone verification
func (m *MockPhoneVerifier) SendCode(ctx context.Context, destination, locale string) error {
	if m.SendCodeFunc != nil {
		return m.SendCodeFunc(ctx, destination, locale)
	}
	// Default behavior: success
	return nil
}

// CheckCode asks the channel for a verdict
func (m *MockPhoneVerifier) CheckCode(ctx context.Context, destination, code string) (*domain.VerificationCheck, error) {
	if m.CheckCodeFunc != nil {
		return m.CheckCodeFunc(ctx, destination, code)
	}
	// Default behavior: approved
	return &domain.VerificationCheck{Success: true, Message: "approved"}, nil
}

// SentEmail is one captured email delivery
type SentEmail struct {
	Destination string
	Code        string
}

// MockEmailSender implements domain.EmailSender interface for testing.
// Without SendCodeFunc it records every delivery.
type MockEmailSender struct {
	SendCodeFunc func(ctx context.Context, destination, code string) error

	mu   sync.Mutex
	sent []SentEmail
}

// NewMockEmailSender creates a new MockEmailSender with default behaviors
func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

// SendCode delivers a code
func (m *MockEmailSender) SendCode(ctx context.Context, destination, code string) error {
	if m.SendCodeFunc != nil {
		return m.SendCodeFunc(ctx, destination, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentEmail{Destination: destination, Code: code})
	return nil
}

// Sent returns the captured deliveries
func (m *MockEmailSender) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockAttemptLimiter implements domain.AttemptLimiter interface for testing
type MockAttemptLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, error)
	ResetFunc func(ctx context.Context, key string) error
}

// Allow reports whether an attempt is within budget
func (m *MockAttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	// Default behavior: allowed
	return true, nil
}

// Reset clears the counter
func (m *MockAttemptLimiter) Reset(ctx context.Context, key string) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, key)
	}
	return nil
}

// Compile-time interface compliance verification
var (
	_ domain.PhoneVerifier  = (*MockPhoneVerifier)(nil)
	_ domain.EmailSender    = (*MockEmailSender)(nil)
	_ domain.AttemptLimiter = (*MockAttemptLimiter)(nil)
)
