package mocks

import (
	"context"

	"github.com/you/lendauth/domain"
)

// MockUserRepository implements domain.UserRepository interface for testing
type MockUserRepository struct {
	CreateFunc           func(ctx context.Context, user *domain.User) error
	FindByIdentifierFunc func(ctx context.Context, method domain.Method, identifier string) (*domain.User, error)
	FindByIDFunc         func(ctx context.Context, id uint) (*domain.User, error)
	UpdateNamesFunc      func(ctx context.Context, id uint, firstName, lastName string) error
}

// NewMockUserRepository creates a new MockUserRepository with default behaviors
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	// Default behavior: success
	return nil
}

// FindByIdentifier finds a user by email or phone
func (m *MockUserRepository) FindByIdentifier(ctx context.Context, method domain.Method, identifier string) (*domain.User, error) {
	if m.FindByIdentifierFunc != nil {
		return m.FindByIdentifierFunc(ctx, method, identifier)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// FindByID finds a user by ID
func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrUserNotFound
}

// UpdateNames sets the user's name fields
func (m *MockUserRepository) UpdateNames(ctx context.Context, id uint, firstName, lastName string) error {
	if m.UpdateNamesFunc != nil {
		return m.UpdateNamesFunc(ctx, id, firstName, lastName)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.UserRepository = (*MockUserRepository)(nil)
