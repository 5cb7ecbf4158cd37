package mocks

import (
	"strings"

	"github.com/you/lendauth/domain"
)

// MockCasbinEnforcer implements the CasbinEnforcer interface for testing
type MockCasbinEnforcer struct {
	AddPolicyFunc    func(params ...interface{}) (bool, error)
	RemovePolicyFunc func(params ...interface{}) (bool, error)
	EnforceFunc      func(rvals ...interface{}) (bool, error)
	GetPolicyFunc    func() ([][]string, error)
	SavePolicyFunc   func() error
	policies         [][]string
}

// Compile-time interface compliance verification
var _ domain.CasbinEnforcer = (*MockCasbinEnforcer)(nil)

// NewMockCasbinEnforcer creates a new MockCasbinEnforcer with default behaviors
func NewMockCasbinEnforcer() *MockCasbinEnforcer {
	return &MockCasbinEnforcer{
		policies: [][]string{
			{domain.RoleAgent, "/agent/*", "GET"},
			{domain.RoleAdmin, "/admin/*", "(GET)|(POST)|(PUT)|(DELETE)"},
		},
	}
}

func toStrings(params []interface{}) []string {
	out := make([]string, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			out[i] = s
		}
	}
	return out
}

func samePolicy(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AddPolicy adds a new policy rule
func (m *MockCasbinEnforcer) AddPolicy(params ...interface{}) (bool, error) {
	if m.AddPolicyFunc != nil {
		return m.AddPolicyFunc(params...)
	}

	// Default behavior: add to internal policies list unless present
	policy := toStrings(params)
	for _, p := range m.policies {
		if samePolicy(p, policy) {
			return false, nil
		}
	}
	m.policies = append(m.policies, policy)
	return true, nil
}

// RemovePolicy removes a policy rule
func (m *MockCasbinEnforcer) RemovePolicy(params ...interface{}) (bool, error) {
	if m.RemovePolicyFunc != nil {
		return m.RemovePolicyFunc(params...)
	}

	target := toStrings(params)
	for i, p := range m.policies {
		if samePolicy(p, target) {
			m.policies = append(m.policies[:i], m.policies[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Enforce checks if a request should be allowed
func (m *MockCasbinEnforcer) Enforce(rvals ...interface{}) (bool, error) {
	if m.EnforceFunc != nil {
		return m.EnforceFunc(rvals...)
	}

	// Default behavior: admin passes everything, otherwise prefix match on stored policies
	req := toStrings(rvals)
	if len(req) < 3 {
		return false, nil
	}
	if req[0] == domain.RoleAdmin {
		return true, nil
	}
	for _, p := range m.policies {
		if len(p) < 3 || p[0] != req[0] {
			continue
		}
		if strings.HasPrefix(req[1], strings.TrimSuffix(p[1], "*")) && strings.Contains(p[2], req[2]) {
			return true, nil
		}
	}
	return false, nil
}

// GetPolicy returns all policies
func (m *MockCasbinEnforcer) GetPolicy() ([][]string, error) {
	if m.GetPolicyFunc != nil {
		return m.GetPolicyFunc()
	}
	// Return copy of internal policies
	result := make([][]string, len(m.policies))
	for i, policy := range m.policies {
		result[i] = append([]string(nil), policy...)
	}
	return result, nil
}

// SavePolicy saves all policies
func (m *MockCasbinEnforcer) SavePolicy() error {
	if m.SavePolicyFunc != nil {
		return m.SavePolicyFunc()
	}
	return nil
}
