package domain

import (
	"strconv"
	"strings"
	"time"
)

// Method is the channel a user identifies with
type Method string

const (
	MethodEmail Method = "email"
	MethodPhone Method = "phone"
)

// ParseMethod validates a raw method value
func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodEmail:
		return MethodEmail, nil
	case MethodPhone:
		return MethodPhone, nil
	default:
		return "", ErrInvalidMethod
	}
}

// Valid reports whether m is one of the known methods
func (m Method) Valid() bool {
	return m == MethodEmail || m == MethodPhone
}

// Role names used by the policy layer
const (
	RoleBorrower = "borrower"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

// User represents a user in the system
type User struct {
	ID        uint
	Email     *string
	Phone     *string
	FirstName *string
	LastName  *string
	IsAgent   bool
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMinimallyRegistered reports whether both name fields are set
func (u *User) IsMinimallyRegistered() bool {
	return u.FirstName != nil && u.LastName != nil
}

// Identifier returns the user's value for the given method, or "" when unset
func (u *User) Identifier(method Method) string {
	switch method {
	case MethodEmail:
		if u.Email != nil {
			return *u.Email
		}
	case MethodPhone:
		if u.Phone != nil {
			return *u.Phone
		}
	}
	return ""
}

// DisplayName joins the name fields, falling back to the verified identifier
func (u *User) DisplayName() string {
	var parts []string
	if u.FirstName != nil && *u.FirstName != "" {
		parts = append(parts, *u.FirstName)
	}
	if u.LastName != nil && *u.LastName != "" {
		parts = append(parts, *u.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if id := u.Identifier(MethodEmail); id != "" {
		return id
	}
	return u.Identifier(MethodPhone)
}

// Role derives the policy subject from the capability flags
func (u *User) Role() string {
	switch {
	case u.IsAdmin:
		return RoleAdmin
	case u.IsAgent:
		return RoleAgent
	default:
		return RoleBorrower
	}
}

// Validate checks the shape every authenticated user must have
func (u *User) Validate() error {
	if u == nil || u.ID == 0 {
		return ErrUserMalformed
	}
	if u.Identifier(MethodEmail) == "" && u.Identifier(MethodPhone) == "" {
		return ErrUserMalformed
	}
	return nil
}

// OneTimeCode is a persisted email code. A code is available while it is
// unexpired and no session references it.
type OneTimeCode struct {
	ID         uint
	UserID     uint
	Method     Method
	Identifier string
	Code       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the code is past its expiry at now
func (o *OneTimeCode) Expired(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

// Session represents a user session
type Session struct {
	ID                uint
	UserID            uint
	JWTToken          string
	OTPID             *uint
	ExpiresAt         time.Time
	ForceDeactivation bool
	LastActive        time.Time
	UserAgent         string
	IPAddress         string
	DeviceInfo        map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Active reports whether the row itself still grants access at now
func (s *Session) Active(now time.Time) bool {
	return !s.ForceDeactivation && s.ExpiresAt.After(now)
}

// IdentityClaim binds an anonymous visitor to the identifier they are registering with
type IdentityClaim struct {
	Identifier string
	Method     Method
}

// Validate checks the identity claim schema
func (c IdentityClaim) Validate() error {
	if strings.TrimSpace(c.Identifier) == "" {
		return ErrInvalidIdentifier
	}
	if !c.Method.Valid() {
		return ErrInvalidMethod
	}
	return nil
}

// SessionPayload is the content of a session token
type SessionPayload struct {
	Subject string
	Name    string
	TokenID string
}

// UserID parses the numeric subject
func (p SessionPayload) UserID() (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(p.Subject), 10, 0)
	if err != nil || id == 0 {
		return 0, ErrTokenPayloadMalformed
	}
	return uint(id), nil
}

// RequestMetadata is the device information captured when a session is created
type RequestMetadata struct {
	UserAgent  string
	IPAddress  string
	DeviceInfo map[string]string
}

// SessionSummary is the public view of a session
type SessionSummary struct {
	ID         uint      `json:"id"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastActive time.Time `json:"last_active"`
	UserAgent  string    `json:"user_agent,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
}

// Summary returns the public view of s
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:         s.ID,
		ExpiresAt:  s.ExpiresAt,
		LastActive: s.LastActive,
		UserAgent:  s.UserAgent,
		IPAddress:  s.IPAddress,
	}
}

// UserInfo is the minimal user view returned after verification
type UserInfo struct {
	ID                  uint   `json:"id"`
	Email               string `json:"email,omitempty"`
	Phone               string `json:"phone,omitempty"`
	FirstName           string `json:"first_name,omitempty"`
	LastName            string `json:"last_name,omitempty"`
	Role                string `json:"role"`
	MinimallyRegistered bool   `json:"minimally_registered"`
}

// Info returns the minimal user view of u
func (u *User) Info() UserInfo {
	info := UserInfo{
		ID:                  u.ID,
		Email:               u.Identifier(MethodEmail),
		Phone:               u.Identifier(MethodPhone),
		Role:                u.Role(),
		MinimallyRegistered: u.IsMinimallyRegistered(),
	}
	if u.FirstName != nil {
		info.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		info.LastName = *u.LastName
	}
	return info
}
