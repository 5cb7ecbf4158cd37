package domain

import (
	"context"
	"time"
)

// Severity grades a diagnostic event
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Action names the pipeline step that produced a diagnostic event
type Action string

const (
	// Temporary identity events
	ActionIdentityBegin Action = "identity.begin"
	ActionIdentityIssue Action = "identity.issue"
	ActionIdentityRead  Action = "identity.read"

	// OTP events
	ActionOTPSend   Action = "otp.send"
	ActionOTPVerify Action = "otp.verify"

	// Session events
	ActionSessionCreate     Action = "session.create"
	ActionSessionValidate   Action = "session.validate"
	ActionSessionDeactivate Action = "session.deactivate"

	// Facade events
	ActionCurrentUser     Action = "auth.current_user"
	ActionSignOut         Action = "auth.sign_out"
	ActionCompleteProfile Action = "auth.complete_profile"
)

// DiagnosticEvent is a structured record handed to the diagnostics sink.
// Metadata must never carry tokens, codes or secrets.
type DiagnosticEvent struct {
	Action    Action                 `json:"action"`
	Severity  Severity               `json:"severity"`
	UserID    uint                   `json:"user_id,omitempty"`
	Method    Method                 `json:"method,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	ErrorMsg  string                 `json:"error_msg,omitempty"`
}

// DiagnosticsSink records diagnostic events. Implementations must not block
// the caller and must swallow their own failures.
type DiagnosticsSink interface {
	Record(ctx context.Context, event *DiagnosticEvent)
}

// NewDiagnosticEvent creates a diagnostic event with common fields populated
func NewDiagnosticEvent(action Action, severity Severity) *DiagnosticEvent {
	return &DiagnosticEvent{
		Action:    action,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
	}
}

// Warning is shorthand for the severity every failure path records
func Warning(action Action, err error) *DiagnosticEvent {
	return NewDiagnosticEvent(action, SeverityWarning).WithError(err)
}

// WithError sets error information on the event
func (e *DiagnosticEvent) WithError(err error) *DiagnosticEvent {
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithUser sets the user id
func (e *DiagnosticEvent) WithUser(userID uint) *DiagnosticEvent {
	e.UserID = userID
	return e
}

// WithMethod sets the identity method
func (e *DiagnosticEvent) WithMethod(method Method) *DiagnosticEvent {
	e.Method = method
	return e
}

// WithMetadata adds metadata to the event
func (e *DiagnosticEvent) WithMetadata(key string, value interface{}) *DiagnosticEvent {
	e.Metadata[key] = value
	return e
}

// NoopDiagnostics drops every event
type NoopDiagnostics struct{}

func (NoopDiagnostics) Record(context.Context, *DiagnosticEvent) {}
