package services

import "github.com/you/lendauth/domain"

// Instrumentation receives pipeline counters. *metrics.Metrics satisfies it.
type Instrumentation interface {
	AuthCheck(authenticated bool)
	OTPSend(method domain.Method, outcome domain.SendOutcome)
	OTPVerify(method domain.Method, success bool)
	SessionEvent(event string)
}

// Session lifecycle event labels
const (
	SessionCreated     = "created"
	SessionValidated   = "validated"
	SessionRejected    = "rejected"
	SessionDeactivated = "deactivated"
)

type noopInstrumentation struct{}

func (noopInstrumentation) AuthCheck(bool) {}
func (noopInstrumentation) OTPSend(domain.Method, domain.SendOutcome) {}
func (noopInstrumentation) OTPVerify(domain.Method, bool) {}
func (noopInstrumentation) SessionEvent(string) {}

func orNoop(i Instrumentation) Instrumentation {
	if i == nil {
		return noopInstrumentation{}
	}
	return i
}

func orNoopSink(s domain.DiagnosticsSink) domain.DiagnosticsSink {
	if s == nil {
		return domain.NoopDiagnostics{}
	}
	return s
}
