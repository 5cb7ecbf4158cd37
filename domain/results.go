package domain

// SendOutcome is the closed set of OTP send results
type SendOutcome string

const (
	SendOutcomeSent        SendOutcome = "sent"
	SendOutcomeAlreadySent SendOutcome = "already-sent"
	SendOutcomeFailed      SendOutcome = "failed"
)

// SendResult is returned by OTPService.Send
type SendResult struct {
	Outcome SendOutcome
	Method  Method
	Message string
	Err     error
}

// Success reports whether a code is (or already was) on its way
func (r SendResult) Success() bool {
	return r.Outcome == SendOutcomeSent || r.Outcome == SendOutcomeAlreadySent
}

// SendFailed builds a failed send result from err
func SendFailed(method Method, err error) SendResult {
	return SendResult{
		Outcome: SendOutcomeFailed,
		Method:  method,
		Message: UserMessage(err),
		Err:     err,
	}
}

// VerifyResult is returned by OTPService.Verify. Err is nil exactly when
// Session and User are set.
type VerifyResult struct {
	Session *SessionSummary
	User    *UserInfo
	Message string
	Err     error
}

// Success reports whether verification produced a session
func (r VerifyResult) Success() bool {
	return r.Err == nil && r.Session != nil
}

// VerifyFailed builds a failed verify result from err
func VerifyFailed(err error) VerifyResult {
	return VerifyResult{Message: UserMessage(err), Err: err}
}

// SignOutResult is returned by the sign-out entry points
type SignOutResult struct {
	Success bool
	Message string
}

const (
	MessageSignedOut       = "signed out"
	MessageNoUserToSignOut = "no user to sign out"
)
