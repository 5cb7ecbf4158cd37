package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{name: "ErrTokenInvalid", err: ErrTokenInvalid, expectedMsg: "invalid token"},
		{name: "ErrTokenExpired", err: ErrTokenExpired, expectedMsg: "token has expired"},
		{name: "ErrTokenPayloadMalformed", err: ErrTokenPayloadMalformed, expectedMsg: "malformed token payload"},
		{name: "ErrIdentityMissing", err: ErrIdentityMissing, expectedMsg: "no identity in progress"},
		{name: "ErrUserNotFound", err: ErrUserNotFound, expectedMsg: "user not found"},
		{name: "ErrInvalidOrExpiredCode", err: ErrInvalidOrExpiredCode, expectedMsg: "invalid or expired code"},
		{name: "ErrCodeAlreadyUsed", err: ErrCodeAlreadyUsed, expectedMsg: "code has already been used"},
		{name: "ErrSessionNotFound", err: ErrSessionNotFound, expectedMsg: "session not found"},
		{name: "ErrSessionUpdateFailed", err: ErrSessionUpdateFailed, expectedMsg: "session update failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expectedMsg {
				t.Errorf("expected error message %q, got %q", tt.expectedMsg, tt.err.Error())
			}

			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.err) {
				t.Error("wrapped error should match with errors.Is")
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	// expired, replayed and wrong codes must stay distinguishable to the user
	expired := UserMessage(ErrInvalidOrExpiredCode)
	used := UserMessage(ErrCodeAlreadyUsed)
	if expired == used {
		t.Errorf("expected distinct messages, both were %q", expired)
	}

	if got := UserMessage(fmt.Errorf("store: %w", ErrUserNotFound)); got != UserMessage(ErrUserNotFound) {
		t.Errorf("wrapped error should map like the sentinel, got %q", got)
	}

	if got := UserMessage(errors.New("pq: connection refused")); got != "Something went wrong. Please try again." {
		t.Errorf("unknown errors must not leak, got %q", got)
	}

	if got := UserMessage(nil); got != "" {
		t.Errorf("nil error should map to empty message, got %q", got)
	}
}

func TestResults(t *testing.T) {
	if !(SendResult{Outcome: SendOutcomeAlreadySent}).Success() {
		t.Error("already-sent should count as success")
	}

	failed := SendFailed(MethodEmail, ErrUserNotFound)
	if failed.Success() || failed.Outcome != SendOutcomeFailed || failed.Message == "" {
		t.Errorf("unexpected failed send result: %+v", failed)
	}

	vf := VerifyFailed(ErrCodeAlreadyUsed)
	if vf.Success() || !errors.Is(vf.Err, ErrCodeAlreadyUsed) {
		t.Errorf("unexpected failed verify result: %+v", vf)
	}
}
