package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

const statusApproved = "approved"

// verifyAPI is the subset of the Twilio Verify v2 client the verifier calls
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// TwilioVerifier implements domain.PhoneVerifier on Twilio Verify. Twilio
// generates, stores and rate-limits phone codes; nothing is kept locally.
type TwilioVerifier struct {
	api        verifyAPI
	serviceSID string
}

// NewTwilioVerifier creates a Twilio Verify phone channel
func NewTwilioVerifier(accountSID, authToken, serviceSID string) *TwilioVerifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioVerifier{api: client.VerifyV2, serviceSID: serviceSID}
}

// NewPhoneVerifier returns the Twilio channel when credentials are configured
// and a log-only channel otherwise
func NewPhoneVerifier(accountSID, authToken, serviceSID string, log logging.Logger) domain.PhoneVerifier {
	if accountSID == "" || authToken == "" || serviceSID == "" {
		return NewLogVerifier(log)
	}
	return NewTwilioVerifier(accountSID, authToken, serviceSID)
}

// SendCode implements domain.PhoneVerifier
func (t *TwilioVerifier) SendCode(_ context.Context, destination, locale string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(destination)
	params.SetChannel("sms")
	if locale != "" {
		params.SetLocale(locale)
	}

	if _, err := t.api.CreateVerification(t.serviceSID, params); err != nil {
		return fmt.Errorf("failed to start phone verification: %w", err)
	}
	return nil
}

// CheckCode implements domain.PhoneVerifier
func (t *TwilioVerifier) CheckCode(_ context.Context, destination, code string) (*domain.VerificationCheck, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(destination)
	params.SetCode(code)

	resp, err := t.api.CreateVerificationCheck(t.serviceSID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to check phone verification: %w", err)
	}

	status := ""
	if resp != nil && resp.Status != nil {
		status = *resp.Status
	}
	if strings.EqualFold(status, statusApproved) {
		return &domain.VerificationCheck{Success: true, Message: "verified"}, nil
	}
	if status == "" {
		status = "unknown"
	}
	return &domain.VerificationCheck{Success: false, Message: "verification " + status}, nil
}

// LogVerifier stands in for the phone channel when Twilio is not configured.
// Sends are logged and every check is rejected.
type LogVerifier struct {
	log logging.Logger
}

func NewLogVerifier(log logging.Logger) *LogVerifier {
	return &LogVerifier{log: log.With("component", "phone_verifier")}
}

func (v *LogVerifier) SendCode(ctx context.Context, destination, locale string) error {
	v.log.Warn(ctx, "phone verification not configured, code not sent", "destination", maskDestination(destination), "locale", locale)
	return nil
}

func (v *LogVerifier) CheckCode(context.Context, string, string) (*domain.VerificationCheck, error) {
	return &domain.VerificationCheck{Success: false, Message: "phone verification is not configured"}, nil
}

// maskDestination keeps the last four characters of a phone number or the
// domain of an email address
func maskDestination(dest string) string {
	if at := strings.LastIndex(dest, "@"); at > 0 {
		return "***" + dest[at:]
	}
	if len(dest) <= 4 {
		return "***"
	}
	return "***" + dest[len(dest)-4:]
}
