package notifications

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

const codeSubject = "Your sign-in code"

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender implements domain.EmailSender over a plain SMTP relay
type SMTPSender struct {
	addr     string
	host     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewSMTPSender creates an email channel for the given relay. Auth is only
// used when a username is configured.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	s := &SMTPSender{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		host:     host,
		from:     from,
		sendMail: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

// NewEmailSender returns the SMTP channel when a relay is configured and a
// log-only channel otherwise
func NewEmailSender(host string, port int, username, password, from string, log logging.Logger) domain.EmailSender {
	if host == "" || from == "" {
		return NewLogEmailSender(log)
	}
	return NewSMTPSender(host, port, username, password, from)
}

// SendCode implements domain.EmailSender
func (s *SMTPSender) SendCode(ctx context.Context, destination, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(destination, "\r\n") {
		return fmt.Errorf("invalid destination address")
	}

	msg := buildCodeMessage(s.from, destination, code)
	if err := s.sendMail(s.addr, s.auth, s.from, []string{destination}, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", s.host, err)
	}
	return nil
}

func buildCodeMessage(from, to, code string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + codeSubject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Your sign-in code is " + code + ".\r\n")
	b.WriteString("It expires in a few minutes. If you did not request it, ignore this message.\r\n")
	return []byte(b.String())
}

// LogEmailSender writes codes to the log for local development
type LogEmailSender struct {
	log logging.Logger
}

func NewLogEmailSender(log logging.Logger) *LogEmailSender {
	return &LogEmailSender{log: log.With("component", "email_sender")}
}

func (s *LogEmailSender) SendCode(ctx context.Context, destination, code string) error {
	s.log.Warn(ctx, "smtp not configured, logging code instead", "destination", maskDestination(destination), "code", code)
	return nil
}
