// Package mailer delivers one-time passcodes by email.
//
// Two senders are provided: SendGrid for real delivery and a log sender that
// only records the delivery in the structured log, used in development and
// whenever no provider is configured.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// OTPSubject is the subject line of verification emails.
const OTPSubject = "Your verification code"

// Sender delivers a verification code, valid for ttl, to an email address.
type Sender interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

// OTPBody renders the plain-text body of a verification email.
func OTPBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is %s. It expires in %s.", code, humanTTL(ttl))
}

// humanTTL spells out whole minutes and falls back to Go duration syntax.
func humanTTL(ttl time.Duration) string {
	switch {
	case ttl == time.Minute:
		return "1 minute"
	case ttl > 0 && ttl%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(ttl/time.Minute))
	default:
		return ttl.String()
	}
}

// SendGridClient is the part of *sendgrid.Client used by SendGridSender.
type SendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender sends verification emails through the SendGrid v3 API.
type SendGridSender struct {
	Client    SendGridClient
	FromEmail string
	FromName  string
}

// NewSendGridSender returns a sender using apiKey.
func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		Client:    sendgrid.NewSendClient(apiKey),
		FromEmail: fromEmail,
		FromName:  fromName,
	}
}

// SendOTP implements Sender.
func (s *SendGridSender) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	from := mail.NewEmail(s.FromName, s.FromEmail)
	msg := mail.NewSingleEmail(from, OTPSubject, mail.NewEmail("", to), OTPBody(code, ttl), "")

	resp, err := s.Client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	// SendGrid answers 202 Accepted on success
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender stands in for a mail provider. Deliveries are logged at info
// level; the code itself only appears at debug level.
type LogSender struct{}

// SendOTP implements Sender.
func (LogSender) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	log.Info().
		Str("to", to).
		Str("subject", OTPSubject).
		Dur("ttl", ttl).
		Msg("otp email (log sender)")
	log.Debug().
		Str("to", to).
		Str("code", code).
		Msg("otp code (log sender)")
	return nil
}
