package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"time"

	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/fadhlanhapp/egov-portal/utils"
)

// OtpSender delivers a one-time code to the payer out of band
type OtpSender interface {
	Send(ctx context.Context, phone, email, code string) error
}

// NewOtpSender picks the sender named in the configuration
func NewOtpSender(otp config.OTPConfig, smtpCfg config.SMTPConfig) OtpSender {
	switch otp.Sender {
	case "smtp":
		return &SMTPSender{cfg: smtpCfg, ttl: otp.TTL}
	default:
		log.Printf("[otp] using sandbox sender, codes are written to the server log")
		return LogSender{}
	}
}

// LogSender is the sandbox channel: codes only ever reach the server log
type LogSender struct{}

// Send logs the code
func (LogSender) Send(_ context.Context, phone, email, code string) error {
	log.Printf("[otp] sandbox code %s for %s / %s", code, utils.MaskPhone(phone), utils.MaskEmail(email))
	return nil
}

// SMTPSender emails the code
type SMTPSender struct {
	cfg config.SMTPConfig
	ttl time.Duration
}

// Send emails the code to the payer
func (s *SMTPSender) Send(ctx context.Context, phone, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sender := s.cfg.Sender
	if sender == "" {
		sender = "no-reply@localhost"
	}

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	msg := verificationEmail(sender, email, code, s.ttl)

	if err := smtp.SendMail(addr, auth, sender, []string{email}, msg); err != nil {
		log.Printf("[otp] SMTP send error for %s: %v", utils.MaskEmail(email), err)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	log.Printf("[otp] code emailed to %s (phone %s)", utils.MaskEmail(email), utils.MaskPhone(phone))
	return nil
}

// verificationEmail renders the plain-text message carrying the code
func verificationEmail(sender, email, code string, ttl time.Duration) []byte {
	body := fmt.Sprintf("Your payment verification code is %s. It expires in %s.\r\n"+
		"If you did not request this code, ignore this message.", code, expiryText(ttl))
	return []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Payment verification code\r\n", sender, email) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			body,
	)
}

func expiryText(ttl time.Duration) string {
	switch {
	case ttl == time.Minute:
		return "1 minute"
	case ttl > 0 && ttl%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(ttl/time.Minute))
	default:
		return ttl.String()
	}
}
