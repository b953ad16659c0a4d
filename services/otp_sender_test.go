package services

import (
	"testing"
	"time"

	"github.com/fadhlanhapp/egov-portal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOtpSender_SMTPCarriesTTL(t *testing.T) {
	sender := NewOtpSender(config.OTPConfig{Sender: "smtp", TTL: 3 * time.Minute}, config.SMTPConfig{Host: "mail.local"})
	smtpSender, ok := sender.(*SMTPSender)
	require.True(t, ok)
	assert.Equal(t, 3*time.Minute, smtpSender.ttl)

	assert.IsType(t, LogSender{}, NewOtpSender(config.OTPConfig{}, config.SMTPConfig{}))
}

func TestVerificationEmail_StatesConfiguredExpiry(t *testing.T) {
	msg := string(verificationEmail("no-reply@lgu.gov.ph", "juan@example.com", "482913", 3*time.Minute))
	assert.Contains(t, msg, "To: juan@example.com\r\n")
	assert.Contains(t, msg, "code is 482913")
	assert.Contains(t, msg, "expires in 3 minutes")
	assert.NotContains(t, msg, "10 minutes")
}

func TestExpiryText(t *testing.T) {
	assert.Equal(t, "1 minute", expiryText(time.Minute))
	assert.Equal(t, "15 minutes", expiryText(15*time.Minute))
	assert.Equal(t, "1m30s", expiryText(90*time.Second))
}
