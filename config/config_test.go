package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_TTL", "")
	t.Setenv("OTP_MAX_ATTEMPTS", "")
	t.Setenv("DB_NAME", "")

	cfg := Load()

	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, "egov", cfg.Database.Name)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_TTL", "3m")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("DEMO_USER_ID", "42")

	cfg := Load()

	assert.Equal(t, 3*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, int64(42), cfg.Auth.DemoUserID)
}

func TestLoad_BadNumberFallsBack(t *testing.T) {
	t.Setenv("OTP_MAX_ATTEMPTS", "many")

	cfg := Load()

	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
}

func TestDatabaseConfig_URL(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "egov", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@db:5432/egov?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=egov sslmode=disable", c.DSN())
}

func TestLoad_CORSOriginsAreTrimmed(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://a.gov, https://b.gov ,,")

	cfg := Load()

	assert.Equal(t, []string{"https://a.gov", "https://b.gov"}, cfg.CORSOrigins)
}

func TestSplitList_FallsBackWhenEmpty(t *testing.T) {
	assert.Equal(t, []string{"*"}, splitList(" , ", "*"))
}
