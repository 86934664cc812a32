package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", validKey)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, TokenSchemeJWT, cfg.Auth.TokenScheme)
	assert.Equal(t, time.Hour, cfg.Auth.SessionTokenDuration)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenDuration)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerificationTokenDuration)
}

func TestLoad_SigningKeyLength(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"missing", ""},
		{"too short", "short"},
		{"too long", validKey + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AUTH_SIGNING_KEY", tt.key)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_TokenScheme(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", validKey)

	t.Setenv("AUTH_TOKEN_SCHEME", "paseto")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, TokenSchemePaseto, cfg.Auth.TokenScheme)

	t.Setenv("AUTH_TOKEN_SCHEME", "opaque")
	_, err = Load()
	assert.Error(t, err)
}

func TestConnectionString(t *testing.T) {
	t.Parallel()

	cfg := DatabaseConfig{
		Host: "db.internal", Port: "5433", User: "app",
		Password: "pw", DBName: "scholarships", SSLMode: "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=app password=pw dbname=scholarships sslmode=require",
		cfg.ConnectionString())

	cfg.ChannelBinding = "require"
	assert.Contains(t, cfg.ConnectionString(), " channel_binding=require")
}

func TestDurationEnvParsedAsSeconds(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", validKey)
	t.Setenv("SESSION_TOKEN_DURATION", "120")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Auth.SessionTokenDuration)
}
