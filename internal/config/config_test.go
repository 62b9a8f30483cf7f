package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsRequireSigningKey(t *testing.T) {
	t.Setenv("OPENWORD_JWT_SIGNING_KEY", "")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("OPENWORD_JWT_SIGNING_KEY", "test-signing-key")
	t.Setenv("OPENWORD_HTTP_ADDR", ":9090")
	t.Setenv("OPENWORD_ROOM_CODE_LENGTH", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "test-signing-key", cfg.JWTSigningKey)
	require.Equal(t, 8, cfg.RoomCodeLength)
	require.Equal(t, "info", cfg.LogLevel)
}
