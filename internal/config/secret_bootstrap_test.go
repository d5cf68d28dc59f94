package config

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSecrets(t *testing.T) {
	t.Parallel()

	t.Run("generates a signing key when unset", func(t *testing.T) {
		t.Parallel()
		first, second := &Config{}, &Config{}
		require.NoError(t, first.ensureSecrets())
		require.NoError(t, second.ensureSecrets())

		raw, err := hex.DecodeString(first.Security.SessionSecret)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
		assert.NotEqual(t, first.Security.SessionSecret, second.Security.SessionSecret)
	})

	t.Run("keeps a configured key", func(t *testing.T) {
		t.Parallel()
		const configured = "workshop-signing-key-0123456789abcdef"
		cfg := &Config{Security: SecurityConfig{SessionSecret: configured}}
		require.NoError(t, cfg.ensureSecrets())
		assert.Equal(t, configured, cfg.Security.SessionSecret)
	})
}
