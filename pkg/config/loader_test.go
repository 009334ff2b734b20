package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Load(t *testing.T) {
	t.Run("Should load built-in defaults", func(t *testing.T) {
		svc := NewService()
		cfg, err := svc.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
		assert.Equal(t, 3, cfg.Retrieval.TopK)
		assert.Equal(t, "claude", cfg.LLM.Default)
		assert.Equal(t, 45*time.Second, cfg.LLM.CallTimeout)
		assert.Equal(t, 384, cfg.Embedding.Dimension)
		assert.True(t, cfg.LLM.UseMock)
		assert.Equal(t, SourceDefault, svc.GetSource("server.port"))
	})

	t.Run("Should let YAML override defaults while keeping omitted siblings", func(t *testing.T) {
		path := writeYAML(t, "server:\n  port: 9100\nllm:\n  default: codex\n")
		svc := NewService()
		cfg, err := svc.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, 9100, cfg.Server.Port)
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, "codex", cfg.LLM.Default)
		assert.Equal(t, SourceYAML, svc.GetSource("server.port"))
	})

	t.Run("Should let environment variables win over YAML", func(t *testing.T) {
		path := writeYAML(t, "server:\n  port: 9100\n")
		t.Setenv("SERVER_PORT", "9200")
		t.Setenv("CACHE_TTL", "2m")
		t.Setenv("ANTHROPIC_API_KEY", "sk-test")
		svc := NewService()
		cfg, err := svc.Load(context.Background(), NewYAMLProvider(path))
		require.NoError(t, err)
		assert.Equal(t, 9200, cfg.Server.Port)
		assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "sk-test", cfg.Providers.Anthropic.APIKey.Value())
		assert.True(t, cfg.HasProviderKeys())
		assert.Equal(t, SourceEnv, svc.GetSource("server.port"))
	})

	t.Run("Should apply CLI overrides above YAML", func(t *testing.T) {
		path := writeYAML(t, "retrieval:\n  top_k: 5\n")
		cfg, err := NewService().Load(
			context.Background(),
			NewYAMLProvider(path),
			NewCLIProvider(map[string]any{"retrieval.top_k": 7}),
		)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Retrieval.TopK)
	})

	t.Run("Should ignore a missing YAML file", func(t *testing.T) {
		cfg, err := NewService().Load(context.Background(), NewYAMLProvider(filepath.Join(t.TempDir(), "none.yaml")))
		require.NoError(t, err)
		assert.Equal(t, 8000, cfg.Server.Port)
	})

	t.Run("Should reject an out of range call timeout", func(t *testing.T) {
		t.Setenv("LLM_CALL_TIMEOUT", "5s")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm.call_timeout")
	})

	t.Run("Should reject a malformed rate", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_ASK", "twenty")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
	})

	t.Run("Should require a redis url for the redis cache backend", func(t *testing.T) {
		t.Setenv("CACHE_BACKEND", "redis")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.url")
	})

	t.Run("Should reject an unknown embedding provider", func(t *testing.T) {
		t.Setenv("EMBEDDING_PROVIDER", "word2vec")
		_, err := NewService().Load(context.Background())
		require.Error(t, err)
	})
}

func TestEnvMappings(t *testing.T) {
	t.Run("Should map tagged variables to dotted paths", func(t *testing.T) {
		m := GenerateEnvToConfigMap()
		assert.Equal(t, "server.port", m["SERVER_PORT"])
		assert.Equal(t, "providers.anthropic.api_key", m["ANTHROPIC_API_KEY"])
		assert.Equal(t, "llm.default", m["DEFAULT_LLM"])
		assert.Equal(t, "DATABASE_URL", EnvVarFor("database.conn_string"))
	})

	t.Run("Should flag secrets as sensitive", func(t *testing.T) {
		assert.True(t, IsSensitiveConfigPath("providers.openai.api_key"))
		assert.True(t, IsSensitiveConfigPath("server.api_key"))
		assert.False(t, IsSensitiveConfigPath("server.port"))
		assert.False(t, IsSensitiveConfigPath("unknown.path"))
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact when formatted", func(t *testing.T) {
		s := SensitiveString("secret")
		assert.Equal(t, "[REDACTED]", s.String())
		out, err := s.MarshalJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `"[REDACTED]"`, string(out))
		assert.Equal(t, "secret", s.Value())
	})

	t.Run("Should render empty values as empty", func(t *testing.T) {
		assert.Equal(t, "", SensitiveString("").String())
		assert.True(t, SensitiveString("").IsEmpty())
	})
}

func TestRateFormat(t *testing.T) {
	for _, rate := range []string{"20-M", "1-S", "1000-H", "5-D"} {
		assert.True(t, ratePattern.MatchString(rate), rate)
	}
	for _, rate := range []string{"0-M", "20-m", "20", "-M", "20-W"} {
		assert.False(t, ratePattern.MatchString(rate), rate)
	}
}
