package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("Should publish reloaded configuration to callbacks", func(t *testing.T) {
		path := writeYAML(t, "llm:\n  default: claude\n")
		m := NewManager(nil)
		ctx := context.Background()
		cfg, err := m.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		defer m.Close(ctx)
		assert.Equal(t, "claude", cfg.LLM.Default)

		var seen atomic.Value
		m.OnChange(func(c *Config) { seen.Store(c.LLM.Default) })

		require.NoError(t, os.WriteFile(path, []byte("llm:\n  default: codex\n"), 0o600))
		require.NoError(t, m.Reload(ctx))
		assert.Equal(t, "codex", m.Get().LLM.Default)
		assert.Equal(t, "codex", seen.Load())
	})

	t.Run("Should run a snapshot of callbacks so they can register more", func(t *testing.T) {
		path := writeYAML(t, "llm:\n  default: claude\n")
		m := NewManager(nil)
		ctx := context.Background()
		_, err := m.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		defer m.Close(ctx)

		var outer, inner atomic.Int32
		m.OnChange(func(*Config) {
			outer.Add(1)
			m.OnChange(func(*Config) { inner.Add(1) })
		})
		require.NoError(t, os.WriteFile(path, []byte("llm:\n  default: codex\n"), 0o600))
		require.NoError(t, m.Reload(ctx))
		assert.Equal(t, int32(1), outer.Load())
		assert.Equal(t, int32(0), inner.Load())

		require.NoError(t, os.WriteFile(path, []byte("llm:\n  default: gemini\n"), 0o600))
		require.NoError(t, m.Reload(ctx))
		assert.Equal(t, int32(2), outer.Load())
		assert.Equal(t, int32(1), inner.Load())
	})

	t.Run("Should keep the current config when a reload is invalid", func(t *testing.T) {
		path := writeYAML(t, "retrieval:\n  top_k: 4\n")
		m := NewManager(nil)
		ctx := context.Background()
		_, err := m.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		defer m.Close(ctx)

		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: 99\n"), 0o600))
		require.Error(t, m.Reload(ctx))
		assert.Equal(t, 4, m.Get().Retrieval.TopK)
	})

	t.Run("Should skip callbacks when nothing changed", func(t *testing.T) {
		path := writeYAML(t, "server:\n  port: 8100\n")
		m := NewManager(nil)
		ctx := context.Background()
		_, err := m.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		defer m.Close(ctx)

		var calls atomic.Int32
		m.OnChange(func(*Config) { calls.Add(1) })
		require.NoError(t, m.Reload(ctx))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("Should reload automatically when the watched file changes", func(t *testing.T) {
		path := writeYAML(t, "llm:\n  default: claude\n")
		m := NewManager(nil)
		m.SetDebounce(10 * time.Millisecond)
		ctx := context.Background()
		_, err := m.Load(ctx, NewYAMLProvider(path))
		require.NoError(t, err)
		defer m.Close(ctx)

		require.NoError(t, os.WriteFile(path, []byte("llm:\n  default: gemini\n"), 0o600))
		assert.Eventually(t, func() bool {
			return m.Get().LLM.Default == "gemini"
		}, 3*time.Second, 20*time.Millisecond)
	})
}

func TestContext(t *testing.T) {
	t.Run("Should return the manager stored in context", func(t *testing.T) {
		m := NewManager(nil)
		_, err := m.Load(context.Background())
		require.NoError(t, err)
		ctx := ContextWithManager(context.Background(), m)
		assert.Same(t, m, ManagerFromContext(ctx))
		assert.Same(t, m.Get(), FromContext(ctx))
	})

	t.Run("Should fall back to defaults without a manager", func(t *testing.T) {
		cfg := FromContext(context.Background())
		require.NotNil(t, cfg)
		assert.Equal(t, "/metrics", cfg.Monitoring.Path)
	})
}
