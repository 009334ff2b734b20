package serve

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortAvailable(t *testing.T) {
	t.Run("Should detect a port in use", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer ln.Close()
		port := ln.Addr().(*net.TCPAddr).Port
		assert.False(t, portAvailable(context.Background(), "127.0.0.1", port))
	})

	t.Run("Should accept a free port", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())
		assert.True(t, portAvailable(context.Background(), "127.0.0.1", port))
	})
}

func TestNewCommand(t *testing.T) {
	t.Run("Should bind overrides to configuration keys", func(t *testing.T) {
		c := NewCommand()
		for flag, key := range map[string]string{"host": "server.host", "port": "server.port", "mock": "llm.use_mock"} {
			f := c.Flags().Lookup(flag)
			require.NotNil(t, f)
			assert.Equal(t, []string{key}, f.Annotations["config_key"])
		}
	})
}
