package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/redis-k8s-charm/internal/core/ports/mocks"
)

func TestProbe_Ready(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := NewProbe(time.Second, mocks.NewPermissiveLogger(t))

	assert.True(t, p.Ready(context.Background(), "127.0.0.1", port))
}

func TestProbe_NotReady(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	p := NewProbe(200*time.Millisecond, mocks.NewPermissiveLogger(t))

	assert.False(t, p.Ready(context.Background(), "127.0.0.1", port))
}
