package redis

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)

	rdb, err := NewRedisClient(context.Background(), Config{Host: host, Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(mr.Addr())
	mr.Close()

	rdb, err := NewRedisClient(context.Background(), Config{Host: host, Port: port})
	assert.Error(t, err)
	assert.Nil(t, rdb)
}

func TestConfig_Addr(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: "6379"}.Addr())
}
