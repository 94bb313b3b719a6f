package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/labelprint/internal/infrastructure/config"
)

func TestNewIdempotencyStore_Disabled(t *testing.T) {
	store := NewIdempotencyStore(context.Background(), config.RedisConfig{Enabled: false}, nil)
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}

func TestNewIdempotencyStore_FallsBackWhenUnreachable(t *testing.T) {
	core, recorded := observer.New(zapcore.WarnLevel)

	// Port 1 on loopback refuses connections immediately.
	store := NewIdempotencyStore(context.Background(), config.RedisConfig{
		Enabled: true,
		Host:    "127.0.0.1",
		Port:    1,
	}, zap.New(core))
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
	require.Equal(t, 1, recorded.Len())
	assert.Contains(t, recorded.All()[0].Message, "falling back")
}

func TestNewRedisIdempotencyStoreWithClient_DefaultPrefix(t *testing.T) {
	store := NewRedisIdempotencyStoreWithClient(nil, "")
	assert.Equal(t, DefaultKeyPrefix, store.keyPrefix)

	store = NewRedisIdempotencyStoreWithClient(nil, "custom:")
	assert.Equal(t, "custom:", store.keyPrefix)
}
