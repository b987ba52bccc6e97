//go:build integration

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/spell-effects/internal/config"
	"github.com/KirkDiggler/spell-effects/internal/testutils"
)

func TestNewProvider_Redis(t *testing.T) {
	ctx := context.Background()
	client := testutils.StartRedisContainer(t)

	cfg := memoryConfig()
	cfg.Store = config.StoreRedis
	cfg.Redis.Addr = client.Options().Addr
	cfg.Redis.KeyPrefix = "provider-it"

	p, err := NewProvider(ctx, &ProviderConfig{Config: cfg})
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()

	id, _, err := p.EffectsService.Create(ctx)
	require.NoError(t, err)

	members, err := client.SMembers(ctx, "provider-it:index").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{id}, members)

	report, err := p.EffectsService.MigrateAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Empty(t, report.Upgraded)
}
