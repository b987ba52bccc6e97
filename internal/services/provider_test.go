package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/spell-effects/internal/config"
	"github.com/KirkDiggler/spell-effects/internal/events"
	"github.com/KirkDiggler/spell-effects/internal/testutils"
	"github.com/KirkDiggler/spell-effects/internal/uuid"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:   config.StoreMemory,
		Effects: config.EffectsConfig{MigrateWorkers: 1},
	}
}

func TestNewProvider_RequiresConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), &ProviderConfig{})
	assert.Error(t, err)
}

func TestNewProvider_Memory(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, &ProviderConfig{Config: memoryConfig()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()

	require.NotNil(t, p.Catalog)
	require.NotNil(t, p.EffectsService)

	var created []string
	p.Events.Subscribe(events.EventTypeEffectCreated, events.ListenerFunc{
		Name: "test",
		Fn: func(e events.Event) error {
			created = append(created, e.GetSpellID())
			return nil
		},
	})

	id, _, err := p.EffectsService.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, created)
	assert.True(t, uuid.Valid(id))

	inst, _, err := p.EffectsService.Load(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, inst)
}

func TestNewProvider_SeededRollerRepeats(t *testing.T) {
	seed := uint64(42)
	cfg := memoryConfig()
	cfg.Effects.DiceSeed = &seed

	roll := func() int {
		p, err := NewProvider(context.Background(), &ProviderConfig{Config: cfg})
		require.NoError(t, err)
		result, err := p.Roller.Roll(3, 20, 0)
		require.NoError(t, err)
		return result.Total
	}

	assert.Equal(t, roll(), roll())
}

func TestNewProvider_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	cfg.Store = config.StoreSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "effects.db")

	p, err := NewProvider(ctx, &ProviderConfig{Config: cfg})
	require.NoError(t, err)

	inst := testutils.CreateTestInstance(t)
	_, err = p.EffectsService.Save(ctx, "fireball", inst)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// reopen against the same file
	p, err = NewProvider(ctx, &ProviderConfig{Config: cfg})
	require.NoError(t, err)
	defer func() { assert.NoError(t, p.Close()) }()

	loaded, _, err := p.EffectsService.Load(ctx, "fireball")
	require.NoError(t, err)
	assert.Equal(t, inst.DifficultyClass, loaded.DifficultyClass)
}

func TestNewProvider_BadCatalogPath(t *testing.T) {
	cfg := memoryConfig()
	cfg.Effects.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewProvider(context.Background(), &ProviderConfig{Config: cfg})
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	t.Run("default catalog when no path is configured", func(t *testing.T) {
		reg, err := LoadCatalog(memoryConfig())
		require.NoError(t, err)
		assert.True(t, reg.HasStatusEffect("lifelink"))
	})

	t.Run("configured path is used", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`stats:
  - id: focus
    name: Focus
    category: utility
statusEffects: []
`), 0o600))

		cfg := memoryConfig()
		cfg.Effects.CatalogPath = path
		reg, err := LoadCatalog(cfg)
		require.NoError(t, err)
		assert.True(t, reg.HasStat("focus"))
		assert.False(t, reg.HasStatusEffect("lifelink"))
	})

	t.Run("missing file fails", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Effects.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := LoadCatalog(cfg)
		assert.Error(t, err)
	})
}
