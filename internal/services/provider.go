package services

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/spell-effects/internal/catalog"
	"github.com/KirkDiggler/spell-effects/internal/config"
	"github.com/KirkDiggler/spell-effects/internal/dice"
	"github.com/KirkDiggler/spell-effects/internal/events"
	"github.com/KirkDiggler/spell-effects/internal/normalize"
	effectsrepo "github.com/KirkDiggler/spell-effects/internal/repositories/effects"
	effectsService "github.com/KirkDiggler/spell-effects/internal/services/effects"
)

// Provider holds all service instances
type Provider struct {
	Catalog        *catalog.Registry
	Normalizer     *normalize.Normalizer
	Roller         dice.Roller
	Events         *events.Bus
	EffectsService effectsService.Service

	closers []func() error
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	Config *config.Config

	// Optional overrides, mostly for tests
	Catalog    *catalog.Registry
	Repository effectsrepo.Repository
	Roller     dice.Roller
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(ctx context.Context, cfg *ProviderConfig) (*Provider, error) {
	if cfg == nil || cfg.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	p := &Provider{Events: events.NewBus()}

	reg := cfg.Catalog
	if reg == nil {
		var err error
		reg, err = LoadCatalog(cfg.Config)
		if err != nil {
			return nil, err
		}
	}
	p.Catalog = reg
	p.Normalizer = normalize.New(reg)

	p.Roller = cfg.Roller
	if p.Roller == nil {
		if seed := cfg.Config.Effects.DiceSeed; seed != nil {
			log.Printf("Using seeded dice roller (seed %d)", *seed)
			p.Roller = dice.NewSeededRoller(*seed)
		} else {
			p.Roller = dice.NewRandomRoller()
		}
	}

	repo := cfg.Repository
	if repo == nil {
		var err error
		repo, err = p.openRepository(ctx, cfg.Config)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
	}

	p.EffectsService = effectsService.NewService(&effectsService.ServiceConfig{
		Repository: repo,
		Catalog:    reg,
		Normalizer: p.Normalizer,
		Roller:     p.Roller,
		Events:     p.Events,
	})

	return p, nil
}

// Close releases any connections opened by the provider
func (p *Provider) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

// LoadCatalog opens the catalog named by EFFECTS_CATALOG_PATH, or the
// embedded default when none is configured.
func LoadCatalog(cfg *config.Config) (*catalog.Registry, error) {
	path := cfg.Effects.CatalogPath
	if path == "" {
		return catalog.Default()
	}
	log.Printf("Loading effect catalog from %s", path)
	reg, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return reg, nil
}

func (p *Provider) openRepository(ctx context.Context, cfg *config.Config) (effectsrepo.Repository, error) {
	switch cfg.Store {
	case config.StoreRedis:
		opts, err := cfg.Redis.Options()
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		p.closers = append(p.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Printf("Using Redis effect store at %s", opts.Addr)

		return effectsrepo.NewRedisRepository(&effectsrepo.RedisConfig{
			Client:    client,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.StoreSQLite:
		repo, err := effectsrepo.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, repo.Close)
		log.Printf("Using SQLite effect store at %s", cfg.SQLite.Path)
		return repo, nil
	default:
		log.Println("Using in-memory effect store")
		return effectsrepo.NewInMemoryRepository(), nil
	}
}
