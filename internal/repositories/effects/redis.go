package effects

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	dnderr "github.com/KirkDiggler/spell-effects/internal/errors"
)

// DefaultKeyPrefix namespaces effect records in Redis
const DefaultKeyPrefix = "effect"

// RedisConfig holds configuration for the Redis repository
type RedisConfig struct {
	Client    redis.UniversalClient
	KeyPrefix string
}

type redisRepository struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisRepository creates a Redis-backed repository. Records live under
// <prefix>:<spellID> and every id is kept in the <prefix>:index set.
func NewRedisRepository(cfg *RedisConfig) (Repository, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, dnderr.InvalidArgument("redis client is required")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &redisRepository{
		client:    cfg.Client,
		keyPrefix: prefix,
	}, nil
}

func (r *redisRepository) recordKey(spellID string) string {
	return r.keyPrefix + ":" + spellID
}

func (r *redisRepository) indexKey() string {
	return r.keyPrefix + ":index"
}

func (r *redisRepository) Get(ctx context.Context, spellID string) ([]byte, error) {
	if err := checkSpellID(spellID); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.recordKey(spellID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(spellID)
		}
		return nil, dnderr.Wrapf(err, "failed to get effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	return data, nil
}

func (r *redisRepository) Put(ctx context.Context, spellID string, record []byte) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.recordKey(spellID), record, 0)
	pipe.SAdd(ctx, r.indexKey(), spellID)

	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.Wrapf(err, "failed to store effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, spellID string) error {
	if err := checkSpellID(spellID); err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.recordKey(spellID))
	pipe.SRem(ctx, r.indexKey(), spellID)

	if _, err := pipe.Exec(ctx); err != nil {
		return dnderr.Wrapf(err, "failed to delete effect record for spell %s", spellID).
			WithMeta("spell_id", spellID)
	}
	if del.Val() == 0 {
		return notFound(spellID)
	}
	return nil
}

func (r *redisRepository) ListSpellIDs(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, dnderr.Wrap(err, "failed to list effect records")
	}
	sort.Strings(ids)
	return ids, nil
}
