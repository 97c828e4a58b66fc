package roster

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const activeAgentsKey = "roster:active_agents"

type cachedProvider struct {
	next        Provider
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewCachedProvider keeps the roster in redis for ttl. Cache failures fall
// through to next.
func NewCachedProvider(next Provider, redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) Provider {
	if redisClient == nil || ttl <= 0 {
		return next
	}
	return &cachedProvider{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    ttl,
		logger:      logger,
	}
}

func (p *cachedProvider) ActiveAgents(ctx context.Context) ([]string, error) {
	val, err := p.redisClient.Get(ctx, activeAgentsKey).Result()
	if err == nil {
		var ids []string
		if err := json.Unmarshal([]byte(val), &ids); err == nil {
			return ids, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		p.logger.Debug("roster cache read failed", zap.Error(err))
	}

	ids, err := p.next.ActiveAgents(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ids); err == nil {
		if err := p.redisClient.Set(ctx, activeAgentsKey, data, p.cacheTTL).Err(); err != nil {
			p.logger.Debug("roster cache write failed", zap.Error(err))
		}
	}
	return ids, nil
}
