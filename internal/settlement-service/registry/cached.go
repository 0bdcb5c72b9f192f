package registry

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const labelsKey = "outcome_labels"

// Cached guarda os labels num set Redis com TTL na frente de outro Loader.
// Falha do Redis não bloqueia a validação: cai direto na origem.
type Cached struct {
	R      *redis.Client
	Origin Loader
	TTL    time.Duration
	Log    *zap.Logger
}

func NewCached(r *redis.Client, origin Loader, ttl time.Duration, log *zap.Logger) *Cached {
	return &Cached{R: r, Origin: origin, TTL: ttl, Log: log}
}

func (c *Cached) CurrentOutcomeLabels(ctx context.Context) (map[string]struct{}, error) {
	members, err := c.R.SMembers(ctx, labelsKey).Result()
	if err != nil {
		c.Log.Warn("outcome labels cache read failed", zap.Error(err))
	} else if len(members) > 0 {
		return toSet(members), nil
	}

	labels, err := c.Origin.CurrentOutcomeLabels(ctx)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return labels, nil
	}

	members = Sorted(labels)
	vals := make([]any, len(members))
	for i, m := range members {
		vals[i] = m
	}
	if _, err := c.R.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, labelsKey)
		p.SAdd(ctx, labelsKey, vals...)
		p.Expire(ctx, labelsKey, c.TTL)
		return nil
	}); err != nil {
		c.Log.Warn("outcome labels cache write failed", zap.Error(err))
	}
	return labels, nil
}
